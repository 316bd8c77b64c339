// Package rbac provides role checks over the Principal resolved by the
// auth middleware.
package rbac

import (
	"net/http"

	"github.com/aniicone/cafe-api/pkg/apperr"
	"github.com/aniicone/cafe-api/pkg/auth"
	"github.com/aniicone/cafe-api/pkg/response"
)

// Allow is the admin gate predicate: nil when p may proceed.
func Allow(p *auth.Principal, roles ...string) error {
	if p == nil {
		return apperr.NewMissingToken()
	}
	for _, role := range roles {
		if p.Role == role {
			return nil
		}
	}
	if len(roles) == 1 && roles[0] == auth.RoleAdmin {
		return apperr.NewAdminRequired()
	}
	return apperr.NewAccessDenied()
}

// HasRole allows only principals holding one of roles. Authenticate must
// run first.
func HasRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, _ := auth.PrincipalFromCtx(r.Context())
			if err := Allow(p, roles...); err != nil {
				response.Error(w, r, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Admin is HasRole(auth.RoleAdmin).
func Admin(next http.Handler) http.Handler {
	return HasRole(auth.RoleAdmin)(next)
}
