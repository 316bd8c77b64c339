package middleware

import (
	"context"
	"net/http"

	"github.com/aniicone/cafe-api/pkg/apperr"
	"github.com/aniicone/cafe-api/pkg/auth"
	"github.com/aniicone/cafe-api/pkg/metrics"
	"github.com/aniicone/cafe-api/pkg/response"
)

// Resolver turns an Authorization header value into a Principal. With
// createIfMissing set, an unknown but verified identity gets a local user.
type Resolver interface {
	Resolve(ctx context.Context, authorization string, createIfMissing bool) (*auth.Principal, error)
}

// Authenticate requires a resolvable bearer token and stores the
// Principal in the request context.
func Authenticate(res Resolver) func(http.Handler) http.Handler {
	return authenticate(res, false, false)
}

// AuthenticateJIT is Authenticate for routes that create the local user
// on first sight.
func AuthenticateJIT(res Resolver) func(http.Handler) http.Handler {
	return authenticate(res, true, false)
}

// AuthenticateSocket also accepts the token in the access_token query
// parameter, since browsers cannot set headers on WebSocket upgrades.
func AuthenticateSocket(res Resolver) func(http.Handler) http.Handler {
	return authenticate(res, false, true)
}

func authenticate(res Resolver, jit, allowQuery bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" && allowQuery {
				if tok := r.URL.Query().Get("access_token"); tok != "" {
					header = "Bearer " + tok
				}
			}

			p, err := res.Resolve(r.Context(), header, jit)
			if err != nil {
				code := apperr.Internal
				if e, ok := apperr.As(err); ok {
					code = e.Code
				}
				metrics.AuthFailures.WithLabelValues(string(code)).Inc()
				response.Error(w, r, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithPrincipal(r.Context(), p)))
		})
	}
}
