package auth

import "context"

const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
)

// Principal is the resolved identity of the caller for one request.
type Principal struct {
	LocalID    string `json:"id"`
	ExternalID string `json:"externalId"`
	Role       string `json:"role"`
	Email      string `json:"email"`
}

func (p *Principal) IsAdmin() bool { return p != nil && p.Role == RoleAdmin }

// Owns reports whether the principal is the customer identified by
// customerID.
func (p *Principal) Owns(customerID string) bool {
	return p != nil && p.ExternalID != "" && p.ExternalID == customerID
}

// EffectiveRole applies role precedence: a role claim on the verified
// token wins, then the stored role, then customer.
func EffectiveRole(claimRole, storedRole string) string {
	if claimRole != "" {
		return claimRole
	}
	if storedRole != "" {
		return storedRole
	}
	return RoleCustomer
}

type principalKey struct{}

// WithPrincipal stores p in ctx.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFromCtx returns the principal stored by the auth middleware.
func PrincipalFromCtx(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(*Principal)
	return p, ok && p != nil
}
