package auth

import (
	"context"
	"errors"
)

// ErrTokenExpired is returned by providers when an otherwise valid ID
// token is past its expiry.
var ErrTokenExpired = errors.New("auth: id token expired")

// Claims is the subset of a verified ID token the application reads.
type Claims struct {
	UID   string
	Email string
	Name  string
	// Role is the "role" custom claim, empty when the token carries none.
	Role string
}

// Provider verifies ID tokens issued by the external identity service and
// manages the custom claims attached to its accounts.
type Provider interface {
	VerifyIDToken(ctx context.Context, idToken string) (*Claims, error)
	SetCustomClaims(ctx context.Context, uid string, claims map[string]interface{}) error
}

func stringClaim(m map[string]interface{}, key string) string {
	s, _ := m[key].(string)
	return s
}
