package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// LocalProvider is an HS256 identity provider for development and tests.
// It plays the role of the external service: Mint issues ID tokens and
// SetCustomClaims records claim overrides that apply to every token for
// that uid verified afterwards.
type LocalProvider struct {
	secret []byte

	mu     sync.RWMutex
	custom map[string]map[string]interface{}
}

type localClaims struct {
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
	Role  string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

func NewLocalProvider(secret string) *LocalProvider {
	return &LocalProvider{
		secret: []byte(secret),
		custom: make(map[string]map[string]interface{}),
	}
}

// Mint issues an ID token for uid. An empty role leaves the claim out.
func (p *LocalProvider) Mint(uid, email, name, role string, ttl time.Duration) (string, error) {
	if uid == "" {
		return "", errors.New("auth/local: uid is required")
	}
	now := time.Now()
	claims := localClaims{
		Email: email,
		Name:  name,
		Role:  role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   uid,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
}

func (p *LocalProvider) VerifyIDToken(_ context.Context, idToken string) (*Claims, error) {
	var lc localClaims
	_, err := jwt.ParseWithClaims(idToken, &lc, func(*jwt.Token) (interface{}, error) {
		return p.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %v", ErrTokenExpired, err)
		}
		return nil, fmt.Errorf("auth/local: verify: %w", err)
	}
	if lc.Subject == "" {
		return nil, errors.New("auth/local: token has no subject")
	}

	c := &Claims{UID: lc.Subject, Email: lc.Email, Name: lc.Name, Role: lc.Role}

	p.mu.RLock()
	if role := stringClaim(p.custom[c.UID], "role"); role != "" {
		c.Role = role
	}
	p.mu.RUnlock()

	return c, nil
}

func (p *LocalProvider) SetCustomClaims(_ context.Context, uid string, claims map[string]interface{}) error {
	if uid == "" {
		return errors.New("auth/local: uid is required")
	}
	cp := make(map[string]interface{}, len(claims))
	for k, v := range claims {
		cp[k] = v
	}

	p.mu.Lock()
	p.custom[uid] = cp
	p.mu.Unlock()
	return nil
}
