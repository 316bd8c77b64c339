package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aniicone/cafe-api/app/models"
	"github.com/aniicone/cafe-api/app/repositories"
	"github.com/aniicone/cafe-api/pkg/apperr"
	"github.com/aniicone/cafe-api/pkg/auth"
	"github.com/aniicone/cafe-api/pkg/logger"
)

const defaultUserName = "User"

// IdentityService resolves bearer credentials into principals and owns the
// lazily created local user records.
type IdentityService struct {
	provider auth.Provider
	users    UserStore
}

func NewIdentityService(provider auth.Provider, users UserStore) *IdentityService {
	return &IdentityService{provider: provider, users: users}
}

// Provider exposes the identity provider for admin role changes.
func (s *IdentityService) Provider() auth.Provider { return s.provider }

// Resolve implements middleware.Resolver.
func (s *IdentityService) Resolve(ctx context.Context, authorization string, createIfMissing bool) (*auth.Principal, error) {
	token, ok := bearerToken(authorization)
	if !ok {
		return nil, apperr.NewMissingToken()
	}

	claims, err := s.verify(ctx, token)
	if err != nil {
		return nil, err
	}

	user, err := s.users.FindByExternalID(ctx, claims.UID)
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		if !createIfMissing {
			return nil, apperr.NewUserNotFound()
		}
		if user, err = s.createFromClaims(ctx, claims); err != nil {
			return nil, err
		}
	case err != nil:
		return nil, fmt.Errorf("identity: lookup user: %w", err)
	}

	return principalFor(user, claims), nil
}

// Verify checks an ID token with the provider, mapping failures onto the
// token error codes.
func (s *IdentityService) verify(ctx context.Context, token string) (*auth.Claims, error) {
	claims, err := s.provider.VerifyIDToken(ctx, token)
	if err == nil {
		return claims, nil
	}
	if errors.Is(err, auth.ErrTokenExpired) {
		return nil, apperr.NewTokenExpired().Wrap(err)
	}
	logger.WithCtx(ctx).Warn("identity: token rejected", "error", err)
	return nil, apperr.NewInvalidToken("Invalid authentication token").Wrap(err)
}

// LoginResult is returned by Login.
type LoginResult struct {
	Token string       `json:"token"`
	User  LoginProfile `json:"user"`
}

type LoginProfile struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Login exchanges a provider ID token for a one-hour session token,
// creating the local user on first sight. Every failure is reported as
// INVALID_TOKEN.
func (s *IdentityService) Login(ctx context.Context, idToken string) (*LoginResult, error) {
	fail := func(err error) (*LoginResult, error) {
		logger.WithCtx(ctx).Warn("identity: login failed", "error", err)
		return nil, apperr.NewInvalidToken("Authentication failed").Wrap(err)
	}

	if strings.TrimSpace(idToken) == "" {
		return fail(errors.New("empty id token"))
	}
	claims, err := s.provider.VerifyIDToken(ctx, idToken)
	if err != nil {
		return fail(err)
	}

	user, err := s.users.FindByExternalID(ctx, claims.UID)
	if errors.Is(err, repositories.ErrNotFound) {
		user, err = s.createFromClaims(ctx, claims)
	}
	if err != nil {
		return fail(err)
	}

	token, err := auth.GenerateToken(user.ID.Hex(), user.Role)
	if err != nil {
		return fail(err)
	}

	return &LoginResult{
		Token: token,
		User:  LoginProfile{ID: user.ID.Hex(), Name: user.Name, Email: user.Email, Role: user.Role},
	}, nil
}

// Profile is the /users/me response.
type Profile struct {
	ID         string `json:"id"`
	Email      string `json:"email"`
	Name       string `json:"name"`
	Role       string `json:"role"`
	ExternalID string `json:"externalId"`
}

// Profile loads the caller's stored record and reports the effective role.
func (s *IdentityService) Profile(ctx context.Context, p *auth.Principal) (*Profile, error) {
	user, err := s.users.FindByExternalID(ctx, p.ExternalID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, apperr.NewUserNotFound()
	}
	if err != nil {
		return nil, fmt.Errorf("identity: load profile: %w", err)
	}
	return &Profile{
		ID:         user.ID.Hex(),
		Email:      user.Email,
		Name:       user.Name,
		Role:       p.Role,
		ExternalID: user.ExternalID,
	}, nil
}

// PromoteToAdmin sets the provider role claim and mirrors it onto the
// local record when one exists. The mirror is best effort.
func (s *IdentityService) PromoteToAdmin(ctx context.Context, uid string) error {
	if err := s.provider.SetCustomClaims(ctx, uid, map[string]interface{}{"role": auth.RoleAdmin}); err != nil {
		return fmt.Errorf("identity: set admin claim: %w", err)
	}
	if err := s.users.SetRole(ctx, uid, models.RoleAdmin); err != nil && !errors.Is(err, repositories.ErrNotFound) {
		logger.WithCtx(ctx).Warn("identity: mirror admin role failed", "uid", uid, "error", err)
	}
	logger.WithCtx(ctx).Info("identity: admin role granted", "uid", uid)
	return nil
}

func (s *IdentityService) createFromClaims(ctx context.Context, claims *auth.Claims) (*models.User, error) {
	name := claims.Name
	if name == "" {
		name = defaultUserName
	}
	user := &models.User{
		ExternalID: claims.UID,
		Email:      claims.Email,
		Name:       name,
		Role:       models.RoleCustomer,
	}
	err := s.users.Create(ctx, user)
	if errors.Is(err, repositories.ErrDuplicate) {
		// A concurrent first request may have created the record already.
		if existing, ferr := s.users.FindByExternalID(ctx, claims.UID); ferr == nil {
			return existing, nil
		}
		// Otherwise the email belongs to another account, e.g. the same
		// person signing in through a second provider. Keep the new
		// account and leave its email unset.
		if user.Email != "" {
			logger.WithCtx(ctx).Warn("identity: email already in use, creating user without it",
				"external_id", claims.UID)
			user.Email = ""
			err = s.users.Create(ctx, user)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("identity: create user: %w", err)
	}
	logger.WithCtx(ctx).Info("identity: user created", "external_id", claims.UID)
	return user, nil
}

func principalFor(u *models.User, claims *auth.Claims) *auth.Principal {
	return &auth.Principal{
		LocalID:    u.ID.Hex(),
		ExternalID: u.ExternalID,
		Role:       auth.EffectiveRole(claims.Role, u.Role),
		Email:      u.Email,
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
