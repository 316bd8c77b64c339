package auth

import (
	"context"
	"encoding/json"
	"fmt"

	firebase "firebase.google.com/go/v4"
	fbauth "firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"
)

// FirebaseProvider verifies Firebase ID tokens with the Admin SDK.
type FirebaseProvider struct {
	client *fbauth.Client
}

// NewFirebaseProvider initialises the Admin SDK from a service-account
// document.
func NewFirebaseProvider(ctx context.Context, projectID string, serviceAccount map[string]string) (*FirebaseProvider, error) {
	creds, err := json.Marshal(serviceAccount)
	if err != nil {
		return nil, fmt.Errorf("auth/firebase: encode credentials: %w", err)
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID}, option.WithCredentialsJSON(creds))
	if err != nil {
		return nil, fmt.Errorf("auth/firebase: init app: %w", err)
	}

	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("auth/firebase: auth client: %w", err)
	}
	return &FirebaseProvider{client: client}, nil
}

func (p *FirebaseProvider) VerifyIDToken(ctx context.Context, idToken string) (*Claims, error) {
	tok, err := p.client.VerifyIDToken(ctx, idToken)
	if err != nil {
		if fbauth.IsIDTokenExpired(err) {
			return nil, fmt.Errorf("%w: %v", ErrTokenExpired, err)
		}
		return nil, fmt.Errorf("auth/firebase: verify: %w", err)
	}

	return &Claims{
		UID:   tok.UID,
		Email: stringClaim(tok.Claims, "email"),
		Name:  stringClaim(tok.Claims, "name"),
		Role:  stringClaim(tok.Claims, "role"),
	}, nil
}

func (p *FirebaseProvider) SetCustomClaims(ctx context.Context, uid string, claims map[string]interface{}) error {
	if err := p.client.SetCustomUserClaims(ctx, uid, claims); err != nil {
		return fmt.Errorf("auth/firebase: set custom claims for %s: %w", uid, err)
	}
	return nil
}
