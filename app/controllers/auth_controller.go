package controllers

import (
	"net/http"

	"github.com/aniicone/cafe-api/app/services"
	"github.com/aniicone/cafe-api/pkg/apperr"
	"github.com/aniicone/cafe-api/pkg/ctx"
)

type AuthController struct {
	identity *services.IdentityService
}

func NewAuthController(identity *services.IdentityService) *AuthController {
	return &AuthController{identity: identity}
}

type loginInput struct {
	IDToken string `json:"idToken"`
}

// Login exchanges a provider ID token for a session token.
func (c *AuthController) Login(cx *ctx.Context) {
	var in loginInput
	if !c.bind(cx, &in) {
		return
	}
	res, err := c.identity.Login(cx.Context(), in.IDToken)
	if err != nil {
		cx.Fail(err)
		return
	}
	cx.JSON(http.StatusOK, res)
}

// bind reports any malformed body as a failed login.
func (c *AuthController) bind(cx *ctx.Context, dest interface{}) bool {
	if _, err := bindBody(cx, dest); err != nil {
		cx.Fail(apperr.NewInvalidToken("Authentication failed").Wrap(err))
		return false
	}
	return true
}

type UserController struct {
	identity *services.IdentityService
}

func NewUserController(identity *services.IdentityService) *UserController {
	return &UserController{identity: identity}
}

// Me returns the caller's profile with the effective role.
func (c *UserController) Me(cx *ctx.Context) {
	p, ok := cx.Principal()
	if !ok {
		cx.Fail(apperr.NewMissingToken())
		return
	}
	prof, err := c.identity.Profile(cx.Context(), p)
	if err != nil {
		cx.Fail(err)
		return
	}
	cx.JSON(http.StatusOK, prof)
}
