package controllers

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/aniicone/cafe-api/app/services"
	"github.com/aniicone/cafe-api/pkg/apperr"
	"github.com/aniicone/cafe-api/pkg/ctx"
)

type AdminController struct {
	identity  *services.IdentityService
	secretKey func() string
}

// NewAdminController reads the bootstrap secret through secretKey on
// every call so configuration changes apply without a restart.
func NewAdminController(identity *services.IdentityService, secretKey func() string) *AdminController {
	return &AdminController{identity: identity, secretKey: secretKey}
}

type firstAdminInput struct {
	UID       string `json:"uid"`
	SecretKey string `json:"secretKey"`
}

// SetFirstAdmin bootstraps the first admin with the shared secret.
func (c *AdminController) SetFirstAdmin(cx *ctx.Context) {
	var in firstAdminInput
	if _, err := bindBody(cx, &in); err != nil {
		cx.Fail(apperr.NewValidation(err.Error(), nil))
		return
	}

	expected := c.secretKey()
	if expected == "" || subtle.ConstantTimeCompare([]byte(in.SecretKey), []byte(expected)) != 1 {
		cx.Fail(apperr.New(apperr.AccessDenied, http.StatusForbidden, "Invalid secret key"))
		return
	}
	uid := strings.TrimSpace(in.UID)
	if uid == "" {
		cx.Fail(apperr.NewValidation("User ID is required", map[string]string{"uid": "The uid field is required."}))
		return
	}

	if err := c.identity.PromoteToAdmin(cx.Context(), uid); err != nil {
		cx.Fail(err)
		return
	}
	cx.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "First admin role set successfully",
		"uid":     uid,
	})
}

type promoteInput struct {
	UID string `json:"uid" validate:"required"`
}

// SetAdminRole lets an admin promote another account.
func (c *AdminController) SetAdminRole(cx *ctx.Context) {
	var in promoteInput
	if !cx.BindJSON(&in) {
		return
	}
	if err := c.identity.PromoteToAdmin(cx.Context(), strings.TrimSpace(in.UID)); err != nil {
		cx.Fail(err)
		return
	}
	cx.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "User upgraded to admin role",
	})
}

// CheckStatus reports whether the caller is an admin.
func (c *AdminController) CheckStatus(cx *ctx.Context) {
	p, ok := cx.Principal()
	if !ok {
		cx.Fail(apperr.NewMissingToken())
		return
	}
	cx.JSON(http.StatusOK, map[string]interface{}{
		"isAdmin": p.IsAdmin(),
		"uid":     p.ExternalID,
	})
}
