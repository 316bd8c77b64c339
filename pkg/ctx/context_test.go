package ctx_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aniicone/cafe-api/pkg/apperr"
	"github.com/aniicone/cafe-api/pkg/auth"
	appctx "github.com/aniicone/cafe-api/pkg/ctx"
)

func TestWrapAndJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	appctx.Wrap(func(c *appctx.Context) {
		c.JSON(http.StatusOK, map[string]any{"ok": true})
		assert.Equal(t, http.StatusOK, c.WrittenStatus())
	})(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ok":true}`, rec.Body.String())
}

func TestParamThroughChi(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/menu/{id}", appctx.Wrap(func(c *appctx.Context) {
		c.JSON(http.StatusOK, map[string]string{"id": c.Param("id"), "q": c.Query("q")})
	}))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/menu/abc?q=tea", nil))
	assert.JSONEq(t, `{"id":"abc","q":"tea"}`, rec.Body.String())
}

func TestBindJSONInvalid(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":""}`))

	appctx.Wrap(func(c *appctx.Context) {
		var input struct {
			Name string `json:"name" validate:"required"`
		}
		assert.False(t, c.BindJSON(&input))
	})(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"code":"VALIDATION_ERROR"`)
	assert.Contains(t, rec.Body.String(), `"name":"The name field is required."`)
}

func TestFail(t *testing.T) {
	rec := httptest.NewRecorder()
	appctx.Wrap(func(c *appctx.Context) {
		c.Fail(apperr.NewAccessDenied())
	})(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), `"code":"ACCESS_DENIED"`)

	rec = httptest.NewRecorder()
	appctx.Wrap(func(c *appctx.Context) {
		c.Fail(errors.New("boom"))
	})(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), `"message":"Something went wrong!"`)
}

func TestPrincipal(t *testing.T) {
	p := &auth.Principal{ExternalID: "ext-1", Role: auth.RoleCustomer}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(auth.WithPrincipal(context.Background(), p))

	appctx.Wrap(func(c *appctx.Context) {
		got, ok := c.Principal()
		require.True(t, ok)
		assert.Equal(t, "ext-1", got.ExternalID)
	})(httptest.NewRecorder(), req)
}
