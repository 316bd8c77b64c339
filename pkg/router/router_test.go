package router_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aniicone/cafe-api/pkg/router"
)

func ok(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) }

func tag(v string) router.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Add("X-Chain", v)
			next.ServeHTTP(w, r)
		})
	}
}

func TestGroupsComposeMiddlewareInOrder(t *testing.T) {
	r := router.New()
	api := r.Group("/api", tag("api"))
	orders := api.Group("orders", tag("auth"))
	orders.Patch("/{id}/status", "orders.status", ok, tag("admin"))

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPatch, "/api/orders/42/status", nil))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, []string{"api", "auth", "admin"}, rec.Header().Values("X-Chain"))
}

func TestNamedRoutes(t *testing.T) {
	r := router.New()
	api := r.Group("/api")
	api.Get("/menu/{id}", "menu.show", ok)
	api.Delete("/menu/{id}", "menu.destroy", ok)
	r.Get("/healthz", "", ok)

	url, err := r.URL("menu.show", map[string]string{"id": "abc"})
	require.NoError(t, err)
	assert.Equal(t, "/api/menu/abc", url)

	_, err = r.URL("menu.show", nil)
	assert.Error(t, err)
	_, err = r.URL("missing", nil)
	assert.Error(t, err)

	assert.Equal(t, []router.RouteInfo{
		{Method: http.MethodDelete, Path: "/api/menu/{id}", Name: "menu.destroy"},
		{Method: http.MethodGet, Path: "/api/menu/{id}", Name: "menu.show"},
		{Method: http.MethodGet, Path: "/healthz"},
	}, r.Routes())
}
