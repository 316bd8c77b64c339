package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/aniicone/cafe-api/pkg/apperr"
	"github.com/aniicone/cafe-api/pkg/auth"
	"github.com/aniicone/cafe-api/pkg/middleware"
)

type stubResolver struct {
	gotHeader string
	gotJIT    bool
	principal *auth.Principal
	err       error
}

func (s *stubResolver) Resolve(_ context.Context, header string, jit bool) (*auth.Principal, error) {
	s.gotHeader, s.gotJIT = header, jit
	return s.principal, s.err
}

func whoami(w http.ResponseWriter, r *http.Request) {
	p, _ := auth.PrincipalFromCtx(r.Context())
	w.Write([]byte(p.ExternalID)) //nolint:errcheck
}

func TestAuthenticateStoresPrincipal(t *testing.T) {
	res := &stubResolver{principal: &auth.Principal{ExternalID: "ext-1"}}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer tok")
	rec := httptest.NewRecorder()

	middleware.AuthenticateJIT(res)(http.HandlerFunc(whoami)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ext-1", rec.Body.String())
	assert.Equal(t, "Bearer tok", res.gotHeader)
	assert.True(t, res.gotJIT)
}

func TestAuthenticateRendersResolverError(t *testing.T) {
	res := &stubResolver{err: apperr.NewTokenExpired()}
	rec := httptest.NewRecorder()

	middleware.Authenticate(res)(http.HandlerFunc(whoami)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), `"code":"TOKEN_EXPIRED"`)
	assert.False(t, res.gotJIT)
}

func TestAuthenticateSocketReadsQueryToken(t *testing.T) {
	res := &stubResolver{principal: &auth.Principal{ExternalID: "ext-2"}}
	rec := httptest.NewRecorder()

	middleware.AuthenticateSocket(res)(http.HandlerFunc(whoami)).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/live?access_token=abc", nil))

	assert.Equal(t, "Bearer abc", res.gotHeader)
	assert.Equal(t, "ext-2", rec.Body.String())
}

func TestRecovery(t *testing.T) {
	rec := httptest.NewRecorder()
	middleware.Recovery(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("kaboom")
	})).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), `"code":"INTERNAL_ERROR"`)
	assert.Contains(t, rec.Body.String(), `"message":"Something went wrong!"`)
}

func TestCORS(t *testing.T) {
	h := middleware.CORS(middleware.DefaultCORSOptions("http://localhost:3000"))(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodOptions, "/api/menu", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))

	req = httptest.NewRequest(http.MethodGet, "/api/menu", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRateLimit(t *testing.T) {
	h := middleware.RateLimit(2, time.Minute)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func rateLimited(max int, trusted ...string) http.Handler {
	return middleware.RateLimit(max, time.Minute, trusted...)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
}

func hit(h http.Handler, remote, forwardedFor string) int {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = remote
	if forwardedFor != "" {
		req.Header.Set("X-Forwarded-For", forwardedFor)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec.Code
}

func TestRateLimitIgnoresForwardedForFromUntrustedPeer(t *testing.T) {
	h := rateLimited(2)

	codes := []int{
		hit(h, "203.0.113.9:4000", "1.1.1.1"),
		hit(h, "203.0.113.9:4001", "2.2.2.2"),
		hit(h, "203.0.113.9:4002", "3.3.3.3"),
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes,
		"rotating X-Forwarded-For does not buy a fresh bucket")

	assert.Equal(t, http.StatusOK, hit(h, "198.51.100.4:4000", ""))
}

func TestRateLimitBehindTrustedProxy(t *testing.T) {
	h := rateLimited(1, "10.0.0.0/8", "192.168.1.7")

	assert.Equal(t, http.StatusOK, hit(h, "10.1.2.3:80", "203.0.113.1"))
	assert.Equal(t, http.StatusOK, hit(h, "10.1.2.3:80", "203.0.113.2"), "each forwarded client has its own bucket")
	assert.Equal(t, http.StatusTooManyRequests, hit(h, "10.9.9.9:80", "203.0.113.1"))

	// A client-supplied leftmost entry is ignored; the rightmost untrusted
	// hop is the one the proxy chain saw.
	assert.Equal(t, http.StatusOK, hit(h, "192.168.1.7:80", "6.6.6.6, 198.51.100.8, 10.0.0.2"))
	assert.Equal(t, http.StatusTooManyRequests, hit(h, "192.168.1.7:80", "7.7.7.7, 198.51.100.8"))
}
