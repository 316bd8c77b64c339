// Package ctx provides the request context handed to controllers.
//
// Instead of accepting (http.ResponseWriter, *http.Request), a handler
// receives a single *Context:
//
//	func (c *MenuController) Show(cx *ctx.Context) {
//	    item, err := c.menu.Get(cx.Context(), cx.Param("id"))
//	    if err != nil {
//	        cx.Fail(err)
//	        return
//	    }
//	    cx.JSON(http.StatusOK, item)
//	}
//
//	router.Get("/menu/{id}", "menu.show", ctx.Wrap(c.Show))
package ctx

import (
	"context"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/aniicone/cafe-api/pkg/apperr"
	"github.com/aniicone/cafe-api/pkg/auth"
	"github.com/aniicone/cafe-api/pkg/bind"
	"github.com/aniicone/cafe-api/pkg/response"
)

// HandlerFunc is the context-aware handler signature.
type HandlerFunc func(c *Context)

// Wrap converts a HandlerFunc to a standard http.HandlerFunc.
func Wrap(h HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := acquire(w, r)
		defer release(c)
		h(c)
	}
}

// ── Context ──────────────────────────────────────────────────────────────────

// Context wraps a request/response pair.
type Context struct {
	W      http.ResponseWriter
	R      *http.Request
	status int
}

var pool = sync.Pool{
	New: func() any { return &Context{} },
}

func acquire(w http.ResponseWriter, r *http.Request) *Context {
	c := pool.Get().(*Context)
	c.W = w
	c.R = r
	c.status = 0
	return c
}

func release(c *Context) {
	c.W = nil
	c.R = nil
	pool.Put(c)
}

// ── Request helpers ──────────────────────────────────────────────────────────

// Param returns a URL path parameter.
func (c *Context) Param(key string) string {
	return chi.URLParam(c.R, key)
}

// Query returns a query-string value, or "" if absent.
func (c *Context) Query(key string) string {
	return c.R.URL.Query().Get(key)
}

func (c *Context) Header(key string) string {
	return c.R.Header.Get(key)
}

// Context returns the request context.
func (c *Context) Context() context.Context { return c.R.Context() }

// Principal returns the caller resolved by the auth middleware.
func (c *Context) Principal() (*auth.Principal, bool) {
	return auth.PrincipalFromCtx(c.R.Context())
}

// ── Binding ──────────────────────────────────────────────────────────────────

// BindJSON decodes and validates the body into dest. On failure it writes
// a 400 VALIDATION_ERROR and returns false.
//
//	var in LoginInput
//	if !c.BindJSON(&in) {
//	    return
//	}
func (c *Context) BindJSON(dest any) bool {
	errs, err := bind.JSON(c.W, c.R, dest)
	if err != nil {
		c.Fail(apperr.NewValidation(err.Error(), nil))
		return false
	}
	if len(errs) > 0 {
		c.Fail(apperr.NewValidation("Validation failed", errs))
		return false
	}
	return true
}

// ── Responses ────────────────────────────────────────────────────────────────

// JSON writes v with the given status.
func (c *Context) JSON(code int, v any) {
	c.status = code
	response.JSON(c.W, code, v)
}

// Created writes v with 201.
func (c *Context) Created(v any) { c.JSON(http.StatusCreated, v) }

// Message writes a bare {message} body.
func (c *Context) Message(code int, message string) {
	c.status = code
	response.Message(c.W, code, message)
}

// Fail renders err through the error envelope.
func (c *Context) Fail(err error) {
	if e, ok := apperr.As(err); ok {
		c.status = e.Status
	} else {
		c.status = http.StatusInternalServerError
	}
	response.Error(c.W, c.R, err)
}

// WrittenStatus returns the status written so far, or 0.
func (c *Context) WrittenStatus() int { return c.status }
