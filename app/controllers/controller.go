// Package controllers adapts HTTP requests to the café services.
package controllers

import (
	"github.com/aniicone/cafe-api/pkg/bind"
	"github.com/aniicone/cafe-api/pkg/ctx"
)

// bindBody decodes without turning failures into a response, for handlers
// that report bad input with their own error code.
func bindBody(cx *ctx.Context, dest interface{}) (map[string]string, error) {
	return bind.JSON(cx.W, cx.R, dest)
}
