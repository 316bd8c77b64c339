package bind_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aniicone/cafe-api/config"
	"github.com/aniicone/cafe-api/pkg/bind"
)

type loginInput struct {
	IDToken string `json:"idToken" validate:"required"`
}

func TestJSONDecodesAndValidates(t *testing.T) {
	var in loginInput
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"idToken":"abc"}`))
	errs, err := bind.JSON(httptest.NewRecorder(), req, &in)
	require.NoError(t, err)
	assert.Empty(t, errs)
	assert.Equal(t, "abc", in.IDToken)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{}`))
	errs, err = bind.JSON(httptest.NewRecorder(), req, &loginInput{})
	require.NoError(t, err)
	assert.Contains(t, errs, "idToken")
}

func TestJSONRejectsMalformedAndOversized(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"idToken":`))
	_, err := bind.JSON(httptest.NewRecorder(), req, &loginInput{})
	assert.ErrorContains(t, err, "invalid JSON")

	config.Set("MAX_BODY_BYTES", "16")
	defer config.Set("MAX_BODY_BYTES", "")
	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"idToken":"`+strings.Repeat("x", 64)+`"}`))
	_, err = bind.JSON(httptest.NewRecorder(), req, &loginInput{})
	assert.ErrorContains(t, err, "too large")
}
