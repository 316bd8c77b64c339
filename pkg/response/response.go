// Package response writes JSON bodies and the error envelope shared by
// controllers and middleware.
package response

import (
	"encoding/json"
	"net/http"

	"github.com/aniicone/cafe-api/config"
	"github.com/aniicone/cafe-api/pkg/apperr"
	"github.com/aniicone/cafe-api/pkg/logger"
)

// InternalMessage is the client-facing message for unexpected failures.
const InternalMessage = "Something went wrong!"

// ErrorBody is the envelope used for every error response.
type ErrorBody struct {
	Status  int         `json:"status"`
	Code    apperr.Code `json:"code"`
	Message string      `json:"message"`
	Errors  interface{} `json:"errors,omitempty"`
	// Error carries internal detail outside production only.
	Error string `json:"error,omitempty"`
}

// JSON writes v with the given status.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

// Error renders err. An *apperr.Error is sent with its own status and
// code; anything else is logged and sent as a 500 INTERNAL_ERROR.
func Error(w http.ResponseWriter, r *http.Request, err error) {
	if e, ok := apperr.As(err); ok {
		if e.Status >= http.StatusInternalServerError {
			logger.WithCtx(r.Context()).Error("request failed", "code", e.Code, "error", err)
		}
		JSON(w, e.Status, ErrorBody{Status: e.Status, Code: e.Code, Message: e.Message, Errors: fieldsOrNil(e.Fields)})
		return
	}

	logger.WithCtx(r.Context()).Error("unhandled error", "method", r.Method, "path", r.URL.Path, "error", err)
	Internal(w, err)
}

// Internal writes the generic 500 body. Detail is included outside
// production only.
func Internal(w http.ResponseWriter, detail error) {
	body := ErrorBody{Status: http.StatusInternalServerError, Code: apperr.Internal, Message: InternalMessage}
	if detail != nil && !config.IsProduction() {
		body.Error = detail.Error()
	}
	JSON(w, http.StatusInternalServerError, body)
}

// Message writes a bare {message} body.
func Message(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"message": message})
}

func fieldsOrNil(f map[string]string) interface{} {
	if len(f) == 0 {
		return nil
	}
	return f
}
