// Package apperr defines the error taxonomy returned by services and
// rendered by controllers and middleware.
//
// Services return *apperr.Error for failures the client should see and
// wrap everything else with fmt.Errorf. Anything that is not an
// *apperr.Error is rendered as a 500 INTERNAL_ERROR.
package apperr

import (
	"errors"
	"net/http"
)

// Code is the machine-readable error identifier sent to clients.
type Code string

const (
	MissingToken        Code = "MISSING_TOKEN"
	InvalidToken        Code = "INVALID_TOKEN"
	TokenExpired        Code = "TOKEN_EXPIRED"
	UserNotFound        Code = "USER_NOT_FOUND"
	AdminRequired       Code = "ADMIN_REQUIRED"
	AccessDenied        Code = "ACCESS_DENIED"
	NotFound            Code = "NOT_FOUND"
	ValidationError     Code = "VALIDATION_ERROR"
	PaymentInitFailed   Code = "PAYMENT_INIT_FAILED"
	PaymentStatusFailed Code = "PAYMENT_STATUS_FAILED"
	Internal            Code = "INTERNAL_ERROR"
)

// Error is a client-facing failure with an HTTP status.
type Error struct {
	Code    Code
	Status  int
	Message string
	// Fields holds per-field validation messages.
	Fields map[string]string
	// Err is the underlying cause. It is logged, never sent.
	Err error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return string(e.Code) + ": " + e.Message + ": " + e.Err.Error()
	}
	return string(e.Code) + ": " + e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Wrap attaches a cause and returns e.
func (e *Error) Wrap(err error) *Error {
	e.Err = err
	return e
}

// New builds an Error with an explicit status.
func New(code Code, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// As extracts an *Error from err's chain.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// Is reports whether err carries the given code.
func Is(err error, code Code) bool {
	e, ok := As(err)
	return ok && e.Code == code
}

// ── Constructors ─────────────────────────────────────────────────────────────

func NewMissingToken() *Error {
	return New(MissingToken, http.StatusUnauthorized, "No token provided")
}

func NewInvalidToken(message string) *Error {
	if message == "" {
		message = "Invalid token"
	}
	return New(InvalidToken, http.StatusUnauthorized, message)
}

func NewTokenExpired() *Error {
	return New(TokenExpired, http.StatusUnauthorized, "Token expired")
}

func NewUserNotFound() *Error {
	return New(UserNotFound, http.StatusUnauthorized, "User not found")
}

func NewAdminRequired() *Error {
	return New(AdminRequired, http.StatusForbidden, "Admin access required")
}

func NewAccessDenied() *Error {
	return New(AccessDenied, http.StatusForbidden, "Access denied")
}

func NewNotFound(what string) *Error {
	return New(NotFound, http.StatusNotFound, what+" not found")
}

func NewValidation(message string, fields map[string]string) *Error {
	e := New(ValidationError, http.StatusBadRequest, message)
	e.Fields = fields
	return e
}

// NewPaymentInit reports a rejected initiation request (400) or, when
// status is 500, a gateway failure.
func NewPaymentInit(status int, message string) *Error {
	return New(PaymentInitFailed, status, message)
}

func NewPaymentStatus(message string) *Error {
	return New(PaymentStatusFailed, http.StatusInternalServerError, message)
}
