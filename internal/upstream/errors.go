package upstream

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/compass-pm/compass/internal/platform/httpx"
)

// Kind classifies upstream API failures.
type Kind string

const (
	// KindTransport covers timeouts and connectivity failures where no
	// response was received.
	KindTransport Kind = "transport"
	// KindUnauthorized is a 401: the session is invalid or expired.
	KindUnauthorized Kind = "unauthorized"
	// KindForbidden is a 403, distinguished from 401 so callers never
	// redirect to login for it.
	KindForbidden Kind = "forbidden"
	// KindValidation is a 400/422 carrying field-level detail.
	KindValidation Kind = "validation"
	// KindNotFound is a 404.
	KindNotFound Kind = "not_found"
	// KindConflict is a 409.
	KindConflict Kind = "conflict"
	// KindServer covers 5xx and any unclassified status.
	KindServer Kind = "server"
)

// FieldError carries one field-level validation failure, preserved verbatim
// from the backend response.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error is the structured failure shape for every upstream call. It never
// escapes as a panic; all API functions resolve failures into this type.
type Error struct {
	Kind    Kind
	Status  int
	Message string
	Fields  []FieldError
	Err     error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("upstream: %s: %s", e.Kind, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("upstream: %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("upstream: %s", e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// Retryable reports whether a fresh attempt may succeed. Only transport and
// server failures qualify; auth, validation and conflict outcomes will not
// change on retry.
func (e *Error) Retryable() bool {
	return e.Kind == KindTransport || e.Kind == KindServer
}

// HTTPStatus implements httpx.StatusError.
func (e *Error) HTTPStatus() int {
	if e.Status != 0 {
		return e.Status
	}
	return http.StatusBadGateway
}

// ProblemTitle implements httpx.StatusError.
func (e *Error) ProblemTitle() string {
	switch e.Kind {
	case KindUnauthorized:
		return "Unauthorized"
	case KindForbidden:
		return "Forbidden"
	case KindValidation:
		return "Validation Failed"
	case KindNotFound:
		return "Not Found"
	case KindConflict:
		return "Conflict"
	case KindTransport:
		return "Upstream Unreachable"
	default:
		return "Upstream Error"
	}
}

// FieldErrors implements httpx.StatusError.
func (e *Error) FieldErrors() []httpx.FieldDetail {
	if len(e.Fields) == 0 {
		return nil
	}
	out := make([]httpx.FieldDetail, len(e.Fields))
	for i, f := range e.Fields {
		out[i] = httpx.FieldDetail{Field: f.Field, Message: f.Message}
	}
	return out
}

// AsError unwraps err into a structured upstream error.
func AsError(err error) (*Error, bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// IsRetryable reports whether err is a transient upstream failure.
func IsRetryable(err error) bool {
	if apiErr, ok := AsError(err); ok {
		return apiErr.Retryable()
	}
	return false
}

// IsUnauthorized reports whether err is a 401 session failure.
func IsUnauthorized(err error) bool {
	apiErr, ok := AsError(err)
	return ok && apiErr.Kind == KindUnauthorized
}

// IsNotFound reports whether err is a 404.
func IsNotFound(err error) bool {
	apiErr, ok := AsError(err)
	return ok && apiErr.Kind == KindNotFound
}
