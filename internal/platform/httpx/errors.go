// Package httpx provides HTTP response utilities.
package httpx

import (
	"errors"
	"net/http"
)

// StatusError is implemented by structured errors that carry their own HTTP
// mapping, such as upstream API failures.
type StatusError interface {
	error
	HTTPStatus() int
	ProblemTitle() string
	FieldErrors() []FieldDetail
}

// RespondError maps errors to HTTP responses using RFC7807. Structured
// errors keep their status and field detail; anything else is a generic 500
// with no detail leaked.
func RespondError(w http.ResponseWriter, err error) {
	var statusErr StatusError
	if errors.As(err, &statusErr) {
		JSON(w, statusErr.HTTPStatus(), ProblemDetail{
			Title:  statusErr.ProblemTitle(),
			Status: statusErr.HTTPStatus(),
			Detail: statusErr.Error(),
			Errors: statusErr.FieldErrors(),
		})
		return
	}
	Problem(w, http.StatusInternalServerError, "Internal Error", "")
}
