package httpx_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/compass-pm/compass/internal/platform/httpx"
	"github.com/compass-pm/compass/internal/upstream"
	_ "github.com/compass-pm/compass/testing"
)

func decodeProblem(t *testing.T, rec *httptest.ResponseRecorder) httpx.ProblemDetail {
	t.Helper()
	var problem httpx.ProblemDetail
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&problem))
	return problem
}

func TestRespondErrorKeepsStructuredStatusAndFields(t *testing.T) {
	rec := httptest.NewRecorder()
	httpx.RespondError(rec, fmt.Errorf("create project: %w", &upstream.Error{
		Kind:    upstream.KindValidation,
		Status:  http.StatusUnprocessableEntity,
		Message: "validation failed",
		Fields:  []upstream.FieldError{{Field: "name", Message: "too short"}},
	}))

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	problem := decodeProblem(t, rec)
	assert.Equal(t, http.StatusUnprocessableEntity, problem.Status)
	require.Len(t, problem.Errors, 1)
	assert.Equal(t, "name", problem.Errors[0].Field)
	assert.Equal(t, "too short", problem.Errors[0].Message)
}

func TestRespondErrorHidesPlainErrorDetail(t *testing.T) {
	rec := httptest.NewRecorder()
	httpx.RespondError(rec, errors.New("dial tcp 10.0.0.5:5432: connection refused"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	problem := decodeProblem(t, rec)
	assert.Equal(t, "Internal Error", problem.Title)
	assert.Empty(t, problem.Detail)
	assert.Empty(t, problem.Errors)
}
