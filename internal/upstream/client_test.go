package upstream_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/compass-pm/compass/internal/upstream"
	_ "github.com/compass-pm/compass/testing"
)

func newTestClient(handler http.HandlerFunc) (*upstream.Client, *httptest.Server) {
	server := httptest.NewServer(handler)
	return upstream.NewClient(server.URL, time.Second, nil), server
}

func TestClientSendsBearerToken(t *testing.T) {
	var gotAuth string
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewEncoder(w).Encode(upstream.ProjectList{})
	})
	defer server.Close()

	ctx := upstream.ContextWithToken(context.Background(), "tok-123")
	_, err := client.ListProjects(ctx, upstream.ProjectFilter{})
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok-123", gotAuth)
}

func TestClientOmitsAuthWithoutToken(t *testing.T) {
	var gotAuth string
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewEncoder(w).Encode(upstream.ProjectList{})
	})
	defer server.Close()

	_, err := client.ListProjects(context.Background(), upstream.ProjectFilter{})
	require.NoError(t, err)
	assert.Empty(t, gotAuth)
}

func TestClientEncodesFilterOmittingZeroValues(t *testing.T) {
	var gotQuery string
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		_ = json.NewEncoder(w).Encode(upstream.ProjectList{})
	})
	defer server.Close()

	_, err := client.ListProjects(context.Background(), upstream.ProjectFilter{Status: "active", Page: 2})
	require.NoError(t, err)
	assert.Equal(t, "page=2&status=active", gotQuery)
}

func TestClientMapsStatusToKind(t *testing.T) {
	cases := []struct {
		status int
		kind   upstream.Kind
	}{
		{http.StatusUnauthorized, upstream.KindUnauthorized},
		{http.StatusForbidden, upstream.KindForbidden},
		{http.StatusBadRequest, upstream.KindValidation},
		{http.StatusUnprocessableEntity, upstream.KindValidation},
		{http.StatusNotFound, upstream.KindNotFound},
		{http.StatusConflict, upstream.KindConflict},
		{http.StatusInternalServerError, upstream.KindServer},
		{http.StatusBadGateway, upstream.KindServer},
	}
	for _, tc := range cases {
		client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
		})
		_, err := client.GetProject(context.Background(), 1)
		server.Close()

		apiErr, ok := upstream.AsError(err)
		require.True(t, ok, "status %d must resolve to a structured error", tc.status)
		assert.Equal(t, tc.kind, apiErr.Kind, "status %d", tc.status)
		assert.Equal(t, tc.status, apiErr.Status)
	}
}

func TestClientPreservesFieldErrorsVerbatim(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"message":"validation failed","errors":[{"field":"name","message":"is required"},{"field":"team_id","message":"must be positive"}]}`))
	})
	defer server.Close()

	_, err := client.CreateProject(context.Background(), upstream.ProjectInput{})
	apiErr, ok := upstream.AsError(err)
	require.True(t, ok)
	assert.Equal(t, upstream.KindValidation, apiErr.Kind)
	assert.Equal(t, "validation failed", apiErr.Message)
	require.Len(t, apiErr.Fields, 2)
	assert.Equal(t, "name", apiErr.Fields[0].Field)
	assert.Equal(t, "is required", apiErr.Fields[0].Message)
	assert.Equal(t, "team_id", apiErr.Fields[1].Field)
}

func TestClientTransportFailureIsRetryable(t *testing.T) {
	client := upstream.NewClient("http://127.0.0.1:0", 100*time.Millisecond, nil)

	_, err := client.GetProject(context.Background(), 1)
	apiErr, ok := upstream.AsError(err)
	require.True(t, ok)
	assert.Equal(t, upstream.KindTransport, apiErr.Kind)
	assert.True(t, upstream.IsRetryable(err))
}

func TestRetryableClassification(t *testing.T) {
	assert.True(t, upstream.IsRetryable(&upstream.Error{Kind: upstream.KindServer}))
	assert.False(t, upstream.IsRetryable(&upstream.Error{Kind: upstream.KindValidation}))
	assert.False(t, upstream.IsRetryable(&upstream.Error{Kind: upstream.KindUnauthorized}))
	assert.False(t, upstream.IsRetryable(&upstream.Error{Kind: upstream.KindConflict}))
	assert.False(t, upstream.IsRetryable(context.Canceled))
}

func TestClientDecodesSuccessBody(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/projects/7", r.URL.Path)
		_ = json.NewEncoder(w).Encode(upstream.Project{ID: 7, Name: "Orion", Status: "active"})
	})
	defer server.Close()

	project, err := client.GetProject(context.Background(), 7)
	require.NoError(t, err)
	assert.EqualValues(t, 7, project.ID)
	assert.Equal(t, "Orion", project.Name)
}

func TestClientDeleteSendsNoBodyAndAcceptsNoContent(t *testing.T) {
	var gotMethod string
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		w.WriteHeader(http.StatusNoContent)
	})
	defer server.Close()

	require.NoError(t, client.DeleteProject(context.Background(), 3))
	assert.Equal(t, http.MethodDelete, gotMethod)
}
