package projects_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/compass-pm/compass/internal/cache"
	"github.com/compass-pm/compass/internal/mutation"
	"github.com/compass-pm/compass/internal/projects"
	"github.com/compass-pm/compass/internal/upstream"
	_ "github.com/compass-pm/compass/testing"
)

type backendCounters struct {
	lists   atomic.Int64
	gets    atomic.Int64
	writes  atomic.Int64
	deletes atomic.Int64
}

func newProjectsService(t *testing.T, failWrites bool) (*projects.Service, *backendCounters) {
	t.Helper()
	counters := &backendCounters{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/projects":
			counters.lists.Add(1)
			_ = json.NewEncoder(w).Encode(upstream.ProjectList{
				Items: []upstream.Project{{ID: 1, Name: "Orion", Status: "active", TeamID: 1}},
				Total: 1,
			})
		case r.Method == http.MethodGet && r.URL.Path == "/projects/1":
			counters.gets.Add(1)
			_ = json.NewEncoder(w).Encode(upstream.Project{ID: 1, Name: "Orion", Status: "active", TeamID: 1})
		case r.Method == http.MethodDelete:
			counters.deletes.Add(1)
			if failWrites {
				w.WriteHeader(http.StatusConflict)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		default:
			counters.writes.Add(1)
			if failWrites {
				w.WriteHeader(http.StatusUnprocessableEntity)
				_, _ = w.Write([]byte(`{"message":"validation failed","errors":[{"field":"name","message":"is taken"}]}`))
				return
			}
			var in upstream.ProjectInput
			_ = json.NewDecoder(r.Body).Decode(&in)
			_ = json.NewEncoder(w).Encode(upstream.Project{ID: 1, Name: in.Name, Status: "active", TeamID: in.TeamID})
		}
	}))
	t.Cleanup(server.Close)

	api := upstream.NewClient(server.URL, time.Second, nil)
	store := cache.NewStore(cache.Options{TTL: time.Minute})
	coordinator := mutation.NewCoordinator(store, nil)
	return projects.NewService(api, store, coordinator), counters
}

func TestListServedFromCache(t *testing.T) {
	svc, counters := newProjectsService(t, false)

	first, err := svc.List(context.Background(), upstream.ProjectFilter{Status: "active"})
	require.NoError(t, err)
	require.Len(t, first.List.Items, 1)

	second, err := svc.List(context.Background(), upstream.ProjectFilter{Status: "active"})
	require.NoError(t, err)
	assert.Equal(t, first.List, second.List)
	assert.EqualValues(t, 1, counters.lists.Load(), "repeat list must hit the cache")

	// A different filter is its own cache entry.
	_, err = svc.List(context.Background(), upstream.ProjectFilter{Status: "archived"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, counters.lists.Load())
}

func TestUpdateInvalidatesListsAndPatchesDetail(t *testing.T) {
	svc, counters := newProjectsService(t, false)

	_, err := svc.List(context.Background(), upstream.ProjectFilter{})
	require.NoError(t, err)

	updated, err := svc.Update(context.Background(), 1, upstream.ProjectInput{Name: "Orion v2", TeamID: 1})
	require.NoError(t, err)
	assert.Equal(t, "Orion v2", updated.Name)

	// Detail comes from the mutation response without a backend roundtrip.
	got, err := svc.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "Orion v2", got.Name)
	assert.EqualValues(t, 0, counters.gets.Load())

	// List pages were invalidated and refetch.
	_, err = svc.List(context.Background(), upstream.ProjectFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, counters.lists.Load())
}

func TestCreateInvalidatesLists(t *testing.T) {
	svc, counters := newProjectsService(t, false)

	_, err := svc.List(context.Background(), upstream.ProjectFilter{})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), upstream.ProjectInput{Name: "Vega", TeamID: 2})
	require.NoError(t, err)

	_, err = svc.List(context.Background(), upstream.ProjectFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, counters.lists.Load())
}

func TestDeleteEvictsDetail(t *testing.T) {
	svc, counters := newProjectsService(t, false)

	_, err := svc.Get(context.Background(), 1)
	require.NoError(t, err)
	require.EqualValues(t, 1, counters.gets.Load())

	require.NoError(t, svc.Delete(context.Background(), 1))

	_, err = svc.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.EqualValues(t, 2, counters.gets.Load(), "deleted detail must refetch")
}

func TestFailedUpdateLeavesCacheIntact(t *testing.T) {
	svc, counters := newProjectsService(t, true)

	_, err := svc.List(context.Background(), upstream.ProjectFilter{})
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), 1, upstream.ProjectInput{Name: "Orion v2", TeamID: 1})
	apiErr, ok := upstream.AsError(err)
	require.True(t, ok)
	assert.Equal(t, upstream.KindValidation, apiErr.Kind)
	require.Len(t, apiErr.Fields, 1)
	assert.Equal(t, "name", apiErr.Fields[0].Field)

	_, err = svc.List(context.Background(), upstream.ProjectFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, counters.lists.Load(), "failed write must not invalidate")
}

func TestCreateRejectsInvalidInputLocally(t *testing.T) {
	svc, counters := newProjectsService(t, false)

	_, err := svc.Create(context.Background(), upstream.ProjectInput{Name: "x"})
	apiErr, ok := upstream.AsError(err)
	require.True(t, ok)
	assert.Equal(t, upstream.KindValidation, apiErr.Kind)
	assert.NotEmpty(t, apiErr.Fields)
	assert.EqualValues(t, 0, counters.writes.Load(), "invalid input never reaches the backend")
}
