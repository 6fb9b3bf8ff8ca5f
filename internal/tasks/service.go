// Package tasks serves task reads through the resource cache and routes
// writes through the mutation coordinator.
package tasks

import (
	"context"
	"strconv"

	"github.com/compass-pm/compass/internal/cache"
	"github.com/compass-pm/compass/internal/mutation"
	"github.com/compass-pm/compass/internal/shared"
	"github.com/compass-pm/compass/internal/upstream"
)

// CacheResource prefixes every task cache key.
const CacheResource = "tasks"

// Service is the cache-backed task API for UI callers.
type Service struct {
	api         *upstream.Client
	store       *cache.Store
	coordinator *mutation.Coordinator
}

// NewService constructs a Service.
func NewService(api *upstream.Client, store *cache.Store, coordinator *mutation.Coordinator) *Service {
	return &Service{api: api, store: store, coordinator: coordinator}
}

// ListResult pairs a task page with its cache freshness.
type ListResult struct {
	List  upstream.TaskList
	Stale bool
}

func listKey(filter upstream.TaskFilter) cache.Key {
	return cache.KeyFromValues(CacheResource, filter.Values())
}

func detailKey(id int64) cache.Key {
	return cache.NewKey(CacheResource, "id", strconv.FormatInt(id, 10))
}

// List resolves a filtered task page through the cache.
func (s *Service) List(ctx context.Context, filter upstream.TaskFilter) (ListResult, error) {
	res := s.store.Get(ctx, listKey(filter), func(ctx context.Context) (any, error) {
		return s.api.ListTasks(ctx, filter)
	})
	if res.Data == nil {
		return ListResult{}, res.Err
	}
	return ListResult{List: res.Data.(upstream.TaskList), Stale: res.Stale}, nil
}

// Get resolves one task through the cache.
func (s *Service) Get(ctx context.Context, id int64) (upstream.Task, error) {
	res := s.store.Get(ctx, detailKey(id), func(ctx context.Context) (any, error) {
		return s.api.GetTask(ctx, id)
	})
	if res.Data == nil {
		return upstream.Task{}, res.Err
	}
	return res.Data.(upstream.Task), nil
}

// Create validates and creates a task, invalidating cached task pages so
// the next read refetches.
func (s *Service) Create(ctx context.Context, in upstream.TaskInput) (upstream.Task, error) {
	if err := shared.ValidateStruct(in); err != nil {
		return upstream.Task{}, err
	}
	result, err := s.coordinator.Do(ctx, func(ctx context.Context) (any, error) {
		return s.api.CreateTask(ctx, in)
	}, func(any) mutation.Plan {
		return mutation.Plan{InvalidatePrefixes: []string{CacheResource}}
	})
	if err != nil {
		return upstream.Task{}, err
	}
	return result.(upstream.Task), nil
}

// Update validates and updates a task, replacing the detail entry with the
// returned record and invalidating task pages.
func (s *Service) Update(ctx context.Context, id int64, in upstream.TaskInput) (upstream.Task, error) {
	if err := shared.ValidateStruct(in); err != nil {
		return upstream.Task{}, err
	}
	return s.applyWrite(ctx, id, func(ctx context.Context) (any, error) {
		return s.api.UpdateTask(ctx, id, in)
	})
}

// UpdateStatus moves a task through its workflow with the same cache
// reconciliation as a full update.
func (s *Service) UpdateStatus(ctx context.Context, id int64, in upstream.TaskStatusInput) (upstream.Task, error) {
	if err := shared.ValidateStruct(in); err != nil {
		return upstream.Task{}, err
	}
	return s.applyWrite(ctx, id, func(ctx context.Context) (any, error) {
		return s.api.UpdateTaskStatus(ctx, id, in)
	})
}

// Delete removes a task and evicts its cache entries.
func (s *Service) Delete(ctx context.Context, id int64) error {
	_, err := s.coordinator.Do(ctx, func(ctx context.Context) (any, error) {
		return nil, s.api.DeleteTask(ctx, id)
	}, func(any) mutation.Plan {
		return mutation.Plan{
			InvalidatePrefixes: []string{CacheResource},
			Remove:             []cache.Key{detailKey(id)},
		}
	})
	return err
}

func (s *Service) applyWrite(ctx context.Context, id int64, op mutation.Operation) (upstream.Task, error) {
	result, err := s.coordinator.Do(ctx, op, func(result any) mutation.Plan {
		return mutation.Plan{
			InvalidatePrefixes: []string{CacheResource},
			Set:                []mutation.Patch{{Key: detailKey(id), Value: result.(upstream.Task)}},
		}
	})
	if err != nil {
		return upstream.Task{}, err
	}
	return result.(upstream.Task), nil
}
