// Package projects serves project reads through the resource cache and
// routes writes through the mutation coordinator.
package projects

import (
	"context"
	"strconv"

	"github.com/compass-pm/compass/internal/cache"
	"github.com/compass-pm/compass/internal/mutation"
	"github.com/compass-pm/compass/internal/shared"
	"github.com/compass-pm/compass/internal/upstream"
)

// CacheResource prefixes every project cache key.
const CacheResource = "projects"

// Service is the cache-backed project API for UI callers.
type Service struct {
	api         *upstream.Client
	store       *cache.Store
	coordinator *mutation.Coordinator
}

// NewService constructs a Service.
func NewService(api *upstream.Client, store *cache.Store, coordinator *mutation.Coordinator) *Service {
	return &Service{api: api, store: store, coordinator: coordinator}
}

// ListResult pairs a project page with its cache freshness.
type ListResult struct {
	List  upstream.ProjectList
	Stale bool
}

func listKey(filter upstream.ProjectFilter) cache.Key {
	return cache.KeyFromValues(CacheResource, filter.Values())
}

func detailKey(id int64) cache.Key {
	return cache.NewKey(CacheResource, "id", strconv.FormatInt(id, 10))
}

// List resolves a filtered project page through the cache.
func (s *Service) List(ctx context.Context, filter upstream.ProjectFilter) (ListResult, error) {
	res := s.store.Get(ctx, listKey(filter), func(ctx context.Context) (any, error) {
		return s.api.ListProjects(ctx, filter)
	})
	if res.Data == nil {
		return ListResult{}, res.Err
	}
	return ListResult{List: res.Data.(upstream.ProjectList), Stale: res.Stale}, nil
}

// Get resolves one project through the cache.
func (s *Service) Get(ctx context.Context, id int64) (upstream.Project, error) {
	res := s.store.Get(ctx, detailKey(id), func(ctx context.Context) (any, error) {
		return s.api.GetProject(ctx, id)
	})
	if res.Data == nil {
		return upstream.Project{}, res.Err
	}
	return res.Data.(upstream.Project), nil
}

// Create validates and creates a project, invalidating cached project
// pages so the next read refetches.
func (s *Service) Create(ctx context.Context, in upstream.ProjectInput) (upstream.Project, error) {
	if err := shared.ValidateStruct(in); err != nil {
		return upstream.Project{}, err
	}
	result, err := s.coordinator.Do(ctx, func(ctx context.Context) (any, error) {
		return s.api.CreateProject(ctx, in)
	}, func(result any) mutation.Plan {
		return mutation.Plan{InvalidatePrefixes: []string{CacheResource}}
	})
	if err != nil {
		return upstream.Project{}, err
	}
	return result.(upstream.Project), nil
}

// Update validates and updates a project. The detail entry is replaced
// with the returned record; list pages are invalidated.
func (s *Service) Update(ctx context.Context, id int64, in upstream.ProjectInput) (upstream.Project, error) {
	if err := shared.ValidateStruct(in); err != nil {
		return upstream.Project{}, err
	}
	result, err := s.coordinator.Do(ctx, func(ctx context.Context) (any, error) {
		return s.api.UpdateProject(ctx, id, in)
	}, func(result any) mutation.Plan {
		return mutation.Plan{
			InvalidatePrefixes: []string{CacheResource},
			Set:                []mutation.Patch{{Key: detailKey(id), Value: result.(upstream.Project)}},
		}
	})
	if err != nil {
		return upstream.Project{}, err
	}
	return result.(upstream.Project), nil
}

// Delete removes a project and evicts its cache entries.
func (s *Service) Delete(ctx context.Context, id int64) error {
	_, err := s.coordinator.Do(ctx, func(ctx context.Context) (any, error) {
		return nil, s.api.DeleteProject(ctx, id)
	}, func(any) mutation.Plan {
		return mutation.Plan{
			InvalidatePrefixes: []string{CacheResource},
			Remove:             []cache.Key{detailKey(id)},
		}
	})
	return err
}
