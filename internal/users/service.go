// Package users serves user reads and role assignment writes. Role changes
// invalidate cached user pages and, when the target is the session user,
// update the session snapshot so gating sees them immediately.
package users

import (
	"context"
	"strconv"

	"github.com/compass-pm/compass/internal/cache"
	"github.com/compass-pm/compass/internal/mutation"
	"github.com/compass-pm/compass/internal/shared"
	"github.com/compass-pm/compass/internal/upstream"
)

// CacheResource prefixes every user cache key.
const CacheResource = "users"

// Service is the cache-backed user API for UI callers.
type Service struct {
	api         *upstream.Client
	store       *cache.Store
	coordinator *mutation.Coordinator
}

// NewService constructs a Service.
func NewService(api *upstream.Client, store *cache.Store, coordinator *mutation.Coordinator) *Service {
	return &Service{api: api, store: store, coordinator: coordinator}
}

// ListResult pairs a user page with its cache freshness.
type ListResult struct {
	List  upstream.UserList
	Stale bool
}

func detailKey(id int64) cache.Key {
	return cache.NewKey(CacheResource, "id", strconv.FormatInt(id, 10))
}

// List resolves a filtered user page through the cache.
func (s *Service) List(ctx context.Context, filter upstream.UserFilter) (ListResult, error) {
	key := cache.KeyFromValues(CacheResource, filter.Values())
	res := s.store.Get(ctx, key, func(ctx context.Context) (any, error) {
		return s.api.ListUsers(ctx, filter)
	})
	if res.Data == nil {
		return ListResult{}, res.Err
	}
	return ListResult{List: res.Data.(upstream.UserList), Stale: res.Stale}, nil
}

// Get resolves one user through the cache.
func (s *Service) Get(ctx context.Context, id int64) (upstream.User, error) {
	res := s.store.Get(ctx, detailKey(id), func(ctx context.Context) (any, error) {
		return s.api.GetUser(ctx, id)
	})
	if res.Data == nil {
		return upstream.User{}, res.Err
	}
	return res.Data.(upstream.User), nil
}

// AssignRole grants a role to a user, patching the cached detail entry and
// invalidating user pages.
func (s *Service) AssignRole(ctx context.Context, userID int64, in upstream.RoleAssignmentInput) (upstream.User, error) {
	if err := shared.ValidateStruct(in); err != nil {
		return upstream.User{}, err
	}
	return s.applyRoleChange(ctx, userID, func(ctx context.Context) (any, error) {
		return s.api.AssignRole(ctx, userID, in)
	})
}

// RemoveRole revokes a role from a user with the same reconciliation as
// AssignRole.
func (s *Service) RemoveRole(ctx context.Context, userID int64, in upstream.RoleAssignmentInput) (upstream.User, error) {
	if err := shared.ValidateStruct(in); err != nil {
		return upstream.User{}, err
	}
	return s.applyRoleChange(ctx, userID, func(ctx context.Context) (any, error) {
		return s.api.RemoveRole(ctx, userID, in)
	})
}

func (s *Service) applyRoleChange(ctx context.Context, userID int64, op mutation.Operation) (upstream.User, error) {
	result, err := s.coordinator.Do(ctx, op, func(result any) mutation.Plan {
		return mutation.Plan{
			InvalidatePrefixes: []string{CacheResource},
			Set:                []mutation.Patch{{Key: detailKey(userID), Value: result.(upstream.User)}},
		}
	})
	if err != nil {
		return upstream.User{}, err
	}
	return result.(upstream.User), nil
}
