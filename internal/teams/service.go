// Package teams serves team reads, member rosters, activity feeds and
// performance summaries through the resource cache.
package teams

import (
	"context"
	"strconv"

	"github.com/compass-pm/compass/internal/cache"
	"github.com/compass-pm/compass/internal/upstream"
)

// CacheResource prefixes every team cache key.
const CacheResource = "teams"

// Service is the cache-backed team API for UI callers. Teams are read-only
// from the dashboard; the backend owns team membership changes.
type Service struct {
	api   *upstream.Client
	store *cache.Store
}

// NewService constructs a Service.
func NewService(api *upstream.Client, store *cache.Store) *Service {
	return &Service{api: api, store: store}
}

// ListResult pairs a team page with its cache freshness.
type ListResult struct {
	List  upstream.TeamList
	Stale bool
}

func teamKey(id int64, view string) cache.Key {
	return cache.NewKey(CacheResource, "id", strconv.FormatInt(id, 10), "view", view)
}

// List resolves a filtered team page through the cache.
func (s *Service) List(ctx context.Context, filter upstream.TeamFilter) (ListResult, error) {
	key := cache.KeyFromValues(CacheResource, filter.Values())
	res := s.store.Get(ctx, key, func(ctx context.Context) (any, error) {
		return s.api.ListTeams(ctx, filter)
	})
	if res.Data == nil {
		return ListResult{}, res.Err
	}
	return ListResult{List: res.Data.(upstream.TeamList), Stale: res.Stale}, nil
}

// Get resolves one team through the cache.
func (s *Service) Get(ctx context.Context, id int64) (upstream.Team, error) {
	res := s.store.Get(ctx, teamKey(id, "detail"), func(ctx context.Context) (any, error) {
		return s.api.GetTeam(ctx, id)
	})
	if res.Data == nil {
		return upstream.Team{}, res.Err
	}
	return res.Data.(upstream.Team), nil
}

// Members resolves the team roster through the cache.
func (s *Service) Members(ctx context.Context, id int64) ([]upstream.TeamMember, error) {
	res := s.store.Get(ctx, teamKey(id, "members"), func(ctx context.Context) (any, error) {
		return s.api.ListTeamMembers(ctx, id)
	})
	if res.Data == nil {
		return nil, res.Err
	}
	return res.Data.([]upstream.TeamMember), nil
}

// Activities resolves the team activity feed through the cache.
func (s *Service) Activities(ctx context.Context, id int64) ([]upstream.TeamActivity, error) {
	res := s.store.Get(ctx, teamKey(id, "activities"), func(ctx context.Context) (any, error) {
		return s.api.ListTeamActivities(ctx, id)
	})
	if res.Data == nil {
		return nil, res.Err
	}
	return res.Data.([]upstream.TeamActivity), nil
}

// Performance resolves a team performance summary through the cache.
func (s *Service) Performance(ctx context.Context, id int64, period string) (upstream.TeamPerformance, error) {
	key := cache.NewKey(CacheResource, "id", strconv.FormatInt(id, 10), "view", "performance", "period", period)
	res := s.store.Get(ctx, key, func(ctx context.Context) (any, error) {
		return s.api.GetTeamPerformance(ctx, id, period)
	})
	if res.Data == nil {
		return upstream.TeamPerformance{}, res.Err
	}
	return res.Data.(upstream.TeamPerformance), nil
}
