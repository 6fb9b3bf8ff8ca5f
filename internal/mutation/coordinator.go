// Package mutation applies write operations against the backend and
// reconciles the resource cache with their outcome.
package mutation

import (
	"context"

	"log/slog"

	"github.com/compass-pm/compass/internal/cache"
)

// Operation performs the remote write and returns the decoded response.
type Operation func(ctx context.Context) (any, error)

// Patch replaces a cache entry with a value produced by the mutation.
type Patch struct {
	Key   cache.Key
	Value any
}

// Plan declares how the cache is reconciled after a successful mutation.
// The zero plan leaves the cache untouched.
type Plan struct {
	Invalidate         []cache.Key
	InvalidatePrefixes []string
	Set                []Patch
	Remove             []cache.Key
}

// Coordinator runs mutations and applies their reconciliation plans.
// A failed operation never touches the cache.
type Coordinator struct {
	store  *cache.Store
	logger *slog.Logger
}

// NewCoordinator constructs a Coordinator over the shared resource cache.
func NewCoordinator(store *cache.Store, logger *slog.Logger) *Coordinator {
	return &Coordinator{store: store, logger: logger}
}

// Do executes op. On success the plan built from the result is applied to
// the cache and the result returned. On failure the error is returned
// unchanged and the cache is left exactly as it was.
func (c *Coordinator) Do(ctx context.Context, op Operation, plan func(result any) Plan) (any, error) {
	result, err := op(ctx)
	if err != nil {
		return nil, err
	}
	if plan != nil {
		c.apply(plan(result))
	}
	return result, nil
}

func (c *Coordinator) apply(p Plan) {
	for _, key := range p.Invalidate {
		c.store.Invalidate(key)
	}
	for _, resource := range p.InvalidatePrefixes {
		c.store.InvalidatePrefix(resource)
	}
	for _, patch := range p.Set {
		c.store.Set(patch.Key, patch.Value)
	}
	for _, key := range p.Remove {
		c.store.Remove(key)
	}
	if c.logger != nil && (len(p.Invalidate) > 0 || len(p.InvalidatePrefixes) > 0 || len(p.Set) > 0 || len(p.Remove) > 0) {
		c.logger.Debug("cache reconciled",
			slog.Int("invalidated", len(p.Invalidate)+len(p.InvalidatePrefixes)),
			slog.Int("patched", len(p.Set)),
			slog.Int("removed", len(p.Remove)))
	}
}
