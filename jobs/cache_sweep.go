package jobs

import (
	"context"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/compass-pm/compass/internal/cache"
)

// CacheSweepJob evicts cache entries that outlived their TTL so the map
// does not accumulate keys for views nobody revisits.
type CacheSweepJob struct {
	Store  *cache.Store
	Logger *slog.Logger
}

// NewCacheSweepJob wires dependencies for the sweep handler.
func NewCacheSweepJob(store *cache.Store, logger *slog.Logger) *CacheSweepJob {
	return &CacheSweepJob{Store: store, Logger: logger}
}

// Handle processes cache sweep tasks.
func (j *CacheSweepJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Store == nil {
		return errors.New("cache sweep: handler not configured")
	}
	removed := j.Store.PurgeExpired()
	j.logger().Info("cache sweep completed", slog.Int("removed", removed))
	return nil
}

func (j *CacheSweepJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskCacheSweep))
	}
	return slog.Default().With(slog.String("job", TaskCacheSweep))
}
