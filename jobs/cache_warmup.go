package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/compass-pm/compass/internal/projects"
	"github.com/compass-pm/compass/internal/tasks"
	"github.com/compass-pm/compass/internal/teams"
	"github.com/compass-pm/compass/internal/upstream"
)

// CacheWarmupJob pre-populates the resource caches with the list views the
// dashboard requests first after login.
type CacheWarmupJob struct {
	Projects *projects.Service
	Tasks    *tasks.Service
	Teams    *teams.Service
	// Token authenticates warmup calls against the backend. Warmup is a
	// no-op when empty since the backend rejects anonymous reads.
	Token  string
	Logger *slog.Logger
	clock  func() time.Time
}

// NewCacheWarmupJob wires dependencies for the warmup handler.
func NewCacheWarmupJob(projectsSvc *projects.Service, tasksSvc *tasks.Service, teamsSvc *teams.Service, token string, logger *slog.Logger) *CacheWarmupJob {
	return &CacheWarmupJob{
		Projects: projectsSvc,
		Tasks:    tasksSvc,
		Teams:    teamsSvc,
		Token:    token,
		Logger:   logger,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle processes cache warmup tasks.
func (j *CacheWarmupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil {
		return errors.New("cache warmup: handler not configured")
	}
	var payload CacheWarmupPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
	}
	if j.Token == "" {
		j.logger().Info("skipping warmup, no service token configured")
		return nil
	}
	ctx = upstream.ContextWithToken(ctx, j.Token)

	logger := j.logger()
	logger.Info("starting cache warmup")

	start := j.now()
	warmed := 0
	for _, resource := range j.resources(payload) {
		if err := j.warmResource(ctx, resource, payload.Statuses); err != nil {
			logger.Error("warm resource", slog.String("resource", resource), slog.Any("error", err))
			return err
		}
		warmed++
	}

	logger.Info("completed cache warmup", slog.Int("resources", warmed), slog.Duration("duration", time.Since(start)))
	return nil
}

func (j *CacheWarmupJob) warmResource(ctx context.Context, resource string, statuses []string) error {
	// Cap each resource so one slow backend call cannot stall the queue.
	resCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	switch resource {
	case "projects":
		if j.Projects == nil {
			return nil
		}
		if _, err := j.Projects.List(resCtx, upstream.ProjectFilter{}); err != nil {
			return err
		}
		for _, status := range statuses {
			if _, err := j.Projects.List(resCtx, upstream.ProjectFilter{Status: status}); err != nil {
				return err
			}
		}
	case "tasks":
		if j.Tasks == nil {
			return nil
		}
		if _, err := j.Tasks.List(resCtx, upstream.TaskFilter{}); err != nil {
			return err
		}
		for _, status := range statuses {
			if _, err := j.Tasks.List(resCtx, upstream.TaskFilter{Status: status}); err != nil {
				return err
			}
		}
	case "teams":
		if j.Teams == nil {
			return nil
		}
		if _, err := j.Teams.List(resCtx, upstream.TeamFilter{}); err != nil {
			return err
		}
	}
	return nil
}

func (j *CacheWarmupJob) resources(payload CacheWarmupPayload) []string {
	if len(payload.Resources) > 0 {
		return payload.Resources
	}
	return []string{"projects", "tasks", "teams"}
}

func (j *CacheWarmupJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskCacheWarmup))
	}
	return slog.Default().With(slog.String("job", TaskCacheWarmup))
}

func (j *CacheWarmupJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}
