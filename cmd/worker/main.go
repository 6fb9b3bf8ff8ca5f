package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/compass-pm/compass/internal/app"
	"github.com/compass-pm/compass/jobs"
)

// The worker process only hosts the cron scheduler. The cache warmup and
// sweep handlers run inside the web process, where the store they act on
// lives; this binary just enqueues the tasks on schedule.
func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg, "worker")

	warmupTask, err := jobs.NewCacheWarmupTask(jobs.CacheWarmupPayload{Statuses: []string{"active"}})
	if err != nil {
		logger.Error("build warmup task", slog.Any("error", err))
		os.Exit(1)
	}

	scheduler, err := jobs.NewScheduler(asynq.RedisClientOpt{Addr: cfg.RedisAddr}, []jobs.CronRegistration{
		{Spec: "*/15 * * * *", Task: warmupTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
		{Spec: "*/5 * * * *", Task: jobs.NewCacheSweepTask()},
	})
	if err != nil {
		logger.Error("init scheduler", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("starting job scheduler")
	if err := scheduler.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("scheduler run", slog.Any("error", err))
		os.Exit(1)
	}
}
