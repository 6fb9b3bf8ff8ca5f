package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/compass-pm/compass/internal/access"
	"github.com/compass-pm/compass/internal/app"
	"github.com/compass-pm/compass/internal/auth"
	"github.com/compass-pm/compass/internal/cache"
	"github.com/compass-pm/compass/internal/mutation"
	platformcache "github.com/compass-pm/compass/internal/platform/cache"
	"github.com/compass-pm/compass/internal/projects"
	"github.com/compass-pm/compass/internal/shared"
	"github.com/compass-pm/compass/internal/tasks"
	"github.com/compass-pm/compass/internal/teams"
	"github.com/compass-pm/compass/internal/upstream"
	"github.com/compass-pm/compass/internal/users"
	"github.com/compass-pm/compass/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg, "compass")

	redisClient, err := platformcache.New(ctx, platformcache.Options{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "compass_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)

	api := upstream.NewClient(cfg.APIBaseURL, cfg.APITimeout, logger)

	store := cache.NewStore(cache.Options{
		TTL: cfg.CacheTTL,
		Retry: cache.RetryPolicy{
			Attempts:    cfg.CacheRetryAttempts,
			Delay:       cfg.CacheRetryDelay,
			ShouldRetry: upstream.IsRetryable,
		},
		Logger: logger,
	})
	coordinator := mutation.NewCoordinator(store, logger)

	authService := auth.NewService(auth.Config{
		ClientID:     cfg.OAuthClientID,
		ClientSecret: cfg.OAuthClientSecret,
		AuthURL:      cfg.OAuthAuthURL,
		TokenURL:     cfg.OAuthTokenURL,
		RedirectURL:  cfg.OAuthRedirectURL,
		Scopes:       cfg.OAuthScopes,
	}, api, logger)
	authHandler := auth.NewHandler(logger, authService, sessionManager)

	guard := access.Middleware{Logger: logger}

	projectsService := projects.NewService(api, store, coordinator)
	projectsHandler := projects.NewHandler(logger, projectsService)

	tasksService := tasks.NewService(api, store, coordinator)
	tasksHandler := tasks.NewHandler(logger, tasksService)

	teamsService := teams.NewService(api, store)
	teamsHandler := teams.NewHandler(logger, teamsService)

	usersService := users.NewService(api, store, coordinator)
	usersHandler := users.NewHandler(logger, usersService)

	// Job handlers run in this process so warmup fills and sweep prunes the
	// same store the HTTP handlers read from.
	warmupJob := jobs.NewCacheWarmupJob(projectsService, tasksService, teamsService, cfg.WarmupToken, logger)
	sweepJob := jobs.NewCacheSweepJob(store, logger)
	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskCacheWarmup, Handler: warmupJob.Handle},
			{Type: jobs.TaskCacheSweep, Handler: sweepJob.Handle},
		},
	})
	if err != nil {
		logger.Error("init job worker", slog.Any("error", err))
		os.Exit(1)
	}

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init job client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, jobClient, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:          logger,
		Config:          cfg,
		SessionManager:  sessionManager,
		CSRFManager:     csrfManager,
		Guard:           guard,
		AuthHandler:     authHandler,
		ProjectsHandler: projectsHandler,
		TasksHandler:    tasksHandler,
		TeamsHandler:    teamsHandler,
		UsersHandler:    usersHandler,
		JobHandler:      jobHandler,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		if err := worker.Run(ctx); err != nil && err != context.Canceled {
			logger.Error("job worker", slog.Any("error", err))
			stop()
		}
	}()

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
