// Package main is the entry point for the maintenance worker.
//
// The worker runs the periodic jobs the API server should not carry:
// - warming the availability grid cache before the faculty workday
// - reporting thesis records that have stopped moving through the lifecycle
//
// It shares state with the API server through PostgreSQL and Redis, so a
// database connection is required.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/thesis-hub/thesis-scheduling-hub/config"
	"github.com/thesis-hub/thesis-scheduling-hub/internal/application/query"
	"github.com/thesis-hub/thesis-scheduling-hub/internal/infrastructure/persistence/postgres"
	"github.com/thesis-hub/thesis-scheduling-hub/internal/infrastructure/persistence/redis"
	"github.com/thesis-hub/thesis-scheduling-hub/internal/infrastructure/scheduler"
	"github.com/thesis-hub/thesis-scheduling-hub/internal/infrastructure/scheduler/jobs"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. CONFIGURATION + LOGGING
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required: the worker shares state through the database")
	}

	log := setupLogger(cfg)
	log.Info("starting maintenance worker",
		"env", string(cfg.App.Environment),
		"version", cfg.App.Version,
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 2. PERSISTENCE
	// ─────────────────────────────────────────────────────────────────────────
	dbConn, err := postgres.NewConnectionFromURL(ctx, cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer dbConn.Close()

	if err := dbConn.Ping(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	studentRepo := postgres.NewStudentRepository(dbConn)
	lecturerRepo := postgres.NewLecturerRepository(dbConn)
	roomRepo := postgres.NewRoomRepository(dbConn)
	availabilityIndex := postgres.NewAvailabilityIndex(dbConn)

	// ─────────────────────────────────────────────────────────────────────────
	// 3. REDIS (optional; without it warming has nowhere to write)
	// ─────────────────────────────────────────────────────────────────────────
	var availCache *redis.AvailabilityCache

	if !cfg.Redis.Disabled {
		redisCfg := redis.DefaultConfig()
		redisCfg.Host = cfg.Redis.Host
		redisCfg.Port = cfg.Redis.Port
		redisCfg.Password = cfg.Redis.Password
		redisCfg.DB = cfg.Redis.DB

		cache, err := redis.NewCache(redisCfg)
		if err != nil {
			log.Warn("failed to connect to Redis, grid warming will be a no-op", "error", err)
		} else {
			defer cache.Close()
			availCache = redis.NewAvailabilityCache(cache)
		}
	}

	availabilityQuery := query.NewGetAvailabilityHandler(
		lecturerRepo, roomRepo, availabilityIndex, availCache)

	// ─────────────────────────────────────────────────────────────────────────
	// 4. SCHEDULER + JOBS
	// ─────────────────────────────────────────────────────────────────────────
	loc := cfg.App.Location
	sched := scheduler.New(scheduler.Config{Logger: log, Timezone: loc})

	warmJob := jobs.NewWarmAvailabilityJob(
		availabilityQuery, cfg.Scheduling.MaxAvailabilityWindowDays, log)
	stalledJob := jobs.NewDetectStalledStudentsJob(studentRepo, 0, log)

	// Both run before the faculty workday starts (campus timezone).
	if err := sched.Register(warmJob, scheduler.DailyAt(5, 0, loc)); err != nil {
		return fmt.Errorf("failed to register warm job: %w", err)
	}
	if err := sched.Register(stalledJob, scheduler.DailyAt(6, 0, loc)); err != nil {
		return fmt.Errorf("failed to register stalled job: %w", err)
	}

	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}

	// A fresh deployment should not wait until tomorrow morning for warm
	// grids.
	if err := sched.RunNow(ctx, warmJob.Name()); err != nil {
		log.Warn("initial grid warm failed", "error", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 5. GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("maintenance worker is running", "jobs", len(sched.ListJobs()))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	select {
	case sig := <-sigCh:
		log.Info("received shutdown signal", "signal", sig.String())
	case <-ctx.Done():
		log.Info("context cancelled")
	}

	log.Info("stopping scheduler...", "timeout", cfg.App.ShutdownTimeout.String())

	done := make(chan error, 1)
	go func() { done <- sched.Stop() }()

	select {
	case err := <-done:
		if err != nil {
			log.Error("scheduler stop failed", "error", err)
			return err
		}
	case <-time.After(cfg.App.ShutdownTimeout):
		log.Warn("scheduler stop timed out, exiting anyway")
	}

	log.Info("shutdown completed successfully")
	return nil
}

// setupLogger configures structured logging from the observability section.
func setupLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	switch cfg.Observability.LogLevel {
	case "debug":
		opts.Level = slog.LevelDebug
	case "warn":
		opts.Level = slog.LevelWarn
	case "error":
		opts.Level = slog.LevelError
	}

	var handler slog.Handler
	if cfg.Observability.LogFormat == "json" || cfg.App.Environment == config.EnvProduction {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	log := slog.New(handler)
	slog.SetDefault(log)

	return log
}
