// Package main is the entry point for the Thesis Scheduling Hub API server.
//
// The architecture follows Clean Architecture and DDD:
// - Domain: scheduling, lifecycle and calendar rules without external dependencies
// - Application: use case orchestration (Commands/Queries/Event handlers)
// - Infrastructure: repository implementations, cache, event bus
// - Interface: REST API handlers
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/thesis-hub/thesis-scheduling-hub/config"

	// Domain layer
	"github.com/thesis-hub/thesis-scheduling-hub/internal/domain/calendar"
	"github.com/thesis-hub/thesis-scheduling-hub/internal/domain/lecturer"
	"github.com/thesis-hub/thesis-scheduling-hub/internal/domain/room"
	"github.com/thesis-hub/thesis-scheduling-hub/internal/domain/session"
	"github.com/thesis-hub/thesis-scheduling-hub/internal/domain/student"

	// Application layer
	"github.com/thesis-hub/thesis-scheduling-hub/internal/application/command"
	"github.com/thesis-hub/thesis-scheduling-hub/internal/application/eventhandler"
	"github.com/thesis-hub/thesis-scheduling-hub/internal/application/query"

	// Infrastructure layer
	"github.com/thesis-hub/thesis-scheduling-hub/internal/infrastructure/messaging"
	"github.com/thesis-hub/thesis-scheduling-hub/internal/infrastructure/persistence/memory"
	"github.com/thesis-hub/thesis-scheduling-hub/internal/infrastructure/persistence/postgres"
	"github.com/thesis-hub/thesis-scheduling-hub/internal/infrastructure/persistence/redis"

	// Interface layer
	httpserver "github.com/thesis-hub/thesis-scheduling-hub/internal/interface/http"
	"github.com/thesis-hub/thesis-scheduling-hub/internal/interface/http/handlers"

	// Packages
	"github.com/thesis-hub/thesis-scheduling-hub/pkg/keylock"
	"github.com/thesis-hub/thesis-scheduling-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// MAIN
// ══════════════════════════════════════════════════════════════════════════════

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

// repositories bundles the persistence contracts so run can wire either the
// postgres or the in-memory implementation behind the same names.
type repositories struct {
	students     student.Repository
	lecturers    lecturer.Repository
	rooms        room.Repository
	sessions     session.Repository
	calendar     calendar.Repository
	availability session.AvailabilityIndex
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. CONFIGURATION
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. LOGGING
	// ─────────────────────────────────────────────────────────────────────────
	log := setupLogger(cfg)
	log.Info("starting Thesis Scheduling Hub",
		"env", string(cfg.App.Environment),
		"version", cfg.App.Version,
		"timezone", cfg.App.Timezone,
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 3. PERSISTENCE (PostgreSQL, or the in-memory registry for development)
	// ─────────────────────────────────────────────────────────────────────────
	var repos repositories
	var dbConn *postgres.Connection

	if cfg.Database.URL != "" {
		log.Info("connecting to database...")
		dbConn, err = postgres.NewConnectionFromURL(ctx, cfg.Database.URL)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer func() {
			log.Info("closing database connection...")
			dbConn.Close()
		}()

		if err := dbConn.Ping(ctx); err != nil {
			return fmt.Errorf("database ping failed: %w", err)
		}

		log.Info("running database migrations...")
		migrator := postgres.NewMigrator(dbConn)
		if err := migrator.Migrate(ctx); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		if status, err := migrator.Status(ctx); err != nil {
			log.Warn("failed to get migration status", "error", err)
		} else {
			applied := 0
			for _, m := range status {
				if m.IsApplied {
					applied++
				}
			}
			log.Info("migrations completed", "applied", applied, "total", len(status))
		}

		repos = repositories{
			students:     postgres.NewStudentRepository(dbConn),
			lecturers:    postgres.NewLecturerRepository(dbConn),
			rooms:        postgres.NewRoomRepository(dbConn),
			sessions:     postgres.NewSessionRepository(dbConn),
			calendar:     postgres.NewCalendarRepository(dbConn),
			availability: postgres.NewAvailabilityIndex(dbConn),
		}
		log.Info("storage initialized", "mode", "postgres")
	} else {
		// No DATABASE_URL: run on the map-backed registry. Everything is
		// lost on restart, which is exactly what local development wants.
		repos = repositories{
			students:     memory.NewStudentStore(),
			lecturers:    memory.NewLecturerStore(),
			rooms:        memory.NewRoomStore(),
			sessions:     memory.NewSessionStore(),
			calendar:     memory.NewCalendarStore(),
			availability: memory.NewAvailabilityIndexWithWait(cfg.Scheduling.LockWaitTimeout),
		}
		log.Info("storage initialized", "mode", "memory")
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 4. REDIS AVAILABILITY CACHE (optional)
	// ─────────────────────────────────────────────────────────────────────────
	var redisCache *redis.Cache
	var availCache *redis.AvailabilityCache

	cacheFlagOn := cfg.Features.IsEnabled(config.FeatureAvailabilityCache, nil)
	if !cacheFlagOn {
		log.Info("availability cache disabled by feature flag")
	}
	if !cfg.Redis.Disabled && cacheFlagOn {
		log.Info("connecting to Redis...")
		redisCfg := redis.DefaultConfig()
		redisCfg.Host = cfg.Redis.Host
		redisCfg.Port = cfg.Redis.Port
		redisCfg.Password = cfg.Redis.Password
		redisCfg.DB = cfg.Redis.DB
		redisCfg.PoolSize = cfg.Redis.PoolSize
		redisCfg.MinIdleConns = cfg.Redis.MinIdleConns
		redisCfg.DialTimeout = cfg.Redis.DialTimeout
		redisCfg.ReadTimeout = cfg.Redis.ReadTimeout
		redisCfg.WriteTimeout = cfg.Redis.WriteTimeout

		redisCache, err = redis.NewCache(redisCfg)
		if err != nil {
			// The grid cache is an optimization. Scheduling is correct
			// without it, so a missing Redis only costs read latency.
			log.Warn("failed to connect to Redis, availability caching disabled", "error", err)
			redisCache = nil
		} else {
			defer redisCache.Close()
			availCache = redis.NewAvailabilityCache(redisCache)
			log.Info("Redis connection established")
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 5. EVENT BUS + DISPATCHER
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing event bus...")
	busCfg := messaging.DefaultInMemoryEventBusConfig()
	busCfg.Logger = log
	busCfg.AsyncMode = true
	busCfg.WorkerPoolSize = cfg.Dispatcher.WorkerPoolSize
	eventBus := messaging.NewInMemoryEventBus(busCfg)
	defer func() {
		log.Info("closing event bus...")
		_ = eventBus.Close()
	}()

	dispatcherCfg := messaging.DefaultDispatcherConfig(eventBus)
	dispatcherCfg.Logger = log
	dispatcherCfg.WorkerPoolSize = cfg.Dispatcher.WorkerPoolSize
	dispatcherCfg.EnableDeadLetterQueue = cfg.Dispatcher.EnableDeadLetterQueue
	dispatcherCfg.DeadLetterQueueSize = cfg.Dispatcher.DeadLetterQueueSize
	dispatcherCfg.RetryConfig.MaxRetries = cfg.Dispatcher.MaxRetries
	dispatcher := messaging.NewDispatcher(dispatcherCfg)

	// ─────────────────────────────────────────────────────────────────────────
	// 6. EVENT HANDLERS
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("registering event handlers...")
	var committed *eventhandler.OnSessionCommittedHandler
	if cfg.Features.IsEnabled(config.FeatureCacheInvalidation, nil) {
		committed = eventhandler.NewOnSessionCommittedHandler(
			availCache, log, eventhandler.DefaultSessionCommittedConfig())
	} else {
		log.Info("cache invalidation disabled by feature flag")
	}
	var audit *eventhandler.AuditLogHandler
	if cfg.Features.IsEnabled(config.FeatureAuditLog, nil) {
		audit = eventhandler.NewAuditLogHandler(log, eventhandler.DefaultAuditLogConfig())
	} else {
		log.Warn("audit log disabled by feature flag")
	}
	if err := eventhandler.RegisterAll(dispatcher, committed, audit); err != nil {
		return fmt.Errorf("failed to register event handlers: %w", err)
	}
	if err := dispatcher.Start(); err != nil {
		return fmt.Errorf("failed to start dispatcher: %w", err)
	}
	defer func() {
		log.Info("stopping dispatcher...")
		_ = dispatcher.Stop()
	}()

	// ─────────────────────────────────────────────────────────────────────────
	// 7. APPLICATION LAYER (Commands, Queries)
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing application layer...")
	locks := keylock.NewWithWait(cfg.Scheduling.LockWaitTimeout)
	guard := calendar.NewGuard(repos.calendar)

	scheduleCmd := command.NewScheduleSessionHandler(
		repos.students, repos.lecturers, repos.rooms, repos.sessions,
		repos.availability, eventBus, locks,
		command.DefaultScheduleSessionHandlerConfig())
	rescheduleCmd := command.NewRescheduleSessionHandler(
		repos.students, repos.lecturers, repos.rooms, repos.sessions,
		repos.availability, eventBus, locks)
	cancelCmd := command.NewCancelSessionHandler(
		repos.students, repos.lecturers, repos.sessions,
		repos.availability, eventBus, locks)
	enrollCmd := command.NewEnrollStudentHandler(repos.students, eventBus)
	assignCmd := command.NewAssignSupervisorHandler(repos.students, repos.lecturers, eventBus, locks)
	advanceCmd := command.NewAdvanceLifecycleHandler(repos.students, eventBus, locks)
	evaluationCmd := command.NewRecordEvaluationHandler(
		repos.students, eventBus, locks,
		command.RecordEvaluationHandlerConfig{MaxRevisions: cfg.Scheduling.MaxRevisionAttempts})
	registerLecturerCmd := command.NewRegisterLecturerHandler(repos.lecturers)
	registerRoomCmd := command.NewRegisterRoomHandler(repos.rooms)
	updateAvailabilityCmd := command.NewUpdateAvailabilityHandler(repos.lecturers)
	createCalendarCmd := command.NewCreateCalendarEventHandler(guard, eventBus)
	updateCalendarCmd := command.NewUpdateCalendarEventHandler(repos.calendar, guard, eventBus)

	availabilityQuery := query.NewGetAvailabilityHandler(
		repos.lecturers, repos.rooms, repos.availability, availCache)
	lifecycleQuery := query.NewGetLifecycleHandler(repos.students, availCache)
	sessionsQuery := query.NewListSessionsHandler(repos.sessions, repos.students, repos.rooms)

	// ─────────────────────────────────────────────────────────────────────────
	// 8. HEALTH CHECKS
	// ─────────────────────────────────────────────────────────────────────────
	healthChecker := handlers.NewCompositeHealthChecker(cfg.App.Version)
	if dbConn != nil {
		healthChecker.AddCheck("database", handlers.NewDatabaseCheck(dbConn))
	}
	if redisCache != nil {
		healthChecker.AddCheck("cache", handlers.NewCacheCheck(redisCache))
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 9. HTTP SERVER
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing HTTP server...")
	httpCfg := httpserver.DefaultConfig()
	httpCfg.Host = cfg.HTTP.Host
	httpCfg.Port = cfg.HTTP.Port
	httpCfg.ReadTimeout = cfg.HTTP.ReadTimeout
	httpCfg.WriteTimeout = cfg.HTTP.WriteTimeout
	httpCfg.IdleTimeout = cfg.HTTP.IdleTimeout
	httpCfg.EnableCORS = cfg.HTTP.EnableCORS
	httpCfg.AllowedOrigins = cfg.HTTP.AllowedOrigins
	httpCfg.RateLimitPerMinute = cfg.HTTP.RateLimitPerMinute
	httpCfg.APIKeyHeader = cfg.HTTP.APIKeyHeader
	httpCfg.APIKeys = cfg.HTTP.APIKeys

	server := httpserver.NewServer(httpCfg, httpserver.Dependencies{
		ScheduleSession:     scheduleCmd,
		RescheduleSession:   rescheduleCmd,
		CancelSession:       cancelCmd,
		EnrollStudent:       enrollCmd,
		AssignSupervisor:    assignCmd,
		AdvanceLifecycle:    advanceCmd,
		RecordEvaluation:    evaluationCmd,
		RegisterLecturer:    registerLecturerCmd,
		RegisterRoom:        registerRoomCmd,
		UpdateAvailability:  updateAvailabilityCmd,
		CreateCalendarEvent: createCalendarCmd,
		UpdateCalendarEvent: updateCalendarCmd,
		GetAvailability:     availabilityQuery,
		GetLifecycle:        lifecycleQuery,
		ListSessions:        sessionsQuery,
		Logger:              logger.Default(),
		HealthChecker:       healthChecker,
	})

	log.Info("starting HTTP server", "address", server.Address())
	errCh := server.StartAsync()

	// ─────────────────────────────────────────────────────────────────────────
	// 10. GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("Thesis Scheduling Hub is running", "http_address", server.Address())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	select {
	case sig := <-sigCh:
		log.Info("received shutdown signal", "signal", sig.String())
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server error", "error", err)
			return err
		}
	case <-ctx.Done():
		log.Info("context cancelled")
	}

	log.Info("starting graceful shutdown...", "timeout", cfg.App.ShutdownTimeout.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("failed to stop HTTP server gracefully", "error", err)
		return err
	}

	// Dispatcher, event bus and database close via defers, in that order.
	log.Info("shutdown completed successfully")
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPERS
// ══════════════════════════════════════════════════════════════════════════════

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
	if cfg.App.Debug {
		opts.Level = slog.LevelDebug
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
