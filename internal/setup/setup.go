package setup

import (
	"context"
	"fmt"
	"log"

	"github.com/robalyx/verdict/internal/database"
	"github.com/robalyx/verdict/internal/database/memory"
	"github.com/robalyx/verdict/internal/database/migrations"
	"github.com/robalyx/verdict/internal/events"
	"github.com/robalyx/verdict/internal/ledger"
	"github.com/robalyx/verdict/internal/notify"
	"github.com/robalyx/verdict/internal/redis"
	"github.com/robalyx/verdict/internal/setup/config"
	"github.com/robalyx/verdict/internal/setup/telemetry"
	"github.com/uptrace/bun/migrate"
	"go.uber.org/zap"
)

// Options selects how the application is initialized.
type Options struct {
	// InMemory keeps all records in process and runs side effects inline.
	// Intended for local runs without PostgreSQL or Redis.
	InMemory bool
	// AutoMigrate applies pending migrations without prompting.
	AutoMigrate bool
	// WorkerID distinguishes worker log files.
	WorkerID string
}

// App bundles all core dependencies and services needed by the application.
// Each field represents a major subsystem that needs initialization and cleanup.
type App struct {
	Config       *config.Config     // Application configuration
	Logger       *zap.Logger        // Main application logger
	DBLogger     *zap.Logger        // Database-specific logger
	DB           database.Client    // Database connection pool, nil in memory mode
	Memory       *memory.Store      // In-process store, nil unless in memory mode
	RedisManager *redis.Manager     // Redis connection manager, nil in memory mode
	Stream       *events.Stream     // Side-effect stream, nil when disabled
	LogManager   *telemetry.Manager // Log management system
	Services     *Services          // Domain services
	stopTracing  func(context.Context) error
}

// InitializeApp bootstraps all application dependencies in the correct order,
// ensuring each component has its required dependencies available.
func InitializeApp(ctx context.Context, serviceType telemetry.ServiceType, logDir string, opts Options) (*App, error) {
	// Load app configuration
	cfg, configDir, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}

	// Logging system is initialized next to capture setup issues
	logManager := telemetry.NewManager(serviceType, logDir, &cfg.Common.Debug, &cfg.Common.Telemetry, opts.WorkerID)

	logger, dbLogger, err := logManager.GetLoggers()
	if err != nil {
		return nil, err
	}

	logger.Info("Loaded configuration", zap.String("path", configDir))

	stopTracing := telemetry.ConfigureTracing(&cfg.Common.Telemetry, config.RepositoryVersion, logger)

	app := &App{
		Config:      cfg,
		Logger:      logger,
		DBLogger:    dbLogger.Named("database"),
		LogManager:  logManager,
		stopTracing: stopTracing,
	}

	if opts.InMemory {
		app.Memory = memory.NewStore()
		app.Services = NewServices(&cfg.Common, MemoryStores(app.Memory), nil, nil, logger)

		logger.Warn("Running with the in-memory store, records are lost on exit")
		return app, nil
	}

	// Initialize database with migration check
	db, err := checkAndRunMigrations(ctx, &cfg.Common.PostgreSQL, dbLogger, opts.AutoMigrate)
	if err != nil {
		return nil, err
	}
	app.DB = db

	// Redis manager provides connection pools for the stream and notifications
	app.RedisManager = redis.NewManager(&cfg.Common.Redis, logger)

	notifyClient, err := app.RedisManager.GetClient(redis.NotifyDBIndex)
	if err != nil {
		app.Cleanup(ctx)
		return nil, err
	}
	var notifier ledger.Notifier = notify.NewPublisher(notifyClient, cfg.Common.Stream.NotifyChannel, logger)

	var publisher events.Publisher
	if cfg.Common.Stream.Enabled {
		streamClient, err := app.RedisManager.GetClient(redis.StreamDBIndex)
		if err != nil {
			app.Cleanup(ctx)
			return nil, err
		}

		app.Stream = events.NewStream(
			streamClient, cfg.Common.Stream.Key, cfg.Common.Stream.Group, cfg.Common.Stream.MaxLen, logger,
		)
		publisher = app.Stream
	}

	app.Services = NewServices(&cfg.Common, PostgresStores(db.Model()), publisher, notifier, logger)

	return app, nil
}

// Ready reports whether the backing stores are reachable. It is always nil
// in memory mode.
func (s *App) Ready(ctx context.Context) error {
	if s.DB != nil {
		if err := s.DB.Ping(ctx); err != nil {
			return err
		}
	}
	if s.RedisManager != nil {
		if err := s.RedisManager.Ping(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Cleanup ensures graceful shutdown of all components in reverse initialization order.
// Logs but does not fail on cleanup errors to ensure all components get cleanup attempts.
func (s *App) Cleanup(ctx context.Context) {
	if err := s.stopTracing(ctx); err != nil {
		log.Printf("Failed to flush traces: %v", err)
	}

	// Sync buffered logs before shutdown
	if err := s.Logger.Sync(); err != nil {
		log.Printf("Failed to sync logger: %v", err)
	}

	if err := s.DBLogger.Sync(); err != nil {
		log.Printf("Failed to sync DB logger: %v", err)
	}

	// Close database connections
	if s.DB != nil {
		if err := s.DB.Close(); err != nil {
			log.Printf("Failed to close database connection: %v", err)
		}
	}

	// Close Redis connections last as other components might need it during cleanup
	if s.RedisManager != nil {
		s.RedisManager.Close()
	}
}

// checkAndRunMigrations runs database migrations if needed.
func checkAndRunMigrations(
	ctx context.Context, cfg *config.PostgreSQL, dbLogger *zap.Logger, autoMigrate bool,
) (database.Client, error) {
	tempDB, err := database.NewConnection(ctx, cfg, dbLogger, false)
	if err != nil {
		return nil, err
	}

	migrator := migrate.NewMigrator(tempDB.DB(), migrations.Migrations)

	ms, err := migrator.MigrationsWithStatus(ctx)
	if err != nil {
		tempDB.Close()
		return nil, fmt.Errorf("failed to check migration status: %w", err)
	}

	unapplied := ms.Unapplied()
	if len(unapplied) == 0 {
		return tempDB, nil
	}

	if !autoMigrate {
		log.Println("Database migrations are pending. Would you like to run them now? (y/N)")

		var response string

		_, _ = fmt.Scanln(&response)

		if response != "y" && response != "Y" {
			tempDB.Close()
			return nil, fmt.Errorf("%w: %d unapplied", ErrPendingMigrations, len(unapplied))
		}
	}

	tempDB.Close()

	return database.NewConnection(ctx, cfg, dbLogger, true)
}
