package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/robalyx/verdict/cmd/db/commands"
	"github.com/robalyx/verdict/internal/database"
	"github.com/robalyx/verdict/internal/database/migrations"
	"github.com/robalyx/verdict/internal/setup"
	"github.com/robalyx/verdict/internal/setup/config"
	"github.com/uptrace/bun/migrate"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		log.Printf("Error: %v", err)
		os.Exit(1)
	}
}

func run() error {
	// Setup dependencies
	deps, err := setupDependencies()
	if err != nil {
		return fmt.Errorf("failed to setup dependencies: %w", err)
	}
	defer deps.DB.Close()

	app := &cli.Command{
		Name:     "db",
		Usage:    "Database management tool",
		Commands: append(commands.MigrationCommands(deps), commands.AdminCommands(deps)...),
	}

	return app.Run(context.Background(), os.Args)
}

// setupDependencies initializes the database connection, migrator and services.
func setupDependencies() (*commands.CLIDependencies, error) {
	// Load full configuration
	cfg, _, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// Create development logger
	logger, err := zap.NewDevelopment()
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	// Connect to database
	db, err := database.NewConnection(context.Background(), &cfg.Common.PostgreSQL, logger, false)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Admin commands apply side effects inline
	services := setup.NewServices(&cfg.Common, setup.PostgresStores(db.Model()), nil, nil, logger)

	return &commands.CLIDependencies{
		DB:       db,
		Migrator: migrate.NewMigrator(db.DB(), migrations.Migrations),
		Services: services,
		Logger:   logger,
	}, nil
}
