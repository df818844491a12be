package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robalyx/verdict/internal/rest"
	"github.com/robalyx/verdict/internal/setup"
	"github.com/robalyx/verdict/internal/setup/telemetry"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

// APILogDir specifies where API server log files are stored.
const APILogDir = "logs/api_logs"

// Server timeouts.
const (
	ReadTimeout     = 5 * time.Second
	WriteTimeout    = 30 * time.Second
	ShutdownTimeout = 30 * time.Second
)

func main() {
	if err := run(); err != nil {
		log.Printf("Error: %v", err)
		os.Exit(1)
	}
}

func run() error {
	app := &cli.Command{
		Name:  "api",
		Usage: "Start the verdict HTTP API",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "in-memory",
				Usage: "Keep all records in process and apply side effects inline",
			},
			&cli.BoolFlag{
				Name:  "auto-migrate",
				Usage: "Apply pending database migrations without prompting",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			return serve(ctx, setup.Options{
				InMemory:    c.Bool("in-memory"),
				AutoMigrate: c.Bool("auto-migrate"),
			})
		},
	}

	return app.Run(context.Background(), os.Args)
}

func serve(ctx context.Context, opts setup.Options) error {
	// Initialize application with required dependencies
	app, err := setup.InitializeApp(ctx, telemetry.ServiceAPI, APILogDir, opts)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	defer app.Cleanup(context.Background())

	// Create server
	server := rest.NewServer(app.Services, &app.Config.API, app.Ready, app.Logger)
	defer server.Close()

	// Get server address from config
	addr := fmt.Sprintf("%s:%d", app.Config.API.Host, app.Config.API.Port)

	// Create HTTP server with timeouts
	srv := &http.Server{
		Addr:         addr,
		Handler:      server,
		ReadTimeout:  ReadTimeout,
		WriteTimeout: WriteTimeout,
	}

	// Start server in a goroutine
	errCh := make(chan error, 1)
	go func() {
		app.Logger.Info("API server started", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Wait for interrupt signal
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
	case err := <-errCh:
		return fmt.Errorf("failed to start server: %w", err)
	}

	app.Logger.Info("Shutting down API server...")

	// Create shutdown context with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()

	// Attempt graceful shutdown
	if err := srv.Shutdown(shutdownCtx); err != nil {
		app.Logger.Error("Server forced to shutdown", zap.Error(err))
	}

	app.Logger.Info("Server gracefully stopped")

	return nil
}
