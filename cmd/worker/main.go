package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/robalyx/verdict/internal/events"
	"github.com/robalyx/verdict/internal/setup"
	"github.com/robalyx/verdict/internal/setup/telemetry"
	"github.com/robalyx/verdict/internal/worker/settlement"
	"github.com/robalyx/verdict/pkg/utils"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

const (
	// WorkerLogDir specifies where worker log files are stored.
	WorkerLogDir = "logs/worker_logs"

	// SettlementWorker applies queued side effects and sweeps pending refunds.
	SettlementWorker = "settlement"

	// restartDelay is the pause before a crashed worker is restarted.
	restartDelay = 5 * time.Second
)

func main() {
	if err := run(); err != nil {
		log.Printf("Error: %v", err)
		os.Exit(1)
	}
}

func run() error {
	app := &cli.Command{
		Name:  "worker",
		Usage: "Start the verdict worker",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "workers",
				Aliases: []string{"w"},
				Value:   1,
				Usage:   "Number of workers to start",
			},
			&cli.BoolFlag{
				Name:  "auto-migrate",
				Usage: "Apply pending database migrations without prompting",
			},
		},
		Commands: []*cli.Command{
			{
				Name:  SettlementWorker,
				Usage: "Start settlement workers",
				Action: func(ctx context.Context, c *cli.Command) error {
					return runWorkers(ctx, c.Int("workers"), c.Bool("auto-migrate"))
				},
			},
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return app.Run(ctx, os.Args)
}

// runWorkers starts multiple settlement workers sharing one application.
func runWorkers(ctx context.Context, count int64, autoMigrate bool) error {
	app, err := setup.InitializeApp(ctx, telemetry.ServiceWorker, WorkerLogDir, setup.Options{
		AutoMigrate: autoMigrate,
		WorkerID:    SettlementWorker,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	defer app.Cleanup(context.WithoutCancel(ctx))

	cfg := app.Config.Worker
	consumerName := cfg.ConsumerName
	if consumerName == "" {
		consumerName, _ = os.Hostname()
	}

	var wg sync.WaitGroup
	for i := range count {
		wg.Add(1)
		go func(workerID int64) {
			defer wg.Done()

			name := fmt.Sprintf("%s_worker_%d", SettlementWorker, workerID)
			workerLogger := app.LogManager.GetWorkerLogger(name)

			w := settlement.New(app, events.ConsumerOptions{
				Name:          fmt.Sprintf("%s-%d", consumerName, workerID),
				BatchSize:     cfg.BatchSize,
				Concurrency:   cfg.Concurrency,
				PollInterval:  time.Duration(cfg.PollInterval) * time.Millisecond,
				ClaimIdle:     time.Duration(cfg.ClaimIdle) * time.Millisecond,
				MaxDeliveries: cfg.MaxDeliveries,
			}, workerLogger)

			runWorker(ctx, w, workerLogger)
		}(i)
	}

	log.Printf("Started %d %s workers", count, SettlementWorker)
	wg.Wait()
	log.Println("All workers have finished. Exiting.")

	return nil
}

// runWorker runs a single worker in a loop with error recovery.
func runWorker(ctx context.Context, w interface{ Start(context.Context) error }, logger *zap.Logger) {
	for {
		select {
		case <-ctx.Done():
			logger.Info("Context cancelled, stopping worker")
			return
		default:
			err := func() (err error) {
				defer func() {
					if r := recover(); r != nil {
						err = fmt.Errorf("worker panicked: %v", r)
					}
				}()

				logger.Info("Starting worker")
				return w.Start(ctx)
			}()

			if ctx.Err() != nil {
				logger.Info("Context cancelled, stopping worker")
				return
			}

			logger.Warn("Worker stopped unexpectedly",
				zap.String("worker_type", fmt.Sprintf("%T", w)),
				zap.Error(err),
			)
			logger.Info("Restarting worker in 5 seconds...")

			if !utils.ErrorSleep(ctx, restartDelay, logger, "worker") {
				return
			}
		}
	}
}
