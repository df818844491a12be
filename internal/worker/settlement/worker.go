// Package settlement runs the background side of judgment settlement: it
// applies queued side effects from the stream and retries pending refunds.
package settlement

import (
	"context"
	"time"

	"github.com/robalyx/verdict/internal/events"
	"github.com/robalyx/verdict/internal/ledger"
	"github.com/robalyx/verdict/internal/redis"
	"github.com/robalyx/verdict/internal/setup"
	"github.com/robalyx/verdict/internal/worker/core"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"
)

// WorkerType identifies settlement workers in status reports.
const WorkerType = "settlement"

// refundSweepBatch caps the refunds retried per sweep.
const refundSweepBatch = 100

// Worker consumes side-effect events and sweeps pending refunds.
type Worker struct {
	consumer      *events.Consumer
	refunds       *ledger.RefundCalculator
	reporter      *core.StatusReporter
	sweepInterval time.Duration
	logger        *zap.Logger
}

// New creates a settlement worker from the application. The consumer is
// skipped when the stream is disabled.
func New(app *setup.App, opts events.ConsumerOptions, logger *zap.Logger) *Worker {
	var reporter *core.StatusReporter
	if app.RedisManager != nil {
		client, err := app.RedisManager.GetClient(redis.StreamDBIndex)
		if err != nil {
			logger.Warn("Status reporting disabled", zap.Error(err))
		} else {
			reporter = core.NewStatusReporter(client, WorkerType, logger)
		}
	}
	if reporter == nil {
		reporter = core.NewStatusReporter(nil, WorkerType, logger)
	}

	return NewWorker(
		app.Stream,
		app.Services.Effects,
		app.Services.Refunds,
		reporter,
		opts,
		time.Duration(app.Config.Worker.RefundSweepInterval)*time.Second,
		logger,
	)
}

// NewWorker creates a worker from its parts. stream may be nil and a zero
// sweepInterval disables the refund sweep.
func NewWorker(
	stream *events.Stream,
	handler events.Handler,
	refunds *ledger.RefundCalculator,
	reporter *core.StatusReporter,
	opts events.ConsumerOptions,
	sweepInterval time.Duration,
	logger *zap.Logger,
) *Worker {
	w := &Worker{
		refunds:       refunds,
		reporter:      reporter,
		sweepInterval: sweepInterval,
		logger:        logger.Named("settlement_worker"),
	}

	if stream != nil {
		opts.OnBatch = func(read, acked int) {
			reporter.AddProcessed(acked, read-acked)
		}
		w.consumer = events.NewConsumer(stream, handler, opts, logger)
	}

	return w
}

// Start runs the worker until the context is cancelled.
func (w *Worker) Start(ctx context.Context) error {
	w.logger.Info("Settlement worker started", zap.String("workerID", w.reporter.GetWorkerID()))

	w.reporter.Start(ctx)
	defer w.reporter.Stop()

	p := pool.New().WithContext(ctx)

	if w.consumer != nil {
		p.Go(func(ctx context.Context) error {
			w.reporter.UpdateStatus("consuming side effects")
			return w.consumer.Run(ctx)
		})
	} else {
		w.logger.Warn("Side-effect stream disabled, only sweeping refunds")
	}

	if w.sweepInterval > 0 {
		p.Go(func(ctx context.Context) error {
			w.sweepLoop(ctx)
			return nil
		})
	}

	err := p.Wait()
	if err != nil {
		w.reporter.SetHealthy(false)
		w.logger.Error("Settlement worker failed", zap.Error(err))
		return err
	}

	w.logger.Info("Settlement worker stopped")
	return nil
}

func (w *Worker) sweepLoop(ctx context.Context) {
	ticker := time.NewTicker(w.sweepInterval)
	defer ticker.Stop()

	for {
		w.SweepRefunds(ctx)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// SweepRefunds retries one batch of pending refunds and returns how many settled.
func (w *Worker) SweepRefunds(ctx context.Context) int {
	settled, err := w.refunds.RetryPending(ctx, refundSweepBatch)
	if err != nil {
		if ctx.Err() == nil {
			w.logger.Error("Failed to sweep pending refunds", zap.Error(err))
		}
		return 0
	}
	return settled
}
