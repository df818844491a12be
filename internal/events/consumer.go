package events

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robalyx/verdict/pkg/utils"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"
)

// ConsumerOptions tunes a Consumer.
type ConsumerOptions struct {
	Name         string
	BatchSize    int64
	Concurrency  int
	PollInterval time.Duration
	ClaimIdle    time.Duration
	// MaxDeliveries parks an entry on the dead-letter stream once it failed
	// this many deliveries. Zero retries forever.
	MaxDeliveries int64
	// OnBatch, when set, is called after each non-empty batch with the
	// number of entries read and acknowledged.
	OnBatch func(read, acked int)
}

// Consumer applies stream events with a bounded pool and acknowledges each
// entry only after its handler succeeded. Failed entries are redelivered
// until MaxDeliveries, then parked.
type Consumer struct {
	stream  *Stream
	handler Handler
	opts    ConsumerOptions
	logger  *zap.Logger
}

// NewConsumer creates a Consumer.
func NewConsumer(stream *Stream, handler Handler, opts ConsumerOptions, logger *zap.Logger) *Consumer {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 50
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = time.Second
	}
	return &Consumer{
		stream:  stream,
		handler: handler,
		opts:    opts,
		logger:  logger.Named("event_consumer").With(zap.String("consumer", opts.Name)),
	}
}

// Run consumes until the context is cancelled.
func (c *Consumer) Run(ctx context.Context) error {
	if err := c.stream.EnsureGroup(ctx); err != nil {
		return err
	}

	c.logger.Info("Consuming side effects", zap.String("stream", c.stream.Key()))

	for {
		processed, err := c.ProcessOnce(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			c.logger.Error("Failed to process batch", zap.Error(err))
		}

		if processed > 0 && err == nil {
			continue
		}

		if !utils.IntervalSleep(ctx, c.opts.PollInterval, c.logger, "consumer") {
			return nil
		}
	}
}

// ProcessOnce reclaims idle entries, reads new ones and applies them.
// It returns the number of entries acknowledged.
func (c *Consumer) ProcessOnce(ctx context.Context) (int, error) {
	var entries []Entry

	if c.opts.ClaimIdle > 0 {
		claimed, err := c.stream.Claim(ctx, c.opts.Name, c.opts.BatchSize, c.opts.ClaimIdle)
		if err != nil {
			return 0, err
		}
		if len(claimed) > 0 {
			c.logger.Info("Reclaimed idle entries", zap.Int("count", len(claimed)))
		}
		entries = append(entries, claimed...)
	}

	fresh, err := c.stream.Read(ctx, c.opts.Name, c.opts.BatchSize, 0)
	if err != nil {
		return 0, err
	}
	entries = append(entries, fresh...)

	if len(entries) == 0 {
		return 0, nil
	}

	var (
		mu        sync.Mutex
		acked     []string
		malformed []Entry
		failed    []Entry
	)

	p := pool.New().WithContext(ctx).WithMaxGoroutines(c.opts.Concurrency)
	for _, entry := range entries {
		p.Go(func(ctx context.Context) error {
			if entry.Err != nil {
				mu.Lock()
				malformed = append(malformed, entry)
				mu.Unlock()
				return nil
			}

			if err := c.apply(ctx, entry.Event); err != nil {
				c.logger.Warn("Failed to apply event, leaving it pending",
					zap.Error(err),
					zap.String("entryID", entry.ID),
					zap.String("eventID", entry.Event.ID.String()),
					zap.String("type", string(entry.Event.Type)))

				mu.Lock()
				failed = append(failed, entry)
				mu.Unlock()
				return nil
			}

			mu.Lock()
			acked = append(acked, entry.ID)
			mu.Unlock()
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return 0, fmt.Errorf("failed to apply batch: %w", err)
	}

	if err := c.stream.Ack(ctx, acked...); err != nil {
		return 0, err
	}

	// Undecodable entries would be redelivered forever
	parked := c.park(ctx, "malformed", malformed)
	parked += c.park(ctx, "max_deliveries", c.exhausted(ctx, failed))

	c.logger.Debug("Applied batch",
		zap.Int("read", len(entries)),
		zap.Int("acked", len(acked)),
		zap.Int("parked", parked))

	if c.opts.OnBatch != nil {
		c.opts.OnBatch(len(entries), len(acked)+parked)
	}

	return len(acked) + parked, nil
}

// exhausted returns the failed entries that reached MaxDeliveries.
func (c *Consumer) exhausted(ctx context.Context, failed []Entry) []Entry {
	if c.opts.MaxDeliveries <= 0 || len(failed) == 0 {
		return nil
	}

	ids := make([]string, 0, len(failed))
	for _, entry := range failed {
		ids = append(ids, entry.ID)
	}

	counts, err := c.stream.Deliveries(ctx, ids...)
	if err != nil {
		c.logger.Warn("Failed to read delivery counts", zap.Error(err))
		return nil
	}

	var out []Entry
	for _, entry := range failed {
		if counts[entry.ID] >= c.opts.MaxDeliveries {
			out = append(out, entry)
		}
	}
	return out
}

// park moves entries to the dead-letter stream. Entries that could not be
// parked stay pending and are tried again on the next claim.
func (c *Consumer) park(ctx context.Context, reason string, entries []Entry) int {
	if len(entries) == 0 {
		return 0
	}

	if err := c.stream.Park(ctx, reason, entries...); err != nil {
		c.logger.Error("Failed to park entries", zap.Error(err), zap.Int("count", len(entries)))
		return 0
	}

	for _, entry := range entries {
		fields := []zap.Field{
			zap.String("entryID", entry.ID),
			zap.String("reason", reason),
			zap.String("deadKey", c.stream.DeadKey()),
		}
		if entry.Err != nil {
			fields = append(fields, zap.NamedError("decodeError", entry.Err))
		} else {
			fields = append(fields,
				zap.String("eventID", entry.Event.ID.String()),
				zap.String("type", string(entry.Event.Type)))
		}
		c.logger.Error("Parked event", fields...)
	}

	return len(entries)
}

// apply runs the handler, turning a panic into an error so one bad event
// cannot stop the consumer.
func (c *Consumer) apply(ctx context.Context, e *Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panicked: %v", r)
		}
	}()
	return c.handler.Handle(ctx, e)
}
