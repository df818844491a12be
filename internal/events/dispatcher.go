package events

import (
	"context"

	"go.uber.org/zap"
)

// Publisher appends events to a durable stream.
type Publisher interface {
	Publish(ctx context.Context, e *Event) (string, error)
}

// Dispatcher hands side effects to the stream, or applies them inline when
// no stream is configured or publishing fails.
type Dispatcher struct {
	publisher Publisher
	handler   Handler
	logger    *zap.Logger
}

// NewDispatcher creates a Dispatcher. A nil publisher applies every event inline.
func NewDispatcher(publisher Publisher, handler Handler, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		publisher: publisher,
		handler:   handler,
		logger:    logger.Named("event_dispatcher"),
	}
}

// Dispatch queues or applies an event. It reports whether the event was
// queued; the error is the inline handler's failure, if any.
func (d *Dispatcher) Dispatch(ctx context.Context, e *Event) (bool, error) {
	if d.publisher != nil {
		_, err := d.publisher.Publish(ctx, e)
		if err == nil {
			return true, nil
		}
		d.logger.Warn("Failed to queue event, applying inline",
			zap.Error(err),
			zap.String("eventID", e.ID.String()),
			zap.String("type", string(e.Type)))
	}

	if err := d.handler.Handle(ctx, e); err != nil {
		return false, err
	}
	return false, nil
}
