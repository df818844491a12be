package events

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
)

// ErrUnknownEventType is returned for an event no handler understands.
var ErrUnknownEventType = errors.New("unknown event type")

// Type identifies a settlement side effect.
type Type string

const (
	// TypeCreditAward awards spendable credits to a judge.
	TypeCreditAward Type = "credit_award"
	// TypeReputationUpdate records the quality rating of a judgment and
	// recomputes the judge's reputation.
	TypeReputationUpdate Type = "reputation_update"
	// TypeAudit writes an activity log entry.
	TypeAudit Type = "audit"
)

// Valid reports whether the type is handled by consumers.
func (t Type) Valid() bool {
	switch t {
	case TypeCreditAward, TypeReputationUpdate, TypeAudit:
		return true
	default:
		return false
	}
}

// Event is a side effect of a settled judgment. Handlers apply it
// idempotently, keyed on ID or on the judgment it refers to.
type Event struct {
	ID         uuid.UUID      `json:"id"`
	Type       Type           `json:"type"`
	RequestID  uuid.UUID      `json:"requestId"`
	JudgmentID uuid.UUID      `json:"judgmentId"`
	JudgeID    uuid.UUID      `json:"judgeId"`
	Feedback   string         `json:"feedback,omitempty"`
	Activity   string         `json:"activity,omitempty"`
	Details    map[string]any `json:"details,omitempty"`
	OccurredAt time.Time      `json:"occurredAt"`
}

// New creates an event of the given type for a judgment.
func New(eventType Type, requestID, judgmentID, judgeID uuid.UUID) *Event {
	return &Event{
		ID:         uuid.New(),
		Type:       eventType,
		RequestID:  requestID,
		JudgmentID: judgmentID,
		JudgeID:    judgeID,
		OccurredAt: time.Now().UTC(),
	}
}

// Encode serializes the event for the stream.
func (e *Event) Encode() (string, error) {
	payload, err := sonic.MarshalString(e)
	if err != nil {
		return "", fmt.Errorf("failed to encode event: %w", err)
	}
	return payload, nil
}

// Decode parses an event read from the stream.
func Decode(payload string) (*Event, error) {
	var e Event
	if err := sonic.UnmarshalString(payload, &e); err != nil {
		return nil, fmt.Errorf("failed to decode event: %w", err)
	}
	if e.ID == uuid.Nil || !e.Type.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEventType, e.Type)
	}
	return &e, nil
}

// Handler applies events.
type Handler interface {
	Handle(ctx context.Context, e *Event) error
}

// HandlerFunc adapts a function to a Handler.
type HandlerFunc func(ctx context.Context, e *Event) error

// Handle calls f.
func (f HandlerFunc) Handle(ctx context.Context, e *Event) error {
	return f(ctx, e)
}
