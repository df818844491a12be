package settlement

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Settlement steps in execution order.
const (
	StepPreCreateEarning = "pre_create_earning"
	StepCreateJudgment   = "create_judgment"
	StepRekeyEarning     = "rekey_earning"
	StepAdvanceRequest   = "advance_request"
	StepAwardCredits     = "award_credits"
	StepUpdateReputation = "update_reputation"
	StepAuditLog         = "audit_log"
)

// StepStatus is the outcome of one saga step.
type StepStatus string

const (
	StepSucceeded StepStatus = "succeeded"
	StepFailed    StepStatus = "failed"
	StepQueued    StepStatus = "queued"
)

// StepOutcome records how a step ended.
type StepOutcome struct {
	Step     string
	Status   StepStatus
	Err      error
	Duration time.Duration
}

// Saga runs the ordered writes of one settlement and keeps the outcome of
// each. Failed steps are compensated forward by the caller, never rolled back.
type Saga struct {
	tracer   trace.Tracer
	outcomes []StepOutcome
	logger   *zap.Logger
}

func newSaga(tracer trace.Tracer, logger *zap.Logger) *Saga {
	return &Saga{
		tracer: tracer,
		logger: logger,
	}
}

// Run executes a step in its own span and records its outcome.
func (s *Saga) Run(ctx context.Context, step string, fn func(ctx context.Context) error) error {
	return s.RunStatus(ctx, step, func(ctx context.Context) (StepStatus, error) {
		return StepSucceeded, fn(ctx)
	})
}

// RunStatus executes a step that reports its own success status, such as a
// side effect that was queued instead of applied.
func (s *Saga) RunStatus(ctx context.Context, step string, fn func(ctx context.Context) (StepStatus, error)) error {
	ctx, span := s.tracer.Start(ctx, "settlement."+step)
	defer span.End()

	start := time.Now()
	status, err := fn(ctx)
	if err != nil {
		status = StepFailed
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.SetAttributes(attribute.String("settlement.step_status", string(status)))

	s.outcomes = append(s.outcomes, StepOutcome{
		Step:     step,
		Status:   status,
		Err:      err,
		Duration: time.Since(start),
	})
	return err
}

// Outcomes returns the recorded outcomes in execution order.
func (s *Saga) Outcomes() []StepOutcome {
	return s.outcomes
}

// Degraded returns the steps that failed.
func (s *Saga) Degraded() []string {
	var failed []string
	for _, o := range s.outcomes {
		if o.Status == StepFailed {
			failed = append(failed, o.Step)
		}
	}
	return failed
}

func (s *Saga) fields() []zap.Field {
	fields := make([]zap.Field, 0, len(s.outcomes))
	for _, o := range s.outcomes {
		fields = append(fields, zap.String(o.Step, string(o.Status)))
	}
	return fields
}
