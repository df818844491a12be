// Package settlement pays judges for their judgments. A submission is
// settled as an ordered saga: the judge's earning is written before the
// judgment, and every later step is best effort and reconciled forward.
package settlement

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/robalyx/verdict/internal/apperr"
	"github.com/robalyx/verdict/internal/database/types"
	"github.com/robalyx/verdict/internal/database/types/enum"
	"github.com/robalyx/verdict/internal/events"
	"github.com/robalyx/verdict/internal/setup/config"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const tracerName = "github.com/robalyx/verdict/internal/settlement"

// Options tunes the pipeline.
type Options struct {
	Payouts           PayoutTable
	EarningAttempts   int
	EarningRetryDelay time.Duration
	MaxFeedbackLength int
}

// OptionsFromConfig builds Options from the settlement config.
func OptionsFromConfig(cfg config.Settlement) Options {
	return Options{
		Payouts:           NewPayoutTable(cfg.Payouts),
		EarningAttempts:   cfg.EarningAttempts,
		EarningRetryDelay: time.Duration(cfg.EarningRetryDelay) * time.Millisecond,
		MaxFeedbackLength: cfg.MaxFeedbackLength,
	}
}

// Receipt is returned for a settled judgment.
type Receipt struct {
	JudgmentID    uuid.UUID              `json:"judgmentId"`
	AmountEarned  int64                  `json:"amountEarned"`
	Currency      string                 `json:"currency"`
	RequestStatus *types.RequestProgress `json:"requestStatus"`
	Steps         []StepOutcome          `json:"-"`
}

// Pipeline settles judgment submissions.
type Pipeline struct {
	requests       Requests
	judgments      JudgmentStore
	earnings       EarningStore
	qualifications QualificationReader
	dispatcher     Dispatcher
	opts           Options
	tracer         trace.Tracer
	logger         *zap.Logger
}

// NewPipeline creates a Pipeline.
func NewPipeline(
	requests Requests,
	judgments JudgmentStore,
	earnings EarningStore,
	qualifications QualificationReader,
	dispatcher Dispatcher,
	opts Options,
	logger *zap.Logger,
) *Pipeline {
	if opts.EarningAttempts <= 0 {
		opts.EarningAttempts = 3
	}
	if opts.EarningRetryDelay <= 0 {
		opts.EarningRetryDelay = 100 * time.Millisecond
	}
	if opts.Payouts == nil {
		opts.Payouts = NewPayoutTable(config.DefaultPayouts())
	}

	return &Pipeline{
		requests:       requests,
		judgments:      judgments,
		earnings:       earnings,
		qualifications: qualifications,
		dispatcher:     dispatcher,
		opts:           opts,
		tracer:         otel.Tracer(tracerName),
		logger:         logger.Named("settlement"),
	}
}

// SubmitJudgment validates and settles a judgment. Once the judge's earning
// is written the call reports success, except when the judgment itself
// cannot be written, in which case the earning is kept for review.
func (p *Pipeline) SubmitJudgment(
	ctx context.Context, requestID, judgeID uuid.UUID, payload JudgmentPayload,
) (*Receipt, error) {
	const op = "settlement.SubmitJudgment"

	ctx, span := p.tracer.Start(ctx, op, trace.WithAttributes(
		attribute.String("request.id", requestID.String()),
		attribute.String("judge.id", judgeID.String()),
	))
	defer span.End()

	payload.Normalize()
	if err := payload.Validate(p.opts.MaxFeedbackLength); err != nil {
		return nil, apperr.Wrap(apperr.KindValidation, op, err.Error(), err)
	}

	req, err := p.checkPreconditions(ctx, op, requestID, judgeID, &payload)
	if err != nil {
		return nil, err
	}

	amount := p.opts.Payouts.Amount(req.Tier)
	saga := newSaga(p.tracer, p.logger)
	logger := p.logger.With(
		zap.String("requestID", requestID.String()),
		zap.String("judgeID", judgeID.String()))

	// Earning first so the judge's work is never unpaid
	var earning *types.Earning
	err = saga.Run(ctx, StepPreCreateEarning, func(ctx context.Context) error {
		var err error
		earning, err = p.preCreateEarning(ctx, req, judgeID, amount)
		return err
	})
	if err != nil {
		logger.Error("Failed to record earning, nothing was persisted",
			zap.Error(err),
			zap.Int("attempts", p.opts.EarningAttempts))
		return nil, apperr.Wrap(apperr.KindPaymentProcessing, op,
			"payment could not be processed, please submit again", err)
	}

	judgment := payload.judgment(req)
	judgment.ID = uuid.New()
	judgment.JudgeID = judgeID

	err = saga.Run(ctx, StepCreateJudgment, func(ctx context.Context) error {
		return p.judgments.CreateJudgment(ctx, judgment)
	})
	if err != nil {
		p.protectEarning(ctx, logger, earning, err)
		return nil, apperr.Wrap(apperr.KindPayProtected, op,
			"submission failed but your earnings are protected, do not resubmit this work", err)
	}

	logger = logger.With(zap.String("judgmentID", judgment.ID.String()))

	_ = saga.Run(ctx, StepRekeyEarning, func(ctx context.Context) error {
		return p.earnings.RekeyEarning(ctx, earning.ID, judgment.ID)
	})

	var progress *types.RequestProgress
	_ = saga.Run(ctx, StepAdvanceRequest, func(ctx context.Context) error {
		var err error
		progress, err = p.advance(ctx, logger, req.ID)
		return err
	})

	p.dispatch(ctx, saga, StepAwardCredits, events.New(events.TypeCreditAward, req.ID, judgment.ID, judgeID))

	reputationEvent := events.New(events.TypeReputationUpdate, req.ID, judgment.ID, judgeID)
	reputationEvent.Feedback = judgment.Feedback
	p.dispatch(ctx, saga, StepUpdateReputation, reputationEvent)

	auditEvent := events.New(events.TypeAudit, req.ID, judgment.ID, judgeID)
	auditEvent.Activity = enum.ActivityTypeJudgmentSubmitted.String()
	auditEvent.Details = auditDetails(judgment, earning, progress)
	p.dispatch(ctx, saga, StepAuditLog, auditEvent)

	if progress == nil {
		progress = p.freshProgress(ctx, logger, req)
	}

	p.report(logger, saga)

	return &Receipt{
		JudgmentID:    judgment.ID,
		AmountEarned:  earning.Amount,
		Currency:      earning.Currency,
		RequestStatus: progress,
		Steps:         saga.Outcomes(),
	}, nil
}

// checkPreconditions runs the independent reads that gate a submission.
// No lock is held across them.
func (p *Pipeline) checkPreconditions(
	ctx context.Context, op string, requestID, judgeID uuid.UUID, payload *JudgmentPayload,
) (*types.Request, error) {
	qualified, err := p.qualifications.IsQualified(ctx, judgeID)
	if err != nil {
		return nil, fmt.Errorf("failed to check qualification: %w", err)
	}
	if !qualified {
		return nil, apperr.Authorization(op, "judge has not completed qualification")
	}

	req, err := p.requests.Get(ctx, requestID)
	if err != nil {
		return nil, err
	}

	if req.OwnerID == judgeID {
		return nil, apperr.Authorization(op, "judges cannot judge their own request")
	}

	if !req.Status.AcceptsVerdicts() {
		return nil, apperr.Conflict(op, fmt.Sprintf("request is %s and no longer accepts judgments", req.Status))
	}
	if req.ReceivedVerdictCount >= req.TargetVerdictCount {
		return nil, apperr.Conflict(op, "request already has all the judgments it asked for")
	}

	if err := payload.ValidateFor(req); err != nil {
		return nil, apperr.Wrap(apperr.KindValidation, op, err.Error(), err)
	}

	judged, err := p.judgments.HasJudged(ctx, requestID, judgeID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing judgment: %w", err)
	}
	if judged {
		return nil, apperr.Conflict(op, "judge already submitted a judgment for this request")
	}

	return req, nil
}

// preCreateEarning writes the pending earning under a placeholder judgment
// id. An earning left in review by an earlier failed submission of the same
// judge is reused instead of creating another.
func (p *Pipeline) preCreateEarning(
	ctx context.Context, req *types.Request, judgeID uuid.UUID, amount int64,
) (*types.Earning, error) {
	placeholder := uuid.New()
	earningID := uuid.New()

	operation := func() (*types.Earning, error) {
		reclaimed, err := p.earnings.ReclaimEarning(ctx, judgeID, req.ID, placeholder, amount)
		if err == nil {
			p.logger.Info("Reclaimed earning held for review",
				zap.String("earningID", reclaimed.ID.String()),
				zap.String("requestID", req.ID.String()),
				zap.String("judgeID", judgeID.String()))
			return reclaimed, nil
		}
		if !errors.Is(err, types.ErrEarningNotFound) {
			return nil, p.retryable(ctx, err)
		}

		earning := &types.Earning{
			ID:           earningID,
			JudgeID:      judgeID,
			JudgmentID:   placeholder,
			RequestID:    req.ID,
			Amount:       amount,
			Currency:     types.DefaultCurrency,
			PayoutStatus: enum.PayoutStatusPending,
			RequestType:  req.Tier,
		}
		if err := p.earnings.CreateEarning(ctx, earning); err != nil {
			return nil, p.retryable(ctx, err)
		}
		return earning, nil
	}

	b := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(
		backoff.WithInitialInterval(p.opts.EarningRetryDelay),
		backoff.WithMultiplier(2),
		backoff.WithRandomizationFactor(0),
		backoff.WithMaxElapsedTime(0),
	), uint64(p.opts.EarningAttempts-1)), ctx)

	return backoff.RetryNotifyWithData(operation, b, func(err error, next time.Duration) {
		p.logger.Warn("Earning write failed, retrying",
			zap.Error(err),
			zap.String("requestID", req.ID.String()),
			zap.String("judgeID", judgeID.String()),
			zap.Duration("next", next))
	})
}

// retryable stops retrying once the caller has gone away.
func (p *Pipeline) retryable(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return backoff.Permanent(err)
	}
	return err
}

// protectEarning flags the earning of a judgment that could not be written.
// It runs even if the caller cancelled so the earning is never left pending
// under a placeholder.
func (p *Pipeline) protectEarning(ctx context.Context, logger *zap.Logger, earning *types.Earning, cause error) {
	note := "judgment write failed: " + cause.Error()

	if err := p.earnings.MarkNeedsReview(context.WithoutCancel(ctx), earning.ID, note); err != nil {
		logger.Error("Failed to flag earning for review",
			zap.Error(err),
			zap.NamedError("cause", cause),
			zap.String("earningID", earning.ID.String()))
		return
	}

	logger.Warn("Judgment write failed, earning held for review",
		zap.Error(cause),
		zap.String("earningID", earning.ID.String()),
		zap.Int64("amount", earning.Amount))
}

// advance counts the judgment. A request that stopped accepting verdicts
// while this judgment was being written is over-filled; the judgment is
// kept and the counter is set to the true judgment count.
func (p *Pipeline) advance(ctx context.Context, logger *zap.Logger, requestID uuid.UUID) (*types.RequestProgress, error) {
	progress, err := p.requests.IncrementAndMaybeClose(ctx, requestID)
	if err == nil {
		return progress, nil
	}
	if apperr.KindOf(err) != apperr.KindConflict {
		return nil, err
	}

	progress, _, recErr := p.requests.Reconcile(ctx, requestID)
	if recErr != nil {
		return nil, errors.Join(err, recErr)
	}

	logger.Warn("Judgment accepted after request stopped accepting verdicts",
		zap.Int("received", progress.Received),
		zap.Int("target", progress.Target),
		zap.String("status", progress.Status.String()))

	return progress, nil
}

// dispatch runs a side-effect step through the dispatcher.
func (p *Pipeline) dispatch(ctx context.Context, saga *Saga, step string, e *events.Event) {
	_ = saga.RunStatus(ctx, step, func(ctx context.Context) (StepStatus, error) {
		queued, err := p.dispatcher.Dispatch(ctx, e)
		if queued {
			return StepQueued, nil
		}
		return StepSucceeded, err
	})
}

// freshProgress reads the counters when advancing the request failed.
func (p *Pipeline) freshProgress(ctx context.Context, logger *zap.Logger, stale *types.Request) *types.RequestProgress {
	req, err := p.requests.Get(ctx, stale.ID)
	if err != nil {
		logger.Warn("Failed to read request counters", zap.Error(err))
		return stale.Progress()
	}
	return req.Progress()
}

// report logs the steps that degraded. They are reconciled later and never
// fail the submission.
func (p *Pipeline) report(logger *zap.Logger, saga *Saga) {
	failed := saga.Degraded()
	if len(failed) == 0 {
		logger.Info("Settled judgment", saga.fields()...)
		return
	}

	for _, o := range saga.Outcomes() {
		if o.Err != nil {
			logger.Warn("Settlement step degraded",
				zap.String("kind", apperr.KindDegraded.String()),
				zap.String("step", o.Step),
				zap.Error(o.Err))
		}
	}

	logger.Warn("Settled judgment with degraded steps",
		append(saga.fields(), zap.Strings("failedSteps", failed))...)
}

func auditDetails(judgment *types.Judgment, earning *types.Earning, progress *types.RequestProgress) map[string]any {
	details := map[string]any{
		"earningID": earning.ID.String(),
		"amount":    earning.Amount,
		"currency":  earning.Currency,
	}
	if judgment.Choice != nil {
		details["choice"] = *judgment.Choice
	}
	if judgment.Rating != nil {
		details["rating"] = *judgment.Rating
	}
	if progress != nil {
		details["received"] = progress.Received
		details["target"] = progress.Target
		details["status"] = progress.Status.String()
	}
	return details
}
