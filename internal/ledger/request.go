package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/robalyx/verdict/internal/apperr"
	"github.com/robalyx/verdict/internal/database/types"
	"github.com/robalyx/verdict/internal/database/types/enum"
	"go.uber.org/zap"
)

// Request creation limits.
const (
	MaxTargetVerdicts = 100
	MaxOptions        = 10
	MaxOptionLength   = 200
)

// NewRequest describes a request to be created.
type NewRequest struct {
	OwnerID            uuid.UUID
	Tier               enum.Tier
	TargetVerdictCount int
	Options            []string
}

// RequestLedger owns a request's lifecycle state and verdict counters.
type RequestLedger struct {
	requests  RequestStore
	judgments VerdictCounter
	credits   *CreditLedger
	refunds   *RefundCalculator
	activity  ActivityRecorder
	prices    map[enum.Tier]int64
	logger    *zap.Logger
}

// NewRequestLedger creates a RequestLedger. prices is the credit price per
// verdict for each tier.
func NewRequestLedger(
	requests RequestStore,
	judgments VerdictCounter,
	credits *CreditLedger,
	refunds *RefundCalculator,
	activity ActivityRecorder,
	prices map[enum.Tier]int64,
	logger *zap.Logger,
) *RequestLedger {
	return &RequestLedger{
		requests:  requests,
		judgments: judgments,
		credits:   credits,
		refunds:   refunds,
		activity:  activity,
		prices:    prices,
		logger:    logger.Named("request_ledger"),
	}
}

// Create validates and charges for a new request, then persists it as open.
func (l *RequestLedger) Create(ctx context.Context, params NewRequest) (*types.Request, error) {
	const op = "request.create"

	options, err := validateNewRequest(params)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindValidation, op, err.Error(), err)
	}

	price, ok := l.prices[params.Tier]
	if !ok || price <= 0 {
		return nil, apperr.Validation(op, "tier has no configured price")
	}

	req := &types.Request{
		ID:                 uuid.New(),
		OwnerID:            params.OwnerID,
		Tier:               params.Tier,
		Status:             enum.RequestStatusOpen,
		TargetVerdictCount: params.TargetVerdictCount,
		CreditsCharged:     price * int64(params.TargetVerdictCount),
		Options:            options,
	}

	if _, err := l.credits.Charge(ctx, req.OwnerID, req.ID, req.CreditsCharged); err != nil {
		return nil, err
	}

	if err := l.requests.CreateRequest(ctx, req); err != nil {
		// The charge is returned in full since nothing was published
		if _, refundErr := l.credits.Refund(ctx, req.OwnerID, req.ID, req.CreditsCharged); refundErr != nil {
			l.logger.Error("Failed to return charge for unsaved request",
				zap.Error(refundErr),
				zap.String("requestID", req.ID.String()),
				zap.Int64("amount", req.CreditsCharged))
		}
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	l.record(ctx, req.OwnerID, req.ID, enum.ActivityTypeRequestCreated, map[string]any{
		"tier":    req.Tier.String(),
		"target":  req.TargetVerdictCount,
		"charged": req.CreditsCharged,
	})

	l.logger.Info("Created request",
		zap.String("requestID", req.ID.String()),
		zap.String("ownerID", req.OwnerID.String()),
		zap.String("tier", req.Tier.String()),
		zap.Int("target", req.TargetVerdictCount))

	return req, nil
}

// Get reads a request and heals its verdict counter when it diverges from the
// true judgment count. A failed heal never fails the read.
func (l *RequestLedger) Get(ctx context.Context, requestID uuid.UUID) (*types.Request, error) {
	req, err := l.requests.GetRequest(ctx, requestID)
	if err != nil {
		if errors.Is(err, types.ErrRequestNotFound) {
			return nil, apperr.Wrap(apperr.KindNotFound, "request.get", "request not found", err)
		}
		return nil, err
	}

	progress, changed, err := l.reconcile(ctx, req)
	if err != nil {
		l.logger.Warn("Failed to reconcile verdict count on read",
			zap.Error(err),
			zap.String("requestID", requestID.String()))
		return req, nil
	}
	if changed {
		req.ReceivedVerdictCount = progress.Received
		req.Status = progress.Status
		req.WinningOption = progress.WinningOption
	}

	return req, nil
}

// Reconcile recounts the non-removed judgments of a request and persists the
// count if it diverges. It reports whether a write happened.
func (l *RequestLedger) Reconcile(ctx context.Context, requestID uuid.UUID) (*types.RequestProgress, bool, error) {
	req, err := l.requests.GetRequest(ctx, requestID)
	if err != nil {
		if errors.Is(err, types.ErrRequestNotFound) {
			return nil, false, apperr.Wrap(apperr.KindNotFound, "request.reconcile", "request not found", err)
		}
		return nil, false, err
	}
	return l.reconcile(ctx, req)
}

func (l *RequestLedger) reconcile(ctx context.Context, req *types.Request) (*types.RequestProgress, bool, error) {
	count, err := l.judgments.CountActive(ctx, req.ID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to count judgments: %w", err)
	}

	if count == req.ReceivedVerdictCount {
		return req.Progress(), false, nil
	}

	progress, err := l.requests.SetVerdictCount(ctx, req.ID, count)
	if err != nil {
		return nil, false, fmt.Errorf("failed to persist verdict count: %w", err)
	}

	l.logger.Warn("Healed diverged verdict count",
		zap.String("requestID", req.ID.String()),
		zap.Int("stored", req.ReceivedVerdictCount),
		zap.Int("actual", count),
		zap.String("status", progress.Status.String()))

	if progress.Overfilled() {
		l.logger.Warn("Request received more verdicts than its target",
			zap.String("requestID", req.ID.String()),
			zap.Int("received", progress.Received),
			zap.Int("target", progress.Target))
	}

	if req.Status != enum.RequestStatusClosed && progress.Status == enum.RequestStatusClosed {
		l.closed(ctx, req.ID, progress)
	}

	return progress, true, nil
}

// IncrementAndMaybeClose counts one more verdict and closes the request once
// the target is reached. Safe under concurrent submissions since the store
// performs the increment and status derivation in one conditional write.
func (l *RequestLedger) IncrementAndMaybeClose(ctx context.Context, requestID uuid.UUID) (*types.RequestProgress, error) {
	progress, err := l.requests.IncrementVerdicts(ctx, requestID)
	if err != nil {
		if errors.Is(err, types.ErrRequestNotWritable) {
			return nil, apperr.Wrap(apperr.KindConflict, "request.increment", "request no longer accepts verdicts", err)
		}
		return nil, err
	}

	if progress.Status == enum.RequestStatusClosed {
		l.closed(ctx, requestID, progress)
	}

	return progress, nil
}

// closed records the winning option and audit entry of a request that just
// reached its target.
func (l *RequestLedger) closed(ctx context.Context, requestID uuid.UUID, progress *types.RequestProgress) {
	if progress.WinningOption == nil {
		winner, err := l.pickWinner(ctx, requestID)
		if err != nil {
			l.logger.Warn("Failed to record winning option",
				zap.Error(err),
				zap.String("requestID", requestID.String()))
		} else if winner != "" {
			progress.WinningOption = &winner
		}
	}

	details := map[string]any{"received": progress.Received, "target": progress.Target}
	if progress.WinningOption != nil {
		details["winningOption"] = *progress.WinningOption
	}
	l.record(ctx, uuid.Nil, requestID, enum.ActivityTypeRequestClosed, details)

	l.logger.Info("Request closed",
		zap.String("requestID", requestID.String()),
		zap.Int("received", progress.Received),
		zap.Int("target", progress.Target))
}

func (l *RequestLedger) pickWinner(ctx context.Context, requestID uuid.UUID) (string, error) {
	tallies, err := l.judgments.TallyChoices(ctx, requestID)
	if err != nil {
		return "", fmt.Errorf("failed to tally choices: %w", err)
	}

	winner, ok := types.WinningChoice(tallies)
	if !ok {
		return "", nil
	}

	set, err := l.requests.SetWinningOption(ctx, requestID, winner)
	if err != nil {
		return "", fmt.Errorf("failed to set winning option: %w", err)
	}
	if !set {
		// Another writer recorded it first
		req, err := l.requests.GetRequest(ctx, requestID)
		if err != nil || req.WinningOption == nil {
			return "", err
		}
		return *req.WinningOption, nil
	}

	return winner, nil
}

// Cancel cancels a request on behalf of its owner and settles the refund.
// Cancellation succeeds even when the refund cannot be credited.
func (l *RequestLedger) Cancel(
	ctx context.Context, requestID, initiatorID uuid.UUID, reason string,
) (*CancelResult, error) {
	const op = "request.cancel"

	req, err := l.requests.GetRequest(ctx, requestID)
	if err != nil {
		if errors.Is(err, types.ErrRequestNotFound) {
			return nil, apperr.Wrap(apperr.KindNotFound, op, "request not found", err)
		}
		return nil, err
	}

	if req.OwnerID != initiatorID {
		return nil, apperr.Authorization(op, "only the request owner can cancel it")
	}

	if !req.Status.Cancellable() {
		return nil, apperr.Conflict(op, fmt.Sprintf("request is %s and cannot be cancelled", req.Status))
	}

	cancelled, err := l.requests.CancelRequest(ctx, requestID, strings.TrimSpace(reason))
	if err != nil {
		if errors.Is(err, types.ErrRequestNotWritable) {
			return nil, apperr.Wrap(apperr.KindConflict, op, "request can no longer be cancelled", err)
		}
		return nil, err
	}

	l.healCancelledCount(ctx, cancelled)
	result := l.refunds.Settle(ctx, cancelled)

	l.record(ctx, initiatorID, requestID, enum.ActivityTypeRequestCancelled, map[string]any{
		"previousStatus": req.Status.String(),
		"reason":         cancelled.CancelReason,
		"received":       cancelled.ReceivedVerdictCount,
		"target":         cancelled.TargetVerdictCount,
		"refundCredits":  result.RefundCredits,
		"refundPending":  result.RefundPending,
	})

	l.logger.Info("Cancelled request",
		zap.String("requestID", requestID.String()),
		zap.Int64("refundCredits", result.RefundCredits),
		zap.Bool("refundPending", result.RefundPending))

	return result, nil
}

// healCancelledCount replaces the stored verdict count of a just-cancelled
// request with the true judgment count, so the refund is pro-rated on what was
// delivered. A failed recount keeps the stored value.
func (l *RequestLedger) healCancelledCount(ctx context.Context, req *types.Request) {
	count, err := l.judgments.CountActive(ctx, req.ID)
	if err != nil {
		l.logger.Warn("Failed to recount judgments before refund",
			zap.Error(err),
			zap.String("requestID", req.ID.String()))
		return
	}
	if count == req.ReceivedVerdictCount {
		return
	}

	if _, err := l.requests.SetVerdictCount(ctx, req.ID, count); err != nil {
		l.logger.Warn("Failed to persist verdict count of cancelled request",
			zap.Error(err),
			zap.String("requestID", req.ID.String()))
	}

	l.logger.Warn("Healed diverged verdict count on cancel",
		zap.String("requestID", req.ID.String()),
		zap.Int("stored", req.ReceivedVerdictCount),
		zap.Int("actual", count))

	req.ReceivedVerdictCount = count
}

func (l *RequestLedger) record(
	ctx context.Context, actorID, requestID uuid.UUID, activityType enum.ActivityType, details map[string]any,
) {
	if l.activity == nil {
		return
	}

	err := l.activity.RecordActivity(ctx, &types.ActivityLog{
		EventID:      uuid.New(),
		ActorID:      actorID,
		RequestID:    requestID,
		ActivityType: activityType,
		Details:      details,
	})
	if err != nil {
		l.logger.Warn("Failed to record request activity",
			zap.Error(err),
			zap.String("requestID", requestID.String()),
			zap.String("activityType", activityType.String()))
	}
}

var (
	errUnknownTier      = errors.New("unknown tier")
	errInvalidTarget    = fmt.Errorf("target verdict count must be between 1 and %d", MaxTargetVerdicts)
	errTooFewOptions    = errors.New("requests with options need at least two")
	errTooManyOptions   = fmt.Errorf("at most %d options are allowed", MaxOptions)
	errInvalidOption    = fmt.Errorf("options must be non-empty and at most %d characters", MaxOptionLength)
	errDuplicateOption  = errors.New("options must be unique")
	errMissingRequester = errors.New("owner id is required")
)

// validateNewRequest checks creation parameters and returns the normalized options.
func validateNewRequest(params NewRequest) ([]string, error) {
	if params.OwnerID == uuid.Nil {
		return nil, errMissingRequester
	}
	if !params.Tier.IsATier() {
		return nil, errUnknownTier
	}
	if params.TargetVerdictCount < 1 || params.TargetVerdictCount > MaxTargetVerdicts {
		return nil, errInvalidTarget
	}

	if len(params.Options) == 0 {
		return nil, nil
	}
	if len(params.Options) == 1 {
		return nil, errTooFewOptions
	}
	if len(params.Options) > MaxOptions {
		return nil, errTooManyOptions
	}

	options := make([]string, 0, len(params.Options))
	seen := make(map[string]struct{}, len(params.Options))
	for _, option := range params.Options {
		option = strings.TrimSpace(option)
		if option == "" || len(option) > MaxOptionLength {
			return nil, errInvalidOption
		}
		if _, ok := seen[option]; ok {
			return nil, errDuplicateOption
		}
		seen[option] = struct{}{}
		options = append(options, option)
	}

	return options, nil
}
