package ledger

import (
	"context"

	"github.com/google/uuid"
	"github.com/robalyx/verdict/internal/database/types"
	"github.com/robalyx/verdict/internal/database/types/enum"
	"github.com/robalyx/verdict/internal/notify"
	"go.uber.org/zap"
)

// CancelResult is the outcome of a cancellation.
type CancelResult struct {
	RefundCredits int64 `json:"refundCredits"`
	RefundPending bool  `json:"refundPending"`
}

// ComputeRefund returns the credits owed for undelivered verdicts, rounded up
// in the requester's favor. It never returns a negative amount.
func ComputeRefund(charged int64, target, received int) int64 {
	if charged <= 0 || target <= 0 || received >= target {
		return 0
	}
	if received < 0 {
		received = 0
	}

	remaining := int64(target - received)
	t := int64(target)
	return (charged*remaining + t - 1) / t
}

// RefundCalculator settles refunds for cancelled requests.
type RefundCalculator struct {
	requests RequestStore
	credits  *CreditLedger
	activity ActivityRecorder
	notifier Notifier
	logger   *zap.Logger
}

// NewRefundCalculator creates a RefundCalculator. notifier may be nil.
func NewRefundCalculator(
	requests RequestStore, credits *CreditLedger, activity ActivityRecorder, notifier Notifier, logger *zap.Logger,
) *RefundCalculator {
	return &RefundCalculator{
		requests: requests,
		credits:  credits,
		activity: activity,
		notifier: notifier,
		logger:   logger.Named("refund_calculator"),
	}
}

// Settle refunds a cancelled request. A failed credit never fails the
// cancellation: the request is flagged refund_pending for later reconciliation.
func (c *RefundCalculator) Settle(ctx context.Context, req *types.Request) *CancelResult {
	amount := ComputeRefund(req.CreditsCharged, req.TargetVerdictCount, req.ReceivedVerdictCount)
	result := &CancelResult{RefundCredits: amount}
	if amount == 0 {
		return result
	}

	if _, err := c.credits.Refund(ctx, req.OwnerID, req.ID, amount); err != nil {
		c.logger.Error("Failed to credit refund, marking as pending",
			zap.Error(err),
			zap.String("requestID", req.ID.String()),
			zap.Int64("amount", amount))

		result.RefundPending = true
		if err := c.requests.MarkRefundPending(ctx, req.ID, amount); err != nil {
			c.logger.Error("Failed to mark refund pending",
				zap.Error(err),
				zap.String("requestID", req.ID.String()),
				zap.Int64("amount", amount))
		}

		c.record(ctx, req, enum.ActivityTypeRefundPending, amount)
		c.notify(ctx, req.OwnerID, notify.TypeRefundPending, "Your refund is being processed", req.ID, amount)
		return result
	}

	c.record(ctx, req, enum.ActivityTypeRefundIssued, amount)
	c.notify(ctx, req.OwnerID, notify.TypeRefundIssued, "Credits refunded for undelivered verdicts", req.ID, amount)
	return result
}

// RetryPending re-attempts refunds flagged refund_pending and returns how many
// were settled.
func (c *RefundCalculator) RetryPending(ctx context.Context, limit int) (int, error) {
	requests, err := c.requests.ListRefundPending(ctx, limit)
	if err != nil {
		return 0, err
	}

	settled := 0
	for _, req := range requests {
		if _, err := c.credits.Refund(ctx, req.OwnerID, req.ID, req.RefundAmount); err != nil {
			c.logger.Warn("Pending refund still failing",
				zap.Error(err),
				zap.String("requestID", req.ID.String()))
			continue
		}

		if err := c.requests.ClearRefundPending(ctx, req.ID); err != nil {
			c.logger.Error("Failed to clear refund pending flag",
				zap.Error(err),
				zap.String("requestID", req.ID.String()))
			continue
		}

		settled++
		c.record(ctx, req, enum.ActivityTypeRefundIssued, req.RefundAmount)
		c.notify(ctx, req.OwnerID, notify.TypeRefundIssued,
			"Credits refunded for undelivered verdicts", req.ID, req.RefundAmount)
	}

	if settled > 0 {
		c.logger.Info("Settled pending refunds", zap.Int("count", settled))
	}

	return settled, nil
}

func (c *RefundCalculator) record(
	ctx context.Context, req *types.Request, activityType enum.ActivityType, amount int64,
) {
	if c.activity == nil {
		return
	}

	err := c.activity.RecordActivity(ctx, &types.ActivityLog{
		EventID:      uuid.New(),
		ActorID:      req.OwnerID,
		RequestID:    req.ID,
		ActivityType: activityType,
		Details:      map[string]any{"amount": amount},
	})
	if err != nil {
		c.logger.Warn("Failed to record refund activity",
			zap.Error(err),
			zap.String("requestID", req.ID.String()))
	}
}

func (c *RefundCalculator) notify(
	ctx context.Context, userID uuid.UUID, kind notify.Type, message string, requestID uuid.UUID, amount int64,
) {
	if c.notifier == nil {
		return
	}

	err := c.notifier.Send(ctx, &notify.Notification{
		UserID:  userID,
		Type:    kind,
		Message: message,
		Data: map[string]any{
			"requestId": requestID.String(),
			"credits":   amount,
		},
	})
	if err != nil {
		c.logger.Warn("Failed to send refund notification",
			zap.Error(err),
			zap.String("userID", userID.String()))
	}
}
