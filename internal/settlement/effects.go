package settlement

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/robalyx/verdict/internal/database/types"
	"github.com/robalyx/verdict/internal/database/types/enum"
	"github.com/robalyx/verdict/internal/events"
	"github.com/robalyx/verdict/internal/ledger"
	"github.com/robalyx/verdict/internal/notify"
	"github.com/robalyx/verdict/internal/reputation"
	"go.uber.org/zap"
)

// Effects applies settlement side effects. Every event can be applied more
// than once without changing the outcome.
type Effects struct {
	credits    CreditAwarder
	reputation Reputation
	activity   ledger.ActivityRecorder
	notifier   ledger.Notifier
	gate       CreditGate
	award      int64
	logger     *zap.Logger
}

// NewEffects creates an Effects handler. notifier may be nil.
func NewEffects(
	credits CreditAwarder,
	engine Reputation,
	activity ledger.ActivityRecorder,
	notifier ledger.Notifier,
	gate CreditGate,
	award int64,
	logger *zap.Logger,
) *Effects {
	return &Effects{
		credits:    credits,
		reputation: engine,
		activity:   activity,
		notifier:   notifier,
		gate:       gate,
		award:      award,
		logger:     logger.Named("settlement_effects"),
	}
}

// Handle implements events.Handler.
func (h *Effects) Handle(ctx context.Context, e *events.Event) error {
	switch e.Type {
	case events.TypeCreditAward:
		return h.awardCredits(ctx, e)
	case events.TypeReputationUpdate:
		return h.updateReputation(ctx, e)
	case events.TypeAudit:
		return h.audit(ctx, e)
	default:
		return fmt.Errorf("%w: %s", events.ErrUnknownEventType, e.Type)
	}
}

// awardCredits credits the judge, subject to the credit gate.
func (h *Effects) awardCredits(ctx context.Context, e *events.Event) error {
	canEarn := true
	if h.gate.Checks() {
		var err error
		canEarn, err = h.reputation.CanEarnCredits(ctx, e.JudgeID)
		if err != nil {
			return fmt.Errorf("failed to check credit eligibility: %w", err)
		}
	}

	amount := h.gate.Award(h.award, canEarn)
	if amount <= 0 {
		h.logger.Info("Credit award withheld for judge not in good standing",
			zap.String("judgeID", e.JudgeID.String()),
			zap.String("judgmentID", e.JudgmentID.String()),
			zap.String("policy", h.gate.Policy))
		return nil
	}

	applied, err := h.credits.AwardJudgment(ctx, e.JudgeID, e.JudgmentID, amount)
	if err != nil {
		return err
	}
	if !applied {
		return nil
	}

	h.record(ctx, &types.ActivityLog{
		EventID:      uuid.NewSHA1(e.ID, []byte(enum.ActivityTypeCreditsAwarded.String())),
		ActorID:      e.JudgeID,
		RequestID:    e.RequestID,
		JudgmentID:   e.JudgmentID,
		ActivityType: enum.ActivityTypeCreditsAwarded,
		Details:      map[string]any{"amount": amount, "reduced": amount < h.award},
	})

	if h.notifier != nil {
		err := h.notifier.Send(ctx, &notify.Notification{
			UserID:  e.JudgeID,
			Type:    notify.TypeCreditsAwarded,
			Message: fmt.Sprintf("You earned %d credits for your judgment", amount),
			Data:    map[string]any{"judgmentId": e.JudgmentID.String(), "amount": amount},
		})
		if err != nil {
			h.logger.Warn("Failed to notify judge of credits",
				zap.Error(err),
				zap.String("judgeID", e.JudgeID.String()))
		}
	}

	return nil
}

// updateReputation rates the judgment's feedback and recomputes the judge's
// reputation.
func (h *Effects) updateReputation(ctx context.Context, e *events.Event) error {
	analysis, err := h.reputation.RecordQualityRating(ctx, e.JudgmentID, e.JudgeID, e.Feedback)
	if err != nil {
		return err
	}

	rep, err := h.reputation.UpdateReviewerReputation(ctx, e.JudgeID, reputation.TriggerJudgmentSubmitted)
	if err != nil {
		return fmt.Errorf("failed to update reputation: %w", err)
	}

	h.logger.Debug("Updated reputation from judgment",
		zap.String("judgeID", e.JudgeID.String()),
		zap.Float64("quality", analysis.Combined),
		zap.Float64("score", rep.ReputationScore),
		zap.String("status", rep.ReviewerStatus.String()))

	return nil
}

// audit writes the activity entry carried by the event. The event id makes
// the write idempotent.
func (h *Effects) audit(ctx context.Context, e *events.Event) error {
	activityType, err := enum.ActivityTypeString(e.Activity)
	if err != nil {
		return fmt.Errorf("%w: audit event activity %q", events.ErrUnknownEventType, e.Activity)
	}

	err = h.activity.RecordActivity(ctx, &types.ActivityLog{
		EventID:      e.ID,
		ActorID:      e.JudgeID,
		RequestID:    e.RequestID,
		JudgmentID:   e.JudgmentID,
		ActivityType: activityType,
		Details:      e.Details,
	})
	if err != nil {
		return fmt.Errorf("failed to record activity: %w", err)
	}
	return nil
}

func (h *Effects) record(ctx context.Context, log *types.ActivityLog) {
	if err := h.activity.RecordActivity(ctx, log); err != nil {
		h.logger.Warn("Failed to record activity",
			zap.Error(err),
			zap.String("type", log.ActivityType.String()))
	}
}
