package settlement

import (
	"context"

	"github.com/google/uuid"
	"github.com/robalyx/verdict/internal/database/types"
	"github.com/robalyx/verdict/internal/events"
	"github.com/robalyx/verdict/internal/reputation"
)

// Requests is the request lifecycle the pipeline advances.
type Requests interface {
	Get(ctx context.Context, requestID uuid.UUID) (*types.Request, error)
	IncrementAndMaybeClose(ctx context.Context, requestID uuid.UUID) (*types.RequestProgress, error)
	Reconcile(ctx context.Context, requestID uuid.UUID) (*types.RequestProgress, bool, error)
}

// JudgmentStore persists judgments.
type JudgmentStore interface {
	CreateJudgment(ctx context.Context, judgment *types.Judgment) error
	HasJudged(ctx context.Context, requestID, judgeID uuid.UUID) (bool, error)
}

// EarningStore persists judge earnings.
type EarningStore interface {
	CreateEarning(ctx context.Context, earning *types.Earning) error
	ReclaimEarning(ctx context.Context, judgeID, requestID, placeholder uuid.UUID, amount int64) (*types.Earning, error)
	MarkNeedsReview(ctx context.Context, earningID uuid.UUID, note string) error
	RekeyEarning(ctx context.Context, earningID, judgmentID uuid.UUID) error
}

// QualificationReader reports whether a judge completed qualification.
type QualificationReader interface {
	IsQualified(ctx context.Context, judgeID uuid.UUID) (bool, error)
}

// Dispatcher hands off side effects.
type Dispatcher interface {
	Dispatch(ctx context.Context, e *events.Event) (bool, error)
}

// Reputation is the part of the reputation engine side effects use.
type Reputation interface {
	CanEarnCredits(ctx context.Context, judgeID uuid.UUID) (bool, error)
	RecordQualityRating(ctx context.Context, judgmentID, judgeID uuid.UUID, feedback string) (reputation.QualityAnalysis, error)
	UpdateReviewerReputation(ctx context.Context, judgeID uuid.UUID, trigger string) (*types.ReviewerReputation, error)
}

// CreditAwarder credits judges for their judgments.
type CreditAwarder interface {
	AwardJudgment(ctx context.Context, judgeID, judgmentID uuid.UUID, amount int64) (bool, error)
}
