package ledger

import (
	"context"

	"github.com/google/uuid"
	"github.com/robalyx/verdict/internal/database/types"
	"github.com/robalyx/verdict/internal/notify"
)

// RequestStore persists requests and their lifecycle counters.
type RequestStore interface {
	CreateRequest(ctx context.Context, req *types.Request) error
	GetRequest(ctx context.Context, requestID uuid.UUID) (*types.Request, error)
	IncrementVerdicts(ctx context.Context, requestID uuid.UUID) (*types.RequestProgress, error)
	SetWinningOption(ctx context.Context, requestID uuid.UUID, option string) (bool, error)
	SetVerdictCount(ctx context.Context, requestID uuid.UUID, count int) (*types.RequestProgress, error)
	CancelRequest(ctx context.Context, requestID uuid.UUID, reason string) (*types.Request, error)
	MarkRefundPending(ctx context.Context, requestID uuid.UUID, amount int64) error
	ClearRefundPending(ctx context.Context, requestID uuid.UUID) error
	ListRefundPending(ctx context.Context, limit int) ([]*types.Request, error)
}

// VerdictCounter reads judgment aggregates of a request.
type VerdictCounter interface {
	CountActive(ctx context.Context, requestID uuid.UUID) (int, error)
	TallyChoices(ctx context.Context, requestID uuid.UUID) ([]types.ChoiceTally, error)
}

// CreditStore persists the credit ledger.
type CreditStore interface {
	ApplyTransaction(ctx context.Context, entry *types.CreditTransaction) (int64, error)
	GetBalance(ctx context.Context, userID uuid.UUID) (int64, error)
}

// ActivityRecorder writes audit entries.
type ActivityRecorder interface {
	RecordActivity(ctx context.Context, log *types.ActivityLog) error
}

// Notifier delivers user notifications.
type Notifier interface {
	Send(ctx context.Context, n *notify.Notification) error
}
