package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/robalyx/verdict/internal/apperr"
	"github.com/robalyx/verdict/internal/database/types"
	"github.com/robalyx/verdict/internal/database/types/enum"
	"go.uber.org/zap"
)

// ErrInvalidAmount is returned for non-positive ledger amounts.
var ErrInvalidAmount = errors.New("credit amount must be positive")

// CreditLedger owns users' prepaid credit balances.
// Every entry carries an idempotency key so replays never move a balance twice.
type CreditLedger struct {
	store  CreditStore
	logger *zap.Logger
}

// NewCreditLedger creates a CreditLedger.
func NewCreditLedger(store CreditStore, logger *zap.Logger) *CreditLedger {
	return &CreditLedger{
		store:  store,
		logger: logger.Named("credit_ledger"),
	}
}

// Balance returns the spendable balance of a user.
func (l *CreditLedger) Balance(ctx context.Context, userID uuid.UUID) (int64, error) {
	return l.store.GetBalance(ctx, userID)
}

// Charge debits a user for a request. Fails with a validation error when the
// balance does not cover the amount.
func (l *CreditLedger) Charge(ctx context.Context, userID, requestID uuid.UUID, amount int64) (int64, error) {
	const op = "credit.charge"

	if amount <= 0 {
		return 0, apperr.Wrap(apperr.KindValidation, op, "charge amount must be positive", ErrInvalidAmount)
	}

	balance, err := l.store.ApplyTransaction(ctx, &types.CreditTransaction{
		ID:          uuid.New(),
		UserID:      userID,
		Amount:      -amount,
		Type:        enum.CreditTransactionCharge,
		Source:      types.CreditSourceRequest,
		SourceID:    requestID.String(),
		Description: "request charge",
	})
	switch {
	case errors.Is(err, types.ErrInsufficientCredits):
		return 0, apperr.Wrap(apperr.KindValidation, op, "insufficient credits", err)
	case errors.Is(err, types.ErrDuplicateTransaction):
		return 0, apperr.Wrap(apperr.KindConflict, op, "request already charged", err)
	case err != nil:
		return 0, fmt.Errorf("failed to charge credits: %w", err)
	}

	l.logger.Info("Charged credits",
		zap.String("userID", userID.String()),
		zap.String("requestID", requestID.String()),
		zap.Int64("amount", amount),
		zap.Int64("balance", balance))

	return balance, nil
}

// Refund credits a requester for undelivered verdicts. It reports false when
// the refund for this request was already applied.
func (l *CreditLedger) Refund(ctx context.Context, userID, requestID uuid.UUID, amount int64) (bool, error) {
	return l.credit(ctx, &types.CreditTransaction{
		ID:          uuid.New(),
		UserID:      userID,
		Amount:      amount,
		Type:        enum.CreditTransactionRefund,
		Source:      types.CreditSourceRequest,
		SourceID:    requestID.String(),
		Description: "refund for undelivered verdicts",
	})
}

// AwardJudgment credits a judge for a completed judgment. It reports false
// when the award for this judgment was already applied.
func (l *CreditLedger) AwardJudgment(ctx context.Context, judgeID, judgmentID uuid.UUID, amount int64) (bool, error) {
	return l.credit(ctx, &types.CreditTransaction{
		ID:          uuid.New(),
		UserID:      judgeID,
		Amount:      amount,
		Type:        enum.CreditTransactionJudgmentAward,
		Source:      types.CreditSourceJudgment,
		SourceID:    judgmentID.String(),
		Description: "judgment award",
	})
}

// Grant adds credits to a user outside the request flow. reference keys the
// grant, so repeating it with the same reference is a no-op.
func (l *CreditLedger) Grant(ctx context.Context, userID uuid.UUID, amount int64, reference string) (bool, error) {
	const op = "credit.grant"

	if amount <= 0 {
		return false, apperr.Wrap(apperr.KindValidation, op, "grant amount must be positive", ErrInvalidAmount)
	}
	if reference == "" {
		reference = uuid.NewString()
	}

	return l.credit(ctx, &types.CreditTransaction{
		ID:          uuid.New(),
		UserID:      userID,
		Amount:      amount,
		Type:        enum.CreditTransactionAdjustment,
		Source:      types.CreditSourceManual,
		SourceID:    reference,
		Description: "manual grant",
	})
}

func (l *CreditLedger) credit(ctx context.Context, entry *types.CreditTransaction) (bool, error) {
	if entry.Amount <= 0 {
		return false, ErrInvalidAmount
	}

	balance, err := l.store.ApplyTransaction(ctx, entry)
	if errors.Is(err, types.ErrDuplicateTransaction) {
		l.logger.Debug("Credit already applied",
			zap.String("type", entry.Type.String()),
			zap.String("sourceID", entry.SourceID))
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to credit %s: %w", entry.Type, err)
	}

	l.logger.Info("Credited user",
		zap.String("userID", entry.UserID.String()),
		zap.String("type", entry.Type.String()),
		zap.String("sourceID", entry.SourceID),
		zap.Int64("amount", entry.Amount),
		zap.Int64("balance", balance))

	return true, nil
}
