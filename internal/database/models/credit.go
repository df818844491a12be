package models

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/robalyx/verdict/internal/database/dbretry"
	"github.com/robalyx/verdict/internal/database/types"
	"github.com/robalyx/verdict/internal/database/types/enum"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// CreditModel handles database operations for the credit ledger.
type CreditModel struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewCredit creates a CreditModel.
func NewCredit(db *bun.DB, logger *zap.Logger) *CreditModel {
	return &CreditModel{
		db:     db,
		logger: logger.Named("db_credit"),
	}
}

// ApplyTransaction appends a ledger entry and moves the balance by its amount
// in one transaction. Entries with a negative amount fail with
// ErrInsufficientCredits when the balance would go below zero. A replay of an
// already applied entry returns ErrDuplicateTransaction and leaves the balance
// untouched.
func (r *CreditModel) ApplyTransaction(ctx context.Context, entry *types.CreditTransaction) (int64, error) {
	var balance int64

	err := dbretry.Transaction(ctx, r.db, func(ctx context.Context, tx bun.Tx) error {
		result, err := tx.NewInsert().
			Model(entry).
			On("CONFLICT (type, source, source_id) DO NOTHING").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to insert credit transaction: %w", err)
		}

		inserted, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get affected rows: %w", err)
		}
		if inserted == 0 {
			return types.ErrDuplicateTransaction
		}

		if entry.Amount < 0 {
			err = tx.NewUpdate().
				Model((*types.CreditBalance)(nil)).
				Set("balance = balance + ?", entry.Amount).
				Set("updated_at = now()").
				Where("user_id = ?", entry.UserID).
				Where("balance + ? >= 0", entry.Amount).
				Returning("balance").
				Scan(ctx, &balance)
			if errors.Is(err, sql.ErrNoRows) {
				return types.ErrInsufficientCredits
			}
		} else {
			err = tx.NewInsert().
				Model(&types.CreditBalance{UserID: entry.UserID, Balance: entry.Amount}).
				On("CONFLICT (user_id) DO UPDATE").
				Set("balance = credit_balance.balance + EXCLUDED.balance").
				Set("updated_at = now()").
				Returning("balance").
				Scan(ctx, &balance)
		}
		if err != nil {
			return fmt.Errorf("failed to update credit balance: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	r.logger.Debug("Applied credit transaction",
		zap.String("userID", entry.UserID.String()),
		zap.String("type", entry.Type.String()),
		zap.String("source", entry.Source),
		zap.String("sourceID", entry.SourceID),
		zap.Int64("amount", entry.Amount),
		zap.Int64("balance", balance))

	return balance, nil
}

// GetBalance returns the spendable balance of a user, 0 when none is recorded.
func (r *CreditModel) GetBalance(ctx context.Context, userID uuid.UUID) (int64, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) (int64, error) {
		var balance types.CreditBalance
		err := r.db.NewSelect().
			Model(&balance).
			Where("user_id = ?", userID).
			Scan(ctx)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return 0, nil
			}
			return 0, fmt.Errorf("failed to get credit balance: %w", err)
		}
		return balance.Balance, nil
	})
}

// GetTransaction looks up a ledger entry by its idempotency key.
func (r *CreditModel) GetTransaction(
	ctx context.Context, txType enum.CreditTransactionType, source, sourceID string,
) (*types.CreditTransaction, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) (*types.CreditTransaction, error) {
		var entry types.CreditTransaction
		err := r.db.NewSelect().
			Model(&entry).
			Where("type = ?", txType).
			Where("source = ?", source).
			Where("source_id = ?", sourceID).
			Scan(ctx)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, nil //nolint:nilnil // absent entry is not an error
			}
			return nil, fmt.Errorf("failed to get credit transaction: %w", err)
		}
		return &entry, nil
	})
}
