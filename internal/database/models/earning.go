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

// EarningModel handles database operations for judge earnings.
type EarningModel struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewEarning creates an EarningModel.
func NewEarning(db *bun.DB, logger *zap.Logger) *EarningModel {
	return &EarningModel{
		db:     db,
		logger: logger.Named("db_earning"),
	}
}

// CreateEarning inserts a new earning.
func (r *EarningModel) CreateEarning(ctx context.Context, earning *types.Earning) error {
	_, err := r.db.NewInsert().Model(earning).Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create earning: %w", err)
	}
	return nil
}

// ReclaimEarning moves a needs_review earning left by an earlier failed
// submission of the same judge on the same request back to pending under a
// new placeholder. Returns ErrEarningNotFound when there is nothing to reclaim.
func (r *EarningModel) ReclaimEarning(
	ctx context.Context, judgeID, requestID, placeholder uuid.UUID, amount int64,
) (*types.Earning, error) {
	var earning types.Earning
	subq := r.db.NewSelect().
		Model((*types.Earning)(nil)).
		Column("id").
		Where("judge_id = ?", judgeID).
		Where("request_id = ?", requestID).
		Where("payout_status = ?", enum.PayoutStatusNeedsReview).
		Order("created_at ASC").
		Limit(1)

	err := r.db.NewUpdate().
		Model(&earning).
		Set("payout_status = ?", enum.PayoutStatusPending).
		Set("judgment_id = ?", placeholder).
		Set("amount = ?", amount).
		Set("notes = ''").
		Set("updated_at = now()").
		Where("id = (?)", subq).
		Where("payout_status = ?", enum.PayoutStatusNeedsReview).
		Returning("*").
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, types.ErrEarningNotFound
		}
		return nil, fmt.Errorf("failed to reclaim earning: %w", err)
	}

	r.logger.Info("Reclaimed earning from previous failed submission",
		zap.String("earningID", earning.ID.String()),
		zap.String("judgeID", judgeID.String()),
		zap.String("requestID", requestID.String()))

	return &earning, nil
}

// MarkNeedsReview flags an earning whose judgment could not be persisted.
func (r *EarningModel) MarkNeedsReview(ctx context.Context, earningID uuid.UUID, note string) error {
	return dbretry.NoResult(ctx, func(ctx context.Context) error {
		_, err := r.db.NewUpdate().
			Model((*types.Earning)(nil)).
			Set("payout_status = ?", enum.PayoutStatusNeedsReview).
			Set("notes = ?", note).
			Set("updated_at = now()").
			Where("id = ?", earningID).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to mark earning for review: %w", err)
		}
		return nil
	})
}

// RekeyEarning replaces the placeholder judgment id with the real one.
func (r *EarningModel) RekeyEarning(ctx context.Context, earningID, judgmentID uuid.UUID) error {
	return dbretry.NoResult(ctx, func(ctx context.Context) error {
		_, err := r.db.NewUpdate().
			Model((*types.Earning)(nil)).
			Set("judgment_id = ?", judgmentID).
			Set("updated_at = now()").
			Where("id = ?", earningID).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to rekey earning: %w", err)
		}
		return nil
	})
}

// GetEarningByJudgment retrieves the earning attached to a judgment.
func (r *EarningModel) GetEarningByJudgment(ctx context.Context, judgmentID uuid.UUID) (*types.Earning, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) (*types.Earning, error) {
		var earning types.Earning
		err := r.db.NewSelect().
			Model(&earning).
			Where("judgment_id = ?", judgmentID).
			Limit(1).
			Scan(ctx)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, types.ErrEarningNotFound
			}
			return nil, fmt.Errorf("failed to get earning: %w", err)
		}
		return &earning, nil
	})
}

// ListNeedsReview returns earnings waiting for operator reconciliation.
func (r *EarningModel) ListNeedsReview(ctx context.Context, limit int) ([]*types.Earning, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) ([]*types.Earning, error) {
		var earnings []*types.Earning
		err := r.db.NewSelect().
			Model(&earnings).
			Where("payout_status = ?", enum.PayoutStatusNeedsReview).
			Order("created_at ASC").
			Limit(limit).
			Scan(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list earnings for review: %w", err)
		}
		return earnings, nil
	})
}
