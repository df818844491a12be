package models

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/robalyx/verdict/internal/database/dbretry"
	"github.com/robalyx/verdict/internal/database/types"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// JudgmentModel handles database operations for judgments.
type JudgmentModel struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewJudgment creates a JudgmentModel.
func NewJudgment(db *bun.DB, logger *zap.Logger) *JudgmentModel {
	return &JudgmentModel{
		db:     db,
		logger: logger.Named("db_judgment"),
	}
}

// CreateJudgment inserts a judgment. A unique violation on (request_id, judge_id)
// is reported as ErrJudgmentExists.
func (r *JudgmentModel) CreateJudgment(ctx context.Context, judgment *types.Judgment) error {
	_, err := r.db.NewInsert().Model(judgment).Exec(ctx)
	if err != nil {
		if isUniqueViolation(err) {
			return types.ErrJudgmentExists
		}
		return fmt.Errorf("failed to create judgment: %w", err)
	}
	return nil
}

// GetJudgment retrieves a judgment by its ID.
func (r *JudgmentModel) GetJudgment(ctx context.Context, judgmentID uuid.UUID) (*types.Judgment, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) (*types.Judgment, error) {
		var judgment types.Judgment
		err := r.db.NewSelect().
			Model(&judgment).
			Where("id = ?", judgmentID).
			Scan(ctx)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, types.ErrJudgmentNotFound
			}
			return nil, fmt.Errorf("failed to get judgment: %w", err)
		}
		return &judgment, nil
	})
}

// HasJudged reports whether the judge already has a judgment on the request.
func (r *JudgmentModel) HasJudged(ctx context.Context, requestID, judgeID uuid.UUID) (bool, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) (bool, error) {
		exists, err := r.db.NewSelect().
			Model((*types.Judgment)(nil)).
			Where("request_id = ?", requestID).
			Where("judge_id = ?", judgeID).
			Exists(ctx)
		if err != nil {
			return false, fmt.Errorf("failed to check existing judgment: %w", err)
		}
		return exists, nil
	})
}

// CountActive counts the non-removed judgments of a request.
func (r *JudgmentModel) CountActive(ctx context.Context, requestID uuid.UUID) (int, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) (int, error) {
		count, err := r.db.NewSelect().
			Model((*types.Judgment)(nil)).
			Where("request_id = ?", requestID).
			Where("is_removed = false").
			Count(ctx)
		if err != nil {
			return 0, fmt.Errorf("failed to count judgments: %w", err)
		}
		return count, nil
	})
}

// CountByJudge counts the non-removed judgments written by a judge.
func (r *JudgmentModel) CountByJudge(ctx context.Context, judgeID uuid.UUID) (int, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) (int, error) {
		count, err := r.db.NewSelect().
			Model((*types.Judgment)(nil)).
			Where("judge_id = ?", judgeID).
			Where("is_removed = false").
			Count(ctx)
		if err != nil {
			return 0, fmt.Errorf("failed to count judge judgments: %w", err)
		}
		return count, nil
	})
}

// TallyChoices counts votes per option on a request.
func (r *JudgmentModel) TallyChoices(ctx context.Context, requestID uuid.UUID) ([]types.ChoiceTally, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) ([]types.ChoiceTally, error) {
		var tallies []types.ChoiceTally
		err := r.db.NewSelect().
			Model((*types.Judgment)(nil)).
			Column("choice").
			ColumnExpr("COUNT(*) AS votes").
			ColumnExpr("MIN(created_at) AS first_chosen_at").
			Where("request_id = ?", requestID).
			Where("is_removed = false").
			Where("choice IS NOT NULL").
			Group("choice").
			Scan(ctx, &tallies)
		if err != nil {
			return nil, fmt.Errorf("failed to tally choices: %w", err)
		}
		return tallies, nil
	})
}

// ListPeerVerdicts returns every non-removed rated judgment on requests the
// judge has rated, including the judge's own.
func (r *JudgmentModel) ListPeerVerdicts(ctx context.Context, judgeID uuid.UUID) ([]*types.Judgment, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) ([]*types.Judgment, error) {
		var judgments []*types.Judgment
		subq := r.db.NewSelect().
			Model((*types.Judgment)(nil)).
			Column("request_id").
			Where("judge_id = ?", judgeID).
			Where("is_removed = false").
			Where("rating IS NOT NULL")

		err := r.db.NewSelect().
			Model(&judgments).
			Where("request_id IN (?)", subq).
			Where("is_removed = false").
			Where("rating IS NOT NULL").
			Order("request_id", "created_at").
			Scan(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list peer verdicts: %w", err)
		}
		return judgments, nil
	})
}

// RemoveJudgment soft-deletes a judgment.
func (r *JudgmentModel) RemoveJudgment(ctx context.Context, judgmentID uuid.UUID) error {
	return dbretry.NoResult(ctx, func(ctx context.Context) error {
		_, err := r.db.NewUpdate().
			Model((*types.Judgment)(nil)).
			Set("is_removed = true").
			Where("id = ?", judgmentID).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to remove judgment: %w", err)
		}

		r.logger.Debug("Removed judgment",
			zap.String("judgmentID", judgmentID.String()))
		return nil
	})
}
