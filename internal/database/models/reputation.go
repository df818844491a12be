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

// ReputationModel handles database operations for reviewer reputation,
// its change history and the ratings it is computed from.
type ReputationModel struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewReputation creates a ReputationModel.
func NewReputation(db *bun.DB, logger *zap.Logger) *ReputationModel {
	return &ReputationModel{
		db:     db,
		logger: logger.Named("db_reputation"),
	}
}

// GetReputation retrieves the persisted reputation of a judge.
func (r *ReputationModel) GetReputation(ctx context.Context, judgeID uuid.UUID) (*types.ReviewerReputation, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) (*types.ReviewerReputation, error) {
		var rep types.ReviewerReputation
		err := r.db.NewSelect().
			Model(&rep).
			Where("judge_id = ?", judgeID).
			Scan(ctx)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, types.ErrReputationNotFound
			}
			return nil, fmt.Errorf("failed to get reputation: %w", err)
		}
		return &rep, nil
	})
}

// SaveReputation creates or replaces the reputation record of a judge.
func (r *ReputationModel) SaveReputation(ctx context.Context, rep *types.ReviewerReputation) error {
	return dbretry.NoResult(ctx, func(ctx context.Context) error {
		_, err := r.db.NewInsert().
			Model(rep).
			On("CONFLICT (judge_id) DO UPDATE").
			Set("reputation_score = EXCLUDED.reputation_score").
			Set("reviewer_status = EXCLUDED.reviewer_status").
			Set("total_reviews = EXCLUDED.total_reviews").
			Set("consensus_rate = EXCLUDED.consensus_rate").
			Set("helpfulness_average = EXCLUDED.helpfulness_average").
			Set("quality_average = EXCLUDED.quality_average").
			Set("last_calibration = EXCLUDED.last_calibration").
			Set("updated_at = EXCLUDED.updated_at").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to save reputation: %w", err)
		}
		return nil
	})
}

// AppendHistory records a material reputation change.
func (r *ReputationModel) AppendHistory(ctx context.Context, entry *types.ReputationHistory) error {
	return dbretry.NoResult(ctx, func(ctx context.Context) error {
		_, err := r.db.NewInsert().Model(entry).Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to append reputation history: %w", err)
		}
		return nil
	})
}

// GetHistory returns the most recent reputation changes of a judge.
func (r *ReputationModel) GetHistory(
	ctx context.Context, judgeID uuid.UUID, limit int,
) ([]*types.ReputationHistory, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) ([]*types.ReputationHistory, error) {
		var history []*types.ReputationHistory
		err := r.db.NewSelect().
			Model(&history).
			Where("judge_id = ?", judgeID).
			Order("created_at DESC").
			Limit(limit).
			Scan(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get reputation history: %w", err)
		}
		return history, nil
	})
}

// AddRating stores a rating. Returns ErrRatingExists when the rater already
// rated the judgment with the same kind.
func (r *ReputationModel) AddRating(ctx context.Context, rating *types.JudgmentRating) error {
	return dbretry.NoResult(ctx, func(ctx context.Context) error {
		result, err := r.db.NewInsert().
			Model(rating).
			On("CONFLICT (judgment_id, rater_id, kind) DO NOTHING").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to add rating: %w", err)
		}

		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get affected rows: %w", err)
		}
		if affected == 0 {
			return types.ErrRatingExists
		}
		return nil
	})
}

// ListRatingScores returns a judge's rating scores of one kind, oldest first.
func (r *ReputationModel) ListRatingScores(
	ctx context.Context, judgeID uuid.UUID, kind enum.RatingKind,
) ([]float64, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) ([]float64, error) {
		var scores []float64
		err := r.db.NewSelect().
			Model((*types.JudgmentRating)(nil)).
			Column("score").
			Where("judge_id = ?", judgeID).
			Where("kind = ?", kind).
			Order("created_at ASC", "id ASC").
			Scan(ctx, &scores)
		if err != nil {
			return nil, fmt.Errorf("failed to list ratings: %w", err)
		}
		return scores, nil
	})
}
