package models

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/robalyx/verdict/internal/database/dbretry"
	"github.com/robalyx/verdict/internal/database/types"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// QualificationModel handles database operations for judge qualifications.
type QualificationModel struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewQualification creates a QualificationModel.
func NewQualification(db *bun.DB, logger *zap.Logger) *QualificationModel {
	return &QualificationModel{
		db:     db,
		logger: logger.Named("db_qualification"),
	}
}

// IsQualified reports whether the judge holds an unrevoked qualification.
func (r *QualificationModel) IsQualified(ctx context.Context, judgeID uuid.UUID) (bool, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) (bool, error) {
		exists, err := r.db.NewSelect().
			Model((*types.JudgeQualification)(nil)).
			Where("judge_id = ?", judgeID).
			Where("revoked_at IS NULL").
			Exists(ctx)
		if err != nil {
			return false, fmt.Errorf("failed to check qualification: %w", err)
		}
		return exists, nil
	})
}

// Qualify grants or restores a judge's qualification.
func (r *QualificationModel) Qualify(ctx context.Context, judgeID uuid.UUID) error {
	return dbretry.NoResult(ctx, func(ctx context.Context) error {
		_, err := r.db.NewInsert().
			Model(&types.JudgeQualification{JudgeID: judgeID}).
			On("CONFLICT (judge_id) DO UPDATE").
			Set("qualified_at = now()").
			Set("revoked_at = NULL").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to qualify judge: %w", err)
		}

		r.logger.Info("Qualified judge", zap.String("judgeID", judgeID.String()))
		return nil
	})
}

// Revoke withdraws a judge's qualification.
func (r *QualificationModel) Revoke(ctx context.Context, judgeID uuid.UUID) error {
	return dbretry.NoResult(ctx, func(ctx context.Context) error {
		_, err := r.db.NewUpdate().
			Model((*types.JudgeQualification)(nil)).
			Set("revoked_at = now()").
			Where("judge_id = ?", judgeID).
			Where("revoked_at IS NULL").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to revoke qualification: %w", err)
		}

		r.logger.Info("Revoked judge qualification", zap.String("judgeID", judgeID.String()))
		return nil
	})
}
