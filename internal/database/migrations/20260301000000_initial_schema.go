package migrations

import (
	"context"
	"fmt"

	"github.com/robalyx/verdict/internal/database/types"
	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		models := []any{
			(*types.Request)(nil),
			(*types.Judgment)(nil),
			(*types.Earning)(nil),
			(*types.CreditTransaction)(nil),
			(*types.CreditBalance)(nil),
			(*types.ReviewerReputation)(nil),
			(*types.ReputationHistory)(nil),
			(*types.JudgmentRating)(nil),
			(*types.JudgeQualification)(nil),
			(*types.ActivityLog)(nil),
		}

		for _, model := range models {
			_, err := db.NewCreateTable().
				Model(model).
				IfNotExists().
				Exec(ctx)
			if err != nil {
				return fmt.Errorf("failed to create table for %T: %w", model, err)
			}
		}

		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		models := []any{
			(*types.ActivityLog)(nil),
			(*types.JudgeQualification)(nil),
			(*types.JudgmentRating)(nil),
			(*types.ReputationHistory)(nil),
			(*types.ReviewerReputation)(nil),
			(*types.CreditBalance)(nil),
			(*types.CreditTransaction)(nil),
			(*types.Earning)(nil),
			(*types.Judgment)(nil),
			(*types.Request)(nil),
		}

		for _, model := range models {
			_, err := db.NewDropTable().
				Model(model).
				IfExists().
				Cascade().
				Exec(ctx)
			if err != nil {
				return fmt.Errorf("failed to drop table for %T: %w", model, err)
			}
		}

		return nil
	})
}
