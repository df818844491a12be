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

// ActivityModel handles database operations for the audit log.
type ActivityModel struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewActivity creates an ActivityModel.
func NewActivity(db *bun.DB, logger *zap.Logger) *ActivityModel {
	return &ActivityModel{
		db:     db,
		logger: logger.Named("db_activity"),
	}
}

// RecordActivity stores an audit entry. Entries are keyed by event id, so a
// replayed entry is silently ignored.
func (r *ActivityModel) RecordActivity(ctx context.Context, log *types.ActivityLog) error {
	err := dbretry.NoResult(ctx, func(ctx context.Context) error {
		_, err := r.db.NewInsert().
			Model(log).
			On("CONFLICT (event_id) DO NOTHING").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to log activity: %w", err)
		}
		return nil
	})
	if err != nil {
		r.logger.Error("Failed to log activity",
			zap.Error(err),
			zap.String("eventID", log.EventID.String()),
			zap.String("actorID", log.ActorID.String()),
			zap.String("requestID", log.RequestID.String()),
			zap.String("activityType", log.ActivityType.String()))
		return err
	}

	r.logger.Debug("Logged activity",
		zap.String("eventID", log.EventID.String()),
		zap.String("actorID", log.ActorID.String()),
		zap.String("requestID", log.RequestID.String()),
		zap.String("activityType", log.ActivityType.String()))

	return nil
}

// GetRequestActivity returns the audit trail of a request, newest first.
func (r *ActivityModel) GetRequestActivity(
	ctx context.Context, requestID uuid.UUID, limit int,
) ([]*types.ActivityLog, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) ([]*types.ActivityLog, error) {
		var logs []*types.ActivityLog
		err := r.db.NewSelect().
			Model(&logs).
			Where("request_id = ?", requestID).
			Order("created_at DESC", "id DESC").
			Limit(limit).
			Scan(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get activity: %w", err)
		}
		return logs, nil
	})
}
