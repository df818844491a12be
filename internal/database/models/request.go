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

// RequestModel handles database operations for feedback requests.
type RequestModel struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewRequest creates a RequestModel.
func NewRequest(db *bun.DB, logger *zap.Logger) *RequestModel {
	return &RequestModel{
		db:     db,
		logger: logger.Named("db_request"),
	}
}

// CreateRequest inserts a new request.
func (r *RequestModel) CreateRequest(ctx context.Context, req *types.Request) error {
	return dbretry.NoResult(ctx, func(ctx context.Context) error {
		_, err := r.db.NewInsert().Model(req).Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		return nil
	})
}

// GetRequest retrieves a request by its ID.
func (r *RequestModel) GetRequest(ctx context.Context, requestID uuid.UUID) (*types.Request, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) (*types.Request, error) {
		var req types.Request
		err := r.db.NewSelect().
			Model(&req).
			Where("id = ?", requestID).
			Scan(ctx)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, types.ErrRequestNotFound
			}
			return nil, fmt.Errorf("failed to get request: %w", err)
		}
		return &req, nil
	})
}

// IncrementVerdicts atomically bumps the received counter and derives the new
// status in a single conditional statement. It only matches requests that are
// still open or in progress and returns ErrRequestNotWritable otherwise.
// The statement is not retried since a replay would double count.
func (r *RequestModel) IncrementVerdicts(ctx context.Context, requestID uuid.UUID) (*types.RequestProgress, error) {
	var progress types.RequestProgress
	err := r.db.NewRaw(`
		UPDATE requests SET
			received_verdict_count = received_verdict_count + 1,
			status = CASE
				WHEN received_verdict_count + 1 >= target_verdict_count THEN ?
				ELSE ?
			END,
			closed_at = CASE
				WHEN received_verdict_count + 1 >= target_verdict_count THEN now()
				ELSE closed_at
			END,
			updated_at = now()
		WHERE id = ? AND status IN (?)
		RETURNING received_verdict_count, target_verdict_count, status, winning_option`,
		enum.RequestStatusClosed,
		enum.RequestStatusInProgress,
		requestID,
		bun.In([]enum.RequestStatus{enum.RequestStatusOpen, enum.RequestStatusInProgress}),
	).Scan(ctx, &progress)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, types.ErrRequestNotWritable
		}
		return nil, fmt.Errorf("failed to increment verdict count: %w", err)
	}

	r.logger.Debug("Incremented verdict count",
		zap.String("requestID", requestID.String()),
		zap.Int("received", progress.Received),
		zap.Int("target", progress.Target),
		zap.String("status", progress.Status.String()))

	return &progress, nil
}

// SetWinningOption records the winning option of a closed request.
// It never overwrites an option that is already set.
func (r *RequestModel) SetWinningOption(ctx context.Context, requestID uuid.UUID, option string) (bool, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) (bool, error) {
		result, err := r.db.NewUpdate().
			Model((*types.Request)(nil)).
			Set("winning_option = ?", option).
			Set("updated_at = now()").
			Where("id = ?", requestID).
			Where("winning_option IS NULL").
			Where("status = ?", enum.RequestStatusClosed).
			Exec(ctx)
		if err != nil {
			return false, fmt.Errorf("failed to set winning option: %w", err)
		}

		affected, err := result.RowsAffected()
		if err != nil {
			return false, fmt.Errorf("failed to get affected rows: %w", err)
		}
		return affected > 0, nil
	})
}

// SetVerdictCount overwrites the received counter with a recounted value.
// Status is re-derived only for open or in-progress requests so terminal
// states are never left.
func (r *RequestModel) SetVerdictCount(
	ctx context.Context, requestID uuid.UUID, count int,
) (*types.RequestProgress, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) (*types.RequestProgress, error) {
		var progress types.RequestProgress
		err := r.db.NewRaw(`
			UPDATE requests SET
				received_verdict_count = ?0,
				status = CASE
					WHEN status NOT IN (?1, ?2) THEN status
					WHEN ?0 >= target_verdict_count THEN ?3
					WHEN ?0 > 0 THEN ?2
					ELSE ?1
				END,
				closed_at = CASE
					WHEN status IN (?1, ?2) AND ?0 >= target_verdict_count THEN now()
					ELSE closed_at
				END,
				updated_at = now()
			WHERE id = ?4
			RETURNING received_verdict_count, target_verdict_count, status, winning_option`,
			count,
			enum.RequestStatusOpen,
			enum.RequestStatusInProgress,
			enum.RequestStatusClosed,
			requestID,
		).Scan(ctx, &progress)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, types.ErrRequestNotFound
			}
			return nil, fmt.Errorf("failed to set verdict count: %w", err)
		}
		return &progress, nil
	})
}

// CancelRequest moves a cancellable request to cancelled and returns the
// updated row. Returns ErrRequestNotWritable when the status no longer allows it.
func (r *RequestModel) CancelRequest(
	ctx context.Context, requestID uuid.UUID, reason string,
) (*types.Request, error) {
	var req types.Request
	err := r.db.NewUpdate().
		Model(&req).
		Set("status = ?", enum.RequestStatusCancelled).
		Set("cancel_reason = ?", reason).
		Set("cancelled_at = now()").
		Set("updated_at = now()").
		Where("id = ?", requestID).
		Where("status IN (?)", bun.In([]enum.RequestStatus{
			enum.RequestStatusOpen,
			enum.RequestStatusInProgress,
			enum.RequestStatusPending,
		})).
		Returning("*").
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, types.ErrRequestNotWritable
		}
		return nil, fmt.Errorf("failed to cancel request: %w", err)
	}

	r.logger.Debug("Cancelled request",
		zap.String("requestID", requestID.String()),
		zap.String("reason", reason))

	return &req, nil
}

// MarkRefundPending flags a request whose refund could not be credited.
func (r *RequestModel) MarkRefundPending(ctx context.Context, requestID uuid.UUID, amount int64) error {
	return dbretry.NoResult(ctx, func(ctx context.Context) error {
		_, err := r.db.NewUpdate().
			Model((*types.Request)(nil)).
			Set("refund_pending = true").
			Set("refund_amount = ?", amount).
			Set("updated_at = now()").
			Where("id = ?", requestID).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to mark refund pending: %w", err)
		}
		return nil
	})
}

// ClearRefundPending resets the refund flag once a pending refund was credited.
func (r *RequestModel) ClearRefundPending(ctx context.Context, requestID uuid.UUID) error {
	return dbretry.NoResult(ctx, func(ctx context.Context) error {
		_, err := r.db.NewUpdate().
			Model((*types.Request)(nil)).
			Set("refund_pending = false").
			Set("updated_at = now()").
			Where("id = ?", requestID).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to clear refund pending: %w", err)
		}
		return nil
	})
}

// ListRefundPending returns cancelled requests still waiting for their refund.
func (r *RequestModel) ListRefundPending(ctx context.Context, limit int) ([]*types.Request, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) ([]*types.Request, error) {
		var requests []*types.Request
		err := r.db.NewSelect().
			Model(&requests).
			Where("refund_pending = true").
			Where("status = ?", enum.RequestStatusCancelled).
			Order("cancelled_at ASC").
			Limit(limit).
			Scan(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list pending refunds: %w", err)
		}
		return requests, nil
	})
}
