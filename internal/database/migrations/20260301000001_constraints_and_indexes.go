package migrations

import (
	"context"
	"fmt"

	"github.com/robalyx/verdict/internal/database/types/enum"
	"github.com/uptrace/bun"
)

func init() { //nolint:funlen
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		_, err := db.NewRaw(`
			-- One judgment per judge per request
			CREATE UNIQUE INDEX IF NOT EXISTS idx_judgments_request_judge
			ON judgments (request_id, judge_id);

			CREATE INDEX IF NOT EXISTS idx_judgments_request_active
			ON judgments (request_id, created_at)
			WHERE is_removed = false;

			CREATE INDEX IF NOT EXISTS idx_judgments_judge_active
			ON judgments (judge_id, request_id)
			WHERE is_removed = false;

			-- Earnings
			CREATE INDEX IF NOT EXISTS idx_earnings_judgment
			ON earnings (judgment_id);

			CREATE INDEX IF NOT EXISTS idx_earnings_needs_review
			ON earnings (judge_id, request_id, created_at)
			WHERE payout_status = ?;

			-- Credit ledger idempotency key
			CREATE UNIQUE INDEX IF NOT EXISTS idx_credit_transactions_key
			ON credit_transactions (type, source, source_id);

			CREATE INDEX IF NOT EXISTS idx_credit_transactions_user_time
			ON credit_transactions (user_id, created_at DESC);

			-- Ratings
			CREATE UNIQUE INDEX IF NOT EXISTS idx_judgment_ratings_key
			ON judgment_ratings (judgment_id, rater_id, kind);

			CREATE INDEX IF NOT EXISTS idx_judgment_ratings_judge_kind
			ON judgment_ratings (judge_id, kind, created_at);

			CREATE INDEX IF NOT EXISTS idx_reputation_history_judge_time
			ON reputation_history (judge_id, created_at DESC);

			-- Requests
			CREATE INDEX IF NOT EXISTS idx_requests_refund_pending
			ON requests (cancelled_at)
			WHERE refund_pending = true;

			CREATE INDEX IF NOT EXISTS idx_requests_owner_time
			ON requests (owner_id, created_at DESC);

			-- Activity logs
			CREATE INDEX IF NOT EXISTS idx_activity_logs_request_time
			ON activity_logs (request_id, created_at DESC, id DESC);

			-- Check constraints
			ALTER TABLE requests DROP CONSTRAINT IF EXISTS chk_requests_counts;
			ALTER TABLE requests ADD CONSTRAINT chk_requests_counts
			CHECK (target_verdict_count > 0 AND received_verdict_count >= 0);

			ALTER TABLE credit_balances DROP CONSTRAINT IF EXISTS chk_credit_balances_non_negative;
			ALTER TABLE credit_balances ADD CONSTRAINT chk_credit_balances_non_negative
			CHECK (balance >= 0);

			ALTER TABLE judgments DROP CONSTRAINT IF EXISTS chk_judgments_rating;
			ALTER TABLE judgments ADD CONSTRAINT chk_judgments_rating
			CHECK (rating IS NULL OR rating BETWEEN 1 AND 10);
		`, enum.PayoutStatusNeedsReview).Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to create indexes: %w", err)
		}

		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		_, err := db.NewRaw(`
			ALTER TABLE judgments DROP CONSTRAINT IF EXISTS chk_judgments_rating;
			ALTER TABLE credit_balances DROP CONSTRAINT IF EXISTS chk_credit_balances_non_negative;
			ALTER TABLE requests DROP CONSTRAINT IF EXISTS chk_requests_counts;

			DROP INDEX IF EXISTS idx_activity_logs_request_time;
			DROP INDEX IF EXISTS idx_requests_owner_time;
			DROP INDEX IF EXISTS idx_requests_refund_pending;
			DROP INDEX IF EXISTS idx_reputation_history_judge_time;
			DROP INDEX IF EXISTS idx_judgment_ratings_judge_kind;
			DROP INDEX IF EXISTS idx_judgment_ratings_key;
			DROP INDEX IF EXISTS idx_credit_transactions_user_time;
			DROP INDEX IF EXISTS idx_credit_transactions_key;
			DROP INDEX IF EXISTS idx_earnings_needs_review;
			DROP INDEX IF EXISTS idx_earnings_judgment;
			DROP INDEX IF EXISTS idx_judgments_judge_active;
			DROP INDEX IF EXISTS idx_judgments_request_active;
			DROP INDEX IF EXISTS idx_judgments_request_judge;
		`).Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to drop indexes: %w", err)
		}

		return nil
	})
}
