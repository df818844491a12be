package settlement_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/rueidis"
	"github.com/robalyx/verdict/internal/database/memory"
	"github.com/robalyx/verdict/internal/database/types"
	"github.com/robalyx/verdict/internal/database/types/enum"
	"github.com/robalyx/verdict/internal/events"
	"github.com/robalyx/verdict/internal/ledger"
	"github.com/robalyx/verdict/internal/settlement"
	"github.com/robalyx/verdict/internal/setup"
	"github.com/robalyx/verdict/internal/setup/config"
	"github.com/robalyx/verdict/internal/worker/core"
	worker "github.com/robalyx/verdict/internal/worker/settlement"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func testConfig() *config.CommonConfig {
	return &config.CommonConfig{
		Settlement: config.Settlement{
			Payouts:           config.DefaultPayouts(),
			Prices:            config.DefaultPrices(),
			CreditAward:       1,
			CreditGate:        config.CreditGateAllow,
			EarningAttempts:   3,
			EarningRetryDelay: 1,
			MaxFeedbackLength: 500,
		},
		Reputation: config.Reputation{
			GracePeriodReviews:   10,
			CalibrationThreshold: 2.0,
			ProbationThreshold:   3.0,
			HistoryDelta:         0.1,
		},
	}
}

func fund(t *testing.T, store *memory.Store, userID uuid.UUID, amount int64) {
	t.Helper()

	_, err := store.ApplyTransaction(t.Context(), &types.CreditTransaction{
		ID:       uuid.New(),
		UserID:   userID,
		Amount:   amount,
		Type:     enum.CreditTransactionAdjustment,
		Source:   types.CreditSourceManual,
		SourceID: uuid.NewString(),
	})
	require.NoError(t, err)
}

func TestWorkerAppliesQueuedSideEffects(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  []string{mr.Addr()},
		DisableCache: true,
	})
	require.NoError(t, err)
	t.Cleanup(client.Close)

	logger := zaptest.NewLogger(t)
	store := memory.NewStore()
	stream := events.NewStream(client, "verdict:side_effects", "settlement", 1000, logger)
	services := setup.NewServices(testConfig(), setup.MemoryStores(store), stream, nil, logger)

	owner := uuid.New()
	fund(t, store, owner, 100)

	req, err := services.Requests.Create(t.Context(), ledger.NewRequest{
		OwnerID:            owner,
		Tier:               enum.TierStandard,
		TargetVerdictCount: 3,
	})
	require.NoError(t, err)

	judgeID := uuid.New()
	require.NoError(t, store.Qualify(t.Context(), judgeID))

	rating := 7
	receipt, err := services.Pipeline.SubmitJudgment(t.Context(), req.ID, judgeID, settlement.JudgmentPayload{
		Rating:   &rating,
		Feedback: "Clear framing, the second paragraph could use an example.",
	})
	require.NoError(t, err)
	assert.Equal(t, settlement.StepQueued, receipt.Steps[len(receipt.Steps)-1].Status)

	// Nothing is credited until the worker runs
	balance, err := services.Credits.Balance(t.Context(), judgeID)
	require.NoError(t, err)
	assert.Zero(t, balance)

	reporter := core.NewStatusReporter(client, worker.WorkerType, logger)
	w := worker.NewWorker(stream, services.Effects, services.Refunds, reporter, events.ConsumerOptions{
		Name:         "test",
		PollInterval: 5 * time.Millisecond,
	}, 0, logger)

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan error, 1)
	go func() { done <- w.Start(ctx) }()

	assert.Eventually(t, func() bool {
		balance, err := services.Credits.Balance(t.Context(), judgeID)
		return err == nil && balance == 1
	}, 2*time.Second, 10*time.Millisecond)

	assert.Eventually(t, func() bool {
		return reporter.Snapshot().Processed == 3
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-done)

	pending, err := stream.Pending(t.Context())
	require.NoError(t, err)
	assert.Zero(t, pending)
}

func TestWorkerSweepsPendingRefunds(t *testing.T) {
	t.Parallel()

	logger := zaptest.NewLogger(t)
	store := memory.NewStore()
	services := setup.NewServices(testConfig(), setup.MemoryStores(store), nil, nil, logger)

	owner := uuid.New()
	req := &types.Request{
		ID:                 uuid.New(),
		OwnerID:            owner,
		Tier:               enum.TierStandard,
		Status:             enum.RequestStatusCancelled,
		TargetVerdictCount: 4,
		CreditsCharged:     12,
	}
	require.NoError(t, store.CreateRequest(t.Context(), req))
	require.NoError(t, store.MarkRefundPending(t.Context(), req.ID, 9))

	reporter := core.NewStatusReporter(nil, worker.WorkerType, logger)
	w := worker.NewWorker(nil, services.Effects, services.Refunds, reporter, events.ConsumerOptions{}, time.Hour, logger)

	assert.Equal(t, 1, w.SweepRefunds(t.Context()))
	assert.Zero(t, w.SweepRefunds(t.Context()))

	balance, err := services.Credits.Balance(t.Context(), owner)
	require.NoError(t, err)
	assert.Equal(t, int64(9), balance)

	stored, err := store.GetRequest(t.Context(), req.ID)
	require.NoError(t, err)
	assert.False(t, stored.RefundPending)
}
