package settlement_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/robalyx/verdict/internal/apperr"
	"github.com/robalyx/verdict/internal/database/memory"
	"github.com/robalyx/verdict/internal/database/types"
	"github.com/robalyx/verdict/internal/database/types/enum"
	"github.com/robalyx/verdict/internal/events"
	"github.com/robalyx/verdict/internal/ledger"
	"github.com/robalyx/verdict/internal/reputation"
	"github.com/robalyx/verdict/internal/settlement"
	"github.com/robalyx/verdict/internal/setup/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const testAward = 10

var testPrices = map[enum.Tier]int64{
	enum.TierCommunity: 1,
	enum.TierStandard:  3,
	enum.TierPro:       5,
}

type fixture struct {
	store     *memory.Store
	requests  *ledger.RequestLedger
	credits   *ledger.CreditLedger
	engine    *reputation.Engine
	effects   *settlement.Effects
	pipeline  *settlement.Pipeline
	owner     uuid.UUID
	requestID uuid.UUID
}

type fixtureOptions struct {
	earnings  settlement.EarningStore
	judgments settlement.JudgmentStore
	requests  settlement.Requests
	credits   settlement.CreditAwarder
	publisher events.Publisher
	gate      settlement.CreditGate
	target    int
	options   []string
}

func newFixture(t *testing.T, opts fixtureOptions) *fixture {
	t.Helper()

	store := memory.NewStore()
	logger := zaptest.NewLogger(t)
	credits := ledger.NewCreditLedger(store, logger)
	refunds := ledger.NewRefundCalculator(store, credits, store, nil, logger)
	requests := ledger.NewRequestLedger(store, store, credits, refunds, store, testPrices, logger)
	engine := reputation.NewEngine(store, store, store, reputation.DefaultThresholds(), logger)

	if opts.gate.Policy == "" {
		opts.gate.Policy = config.CreditGateAllow
	}
	var awarder settlement.CreditAwarder = credits
	if opts.credits != nil {
		awarder = opts.credits
	}
	effects := settlement.NewEffects(awarder, engine, store, nil, opts.gate, testAward, logger)

	dispatcher := events.NewDispatcher(opts.publisher, effects, logger)

	var earnings settlement.EarningStore = store
	if opts.earnings != nil {
		earnings = opts.earnings
	}
	var judgments settlement.JudgmentStore = store
	if opts.judgments != nil {
		judgments = opts.judgments
	}
	var reqs settlement.Requests = requests
	if opts.requests != nil {
		reqs = opts.requests
	}

	pipeline := settlement.NewPipeline(reqs, judgments, earnings, store, dispatcher, settlement.Options{
		Payouts:           settlement.NewPayoutTable(config.DefaultPayouts()),
		EarningAttempts:   3,
		EarningRetryDelay: time.Millisecond,
		MaxFeedbackLength: 500,
	}, logger)

	if opts.target == 0 {
		opts.target = 3
	}

	owner := uuid.New()
	_, err := store.ApplyTransaction(t.Context(), &types.CreditTransaction{
		ID:       uuid.New(),
		UserID:   owner,
		Amount:   1000,
		Type:     enum.CreditTransactionAdjustment,
		Source:   types.CreditSourceManual,
		SourceID: uuid.NewString(),
	})
	require.NoError(t, err)

	req, err := requests.Create(t.Context(), ledger.NewRequest{
		OwnerID:            owner,
		Tier:               enum.TierStandard,
		TargetVerdictCount: opts.target,
		Options:            opts.options,
	})
	require.NoError(t, err)

	return &fixture{
		store:     store,
		requests:  requests,
		credits:   credits,
		engine:    engine,
		effects:   effects,
		pipeline:  pipeline,
		owner:     owner,
		requestID: req.ID,
	}
}

func (f *fixture) judge(t *testing.T) uuid.UUID {
	t.Helper()

	judgeID := uuid.New()
	require.NoError(t, f.store.Qualify(t.Context(), judgeID))
	return judgeID
}

func ratedPayload(rating int) settlement.JudgmentPayload {
	return settlement.JudgmentPayload{
		Rating:   &rating,
		Feedback: "The intro is clear, but I would suggest adding an example because the second step is vague.",
	}
}

func TestSubmitJudgmentSettles(t *testing.T) {
	t.Parallel()

	f := newFixture(t, fixtureOptions{})
	judgeID := f.judge(t)

	receipt, err := f.pipeline.SubmitJudgment(t.Context(), f.requestID, judgeID, ratedPayload(8))
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, receipt.JudgmentID)
	assert.Equal(t, int64(25), receipt.AmountEarned)
	assert.Equal(t, types.DefaultCurrency, receipt.Currency)
	assert.Equal(t, 1, receipt.RequestStatus.Received)
	assert.Equal(t, 3, receipt.RequestStatus.Target)
	assert.Equal(t, enum.RequestStatusInProgress, receipt.RequestStatus.Status)

	// Exactly one judgment and one earning, linked
	judgments := f.store.Judgments()
	require.Len(t, judgments, 1)
	assert.Equal(t, receipt.JudgmentID, judgments[0].ID)

	earnings := f.store.Earnings()
	require.Len(t, earnings, 1)
	assert.Equal(t, receipt.JudgmentID, earnings[0].JudgmentID)
	assert.Equal(t, enum.PayoutStatusPending, earnings[0].PayoutStatus)
	assert.Equal(t, enum.TierStandard, earnings[0].RequestType)

	for _, o := range receipt.Steps {
		assert.NotEqual(t, settlement.StepFailed, o.Status, o.Step)
	}

	balance, err := f.credits.Balance(t.Context(), judgeID)
	require.NoError(t, err)
	assert.Equal(t, int64(testAward), balance)

	rep, err := f.store.GetReputation(t.Context(), judgeID)
	require.NoError(t, err)
	assert.Equal(t, 1, rep.TotalReviews)

	activity, err := f.store.GetRequestActivity(t.Context(), f.requestID, 0)
	require.NoError(t, err)
	var submitted int
	for _, entry := range activity {
		if entry.ActivityType == enum.ActivityTypeJudgmentSubmitted {
			submitted++
			assert.Equal(t, receipt.JudgmentID, entry.JudgmentID)
		}
	}
	assert.Equal(t, 1, submitted)
}

func TestDuplicateJudgmentIsConflict(t *testing.T) {
	t.Parallel()

	f := newFixture(t, fixtureOptions{})
	judgeID := f.judge(t)

	_, err := f.pipeline.SubmitJudgment(t.Context(), f.requestID, judgeID, ratedPayload(8))
	require.NoError(t, err)

	_, err = f.pipeline.SubmitJudgment(t.Context(), f.requestID, judgeID, ratedPayload(3))
	require.ErrorIs(t, err, apperr.ErrConflict)

	assert.Len(t, f.store.Judgments(), 1)
	assert.Len(t, f.store.Earnings(), 1)
}

func TestRequestLifecycleThroughSubmissions(t *testing.T) {
	t.Parallel()

	f := newFixture(t, fixtureOptions{target: 3})

	receipt, err := f.pipeline.SubmitJudgment(t.Context(), f.requestID, f.judge(t), ratedPayload(7))
	require.NoError(t, err)
	assert.Equal(t, enum.RequestStatusInProgress, receipt.RequestStatus.Status)
	assert.Equal(t, 1, receipt.RequestStatus.Received)

	_, err = f.pipeline.SubmitJudgment(t.Context(), f.requestID, f.judge(t), ratedPayload(6))
	require.NoError(t, err)

	receipt, err = f.pipeline.SubmitJudgment(t.Context(), f.requestID, f.judge(t), ratedPayload(2))
	require.NoError(t, err)
	assert.Equal(t, enum.RequestStatusClosed, receipt.RequestStatus.Status)
	assert.Equal(t, 3, receipt.RequestStatus.Received)

	_, err = f.pipeline.SubmitJudgment(t.Context(), f.requestID, f.judge(t), ratedPayload(9))
	require.ErrorIs(t, err, apperr.ErrConflict)

	assert.Len(t, f.store.Judgments(), 3)
	assert.Len(t, f.store.Earnings(), 3)

	req, err := f.requests.Get(t.Context(), f.requestID)
	require.NoError(t, err)
	assert.Equal(t, enum.RequestStatusClosed, req.Status)
	assert.Equal(t, 3, req.ReceivedVerdictCount)
}

func TestWinningOptionRecordedOnClose(t *testing.T) {
	t.Parallel()

	f := newFixture(t, fixtureOptions{target: 2, options: []string{"A", "B"}})

	submit := func(choice string) *settlement.Receipt {
		receipt, err := f.pipeline.SubmitJudgment(t.Context(), f.requestID, f.judge(t), settlement.JudgmentPayload{
			Choice:   choice,
			Feedback: "Option " + choice + " reads better because the layout is cleaner.",
		})
		require.NoError(t, err)
		return receipt
	}

	submit("B")
	receipt := submit("A")

	assert.Equal(t, enum.RequestStatusClosed, receipt.RequestStatus.Status)
	require.NotNil(t, receipt.RequestStatus.WinningOption)
	assert.Equal(t, "B", *receipt.RequestStatus.WinningOption)
}

type failingEarnings struct {
	*memory.Store
	failures int32
	calls    atomic.Int32
}

func (s *failingEarnings) CreateEarning(ctx context.Context, earning *types.Earning) error {
	if s.calls.Add(1) <= s.failures {
		return errors.New("connection reset by peer")
	}
	return s.Store.CreateEarning(ctx, earning)
}

func TestEarningFailureAbortsCleanly(t *testing.T) {
	t.Parallel()

	earnings := &failingEarnings{failures: 3}
	f := newFixture(t, fixtureOptions{earnings: earnings})
	earnings.Store = f.store

	_, err := f.pipeline.SubmitJudgment(t.Context(), f.requestID, f.judge(t), ratedPayload(8))
	require.ErrorIs(t, err, apperr.ErrPaymentProcessing)
	assert.True(t, apperr.KindOf(err).Retryable())
	assert.Equal(t, int32(3), earnings.calls.Load())

	assert.Empty(t, f.store.Judgments())
	assert.Empty(t, f.store.Earnings())

	req, err := f.requests.Get(t.Context(), f.requestID)
	require.NoError(t, err)
	assert.Equal(t, 0, req.ReceivedVerdictCount)
}

func TestEarningRecoversFromTransientFailure(t *testing.T) {
	t.Parallel()

	earnings := &failingEarnings{failures: 2}
	f := newFixture(t, fixtureOptions{earnings: earnings})
	earnings.Store = f.store

	receipt, err := f.pipeline.SubmitJudgment(t.Context(), f.requestID, f.judge(t), ratedPayload(8))
	require.NoError(t, err)
	assert.Equal(t, int32(3), earnings.calls.Load())

	require.Len(t, f.store.Earnings(), 1)
	assert.Equal(t, receipt.JudgmentID, f.store.Earnings()[0].JudgmentID)
}

type failingJudgments struct {
	*memory.Store
	fail atomic.Bool
}

func (s *failingJudgments) CreateJudgment(ctx context.Context, judgment *types.Judgment) error {
	if s.fail.Load() {
		return errors.New("connection reset by peer")
	}
	return s.Store.CreateJudgment(ctx, judgment)
}

func TestJudgmentFailureProtectsEarning(t *testing.T) {
	t.Parallel()

	judgments := &failingJudgments{}
	judgments.fail.Store(true)
	f := newFixture(t, fixtureOptions{judgments: judgments})
	judgments.Store = f.store
	judgeID := f.judge(t)

	_, err := f.pipeline.SubmitJudgment(t.Context(), f.requestID, judgeID, ratedPayload(8))
	require.ErrorIs(t, err, apperr.ErrPayProtected)
	assert.False(t, apperr.KindOf(err).Retryable())

	assert.Empty(t, f.store.Judgments())
	earnings := f.store.Earnings()
	require.Len(t, earnings, 1)
	assert.Equal(t, enum.PayoutStatusNeedsReview, earnings[0].PayoutStatus)
	assert.NotEmpty(t, earnings[0].Notes)
	protectedID := earnings[0].ID

	// A later successful retry reuses the protected earning
	judgments.fail.Store(false)
	receipt, err := f.pipeline.SubmitJudgment(t.Context(), f.requestID, judgeID, ratedPayload(8))
	require.NoError(t, err)

	earnings = f.store.Earnings()
	require.Len(t, earnings, 1)
	assert.Equal(t, protectedID, earnings[0].ID)
	assert.Equal(t, receipt.JudgmentID, earnings[0].JudgmentID)
	assert.Equal(t, enum.PayoutStatusPending, earnings[0].PayoutStatus)
	assert.Empty(t, earnings[0].Notes)
	assert.Len(t, f.store.Judgments(), 1)
}

func TestJudgmentUniqueViolationProtectsEarning(t *testing.T) {
	t.Parallel()

	f := newFixture(t, fixtureOptions{})
	judgeID := f.judge(t)

	// A concurrent submission wins the race after the duplicate check
	require.NoError(t, f.store.CreateJudgment(t.Context(), &types.Judgment{
		ID:        uuid.New(),
		RequestID: f.requestID,
		JudgeID:   judgeID,
		Feedback:  "racing submission",
	}))
	racing := &racingJudgments{Store: f.store}

	f2 := settlement.NewPipeline(f.requests, racing, f.store, f.store,
		events.NewDispatcher(nil, f.effects, zaptest.NewLogger(t)),
		settlement.Options{EarningRetryDelay: time.Millisecond}, zaptest.NewLogger(t))

	_, err := f2.SubmitJudgment(t.Context(), f.requestID, judgeID, ratedPayload(5))
	require.ErrorIs(t, err, apperr.ErrPayProtected)

	earnings := f.store.Earnings()
	require.Len(t, earnings, 1)
	assert.Equal(t, enum.PayoutStatusNeedsReview, earnings[0].PayoutStatus)
}

// racingJudgments hides existing judgments from the duplicate check.
type racingJudgments struct {
	*memory.Store
}

func (*racingJudgments) HasJudged(context.Context, uuid.UUID, uuid.UUID) (bool, error) {
	return false, nil
}

// staleRequests returns the request as it was before other judges filled it.
type staleRequests struct {
	*ledger.RequestLedger
	snapshot *types.Request
}

func (s *staleRequests) Get(context.Context, uuid.UUID) (*types.Request, error) {
	req := *s.snapshot
	return &req, nil
}

func TestOverfillKeepsJudgmentAndHealsCounter(t *testing.T) {
	t.Parallel()

	stale := &staleRequests{}
	f := newFixture(t, fixtureOptions{target: 1, requests: stale})
	stale.RequestLedger = f.requests

	snapshot, err := f.requests.Get(t.Context(), f.requestID)
	require.NoError(t, err)
	stale.snapshot = snapshot

	first, err := f.pipeline.SubmitJudgment(t.Context(), f.requestID, f.judge(t), ratedPayload(8))
	require.NoError(t, err)
	assert.Equal(t, enum.RequestStatusClosed, first.RequestStatus.Status)

	// The second judge passed the precondition before the first closed it
	second, err := f.pipeline.SubmitJudgment(t.Context(), f.requestID, f.judge(t), ratedPayload(4))
	require.NoError(t, err)
	assert.Equal(t, enum.RequestStatusClosed, second.RequestStatus.Status)
	assert.Equal(t, 2, second.RequestStatus.Received)
	assert.True(t, second.RequestStatus.Overfilled())

	assert.Len(t, f.store.Judgments(), 2)
	assert.Len(t, f.store.Earnings(), 2)

	advance, ok := stepOutcome(second, settlement.StepAdvanceRequest)
	require.True(t, ok)
	assert.Equal(t, settlement.StepSucceeded, advance.Status)
}

func stepOutcome(receipt *settlement.Receipt, step string) (settlement.StepOutcome, bool) {
	for _, o := range receipt.Steps {
		if o.Step == step {
			return o, true
		}
	}
	return settlement.StepOutcome{}, false
}

func TestPreconditions(t *testing.T) {
	t.Parallel()

	t.Run("owner cannot judge own request", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, fixtureOptions{})
		require.NoError(t, f.store.Qualify(t.Context(), f.owner))

		_, err := f.pipeline.SubmitJudgment(t.Context(), f.requestID, f.owner, ratedPayload(8))
		require.ErrorIs(t, err, apperr.ErrAuthorization)
		assert.Empty(t, f.store.Earnings())
	})

	t.Run("unqualified judge", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, fixtureOptions{})

		_, err := f.pipeline.SubmitJudgment(t.Context(), f.requestID, uuid.New(), ratedPayload(8))
		require.ErrorIs(t, err, apperr.ErrAuthorization)
		assert.Empty(t, f.store.Earnings())
	})

	t.Run("unknown request", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, fixtureOptions{})

		_, err := f.pipeline.SubmitJudgment(t.Context(), uuid.New(), f.judge(t), ratedPayload(8))
		require.ErrorIs(t, err, apperr.ErrNotFound)
	})

	t.Run("cancelled request", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, fixtureOptions{})
		_, err := f.requests.Cancel(t.Context(), f.requestID, f.owner, "no longer needed")
		require.NoError(t, err)

		_, err = f.pipeline.SubmitJudgment(t.Context(), f.requestID, f.judge(t), ratedPayload(8))
		require.ErrorIs(t, err, apperr.ErrConflict)
		assert.Empty(t, f.store.Earnings())
	})
}

func TestPayloadValidation(t *testing.T) {
	t.Parallel()

	rating := func(v int) *int { return &v }

	tests := []struct {
		name    string
		options []string
		payload settlement.JudgmentPayload
		wantErr error
	}{
		{
			name:    "missing feedback",
			payload: settlement.JudgmentPayload{Rating: rating(5), Feedback: "   "},
			wantErr: settlement.ErrFeedbackRequired,
		},
		{
			name:    "rating out of range",
			payload: settlement.JudgmentPayload{Rating: rating(11), Feedback: "fine"},
			wantErr: settlement.ErrRatingRange,
		},
		{
			name:    "free-form needs rating",
			payload: settlement.JudgmentPayload{Feedback: "fine"},
			wantErr: settlement.ErrRatingRequired,
		},
		{
			name:    "choice on free-form request",
			payload: settlement.JudgmentPayload{Choice: "A", Rating: rating(5), Feedback: "fine"},
			wantErr: settlement.ErrChoiceNotAllowed,
		},
		{
			name:    "unknown choice",
			options: []string{"A", "B"},
			payload: settlement.JudgmentPayload{Choice: "C", Feedback: "fine"},
			wantErr: settlement.ErrUnknownChoice,
		},
		{
			name:    "missing choice",
			options: []string{"A", "B"},
			payload: settlement.JudgmentPayload{Feedback: "fine"},
			wantErr: settlement.ErrChoiceRequired,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := newFixture(t, fixtureOptions{options: tt.options})

			_, err := f.pipeline.SubmitJudgment(t.Context(), f.requestID, f.judge(t), tt.payload)
			require.ErrorIs(t, err, apperr.ErrValidation)
			require.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, f.store.Earnings())
		})
	}
}

type failingAwards struct{}

func (failingAwards) AwardJudgment(context.Context, uuid.UUID, uuid.UUID, int64) (bool, error) {
	return false, errors.New("ledger unavailable")
}

func TestSideEffectFailureDoesNotFailSubmission(t *testing.T) {
	t.Parallel()

	f := newFixture(t, fixtureOptions{credits: failingAwards{}})

	receipt, err := f.pipeline.SubmitJudgment(t.Context(), f.requestID, f.judge(t), ratedPayload(8))
	require.NoError(t, err)

	award, ok := stepOutcome(receipt, settlement.StepAwardCredits)
	require.True(t, ok)
	assert.Equal(t, settlement.StepFailed, award.Status)
	require.Error(t, award.Err)

	audit, ok := stepOutcome(receipt, settlement.StepAuditLog)
	require.True(t, ok)
	assert.Equal(t, settlement.StepSucceeded, audit.Status)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []*events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e *events.Event) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return "0-1", nil
}

func TestQueuedSideEffectsApplyOnce(t *testing.T) {
	t.Parallel()

	publisher := &recordingPublisher{}
	f := newFixture(t, fixtureOptions{publisher: publisher})
	judgeID := f.judge(t)

	receipt, err := f.pipeline.SubmitJudgment(t.Context(), f.requestID, judgeID, ratedPayload(8))
	require.NoError(t, err)

	for _, step := range []string{settlement.StepAwardCredits, settlement.StepUpdateReputation, settlement.StepAuditLog} {
		o, ok := stepOutcome(receipt, step)
		require.True(t, ok)
		assert.Equal(t, settlement.StepQueued, o.Status, step)
	}
	require.Len(t, publisher.events, 3)

	balance, err := f.credits.Balance(t.Context(), judgeID)
	require.NoError(t, err)
	assert.Zero(t, balance)

	// At-least-once delivery applies every event twice
	for range 2 {
		for _, e := range publisher.events {
			require.NoError(t, f.effects.Handle(t.Context(), e))
		}
	}

	balance, err = f.credits.Balance(t.Context(), judgeID)
	require.NoError(t, err)
	assert.Equal(t, int64(testAward), balance)

	activity, err := f.store.GetRequestActivity(t.Context(), f.requestID, 0)
	require.NoError(t, err)
	counts := make(map[enum.ActivityType]int)
	for _, entry := range activity {
		counts[entry.ActivityType]++
	}
	assert.Equal(t, 1, counts[enum.ActivityTypeJudgmentSubmitted])
	assert.Equal(t, 1, counts[enum.ActivityTypeCreditsAwarded])
}

func TestCreditGatePolicies(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		gate   settlement.CreditGate
		expect int64
	}{
		{name: "allow", gate: settlement.CreditGate{Policy: config.CreditGateAllow}, expect: testAward},
		{name: "block", gate: settlement.CreditGate{Policy: config.CreditGateBlock}, expect: 0},
		{name: "reduce", gate: settlement.CreditGate{Policy: config.CreditGateReduce, Factor: 0.5}, expect: testAward / 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := newFixture(t, fixtureOptions{gate: tt.gate})
			judgeID := f.judge(t)

			require.NoError(t, f.store.SaveReputation(t.Context(), &types.ReviewerReputation{
				JudgeID:         judgeID,
				ReputationScore: 2.5,
				ReviewerStatus:  enum.ReviewerStatusProbation,
				TotalReviews:    20,
			}))

			_, err := f.pipeline.SubmitJudgment(t.Context(), f.requestID, judgeID, ratedPayload(8))
			require.NoError(t, err)

			balance, err := f.credits.Balance(t.Context(), judgeID)
			require.NoError(t, err)
			assert.Equal(t, tt.expect, balance)
		})
	}
}

// failingRekey cannot move the earning onto its judgment.
type failingRekey struct {
	*memory.Store
}

func (*failingRekey) RekeyEarning(context.Context, uuid.UUID, uuid.UUID) error {
	return errors.New("connection reset by peer")
}

func TestRekeyFailureKeepsSubmission(t *testing.T) {
	t.Parallel()

	earnings := &failingRekey{}
	f := newFixture(t, fixtureOptions{earnings: earnings})
	earnings.Store = f.store

	receipt, err := f.pipeline.SubmitJudgment(t.Context(), f.requestID, f.judge(t), ratedPayload(8))
	require.NoError(t, err)

	rekey, ok := stepOutcome(receipt, settlement.StepRekeyEarning)
	require.True(t, ok)
	assert.Equal(t, settlement.StepFailed, rekey.Status)
	require.Error(t, rekey.Err)

	// Later steps still run
	advance, ok := stepOutcome(receipt, settlement.StepAdvanceRequest)
	require.True(t, ok)
	assert.Equal(t, settlement.StepSucceeded, advance.Status)
	assert.Equal(t, 1, receipt.RequestStatus.Received)

	// The earning stays on its placeholder key and is still payable
	earningsAfter := f.store.Earnings()
	require.Len(t, earningsAfter, 1)
	assert.NotEqual(t, receipt.JudgmentID, earningsAfter[0].JudgmentID)
	assert.Equal(t, enum.PayoutStatusPending, earningsAfter[0].PayoutStatus)
	assert.Len(t, f.store.Judgments(), 1)
}

// brokenRequests fails to count verdicts with a storage error.
type brokenRequests struct {
	*ledger.RequestLedger
	reconciles atomic.Int32
}

func (*brokenRequests) IncrementAndMaybeClose(context.Context, uuid.UUID) (*types.RequestProgress, error) {
	return nil, errors.New("connection reset by peer")
}

func (s *brokenRequests) Reconcile(ctx context.Context, requestID uuid.UUID) (*types.RequestProgress, bool, error) {
	s.reconciles.Add(1)
	return s.RequestLedger.Reconcile(ctx, requestID)
}

func TestAdvanceStorageFailureReportsStoredCounters(t *testing.T) {
	t.Parallel()

	requests := &brokenRequests{}
	f := newFixture(t, fixtureOptions{target: 2, requests: requests})
	requests.RequestLedger = f.requests

	receipt, err := f.pipeline.SubmitJudgment(t.Context(), f.requestID, f.judge(t), ratedPayload(8))
	require.NoError(t, err)

	advance, ok := stepOutcome(receipt, settlement.StepAdvanceRequest)
	require.True(t, ok)
	assert.Equal(t, settlement.StepFailed, advance.Status)
	assert.Equal(t, apperr.KindUnknown, apperr.KindOf(advance.Err))

	// Only conflicts are reconciled inline
	assert.Equal(t, int32(0), requests.reconciles.Load())

	// The receipt reports the stored counters, not a guess
	require.NotNil(t, receipt.RequestStatus)
	assert.Equal(t, 0, receipt.RequestStatus.Received)
	assert.Equal(t, 2, receipt.RequestStatus.Target)
	assert.Equal(t, enum.RequestStatusOpen, receipt.RequestStatus.Status)

	assert.Len(t, f.store.Judgments(), 1)
	require.Len(t, f.store.Earnings(), 1)
	assert.Equal(t, receipt.JudgmentID, f.store.Earnings()[0].JudgmentID)
}
