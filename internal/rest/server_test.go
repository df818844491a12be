package rest_test

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/robalyx/verdict/internal/database/memory"
	"github.com/robalyx/verdict/internal/database/types"
	"github.com/robalyx/verdict/internal/database/types/enum"
	"github.com/robalyx/verdict/internal/ledger"
	"github.com/robalyx/verdict/internal/rest"
	restTypes "github.com/robalyx/verdict/internal/rest/types"
	"github.com/robalyx/verdict/internal/setup"
	"github.com/robalyx/verdict/internal/setup/config"
	"github.com/robalyx/verdict/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fixture struct {
	server *rest.Server
	store  *memory.Store
}

func newFixture(t *testing.T, api config.APIConfig) *fixture {
	t.Helper()
	return newFixtureWithReady(t, api, nil)
}

func newFixtureWithReady(t *testing.T, api config.APIConfig, ready rest.ReadyFunc) *fixture {
	t.Helper()

	logger := zaptest.NewLogger(t)
	store := memory.NewStore()
	services := setup.NewServices(&config.CommonConfig{
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
	}, setup.MemoryStores(store), nil, nil, logger)

	server := rest.NewServer(services, &api, ready, logger)
	t.Cleanup(server.Close)

	return &fixture{server: server, store: store}
}

func (f *fixture) fund(t *testing.T, userID uuid.UUID, amount int64) {
	t.Helper()

	_, err := f.store.ApplyTransaction(t.Context(), &types.CreditTransaction{
		ID:       uuid.New(),
		UserID:   userID,
		Amount:   amount,
		Type:     enum.CreditTransactionAdjustment,
		Source:   types.CreditSourceManual,
		SourceID: uuid.NewString(),
	})
	require.NoError(t, err)
}

func (f *fixture) call(t *testing.T, method, path string, userID uuid.UUID, body any) *httptest.ResponseRecorder {
	t.Helper()

	var payload []byte
	if body != nil {
		var err error
		payload, err = sonic.Marshal(body)
		require.NoError(t, err)
	}

	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	if userID != uuid.Nil {
		req.Header.Set("X-User-ID", userID.String())
	}

	rec := httptest.NewRecorder()
	f.server.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	require.NoError(t, sonic.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestRequestLifecycleOverHTTP(t *testing.T) {
	t.Parallel()

	f := newFixture(t, config.APIConfig{})
	owner, judge := uuid.New(), uuid.New()
	f.fund(t, owner, 100)
	require.NoError(t, f.store.Qualify(t.Context(), judge))

	rec := f.call(t, http.MethodPost, "/v1/requests", owner, restTypes.CreateRequestBody{
		Tier:               utils.Ptr(enum.TierStandard),
		TargetVerdictCount: 2,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[types.Request](t, rec)
	assert.Equal(t, int64(4), created.CreditsCharged)

	requestPath := "/v1/requests/" + created.ID.String()

	rec = f.call(t, http.MethodPost, requestPath+"/judgments", judge, map[string]any{
		"rating":   8,
		"feedback": "Strong opening, the pricing section needs numbers.",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	receipt := decode[map[string]any](t, rec)
	assert.InDelta(t, 25, receipt["amountEarned"], 0)

	rec = f.call(t, http.MethodGet, requestPath, judge, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decode[types.Request](t, rec).ReceivedVerdictCount)

	judgmentID := receipt["judgmentId"].(string)
	rec = f.call(t, http.MethodPost, "/v1/judgments/"+judgmentID+"/rating", owner, map[string]int{"helpfulness": 5})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = f.call(t, http.MethodGet, "/v1/reviewers/"+judge.String()+"/reputation", owner, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rep := decode[types.ReviewerReputation](t, rec)
	assert.Equal(t, judge, rep.JudgeID)
	assert.Equal(t, 1, rep.TotalReviews)

	rec = f.call(t, http.MethodPost, requestPath+"/cancel", owner, map[string]string{"reason": "no longer needed"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	result := decode[ledger.CancelResult](t, rec)
	assert.Equal(t, int64(2), result.RefundCredits)
	assert.False(t, result.RefundPending)

	rec = f.call(t, http.MethodGet, requestPath+"/activity", owner, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, decode[[]types.ActivityLog](t, rec))

	rec = f.call(t, http.MethodGet, requestPath+"/activity", judge, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestErrorMapping(t *testing.T) {
	t.Parallel()

	f := newFixture(t, config.APIConfig{})
	owner, judge := uuid.New(), uuid.New()
	f.fund(t, owner, 100)
	require.NoError(t, f.store.Qualify(t.Context(), judge))

	rec := f.call(t, http.MethodPost, "/v1/requests", owner, restTypes.CreateRequestBody{
		Tier:               utils.Ptr(enum.TierCommunity),
		TargetVerdictCount: 3,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	requestPath := "/v1/requests/" + decode[types.Request](t, rec).ID.String()

	judgment := map[string]any{"rating": 6, "feedback": "Reads well."}
	require.Equal(t, http.StatusCreated, f.call(t, http.MethodPost, requestPath+"/judgments", judge, judgment).Code)

	tests := []struct {
		name   string
		method string
		path   string
		user   uuid.UUID
		body   any
		status int
		kind   string
	}{
		{
			name:   "missing identity",
			method: http.MethodGet,
			path:   requestPath,
			status: http.StatusUnauthorized,
		},
		{
			name:   "malformed id",
			method: http.MethodGet,
			path:   "/v1/requests/not-a-uuid",
			user:   owner,
			status: http.StatusBadRequest,
			kind:   "validation",
		},
		{
			name:   "unknown request",
			method: http.MethodGet,
			path:   "/v1/requests/" + uuid.NewString(),
			user:   owner,
			status: http.StatusNotFound,
			kind:   "not_found",
		},
		{
			name:   "cancel by non-owner",
			method: http.MethodPost,
			path:   requestPath + "/cancel",
			user:   judge,
			status: http.StatusForbidden,
			kind:   "authorization",
		},
		{
			name:   "duplicate judgment",
			method: http.MethodPost,
			path:   requestPath + "/judgments",
			user:   judge,
			body:   judgment,
			status: http.StatusConflict,
			kind:   "conflict",
		},
		{
			name:   "unqualified judge",
			method: http.MethodPost,
			path:   requestPath + "/judgments",
			user:   uuid.New(),
			body:   judgment,
			status: http.StatusForbidden,
			kind:   "authorization",
		},
		{
			name:   "empty feedback",
			method: http.MethodPost,
			path:   requestPath + "/judgments",
			user:   judge,
			body:   map[string]any{"rating": 6, "feedback": "  "},
			status: http.StatusBadRequest,
			kind:   "validation",
		},
		{
			name:   "missing body",
			method: http.MethodPost,
			path:   "/v1/requests",
			user:   owner,
			status: http.StatusBadRequest,
			kind:   "validation",
		},
		{
			name:   "unknown tier",
			method: http.MethodPost,
			path:   "/v1/requests",
			user:   owner,
			body:   map[string]any{"tier": "gold", "targetVerdictCount": 1},
			status: http.StatusBadRequest,
			kind:   "validation",
		},
		{
			name:   "missing tier",
			method: http.MethodPost,
			path:   "/v1/requests",
			user:   owner,
			body:   map[string]any{"targetVerdictCount": 1},
			status: http.StatusBadRequest,
			kind:   "validation",
		},
		{
			name:   "insufficient credits",
			method: http.MethodPost,
			path:   "/v1/requests",
			user:   uuid.New(),
			body:   restTypes.CreateRequestBody{Tier: utils.Ptr(enum.TierPro), TargetVerdictCount: 5},
			status: http.StatusBadRequest,
			kind:   "validation",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec := f.call(t, tt.method, tt.path, tt.user, tt.body)
			require.Equal(t, tt.status, rec.Code, rec.Body.String())

			if tt.kind != "" {
				assert.Equal(t, tt.kind, decode[restTypes.ErrorResponse](t, rec).Kind)
			}
		})
	}
}

func TestRateLimit(t *testing.T) {
	t.Parallel()

	f := newFixture(t, config.APIConfig{RateLimit: 0.001, BurstLimit: 2})
	caller, other := uuid.New(), uuid.New()
	path := "/v1/reviewers/" + uuid.NewString() + "/reputation"

	assert.Equal(t, http.StatusOK, f.call(t, http.MethodGet, path, caller, nil).Code)
	assert.Equal(t, http.StatusOK, f.call(t, http.MethodGet, path, caller, nil).Code)

	rec := f.call(t, http.MethodGet, path, caller, nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	// Buckets are per caller
	assert.Equal(t, http.StatusOK, f.call(t, http.MethodGet, path, other, nil).Code)
}

func TestHealthz(t *testing.T) {
	t.Parallel()

	f := newFixture(t, config.APIConfig{})
	rec := f.call(t, http.MethodGet, "/healthz", uuid.Nil, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	down := newFixtureWithReady(t, config.APIConfig{}, func(context.Context) error {
		return errors.New("database unreachable")
	})
	rec = down.call(t, http.MethodGet, "/healthz", uuid.Nil, nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestCancelWithStreamedEmptyBody(t *testing.T) {
	t.Parallel()

	f := newFixture(t, config.APIConfig{})
	owner := uuid.New()
	f.fund(t, owner, 10)

	rec := f.call(t, http.MethodPost, "/v1/requests", owner, restTypes.CreateRequestBody{
		Tier:               utils.Ptr(enum.TierCommunity),
		TargetVerdictCount: 2,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[types.Request](t, rec)

	// Chunked transfer: the length is unknown and nothing is sent
	req := httptest.NewRequest(http.MethodPost, "/v1/requests/"+created.ID.String()+"/cancel", bytes.NewReader(nil))
	req.ContentLength = -1
	req.Header.Set("X-User-ID", owner.String())

	rec = httptest.NewRecorder()
	f.server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	result := decode[ledger.CancelResult](t, rec)
	assert.Equal(t, int64(2), result.RefundCredits)
}
