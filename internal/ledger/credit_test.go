package ledger_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/robalyx/verdict/internal/apperr"
	"github.com/robalyx/verdict/internal/database/memory"
	"github.com/robalyx/verdict/internal/ledger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestAwardJudgmentIsIdempotent(t *testing.T) {
	t.Parallel()

	store := memory.NewStore()
	credits := ledger.NewCreditLedger(store, zaptest.NewLogger(t))
	judge, judgment := uuid.New(), uuid.New()

	applied, err := credits.AwardJudgment(t.Context(), judge, judgment, 2)
	require.NoError(t, err)
	assert.True(t, applied)

	applied, err = credits.AwardJudgment(t.Context(), judge, judgment, 2)
	require.NoError(t, err)
	assert.False(t, applied)

	balance, err := credits.Balance(t.Context(), judge)
	require.NoError(t, err)
	assert.Equal(t, int64(2), balance)
}

func TestChargeRejectsDuplicateAndOverdraft(t *testing.T) {
	t.Parallel()

	store := memory.NewStore()
	credits := ledger.NewCreditLedger(store, zaptest.NewLogger(t))
	owner, request := uuid.New(), uuid.New()
	fund(t, store, owner, 10)

	balance, err := credits.Charge(t.Context(), owner, request, 4)
	require.NoError(t, err)
	assert.Equal(t, int64(6), balance)

	_, err = credits.Charge(t.Context(), owner, request, 4)
	require.ErrorIs(t, err, apperr.ErrConflict)

	_, err = credits.Charge(t.Context(), owner, uuid.New(), 7)
	require.ErrorIs(t, err, apperr.ErrValidation)

	_, err = credits.Charge(t.Context(), owner, uuid.New(), 0)
	require.ErrorIs(t, err, apperr.ErrValidation)

	balance, err = credits.Balance(t.Context(), owner)
	require.NoError(t, err)
	assert.Equal(t, int64(6), balance)
}

func TestRefundRejectsNonPositiveAmount(t *testing.T) {
	t.Parallel()

	credits := ledger.NewCreditLedger(memory.NewStore(), zaptest.NewLogger(t))
	_, err := credits.Refund(t.Context(), uuid.New(), uuid.New(), 0)
	require.ErrorIs(t, err, ledger.ErrInvalidAmount)
}

func TestGrantIsKeyedByReference(t *testing.T) {
	t.Parallel()

	store := memory.NewStore()
	credits := ledger.NewCreditLedger(store, zaptest.NewLogger(t))
	user := uuid.New()

	applied, err := credits.Grant(t.Context(), user, 25, "promo-2026")
	require.NoError(t, err)
	assert.True(t, applied)

	applied, err = credits.Grant(t.Context(), user, 25, "promo-2026")
	require.NoError(t, err)
	assert.False(t, applied)

	_, err = credits.Grant(t.Context(), user, 0, "empty")
	require.ErrorIs(t, err, apperr.ErrValidation)

	balance, err := credits.Balance(t.Context(), user)
	require.NoError(t, err)
	assert.Equal(t, int64(25), balance)
}
