package enum_test

import (
	"encoding/json"
	"testing"

	"github.com/robalyx/verdict/internal/database/types/enum"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestStatusStoredAsText(t *testing.T) {
	t.Parallel()

	v, err := enum.RequestStatusInProgress.Value()
	require.NoError(t, err)
	assert.Equal(t, "in_progress", v)

	var status enum.RequestStatus
	require.NoError(t, status.Scan([]byte("cancelled")))
	assert.Equal(t, enum.RequestStatusCancelled, status)
	assert.False(t, status.Cancellable())

	require.Error(t, status.Scan("archived"))
}

func TestTierJSON(t *testing.T) {
	t.Parallel()

	data, err := json.Marshal(map[string]enum.Tier{"tier": enum.TierPro})
	require.NoError(t, err)
	assert.JSONEq(t, `{"tier":"pro"}`, string(data))

	var body struct {
		Tier enum.Tier `json:"tier"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"tier":"standard"}`), &body))
	assert.Equal(t, enum.TierStandard, body.Tier)

	require.Error(t, json.Unmarshal([]byte(`{"tier":"gold"}`), &body))
	assert.False(t, enum.Tier(99).IsATier())
}

func TestStatusTransitions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		status      enum.RequestStatus
		accepts     bool
		cancellable bool
	}{
		{enum.RequestStatusOpen, true, true},
		{enum.RequestStatusInProgress, true, true},
		{enum.RequestStatusPending, false, true},
		{enum.RequestStatusClosed, false, false},
		{enum.RequestStatusCancelled, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.status.String(), func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.accepts, tt.status.AcceptsVerdicts())
			assert.Equal(t, tt.cancellable, tt.status.Cancellable())
		})
	}
}
