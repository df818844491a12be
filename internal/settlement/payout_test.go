package settlement_test

import (
	"testing"

	"github.com/robalyx/verdict/internal/database/types/enum"
	"github.com/robalyx/verdict/internal/settlement"
	"github.com/robalyx/verdict/internal/setup/config"
	"github.com/stretchr/testify/assert"
)

func TestPayoutTable(t *testing.T) {
	t.Parallel()

	table := settlement.NewPayoutTable(map[string]int64{
		"community": 10,
		"standard":  25,
		"pro":       50,
		"platinum":  500,
	})

	assert.Equal(t, int64(10), table.Amount(enum.TierCommunity))
	assert.Equal(t, int64(25), table.Amount(enum.TierStandard))
	assert.Equal(t, int64(50), table.Amount(enum.TierPro))
	assert.Equal(t, int64(10), table.Amount(enum.Tier(99)), "unknown tiers fall back to community")
}

func TestCreditGateAward(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		gate    settlement.CreditGate
		canEarn bool
		want    int64
	}{
		{name: "active judge always paid", gate: settlement.CreditGate{Policy: config.CreditGateBlock}, canEarn: true, want: 10},
		{name: "allow ignores standing", gate: settlement.CreditGate{Policy: config.CreditGateAllow}, want: 10},
		{name: "block", gate: settlement.CreditGate{Policy: config.CreditGateBlock}, want: 0},
		{name: "reduce", gate: settlement.CreditGate{Policy: config.CreditGateReduce, Factor: 0.25}, want: 2},
		{name: "reduce clamps factor", gate: settlement.CreditGate{Policy: config.CreditGateReduce, Factor: 3}, want: 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.gate.Award(10, tt.canEarn))
		})
	}

	assert.False(t, settlement.CreditGate{Policy: config.CreditGateAllow}.Checks())
	assert.True(t, settlement.CreditGate{Policy: config.CreditGateReduce}.Checks())
}
