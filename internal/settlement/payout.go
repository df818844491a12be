package settlement

import (
	"github.com/robalyx/verdict/internal/database/types/enum"
)

// PayoutTable maps a request tier to the judge payout in cents.
type PayoutTable map[enum.Tier]int64

// NewPayoutTable builds a PayoutTable from configured tier names.
// Unknown tier names are ignored.
func NewPayoutTable(payouts map[string]int64) PayoutTable {
	table := make(PayoutTable, len(payouts))
	for name, cents := range payouts {
		tier, err := enum.TierString(name)
		if err == nil && cents > 0 {
			table[tier] = cents
		}
	}
	return table
}

// Amount returns the payout of a tier. Unrecognized tiers are paid the
// community rate.
func (t PayoutTable) Amount(tier enum.Tier) int64 {
	if cents, ok := t[tier]; ok {
		return cents
	}
	return t[enum.TierCommunity]
}
