package settlement

import (
	"math"

	"github.com/robalyx/verdict/internal/setup/config"
)

// CreditGate decides the credit award of a judge who is not in good standing.
type CreditGate struct {
	Policy string
	Factor float64
}

// NewCreditGate creates a CreditGate from the configured policy.
func NewCreditGate(cfg config.Settlement) CreditGate {
	return CreditGate{Policy: cfg.CreditGate, Factor: cfg.ReducedCreditFactor}
}

// Award returns the credits a judge receives. Active judges always get the
// full amount. Zero means the award is skipped.
func (g CreditGate) Award(amount int64, canEarn bool) int64 {
	if canEarn || amount <= 0 {
		return max(amount, 0)
	}

	switch g.Policy {
	case config.CreditGateBlock:
		return 0
	case config.CreditGateReduce:
		return int64(math.Floor(float64(amount) * clampFactor(g.Factor)))
	default:
		return amount
	}
}

// Checks reports whether the policy needs the judge's standing.
func (g CreditGate) Checks() bool {
	return g.Policy == config.CreditGateBlock || g.Policy == config.CreditGateReduce
}

func clampFactor(f float64) float64 {
	return math.Max(0, math.Min(f, 1))
}
