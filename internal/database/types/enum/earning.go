package enum

// PayoutStatus tracks whether an earning can be paid out.
//
//go:generate go tool enumer -type=PayoutStatus -trimprefix=PayoutStatus -transform=snake -json -sql
type PayoutStatus int

const (
	// PayoutStatusPending is the initial state of every earning.
	PayoutStatusPending PayoutStatus = iota
	// PayoutStatusAvailable means the payout subsystem may pay the earning.
	PayoutStatusAvailable
	// PayoutStatusNeedsReview means the judgment write failed after the earning
	// was recorded and an operator must reconcile it.
	PayoutStatusNeedsReview
)
