package enum

// CreditTransactionType is the business reason for a credit ledger entry.
//
//go:generate go tool enumer -type=CreditTransactionType -trimprefix=CreditTransaction -transform=snake -json -sql
type CreditTransactionType int

const (
	// CreditTransactionCharge debits a requester when a request is created.
	CreditTransactionCharge CreditTransactionType = iota
	// CreditTransactionRefund credits a requester for undelivered verdicts.
	CreditTransactionRefund
	// CreditTransactionJudgmentAward credits a judge for a completed judgment.
	CreditTransactionJudgmentAward
	// CreditTransactionAdjustment is a manual correction.
	CreditTransactionAdjustment
)
