package types

import "errors"

var (
	// ErrRequestNotFound indicates the request does not exist.
	ErrRequestNotFound = errors.New("request not found")
	// ErrJudgmentNotFound indicates the judgment does not exist.
	ErrJudgmentNotFound = errors.New("judgment not found")
	// ErrJudgmentExists indicates the judge already submitted a judgment for the request.
	ErrJudgmentExists = errors.New("judgment already exists")
	// ErrEarningNotFound indicates no earning matched the lookup.
	ErrEarningNotFound = errors.New("earning not found")
	// ErrRequestNotWritable indicates a conditional update matched no row
	// because the request is no longer in an accepting state.
	ErrRequestNotWritable = errors.New("request not in a writable state")
	// ErrInsufficientCredits indicates a charge would overdraw the balance.
	ErrInsufficientCredits = errors.New("insufficient credits")
	// ErrDuplicateTransaction indicates the ledger entry was already applied.
	ErrDuplicateTransaction = errors.New("credit transaction already applied")
	// ErrRatingExists indicates the rater already rated the judgment.
	ErrRatingExists = errors.New("rating already exists")
	// ErrReputationNotFound indicates the judge has no persisted reputation yet.
	ErrReputationNotFound = errors.New("reputation not found")
)
