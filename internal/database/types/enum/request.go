package enum

// RequestStatus is the lifecycle state of a feedback request.
//
//go:generate go tool enumer -type=RequestStatus -trimprefix=RequestStatus -transform=snake -json -sql
type RequestStatus int

const (
	// RequestStatusOpen means no verdicts have been received yet.
	RequestStatusOpen RequestStatus = iota
	// RequestStatusInProgress means at least one but fewer than the target verdicts arrived.
	RequestStatusInProgress
	// RequestStatusClosed means the target verdict count was reached. Terminal.
	RequestStatusClosed
	// RequestStatusCancelled means the owner cancelled the request. Terminal.
	RequestStatusCancelled
	// RequestStatusPending is a legacy pre-publication state that may still be cancelled.
	RequestStatusPending
)

// AcceptsVerdicts reports whether judgments may still be submitted.
func (s RequestStatus) AcceptsVerdicts() bool {
	return s == RequestStatusOpen || s == RequestStatusInProgress
}

// Cancellable reports whether the owner may still cancel the request.
func (s RequestStatus) Cancellable() bool {
	return s == RequestStatusOpen || s == RequestStatusInProgress || s == RequestStatusPending
}

// Tier is the service level of a request. It determines the judge payout.
//
//go:generate go tool enumer -type=Tier -trimprefix=Tier -transform=snake -json -sql
type Tier int

const (
	TierCommunity Tier = iota
	TierStandard
	TierPro
)
