package enum

// ActivityType identifies the action recorded in the audit log.
//
//go:generate go tool enumer -type=ActivityType -trimprefix=ActivityType -transform=snake -json -sql
type ActivityType int

const (
	ActivityTypeRequestCreated ActivityType = iota
	ActivityTypeRequestCancelled
	ActivityTypeRequestClosed
	ActivityTypeJudgmentSubmitted
	ActivityTypeJudgmentRated
	ActivityTypeRefundIssued
	ActivityTypeRefundPending
	ActivityTypeCreditsAwarded
)
