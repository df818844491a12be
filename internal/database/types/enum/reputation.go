package enum

// ReviewerStatus gates a judge's eligibility to earn credits.
//
//go:generate go tool enumer -type=ReviewerStatus -trimprefix=ReviewerStatus -transform=snake -json -sql
type ReviewerStatus int

const (
	ReviewerStatusActive ReviewerStatus = iota
	ReviewerStatusProbation
	ReviewerStatusCalibrationRequired
)

// RatingKind distinguishes the two rating histories kept per judge.
//
//go:generate go tool enumer -type=RatingKind -trimprefix=RatingKind -transform=snake -json -sql
type RatingKind int

const (
	// RatingKindHelpfulness is a requester's 1-5 rating of a judgment.
	RatingKindHelpfulness RatingKind = iota
	// RatingKindQuality is the automatic 1-5 score derived from the feedback text.
	RatingKindQuality
)
