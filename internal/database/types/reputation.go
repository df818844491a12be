package types

import (
	"time"

	"github.com/google/uuid"
	"github.com/robalyx/verdict/internal/database/types/enum"
	"github.com/uptrace/bun"
)

// ReviewerReputation is the persisted trust record of a judge.
type ReviewerReputation struct {
	JudgeID            uuid.UUID           `bun:",pk,type:uuid"                      json:"judgeId"`
	ReputationScore    float64             `bun:",notnull"                           json:"reputationScore"`
	ReviewerStatus     enum.ReviewerStatus `bun:",notnull,type:text"                 json:"reviewerStatus"`
	TotalReviews       int                 `bun:",notnull,default:0"                 json:"totalReviews"`
	ConsensusRate      float64             `bun:",notnull"                           json:"consensusRate"`
	HelpfulnessAverage float64             `bun:",notnull"                           json:"helpfulnessAverage"`
	QualityAverage     float64             `bun:",notnull"                           json:"qualityAverage"`
	LastCalibration    *time.Time          `bun:",nullzero"                          json:"lastCalibration,omitempty"`
	UpdatedAt          time.Time           `bun:",notnull,default:current_timestamp" json:"updatedAt"`
}

// ReputationHistory records a material change of a judge's reputation.
type ReputationHistory struct {
	bun.BaseModel `bun:"table:reputation_history"`

	ID           int64               `bun:",pk,autoincrement"                  json:"id"`
	JudgeID      uuid.UUID           `bun:",notnull,type:uuid"                 json:"judgeId"`
	OldScore     float64             `bun:",notnull"                           json:"oldScore"`
	NewScore     float64             `bun:",notnull"                           json:"newScore"`
	OldStatus    enum.ReviewerStatus `bun:",notnull,type:text"                 json:"oldStatus"`
	NewStatus    enum.ReviewerStatus `bun:",notnull,type:text"                 json:"newStatus"`
	TriggerEvent string              `bun:",notnull"                           json:"triggerEvent"`
	CreatedAt    time.Time           `bun:",notnull,default:current_timestamp" json:"createdAt"`
}

// JudgmentRating is a single 1-5 rating attached to a judgment.
type JudgmentRating struct {
	ID         int64           `bun:",pk,autoincrement"                  json:"id"`
	JudgmentID uuid.UUID       `bun:",notnull,type:uuid"                 json:"judgmentId"`
	JudgeID    uuid.UUID       `bun:",notnull,type:uuid"                 json:"judgeId"`
	RaterID    uuid.UUID       `bun:",notnull,type:uuid"                 json:"raterId"`
	Kind       enum.RatingKind `bun:",notnull,type:text"                 json:"kind"`
	Score      float64         `bun:",notnull"                           json:"score"`
	CreatedAt  time.Time       `bun:",notnull,default:current_timestamp" json:"createdAt"`
}

// JudgeQualification marks a judge as allowed to submit judgments.
type JudgeQualification struct {
	JudgeID     uuid.UUID  `bun:",pk,type:uuid"                      json:"judgeId"`
	QualifiedAt time.Time  `bun:",notnull,default:current_timestamp" json:"qualifiedAt"`
	RevokedAt   *time.Time `bun:",nullzero"                          json:"revokedAt,omitempty"`
}

// Active reports whether the qualification is currently in force.
func (q *JudgeQualification) Active() bool {
	return q.RevokedAt == nil
}
