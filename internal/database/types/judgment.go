package types

import (
	"time"

	"github.com/google/uuid"
)

// PositiveRatingThreshold is the minimum rating treated as a positive verdict.
const PositiveRatingThreshold = 6

// Judgment is a judge's structured verdict on a request.
type Judgment struct {
	ID           uuid.UUID `bun:",pk,type:uuid"                      json:"id"`
	RequestID    uuid.UUID `bun:",notnull,type:uuid"                 json:"requestId"`
	JudgeID      uuid.UUID `bun:",notnull,type:uuid"                 json:"judgeId"`
	Choice       *string   `bun:",nullzero"                          json:"choice,omitempty"`
	Rating       *int      `bun:",nullzero"                          json:"rating,omitempty"`
	Feedback     string    `bun:",notnull"                           json:"feedback"`
	Strengths    string    `bun:",notnull,default:''"                json:"strengths,omitempty"`
	Improvements string    `bun:",notnull,default:''"                json:"improvements,omitempty"`
	IsRemoved    bool      `bun:",notnull,default:false"             json:"isRemoved"`
	CreatedAt    time.Time `bun:",notnull,default:current_timestamp" json:"createdAt"`
}

// Positive reports the binary verdict of a rated judgment.
// The second return value is false when the judgment carries no rating.
func (j *Judgment) Positive() (bool, bool) {
	if j.Rating == nil {
		return false, false
	}
	return *j.Rating >= PositiveRatingThreshold, true
}

// ChoiceTally is the vote count of a single option.
type ChoiceTally struct {
	Choice        string    `bun:"choice"`
	Votes         int       `bun:"votes"`
	FirstChosenAt time.Time `bun:"first_chosen_at"`
}

// WinningChoice picks the most chosen option, breaking ties by the earliest vote.
func WinningChoice(tallies []ChoiceTally) (string, bool) {
	var best *ChoiceTally
	for i := range tallies {
		t := &tallies[i]
		if best == nil ||
			t.Votes > best.Votes ||
			(t.Votes == best.Votes && t.FirstChosenAt.Before(best.FirstChosenAt)) {
			best = t
		}
	}
	if best == nil {
		return "", false
	}
	return best.Choice, true
}
