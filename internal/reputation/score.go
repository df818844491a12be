package reputation

import (
	"github.com/google/uuid"
	"github.com/robalyx/verdict/internal/database/types"
	"github.com/robalyx/verdict/internal/database/types/enum"
)

// Defaults for judges without history.
const (
	DefaultAverage       = 5.0
	DefaultConsensusRate = 1.0
	MinScore             = 1.0
	MaxScore             = 5.0
)

// Score weights.
const (
	helpfulnessWeight = 0.5
	consensusWeight   = 0.3
	qualityWeight     = 0.2
)

// Recency weight of the oldest rating. The newest always weighs 1.0.
const oldestWeight = 0.5

// Thresholds configure the status gates.
type Thresholds struct {
	GracePeriodReviews   int
	CalibrationThreshold float64
	ProbationThreshold   float64
	HistoryDelta         float64
}

// DefaultThresholds returns the standard status gates.
func DefaultThresholds() Thresholds {
	return Thresholds{
		GracePeriodReviews:   10,
		CalibrationThreshold: 2.0,
		ProbationThreshold:   3.0,
		HistoryDelta:         0.1,
	}
}

// Status derives the reviewer status from a score. Judges inside the grace
// period are always active.
func (t Thresholds) Status(score float64, totalReviews int) enum.ReviewerStatus {
	switch {
	case totalReviews < t.GracePeriodReviews:
		return enum.ReviewerStatusActive
	case score < t.CalibrationThreshold:
		return enum.ReviewerStatusCalibrationRequired
	case score < t.ProbationThreshold:
		return enum.ReviewerStatusProbation
	default:
		return enum.ReviewerStatusActive
	}
}

// Score blends the three signals into a 1 to 5 reputation score.
func Score(helpfulness, consensusRate, quality float64) float64 {
	score := helpfulness*helpfulnessWeight +
		(consensusRate*MaxScore)*consensusWeight +
		quality*qualityWeight
	return clamp(score, MinScore, MaxScore)
}

// RecencyWeightedAverage averages values ordered oldest first, weighting them
// linearly from 0.5 for the oldest to 1.0 for the newest. Returns def when
// there are no values.
func RecencyWeightedAverage(values []float64, def float64) float64 {
	n := len(values)
	if n == 0 {
		return def
	}
	if n == 1 {
		return values[0]
	}

	var sum, weights float64
	for i, v := range values {
		w := oldestWeight + (1-oldestWeight)*float64(i)/float64(n-1)
		sum += v * w
		weights += w
	}
	return sum / weights
}

// ConsensusRate is the share of the judge's verdicts that agree with the
// majority verdict on the same request. Requests with fewer than two rated
// judgments or a tied vote are not comparable. Returns 1.0 when nothing is
// comparable.
func ConsensusRate(judgeID uuid.UUID, judgments []*types.Judgment) float64 {
	type tally struct {
		positive, negative int
		own                *bool
	}

	byRequest := make(map[uuid.UUID]*tally)
	for _, j := range judgments {
		if j.IsRemoved {
			continue
		}
		positive, rated := j.Positive()
		if !rated {
			continue
		}

		t, ok := byRequest[j.RequestID]
		if !ok {
			t = &tally{}
			byRequest[j.RequestID] = t
		}
		if positive {
			t.positive++
		} else {
			t.negative++
		}
		if j.JudgeID == judgeID {
			t.own = &positive
		}
	}

	var matches, comparisons int
	for _, t := range byRequest {
		if t.own == nil || t.positive+t.negative < 2 || t.positive == t.negative {
			continue
		}
		comparisons++
		if *t.own == (t.positive > t.negative) {
			matches++
		}
	}

	if comparisons == 0 {
		return DefaultConsensusRate
	}
	return float64(matches) / float64(comparisons)
}
