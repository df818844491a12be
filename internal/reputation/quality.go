package reputation

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
)

// Length band of the ideal response, in characters.
const (
	idealMinLength  = 50
	idealMaxLength  = 300
	lengthTaperSpan = 700
	lengthScoreMin  = 0.3
)

// Matches needed for a full specificity score.
const specificityCap = 3

var (
	// specificityWords signal concrete suggestions or reasoning.
	specificityWords = wordSet(
		"because", "since", "therefore", "reason", "example", "instance", "specifically",
		"suggest", "recommend", "consider", "try", "instead", "should", "could", "improve",
		"change", "adjust", "add", "remove", "replace",
	)

	// constructiveWords signal feedback framed as advice.
	constructiveWords = wordSet(
		"consider", "suggest", "recommend", "try", "perhaps", "maybe", "might",
		"could", "instead", "improve", "better",
	)

	positiveWords = wordSet(
		"good", "great", "excellent", "nice", "strong", "clear", "love", "like",
		"effective", "beautiful", "helpful", "well", "solid", "impressive",
	)

	negativeWords = wordSet(
		"bad", "poor", "weak", "ugly", "wrong", "confusing", "boring", "hate",
		"terrible", "awful", "unclear", "messy", "sloppy", "worst",
	)
)

// QualityAnalysis scores a feedback text on a 0 to 1 scale.
type QualityAnalysis struct {
	Length      float64 `json:"length"`
	Specificity float64 `json:"specificity"`
	Sentiment   float64 `json:"sentiment"`
	Combined    float64 `json:"combined"`
}

// Rating maps the combined score onto the 1 to 5 rating scale.
func (q QualityAnalysis) Rating() float64 {
	return 1 + 4*q.Combined
}

// AnalyzeResponseQuality scores the length, specificity and sentiment of a
// feedback text.
func AnalyzeResponseQuality(text string) QualityAnalysis {
	text = strings.TrimSpace(text)
	words := tokenize(text)

	var specific, constructive, positive, negative int
	for _, word := range words {
		if _, ok := specificityWords[word]; ok {
			specific++
		}
		if _, ok := constructiveWords[word]; ok {
			constructive++
		}
		if _, ok := positiveWords[word]; ok {
			positive++
		}
		if _, ok := negativeWords[word]; ok {
			negative++
		}
	}

	q := QualityAnalysis{
		Length:      lengthScore(utf8.RuneCountInString(text)),
		Specificity: min(float64(specific)/specificityCap, 1),
		Sentiment:   sentimentScore(constructive > 0, positive, negative),
	}
	q.Combined = 0.3*q.Length + 0.4*q.Specificity + 0.3*q.Sentiment
	return q
}

func lengthScore(n int) float64 {
	switch {
	case n <= 0:
		return 0
	case n < idealMinLength:
		return float64(n) / idealMinLength
	case n <= idealMaxLength:
		return 1
	default:
		return max(lengthScoreMin, 1-float64(n-idealMaxLength)/lengthTaperSpan)
	}
}

func sentimentScore(constructive bool, positive, negative int) float64 {
	score := 0.5
	if constructive {
		score += 0.2
	}
	if surplus := positive - negative; surplus > 0 {
		score += min(0.1*float64(surplus), 0.3)
	}
	if negative > positive && !constructive {
		score -= 0.2
	}
	return clamp(score, 0, 1)
}

// tokenize case-folds text and splits it into words. A Caser is stateful
// so a fresh one is used per call.
func tokenize(text string) []string {
	return strings.FieldsFunc(cases.Fold().String(text), func(r rune) bool {
		return !unicode.IsLetter(r) && r != '\''
	})
}

func wordSet(words ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

func clamp(v, lo, hi float64) float64 {
	return max(lo, min(v, hi))
}
