package settlement

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/robalyx/verdict/internal/database/types"
	"github.com/robalyx/verdict/pkg/utils"
)

// Rating bounds of a judgment.
const (
	MinRating = 1
	MaxRating = 10
)

var (
	ErrFeedbackRequired = errors.New("feedback is required")
	ErrFeedbackTooLong  = errors.New("feedback is too long")
	ErrRatingRange      = errors.New("rating must be between 1 and 10")
	ErrRatingRequired   = errors.New("rating is required for requests without options")
	ErrChoiceRequired   = errors.New("choice is required for requests with options")
	ErrChoiceNotAllowed = errors.New("choice is only allowed for requests with options")
	ErrUnknownChoice    = errors.New("choice is not one of the request options")
)

// JudgmentPayload is the judge-provided content of a judgment.
type JudgmentPayload struct {
	Choice       string `json:"choice,omitempty"`
	Rating       *int   `json:"rating,omitempty"`
	Feedback     string `json:"feedback"`
	Strengths    string `json:"strengths,omitempty"`
	Improvements string `json:"improvements,omitempty"`
}

// Normalize trims surrounding whitespace from every text field.
func (p *JudgmentPayload) Normalize() {
	p.Choice = strings.TrimSpace(p.Choice)
	p.Feedback = utils.CompressWhitespacePreserveNewlines(p.Feedback)
	p.Strengths = utils.CompressWhitespacePreserveNewlines(p.Strengths)
	p.Improvements = utils.CompressWhitespacePreserveNewlines(p.Improvements)
}

// Validate checks the payload on its own. maxLength bounds each text field
// in characters.
func (p *JudgmentPayload) Validate(maxLength int) error {
	if p.Feedback == "" {
		return ErrFeedbackRequired
	}

	for name, text := range map[string]string{
		"feedback":     p.Feedback,
		"strengths":    p.Strengths,
		"improvements": p.Improvements,
	} {
		if maxLength > 0 && utf8.RuneCountInString(text) > maxLength {
			return fmt.Errorf("%w: %s exceeds %d characters", ErrFeedbackTooLong, name, maxLength)
		}
	}

	if p.Rating != nil && (*p.Rating < MinRating || *p.Rating > MaxRating) {
		return ErrRatingRange
	}

	return nil
}

// ValidateFor checks the payload against the request it answers.
func (p *JudgmentPayload) ValidateFor(req *types.Request) error {
	if !req.HasOptions() {
		if p.Choice != "" {
			return ErrChoiceNotAllowed
		}
		if p.Rating == nil {
			return ErrRatingRequired
		}
		return nil
	}

	if p.Choice == "" {
		return ErrChoiceRequired
	}
	if !slices.Contains(req.Options, p.Choice) {
		return ErrUnknownChoice
	}
	return nil
}

// judgment builds the judgment row of the payload.
func (p *JudgmentPayload) judgment(req *types.Request) *types.Judgment {
	j := &types.Judgment{
		RequestID:    req.ID,
		Rating:       p.Rating,
		Feedback:     p.Feedback,
		Strengths:    p.Strengths,
		Improvements: p.Improvements,
	}
	if p.Choice != "" {
		choice := p.Choice
		j.Choice = &choice
	}
	return j
}
