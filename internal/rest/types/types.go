package types

import (
	"github.com/robalyx/verdict/internal/database/types/enum"
)

// CreateRequestBody is the body of POST /v1/requests.
type CreateRequestBody struct {
	Tier               *enum.Tier `json:"tier"`
	TargetVerdictCount int        `json:"targetVerdictCount"`
	Options            []string   `json:"options,omitempty"`
}

// CancelRequestBody is the body of POST /v1/requests/:id/cancel.
type CancelRequestBody struct {
	Reason string `json:"reason,omitempty"`
}

// RateJudgmentBody is the body of POST /v1/judgments/:id/rating.
type RateJudgmentBody struct {
	Helpfulness int `json:"helpfulness"`
}

// ErrorResponse is returned for every failed call.
type ErrorResponse struct {
	Error     string `json:"error"`
	Kind      string `json:"kind"`
	Retryable bool   `json:"retryable,omitempty"`
}
