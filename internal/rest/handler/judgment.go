package handler

import (
	"net/http"

	"github.com/robalyx/verdict/internal/reputation"
	"github.com/robalyx/verdict/internal/rest/middleware/identity"
	restTypes "github.com/robalyx/verdict/internal/rest/types"
	"github.com/robalyx/verdict/internal/settlement"
	"github.com/robalyx/verdict/internal/setup"
	"github.com/uptrace/bunrouter"
	"go.uber.org/zap"
)

// JudgmentHandler handles judgment submission and rating.
type JudgmentHandler struct {
	pipeline   *settlement.Pipeline
	reputation *reputation.Engine
	logger     *zap.Logger
}

// NewJudgmentHandler creates a new judgment handler.
func NewJudgmentHandler(services *setup.Services, logger *zap.Logger) *JudgmentHandler {
	return &JudgmentHandler{
		pipeline:   services.Pipeline,
		reputation: services.Reputation,
		logger:     logger.Named("judgment_handler"),
	}
}

// SubmitJudgment settles the caller's judgment on a request.
func (h *JudgmentHandler) SubmitJudgment(w http.ResponseWriter, req bunrouter.Request) error {
	judgeID, _ := identity.FromContext(req.Context())

	requestID, err := parseID(req.Param("id"), "request id")
	if err != nil {
		return writeError(w, h.logger, err)
	}

	var payload settlement.JudgmentPayload
	if err := decodeBody(req.Request, &payload); err != nil {
		return writeError(w, h.logger, err)
	}

	receipt, err := h.pipeline.SubmitJudgment(req.Context(), requestID, judgeID, payload)
	if err != nil {
		return writeError(w, h.logger, err)
	}

	return writeJSON(w, http.StatusCreated, receipt)
}

// RateJudgment records the request owner's helpfulness rating.
func (h *JudgmentHandler) RateJudgment(w http.ResponseWriter, req bunrouter.Request) error {
	raterID, _ := identity.FromContext(req.Context())

	judgmentID, err := parseID(req.Param("id"), "judgment id")
	if err != nil {
		return writeError(w, h.logger, err)
	}

	var body restTypes.RateJudgmentBody
	if err := decodeBody(req.Request, &body); err != nil {
		return writeError(w, h.logger, err)
	}

	rep, err := h.reputation.RateJudgment(req.Context(), judgmentID, raterID, body.Helpfulness)
	if err != nil {
		return writeError(w, h.logger, err)
	}

	return writeJSON(w, http.StatusOK, rep)
}
