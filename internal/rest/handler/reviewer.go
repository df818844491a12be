package handler

import (
	"net/http"

	"github.com/robalyx/verdict/internal/reputation"
	"github.com/robalyx/verdict/internal/setup"
	"github.com/uptrace/bunrouter"
	"go.uber.org/zap"
)

// ReviewerHandler serves reviewer reputation.
type ReviewerHandler struct {
	reputation *reputation.Engine
	logger     *zap.Logger
}

// NewReviewerHandler creates a new reviewer handler.
func NewReviewerHandler(services *setup.Services, logger *zap.Logger) *ReviewerHandler {
	return &ReviewerHandler{
		reputation: services.Reputation,
		logger:     logger.Named("reviewer_handler"),
	}
}

// GetReputation returns a judge's reputation. Judges without history get
// the default record.
func (h *ReviewerHandler) GetReputation(w http.ResponseWriter, req bunrouter.Request) error {
	judgeID, err := parseID(req.Param("id"), "reviewer id")
	if err != nil {
		return writeError(w, h.logger, err)
	}

	rep, err := h.reputation.GetReviewerReputation(req.Context(), judgeID)
	if err != nil {
		return writeError(w, h.logger, err)
	}

	return writeJSON(w, http.StatusOK, rep)
}
