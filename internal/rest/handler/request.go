package handler

import (
	"errors"
	"net/http"

	"github.com/robalyx/verdict/internal/apperr"
	"github.com/robalyx/verdict/internal/database/types"
	"github.com/robalyx/verdict/internal/ledger"
	"github.com/robalyx/verdict/internal/rest/middleware/identity"
	restTypes "github.com/robalyx/verdict/internal/rest/types"
	"github.com/robalyx/verdict/internal/setup"
	"github.com/uptrace/bunrouter"
	"go.uber.org/zap"
)

// activityLimit caps the activity entries returned per request.
const activityLimit = 100

// RequestHandler handles request lifecycle endpoints.
type RequestHandler struct {
	requests *ledger.RequestLedger
	activity setup.ActivityStore
	logger   *zap.Logger
}

// NewRequestHandler creates a new request handler.
func NewRequestHandler(services *setup.Services, logger *zap.Logger) *RequestHandler {
	return &RequestHandler{
		requests: services.Requests,
		activity: services.Activity,
		logger:   logger.Named("request_handler"),
	}
}

// CreateRequest charges the caller and opens a new request.
func (h *RequestHandler) CreateRequest(w http.ResponseWriter, req bunrouter.Request) error {
	ownerID, _ := identity.FromContext(req.Context())

	var body restTypes.CreateRequestBody
	if err := decodeBody(req.Request, &body); err != nil {
		return writeError(w, h.logger, err)
	}
	if body.Tier == nil {
		return writeError(w, h.logger, apperr.Validation("request.create", "tier is required"))
	}

	created, err := h.requests.Create(req.Context(), ledger.NewRequest{
		OwnerID:            ownerID,
		Tier:               *body.Tier,
		TargetVerdictCount: body.TargetVerdictCount,
		Options:            body.Options,
	})
	if err != nil {
		return writeError(w, h.logger, err)
	}

	return writeJSON(w, http.StatusCreated, created)
}

// GetRequest returns a request, healing its verdict counter when needed.
func (h *RequestHandler) GetRequest(w http.ResponseWriter, req bunrouter.Request) error {
	requestID, err := parseID(req.Param("id"), "request id")
	if err != nil {
		return writeError(w, h.logger, err)
	}

	found, err := h.requests.Get(req.Context(), requestID)
	if err != nil {
		return writeError(w, h.logger, err)
	}

	return writeJSON(w, http.StatusOK, found)
}

// CancelRequest cancels the caller's request and refunds undelivered verdicts.
func (h *RequestHandler) CancelRequest(w http.ResponseWriter, req bunrouter.Request) error {
	callerID, _ := identity.FromContext(req.Context())

	requestID, err := parseID(req.Param("id"), "request id")
	if err != nil {
		return writeError(w, h.logger, err)
	}

	// The reason is optional, so an empty body is accepted
	var body restTypes.CancelRequestBody
	if err := decodeBody(req.Request, &body); err != nil && !errors.Is(err, ErrEmptyBody) {
		return writeError(w, h.logger, err)
	}

	result, err := h.requests.Cancel(req.Context(), requestID, callerID, body.Reason)
	if err != nil {
		return writeError(w, h.logger, err)
	}

	return writeJSON(w, http.StatusOK, result)
}

// GetActivity returns the audit log of a request to its owner.
func (h *RequestHandler) GetActivity(w http.ResponseWriter, req bunrouter.Request) error {
	callerID, _ := identity.FromContext(req.Context())

	requestID, err := parseID(req.Param("id"), "request id")
	if err != nil {
		return writeError(w, h.logger, err)
	}

	found, err := h.requests.Get(req.Context(), requestID)
	if err != nil {
		return writeError(w, h.logger, err)
	}
	if found.OwnerID != callerID {
		return writeError(w, h.logger,
			apperr.Authorization("request.activity", "only the request owner can read its activity"))
	}

	logs, err := h.activity.GetRequestActivity(req.Context(), requestID, activityLimit)
	if err != nil {
		return writeError(w, h.logger, err)
	}
	if logs == nil {
		logs = []*types.ActivityLog{}
	}

	return writeJSON(w, http.StatusOK, logs)
}
