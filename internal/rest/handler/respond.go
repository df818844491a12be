package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/robalyx/verdict/internal/apperr"
	restTypes "github.com/robalyx/verdict/internal/rest/types"
	"go.uber.org/zap"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 64 << 10

var (
	ErrEmptyBody   = errors.New("request body is required")
	ErrInvalidBody = errors.New("request body is not valid JSON")
	ErrInvalidID   = errors.New("invalid id")
)

// StatusOf maps a domain error to its HTTP status.
func StatusOf(err error) int {
	switch apperr.KindOf(err) {
	case apperr.KindValidation:
		return http.StatusBadRequest
	case apperr.KindAuthorization:
		return http.StatusForbidden
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindConflict:
		return http.StatusConflict
	case apperr.KindPaymentProcessing:
		return http.StatusServiceUnavailable
	case apperr.KindPayProtected, apperr.KindDegraded, apperr.KindUnknown:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) error {
	data, err := sonic.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode response: %w", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err = w.Write(data)
	return err
}

func writeError(w http.ResponseWriter, logger *zap.Logger, err error) error {
	kind := apperr.KindOf(err)
	status := StatusOf(err)

	if kind == apperr.KindUnknown {
		logger.Error("Unhandled error", zap.Error(err))
	} else if status >= http.StatusInternalServerError {
		logger.Warn("Request failed",
			zap.Error(err),
			zap.String("kind", kind.String()))
	}

	return writeJSON(w, status, restTypes.ErrorResponse{
		Error:     apperr.MessageOf(err),
		Kind:      kind.String(),
		Retryable: kind.Retryable(),
	})
}

func decodeBody(r *http.Request, v any) error {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return apperr.Wrap(apperr.KindValidation, "rest.decode", "failed to read request body", err)
	}
	if len(data) == 0 {
		return apperr.Wrap(apperr.KindValidation, "rest.decode", ErrEmptyBody.Error(), ErrEmptyBody)
	}
	if err := sonic.Unmarshal(data, v); err != nil {
		return apperr.Wrap(apperr.KindValidation, "rest.decode", ErrInvalidBody.Error(), err)
	}
	return nil
}

func parseID(raw, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, apperr.Wrap(apperr.KindValidation, "rest.param", "invalid "+name, ErrInvalidID)
	}
	return id, nil
}
