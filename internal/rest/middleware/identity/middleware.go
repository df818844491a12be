// Package identity reads the caller id set by the upstream auth gateway.
package identity

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/uptrace/bunrouter"
	"go.uber.org/zap"
)

// DefaultHeader carries the authenticated user id.
const DefaultHeader = "X-User-ID"

type userIDCtxKey struct{}

// FromContext returns the caller id stored by the middleware.
func FromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(userIDCtxKey{}).(uuid.UUID)
	return id, ok
}

// WithUserID stores a caller id in the context.
func WithUserID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, userIDCtxKey{}, id)
}

// Middleware rejects calls without a valid identity header.
type Middleware struct {
	header string
	logger *zap.Logger
}

// New creates a new identity middleware. An empty header uses DefaultHeader.
func New(header string, logger *zap.Logger) *Middleware {
	if header == "" {
		header = DefaultHeader
	}
	return &Middleware{
		header: header,
		logger: logger.Named("identity"),
	}
}

// Header returns the header the middleware reads.
func (m *Middleware) Header() string {
	return m.header
}

// AsRESTMiddleware returns a bunrouter middleware handler.
func (m *Middleware) AsRESTMiddleware(next bunrouter.HandlerFunc) bunrouter.HandlerFunc {
	return func(w http.ResponseWriter, req bunrouter.Request) error {
		raw := req.Header.Get(m.header)
		if raw == "" {
			http.Error(w, "missing "+m.header+" header", http.StatusUnauthorized)
			return nil
		}

		id, err := uuid.Parse(raw)
		if err != nil || id == uuid.Nil {
			m.logger.Debug("Rejected malformed identity", zap.String("value", raw))
			http.Error(w, "invalid "+m.header+" header", http.StatusUnauthorized)
			return nil
		}

		return next(w, req.WithContext(WithUserID(req.Context(), id)))
	}
}
