// Package rest serves the HTTP API over the settlement services.
package rest

import (
	"context"
	"net/http"
	"time"

	"github.com/klauspost/compress/gzhttp"
	"github.com/robalyx/verdict/internal/rest/handler"
	"github.com/robalyx/verdict/internal/rest/middleware/identity"
	"github.com/robalyx/verdict/internal/rest/middleware/ratelimit"
	"github.com/robalyx/verdict/internal/setup"
	"github.com/robalyx/verdict/internal/setup/config"
	"github.com/uptrace/bunrouter"
	"go.uber.org/zap"
)

// Server implements the REST API service.
type Server struct {
	handler         http.Handler
	requestHandler  *handler.RequestHandler
	judgmentHandler *handler.JudgmentHandler
	reviewerHandler *handler.ReviewerHandler
	rateLimiter     *ratelimit.Middleware
}

// ReadyFunc reports whether the server's dependencies are reachable.
type ReadyFunc func(ctx context.Context) error

// NewServer creates a new REST API server. ready may be nil.
func NewServer(services *setup.Services, cfg *config.APIConfig, ready ReadyFunc, logger *zap.Logger) *Server {
	logger = logger.Named("rest")

	// Create server instance with handlers
	server := &Server{
		requestHandler:  handler.NewRequestHandler(services, logger),
		judgmentHandler: handler.NewJudgmentHandler(services, logger),
		reviewerHandler: handler.NewReviewerHandler(services, logger),
		rateLimiter:     ratelimit.New(cfg.RateLimit, cfg.BurstLimit, logger),
	}

	// Create middleware instances
	identityMiddleware := identity.New(cfg.IdentityHeader, logger)
	timeout := time.Duration(cfg.RequestTimeout) * time.Millisecond

	// Create base router
	router := bunrouter.New()

	router.GET("/healthz", func(w http.ResponseWriter, req bunrouter.Request) error {
		if ready != nil {
			if err := ready(req.Context()); err != nil {
				logger.Warn("Health check failed", zap.Error(err))
				http.Error(w, "unavailable", http.StatusServiceUnavailable)
				return nil
			}
		}
		w.WriteHeader(http.StatusNoContent)
		return nil
	})

	// Create API routes group
	router.Use(
		timeoutMiddleware(timeout),
		identityMiddleware.AsRESTMiddleware,
		server.rateLimiter.AsRESTMiddleware,
	).WithGroup("/v1", func(g *bunrouter.Group) {
		g.POST("/requests", server.requestHandler.CreateRequest)
		g.GET("/requests/:id", server.requestHandler.GetRequest)
		g.GET("/requests/:id/activity", server.requestHandler.GetActivity)
		g.POST("/requests/:id/cancel", server.requestHandler.CancelRequest)
		g.POST("/requests/:id/judgments", server.judgmentHandler.SubmitJudgment)
		g.POST("/judgments/:id/rating", server.judgmentHandler.RateJudgment)
		g.GET("/reviewers/:id/reputation", server.reviewerHandler.GetReputation)
	})

	// Add gzip compression
	server.handler = gzhttp.GzipHandler(router)

	return server
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// Close releases the server's background resources.
func (s *Server) Close() {
	s.rateLimiter.Close()
}

// timeoutMiddleware bounds every call's context. A non-positive timeout is a no-op.
func timeoutMiddleware(timeout time.Duration) bunrouter.MiddlewareFunc {
	return func(next bunrouter.HandlerFunc) bunrouter.HandlerFunc {
		if timeout <= 0 {
			return next
		}
		return func(w http.ResponseWriter, req bunrouter.Request) error {
			ctx, cancel := context.WithTimeout(req.Context(), timeout)
			defer cancel()
			return next(w, req.WithContext(ctx))
		}
	}
}
