package telemetry

import (
	"context"

	"github.com/robalyx/verdict/internal/setup/config"
	"github.com/uptrace/uptrace-go/uptrace"
	"go.uber.org/zap"
)

// ConfigureTracing exports spans to Uptrace when telemetry is enabled.
// The returned function flushes pending spans and is safe to call when
// tracing is disabled.
func ConfigureTracing(cfg *config.Telemetry, version string, logger *zap.Logger) func(context.Context) error {
	if !cfg.Enabled || cfg.DSN == "" {
		return func(context.Context) error { return nil }
	}

	uptrace.ConfigureOpentelemetry(
		uptrace.WithDSN(cfg.DSN),
		uptrace.WithServiceName(cfg.ServiceName),
		uptrace.WithServiceVersion(version),
		uptrace.WithDeploymentEnvironment(cfg.Environment),
	)

	logger.Info("Configured tracing",
		zap.String("service", cfg.ServiceName),
		zap.String("environment", cfg.Environment))

	return uptrace.Shutdown
}
