package commands

import (
	"errors"

	"github.com/robalyx/verdict/internal/database"
	"github.com/robalyx/verdict/internal/setup"
	"github.com/uptrace/bun/migrate"
	"go.uber.org/zap"
)

var (
	ErrNameRequired       = errors.New("NAME argument required")
	ErrUserIDRequired     = errors.New("USER_ID argument required")
	ErrJudgmentIDRequired = errors.New("JUDGMENT_ID argument required")
	ErrAmountRequired     = errors.New("AMOUNT argument required")
	ErrInvalidAmount      = errors.New("AMOUNT must be a positive integer")
	ErrInvalidLimit       = errors.New("--limit must be positive")
	ErrInvalidIdentity    = errors.New("invalid id")
)

// CLIDependencies holds the common dependencies needed by CLI commands.
type CLIDependencies struct {
	DB       database.Client
	Migrator *migrate.Migrator
	Services *setup.Services
	Logger   *zap.Logger
}
