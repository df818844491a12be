package setup

import "errors"

// ErrPendingMigrations is returned when the database schema is behind and
// the migrations were not applied.
var ErrPendingMigrations = errors.New("database migrations are pending")
