package models

import (
	"errors"

	"github.com/uptrace/bun/driver/pgdriver"
)

// uniqueViolation is the PostgreSQL error code for unique_violation.
const uniqueViolation = "23505"

// isUniqueViolation reports whether err was caused by a unique constraint.
func isUniqueViolation(err error) bool {
	var pgerr pgdriver.Error
	if errors.As(err, &pgerr) {
		return pgerr.Field('C') == uniqueViolation
	}
	var pgerrPtr *pgdriver.Error
	if errors.As(err, &pgerrPtr) {
		return pgerrPtr.Field('C') == uniqueViolation
	}
	return false
}
