// Package apperr holds the error taxonomy shared by every component.
// Components wrap these sentinels with fmt.Errorf("%w: ...") and callers
// test with errors.Is.
package apperr

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrNotFound          = errors.New("not_found")
	ErrInvalidTransition = errors.New("invalid_transition")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrValidation        = errors.New("validation_error")
	ErrTransientDelivery = errors.New("transient_delivery_failure")
	ErrConfiguration     = errors.New("configuration_error")
	ErrConflict          = errors.New("conflict")
)

// IsUniqueViolation reports whether err is a unique constraint violation on
// postgres (23505) or sqlite.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "constraint failed: unique")
}
