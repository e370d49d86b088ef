package postgres

import (
	"errors"
	"fmt"

	"defense_service/internal/errdefs"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	codeUniqueViolation      = "23505"
	codeCheckViolation       = "23514"
	codeExclusionViolation   = "23P01"
	codeSerializationFailure = "40001"
)

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

func isNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// handleError maps driver errors onto errdefs. The exclusion constraint on
// defenses backs the scheduler's own overlap check.
func handleError(err error) error {
	if isNotFound(err) {
		return errdefs.ErrNotFound
	}
	switch pgCode(err) {
	case codeUniqueViolation:
		return fmt.Errorf("%w: %s", errdefs.ErrInvalidState, "row already exists")
	case codeExclusionViolation, codeSerializationFailure:
		return errdefs.ErrSchedulingConflict
	case codeCheckViolation:
		return fmt.Errorf("%w: %s", errdefs.ErrValidation, "constraint violated")
	}
	return fmt.Errorf("repository error: %w", err)
}
