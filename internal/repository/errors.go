package repository

import (
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// Repository-level errors. Callers match them with errors.Is.
var (
	// ErrNotFound is returned when a point write targets a row that does not exist.
	// Point lookups report a missing row as (nil, nil) instead.
	ErrNotFound = errors.New("entity not found")

	// ErrIntegrityViolation covers duplicate identifiers and store-enforced constraint failures.
	ErrIntegrityViolation = errors.New("integrity violation")

	// ErrStoreUnavailable is returned when the session cannot reach the store.
	ErrStoreUnavailable = errors.New("store unavailable")
)

// InvalidFieldError describes a field name the target entity does not declare.
// It is logged, never returned from CRUD operations.
type InvalidFieldError struct {
	Entity string
	Field  string
	Op     string
}

func (e *InvalidFieldError) Error() string {
	return fmt.Sprintf("%s: unknown or read-only field %q on %s", e.Op, e.Field, e.Entity)
}

// classify maps driver errors onto the repository error kinds.
// Errors that fit no kind are returned unchanged.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrIntegrityViolation) || errors.Is(err, ErrStoreUnavailable) {
		return err
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		// Class 23: integrity constraint violation.
		case strings.HasPrefix(pgErr.Code, "23"):
			return fmt.Errorf("%w: %w", ErrIntegrityViolation, err)
		// Class 08: connection exception. 57P01-57P03: server shutting down.
		case strings.HasPrefix(pgErr.Code, "08"), strings.HasPrefix(pgErr.Code, "57P0"):
			return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
		}
		return err
	}

	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) || pgconn.Timeout(err) {
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	return err
}
