package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/heartmarshall/jawiki-kana-dict/internal/domain"
)

// MapError converts pgx/pgconn errors to domain errors, prefixed with the
// table and an optional key (run ID, reading prefix). An empty key leaves
// only the table name.
// context.DeadlineExceeded and context.Canceled are NOT mapped; they pass through.
func MapError(err error, table, key string) error {
	if err == nil {
		return nil
	}

	scope := table
	if key != "" {
		scope = table + " " + key
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s: %w", scope, err)
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", scope, domain.ErrNotFound)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		var mapped error
		switch pgErr.Code {
		case "23505": // unique_violation
			mapped = domain.ErrAlreadyExists
		case "23503": // foreign_key_violation: the referenced run is gone
			mapped = domain.ErrNotFound
		case "23514", "23502": // check_violation, not_null_violation
			mapped = domain.ErrValidation
		}
		if mapped != nil {
			if pgErr.ConstraintName != "" {
				return fmt.Errorf("%s: %w (%s)", scope, mapped, pgErr.ConstraintName)
			}
			return fmt.Errorf("%s: %w", scope, mapped)
		}
	}

	return fmt.Errorf("%s: %w", scope, err)
}
