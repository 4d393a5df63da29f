package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"

	"github.com/garyjia/gas-voucher/internal/domain/entity"
)

// convertErr maps driver errors onto domain errors:
// no rows -> entity.ErrNotFound, unique violation -> entity.ErrConflict.
func convertErr(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}

	msg := fmt.Sprintf(format, args...)

	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", msg, entity.ErrNotFound)
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.ExtendedCode {
		case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
			return fmt.Errorf("%s: %w", msg, entity.ErrConflict)
		}
	}

	return fmt.Errorf("%s: %w", msg, err)
}

// expectAffected turns an update or delete that touched nothing into ErrNotFound
func expectAffected(result sql.Result, what string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", what, entity.ErrNotFound)
	}
	return nil
}
