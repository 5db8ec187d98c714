package repository

import (
	"errors"
	"fmt"

	"mahjongbot/service"

	"github.com/jackc/pgx/v5/pgconn"
)

// Postgres error codes that mean a concurrent command won the race
const (
	pgUniqueViolation      = "23505"
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
)

// mapError tags storage races with service.ErrConflict so the command is retried
func mapError(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation, pgSerializationFailure, pgDeadlockDetected:
			return fmt.Errorf("%w: %s: %w", service.ErrConflict, pgErr.ConstraintName, err)
		}
	}
	return err
}
