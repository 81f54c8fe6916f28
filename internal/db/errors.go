package db

import (
	"errors"

	"github.com/PabloPavan/sniply/internal"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// SQLSTATE codes the repositories translate into domain errors.
const (
	codeForeignKeyViolation = "23503"
	codeUniqueViolation     = "23505"
)

// IsNotFound matches both an empty result and the shared not-found sentinel.
func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows) || errors.Is(err, internal.ErrNotFound)
}

func pgError(err error, code string) (*pgconn.PgError, bool) {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != code {
		return nil, false
	}
	return pgErr, true
}

// UniqueViolation matches a unique_violation by constraint name, or by column
// when the server did not report the constraint.
func UniqueViolation(err error, constraint, column string) bool {
	pgErr, ok := pgError(err, codeUniqueViolation)
	return ok && (pgErr.ConstraintName == constraint || pgErr.ColumnName == column)
}

// ForeignKeyViolation matches an insert or update that references a missing row.
func ForeignKeyViolation(err error, constraint string) bool {
	pgErr, ok := pgError(err, codeForeignKeyViolation)
	return ok && pgErr.ConstraintName == constraint
}
