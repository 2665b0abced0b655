package database

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is the subset of *pgxpool.Pool used by repositories and migrations.
// pgxmock pools satisfy it too.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// UniqueViolation is the SQLSTATE for unique_violation.
const UniqueViolation = "23505"

// ForeignKeyViolation is the SQLSTATE for foreign_key_violation.
const ForeignKeyViolation = "23503"

// IsPgError reports whether err carries the given SQLSTATE code.
func IsPgError(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}

// InvalidTextRepresentation is the SQLSTATE for malformed input such as a
// non-UUID string compared to a uuid column.
const InvalidTextRepresentation = "22P02"
