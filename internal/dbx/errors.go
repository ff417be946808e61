package dbx

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

// IsUniqueViolation reports whether err comes from a PostgreSQL unique
// constraint.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// JSONArg turns an optional JSON document into a query argument, NULL when empty.
func JSONArg(raw []byte) any {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}
