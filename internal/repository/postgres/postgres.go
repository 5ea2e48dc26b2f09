// Package postgres implements the repository interfaces on PostgreSQL via pgx.
package postgres

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// isUniqueViolation checks if the error is a PostgreSQL unique constraint violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// pageArgs converts 1-based page/perPage into LIMIT/OFFSET values with the
// default page size applied.
func pageArgs(page, perPage int) (limit, offset int) {
	limit = perPage
	if limit <= 0 {
		limit = 20
	}
	if page > 1 {
		offset = (page - 1) * limit
	}
	return limit, offset
}

// buildWhere joins conditions into a WHERE clause, or returns an empty
// string when there are none.
func buildWhere(conditions []string) string {
	if len(conditions) == 0 {
		return ""
	}
	return "WHERE " + strings.Join(conditions, " AND ")
}

// cond formats a positional condition like "status = $3".
func cond(column string, argIndex int) string {
	return fmt.Sprintf("%s = $%d", column, argIndex)
}
