package pgstream

import (
	"errors"
	"strings"

	"github.com/jackc/pgconn"
)

// IsUniqueViolation returns true if the passed error indicates that an INSERT or COPY failed because
// a unique constraint was violated
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "(SQLSTATE 23505)")
}
