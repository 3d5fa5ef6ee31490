package repository

import (
	"github.com/lib/pq"
)

// Postgres error code for unique_violation.
const uniqueViolationCode = "23505"

// IsUniqueViolation reports whether err is a Postgres unique constraint
// failure. Concurrent duplicate inserts (same owner added twice, invite
// code collision) surface this way and are handled idempotently upstream.
func IsUniqueViolation(err error) bool {
	pqErr, ok := err.(*pq.Error)
	return ok && pqErr.Code == uniqueViolationCode
}
