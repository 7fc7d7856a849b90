package pipeline

import (
	"errors"
	"math/rand/v2"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dgallion1/coursegest/internal/pathstore"
)

// MaxRetries is the number of attempts a run gets, the first included.
const MaxRetries = 3

const maxBackoff = 30 * time.Second

// Postgres SQLSTATEs for transactions the server aborted on its own.
var transientSQLStates = map[string]bool{
	"40001": true, // serialization_failure
	"40P01": true, // deadlock_detected
	"57P01": true, // admin_shutdown
}

// IsRetryable reports whether a store error is transient: a pathstore
// throttle or 5xx, or a postgres transaction the server aborted.
func IsRetryable(err error) bool {
	var retryErr *pathstore.RetryableError
	if errors.As(err, &retryErr) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return transientSQLStates[pgErr.Code]
	}
	return false
}

// Backoff doubles from one second per attempt (0-indexed), capped at 30s,
// plus up to 50% jitter.
func Backoff(attempt int) time.Duration {
	base := maxBackoff
	if attempt < 5 {
		base = min(time.Duration(1<<uint(attempt))*time.Second, maxBackoff)
	}
	jitter := time.Duration(rand.Int64N(int64(base) / 2))
	return base + jitter
}
