package sqlite

import (
	"fmt"
	"strings"
	"time"
)

const (
	busyMaxAttempts  = 5
	busyInitialDelay = 10 * time.Millisecond
)

// isSQLiteBusy reports whether err is a lock contention error worth
// retrying.
func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "SQLITE_BUSY")
}

// retryOnBusy runs fn until it succeeds, fails with a non-busy error, or
// has been tried busyMaxAttempts times, doubling the delay between tries.
func retryOnBusy(fn func() error) error {
	delay := busyInitialDelay
	for attempt := 1; ; attempt++ {
		err := fn()
		if err == nil || !isSQLiteBusy(err) {
			return err
		}
		if attempt == busyMaxAttempts {
			return fmt.Errorf("database busy after %d attempts: %w", attempt, err)
		}
		time.Sleep(delay)
		delay *= 2
	}
}
