package jsearch

import (
	"errors"
	"fmt"
	"time"
)

var ErrJobNotFound = errors.New("job not found")

// TransientError is a failure worth retrying: rate limiting, server errors and
// network problems.
type TransientError struct {
	StatusCode int
	RetryAfter time.Duration
	Err        error
}

func (e *TransientError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("jsearch: transient status %d: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("jsearch: transient: %v", e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// PermanentError is a client error that will not succeed on retry.
type PermanentError struct {
	StatusCode int
	Body       string
}

func (e *PermanentError) Error() string {
	return fmt.Sprintf("jsearch: bad status %d: %s", e.StatusCode, e.Body)
}
