package pipeline

import (
	"errors"
	"math/rand/v2"
	"time"

	"github.com/lexforge/manualqa/internal/extract"
)

// MaxRetries bounds attempts per LLM call across all phases.
const MaxRetries = 3

// IsRetryable reports whether an LLM call failed transiently (rate
// limit or upstream 5xx). Anything else, malformed JSON included, is
// permanent and surfaces as a job error.
func IsRetryable(err error) bool {
	var retryErr *extract.RetryableError
	return errors.As(err, &retryErr)
}

// Backoff returns the wait before retry attempt n (0-indexed):
// exponential, capped at 30s, with up to 50% jitter so concurrent
// section workers don't hammer the API in lockstep.
func Backoff(attempt int) time.Duration {
	base := time.Duration(1<<uint(attempt)) * time.Second
	if base > 30*time.Second {
		base = 30 * time.Second
	}
	jitter := time.Duration(rand.Int64N(int64(base) / 2))
	return base + jitter
}
