package supabase

import (
	"math/rand/v2"
	"time"
)

// RetryConfig holds retry configuration for idempotent store reads.
type RetryConfig struct {
	// MaxAttempts is the maximum number of attempts per read.
	MaxAttempts int

	// BackoffBase is the initial backoff duration.
	BackoffBase time.Duration

	// BackoffMultiplier is applied to backoff on each retry.
	BackoffMultiplier float64

	// MaxBackoff caps the maximum backoff duration.
	MaxBackoff time.Duration
}

// DefaultRetryConfig returns retry defaults sized for interactive tool calls.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:       3,
		BackoffBase:       200 * time.Millisecond,
		BackoffMultiplier: 2.0,
		MaxBackoff:        2 * time.Second,
	}
}

// backoff computes exponential backoff with +/- 25% jitter.
func (r RetryConfig) backoff(attempt int) time.Duration {
	multiplier := 1.0
	for i := 1; i < attempt; i++ {
		multiplier *= r.BackoffMultiplier
	}

	d := time.Duration(float64(r.BackoffBase) * multiplier)
	if d > r.MaxBackoff {
		d = r.MaxBackoff
	}

	jitter := float64(d) * 0.25 * (rand.Float64()*2 - 1)
	return d + time.Duration(jitter)
}
