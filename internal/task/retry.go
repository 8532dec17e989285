package task

import (
	"context"
	"math"
	"math/rand"
	"time"

	flowerrors "github.com/maxkimambo/taskflow/internal/errors"
	"github.com/maxkimambo/taskflow/internal/logger"
)

// RetryPolicy defines how often and how patiently a failed task is retried
type RetryPolicy struct {
	MaxRetries     int           `json:"max_retries"`
	InitialBackoff time.Duration `json:"initial_backoff"`
	MaxBackoff     time.Duration `json:"max_backoff"`
	BackoffFactor  float64       `json:"backoff_factor"`
	EnableJitter   bool          `json:"enable_jitter"`
	JitterFactor   float64       `json:"jitter_factor"` // Percentage of jitter (0.0 to 1.0)
}

// NewDefaultRetryPolicy creates a retry policy with sensible defaults
func NewDefaultRetryPolicy() *RetryPolicy {
	return &RetryPolicy{
		MaxRetries:     3,
		InitialBackoff: 500 * time.Millisecond,
		MaxBackoff:     30 * time.Second,
		BackoffFactor:  2.0,
		EnableJitter:   true,
		JitterFactor:   0.3,
	}
}

// BackoffDuration calculates the wait before the given retry attempt (1-based)
func (p *RetryPolicy) BackoffDuration(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}

	// initialBackoff * (factor ^ (attempt-1))
	backoff := time.Duration(float64(p.InitialBackoff) * math.Pow(p.BackoffFactor, float64(attempt-1)))
	if p.MaxBackoff > 0 && backoff > p.MaxBackoff {
		backoff = p.MaxBackoff
	}

	if p.EnableJitter && p.JitterFactor > 0 {
		jitter := rand.Float64() * p.JitterFactor
		backoff = time.Duration(float64(backoff) * (1 + jitter))
	}
	if p.MaxBackoff > 0 && backoff > p.MaxBackoff {
		backoff = p.MaxBackoff
	}

	return backoff
}

// IsRetryable determines if an error is worth retrying
func (p *RetryPolicy) IsRetryable(err error) bool {
	return flowerrors.IsRetryableError(err)
}

// Retry wraps t so that failed invocations are repeated according to policy.
// The wrapped task still counts as a single invocation for the flow engine.
func Retry(t Task, policy *RetryPolicy) Task {
	if policy == nil {
		policy = NewDefaultRetryPolicy()
	}

	return Func(func(ctx context.Context, in Input) (any, error) {
		var lastErr error
		for attempt := 0; attempt <= policy.MaxRetries; attempt++ {
			if attempt > 0 {
				wait := policy.BackoffDuration(attempt)
				logger.Op.WithFields(map[string]interface{}{
					"attempt": attempt,
					"backoff": wait,
				}).Debugf("Retrying task after error: %v", lastErr)

				timer := time.NewTimer(wait)
				select {
				case <-ctx.Done():
					timer.Stop()
					return nil, ctx.Err()
				case <-timer.C:
				}
			}

			out, err := t.Invoke(ctx, in)
			if err == nil {
				return out, nil
			}
			lastErr = err

			if ctx.Err() != nil || !policy.IsRetryable(err) {
				break
			}
		}
		return nil, lastErr
	})
}
