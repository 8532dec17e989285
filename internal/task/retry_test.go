package task

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastPolicy(maxRetries int) *RetryPolicy {
	return &RetryPolicy{
		MaxRetries:     maxRetries,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
		BackoffFactor:  2.0,
	}
}

func TestRetryPolicy_BackoffDuration(t *testing.T) {
	policy := &RetryPolicy{
		InitialBackoff: 100 * time.Millisecond,
		MaxBackoff:     time.Second,
		BackoffFactor:  2.0,
	}

	assert.Equal(t, time.Duration(0), policy.BackoffDuration(0))
	assert.Equal(t, 100*time.Millisecond, policy.BackoffDuration(1))
	assert.Equal(t, 200*time.Millisecond, policy.BackoffDuration(2))
	assert.Equal(t, 400*time.Millisecond, policy.BackoffDuration(3))
	assert.Equal(t, time.Second, policy.BackoffDuration(10), "capped at MaxBackoff")
}

func TestRetryPolicy_Jitter(t *testing.T) {
	policy := &RetryPolicy{
		InitialBackoff: 100 * time.Millisecond,
		MaxBackoff:     time.Second,
		BackoffFactor:  2.0,
		EnableJitter:   true,
		JitterFactor:   0.5,
	}

	for i := 0; i < 20; i++ {
		d := policy.BackoffDuration(1)
		assert.GreaterOrEqual(t, d, 100*time.Millisecond)
		assert.LessOrEqual(t, d, 150*time.Millisecond)
	}
}

func TestRetryPolicy_JitterNeverExceedsMaxBackoff(t *testing.T) {
	policy := &RetryPolicy{
		InitialBackoff: 100 * time.Millisecond,
		MaxBackoff:     time.Second,
		BackoffFactor:  2.0,
		EnableJitter:   true,
		JitterFactor:   0.5,
	}

	for i := 0; i < 50; i++ {
		assert.LessOrEqual(t, policy.BackoffDuration(10), time.Second)
		assert.LessOrEqual(t, policy.BackoffDuration(4), time.Second)
	}
}

func TestRetry_SucceedsAfterFailures(t *testing.T) {
	var calls int32
	flaky := Func(func(ctx context.Context, in Input) (any, error) {
		if atomic.AddInt32(&calls, 1) < 3 {
			return nil, errors.New("temporarily unavailable")
		}
		return "ok", nil
	})

	out, err := Retry(flaky, fastPolicy(3)).Invoke(context.Background(), Input{})
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestRetry_GivesUp(t *testing.T) {
	var calls int32
	boom := errors.New("still down")
	failing := Func(func(ctx context.Context, in Input) (any, error) {
		atomic.AddInt32(&calls, 1)
		return nil, boom
	})

	_, err := Retry(failing, fastPolicy(2)).Invoke(context.Background(), Input{})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls), "one attempt plus two retries")
}

func TestRetry_DoesNotRetryCancellation(t *testing.T) {
	var calls int32
	cancelled := Func(func(ctx context.Context, in Input) (any, error) {
		atomic.AddInt32(&calls, 1)
		return nil, context.Canceled
	})

	_, err := Retry(cancelled, fastPolicy(5)).Invoke(context.Background(), Input{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestRetry_StopsWhenContextDone(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var calls int32
	failing := Func(func(ctx context.Context, in Input) (any, error) {
		if atomic.AddInt32(&calls, 1) == 1 {
			cancel()
		}
		return nil, errors.New("flaky")
	})

	policy := fastPolicy(5)
	policy.InitialBackoff = time.Second
	_, err := Retry(failing, policy).Invoke(ctx, Input{})
	assert.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}
