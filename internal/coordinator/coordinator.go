// Package coordinator provides the join primitive used to run one stage of a
// flow: every invocation is started concurrently and results come back in
// submission order, never completion order.
package coordinator

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"
)

// Invocation is a single deferred call whose result is joined by Join
type Invocation[T any] func(ctx context.Context) (T, error)

type options struct {
	cancelOnFailure bool
	limit           int
}

// Option configures a Join call
type Option func(*options)

// CancelOnFailure cancels the context handed to sibling invocations as soon
// as one of them fails.
func CancelOnFailure() Option {
	return func(o *options) {
		o.cancelOnFailure = true
	}
}

// WithLimit bounds the number of invocations running at once. n <= 0 means
// no bound.
func WithLimit(n int) Option {
	return func(o *options) {
		o.limit = n
	}
}

// Join runs all calls concurrently and waits for every one of them to return.
//
// On success results[i] is the value produced by calls[i]. If any call fails
// the returned error is the failure with the lowest index. Under
// CancelOnFailure, failures that are only a consequence of that cancellation
// lose the tie-break to the failure that triggered it.
func Join[T any](ctx context.Context, calls []Invocation[T], opts ...Option) ([]T, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	results := make([]T, len(calls))
	errs := make([]error, len(calls))
	if len(calls) == 0 {
		return results, nil
	}

	var g *errgroup.Group
	runCtx := ctx
	if o.cancelOnFailure {
		g, runCtx = errgroup.WithContext(ctx)
	} else {
		g = &errgroup.Group{}
	}
	if o.limit > 0 {
		g.SetLimit(o.limit)
	}

	for i, call := range calls {
		i, call := i, call
		g.Go(func() error {
			res, err := call(runCtx)
			if err != nil {
				errs[i] = err
				// returning the error is what cancels runCtx under CancelOnFailure
				return err
			}
			results[i] = res
			return nil
		})
	}

	// each goroutine owns its own index, so errs and results need no locking
	_ = g.Wait()

	if err := pickFailure(ctx, errs, o.cancelOnFailure); err != nil {
		return nil, err
	}
	return results, nil
}

// pickFailure selects the lowest-index failure, skipping failures caused only
// by the group cancelling itself.
func pickFailure(parent context.Context, errs []error, cancelOnFailure bool) error {
	var first error
	for _, err := range errs {
		if err == nil {
			continue
		}
		if first == nil {
			first = err
		}
		if !cancelOnFailure || parent.Err() != nil {
			return err
		}
		if !errors.Is(err, context.Canceled) {
			return err
		}
	}
	return first
}
