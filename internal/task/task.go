package task

import (
	"context"
	"fmt"
	"sort"
)

// Task is a named unit of asynchronous work. The name lives on the flow
// declaration; a Task only knows how to turn its bound input into an output.
//
// Invoke must honour ctx: when it is done the task should return ctx.Err()
// as soon as possible.
type Task interface {
	Invoke(ctx context.Context, in Input) (any, error)
}

// Func adapts an ordinary function to the Task interface
type Func func(ctx context.Context, in Input) (any, error)

// Invoke calls f(ctx, in)
func (f Func) Invoke(ctx context.Context, in Input) (any, error) {
	return f(ctx, in)
}

// Input holds the values bound to a task's parameters, keyed by parameter name
type Input map[string]any

// Value returns the value bound to name
func (in Input) Value(name string) (any, error) {
	v, ok := in[name]
	if !ok {
		return nil, fmt.Errorf("input %q is not bound", name)
	}
	return v, nil
}

// String returns the value bound to name as a string
func (in Input) String(name string) (string, error) {
	v, err := in.Value(name)
	if err != nil {
		return "", err
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("input %q is %T, not string", name, v)
	}
	return s, nil
}

// Only returns the single bound value of a one-parameter task
func (in Input) Only() (any, error) {
	if len(in) != 1 {
		return nil, fmt.Errorf("expected exactly one bound input, got %d", len(in))
	}
	for _, v := range in {
		return v, nil
	}
	return nil, nil
}

// Names returns the bound parameter names in sorted order
func (in Input) Names() []string {
	names := make([]string, 0, len(in))
	for name := range in {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Unary adapts a typed single-argument function. The task must be declared
// with exactly one binding whose value has type I.
func Unary[I, O any](fn func(ctx context.Context, in I) (O, error)) Task {
	return Func(func(ctx context.Context, in Input) (any, error) {
		raw, err := in.Only()
		if err != nil {
			return nil, err
		}
		typed, ok := raw.(I)
		if !ok {
			var zero I
			return nil, fmt.Errorf("input is %T, want %T", raw, zero)
		}
		return fn(ctx, typed)
	})
}

// Status represents the execution status of a task within one flow run
type Status int

const (
	// StatusPending indicates the task has not been submitted
	StatusPending Status = iota
	// StatusRunning indicates the task has been submitted and has not returned
	StatusRunning
	// StatusCompleted indicates the task returned an output
	StatusCompleted
	// StatusFailed indicates the task returned an error, panicked or timed out
	StatusFailed
)

// String returns a string representation of the Status
func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusRunning:
		return "running"
	case StatusCompleted:
		return "completed"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// IsTerminal reports whether the status can no longer change
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}
