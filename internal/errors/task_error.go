package errors

import (
	"fmt"
)

// TaskError reports that a specific task's computation failed or timed out.
type TaskError struct {
	Task    string
	Stage   int
	Cause   error
	Timeout bool
}

// NewTaskError wraps the cause of a task failure
func NewTaskError(task string, stage int, cause error) *TaskError {
	return &TaskError{
		Task:  task,
		Stage: stage,
		Cause: cause,
	}
}

// NewTaskTimeoutError reports a task that did not finish before its deadline
func NewTaskTimeoutError(task string, stage int, cause error) *TaskError {
	return &TaskError{
		Task:    task,
		Stage:   stage,
		Cause:   cause,
		Timeout: true,
	}
}

// Error implements the error interface
func (e *TaskError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("task %s timed out in stage %d: %v", e.Task, e.Stage, e.Cause)
	}
	return fmt.Sprintf("task %s failed in stage %d: %v", e.Task, e.Stage, e.Cause)
}

// Unwrap returns the underlying cause
func (e *TaskError) Unwrap() error {
	return e.Cause
}
