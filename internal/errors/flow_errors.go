package errors

import (
	stderrors "errors"
	"fmt"
	"sort"
	"strings"
)

// ErrorCategory represents the category of a flow failure
type ErrorCategory string

const (
	// ErrorCategoryGraph represents a malformed flow definition
	ErrorCategoryGraph ErrorCategory = "GRAPH"
	// ErrorCategoryInput represents missing or unexpected run inputs
	ErrorCategoryInput ErrorCategory = "INPUT"
	// ErrorCategoryTask represents a task whose computation failed
	ErrorCategoryTask ErrorCategory = "TASK"
	// ErrorCategoryTimeout represents a task that exceeded its deadline
	ErrorCategoryTimeout ErrorCategory = "TIMEOUT"
	// ErrorCategoryCancelled represents a run stopped by its caller
	ErrorCategoryCancelled ErrorCategory = "CANCELLED"
	// ErrorCategoryCollect represents a failure while combining final outputs
	ErrorCategoryCollect ErrorCategory = "COLLECT"
)

// Sentinel causes carried by FlowError values. Match them with errors.Is.
var (
	ErrEmptyFlow           = stderrors.New("flow has no tasks")
	ErrInvalidTask         = stderrors.New("invalid task declaration")
	ErrDuplicateTask       = stderrors.New("duplicate task name")
	ErrDuplicateSlot       = stderrors.New("duplicate output slot")
	ErrMissingSlot         = stderrors.New("binding references undeclared slot")
	ErrSelfDependency      = stderrors.New("task consumes its own output")
	ErrCyclicDependency    = stderrors.New("cyclic dependency detected")
	ErrMissingInput        = stderrors.New("missing flow input")
	ErrUnknownInput        = stderrors.New("unknown flow input")
	ErrDuplicateInvocation = stderrors.New("task already invoked in this run")
	ErrTaskPanic           = stderrors.New("task panicked")
)

// FlowError represents a failed flow run or a rejected flow definition.
// Task failures are wrapped as OriginalError so callers can reach the TaskError.
type FlowError struct {
	Category        ErrorCategory
	Code            string
	Message         string
	Flow            string
	RunID           string
	Context         map[string]interface{}
	Troubleshooting []string
	OriginalError   error
}

// Error implements the error interface
func (e *FlowError) Error() string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("%s-%s: %s", e.Category, e.Code, e.Message))
	if e.Flow != "" {
		sb.WriteString(fmt.Sprintf(" (flow %s", e.Flow))
		if e.RunID != "" {
			sb.WriteString(fmt.Sprintf(", run %s", e.RunID))
		}
		sb.WriteString(")")
	}
	if e.OriginalError != nil {
		sb.WriteString(fmt.Sprintf(": %v", e.OriginalError))
	}

	return sb.String()
}

// Unwrap returns the original error for error chain compatibility
func (e *FlowError) Unwrap() error {
	return e.OriginalError
}

// NewFlowError creates a new flow error with the specified parameters
func NewFlowError(category ErrorCategory, code, message string) *FlowError {
	return &FlowError{
		Category:        category,
		Code:            code,
		Message:         message,
		Context:         make(map[string]interface{}),
		Troubleshooting: []string{},
	}
}

// WithFlow records the flow name and run ID
func (e *FlowError) WithFlow(flow, runID string) *FlowError {
	e.Flow = flow
	e.RunID = runID
	return e
}

// WithContext adds context information to the error
func (e *FlowError) WithContext(key string, value interface{}) *FlowError {
	e.Context[key] = value
	return e
}

// WithTroubleshooting adds troubleshooting steps to the error
func (e *FlowError) WithTroubleshooting(steps ...string) *FlowError {
	e.Troubleshooting = append(e.Troubleshooting, steps...)
	return e
}

// WithOriginalError adds the underlying cause
func (e *FlowError) WithOriginalError(err error) *FlowError {
	e.OriginalError = err
	return e
}

// TaskError returns the originating task failure, if any
func (e *FlowError) TaskError() *TaskError {
	var taskErr *TaskError
	if stderrors.As(e.OriginalError, &taskErr) {
		return taskErr
	}
	return nil
}

// contextKeys returns the context keys in stable order for display
func (e *FlowError) contextKeys() []string {
	keys := make([]string, 0, len(e.Context))
	for k := range e.Context {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
