package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
)

// Common error codes
const (
	// Graph error codes
	CodeGraphEmpty          = "001"
	CodeGraphInvalidTask    = "002"
	CodeGraphDuplicateTask  = "003"
	CodeGraphDuplicateSlot  = "004"
	CodeGraphMissingSlot    = "005"
	CodeGraphSelfDependency = "006"
	CodeGraphCycle          = "007"

	// Input error codes
	CodeInputMissing = "001"
	CodeInputUnknown = "002"

	// Task error codes
	CodeTaskFailed             = "001"
	CodeTaskDuplicateExecution = "002"

	CodeTimeoutExceeded = "001"
	CodeCancelled       = "001"
	CodeCollectFailed   = "001"
)

// NewGraphError creates an error for a flow definition rejected before execution
func NewGraphError(code, message string, cause error) *FlowError {
	return NewFlowError(ErrorCategoryGraph, code, message).
		WithOriginalError(cause).
		WithTroubleshooting(
			"Check task names and output slots for typos",
			"Declare every flow input with Param before binding to it",
		)
}

// NewCycleError creates an error for a dependency cycle; path lists the tasks in cycle order
func NewCycleError(path []string) *FlowError {
	return NewFlowError(ErrorCategoryGraph, CodeGraphCycle,
		fmt.Sprintf("Dependency cycle: %s", strings.Join(path, " -> "))).
		WithContext("cycle", path).
		WithOriginalError(ErrCyclicDependency).
		WithTroubleshooting(
			"Remove one of the bindings on the reported path",
			"A task may only consume outputs of tasks declared to run before it",
		)
}

// NewMissingSlotError creates an error for a binding to a slot nothing produces
func NewMissingSlotError(task, param, slot string) *FlowError {
	return NewFlowError(ErrorCategoryGraph, CodeGraphMissingSlot,
		fmt.Sprintf("Task '%s' binds '%s' to undeclared slot '%s'", task, param, slot)).
		WithContext("task", task).
		WithContext("param", param).
		WithContext("slot", slot).
		WithOriginalError(ErrMissingSlot).
		WithTroubleshooting(
			"Declare the slot as a flow input with Param",
			"Or add a task whose output slot has this name",
		)
}

// NewMissingInputError creates an error for declared inputs absent from a run
func NewMissingInputError(flow string, names []string) *FlowError {
	return NewFlowError(ErrorCategoryInput, CodeInputMissing,
		fmt.Sprintf("Missing inputs: %s", strings.Join(names, ", "))).
		WithFlow(flow, "").
		WithContext("inputs", names).
		WithOriginalError(ErrMissingInput)
}

// NewUnknownInputError creates an error for inputs the flow does not declare
func NewUnknownInputError(flow string, names []string) *FlowError {
	return NewFlowError(ErrorCategoryInput, CodeInputUnknown,
		fmt.Sprintf("Unknown inputs: %s", strings.Join(names, ", "))).
		WithFlow(flow, "").
		WithContext("inputs", names).
		WithOriginalError(ErrUnknownInput)
}

// NewTaskFailedError wraps the TaskError that failed a stage
func NewTaskFailedError(flow, runID string, taskErr *TaskError) *FlowError {
	category, code := ErrorCategoryTask, CodeTaskFailed
	if taskErr.Timeout {
		category, code = ErrorCategoryTimeout, CodeTimeoutExceeded
	}
	return NewFlowError(category, code,
		fmt.Sprintf("Stage %d failed at task '%s'", taskErr.Stage, taskErr.Task)).
		WithFlow(flow, runID).
		WithContext("task", taskErr.Task).
		WithContext("stage", taskErr.Stage).
		WithOriginalError(taskErr)
}

// NewCancelledError creates an error for a run whose caller context ended
func NewCancelledError(flow, runID string, stage int, cause error) *FlowError {
	return NewFlowError(ErrorCategoryCancelled, CodeCancelled,
		fmt.Sprintf("Run cancelled at stage %d", stage)).
		WithFlow(flow, runID).
		WithContext("stage", stage).
		WithOriginalError(cause)
}

// NewCollectError creates an error for a collector that could not combine outputs
func NewCollectError(flow, runID string, cause error) *FlowError {
	return NewFlowError(ErrorCategoryCollect, CodeCollectFailed, "Result collection failed").
		WithFlow(flow, runID).
		WithOriginalError(cause).
		WithTroubleshooting("Check that the collected slots hold the types the collector expects")
}

// IsRetryableError determines if re-running the failed work could succeed.
// Definition and input errors are permanent; caller cancellation is never retried.
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if stderrors.Is(err, context.Canceled) {
		return false
	}

	var flowErr *FlowError
	if stderrors.As(err, &flowErr) {
		switch flowErr.Category {
		case ErrorCategoryGraph, ErrorCategoryInput, ErrorCategoryCollect, ErrorCategoryCancelled:
			return false
		}
	}

	var taskErr *TaskError
	if stderrors.As(err, &taskErr) {
		return !stderrors.Is(taskErr, ErrDuplicateInvocation)
	}

	return true
}
