package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// DisplayError formats an error for user-friendly display
func DisplayError(err error) string {
	if flowErr, ok := asFlowError(err); ok {
		return flowErr.Error()
	}

	return fmt.Sprintf("Error: %v", err)
}

// DisplayErrorSummary provides a brief summary of the error for logs
func DisplayErrorSummary(err error) string {
	if flowErr, ok := asFlowError(err); ok {
		return fmt.Sprintf("%s-%s: %s", flowErr.Category, flowErr.Code, flowErr.Message)
	}

	errStr := err.Error()
	if len(errStr) > 100 {
		return errStr[:97] + "..."
	}
	return errStr
}

// FormatForCLI formats an error for command-line display with proper spacing
func FormatForCLI(err error) string {
	flowErr, ok := asFlowError(err)
	if !ok {
		return fmt.Sprintf("\nError: %v\n", err)
	}

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("\nFlow Error [%s-%s]\n", flowErr.Category, flowErr.Code))
	sb.WriteString(fmt.Sprintf("  %s\n", flowErr.Message))

	if flowErr.Flow != "" {
		sb.WriteString(fmt.Sprintf("\nFlow: %s\n", flowErr.Flow))
	}
	if flowErr.RunID != "" {
		sb.WriteString(fmt.Sprintf("Run: %s\n", flowErr.RunID))
	}

	if len(flowErr.Context) > 0 {
		sb.WriteString("\nDetails:\n")
		for _, key := range flowErr.contextKeys() {
			sb.WriteString(fmt.Sprintf("  %s: %v\n", key, flowErr.Context[key]))
		}
	}

	if len(flowErr.Troubleshooting) > 0 {
		sb.WriteString("\nHow to resolve:\n")
		for i, step := range flowErr.Troubleshooting {
			sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, step))
		}
	}

	if flowErr.OriginalError != nil {
		sb.WriteString(fmt.Sprintf("\nTechnical details: %v\n", flowErr.OriginalError))
	}

	return sb.String()
}

// IsUserError determines if an error is due to the flow definition or its inputs
func IsUserError(err error) bool {
	if flowErr, ok := asFlowError(err); ok {
		return flowErr.Category == ErrorCategoryGraph ||
			flowErr.Category == ErrorCategoryInput
	}
	return false
}

// GetErrorCode extracts the error code for reporting
func GetErrorCode(err error) string {
	if flowErr, ok := asFlowError(err); ok {
		return fmt.Sprintf("%s-%s", flowErr.Category, flowErr.Code)
	}
	return "UNKNOWN"
}

// GetErrorCategory returns the category of a FlowError, or "" for any other error
func GetErrorCategory(err error) ErrorCategory {
	if flowErr, ok := asFlowError(err); ok {
		return flowErr.Category
	}
	return ""
}

func asFlowError(err error) (*FlowError, bool) {
	var flowErr *FlowError
	if stderrors.As(err, &flowErr) {
		return flowErr, true
	}
	return nil, false
}
