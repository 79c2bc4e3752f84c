package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents stable error codes for all failure modes
type ErrorCode string

const (
	// FileTooLarge indicates a single file exceeds the per-file byte ceiling
	FileTooLarge ErrorCode = "FILE_TOO_LARGE"
	// TotalSizeExceeded indicates a read would push the cumulative byte counter past its ceiling
	TotalSizeExceeded ErrorCode = "TOTAL_SIZE_EXCEEDED"
	// UnreadableFile indicates a permission or IO failure while reading a source file
	UnreadableFile ErrorCode = "UNREADABLE_FILE"
	// UnresolvableImport indicates a local import specifier matched no file
	UnresolvableImport ErrorCode = "UNRESOLVABLE_IMPORT"
	// FunctionNotFound indicates no definition exists for a function name
	FunctionNotFound ErrorCode = "FUNCTION_NOT_FOUND"
	// MaxDepthExceeded indicates a traversal was truncated at its configured bound
	MaxDepthExceeded ErrorCode = "MAX_DEPTH_EXCEEDED"
	// WalkLimitReached indicates a directory walk stopped at its file-count ceiling
	WalkLimitReached ErrorCode = "WALK_LIMIT_REACHED"
	// ProjectNotFound indicates a project id is not in the registry
	ProjectNotFound ErrorCode = "PROJECT_NOT_FOUND"
	// InvalidConfig indicates the configuration failed validation
	InvalidConfig ErrorCode = "INVALID_CONFIG"
	// StorageError indicates the result store failed
	StorageError ErrorCode = "STORAGE_ERROR"
	// InternalError indicates unexpected error
	InternalError ErrorCode = "INTERNAL_ERROR"
)

// CodegraphError represents an error with a stable code and optional details
type CodegraphError struct {
	Code    ErrorCode   `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
	cause   error       // Underlying error (not exported to JSON)
}

// New creates a new CodegraphError
func New(code ErrorCode, message string, cause error) *CodegraphError {
	return &CodegraphError{
		Code:    code,
		Message: message,
		cause:   cause,
	}
}

// Error implements the error interface
func (e *CodegraphError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *CodegraphError) Unwrap() error {
	return e.cause
}

// WithDetails adds details to the error
func (e *CodegraphError) WithDetails(details interface{}) *CodegraphError {
	e.Details = details
	return e
}

// CodeOf returns the code of the first CodegraphError in err's chain, or "" if there is none.
func CodeOf(err error) ErrorCode {
	var cgErr *CodegraphError
	if errors.As(err, &cgErr) {
		return cgErr.Code
	}
	return ""
}

// HasCode reports whether err carries the given code anywhere in its chain.
func HasCode(err error, code ErrorCode) bool {
	return err != nil && CodeOf(err) == code
}
