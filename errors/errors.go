package errors

// PlatformError extends the standard error interface with structured information
// for consistent error handling across the handle layer and its backends.
//
// A PlatformError carries a code from the resource taxonomy, a retry classification,
// a human-readable message, an optional backend-supplied detail string, contextual
// metadata, and the wrapped cause (errors.Is, errors.As, errors.Unwrap).
type PlatformError interface {
	error

	// Code returns the error code identifying the type of error.
	Code() ErrorCode

	// Classification returns whether the error is retryable or permanent.
	Classification() ErrorClassification

	// Message returns the human-readable error message.
	Message() string

	// Detail returns the backend-specific description of the failure, if any.
	// An empty string means the failure was detected locally.
	Detail() string

	// Context returns attached metadata as a read-only map.
	// Returns nil if no context has been attached.
	Context() map[string]interface{}

	// Unwrap returns the wrapped error for errors.Is and errors.As compatibility.
	// Returns nil if this error does not wrap another error.
	Unwrap() error
}
