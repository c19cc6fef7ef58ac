// Package errors provides the structured error value used by rio and its backends.
package errors

// ErrorCode represents a specific error condition.
// Error codes are string-based for debuggability and natural JSON serialization.
type ErrorCode string

const (
	// Handle errors.

	// CodeInvalidArgument indicates a malformed argument: a nil or short buffer with a
	// nonzero count, a negative size, an empty mode or an unparsable URI.
	CodeInvalidArgument ErrorCode = "INVALID_ARGUMENT"

	// CodeNoResource indicates the handle is unbound or its identifier is no longer
	// present in the identifier table.
	CodeNoResource ErrorCode = "NO_RESOURCE"

	// CodeUnsupported indicates the resource was not opened with the capability the
	// operation requires, or that no backend serves the requested scheme.
	CodeUnsupported ErrorCode = "UNSUPPORTED"

	// CodeBackendFailure indicates the backend reported an OS or protocol level failure.
	CodeBackendFailure ErrorCode = "BACKEND_FAILURE"

	// CodeOutOfMemory indicates allocation of context or backend state failed.
	CodeOutOfMemory ErrorCode = "OUT_OF_MEMORY"

	// Resource errors.

	// CodeNotFound indicates a requested resource does not exist.
	CodeNotFound ErrorCode = "NOT_FOUND"

	// CodeAlreadyExists indicates a resource already exists and cannot be created again.
	CodeAlreadyExists ErrorCode = "ALREADY_EXISTS"

	// CodeForbidden indicates the caller lacks permission for the operation.
	CodeForbidden ErrorCode = "FORBIDDEN"

	// Validation errors.

	// CodeInvalidConfig indicates a configuration error prevents the operation.
	CodeInvalidConfig ErrorCode = "INVALID_CONFIGURATION"

	// Infrastructure errors.

	// CodeNetwork indicates a network operation failed.
	CodeNetwork ErrorCode = "NETWORK_ERROR"

	// CodeTimeout indicates an operation exceeded its time limit.
	CodeTimeout ErrorCode = "TIMEOUT"

	// CodeUnavailable indicates the remote store is temporarily unavailable.
	CodeUnavailable ErrorCode = "SERVICE_UNAVAILABLE"

	// System errors.

	// CodeInternal indicates an internal error occurred.
	CodeInternal ErrorCode = "INTERNAL_ERROR"

	// Generic errors.

	// CodeUnknown indicates an unknown or unclassified error occurred.
	CodeUnknown ErrorCode = "UNKNOWN"
)

// description maps codes to the generic text reported when no detail is available.
var description = map[ErrorCode]string{
	CodeInvalidArgument: "invalid argument",
	CodeNoResource:      "bad resource handle",
	CodeUnsupported:     "operation not supported",
	CodeBackendFailure:  "backend failure",
	CodeOutOfMemory:     "out of memory",
	CodeNotFound:        "no such resource",
	CodeAlreadyExists:   "resource already exists",
	CodeForbidden:       "permission denied",
	CodeInvalidConfig:   "invalid configuration",
	CodeNetwork:         "network failure",
	CodeTimeout:         "operation timed out",
	CodeUnavailable:     "service unavailable",
	CodeInternal:        "internal error",
}

// Describe returns a generic description of the condition the code represents.
func (c ErrorCode) Describe() string {
	if d, ok := description[c]; ok {
		return d
	}
	return "unknown error"
}
