package errors

import (
	"errors"
	"fmt"
)

// Wrap wraps an error with a code and message while preserving the original error.
// The wrapped error is accessible via Unwrap() and compatible with errors.Is and errors.As.
//
// If the wrapped error is a PlatformError, its classification and detail are preserved.
// Otherwise, the default classification for the error code is used.
//
// Returns nil if err is nil.
//
// Example:
//
//	n, err := state.Write(p, off)
//	if err != nil {
//	    return errors.Wrap(err, errors.CodeBackendFailure, "write failed")
//	}
func Wrap(err error, code ErrorCode, message string) PlatformError {
	if err == nil {
		return nil
	}

	classification := getDefaultClassification(code)
	var detail string
	var platformErr PlatformError
	if errors.As(err, &platformErr) {
		classification = platformErr.Classification()
		detail = platformErr.Detail()
	}

	return &platformError{
		code:           code,
		classification: classification,
		message:        message,
		detail:         detail,
		cause:          err,
	}
}

// Wrapf wraps an error with a formatted message while preserving the original error.
//
// Returns nil if err is nil.
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) PlatformError {
	if err == nil {
		return nil
	}

	return Wrap(err, code, fmt.Sprintf(format, args...))
}

// WrapWithContext wraps an error and attaches context metadata in a single operation.
// The context map is copied to prevent external mutation.
//
// Returns nil if err is nil.
//
// Example:
//
//	if err != nil {
//	    return errors.WrapWithContext(err, errors.CodeBackendFailure, "open failed", map[string]interface{}{
//	        "uri":    uri,
//	        "scheme": scheme,
//	    })
//	}
func WrapWithContext(err error, code ErrorCode, message string, ctx map[string]interface{}) PlatformError {
	wrapped := Wrap(err, code, message)
	if wrapped == nil {
		return nil
	}
	pe := wrapped.(*platformError)
	pe.context = copyContext(ctx)
	return pe
}
