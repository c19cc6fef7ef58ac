package errors

import (
	stderrors "errors"
)

// Is reports whether any error in err's chain matches target.
// This is a convenience wrapper around the standard library errors.Is.
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
// This is a convenience wrapper around the standard library errors.As.
func As(err error, target interface{}) bool {
	return stderrors.As(err, target)
}

// GetCode extracts the ErrorCode from an error.
// Returns CodeUnknown if the error is nil or not a PlatformError.
//
// The code is taken from the outermost PlatformError in the chain.
//
// Example:
//
//	if errors.GetCode(err) == errors.CodeUnsupported {
//	    // reopen with the missing capability
//	}
func GetCode(err error) ErrorCode {
	if err == nil {
		return CodeUnknown
	}

	var platformErr PlatformError
	if stderrors.As(err, &platformErr) {
		return platformErr.Code()
	}

	return CodeUnknown
}

// HasCode reports whether the outermost PlatformError in err's chain carries code.
func HasCode(err error, code ErrorCode) bool {
	return err != nil && GetCode(err) == code
}

// GetDetail extracts the backend-supplied detail from an error.
// Returns an empty string if the error is nil, not a PlatformError, or has no detail.
func GetDetail(err error) string {
	var platformErr PlatformError
	if stderrors.As(err, &platformErr) {
		return platformErr.Detail()
	}
	return ""
}

// GetClassification extracts the ErrorClassification from an error.
// Returns ClassificationPermanent if the error is nil or not a PlatformError,
// which prevents inappropriate retry attempts.
func GetClassification(err error) ErrorClassification {
	if err == nil {
		return ClassificationPermanent
	}

	var platformErr PlatformError
	if stderrors.As(err, &platformErr) {
		return platformErr.Classification()
	}

	return ClassificationPermanent
}

// IsRetryable returns true if the error is classified as retryable.
// Returns false if the error is nil or not a PlatformError.
func IsRetryable(err error) bool {
	return GetClassification(err).IsRetryable()
}

// Describe returns the most specific human-readable description of err: the backend
// detail when one is attached, otherwise the message, otherwise err.Error().
// Returns an empty string for a nil error.
func Describe(err error) string {
	if err == nil {
		return ""
	}
	var platformErr PlatformError
	if stderrors.As(err, &platformErr) {
		if d := platformErr.Detail(); d != "" {
			return d
		}
		if m := platformErr.Message(); m != "" {
			return m
		}
		return platformErr.Code().Describe()
	}
	return err.Error()
}
