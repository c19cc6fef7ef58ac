package errors

import "errors"

// asPlatform converts err to a *platformError copy so it can be modified without
// mutating the original. Standard errors become CodeUnknown errors wrapping err.
func asPlatform(err error) *platformError {
	var platformErr PlatformError
	if !errors.As(err, &platformErr) {
		return &platformError{
			code:           CodeUnknown,
			classification: ClassificationPermanent,
			message:        err.Error(),
			cause:          err,
		}
	}
	return &platformError{
		code:           platformErr.Code(),
		classification: platformErr.Classification(),
		message:        platformErr.Message(),
		detail:         platformErr.Detail(),
		context:        platformErr.Context(),
		cause:          platformErr.Unwrap(),
	}
}

// WithContext adds a single context field to an error.
// Returns a new PlatformError with the context field added.
// Existing context fields are preserved.
//
// If err is not a PlatformError, it is converted to one with CodeUnknown.
// Returns nil if err is nil.
//
// Example:
//
//	err = errors.WithContext(err, "uri", uri)
func WithContext(err error, key string, value interface{}) PlatformError {
	if err == nil {
		return nil
	}

	pe := asPlatform(err)
	if pe.context == nil {
		pe.context = make(map[string]interface{}, 1)
	}
	pe.context[key] = value
	return pe
}

// WithContextMap adds multiple context fields to an error.
// New fields override existing ones with the same key.
//
// If err is not a PlatformError, it is converted to one with CodeUnknown.
// Returns nil if err is nil.
func WithContextMap(err error, ctx map[string]interface{}) PlatformError {
	if err == nil {
		return nil
	}

	pe := asPlatform(err)
	if pe.context == nil {
		pe.context = make(map[string]interface{}, len(ctx))
	}
	for k, v := range ctx {
		pe.context[k] = v
	}
	return pe
}

// WithDetail attaches a backend-supplied detail string to an error, replacing any
// existing detail. An empty detail leaves the error unchanged apart from the copy.
//
// If err is not a PlatformError, it is converted to one with CodeUnknown.
// Returns nil if err is nil.
//
// Example:
//
//	err = errors.WithDetail(err, state.Describe())
func WithDetail(err error, detail string) PlatformError {
	if err == nil {
		return nil
	}

	pe := asPlatform(err)
	if detail != "" {
		pe.detail = detail
	}
	return pe
}

// WithClassification overrides the classification of an error.
//
// If err is not a PlatformError, it is converted to one with CodeUnknown.
// Returns nil if err is nil.
func WithClassification(err error, classification ErrorClassification) PlatformError {
	if err == nil {
		return nil
	}

	pe := asPlatform(err)
	pe.classification = classification
	return pe
}
