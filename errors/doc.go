// Package errors provides structured error handling for rio.
//
// Every failure surfaced by a rio handle or backend is a PlatformError: a single
// value carrying a taxonomy code, a retry classification, a message, an optional
// backend-supplied detail string and the wrapped cause. Callers never consult a
// second error source to learn what a backend reported.
//
// # Taxonomy
//
//   - CodeInvalidArgument: nil or short buffer with a nonzero count, negative sizes,
//     malformed URIs, empty open modes
//   - CodeNoResource: unbound handle, or identifier no longer registered
//   - CodeUnsupported: capability not granted, or unknown scheme
//   - CodeBackendFailure: OS or protocol level failure reported by a backend
//   - CodeOutOfMemory: context or backend state allocation failure
//
// Backends may use the more specific resource and infrastructure codes
// (CodeNotFound, CodeForbidden, CodeNetwork, ...); the handle layer preserves them.
//
// # Usage
//
//	err := errors.New(errors.CodeUnsupported, "resource not opened for writing")
//
//	if err != nil {
//	    return errors.WithDetail(
//	        errors.Wrap(err, errors.CodeBackendFailure, "write failed"),
//	        state.Describe(),
//	    )
//	}
//
//	if errors.HasCode(err, errors.CodeNoResource) {
//	    // the handle was closed elsewhere
//	}
//
// The standard library helpers (errors.Is, errors.As, errors.Unwrap) work on the
// whole chain. ToJSON renders an error for machine consumers.
package errors
