// Package rio provides uniform I/O over resources addressed by URI.
//
// A resource is opened through a Table, which normalizes the path, selects a
// backend by URI scheme and hands back a *Handle:
//
//	h, err := rio.Open("/var/log/app.log", rio.Read|rio.Seek)
//	if err != nil {
//	    return err
//	}
//	defer h.Close()
//
//	buf := make([]byte, 512)
//	n, err := h.Read(buf)
//
// # Identifiers and contexts
//
// A Handle holds nothing but an opaque 64-bit identifier. The Table maps each
// identifier to a context that records the granted capabilities, the cursor, the
// size, read and write throughput and the backend state. Clone yields a second
// Handle for the same context (sharing cursor and statistics) and adds a
// reference; Move transfers the identifier and leaves the source unbound. The
// backend is closed exactly once, when the last reference is released.
//
// # Concurrency
//
// Handles are safe for concurrent use. Operations on one context are serialized by
// the context's mutex; operations on different contexts run in parallel. The Table
// lock is held only to look up, insert or remove an entry and is never held while a
// context lock is taken.
//
// # Errors
//
// Every failure is a PlatformError from the errors package. The code identifies the
// condition (CodeInvalidArgument, CodeNoResource, CodeUnsupported,
// CodeBackendFailure, ...) and Detail carries the backend's own description. End of
// resource is reported as io.EOF.
package rio
