// Package core defines the contract between the rio handle layer and the
// scheme-specific backends that service resources.
//
// A Backend is registered for one URI scheme (for example "file" or "s3"). Opening
// a resource yields a State, which the backend owns exclusively and which the
// handle layer drives through positional reads and writes, seeks, resizes and
// syncs. The handle layer keeps the authoritative position and size; every State
// call receives the offsets it needs explicitly.
//
// # Capabilities
//
// A resource is opened with a mode built from Read, Write and Seek. The backend
// answers with the capabilities it actually grants, derived from the kind of
// resource: regular files and objects are seekable, pipes and character devices
// are not. Capabilities never change for the lifetime of an open resource.
//
// # Implementing a backend
//
//	type Backend interface {
//	    Scheme() string
//	    Open(ctx context.Context, uri string, mode Capability) (Opened, error)
//	}
//
// Backends must:
//
//   - reject modes without Read or Write (see ValidateMode)
//   - report an indeterminate size (-1) for streams
//   - retry interrupted system calls themselves rather than surfacing them
//   - make State.Close idempotent
//   - keep a description of the last failure available through State.Describe
//
// ResolveSeek and ResizeRequest.Target implement the shared seek and resize
// policies so that backends agree on edge cases.
package core
