package core

import "context"

// Kind describes what sort of resource a backend opened.
type Kind int

const (
	// KindUnknown indicates the backend did not classify the resource.
	KindUnknown Kind = iota
	// KindRegular is a seekable file with a known size.
	KindRegular
	// KindStream is a pipe, socket or character device with no stable offset.
	KindStream
	// KindObject is a remote object held by an object store.
	KindObject
)

// String returns a string representation of the Kind.
func (k Kind) String() string {
	switch k {
	case KindRegular:
		return "regular"
	case KindStream:
		return "stream"
	case KindObject:
		return "object"
	default:
		return "unknown"
	}
}

// MarshalText encodes the Kind as its string form.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// SizeUnknown is reported as the size of resources whose length is indeterminate.
const SizeUnknown int64 = -1

// Backend opens resources for one URI scheme.
//
// Implementations must be safe for concurrent use; a Backend is shared by every
// resource opened through it.
type Backend interface {
	// Scheme returns the lower-case URI scheme the backend services.
	Scheme() string

	// Open opens the resource named by uri. The uri has already been normalized
	// and its scheme matches Scheme().
	//
	// Open must reject modes without Read or Write and must grant capabilities
	// according to the actual kind of resource.
	Open(ctx context.Context, uri string, mode Capability) (Opened, error)
}

// Opened is the result of a successful Backend.Open.
type Opened struct {
	// State is the backend-owned handle to the open resource.
	State State

	// Capabilities are the operations granted for this resource.
	Capabilities Capability

	// Size is the current size in bytes, or SizeUnknown.
	Size int64

	// Kind classifies the resource.
	Kind Kind
}

// State is the backend side of one open resource.
//
// The handle layer serializes all calls on a State, so implementations need no
// locking of their own. Offsets are supplied by the caller: the handle layer owns
// the cursor and the size bookkeeping.
type State interface {
	// Read reads up to len(p) bytes starting at off. Streams ignore off.
	// At the end of the resource Read returns 0, io.EOF.
	Read(p []byte, off int64) (int, error)

	// Write writes p starting at off. Streams ignore off.
	// Write returns the number of bytes written; a short count with a nil error
	// is a partial transfer, not a failure.
	Write(p []byte, off int64) (int, error)

	// Seek resolves req to a new absolute position.
	// Only called for resources granted Seek.
	Seek(req SeekRequest) (int64, error)

	// Resize changes the size of the resource as permitted by req and returns
	// the resulting size. When the transition is not permitted the current size
	// is returned unchanged.
	Resize(req ResizeRequest) (int64, error)

	// Sync commits buffered data to the backing store.
	Sync() error

	// Close releases the resource. The handle layer calls Close exactly once,
	// but implementations must tolerate repeated calls.
	Close() error

	// Describe returns a human-readable description of the last failure, or an
	// empty string when there is none.
	Describe() string
}

// SeekRequest carries a seek together with the state needed to resolve it.
type SeekRequest struct {
	// Offset is the requested offset.
	Offset int64

	// Relative selects the reference point. When false a non-negative Offset is
	// measured from the start and a negative Offset from the end. When true Offset
	// is added to Position.
	Relative bool

	// Position is the current cursor.
	Position int64

	// Size is the current size of the resource.
	Size int64
}

// ResizeRequest describes a requested size change.
type ResizeRequest struct {
	// Size is the requested size in bytes.
	Size int64

	// Fill is the byte used for newly added space.
	Fill byte

	// AllowShrink permits making the resource smaller.
	AllowShrink bool

	// AllowGrow permits making the resource larger.
	AllowGrow bool
}
