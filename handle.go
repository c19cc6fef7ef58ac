package rio

import (
	"io"
	"math"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/jmgilman/go/rio/errors"
	"github.com/jmgilman/go/rio/fs/core"
)

// Capability is a bitset of the operations a resource supports.
type Capability = core.Capability

// Capability flags accepted by Open.
const (
	Read  = core.Read
	Write = core.Write
	Seek  = core.Seek
)

// cell holds a handle's identifier. It is allocated apart from the Handle so the
// garbage collection cleanup can reach it without keeping the Handle reachable.
type cell struct {
	id atomic.Uint64
}

// Handle refers to zero or one open resource through an opaque identifier.
//
// A Handle with identifier 0 is unbound; the zero value and a nil *Handle are
// unbound handles. Every operation on an unbound handle fails with CodeNoResource,
// as does every operation on a handle whose context has been removed from its
// Table.
//
// Handles are safe for concurrent use. Clone returns a second handle sharing the
// same context; both must be closed. A bound handle that becomes unreachable
// without Close releases its reference when it is garbage collected.
type Handle struct {
	table   *Table
	cell    *cell
	cleanup runtime.Cleanup

	errMu   sync.Mutex
	lastErr error
}

var (
	_ io.Reader = (*Handle)(nil)
	_ io.Writer = (*Handle)(nil)
	_ io.Closer = (*Handle)(nil)
)

type reclaimArg struct {
	table *Table
	cell  *cell
}

func newHandle(t *Table, id uint64) *Handle {
	h := &Handle{table: t, cell: &cell{}}
	h.cell.id.Store(id)
	if id != 0 {
		h.cleanup = runtime.AddCleanup(h, reclaim, reclaimArg{table: t, cell: h.cell})
	}
	return h
}

// reclaim runs on the runtime's cleanup goroutine, which it must not block: a
// backend Close may upload or flush, so the release runs on its own goroutine.
func reclaim(arg reclaimArg) {
	if id := arg.cell.id.Swap(0); id != 0 {
		go arg.table.reclaim(id)
	}
}

// ID returns the handle's identifier, or 0 if the handle is unbound.
func (h *Handle) ID() uint64 {
	if h == nil || h.cell == nil {
		return 0
	}
	return h.cell.id.Load()
}

// fail records err as the handle's last error and returns it.
func (h *Handle) fail(err error) error {
	if h != nil && err != nil {
		h.errMu.Lock()
		h.lastErr = err
		h.errMu.Unlock()
	}
	return err
}

func unbound(op string) error {
	return errors.WithContext(errors.New(errors.CodeNoResource, "handle is unbound"), "op", op)
}

func noResource(id uint64, op string) error {
	return errors.WithContextMap(
		errors.Newf(errors.CodeNoResource, "resource %d is no longer open", id),
		map[string]interface{}{"id": id, "op": op},
	)
}

// do runs fn against the handle's context. It resolves the identifier, takes the
// context lock for the duration of fn and checks that the context was granted
// need. io.EOF returned by fn is passed through without being recorded.
func (h *Handle) do(op string, need core.Capability, fn func(r *resource) error) error {
	id := h.ID()
	if id == 0 {
		return h.fail(unbound(op))
	}

	r, ok := h.table.lookup(id)
	if !ok {
		return h.fail(noResource(id, op))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return h.fail(noResource(id, op))
	}
	if need != core.None && !r.caps.Has(need) {
		return h.fail(r.localError(errors.Newf(errors.CodeUnsupported,
			"%s requires %s capability, resource was opened with %s", op, need, r.caps)))
	}

	err := fn(r)
	if err == nil || err == io.EOF {
		return err
	}
	return h.fail(err)
}

// checkBuffer validates a buffer and transfer count before the handle is resolved.
func checkBuffer(p []byte, count int, op string) error {
	switch {
	case count < 0:
		return errors.WithContext(errors.Newf(errors.CodeInvalidArgument, "negative count %d", count), "op", op)
	case count > len(p) && p == nil:
		return errors.WithContext(errors.Newf(errors.CodeInvalidArgument, "nil buffer with count %d", count), "op", op)
	case count > len(p):
		return errors.WithContext(
			errors.Newf(errors.CodeInvalidArgument, "buffer of %d bytes is shorter than count %d", len(p), count),
			"op", op,
		)
	}
	return nil
}

func checkSize(size int64, op string) error {
	if size < 0 {
		return errors.WithContext(errors.Newf(errors.CodeInvalidArgument, "negative size %d", size), "op", op)
	}
	return nil
}

// Read reads up to len(p) bytes at the cursor and advances the cursor by the number
// of bytes read. At the end of the resource Read returns 0, io.EOF.
// Requires Read.
func (h *Handle) Read(p []byte) (int, error) {
	return h.read(p, len(p), "read", true)
}

// ReadN reads up to n bytes into p at the cursor and advances the cursor.
// A count of 0 succeeds without touching the resource. A nil or short buffer with a
// positive count fails with CodeInvalidArgument whatever the state of the handle.
func (h *Handle) ReadN(p []byte, n int) (int, error) {
	return h.read(p, n, "read", true)
}

// Peek reads up to len(p) bytes at the cursor without moving it.
// Requires Read and a resource with stable offsets; peeking a stream fails with
// CodeUnsupported.
func (h *Handle) Peek(p []byte) (int, error) {
	return h.read(p, len(p), "peek", false)
}

// PeekN reads up to n bytes into p at the cursor without moving it.
func (h *Handle) PeekN(p []byte, n int) (int, error) {
	return h.read(p, n, "peek", false)
}

func (h *Handle) read(p []byte, count int, op string, advance bool) (int, error) {
	if err := checkBuffer(p, count, op); err != nil {
		return 0, h.fail(err)
	}
	if count == 0 {
		return 0, nil
	}

	var n int
	err := h.do(op, core.Read, func(r *resource) error {
		if !advance && r.kind == core.KindStream {
			return r.localError(errors.New(errors.CodeUnsupported, "cannot peek a stream"))
		}

		start := h.table.clock.Now()
		got, err := r.state.Read(p[:count], r.position)
		end := h.table.clock.Now()

		n = max(got, 0)
		r.rstats.Record(start, end, int64(n))
		h.table.metrics.transferred(r.scheme, directionRead, n)
		if advance {
			r.position += int64(n)
		}

		switch {
		case err == nil:
			return nil
		case errors.Is(err, io.EOF):
			if n > 0 {
				return nil
			}
			return io.EOF
		default:
			return r.backendError(err, op)
		}
	})
	return n, err
}

// Write writes p at the cursor, advances the cursor and extends the size when the
// cursor moves past the end. It implements io.Writer: a short write without a
// backend error is reported as io.ErrShortWrite. Requires Write.
func (h *Handle) Write(p []byte) (int, error) {
	n, err := h.write(p, len(p), "write", false)
	if err == nil && n < len(p) {
		err = io.ErrShortWrite
	}
	return n, err
}

// WriteN writes the first n bytes of p at the cursor. A partial transfer is
// reported as success with the number of bytes actually written.
func (h *Handle) WriteN(p []byte, n int) (int, error) {
	return h.write(p, n, "write", false)
}

// Append writes p at the end of the resource. The cursor does not move; only the
// size grows. Requires Write.
func (h *Handle) Append(p []byte) (int, error) {
	return h.write(p, len(p), "append", true)
}

// AppendN writes the first n bytes of p at the end of the resource.
func (h *Handle) AppendN(p []byte, n int) (int, error) {
	return h.write(p, n, "append", true)
}

func (h *Handle) write(p []byte, count int, op string, atEnd bool) (int, error) {
	if err := checkBuffer(p, count, op); err != nil {
		return 0, h.fail(err)
	}
	if count == 0 {
		return 0, nil
	}

	var n int
	err := h.do(op, core.Write, func(r *resource) error {
		off := r.position
		if atEnd {
			off = r.size
		}

		start := h.table.clock.Now()
		got, err := r.state.Write(p[:count], off)
		end := h.table.clock.Now()

		n = max(got, 0)
		r.wstats.Record(start, end, int64(n))
		h.table.metrics.transferred(r.scheme, directionWrite, n)

		switch {
		case atEnd && r.size != core.SizeUnknown:
			r.size += int64(n)
		case !atEnd:
			r.position += int64(n)
			if r.size != core.SizeUnknown && r.position > r.size {
				r.size = r.position
			}
		}

		if err != nil {
			return r.backendError(err, op)
		}
		return nil
	})
	return n, err
}

// Seek moves the cursor and returns the signed distance it moved.
//
// When relative is false a non-negative offset is measured from the start and a
// negative offset from the end. When relative is true offset is added to the
// cursor. Targets past the end are clamped to the size and relative targets before
// the start are clamped to 0; a from-end offset that lands before the start fails
// with CodeInvalidArgument. On failure Seek returns -1. Requires Seek.
func (h *Handle) Seek(offset int64, relative bool) (int64, error) {
	delta := int64(-1)
	err := h.do("seek", core.Seek, func(r *resource) error {
		next, err := r.state.Seek(core.SeekRequest{
			Offset:   offset,
			Relative: relative,
			Position: r.position,
			Size:     r.size,
		})
		if err != nil {
			return r.backendError(err, "seek")
		}
		delta = next - r.position
		r.position = next
		return nil
	})
	if err != nil {
		return -1, err
	}
	return delta, nil
}

// sized rejects resources whose size is indeterminate. Requires r.mu.
func sized(r *resource, op string) error {
	if r.size == core.SizeUnknown {
		return r.localError(errors.Newf(errors.CodeUnsupported, "%s requires a resource of known size", op))
	}
	return nil
}

// Reserve grows the resource to at least size bytes, filling new space with fill.
// It never shrinks the resource: a size at or below the current size is a no-op.
// The growth is recorded as a write observation. Requires Write.
func (h *Handle) Reserve(size int64, fill byte) error {
	if err := checkSize(size, "reserve"); err != nil {
		return h.fail(err)
	}
	return h.do("reserve", core.Write, func(r *resource) error {
		if err := sized(r, "reserve"); err != nil {
			return err
		}
		if size <= r.size {
			return nil
		}

		start := h.table.clock.Now()
		got, err := r.state.Resize(core.ResizeRequest{Size: size, Fill: fill, AllowGrow: true})
		end := h.table.clock.Now()
		if err != nil {
			return r.backendError(err, "reserve")
		}
		if got > r.size {
			r.wstats.Record(start, end, got-r.size)
			r.size = got
		}
		if r.size < size {
			return r.localError(errors.Newf(errors.CodeBackendFailure,
				"reserve of %d bytes left resource at %d bytes", size, r.size))
		}
		return nil
	})
}

// Resize sets the size of the resource to exactly size bytes, growing with fill or
// shrinking as needed. Requires Write.
func (h *Handle) Resize(size int64, fill byte) error {
	if err := checkSize(size, "resize"); err != nil {
		return h.fail(err)
	}
	return h.do("resize", core.Write, func(r *resource) error {
		if err := sized(r, "resize"); err != nil {
			return err
		}
		if size == r.size {
			return nil
		}
		return resizeTo(r, core.ResizeRequest{Size: size, Fill: fill, AllowShrink: true, AllowGrow: true}, "resize")
	})
}

// Truncate shrinks the resource to size bytes. A size at or beyond the current size
// is a no-op and does not reach the backend. The cursor is left in place.
// Requires Write.
func (h *Handle) Truncate(size int64) error {
	if err := checkSize(size, "truncate"); err != nil {
		return h.fail(err)
	}
	return h.do("truncate", core.Write, func(r *resource) error {
		if err := sized(r, "truncate"); err != nil {
			return err
		}
		if size >= r.size {
			return nil
		}
		return resizeTo(r, core.ResizeRequest{Size: size, AllowShrink: true}, "truncate")
	})
}

// resizeTo applies req and fails unless the resource ends up at req.Size.
// Requires r.mu.
func resizeTo(r *resource, req core.ResizeRequest, op string) error {
	got, err := r.state.Resize(req)
	if err != nil {
		return r.backendError(err, op)
	}
	r.size = got
	if got != req.Size {
		return r.localError(errors.Newf(errors.CodeBackendFailure,
			"%s to %d bytes left resource at %d bytes", op, req.Size, got))
	}
	return nil
}

// Sync commits buffered data to the backing store.
func (h *Handle) Sync() error {
	return h.do("sync", core.None, func(r *resource) error {
		if err := r.state.Sync(); err != nil {
			return r.backendError(err, "sync")
		}
		return nil
	})
}

// Close releases the handle's reference and unbinds it. Releasing the last
// reference closes the backend and removes the context from its table.
// Closing an unbound handle is a no-op.
func (h *Handle) Close() error {
	if h == nil || h.cell == nil {
		return nil
	}
	id := h.cell.id.Swap(0)
	if id == 0 {
		return nil
	}
	h.cleanup.Stop()
	return h.fail(h.table.release(id))
}

// Clone returns a second handle bound to the same context and adds a reference to
// it. The two handles share the cursor, size and statistics.
func (h *Handle) Clone() (*Handle, error) {
	id := h.ID()
	if id == 0 {
		return nil, h.fail(unbound("clone"))
	}
	if !h.table.retain(id) {
		return nil, h.fail(noResource(id, "clone"))
	}
	return newHandle(h.table, id), nil
}

// Move transfers the identifier to a new handle and leaves h unbound. The
// reference count is unchanged. Moving an unbound handle yields an unbound handle.
func (h *Handle) Move() *Handle {
	if h == nil || h.cell == nil {
		return &Handle{}
	}
	id := h.cell.id.Swap(0)
	if id == 0 {
		return &Handle{table: h.table}
	}
	h.cleanup.Stop()
	return newHandle(h.table, id)
}

// ByteRate returns the harmonic-mean transfer rate in bytes per second for the
// direction selected by flag. Read takes priority when flag selects both. The rate
// is 0 when nothing has been transferred in that direction and NaN when the handle
// cannot be resolved or flag selects neither direction.
func (h *Handle) ByteRate(flag core.Capability) float64 {
	if flag&(core.Read|core.Write) == 0 {
		return math.NaN()
	}
	id := h.ID()
	if id == 0 {
		return math.NaN()
	}
	r, ok := h.table.lookup(id)
	if !ok {
		return math.NaN()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	switch {
	case r.closed:
		return math.NaN()
	case flag&core.Read != 0:
		return r.rstats.Rate()
	default:
		return r.wstats.Rate()
	}
}

// Position returns the cursor.
func (h *Handle) Position() (int64, error) {
	var pos int64
	err := h.do("position", core.None, func(r *resource) error {
		pos = r.position
		return nil
	})
	return pos, err
}

// Size returns the size of the resource, or -1 if it is indeterminate.
func (h *Handle) Size() (int64, error) {
	var size int64
	err := h.do("size", core.None, func(r *resource) error {
		size = r.size
		return nil
	})
	return size, err
}

// Capabilities returns the capabilities granted at open, or core.None if the
// handle cannot be resolved.
func (h *Handle) Capabilities() core.Capability {
	if id := h.ID(); id != 0 {
		if r, ok := h.table.lookup(id); ok {
			return r.caps
		}
	}
	return core.None
}

// URI returns the normalized URI the resource was opened with, or "" if the handle
// cannot be resolved.
func (h *Handle) URI() string {
	if id := h.ID(); id != 0 {
		if r, ok := h.table.lookup(id); ok {
			return r.uri
		}
	}
	return ""
}

// Info is a point-in-time snapshot of a resource context.
type Info struct {
	ID           uint64          `json:"id"`
	URI          string          `json:"uri"`
	Scheme       string          `json:"scheme"`
	Kind         core.Kind       `json:"kind"`
	Capabilities core.Capability `json:"capabilities"`
	Position     int64           `json:"position"`
	Size         int64           `json:"size"`
	References   int             `json:"references"`
	ReadRate     float64         `json:"read_rate"`
	WriteRate    float64         `json:"write_rate"`
	LastError    string          `json:"last_error,omitempty"`
}

// Info returns a snapshot of the handle's context.
func (h *Handle) Info() (Info, error) {
	var info Info
	id := h.ID()
	refs := 0
	if id != 0 {
		refs = h.table.references(id)
	}
	err := h.do("info", core.None, func(r *resource) error {
		info = Info{
			ID:           r.id,
			URI:          r.uri,
			Scheme:       r.scheme,
			Kind:         r.kind,
			Capabilities: r.caps,
			Position:     r.position,
			Size:         r.size,
			References:   refs,
			ReadRate:     r.rstats.Rate(),
			WriteRate:    r.wstats.Rate(),
			LastError:    message(r.lastErr),
		}
		return nil
	})
	return info, err
}

// Err returns the last error recorded on this handle, or nil.
func (h *Handle) Err() error {
	if h == nil {
		return nil
	}
	h.errMu.Lock()
	defer h.errMu.Unlock()
	return h.lastErr
}

// ErrorMessage returns a description of the last error recorded on this handle, or
// "" if there is none. The description is the backend's detail when available and
// otherwise a generic description of the condition, such as "bad resource handle".
// When clear is true the error is reset.
func (h *Handle) ErrorMessage(clear bool) string {
	if h == nil {
		return ""
	}
	h.errMu.Lock()
	defer h.errMu.Unlock()
	err := h.lastErr
	if clear {
		h.lastErr = nil
	}
	return message(err)
}

func message(err error) string {
	if err == nil {
		return ""
	}
	if d := errors.GetDetail(err); d != "" {
		return d
	}
	return errors.GetCode(err).Describe()
}
