package rio

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/benbjohnson/clock"
	"golang.org/x/sync/errgroup"

	"github.com/jmgilman/go/rio/errors"
	"github.com/jmgilman/go/rio/fs/core"
	"github.com/jmgilman/go/rio/internal/uri"
	"github.com/jmgilman/go/rio/scheme"
)

// Table is the identifier registry: it issues identifiers for opened resources and
// maps them to their contexts.
//
// Identifiers come from an atomic counter starting at 1 and are never reused.
// Identifier 0 is reserved for unbound handles and is never stored.
//
// A Table is safe for concurrent use. Use Default for the process-wide table or
// NewTable for an isolated one.
type Table struct {
	counter atomic.Uint64

	mu      sync.Mutex
	entries map[uint64]*resource

	schemes   *scheme.Registry
	clock     clock.Clock
	logger    *slog.Logger
	normalize func(string) (string, error)
	metrics   *metrics
}

// NewTable creates an empty identifier table.
func NewTable(opts ...Option) *Table {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	o.fill()

	return &Table{
		entries:   make(map[uint64]*resource),
		schemes:   o.Schemes,
		clock:     o.Clock,
		logger:    o.Logger,
		normalize: o.Normalizer,
		metrics:   newMetrics(o.Registerer),
	}
}

// Schemes returns the registry the table selects backends from.
func (t *Table) Schemes() *scheme.Registry {
	return t.schemes
}

// Open opens the resource at path with the requested mode.
// See OpenContext.
func (t *Table) Open(path string, mode core.Capability) (*Handle, error) {
	return t.OpenContext(context.Background(), path, mode)
}

// OpenContext opens the resource at path with the requested mode and returns a
// bound handle. The context is passed to the backend's Open and is not retained.
//
// The mode must request Read or Write. The capabilities actually granted may be
// narrower than mode (a pipe is never seekable) and are reported by
// Handle.Capabilities.
//
// Returns:
//   - CodeInvalidArgument if the mode is empty or the path cannot be normalized
//   - CodeUnsupported if no backend serves the URI's scheme
//   - the backend's error otherwise
func (t *Table) OpenContext(ctx context.Context, path string, mode core.Capability) (*Handle, error) {
	if err := core.ValidateMode(mode); err != nil {
		return nil, errors.WithContext(err, "path", path)
	}

	u, err := t.normalize(path)
	if err != nil {
		return nil, errors.WithContext(err, "path", path)
	}
	name := uri.Scheme(u)

	backend, err := t.schemes.Find(name)
	if err != nil {
		t.metrics.opened(name, err)
		return nil, errors.WithContext(
			errors.Wrapf(err, errors.CodeUnsupported, "unsupported scheme %q", name),
			"uri", u,
		)
	}

	opened, err := backend.Open(ctx, u, mode)
	if err != nil {
		t.metrics.opened(name, err)
		t.logger.Debug("open failed", "uri", u, "mode", mode.String(), "error", err)
		if errors.GetCode(err) == errors.CodeUnknown {
			err = errors.Wrap(err, errors.CodeBackendFailure, "open failed")
		}
		return nil, errors.WithContextMap(err, map[string]interface{}{"uri": u, "scheme": name})
	}
	if opened.State == nil {
		t.metrics.opened(name, errors.New(errors.CodeInternal, ""))
		return nil, errors.WithContext(
			errors.Newf(errors.CodeInternal, "backend %q returned no state", name),
			"uri", u,
		)
	}

	id := t.nextID()
	res := newResource(id, u, name, opened)
	t.mu.Lock()
	t.entries[id] = res
	t.mu.Unlock()

	t.metrics.opened(name, nil)
	t.metrics.open.Inc()
	t.logger.Debug("opened resource",
		"id", id,
		"uri", u,
		"kind", opened.Kind.String(),
		"capabilities", res.caps.String(),
		"size", opened.Size,
	)
	return newHandle(t, id), nil
}

// nextID returns a fresh non-zero identifier.
func (t *Table) nextID() uint64 {
	for {
		if id := t.counter.Add(1); id != 0 {
			return id
		}
	}
}

// Len returns the number of live resource contexts.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

// lookup resolves id to its context.
func (t *Table) lookup(id uint64) (*resource, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	res, ok := t.entries[id]
	return res, ok
}

// references returns the reference count of id, or 0 if id is not stored.
func (t *Table) references(id uint64) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	if res, ok := t.entries[id]; ok {
		return res.refs
	}
	return 0
}

// retain adds a reference to id. Reports false if id is not stored.
func (t *Table) retain(id uint64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	res, ok := t.entries[id]
	if !ok {
		return false
	}
	res.refs++
	return true
}

// release drops a reference to id. Dropping the last reference removes id from
// the table and then closes the backend. Releasing an id that is no longer stored
// is a no-op.
func (t *Table) release(id uint64) error {
	t.mu.Lock()
	res, ok := t.entries[id]
	if !ok {
		t.mu.Unlock()
		return nil
	}
	res.refs--
	last := res.refs == 0
	if last {
		delete(t.entries, id)
	}
	t.mu.Unlock()

	if !last {
		return nil
	}
	t.metrics.open.Dec()
	t.logger.Debug("closing resource", "id", id, "uri", res.uri)
	return res.teardown()
}

// reclaim releases the reference held by a handle that was garbage collected while
// still bound. It may block on the backend's Close.
func (t *Table) reclaim(id uint64) {
	if res, ok := t.lookup(id); ok {
		t.logger.Warn("handle garbage collected without Close", "id", id, "uri", res.uri)
	}
	if err := t.release(id); err != nil {
		t.logger.Warn("closing reclaimed resource failed", "id", id, "error", err)
	}
}

// Shutdown removes every context from the table and closes their backends
// concurrently. Handles that still refer to removed contexts become unbound on
// their next operation.
//
// Every removed backend is closed, whatever the state of ctx. Shutdown returns the
// first close failure, or ctx.Err() if ctx is done before every backend has
// closed; the remaining closes then finish in the background.
func (t *Table) Shutdown(ctx context.Context) error {
	t.mu.Lock()
	entries := t.entries
	t.entries = make(map[uint64]*resource)
	for _, res := range entries {
		res.refs = 0
	}
	t.mu.Unlock()

	if len(entries) == 0 {
		return nil
	}
	t.logger.Debug("shutting down identifier table", "resources", len(entries))

	var g errgroup.Group
	for _, res := range entries {
		g.Go(func() error {
			t.metrics.open.Dec()
			return res.teardown()
		})
	}

	done := make(chan error, 1)
	go func() {
		done <- g.Wait()
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		t.logger.Warn("shutdown interrupted before all resources closed", "error", ctx.Err())
		return ctx.Err()
	}
}

var defaultTable = sync.OnceValue(func() *Table {
	return NewTable()
})

// Default returns the process-wide table, creating it on first use. It serves the
// "file" and "mem" schemes.
func Default() *Table {
	return defaultTable()
}

// Open opens path on the default table.
func Open(path string, mode core.Capability) (*Handle, error) {
	return Default().Open(path, mode)
}

// OpenContext opens path on the default table.
func OpenContext(ctx context.Context, path string, mode core.Capability) (*Handle, error) {
	return Default().OpenContext(ctx, path, mode)
}
