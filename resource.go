package rio

import (
	"sync"

	"github.com/jmgilman/go/rio/errors"
	"github.com/jmgilman/go/rio/fs/core"
	"github.com/jmgilman/go/rio/internal/stats"
)

// resource is the shared context of one open resource.
//
// refs is guarded by the owning Table's lock. Every other mutable field is guarded
// by mu.
type resource struct {
	id     uint64
	uri    string
	scheme string
	kind   core.Kind
	caps   core.Capability

	refs int

	mu       sync.Mutex
	position int64
	size     int64
	rstats   stats.Tracker
	wstats   stats.Tracker
	state    core.State
	lastErr  error
	closed   bool
}

func newResource(id uint64, uri, scheme string, opened core.Opened) *resource {
	return &resource{
		id:     id,
		uri:    uri,
		scheme: scheme,
		kind:   opened.Kind,
		caps:   opened.Capabilities & (core.Read | core.Write | core.Seek),
		refs:   1,
		size:   opened.Size,
		state:  opened.State,
	}
}

// teardown closes the backend state. It waits for any in-flight operation and
// runs the backend close at most once. The caller must not hold r.mu.
func (r *resource) teardown() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true
	if err := r.state.Close(); err != nil {
		return r.backendError(err, "close")
	}
	return nil
}

// backendError converts a failure reported by the backend into a PlatformError
// and records it as the context's last error. Errors that already carry a code
// keep it; anything else becomes CodeBackendFailure. The backend's description of
// the failure is attached as the detail. Requires r.mu.
func (r *resource) backendError(err error, op string) error {
	detail := r.state.Describe()
	if detail == "" {
		detail = errors.Describe(err)
	}

	var wrapped errors.PlatformError
	if errors.GetCode(err) != errors.CodeUnknown {
		wrapped = errors.WithContextMap(err, r.errContext(op))
		if errors.GetDetail(wrapped) == "" {
			wrapped = errors.WithDetail(wrapped, detail)
		}
	} else {
		wrapped = errors.WithDetail(
			errors.WrapWithContext(err, errors.CodeBackendFailure, op+" failed", r.errContext(op)),
			detail,
		)
	}
	r.lastErr = wrapped
	return wrapped
}

// localError records a locally detected failure as the context's last error.
// Requires r.mu.
func (r *resource) localError(err errors.PlatformError) error {
	err = errors.WithContextMap(err, r.errContext(""))
	r.lastErr = err
	return err
}

func (r *resource) errContext(op string) map[string]interface{} {
	ctx := map[string]interface{}{
		"uri": r.uri,
		"id":  r.id,
	}
	if op != "" {
		ctx["op"] = op
	}
	return ctx
}
