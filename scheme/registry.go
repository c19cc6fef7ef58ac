// Package scheme maps URI schemes to the backends that service them.
package scheme

import (
	"sort"
	"strings"
	"sync"

	"github.com/jmgilman/go/rio/errors"
	"github.com/jmgilman/go/rio/fs/core"
)

// Registry is a mapping from lower-case scheme names to backends.
//
// Lookups normally vastly outnumber registrations, so the mapping is guarded by a
// read/write lock. A Registry is safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	backends map[string]core.Backend
}

// New creates a registry holding the given backends.
// A later backend replaces an earlier one with the same scheme.
func New(backends ...core.Backend) *Registry {
	r := &Registry{backends: make(map[string]core.Backend, len(backends))}
	for _, b := range backends {
		r.backends[canonical(b.Scheme())] = b
	}
	return r
}

// canonical returns the canonical (lower-case) form of a scheme.
func canonical(scheme string) string {
	return strings.ToLower(scheme)
}

// Register adds b under its scheme, replacing any previous registration.
// Returns CodeInvalidArgument if b is nil or reports an empty scheme.
func (r *Registry) Register(b core.Backend) error {
	if b == nil {
		return errors.New(errors.CodeInvalidArgument, "backend is nil")
	}
	name := canonical(b.Scheme())
	if name == "" {
		return errors.New(errors.CodeInvalidArgument, "backend reports an empty scheme")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.backends == nil {
		r.backends = make(map[string]core.Backend)
	}
	r.backends[name] = b
	return nil
}

// Unregister removes the backend registered for scheme, if any.
// Resources already opened through it are unaffected.
func (r *Registry) Unregister(scheme string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.backends, canonical(scheme))
}

// Find returns the backend registered for scheme.
// Returns a CodeNotFound error if no backend serves it.
func (r *Registry) Find(scheme string) (core.Backend, error) {
	name := canonical(scheme)

	r.mu.RLock()
	b, ok := r.backends[name]
	r.mu.RUnlock()

	if !ok {
		return nil, errors.WithContext(
			errors.Newf(errors.CodeNotFound, "no backend registered for scheme %q", name),
			"scheme", name,
		)
	}
	return b, nil
}

// Schemes returns the registered scheme names in sorted order.
func (r *Registry) Schemes() []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.backends))
	for name := range r.backends {
		names = append(names, name)
	}
	r.mu.RUnlock()

	sort.Strings(names)
	return names
}
