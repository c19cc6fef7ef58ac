package rio

import (
	"bytes"
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/require"

	"github.com/jmgilman/go/rio/errors"
	"github.com/jmgilman/go/rio/fs/core"
	"github.com/jmgilman/go/rio/scheme"
)

// fakeBackend serves the "fake" scheme from memory and counts the calls the
// handle layer makes. Every transfer advances clock by one second.
type fakeBackend struct {
	clock   *clock.Mock
	stream  bool
	openErr error

	mu       sync.Mutex
	opens    int
	closes   int
	resizes  int
	writeErr error
	shortBy  int64

	// Close of a resource opened at slowURI signals started and then waits for
	// release to be closed.
	slowURI string
	started chan struct{}
	release chan struct{}
}

// slowCloses makes Close of u block until the returned function is called.
func (b *fakeBackend) slowCloses(u string) (release func()) {
	b.slowURI = u
	b.started = make(chan struct{}, 1)
	b.release = make(chan struct{})
	return func() { close(b.release) }
}

func (b *fakeBackend) Scheme() string { return "fake" }

func (b *fakeBackend) Open(_ context.Context, u string, mode core.Capability) (core.Opened, error) {
	if err := core.ValidateMode(mode); err != nil {
		return core.Opened{}, err
	}
	if b.openErr != nil {
		return core.Opened{}, b.openErr
	}

	b.mu.Lock()
	b.opens++
	b.mu.Unlock()

	opened := core.Opened{
		State:        &fakeState{b: b, slow: b.slowURI != "" && u == b.slowURI},
		Capabilities: mode,
		Size:         0,
		Kind:         core.KindRegular,
	}
	if b.stream {
		opened.Capabilities &^= core.Seek
		opened.Size = core.SizeUnknown
		opened.Kind = core.KindStream
	}
	return opened, nil
}

func (b *fakeBackend) counts() (closes, resizes int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closes, b.resizes
}

func (b *fakeBackend) failWrites(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.writeErr = err
}

type fakeState struct {
	b      *fakeBackend
	data   []byte
	detail string
	slow   bool
}

func (s *fakeState) tick() {
	if s.b.clock != nil {
		s.b.clock.Add(time.Second)
	}
}

func (s *fakeState) Read(p []byte, off int64) (int, error) {
	s.tick()
	if s.b.stream {
		off = 0
	}
	if off >= int64(len(s.data)) {
		return 0, io.EOF
	}
	n := copy(p, s.data[off:])
	if s.b.stream {
		s.data = s.data[n:]
	}
	return n, nil
}

func (s *fakeState) Write(p []byte, off int64) (int, error) {
	s.tick()
	s.b.mu.Lock()
	err := s.b.writeErr
	s.b.mu.Unlock()
	if err != nil {
		s.detail = "disk on fire"
		return 0, err
	}
	if off < 0 || s.b.stream {
		off = int64(len(s.data))
	}
	if end := off + int64(len(p)); end > int64(len(s.data)) {
		s.data = append(s.data, make([]byte, end-int64(len(s.data)))...)
	}
	return copy(s.data[off:], p), nil
}

func (s *fakeState) Seek(req core.SeekRequest) (int64, error) {
	return core.ResolveSeek(req)
}

func (s *fakeState) Resize(req core.ResizeRequest) (int64, error) {
	s.tick()
	s.b.mu.Lock()
	s.b.resizes++
	short := s.b.shortBy
	s.b.mu.Unlock()

	cur := int64(len(s.data))
	target, changed := req.Target(cur)
	if !changed {
		return cur, nil
	}
	target -= short
	if target < cur {
		s.data = s.data[:target]
	} else {
		s.data = append(s.data, bytes.Repeat([]byte{req.Fill}, int(target-cur))...)
	}
	return target, nil
}

func (s *fakeState) Sync() error { return nil }

func (s *fakeState) Close() error {
	if s.slow {
		select {
		case s.b.started <- struct{}{}:
		default:
		}
		<-s.b.release
	}
	s.b.mu.Lock()
	defer s.b.mu.Unlock()
	s.b.closes++
	return nil
}

func (s *fakeState) Describe() string { return s.detail }

// newFakeTable returns a table serving only the fake backend, timed by a mock clock.
func newFakeTable(t *testing.T, opts ...Option) (*Table, *fakeBackend) {
	t.Helper()
	mock := clock.NewMock()
	b := &fakeBackend{clock: mock}
	opts = append([]Option{WithSchemes(scheme.New(b)), WithClock(mock)}, opts...)
	return NewTable(opts...), b
}

func openFake(t *testing.T, table *Table, mode core.Capability) *Handle {
	t.Helper()
	h, err := table.Open("fake://resource", mode)
	require.NoError(t, err)
	t.Cleanup(func() { _ = h.Close() })
	return h
}

func requireCode(t *testing.T, err error, code errors.ErrorCode) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, code, errors.GetCode(err), "unexpected error: %v", err)
}
