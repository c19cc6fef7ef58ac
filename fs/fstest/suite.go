// Package fstest provides a conformance test suite for validating rio backend
// implementations against the core.Backend and core.State contracts.
//
// The suite exercises backends directly, below the handle layer, so the offsets,
// sizes and seek requests it supplies mirror what the handle layer passes.
//
// Example usage:
//
//	func TestMyBackend(t *testing.T) {
//	    fstest.TestBackend(t, func() core.Backend {
//	        return mybackend.New()
//	    }, fstest.Config{
//	        URI: func(name string) string { return "my://" + name },
//	    })
//	}
package fstest

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmgilman/go/rio/errors"
	"github.com/jmgilman/go/rio/fs/core"
)

// Config configures the suite to match backend behavior characteristics.
type Config struct {
	// URI returns the URI of the resource called name. Every call within one
	// test uses a name unique to that test.
	URI func(name string) string

	// Kind is the kind regular resources are reported as.
	// Defaults to core.KindRegular.
	Kind core.Kind

	// SkipTests lists specific test names to skip (for edge cases).
	// Format: "Group/SubTest" (e.g., "State/ResizeFill").
	SkipTests []string
}

func (c Config) shouldSkip(name string) bool {
	for _, skip := range c.SkipTests {
		if skip == name {
			return true
		}
	}
	return false
}

func (c Config) run(t *testing.T, group, name string, fn func(t *testing.T)) {
	t.Helper()
	t.Run(name, func(t *testing.T) {
		if c.shouldSkip(group + "/" + name) {
			t.Skip("Skipped by backend configuration")
			return
		}
		fn(t)
	})
}

// TestBackend runs all conformance tests against a backend.
// The newBackend function should return a backend whose resources do not collide
// with earlier tests; each test uses its own resource names.
func TestBackend(t *testing.T, newBackend func() core.Backend, cfg Config) {
	require.NotNil(t, cfg.URI, "Config.URI is required")
	if cfg.Kind == core.KindUnknown {
		cfg.Kind = core.KindRegular
	}

	t.Run("Open", func(t *testing.T) {
		testOpen(t, newBackend, cfg)
	})
	t.Run("State", func(t *testing.T) {
		testState(t, newBackend, cfg)
	})
}

func open(t *testing.T, b core.Backend, u string, mode core.Capability) core.Opened {
	t.Helper()
	opened, err := b.Open(context.Background(), u, mode)
	require.NoError(t, err, "open %s", u)
	require.NotNil(t, opened.State)
	t.Cleanup(func() { _ = opened.State.Close() })
	return opened
}

// seed creates the resource u holding data.
func seed(t *testing.T, b core.Backend, u string, data []byte) {
	t.Helper()
	opened, err := b.Open(context.Background(), u, core.Write)
	require.NoError(t, err)
	n, err := opened.State.Write(data, 0)
	require.NoError(t, err)
	require.Equal(t, len(data), n)
	require.NoError(t, opened.State.Sync())
	require.NoError(t, opened.State.Close())
}

func testOpen(t *testing.T, newBackend func() core.Backend, cfg Config) {
	cfg.run(t, "Open", "InvalidMode", func(t *testing.T) {
		b := newBackend()
		_, err := b.Open(context.Background(), cfg.URI("invalid-mode"), core.Seek)
		require.Error(t, err)
		assert.Equal(t, errors.CodeInvalidArgument, errors.GetCode(err))
	})

	cfg.run(t, "Open", "MissingReadOnly", func(t *testing.T) {
		b := newBackend()
		_, err := b.Open(context.Background(), cfg.URI("missing"), core.Read)
		require.Error(t, err)
		assert.Equal(t, errors.CodeNotFound, errors.GetCode(err))
	})

	cfg.run(t, "Open", "WriteCreates", func(t *testing.T) {
		b := newBackend()
		opened := open(t, b, cfg.URI("created"), core.Read|core.Write|core.Seek)
		assert.Equal(t, core.Read|core.Write|core.Seek, opened.Capabilities)
		assert.Equal(t, int64(0), opened.Size)
		assert.Equal(t, cfg.Kind, opened.Kind)
	})

	cfg.run(t, "Open", "GrantsRequestedSubset", func(t *testing.T) {
		b := newBackend()
		u := cfg.URI("subset")
		seed(t, b, u, []byte("abc"))

		opened := open(t, b, u, core.Read)
		assert.Equal(t, core.Read, opened.Capabilities)
		assert.Equal(t, int64(3), opened.Size)
	})
}

func testState(t *testing.T, newBackend func() core.Backend, cfg Config) {
	cfg.run(t, "State", "ReadWrite", func(t *testing.T) {
		b := newBackend()
		s := open(t, b, cfg.URI("read-write"), core.Read|core.Write|core.Seek).State

		n, err := s.Write([]byte("hello world"), 0)
		require.NoError(t, err)
		assert.Equal(t, 11, n)

		n, err = s.Write([]byte("WORLD"), 6)
		require.NoError(t, err)
		assert.Equal(t, 5, n)

		buf := make([]byte, 5)
		n, err = s.Read(buf, 6)
		require.NoError(t, err)
		assert.Equal(t, "WORLD", string(buf[:n]))

		n, err = s.Read(buf, 0)
		require.NoError(t, err)
		assert.Equal(t, "hello", string(buf[:n]))
	})

	cfg.run(t, "State", "ReadAtEnd", func(t *testing.T) {
		b := newBackend()
		u := cfg.URI("read-end")
		seed(t, b, u, []byte("abc"))
		s := open(t, b, u, core.Read|core.Seek).State

		buf := make([]byte, 8)
		n, err := s.Read(buf, 1)
		if err != nil {
			require.ErrorIs(t, err, io.EOF)
		}
		assert.Equal(t, "bc", string(buf[:n]))

		n, err = s.Read(buf, 3)
		assert.Equal(t, 0, n)
		assert.ErrorIs(t, err, io.EOF)
	})

	cfg.run(t, "State", "AppendAtSize", func(t *testing.T) {
		b := newBackend()
		u := cfg.URI("append")
		seed(t, b, u, []byte("hello"))
		s := open(t, b, u, core.Read|core.Write|core.Seek).State

		n, err := s.Write([]byte("!!!"), 5)
		require.NoError(t, err)
		assert.Equal(t, 3, n)

		buf := make([]byte, 8)
		n, _ = s.Read(buf, 0)
		assert.Equal(t, "hello!!!", string(buf[:n]))
	})

	cfg.run(t, "State", "Seek", func(t *testing.T) {
		b := newBackend()
		s := open(t, b, cfg.URI("seek"), core.Read|core.Write|core.Seek).State

		tests := []struct {
			name    string
			req     core.SeekRequest
			want    int64
			wantErr bool
		}{
			{"absolute", core.SeekRequest{Offset: 3, Size: 10}, 3, false},
			{"absolute past end clamps", core.SeekRequest{Offset: 20, Size: 10}, 10, false},
			{"from end", core.SeekRequest{Offset: -4, Size: 10}, 6, false},
			{"from end before start", core.SeekRequest{Offset: -11, Size: 10}, -1, true},
			{"relative", core.SeekRequest{Offset: 2, Relative: true, Position: 5, Size: 10}, 7, false},
			{"relative before start clamps", core.SeekRequest{Offset: -9, Relative: true, Position: 5, Size: 10}, 0, false},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				got, err := s.Seek(tt.req)
				if tt.wantErr {
					require.Error(t, err)
					assert.Equal(t, errors.CodeInvalidArgument, errors.GetCode(err))
					assert.Equal(t, "seek -11 from end of 10-byte resource lands before start", s.Describe())
					return
				}
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			})
		}
	})

	cfg.run(t, "State", "ResizeShrink", func(t *testing.T) {
		b := newBackend()
		u := cfg.URI("shrink")
		seed(t, b, u, []byte("hello world"))
		s := open(t, b, u, core.Read|core.Write|core.Seek).State

		size, err := s.Resize(core.ResizeRequest{Size: 5, AllowShrink: true})
		require.NoError(t, err)
		assert.Equal(t, int64(5), size)

		buf := make([]byte, 16)
		n, _ := s.Read(buf, 0)
		assert.Equal(t, "hello", string(buf[:n]))
	})

	cfg.run(t, "State", "ResizeFill", func(t *testing.T) {
		b := newBackend()
		u := cfg.URI("fill")
		seed(t, b, u, []byte("ab"))
		s := open(t, b, u, core.Read|core.Write|core.Seek).State

		size, err := s.Resize(core.ResizeRequest{Size: 6, Fill: 'x', AllowGrow: true})
		require.NoError(t, err)
		assert.Equal(t, int64(6), size)

		buf := make([]byte, 16)
		n, _ := s.Read(buf, 0)
		assert.Equal(t, "abxxxx", string(buf[:n]))
	})

	cfg.run(t, "State", "ResizeZeroFill", func(t *testing.T) {
		b := newBackend()
		s := open(t, b, cfg.URI("zero-fill"), core.Read|core.Write|core.Seek).State

		size, err := s.Resize(core.ResizeRequest{Size: 4, AllowGrow: true})
		require.NoError(t, err)
		assert.Equal(t, int64(4), size)

		buf := make([]byte, 8)
		n, _ := s.Read(buf, 0)
		assert.Equal(t, []byte{0, 0, 0, 0}, buf[:n])
	})

	cfg.run(t, "State", "ResizeDisallowed", func(t *testing.T) {
		b := newBackend()
		u := cfg.URI("disallowed")
		seed(t, b, u, []byte("hello"))
		s := open(t, b, u, core.Read|core.Write|core.Seek).State

		size, err := s.Resize(core.ResizeRequest{Size: 2, AllowGrow: true})
		require.NoError(t, err)
		assert.Equal(t, int64(5), size, "shrink without AllowShrink is a no-op")

		size, err = s.Resize(core.ResizeRequest{Size: 9, AllowShrink: true})
		require.NoError(t, err)
		assert.Equal(t, int64(5), size, "grow without AllowGrow is a no-op")
	})

	cfg.run(t, "State", "SyncPersists", func(t *testing.T) {
		b := newBackend()
		u := cfg.URI("persist")
		opened, err := b.Open(context.Background(), u, core.Write)
		require.NoError(t, err)
		_, err = opened.State.Write([]byte("durable"), 0)
		require.NoError(t, err)
		require.NoError(t, opened.State.Sync())
		require.NoError(t, opened.State.Close())

		reopened := open(t, b, u, core.Read)
		assert.Equal(t, int64(7), reopened.Size)
		buf := make([]byte, 7)
		n, _ := reopened.State.Read(buf, 0)
		assert.Equal(t, "durable", string(buf[:n]))
	})

	cfg.run(t, "State", "CloseIdempotent", func(t *testing.T) {
		b := newBackend()
		opened, err := b.Open(context.Background(), cfg.URI("close"), core.Write)
		require.NoError(t, err)
		require.NoError(t, opened.State.Close())
		assert.NoError(t, opened.State.Close())
	})
}
