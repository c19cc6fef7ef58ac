package minio

import (
	"bytes"
	"io"

	"github.com/jmgilman/go/rio/errors"
	"github.com/jmgilman/go/rio/fs/core"
	"github.com/jmgilman/go/rio/fs/minio/internal/errs"
)

// objectState is an object buffered in memory.
type objectState struct {
	backend *Backend
	bucket  string
	key     string
	data    []byte
	dirty   bool
	closed  bool
	lastErr error
}

// Read reads from the buffered object at off.
func (s *objectState) Read(p []byte, off int64) (int, error) {
	if off >= int64(len(s.data)) {
		return 0, io.EOF
	}
	n := copy(p, s.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// Write writes into the buffered object at off, growing it as needed.
func (s *objectState) Write(p []byte, off int64) (int, error) {
	if off < 0 {
		off = int64(len(s.data))
	}
	s.grow(off+int64(len(p)), 0)
	n := copy(s.data[off:], p)
	s.dirty = true
	return n, nil
}

// grow extends the buffer to size bytes, filling new space with fill.
func (s *objectState) grow(size int64, fill byte) {
	cur := int64(len(s.data))
	if size <= cur {
		return
	}
	if fill == 0 {
		s.data = append(s.data, make([]byte, size-cur)...)
		return
	}
	s.data = append(s.data, bytes.Repeat([]byte{fill}, int(size-cur))...)
}

// Seek applies the shared clamp policy.
func (s *objectState) Seek(req core.SeekRequest) (int64, error) {
	pos, err := core.ResolveSeek(req)
	if err != nil {
		s.lastErr = err
		return -1, err
	}
	return pos, nil
}

// Resize shrinks or grows the buffered object.
func (s *objectState) Resize(req core.ResizeRequest) (int64, error) {
	cur := int64(len(s.data))
	target, changed := req.Target(cur)
	if !changed {
		return cur, nil
	}
	if target < cur {
		s.data = s.data[:target]
	} else {
		s.grow(target, req.Fill)
	}
	s.dirty = true
	return target, nil
}

// Sync uploads the object if it has unsynced changes.
func (s *objectState) Sync() error {
	if !s.dirty {
		return nil
	}

	ctx, cancel := s.backend.requestContext()
	defer cancel()

	if err := s.backend.store.Store(ctx, s.bucket, s.key, s.data); err != nil {
		err = errs.Translate(err, "store", s.bucket, s.key)
		s.lastErr = err
		return err
	}
	s.dirty = false
	return nil
}

// Close uploads unsynced changes. Repeated calls return nil.
func (s *objectState) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	err := s.Sync()
	s.data = nil
	return err
}

// Describe returns the detail of the last failure.
func (s *objectState) Describe() string {
	return errors.Describe(s.lastErr)
}

var _ core.State = (*objectState)(nil)
