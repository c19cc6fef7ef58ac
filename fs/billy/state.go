package billy

import (
	"bytes"
	"io"
	"sync"

	"github.com/go-git/go-billy/v5"

	"github.com/jmgilman/go/rio/errors"
	"github.com/jmgilman/go/rio/fs/core"
)

// fillChunk bounds the buffer used to grow a file with a non-zero fill byte.
const fillChunk = 64 * 1024

// state is the backend state of one open billy.File.
// It stores a reference to the filesystem since billy.File does not provide Stat().
type state struct {
	file    billy.File
	fs      billy.Basic
	mu      *sync.Mutex
	name    string
	kind    core.Kind
	lastErr error
	closed  bool
}

func (s *state) fail(err error, op string) error {
	err = translate(err, op, s.name)
	s.lastErr = err
	return err
}

// Read reads at off, or from the stream for non-seekable files.
func (s *state) Read(p []byte, off int64) (int, error) {
	lock(s.mu)
	defer unlock(s.mu)

	var n int
	err := retryIO(func() error {
		var err error
		if s.kind == core.KindStream {
			n, err = s.file.Read(p)
		} else {
			n, err = s.file.ReadAt(p, off)
		}
		return err
	})
	if err != nil && err != io.EOF {
		return n, s.fail(err, "read")
	}
	return n, err
}

// Write writes at off, or to the stream for non-seekable files. Files without
// WriteAt are written through Seek and Write.
func (s *state) Write(p []byte, off int64) (int, error) {
	lock(s.mu)
	defer unlock(s.mu)

	var n int
	err := retryIO(func() error {
		var err error
		n, err = s.writeAt(p, off)
		return err
	})
	if err != nil {
		return n, s.fail(err, "write")
	}
	return n, nil
}

func (s *state) writeAt(p []byte, off int64) (int, error) {
	if s.kind == core.KindStream {
		return s.file.Write(p)
	}
	if wa, ok := s.file.(io.WriterAt); ok {
		return wa.WriteAt(p, off)
	}
	if _, err := s.file.Seek(off, io.SeekStart); err != nil {
		return 0, err
	}
	return s.file.Write(p)
}

// Seek applies the shared clamp policy. Positional I/O means the underlying file
// offset never needs to move.
func (s *state) Seek(req core.SeekRequest) (int64, error) {
	pos, err := core.ResolveSeek(req)
	if err != nil {
		s.lastErr = err
		return -1, err
	}
	return pos, nil
}

func (s *state) size() (int64, error) {
	info, err := s.fs.Stat(s.name)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// Resize truncates or extends the file. Growth with a zero fill byte uses
// Truncate; any other fill byte is written out explicitly.
func (s *state) Resize(req core.ResizeRequest) (int64, error) {
	lock(s.mu)
	defer unlock(s.mu)

	cur, err := s.size()
	if err != nil {
		return 0, s.fail(err, "resize")
	}
	target, changed := req.Target(cur)
	if !changed {
		return cur, nil
	}

	if target < cur || req.Fill == 0 {
		if err := retryIO(func() error { return s.file.Truncate(target) }); err != nil {
			return cur, s.fail(err, "resize")
		}
		return target, nil
	}

	chunk := bytes.Repeat([]byte{req.Fill}, int(min(target-cur, fillChunk)))
	for off := cur; off < target; {
		n, err := s.writeAt(chunk[:min(int64(len(chunk)), target-off)], off)
		off += int64(n)
		if err != nil {
			return off, s.fail(err, "resize")
		}
	}
	return target, nil
}

// Sync flushes the file. Billy.File may or may not provide Sync depending on the
// backend; for backends without it (e.g., memfs) this is a no-op.
func (s *state) Sync() error {
	lock(s.mu)
	defer unlock(s.mu)

	if syncer, ok := s.file.(interface{ Sync() error }); ok {
		if err := retryIO(syncer.Sync); err != nil {
			return s.fail(err, "sync")
		}
	}
	return nil
}

// Close closes the file. Repeated calls return nil.
func (s *state) Close() error {
	lock(s.mu)
	defer unlock(s.mu)

	if s.closed {
		return nil
	}
	s.closed = true
	if err := s.file.Close(); err != nil {
		return s.fail(err, "close")
	}
	return nil
}

// Describe returns the detail of the last failure.
func (s *state) Describe() string {
	return errors.Describe(s.lastErr)
}

var _ core.State = (*state)(nil)
