package billy

import (
	stderrors "errors"
	"io/fs"
	"syscall"

	"github.com/jmgilman/go/rio/errors"
)

// translate converts a filesystem error into a PlatformError whose detail is the
// operating system's description of the failure.
func translate(err error, op, name string) error {
	if err == nil {
		return nil
	}

	var code errors.ErrorCode
	switch {
	case stderrors.Is(err, fs.ErrNotExist):
		code = errors.CodeNotFound
	case stderrors.Is(err, fs.ErrPermission):
		code = errors.CodeForbidden
	case stderrors.Is(err, fs.ErrExist):
		code = errors.CodeAlreadyExists
	default:
		code = errors.CodeBackendFailure
	}

	detail := err.Error()
	var pathErr *fs.PathError
	if stderrors.As(err, &pathErr) {
		detail = pathErr.Err.Error()
	}

	return errors.WithDetail(
		errors.WrapWithContext(err, code, op+" failed", map[string]interface{}{"path": name}),
		detail,
	)
}

// retry calls fn until it stops failing with EINTR.
func retry[T any](fn func() (T, error)) (T, error) {
	for {
		v, err := fn()
		if !stderrors.Is(err, syscall.EINTR) {
			return v, err
		}
	}
}

// retryIO calls fn until it stops failing with EINTR.
func retryIO(fn func() error) error {
	_, err := retry(func() (struct{}, error) { return struct{}{}, fn() })
	return err
}
