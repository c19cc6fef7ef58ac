package core

import (
	"math"

	"github.com/jmgilman/go/rio/errors"
)

// ResolveSeek applies the shared seek policy and returns the new absolute position.
//
// The target is computed as follows:
//
//   - absolute, Offset >= 0: Offset from the start
//   - absolute, Offset < 0: Size + Offset (from the end)
//   - relative: Position + Offset
//
// Targets past the end are clamped to Size. Relative targets before the start are
// clamped to 0. An absolute-from-end target before the start is rejected with
// CodeInvalidArgument.
func ResolveSeek(req SeekRequest) (int64, error) {
	var target int64
	switch {
	case req.Relative:
		switch {
		case req.Offset > 0 && req.Position > math.MaxInt64-req.Offset:
			target = math.MaxInt64
		case req.Offset < 0 && req.Position < math.MinInt64-req.Offset:
			target = 0
		default:
			target = req.Position + req.Offset
		}
		if target < 0 {
			target = 0
		}
	case req.Offset >= 0:
		target = req.Offset
	default:
		target = req.Size + req.Offset
		if target < 0 {
			return -1, errors.Newf(errors.CodeInvalidArgument,
				"seek %d from end of %d-byte resource lands before start", req.Offset, req.Size)
		}
	}

	if req.Size >= 0 && target > req.Size {
		target = req.Size
	}
	return target, nil
}

// Target returns the size that applying r to a resource of the current size would
// produce, and whether that differs from current. Transitions forbidden by
// AllowShrink or AllowGrow yield current and false.
func (r ResizeRequest) Target(current int64) (int64, bool) {
	switch {
	case r.Size == current:
		return current, false
	case r.Size < current && !r.AllowShrink:
		return current, false
	case r.Size > current && !r.AllowGrow:
		return current, false
	default:
		return r.Size, true
	}
}
