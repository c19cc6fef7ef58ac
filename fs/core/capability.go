package core

import (
	"strings"

	"github.com/jmgilman/go/rio/errors"
)

// Capability is a bitset of the operations a resource supports.
type Capability uint32

const (
	// Read permits Read and Peek.
	Read Capability = 1 << iota
	// Write permits Write, Append, Reserve, Resize and Truncate.
	Write
	// Seek permits Seek. Only granted for resources with a stable byte offset.
	Seek
)

// None is the empty capability set.
const None Capability = 0

// Has reports whether every bit of want is set in c.
func (c Capability) Has(want Capability) bool {
	return want != None && c&want == want
}

// String returns a "|"-separated list of capability names, or "none".
func (c Capability) String() string {
	var parts []string
	if c&Read != 0 {
		parts = append(parts, "read")
	}
	if c&Write != 0 {
		parts = append(parts, "write")
	}
	if c&Seek != 0 {
		parts = append(parts, "seek")
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "|")
}

// MarshalText encodes the set as its string form.
func (c Capability) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// ValidateMode returns a CodeInvalidArgument error unless mode requests Read or Write.
func ValidateMode(mode Capability) error {
	if mode&(Read|Write) == 0 {
		return errors.Newf(errors.CodeInvalidArgument, "mode %s requests neither read nor write", mode)
	}
	return nil
}

// ParseMode parses a short mode string such as "r", "rw" or "rws".
// Each letter adds one capability: r (Read), w (Write), s (Seek).
func ParseMode(s string) (Capability, error) {
	var mode Capability
	for _, r := range s {
		switch r {
		case 'r':
			mode |= Read
		case 'w':
			mode |= Write
		case 's':
			mode |= Seek
		default:
			return None, errors.Newf(errors.CodeInvalidArgument, "invalid mode character %q in %q", r, s)
		}
	}
	if err := ValidateMode(mode); err != nil {
		return None, err
	}
	return mode, nil
}
