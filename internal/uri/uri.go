// Package uri normalizes user-supplied paths into the URIs rio dispatches on.
package uri

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/jmgilman/go/rio/errors"
)

// FileScheme is the scheme assigned to local paths.
const FileScheme = "file"

// schemePrefix matches an RFC 3986 scheme followed by a colon.
var schemePrefix = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.-]*:`)

// Normalize converts path into a URI.
//
//   - absolute local paths become file://<path>
//   - strings that start with "scheme:" are returned unchanged
//   - relative paths are made absolute (resolving symlinks when the target
//     exists) and become file://<path>
//
// Empty input is rejected with CodeInvalidArgument.
func Normalize(path string) (string, error) {
	switch {
	case path == "":
		return "", errors.New(errors.CodeInvalidArgument, "empty path")
	case filepath.IsAbs(path):
		return FileScheme + "://" + filepath.ToSlash(filepath.Clean(path)), nil
	case schemePrefix.MatchString(path):
		return path, nil
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", errors.WithContext(
			errors.Wrap(err, errors.CodeInvalidArgument, "cannot resolve relative path"),
			"path", path,
		)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		abs = resolved
	} else if !os.IsNotExist(err) {
		return "", errors.WithContext(
			errors.Wrap(err, errors.CodeInvalidArgument, "cannot resolve relative path"),
			"path", path,
		)
	}
	return FileScheme + "://" + filepath.ToSlash(abs), nil
}

// Scheme returns the lower-cased scheme of uri, or "" if uri has none.
func Scheme(uri string) string {
	loc := schemePrefix.FindStringIndex(uri)
	if loc == nil {
		return ""
	}
	return strings.ToLower(uri[:loc[1]-1])
}

// Path strips the "scheme://" or "scheme:" prefix of uri.
// Returns CodeInvalidArgument if uri does not carry the given scheme.
func Path(uri, scheme string) (string, error) {
	if Scheme(uri) != strings.ToLower(scheme) {
		return "", errors.WithContext(
			errors.Newf(errors.CodeInvalidArgument, "uri is not a %s URI", scheme),
			"uri", uri,
		)
	}
	rest := uri[len(scheme)+1:]
	return strings.TrimPrefix(rest, "//"), nil
}
