// Package pathutil turns URI paths into S3 object keys.
package pathutil

import (
	"path"
	"strings"
)

// clean resolves "." and ".." segments, converts backslashes and strips leading
// and trailing slashes. The result is "" for paths naming the root.
func clean(p string) string {
	p = strings.ReplaceAll(p, `\`, "/")
	p = strings.Trim(path.Clean("/"+p), "/")
	return p
}

// Prefix returns the canonical form of a key prefix, "" when there is none.
func Prefix(prefix string) string {
	return clean(prefix)
}

// Key returns the object key for name under prefix. It reports false when name
// resolves to no object, as "" and "/" do. Segments climbing above the root are
// dropped, so a key never escapes prefix.
func Key(prefix, name string) (string, bool) {
	name = clean(name)
	if name == "" {
		return "", false
	}
	if prefix == "" {
		return name, true
	}
	return prefix + "/" + name, true
}
