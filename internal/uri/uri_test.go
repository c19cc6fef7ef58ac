package uri

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jmgilman/go/rio/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"absolute path", "/tmp/data.bin", "file:///tmp/data.bin"},
		{"absolute path is cleaned", "/tmp/../tmp/./data.bin", "file:///tmp/data.bin"},
		{"file uri passes through", "file:///etc/hosts", "file:///etc/hosts"},
		{"mem uri passes through", "mem://scratch", "mem://scratch"},
		{"s3 uri passes through", "s3://bucket/key", "s3://bucket/key"},
		{"mixed case scheme passes through", "S3+Path://x", "S3+Path://x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalize_Relative(t *testing.T) {
	dir := t.TempDir()
	resolved, err := filepath.EvalSymlinks(dir)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(resolved, "present.txt"), []byte("x"), 0o600))

	t.Chdir(resolved)

	got, err := Normalize("present.txt")
	require.NoError(t, err)
	assert.Equal(t, "file://"+filepath.ToSlash(filepath.Join(resolved, "present.txt")), got)

	got, err = Normalize("missing/file.txt")
	require.NoError(t, err, "missing relative paths are still made absolute")
	assert.Equal(t, "file://"+filepath.ToSlash(filepath.Join(resolved, "missing/file.txt")), got)
}

func TestNormalize_Empty(t *testing.T) {
	_, err := Normalize("")
	require.Error(t, err)
	assert.Equal(t, errors.CodeInvalidArgument, errors.GetCode(err))
}

func TestScheme(t *testing.T) {
	assert.Equal(t, "file", Scheme("file:///tmp/x"))
	assert.Equal(t, "s3", Scheme("S3://bucket/key"))
	assert.Equal(t, "mem", Scheme("mem:scratch"))
	assert.Equal(t, "", Scheme("/no/scheme"))
	assert.Equal(t, "", Scheme("1abc://x"))
}

func TestPath(t *testing.T) {
	p, err := Path("file:///tmp/x", "file")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/x", p)

	p, err = Path("mem:scratch", "mem")
	require.NoError(t, err)
	assert.Equal(t, "scratch", p)

	_, err = Path("s3://bucket/key", "file")
	require.Error(t, err)
	assert.Equal(t, errors.CodeInvalidArgument, errors.GetCode(err))
}
