package config

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmgilman/go/rio/errors"
)

const full = `
log:
  level: debug
  format: json
schemes:
  file:
    sync_writes: true
    perm: "0640"
  mem:
    enabled: false
  s3:
    endpoint: localhost:9000
    bucket: data
    access_key: minioadmin
    secret_key: minioadmin
    prefix: rio
    part_size: 8388608
    timeout: 30s
`

func TestParse_Empty(t *testing.T) {
	for _, data := range []string{"", "\n", "{}"} {
		cfg, err := Parse(context.Background(), []byte(data))
		require.NoError(t, err)
		assert.Equal(t, Default(), cfg)
	}
}

func TestParse_Full(t *testing.T) {
	cfg, err := Parse(context.Background(), []byte(full))
	require.NoError(t, err)

	assert.Equal(t, LogConfig{Level: "debug", Format: "json"}, cfg.Log)
	assert.Equal(t, FileConfig{Enabled: true, SyncWrites: true, Perm: "0640"}, cfg.Schemes.File)
	assert.False(t, cfg.Schemes.Mem.Enabled)

	require.NotNil(t, cfg.Schemes.S3)
	assert.Equal(t, S3Config{
		Endpoint:  "localhost:9000",
		Bucket:    "data",
		AccessKey: "minioadmin",
		SecretKey: "minioadmin",
		Prefix:    "rio",
		PartSize:  8 * 1024 * 1024,
		Timeout:   "30s",
		Scheme:    "s3",
	}, *cfg.Schemes.S3)

	mode, err := cfg.Schemes.File.Mode()
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o640), mode)

	timeout, err := cfg.Schemes.S3.RequestTimeout()
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, timeout)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
		path string
	}{
		{name: "malformed yaml", data: "log: [unterminated"},
		{name: "unknown field", data: "colour: blue", path: "colour"},
		{name: "unknown nested field", data: "log:\n  colour: blue", path: "log.colour"},
		{name: "bad level", data: "log:\n  level: loud", path: "log.level"},
		{name: "bad format", data: "log:\n  format: xml", path: "log.format"},
		{name: "bad perm", data: "schemes:\n  file:\n    perm: \"0999\"", path: "schemes.file.perm"},
		{name: "wrong type", data: "schemes:\n  mem:\n    enabled: maybe", path: "schemes.mem.enabled"},
		{
			name: "s3 missing endpoint",
			data: "schemes:\n  s3:\n    access_key: a\n    secret_key: b",
			path: "schemes.s3.endpoint",
		},
		{
			name: "s3 small part size",
			data: "schemes:\n  s3:\n    endpoint: e\n    access_key: a\n    secret_key: b\n    part_size: 1024",
			path: "schemes.s3.part_size",
		},
		{
			name: "s3 bad timeout",
			data: "schemes:\n  s3:\n    endpoint: e\n    access_key: a\n    secret_key: b\n    timeout: soon",
			path: "schemes.s3.timeout",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(context.Background(), []byte(tt.data))
			require.Error(t, err)
			assert.Equal(t, errors.CodeInvalidConfig, errors.GetCode(err))

			if tt.path == "" {
				return
			}
			var perr errors.PlatformError
			require.True(t, errors.As(err, &perr))
			issues, ok := perr.Context()["issues"].([]Issue)
			require.True(t, ok, "issues missing from error context")

			var paths []string
			for _, issue := range issues {
				paths = append(paths, issue.Path)
			}
			assert.Contains(t, paths, tt.path)
		})
	}
}

func TestParse_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Parse(ctx, nil)
	assert.Equal(t, errors.CodeTimeout, errors.GetCode(err))
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rio.yaml")
	require.NoError(t, os.WriteFile(path, []byte(full), 0o600))

	cfg, err := Load(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)

	_, err = Load(context.Background(), filepath.Join(dir, "missing.yaml"))
	assert.Equal(t, errors.CodeNotFound, errors.GetCode(err))

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("log:\n  level: loud"), 0o600))
	_, err = Load(context.Background(), bad)
	assert.Equal(t, errors.CodeInvalidConfig, errors.GetCode(err))

	var perr errors.PlatformError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, bad, perr.Context()["path"])
}

func TestRegistry(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		schemes []string
	}{
		{name: "defaults", data: "", schemes: []string{"file", "mem"}},
		{name: "full", data: full, schemes: []string{"file", "s3"}},
		{
			name:    "file disabled",
			data:    "schemes:\n  file:\n    enabled: false",
			schemes: []string{"mem"},
		},
		{
			name:    "custom s3 scheme",
			data:    "schemes:\n  s3:\n    endpoint: e:9000\n    access_key: a\n    secret_key: b\n    scheme: minio",
			schemes: []string{"file", "mem", "minio"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Parse(context.Background(), []byte(tt.data))
			require.NoError(t, err)

			reg, err := cfg.Registry()
			require.NoError(t, err)
			assert.Equal(t, tt.schemes, reg.Schemes())
		})
	}
}

func TestLogger(t *testing.T) {
	cfg, err := Parse(context.Background(), []byte(full))
	require.NoError(t, err)

	var buf bytes.Buffer
	logger := cfg.Logger(&buf)
	logger.Debug("opened", "uri", "mem://a")
	assert.Contains(t, buf.String(), `"level":"DEBUG"`)
	assert.Contains(t, buf.String(), `"uri":"mem://a"`)

	buf.Reset()
	logger = Default().Logger(&buf)
	logger.Debug("hidden")
	logger.Info("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "level=INFO")
}

func TestParseLevel(t *testing.T) {
	level, err := ParseLevel("warn")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, level)

	_, err = ParseLevel("loud")
	assert.Equal(t, errors.CodeInvalidConfig, errors.GetCode(err))
}

func TestRedactedEncode(t *testing.T) {
	cfg, err := Parse(context.Background(), []byte(full))
	require.NoError(t, err)

	data, err := cfg.Redacted().Encode()
	require.NoError(t, err)
	assert.NotContains(t, string(data), "secret_key: minioadmin")
	assert.Contains(t, string(data), "secret_key: REDACTED")
	assert.Equal(t, "minioadmin", cfg.Schemes.S3.SecretKey)

	again, err := Parse(context.Background(), data)
	require.NoError(t, err)
	assert.Equal(t, "REDACTED", again.Schemes.S3.SecretKey)
	assert.Equal(t, cfg.Log, again.Log)
}
