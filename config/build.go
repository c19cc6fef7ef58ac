package config

import (
	"io"
	"log/slog"
	"strings"

	"github.com/jmgilman/go/rio/errors"
	"github.com/jmgilman/go/rio/fs/billy"
	"github.com/jmgilman/go/rio/fs/minio"
	"github.com/jmgilman/go/rio/scheme"
)

// Registry builds a scheme registry holding every enabled backend.
func (c *Config) Registry() (*scheme.Registry, error) {
	reg := scheme.New()

	if f := c.Schemes.File; f.Enabled {
		perm, err := f.Mode()
		if err != nil {
			return nil, err
		}
		opts := []billy.Option{billy.WithPerm(perm)}
		if f.SyncWrites {
			opts = append(opts, billy.WithSyncWrites())
		}
		if err := reg.Register(billy.NewLocal(opts...)); err != nil {
			return nil, err
		}
	}

	if c.Schemes.Mem.Enabled {
		if err := reg.Register(billy.NewMemory()); err != nil {
			return nil, err
		}
	}

	if s3 := c.Schemes.S3; s3 != nil {
		timeout, err := s3.RequestTimeout()
		if err != nil {
			return nil, err
		}
		b, err := minio.New(minio.Config{
			Endpoint:       s3.Endpoint,
			Bucket:         s3.Bucket,
			AccessKey:      s3.AccessKey,
			SecretKey:      s3.SecretKey,
			UseSSL:         s3.UseSSL,
			Region:         s3.Region,
			Prefix:         s3.Prefix,
			PartSize:       s3.PartSize,
			RequestTimeout: timeout,
			Scheme:         s3.Scheme,
		})
		if err != nil {
			return nil, err
		}
		if err := reg.Register(b); err != nil {
			return nil, err
		}
	}

	return reg, nil
}

// ParseLevel parses a log level name (debug, info, warn or error).
func ParseLevel(name string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(name)); err != nil {
		return 0, errors.WithContext(
			errors.Wrap(err, errors.CodeInvalidConfig, "invalid log level"),
			"level", name,
		)
	}
	return level, nil
}

// Logger builds a logger writing to w in the configured format and level.
// Unparseable levels fall back to info.
func (c *Config) Logger(w io.Writer) *slog.Logger {
	level, err := ParseLevel(c.Log.Level)
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	if strings.EqualFold(c.Log.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
