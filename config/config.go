// Package config loads rio configuration files.
//
// Configuration is written in YAML, validated against an embedded CUE schema that
// also supplies defaults, and decoded into a Config. A Config builds the scheme
// registry and logger a rio.Table is created with:
//
//	cfg, err := config.Load(ctx, "rio.yaml")
//	if err != nil {
//		return err
//	}
//	schemes, err := cfg.Registry()
//	if err != nil {
//		return err
//	}
//	table := rio.NewTable(rio.WithSchemes(schemes), rio.WithLogger(cfg.Logger(os.Stderr)))
package config

import (
	"context"
	_ "embed"
	"io/fs"
	"os"
	"strconv"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"

	"github.com/jmgilman/go/rio/errors"
)

//go:embed schema.cue
var schemaSource []byte

// Config is the decoded rio configuration.
type Config struct {
	Log     LogConfig     `json:"log" yaml:"log"`
	Schemes SchemesConfig `json:"schemes" yaml:"schemes"`
}

// LogConfig controls the logger returned by Config.Logger.
type LogConfig struct {
	// Level is one of debug, info, warn or error.
	Level string `json:"level" yaml:"level"`

	// Format is text or json.
	Format string `json:"format" yaml:"format"`
}

// SchemesConfig selects and configures the registered backends.
type SchemesConfig struct {
	File FileConfig `json:"file" yaml:"file"`
	Mem  MemConfig  `json:"mem" yaml:"mem"`

	// S3 registers the object-store backend when present.
	S3 *S3Config `json:"s3,omitempty" yaml:"s3,omitempty"`
}

// FileConfig configures the local filesystem backend.
type FileConfig struct {
	Enabled    bool   `json:"enabled" yaml:"enabled"`
	SyncWrites bool   `json:"sync_writes" yaml:"sync_writes"`
	Perm       string `json:"perm" yaml:"perm"`
}

// Mode returns Perm as file mode bits.
func (f FileConfig) Mode() (fs.FileMode, error) {
	perm, err := strconv.ParseUint(f.Perm, 8, 32)
	if err != nil {
		return 0, errors.WithContext(
			errors.Wrap(err, errors.CodeInvalidConfig, "invalid file permission"),
			"perm", f.Perm,
		)
	}
	return fs.FileMode(perm), nil
}

// MemConfig configures the in-memory backend.
type MemConfig struct {
	Enabled bool `json:"enabled" yaml:"enabled"`
}

// S3Config configures the MinIO/S3 backend.
type S3Config struct {
	Endpoint  string `json:"endpoint" yaml:"endpoint"`
	Bucket    string `json:"bucket,omitempty" yaml:"bucket,omitempty"`
	AccessKey string `json:"access_key" yaml:"access_key"`
	SecretKey string `json:"secret_key" yaml:"secret_key"`
	UseSSL    bool   `json:"use_ssl" yaml:"use_ssl"`
	Region    string `json:"region,omitempty" yaml:"region,omitempty"`
	Prefix    string `json:"prefix,omitempty" yaml:"prefix,omitempty"`
	PartSize  uint64 `json:"part_size,omitempty" yaml:"part_size,omitempty"`
	Timeout   string `json:"timeout,omitempty" yaml:"timeout,omitempty"`
	Scheme    string `json:"scheme" yaml:"scheme"`
}

// RequestTimeout returns Timeout as a duration. An empty Timeout is zero.
func (s S3Config) RequestTimeout() (time.Duration, error) {
	if s.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s.Timeout)
	if err != nil {
		return 0, errors.WithContext(
			errors.Wrap(err, errors.CodeInvalidConfig, "invalid request timeout"),
			"timeout", s.Timeout,
		)
	}
	return d, nil
}

// Default returns the configuration an empty file decodes to.
func Default() *Config {
	return &Config{
		Log: LogConfig{Level: "info", Format: "text"},
		Schemes: SchemesConfig{
			File: FileConfig{Enabled: true, Perm: "0666"},
			Mem:  MemConfig{Enabled: true},
		},
	}
}

// Load reads and parses the configuration file at path.
//
// Returns CodeNotFound if the file does not exist, CodeForbidden if it cannot be
// read, and CodeInvalidConfig if its contents are invalid.
func Load(ctx context.Context, path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		code := errors.CodeInvalidConfig
		switch {
		case errors.Is(err, fs.ErrNotExist):
			code = errors.CodeNotFound
		case errors.Is(err, fs.ErrPermission):
			code = errors.CodeForbidden
		}
		return nil, errors.WithContext(
			errors.Wrap(err, code, "failed to read configuration file"),
			"path", path,
		)
	}

	cfg, err := Parse(ctx, data)
	if err != nil {
		return nil, errors.WithContext(err, "path", path)
	}
	return cfg, nil
}

// Parse validates YAML configuration data and decodes it, applying defaults for
// every omitted field. Empty data yields Default().
func Parse(ctx context.Context, data []byte) (*Config, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, errors.CodeTimeout, "context cancelled before parsing")
	}

	var raw map[string]interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrap(err, errors.CodeInvalidConfig, "failed to parse YAML")
	}
	if raw == nil {
		raw = map[string]interface{}{}
	}

	cueCtx := cuecontext.New()
	schema := cueCtx.CompileBytes(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "configuration schema does not compile")
	}
	def := schema.LookupPath(cue.ParsePath("#Config"))

	value := cueCtx.Encode(raw)
	if err := value.Err(); err != nil {
		return nil, errors.Wrap(err, errors.CodeInvalidConfig, "failed to encode configuration")
	}

	unified := def.Unify(value)
	if err := validate(unified); err != nil {
		return nil, err
	}

	var cfg Config
	if err := unified.Decode(&cfg); err != nil {
		return nil, errors.Wrap(err, errors.CodeInvalidConfig, "failed to decode configuration")
	}
	if err := cfg.check(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// check validates the fields the schema only constrains by shape.
func (c *Config) check() error {
	if _, err := c.Schemes.File.Mode(); err != nil {
		return err
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	if s3 := c.Schemes.S3; s3 != nil {
		if _, err := s3.RequestTimeout(); err != nil {
			return err
		}
	}
	return nil
}

// Redacted returns a copy of c with credentials masked.
func (c *Config) Redacted() *Config {
	cp := *c
	if c.Schemes.S3 != nil {
		s3 := *c.Schemes.S3
		if s3.SecretKey != "" {
			s3.SecretKey = redacted
		}
		cp.Schemes.S3 = &s3
	}
	return &cp
}

const redacted = "REDACTED"

// Encode renders c as YAML.
func (c *Config) Encode() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "failed to encode configuration")
	}
	return data, nil
}
