// Package minio provides a MinIO/S3-compatible rio backend for the "s3" scheme.
package minio

import (
	"time"

	"github.com/minio/minio-go/v7"

	"github.com/jmgilman/go/rio/errors"
)

// Config holds MinIO backend configuration.
type Config struct {
	// Endpoint is the MinIO server URL (e.g., "localhost:9000")
	Endpoint string

	// Bucket is the default bucket for URIs that do not name one (s3:///key).
	Bucket string

	// AccessKey is the access key ID for authentication
	AccessKey string

	// SecretKey is the secret access key for authentication
	SecretKey string

	// UseSSL enables HTTPS connections
	UseSSL bool

	// Region is the bucket region. Optional for MinIO.
	Region string

	// Prefix is an optional prefix for all object keys (for namespacing)
	Prefix string

	// Client is an optional pre-configured MinIO client
	// If provided, Endpoint/AccessKey/SecretKey are ignored
	Client *minio.Client

	// PartSize is the part size used for multipart uploads.
	// Set to 0 to use SDK default
	PartSize uint64

	// RequestTimeout bounds each upload issued by Sync and Close.
	// Zero means no timeout.
	RequestTimeout time.Duration

	// Scheme overrides the scheme the backend is registered under.
	// Default: "s3"
	Scheme string
}

// validate checks if the configuration is valid.
// Either Client OR (Endpoint + AccessKey + SecretKey) must be provided.
func (c *Config) validate() error {
	if c.PartSize != 0 && c.PartSize < minPartSize {
		return errors.Newf(errors.CodeInvalidConfig, "part size must be at least %d bytes", minPartSize)
	}

	// If Client is provided, we're done (other connection fields are ignored)
	if c.Client != nil {
		return nil
	}

	// Otherwise, check required connection fields
	if c.Endpoint == "" {
		return errors.New(errors.CodeInvalidConfig, "endpoint is required when client is not provided")
	}
	if c.AccessKey == "" {
		return errors.New(errors.CodeInvalidConfig, "access key is required when client is not provided")
	}
	if c.SecretKey == "" {
		return errors.New(errors.CodeInvalidConfig, "secret key is required when client is not provided")
	}
	return nil
}

// minPartSize is the smallest multipart upload part S3 accepts.
const minPartSize = 5 * 1024 * 1024
