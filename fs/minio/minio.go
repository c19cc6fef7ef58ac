package minio

import (
	"bytes"
	"context"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/jmgilman/go/rio/errors"
	"github.com/jmgilman/go/rio/fs/core"
	"github.com/jmgilman/go/rio/fs/minio/internal/errs"
	"github.com/jmgilman/go/rio/fs/minio/internal/pathutil"
	"github.com/jmgilman/go/rio/internal/uri"
)

// DefaultScheme is the scheme served when Config.Scheme is empty.
const DefaultScheme = "s3"

// objectStore is the subset of object storage the backend needs.
type objectStore interface {
	Fetch(ctx context.Context, bucket, key string) ([]byte, error)
	Store(ctx context.Context, bucket, key string, data []byte) error
}

// clientStore implements objectStore with a MinIO client.
type clientStore struct {
	client *minio.Client
	opts   minio.PutObjectOptions
}

func (c *clientStore) Fetch(ctx context.Context, bucket, key string) ([]byte, error) {
	obj, err := c.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = obj.Close() }()

	// GetObject is lazy; errors such as NoSuchKey surface on the first read.
	return io.ReadAll(obj)
}

func (c *clientStore) Store(ctx context.Context, bucket, key string, data []byte) error {
	_, err := c.client.PutObject(ctx, bucket, key, bytes.NewReader(data), int64(len(data)), c.opts)
	return err
}

// Backend opens S3 objects as rio resources.
//
// An object is downloaded in full when it is opened and mutated in memory. Sync
// uploads it, as does Close when there are unsynced changes. Objects are never
// streamed, so Backend is suited to objects that fit comfortably in memory.
type Backend struct {
	store  objectStore
	scheme string
	bucket string
	prefix string
	config Config
}

// New creates a MinIO-backed backend.
// Returns error if configuration is invalid or the client cannot be created.
func New(cfg Config) (*Backend, error) {
	// Validate configuration
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	// Use provided client or create new one
	client := cfg.Client
	if client == nil {
		var err error
		client, err = minio.New(cfg.Endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
			Secure: cfg.UseSSL,
			Region: cfg.Region,
		})
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeInvalidConfig, "failed to create minio client")
		}
	}

	store := &clientStore{
		client: client,
		opts:   minio.PutObjectOptions{PartSize: cfg.PartSize},
	}
	return newBackend(store, cfg), nil
}

func newBackend(store objectStore, cfg Config) *Backend {
	scheme := cfg.Scheme
	if scheme == "" {
		scheme = DefaultScheme
	}
	return &Backend{
		store:  store,
		scheme: strings.ToLower(scheme),
		bucket: cfg.Bucket,
		// Keys always use forward slashes without surrounding ones.
		prefix: pathutil.Prefix(cfg.Prefix),
		config: cfg,
	}
}

// Scheme returns the scheme the backend serves.
func (b *Backend) Scheme() string {
	return b.scheme
}

// locate splits a URI of the form s3://bucket/key into its bucket and object key.
// An empty bucket (s3:///key) selects the configured default bucket.
func (b *Backend) locate(u string) (string, string, error) {
	p, err := uri.Path(u, b.scheme)
	if err != nil {
		return "", "", err
	}

	bucket, name, _ := strings.Cut(p, "/")
	if bucket == "" {
		bucket = b.bucket
	}
	if bucket == "" {
		return "", "", errors.WithContext(
			errors.New(errors.CodeInvalidArgument, "uri names no bucket and no default bucket is configured"),
			"uri", u,
		)
	}

	key, ok := pathutil.Key(b.prefix, name)
	if !ok {
		return "", "", errors.WithContext(errors.New(errors.CodeInvalidArgument, "uri names no object key"), "uri", u)
	}
	return bucket, key, nil
}

// Open downloads the object named by the URI. Write opens of a missing object
// start from an empty object that is created on the first Sync or on Close.
func (b *Backend) Open(ctx context.Context, u string, mode core.Capability) (core.Opened, error) {
	if err := core.ValidateMode(mode); err != nil {
		return core.Opened{}, err
	}

	bucket, key, err := b.locate(u)
	if err != nil {
		return core.Opened{}, err
	}

	data, err := b.store.Fetch(ctx, bucket, key)
	dirty := false
	if err != nil {
		err = errs.Translate(err, "fetch", bucket, key)
		if !errs.IsNotFound(err) || !mode.Has(core.Write) {
			return core.Opened{}, err
		}
		data, dirty = nil, true
	}

	s := &objectState{
		backend: b,
		bucket:  bucket,
		key:     key,
		data:    data,
		dirty:   dirty,
	}
	return core.Opened{
		State:        s,
		Capabilities: mode & (core.Read | core.Write | core.Seek),
		Size:         int64(len(data)),
		Kind:         core.KindObject,
	}, nil
}

// requestContext returns the context for an upload.
func (b *Backend) requestContext() (context.Context, context.CancelFunc) {
	if b.config.RequestTimeout > 0 {
		return context.WithTimeout(context.Background(), b.config.RequestTimeout)
	}
	return context.WithCancel(context.Background())
}

var _ core.Backend = (*Backend)(nil)
