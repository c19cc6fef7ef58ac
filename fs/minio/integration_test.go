package minio

import (
	"context"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/jmgilman/go/rio"
	"github.com/jmgilman/go/rio/errors"
	"github.com/jmgilman/go/rio/fs/core"
	"github.com/jmgilman/go/rio/fs/fstest"
	"github.com/jmgilman/go/rio/scheme"
)

const testBucket = "test-bucket"

// setupMinIOContainer starts a MinIO container with an empty test bucket and
// returns a client for it.
func setupMinIOContainer(t *testing.T) *minio.Client {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()

	// Start MinIO container
	req := testcontainers.ContainerRequest{
		Image:        "minio/minio:latest",
		ExposedPorts: []string{"9000/tcp"},
		Env: map[string]string{
			"MINIO_ROOT_USER":     "minioadmin",
			"MINIO_ROOT_PASSWORD": "minioadmin",
		},
		Cmd:        []string{"server", "/data"},
		WaitingFor: wait.ForHTTP("/minio/health/live").WithPort("9000/tcp"),
	}

	minioC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err, "failed to start MinIO container")
	t.Cleanup(func() { _ = minioC.Terminate(ctx) })

	// Get the endpoint
	endpoint, err := minioC.Endpoint(ctx, "")
	require.NoError(t, err, "failed to get container endpoint")

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4("minioadmin", "minioadmin", ""),
		Secure: false,
	})
	require.NoError(t, err, "failed to create MinIO client")

	require.NoError(t, client.MakeBucket(ctx, testBucket, minio.MakeBucketOptions{}), "failed to create test bucket")
	return client
}

func TestIntegration_Conformance(t *testing.T) {
	client := setupMinIOContainer(t)

	fstest.TestBackend(t, func() core.Backend {
		b, err := New(Config{Client: client})
		require.NoError(t, err)
		return b
	}, fstest.Config{
		URI:  func(name string) string { return "s3://" + testBucket + "/conformance/" + name },
		Kind: core.KindObject,
	})
}

func TestIntegration_Handle(t *testing.T) {
	client := setupMinIOContainer(t)
	ctx := context.Background()

	b, err := New(Config{Client: client, Bucket: testBucket, Prefix: "handles"})
	require.NoError(t, err)
	table := rio.NewTable(rio.WithSchemes(scheme.New(b)))

	h, err := table.Open("s3:///greeting.txt", rio.Read|rio.Write|rio.Seek)
	require.NoError(t, err)

	_, err = h.Write([]byte("hello"))
	require.NoError(t, err)
	_, err = h.Append([]byte(", world"))
	require.NoError(t, err)
	require.NoError(t, h.Close())

	obj, err := client.GetObject(ctx, testBucket, "handles/greeting.txt", minio.GetObjectOptions{})
	require.NoError(t, err)
	info, err := obj.Stat()
	require.NoError(t, err)
	assert.Equal(t, int64(12), info.Size)
	_ = obj.Close()

	h, err = table.Open("s3://"+testBucket+"/greeting.txt", rio.Read)
	require.NoError(t, err)
	defer func() { _ = h.Close() }()
	buf := make([]byte, 12)
	n, err := h.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "hello, world", string(buf[:n]))

	_, err = table.Open("s3://no-such-bucket/key", rio.Read)
	require.Error(t, err)
	assert.Equal(t, errors.CodeNotFound, errors.GetCode(err))
}
