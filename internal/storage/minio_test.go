package storage

import (
	"context"
	"io"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMinioStore_EmptyEndpoint(t *testing.T) {
	_, err := NewMinioStore(context.Background(), Config{Bucket: "logger-files"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MinIO")
}

// Requires MINIO_TEST_ENDPOINT, MINIO_TEST_ACCESS_KEY and MINIO_TEST_SECRET_KEY.
func TestMinioStore_PutDelete(t *testing.T) {
	endpoint := os.Getenv("MINIO_TEST_ENDPOINT")
	if endpoint == "" {
		t.Skip("MINIO_TEST_ENDPOINT not set")
	}
	ctx := context.Background()

	s, err := NewMinioStore(ctx, Config{
		Endpoint:  endpoint,
		AccessKey: os.Getenv("MINIO_TEST_ACCESS_KEY"),
		SecretKey: os.Getenv("MINIO_TEST_SECRET_KEY"),
		Bucket:    "thermomap-test",
	})
	require.NoError(t, err)

	key := "logger-data/test/" + uuid.NewString() + ".vi2"
	require.NoError(t, s.Put(ctx, key, []byte("VI2\x1a"), "application/octet-stream"))

	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	require.NoError(t, err)
	data, err := io.ReadAll(obj)
	require.NoError(t, err)
	assert.Equal(t, []byte("VI2\x1a"), data)

	require.NoError(t, s.Delete(ctx, key))
	require.NoError(t, s.Delete(ctx, key))
}
