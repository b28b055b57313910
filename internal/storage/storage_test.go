package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andresuchdata/procurement-risk/internal/config"
)

func TestNormalizeEndpoint(t *testing.T) {
	tests := []struct {
		in         string
		useSSL     bool
		wantHost   string
		wantSecure bool
	}{
		{"minio:9000", false, "minio:9000", false},
		{"s3.example.com/", true, "s3.example.com", true},
		{"https://s3.example.com", false, "s3.example.com", true},
		{"http://localhost:9000", true, "localhost:9000", false},
	}
	for _, tt := range tests {
		host, secure, err := normalizeEndpoint(tt.in, tt.useSSL)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.wantHost, host, tt.in)
		assert.Equal(t, tt.wantSecure, secure, tt.in)
	}

	_, _, err := normalizeEndpoint("ftp://files", true)
	assert.Error(t, err)
}

func TestNewMinioClientRequiresSettings(t *testing.T) {
	_, err := NewMinioClient(context.Background(), config.StorageConfig{})
	assert.Error(t, err)

	_, err = NewMinioClient(context.Background(), config.StorageConfig{Endpoint: "minio:9000"})
	assert.Error(t, err)

	_, err = NewMinioClient(context.Background(), config.StorageConfig{Endpoint: "minio:9000", AccessKey: "a", SecretKey: "b"})
	assert.Error(t, err)
}

func TestMemoryStorage(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStorage()

	require.NoError(t, s.UploadObject(ctx, "snapshots/b.json", []byte("b"), "application/json"))
	require.NoError(t, s.UploadObject(ctx, "snapshots/a.json", []byte("a"), "application/json"))
	require.NoError(t, s.UploadObject(ctx, "other/c.json", []byte("c"), "application/json"))

	objs, err := s.ListObjects(ctx, "snapshots/")
	require.NoError(t, err)
	require.Len(t, objs, 2)
	assert.Equal(t, "snapshots/a.json", objs[0].Key)
	assert.Equal(t, int64(1), objs[0].Size)

	data, err := s.GetObject(ctx, "snapshots/b.json")
	require.NoError(t, err)
	assert.Equal(t, []byte("b"), data)

	_, err = s.GetObject(ctx, "missing")
	assert.ErrorIs(t, err, ErrObjectNotFound)
}
