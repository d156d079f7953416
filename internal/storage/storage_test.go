package storage

import (
	"context"
	"testing"

	"github.com/shopscript/apiserver/config"
	"github.com/stretchr/testify/assert"
)

func TestOpenUnknownBackend(t *testing.T) {
	_, err := Open(context.Background(), config.StorageConfig{Backend: "ftp"})
	assert.ErrorContains(t, err, `unknown storage backend "ftp"`)
}

func TestOpenMinioValidatesConfig(t *testing.T) {
	cases := map[string]config.MinioConfig{
		"minio endpoint is required":                  {AccessKey: "a", SecretKey: "b", Bucket: "c"},
		"minio access key and secret key are required": {Endpoint: "localhost:9000", Bucket: "c"},
		"minio bucket is required":                    {Endpoint: "localhost:9000", AccessKey: "a", SecretKey: "b"},
	}
	for want, cfg := range cases {
		_, err := Open(context.Background(), config.StorageConfig{Backend: config.StorageBackendMinio, Minio: cfg})
		assert.EqualError(t, err, want)
	}
}

func TestOpenGCSRequiresBucket(t *testing.T) {
	_, err := Open(context.Background(), config.StorageConfig{Backend: "GCS"})
	assert.EqualError(t, err, "gcs bucket is required")
}
