package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/usersoap/usersvc/config"
)

func TestNew_NoBackend(t *testing.T) {
	backend, err := New(context.Background(), config.Config{})
	require.NoError(t, err)
	assert.Nil(t, backend)
}

func TestNew_UnknownBackend(t *testing.T) {
	_, err := New(context.Background(), config.Config{SpoolBackend: "s3"})
	assert.ErrorContains(t, err, `unknown spool backend "s3"`)
}

func TestNewMinioClient_Validation(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.MinioConfig
		wantErr string
	}{
		{
			name:    "missing endpoint",
			cfg:     config.MinioConfig{AccessKey: "a", SecretKey: "b", Bucket: "c"},
			wantErr: "endpoint",
		},
		{
			name:    "missing credentials",
			cfg:     config.MinioConfig{Endpoint: "localhost:9000", Bucket: "c"},
			wantErr: "access key",
		},
		{
			name:    "missing bucket",
			cfg:     config.MinioConfig{Endpoint: "localhost:9000", AccessKey: "a", SecretKey: "b", Bucket: " "},
			wantErr: "bucket",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewMinioClient(tt.cfg)
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestNewMinioClient(t *testing.T) {
	client, err := NewMinioClient(config.MinioConfig{
		Endpoint:  "localhost:9000",
		AccessKey: "minioadmin",
		SecretKey: "minioadmin",
		Bucket:    "user-events-spool",
	})
	require.NoError(t, err)
	assert.Equal(t, "user-events-spool", client.Bucket())
}

func TestNewGCSClient_RequiresBucket(t *testing.T) {
	_, err := NewGCSClient(context.Background(), config.GCSConfig{})
	assert.ErrorContains(t, err, "bucket")
}
