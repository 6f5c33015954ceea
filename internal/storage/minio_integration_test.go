//go:build integration

package storage_test

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tcminio "github.com/testcontainers/testcontainers-go/modules/minio"
	"github.com/usersoap/usersvc/config"
	"github.com/usersoap/usersvc/internal/storage"
)

func TestMinioSpool(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	ctx := context.Background()

	container, err := tcminio.Run(ctx, "minio/minio:RELEASE.2024-01-16T16-07-38Z",
		tcminio.WithUsername("spooluser"),
		tcminio.WithPassword("spoolpassword"),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = container.Terminate(context.Background())
	})

	endpoint, err := container.ConnectionString(ctx)
	require.NoError(t, err)

	spool, err := storage.New(ctx, config.Config{
		SpoolBackend: config.SpoolBackendMinio,
		Minio: config.MinioConfig{
			Endpoint:  endpoint,
			AccessKey: container.Username,
			SecretKey: container.Password,
			Bucket:    "user-events-spool",
		},
	})
	require.NoError(t, err)
	require.NotNil(t, spool)

	// Bucket creation is idempotent.
	require.NoError(t, spool.EnsureBucket(ctx))

	payloads := map[string]string{
		"events/UserRegistered/20260101T000000.000000001Z-a.json":         `{"event":"UserRegistered"}`,
		"events/UserRegistrationFailed/20260101T000000.000000002Z-b.json": `{"event":"UserRegistrationFailed"}`,
	}
	for key, body := range payloads {
		require.NoError(t, spool.Put(ctx, key, bytes.NewReader([]byte(body)), int64(len(body)), "application/json"))
	}
	require.NoError(t, spool.Put(ctx, "other/ignored.json", bytes.NewReader([]byte("{}")), 2, "application/json"))

	keys, err := spool.List(ctx, "events/")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		"events/UserRegistered/20260101T000000.000000001Z-a.json",
		"events/UserRegistrationFailed/20260101T000000.000000002Z-b.json",
	}, keys)

	reader, err := spool.Get(ctx, keys[0])
	require.NoError(t, err)
	body, err := io.ReadAll(reader)
	require.NoError(t, err)
	require.NoError(t, reader.Close())
	assert.Equal(t, payloads[keys[0]], string(body))

	for _, key := range keys {
		require.NoError(t, spool.Delete(ctx, key))
	}
	keys, err = spool.List(ctx, "events/")
	require.NoError(t, err)
	assert.Empty(t, keys)
}
