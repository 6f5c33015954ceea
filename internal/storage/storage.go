package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/usersoap/usersvc/config"
)

// ObjectStorage defines common object operations across backends.
type ObjectStorage interface {
	EnsureBucket(ctx context.Context) error
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	List(ctx context.Context, prefix string) ([]string, error)
	Bucket() string
}

// New constructs the backend selected by cfg.SpoolBackend and makes sure its
// bucket exists. It returns nil when no backend is configured.
func New(ctx context.Context, cfg config.Config) (ObjectStorage, error) {
	var (
		backend ObjectStorage
		err     error
	)

	switch cfg.SpoolBackend {
	case "":
		return nil, nil
	case config.SpoolBackendMinio:
		backend, err = NewMinioClient(cfg.Minio)
	case config.SpoolBackendGCS:
		backend, err = NewGCSClient(ctx, cfg.GCS)
	default:
		return nil, fmt.Errorf("unknown spool backend %q", cfg.SpoolBackend)
	}
	if err != nil {
		return nil, err
	}

	if err := backend.EnsureBucket(ctx); err != nil {
		return nil, fmt.Errorf("ensure bucket %q: %w", backend.Bucket(), err)
	}
	return backend, nil
}
