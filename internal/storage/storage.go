package storage

import (
	"context"
	"fmt"

	"github.com/eduline/homework-service/internal/config"
)

// ImageStore keeps Submission.ImageURL an opaque string: the URL carries
// everything needed to fetch the bytes back, so backends can be swapped
// without touching the submission contract.
type ImageStore interface {
	Put(ctx context.Context, data []byte, contentType string) (string, error)
	Get(ctx context.Context, url string) ([]byte, error)
	Delete(ctx context.Context, url string) error
}

func New(cfg config.StorageConfig) (ImageStore, error) {
	switch cfg.Provider {
	case "minio":
		return NewMinIOStore(cfg)
	case "inline":
		return NewInlineStore(), nil
	default:
		return nil, fmt.Errorf("unknown storage provider %q", cfg.Provider)
	}
}
