package storage

import (
	"context"
	"fmt"

	"brewhouse/internal/config"
	"brewhouse/internal/domain"

	"github.com/rs/zerolog"
)

// New builds the blob store selected by configuration. Receipts, id
// documents and menu images all go through the same backend.
func New(ctx context.Context, cfg config.StorageConfig, logger *zerolog.Logger) (domain.BlobStore, error) {
	switch cfg.Backend {
	case "", "disk":
		return NewDiskStore(cfg.Disk, logger)
	case "s3":
		return NewS3Store(ctx, cfg.S3, logger)
	default:
		return nil, fmt.Errorf("unknown storage backend: %s", cfg.Backend)
	}
}
