package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"brewhouse/internal/config"

	"github.com/rs/zerolog"
)

// DiskStore keeps uploads on the local filesystem under a single root.
// Keys are slash-separated relative paths, e.g. "receipts/ID_123.jpg".
type DiskStore struct {
	root    string
	baseURL string
	logger  *zerolog.Logger
}

func NewDiskStore(cfg config.DiskStorageConfig, logger *zerolog.Logger) (*DiskStore, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("disk storage path is required")
	}
	if err := os.MkdirAll(cfg.Path, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &DiskStore{
		root:    cfg.Path,
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		logger:  logger,
	}, nil
}

func (s *DiskStore) Put(ctx context.Context, key string, body io.Reader, contentType string) error {
	path, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create blob directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create blob file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, body); err != nil {
		return fmt.Errorf("failed to write blob: %w", err)
	}

	s.logger.Debug().Str("key", key).Msg("blob stored on disk")
	return nil
}

func (s *DiskStore) URL(key string) string {
	return s.baseURL + "/" + key
}

func (s *DiskStore) Delete(ctx context.Context, key string) error {
	path, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to delete blob: %w", err)
	}
	return nil
}

// resolve guards against keys escaping the storage root.
func (s *DiskStore) resolve(key string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(key))
	if clean == "." || strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return "", fmt.Errorf("invalid blob key: %s", key)
	}
	return filepath.Join(s.root, clean), nil
}
