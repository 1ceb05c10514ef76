package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"brewhouse/internal/config"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupDiskStore(t *testing.T) (*DiskStore, string) {
	root := t.TempDir()
	logger := zerolog.Nop()
	store, err := NewDiskStore(config.DiskStorageConfig{
		Path:    root,
		BaseURL: "http://localhost:8080/uploads/",
	}, &logger)
	require.NoError(t, err)
	return store, root
}

func TestDiskStore_PutAndDelete(t *testing.T) {
	store, root := setupDiskStore(t)
	ctx := context.Background()

	err := store.Put(ctx, "receipts/ID_123.jpg", strings.NewReader("image-bytes"), "image/jpeg")
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(root, "receipts", "ID_123.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "image-bytes", string(data))

	require.NoError(t, store.Delete(ctx, "receipts/ID_123.jpg"))
	assert.NoFileExists(t, filepath.Join(root, "receipts", "ID_123.jpg"))

	// Повторное удаление — не ошибка
	assert.NoError(t, store.Delete(ctx, "receipts/ID_123.jpg"))
}

func TestDiskStore_URL(t *testing.T) {
	store, _ := setupDiskStore(t)
	assert.Equal(t, "http://localhost:8080/uploads/menu/latte.jpg", store.URL("menu/latte.jpg"))
}

func TestDiskStore_RejectsEscapingKeys(t *testing.T) {
	store, _ := setupDiskStore(t)
	ctx := context.Background()

	err := store.Put(ctx, "../outside.txt", strings.NewReader("x"), "text/plain")
	assert.Error(t, err)

	err = store.Put(ctx, "/etc/passwd", strings.NewReader("x"), "text/plain")
	assert.Error(t, err)
}

func TestNewDiskStore_RequiresPath(t *testing.T) {
	logger := zerolog.Nop()
	_, err := NewDiskStore(config.DiskStorageConfig{}, &logger)
	assert.Error(t, err)
}
