package service

import (
	"context"
	"fmt"
	"io"

	"brewhouse/internal/config"
	"brewhouse/internal/domain"
	"brewhouse/internal/models"

	"github.com/rs/zerolog"
)

// MenuService manages the catalog and the image attached to each item.
// The image lives and dies with its item: replacing it deletes the old
// blob, deleting the item deletes the blob.
type MenuService struct {
	store  domain.Store
	blobs  domain.BlobStore
	menu   config.MenuConfig
	logger *zerolog.Logger
}

func NewMenuService(store domain.Store, blobs domain.BlobStore, menu config.MenuConfig, logger *zerolog.Logger) *MenuService {
	return &MenuService{
		store:  store,
		blobs:  blobs,
		menu:   menu,
		logger: logger,
	}
}

func (s *MenuService) CreateItem(ctx context.Context, item *models.MenuItem) error {
	return s.store.CreateMenuItem(ctx, item)
}

func (s *MenuService) GetItem(ctx context.Context, id int64) (*models.MenuItem, error) {
	return s.store.GetMenuItem(ctx, id)
}

func (s *MenuService) UpdateItem(ctx context.Context, item *models.MenuItem) error {
	return s.store.UpdateMenuItem(ctx, item)
}

// DeleteItem removes the item and its image blob.
func (s *MenuService) DeleteItem(ctx context.Context, id int64) error {
	item, err := s.store.GetMenuItem(ctx, id)
	if err != nil {
		return err
	}

	if err := s.store.DeleteMenuItem(ctx, id); err != nil {
		return err
	}

	if item.ImageRef != "" {
		if err := s.blobs.Delete(ctx, item.ImageRef); err != nil {
			// Осиротевший файл не блокирует удаление позиции
			s.logger.Error().Err(err).Str("image_ref", item.ImageRef).Msg("failed to delete menu image")
		}
	}
	return nil
}

// AttachImage uploads a new image for the item and removes the previous
// one, keeping blob and item one-to-one.
func (s *MenuService) AttachImage(ctx context.Context, id int64, body io.Reader, contentType, ext string) (string, error) {
	item, err := s.store.GetMenuItem(ctx, id)
	if err != nil {
		return "", err
	}

	key := fmt.Sprintf("menu/item_%d%s", id, ext)
	if err := s.blobs.Put(ctx, key, body, contentType); err != nil {
		return "", err
	}

	oldRef := item.ImageRef
	item.ImageRef = key
	if err := s.store.UpdateMenuItem(ctx, item); err != nil {
		return "", err
	}

	if oldRef != "" && oldRef != key {
		if err := s.blobs.Delete(ctx, oldRef); err != nil {
			s.logger.Error().Err(err).Str("image_ref", oldRef).Msg("failed to delete replaced menu image")
		}
	}

	return s.blobs.URL(key), nil
}

// Catalog groups items into the configured categories, in config order.
// Items whose category is not configured are appended under their raw key.
func (s *MenuService) Catalog(ctx context.Context) ([]models.MenuCategory, error) {
	items, err := s.store.ListMenuItems(ctx)
	if err != nil {
		return nil, err
	}

	byKey := make(map[string][]*models.MenuItem)
	for _, item := range items {
		byKey[item.Category] = append(byKey[item.Category], item)
	}

	var catalog []models.MenuCategory
	seen := make(map[string]bool)
	for _, c := range s.menu.Categories {
		seen[c.Key] = true
		catalog = append(catalog, models.MenuCategory{
			Key:     c.Key,
			Display: c.Display,
			Items:   byKey[c.Key],
		})
	}
	for _, item := range items {
		if !seen[item.Category] {
			seen[item.Category] = true
			catalog = append(catalog, models.MenuCategory{
				Key:     item.Category,
				Display: item.Category,
				Items:   byKey[item.Category],
			})
		}
	}
	return catalog, nil
}

func (s *MenuService) ImageURL(item *models.MenuItem) string {
	if item.ImageRef == "" {
		return ""
	}
	return s.blobs.URL(item.ImageRef)
}
