package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"brewhouse/internal/models"
)

const menuColumns = `id, category, title, description, price, image_ref, best_seller, created_at, updated_at`

func (db *DB) CreateMenuItem(ctx context.Context, item *models.MenuItem) error {
	now := time.Now()
	query := `INSERT INTO menu_items (category, title, description, price, image_ref, best_seller, created_at, updated_at)
              VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	result, err := db.ExecContext(ctx, query,
		item.Category, item.Title, item.Description, item.Price, item.ImageRef, item.BestSeller, now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to create menu item: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	item.ID = id
	item.CreatedAt = now
	item.UpdatedAt = now
	return nil
}

func (db *DB) GetMenuItem(ctx context.Context, id int64) (*models.MenuItem, error) {
	query := `SELECT ` + menuColumns + ` FROM menu_items WHERE id = ?`
	item, err := scanMenuItem(db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrMenuItemNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get menu item: %w", err)
	}
	return item, nil
}

// ListMenuItems returns the whole catalog in category, then title order.
func (db *DB) ListMenuItems(ctx context.Context) ([]*models.MenuItem, error) {
	query := `SELECT ` + menuColumns + ` FROM menu_items ORDER BY category, title`
	return db.queryMenuItems(ctx, query)
}

func (db *DB) ListMenuItemsByCategory(ctx context.Context, category string) ([]*models.MenuItem, error) {
	query := `SELECT ` + menuColumns + ` FROM menu_items WHERE category = ? ORDER BY title`
	return db.queryMenuItems(ctx, query, category)
}

func (db *DB) UpdateMenuItem(ctx context.Context, item *models.MenuItem) error {
	now := time.Now()
	query := `UPDATE menu_items SET category = ?, title = ?, description = ?, price = ?, image_ref = ?, best_seller = ?, updated_at = ?
              WHERE id = ?`
	result, err := db.ExecContext(ctx, query,
		item.Category, item.Title, item.Description, item.Price, item.ImageRef, item.BestSeller, now, item.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update menu item: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrMenuItemNotFound
	}
	item.UpdatedAt = now
	return nil
}

func (db *DB) DeleteMenuItem(ctx context.Context, id int64) error {
	result, err := db.ExecContext(ctx, `DELETE FROM menu_items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete menu item: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrMenuItemNotFound
	}
	return nil
}

func (db *DB) queryMenuItems(ctx context.Context, query string, args ...any) ([]*models.MenuItem, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query menu items: %w", err)
	}
	defer rows.Close()

	var out []*models.MenuItem
	for rows.Next() {
		item, err := scanMenuItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan menu item: %w", err)
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

func scanMenuItem(row rowScanner) (*models.MenuItem, error) {
	var item models.MenuItem
	err := row.Scan(
		&item.ID, &item.Category, &item.Title, &item.Description, &item.Price,
		&item.ImageRef, &item.BestSeller, &item.CreatedAt, &item.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &item, nil
}
