package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"brewhouse/internal/config"
	"brewhouse/internal/models"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
)

// DB is the directory store. Active reservations live in the bookings
// table, finalized ones in history; the two are distinct collections so
// the slot capacity rule only ever inspects live bookings.
type DB struct {
	*sql.DB
	logger   *zerolog.Logger
	capacity int
	slots    []string
}

func NewDB(path string, booking config.BookingConfig, logger *zerolog.Logger) (*DB, error) {
	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	sqlDB, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Одно соединение: сериализует транзакции и делает ":memory:" стабильным
	sqlDB.SetMaxOpenConns(1)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := createTables(sqlDB); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	capacity := booking.SlotCapacity
	if capacity <= 0 {
		capacity = models.SlotCapacity
	}

	logger.Info().Str("path", path).Int("slot_capacity", capacity).Msg("database initialized")

	return &DB{
		DB:       sqlDB,
		logger:   logger,
		capacity: capacity,
		slots:    booking.Slots,
	}, nil
}

func createTables(db *sql.DB) error {
	queries := []string{
		// Активные брони
		`CREATE TABLE IF NOT EXISTS bookings (
            id TEXT PRIMARY KEY,
            first_name TEXT NOT NULL,
            last_name TEXT NOT NULL,
            contact_number TEXT NOT NULL,
            email TEXT NOT NULL,
            package TEXT NOT NULL,
            date TEXT NOT NULL,
            time_slot TEXT NOT NULL,
            payment_method TEXT NOT NULL DEFAULT '',
            receipt_ref TEXT NOT NULL DEFAULT '',
            id_document_ref TEXT NOT NULL DEFAULT '',
            status TEXT NOT NULL DEFAULT 'pending',
            created_at DATETIME NOT NULL
        )`,
		// Завершённые брони (отдельная коллекция, не фильтр по статусу)
		`CREATE TABLE IF NOT EXISTS history (
            id TEXT PRIMARY KEY,
            first_name TEXT NOT NULL,
            last_name TEXT NOT NULL,
            contact_number TEXT NOT NULL,
            email TEXT NOT NULL,
            package TEXT NOT NULL,
            date TEXT NOT NULL,
            time_slot TEXT NOT NULL,
            payment_method TEXT NOT NULL DEFAULT '',
            receipt_ref TEXT NOT NULL DEFAULT '',
            id_document_ref TEXT NOT NULL DEFAULT '',
            status TEXT NOT NULL,
            created_at DATETIME NOT NULL,
            moved_at DATETIME NOT NULL
        )`,
		// Каталог меню
		`CREATE TABLE IF NOT EXISTS menu_items (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            category TEXT NOT NULL,
            title TEXT NOT NULL,
            description TEXT NOT NULL DEFAULT '',
            price REAL NOT NULL,
            image_ref TEXT NOT NULL DEFAULT '',
            best_seller INTEGER NOT NULL DEFAULT 0,
            created_at DATETIME NOT NULL,
            updated_at DATETIME NOT NULL
        )`,
		// Очередь синхронизации отчёта продаж
		`CREATE TABLE IF NOT EXISTS sync_queue (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            task_type TEXT NOT NULL,
            reservation_id TEXT NOT NULL,
            payload TEXT,
            status TEXT NOT NULL DEFAULT 'pending',
            retry_count INTEGER NOT NULL DEFAULT 0,
            last_error TEXT,
            created_at DATETIME NOT NULL,
            processed_at DATETIME,
            next_retry_at DATETIME
        )`,

		`CREATE INDEX IF NOT EXISTS idx_bookings_date_slot ON bookings(date, time_slot)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_created_at ON bookings(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_history_date ON history(date)`,
		`CREATE INDEX IF NOT EXISTS idx_history_status ON history(status)`,
		`CREATE INDEX IF NOT EXISTS idx_history_moved_at ON history(moved_at)`,
		`CREATE INDEX IF NOT EXISTS idx_menu_items_category ON menu_items(category)`,
		`CREATE INDEX IF NOT EXISTS idx_sync_queue_status ON sync_queue(status)`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("error executing query %s: %w", query, err)
		}
	}
	return nil
}

// Slots returns the configured slot labels in offer order.
func (db *DB) Slots() []string {
	out := make([]string, len(db.slots))
	copy(out, db.slots)
	return out
}

// Capacity returns the per-slot reservation limit.
func (db *DB) Capacity() int {
	return db.capacity
}

func (db *DB) validSlot(slot string) bool {
	for _, s := range db.slots {
		if s == slot {
			return true
		}
	}
	return false
}

// querier covers both *sql.DB and *sql.Tx.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}
