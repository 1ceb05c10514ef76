package domain

import (
	"context"
	"io"
	"time"

	"brewhouse/internal/models"
)

// Store is the reservation directory: active bookings, finalized history,
// the menu catalog and the sales sync queue.
type Store interface {
	CreateReservation(ctx context.Context, r *models.Reservation) error
	GetReservation(ctx context.Context, id string) (*models.Reservation, error)
	ListReservations(ctx context.Context) ([]*models.Reservation, error)
	ListReservationsByDate(ctx context.Context, date time.Time) ([]*models.Reservation, error)
	AttachPayment(ctx context.Context, id, method, receiptRef string) error
	AttachIDDocument(ctx context.Context, id, documentRef string) error
	DeleteReservation(ctx context.Context, id string) error

	IsSlotAvailable(ctx context.Context, date time.Time, slot string) (bool, error)
	AvailableSlots(ctx context.Context, date time.Time) ([]string, error)
	GetBookedCount(ctx context.Context, date time.Time, slot string) (int, error)
	Slots() []string
	Capacity() int

	MoveToHistory(ctx context.Context, id, status string) error
	UndoFromHistory(ctx context.Context, id string) error
	GetHistoryRecord(ctx context.Context, id string) (*models.Reservation, error)
	ListHistory(ctx context.Context) ([]*models.Reservation, error)
	DeleteHistoryRecord(ctx context.Context, id string) error
	Reconcile(ctx context.Context) ([]string, error)

	CreateMenuItem(ctx context.Context, item *models.MenuItem) error
	GetMenuItem(ctx context.Context, id int64) (*models.MenuItem, error)
	ListMenuItems(ctx context.Context) ([]*models.MenuItem, error)
	ListMenuItemsByCategory(ctx context.Context, category string) ([]*models.MenuItem, error)
	UpdateMenuItem(ctx context.Context, item *models.MenuItem) error
	DeleteMenuItem(ctx context.Context, id int64) error

	ConfirmedSales(ctx context.Context, from, to time.Time) ([]*models.Reservation, error)
	SalesByDay(ctx context.Context, from, to time.Time) (map[string][]*models.Reservation, error)

	CreateSyncTask(ctx context.Context, task *models.SyncTask) error
	GetPendingSyncTasks(ctx context.Context, limit int) ([]models.SyncTask, error)
	UpdateSyncTaskStatus(ctx context.Context, id int64, status, errMsg string, nextRetryAt *time.Time) error
	GetFailedSyncTasks(ctx context.Context) ([]models.SyncTask, error)
}

// FlowRepository keeps per-session booking flow state.
type FlowRepository interface {
	GetState(ctx context.Context, sessionID string) (*models.FlowState, error)
	SetState(ctx context.Context, state *models.FlowState) error
	ClearState(ctx context.Context, sessionID string) error
	CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// FlowManager drives the booking flow state machine on top of a FlowRepository.
type FlowManager interface {
	GetFlowState(ctx context.Context, sessionID string) (*models.FlowState, error)
	AdvanceFlow(ctx context.Context, sessionID, step string, data map[string]interface{}) error
	ClearFlow(ctx context.Context, sessionID string) error
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

// SheetsWriter pushes confirmed sales to the external spreadsheet.
type SheetsWriter interface {
	AppendSale(ctx context.Context, r *models.Reservation, price float64) error
	UpsertSale(ctx context.Context, r *models.Reservation, price float64) error
	ReplaceSalesSheet(ctx context.Context, sales []*models.Reservation, priceFor func(pkg string) float64) error
}

type SyncWorker interface {
	EnqueueSale(ctx context.Context, r *models.Reservation) error
}

// BlobStore holds uploaded binaries: receipts, id documents, menu images.
type BlobStore interface {
	Put(ctx context.Context, key string, body io.Reader, contentType string) error
	URL(key string) string
	Delete(ctx context.Context, key string) error
}

// Notifier delivers operational messages to the admin channel.
type Notifier interface {
	NotifyText(text string) error
}
