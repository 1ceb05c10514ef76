package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"brewhouse/internal/config"
	"brewhouse/internal/database"
	"brewhouse/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetryPolicy_NextDelay(t *testing.T) {
	p := RetryPolicy{
		MaxRetries:    5,
		InitialDelay:  time.Second,
		MaxDelay:      10 * time.Second,
		BackoffFactor: 2,
	}

	assert.Equal(t, time.Second, p.NextDelay(1))
	assert.Equal(t, 2*time.Second, p.NextDelay(2))
	assert.Equal(t, 4*time.Second, p.NextDelay(3))
	// Clamped by MaxDelay
	assert.Equal(t, 10*time.Second, p.NextDelay(10))
	// Некорректный attempt приводится к первому
	assert.Equal(t, time.Second, p.NextDelay(0))
}

func TestRetryPolicy_Defaults(t *testing.T) {
	p := RetryPolicy{}
	assert.Equal(t, time.Second, p.NextDelay(1))
	assert.Equal(t, 2*time.Second, p.NextDelay(2))
}

type fakeSalesClient struct {
	calls []string
	err   error
}

func (f *fakeSalesClient) UpsertSale(ctx context.Context, r *models.Reservation, price float64) error {
	f.calls = append(f.calls, r.ID)
	return f.err
}

func setupWorker(t *testing.T, client *fakeSalesClient) (*SalesWorker, *database.DB) {
	logger := zerolog.Nop()
	db, err := database.NewDB(":memory:", config.BookingConfig{
		Slots:        []string{"8:00 AM - 11:00 AM"},
		SlotCapacity: models.SlotCapacity,
	}, &logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	priceFor := func(pkg string) float64 {
		if pkg == "Standard" {
			return 1500
		}
		return 0
	}
	w := NewSalesWorker(db, client, nil, priceFor, RetryPolicy{MaxRetries: 2}, &logger)
	return w, db
}

func TestSalesWorker_EnqueueAndProcess(t *testing.T) {
	client := &fakeSalesClient{}
	w, db := setupWorker(t, client)
	ctx := context.Background()

	r := &models.Reservation{
		ID:        "ID_123",
		FirstName: "Ana",
		LastName:  "Cruz",
		Package:   "Standard",
		Date:      time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		TimeSlot:  "8:00 AM - 11:00 AM",
	}
	require.NoError(t, w.EnqueueSale(ctx, r))

	tasks, err := db.GetPendingSyncTasks(ctx, 10)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "ID_123", tasks[0].ReservationID)
	assert.Equal(t, TaskSalesSync, tasks[0].TaskType)

	w.processTask(ctx, &tasks[0])

	assert.Equal(t, []string{"ID_123"}, client.calls)

	// Задача завершена и больше не в очереди
	tasks, err = db.GetPendingSyncTasks(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestSalesWorker_RetryThenFail(t *testing.T) {
	client := &fakeSalesClient{err: errors.New("sheets unavailable")}
	w, db := setupWorker(t, client)
	ctx := context.Background()

	r := &models.Reservation{ID: "ID_200", Package: "Standard", Date: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)}
	require.NoError(t, w.EnqueueSale(ctx, r))

	tasks, err := db.GetPendingSyncTasks(ctx, 10)
	require.NoError(t, err)
	require.Len(t, tasks, 1)

	// Первая ошибка уходит в retry с отложенным запуском
	w.processTask(ctx, &tasks[0])
	pending, err := db.GetPendingSyncTasks(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)

	// Вторая попытка исчерпывает лимит
	tasks[0].RetryCount = 1
	w.processTask(ctx, &tasks[0])

	failed, err := db.GetFailedSyncTasks(ctx)
	require.NoError(t, err)
	require.Len(t, failed, 1)
	require.NotNil(t, failed[0].LastError)
	assert.Equal(t, "sheets unavailable", *failed[0].LastError)
}

func TestSalesWorker_EnqueueRequiresID(t *testing.T) {
	w, _ := setupWorker(t, &fakeSalesClient{})
	err := w.EnqueueSale(context.Background(), &models.Reservation{})
	assert.Error(t, err)
}
