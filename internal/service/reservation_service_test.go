package service

import (
	"context"
	"testing"
	"time"

	"brewhouse/internal/config"
	"brewhouse/internal/database"
	"brewhouse/internal/events"
	"brewhouse/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var testSlots = []string{
	"8:00 AM - 11:00 AM",
	"12:00 PM - 3:00 PM",
	"4:00 PM - 7:00 PM",
}

type mockSyncWorker struct {
	mock.Mock
}

func (m *mockSyncWorker) EnqueueSale(ctx context.Context, r *models.Reservation) error {
	return m.Called(ctx, r).Error(0)
}

func setupReservationService(t *testing.T) (*ReservationService, *database.DB, *mockSyncWorker, *events.EventBus) {
	logger := zerolog.Nop()
	db, err := database.NewDB(":memory:", config.BookingConfig{
		Slots:        testSlots,
		SlotCapacity: models.SlotCapacity,
	}, &logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	worker := &mockSyncWorker{}
	bus := events.NewEventBus()
	svc := NewReservationService(db, bus, worker, nil, 90, &logger)
	return svc, db, worker, bus
}

func newRequest(date time.Time, slot string) *models.Reservation {
	return &models.Reservation{
		FirstName:     "Ana",
		LastName:      "Cruz",
		ContactNumber: "09120000000",
		Email:         "ana.cruz@example.com",
		Package:       "Standard",
		Date:          date,
		TimeSlot:      slot,
	}
}

func TestReservationService_CreateValidatesDate(t *testing.T) {
	svc, _, _, _ := setupReservationService(t)
	ctx := context.Background()

	past := newRequest(time.Now().AddDate(0, 0, -7), testSlots[0])
	err := svc.CreateReservation(ctx, past)
	assert.ErrorIs(t, err, database.ErrPastDate)

	tooFar := newRequest(time.Now().AddDate(0, 0, 120), testSlots[0])
	err = svc.CreateReservation(ctx, tooFar)
	assert.ErrorIs(t, err, database.ErrDateTooFar)

	ok := newRequest(time.Now().AddDate(0, 0, 7), testSlots[0])
	err = svc.CreateReservation(ctx, ok)
	require.NoError(t, err)
	assert.NotEmpty(t, ok.ID)
}

func TestReservationService_CreatePublishesEvent(t *testing.T) {
	svc, _, _, bus := setupReservationService(t)
	ctx := context.Background()

	var published []*events.Event
	bus.Subscribe(events.EventReservationCreated, func(e *events.Event) error {
		published = append(published, e)
		return nil
	})

	r := newRequest(time.Now().AddDate(0, 0, 7), testSlots[0])
	require.NoError(t, svc.CreateReservation(ctx, r))
	assert.Len(t, published, 1)
}

func TestReservationService_ConfirmMovesAndEnqueues(t *testing.T) {
	svc, db, worker, bus := setupReservationService(t)
	ctx := context.Background()

	confirmed := 0
	bus.Subscribe(events.EventReservationConfirmed, func(e *events.Event) error {
		confirmed++
		return nil
	})

	r := newRequest(time.Now().AddDate(0, 0, 7), testSlots[0])
	require.NoError(t, svc.CreateReservation(ctx, r))

	worker.On("EnqueueSale", mock.Anything, mock.Anything).Return(nil)

	require.NoError(t, svc.ConfirmReservation(ctx, r.ID, "barista"))

	rec, err := db.GetHistoryRecord(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, rec.Status)

	worker.AssertCalled(t, "EnqueueSale", mock.Anything, mock.Anything)
	assert.Equal(t, 1, confirmed)
}

func TestReservationService_CancelDoesNotEnqueue(t *testing.T) {
	svc, db, worker, _ := setupReservationService(t)
	ctx := context.Background()

	r := newRequest(time.Now().AddDate(0, 0, 7), testSlots[1])
	require.NoError(t, svc.CreateReservation(ctx, r))

	require.NoError(t, svc.CancelReservation(ctx, r.ID, "barista"))

	rec, err := db.GetHistoryRecord(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCanceled, rec.Status)

	// Отменённые брони не попадают в очередь продаж
	worker.AssertNotCalled(t, "EnqueueSale", mock.Anything, mock.Anything)
}

func TestReservationService_UndoRoundTrip(t *testing.T) {
	svc, db, worker, _ := setupReservationService(t)
	ctx := context.Background()

	worker.On("EnqueueSale", mock.Anything, mock.Anything).Return(nil)

	r := newRequest(time.Now().AddDate(0, 0, 7), testSlots[2])
	require.NoError(t, svc.CreateReservation(ctx, r))
	require.NoError(t, svc.ConfirmReservation(ctx, r.ID, "barista"))

	require.NoError(t, svc.UndoReservation(ctx, r.ID, "barista"))

	got, err := db.GetReservation(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, got.Status)

	_, err = db.GetHistoryRecord(ctx, r.ID)
	assert.ErrorIs(t, err, database.ErrHistoryNotFound)
}

func TestReservationService_ReconcileAlerts(t *testing.T) {
	svc, db, worker, bus := setupReservationService(t)
	ctx := context.Background()

	alerts := 0
	bus.Subscribe(events.EventMovePartialFailure, func(e *events.Event) error {
		alerts++
		return nil
	})

	worker.On("EnqueueSale", mock.Anything, mock.Anything).Return(nil)

	r := newRequest(time.Now().AddDate(0, 0, 7), testSlots[0])
	require.NoError(t, svc.CreateReservation(ctx, r))
	require.NoError(t, svc.ConfirmReservation(ctx, r.ID, "barista"))

	// Симулируем частично выполненный перенос: копия осталась активной
	_, err := db.ExecContext(ctx, `INSERT INTO bookings
        (id, first_name, last_name, contact_number, email, package, date, time_slot, status, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.FirstName, r.LastName, r.ContactNumber, r.Email, r.Package,
		r.Date.Format(models.DateLayout), r.TimeSlot, models.StatusConfirmed, r.CreatedAt)
	require.NoError(t, err)

	ids, err := svc.Reconcile(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{r.ID}, ids)
	assert.Equal(t, 1, alerts)

	// Повторный прогон ничего не находит
	ids, err = svc.Reconcile(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)
	assert.Equal(t, 1, alerts)
}

func TestReservationService_AvailableSlotsValidatesDate(t *testing.T) {
	svc, _, _, _ := setupReservationService(t)
	ctx := context.Background()

	_, err := svc.AvailableSlots(ctx, time.Now().AddDate(0, 0, -7))
	assert.ErrorIs(t, err, database.ErrPastDate)

	slots, err := svc.AvailableSlots(ctx, time.Now().AddDate(0, 0, 7))
	require.NoError(t, err)
	assert.Equal(t, testSlots, slots)
}
