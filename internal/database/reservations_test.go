package database

import (
	"context"
	"fmt"
	"testing"
	"time"

	"brewhouse/internal/config"
	"brewhouse/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSlots = []string{
	"8:00 AM - 11:00 AM",
	"12:00 PM - 3:00 PM",
	"4:00 PM - 7:00 PM",
}

func setupTestDB(t *testing.T) *DB {
	logger := zerolog.Nop()
	db, err := NewDB(":memory:", config.BookingConfig{
		Slots:        testSlots,
		SlotCapacity: models.SlotCapacity,
	}, &logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func testReservation(date time.Time, slot string) *models.Reservation {
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

func TestCreateReservation_SlotCapacity(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	date := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	slot := "8:00 AM - 11:00 AM"

	// Two reservations fit, the third must be rejected
	first := testReservation(date, slot)
	require.NoError(t, db.CreateReservation(ctx, first))

	second := testReservation(date, slot)
	second.FirstName = "Ben"
	require.NoError(t, db.CreateReservation(ctx, second))

	third := testReservation(date, slot)
	third.FirstName = "Carla"
	err := db.CreateReservation(ctx, third)
	assert.ErrorIs(t, err, ErrSlotFull)
	assert.Empty(t, third.ID)

	// The same slot on another date is unaffected
	otherDate := testReservation(date.AddDate(0, 0, 1), slot)
	assert.NoError(t, db.CreateReservation(ctx, otherDate))

	// Another slot on the full date is unaffected too
	otherSlot := testReservation(date, "12:00 PM - 3:00 PM")
	assert.NoError(t, db.CreateReservation(ctx, otherSlot))
}

func TestCreateReservation_UnknownSlot(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	r := testReservation(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), "9:00 PM - 11:00 PM")
	err := db.CreateReservation(ctx, r)
	assert.ErrorIs(t, err, ErrUnknownSlot)
}

func TestCreateReservation_GeneratesUniqueIDs(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	date := time.Date(2025, 4, 10, 0, 0, 0, 0, time.UTC)
	seen := make(map[string]bool)

	for i, slot := range testSlots {
		for j := 0; j < 2; j++ {
			r := testReservation(date, slot)
			r.FirstName = fmt.Sprintf("Guest%d%d", i, j)
			require.NoError(t, db.CreateReservation(ctx, r))

			n, ok := models.ParseIDSuffix(r.ID)
			require.True(t, ok, "id %q is not in ID_<n> form", r.ID)
			assert.GreaterOrEqual(t, n, models.IDSuffixMin)
			assert.LessOrEqual(t, n, models.IDSuffixMax)

			assert.False(t, seen[r.ID], "duplicate id %s", r.ID)
			seen[r.ID] = true
		}
	}
}

func TestCreateReservation_SetsPendingStatus(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	r := testReservation(time.Date(2025, 5, 2, 0, 0, 0, 0, time.UTC), "4:00 PM - 7:00 PM")
	require.NoError(t, db.CreateReservation(ctx, r))

	assert.Equal(t, models.StatusPending, r.Status)
	assert.False(t, r.CreatedAt.IsZero())

	got, err := db.GetReservation(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, got.Status)
	assert.Equal(t, "Ana Cruz", got.FullName())
	assert.Equal(t, r.Date.Format(models.DateLayout), got.Date.Format(models.DateLayout))
}

func TestIsSlotAvailable(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	date := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	slot := "8:00 AM - 11:00 AM"

	ok, err := db.IsSlotAvailable(ctx, date, slot)
	require.NoError(t, err)
	assert.True(t, ok)

	for i := 0; i < 2; i++ {
		r := testReservation(date, slot)
		r.FirstName = fmt.Sprintf("Guest%d", i)
		require.NoError(t, db.CreateReservation(ctx, r))
	}

	ok, err = db.IsSlotAvailable(ctx, date, slot)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = db.IsSlotAvailable(ctx, date, "midnight")
	assert.ErrorIs(t, err, ErrUnknownSlot)
}

func TestAvailableSlots(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	date := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)

	// Пустая дата: все слоты свободны, порядок как в конфиге
	slots, err := db.AvailableSlots(ctx, date)
	require.NoError(t, err)
	assert.Equal(t, testSlots, slots)

	// Заполняем утренний слот
	for i := 0; i < 2; i++ {
		r := testReservation(date, testSlots[0])
		r.FirstName = fmt.Sprintf("Guest%d", i)
		require.NoError(t, db.CreateReservation(ctx, r))
	}

	slots, err = db.AvailableSlots(ctx, date)
	require.NoError(t, err)
	assert.Equal(t, testSlots[1:], slots)
}

func TestGenerateID_SkipsActiveSuffixes(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	date := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	r := testReservation(date, testSlots[0])
	require.NoError(t, db.CreateReservation(ctx, r))

	taken, ok := models.ParseIDSuffix(r.ID)
	require.True(t, ok)

	for i := 0; i < 50; i++ {
		id, err := db.GenerateID(ctx)
		require.NoError(t, err)
		n, ok := models.ParseIDSuffix(id)
		require.True(t, ok)
		assert.NotEqual(t, taken, n)
	}
}

func TestAttachPayment(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	r := testReservation(time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC), testSlots[1])
	require.NoError(t, db.CreateReservation(ctx, r))

	err := db.AttachPayment(ctx, r.ID, "gcash", "receipts/abc.jpg")
	require.NoError(t, err)

	got, err := db.GetReservation(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, "gcash", got.PaymentMethod)
	assert.Equal(t, "receipts/abc.jpg", got.ReceiptRef)

	err = db.AttachPayment(ctx, "ID_000", "gcash", "x")
	assert.ErrorIs(t, err, ErrReservationNotFound)
}

func TestDeleteReservation(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	r := testReservation(time.Date(2025, 8, 2, 0, 0, 0, 0, time.UTC), testSlots[2])
	require.NoError(t, db.CreateReservation(ctx, r))

	require.NoError(t, db.DeleteReservation(ctx, r.ID))

	_, err := db.GetReservation(ctx, r.ID)
	assert.ErrorIs(t, err, ErrReservationNotFound)

	// Удаление из активной коллекции не оставляет следа в истории
	_, err = db.GetHistoryRecord(ctx, r.ID)
	assert.ErrorIs(t, err, ErrHistoryNotFound)

	err = db.DeleteReservation(ctx, r.ID)
	assert.ErrorIs(t, err, ErrReservationNotFound)
}

func TestListReservations_Order(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	date := time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)
	ids := make([]string, 0, 3)
	for i, slot := range testSlots {
		r := testReservation(date, slot)
		r.FirstName = fmt.Sprintf("Guest%d", i)
		require.NoError(t, db.CreateReservation(ctx, r))
		ids = append(ids, r.ID)
		time.Sleep(5 * time.Millisecond)
	}

	list, err := db.ListReservations(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	// Newest first
	assert.Equal(t, ids[2], list[0].ID)
	assert.Equal(t, ids[0], list[2].ID)

	byDate, err := db.ListReservationsByDate(ctx, date)
	require.NoError(t, err)
	assert.Len(t, byDate, 3)

	empty, err := db.ListReservationsByDate(ctx, date.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Empty(t, empty)
}
