package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"brewhouse/internal/models"
)

const reservationColumns = `id, first_name, last_name, contact_number, email, package,
                 date, time_slot, payment_method, receipt_ref, id_document_ref,
                 status, created_at`

// GetBookedCount returns the number of active reservations for a (date, slot) pair.
// The active collection holds only live bookings, so no status filter is needed.
func (db *DB) GetBookedCount(ctx context.Context, date time.Time, slot string) (int, error) {
	return bookedCount(ctx, db.DB, date, slot)
}

func bookedCount(ctx context.Context, q querier, date time.Time, slot string) (int, error) {
	query := `SELECT COUNT(*) FROM bookings WHERE date = ? AND time_slot = ?`
	var count int
	err := q.QueryRowContext(ctx, query, date.Format(models.DateLayout), slot).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get booked count: %w", err)
	}
	return count, nil
}

// IsSlotAvailable reports whether a new reservation may be accepted for the
// (date, slot) pair. Advisory for callers building the slot picker; the
// authoritative check runs again inside CreateReservation's transaction.
func (db *DB) IsSlotAvailable(ctx context.Context, date time.Time, slot string) (bool, error) {
	if !db.validSlot(slot) {
		return false, ErrUnknownSlot
	}
	count, err := db.GetBookedCount(ctx, date, slot)
	if err != nil {
		return false, err
	}
	return count < db.capacity, nil
}

// AvailableSlots returns the subset of offered slots still open on a date.
func (db *DB) AvailableSlots(ctx context.Context, date time.Time) ([]string, error) {
	query := `SELECT time_slot, COUNT(*) FROM bookings WHERE date = ? GROUP BY time_slot`
	rows, err := db.QueryContext(ctx, query, date.Format(models.DateLayout))
	if err != nil {
		return nil, fmt.Errorf("failed to get slot counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var slot string
		var count int
		if err := rows.Scan(&slot, &count); err != nil {
			return nil, fmt.Errorf("failed to scan slot count: %w", err)
		}
		counts[slot] = count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	available := make([]string, 0, len(db.slots))
	for _, slot := range db.slots {
		if counts[slot] < db.capacity {
			available = append(available, slot)
		}
	}
	return available, nil
}

// GenerateID draws an unused "ID_<n>" identifier against the active set.
func (db *DB) GenerateID(ctx context.Context) (string, error) {
	return generateID(ctx, db.DB)
}

func generateID(ctx context.Context, q querier) (string, error) {
	suffixes, err := activeSuffixes(ctx, q)
	if err != nil {
		return "", err
	}

	for attempt := 0; attempt < models.IDMaxAttempts; attempt++ {
		n := models.IDSuffixMin + rand.IntN(models.IDSuffixMax-models.IDSuffixMin+1)
		if !suffixes[n] {
			return models.FormatID(n), nil
		}
	}
	return "", ErrIDSpaceExhausted
}

func activeSuffixes(ctx context.Context, q querier) (map[int]bool, error) {
	rows, err := q.QueryContext(ctx, `SELECT id FROM bookings`)
	if err != nil {
		return nil, fmt.Errorf("failed to read active identifiers: %w", err)
	}
	defer rows.Close()

	suffixes := make(map[int]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan identifier: %w", err)
		}
		if n, ok := models.ParseIDSuffix(id); ok {
			suffixes[n] = true
		}
	}
	return suffixes, rows.Err()
}

// CreateReservation validates slot capacity, generates the identifier and
// inserts the record, all inside one transaction. The pre-check done for
// the slot picker is advisory only; this is the authoritative path, so two
// concurrent submissions cannot both land on a full slot.
func (db *DB) CreateReservation(ctx context.Context, r *models.Reservation) error {
	if !db.validSlot(r.TimeSlot) {
		return ErrUnknownSlot
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	count, err := bookedCount(ctx, tx, r.Date, r.TimeSlot)
	if err != nil {
		return err
	}
	if count >= db.capacity {
		return ErrSlotFull
	}

	id, err := generateID(ctx, tx)
	if err != nil {
		return err
	}

	now := time.Now()
	query := `INSERT INTO bookings (` + reservationColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = tx.ExecContext(ctx, query,
		id,
		r.FirstName,
		r.LastName,
		r.ContactNumber,
		r.Email,
		r.Package,
		r.Date.Format(models.DateLayout),
		r.TimeSlot,
		r.PaymentMethod,
		r.ReceiptRef,
		r.IDDocumentRef,
		models.StatusPending,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to insert reservation: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit reservation: %w", err)
	}

	r.ID = id
	r.Status = models.StatusPending
	r.CreatedAt = now
	return nil
}

func (db *DB) GetReservation(ctx context.Context, id string) (*models.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM bookings WHERE id = ?`
	r, err := scanReservation(db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrReservationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get reservation: %w", err)
	}
	return r, nil
}

// ListReservations returns the active collection, newest first.
func (db *DB) ListReservations(ctx context.Context) ([]*models.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM bookings ORDER BY created_at DESC`
	return db.queryReservations(ctx, query)
}

// ListReservationsByDate returns active reservations for one calendar date.
func (db *DB) ListReservationsByDate(ctx context.Context, date time.Time) ([]*models.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM bookings WHERE date = ? ORDER BY time_slot, created_at`
	return db.queryReservations(ctx, query, date.Format(models.DateLayout))
}

// AttachPayment records the payment method and receipt reference chosen at
// the payment step.
func (db *DB) AttachPayment(ctx context.Context, id, method, receiptRef string) error {
	query := `UPDATE bookings SET payment_method = ?, receipt_ref = ? WHERE id = ?`
	result, err := db.ExecContext(ctx, query, method, receiptRef, id)
	if err != nil {
		return fmt.Errorf("failed to attach payment: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrReservationNotFound
	}
	return nil
}

// AttachIDDocument stores the reference of the uploaded identity document.
func (db *DB) AttachIDDocument(ctx context.Context, id, documentRef string) error {
	result, err := db.ExecContext(ctx, `UPDATE bookings SET id_document_ref = ? WHERE id = ?`, documentRef, id)
	if err != nil {
		return fmt.Errorf("failed to attach id document: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrReservationNotFound
	}
	return nil
}

// DeleteReservation removes an active record outright, leaving no history trace.
func (db *DB) DeleteReservation(ctx context.Context, id string) error {
	result, err := db.ExecContext(ctx, `DELETE FROM bookings WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete reservation: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrReservationNotFound
	}
	return nil
}

func (db *DB) queryReservations(ctx context.Context, query string, args ...any) ([]*models.Reservation, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query reservations: %w", err)
	}
	defer rows.Close()

	var out []*models.Reservation
	for rows.Next() {
		r, err := scanReservation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan reservation: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReservation(row rowScanner) (*models.Reservation, error) {
	var r models.Reservation
	var dateStr string
	err := row.Scan(
		&r.ID, &r.FirstName, &r.LastName, &r.ContactNumber, &r.Email, &r.Package,
		&dateStr, &r.TimeSlot, &r.PaymentMethod, &r.ReceiptRef, &r.IDDocumentRef,
		&r.Status, &r.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	r.Date, err = time.Parse(models.DateLayout, dateStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse reservation date %s: %w", dateStr, err)
	}
	return &r, nil
}
