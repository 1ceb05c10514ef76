package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"brewhouse/internal/models"
)

const historyColumns = `id, first_name, last_name, contact_number, email, package,
                 date, time_slot, payment_method, receipt_ref, id_document_ref,
                 status, created_at, moved_at`

// MoveToHistory relocates an active reservation into the history collection
// with the given final status. The copy and the delete run in a single
// transaction so a record can never be lost between the two steps, and a
// confirmed booking can never linger in the active collection where it
// would be double-counted against slot capacity.
func (db *DB) MoveToHistory(ctx context.Context, id, status string) error {
	if status != models.StatusConfirmed && status != models.StatusCanceled {
		return ErrInvalidStatus
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `SELECT ` + reservationColumns + ` FROM bookings WHERE id = ?`
	r, err := scanReservation(tx.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		// Запись не в активной коллекции: переход уже выполнен или id неверен
		return ErrReservationNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to read reservation for move: %w", err)
	}

	movedAt := time.Now()
	insert := `INSERT INTO history (` + historyColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = tx.ExecContext(ctx, insert,
		r.ID, r.FirstName, r.LastName, r.ContactNumber, r.Email, r.Package,
		r.Date.Format(models.DateLayout), r.TimeSlot, r.PaymentMethod, r.ReceiptRef, r.IDDocumentRef,
		status, r.CreatedAt, movedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to copy reservation to history: %w", err)
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM bookings WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete source reservation: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return ErrReservationNotFound
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit move: %w", err)
	}
	return nil
}

// UndoFromHistory moves a finalized record back to the active collection
// with its status reset to pending. Not-found is an error, never a silent
// success: once a history record is deleted the undo window is closed.
func (db *DB) UndoFromHistory(ctx context.Context, id string) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `SELECT ` + historyColumns + ` FROM history WHERE id = ?`
	r, err := scanHistoryRecord(tx.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return ErrHistoryNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to read history record for undo: %w", err)
	}

	insert := `INSERT INTO bookings (` + reservationColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = tx.ExecContext(ctx, insert,
		r.ID, r.FirstName, r.LastName, r.ContactNumber, r.Email, r.Package,
		r.Date.Format(models.DateLayout), r.TimeSlot, r.PaymentMethod, r.ReceiptRef, r.IDDocumentRef,
		models.StatusPending, r.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to copy history record back to bookings: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM history WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete history record: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit undo: %w", err)
	}
	return nil
}

func (db *DB) GetHistoryRecord(ctx context.Context, id string) (*models.Reservation, error) {
	query := `SELECT ` + historyColumns + ` FROM history WHERE id = ?`
	r, err := scanHistoryRecord(db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrHistoryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get history record: %w", err)
	}
	return r, nil
}

// ListHistory returns finalized reservations, most recently moved first.
func (db *DB) ListHistory(ctx context.Context) ([]*models.Reservation, error) {
	query := `SELECT ` + historyColumns + ` FROM history ORDER BY moved_at DESC`
	return db.queryHistory(ctx, query)
}

// DeleteHistoryRecord permanently removes a finalized record. Terminal.
func (db *DB) DeleteHistoryRecord(ctx context.Context, id string) error {
	result, err := db.ExecContext(ctx, `DELETE FROM history WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete history record: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrHistoryNotFound
	}
	return nil
}

// Reconcile deletes active records whose identifier already exists in
// history. Such duplicates silently inflate slot occupancy, so the caller
// is expected to raise an operational alert for every id returned.
func (db *DB) Reconcile(ctx context.Context) ([]string, error) {
	rows, err := db.QueryContext(ctx, `SELECT b.id FROM bookings b INNER JOIN history h ON h.id = b.id`)
	if err != nil {
		return nil, fmt.Errorf("failed to find duplicated records: %w", err)
	}

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan duplicate id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	for _, id := range ids {
		if _, err := db.ExecContext(ctx, `DELETE FROM bookings WHERE id = ?`, id); err != nil {
			return ids, fmt.Errorf("failed to delete duplicated record %s: %w", id, err)
		}
		db.logger.Warn().Str("reservation_id", id).Msg("reconciled duplicated record out of active collection")
	}
	return ids, nil
}

func (db *DB) queryHistory(ctx context.Context, query string, args ...any) ([]*models.Reservation, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var out []*models.Reservation
	for rows.Next() {
		r, err := scanHistoryRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan history record: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func scanHistoryRecord(row rowScanner) (*models.Reservation, error) {
	var r models.Reservation
	var dateStr string
	var movedAt time.Time
	err := row.Scan(
		&r.ID, &r.FirstName, &r.LastName, &r.ContactNumber, &r.Email, &r.Package,
		&dateStr, &r.TimeSlot, &r.PaymentMethod, &r.ReceiptRef, &r.IDDocumentRef,
		&r.Status, &r.CreatedAt, &movedAt,
	)
	if err != nil {
		return nil, err
	}

	r.Date, err = time.Parse(models.DateLayout, dateStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse history date %s: %w", dateStr, err)
	}
	r.MovedAt = &movedAt
	return &r, nil
}
