package service

import (
	"context"
	"time"

	"brewhouse/internal/database"
	"brewhouse/internal/domain"
	"brewhouse/internal/events"
	"brewhouse/internal/metrics"
	"brewhouse/internal/models"

	"github.com/rs/zerolog"
)

type ReservationService struct {
	store          domain.Store
	eventBus       domain.EventPublisher
	syncWorker     domain.SyncWorker
	notifier       domain.Notifier
	maxAdvanceDays int
	logger         *zerolog.Logger
}

func NewReservationService(
	store domain.Store,
	eventBus domain.EventPublisher,
	syncWorker domain.SyncWorker,
	notifier domain.Notifier,
	maxAdvanceDays int,
	logger *zerolog.Logger,
) *ReservationService {
	if maxAdvanceDays <= 0 {
		maxAdvanceDays = 90
	}
	return &ReservationService{
		store:          store,
		eventBus:       eventBus,
		syncWorker:     syncWorker,
		notifier:       notifier,
		maxAdvanceDays: maxAdvanceDays,
		logger:         logger,
	}
}

func (s *ReservationService) ValidateReservationDate(date time.Time) error {
	// Дата не в прошлом
	if date.Before(time.Now().AddDate(0, 0, -1)) {
		return database.ErrPastDate
	}

	maxDate := time.Now().AddDate(0, 0, s.maxAdvanceDays)
	if date.After(maxDate) {
		return database.ErrDateTooFar
	}

	return nil
}

// CreateReservation validates the request and inserts it through the
// store's transactional capacity check.
func (s *ReservationService) CreateReservation(ctx context.Context, r *models.Reservation) error {
	if err := s.ValidateReservationDate(r.Date); err != nil {
		metrics.IncReservationRejected("bad_date")
		return err
	}

	if err := s.store.CreateReservation(ctx, r); err != nil {
		if err == database.ErrSlotFull {
			metrics.IncReservationRejected("slot_full")
		}
		return err
	}

	metrics.IncReservationCreated()
	s.publishEvent(events.EventReservationCreated, r, "guest")

	return nil
}

// ConfirmReservation finalizes a booking as confirmed and queues it for
// the sales sheet.
func (s *ReservationService) ConfirmReservation(ctx context.Context, id, adminUser string) error {
	r, err := s.store.GetReservation(ctx, id)
	if err != nil {
		return err
	}

	if err := s.store.MoveToHistory(ctx, id, models.StatusConfirmed); err != nil {
		return err
	}

	metrics.IncReservationMoved(models.StatusConfirmed)
	r.Status = models.StatusConfirmed
	s.publishEvent(events.EventReservationConfirmed, r, adminUser)
	s.enqueueSale(ctx, r)

	return nil
}

// CancelReservation finalizes a booking as canceled.
func (s *ReservationService) CancelReservation(ctx context.Context, id, adminUser string) error {
	r, err := s.store.GetReservation(ctx, id)
	if err != nil {
		return err
	}

	if err := s.store.MoveToHistory(ctx, id, models.StatusCanceled); err != nil {
		return err
	}

	metrics.IncReservationMoved(models.StatusCanceled)
	r.Status = models.StatusCanceled
	s.publishEvent(events.EventReservationCanceled, r, adminUser)

	return nil
}

// UndoReservation returns a finalized booking to the active collection.
// The seat may have been taken while the record sat in history; the undo
// still succeeds and staff resolve the overlap by hand, matching how the
// front desk actually works.
func (s *ReservationService) UndoReservation(ctx context.Context, id, adminUser string) error {
	if err := s.store.UndoFromHistory(ctx, id); err != nil {
		return err
	}

	r, err := s.store.GetReservation(ctx, id)
	if err == nil {
		s.publishEvent(events.EventReservationUndone, r, adminUser)
	}

	return nil
}

// DeleteReservation drops an active record with no history trace.
func (s *ReservationService) DeleteReservation(ctx context.Context, id, adminUser string) error {
	r, err := s.store.GetReservation(ctx, id)
	if err != nil {
		return err
	}

	if err := s.store.DeleteReservation(ctx, id); err != nil {
		return err
	}

	s.publishEvent(events.EventReservationDeleted, r, adminUser)
	return nil
}

// DeleteHistoryRecord permanently removes a finalized record.
func (s *ReservationService) DeleteHistoryRecord(ctx context.Context, id string) error {
	return s.store.DeleteHistoryRecord(ctx, id)
}

// AttachPayment stores the payment method and uploaded receipt reference.
func (s *ReservationService) AttachPayment(ctx context.Context, id, method, receiptRef string) error {
	return s.store.AttachPayment(ctx, id, method, receiptRef)
}

// AttachIDDocument stores the uploaded identity document reference.
func (s *ReservationService) AttachIDDocument(ctx context.Context, id, documentRef string) error {
	return s.store.AttachIDDocument(ctx, id, documentRef)
}

// Reconcile removes duplicated records and alerts the admin channel for
// each one found.
func (s *ReservationService) Reconcile(ctx context.Context) ([]string, error) {
	ids, err := s.store.Reconcile(ctx)
	if len(ids) > 0 {
		metrics.AddRecordsReconciled(len(ids))
		for _, id := range ids {
			s.publishEvent(events.EventMovePartialFailure, &models.Reservation{ID: id}, "system")
		}
	}
	return ids, err
}

func (s *ReservationService) GetReservation(ctx context.Context, id string) (*models.Reservation, error) {
	return s.store.GetReservation(ctx, id)
}

func (s *ReservationService) ListReservations(ctx context.Context) ([]*models.Reservation, error) {
	return s.store.ListReservations(ctx)
}

func (s *ReservationService) ListHistory(ctx context.Context) ([]*models.Reservation, error) {
	return s.store.ListHistory(ctx)
}

func (s *ReservationService) GetHistoryRecord(ctx context.Context, id string) (*models.Reservation, error) {
	return s.store.GetHistoryRecord(ctx, id)
}

// AvailableSlots reports open slots for a date, after date validation.
func (s *ReservationService) AvailableSlots(ctx context.Context, date time.Time) ([]string, error) {
	if err := s.ValidateReservationDate(date); err != nil {
		return nil, err
	}
	return s.store.AvailableSlots(ctx, date)
}

func (s *ReservationService) IsSlotAvailable(ctx context.Context, date time.Time, slot string) (bool, error) {
	return s.store.IsSlotAvailable(ctx, date, slot)
}

func (s *ReservationService) Slots() []string {
	return s.store.Slots()
}

func (s *ReservationService) publishEvent(eventType string, r *models.Reservation, changedBy string) {
	if s.eventBus == nil {
		return
	}

	payload := events.ReservationEventPayload{
		ReservationID: r.ID,
		GuestName:     r.FullName(),
		Package:       r.Package,
		Date:          r.Date.Format(models.DateLayout),
		TimeSlot:      r.TimeSlot,
		Status:        r.Status,
		ChangedBy:     changedBy,
	}

	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Str("reservation_id", r.ID).Msg("publish event error")
	}
}

func (s *ReservationService) enqueueSale(ctx context.Context, r *models.Reservation) {
	if s.syncWorker == nil {
		return
	}
	if err := s.syncWorker.EnqueueSale(ctx, r); err != nil {
		s.logger.Error().Err(err).Str("reservation_id", r.ID).Msg("sales enqueue error")
	}
}
