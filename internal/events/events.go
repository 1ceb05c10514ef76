package events

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

// Типы событий жизненного цикла бронирования.
const (
	EventReservationCreated   = "reservation_created"
	EventReservationConfirmed = "reservation_confirmed"
	EventReservationCanceled  = "reservation_canceled"
	EventReservationUndone    = "reservation_undone"
	EventReservationDeleted   = "reservation_deleted"
	EventMovePartialFailure   = "move_partial_failure"
)

// ReservationEventPayload is the reservation snapshot carried by lifecycle
// events. Consumers get a copy of the fields they need instead of a live
// model, so a slow notifier cannot observe a half-updated booking.
type ReservationEventPayload struct {
	ReservationID string `json:"reservation_id"`
	GuestName     string `json:"guest_name"`
	Package       string `json:"package"`
	Date          string `json:"date"`
	TimeSlot      string `json:"time_slot"`
	Status        string `json:"status"`
	ChangedBy     string `json:"changed_by,omitempty"`
}

// Event is a single published occurrence with a JSON payload.
type Event struct {
	Type      string
	Payload   []byte
	CreatedAt time.Time
}

// EventHandler consumes one event. A non-nil error is the handler's own
// business; the bus does not retry.
type EventHandler func(event *Event) error

// EventBus is a minimal in-process pub/sub: handlers are invoked
// synchronously on the publisher's goroutine, in subscription order.
type EventBus struct {
	mu       sync.RWMutex
	handlers map[string][]EventHandler
}

func NewEventBus() *EventBus {
	return &EventBus{handlers: make(map[string][]EventHandler)}
}

// Subscribe registers handler for eventType. Safe to call concurrently
// with Publish.
func (b *EventBus) Subscribe(eventType string, handler EventHandler) {
	if handler == nil {
		return
	}
	b.mu.Lock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)
	b.mu.Unlock()
}

// Publish delivers the event to every handler subscribed to its type.
func (b *EventBus) Publish(event *Event) {
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	b.mu.RLock()
	subscribed := b.handlers[event.Type]
	b.mu.RUnlock()

	for _, handle := range subscribed {
		// Ошибки обработчиков не останавливают доставку остальным
		_ = handle(event)
	}
}

// PublishJSON marshals payload and publishes it under eventType. A nil
// bus is a no-op so callers without notifications don't need guards.
func (b *EventBus) PublishJSON(eventType string, payload interface{}) error {
	if b == nil {
		return nil
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", eventType, err)
	}

	b.Publish(&Event{Type: eventType, Payload: raw})
	return nil
}
