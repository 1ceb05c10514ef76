package events

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventBus_PublishJSON(t *testing.T) {
	bus := NewEventBus()

	var received []*Event
	bus.Subscribe(EventReservationCreated, func(e *Event) error {
		received = append(received, e)
		return nil
	})

	payload := ReservationEventPayload{
		ReservationID: "ID_123",
		GuestName:     "Ana Cruz",
		TimeSlot:      "8:00 AM - 11:00 AM",
		Status:        "pending",
	}
	require.NoError(t, bus.PublishJSON(EventReservationCreated, payload))

	require.Len(t, received, 1)
	assert.Equal(t, EventReservationCreated, received[0].Type)
	assert.False(t, received[0].CreatedAt.IsZero())

	var got ReservationEventPayload
	require.NoError(t, json.Unmarshal(received[0].Payload, &got))
	assert.Equal(t, "ID_123", got.ReservationID)
	assert.Equal(t, "Ana Cruz", got.GuestName)
}

func TestEventBus_TypeIsolation(t *testing.T) {
	bus := NewEventBus()

	confirmed := 0
	canceled := 0
	bus.Subscribe(EventReservationConfirmed, func(e *Event) error {
		confirmed++
		return nil
	})
	bus.Subscribe(EventReservationCanceled, func(e *Event) error {
		canceled++
		return nil
	})

	require.NoError(t, bus.PublishJSON(EventReservationConfirmed, nil))
	require.NoError(t, bus.PublishJSON(EventReservationConfirmed, nil))

	assert.Equal(t, 2, confirmed)
	assert.Equal(t, 0, canceled)
}

func TestEventBus_NilBus(t *testing.T) {
	var bus *EventBus
	assert.NoError(t, bus.PublishJSON(EventReservationDeleted, nil))
}
