package notify

import (
	"testing"

	"brewhouse/internal/events"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	sent []tgbotapi.MessageConfig
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		f.sent = append(f.sent, msg)
	}
	return tgbotapi.Message{}, nil
}

func TestTelegramNotifier_NotifyText(t *testing.T) {
	sender := &fakeSender{}
	logger := zerolog.Nop()
	n := NewTelegramNotifierWithSender(sender, 42, &logger)

	require.NoError(t, n.NotifyText("hello"))
	require.Len(t, sender.sent, 1)
	assert.Equal(t, int64(42), sender.sent[0].ChatID)
	assert.Equal(t, "hello", sender.sent[0].Text)
}

func TestTelegramNotifier_SubscribeTo(t *testing.T) {
	sender := &fakeSender{}
	logger := zerolog.Nop()
	n := NewTelegramNotifierWithSender(sender, 42, &logger)

	bus := events.NewEventBus()
	n.SubscribeTo(bus)

	payload := events.ReservationEventPayload{
		ReservationID: "ID_321",
		GuestName:     "Ana Cruz",
		Date:          "2025-03-01",
		TimeSlot:      "8:00 AM - 11:00 AM",
		Package:       "Standard",
	}
	require.NoError(t, bus.PublishJSON(events.EventReservationCreated, payload))

	require.Len(t, sender.sent, 1)
	assert.Contains(t, sender.sent[0].Text, "ID_321")
	assert.Contains(t, sender.sent[0].Text, "Ana Cruz")
}

func TestTelegramNotifier_PartialFailureAlert(t *testing.T) {
	sender := &fakeSender{}
	logger := zerolog.Nop()
	n := NewTelegramNotifierWithSender(sender, 42, &logger)

	bus := events.NewEventBus()
	n.SubscribeTo(bus)

	require.NoError(t, bus.PublishJSON(events.EventMovePartialFailure, events.ReservationEventPayload{
		ReservationID: "ID_777",
	}))

	require.Len(t, sender.sent, 1)
	assert.Contains(t, sender.sent[0].Text, "ID_777")
	assert.Contains(t, sender.sent[0].Text, "обеих коллекциях")
}
