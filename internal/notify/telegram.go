package notify

import (
	"encoding/json"
	"fmt"

	"brewhouse/internal/config"
	"brewhouse/internal/events"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

// Sender is the subset of the Telegram bot API the notifier needs.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramNotifier pushes reservation events and operational alerts into
// the staff Telegram chat. The coffee house admins live in Telegram, so
// this is the primary alert channel.
type TelegramNotifier struct {
	bot    Sender
	chatID int64
	logger *zerolog.Logger
}

func NewTelegramNotifier(cfg config.TelegramConfig, logger *zerolog.Logger) (*TelegramNotifier, error) {
	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	bot.Debug = cfg.Debug

	logger.Info().Str("bot", bot.Self.UserName).Msg("telegram notifier initialized")

	return &TelegramNotifier{
		bot:    bot,
		chatID: cfg.ChatID,
		logger: logger,
	}, nil
}

// NewTelegramNotifierWithSender wires a prebuilt sender, used in tests.
func NewTelegramNotifierWithSender(sender Sender, chatID int64, logger *zerolog.Logger) *TelegramNotifier {
	return &TelegramNotifier{
		bot:    sender,
		chatID: chatID,
		logger: logger,
	}
}

func (n *TelegramNotifier) NotifyText(text string) error {
	msg := tgbotapi.NewMessage(n.chatID, text)
	if _, err := n.bot.Send(msg); err != nil {
		return fmt.Errorf("failed to send telegram message: %w", err)
	}
	return nil
}

// SubscribeTo attaches the notifier to reservation lifecycle events.
func (n *TelegramNotifier) SubscribeTo(bus *events.EventBus) {
	bus.Subscribe(events.EventReservationCreated, n.handleReservationEvent("Новая бронь"))
	bus.Subscribe(events.EventReservationConfirmed, n.handleReservationEvent("Бронь подтверждена"))
	bus.Subscribe(events.EventReservationCanceled, n.handleReservationEvent("Бронь отменена"))
	bus.Subscribe(events.EventReservationUndone, n.handleReservationEvent("Бронь возвращена в работу"))
	bus.Subscribe(events.EventReservationDeleted, n.handleReservationEvent("Бронь удалена"))
	bus.Subscribe(events.EventMovePartialFailure, n.handlePartialFailure)
}

func (n *TelegramNotifier) handleReservationEvent(title string) events.EventHandler {
	return func(e *events.Event) error {
		var p events.ReservationEventPayload
		if err := json.Unmarshal(e.Payload, &p); err != nil {
			n.logger.Error().Err(err).Str("event", e.Type).Msg("failed to decode event payload")
			return err
		}

		text := fmt.Sprintf("%s: %s\nГость: %s\nДата: %s, %s\nПакет: %s",
			title, p.ReservationID, p.GuestName, p.Date, p.TimeSlot, p.Package)
		if err := n.NotifyText(text); err != nil {
			n.logger.Error().Err(err).Str("event", e.Type).Msg("failed to notify admins")
			return err
		}
		return nil
	}
}

// handlePartialFailure is deliberately loud: a record in both collections
// means slot capacity is being double-counted until someone reconciles.
func (n *TelegramNotifier) handlePartialFailure(e *events.Event) error {
	var p events.ReservationEventPayload
	if err := json.Unmarshal(e.Payload, &p); err != nil {
		n.logger.Error().Err(err).Msg("failed to decode partial failure payload")
		return err
	}

	text := fmt.Sprintf("ВНИМАНИЕ: запись %s найдена в обеих коллекциях и удалена из активной. Проверьте журнал.", p.ReservationID)
	if err := n.NotifyText(text); err != nil {
		n.logger.Error().Err(err).Msg("failed to send partial failure alert")
		return err
	}
	return nil
}
