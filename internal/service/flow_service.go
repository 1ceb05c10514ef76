package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"brewhouse/internal/domain"
	"brewhouse/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var (
	ErrInvalidStep     = errors.New("invalid flow step transition")
	ErrTooManyRequests = errors.New("too many flow requests for this session")
)

// flowTransitions lists the allowed next steps of the booking flow.
// Любой шаг может начаться заново с выбора даты.
var flowTransitions = map[string][]string{
	"":                           {models.StepSelectingDate},
	models.StepSelectingDate:     {models.StepSelectingDate, models.StepFillingForm},
	models.StepFillingForm:       {models.StepSelectingDate, models.StepConfirmingPayment},
	models.StepConfirmingPayment: {models.StepSelectingDate, models.StepSucceeded},
	models.StepSucceeded:         {models.StepSelectingDate},
}

// FlowService drives the guest booking flow: pick a date and slot, fill
// the form, confirm payment. State survives page reloads via the
// repository, keyed by a server-issued session id.
type FlowService struct {
	repo   domain.FlowRepository
	logger *zerolog.Logger
}

func NewFlowService(repo domain.FlowRepository, logger *zerolog.Logger) *FlowService {
	return &FlowService{
		repo:   repo,
		logger: logger,
	}
}

// NewSessionID issues an opaque id for a fresh booking session.
func (s *FlowService) NewSessionID() string {
	return uuid.NewString()
}

func (s *FlowService) GetFlowState(ctx context.Context, sessionID string) (*models.FlowState, error) {
	state, err := s.repo.GetState(ctx, sessionID)
	if err != nil {
		s.logger.Error().Err(err).Str("session_id", sessionID).Msg("failed to get flow state")
		return nil, err
	}
	return state, nil
}

// AdvanceFlow moves the session to the given step, enforcing the step
// order. Data is merged into the existing state so each step only sends
// its own fields.
func (s *FlowService) AdvanceFlow(ctx context.Context, sessionID, step string, data map[string]interface{}) error {
	allowed, err := s.repo.CheckRateLimit(ctx, "flow:"+sessionID,
		models.RateLimitRequests, time.Duration(models.RateLimitWindow)*time.Second)
	if err != nil {
		// Недоступность счётчика не должна останавливать бронирование
		s.logger.Warn().Err(err).Str("session_id", sessionID).Msg("rate limit check failed")
	} else if !allowed {
		return ErrTooManyRequests
	}

	current, err := s.repo.GetState(ctx, sessionID)
	if err != nil {
		return err
	}

	var currentStep string
	merged := make(map[string]interface{})
	if current != nil {
		currentStep = current.Step
		for k, v := range current.Data {
			merged[k] = v
		}
	}

	if !stepAllowed(currentStep, step) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidStep, currentStep, step)
	}

	// Возврат к выбору даты начинает флоу заново
	if step == models.StepSelectingDate {
		merged = make(map[string]interface{})
	}
	for k, v := range data {
		merged[k] = v
	}

	return s.repo.SetState(ctx, &models.FlowState{
		SessionID: sessionID,
		Step:      step,
		Data:      merged,
		UpdatedAt: time.Now(),
	})
}

func (s *FlowService) ClearFlow(ctx context.Context, sessionID string) error {
	return s.repo.ClearState(ctx, sessionID)
}

func stepAllowed(from, to string) bool {
	for _, next := range flowTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
