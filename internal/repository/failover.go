package repository

import (
	"context"
	"sync/atomic"
	"time"

	"brewhouse/internal/domain"
	"brewhouse/internal/models"

	"github.com/rs/zerolog"
)

// После отказа primary пробуем его снова не чаще этого интервала.
const recheckInterval = time.Minute

// FailoverFlowRepository fronts the Redis repository with the in-memory
// one. A primary failure flips all traffic to the fallback for the
// current call and the calls that follow; the primary is re-probed
// periodically and promoted back on the first success.
type FailoverFlowRepository struct {
	primary  domain.FlowRepository
	fallback domain.FlowRepository
	logger   *zerolog.Logger

	down      atomic.Bool
	lastProbe atomic.Int64 // UnixNano последней неудачной попытки
}

func NewFailoverFlowRepository(primary, fallback domain.FlowRepository, logger *zerolog.Logger) *FailoverFlowRepository {
	return &FailoverFlowRepository{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

func (r *FailoverFlowRepository) GetState(ctx context.Context, sessionID string) (*models.FlowState, error) {
	var state *models.FlowState
	err := r.run(func(repo domain.FlowRepository) error {
		s, err := repo.GetState(ctx, sessionID)
		if err != nil {
			return err
		}
		state = s
		return nil
	})
	return state, err
}

func (r *FailoverFlowRepository) SetState(ctx context.Context, state *models.FlowState) error {
	return r.run(func(repo domain.FlowRepository) error {
		return repo.SetState(ctx, state)
	})
}

func (r *FailoverFlowRepository) ClearState(ctx context.Context, sessionID string) error {
	return r.run(func(repo domain.FlowRepository) error {
		return repo.ClearState(ctx, sessionID)
	})
}

func (r *FailoverFlowRepository) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	var allowed bool
	err := r.run(func(repo domain.FlowRepository) error {
		a, err := repo.CheckRateLimit(ctx, key, limit, window)
		if err != nil {
			return err
		}
		allowed = a
		return nil
	})
	return allowed, err
}

// run executes op against the primary when it is considered alive (or due
// for a probe) and falls back to memory on failure.
func (r *FailoverFlowRepository) run(op func(domain.FlowRepository) error) error {
	if r.usePrimary() {
		err := op(r.primary)
		if err == nil {
			r.markHealthy()
			return nil
		}
		r.markDown(err)
	}
	return op(r.fallback)
}

func (r *FailoverFlowRepository) usePrimary() bool {
	if !r.down.Load() {
		return true
	}
	last := time.Unix(0, r.lastProbe.Load())
	return time.Since(last) > recheckInterval
}

func (r *FailoverFlowRepository) markDown(err error) {
	if r.down.CompareAndSwap(false, true) {
		r.logger.Error().Err(err).Msg("Flow-хранилище недоступно, переключаемся на память")
	}
	r.lastProbe.Store(time.Now().UnixNano())
}

func (r *FailoverFlowRepository) markHealthy() {
	if r.down.CompareAndSwap(true, false) {
		r.logger.Info().Msg("Flow-хранилище восстановилось")
	}
}
