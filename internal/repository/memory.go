package repository

import (
	"context"
	"sync"
	"time"

	"brewhouse/internal/models"
)

type sessionEntry struct {
	state     *models.FlowState
	expiresAt time.Time
}

type windowCounter struct {
	hits    int
	resetAt time.Time
}

// MemoryFlowRepository is the in-process fallback used when Redis is
// disabled or unreachable. Sessions expire with the same TTL as in Redis;
// losing them on restart only costs the visitor an unfinished form.
type MemoryFlowRepository struct {
	mu       sync.Mutex
	ttl      time.Duration
	sessions map[string]sessionEntry
	windows  map[string]*windowCounter
}

func NewMemoryFlowRepository(ttl time.Duration) *MemoryFlowRepository {
	return &MemoryFlowRepository{
		ttl:      ttl,
		sessions: make(map[string]sessionEntry),
		windows:  make(map[string]*windowCounter),
	}
}

func (r *MemoryFlowRepository) GetState(ctx context.Context, sessionID string) (*models.FlowState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.sessions[sessionID]
	if !ok {
		return nil, nil
	}
	if time.Now().After(entry.expiresAt) {
		delete(r.sessions, sessionID)
		return nil, nil
	}
	return entry.state, nil
}

func (r *MemoryFlowRepository) SetState(ctx context.Context, state *models.FlowState) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sessions[state.SessionID] = sessionEntry{
		state:     state,
		expiresAt: time.Now().Add(r.ttl),
	}
	return nil
}

func (r *MemoryFlowRepository) ClearState(ctx context.Context, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.sessions, sessionID)
	return nil
}

// CheckRateLimit mirrors the Redis fixed-window counter: the first hit
// opens the window and expired windows start over from one.
func (r *MemoryFlowRepository) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	counter, ok := r.windows[key]
	if !ok || now.After(counter.resetAt) {
		r.windows[key] = &windowCounter{hits: 1, resetAt: now.Add(window)}
		return limit >= 1, nil
	}

	counter.hits++
	return counter.hits <= limit, nil
}
