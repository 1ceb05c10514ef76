package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"brewhouse/internal/config"
	"brewhouse/internal/models"

	"github.com/redis/go-redis/v9"
)

// Префиксы ключей, чтобы состояния диалога и счётчики лимитов
// не пересекались с чужими данными в общем Redis.
const (
	flowKeyPrefix = "flow_state:"
	rateKeyPrefix = "rate_limit:"
)

var errNoRedisClient = errors.New("redis client is not configured")

// RedisFlowRepository keeps booking-flow sessions in Redis. Each state is
// one JSON value under its session key; TTL handles abandoned sessions.
type RedisFlowRepository struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
}

func NewRedisFlowRepository(client *redis.Client, ttl time.Duration) *RedisFlowRepository {
	return &RedisFlowRepository{client: client, ttl: ttl}
}

// GetState returns the session state, or nil when the session is unknown
// or already expired.
func (r *RedisFlowRepository) GetState(ctx context.Context, sessionID string) (*models.FlowState, error) {
	if r.client == nil {
		return nil, errNoRedisClient
	}

	raw, err := r.client.Get(ctx, flowKeyPrefix+sessionID).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("redis get flow state: %w", err)
	}

	state := &models.FlowState{}
	if err := json.Unmarshal(raw, state); err != nil {
		return nil, fmt.Errorf("decode flow state %s: %w", sessionID, err)
	}
	return state, nil
}

// SetState stores the state and refreshes the session TTL.
func (r *RedisFlowRepository) SetState(ctx context.Context, state *models.FlowState) error {
	if r.client == nil {
		return errNoRedisClient
	}

	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode flow state %s: %w", state.SessionID, err)
	}
	if err := r.client.Set(ctx, flowKeyPrefix+state.SessionID, raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set flow state: %w", err)
	}
	return nil
}

func (r *RedisFlowRepository) ClearState(ctx context.Context, sessionID string) error {
	if r.client == nil {
		return errNoRedisClient
	}
	if err := r.client.Del(ctx, flowKeyPrefix+sessionID).Err(); err != nil {
		return fmt.Errorf("redis delete flow state: %w", err)
	}
	return nil
}

// CheckRateLimit counts hits in a fixed window. The first hit opens the
// window; the call that brings the counter past limit is rejected.
func (r *RedisFlowRepository) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	if r.client == nil {
		return false, errNoRedisClient
	}

	counter := rateKeyPrefix + key
	hits, err := r.client.Incr(ctx, counter).Result()
	if err != nil {
		return false, fmt.Errorf("redis incr rate counter: %w", err)
	}
	if hits == 1 {
		if err := r.client.Expire(ctx, counter, window).Err(); err != nil {
			return false, fmt.Errorf("redis expire rate counter: %w", err)
		}
	}
	return hits <= int64(limit), nil
}

// Ping verifies the connection; called once at startup so a dead Redis
// shows up in the logs immediately instead of on the first booking.
func Ping(ctx context.Context, client *redis.Client) error {
	if err := client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

func Close(client *redis.Client) error {
	if client == nil {
		return nil
	}
	return client.Close()
}
