package repository

import (
	"context"
	"testing"
	"time"

	"brewhouse/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedisRepo(t *testing.T) (*RedisFlowRepository, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewRedisFlowRepository(client, time.Hour), mr
}

func TestRedisFlowRepository_StateRoundTrip(t *testing.T) {
	repo, _ := setupRedisRepo(t)
	ctx := context.Background()

	state := &models.FlowState{
		SessionID: "sess-42",
		Step:      models.StepSelectingDate,
		Data:      map[string]interface{}{"date": "2025-03-01"},
		UpdatedAt: time.Now(),
	}
	require.NoError(t, repo.SetState(ctx, state))

	got, err := repo.GetState(ctx, "sess-42")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, models.StepSelectingDate, got.Step)
	assert.Equal(t, "2025-03-01", got.GetString("date"))

	require.NoError(t, repo.ClearState(ctx, "sess-42"))
	got, err = repo.GetState(ctx, "sess-42")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRedisFlowRepository_MissingState(t *testing.T) {
	repo, _ := setupRedisRepo(t)

	got, err := repo.GetState(context.Background(), "unknown")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRedisFlowRepository_StateTTL(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	repo := NewRedisFlowRepository(client, time.Minute)
	ctx := context.Background()

	state := &models.FlowState{SessionID: "sess-ttl", Step: models.StepFillingForm}
	require.NoError(t, repo.SetState(ctx, state))

	mr.FastForward(2 * time.Minute)

	got, err := repo.GetState(ctx, "sess-ttl")
	require.NoError(t, err)
	assert.Nil(t, got, "state must expire with the configured TTL")
}

func TestRedisFlowRepository_CheckRateLimit(t *testing.T) {
	repo, mr := setupRedisRepo(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		allowed, err := repo.CheckRateLimit(ctx, "10.0.0.1", 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, allowed)
	}

	allowed, err := repo.CheckRateLimit(ctx, "10.0.0.1", 3, time.Minute)
	require.NoError(t, err)
	assert.False(t, allowed)

	// Другой ключ не задет
	allowed, err = repo.CheckRateLimit(ctx, "10.0.0.2", 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed)

	// Окно истекло — счётчик сброшен
	mr.FastForward(2 * time.Minute)
	allowed, err = repo.CheckRateLimit(ctx, "10.0.0.1", 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestRedisFlowRepository_NilClient(t *testing.T) {
	repo := NewRedisFlowRepository(nil, time.Hour)
	ctx := context.Background()

	_, err := repo.GetState(ctx, "x")
	assert.Error(t, err)

	err = repo.SetState(ctx, &models.FlowState{SessionID: "x"})
	assert.Error(t, err)

	err = repo.ClearState(ctx, "x")
	assert.Error(t, err)

	_, err = repo.CheckRateLimit(ctx, "x", 1, time.Minute)
	assert.Error(t, err)
}
