package repository

import (
	"context"
	"testing"
	"time"

	"brewhouse/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFailoverFlowRepository_FallsBackWhenPrimaryDies(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	logger := zerolog.Nop()
	primary := NewRedisFlowRepository(client, time.Hour)
	fallback := NewMemoryFlowRepository(time.Hour)
	repo := NewFailoverFlowRepository(primary, fallback, &logger)

	ctx := context.Background()

	// Пока primary жив, состояние идёт в Redis
	state := &models.FlowState{SessionID: "sess-f", Step: models.StepSelectingDate}
	require.NoError(t, repo.SetState(ctx, state))

	got, err := repo.GetState(ctx, "sess-f")
	require.NoError(t, err)
	require.NotNil(t, got)

	// Падение Redis не роняет запросы
	mr.Close()

	state.Step = models.StepFillingForm
	require.NoError(t, repo.SetState(ctx, state))

	got, err = repo.GetState(ctx, "sess-f")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, models.StepFillingForm, got.Step)
}

func TestFailoverFlowRepository_RateLimitFallback(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	logger := zerolog.Nop()
	repo := NewFailoverFlowRepository(
		NewRedisFlowRepository(client, time.Hour),
		NewMemoryFlowRepository(time.Hour),
		&logger,
	)

	ctx := context.Background()
	mr.Close()

	allowed, err := repo.CheckRateLimit(ctx, "client", 1, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, err = repo.CheckRateLimit(ctx, "client", 1, time.Minute)
	require.NoError(t, err)
	assert.False(t, allowed)
}
