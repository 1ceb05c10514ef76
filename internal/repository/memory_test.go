package repository

import (
	"context"
	"testing"
	"time"

	"brewhouse/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryFlowRepository_StateRoundTrip(t *testing.T) {
	repo := NewMemoryFlowRepository(time.Hour)
	ctx := context.Background()

	got, err := repo.GetState(ctx, "sess-1")
	require.NoError(t, err)
	assert.Nil(t, got)

	state := &models.FlowState{
		SessionID: "sess-1",
		Step:      models.StepConfirmingPayment,
		Data:      map[string]interface{}{"package": "Standard"},
	}
	require.NoError(t, repo.SetState(ctx, state))

	got, err = repo.GetState(ctx, "sess-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, models.StepConfirmingPayment, got.Step)
	assert.Equal(t, "Standard", got.GetString("package"))

	require.NoError(t, repo.ClearState(ctx, "sess-1"))
	got, err = repo.GetState(ctx, "sess-1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMemoryFlowRepository_CheckRateLimit(t *testing.T) {
	repo := NewMemoryFlowRepository(time.Hour)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		allowed, err := repo.CheckRateLimit(ctx, "client-a", 2, 50*time.Millisecond)
		require.NoError(t, err)
		assert.True(t, allowed)
	}

	allowed, err := repo.CheckRateLimit(ctx, "client-a", 2, 50*time.Millisecond)
	require.NoError(t, err)
	assert.False(t, allowed)

	time.Sleep(60 * time.Millisecond)

	allowed, err = repo.CheckRateLimit(ctx, "client-a", 2, 50*time.Millisecond)
	require.NoError(t, err)
	assert.True(t, allowed)
}
