package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tabletop-session-backend/internal/config"
	"tabletop-session-backend/internal/models"
	"tabletop-session-backend/internal/services"
)

func setupTestRedis(t *testing.T) *services.RedisService {
	t.Helper()

	cfg := &config.Config{
		RedisURL:  "localhost:6379",
		RedisPass: "",
		RedisDB:   0,
	}

	redisService, err := services.NewRedisService(cfg)
	if err != nil {
		t.Skipf("Redis not available: %v", err)
	}

	return redisService
}

func TestRedisActorTokenAdjustment(t *testing.T) {
	redisService := setupTestRedis(t)
	defer redisService.Close()

	ctx := context.Background()

	actor := &models.Actor{
		ID:              "test_actor_redis",
		Name:            "Testy",
		Kind:            models.ActorKindCharacter,
		Stats:           map[string]int{"grit": 1},
		AdversityTokens: 0,
		OwnerIDs:        []string{"test_user"},
		CreatedAt:       time.Now(),
	}
	require.NoError(t, redisService.SaveActor(ctx, actor))

	balance, err := redisService.AdjustActorTokens(ctx, actor.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, balance)

	// The script guard rejects a negative result without mutating
	_, err = redisService.AdjustActorTokens(ctx, actor.ID, -3)
	require.ErrorIs(t, err, models.ErrInsufficientTokens)

	saved, err := redisService.GetActor(ctx, actor.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, saved.AdversityTokens)

	balance, err = redisService.AdjustActorTokens(ctx, actor.ID, -2)
	require.NoError(t, err)
	assert.Equal(t, 0, balance)

	_, err = redisService.AdjustActorTokens(ctx, "no_such_actor", 1)
	assert.ErrorIs(t, err, models.ErrActorNotFound)
}

func TestRedisRollMessageRoundTrip(t *testing.T) {
	redisService := setupTestRedis(t)
	defer redisService.Close()

	ctx := context.Background()

	msg := &models.RollMessage{
		ID:           "test_msg_redis",
		ActorID:      "test_actor_redis",
		ActorName:    "Testy",
		Formula:      "2d6",
		Dice:         []int{3, 4},
		BaseTotal:    7,
		NewRollTotal: 7,
		CreatedAt:    time.Now(),
	}
	require.NoError(t, redisService.SaveRollMessage(ctx, msg))

	saved, err := redisService.GetRollMessage(ctx, msg.ID)
	require.NoError(t, err)
	assert.Equal(t, msg.BaseTotal, saved.BaseTotal)
	assert.False(t, saved.TokenClaimed)

	messages, err := redisService.ListRollMessages(ctx, 10)
	require.NoError(t, err)
	assert.NotEmpty(t, messages)
}

func TestRedisRateLimit(t *testing.T) {
	redisService := setupTestRedis(t)
	defer redisService.Close()

	limit := 3
	for i := 0; i < limit; i++ {
		allowed, err := redisService.CheckRateLimit("test_user_rl", "claim", limit, time.Minute)
		require.NoError(t, err)
		assert.True(t, allowed)
	}

	allowed, err := redisService.CheckRateLimit("test_user_rl", "claim", limit, time.Minute)
	require.NoError(t, err)
	assert.False(t, allowed)
}
