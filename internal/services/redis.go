package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"tabletop-session-backend/internal/config"
	"tabletop-session-backend/internal/models"

	"github.com/redis/go-redis/v9"
)

type RedisService struct {
	client *redis.Client
	ctx    context.Context
}

func NewRedisService(cfg *config.Config) (*RedisService, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisURL,
		Password: cfg.RedisPass,
		DB:       cfg.RedisDB,
	})

	ctx := context.Background()

	_, err := client.Ping(ctx).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %v", err)
	}

	return &RedisService{
		client: client,
		ctx:    ctx,
	}, nil
}

func (s *RedisService) Close() error {
	return s.client.Close()
}

func (s *RedisService) GetActor(ctx context.Context, actorID string) (*models.Actor, error) {
	key := fmt.Sprintf(KeyActor, actorID)

	data, err := s.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, models.ErrActorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get actor: %v", err)
	}

	var actor models.Actor
	if err := json.Unmarshal([]byte(data), &actor); err != nil {
		return nil, fmt.Errorf("failed to unmarshal actor: %v", err)
	}

	return &actor, nil
}

func (s *RedisService) SaveActor(ctx context.Context, actor *models.Actor) error {
	actor.UpdatedAt = time.Now()

	data, err := json.Marshal(actor)
	if err != nil {
		return fmt.Errorf("failed to marshal actor: %v", err)
	}

	key := fmt.Sprintf(KeyActor, actor.ID)
	if err := s.client.Set(ctx, key, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save actor: %v", err)
	}

	return s.client.SAdd(ctx, KeyActorIndex, actor.ID).Err()
}

func (s *RedisService) ListActors(ctx context.Context) ([]*models.Actor, error) {
	ids, err := s.client.SMembers(ctx, KeyActorIndex).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list actors: %v", err)
	}

	var actors []*models.Actor
	for _, id := range ids {
		actor, err := s.GetActor(ctx, id)
		if err != nil {
			continue
		}
		actors = append(actors, actor)
	}

	return actors, nil
}

// adjustTokensScript applies a delta to the actor's token balance in
// one round trip. Balance can never go below zero.
var adjustTokensScript = redis.NewScript(`
	local key = KEYS[1]
	local delta = tonumber(ARGV[1])

	local data = redis.call("GET", key)
	if not data then
		return redis.error_reply("actor not found")
	end

	local actor = cjson.decode(data)
	local balance = actor.adversityTokens or 0
	local newBalance = balance + delta

	if newBalance < 0 then
		return redis.error_reply("insufficient tokens")
	end

	actor.adversityTokens = newBalance

	redis.call("SET", key, cjson.encode(actor))

	return newBalance
`)

func (s *RedisService) AdjustActorTokens(ctx context.Context, actorID string, delta int) (int, error) {
	key := fmt.Sprintf(KeyActor, actorID)

	newBalance, err := adjustTokensScript.Run(ctx, s.client, []string{key}, delta).Int()
	if err != nil {
		if strings.Contains(err.Error(), "insufficient tokens") {
			return 0, models.ErrInsufficientTokens
		}
		if strings.Contains(err.Error(), "actor not found") {
			return 0, models.ErrActorNotFound
		}
		return 0, fmt.Errorf("failed to adjust tokens: %v", err)
	}

	return newBalance, nil
}

func (s *RedisService) GetRollMessage(ctx context.Context, messageID string) (*models.RollMessage, error) {
	key := fmt.Sprintf(KeyRollMessage, messageID)

	data, err := s.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, models.ErrMessageNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get roll message: %v", err)
	}

	var msg models.RollMessage
	if err := json.Unmarshal([]byte(data), &msg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal roll message: %v", err)
	}

	return &msg, nil
}

func (s *RedisService) SaveRollMessage(ctx context.Context, msg *models.RollMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal roll message: %v", err)
	}

	key := fmt.Sprintf(KeyRollMessage, msg.ID)
	if err := s.client.Set(ctx, key, data, TTLRollMessage).Err(); err != nil {
		return fmt.Errorf("failed to save roll message: %v", err)
	}

	score := float64(msg.CreatedAt.Unix())
	if err := s.client.ZAdd(ctx, KeyMessageTimeline, redis.Z{
		Score:  score,
		Member: msg.ID,
	}).Err(); err != nil {
		return fmt.Errorf("failed to add to message timeline: %v", err)
	}

	s.client.ZRemRangeByRank(ctx, KeyMessageTimeline, 0, -(MaxTimelineEntries + 1))

	return nil
}

func (s *RedisService) ListRollMessages(ctx context.Context, limit int64) ([]*models.RollMessage, error) {
	if limit <= 0 || limit > MaxTimelineEntries {
		limit = 50
	}

	ids, err := s.client.ZRevRange(ctx, KeyMessageTimeline, 0, limit-1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list roll messages: %v", err)
	}

	var messages []*models.RollMessage
	for _, id := range ids {
		msg, err := s.GetRollMessage(ctx, id)
		if err != nil {
			continue
		}
		messages = append(messages, msg)
	}

	return messages, nil
}

func (s *RedisService) GetPendingRequest(ctx context.Context, requestID string) (*models.PendingRequest, error) {
	key := fmt.Sprintf(KeyPendingRequest, requestID)

	data, err := s.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, models.ErrRequestNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get pending request: %v", err)
	}

	var req models.PendingRequest
	if err := json.Unmarshal([]byte(data), &req); err != nil {
		return nil, fmt.Errorf("failed to unmarshal pending request: %v", err)
	}

	return &req, nil
}

func (s *RedisService) SavePendingRequest(ctx context.Context, req *models.PendingRequest) error {
	data, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal pending request: %v", err)
	}

	key := fmt.Sprintf(KeyPendingRequest, req.ID)
	if err := s.client.Set(ctx, key, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save pending request: %v", err)
	}

	if req.Status == models.RequestStatusPending {
		return s.client.SAdd(ctx, KeyPendingIndex, req.ID).Err()
	}
	return s.client.SRem(ctx, KeyPendingIndex, req.ID).Err()
}

func (s *RedisService) ListPendingRequests(ctx context.Context) ([]*models.PendingRequest, error) {
	ids, err := s.client.SMembers(ctx, KeyPendingIndex).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list pending requests: %v", err)
	}

	var requests []*models.PendingRequest
	for _, id := range ids {
		req, err := s.GetPendingRequest(ctx, id)
		if err != nil {
			continue
		}
		requests = append(requests, req)
	}

	return requests, nil
}

func (s *RedisService) DeletePendingRequest(ctx context.Context, requestID string) error {
	key := fmt.Sprintf(KeyPendingRequest, requestID)
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to delete pending request: %v", err)
	}
	return s.client.SRem(ctx, KeyPendingIndex, requestID).Err()
}

func (s *RedisService) SaveTokenTransaction(ctx context.Context, tx *models.TokenTransaction) error {
	data, err := json.Marshal(tx)
	if err != nil {
		return fmt.Errorf("failed to marshal transaction: %v", err)
	}

	txKey := fmt.Sprintf(KeyTransaction, tx.ID)
	if err := s.client.Set(ctx, txKey, data, TTLTransaction).Err(); err != nil {
		return fmt.Errorf("failed to save transaction: %v", err)
	}

	actorTxKey := fmt.Sprintf(KeyActorTransactions, tx.ActorID)
	score := float64(tx.CreatedAt.Unix())

	if err := s.client.ZAdd(ctx, actorTxKey, redis.Z{
		Score:  score,
		Member: tx.ID,
	}).Err(); err != nil {
		return fmt.Errorf("failed to add to actor transactions: %v", err)
	}

	// Keep only the most recent audit entries per actor
	s.client.ZRemRangeByRank(ctx, actorTxKey, 0, -(MaxAuditEntries + 1))

	return nil
}

func (s *RedisService) GetActorTransactions(ctx context.Context, actorID string, limit int64) ([]*models.TokenTransaction, error) {
	if limit <= 0 || limit > MaxAuditEntries {
		limit = 50
	}

	actorTxKey := fmt.Sprintf(KeyActorTransactions, actorID)

	ids, err := s.client.ZRevRange(ctx, actorTxKey, 0, limit-1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction IDs: %v", err)
	}

	var transactions []*models.TokenTransaction
	for _, id := range ids {
		txKey := fmt.Sprintf(KeyTransaction, id)

		data, err := s.client.Get(ctx, txKey).Result()
		if err != nil {
			continue
		}

		var tx models.TokenTransaction
		if err := json.Unmarshal([]byte(data), &tx); err != nil {
			continue
		}

		transactions = append(transactions, &tx)
	}

	return transactions, nil
}

func (s *RedisService) CheckRateLimit(participantID, action string, limit int, window time.Duration) (bool, error) {
	key := fmt.Sprintf(KeyRateLimit, participantID, action)

	count, err := s.client.Incr(s.ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check rate limit: %v", err)
	}

	if count == 1 {
		s.client.Expire(s.ctx, key, window)
	}

	return count <= int64(limit), nil
}
