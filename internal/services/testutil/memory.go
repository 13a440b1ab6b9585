package testutil

import (
	"context"
	"sort"
	"sync"

	"tabletop-session-backend/internal/models"
)

// MemoryStore is an in-memory implementation of the service store
// interfaces for unit tests.
type MemoryStore struct {
	mu           sync.Mutex
	actors       map[string]*models.Actor
	messages     map[string]*models.RollMessage
	requests     map[string]*models.PendingRequest
	transactions map[string][]*models.TokenTransaction
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		actors:       make(map[string]*models.Actor),
		messages:     make(map[string]*models.RollMessage),
		requests:     make(map[string]*models.PendingRequest),
		transactions: make(map[string][]*models.TokenTransaction),
	}
}

func (m *MemoryStore) GetActor(_ context.Context, actorID string) (*models.Actor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	actor, ok := m.actors[actorID]
	if !ok {
		return nil, models.ErrActorNotFound
	}
	copied := *actor
	return &copied, nil
}

func (m *MemoryStore) SaveActor(_ context.Context, actor *models.Actor) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	copied := *actor
	m.actors[actor.ID] = &copied
	return nil
}

func (m *MemoryStore) ListActors(_ context.Context) ([]*models.Actor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var actors []*models.Actor
	for _, actor := range m.actors {
		copied := *actor
		actors = append(actors, &copied)
	}
	sort.Slice(actors, func(i, j int) bool { return actors[i].ID < actors[j].ID })
	return actors, nil
}

func (m *MemoryStore) AdjustActorTokens(_ context.Context, actorID string, delta int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	actor, ok := m.actors[actorID]
	if !ok {
		return 0, models.ErrActorNotFound
	}

	newBalance := actor.AdversityTokens + delta
	if newBalance < 0 {
		return 0, models.ErrInsufficientTokens
	}

	actor.AdversityTokens = newBalance
	return newBalance, nil
}

func (m *MemoryStore) GetRollMessage(_ context.Context, messageID string) (*models.RollMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	msg, ok := m.messages[messageID]
	if !ok {
		return nil, models.ErrMessageNotFound
	}
	copied := *msg
	return &copied, nil
}

func (m *MemoryStore) SaveRollMessage(_ context.Context, msg *models.RollMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	copied := *msg
	m.messages[msg.ID] = &copied
	return nil
}

func (m *MemoryStore) ListRollMessages(_ context.Context, limit int64) ([]*models.RollMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var messages []*models.RollMessage
	for _, msg := range m.messages {
		copied := *msg
		messages = append(messages, &copied)
	}
	sort.Slice(messages, func(i, j int) bool {
		return messages[i].CreatedAt.After(messages[j].CreatedAt)
	})
	if limit > 0 && int64(len(messages)) > limit {
		messages = messages[:limit]
	}
	return messages, nil
}

func (m *MemoryStore) GetPendingRequest(_ context.Context, requestID string) (*models.PendingRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	req, ok := m.requests[requestID]
	if !ok {
		return nil, models.ErrRequestNotFound
	}
	copied := *req
	return &copied, nil
}

func (m *MemoryStore) SavePendingRequest(_ context.Context, req *models.PendingRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	copied := *req
	m.requests[req.ID] = &copied
	return nil
}

func (m *MemoryStore) ListPendingRequests(_ context.Context) ([]*models.PendingRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var requests []*models.PendingRequest
	for _, req := range m.requests {
		if req.Status != models.RequestStatusPending {
			continue
		}
		copied := *req
		requests = append(requests, &copied)
	}
	sort.Slice(requests, func(i, j int) bool { return requests[i].ID < requests[j].ID })
	return requests, nil
}

func (m *MemoryStore) DeletePendingRequest(_ context.Context, requestID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.requests, requestID)
	return nil
}

func (m *MemoryStore) SaveTokenTransaction(_ context.Context, tx *models.TokenTransaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	copied := *tx
	m.transactions[tx.ActorID] = append(m.transactions[tx.ActorID], &copied)
	return nil
}

func (m *MemoryStore) GetActorTransactions(_ context.Context, actorID string, limit int64) ([]*models.TokenTransaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	txs := m.transactions[actorID]
	if limit > 0 && int64(len(txs)) > limit {
		txs = txs[len(txs)-int(limit):]
	}
	out := make([]*models.TokenTransaction, 0, len(txs))
	for _, tx := range txs {
		copied := *tx
		out = append(out, &copied)
	}
	return out, nil
}
