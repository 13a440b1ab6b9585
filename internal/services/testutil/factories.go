package testutil

import (
	"sync"
	"time"

	"tabletop-session-backend/internal/models"
)

// NewActor builds a test actor owned by the given participants.
func NewActor(id, name string, kind models.ActorKind, tokens int, ownerIDs ...string) *models.Actor {
	now := time.Now()
	return &models.Actor{
		ID:              id,
		Name:            name,
		Kind:            kind,
		Stats:           map[string]int{"grit": 2, "brains": 1},
		AdversityTokens: tokens,
		OwnerIDs:        ownerIDs,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// NewRollMessage builds a test roll message with no adversity state.
func NewRollMessage(id string, actor *models.Actor, baseTotal int) *models.RollMessage {
	return &models.RollMessage{
		ID:           id,
		ActorID:      actor.ID,
		ActorName:    actor.Name,
		Formula:      "1d20",
		Dice:         []int{baseTotal},
		BaseTotal:    baseTotal,
		TokensSpent:  0,
		NewRollTotal: baseTotal,
		TokenClaimed: false,
		CreatedAt:    time.Now(),
	}
}

// FakeBroadcaster records everything published through it.
type FakeBroadcaster struct {
	mu        sync.Mutex
	Created   []*models.RollMessage
	Updated   []*models.RollMessage
	Balances  map[string]int
	Notices   map[string][]string
	Approvals []*models.PendingRequest
}

func NewFakeBroadcaster() *FakeBroadcaster {
	return &FakeBroadcaster{
		Balances: make(map[string]int),
		Notices:  make(map[string][]string),
	}
}

func (f *FakeBroadcaster) BroadcastMessageCreated(msg *models.RollMessage) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Created = append(f.Created, msg)
}

func (f *FakeBroadcaster) BroadcastMessageUpdated(msg *models.RollMessage) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Updated = append(f.Updated, msg)
}

func (f *FakeBroadcaster) BroadcastBalance(actorID string, balance int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Balances[actorID] = balance
}

func (f *FakeBroadcaster) NotifyParticipant(participantID, text string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Notices[participantID] = append(f.Notices[participantID], text)
}

func (f *FakeBroadcaster) NotifyAll(text string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Notices[""] = append(f.Notices[""], text)
}

func (f *FakeBroadcaster) SendApprovalRequest(req *models.PendingRequest) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Approvals = append(f.Approvals, req)
}

// NoticesFor returns the notices a participant received.
func (f *FakeBroadcaster) NoticesFor(participantID string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.Notices[participantID]...)
}
