package services

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"tabletop-session-backend/internal/models"

	log "github.com/sirupsen/logrus"
)

// RollService evaluates dice rolls against actor stats and posts the
// resulting roll message, adversity controls attached.
type RollService struct {
	actors      ActorStore
	messages    MessageStore
	broadcaster Broadcaster

	mu  sync.Mutex
	rng *rand.Rand
}

func NewRollService(actors ActorStore, messages MessageStore, broadcaster Broadcaster) *RollService {
	return &RollService{
		actors:      actors,
		messages:    messages,
		broadcaster: broadcaster,
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Roll evaluates an NdS + stat roll for the actor and records it as a
// roll message. Unknown actor kinds abort the roll.
func (s *RollService) Roll(ctx context.Context, p models.Participant, req *models.RollRequest) (*models.RollMessage, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	actor, err := s.actors.GetActor(ctx, req.ActorID)
	if err != nil {
		return nil, err
	}
	if !p.GM && !actor.OwnedBy(p.ID) {
		return nil, models.ErrNotOwner
	}
	if !actor.KindKnown() {
		log.Errorf("Roll attempted against actor %s with unknown kind %q", actor.ID, actor.Kind)
		return nil, models.ErrUnknownActorType
	}

	dice := make([]int, req.DiceCount)
	baseTotal := 0

	s.mu.Lock()
	for i := range dice {
		dice[i] = s.rng.Intn(req.DiceSides) + 1
		baseTotal += dice[i]
	}
	s.mu.Unlock()

	baseTotal += actor.StatValue(req.Stat)

	msg := &models.RollMessage{
		ID:           models.GenerateMessageID(),
		ActorID:      actor.ID,
		ActorName:    actor.Name,
		Flavor:       req.Flavor,
		Formula:      models.FormatFormula(req.DiceCount, req.DiceSides, req.Stat),
		Dice:         dice,
		BaseTotal:    baseTotal,
		TokensSpent:  0,
		NewRollTotal: baseTotal,
		TokenClaimed: false,
		CreatedAt:    time.Now(),
	}

	if err := s.messages.SaveRollMessage(ctx, msg); err != nil {
		return nil, err
	}

	s.broadcaster.BroadcastMessageCreated(msg)

	log.Infof("%s rolled %s: %d", actor.Name, msg.Formula, baseTotal)

	return msg, nil
}

// Messages returns recent roll messages, newest first. The adversity
// flags on each entry are the durable record clients re-render from.
func (s *RollService) Messages(ctx context.Context, limit int64) ([]*models.RollMessage, error) {
	return s.messages.ListRollMessages(ctx, limit)
}
