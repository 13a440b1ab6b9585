package services

import (
	"context"

	"tabletop-session-backend/internal/models"
)

// RollMessageState tracks the per-roll adversity record: the one-shot
// claim latch and the cumulative spend applied to the roll's total.
type RollMessageState struct {
	messages MessageStore
}

func NewRollMessageState(messages MessageStore) *RollMessageState {
	return &RollMessageState{messages: messages}
}

// RecordClaim sets the claim latch on a roll message. Returns
// accepted=false without changing anything if the token was already
// claimed. Once a claim has granted its token the latch never
// reverts; ReleaseClaim exists only to back out a grant that failed.
func (s *RollMessageState) RecordClaim(ctx context.Context, messageID string) (bool, error) {
	msg, err := s.messages.GetRollMessage(ctx, messageID)
	if err != nil {
		return false, err
	}

	if msg.TokenClaimed {
		return false, nil
	}

	msg.TokenClaimed = true
	if err := s.messages.SaveRollMessage(ctx, msg); err != nil {
		return false, err
	}

	return true, nil
}

// ReleaseClaim clears the latch after a claim whose token grant
// failed, so the roller can try again.
func (s *RollMessageState) ReleaseClaim(ctx context.Context, messageID string) error {
	msg, err := s.messages.GetRollMessage(ctx, messageID)
	if err != nil {
		return err
	}

	msg.TokenClaimed = false
	return s.messages.SaveRollMessage(ctx, msg)
}

// RecordSpend adds amount to both the roll's cumulative spend and its
// adjusted total, keeping newRollTotal == baseTotal + tokensSpent.
// Budget enforcement is the consent gate's job, not this layer's.
func (s *RollMessageState) RecordSpend(ctx context.Context, messageID string, amount int) (newTotal, cumulativeSpent int, err error) {
	if amount <= 0 {
		return 0, 0, models.ErrInvalidSpendAmount
	}

	msg, err := s.messages.GetRollMessage(ctx, messageID)
	if err != nil {
		return 0, 0, err
	}

	msg.TokensSpent += amount
	msg.NewRollTotal += amount

	if err := s.messages.SaveRollMessage(ctx, msg); err != nil {
		return 0, 0, err
	}

	return msg.NewRollTotal, msg.TokensSpent, nil
}

// Get returns the current state of a roll message.
func (s *RollMessageState) Get(ctx context.Context, messageID string) (*models.RollMessage, error) {
	return s.messages.GetRollMessage(ctx, messageID)
}
