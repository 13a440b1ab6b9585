package models

import "time"

// RollMessage is one dice-roll chat entry and its adversity state.
// The tokenClaimed / tokensSpent / newRollTotal flags are the durable
// per-message record the adversity controls re-render from, so they
// must survive a chat history reload.
//
// Invariant: NewRollTotal == BaseTotal + TokensSpent.
type RollMessage struct {
	ID           string    `json:"id" redis:"id"`
	ActorID      string    `json:"actor_id" redis:"actor_id"`
	ActorName    string    `json:"actor_name" redis:"actor_name"`
	Flavor       string    `json:"flavor,omitempty" redis:"flavor"`
	Formula      string    `json:"formula" redis:"formula"`
	Dice         []int     `json:"dice" redis:"dice"`
	BaseTotal    int       `json:"base_total" redis:"base_total"`
	TokensSpent  int       `json:"tokensSpent" redis:"tokens_spent"`
	NewRollTotal int       `json:"newRollTotal" redis:"new_roll_total"`
	TokenClaimed bool      `json:"tokenClaimed" redis:"token_claimed"`
	CreatedAt    time.Time `json:"created_at" redis:"created_at"`
}

type RollRequest struct {
	ActorID   string `json:"actor_id" binding:"required"`
	DiceCount int    `json:"dice_count" binding:"required,min=1,max=100"`
	DiceSides int    `json:"dice_sides" binding:"required,min=2,max=1000"`
	Stat      string `json:"stat,omitempty"`
	Flavor    string `json:"flavor,omitempty"`
}

type ClaimRequest struct {
	ActorID   string `json:"actor_id" binding:"required"`
	MessageID string `json:"message_id" binding:"required"`
}

type SpendRequest struct {
	SpendingActorID string `json:"spending_actor_id" binding:"required"`
	RollMessageID   string `json:"roll_message_id" binding:"required"`
	Amount          int    `json:"amount" binding:"required"`
}

// ClaimResult is what a claim proposal resolves to on the proposing
// client's side.
type ClaimResult struct {
	Applied    bool         `json:"applied"`
	NewBalance int          `json:"new_balance,omitempty"`
	Message    *RollMessage `json:"message,omitempty"`
}

// SpendResult is what a spend proposal resolves to. Applied means the
// spend took effect immediately (self-spend or arbiter); otherwise the
// request is parked awaiting arbiter approval and RequestID names it.
type SpendResult struct {
	Applied         bool          `json:"applied"`
	NewBalance      int           `json:"new_balance,omitempty"`
	NewTotal        int           `json:"new_total,omitempty"`
	CumulativeSpent int           `json:"cumulative_spent,omitempty"`
	RequestID       string        `json:"request_id,omitempty"`
	Status          RequestStatus `json:"status"`
}
