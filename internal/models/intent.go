package models

import "time"

// Intent action tags on the shared channel envelope.
const (
	ActionTakeToken   = "takeToken"
	ActionSpendTokens = "spendTokens"
)

// TokenIntent is the wire envelope for a claim or spend relayed to the
// authority. Field names match the channel protocol: takeToken carries
// messageID/actorID, spendTokens carries the roll/spender pair plus the
// amount and its 1:1 token cost.
type TokenIntent struct {
	Action string `json:"action"`

	MessageID string `json:"messageID,omitempty"`
	ActorID   string `json:"actorID,omitempty"`

	RollActorID     string `json:"rollActorId,omitempty"`
	SpendingActorID string `json:"spendingActorId,omitempty"`
	TokensToSpend   int    `json:"tokensToSpend,omitempty"`
	TokenCost       int    `json:"tokenCost,omitempty"`
	RollMessageID   string `json:"rollMessageId,omitempty"`
}

type RequestStatus string

const (
	RequestStatusPending  RequestStatus = "pending"
	RequestStatusApproved RequestStatus = "approved"
	RequestStatusDenied   RequestStatus = "denied"
)

// PendingRequest is a spend intent parked on the authority awaiting the
// arbiter's accept/deny. Pending requests are never retried
// automatically; an expired request is simply deleted and the
// requester must re-propose.
type PendingRequest struct {
	ID          string        `json:"id" redis:"id"`
	Intent      TokenIntent   `json:"intent" redis:"intent"`
	RequesterID string        `json:"requester_id" redis:"requester_id"`
	SpenderName string        `json:"spender_name" redis:"spender_name"`
	RollerName  string        `json:"roller_name" redis:"roller_name"`
	Status      RequestStatus `json:"status" redis:"status"`
	CreatedAt   time.Time     `json:"created_at" redis:"created_at"`
	ResolvedAt  time.Time     `json:"resolved_at,omitempty" redis:"resolved_at"`
}
