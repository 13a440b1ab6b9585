package models

import "time"

type TransactionReason string

const (
	TransactionReasonClaim TransactionReason = "claim"
	TransactionReasonSpend TransactionReason = "spend"
	TransactionReasonGrant TransactionReason = "grant"
)

// TokenTransaction is one audit record of a ledger adjustment.
type TokenTransaction struct {
	ID            string            `json:"id" redis:"id"`
	ActorID       string            `json:"actor_id" redis:"actor_id"`
	Delta         int               `json:"delta" redis:"delta"`
	BalanceBefore int               `json:"balance_before" redis:"balance_before"`
	BalanceAfter  int               `json:"balance_after" redis:"balance_after"`
	Reason        TransactionReason `json:"reason" redis:"reason"`
	MessageID     string            `json:"message_id,omitempty" redis:"message_id"`
	CreatedAt     time.Time         `json:"created_at" redis:"created_at"`
}
