package services

import (
	"context"
	"time"

	"tabletop-session-backend/internal/models"

	log "github.com/sirupsen/logrus"
)

// TokenLedger is the single mutation path for adversity token
// balances. Every change goes through Adjust; nothing else writes the
// balance field.
type TokenLedger struct {
	actors ActorStore
	audit  AuditStore
}

func NewTokenLedger(actors ActorStore, audit AuditStore) *TokenLedger {
	return &TokenLedger{
		actors: actors,
		audit:  audit,
	}
}

// Adjust applies delta to the actor's balance and returns the new
// balance. A delta that would drive the balance below zero fails with
// models.ErrInsufficientTokens and leaves the ledger unchanged.
func (l *TokenLedger) Adjust(ctx context.Context, actorID string, delta int, reason models.TransactionReason, messageID string) (int, error) {
	newBalance, err := l.actors.AdjustActorTokens(ctx, actorID, delta)
	if err != nil {
		return 0, err
	}

	tx := &models.TokenTransaction{
		ID:            models.GenerateTransactionID(),
		ActorID:       actorID,
		Delta:         delta,
		BalanceBefore: newBalance - delta,
		BalanceAfter:  newBalance,
		Reason:        reason,
		MessageID:     messageID,
		CreatedAt:     time.Now(),
	}
	if err := l.audit.SaveTokenTransaction(ctx, tx); err != nil {
		// Balance already moved; don't fail the operation over the audit trail.
		log.Errorf("Failed to record token transaction for actor %s: %v", actorID, err)
	}

	return newBalance, nil
}

// Balance returns the actor's current token balance.
func (l *TokenLedger) Balance(ctx context.Context, actorID string) (int, error) {
	actor, err := l.actors.GetActor(ctx, actorID)
	if err != nil {
		return 0, err
	}
	return actor.AdversityTokens, nil
}

// History returns the most recent ledger adjustments for an actor.
func (l *TokenLedger) History(ctx context.Context, actorID string, limit int64) ([]*models.TokenTransaction, error) {
	return l.audit.GetActorTransactions(ctx, actorID, limit)
}
