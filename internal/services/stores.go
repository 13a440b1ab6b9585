package services

import (
	"context"

	"tabletop-session-backend/internal/models"
)

// ActorStore persists actors and their token balances.
type ActorStore interface {
	GetActor(ctx context.Context, actorID string) (*models.Actor, error)
	SaveActor(ctx context.Context, actor *models.Actor) error
	ListActors(ctx context.Context) ([]*models.Actor, error)

	// AdjustActorTokens atomically applies delta to the actor's
	// adversity token balance and returns the new balance. A delta
	// that would drive the balance below zero fails with
	// models.ErrInsufficientTokens and leaves the balance unchanged.
	AdjustActorTokens(ctx context.Context, actorID string, delta int) (int, error)
}

// MessageStore persists roll messages and their adversity flag state.
type MessageStore interface {
	GetRollMessage(ctx context.Context, messageID string) (*models.RollMessage, error)
	SaveRollMessage(ctx context.Context, msg *models.RollMessage) error
	ListRollMessages(ctx context.Context, limit int64) ([]*models.RollMessage, error)
}

// RequestStore persists spend requests awaiting arbiter resolution.
type RequestStore interface {
	GetPendingRequest(ctx context.Context, requestID string) (*models.PendingRequest, error)
	SavePendingRequest(ctx context.Context, req *models.PendingRequest) error
	ListPendingRequests(ctx context.Context) ([]*models.PendingRequest, error)
	DeletePendingRequest(ctx context.Context, requestID string) error
}

// AuditStore records ledger adjustments.
type AuditStore interface {
	SaveTokenTransaction(ctx context.Context, tx *models.TokenTransaction) error
	GetActorTransactions(ctx context.Context, actorID string, limit int64) ([]*models.TokenTransaction, error)
}
