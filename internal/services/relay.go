package services

import (
	"context"
	"fmt"
	"time"

	"tabletop-session-backend/internal/models"

	log "github.com/sirupsen/logrus"
)

// AuthorityRelay is the authoritative endpoint for token intents
// relayed from non-arbiter participants. Claims apply immediately;
// spends are parked as pending requests until the arbiter accepts or
// denies them. Only this path mutates the ledger for cross-actor
// spends.
type AuthorityRelay struct {
	ledger      *TokenLedger
	rolls       *RollMessageState
	actors      ActorStore
	requests    RequestStore
	broadcaster Broadcaster
	requestTTL  time.Duration
}

// IntentOutcome reports what the relay did with an intent.
type IntentOutcome struct {
	Applied    bool
	NewBalance int
	Message    *models.RollMessage
	Request    *models.PendingRequest
}

func NewAuthorityRelay(ledger *TokenLedger, rolls *RollMessageState, actors ActorStore, requests RequestStore, broadcaster Broadcaster, requestTTL time.Duration) *AuthorityRelay {
	return &AuthorityRelay{
		ledger:      ledger,
		rolls:       rolls,
		actors:      actors,
		requests:    requests,
		broadcaster: broadcaster,
		requestTTL:  requestTTL,
	}
}

// HandleIntent processes a relayed claim or spend on behalf of the
// authority.
func (r *AuthorityRelay) HandleIntent(ctx context.Context, requester models.Participant, intent models.TokenIntent) (*IntentOutcome, error) {
	switch intent.Action {
	case models.ActionTakeToken:
		return r.handleClaim(ctx, requester, intent)
	case models.ActionSpendTokens:
		return r.handleSpend(ctx, requester, intent)
	default:
		return nil, fmt.Errorf("unknown intent action: %s", intent.Action)
	}
}

// handleClaim applies a relayed claim without arbiter confirmation.
// Claims are one token only, so they skip the approval gate spends go
// through.
func (r *AuthorityRelay) handleClaim(ctx context.Context, requester models.Participant, intent models.TokenIntent) (*IntentOutcome, error) {
	current, err := r.rolls.Get(ctx, intent.MessageID)
	if err != nil {
		return nil, err
	}
	// The token belongs to the roll's actor; an intent naming any
	// other actor is refused even if the gate let it through.
	if current.ActorID != intent.ActorID {
		return nil, models.ErrNotOwner
	}

	accepted, err := r.rolls.RecordClaim(ctx, intent.MessageID)
	if err != nil {
		return nil, err
	}
	if !accepted {
		r.broadcaster.NotifyParticipant(requester.ID, "This adversity token has already been claimed.")
		return nil, models.ErrAlreadyClaimed
	}

	newBalance, err := r.ledger.Adjust(ctx, intent.ActorID, 1, models.TransactionReasonClaim, intent.MessageID)
	if err != nil {
		// The token was never granted, so the latch must not stay
		// set against the roller.
		if releaseErr := r.rolls.ReleaseClaim(ctx, intent.MessageID); releaseErr != nil {
			log.Errorf("Failed to release claim latch on message %s: %v", intent.MessageID, releaseErr)
		}
		return nil, err
	}

	msg, err := r.rolls.Get(ctx, intent.MessageID)
	if err != nil {
		return nil, err
	}

	r.broadcaster.BroadcastMessageUpdated(msg)
	r.broadcaster.BroadcastBalance(intent.ActorID, newBalance)
	r.broadcaster.NotifyParticipant(requester.ID, "You gained 1 adversity token.")

	log.Infof("Adversity token claimed by actor %s on message %s", intent.ActorID, intent.MessageID)

	return &IntentOutcome{
		Applied:    true,
		NewBalance: newBalance,
		Message:    msg,
	}, nil
}

// handleSpend re-validates the spender's balance (the proposer's local
// check may be stale) and parks the request for the arbiter.
func (r *AuthorityRelay) handleSpend(ctx context.Context, requester models.Participant, intent models.TokenIntent) (*IntentOutcome, error) {
	spender, err := r.actors.GetActor(ctx, intent.SpendingActorID)
	if err != nil {
		return nil, err
	}

	if spender.AdversityTokens < intent.TokenCost {
		r.broadcaster.NotifyParticipant(requester.ID,
			fmt.Sprintf("%s does not have enough adversity tokens to spend %d.", spender.Name, intent.TokenCost))
		return nil, models.ErrInsufficientTokens
	}

	roller, err := r.actors.GetActor(ctx, intent.RollActorID)
	if err != nil {
		return nil, err
	}

	req := &models.PendingRequest{
		ID:          models.GenerateRequestID(),
		Intent:      intent,
		RequesterID: requester.ID,
		SpenderName: spender.Name,
		RollerName:  roller.Name,
		Status:      models.RequestStatusPending,
		CreatedAt:   time.Now(),
	}
	if err := r.requests.SavePendingRequest(ctx, req); err != nil {
		return nil, err
	}

	r.broadcaster.SendApprovalRequest(req)
	r.broadcaster.NotifyParticipant(requester.ID,
		fmt.Sprintf("Your request to spend %d tokens is awaiting the GM's approval.", intent.TokensToSpend))

	log.Infof("Spend request %s parked: %s wants %d tokens on %s's roll", req.ID, spender.Name, intent.TokensToSpend, roller.Name)

	return &IntentOutcome{Request: req}, nil
}

// Resolve applies the arbiter's accept/deny verdict to a pending spend
// request. Both outcomes are terminal.
func (r *AuthorityRelay) Resolve(ctx context.Context, requestID string, approved bool) (*models.PendingRequest, error) {
	req, err := r.requests.GetPendingRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.Status != models.RequestStatusPending {
		return nil, models.ErrRequestResolved
	}

	if !approved {
		req.Status = models.RequestStatusDenied
		req.ResolvedAt = time.Now()
		if err := r.requests.SavePendingRequest(ctx, req); err != nil {
			return nil, err
		}

		r.broadcaster.NotifyParticipant(req.RequesterID,
			fmt.Sprintf("The GM denied %s's request to spend tokens.", req.SpenderName))

		log.Infof("Spend request %s denied", req.ID)
		return req, nil
	}

	intent := req.Intent

	newBalance, err := r.ledger.Adjust(ctx, intent.SpendingActorID, -intent.TokenCost, models.TransactionReasonSpend, intent.RollMessageID)
	if err != nil {
		// Balance moved between proposal and approval. Deny with a
		// notice rather than leaving the request dangling.
		if err == models.ErrInsufficientTokens {
			req.Status = models.RequestStatusDenied
			req.ResolvedAt = time.Now()
			if saveErr := r.requests.SavePendingRequest(ctx, req); saveErr != nil {
				return nil, saveErr
			}
			r.broadcaster.NotifyParticipant(req.RequesterID,
				fmt.Sprintf("%s no longer has enough adversity tokens.", req.SpenderName))
			return req, err
		}
		return nil, err
	}

	newTotal, cumulative, err := r.rolls.RecordSpend(ctx, intent.RollMessageID, intent.TokensToSpend)
	if err != nil {
		return nil, err
	}

	req.Status = models.RequestStatusApproved
	req.ResolvedAt = time.Now()
	if err := r.requests.SavePendingRequest(ctx, req); err != nil {
		return nil, err
	}

	msg, err := r.rolls.Get(ctx, intent.RollMessageID)
	if err != nil {
		return nil, err
	}

	r.broadcaster.BroadcastMessageUpdated(msg)
	r.broadcaster.BroadcastBalance(intent.SpendingActorID, newBalance)
	r.broadcaster.NotifyParticipant(req.RequesterID,
		fmt.Sprintf("%s successfully spent %d tokens.", req.SpenderName, intent.TokensToSpend))
	r.broadcaster.NotifyAll(
		fmt.Sprintf("%s has now spent %d token(s) on %s's roll. The new roll total is %d.",
			req.SpenderName, cumulative, req.RollerName, newTotal))

	log.Infof("Spend request %s approved: %d tokens on message %s, new total %d", req.ID, intent.TokensToSpend, intent.RollMessageID, newTotal)

	return req, nil
}

// PendingRequests lists requests still awaiting the arbiter.
func (r *AuthorityRelay) PendingRequests(ctx context.Context) ([]*models.PendingRequest, error) {
	return r.requests.ListPendingRequests(ctx)
}

// CleanupExpiredRequests drops pending requests older than the TTL.
// Expired requests are deleted, never retried; the requester is told
// to re-propose.
func (r *AuthorityRelay) CleanupExpiredRequests(ctx context.Context) {
	if r.requestTTL <= 0 {
		return
	}

	requests, err := r.requests.ListPendingRequests(ctx)
	if err != nil {
		log.Errorf("Failed to list pending requests for cleanup: %v", err)
		return
	}

	cutoff := time.Now().Add(-r.requestTTL)
	for _, req := range requests {
		if req.CreatedAt.After(cutoff) {
			continue
		}
		if err := r.requests.DeletePendingRequest(ctx, req.ID); err != nil {
			log.Errorf("Failed to delete expired request %s: %v", req.ID, err)
			continue
		}
		r.broadcaster.NotifyParticipant(req.RequesterID,
			"Your token spend request expired without a response. Propose it again if still needed.")
		log.Infof("Expired spend request %s dropped", req.ID)
	}
}

// StartExpiryWorker runs the cleanup sweep on a ticker. Returns a stop
// function.
func (r *AuthorityRelay) StartExpiryWorker(ctx context.Context) func() {
	ticker := time.NewTicker(1 * time.Minute)
	stopChan := make(chan struct{})

	go func() {
		log.Info("Pending request expiry worker started")
		for {
			select {
			case <-ctx.Done():
				log.Info("Pending request expiry worker shutting down (context cancelled)")
				return
			case <-stopChan:
				log.Info("Pending request expiry worker shutting down (stop requested)")
				return
			case <-ticker.C:
				r.CleanupExpiredRequests(ctx)
			}
		}
	}()

	return func() {
		ticker.Stop()
		close(stopChan)
	}
}
