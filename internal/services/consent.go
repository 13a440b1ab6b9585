package services

import (
	"context"
	"fmt"

	"tabletop-session-backend/internal/models"
)

// ConsentGate evaluates claim and spend intents before they touch the
// ledger. Ownership, latch, and balance problems fail fast here and
// never reach the relay; everything else either applies immediately
// (arbiter, or a self-spend when the trust shortcut is on) or is
// relayed to the authority.
type ConsentGate struct {
	ledger      *TokenLedger
	rolls       *RollMessageState
	actors      ActorStore
	relay       *AuthorityRelay
	broadcaster Broadcaster

	// selfSpendNeedsApproval disables the original economy's trust
	// shortcut and routes self-spends through the arbiter too.
	selfSpendNeedsApproval bool
}

func NewConsentGate(ledger *TokenLedger, rolls *RollMessageState, actors ActorStore, relay *AuthorityRelay, broadcaster Broadcaster, selfSpendNeedsApproval bool) *ConsentGate {
	return &ConsentGate{
		ledger:                 ledger,
		rolls:                  rolls,
		actors:                 actors,
		relay:                  relay,
		broadcaster:            broadcaster,
		selfSpendNeedsApproval: selfSpendNeedsApproval,
	}
}

// ProposeClaim claims the roll's single adversity token for the actor.
// Ownership and the claim latch are checked locally first; a failed
// check returns before any intent is produced.
func (g *ConsentGate) ProposeClaim(ctx context.Context, p models.Participant, actorID, messageID string) (*models.ClaimResult, error) {
	actor, err := g.actors.GetActor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if !p.GM && !actor.OwnedBy(p.ID) {
		return nil, models.ErrNotOwner
	}

	msg, err := g.rolls.Get(ctx, messageID)
	if err != nil {
		return nil, err
	}
	// A claim always credits the roll's own actor.
	if msg.ActorID != actorID {
		return nil, models.ErrNotOwner
	}
	if msg.TokenClaimed {
		return nil, models.ErrAlreadyClaimed
	}

	intent := models.TokenIntent{
		Action:    models.ActionTakeToken,
		MessageID: messageID,
		ActorID:   actorID,
	}

	// Claims apply at the authority without arbiter confirmation, so
	// arbiter and player paths converge once the local checks pass.
	outcome, err := g.relay.HandleIntent(ctx, p, intent)
	if err != nil {
		return nil, err
	}

	return &models.ClaimResult{
		Applied:    outcome.Applied,
		NewBalance: outcome.NewBalance,
		Message:    outcome.Message,
	}, nil
}

// ProposeSpend proposes adding amount to a roll's total at a 1:1 token
// cost. The spender's balance is checked locally before anything is
// relayed; self-spends and arbiter spends apply immediately.
func (g *ConsentGate) ProposeSpend(ctx context.Context, p models.Participant, spendingActorID, rollMessageID string, amount int) (*models.SpendResult, error) {
	if amount <= 0 {
		return nil, models.ErrInvalidSpendAmount
	}

	spender, err := g.actors.GetActor(ctx, spendingActorID)
	if err != nil {
		return nil, err
	}
	if !p.GM && !spender.OwnedBy(p.ID) {
		return nil, models.ErrNotOwner
	}

	msg, err := g.rolls.Get(ctx, rollMessageID)
	if err != nil {
		return nil, err
	}

	tokenCost := amount

	if spender.AdversityTokens < tokenCost {
		return nil, models.ErrInsufficientTokens
	}

	selfSpend := spendingActorID == msg.ActorID

	if p.GM || (selfSpend && !g.selfSpendNeedsApproval) {
		return g.applySpend(ctx, p, spender, rollMessageID, amount, tokenCost)
	}

	intent := models.TokenIntent{
		Action:          models.ActionSpendTokens,
		RollActorID:     msg.ActorID,
		SpendingActorID: spendingActorID,
		TokensToSpend:   amount,
		TokenCost:       tokenCost,
		RollMessageID:   rollMessageID,
	}

	outcome, err := g.relay.HandleIntent(ctx, p, intent)
	if err != nil {
		return nil, err
	}

	return &models.SpendResult{
		Applied:   false,
		RequestID: outcome.Request.ID,
		Status:    models.RequestStatusPending,
	}, nil
}

// applySpend is the authority-equivalent path: deduct and record
// synchronously, no relay round trip.
func (g *ConsentGate) applySpend(ctx context.Context, p models.Participant, spender *models.Actor, rollMessageID string, amount, tokenCost int) (*models.SpendResult, error) {
	newBalance, err := g.ledger.Adjust(ctx, spender.ID, -tokenCost, models.TransactionReasonSpend, rollMessageID)
	if err != nil {
		return nil, err
	}

	newTotal, cumulative, err := g.rolls.RecordSpend(ctx, rollMessageID, amount)
	if err != nil {
		return nil, err
	}

	msg, err := g.rolls.Get(ctx, rollMessageID)
	if err != nil {
		return nil, err
	}

	g.broadcaster.BroadcastMessageUpdated(msg)
	g.broadcaster.BroadcastBalance(spender.ID, newBalance)
	g.broadcaster.NotifyParticipant(p.ID,
		fmt.Sprintf("You have now spent %d token(s). The new roll total is %d.", cumulative, newTotal))

	return &models.SpendResult{
		Applied:         true,
		NewBalance:      newBalance,
		NewTotal:        newTotal,
		CumulativeSpent: cumulative,
		Status:          models.RequestStatusApproved,
	}, nil
}
