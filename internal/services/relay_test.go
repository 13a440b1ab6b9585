package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tabletop-session-backend/internal/models"
	"tabletop-session-backend/internal/services/testutil"
)

// Full round trip: A rolls 12 and claims a token, then B spends 2
// tokens on A's roll with the arbiter's approval.
func TestSpendApprovedByArbiter(t *testing.T) {
	ctx := context.Background()
	f := newFixture(false)

	actorA := testutil.NewActor("actor_a", "Aki", models.ActorKindCharacter, 0, playerA.ID)
	actorB := testutil.NewActor("actor_b", "Bo", models.ActorKindCharacter, 3, playerB.ID)
	f.seedRoll(t, actorA, "msg_1", 12)
	require.NoError(t, f.store.SaveActor(ctx, actorB))

	claim, err := f.gate.ProposeClaim(ctx, playerA, "actor_a", "msg_1")
	require.NoError(t, err)
	assert.Equal(t, 1, claim.NewBalance)

	spend, err := f.gate.ProposeSpend(ctx, playerB, "actor_b", "msg_1", 2)
	require.NoError(t, err)
	require.False(t, spend.Applied)

	resolved, err := f.relay.Resolve(ctx, spend.RequestID, true)
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusApproved, resolved.Status)
	assert.False(t, resolved.ResolvedAt.IsZero())

	balance, _ := f.ledger.Balance(ctx, "actor_b")
	assert.Equal(t, 1, balance)

	msg, _ := f.rolls.Get(ctx, "msg_1")
	assert.Equal(t, 2, msg.TokensSpent)
	assert.Equal(t, 14, msg.NewRollTotal)
	assert.Equal(t, msg.BaseTotal+msg.TokensSpent, msg.NewRollTotal)

	notices := f.bcast.NoticesFor(playerB.ID)
	assert.Contains(t, notices, "Bo successfully spent 2 tokens.")
}

func TestSpendDeniedByArbiter(t *testing.T) {
	ctx := context.Background()
	f := newFixture(false)

	actorA := testutil.NewActor("actor_a", "Aki", models.ActorKindCharacter, 0, playerA.ID)
	actorB := testutil.NewActor("actor_b", "Bo", models.ActorKindCharacter, 3, playerB.ID)
	f.seedRoll(t, actorA, "msg_1", 12)
	require.NoError(t, f.store.SaveActor(ctx, actorB))

	spend, err := f.gate.ProposeSpend(ctx, playerB, "actor_b", "msg_1", 2)
	require.NoError(t, err)

	resolved, err := f.relay.Resolve(ctx, spend.RequestID, false)
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusDenied, resolved.Status)

	// No mutation on denial
	balance, _ := f.ledger.Balance(ctx, "actor_b")
	assert.Equal(t, 3, balance)
	msg, _ := f.rolls.Get(ctx, "msg_1")
	assert.Equal(t, 0, msg.TokensSpent)
	assert.Equal(t, 12, msg.NewRollTotal)

	// The denial notice names the spender
	notices := f.bcast.NoticesFor(playerB.ID)
	assert.Contains(t, notices, "The GM denied Bo's request to spend tokens.")
}

// The relay never trusts the proposer's local balance check.
func TestRelayRevalidatesBalance(t *testing.T) {
	ctx := context.Background()
	f := newFixture(false)

	actorA := testutil.NewActor("actor_a", "Aki", models.ActorKindCharacter, 0, playerA.ID)
	actorB := testutil.NewActor("actor_b", "Bo", models.ActorKindCharacter, 1, playerB.ID)
	f.seedRoll(t, actorA, "msg_1", 12)
	require.NoError(t, f.store.SaveActor(ctx, actorB))

	// A stale client proposes more than B holds
	intent := models.TokenIntent{
		Action:          models.ActionSpendTokens,
		RollActorID:     "actor_a",
		SpendingActorID: "actor_b",
		TokensToSpend:   5,
		TokenCost:       5,
		RollMessageID:   "msg_1",
	}

	_, err := f.relay.HandleIntent(ctx, playerB, intent)
	require.ErrorIs(t, err, models.ErrInsufficientTokens)

	// Rejected before any ledger mutation, and not parked
	balance, _ := f.ledger.Balance(ctx, "actor_b")
	assert.Equal(t, 1, balance)
	requests, _ := f.relay.PendingRequests(ctx)
	assert.Empty(t, requests)
	assert.NotEmpty(t, f.bcast.NoticesFor(playerB.ID))
}

// Balance can still drain between proposal and approval; the approval
// re-check must deny without partial application.
func TestApprovalReValidationDenies(t *testing.T) {
	ctx := context.Background()
	f := newFixture(false)

	actorA := testutil.NewActor("actor_a", "Aki", models.ActorKindCharacter, 0, playerA.ID)
	actorB := testutil.NewActor("actor_b", "Bo", models.ActorKindCharacter, 2, playerB.ID)
	f.seedRoll(t, actorA, "msg_1", 12)
	require.NoError(t, f.store.SaveActor(ctx, actorB))

	spend, err := f.gate.ProposeSpend(ctx, playerB, "actor_b", "msg_1", 2)
	require.NoError(t, err)

	// B's balance drains while the request is pending
	_, err = f.ledger.Adjust(ctx, "actor_b", -2, models.TransactionReasonSpend, "")
	require.NoError(t, err)

	resolved, err := f.relay.Resolve(ctx, spend.RequestID, true)
	require.ErrorIs(t, err, models.ErrInsufficientTokens)
	require.NotNil(t, resolved)
	assert.Equal(t, models.RequestStatusDenied, resolved.Status)

	// No partial application
	msg, _ := f.rolls.Get(ctx, "msg_1")
	assert.Equal(t, 0, msg.TokensSpent)
	assert.Equal(t, 12, msg.NewRollTotal)
}

func TestResolveIsTerminal(t *testing.T) {
	ctx := context.Background()
	f := newFixture(false)

	actorA := testutil.NewActor("actor_a", "Aki", models.ActorKindCharacter, 0, playerA.ID)
	actorB := testutil.NewActor("actor_b", "Bo", models.ActorKindCharacter, 3, playerB.ID)
	f.seedRoll(t, actorA, "msg_1", 12)
	require.NoError(t, f.store.SaveActor(ctx, actorB))

	spend, err := f.gate.ProposeSpend(ctx, playerB, "actor_b", "msg_1", 1)
	require.NoError(t, err)

	_, err = f.relay.Resolve(ctx, spend.RequestID, false)
	require.NoError(t, err)

	// Approving after a denial must not apply anything
	_, err = f.relay.Resolve(ctx, spend.RequestID, true)
	require.ErrorIs(t, err, models.ErrRequestResolved)

	balance, _ := f.ledger.Balance(ctx, "actor_b")
	assert.Equal(t, 3, balance)
}

func TestRelayedClaimAppliesWithoutConfirmation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(false)

	actorA := testutil.NewActor("actor_a", "Aki", models.ActorKindCharacter, 0, playerA.ID)
	f.seedRoll(t, actorA, "msg_1", 12)

	intent := models.TokenIntent{
		Action:    models.ActionTakeToken,
		MessageID: "msg_1",
		ActorID:   "actor_a",
	}

	outcome, err := f.relay.HandleIntent(ctx, playerA, intent)
	require.NoError(t, err)
	assert.True(t, outcome.Applied)
	assert.Equal(t, 1, outcome.NewBalance)

	// Second relayed claim hits the latch
	_, err = f.relay.HandleIntent(ctx, playerA, intent)
	require.ErrorIs(t, err, models.ErrAlreadyClaimed)

	balance, _ := f.ledger.Balance(ctx, "actor_a")
	assert.Equal(t, 1, balance)
}

// The relay refuses a claim intent naming any actor other than the
// roll's own, even when the gate is bypassed.
func TestRelayedClaimMustNameRollActor(t *testing.T) {
	ctx := context.Background()
	f := newFixture(false)

	actorA := testutil.NewActor("actor_a", "Aki", models.ActorKindCharacter, 0, playerA.ID)
	actorB := testutil.NewActor("actor_b", "Bo", models.ActorKindCharacter, 0, playerB.ID)
	f.seedRoll(t, actorA, "msg_1", 12)
	require.NoError(t, f.store.SaveActor(ctx, actorB))

	intent := models.TokenIntent{
		Action:    models.ActionTakeToken,
		MessageID: "msg_1",
		ActorID:   "actor_b",
	}

	_, err := f.relay.HandleIntent(ctx, playerB, intent)
	require.ErrorIs(t, err, models.ErrNotOwner)

	balance, _ := f.ledger.Balance(ctx, "actor_b")
	assert.Equal(t, 0, balance)
	msg, _ := f.rolls.Get(ctx, "msg_1")
	assert.False(t, msg.TokenClaimed)
}

// A failed token grant must not leave the latch set against the
// roller.
func TestClaimLatchReleasedWhenGrantFails(t *testing.T) {
	ctx := context.Background()
	f := newFixture(false)

	// A roll whose actor record is gone; the grant will fail after
	// the latch is taken
	msg := &models.RollMessage{
		ID:           "msg_orphan",
		ActorID:      "actor_gone",
		ActorName:    "Gone",
		BaseTotal:    10,
		NewRollTotal: 10,
	}
	require.NoError(t, f.store.SaveRollMessage(ctx, msg))

	intent := models.TokenIntent{
		Action:    models.ActionTakeToken,
		MessageID: "msg_orphan",
		ActorID:   "actor_gone",
	}

	_, err := f.relay.HandleIntent(ctx, playerA, intent)
	require.ErrorIs(t, err, models.ErrActorNotFound)

	saved, err := f.rolls.Get(ctx, "msg_orphan")
	require.NoError(t, err)
	assert.False(t, saved.TokenClaimed)
}

func TestExpiredRequestsAreDropped(t *testing.T) {
	ctx := context.Background()
	f := newFixture(false)

	actorA := testutil.NewActor("actor_a", "Aki", models.ActorKindCharacter, 0, playerA.ID)
	actorB := testutil.NewActor("actor_b", "Bo", models.ActorKindCharacter, 3, playerB.ID)
	f.seedRoll(t, actorA, "msg_1", 12)
	require.NoError(t, f.store.SaveActor(ctx, actorB))

	spend, err := f.gate.ProposeSpend(ctx, playerB, "actor_b", "msg_1", 1)
	require.NoError(t, err)

	// Age the request past the TTL
	req, err := f.store.GetPendingRequest(ctx, spend.RequestID)
	require.NoError(t, err)
	req.CreatedAt = time.Now().Add(-time.Hour)
	require.NoError(t, f.store.SavePendingRequest(ctx, req))

	f.relay.CleanupExpiredRequests(ctx)

	requests, _ := f.relay.PendingRequests(ctx)
	assert.Empty(t, requests)

	// Expiry never applies the spend
	balance, _ := f.ledger.Balance(ctx, "actor_b")
	assert.Equal(t, 3, balance)
	_, err = f.relay.Resolve(ctx, spend.RequestID, true)
	assert.ErrorIs(t, err, models.ErrRequestNotFound)
}
