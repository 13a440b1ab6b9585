package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tabletop-session-backend/internal/models"
	"tabletop-session-backend/internal/services"
	"tabletop-session-backend/internal/services/testutil"
)

type fixture struct {
	store  *testutil.MemoryStore
	bcast  *testutil.FakeBroadcaster
	ledger *services.TokenLedger
	rolls  *services.RollMessageState
	relay  *services.AuthorityRelay
	gate   *services.ConsentGate
}

func newFixture(selfSpendNeedsApproval bool) *fixture {
	store := testutil.NewMemoryStore()
	bcast := testutil.NewFakeBroadcaster()
	ledger := services.NewTokenLedger(store, store)
	rolls := services.NewRollMessageState(store)
	relay := services.NewAuthorityRelay(ledger, rolls, store, store, bcast, 30*time.Minute)
	gate := services.NewConsentGate(ledger, rolls, store, relay, bcast, selfSpendNeedsApproval)

	return &fixture{
		store:  store,
		bcast:  bcast,
		ledger: ledger,
		rolls:  rolls,
		relay:  relay,
		gate:   gate,
	}
}

var (
	playerA = models.Participant{ID: "user_a", Name: "Avery"}
	playerB = models.Participant{ID: "user_b", Name: "Blake"}
	playerC = models.Participant{ID: "user_c", Name: "Casey"}
	arbiter = models.Participant{ID: "user_gm", Name: "The GM", GM: true}
)

func (f *fixture) seedRoll(t *testing.T, actor *models.Actor, messageID string, baseTotal int) *models.RollMessage {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, f.store.SaveActor(ctx, actor))
	msg := testutil.NewRollMessage(messageID, actor, baseTotal)
	require.NoError(t, f.store.SaveRollMessage(ctx, msg))
	return msg
}

func TestProposeClaimByOwner(t *testing.T) {
	ctx := context.Background()
	f := newFixture(false)

	actorA := testutil.NewActor("actor_a", "Aki", models.ActorKindCharacter, 0, playerA.ID)
	f.seedRoll(t, actorA, "msg_1", 12)

	result, err := f.gate.ProposeClaim(ctx, playerA, "actor_a", "msg_1")
	require.NoError(t, err)

	assert.True(t, result.Applied)
	assert.Equal(t, 1, result.NewBalance)
	assert.True(t, result.Message.TokenClaimed)

	assert.Contains(t, f.bcast.NoticesFor(playerA.ID), "You gained 1 adversity token.")
	assert.Equal(t, 1, f.bcast.Balances["actor_a"])
}

func TestProposeClaimNotOwnerFailsFast(t *testing.T) {
	ctx := context.Background()
	f := newFixture(false)

	actorA := testutil.NewActor("actor_a", "Aki", models.ActorKindCharacter, 0, playerA.ID)
	f.seedRoll(t, actorA, "msg_1", 12)

	_, err := f.gate.ProposeClaim(ctx, playerB, "actor_a", "msg_1")
	require.ErrorIs(t, err, models.ErrNotOwner)

	// Nothing was relayed and nothing changed
	balance, _ := f.ledger.Balance(ctx, "actor_a")
	assert.Equal(t, 0, balance)
	msg, _ := f.rolls.Get(ctx, "msg_1")
	assert.False(t, msg.TokenClaimed)
	assert.Empty(t, f.bcast.Updated)
}

// A claim only ever credits the roll's own actor; owning some other
// actor must not let a participant farm tokens off someone else's roll.
func TestProposeClaimForeignRollRejected(t *testing.T) {
	ctx := context.Background()
	f := newFixture(false)

	actorA := testutil.NewActor("actor_a", "Aki", models.ActorKindCharacter, 0, playerA.ID)
	actorB := testutil.NewActor("actor_b", "Bo", models.ActorKindCharacter, 0, playerB.ID)
	f.seedRoll(t, actorA, "msg_1", 12)
	require.NoError(t, f.store.SaveActor(ctx, actorB))

	// B owns actor_b, but msg_1 is A's roll
	_, err := f.gate.ProposeClaim(ctx, playerB, "actor_b", "msg_1")
	require.ErrorIs(t, err, models.ErrNotOwner)

	// No token minted, and the latch is still free
	balance, _ := f.ledger.Balance(ctx, "actor_b")
	assert.Equal(t, 0, balance)
	msg, _ := f.rolls.Get(ctx, "msg_1")
	assert.False(t, msg.TokenClaimed)

	// The roller's own claim still goes through
	result, err := f.gate.ProposeClaim(ctx, playerA, "actor_a", "msg_1")
	require.NoError(t, err)
	assert.Equal(t, 1, result.NewBalance)
}

func TestProposeClaimAlreadyClaimed(t *testing.T) {
	ctx := context.Background()
	f := newFixture(false)

	// D's roll, already claimed; C owns a separate broke actor
	actorD := testutil.NewActor("actor_d", "Drew", models.ActorKindCharacter, 1, playerC.ID)
	msg := f.seedRoll(t, actorD, "msg_1", 9)
	msg.TokenClaimed = true
	require.NoError(t, f.store.SaveRollMessage(ctx, msg))

	_, err := f.gate.ProposeClaim(ctx, playerC, "actor_d", "msg_1")
	require.ErrorIs(t, err, models.ErrAlreadyClaimed)

	balance, _ := f.ledger.Balance(ctx, "actor_d")
	assert.Equal(t, 1, balance)
}

func TestProposeSpendInsufficientBalanceFailsLocally(t *testing.T) {
	ctx := context.Background()
	f := newFixture(false)

	actorA := testutil.NewActor("actor_a", "Aki", models.ActorKindCharacter, 0, playerA.ID)
	actorB := testutil.NewActor("actor_b", "Bo", models.ActorKindCharacter, 1, playerB.ID)
	f.seedRoll(t, actorA, "msg_1", 12)
	require.NoError(t, f.store.SaveActor(ctx, actorB))

	_, err := f.gate.ProposeSpend(ctx, playerB, "actor_b", "msg_1", 2)
	require.ErrorIs(t, err, models.ErrInsufficientTokens)

	// The intent never reached the relay
	assert.Empty(t, f.bcast.Approvals)
	requests, _ := f.relay.PendingRequests(ctx)
	assert.Empty(t, requests)

	balance, _ := f.ledger.Balance(ctx, "actor_b")
	assert.Equal(t, 1, balance)
}

func TestSelfSpendAppliesImmediately(t *testing.T) {
	ctx := context.Background()
	f := newFixture(false)

	actorA := testutil.NewActor("actor_a", "Aki", models.ActorKindCharacter, 1, playerA.ID)
	f.seedRoll(t, actorA, "msg_1", 12)

	result, err := f.gate.ProposeSpend(ctx, playerA, "actor_a", "msg_1", 1)
	require.NoError(t, err)

	assert.True(t, result.Applied)
	assert.Equal(t, 0, result.NewBalance)
	assert.Equal(t, 13, result.NewTotal)
	assert.Equal(t, 1, result.CumulativeSpent)

	// No arbiter involvement for a self-spend
	assert.Empty(t, f.bcast.Approvals)

	msg, _ := f.rolls.Get(ctx, "msg_1")
	assert.Equal(t, 1, msg.TokensSpent)
	assert.Equal(t, 13, msg.NewRollTotal)
}

func TestSelfSpendCanBeRoutedThroughArbiter(t *testing.T) {
	ctx := context.Background()
	f := newFixture(true)

	actorA := testutil.NewActor("actor_a", "Aki", models.ActorKindCharacter, 2, playerA.ID)
	f.seedRoll(t, actorA, "msg_1", 12)

	result, err := f.gate.ProposeSpend(ctx, playerA, "actor_a", "msg_1", 1)
	require.NoError(t, err)

	assert.False(t, result.Applied)
	assert.Equal(t, models.RequestStatusPending, result.Status)
	assert.NotEmpty(t, result.RequestID)
	assert.Len(t, f.bcast.Approvals, 1)

	// Nothing moved yet
	balance, _ := f.ledger.Balance(ctx, "actor_a")
	assert.Equal(t, 2, balance)
}

func TestArbiterSpendAppliesImmediately(t *testing.T) {
	ctx := context.Background()
	f := newFixture(false)

	actorA := testutil.NewActor("actor_a", "Aki", models.ActorKindCharacter, 0, playerA.ID)
	actorNPC := testutil.NewActor("actor_npc", "The Sheriff", models.ActorKindNPC, 3)
	f.seedRoll(t, actorA, "msg_1", 12)
	require.NoError(t, f.store.SaveActor(ctx, actorNPC))

	result, err := f.gate.ProposeSpend(ctx, arbiter, "actor_npc", "msg_1", 2)
	require.NoError(t, err)

	assert.True(t, result.Applied)
	assert.Equal(t, 1, result.NewBalance)
	assert.Equal(t, 14, result.NewTotal)
	assert.Empty(t, f.bcast.Approvals)
}

func TestCrossActorSpendIsRelayed(t *testing.T) {
	ctx := context.Background()
	f := newFixture(false)

	actorA := testutil.NewActor("actor_a", "Aki", models.ActorKindCharacter, 0, playerA.ID)
	actorB := testutil.NewActor("actor_b", "Bo", models.ActorKindCharacter, 3, playerB.ID)
	f.seedRoll(t, actorA, "msg_1", 12)
	require.NoError(t, f.store.SaveActor(ctx, actorB))

	result, err := f.gate.ProposeSpend(ctx, playerB, "actor_b", "msg_1", 2)
	require.NoError(t, err)

	assert.False(t, result.Applied)
	assert.Equal(t, models.RequestStatusPending, result.Status)
	require.Len(t, f.bcast.Approvals, 1)

	intent := f.bcast.Approvals[0].Intent
	assert.Equal(t, models.ActionSpendTokens, intent.Action)
	assert.Equal(t, "actor_a", intent.RollActorID)
	assert.Equal(t, "actor_b", intent.SpendingActorID)
	assert.Equal(t, 2, intent.TokensToSpend)
	assert.Equal(t, 2, intent.TokenCost)
	assert.Equal(t, "msg_1", intent.RollMessageID)

	// No mutation until the arbiter resolves
	balance, _ := f.ledger.Balance(ctx, "actor_b")
	assert.Equal(t, 3, balance)
	msg, _ := f.rolls.Get(ctx, "msg_1")
	assert.Equal(t, 0, msg.TokensSpent)
}

func TestProposeSpendRequiresOwnership(t *testing.T) {
	ctx := context.Background()
	f := newFixture(false)

	actorA := testutil.NewActor("actor_a", "Aki", models.ActorKindCharacter, 0, playerA.ID)
	actorB := testutil.NewActor("actor_b", "Bo", models.ActorKindCharacter, 3, playerB.ID)
	f.seedRoll(t, actorA, "msg_1", 12)
	require.NoError(t, f.store.SaveActor(ctx, actorB))

	// C owns neither actor and is not the GM
	_, err := f.gate.ProposeSpend(ctx, playerC, "actor_b", "msg_1", 1)
	require.ErrorIs(t, err, models.ErrNotOwner)

	// Nothing relayed, nothing moved
	assert.Empty(t, f.bcast.Approvals)
	balance, _ := f.ledger.Balance(ctx, "actor_b")
	assert.Equal(t, 3, balance)
}

func TestProposeSpendRejectsNonPositiveAmount(t *testing.T) {
	ctx := context.Background()
	f := newFixture(false)

	actorA := testutil.NewActor("actor_a", "Aki", models.ActorKindCharacter, 5, playerA.ID)
	f.seedRoll(t, actorA, "msg_1", 12)

	_, err := f.gate.ProposeSpend(ctx, playerA, "actor_a", "msg_1", 0)
	assert.ErrorIs(t, err, models.ErrInvalidSpendAmount)

	_, err = f.gate.ProposeSpend(ctx, playerA, "actor_a", "msg_1", -2)
	assert.ErrorIs(t, err, models.ErrInvalidSpendAmount)
}
