package models

import "time"

type ActorKind string

const (
	ActorKindCharacter ActorKind = "character"
	ActorKindNPC       ActorKind = "npc"
)

// Actor is a character in the session. AdversityTokens is only ever
// mutated through the token ledger, never written directly.
type Actor struct {
	ID              string         `json:"id" redis:"id"`
	Name            string         `json:"name" redis:"name"`
	Kind            ActorKind      `json:"kind" redis:"kind"`
	Stats           map[string]int `json:"stats" redis:"stats"`
	AdversityTokens int            `json:"adversityTokens" redis:"adversity_tokens"`
	OwnerIDs        []string       `json:"owner_ids" redis:"owner_ids"`
	CreatedAt       time.Time      `json:"created_at" redis:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at" redis:"updated_at"`
}

// KindKnown reports whether the actor kind is one the roll pipeline
// understands. Rolls against unknown kinds are aborted.
func (a *Actor) KindKnown() bool {
	return a.Kind == ActorKindCharacter || a.Kind == ActorKindNPC
}

// OwnedBy reports whether the participant has ownership rights over
// this actor.
func (a *Actor) OwnedBy(participantID string) bool {
	for _, id := range a.OwnerIDs {
		if id == participantID {
			return true
		}
	}
	return false
}

// StatValue is the canonical attribute lookup for rolls. PCs and NPCs
// share one stats map; a missing stat contributes zero.
func (a *Actor) StatValue(name string) int {
	return a.Stats[name]
}

// Participant is a connected client identity as carried in the session
// token: a player, or the arbiter when GM is set.
type Participant struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	GM   bool   `json:"gm"`
}
