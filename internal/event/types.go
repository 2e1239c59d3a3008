// Package event holds the canonical structured-event model and the builder
// that derives structured fields from free-form narration.
package event

import (
	"context"
	"strings"
	"time"

	"reckoning/internal/action"
)

// EntityType identifies what kind of entity an actor or target is.
type EntityType string

const (
	EntityNPC         EntityType = "npc"
	EntityPlayer      EntityType = "player"
	EntityPartyMember EntityType = "party_member"
	EntitySystem      EntityType = "system"
)

// EventType identifies where a narrative event originated.
type EventType string

const (
	TypeNPCDialogue   EventType = "npc_dialogue"
	TypeNPCAction     EventType = "npc_action"
	TypePartyDialogue EventType = "party_dialogue"
	TypePartyAction   EventType = "party_action"
	TypeNarration     EventType = "narration"
	TypeEnvironment   EventType = "environment"
	TypeDMInjection   EventType = "dm_injection"
)

func npcOriginated(t EventType) bool {
	return t == TypeNPCDialogue || t == TypeNPCAction
}

func partyOriginated(t EventType) bool {
	return t == TypePartyDialogue || t == TypePartyAction
}

// StructuredData is the classified portion of an event: who did what to
// whom, who saw it, and how it is tagged.
type StructuredData struct {
	Action     action.Action
	ActorType  EntityType
	ActorID    string
	TargetType EntityType
	TargetID   string
	Witnesses  []string
	Tags       []string
}

// Event is the durable record of something that happened. It is created once
// by the commit pipeline and never mutated afterwards.
type Event struct {
	ID         string
	GameID     string
	Turn       int
	Timestamp  time.Time
	EventType  EventType
	Content    string
	Speaker    string
	LocationID string
	StructuredData
}

// Metadata is the optional AI-supplied structure accompanying generated
// narration. Populated fields take priority over content inference.
type Metadata struct {
	Action     action.Action
	TargetType EntityType
	TargetID   string
	Tags       []string
}

// Presence is an entity present in the scene, eligible as target or witness.
type Presence struct {
	ID   string
	Name string
}

// Store is the persistence boundary for committed events. Listings by actor
// return the most recent events first.
type Store interface {
	PutEvent(ctx context.Context, ev Event) error
	GetEvent(ctx context.Context, id string) (*Event, error)
	ListEventsByGame(ctx context.Context, gameID string, limit int) ([]Event, error)
	ListEventsByActor(ctx context.Context, gameID, actorID string, limit int) ([]Event, error)
	DeleteEventsByGame(ctx context.Context, gameID string) (int64, error)
}

// NormalizeName lowercases a display name and collapses non-alphanumeric
// runs to single underscores: "Captain Aldric the Bold" -> "captain_aldric_the_bold".
func NormalizeName(name string) string {
	var b strings.Builder
	pendingSep := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		alnum := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
		if !alnum {
			pendingSep = b.Len() > 0
			continue
		}
		if pendingSep {
			b.WriteByte('_')
			pendingSep = false
		}
		b.WriteRune(r)
	}
	return b.String()
}
