// Package evolution implements the approval-gated queue for proposed trait
// and relationship changes. Nothing here mutates world state; a proposal
// only becomes authoritative once the narrator resolves it elsewhere.
package evolution

import (
	"context"
	"errors"
	"time"

	"reckoning/internal/event"
)

// Type discriminates the proposal payload: trait proposals carry a trait
// name, relationship proposals carry target/dimension/value fields.
type Type string

const (
	TraitAdd           Type = "trait_add"
	TraitRemove        Type = "trait_remove"
	RelationshipChange Type = "relationship_change"
)

// Status tracks narrator review. Transitions out of pending are one-way in
// normal operation; Resolve deliberately permits overwriting a terminal
// status as a narrator correction.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusEdited   Status = "edited"
	StatusRefused  Status = "refused"
)

// Dimension is one bounded [0,1] relationship axis.
type Dimension string

const (
	DimensionTrust      Dimension = "trust"
	DimensionRespect    Dimension = "respect"
	DimensionAffection  Dimension = "affection"
	DimensionFear       Dimension = "fear"
	DimensionResentment Dimension = "resentment"
	DimensionDebt       Dimension = "debt"
)

var dimensions = map[Dimension]struct{}{
	DimensionTrust:      {},
	DimensionRespect:    {},
	DimensionAffection:  {},
	DimensionFear:       {},
	DimensionResentment: {},
	DimensionDebt:       {},
}

// ValidDimension reports whether d is a known relationship axis.
func ValidDimension(d Dimension) bool {
	_, ok := dimensions[d]
	return ok
}

var (
	ErrGameIDRequired            = errors.New("game id is required")
	ErrEntityRequired            = errors.New("entity type and id are required")
	ErrUnknownType               = errors.New("unknown evolution type")
	ErrTraitRequired             = errors.New("trait is required for trait proposals")
	ErrTraitNotAllowed           = errors.New("trait must be empty for relationship proposals")
	ErrRelationshipRequired      = errors.New("target and dimension are required for relationship proposals")
	ErrRelationshipNotAllowed    = errors.New("relationship fields must be empty for trait proposals")
	ErrUnknownDimension          = errors.New("unknown relationship dimension")
	ErrInvalidResolution         = errors.New("resolution status must be approved, edited, or refused")
	ErrStoreNotConfigured        = errors.New("evolution store is not configured")
	ErrUpdateOnResolvedEvolution = errors.New("only pending evolutions may be updated")
)

// PendingEvolution is one proposed world-state change awaiting review.
// Exactly one payload shape is populated, matching Type.
type PendingEvolution struct {
	ID         string
	GameID     string
	Turn       int
	Type       Type
	EntityType event.EntityType
	EntityID   string

	// Trait payload (trait_add, trait_remove).
	Trait string

	// Relationship payload (relationship_change).
	TargetType event.EntityType
	TargetID   string
	Dimension  Dimension
	OldValue   float64
	NewValue   float64

	Reason        string
	SourceEventID string
	Status        Status
	DMNotes       string
	CreatedAt     time.Time
	ResolvedAt    *time.Time
}

// CreateInput carries a new proposal. ID, status, and timestamps are
// assigned by the queue.
type CreateInput struct {
	GameID        string
	Turn          int
	Type          Type
	EntityType    event.EntityType
	EntityID      string
	Trait         string
	TargetType    event.EntityType
	TargetID      string
	Dimension     Dimension
	OldValue      float64
	NewValue      float64
	Reason        string
	SourceEventID string
}

// Resolution is the narrator's verdict on a proposal.
type Resolution struct {
	Status  Status
	DMNotes string
}

// UpdateInput merges provided fields over a pending record; nil fields keep
// their current value.
type UpdateInput struct {
	Trait     *string
	Dimension *Dimension
	OldValue  *float64
	NewValue  *float64
	Reason    *string
	DMNotes   *string
}

// Store is the persistence boundary for proposals. Listings are ordered by
// (turn ascending, created_at ascending) — narrative order, not insertion
// order.
type Store interface {
	PutEvolution(ctx context.Context, e PendingEvolution) error
	GetEvolution(ctx context.Context, id string) (*PendingEvolution, error)
	ListEvolutionsByGame(ctx context.Context, gameID string, status Status) ([]PendingEvolution, error)
	UpdateEvolution(ctx context.Context, e PendingEvolution) error
	DeleteEvolutionsByGame(ctx context.Context, gameID string) (int64, error)
}
