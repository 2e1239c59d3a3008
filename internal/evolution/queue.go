package evolution

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Queue gates world-state mutation behind narrator review. It owns proposal
// validation and lifecycle stamps; persistence failures propagate unchanged.
type Queue struct {
	store Store
	clock func() time.Time
	newID func() string
}

func NewQueue(store Store) *Queue {
	return &Queue{
		store: store,
		clock: time.Now,
		newID: uuid.NewString,
	}
}

// Create validates the type/payload pairing, persists the proposal with
// status pending, and returns the stored record. Durability is established
// before Create returns.
func (q *Queue) Create(ctx context.Context, input CreateInput) (*PendingEvolution, error) {
	if q == nil || q.store == nil {
		return nil, ErrStoreNotConfigured
	}
	if err := validateCreate(input); err != nil {
		return nil, err
	}

	record := PendingEvolution{
		ID:            q.newID(),
		GameID:        strings.TrimSpace(input.GameID),
		Turn:          input.Turn,
		Type:          input.Type,
		EntityType:    input.EntityType,
		EntityID:      strings.TrimSpace(input.EntityID),
		Reason:        input.Reason,
		SourceEventID: input.SourceEventID,
		Status:        StatusPending,
		CreatedAt:     q.clock().UTC(),
	}
	switch input.Type {
	case TraitAdd, TraitRemove:
		record.Trait = strings.TrimSpace(input.Trait)
	case RelationshipChange:
		record.TargetType = input.TargetType
		record.TargetID = strings.TrimSpace(input.TargetID)
		record.Dimension = input.Dimension
		record.OldValue = clampDimensionValue(input.OldValue)
		record.NewValue = clampDimensionValue(input.NewValue)
	}

	if err := q.store.PutEvolution(ctx, record); err != nil {
		return nil, fmt.Errorf("persisting evolution: %w", err)
	}
	return &record, nil
}

// FindPending lists a game's proposals with the given status, defaulting to
// pending, in narrative order.
func (q *Queue) FindPending(ctx context.Context, gameID string, status Status) ([]PendingEvolution, error) {
	if status == "" {
		status = StatusPending
	}
	return q.store.ListEvolutionsByGame(ctx, gameID, status)
}

// FindByGame lists every proposal for a game regardless of status.
func (q *Queue) FindByGame(ctx context.Context, gameID string) ([]PendingEvolution, error) {
	return q.store.ListEvolutionsByGame(ctx, gameID, "")
}

// Get returns one proposal, or nil when the id is unknown.
func (q *Queue) Get(ctx context.Context, id string) (*PendingEvolution, error) {
	return q.store.GetEvolution(ctx, id)
}

// Resolve records the narrator's verdict and stamps resolvedAt. An unknown
// id returns (nil, nil) so callers can tell "already gone" from a hard
// failure. Re-resolving a terminal record overwrites the prior verdict.
func (q *Queue) Resolve(ctx context.Context, id string, resolution Resolution) (*PendingEvolution, error) {
	switch resolution.Status {
	case StatusApproved, StatusEdited, StatusRefused:
	default:
		return nil, ErrInvalidResolution
	}

	record, err := q.store.GetEvolution(ctx, id)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, nil
	}

	now := q.clock().UTC()
	record.Status = resolution.Status
	record.DMNotes = resolution.DMNotes
	record.ResolvedAt = &now
	if err := q.store.UpdateEvolution(ctx, *record); err != nil {
		return nil, fmt.Errorf("resolving evolution: %w", err)
	}
	return record, nil
}

// Update merges the provided fields over a still-pending record. Omitted
// fields keep their current values. Unknown ids return (nil, nil).
func (q *Queue) Update(ctx context.Context, id string, input UpdateInput) (*PendingEvolution, error) {
	record, err := q.store.GetEvolution(ctx, id)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, nil
	}
	if record.Status != StatusPending {
		return nil, ErrUpdateOnResolvedEvolution
	}

	if input.Trait != nil {
		record.Trait = *input.Trait
	}
	if input.Dimension != nil {
		if !ValidDimension(*input.Dimension) {
			return nil, ErrUnknownDimension
		}
		record.Dimension = *input.Dimension
	}
	if input.OldValue != nil {
		record.OldValue = clampDimensionValue(*input.OldValue)
	}
	if input.NewValue != nil {
		record.NewValue = clampDimensionValue(*input.NewValue)
	}
	if input.Reason != nil {
		record.Reason = *input.Reason
	}
	if input.DMNotes != nil {
		record.DMNotes = *input.DMNotes
	}

	if err := q.store.UpdateEvolution(ctx, *record); err != nil {
		return nil, fmt.Errorf("updating evolution: %w", err)
	}
	return record, nil
}

// DeleteByGame removes every proposal for a game. Used on game teardown.
func (q *Queue) DeleteByGame(ctx context.Context, gameID string) (int64, error) {
	return q.store.DeleteEvolutionsByGame(ctx, gameID)
}

func validateCreate(input CreateInput) error {
	if strings.TrimSpace(input.GameID) == "" {
		return ErrGameIDRequired
	}
	if input.EntityType == "" || strings.TrimSpace(input.EntityID) == "" {
		return ErrEntityRequired
	}

	switch input.Type {
	case TraitAdd, TraitRemove:
		if strings.TrimSpace(input.Trait) == "" {
			return ErrTraitRequired
		}
		if input.TargetID != "" || input.TargetType != "" || input.Dimension != "" {
			return ErrRelationshipNotAllowed
		}
	case RelationshipChange:
		if strings.TrimSpace(input.Trait) != "" {
			return ErrTraitNotAllowed
		}
		if input.TargetType == "" || strings.TrimSpace(input.TargetID) == "" || input.Dimension == "" {
			return ErrRelationshipRequired
		}
		if !ValidDimension(input.Dimension) {
			return ErrUnknownDimension
		}
	default:
		return ErrUnknownType
	}
	return nil
}

// clampDimensionValue keeps relationship values on their bounded [0,1] axis.
func clampDimensionValue(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
