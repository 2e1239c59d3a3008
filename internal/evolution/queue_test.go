package evolution

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"reckoning/internal/event"
)

type memStore struct {
	records map[string]PendingEvolution
	order   []string
}

func newMemStore() *memStore {
	return &memStore{records: make(map[string]PendingEvolution)}
}

func (m *memStore) PutEvolution(ctx context.Context, e PendingEvolution) error {
	m.records[e.ID] = e
	m.order = append(m.order, e.ID)
	return nil
}

func (m *memStore) GetEvolution(ctx context.Context, id string) (*PendingEvolution, error) {
	e, ok := m.records[id]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

func (m *memStore) ListEvolutionsByGame(ctx context.Context, gameID string, status Status) ([]PendingEvolution, error) {
	var out []PendingEvolution
	for _, id := range m.order {
		e := m.records[id]
		if e.GameID != gameID {
			continue
		}
		if status != "" && e.Status != status {
			continue
		}
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Turn != out[j].Turn {
			return out[i].Turn < out[j].Turn
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (m *memStore) UpdateEvolution(ctx context.Context, e PendingEvolution) error {
	if _, ok := m.records[e.ID]; !ok {
		return errors.New("missing record")
	}
	m.records[e.ID] = e
	return nil
}

func (m *memStore) DeleteEvolutionsByGame(ctx context.Context, gameID string) (int64, error) {
	var deleted int64
	for id, e := range m.records {
		if e.GameID == gameID {
			delete(m.records, id)
			deleted++
		}
	}
	return deleted, nil
}

func traitInput() CreateInput {
	return CreateInput{
		GameID:     "game-1",
		Turn:       3,
		Type:       TraitAdd,
		EntityType: event.EntityNPC,
		EntityID:   "guard",
		Trait:      "suspicious",
		Reason:     "kept watching the party",
	}
}

func relationshipInput() CreateInput {
	return CreateInput{
		GameID:     "game-1",
		Turn:       4,
		Type:       RelationshipChange,
		EntityType: event.EntityNPC,
		EntityID:   "guard",
		TargetType: event.EntityPlayer,
		TargetID:   "player",
		Dimension:  DimensionTrust,
		OldValue:   0.4,
		NewValue:   0.7,
		Reason:     "the party spared him",
	}
}

func TestQueueCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("trait proposal", func(t *testing.T) {
		q := NewQueue(newMemStore())
		record, err := q.Create(ctx, traitInput())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if record.ID == "" {
			t.Fatalf("expected assigned id")
		}
		if record.Status != StatusPending {
			t.Fatalf("expected pending status, got %q", record.Status)
		}
		if record.CreatedAt.IsZero() {
			t.Fatalf("expected createdAt stamp")
		}
		if record.ResolvedAt != nil {
			t.Fatalf("unexpected resolvedAt on create")
		}
		if record.TargetID != "" || record.Dimension != "" {
			t.Fatalf("trait proposal must not carry relationship fields")
		}
	})

	t.Run("relationship proposal", func(t *testing.T) {
		q := NewQueue(newMemStore())
		record, err := q.Create(ctx, relationshipInput())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if record.Trait != "" {
			t.Fatalf("relationship proposal must not carry a trait")
		}
		if record.Dimension != DimensionTrust || record.NewValue != 0.7 {
			t.Fatalf("unexpected payload: %+v", record)
		}
	})

	t.Run("relationship values are clamped", func(t *testing.T) {
		q := NewQueue(newMemStore())
		input := relationshipInput()
		input.OldValue = -0.5
		input.NewValue = 1.5
		record, err := q.Create(ctx, input)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if record.OldValue != 0 || record.NewValue != 1 {
			t.Fatalf("expected clamped values, got %v/%v", record.OldValue, record.NewValue)
		}
	})

	t.Run("payload validation", func(t *testing.T) {
		q := NewQueue(newMemStore())

		input := traitInput()
		input.Trait = ""
		if _, err := q.Create(ctx, input); !errors.Is(err, ErrTraitRequired) {
			t.Fatalf("expected ErrTraitRequired, got %v", err)
		}

		input = traitInput()
		input.TargetID = "player"
		input.TargetType = event.EntityPlayer
		if _, err := q.Create(ctx, input); !errors.Is(err, ErrRelationshipNotAllowed) {
			t.Fatalf("expected ErrRelationshipNotAllowed, got %v", err)
		}

		input = relationshipInput()
		input.Trait = "brave"
		if _, err := q.Create(ctx, input); !errors.Is(err, ErrTraitNotAllowed) {
			t.Fatalf("expected ErrTraitNotAllowed, got %v", err)
		}

		input = relationshipInput()
		input.Dimension = ""
		if _, err := q.Create(ctx, input); !errors.Is(err, ErrRelationshipRequired) {
			t.Fatalf("expected ErrRelationshipRequired, got %v", err)
		}

		input = relationshipInput()
		input.Dimension = Dimension("vibes")
		if _, err := q.Create(ctx, input); !errors.Is(err, ErrUnknownDimension) {
			t.Fatalf("expected ErrUnknownDimension, got %v", err)
		}

		input = traitInput()
		input.Type = Type("trait_mangle")
		if _, err := q.Create(ctx, input); !errors.Is(err, ErrUnknownType) {
			t.Fatalf("expected ErrUnknownType, got %v", err)
		}

		input = traitInput()
		input.GameID = " "
		if _, err := q.Create(ctx, input); !errors.Is(err, ErrGameIDRequired) {
			t.Fatalf("expected ErrGameIDRequired, got %v", err)
		}
	})
}

func TestQueueOrdering(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	q := NewQueue(store)
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	stamps := []time.Time{base.Add(2 * time.Hour), base, base.Add(time.Hour)}
	i := 0
	q.clock = func() time.Time {
		t := stamps[i%len(stamps)]
		i++
		return t
	}

	turns := []int{5, 2, 2}
	for _, turn := range turns {
		input := traitInput()
		input.Turn = turn
		if _, err := q.Create(ctx, input); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	records, err := q.FindPending(ctx, "game-1", "")
	if err != nil {
		t.Fatalf("find pending: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
	// Narrative order: turn 2 @10:00, turn 2 @11:00, turn 5 @12:00.
	if records[0].Turn != 2 || !records[0].CreatedAt.Equal(base) {
		t.Fatalf("unexpected first record: %+v", records[0])
	}
	if records[1].Turn != 2 || !records[1].CreatedAt.Equal(base.Add(time.Hour)) {
		t.Fatalf("unexpected second record: %+v", records[1])
	}
	if records[2].Turn != 5 {
		t.Fatalf("unexpected third record: %+v", records[2])
	}
}

func TestQueueResolve(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown id returns nil without error", func(t *testing.T) {
		q := NewQueue(newMemStore())
		record, err := q.Resolve(ctx, "nonexistent", Resolution{Status: StatusApproved})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if record != nil {
			t.Fatalf("expected nil record, got %+v", record)
		}
	})

	t.Run("stamps verdict and resolvedAt", func(t *testing.T) {
		q := NewQueue(newMemStore())
		created, err := q.Create(ctx, traitInput())
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		resolved, err := q.Resolve(ctx, created.ID, Resolution{Status: StatusRefused, DMNotes: "not yet"})
		if err != nil {
			t.Fatalf("resolve: %v", err)
		}
		if resolved.Status != StatusRefused || resolved.DMNotes != "not yet" {
			t.Fatalf("unexpected resolution: %+v", resolved)
		}
		if resolved.ResolvedAt == nil {
			t.Fatalf("expected resolvedAt stamp")
		}
	})

	t.Run("invalid resolution status", func(t *testing.T) {
		q := NewQueue(newMemStore())
		created, _ := q.Create(ctx, traitInput())
		if _, err := q.Resolve(ctx, created.ID, Resolution{Status: StatusPending}); !errors.Is(err, ErrInvalidResolution) {
			t.Fatalf("expected ErrInvalidResolution, got %v", err)
		}
	})

	t.Run("re-resolution overwrites the prior verdict", func(t *testing.T) {
		q := NewQueue(newMemStore())
		created, _ := q.Create(ctx, traitInput())
		if _, err := q.Resolve(ctx, created.ID, Resolution{Status: StatusRefused}); err != nil {
			t.Fatalf("first resolve: %v", err)
		}
		corrected, err := q.Resolve(ctx, created.ID, Resolution{Status: StatusApproved, DMNotes: "changed my mind"})
		if err != nil {
			t.Fatalf("second resolve: %v", err)
		}
		if corrected.Status != StatusApproved {
			t.Fatalf("expected approved after correction, got %q", corrected.Status)
		}
	})
}

func TestQueueUpdate(t *testing.T) {
	ctx := context.Background()

	t.Run("merges provided fields only", func(t *testing.T) {
		q := NewQueue(newMemStore())
		created, _ := q.Create(ctx, relationshipInput())

		newValue := 0.9
		reason := "stronger than first thought"
		updated, err := q.Update(ctx, created.ID, UpdateInput{NewValue: &newValue, Reason: &reason})
		if err != nil {
			t.Fatalf("update: %v", err)
		}
		if updated.NewValue != 0.9 || updated.Reason != reason {
			t.Fatalf("unexpected merge: %+v", updated)
		}
		if updated.OldValue != 0.4 || updated.Dimension != DimensionTrust {
			t.Fatalf("omitted fields must keep current values: %+v", updated)
		}
	})

	t.Run("unknown id returns nil", func(t *testing.T) {
		q := NewQueue(newMemStore())
		record, err := q.Update(ctx, "nonexistent", UpdateInput{})
		if err != nil || record != nil {
			t.Fatalf("expected nil/nil, got %+v/%v", record, err)
		}
	})

	t.Run("resolved records reject updates", func(t *testing.T) {
		q := NewQueue(newMemStore())
		created, _ := q.Create(ctx, traitInput())
		if _, err := q.Resolve(ctx, created.ID, Resolution{Status: StatusApproved}); err != nil {
			t.Fatalf("resolve: %v", err)
		}
		trait := "brave"
		if _, err := q.Update(ctx, created.ID, UpdateInput{Trait: &trait}); !errors.Is(err, ErrUpdateOnResolvedEvolution) {
			t.Fatalf("expected ErrUpdateOnResolvedEvolution, got %v", err)
		}
	})
}

func TestQueueDeleteByGame(t *testing.T) {
	ctx := context.Background()
	q := NewQueue(newMemStore())
	if _, err := q.Create(ctx, traitInput()); err != nil {
		t.Fatalf("create: %v", err)
	}
	other := traitInput()
	other.GameID = "game-2"
	if _, err := q.Create(ctx, other); err != nil {
		t.Fatalf("create: %v", err)
	}

	deleted, err := q.DeleteByGame(ctx, "game-1")
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if deleted != 1 {
		t.Fatalf("expected 1 deleted, got %d", deleted)
	}
	remaining, _ := q.FindByGame(ctx, "game-2")
	if len(remaining) != 1 {
		t.Fatalf("expected game-2 untouched, got %d", len(remaining))
	}
}
