package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"reckoning/internal/action"
	"reckoning/internal/emergence"
	"reckoning/internal/event"
	"reckoning/internal/evolution"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	ctx := context.Background()
	dsn := "sqlite://" + filepath.Join(t.TempDir(), "test.db")
	client, err := New(ctx, dsn)
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(func() { client.Close(ctx) })
	if err := client.EnsureSchema(ctx); err != nil {
		t.Fatalf("ensuring schema: %v", err)
	}
	return client
}

func TestParseDSN(t *testing.T) {
	cases := []struct {
		dsn  string
		want string
		err  bool
	}{
		{dsn: "sqlite://:memory:", want: ":memory:"},
		{dsn: "sqlite:///tmp/reckoning.db", want: "/tmp/reckoning.db"},
		{dsn: "sqlite://./reckoning.db", want: "./reckoning.db"},
		{dsn: "sqlite://reckoning.db", want: "./reckoning.db"},
		{dsn: "sqlite://reckoning.db?mode=ro", want: "./reckoning.db?mode=ro"},
		{dsn: "postgres://localhost/reckoning", err: true},
	}
	for _, tc := range cases {
		got, err := parseDSN(tc.dsn)
		if tc.err {
			if err == nil {
				t.Errorf("parseDSN(%q): expected error", tc.dsn)
			}
			continue
		}
		if err != nil {
			t.Errorf("parseDSN(%q): %v", tc.dsn, err)
			continue
		}
		if got != tc.want {
			t.Errorf("parseDSN(%q) = %q, want %q", tc.dsn, got, tc.want)
		}
	}
}

func TestEventRoundTrip(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)

	ev := event.Event{
		ID:        "ev-1",
		GameID:    "game-1",
		Turn:      3,
		Timestamp: time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC),
		EventType: event.TypeNPCAction,
		Content:   "The guard lowers his blade and lets the thief run.",
		Speaker:   "Guard",
	}
	ev.Action = action.SpareEnemy
	ev.ActorType = event.EntityNPC
	ev.ActorID = "guard"
	ev.TargetType = event.EntityNPC
	ev.TargetID = "thief"
	ev.Witnesses = []string{"baker"}
	ev.Tags = []string{"mercy", "spare_enemy"}

	if err := client.PutEvent(ctx, ev); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, err := client.GetEvent(ctx, "ev-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil {
		t.Fatalf("expected event")
	}
	if got.Action != action.SpareEnemy || got.ActorID != "guard" || got.TargetID != "thief" {
		t.Fatalf("unexpected event: %+v", got)
	}
	if len(got.Witnesses) != 1 || got.Witnesses[0] != "baker" {
		t.Fatalf("unexpected witnesses: %v", got.Witnesses)
	}
	if !got.Timestamp.Equal(ev.Timestamp) {
		t.Fatalf("timestamp mismatch: %v vs %v", got.Timestamp, ev.Timestamp)
	}

	missing, err := client.GetEvent(ctx, "nope")
	if err != nil || missing != nil {
		t.Fatalf("expected nil/nil for unknown id, got %+v/%v", missing, err)
	}
}

func TestListEventsByActorOrder(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)

	base := time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		ev := event.Event{
			ID:        string(rune('a' + i)),
			GameID:    "game-1",
			Turn:      i + 1,
			Timestamp: base.Add(time.Duration(i) * time.Minute),
			EventType: event.TypeNPCAction,
		}
		ev.ActorType = event.EntityNPC
		ev.ActorID = "guard"
		if err := client.PutEvent(ctx, ev); err != nil {
			t.Fatalf("put %d: %v", i, err)
		}
	}

	recent, err := client.ListEventsByActor(ctx, "game-1", "guard", 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("expected two events, got %d", len(recent))
	}
	if recent[0].Turn != 3 || recent[1].Turn != 2 {
		t.Fatalf("expected most recent first, got turns %d, %d", recent[0].Turn, recent[1].Turn)
	}
}

func TestEvolutionRoundTrip(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)

	created := time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)
	e := evolution.PendingEvolution{
		ID:         "evo-1",
		GameID:     "game-1",
		Turn:       2,
		Type:       evolution.RelationshipChange,
		EntityType: event.EntityNPC,
		EntityID:   "guard",
		TargetType: event.EntityPlayer,
		TargetID:   "player",
		Dimension:  evolution.DimensionTrust,
		OldValue:   0.4,
		NewValue:   0.6,
		Reason:     "the player kept their word",
		Status:     evolution.StatusPending,
		CreatedAt:  created,
	}
	if err := client.PutEvolution(ctx, e); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, err := client.GetEvolution(ctx, "evo-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil || got.Dimension != evolution.DimensionTrust || got.NewValue != 0.6 {
		t.Fatalf("unexpected evolution: %+v", got)
	}
	if got.ResolvedAt != nil {
		t.Fatalf("expected nil resolvedAt")
	}

	resolved := created.Add(time.Hour)
	got.Status = evolution.StatusApproved
	got.ResolvedAt = &resolved
	if err := client.UpdateEvolution(ctx, *got); err != nil {
		t.Fatalf("update: %v", err)
	}

	updated, err := client.GetEvolution(ctx, "evo-1")
	if err != nil {
		t.Fatalf("get updated: %v", err)
	}
	if updated.Status != evolution.StatusApproved || updated.ResolvedAt == nil || !updated.ResolvedAt.Equal(resolved) {
		t.Fatalf("unexpected updated evolution: %+v", updated)
	}
}

func TestListEvolutionsByGameFilters(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)

	base := time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)
	put := func(id string, turn int, status evolution.Status) {
		t.Helper()
		e := evolution.PendingEvolution{
			ID:         id,
			GameID:     "game-1",
			Turn:       turn,
			Type:       evolution.TraitAdd,
			EntityType: event.EntityNPC,
			EntityID:   "guard",
			Trait:      "merciful",
			Status:     status,
			CreatedAt:  base.Add(time.Duration(turn) * time.Minute),
		}
		if err := client.PutEvolution(ctx, e); err != nil {
			t.Fatalf("put %s: %v", id, err)
		}
	}
	put("evo-b", 5, evolution.StatusPending)
	put("evo-a", 1, evolution.StatusPending)
	put("evo-c", 3, evolution.StatusApproved)

	pending, err := client.ListEvolutionsByGame(ctx, "game-1", evolution.StatusPending)
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(pending) != 2 || pending[0].ID != "evo-a" || pending[1].ID != "evo-b" {
		t.Fatalf("unexpected pending listing: %+v", pending)
	}

	all, err := client.ListEvolutionsByGame(ctx, "game-1", "")
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 3 || all[1].ID != "evo-c" {
		t.Fatalf("unexpected full listing: %+v", all)
	}
}

func TestNotificationDedupIndex(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)

	created := time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)
	n := emergence.Notification{
		ID:            "not-1",
		GameID:        "game-1",
		EmergenceType: "slayer",
		Entity:        emergence.Entity{Type: event.EntityNPC, ID: "guard"},
		Confidence:    0.8,
		ContributingFactors: []emergence.Factor{
			{Dimension: "role_streak", Value: 4, Threshold: 3},
		},
		Status:    emergence.StatusPending,
		CreatedAt: created,
	}
	if err := client.PutNotification(ctx, n); err != nil {
		t.Fatalf("put: %v", err)
	}

	dup := n
	dup.ID = "not-2"
	if err := client.PutNotification(ctx, dup); err == nil {
		t.Fatalf("expected unique index violation for duplicate pending notification")
	}

	pending, err := client.GetPendingNotification(ctx, "game-1", "guard", "slayer")
	if err != nil {
		t.Fatalf("get pending: %v", err)
	}
	if pending == nil || pending.ID != "not-1" {
		t.Fatalf("unexpected pending notification: %+v", pending)
	}
	if len(pending.ContributingFactors) != 1 || pending.ContributingFactors[0].Value != 4 {
		t.Fatalf("unexpected factors: %+v", pending.ContributingFactors)
	}

	resolved := created.Add(time.Hour)
	pending.Status = emergence.StatusAcknowledged
	pending.ResolvedAt = &resolved
	if err := client.UpdateNotification(ctx, *pending); err != nil {
		t.Fatalf("update: %v", err)
	}

	// Once resolved, a new pending notification for the same key is allowed.
	if err := client.PutNotification(ctx, dup); err != nil {
		t.Fatalf("put after resolve: %v", err)
	}

	listed, err := client.ListNotificationsByGame(ctx, "game-1", true, 0)
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(listed) != 1 || listed[0].ID != "not-2" {
		t.Fatalf("unexpected pending listing: %+v", listed)
	}
}

func TestDeleteGame(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)

	now := time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)
	ev := event.Event{ID: "ev-1", GameID: "game-1", Timestamp: now, EventType: event.TypeNarration}
	if err := client.PutEvent(ctx, ev); err != nil {
		t.Fatalf("put event: %v", err)
	}
	other := event.Event{ID: "ev-2", GameID: "game-2", Timestamp: now, EventType: event.TypeNarration}
	if err := client.PutEvent(ctx, other); err != nil {
		t.Fatalf("put other event: %v", err)
	}
	e := evolution.PendingEvolution{
		ID: "evo-1", GameID: "game-1", Type: evolution.TraitAdd,
		EntityType: event.EntityNPC, EntityID: "guard", Trait: "merciful",
		Status: evolution.StatusPending, CreatedAt: now,
	}
	if err := client.PutEvolution(ctx, e); err != nil {
		t.Fatalf("put evolution: %v", err)
	}

	deleted, err := client.DeleteGame(ctx, "game-1")
	if err != nil {
		t.Fatalf("delete game: %v", err)
	}
	if deleted != 2 {
		t.Fatalf("expected two rows deleted, got %d", deleted)
	}

	kept, err := client.GetEvent(ctx, "ev-2")
	if err != nil || kept == nil {
		t.Fatalf("expected game-2 event to survive, got %+v/%v", kept, err)
	}
}
