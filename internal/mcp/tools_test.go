package mcp

import (
	"context"
	"sort"
	"testing"

	"reckoning/internal/action"
	"reckoning/internal/emergence"
	"reckoning/internal/event"
	"reckoning/internal/evolution"
)

type memEventStore struct {
	events []event.Event
}

func (m *memEventStore) PutEvent(ctx context.Context, ev event.Event) error {
	m.events = append(m.events, ev)
	return nil
}

func (m *memEventStore) GetEvent(ctx context.Context, id string) (*event.Event, error) {
	for i := range m.events {
		if m.events[i].ID == id {
			return &m.events[i], nil
		}
	}
	return nil, nil
}

func (m *memEventStore) ListEventsByGame(ctx context.Context, gameID string, limit int) ([]event.Event, error) {
	var out []event.Event
	for _, ev := range m.events {
		if ev.GameID == gameID {
			out = append(out, ev)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memEventStore) ListEventsByActor(ctx context.Context, gameID, actorID string, limit int) ([]event.Event, error) {
	var out []event.Event
	for _, ev := range m.events {
		if ev.GameID == gameID && ev.ActorID == actorID {
			out = append(out, ev)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Turn > out[j].Turn })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memEventStore) DeleteEventsByGame(ctx context.Context, gameID string) (int64, error) {
	kept := m.events[:0]
	var deleted int64
	for _, ev := range m.events {
		if ev.GameID == gameID {
			deleted++
			continue
		}
		kept = append(kept, ev)
	}
	m.events = kept
	return deleted, nil
}

type memEvolutionStore struct {
	records map[string]evolution.PendingEvolution
	order   []string
}

func newMemEvolutionStore() *memEvolutionStore {
	return &memEvolutionStore{records: make(map[string]evolution.PendingEvolution)}
}

func (m *memEvolutionStore) PutEvolution(ctx context.Context, e evolution.PendingEvolution) error {
	m.records[e.ID] = e
	m.order = append(m.order, e.ID)
	return nil
}

func (m *memEvolutionStore) GetEvolution(ctx context.Context, id string) (*evolution.PendingEvolution, error) {
	e, ok := m.records[id]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

func (m *memEvolutionStore) ListEvolutionsByGame(ctx context.Context, gameID string, status evolution.Status) ([]evolution.PendingEvolution, error) {
	var out []evolution.PendingEvolution
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

func (m *memEvolutionStore) UpdateEvolution(ctx context.Context, e evolution.PendingEvolution) error {
	m.records[e.ID] = e
	return nil
}

func (m *memEvolutionStore) DeleteEvolutionsByGame(ctx context.Context, gameID string) (int64, error) {
	var deleted int64
	for id, e := range m.records {
		if e.GameID == gameID {
			delete(m.records, id)
			deleted++
		}
	}
	return deleted, nil
}

type memNotificationStore struct {
	records map[string]emergence.Notification
	order   []string
}

func newMemNotificationStore() *memNotificationStore {
	return &memNotificationStore{records: make(map[string]emergence.Notification)}
}

func (m *memNotificationStore) PutNotification(ctx context.Context, n emergence.Notification) error {
	m.records[n.ID] = n
	m.order = append(m.order, n.ID)
	return nil
}

func (m *memNotificationStore) GetNotification(ctx context.Context, id string) (*emergence.Notification, error) {
	n, ok := m.records[id]
	if !ok {
		return nil, nil
	}
	return &n, nil
}

func (m *memNotificationStore) GetPendingNotification(ctx context.Context, gameID, entityID, emergenceType string) (*emergence.Notification, error) {
	for _, id := range m.order {
		n := m.records[id]
		if n.GameID == gameID && n.Entity.ID == entityID && n.EmergenceType == emergenceType && n.Status == emergence.StatusPending {
			return &n, nil
		}
	}
	return nil, nil
}

func (m *memNotificationStore) ListNotificationsByGame(ctx context.Context, gameID string, pendingOnly bool, limit int) ([]emergence.Notification, error) {
	var out []emergence.Notification
	for _, id := range m.order {
		n := m.records[id]
		if n.GameID != gameID {
			continue
		}
		if pendingOnly && n.Status != emergence.StatusPending {
			continue
		}
		out = append(out, n)
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memNotificationStore) UpdateNotification(ctx context.Context, n emergence.Notification) error {
	m.records[n.ID] = n
	return nil
}

func (m *memNotificationStore) DeleteNotificationsByGame(ctx context.Context, gameID string) (int64, error) {
	var deleted int64
	for id, n := range m.records {
		if n.GameID == gameID {
			delete(m.records, id)
			deleted++
		}
	}
	return deleted, nil
}

func newTestServer() (*Server, *memEventStore) {
	events := &memEventStore{}
	classifier := action.NewClassifier(nil, action.Options{DisableAIFallback: true})
	queue := evolution.NewQueue(newMemEvolutionStore())
	observer := emergence.NewStreakObserver(events)
	emergenceSvc := emergence.NewService(newMemNotificationStore(), observer, nil, nil)
	return NewServer(events, classifier, queue, emergenceSvc, "test"), events
}

func TestClassifyAction(t *testing.T) {
	server, _ := newTestServer()

	_, output, err := server.handleClassifyAction(context.Background(), nil, ClassifyActionInput{
		Content: "The guard sheathes his sword and spares the thief.",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if output.Action != "spare_enemy" || output.Category != "mercy" {
		t.Fatalf("unexpected classification: %+v", output)
	}

	if _, _, err := server.handleClassifyAction(context.Background(), nil, ClassifyActionInput{}); err == nil {
		t.Fatalf("expected error for empty content")
	}
}

func TestCommitEvent(t *testing.T) {
	server, events := newTestServer()

	_, output, err := server.handleCommitEvent(context.Background(), nil, CommitEventInput{
		GameID:    "game-1",
		Turn:      4,
		EventType: "npc_action",
		Content:   "Aldric kills the bandit where he stands.",
		Speaker:   "Aldric",
		NPCsPresent: []PresenceInput{
			{ID: "aldric", Name: "Aldric"},
			{ID: "bandit", Name: "the bandit"},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if output.Event.ID == "" || output.Event.Timestamp == "" {
		t.Fatalf("expected assigned id and timestamp: %+v", output.Event)
	}
	if output.Event.Action != "kill" || output.Event.ActorID != "aldric" {
		t.Fatalf("unexpected structured data: %+v", output.Event)
	}
	if len(events.events) != 1 {
		t.Fatalf("expected one persisted event, got %d", len(events.events))
	}

	if _, _, err := server.handleCommitEvent(context.Background(), nil, CommitEventInput{Content: "x"}); err == nil {
		t.Fatalf("expected error for missing game_id")
	}
}

func TestCommitEventEmergence(t *testing.T) {
	server, _ := newTestServer()
	ctx := context.Background()

	// Two prior violent events plus the trigger crosses the streak threshold.
	for i := 0; i < 2; i++ {
		if _, _, err := server.handleCommitEvent(ctx, nil, CommitEventInput{
			GameID:      "game-1",
			Turn:        i + 1,
			EventType:   "npc_action",
			Content:     "Aldric attacks the caravan guards.",
			Speaker:     "Aldric",
			NPCsPresent: []PresenceInput{{ID: "aldric", Name: "Aldric"}},
		}); err != nil {
			t.Fatalf("commit %d: %v", i, err)
		}
	}

	_, output, err := server.handleCommitEvent(ctx, nil, CommitEventInput{
		GameID:      "game-1",
		Turn:        3,
		EventType:   "npc_action",
		Content:     "Aldric kills the last guard without a word.",
		Speaker:     "Aldric",
		NPCsPresent: []PresenceInput{{ID: "aldric", Name: "Aldric"}},
	})
	if err != nil {
		t.Fatalf("commit trigger: %v", err)
	}
	if len(output.Notifications) != 1 {
		t.Fatalf("expected one notification, got %+v", output.Notifications)
	}
	if output.Notifications[0].EmergenceType != "slayer" || output.Notifications[0].EntityID != "aldric" {
		t.Fatalf("unexpected notification: %+v", output.Notifications[0])
	}
}

func TestEvolutionLifecycle(t *testing.T) {
	server, _ := newTestServer()
	ctx := context.Background()

	_, created, err := server.handleProposeEvolution(ctx, nil, ProposeEvolutionInput{
		GameID:     "game-1",
		Turn:       2,
		Type:       "trait_add",
		EntityType: "npc",
		EntityID:   "guard",
		Trait:      "merciful",
		Reason:     "spared the thief twice",
	})
	if err != nil {
		t.Fatalf("propose: %v", err)
	}
	if created.Status != "pending" || created.Trait != "merciful" {
		t.Fatalf("unexpected proposal: %+v", created)
	}

	_, listed, err := server.handleListEvolutions(ctx, nil, ListEvolutionsInput{GameID: "game-1"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(listed.Evolutions) != 1 || listed.Evolutions[0].ID != created.ID {
		t.Fatalf("unexpected listing: %+v", listed)
	}

	newTrait := "ruthless"
	_, updated, err := server.handleUpdateEvolution(ctx, nil, UpdateEvolutionInput{ID: created.ID, Trait: &newTrait})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Trait != "ruthless" {
		t.Fatalf("unexpected update: %+v", updated)
	}

	_, resolved, err := server.handleResolveEvolution(ctx, nil, ResolveEvolutionInput{
		ID:      created.ID,
		Status:  "approved",
		DMNotes: "fits the arc",
	})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if resolved.Status != "approved" || resolved.ResolvedAt == "" {
		t.Fatalf("unexpected resolution: %+v", resolved)
	}

	_, pending, err := server.handleListEvolutions(ctx, nil, ListEvolutionsInput{GameID: "game-1"})
	if err != nil {
		t.Fatalf("list after resolve: %v", err)
	}
	if len(pending.Evolutions) != 0 {
		t.Fatalf("expected empty pending listing, got %+v", pending)
	}

	_, all, err := server.handleListEvolutions(ctx, nil, ListEvolutionsInput{GameID: "game-1", Status: "all"})
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all.Evolutions) != 1 {
		t.Fatalf("expected one record in full listing, got %+v", all)
	}
}

func TestResolveEvolution_NotFound(t *testing.T) {
	server, _ := newTestServer()
	_, _, err := server.handleResolveEvolution(context.Background(), nil, ResolveEvolutionInput{ID: "missing", Status: "approved"})
	if err == nil {
		t.Fatalf("expected error")
	}
}

func TestNotificationLifecycle(t *testing.T) {
	server, _ := newTestServer()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, _, err := server.handleCommitEvent(ctx, nil, CommitEventInput{
			GameID:      "game-1",
			Turn:        i + 1,
			EventType:   "npc_action",
			Content:     "Aldric kills another guard.",
			Speaker:     "Aldric",
			NPCsPresent: []PresenceInput{{ID: "aldric", Name: "Aldric"}},
		}); err != nil {
			t.Fatalf("commit %d: %v", i, err)
		}
	}

	_, listed, err := server.handleListNotifications(ctx, nil, ListNotificationsInput{GameID: "game-1", PendingOnly: true})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(listed.Notifications) != 1 {
		t.Fatalf("expected one pending notification, got %+v", listed)
	}

	id := listed.Notifications[0].ID
	_, acked, err := server.handleAcknowledgeNotification(ctx, nil, ResolveNotificationInput{ID: id, Notes: "leaning in"})
	if err != nil {
		t.Fatalf("acknowledge: %v", err)
	}
	if acked.Status != "acknowledged" || acked.ResolvedAt == "" {
		t.Fatalf("unexpected acknowledgement: %+v", acked)
	}

	_, _, err = server.handleDismissNotification(ctx, nil, ResolveNotificationInput{ID: "missing"})
	if err == nil {
		t.Fatalf("expected error for unknown id")
	}
}
