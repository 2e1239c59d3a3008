package mcp

import (
	"context"
	"fmt"
	"time"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"reckoning/internal/action"
	"reckoning/internal/emergence"
	"reckoning/internal/event"
	"reckoning/internal/evolution"
)

type ClassifyActionInput struct {
	Content     string `json:"content" jsonschema:"narration text to classify"`
	UseFallback bool   `json:"use_fallback,omitempty" jsonschema:"escalate to the language model when rules fail"`
}

type ClassifyActionOutput struct {
	Action         string  `json:"action,omitempty"`
	Category       string  `json:"category,omitempty"`
	Confidence     float64 `json:"confidence"`
	UsedAIFallback bool    `json:"used_ai_fallback,omitempty"`
	MatchedPattern string  `json:"matched_pattern,omitempty"`
}

type PresenceInput struct {
	ID   string `json:"id" jsonschema:"stable entity id"`
	Name string `json:"name" jsonschema:"display name as it appears in narration"`
}

type EventMetadataInput struct {
	Action     string   `json:"action,omitempty" jsonschema:"explicit action from the vocabulary"`
	TargetType string   `json:"target_type,omitempty" jsonschema:"npc, player, party_member, or system"`
	TargetID   string   `json:"target_id,omitempty" jsonschema:"explicit target id"`
	Tags       []string `json:"tags,omitempty" jsonschema:"extra tags to carry onto the event"`
}

type CommitEventInput struct {
	GameID       string              `json:"game_id" jsonschema:"game this event belongs to"`
	Turn         int                 `json:"turn,omitempty" jsonschema:"turn counter"`
	EventType    string              `json:"event_type" jsonschema:"npc_dialogue, npc_action, party_dialogue, party_action, narration, environment, or dm_injection"`
	Content      string              `json:"content" jsonschema:"raw narration text"`
	Speaker      string              `json:"speaker,omitempty" jsonschema:"display name of the speaker"`
	LocationID   string              `json:"location_id,omitempty" jsonschema:"current location"`
	Metadata     *EventMetadataInput `json:"metadata,omitempty" jsonschema:"optional AI-supplied structure"`
	NPCsPresent  []PresenceInput     `json:"npcs_present,omitempty" jsonschema:"NPCs in the scene"`
	PartyMembers []PresenceInput     `json:"party_members,omitempty" jsonschema:"party members in the scene"`
}

type EventOutput struct {
	ID         string   `json:"id"`
	GameID     string   `json:"game_id"`
	Turn       int      `json:"turn"`
	Timestamp  string   `json:"timestamp"`
	EventType  string   `json:"event_type"`
	Content    string   `json:"content"`
	Speaker    string   `json:"speaker,omitempty"`
	LocationID string   `json:"location_id,omitempty"`
	Action     string   `json:"action,omitempty"`
	ActorType  string   `json:"actor_type,omitempty"`
	ActorID    string   `json:"actor_id,omitempty"`
	TargetType string   `json:"target_type,omitempty"`
	TargetID   string   `json:"target_id,omitempty"`
	Witnesses  []string `json:"witnesses"`
	Tags       []string `json:"tags"`
}

type CommitEventOutput struct {
	Event         EventOutput          `json:"event"`
	Notifications []NotificationOutput `json:"notifications"`
}

type ProposeEvolutionInput struct {
	GameID        string  `json:"game_id" jsonschema:"game this proposal belongs to"`
	Turn          int     `json:"turn,omitempty" jsonschema:"turn counter"`
	Type          string  `json:"type" jsonschema:"trait_add, trait_remove, or relationship_change"`
	EntityType    string  `json:"entity_type" jsonschema:"npc, player, party_member, or system"`
	EntityID      string  `json:"entity_id" jsonschema:"entity the proposal concerns"`
	Trait         string  `json:"trait,omitempty" jsonschema:"trait name for trait proposals"`
	TargetType    string  `json:"target_type,omitempty" jsonschema:"relationship target entity type"`
	TargetID      string  `json:"target_id,omitempty" jsonschema:"relationship target id"`
	Dimension     string  `json:"dimension,omitempty" jsonschema:"trust, respect, affection, fear, resentment, or debt"`
	OldValue      float64 `json:"old_value,omitempty" jsonschema:"current dimension value"`
	NewValue      float64 `json:"new_value,omitempty" jsonschema:"proposed dimension value"`
	Reason        string  `json:"reason,omitempty" jsonschema:"why this change is proposed"`
	SourceEventID string  `json:"source_event_id,omitempty" jsonschema:"event that motivated the proposal"`
}

type EvolutionOutput struct {
	ID            string  `json:"id"`
	GameID        string  `json:"game_id"`
	Turn          int     `json:"turn"`
	Type          string  `json:"type"`
	EntityType    string  `json:"entity_type"`
	EntityID      string  `json:"entity_id"`
	Trait         string  `json:"trait,omitempty"`
	TargetType    string  `json:"target_type,omitempty"`
	TargetID      string  `json:"target_id,omitempty"`
	Dimension     string  `json:"dimension,omitempty"`
	OldValue      float64 `json:"old_value,omitempty"`
	NewValue      float64 `json:"new_value,omitempty"`
	Reason        string  `json:"reason,omitempty"`
	SourceEventID string  `json:"source_event_id,omitempty"`
	Status        string  `json:"status"`
	DMNotes       string  `json:"dm_notes,omitempty"`
	CreatedAt     string  `json:"created_at"`
	ResolvedAt    string  `json:"resolved_at,omitempty"`
}

type ListEvolutionsInput struct {
	GameID string `json:"game_id" jsonschema:"game to list"`
	Status string `json:"status,omitempty" jsonschema:"pending (default), approved, edited, refused, or all"`
}

type ListEvolutionsOutput struct {
	Evolutions []EvolutionOutput `json:"evolutions"`
}

type ResolveEvolutionInput struct {
	ID      string `json:"id" jsonschema:"proposal id"`
	Status  string `json:"status" jsonschema:"approved, edited, or refused"`
	DMNotes string `json:"dm_notes,omitempty" jsonschema:"narrator notes"`
}

type UpdateEvolutionInput struct {
	ID        string   `json:"id" jsonschema:"proposal id"`
	Trait     *string  `json:"trait,omitempty" jsonschema:"replacement trait"`
	Dimension *string  `json:"dimension,omitempty" jsonschema:"replacement dimension"`
	OldValue  *float64 `json:"old_value,omitempty" jsonschema:"replacement current value"`
	NewValue  *float64 `json:"new_value,omitempty" jsonschema:"replacement proposed value"`
	Reason    *string  `json:"reason,omitempty" jsonschema:"replacement reason"`
	DMNotes   *string  `json:"dm_notes,omitempty" jsonschema:"narrator notes"`
}

type NotificationOutput struct {
	ID                  string         `json:"id"`
	GameID              string         `json:"game_id"`
	EmergenceType       string         `json:"emergence_type"`
	EntityType          string         `json:"entity_type"`
	EntityID            string         `json:"entity_id"`
	Confidence          float64        `json:"confidence"`
	Reason              string         `json:"reason,omitempty"`
	TriggeringEventID   string         `json:"triggering_event_id,omitempty"`
	ContributingFactors []FactorOutput `json:"contributing_factors,omitempty"`
	Status              string         `json:"status"`
	DMNotes             string         `json:"dm_notes,omitempty"`
	CreatedAt           string         `json:"created_at"`
	ResolvedAt          string         `json:"resolved_at,omitempty"`
}

type FactorOutput struct {
	Dimension string  `json:"dimension"`
	Value     float64 `json:"value"`
	Threshold float64 `json:"threshold"`
}

type ListNotificationsInput struct {
	GameID      string `json:"game_id" jsonschema:"game to list"`
	PendingOnly bool   `json:"pending_only,omitempty" jsonschema:"only unresolved notifications"`
	Limit       int    `json:"limit,omitempty" jsonschema:"maximum number of notifications"`
}

type ListNotificationsOutput struct {
	Notifications []NotificationOutput `json:"notifications"`
}

type ResolveNotificationInput struct {
	ID    string `json:"id" jsonschema:"notification id"`
	Notes string `json:"notes,omitempty" jsonschema:"narrator notes"`
}

func (s *Server) registerTools() {
	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "classify_action",
		Description: "Classify narration text against the action vocabulary",
	}, s.handleClassifyAction)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "commit_event",
		Description: "Build structured data for a narration beat, persist it, and run emergence detection",
	}, s.handleCommitEvent)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "propose_evolution",
		Description: "Queue a trait or relationship change for narrator review",
	}, s.handleProposeEvolution)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "list_pending_evolutions",
		Description: "List queued evolution proposals for a game",
	}, s.handleListEvolutions)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "update_evolution",
		Description: "Edit a still-pending evolution proposal",
	}, s.handleUpdateEvolution)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "resolve_evolution",
		Description: "Approve, edit, or refuse an evolution proposal",
	}, s.handleResolveEvolution)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "list_notifications",
		Description: "List emergence notifications for a game",
	}, s.handleListNotifications)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "acknowledge_notification",
		Description: "Mark an emergence notification as seen and acted on",
	}, s.handleAcknowledgeNotification)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "dismiss_notification",
		Description: "Mark an emergence notification as not worth pursuing",
	}, s.handleDismissNotification)
}

func (s *Server) handleClassifyAction(ctx context.Context, req *sdk.CallToolRequest, input ClassifyActionInput) (*sdk.CallToolResult, ClassifyActionOutput, error) {
	if input.Content == "" {
		return nil, ClassifyActionOutput{}, fmt.Errorf("content is required")
	}

	var result action.Result
	if input.UseFallback {
		result = s.classifier.ClassifyWithFallback(ctx, input.Content)
	} else {
		result = s.classifier.Classify(input.Content)
	}

	return nil, ClassifyActionOutput{
		Action:         string(result.Action),
		Category:       string(result.Category),
		Confidence:     result.Confidence,
		UsedAIFallback: result.UsedAIFallback,
		MatchedPattern: result.MatchedPattern,
	}, nil
}

func (s *Server) handleCommitEvent(ctx context.Context, req *sdk.CallToolRequest, input CommitEventInput) (*sdk.CallToolResult, CommitEventOutput, error) {
	if input.GameID == "" {
		return nil, CommitEventOutput{}, fmt.Errorf("game_id is required")
	}
	if input.Content == "" {
		return nil, CommitEventOutput{}, fmt.Errorf("content is required")
	}

	gen := event.GenerationContext{
		EventType:    event.EventType(input.EventType),
		Content:      input.Content,
		Speaker:      input.Speaker,
		NPCsPresent:  presencesFromInput(input.NPCsPresent),
		PartyMembers: presencesFromInput(input.PartyMembers),
	}
	if input.Metadata != nil {
		gen.Metadata = &event.Metadata{
			Action:     action.Action(input.Metadata.Action),
			TargetType: event.EntityType(input.Metadata.TargetType),
			TargetID:   input.Metadata.TargetID,
			Tags:       input.Metadata.Tags,
		}
	}

	ev := event.Event{
		ID:             s.newID(),
		GameID:         input.GameID,
		Turn:           input.Turn,
		Timestamp:      s.clock().UTC(),
		EventType:      gen.EventType,
		Content:        input.Content,
		Speaker:        input.Speaker,
		LocationID:     input.LocationID,
		StructuredData: s.builder.BuildFromGeneration(gen),
	}

	if err := s.events.PutEvent(ctx, ev); err != nil {
		return nil, CommitEventOutput{}, fmt.Errorf("persisting event: %w", err)
	}

	created, err := s.emergence.ProcessEvent(ctx, ev)
	if err != nil {
		return nil, CommitEventOutput{}, fmt.Errorf("running emergence detection: %w", err)
	}

	output := CommitEventOutput{
		Event:         eventOutputFrom(ev),
		Notifications: make([]NotificationOutput, 0, len(created)),
	}
	for _, n := range created {
		output.Notifications = append(output.Notifications, notificationOutputFrom(n))
	}
	return nil, output, nil
}

func (s *Server) handleProposeEvolution(ctx context.Context, req *sdk.CallToolRequest, input ProposeEvolutionInput) (*sdk.CallToolResult, EvolutionOutput, error) {
	record, err := s.queue.Create(ctx, evolution.CreateInput{
		GameID:        input.GameID,
		Turn:          input.Turn,
		Type:          evolution.Type(input.Type),
		EntityType:    event.EntityType(input.EntityType),
		EntityID:      input.EntityID,
		Trait:         input.Trait,
		TargetType:    event.EntityType(input.TargetType),
		TargetID:      input.TargetID,
		Dimension:     evolution.Dimension(input.Dimension),
		OldValue:      input.OldValue,
		NewValue:      input.NewValue,
		Reason:        input.Reason,
		SourceEventID: input.SourceEventID,
	})
	if err != nil {
		return nil, EvolutionOutput{}, err
	}
	return nil, evolutionOutputFrom(*record), nil
}

func (s *Server) handleListEvolutions(ctx context.Context, req *sdk.CallToolRequest, input ListEvolutionsInput) (*sdk.CallToolResult, ListEvolutionsOutput, error) {
	if input.GameID == "" {
		return nil, ListEvolutionsOutput{}, fmt.Errorf("game_id is required")
	}

	var records []evolution.PendingEvolution
	var err error
	if input.Status == "all" {
		records, err = s.queue.FindByGame(ctx, input.GameID)
	} else {
		records, err = s.queue.FindPending(ctx, input.GameID, evolution.Status(input.Status))
	}
	if err != nil {
		return nil, ListEvolutionsOutput{}, err
	}

	output := ListEvolutionsOutput{Evolutions: make([]EvolutionOutput, 0, len(records))}
	for _, record := range records {
		output.Evolutions = append(output.Evolutions, evolutionOutputFrom(record))
	}
	return nil, output, nil
}

func (s *Server) handleUpdateEvolution(ctx context.Context, req *sdk.CallToolRequest, input UpdateEvolutionInput) (*sdk.CallToolResult, EvolutionOutput, error) {
	if input.ID == "" {
		return nil, EvolutionOutput{}, fmt.Errorf("id is required")
	}

	update := evolution.UpdateInput{
		Trait:    input.Trait,
		OldValue: input.OldValue,
		NewValue: input.NewValue,
		Reason:   input.Reason,
		DMNotes:  input.DMNotes,
	}
	if input.Dimension != nil {
		dimension := evolution.Dimension(*input.Dimension)
		update.Dimension = &dimension
	}

	record, err := s.queue.Update(ctx, input.ID, update)
	if err != nil {
		return nil, EvolutionOutput{}, err
	}
	if record == nil {
		return nil, EvolutionOutput{}, fmt.Errorf("evolution not found")
	}
	return nil, evolutionOutputFrom(*record), nil
}

func (s *Server) handleResolveEvolution(ctx context.Context, req *sdk.CallToolRequest, input ResolveEvolutionInput) (*sdk.CallToolResult, EvolutionOutput, error) {
	if input.ID == "" {
		return nil, EvolutionOutput{}, fmt.Errorf("id is required")
	}

	record, err := s.queue.Resolve(ctx, input.ID, evolution.Resolution{
		Status:  evolution.Status(input.Status),
		DMNotes: input.DMNotes,
	})
	if err != nil {
		return nil, EvolutionOutput{}, err
	}
	if record == nil {
		return nil, EvolutionOutput{}, fmt.Errorf("evolution not found")
	}
	return nil, evolutionOutputFrom(*record), nil
}

func (s *Server) handleListNotifications(ctx context.Context, req *sdk.CallToolRequest, input ListNotificationsInput) (*sdk.CallToolResult, ListNotificationsOutput, error) {
	if input.GameID == "" {
		return nil, ListNotificationsOutput{}, fmt.Errorf("game_id is required")
	}

	var notifications []emergence.Notification
	var err error
	if input.PendingOnly {
		notifications, err = s.emergence.GetPendingNotifications(ctx, input.GameID)
	} else {
		notifications, err = s.emergence.GetNotifications(ctx, input.GameID, input.Limit)
	}
	if err != nil {
		return nil, ListNotificationsOutput{}, err
	}

	output := ListNotificationsOutput{Notifications: make([]NotificationOutput, 0, len(notifications))}
	for _, n := range notifications {
		output.Notifications = append(output.Notifications, notificationOutputFrom(n))
	}
	return nil, output, nil
}

func (s *Server) handleAcknowledgeNotification(ctx context.Context, req *sdk.CallToolRequest, input ResolveNotificationInput) (*sdk.CallToolResult, NotificationOutput, error) {
	if input.ID == "" {
		return nil, NotificationOutput{}, fmt.Errorf("id is required")
	}
	n, err := s.emergence.Acknowledge(ctx, input.ID, input.Notes)
	if err != nil {
		return nil, NotificationOutput{}, err
	}
	if n == nil {
		return nil, NotificationOutput{}, fmt.Errorf("notification not found")
	}
	return nil, notificationOutputFrom(*n), nil
}

func (s *Server) handleDismissNotification(ctx context.Context, req *sdk.CallToolRequest, input ResolveNotificationInput) (*sdk.CallToolResult, NotificationOutput, error) {
	if input.ID == "" {
		return nil, NotificationOutput{}, fmt.Errorf("id is required")
	}
	n, err := s.emergence.Dismiss(ctx, input.ID, input.Notes)
	if err != nil {
		return nil, NotificationOutput{}, err
	}
	if n == nil {
		return nil, NotificationOutput{}, fmt.Errorf("notification not found")
	}
	return nil, notificationOutputFrom(*n), nil
}

func presencesFromInput(inputs []PresenceInput) []event.Presence {
	out := make([]event.Presence, 0, len(inputs))
	for _, p := range inputs {
		out = append(out, event.Presence{ID: p.ID, Name: p.Name})
	}
	return out
}

func eventOutputFrom(ev event.Event) EventOutput {
	return EventOutput{
		ID:         ev.ID,
		GameID:     ev.GameID,
		Turn:       ev.Turn,
		Timestamp:  ev.Timestamp.Format(time.RFC3339Nano),
		EventType:  string(ev.EventType),
		Content:    ev.Content,
		Speaker:    ev.Speaker,
		LocationID: ev.LocationID,
		Action:     string(ev.Action),
		ActorType:  string(ev.ActorType),
		ActorID:    ev.ActorID,
		TargetType: string(ev.TargetType),
		TargetID:   ev.TargetID,
		Witnesses:  append([]string{}, ev.Witnesses...),
		Tags:       append([]string{}, ev.Tags...),
	}
}

func evolutionOutputFrom(e evolution.PendingEvolution) EvolutionOutput {
	out := EvolutionOutput{
		ID:            e.ID,
		GameID:        e.GameID,
		Turn:          e.Turn,
		Type:          string(e.Type),
		EntityType:    string(e.EntityType),
		EntityID:      e.EntityID,
		Trait:         e.Trait,
		TargetType:    string(e.TargetType),
		TargetID:      e.TargetID,
		Dimension:     string(e.Dimension),
		OldValue:      e.OldValue,
		NewValue:      e.NewValue,
		Reason:        e.Reason,
		SourceEventID: e.SourceEventID,
		Status:        string(e.Status),
		DMNotes:       e.DMNotes,
		CreatedAt:     e.CreatedAt.Format(time.RFC3339Nano),
	}
	if e.ResolvedAt != nil {
		out.ResolvedAt = e.ResolvedAt.Format(time.RFC3339Nano)
	}
	return out
}

func notificationOutputFrom(n emergence.Notification) NotificationOutput {
	out := NotificationOutput{
		ID:                n.ID,
		GameID:            n.GameID,
		EmergenceType:     n.EmergenceType,
		EntityType:        string(n.Entity.Type),
		EntityID:          n.Entity.ID,
		Confidence:        n.Confidence,
		Reason:            n.Reason,
		TriggeringEventID: n.TriggeringEventID,
		Status:            string(n.Status),
		DMNotes:           n.DMNotes,
		CreatedAt:         n.CreatedAt.Format(time.RFC3339Nano),
	}
	for _, f := range n.ContributingFactors {
		out.ContributingFactors = append(out.ContributingFactors, FactorOutput{
			Dimension: f.Dimension,
			Value:     f.Value,
			Threshold: f.Threshold,
		})
	}
	if n.ResolvedAt != nil {
		out.ResolvedAt = n.ResolvedAt.Format(time.RFC3339Nano)
	}
	return out
}
