// Package validate checks a game's stored records for internal
// inconsistencies that the write paths should have prevented.
package validate

import (
	"context"
	"fmt"

	"reckoning/internal/action"
	"reckoning/internal/emergence"
	"reckoning/internal/event"
	"reckoning/internal/evolution"
)

type Severity string

const (
	SeverityError Severity = "error"
	SeverityWarn  Severity = "warning"
)

const (
	codeUnknownAction         = "unknown_action"
	codeMissingActor          = "missing_actor"
	codeUnknownDimension      = "unknown_dimension"
	codeValueOutOfRange       = "value_out_of_range"
	codeResolvedWithoutStamp  = "resolved_without_timestamp"
	codeDanglingSourceEvent   = "dangling_source_event"
	codeDanglingTriggerEvent  = "dangling_triggering_event"
	codeDuplicatePendingAlert = "duplicate_pending_notification"
)

type Issue struct {
	Severity Severity
	Code     string
	Message  string
	RecordID string
}

type Report struct {
	Issues []Issue
}

// Errors reports whether the report contains at least one error-severity
// issue.
func (r *Report) Errors() bool {
	for _, issue := range r.Issues {
		if issue.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Source is the read surface the checks need.
type Source interface {
	ListEventsByGame(ctx context.Context, gameID string, limit int) ([]event.Event, error)
	GetEvent(ctx context.Context, id string) (*event.Event, error)
	ListEvolutionsByGame(ctx context.Context, gameID string, status evolution.Status) ([]evolution.PendingEvolution, error)
	ListNotificationsByGame(ctx context.Context, gameID string, pendingOnly bool, limit int) ([]emergence.Notification, error)
}

func Run(ctx context.Context, source Source, gameID string) (*Report, error) {
	if source == nil {
		return nil, fmt.Errorf("source is required")
	}

	issues := make([]Issue, 0)

	events, err := source.ListEventsByGame(ctx, gameID, 0)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	for _, ev := range events {
		issues = append(issues, checkEvent(ev)...)
	}

	evolutions, err := source.ListEvolutionsByGame(ctx, gameID, "")
	if err != nil {
		return nil, fmt.Errorf("list evolutions: %w", err)
	}
	for _, e := range evolutions {
		issues = append(issues, checkEvolution(ctx, source, e)...)
	}

	notifications, err := source.ListNotificationsByGame(ctx, gameID, false, 0)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	issues = append(issues, checkNotifications(ctx, source, notifications)...)

	return &Report{Issues: issues}, nil
}

func checkEvent(ev event.Event) []Issue {
	var issues []Issue
	if ev.Action != "" && !action.Valid(ev.Action) {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Code:     codeUnknownAction,
			Message:  fmt.Sprintf("event carries action %q outside the vocabulary", ev.Action),
			RecordID: ev.ID,
		})
	}
	if ev.ActorID == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Code:     codeMissingActor,
			Message:  "event has no actor",
			RecordID: ev.ID,
		})
	}
	return issues
}

func checkEvolution(ctx context.Context, source Source, e evolution.PendingEvolution) []Issue {
	var issues []Issue

	if e.Type == evolution.RelationshipChange {
		if !evolution.ValidDimension(e.Dimension) {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Code:     codeUnknownDimension,
				Message:  fmt.Sprintf("relationship change carries unknown dimension %q", e.Dimension),
				RecordID: e.ID,
			})
		}
		if e.OldValue < 0 || e.OldValue > 1 || e.NewValue < 0 || e.NewValue > 1 {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Code:     codeValueOutOfRange,
				Message:  fmt.Sprintf("relationship values outside [0,1]: old=%v new=%v", e.OldValue, e.NewValue),
				RecordID: e.ID,
			})
		}
	}

	if e.Status != evolution.StatusPending && e.ResolvedAt == nil {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Code:     codeResolvedWithoutStamp,
			Message:  fmt.Sprintf("evolution is %s but has no resolution timestamp", e.Status),
			RecordID: e.ID,
		})
	}

	if e.SourceEventID != "" {
		ev, err := source.GetEvent(ctx, e.SourceEventID)
		if err == nil && ev == nil {
			issues = append(issues, Issue{
				Severity: SeverityWarn,
				Code:     codeDanglingSourceEvent,
				Message:  fmt.Sprintf("source event %s no longer exists", e.SourceEventID),
				RecordID: e.ID,
			})
		}
	}

	return issues
}

func checkNotifications(ctx context.Context, source Source, notifications []emergence.Notification) []Issue {
	var issues []Issue
	pendingKeys := make(map[string]struct{})

	for _, n := range notifications {
		if n.Status == emergence.StatusPending {
			key := n.GameID + "\x00" + n.Entity.ID + "\x00" + n.EmergenceType
			if _, dup := pendingKeys[key]; dup {
				issues = append(issues, Issue{
					Severity: SeverityError,
					Code:     codeDuplicatePendingAlert,
					Message:  fmt.Sprintf("second pending notification for entity %s type %s", n.Entity.ID, n.EmergenceType),
					RecordID: n.ID,
				})
			}
			pendingKeys[key] = struct{}{}
		}

		if n.Status != emergence.StatusPending && n.ResolvedAt == nil {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Code:     codeResolvedWithoutStamp,
				Message:  fmt.Sprintf("notification is %s but has no resolution timestamp", n.Status),
				RecordID: n.ID,
			})
		}

		if n.TriggeringEventID != "" {
			ev, err := source.GetEvent(ctx, n.TriggeringEventID)
			if err == nil && ev == nil {
				issues = append(issues, Issue{
					Severity: SeverityWarn,
					Code:     codeDanglingTriggerEvent,
					Message:  fmt.Sprintf("triggering event %s no longer exists", n.TriggeringEventID),
					RecordID: n.ID,
				})
			}
		}
	}

	return issues
}
