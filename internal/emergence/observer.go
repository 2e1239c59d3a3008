package emergence

import (
	"context"
	"fmt"

	"reckoning/internal/action"
	"reckoning/internal/event"
)

const (
	defaultStreakWindow    = 10
	defaultStreakThreshold = 3
)

// roleForAction maps a committed action to the narrative role it argues
// for. Honesty splits: lying and betrayal push toward deceiver, the rest of
// the category toward truthteller.
func roleForAction(a action.Action) (string, bool) {
	switch a {
	case action.Lie, action.Deceive, action.BreakPromise, action.Betray:
		return "deceiver", true
	}
	category, ok := action.CategoryOf(a)
	if !ok {
		return "", false
	}
	switch category {
	case action.CategoryMercy:
		return "protector", true
	case action.CategoryViolence:
		return "slayer", true
	case action.CategoryHonesty:
		return "truthteller", true
	case action.CategorySocial:
		return "diplomat", true
	case action.CategoryExploration:
		return "pathfinder", true
	default:
		// Character actions are self-directed and carry no role signal.
		return "", false
	}
}

var _ Observer = (*StreakObserver)(nil)

// StreakObserver is the built-in heuristic detector: when an actor's recent
// committed history is dominated by one role's actions, it raises an
// opportunity for that role.
type StreakObserver struct {
	events    event.Store
	window    int
	threshold int
}

func NewStreakObserver(events event.Store) *StreakObserver {
	return &StreakObserver{
		events:    events,
		window:    defaultStreakWindow,
		threshold: defaultStreakThreshold,
	}
}

func (o *StreakObserver) OnEventCommitted(ctx context.Context, ev event.Event) ([]Opportunity, error) {
	if ev.Action == "" {
		return nil, nil
	}
	if ev.ActorType != event.EntityNPC && ev.ActorType != event.EntityPartyMember {
		return nil, nil
	}
	role, ok := roleForAction(ev.Action)
	if !ok {
		return nil, nil
	}

	recent, err := o.events.ListEventsByActor(ctx, ev.GameID, ev.ActorID, o.window)
	if err != nil {
		return nil, fmt.Errorf("listing recent events for %s: %w", ev.ActorID, err)
	}

	count := 0
	seenTrigger := false
	for _, past := range recent {
		if past.ID == ev.ID {
			seenTrigger = true
		}
		if pastRole, ok := roleForAction(past.Action); ok && pastRole == role {
			count++
		}
	}
	if !seenTrigger {
		// The triggering event may not be queryable yet.
		count++
	}
	if count < o.threshold {
		return nil, nil
	}

	confidence := float64(count) / float64(o.window)
	if confidence > 1 {
		confidence = 1
	}
	return []Opportunity{{
		Type:              role,
		Entity:            Entity{Type: ev.ActorType, ID: ev.ActorID},
		Confidence:        confidence,
		Reason:            fmt.Sprintf("%s actions dominate recent history for %s (%d of last %d events)", role, ev.ActorID, count, o.window),
		TriggeringEventID: ev.ID,
		ContributingFactors: []Factor{{
			Dimension: "role_streak",
			Value:     float64(count),
			Threshold: float64(o.threshold),
		}},
	}}, nil
}
