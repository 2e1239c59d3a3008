package emergence

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"reckoning/internal/broadcast"
	"reckoning/internal/event"
)

// Service consumes committed events, deduplicates detected opportunities,
// persists notifications, and broadcasts them to the game's narrator
// channels. The dedup check is read-then-write on (game, entity, type), so
// the caller must serialize ProcessEvent calls per game.
type Service struct {
	store       Store
	observer    Observer
	broadcaster broadcast.Broadcaster
	logger      *zap.Logger
	clock       func() time.Time
	newID       func() string
}

func NewService(store Store, observer Observer, broadcaster broadcast.Broadcaster, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:       store,
		observer:    observer,
		broadcaster: broadcaster,
		logger:      logger,
		clock:       time.Now,
		newID:       uuid.NewString,
	}
}

// ProcessEvent asks the observer for opportunities and turns each one into a
// pending notification unless an equivalent pending notification already
// exists. Returns the notifications actually created.
func (s *Service) ProcessEvent(ctx context.Context, ev event.Event) ([]Notification, error) {
	if s == nil || s.store == nil {
		return nil, ErrStoreNotConfigured
	}
	if s.observer == nil {
		return nil, ErrObserverNotConfigured
	}

	opportunities, err := s.observer.OnEventCommitted(ctx, ev)
	if err != nil {
		return nil, fmt.Errorf("observing event %s: %w", ev.ID, err)
	}

	var created []Notification
	for _, opp := range opportunities {
		existing, err := s.store.GetPendingNotification(ctx, ev.GameID, opp.Entity.ID, opp.Type)
		if err != nil {
			return created, fmt.Errorf("checking pending notification: %w", err)
		}
		if existing != nil {
			s.logger.Debug("emergence suppressed as duplicate",
				zap.String("game_id", ev.GameID),
				zap.String("entity_id", opp.Entity.ID),
				zap.String("emergence_type", opp.Type))
			continue
		}

		notification := Notification{
			ID:                  s.newID(),
			GameID:              ev.GameID,
			EmergenceType:       opp.Type,
			Entity:              opp.Entity,
			Confidence:          clampConfidence(opp.Confidence),
			Reason:              opp.Reason,
			TriggeringEventID:   opp.TriggeringEventID,
			ContributingFactors: opp.ContributingFactors,
			Status:              StatusPending,
			CreatedAt:           s.clock().UTC(),
		}
		if err := s.store.PutNotification(ctx, notification); err != nil {
			return created, fmt.Errorf("persisting notification: %w", err)
		}
		created = append(created, notification)

		if s.broadcaster != nil {
			msg := broadcast.Message{Topic: "emergence_detected", Payload: notification}
			if err := s.broadcaster.Broadcast(ctx, ev.GameID, msg); err != nil {
				s.logger.Warn("emergence broadcast failed",
					zap.String("game_id", ev.GameID),
					zap.String("notification_id", notification.ID),
					zap.Error(err))
			}
		}
	}
	return created, nil
}

// GetPendingNotifications lists a game's unresolved notifications.
func (s *Service) GetPendingNotifications(ctx context.Context, gameID string) ([]Notification, error) {
	return s.store.ListNotificationsByGame(ctx, gameID, true, 0)
}

// GetNotifications lists a game's notifications regardless of status, most
// recent first, optionally limited.
func (s *Service) GetNotifications(ctx context.Context, gameID string, limit int) ([]Notification, error) {
	return s.store.ListNotificationsByGame(ctx, gameID, false, limit)
}

// GetNotification returns one notification, or nil when unknown.
func (s *Service) GetNotification(ctx context.Context, id string) (*Notification, error) {
	return s.store.GetNotification(ctx, id)
}

// Acknowledge marks a notification as seen and acted on by the narrator.
func (s *Service) Acknowledge(ctx context.Context, id, notes string) (*Notification, error) {
	return s.Resolve(ctx, id, Resolution{Status: StatusAcknowledged, DMNotes: notes})
}

// Dismiss marks a notification as not worth pursuing.
func (s *Service) Dismiss(ctx context.Context, id, notes string) (*Notification, error) {
	return s.Resolve(ctx, id, Resolution{Status: StatusDismissed, DMNotes: notes})
}

// Resolve applies a terminal status and stamps resolvedAt. Unknown ids
// return (nil, nil).
func (s *Service) Resolve(ctx context.Context, id string, resolution Resolution) (*Notification, error) {
	switch resolution.Status {
	case StatusAcknowledged, StatusDismissed:
	default:
		return nil, ErrInvalidResolution
	}

	notification, err := s.store.GetNotification(ctx, id)
	if err != nil {
		return nil, err
	}
	if notification == nil {
		return nil, nil
	}

	now := s.clock().UTC()
	notification.Status = resolution.Status
	notification.DMNotes = resolution.DMNotes
	notification.ResolvedAt = &now
	if err := s.store.UpdateNotification(ctx, *notification); err != nil {
		return nil, fmt.Errorf("resolving notification: %w", err)
	}
	return notification, nil
}

// ClearNotifications deletes every notification for a game. Used on game
// teardown.
func (s *Service) ClearNotifications(ctx context.Context, gameID string) (int64, error) {
	return s.store.DeleteNotificationsByGame(ctx, gameID)
}

func clampConfidence(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
