// Package emergence turns committed structured events into deduplicated,
// narrator-visible signals that an entity's narrative role is shifting.
package emergence

import (
	"context"
	"errors"
	"time"

	"reckoning/internal/event"
)

// Status tracks narrator review of a notification.
type Status string

const (
	StatusPending      Status = "pending"
	StatusAcknowledged Status = "acknowledged"
	StatusDismissed    Status = "dismissed"
)

var (
	ErrStoreNotConfigured    = errors.New("emergence store is not configured")
	ErrObserverNotConfigured = errors.New("emergence observer is not configured")
	ErrInvalidResolution     = errors.New("resolution status must be acknowledged or dismissed")
)

// Entity identifies whose role is shifting.
type Entity struct {
	Type event.EntityType
	ID   string
}

// Factor is one measurable contribution to a detected shift.
type Factor struct {
	Dimension string
	Value     float64
	Threshold float64
}

// Opportunity is a raw detection from an Observer, not yet deduplicated or
// persisted.
type Opportunity struct {
	Type                string
	Entity              Entity
	Confidence          float64
	Reason              string
	TriggeringEventID   string
	ContributingFactors []Factor
}

// Notification is a persisted, narrator-visible emergence signal. At most
// one pending notification exists per (game, entity, type).
type Notification struct {
	ID                  string
	GameID              string
	EmergenceType       string
	Entity              Entity
	Confidence          float64
	Reason              string
	TriggeringEventID   string
	ContributingFactors []Factor
	Status              Status
	DMNotes             string
	CreatedAt           time.Time
	ResolvedAt          *time.Time
}

// Resolution is the narrator's verdict on a notification.
type Resolution struct {
	Status  Status
	DMNotes string
}

// Observer detects emergence opportunities from a committed event. It lives
// outside this package's scope except for the built-in StreakObserver.
type Observer interface {
	OnEventCommitted(ctx context.Context, ev event.Event) ([]Opportunity, error)
}

// Store is the persistence boundary for notifications.
type Store interface {
	PutNotification(ctx context.Context, n Notification) error
	GetNotification(ctx context.Context, id string) (*Notification, error)
	GetPendingNotification(ctx context.Context, gameID, entityID, emergenceType string) (*Notification, error)
	ListNotificationsByGame(ctx context.Context, gameID string, pendingOnly bool, limit int) ([]Notification, error)
	UpdateNotification(ctx context.Context, n Notification) error
	DeleteNotificationsByGame(ctx context.Context, gameID string) (int64, error)
}
