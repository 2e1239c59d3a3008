// Package store defines the aggregate persistence interface implemented by
// the sqlite and postgres backends.
package store

import (
	"context"

	"reckoning/internal/emergence"
	"reckoning/internal/event"
	"reckoning/internal/evolution"
)

// Store is the full persistence surface of one backend. The per-domain
// interfaces stay in their own packages so services depend only on the slice
// they use.
type Store interface {
	event.Store
	evolution.Store
	emergence.Store

	Close(ctx context.Context) error
	EnsureSchema(ctx context.Context) error

	// DeleteGame removes every row belonging to a game across all tables
	// and returns the total rows deleted.
	DeleteGame(ctx context.Context, gameID string) (int64, error)
}
