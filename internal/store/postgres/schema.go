package postgres

import (
	"context"
	"fmt"
)

func (c *Client) EnsureSchema(ctx context.Context) error {
	ddl := `
CREATE TABLE IF NOT EXISTS events (
    id          TEXT PRIMARY KEY,
    game_id     TEXT NOT NULL,
    turn        INTEGER NOT NULL DEFAULT 0,
    timestamp   TIMESTAMPTZ NOT NULL,
    event_type  TEXT NOT NULL,
    content     TEXT NOT NULL DEFAULT '',
    speaker     TEXT DEFAULT '',
    location_id TEXT DEFAULT '',
    action      TEXT DEFAULT '',
    actor_type  TEXT DEFAULT '',
    actor_id    TEXT DEFAULT '',
    target_type TEXT DEFAULT '',
    target_id   TEXT DEFAULT '',
    witnesses   TEXT[] DEFAULT '{}',
    tags        TEXT[] DEFAULT '{}'
);

CREATE TABLE IF NOT EXISTS pending_evolutions (
    id              TEXT PRIMARY KEY,
    game_id         TEXT NOT NULL,
    turn            INTEGER NOT NULL DEFAULT 0,
    evolution_type  TEXT NOT NULL,
    entity_type     TEXT NOT NULL,
    entity_id       TEXT NOT NULL,
    trait           TEXT DEFAULT '',
    target_type     TEXT DEFAULT '',
    target_id       TEXT DEFAULT '',
    dimension       TEXT DEFAULT '',
    old_value       DOUBLE PRECISION DEFAULT 0,
    new_value       DOUBLE PRECISION DEFAULT 0,
    reason          TEXT DEFAULT '',
    source_event_id TEXT DEFAULT '',
    status          TEXT NOT NULL DEFAULT 'pending',
    dm_notes        TEXT DEFAULT '',
    created_at      TIMESTAMPTZ NOT NULL,
    resolved_at     TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS emergence_notifications (
    id                   TEXT PRIMARY KEY,
    game_id              TEXT NOT NULL,
    emergence_type       TEXT NOT NULL,
    entity_type          TEXT NOT NULL,
    entity_id            TEXT NOT NULL,
    confidence           DOUBLE PRECISION DEFAULT 0,
    reason               TEXT DEFAULT '',
    triggering_event_id  TEXT DEFAULT '',
    contributing_factors JSONB DEFAULT '[]',
    status               TEXT NOT NULL DEFAULT 'pending',
    dm_notes             TEXT DEFAULT '',
    created_at           TIMESTAMPTZ NOT NULL,
    resolved_at          TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_events_game ON events (game_id, turn, timestamp);
CREATE INDEX IF NOT EXISTS idx_events_actor ON events (game_id, actor_id, turn, timestamp);
CREATE INDEX IF NOT EXISTS idx_evolutions_game_status ON pending_evolutions (game_id, status, turn, created_at);
CREATE INDEX IF NOT EXISTS idx_notifications_game ON emergence_notifications (game_id, created_at);
CREATE UNIQUE INDEX IF NOT EXISTS uq_pending_emergence
    ON emergence_notifications (game_id, entity_id, emergence_type)
    WHERE status = 'pending';
`
	_, err := c.pool.Exec(ctx, ddl)
	if err != nil {
		return fmt.Errorf("ensuring schema: %w", err)
	}
	return nil
}
