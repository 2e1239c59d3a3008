package sqlite

import (
	"context"
	"fmt"
	"strings"
)

func (c *Client) EnsureSchema(ctx context.Context) error {
	ddl := `
	CREATE TABLE IF NOT EXISTS events (
		id          TEXT PRIMARY KEY,
		game_id     TEXT NOT NULL,
		turn        INTEGER NOT NULL DEFAULT 0,
		timestamp   TEXT NOT NULL,
		event_type  TEXT NOT NULL,
		content     TEXT NOT NULL DEFAULT '',
		speaker     TEXT DEFAULT '',
		location_id TEXT DEFAULT '',
		action      TEXT DEFAULT '',
		actor_type  TEXT DEFAULT '',
		actor_id    TEXT DEFAULT '',
		target_type TEXT DEFAULT '',
		target_id   TEXT DEFAULT '',
		witnesses   TEXT DEFAULT '[]',
		tags        TEXT DEFAULT '[]'
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
		old_value       REAL DEFAULT 0,
		new_value       REAL DEFAULT 0,
		reason          TEXT DEFAULT '',
		source_event_id TEXT DEFAULT '',
		status          TEXT NOT NULL DEFAULT 'pending',
		dm_notes        TEXT DEFAULT '',
		created_at      TEXT NOT NULL,
		resolved_at     TEXT
	);

	CREATE TABLE IF NOT EXISTS emergence_notifications (
		id                   TEXT PRIMARY KEY,
		game_id              TEXT NOT NULL,
		emergence_type       TEXT NOT NULL,
		entity_type          TEXT NOT NULL,
		entity_id            TEXT NOT NULL,
		confidence           REAL DEFAULT 0,
		reason               TEXT DEFAULT '',
		triggering_event_id  TEXT DEFAULT '',
		contributing_factors TEXT DEFAULT '[]',
		status               TEXT NOT NULL DEFAULT 'pending',
		dm_notes             TEXT DEFAULT '',
		created_at           TEXT NOT NULL,
		resolved_at          TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_events_game ON events (game_id, turn, timestamp);
	CREATE INDEX IF NOT EXISTS idx_events_actor ON events (game_id, actor_id, turn, timestamp);
	CREATE INDEX IF NOT EXISTS idx_evolutions_game_status ON pending_evolutions (game_id, status, turn, created_at);
	CREATE INDEX IF NOT EXISTS idx_notifications_game ON emergence_notifications (game_id, created_at);
	CREATE UNIQUE INDEX IF NOT EXISTS uq_pending_emergence
		ON emergence_notifications (game_id, entity_id, emergence_type)
		WHERE status = 'pending';
	`

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range splitStatements(ddl) {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("executing DDL: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing schema transaction: %w", err)
	}

	return nil
}

func splitStatements(ddl string) []string {
	var statements []string
	var current strings.Builder

	for _, line := range strings.Split(ddl, "\n") {
		stripped := strings.TrimSpace(line)
		if strings.HasPrefix(stripped, "--") {
			continue
		}
		current.WriteString(line)
		current.WriteString("\n")

		if strings.HasSuffix(stripped, ";") {
			statements = append(statements, current.String())
			current.Reset()
		}
	}

	if current.Len() > 0 {
		statements = append(statements, current.String())
	}

	return statements
}
