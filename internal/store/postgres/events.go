package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"reckoning/internal/event"
)

const eventColumns = `id, game_id, turn, timestamp, event_type, content, speaker, location_id,
	action, actor_type, actor_id, target_type, target_id, witnesses, tags`

func (c *Client) PutEvent(ctx context.Context, ev event.Event) error {
	query := `
	INSERT INTO events (` + eventColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	_, err := c.pool.Exec(ctx, query,
		ev.ID,
		ev.GameID,
		ev.Turn,
		ev.Timestamp.UTC(),
		string(ev.EventType),
		ev.Content,
		ev.Speaker,
		ev.LocationID,
		string(ev.Action),
		string(ev.ActorType),
		ev.ActorID,
		string(ev.TargetType),
		ev.TargetID,
		stringsOrEmpty(ev.Witnesses),
		stringsOrEmpty(ev.Tags),
	)
	if err != nil {
		return fmt.Errorf("inserting event: %w", err)
	}
	return nil
}

func (c *Client) GetEvent(ctx context.Context, id string) (*event.Event, error) {
	row := c.pool.QueryRow(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1`, id)
	ev, err := scanEvent(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting event: %w", err)
	}
	return ev, nil
}

func (c *Client) ListEventsByGame(ctx context.Context, gameID string, limit int) ([]event.Event, error) {
	query := `
	SELECT ` + eventColumns + ` FROM events
	WHERE game_id = $1
	ORDER BY turn, timestamp
	`
	args := []any{gameID}
	if limit > 0 {
		query += " LIMIT $2"
		args = append(args, limit)
	}
	return c.queryEvents(ctx, query, args...)
}

func (c *Client) ListEventsByActor(ctx context.Context, gameID, actorID string, limit int) ([]event.Event, error) {
	query := `
	SELECT ` + eventColumns + ` FROM events
	WHERE game_id = $1 AND actor_id = $2
	ORDER BY turn DESC, timestamp DESC
	`
	args := []any{gameID, actorID}
	if limit > 0 {
		query += " LIMIT $3"
		args = append(args, limit)
	}
	return c.queryEvents(ctx, query, args...)
}

func (c *Client) DeleteEventsByGame(ctx context.Context, gameID string) (int64, error) {
	tag, err := c.pool.Exec(ctx, `DELETE FROM events WHERE game_id = $1`, gameID)
	if err != nil {
		return 0, fmt.Errorf("deleting events: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (c *Client) queryEvents(ctx context.Context, query string, args ...any) ([]event.Event, error) {
	rows, err := c.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing events: %w", err)
	}
	defer rows.Close()

	events := []event.Event{}
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning event: %w", err)
		}
		events = append(events, *ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating events: %w", err)
	}
	return events, nil
}

func scanEvent(row pgx.Row) (*event.Event, error) {
	var ev event.Event
	err := row.Scan(
		&ev.ID,
		&ev.GameID,
		&ev.Turn,
		&ev.Timestamp,
		&ev.EventType,
		&ev.Content,
		&ev.Speaker,
		&ev.LocationID,
		&ev.Action,
		&ev.ActorType,
		&ev.ActorID,
		&ev.TargetType,
		&ev.TargetID,
		&ev.Witnesses,
		&ev.Tags,
	)
	if err != nil {
		return nil, err
	}
	if ev.Witnesses == nil {
		ev.Witnesses = []string{}
	}
	if ev.Tags == nil {
		ev.Tags = []string{}
	}
	return &ev, nil
}

func stringsOrEmpty(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
