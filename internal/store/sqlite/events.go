package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"reckoning/internal/event"
)

const eventColumns = `id, game_id, turn, timestamp, event_type, content, speaker, location_id,
	action, actor_type, actor_id, target_type, target_id, witnesses, tags`

func (c *Client) PutEvent(ctx context.Context, ev event.Event) error {
	witnessesJSON, err := json.Marshal(ev.Witnesses)
	if err != nil {
		return fmt.Errorf("marshaling witnesses: %w", err)
	}
	tagsJSON, err := json.Marshal(ev.Tags)
	if err != nil {
		return fmt.Errorf("marshaling tags: %w", err)
	}

	query := `
	INSERT INTO events (` + eventColumns + `)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = c.db.ExecContext(ctx, query,
		ev.ID,
		ev.GameID,
		ev.Turn,
		encodeTime(ev.Timestamp),
		string(ev.EventType),
		ev.Content,
		ev.Speaker,
		ev.LocationID,
		string(ev.Action),
		string(ev.ActorType),
		ev.ActorID,
		string(ev.TargetType),
		ev.TargetID,
		witnessesJSON,
		tagsJSON,
	)
	if err != nil {
		return fmt.Errorf("inserting event: %w", err)
	}
	return nil
}

func (c *Client) GetEvent(ctx context.Context, id string) (*event.Event, error) {
	row := c.db.QueryRowContext(ctx, `SELECT `+eventColumns+` FROM events WHERE id = ?`, id)
	ev, err := scanEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
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
	WHERE game_id = ?
	ORDER BY turn, timestamp
	`
	args := []any{gameID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	return c.queryEvents(ctx, query, args...)
}

func (c *Client) ListEventsByActor(ctx context.Context, gameID, actorID string, limit int) ([]event.Event, error) {
	query := `
	SELECT ` + eventColumns + ` FROM events
	WHERE game_id = ? AND actor_id = ?
	ORDER BY turn DESC, timestamp DESC
	`
	args := []any{gameID, actorID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	return c.queryEvents(ctx, query, args...)
}

func (c *Client) DeleteEventsByGame(ctx context.Context, gameID string) (int64, error) {
	result, err := c.db.ExecContext(ctx, `DELETE FROM events WHERE game_id = ?`, gameID)
	if err != nil {
		return 0, fmt.Errorf("deleting events: %w", err)
	}
	return result.RowsAffected()
}

func (c *Client) queryEvents(ctx context.Context, query string, args ...any) ([]event.Event, error) {
	rows, err := c.db.QueryContext(ctx, query, args...)
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

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (*event.Event, error) {
	var ev event.Event
	var timestamp string
	var witnessesBytes, tagsBytes []byte

	err := row.Scan(
		&ev.ID,
		&ev.GameID,
		&ev.Turn,
		&timestamp,
		&ev.EventType,
		&ev.Content,
		&ev.Speaker,
		&ev.LocationID,
		&ev.Action,
		&ev.ActorType,
		&ev.ActorID,
		&ev.TargetType,
		&ev.TargetID,
		&witnessesBytes,
		&tagsBytes,
	)
	if err != nil {
		return nil, err
	}

	if ev.Timestamp, err = decodeTime(timestamp); err != nil {
		return nil, err
	}
	if len(witnessesBytes) > 0 {
		if err := json.Unmarshal(witnessesBytes, &ev.Witnesses); err != nil {
			return nil, fmt.Errorf("unmarshaling witnesses: %w", err)
		}
	}
	if len(tagsBytes) > 0 {
		if err := json.Unmarshal(tagsBytes, &ev.Tags); err != nil {
			return nil, fmt.Errorf("unmarshaling tags: %w", err)
		}
	}
	if ev.Witnesses == nil {
		ev.Witnesses = []string{}
	}
	if ev.Tags == nil {
		ev.Tags = []string{}
	}
	return &ev, nil
}
