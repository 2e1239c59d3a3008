package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"reckoning/internal/evolution"
)

const evolutionColumns = `id, game_id, turn, evolution_type, entity_type, entity_id, trait,
	target_type, target_id, dimension, old_value, new_value, reason, source_event_id,
	status, dm_notes, created_at, resolved_at`

func (c *Client) PutEvolution(ctx context.Context, e evolution.PendingEvolution) error {
	query := `
	INSERT INTO pending_evolutions (` + evolutionColumns + `)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := c.db.ExecContext(ctx, query,
		e.ID,
		e.GameID,
		e.Turn,
		string(e.Type),
		string(e.EntityType),
		e.EntityID,
		e.Trait,
		string(e.TargetType),
		e.TargetID,
		string(e.Dimension),
		e.OldValue,
		e.NewValue,
		e.Reason,
		e.SourceEventID,
		string(e.Status),
		e.DMNotes,
		encodeTime(e.CreatedAt),
		encodeTimePtr(e.ResolvedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting evolution: %w", err)
	}
	return nil
}

func (c *Client) GetEvolution(ctx context.Context, id string) (*evolution.PendingEvolution, error) {
	row := c.db.QueryRowContext(ctx, `SELECT `+evolutionColumns+` FROM pending_evolutions WHERE id = ?`, id)
	e, err := scanEvolution(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting evolution: %w", err)
	}
	return e, nil
}

func (c *Client) ListEvolutionsByGame(ctx context.Context, gameID string, status evolution.Status) ([]evolution.PendingEvolution, error) {
	query := `
	SELECT ` + evolutionColumns + ` FROM pending_evolutions
	WHERE game_id = ?
	  AND (? = '' OR status = ?)
	ORDER BY turn, created_at
	`

	rows, err := c.db.QueryContext(ctx, query, gameID, string(status), string(status))
	if err != nil {
		return nil, fmt.Errorf("listing evolutions: %w", err)
	}
	defer rows.Close()

	evolutions := []evolution.PendingEvolution{}
	for rows.Next() {
		e, err := scanEvolution(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning evolution: %w", err)
		}
		evolutions = append(evolutions, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating evolutions: %w", err)
	}
	return evolutions, nil
}

func (c *Client) UpdateEvolution(ctx context.Context, e evolution.PendingEvolution) error {
	query := `
	UPDATE pending_evolutions SET
		trait = ?,
		target_type = ?,
		target_id = ?,
		dimension = ?,
		old_value = ?,
		new_value = ?,
		reason = ?,
		status = ?,
		dm_notes = ?,
		resolved_at = ?
	WHERE id = ?
	`

	result, err := c.db.ExecContext(ctx, query,
		e.Trait,
		string(e.TargetType),
		e.TargetID,
		string(e.Dimension),
		e.OldValue,
		e.NewValue,
		e.Reason,
		string(e.Status),
		e.DMNotes,
		encodeTimePtr(e.ResolvedAt),
		e.ID,
	)
	if err != nil {
		return fmt.Errorf("updating evolution: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("updating evolution %s: no such row", e.ID)
	}
	return nil
}

func (c *Client) DeleteEvolutionsByGame(ctx context.Context, gameID string) (int64, error) {
	result, err := c.db.ExecContext(ctx, `DELETE FROM pending_evolutions WHERE game_id = ?`, gameID)
	if err != nil {
		return 0, fmt.Errorf("deleting evolutions: %w", err)
	}
	return result.RowsAffected()
}

func scanEvolution(row rowScanner) (*evolution.PendingEvolution, error) {
	var e evolution.PendingEvolution
	var createdAt string
	var resolvedAt sql.NullString

	err := row.Scan(
		&e.ID,
		&e.GameID,
		&e.Turn,
		&e.Type,
		&e.EntityType,
		&e.EntityID,
		&e.Trait,
		&e.TargetType,
		&e.TargetID,
		&e.Dimension,
		&e.OldValue,
		&e.NewValue,
		&e.Reason,
		&e.SourceEventID,
		&e.Status,
		&e.DMNotes,
		&createdAt,
		&resolvedAt,
	)
	if err != nil {
		return nil, err
	}

	if e.CreatedAt, err = decodeTime(createdAt); err != nil {
		return nil, err
	}
	if e.ResolvedAt, err = decodeTimePtr(resolvedAt); err != nil {
		return nil, err
	}
	return &e, nil
}
