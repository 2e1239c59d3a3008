package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"reckoning/internal/evolution"
)

const evolutionColumns = `id, game_id, turn, evolution_type, entity_type, entity_id, trait,
	target_type, target_id, dimension, old_value, new_value, reason, source_event_id,
	status, dm_notes, created_at, resolved_at`

func (c *Client) PutEvolution(ctx context.Context, e evolution.PendingEvolution) error {
	query := `
	INSERT INTO pending_evolutions (` + evolutionColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	`

	_, err := c.pool.Exec(ctx, query,
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
		e.CreatedAt.UTC(),
		e.ResolvedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting evolution: %w", err)
	}
	return nil
}

func (c *Client) GetEvolution(ctx context.Context, id string) (*evolution.PendingEvolution, error) {
	row := c.pool.QueryRow(ctx, `SELECT `+evolutionColumns+` FROM pending_evolutions WHERE id = $1`, id)
	e, err := scanEvolution(row)
	if errors.Is(err, pgx.ErrNoRows) {
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
	WHERE game_id = $1
	  AND ($2 = '' OR status = $2)
	ORDER BY turn, created_at
	`

	rows, err := c.pool.Query(ctx, query, gameID, string(status))
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
		trait = $1,
		target_type = $2,
		target_id = $3,
		dimension = $4,
		old_value = $5,
		new_value = $6,
		reason = $7,
		status = $8,
		dm_notes = $9,
		resolved_at = $10
	WHERE id = $11
	`

	tag, err := c.pool.Exec(ctx, query,
		e.Trait,
		string(e.TargetType),
		e.TargetID,
		string(e.Dimension),
		e.OldValue,
		e.NewValue,
		e.Reason,
		string(e.Status),
		e.DMNotes,
		e.ResolvedAt,
		e.ID,
	)
	if err != nil {
		return fmt.Errorf("updating evolution: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("updating evolution %s: no such row", e.ID)
	}
	return nil
}

func (c *Client) DeleteEvolutionsByGame(ctx context.Context, gameID string) (int64, error) {
	tag, err := c.pool.Exec(ctx, `DELETE FROM pending_evolutions WHERE game_id = $1`, gameID)
	if err != nil {
		return 0, fmt.Errorf("deleting evolutions: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanEvolution(row pgx.Row) (*evolution.PendingEvolution, error) {
	var e evolution.PendingEvolution
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
		&e.CreatedAt,
		&e.ResolvedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}
