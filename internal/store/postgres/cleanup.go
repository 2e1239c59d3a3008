package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// DeleteGame removes all rows for a game across every table in one
// transaction.
func (c *Client) DeleteGame(ctx context.Context, gameID string) (int64, error) {
	tx, err := c.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var total int64
	for _, table := range []string{"events", "pending_evolutions", "emergence_notifications"} {
		tag, err := tx.Exec(ctx, fmt.Sprintf("DELETE FROM %s WHERE game_id = $1", table), gameID)
		if err != nil {
			return 0, fmt.Errorf("deleting from %s: %w", table, err)
		}
		total += tag.RowsAffected()
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("committing delete transaction: %w", err)
	}
	return total, nil
}
