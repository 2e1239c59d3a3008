package sqlite

import (
	"context"
	"fmt"
)

// DeleteGame removes all rows for a game across every table in one
// transaction.
func (c *Client) DeleteGame(ctx context.Context, gameID string) (int64, error) {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var total int64
	for _, table := range []string{"events", "pending_evolutions", "emergence_notifications"} {
		result, err := tx.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE game_id = ?", table), gameID)
		if err != nil {
			return 0, fmt.Errorf("deleting from %s: %w", table, err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("getting rows affected: %w", err)
		}
		total += affected
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing delete transaction: %w", err)
	}
	return total, nil
}
