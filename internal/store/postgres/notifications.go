package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"reckoning/internal/emergence"
)

const notificationColumns = `id, game_id, emergence_type, entity_type, entity_id, confidence,
	reason, triggering_event_id, contributing_factors, status, dm_notes, created_at, resolved_at`

func (c *Client) PutNotification(ctx context.Context, n emergence.Notification) error {
	factorsJSON, err := json.Marshal(n.ContributingFactors)
	if err != nil {
		return fmt.Errorf("marshaling contributing factors: %w", err)
	}

	query := `
	INSERT INTO emergence_notifications (` + notificationColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err = c.pool.Exec(ctx, query,
		n.ID,
		n.GameID,
		n.EmergenceType,
		string(n.Entity.Type),
		n.Entity.ID,
		n.Confidence,
		n.Reason,
		n.TriggeringEventID,
		factorsJSON,
		string(n.Status),
		n.DMNotes,
		n.CreatedAt.UTC(),
		n.ResolvedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting notification: %w", err)
	}
	return nil
}

func (c *Client) GetNotification(ctx context.Context, id string) (*emergence.Notification, error) {
	row := c.pool.QueryRow(ctx, `SELECT `+notificationColumns+` FROM emergence_notifications WHERE id = $1`, id)
	n, err := scanNotification(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting notification: %w", err)
	}
	return n, nil
}

func (c *Client) GetPendingNotification(ctx context.Context, gameID, entityID, emergenceType string) (*emergence.Notification, error) {
	query := `
	SELECT ` + notificationColumns + ` FROM emergence_notifications
	WHERE game_id = $1 AND entity_id = $2 AND emergence_type = $3 AND status = 'pending'
	LIMIT 1
	`
	row := c.pool.QueryRow(ctx, query, gameID, entityID, emergenceType)
	n, err := scanNotification(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting pending notification: %w", err)
	}
	return n, nil
}

func (c *Client) ListNotificationsByGame(ctx context.Context, gameID string, pendingOnly bool, limit int) ([]emergence.Notification, error) {
	query := `
	SELECT ` + notificationColumns + ` FROM emergence_notifications
	WHERE game_id = $1
	  AND (NOT $2 OR status = 'pending')
	ORDER BY created_at DESC
	`
	args := []any{gameID, pendingOnly}
	if limit > 0 {
		query += " LIMIT $3"
		args = append(args, limit)
	}

	rows, err := c.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing notifications: %w", err)
	}
	defer rows.Close()

	notifications := []emergence.Notification{}
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning notification: %w", err)
		}
		notifications = append(notifications, *n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating notifications: %w", err)
	}
	return notifications, nil
}

func (c *Client) UpdateNotification(ctx context.Context, n emergence.Notification) error {
	query := `
	UPDATE emergence_notifications SET
		status = $1,
		dm_notes = $2,
		resolved_at = $3
	WHERE id = $4
	`

	tag, err := c.pool.Exec(ctx, query,
		string(n.Status),
		n.DMNotes,
		n.ResolvedAt,
		n.ID,
	)
	if err != nil {
		return fmt.Errorf("updating notification: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("updating notification %s: no such row", n.ID)
	}
	return nil
}

func (c *Client) DeleteNotificationsByGame(ctx context.Context, gameID string) (int64, error) {
	tag, err := c.pool.Exec(ctx, `DELETE FROM emergence_notifications WHERE game_id = $1`, gameID)
	if err != nil {
		return 0, fmt.Errorf("deleting notifications: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanNotification(row pgx.Row) (*emergence.Notification, error) {
	var n emergence.Notification
	var factorsBytes []byte
	err := row.Scan(
		&n.ID,
		&n.GameID,
		&n.EmergenceType,
		&n.Entity.Type,
		&n.Entity.ID,
		&n.Confidence,
		&n.Reason,
		&n.TriggeringEventID,
		&factorsBytes,
		&n.Status,
		&n.DMNotes,
		&n.CreatedAt,
		&n.ResolvedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(factorsBytes) > 0 {
		if err := json.Unmarshal(factorsBytes, &n.ContributingFactors); err != nil {
			return nil, fmt.Errorf("unmarshaling contributing factors: %w", err)
		}
	}
	return &n, nil
}
