package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

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
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = c.db.ExecContext(ctx, query,
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
		encodeTime(n.CreatedAt),
		encodeTimePtr(n.ResolvedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting notification: %w", err)
	}
	return nil
}

func (c *Client) GetNotification(ctx context.Context, id string) (*emergence.Notification, error) {
	row := c.db.QueryRowContext(ctx, `SELECT `+notificationColumns+` FROM emergence_notifications WHERE id = ?`, id)
	n, err := scanNotification(row)
	if errors.Is(err, sql.ErrNoRows) {
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
	WHERE game_id = ? AND entity_id = ? AND emergence_type = ? AND status = 'pending'
	LIMIT 1
	`
	row := c.db.QueryRowContext(ctx, query, gameID, entityID, emergenceType)
	n, err := scanNotification(row)
	if errors.Is(err, sql.ErrNoRows) {
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
	WHERE game_id = ?
	  AND (? = 0 OR status = 'pending')
	ORDER BY created_at DESC
	`
	args := []any{gameID, pendingOnly}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := c.db.QueryContext(ctx, query, args...)
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
		status = ?,
		dm_notes = ?,
		resolved_at = ?
	WHERE id = ?
	`

	result, err := c.db.ExecContext(ctx, query,
		string(n.Status),
		n.DMNotes,
		encodeTimePtr(n.ResolvedAt),
		n.ID,
	)
	if err != nil {
		return fmt.Errorf("updating notification: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("updating notification %s: no such row", n.ID)
	}
	return nil
}

func (c *Client) DeleteNotificationsByGame(ctx context.Context, gameID string) (int64, error) {
	result, err := c.db.ExecContext(ctx, `DELETE FROM emergence_notifications WHERE game_id = ?`, gameID)
	if err != nil {
		return 0, fmt.Errorf("deleting notifications: %w", err)
	}
	return result.RowsAffected()
}

func scanNotification(row rowScanner) (*emergence.Notification, error) {
	var n emergence.Notification
	var createdAt string
	var resolvedAt sql.NullString
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
		&createdAt,
		&resolvedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(factorsBytes) > 0 {
		if err := json.Unmarshal(factorsBytes, &n.ContributingFactors); err != nil {
			return nil, fmt.Errorf("unmarshaling contributing factors: %w", err)
		}
	}
	if n.CreatedAt, err = decodeTime(createdAt); err != nil {
		return nil, err
	}
	if n.ResolvedAt, err = decodeTimePtr(resolvedAt); err != nil {
		return nil, err
	}
	return &n, nil
}
