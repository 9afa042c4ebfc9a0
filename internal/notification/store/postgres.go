package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"safereturn/internal/notification/models"
	id "safereturn/pkg/domain"
	"safereturn/pkg/platform/sentinel"
)

// Postgres persists notifications.
//
// Schema (see internal/storage/schema.sql):
//
//	CREATE TABLE notifications (
//	    id           UUID PRIMARY KEY,
//	    recipient_id UUID NOT NULL REFERENCES persons(id) ON DELETE CASCADE,
//	    message      TEXT NOT NULL,
//	    link         TEXT NOT NULL DEFAULT '',
//	    is_read      BOOLEAN NOT NULL DEFAULT FALSE,
//	    created_at   TIMESTAMPTZ NOT NULL
//	);
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const notificationColumns = "id, recipient_id, message, link, is_read, created_at"

func (s *Postgres) Append(ctx context.Context, n *models.Notification) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO notifications (`+notificationColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, uuid.UUID(n.ID), uuid.UUID(n.RecipientID), n.Message, n.Link, n.Read, n.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, notificationID id.NotificationID) (*models.Notification, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+notificationColumns+` FROM notifications WHERE id = $1
	`, uuid.UUID(notificationID))
	return scanNotification(row)
}

func (s *Postgres) ListByRecipient(ctx context.Context, recipientID id.PersonID) ([]*models.Notification, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+notificationColumns+` FROM notifications
		WHERE recipient_id = $1
		ORDER BY created_at DESC
	`, uuid.UUID(recipientID))
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var out []*models.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (s *Postgres) MarkRead(ctx context.Context, notificationID id.NotificationID) (*models.Notification, error) {
	row := s.db.QueryRowContext(ctx, `
		UPDATE notifications SET is_read = TRUE
		WHERE id = $1
		RETURNING `+notificationColumns+`
	`, uuid.UUID(notificationID))
	return scanNotification(row)
}

func (s *Postgres) DeleteByRecipient(ctx context.Context, recipientID id.PersonID) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM notifications WHERE recipient_id = $1`, uuid.UUID(recipientID))
	if err != nil {
		return fmt.Errorf("delete notifications: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNotification(row rowScanner) (*models.Notification, error) {
	n := &models.Notification{}
	var rawID, rawRecipient uuid.UUID
	err := row.Scan(&rawID, &rawRecipient, &n.Message, &n.Link, &n.Read, &n.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("notification not found: %w", sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("scan notification: %w", err)
	}
	n.ID = id.NotificationID(rawID)
	n.RecipientID = id.PersonID(rawRecipient)
	return n, nil
}
