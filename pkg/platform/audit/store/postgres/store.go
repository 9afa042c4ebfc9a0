package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	id "safereturn/pkg/domain"
	audit "safereturn/pkg/platform/audit"
	txcontext "safereturn/pkg/platform/tx"
)

// Store implements audit.Store using the transactional outbox pattern.
// Events are written to the outbox table and published to Kafka by the
// relay; Kafka is the source of truth for audit events.
//
// Schema (see internal/storage/schema.sql):
//
//	CREATE TABLE outbox (
//	    id             UUID PRIMARY KEY,
//	    aggregate_type TEXT NOT NULL,
//	    aggregate_id   TEXT NOT NULL,
//	    event_type     TEXT NOT NULL,
//	    payload        JSONB NOT NULL,
//	    created_at     TIMESTAMPTZ NOT NULL,
//	    published_at   TIMESTAMPTZ
//	);
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Store) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

// outboxPayload is the JSON structure published to Kafka.
// Field names match audit.Event for deserialization by consumers.
type outboxPayload struct {
	ID        string `json:"ID"`
	Category  string `json:"Category"`
	Timestamp string `json:"Timestamp"`
	PersonID  string `json:"PersonID,omitempty"`
	Subject   string `json:"Subject"`
	Action    string `json:"Action"`
	Reason    string `json:"Reason,omitempty"`
	ActorID   string `json:"ActorID,omitempty"`
	RequestID string `json:"RequestID,omitempty"`
}

// Append writes an audit event to the outbox table for Kafka publishing.
// When a transaction rides the context the outbox row commits or rolls back
// with the domain write it describes.
func (s *Store) Append(ctx context.Context, event audit.Event) error {
	eventID := uuid.New()
	category := audit.AuditEvent(event.Action).Category()

	payload := outboxPayload{
		ID:        eventID.String(),
		Category:  string(category),
		Timestamp: event.Timestamp.Format(time.RFC3339Nano),
		Subject:   event.Subject,
		Action:    event.Action,
		Reason:    event.Reason,
		ActorID:   event.ActorID,
		RequestID: event.RequestID,
	}
	if !event.PersonID.IsNil() {
		payload.PersonID = uuid.UUID(event.PersonID).String()
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal audit payload: %w", err)
	}

	aggregateType := "audit"
	aggregateID := eventID.String()
	if !event.PersonID.IsNil() {
		aggregateType = "person"
		aggregateID = uuid.UUID(event.PersonID).String()
	}

	_, err = s.execer(ctx).ExecContext(ctx, `
		INSERT INTO outbox (id, aggregate_type, aggregate_id, event_type, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, eventID, aggregateType, aggregateID, event.Action, payloadBytes, time.Now())
	if err != nil {
		return fmt.Errorf("insert outbox entry: %w", err)
	}
	return nil
}

// ListByPerson reads events back from the outbox. Listing queries normally
// hit a consumer-side materialization; this keeps the Store contract whole
// for deployments running without one.
func (s *Store) ListByPerson(ctx context.Context, personID id.PersonID) ([]audit.Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT payload FROM outbox
		WHERE aggregate_type = 'person' AND aggregate_id = $1
		ORDER BY created_at ASC
	`, uuid.UUID(personID).String())
	if err != nil {
		return nil, fmt.Errorf("list outbox entries: %w", err)
	}
	defer rows.Close()

	var out []audit.Event
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan outbox entry: %w", err)
		}
		var p outboxPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("unmarshal outbox payload: %w", err)
		}
		event := audit.Event{
			Subject:   p.Subject,
			Action:    p.Action,
			Reason:    p.Reason,
			ActorID:   p.ActorID,
			RequestID: p.RequestID,
		}
		if ts, err := time.Parse(time.RFC3339Nano, p.Timestamp); err == nil {
			event.Timestamp = ts
		}
		if p.PersonID != "" {
			if parsed, err := uuid.Parse(p.PersonID); err == nil {
				event.PersonID = id.PersonID(parsed)
			}
		}
		out = append(out, event)
	}
	return out, rows.Err()
}

// MarkPublished stamps outbox rows the relay has delivered to Kafka.
func (s *Store) MarkPublished(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	raw := make([]string, len(ids))
	for i, entryID := range ids {
		raw[i] = entryID.String()
	}
	_, err := s.db.ExecContext(ctx, `
		UPDATE outbox SET published_at = $1 WHERE id = ANY($2::uuid[])
	`, time.Now(), pq.Array(raw))
	if err != nil {
		return fmt.Errorf("mark outbox published: %w", err)
	}
	return nil
}

// Unpublished returns up to limit outbox rows the relay has not delivered
// yet, oldest first.
func (s *Store) Unpublished(ctx context.Context, limit int) ([]OutboxRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, event_type, aggregate_id, payload FROM outbox
		WHERE published_at IS NULL
		ORDER BY created_at ASC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list unpublished outbox entries: %w", err)
	}
	defer rows.Close()

	var out []OutboxRow
	for rows.Next() {
		var r OutboxRow
		if err := rows.Scan(&r.ID, &r.EventType, &r.AggregateID, &r.Payload); err != nil {
			return nil, fmt.Errorf("scan outbox entry: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// OutboxRow is one pending outbox entry awaiting Kafka delivery.
type OutboxRow struct {
	ID          uuid.UUID
	EventType   string
	AggregateID string
	Payload     []byte
}
