package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"safereturn/internal/ticket/models"
	id "safereturn/pkg/domain"
	"safereturn/pkg/platform/sentinel"
	txcontext "safereturn/pkg/platform/tx"
	"safereturn/pkg/requestcontext"
)

// Postgres persists support tickets.
//
// Schema (see internal/storage/schema.sql):
//
//	CREATE TABLE support_tickets (
//	    id             UUID PRIMARY KEY,
//	    case_id        UUID NOT NULL REFERENCES cases(id) ON DELETE CASCADE,
//	    category       TEXT NOT NULL,
//	    status         TEXT NOT NULL,
//	    notes          TEXT NOT NULL DEFAULT '',
//	    auto_generated BOOLEAN NOT NULL DEFAULT FALSE,
//	    created_by     UUID REFERENCES persons(id) ON DELETE SET NULL,
//	    created_at     TIMESTAMPTZ NOT NULL,
//	    updated_at     TIMESTAMPTZ NOT NULL
//	);
//	CREATE UNIQUE INDEX support_tickets_open_auto_key
//	    ON support_tickets (case_id, category)
//	    WHERE status = 'open' AND auto_generated;
//
// The partial unique index makes FindOrCreateOpenAuto race-free without a
// read-then-write: INSERT ... ON CONFLICT DO NOTHING, then re-select.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *Postgres) q(ctx context.Context) querier {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

const ticketColumns = "id, case_id, category, status, notes, auto_generated, created_by, created_at, updated_at"

func (s *Postgres) FindOrCreateOpenAuto(ctx context.Context, caseID id.CaseID, category models.Category, notes string) (*models.SupportTicket, bool, error) {
	now := requestcontext.Now(ctx)
	newID := uuid.New()

	res, err := s.q(ctx).ExecContext(ctx, `
		INSERT INTO support_tickets (id, case_id, category, status, notes, auto_generated, created_at, updated_at)
		VALUES ($1, $2, $3, 'open', $4, TRUE, $5, $5)
		ON CONFLICT (case_id, category) WHERE status = 'open' AND auto_generated DO NOTHING
	`, newID, uuid.UUID(caseID), category.String(), notes, now)
	if err != nil {
		return nil, false, fmt.Errorf("insert auto ticket: %w", err)
	}
	inserted, err := res.RowsAffected()
	if err != nil {
		return nil, false, fmt.Errorf("insert auto ticket: %w", err)
	}

	row := s.q(ctx).QueryRowContext(ctx, `
		SELECT `+ticketColumns+` FROM support_tickets
		WHERE case_id = $1 AND category = $2 AND status = 'open' AND auto_generated
	`, uuid.UUID(caseID), category.String())
	ticket, err := scanTicket(row)
	if err != nil {
		return nil, false, err
	}
	return ticket, inserted == 1, nil
}

func (s *Postgres) Create(ctx context.Context, t *models.SupportTicket) error {
	var createdBy any
	if t.CreatedBy != nil {
		createdBy = uuid.UUID(*t.CreatedBy)
	}
	_, err := s.q(ctx).ExecContext(ctx, `
		INSERT INTO support_tickets (`+ticketColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, uuid.UUID(t.ID), uuid.UUID(t.CaseID), t.Category.String(), t.Status.String(),
		t.Notes, t.AutoGenerated, createdBy, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return fmt.Errorf("ticket exists: %w", sentinel.ErrAlreadyUsed)
		}
		return fmt.Errorf("insert ticket: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, ticketID id.TicketID) (*models.SupportTicket, error) {
	row := s.q(ctx).QueryRowContext(ctx, `
		SELECT `+ticketColumns+` FROM support_tickets WHERE id = $1
	`, uuid.UUID(ticketID))
	return scanTicket(row)
}

func (s *Postgres) UpdateStatus(ctx context.Context, ticketID id.TicketID, status models.Status) (*models.SupportTicket, error) {
	row := s.q(ctx).QueryRowContext(ctx, `
		UPDATE support_tickets SET status = $2, updated_at = $3
		WHERE id = $1
		RETURNING `+ticketColumns+`
	`, uuid.UUID(ticketID), status.String(), requestcontext.Now(ctx))
	return scanTicket(row)
}

func (s *Postgres) ListByCase(ctx context.Context, caseID id.CaseID) ([]*models.SupportTicket, error) {
	rows, err := s.q(ctx).QueryContext(ctx, `
		SELECT `+ticketColumns+` FROM support_tickets
		WHERE case_id = $1
		ORDER BY created_at DESC
	`, uuid.UUID(caseID))
	if err != nil {
		return nil, fmt.Errorf("list tickets: %w", err)
	}
	defer rows.Close()

	var out []*models.SupportTicket
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *Postgres) DeleteByCase(ctx context.Context, caseID id.CaseID) error {
	_, err := s.q(ctx).ExecContext(ctx, `DELETE FROM support_tickets WHERE case_id = $1`, uuid.UUID(caseID))
	if err != nil {
		return fmt.Errorf("delete tickets: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTicket(row rowScanner) (*models.SupportTicket, error) {
	var (
		t         models.SupportTicket
		ticketID  uuid.UUID
		caseID    uuid.UUID
		category  string
		status    string
		createdBy uuid.NullUUID
	)
	err := row.Scan(&ticketID, &caseID, &category, &status, &t.Notes, &t.AutoGenerated, &createdBy, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("ticket not found: %w", sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("scan ticket: %w", err)
	}
	t.ID = id.TicketID(ticketID)
	t.CaseID = id.CaseID(caseID)
	t.Category = models.Category(category)
	t.Status = models.Status(status)
	if createdBy.Valid {
		creator := id.PersonID(createdBy.UUID)
		t.CreatedBy = &creator
	}
	return &t, nil
}
