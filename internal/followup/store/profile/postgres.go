package profile

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"safereturn/internal/followup/models"
	id "safereturn/pkg/domain"
	"safereturn/pkg/platform/sentinel"
)

// Postgres persists cases.
//
// Schema (see internal/storage/schema.sql):
//
//	CREATE TABLE cases (
//	    id                UUID PRIMARY KEY,
//	    person_id         UUID NOT NULL UNIQUE REFERENCES persons(id) ON DELETE CASCADE,
//	    release_date      DATE NOT NULL,
//	    followup_end_date DATE NOT NULL,
//	    risk_tier         TEXT NOT NULL DEFAULT 'green',
//	    city              TEXT NOT NULL,
//	    notes             TEXT NOT NULL DEFAULT '',
//	    caseworker_id     UUID REFERENCES persons(id) ON DELETE SET NULL,
//	    is_completed      BOOLEAN NOT NULL DEFAULT FALSE,
//	    created_at        TIMESTAMPTZ NOT NULL,
//	    updated_at        TIMESTAMPTZ NOT NULL
//	);
//
// The UNIQUE constraint on person_id is the store-level guarantee behind the
// one-case-per-person invariant.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const caseColumns = "id, person_id, release_date, followup_end_date, risk_tier, city, notes, caseworker_id, is_completed, created_at, updated_at"

func (s *Postgres) CreateIfPersonUnassigned(ctx context.Context, c *models.Case) error {
	var caseworker any
	if c.CaseworkerID != nil {
		caseworker = uuid.UUID(*c.CaseworkerID)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO cases (`+caseColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, uuid.UUID(c.ID), uuid.UUID(c.PersonID), c.ReleaseDate, c.FollowupEndDate,
		c.RiskTier.String(), c.City.String(), c.Notes, caseworker, c.Completed,
		c.CreatedAt, c.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return fmt.Errorf("person already has a case: %w", sentinel.ErrAlreadyUsed)
		}
		return fmt.Errorf("insert case: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, caseID id.CaseID) (*models.Case, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+caseColumns+` FROM cases WHERE id = $1
	`, uuid.UUID(caseID))
	return scanCase(row)
}

func (s *Postgres) FindByPerson(ctx context.Context, personID id.PersonID) (*models.Case, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+caseColumns+` FROM cases WHERE person_id = $1
	`, uuid.UUID(personID))
	return scanCase(row)
}

// Execute runs validate-then-mutate while holding a row lock
// (SELECT ... FOR UPDATE) inside a transaction, so concurrent writers on the
// same case serialize and the mutation commits before Execute returns.
func (s *Postgres) Execute(ctx context.Context, caseID id.CaseID, validate func(*models.Case) error, mutate func(*models.Case)) (*models.Case, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx, `
		SELECT `+caseColumns+` FROM cases WHERE id = $1 FOR UPDATE
	`, uuid.UUID(caseID))
	c, err := scanCase(row)
	if err != nil {
		return nil, err
	}

	if validate != nil {
		if err := validate(c); err != nil {
			return nil, err
		}
	}
	mutate(c)

	var caseworker any
	if c.CaseworkerID != nil {
		caseworker = uuid.UUID(*c.CaseworkerID)
	}
	_, err = tx.ExecContext(ctx, `
		UPDATE cases
		SET followup_end_date = $2, risk_tier = $3, city = $4, notes = $5,
		    caseworker_id = $6, is_completed = $7, updated_at = $8
		WHERE id = $1
	`, uuid.UUID(c.ID), c.FollowupEndDate, c.RiskTier.String(), c.City.String(),
		c.Notes, caseworker, c.Completed, c.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("update case: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return c, nil
}

func (s *Postgres) ListByCaseworker(ctx context.Context, caseworkerID id.PersonID) ([]*models.Case, error) {
	return s.list(ctx, `
		SELECT `+caseColumns+` FROM cases WHERE caseworker_id = $1 ORDER BY created_at DESC
	`, uuid.UUID(caseworkerID))
}

func (s *Postgres) ListAll(ctx context.Context) ([]*models.Case, error) {
	return s.list(ctx, `SELECT `+caseColumns+` FROM cases ORDER BY created_at DESC`)
}

func (s *Postgres) ClearCaseworker(ctx context.Context, caseworkerID id.PersonID) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE cases SET caseworker_id = NULL WHERE caseworker_id = $1
	`, uuid.UUID(caseworkerID))
	if err != nil {
		return fmt.Errorf("clear caseworker: %w", err)
	}
	return nil
}

func (s *Postgres) DeleteByPerson(ctx context.Context, personID id.PersonID) (id.CaseID, error) {
	row := s.db.QueryRowContext(ctx, `
		DELETE FROM cases WHERE person_id = $1 RETURNING id
	`, uuid.UUID(personID))
	var caseID uuid.UUID
	if err := row.Scan(&caseID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return id.CaseID{}, fmt.Errorf("case not found: %w", sentinel.ErrNotFound)
		}
		return id.CaseID{}, fmt.Errorf("delete case: %w", err)
	}
	return id.CaseID(caseID), nil
}

func (s *Postgres) list(ctx context.Context, query string, args ...any) ([]*models.Case, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list cases: %w", err)
	}
	defer rows.Close()

	var out []*models.Case
	for rows.Next() {
		c, err := scanCase(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCase(row rowScanner) (*models.Case, error) {
	var (
		c          models.Case
		caseID     uuid.UUID
		personID   uuid.UUID
		tier       string
		city       string
		caseworker uuid.NullUUID
	)
	err := row.Scan(&caseID, &personID, &c.ReleaseDate, &c.FollowupEndDate, &tier,
		&city, &c.Notes, &caseworker, &c.Completed, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("case not found: %w", sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("scan case: %w", err)
	}
	c.ID = id.CaseID(caseID)
	c.PersonID = id.PersonID(personID)
	c.RiskTier = models.Tier(tier)
	c.City = id.City(city)
	if caseworker.Valid {
		cw := id.PersonID(caseworker.UUID)
		c.CaseworkerID = &cw
	}
	return &c, nil
}
