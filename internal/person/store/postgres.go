package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"safereturn/internal/person/models"
	id "safereturn/pkg/domain"
	"safereturn/pkg/platform/sentinel"
)

// Postgres persists persons.
//
// Schema (see internal/storage/schema.sql):
//
//	CREATE TABLE persons (
//	    id          UUID PRIMARY KEY,
//	    national_id TEXT NOT NULL UNIQUE,
//	    full_name   TEXT NOT NULL,
//	    role        TEXT NOT NULL,
//	    phone       TEXT NOT NULL DEFAULT '',
//	    created_at  TIMESTAMPTZ NOT NULL
//	);
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const personColumns = "id, national_id, full_name, role, phone, created_at"

func (s *Postgres) CreateIfNationalIDAvailable(ctx context.Context, p *models.Person) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO persons (`+personColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, uuid.UUID(p.ID), p.NationalID, p.FullName, p.Role.String(), p.Phone, p.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return fmt.Errorf("national id already registered: %w", sentinel.ErrAlreadyUsed)
		}
		return fmt.Errorf("insert person: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, personID id.PersonID) (*models.Person, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+personColumns+` FROM persons WHERE id = $1
	`, uuid.UUID(personID))
	return scanPerson(row)
}

func (s *Postgres) FindByNationalID(ctx context.Context, nationalID string) (*models.Person, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+personColumns+` FROM persons WHERE national_id = $1
	`, nationalID)
	return scanPerson(row)
}

func (s *Postgres) Delete(ctx context.Context, personID id.PersonID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM persons WHERE id = $1`, uuid.UUID(personID))
	if err != nil {
		return fmt.Errorf("delete person: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete person: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("person not found: %w", sentinel.ErrNotFound)
	}
	return nil
}

func scanPerson(row *sql.Row) (*models.Person, error) {
	p := &models.Person{}
	var rawID uuid.UUID
	var role string
	err := row.Scan(&rawID, &p.NationalID, &p.FullName, &role, &p.Phone, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("person not found: %w", sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("scan person: %w", err)
	}
	p.ID = id.PersonID(rawID)
	p.Role = id.Role(role)
	return p, nil
}
