package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"safereturn/internal/job/models"
	id "safereturn/pkg/domain"
	"safereturn/pkg/platform/sentinel"
)

// Postgres persists job listings.
//
// Schema (see internal/storage/schema.sql):
//
//	CREATE TABLE job_opportunities (
//	    id          UUID PRIMARY KEY,
//	    title       TEXT NOT NULL,
//	    company     TEXT NOT NULL DEFAULT '',
//	    description TEXT NOT NULL,
//	    city        TEXT NOT NULL,
//	    is_active   BOOLEAN NOT NULL DEFAULT TRUE,
//	    link_url    TEXT NOT NULL DEFAULT '',
//	    created_at  TIMESTAMPTZ NOT NULL
//	);
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const jobColumns = "id, title, company, description, city, is_active, link_url, created_at"

func (s *Postgres) Create(ctx context.Context, j *models.JobOpportunity) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO job_opportunities (`+jobColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, uuid.UUID(j.ID), j.Title, j.Company, j.Description, j.City.String(),
		j.Active, j.LinkURL, j.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert job: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, jobID id.JobID) (*models.JobOpportunity, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+jobColumns+` FROM job_opportunities WHERE id = $1
	`, uuid.UUID(jobID))
	return scanJob(row)
}

func (s *Postgres) ListActive(ctx context.Context, city id.City) ([]*models.JobOpportunity, error) {
	query := `
		SELECT ` + jobColumns + ` FROM job_opportunities
		WHERE is_active AND ($1 = '' OR city = $1)
		ORDER BY created_at DESC
	`
	rows, err := s.db.QueryContext(ctx, query, city.String())
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var out []*models.JobOpportunity
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, j)
	}
	return out, rows.Err()
}

func (s *Postgres) Deactivate(ctx context.Context, jobID id.JobID) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE job_opportunities SET is_active = FALSE WHERE id = $1
	`, uuid.UUID(jobID))
	if err != nil {
		return fmt.Errorf("deactivate job: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deactivate job: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("job not found: %w", sentinel.ErrNotFound)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*models.JobOpportunity, error) {
	j := &models.JobOpportunity{}
	var rawID uuid.UUID
	var city string
	err := row.Scan(&rawID, &j.Title, &j.Company, &j.Description, &city,
		&j.Active, &j.LinkURL, &j.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("job not found: %w", sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("scan job: %w", err)
	}
	j.ID = id.JobID(rawID)
	j.City = id.City(city)
	return j, nil
}
