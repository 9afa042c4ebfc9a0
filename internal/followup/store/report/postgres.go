package report

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"safereturn/internal/followup/models"
	id "safereturn/pkg/domain"
	"safereturn/pkg/platform/sentinel"
)

// Postgres persists monthly reports.
//
// Schema (see internal/storage/schema.sql):
//
//	CREATE TABLE monthly_reports (
//	    id             UUID PRIMARY KEY,
//	    case_id        UUID NOT NULL REFERENCES cases(id) ON DELETE CASCADE,
//	    month_index    INT NOT NULL CHECK (month_index BETWEEN 1 AND 12),
//	    housing_status TEXT NOT NULL,
//	    job_status     TEXT NOT NULL,
//	    mental_state   TEXT NOT NULL,
//	    family_status  TEXT NOT NULL,
//	    notes          TEXT NOT NULL DEFAULT '',
//	    created_at     TIMESTAMPTZ NOT NULL,
//	    UNIQUE (case_id, month_index)
//	);
//
// The (case_id, month_index) constraint backs the keyed-upsert contract:
// resubmitting a month replaces the stored row via ON CONFLICT DO UPDATE,
// keeping the original row ID.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const reportColumns = "id, case_id, month_index, housing_status, job_status, mental_state, family_status, notes, created_at"

// Upsert inserts the report, or on a (case, month) collision overwrites the
// prior submission's fields while retaining its ID. The returned bool is true
// when an earlier submission was replaced.
func (s *Postgres) Upsert(ctx context.Context, r *models.MonthlyReport) (*models.MonthlyReport, bool, error) {
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO monthly_reports (`+reportColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (case_id, month_index) DO UPDATE SET
			housing_status = EXCLUDED.housing_status,
			job_status     = EXCLUDED.job_status,
			mental_state   = EXCLUDED.mental_state,
			family_status  = EXCLUDED.family_status,
			notes          = EXCLUDED.notes,
			created_at     = EXCLUDED.created_at
		RETURNING `+reportColumns+`, (xmax <> 0) AS replaced
	`, uuid.UUID(r.ID), uuid.UUID(r.CaseID), r.MonthIndex,
		r.HousingStatus.String(), r.JobStatus.String(), r.MentalState.String(),
		r.FamilyStatus.String(), r.Notes, r.CreatedAt)

	stored := &models.MonthlyReport{}
	var rawID, rawCase uuid.UUID
	var housing, job, mental, family string
	var replaced bool
	err := row.Scan(&rawID, &rawCase, &stored.MonthIndex, &housing, &job,
		&mental, &family, &stored.Notes, &stored.CreatedAt, &replaced)
	if err != nil {
		return nil, false, fmt.Errorf("upsert report: %w", err)
	}
	stored.ID = id.ReportID(rawID)
	stored.CaseID = id.CaseID(rawCase)
	stored.HousingStatus = models.HousingStatus(housing)
	stored.JobStatus = models.JobStatus(job)
	stored.MentalState = models.MentalState(mental)
	stored.FamilyStatus = models.FamilyStatus(family)
	return stored, replaced, nil
}

func (s *Postgres) FindByCaseMonth(ctx context.Context, caseID id.CaseID, monthIndex int) (*models.MonthlyReport, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+reportColumns+` FROM monthly_reports
		WHERE case_id = $1 AND month_index = $2
	`, uuid.UUID(caseID), monthIndex)
	return scanReport(row)
}

// Latest returns the most recently submitted report for a case by
// submission time, not month index.
func (s *Postgres) Latest(ctx context.Context, caseID id.CaseID) (*models.MonthlyReport, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+reportColumns+` FROM monthly_reports
		WHERE case_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`, uuid.UUID(caseID))
	return scanReport(row)
}

func (s *Postgres) ListByCase(ctx context.Context, caseID id.CaseID) ([]*models.MonthlyReport, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+reportColumns+` FROM monthly_reports
		WHERE case_id = $1
		ORDER BY month_index DESC
	`, uuid.UUID(caseID))
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	defer rows.Close()

	var out []*models.MonthlyReport
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Postgres) DeleteByCase(ctx context.Context, caseID id.CaseID) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM monthly_reports WHERE case_id = $1`, uuid.UUID(caseID))
	if err != nil {
		return fmt.Errorf("delete reports: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReport(row rowScanner) (*models.MonthlyReport, error) {
	r := &models.MonthlyReport{}
	var rawID, rawCase uuid.UUID
	var housing, job, mental, family string
	err := row.Scan(&rawID, &rawCase, &r.MonthIndex, &housing, &job,
		&mental, &family, &r.Notes, &r.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("report not found: %w", sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("scan report: %w", err)
	}
	r.ID = id.ReportID(rawID)
	r.CaseID = id.CaseID(rawCase)
	r.HousingStatus = models.HousingStatus(housing)
	r.JobStatus = models.JobStatus(job)
	r.MentalState = models.MentalState(mental)
	r.FamilyStatus = models.FamilyStatus(family)
	return r, nil
}
