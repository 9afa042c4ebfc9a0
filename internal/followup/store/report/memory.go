package report

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"safereturn/internal/followup/models"
	id "safereturn/pkg/domain"
	"safereturn/pkg/platform/sentinel"
)

type monthKey struct {
	caseID id.CaseID
	month  int
}

// InMemory stores monthly reports in memory for tests/dev.
//
// The canonical key is (case, month index): resubmitting a month replaces
// the stored report in place rather than appending, per the keyed-upsert
// contract. The audit trail, not this store, is where edit history lives.
type InMemory struct {
	mu      sync.RWMutex
	reports map[monthKey]*models.MonthlyReport
}

// NewInMemory constructs an empty in-memory report store.
func NewInMemory() *InMemory {
	return &InMemory{reports: make(map[monthKey]*models.MonthlyReport)}
}

// Upsert writes the report under its (case, month) key. When a report for
// that month already exists its ID is retained and every other field,
// including CreatedAt (which tracks submission recency), is overwritten.
// Returns the stored report and whether an earlier submission was replaced.
func (s *InMemory) Upsert(_ context.Context, r *models.MonthlyReport) (*models.MonthlyReport, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := monthKey{caseID: r.CaseID, month: r.MonthIndex}
	stored := copyReport(r)
	prior, replaced := s.reports[key]
	if replaced {
		stored.ID = prior.ID
	}
	s.reports[key] = stored
	return copyReport(stored), replaced, nil
}

func (s *InMemory) FindByCaseMonth(_ context.Context, caseID id.CaseID, monthIndex int) (*models.MonthlyReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if r, ok := s.reports[monthKey{caseID: caseID, month: monthIndex}]; ok {
		return copyReport(r), nil
	}
	return nil, fmt.Errorf("report not found: %w", sentinel.ErrNotFound)
}

// Latest returns the most recently submitted report for a case: by
// CreatedAt, not month index, so a backfilled month submitted later wins.
func (s *InMemory) Latest(_ context.Context, caseID id.CaseID) (*models.MonthlyReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var best *models.MonthlyReport
	for key, r := range s.reports {
		if key.caseID != caseID {
			continue
		}
		if best == nil || r.CreatedAt.After(best.CreatedAt) {
			best = r
		}
	}
	if best == nil {
		return nil, fmt.Errorf("report not found: %w", sentinel.ErrNotFound)
	}
	return copyReport(best), nil
}

// ListByCase returns a case's reports ordered by month index descending,
// matching the original dashboard ordering.
func (s *InMemory) ListByCase(_ context.Context, caseID id.CaseID) ([]*models.MonthlyReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.MonthlyReport
	for key, r := range s.reports {
		if key.caseID == caseID {
			out = append(out, copyReport(r))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MonthIndex > out[j].MonthIndex })
	return out, nil
}

// DeleteByCase removes all reports owned by a case (cascade path).
func (s *InMemory) DeleteByCase(_ context.Context, caseID id.CaseID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key := range s.reports {
		if key.caseID == caseID {
			delete(s.reports, key)
		}
	}
	return nil
}

func copyReport(r *models.MonthlyReport) *models.MonthlyReport {
	c := *r
	return &c
}
