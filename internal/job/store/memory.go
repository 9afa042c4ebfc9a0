package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"safereturn/internal/job/models"
	id "safereturn/pkg/domain"
	"safereturn/pkg/platform/sentinel"
)

// InMemory stores job listings in memory for tests/dev.
type InMemory struct {
	mu   sync.RWMutex
	jobs map[id.JobID]*models.JobOpportunity
}

// NewInMemory constructs an empty in-memory job store.
func NewInMemory() *InMemory {
	return &InMemory{jobs: make(map[id.JobID]*models.JobOpportunity)}
}

func (s *InMemory) Create(_ context.Context, j *models.JobOpportunity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[j.ID] = copyJob(j)
	return nil
}

func (s *InMemory) FindByID(_ context.Context, jobID id.JobID) (*models.JobOpportunity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if j, ok := s.jobs[jobID]; ok {
		return copyJob(j), nil
	}
	return nil, fmt.Errorf("job not found: %w", sentinel.ErrNotFound)
}

// ListActive returns active listings, newest first, optionally narrowed to
// one city. An empty city means all cities.
func (s *InMemory) ListActive(_ context.Context, city id.City) ([]*models.JobOpportunity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.JobOpportunity
	for _, j := range s.jobs {
		if !j.Active {
			continue
		}
		if city != "" && j.City != city {
			continue
		}
		out = append(out, copyJob(j))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// Deactivate retires a listing without deleting it.
func (s *InMemory) Deactivate(_ context.Context, jobID id.JobID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[jobID]
	if !ok {
		return fmt.Errorf("job not found: %w", sentinel.ErrNotFound)
	}
	j.Active = false
	return nil
}

func copyJob(j *models.JobOpportunity) *models.JobOpportunity {
	c := *j
	return &c
}
