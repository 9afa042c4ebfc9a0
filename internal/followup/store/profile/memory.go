package profile

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"safereturn/internal/followup/models"
	id "safereturn/pkg/domain"
	"safereturn/pkg/platform/sentinel"
)

// InMemory stores cases in memory for tests/dev.
//
// Error Contract:
// - ErrNotFound when the requested case does not exist
// - ErrAlreadyUsed when the one-case-per-person invariant would break
// - nil for successful operations
type InMemory struct {
	mu       sync.RWMutex
	cases    map[id.CaseID]*models.Case
	byPerson map[id.PersonID]id.CaseID
}

// NewInMemory constructs an empty in-memory case store.
func NewInMemory() *InMemory {
	return &InMemory{
		cases:    make(map[id.CaseID]*models.Case),
		byPerson: make(map[id.PersonID]id.CaseID),
	}
}

// CreateIfPersonUnassigned inserts the case unless its person already owns
// one (1:1 invariant).
func (s *InMemory) CreateIfPersonUnassigned(_ context.Context, c *models.Case) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byPerson[c.PersonID]; exists {
		return fmt.Errorf("person already has a case: %w", sentinel.ErrAlreadyUsed)
	}
	s.cases[c.ID] = copyCase(c)
	s.byPerson[c.PersonID] = c.ID
	return nil
}

func (s *InMemory) FindByID(_ context.Context, caseID id.CaseID) (*models.Case, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if c, ok := s.cases[caseID]; ok {
		return copyCase(c), nil
	}
	return nil, fmt.Errorf("case not found: %w", sentinel.ErrNotFound)
}

func (s *InMemory) FindByPerson(_ context.Context, personID id.PersonID) (*models.Case, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if caseID, ok := s.byPerson[personID]; ok {
		return copyCase(s.cases[caseID]), nil
	}
	return nil, fmt.Errorf("case not found: %w", sentinel.ErrNotFound)
}

// Execute atomically validates and mutates one case while holding the store
// lock, serializing concurrent writers on the same case. The mutated case is
// visible to readers the moment the lock releases, before any subsequent
// side effects run.
func (s *InMemory) Execute(_ context.Context, caseID id.CaseID, validate func(*models.Case) error, mutate func(*models.Case)) (*models.Case, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.cases[caseID]
	if !ok {
		return nil, fmt.Errorf("case not found: %w", sentinel.ErrNotFound)
	}
	if validate != nil {
		if err := validate(c); err != nil {
			return nil, err
		}
	}
	mutate(c)
	return copyCase(c), nil
}

// ListByCaseworker returns the cases assigned to one caseworker, newest
// first.
func (s *InMemory) ListByCaseworker(_ context.Context, caseworkerID id.PersonID) ([]*models.Case, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Case
	for _, c := range s.cases {
		if c.CaseworkerID != nil && *c.CaseworkerID == caseworkerID {
			out = append(out, copyCase(c))
		}
	}
	sortNewestFirst(out)
	return out, nil
}

// ListAll returns every case, newest first.
func (s *InMemory) ListAll(_ context.Context) ([]*models.Case, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Case, 0, len(s.cases))
	for _, c := range s.cases {
		out = append(out, copyCase(c))
	}
	sortNewestFirst(out)
	return out, nil
}

// ClearCaseworker drops a removed caseworker from every case that references
// them. Non-owning reference: the cases themselves survive.
func (s *InMemory) ClearCaseworker(_ context.Context, caseworkerID id.PersonID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.cases {
		if c.CaseworkerID != nil && *c.CaseworkerID == caseworkerID {
			c.CaseworkerID = nil
		}
	}
	return nil
}

// DeleteByPerson removes the case owned by a person (cascade path) and
// reports which case was removed so the caller can cascade further.
func (s *InMemory) DeleteByPerson(_ context.Context, personID id.PersonID) (id.CaseID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	caseID, ok := s.byPerson[personID]
	if !ok {
		return id.CaseID{}, fmt.Errorf("case not found: %w", sentinel.ErrNotFound)
	}
	delete(s.cases, caseID)
	delete(s.byPerson, personID)
	return caseID, nil
}

func sortNewestFirst(cases []*models.Case) {
	sort.Slice(cases, func(i, j int) bool { return cases[i].CreatedAt.After(cases[j].CreatedAt) })
}

func copyCase(c *models.Case) *models.Case {
	out := *c
	if c.CaseworkerID != nil {
		cw := *c.CaseworkerID
		out.CaseworkerID = &cw
	}
	return &out
}
