package store

import (
	"context"
	"fmt"
	"sync"

	"safereturn/internal/person/models"
	id "safereturn/pkg/domain"
	"safereturn/pkg/platform/sentinel"
)

// InMemory stores persons in memory for tests/dev.
type InMemory struct {
	mu           sync.RWMutex
	persons      map[id.PersonID]*models.Person
	byNationalID map[string]id.PersonID
}

// NewInMemory constructs an empty in-memory person store.
func NewInMemory() *InMemory {
	return &InMemory{
		persons:      make(map[id.PersonID]*models.Person),
		byNationalID: make(map[string]id.PersonID),
	}
}

// CreateIfNationalIDAvailable inserts the person unless the national ID is
// already registered. The check and insert share the store lock, so two
// concurrent registrations for the same national ID cannot both succeed.
func (s *InMemory) CreateIfNationalIDAvailable(_ context.Context, p *models.Person) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byNationalID[p.NationalID]; exists {
		return fmt.Errorf("national id already registered: %w", sentinel.ErrAlreadyUsed)
	}
	s.persons[p.ID] = copyPerson(p)
	s.byNationalID[p.NationalID] = p.ID
	return nil
}

func (s *InMemory) FindByID(_ context.Context, personID id.PersonID) (*models.Person, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if p, ok := s.persons[personID]; ok {
		return copyPerson(p), nil
	}
	return nil, fmt.Errorf("person not found: %w", sentinel.ErrNotFound)
}

func (s *InMemory) FindByNationalID(_ context.Context, nationalID string) (*models.Person, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if personID, ok := s.byNationalID[nationalID]; ok {
		return copyPerson(s.persons[personID]), nil
	}
	return nil, fmt.Errorf("person not found: %w", sentinel.ErrNotFound)
}

func (s *InMemory) Delete(_ context.Context, personID id.PersonID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.persons[personID]
	if !ok {
		return fmt.Errorf("person not found: %w", sentinel.ErrNotFound)
	}
	delete(s.byNationalID, p.NationalID)
	delete(s.persons, personID)
	return nil
}

func copyPerson(p *models.Person) *models.Person {
	c := *p
	return &c
}
