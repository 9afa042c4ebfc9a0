package session

import (
	"context"
	"fmt"
	"sync"

	"safereturn/internal/auth/models"
	"safereturn/pkg/platform/sentinel"
)

// InMemory stores sessions in memory for tests/dev. Expiry is checked on
// read; there is no background sweeper.
type InMemory struct {
	mu       sync.RWMutex
	sessions map[string]*models.Session
}

func NewInMemory() *InMemory {
	return &InMemory{sessions: make(map[string]*models.Session)}
}

func (s *InMemory) Create(_ context.Context, sess *models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *sess
	s.sessions[sess.ID] = &copied
	return nil
}

func (s *InMemory) FindByID(_ context.Context, sessionID string) (*models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if sess, ok := s.sessions[sessionID]; ok {
		copied := *sess
		return &copied, nil
	}
	return nil, fmt.Errorf("session not found: %w", sentinel.ErrNotFound)
}

func (s *InMemory) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[sessionID]; !ok {
		return fmt.Errorf("session not found: %w", sentinel.ErrNotFound)
	}
	delete(s.sessions, sessionID)
	return nil
}
