package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"safereturn/internal/ticket/models"
	id "safereturn/pkg/domain"
	"safereturn/pkg/platform/sentinel"
	"safereturn/pkg/requestcontext"
)

// Error Contract:
// All store methods follow this pattern:
// - Return ErrNotFound when the requested entity does not exist
// - Return nil for successful operations
// - Return wrapped errors with context for infrastructure failures
// InMemory stores support tickets in memory for tests/dev.
type InMemory struct {
	mu      sync.RWMutex
	tickets map[id.TicketID]*models.SupportTicket
}

// NewInMemory constructs an empty in-memory ticket store.
func NewInMemory() *InMemory {
	return &InMemory{tickets: make(map[id.TicketID]*models.SupportTicket)}
}

// FindOrCreateOpenAuto is the idempotency primitive behind auto-ticket
// issuance: at most one open auto ticket per (case, category). The whole
// scan-then-insert runs under the store lock, so concurrent submissions for
// the same case cannot race it into duplicates. A pre-existing match is
// returned untouched with created=false; the note is only applied to newly
// created tickets.
func (s *InMemory) FindOrCreateOpenAuto(ctx context.Context, caseID id.CaseID, category models.Category, notes string) (*models.SupportTicket, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, t := range s.tickets {
		if t.CaseID == caseID && t.Category == category && t.Status == models.StatusOpen && t.AutoGenerated {
			return copyTicket(t), false, nil
		}
	}

	ticket := models.NewAutoTicket(id.TicketID(uuid.New()), caseID, category, notes, requestcontext.Now(ctx))
	s.tickets[ticket.ID] = ticket
	return copyTicket(ticket), true, nil
}

// Create inserts a manually created ticket.
func (s *InMemory) Create(_ context.Context, ticket *models.SupportTicket) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tickets[ticket.ID] = copyTicket(ticket)
	return nil
}

func (s *InMemory) FindByID(_ context.Context, ticketID id.TicketID) (*models.SupportTicket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if t, ok := s.tickets[ticketID]; ok {
		return copyTicket(t), nil
	}
	return nil, fmt.Errorf("ticket not found: %w", sentinel.ErrNotFound)
}

// UpdateStatus applies a status transition under the store lock and returns
// the updated ticket.
func (s *InMemory) UpdateStatus(ctx context.Context, ticketID id.TicketID, status models.Status) (*models.SupportTicket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tickets[ticketID]
	if !ok {
		return nil, fmt.Errorf("ticket not found: %w", sentinel.ErrNotFound)
	}
	t.ApplyStatus(status, requestcontext.Now(ctx))
	return copyTicket(t), nil
}

// ListByCase returns a case's tickets, newest first.
func (s *InMemory) ListByCase(_ context.Context, caseID id.CaseID) ([]*models.SupportTicket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.SupportTicket
	for _, t := range s.tickets {
		if t.CaseID == caseID {
			out = append(out, copyTicket(t))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// DeleteByCase removes all tickets owned by a case (cascade path).
func (s *InMemory) DeleteByCase(_ context.Context, caseID id.CaseID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for ticketID, t := range s.tickets {
		if t.CaseID == caseID {
			delete(s.tickets, ticketID)
		}
	}
	return nil
}

func copyTicket(t *models.SupportTicket) *models.SupportTicket {
	c := *t
	if t.CreatedBy != nil {
		creator := *t.CreatedBy
		c.CreatedBy = &creator
	}
	return &c
}
