package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"safereturn/internal/notification/models"
	id "safereturn/pkg/domain"
	"safereturn/pkg/platform/sentinel"
)

// InMemory stores notifications in memory for tests/dev. It doubles as the
// notification sink: delivery in this system IS the append.
type InMemory struct {
	mu            sync.RWMutex
	notifications map[id.NotificationID]*models.Notification
}

// NewInMemory constructs an empty in-memory notification store.
func NewInMemory() *InMemory {
	return &InMemory{notifications: make(map[id.NotificationID]*models.Notification)}
}

// Append delivers a notification by persisting it.
func (s *InMemory) Append(_ context.Context, n *models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifications[n.ID] = copyNotification(n)
	return nil
}

func (s *InMemory) FindByID(_ context.Context, notificationID id.NotificationID) (*models.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if n, ok := s.notifications[notificationID]; ok {
		return copyNotification(n), nil
	}
	return nil, fmt.Errorf("notification not found: %w", sentinel.ErrNotFound)
}

// ListByRecipient returns a person's notifications, newest first.
func (s *InMemory) ListByRecipient(_ context.Context, recipientID id.PersonID) ([]*models.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Notification
	for _, n := range s.notifications {
		if n.RecipientID == recipientID {
			out = append(out, copyNotification(n))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// MarkRead flips the read flag and returns the updated notification.
// Re-marking a read notification succeeds without changing anything.
func (s *InMemory) MarkRead(_ context.Context, notificationID id.NotificationID) (*models.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.notifications[notificationID]
	if !ok {
		return nil, fmt.Errorf("notification not found: %w", sentinel.ErrNotFound)
	}
	n.MarkRead()
	return copyNotification(n), nil
}

// DeleteByRecipient removes all of a person's notifications (cascade path).
func (s *InMemory) DeleteByRecipient(_ context.Context, recipientID id.PersonID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for notificationID, n := range s.notifications {
		if n.RecipientID == recipientID {
			delete(s.notifications, notificationID)
		}
	}
	return nil
}

func copyNotification(n *models.Notification) *models.Notification {
	c := *n
	return &c
}
