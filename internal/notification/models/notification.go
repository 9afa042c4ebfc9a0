package models

import (
	"time"

	id "safereturn/pkg/domain"
	dErrors "safereturn/pkg/domain-errors"
)

// Notification is a one-way message to a person, created only as a side
// effect of case or ticket state changes. Nothing about it is mutable except
// the read flag, which moves false to true exactly once.
type Notification struct {
	ID          id.NotificationID `json:"id"`
	RecipientID id.PersonID       `json:"recipient_id"`
	Message     string            `json:"message"`
	Link        string            `json:"link,omitempty"`
	Read        bool              `json:"read"`
	CreatedAt   time.Time         `json:"created_at"`
}

// NewNotification constructs an unread notification.
func NewNotification(notificationID id.NotificationID, recipientID id.PersonID, message, link string, now time.Time) (*Notification, error) {
	if recipientID.IsNil() {
		return nil, dErrors.New(dErrors.CodeValidation, "recipient is required")
	}
	if message == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "message is required")
	}
	return &Notification{
		ID:          notificationID,
		RecipientID: recipientID,
		Message:     message,
		Link:        link,
		CreatedAt:   now,
	}, nil
}

// MarkRead flips the read flag. The transition is terminal, so marking an
// already-read notification is a no-op.
func (n *Notification) MarkRead() {
	n.Read = true
}
