package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"safereturn/internal/notification/models"
	"safereturn/internal/platform/metrics"
	id "safereturn/pkg/domain"
	dErrors "safereturn/pkg/domain-errors"
	"safereturn/pkg/platform/audit"
	"safereturn/pkg/platform/sentinel"
	"safereturn/pkg/requestcontext"
)

type Store interface {
	Append(ctx context.Context, n *models.Notification) error
	FindByID(ctx context.Context, notificationID id.NotificationID) (*models.Notification, error)
	ListByRecipient(ctx context.Context, recipientID id.PersonID) ([]*models.Notification, error)
	MarkRead(ctx context.Context, notificationID id.NotificationID) (*models.Notification, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service owns the notification inbox: delivery, listing, and the read flag.
// Delivery is an append; there is no external push channel behind it.
type Service struct {
	store          Store
	logger         *slog.Logger
	auditPublisher AuditPublisher
	metrics        *metrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) { s.auditPublisher = publisher }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func NewService(store Store, opts ...Option) *Service {
	s := &Service{store: store}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Notify delivers a message to a person. kind labels the metric only; it
// never reaches the recipient.
func (s *Service) Notify(ctx context.Context, recipientID id.PersonID, message, link, kind string) (*models.Notification, error) {
	n, err := models.NewNotification(
		id.NotificationID(uuid.New()), recipientID, message, link, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	if err := s.store.Append(ctx, n); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to deliver notification")
	}
	s.metrics.IncNotificationSent(kind)
	return n, nil
}

// ListForPerson returns a person's notifications, newest first.
func (s *Service) ListForPerson(ctx context.Context, personID id.PersonID) ([]*models.Notification, error) {
	if personID.IsNil() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "person ID required")
	}
	list, err := s.store.ListByRecipient(ctx, personID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list notifications")
	}
	return list, nil
}

// MarkRead flips the read flag on the actor's own notification. Only the
// recipient may read their inbox; marking an already-read notification is
// a harmless no-op.
func (s *Service) MarkRead(ctx context.Context, notificationID id.NotificationID) (*models.Notification, error) {
	existing, err := s.store.FindByID(ctx, notificationID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "notification not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to lookup notification")
	}
	if actorID := requestcontext.ActorID(ctx); existing.RecipientID != actorID {
		return nil, dErrors.New(dErrors.CodeForbidden, "notification belongs to another person")
	}

	updated, err := s.store.MarkRead(ctx, notificationID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to mark notification read")
	}

	s.logAudit(ctx, string(audit.EventNotificationRead), updated.RecipientID,
		"notification_id", updated.ID.String())
	return updated, nil
}

func (s *Service) logAudit(ctx context.Context, event string, personID id.PersonID, attributes ...any) {
	args := append(attributes, "event", event, "log_type", "audit")
	if s.logger != nil {
		s.logger.InfoContext(ctx, event, args...)
	}
	if s.auditPublisher == nil {
		return
	}
	_ = s.auditPublisher.Emit(ctx, audit.Event{
		PersonID:  personID,
		Subject:   personID.String(),
		Action:    event,
		ActorID:   requestcontext.ActorID(ctx).String(),
		RequestID: requestcontext.RequestID(ctx),
	})
}
