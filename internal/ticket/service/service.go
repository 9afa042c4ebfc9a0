package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	casemodels "safereturn/internal/followup/models"
	notifmodels "safereturn/internal/notification/models"
	"safereturn/internal/ticket/models"
	id "safereturn/pkg/domain"
	dErrors "safereturn/pkg/domain-errors"
	"safereturn/pkg/platform/audit"
	"safereturn/pkg/platform/sentinel"
	"safereturn/pkg/requestcontext"
)

type Store interface {
	Create(ctx context.Context, ticket *models.SupportTicket) error
	FindByID(ctx context.Context, ticketID id.TicketID) (*models.SupportTicket, error)
	UpdateStatus(ctx context.Context, ticketID id.TicketID, status models.Status) (*models.SupportTicket, error)
	ListByCase(ctx context.Context, caseID id.CaseID) ([]*models.SupportTicket, error)
}

type CaseStore interface {
	FindByID(ctx context.Context, caseID id.CaseID) (*casemodels.Case, error)
}

type Notifier interface {
	Notify(ctx context.Context, recipientID id.PersonID, message, link, kind string) (*notifmodels.Notification, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service handles manually created tickets and status transitions. Auto
// tickets are issued by the check-in policy, not here; this service only
// reads them back when listing a case.
type Service struct {
	store          Store
	cases          CaseStore
	notify         Notifier
	logger         *slog.Logger
	auditPublisher AuditPublisher
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) { s.auditPublisher = publisher }
}

func NewService(store Store, cases CaseStore, notify Notifier, opts ...Option) *Service {
	s := &Service{store: store, cases: cases, notify: notify}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateManual opens a caseworker-created ticket against a case and tells the
// beneficiary about it. The creator is the acting caseworker or admin from
// the request context.
func (s *Service) CreateManual(ctx context.Context, caseID id.CaseID, category models.Category, notes string) (*models.SupportTicket, error) {
	c, err := s.cases.FindByID(ctx, caseID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "case not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to lookup case")
	}

	ticket, err := models.NewManualTicket(
		id.TicketID(uuid.New()), caseID, category, notes,
		requestcontext.ActorID(ctx), requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	if err := s.store.Create(ctx, ticket); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create ticket")
	}

	if _, err := s.notify.Notify(ctx, c.PersonID,
		fmt.Sprintf("A %s support ticket has been opened for you", category),
		"/beneficiary/dashboard", "ticket_opened"); err != nil {
		s.logError(ctx, "beneficiary notification failed", err, "case_id", caseID.String())
	}

	s.logAudit(ctx, string(audit.EventTicketCreated), c.PersonID,
		"ticket_id", ticket.ID.String(),
		"case_id", caseID.String(),
		"category", category.String())
	return ticket, nil
}

// UpdateStatus applies a caseworker-driven transition. Any valid status is
// reachable from any other; there is no transition table.
func (s *Service) UpdateStatus(ctx context.Context, ticketID id.TicketID, status models.Status) (*models.SupportTicket, error) {
	updated, err := s.store.UpdateStatus(ctx, ticketID, status)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "ticket not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update ticket status")
	}

	s.logAudit(ctx, string(audit.EventTicketStatusChanged), requestcontext.ActorID(ctx),
		"ticket_id", updated.ID.String(),
		"case_id", updated.CaseID.String(),
		"status", status.String())
	return updated, nil
}

// Get returns one ticket by ID.
func (s *Service) Get(ctx context.Context, ticketID id.TicketID) (*models.SupportTicket, error) {
	ticket, err := s.store.FindByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "ticket not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to lookup ticket")
	}
	return ticket, nil
}

// ListForCase returns a case's tickets, newest first, auto and manual alike.
func (s *Service) ListForCase(ctx context.Context, caseID id.CaseID) ([]*models.SupportTicket, error) {
	list, err := s.store.ListByCase(ctx, caseID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list tickets")
	}
	return list, nil
}

func (s *Service) logError(ctx context.Context, msg string, err error, attributes ...any) {
	if s.logger == nil {
		return
	}
	s.logger.ErrorContext(ctx, msg, append(attributes, "error", err)...)
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
