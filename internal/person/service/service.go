package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"safereturn/internal/person/models"
	id "safereturn/pkg/domain"
	dErrors "safereturn/pkg/domain-errors"
	"safereturn/pkg/platform/audit"
	"safereturn/pkg/platform/sentinel"
	"safereturn/pkg/requestcontext"
)

type Store interface {
	CreateIfNationalIDAvailable(ctx context.Context, p *models.Person) error
	FindByID(ctx context.Context, personID id.PersonID) (*models.Person, error)
	FindByNationalID(ctx context.Context, nationalID string) (*models.Person, error)
	Delete(ctx context.Context, personID id.PersonID) error
}

// CaseStore is the slice of the follow-up store the registry needs for
// cascade semantics: deleting a beneficiary removes their case, deleting a
// caseworker clears the non-owning assignment references.
type CaseStore interface {
	DeleteByPerson(ctx context.Context, personID id.PersonID) (id.CaseID, error)
	ClearCaseworker(ctx context.Context, caseworkerID id.PersonID) error
}

type ReportStore interface {
	DeleteByCase(ctx context.Context, caseID id.CaseID) error
}

type TicketStore interface {
	DeleteByCase(ctx context.Context, caseID id.CaseID) error
}

type NotificationStore interface {
	DeleteByRecipient(ctx context.Context, recipientID id.PersonID) error
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service is the person registry: registration, lookup, and removal with
// ownership cascades.
type Service struct {
	persons       Store
	cases         CaseStore
	reports       ReportStore
	tickets       TicketStore
	notifications NotificationStore

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

func NewService(persons Store, cases CaseStore, reports ReportStore, tickets TicketStore, notifications NotificationStore, opts ...Option) *Service {
	s := &Service{
		persons:       persons,
		cases:         cases,
		reports:       reports,
		tickets:       tickets,
		notifications: notifications,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register adds a person to the registry. The national ID is the external
// identity handle and must be unused.
func (s *Service) Register(ctx context.Context, nationalID, fullName string, role id.Role, phone string) (*models.Person, error) {
	p, err := models.NewPerson(
		id.PersonID(uuid.New()), nationalID, fullName, role, phone, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	if err := s.persons.CreateIfNationalIDAvailable(ctx, p); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return nil, dErrors.New(dErrors.CodeConflict, "national id already registered")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to register person")
	}

	s.logAudit(ctx, string(audit.EventPersonRegistered), p.ID,
		"role", p.Role.String())
	return p, nil
}

func (s *Service) Get(ctx context.Context, personID id.PersonID) (*models.Person, error) {
	if personID.IsNil() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "person ID required")
	}
	p, err := s.persons.FindByID(ctx, personID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "person not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to lookup person")
	}
	return p, nil
}

// Delete removes a person and everything they own. A beneficiary's case goes
// with them, along with the case's reports and tickets; a caseworker's
// assignments are cleared, not deleted, because the reference is non-owning.
func (s *Service) Delete(ctx context.Context, personID id.PersonID) error {
	p, err := s.Get(ctx, personID)
	if err != nil {
		return err
	}

	switch p.Role {
	case id.RoleBeneficiary:
		caseID, err := s.cases.DeleteByPerson(ctx, personID)
		if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete case")
		}
		if err == nil {
			if err := s.reports.DeleteByCase(ctx, caseID); err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete case reports")
			}
			if err := s.tickets.DeleteByCase(ctx, caseID); err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete case tickets")
			}
		}
	case id.RoleCaseWorker:
		if err := s.cases.ClearCaseworker(ctx, personID); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to clear caseworker assignments")
		}
	}

	if err := s.notifications.DeleteByRecipient(ctx, personID); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete notifications")
	}

	if err := s.persons.Delete(ctx, personID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "person not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete person")
	}

	s.logAudit(ctx, string(audit.EventPersonDeleted), personID,
		"role", p.Role.String())
	return nil
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
