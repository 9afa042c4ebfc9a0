package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"safereturn/internal/job/models"
	id "safereturn/pkg/domain"
	dErrors "safereturn/pkg/domain-errors"
	"safereturn/pkg/platform/audit"
	"safereturn/pkg/platform/sentinel"
	"safereturn/pkg/requestcontext"
)

type Store interface {
	Create(ctx context.Context, j *models.JobOpportunity) error
	FindByID(ctx context.Context, jobID id.JobID) (*models.JobOpportunity, error)
	ListActive(ctx context.Context, city id.City) ([]*models.JobOpportunity, error)
	Deactivate(ctx context.Context, jobID id.JobID) error
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service manages the job board. Posting is admin-only (enforced at the
// route), browsing is open to any authenticated person.
type Service struct {
	store          Store
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

func NewService(store Store, opts ...Option) *Service {
	s := &Service{store: store}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Post publishes a new listing.
func (s *Service) Post(ctx context.Context, title, company, description string, city id.City, linkURL string) (*models.JobOpportunity, error) {
	j, err := models.NewJobOpportunity(
		id.JobID(uuid.New()), title, company, description, city, linkURL, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	if err := s.store.Create(ctx, j); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to post job")
	}
	s.logAudit(ctx, string(audit.EventJobPosted), "job_id", j.ID.String(), "city", j.City.String())
	return j, nil
}

// Browse lists active jobs, optionally filtered to one city.
func (s *Service) Browse(ctx context.Context, city id.City) ([]*models.JobOpportunity, error) {
	if city != "" && !city.IsValid() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "invalid city")
	}
	list, err := s.store.ListActive(ctx, city)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list jobs")
	}
	return list, nil
}

// Deactivate retires a listing from the board.
func (s *Service) Deactivate(ctx context.Context, jobID id.JobID) error {
	if err := s.store.Deactivate(ctx, jobID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "job not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to deactivate job")
	}
	return nil
}

func (s *Service) logAudit(ctx context.Context, event string, attributes ...any) {
	args := append(attributes, "event", event, "log_type", "audit")
	if s.logger != nil {
		s.logger.InfoContext(ctx, event, args...)
	}
	if s.auditPublisher == nil {
		return
	}
	_ = s.auditPublisher.Emit(ctx, audit.Event{
		Action:    event,
		ActorID:   requestcontext.ActorID(ctx).String(),
		RequestID: requestcontext.RequestID(ctx),
	})
}
