package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"safereturn/internal/followup/models"
	"safereturn/internal/followup/policy"
	"safereturn/internal/followup/risk"
	"safereturn/internal/followup/timeline"
	notifmodels "safereturn/internal/notification/models"
	personmodels "safereturn/internal/person/models"
	"safereturn/internal/platform/metrics"
	id "safereturn/pkg/domain"
	dErrors "safereturn/pkg/domain-errors"
	"safereturn/pkg/platform/audit"
	"safereturn/pkg/platform/sentinel"
	"safereturn/pkg/requestcontext"
)

type CaseStore interface {
	CreateIfPersonUnassigned(ctx context.Context, c *models.Case) error
	FindByID(ctx context.Context, caseID id.CaseID) (*models.Case, error)
	FindByPerson(ctx context.Context, personID id.PersonID) (*models.Case, error)
	Execute(ctx context.Context, caseID id.CaseID, validate func(*models.Case) error, mutate func(*models.Case)) (*models.Case, error)
	ListByCaseworker(ctx context.Context, caseworkerID id.PersonID) ([]*models.Case, error)
	ListAll(ctx context.Context) ([]*models.Case, error)
}

type ReportStore interface {
	Upsert(ctx context.Context, r *models.MonthlyReport) (*models.MonthlyReport, bool, error)
	Latest(ctx context.Context, caseID id.CaseID) (*models.MonthlyReport, error)
	ListByCase(ctx context.Context, caseID id.CaseID) ([]*models.MonthlyReport, error)
}

// PersonDirectory is the slice of the registry the orchestrator needs: role
// checks at intake and assignment, display names for caseworker alerts.
type PersonDirectory interface {
	FindByID(ctx context.Context, personID id.PersonID) (*personmodels.Person, error)
}

// Notifier delivers one-way messages; in this system that is an append to
// the notification store.
type Notifier interface {
	Notify(ctx context.Context, recipientID id.PersonID, message, link, kind string) (*notifmodels.Notification, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service is the case progression engine: intake, monthly check-ins with
// risk classification and ticket fan-out, completion, and the read models
// the UI collaborators consume.
type Service struct {
	cases   CaseStore
	reports ReportStore
	persons PersonDirectory
	policy  *policy.Policy
	notify  Notifier

	// notifyAllCategories makes caseworker alerting uniform across all four
	// ticket categories instead of the historical psychological+housing-only
	// behavior.
	notifyAllCategories bool

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

// WithNotifyAllCategories switches caseworker alerting from the urgent-only
// pair (psychological, housing) to every triggered category.
func WithNotifyAllCategories(enabled bool) Option {
	return func(s *Service) { s.notifyAllCategories = enabled }
}

func NewService(cases CaseStore, reports ReportStore, persons PersonDirectory, ticketPolicy *policy.Policy, notify Notifier, opts ...Option) *Service {
	s := &Service{
		cases:   cases,
		reports: reports,
		persons: persons,
		policy:  ticketPolicy,
		notify:  notify,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateProfile opens the 12-month follow-up case for a beneficiary at
// program intake. The follow-up end date defaults to release + 365 days
// when the intake form leaves it blank; an explicit date is kept as-is.
func (s *Service) CreateProfile(ctx context.Context, personID id.PersonID, releaseDate, followupEnd time.Time, city id.City, notes string) (*models.Case, error) {
	person, err := s.persons.FindByID(ctx, personID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "person not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to lookup person")
	}
	if !person.IsBeneficiary() {
		return nil, dErrors.New(dErrors.CodeValidation, "only beneficiaries may own a case")
	}

	if followupEnd.IsZero() {
		followupEnd = timeline.DefaultFollowupEnd(releaseDate)
	}
	c, err := models.NewCase(
		id.CaseID(uuid.New()), personID, releaseDate, followupEnd, city, notes, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}

	if err := s.cases.CreateIfPersonUnassigned(ctx, c); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return nil, dErrors.New(dErrors.CodeConflict, "person already has a case")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create case")
	}

	s.logAudit(ctx, string(audit.EventProfileCreated), personID,
		"case_id", c.ID.String(), "city", c.City.String())
	return c, nil
}

// AssignCaseworker points a case at its responsible caseworker. The target
// must hold the case_worker role.
func (s *Service) AssignCaseworker(ctx context.Context, caseID id.CaseID, caseworkerID id.PersonID) (*models.Case, error) {
	worker, err := s.persons.FindByID(ctx, caseworkerID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "caseworker not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to lookup caseworker")
	}
	if worker.Role != id.RoleCaseWorker {
		return nil, dErrors.New(dErrors.CodeValidation, "assignee must hold the case_worker role")
	}

	updated, err := s.cases.Execute(ctx, caseID,
		func(*models.Case) error { return nil },
		func(c *models.Case) { c.ApplyCaseworker(&caseworkerID, requestcontext.Now(ctx)) })
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "case not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to assign caseworker")
	}

	s.logAudit(ctx, string(audit.EventCaseworkerAssigned), updated.PersonID,
		"case_id", caseID.String(), "caseworker_id", caseworkerID.String())
	return updated, nil
}

// CompleteCase marks a case completed. The flag is monotonic: completing an
// already-completed case is a conflict, and there is no uncompletion.
func (s *Service) CompleteCase(ctx context.Context, caseID id.CaseID) (*models.Case, error) {
	updated, err := s.cases.Execute(ctx, caseID,
		func(c *models.Case) error { return c.CanComplete() },
		func(c *models.Case) { c.ApplyCompletion(requestcontext.Now(ctx)) })
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "case not found")
		}
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return nil, dErrors.New(dErrors.CodeConflict, "case is already completed")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to complete case")
	}

	s.logAudit(ctx, string(audit.EventCaseCompleted), updated.PersonID,
		"case_id", caseID.String())
	return updated, nil
}

// GetCase loads one case.
func (s *Service) GetCase(ctx context.Context, caseID id.CaseID) (*models.Case, error) {
	c, err := s.cases.FindByID(ctx, caseID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "case not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load case")
	}
	return c, nil
}

// GetCaseByPerson loads the case owned by a beneficiary.
func (s *Service) GetCaseByPerson(ctx context.Context, personID id.PersonID) (*models.Case, error) {
	c, err := s.cases.FindByPerson(ctx, personID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "case not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load case")
	}
	return c, nil
}

// ListForCaseworker returns the cases assigned to one caseworker, newest
// first.
func (s *Service) ListForCaseworker(ctx context.Context, caseworkerID id.PersonID) ([]*models.Case, error) {
	list, err := s.cases.ListByCaseworker(ctx, caseworkerID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list cases")
	}
	return list, nil
}

// ListAllCases returns every case (admin view).
func (s *Service) ListAllCases(ctx context.Context) ([]*models.Case, error) {
	list, err := s.cases.ListAll(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list cases")
	}
	return list, nil
}

// Summary derives the risk summary from the case's most recently submitted
// report. Purely descriptive; nothing is mutated.
func (s *Service) Summary(ctx context.Context, caseID id.CaseID) (*risk.Summary, error) {
	c, err := s.GetCase(ctx, caseID)
	if err != nil {
		return nil, err
	}
	latest, err := s.reports.Latest(ctx, caseID)
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load latest report")
	}
	summary := risk.Summarize(c.RiskTier, latest)
	return &summary, nil
}

// Dashboard is the aggregated read model for the beneficiary/caseworker UI:
// the case, where it stands on the 12-month timeline, its risk summary, and
// which months already have a check-in.
type Dashboard struct {
	Case               *models.Case            `json:"case"`
	CurrentMonth       int                     `json:"current_month"`
	ProgressPercentage int                     `json:"progress_percentage"`
	Summary            risk.Summary            `json:"summary"`
	Reports            []*models.MonthlyReport `json:"reports"`
}

func (s *Service) GetDashboard(ctx context.Context, caseID id.CaseID) (*Dashboard, error) {
	c, err := s.GetCase(ctx, caseID)
	if err != nil {
		return nil, err
	}
	reports, err := s.reports.ListByCase(ctx, caseID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list reports")
	}
	var latest *models.MonthlyReport
	if l, err := s.reports.Latest(ctx, caseID); err == nil {
		latest = l
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load latest report")
	}

	month := timeline.CurrentMonth(c.ReleaseDate, requestcontext.Now(ctx))
	return &Dashboard{
		Case:               c,
		CurrentMonth:       month,
		ProgressPercentage: timeline.ProgressPercentage(month),
		Summary:            risk.Summarize(c.RiskTier, latest),
		Reports:            reports,
	}, nil
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
