package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"safereturn/internal/followup/models"
	"safereturn/internal/followup/risk"
	ticketmodels "safereturn/internal/ticket/models"
	id "safereturn/pkg/domain"
	dErrors "safereturn/pkg/domain-errors"
	"safereturn/pkg/platform/audit"
	"safereturn/pkg/platform/sentinel"
	"safereturn/pkg/requestcontext"
)

// CheckinInput is the raw monthly check-in as submitted. All enum fields are
// validated before anything touches a store.
type CheckinInput struct {
	MonthIndex    int    `json:"month_index"`
	HousingStatus string `json:"housing_status"`
	JobStatus     string `json:"job_status"`
	MentalState   string `json:"mental_state"`
	FamilyStatus  string `json:"family_status"`
	Notes         string `json:"notes"`
}

// ProcessingResult is the only channel by which a caller learns what a
// check-in did: the tier movement and the tickets this invocation created.
// Pre-existing open auto tickets are not repeated here.
type ProcessingResult struct {
	OldTier        models.Tier                   `json:"old_risk_tier"`
	NewTier        models.Tier                   `json:"new_risk_tier"`
	TierChanged    bool                          `json:"risk_tier_changed"`
	CreatedTickets []*ticketmodels.SupportTicket `json:"created_tickets"`
}

var beneficiaryTierMessages = map[models.Tier]string{
	models.TierGreen:  "Your status is stable. Keep it up!",
	models.TierYellow: "There are some concerns. A caseworker will reach out to you soon.",
	models.TierRed:    "We need to contact you urgently. Please wait for a call from your caseworker.",
}

var caseworkerAlertMessages = map[ticketmodels.Category]string{
	ticketmodels.CategoryPsychological: "Alert: %s needs urgent psychological support",
	ticketmodels.CategoryHousing:       "Alert: %s is homeless",
	ticketmodels.CategoryJob:           "Alert: %s is unemployed",
	ticketmodels.CategorySocial:        "Alert: %s is facing family problems",
}

// SubmitCheckin validates and stores a monthly report, then processes it.
// Resubmitting a month replaces that month's report before processing, so
// the engine always works from the beneficiary's latest answer.
func (s *Service) SubmitCheckin(ctx context.Context, caseID id.CaseID, input CheckinInput) (*ProcessingResult, error) {
	housing, err := models.ParseHousingStatus(input.HousingStatus)
	if err != nil {
		return nil, err
	}
	job, err := models.ParseJobStatus(input.JobStatus)
	if err != nil {
		return nil, err
	}
	mental, err := models.ParseMentalState(input.MentalState)
	if err != nil {
		return nil, err
	}
	family, err := models.ParseFamilyStatus(input.FamilyStatus)
	if err != nil {
		return nil, err
	}

	report, err := models.NewMonthlyReport(
		id.ReportID(uuid.New()), caseID, input.MonthIndex,
		housing, job, mental, family, input.Notes, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}

	// Resolve the case before writing anything; a check-in against a
	// missing case must leave no trace.
	c, err := s.GetCase(ctx, caseID)
	if err != nil {
		return nil, err
	}

	stored, replaced, err := s.reports.Upsert(ctx, report)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store report")
	}

	s.logAudit(ctx, string(audit.EventCheckinSubmitted), c.PersonID,
		"case_id", caseID.String(),
		"month_index", stored.MonthIndex,
		"replaced", replaced)

	return s.Process(ctx, stored)
}

// Process runs the case progression sequence for one stored report:
//
//  1. resolve the case
//  2. classify the report
//  3. persist the new tier under the per-case lock, so the tier write is
//     visible before any ticket exists
//  4. run the ticket policy and alert the assigned caseworker on urgent
//     triggers (psychological, housing) every time they fire, created or
//     not; job and social tickets are created silently
//  5. notify the beneficiary iff the tier changed
//
// Steps 3-5 are individually idempotent, so retrying a failed invocation
// with the same report converges instead of duplicating side effects.
func (s *Service) Process(ctx context.Context, report *models.MonthlyReport) (*ProcessingResult, error) {
	newTier := risk.Classify(report)

	var oldTier models.Tier
	updated, err := s.cases.Execute(ctx, report.CaseID,
		func(c *models.Case) error {
			oldTier = c.RiskTier
			return nil
		},
		func(c *models.Case) { c.ApplyTier(newTier, requestcontext.Now(ctx)) })
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "case not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to persist risk tier")
	}

	tierChanged := oldTier != newTier
	s.metrics.IncCheckinsProcessed()
	if tierChanged {
		s.metrics.IncTierChange(oldTier.String(), newTier.String())
		s.logAudit(ctx, string(audit.EventRiskTierChanged), updated.PersonID,
			"case_id", updated.ID.String(),
			"old_tier", oldTier.String(),
			"new_tier", newTier.String())
	}

	outcomes, err := s.policy.Apply(ctx, report.CaseID, report)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to apply ticket policy")
	}

	created := make([]*ticketmodels.SupportTicket, 0, len(outcomes))
	for _, outcome := range outcomes {
		if outcome.Created {
			created = append(created, outcome.Ticket)
			s.metrics.IncAutoTicketCreated(outcome.Category.String())
			s.logAudit(ctx, string(audit.EventTicketAutoCreated), updated.PersonID,
				"case_id", updated.ID.String(),
				"ticket_id", outcome.Ticket.ID.String(),
				"category", outcome.Category.String())
		}
		if err := s.alertCaseworker(ctx, updated, outcome.Category); err != nil {
			return nil, err
		}
	}

	if tierChanged {
		_, err := s.notify.Notify(ctx, updated.PersonID,
			beneficiaryTierMessages[newTier], "/beneficiary/dashboard", "tier_change")
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to notify beneficiary")
		}
	}

	return &ProcessingResult{
		OldTier:        oldTier,
		NewTier:        newTier,
		TierChanged:    tierChanged,
		CreatedTickets: created,
	}, nil
}

// alertCaseworker emits the urgent-category alert for one triggered rule.
// Skipped silently when the case has no assigned caseworker. Urgent
// categories alert on every trigger even when the ticket already existed;
// with notifyAllCategories every category behaves that way.
func (s *Service) alertCaseworker(ctx context.Context, c *models.Case, category ticketmodels.Category) error {
	urgent := category == ticketmodels.CategoryPsychological || category == ticketmodels.CategoryHousing
	if !urgent && !s.notifyAllCategories {
		return nil
	}
	if c.CaseworkerID == nil {
		return nil
	}

	name := c.PersonID.String()
	if person, err := s.persons.FindByID(ctx, c.PersonID); err == nil {
		name = person.FullName
	}

	_, err := s.notify.Notify(ctx, *c.CaseworkerID,
		fmt.Sprintf(caseworkerAlertMessages[category], name),
		fmt.Sprintf("/caseworker/profile/%s", c.ID), "caseworker_alert")
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to alert caseworker")
	}
	return nil
}
