// Package policy decides which auto-generated support tickets must exist in
// open state after a monthly report, without ever duplicating one.
package policy

import (
	"context"
	"fmt"

	"safereturn/internal/followup/models"
	ticketmodels "safereturn/internal/ticket/models"
	id "safereturn/pkg/domain"
	dErrors "safereturn/pkg/domain-errors"
)

// TicketIssuer is the find-or-create primitive the policy runs against.
// Implementations must guarantee at most one open auto ticket per
// (case, category) even under concurrent calls.
type TicketIssuer interface {
	FindOrCreateOpenAuto(ctx context.Context, caseID id.CaseID, category ticketmodels.Category, notes string) (*ticketmodels.SupportTicket, bool, error)
}

// Outcome records one triggered rule: the ticket satisfying it and whether
// this invocation created it. The orchestrator needs both: created tickets
// feed the processing result, while urgent-category alerting fires on every
// trigger regardless of Created.
type Outcome struct {
	Category ticketmodels.Category
	Ticket   *ticketmodels.SupportTicket
	Created  bool
}

// Policy maps report conditions to ticket categories.
type Policy struct {
	tickets TicketIssuer
}

func New(tickets TicketIssuer) (*Policy, error) {
	if tickets == nil {
		return nil, dErrors.New(dErrors.CodeInternal, "ticket issuer is required")
	}
	return &Policy{tickets: tickets}, nil
}

// Apply ensures one open auto ticket per triggered category:
//
//	mental state bad        -> psychological
//	homeless                -> housing
//	unemployed              -> job
//	family problematic or
//	no contact              -> social
//
// Zero to four outcomes per invocation. Pre-existing open auto tickets are
// left untouched (Created=false). Manual tickets are invisible to this key.
func (p *Policy) Apply(ctx context.Context, caseID id.CaseID, report *models.MonthlyReport) ([]Outcome, error) {
	var outcomes []Outcome

	ensure := func(category ticketmodels.Category, notes string) error {
		ticket, created, err := p.tickets.FindOrCreateOpenAuto(ctx, caseID, category, notes)
		if err != nil {
			return fmt.Errorf("ensure %s ticket: %w", category, err)
		}
		outcomes = append(outcomes, Outcome{Category: category, Ticket: ticket, Created: created})
		return nil
	}

	if report.MentalState == models.MentalBad {
		if err := ensure(ticketmodels.CategoryPsychological,
			fmt.Sprintf("auto-generated: mental state bad in month %d", report.MonthIndex)); err != nil {
			return outcomes, err
		}
	}
	if report.HousingStatus == models.HousingHomeless {
		if err := ensure(ticketmodels.CategoryHousing,
			fmt.Sprintf("auto-generated: homeless in month %d", report.MonthIndex)); err != nil {
			return outcomes, err
		}
	}
	if report.JobStatus == models.JobUnemployed {
		if err := ensure(ticketmodels.CategoryJob,
			fmt.Sprintf("auto-generated: unemployed in month %d", report.MonthIndex)); err != nil {
			return outcomes, err
		}
	}
	if report.FamilyStatus == models.FamilyProblematic || report.FamilyStatus == models.FamilyNoContact {
		if err := ensure(ticketmodels.CategorySocial,
			fmt.Sprintf("auto-generated: family problems in month %d", report.MonthIndex)); err != nil {
			return outcomes, err
		}
	}

	return outcomes, nil
}
