package policy

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"safereturn/internal/followup/models"
	ticketmodels "safereturn/internal/ticket/models"
	ticketstore "safereturn/internal/ticket/store"
	id "safereturn/pkg/domain"
)

type PolicySuite struct {
	suite.Suite
	store  *ticketstore.InMemory
	policy *Policy
	caseID id.CaseID
	ctx    context.Context
}

func TestPolicySuite(t *testing.T) {
	suite.Run(t, new(PolicySuite))
}

func (s *PolicySuite) SetupTest() {
	s.store = ticketstore.NewInMemory()
	var err error
	s.policy, err = New(s.store)
	s.Require().NoError(err)
	s.caseID = id.CaseID(uuid.New())
	s.ctx = context.Background()
}

func (s *PolicySuite) report(mutate func(*models.MonthlyReport)) *models.MonthlyReport {
	r := &models.MonthlyReport{
		ID:            id.ReportID(uuid.New()),
		CaseID:        s.caseID,
		MonthIndex:    5,
		HousingStatus: models.HousingStable,
		JobStatus:     models.JobEmployed,
		MentalState:   models.MentalGood,
		FamilyStatus:  models.FamilySupportive,
		CreatedAt:     time.Now(),
	}
	if mutate != nil {
		mutate(r)
	}
	return r
}

func (s *PolicySuite) created(outcomes []Outcome) []ticketmodels.Category {
	var out []ticketmodels.Category
	for _, o := range outcomes {
		if o.Created {
			out = append(out, o.Category)
		}
	}
	return out
}

func (s *PolicySuite) TestNew() {
	_, err := New(nil)
	s.Error(err)
}

func (s *PolicySuite) TestStableReportCreatesNothing() {
	outcomes, err := s.policy.Apply(s.ctx, s.caseID, s.report(nil))
	s.NoError(err)
	s.Empty(outcomes)
}

func (s *PolicySuite) TestAllFourCategoriesInOneInvocation() {
	r := s.report(func(r *models.MonthlyReport) {
		r.MentalState = models.MentalBad
		r.HousingStatus = models.HousingHomeless
		r.JobStatus = models.JobUnemployed
		r.FamilyStatus = models.FamilyNoContact
	})

	outcomes, err := s.policy.Apply(s.ctx, s.caseID, r)
	s.Require().NoError(err)
	s.Len(outcomes, 4)
	s.ElementsMatch(
		[]ticketmodels.Category{
			ticketmodels.CategoryPsychological,
			ticketmodels.CategoryHousing,
			ticketmodels.CategoryJob,
			ticketmodels.CategorySocial,
		},
		s.created(outcomes),
	)
}

func (s *PolicySuite) TestSecondApplyIsIdempotent() {
	r := s.report(func(r *models.MonthlyReport) {
		r.MentalState = models.MentalBad
		r.JobStatus = models.JobUnemployed
	})

	first, err := s.policy.Apply(s.ctx, s.caseID, r)
	s.Require().NoError(err)
	s.Len(s.created(first), 2)

	second, err := s.policy.Apply(s.ctx, s.caseID, r)
	s.Require().NoError(err)
	s.Len(second, 2, "rules still trigger")
	s.Empty(s.created(second), "but no new tickets are created")

	tickets, err := s.store.ListByCase(s.ctx, s.caseID)
	s.Require().NoError(err)
	s.Len(tickets, 2)
}

func (s *PolicySuite) TestNoteRecordsTriggeringMonth() {
	r := s.report(func(r *models.MonthlyReport) {
		r.MonthIndex = 7
		r.HousingStatus = models.HousingHomeless
	})

	outcomes, err := s.policy.Apply(s.ctx, s.caseID, r)
	s.Require().NoError(err)
	s.Require().Len(outcomes, 1)
	s.Contains(outcomes[0].Ticket.Notes, "month 7")
}

func (s *PolicySuite) TestManualTicketsAreOutsideTheKey() {
	manual, err := ticketmodels.NewManualTicket(
		id.TicketID(uuid.New()), s.caseID, ticketmodels.CategoryJob, "manual follow-up",
		id.PersonID(uuid.New()), time.Now())
	s.Require().NoError(err)
	s.Require().NoError(s.store.Create(s.ctx, manual))

	r := s.report(func(r *models.MonthlyReport) {
		r.JobStatus = models.JobUnemployed
	})
	outcomes, err := s.policy.Apply(s.ctx, s.caseID, r)
	s.Require().NoError(err)
	s.Require().Len(outcomes, 1)
	s.True(outcomes[0].Created, "manual open job ticket must not satisfy the auto key")

	tickets, err := s.store.ListByCase(s.ctx, s.caseID)
	s.Require().NoError(err)
	s.Len(tickets, 2)
}

func (s *PolicySuite) TestResolvedAutoTicketAllowsReissue() {
	r := s.report(func(r *models.MonthlyReport) {
		r.MentalState = models.MentalBad
	})

	first, err := s.policy.Apply(s.ctx, s.caseID, r)
	s.Require().NoError(err)
	s.Require().Len(first, 1)

	_, err = s.store.UpdateStatus(s.ctx, first[0].Ticket.ID, ticketmodels.StatusResolved)
	s.Require().NoError(err)

	second, err := s.policy.Apply(s.ctx, s.caseID, r)
	s.Require().NoError(err)
	s.Require().Len(second, 1)
	s.True(second[0].Created, "only open auto tickets participate in the idempotency key")
}
