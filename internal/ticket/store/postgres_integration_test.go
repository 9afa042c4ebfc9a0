//go:build integration

package store

import (
	"context"
	"fmt"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	casemodels "safereturn/internal/followup/models"
	profilestore "safereturn/internal/followup/store/profile"
	personmodels "safereturn/internal/person/models"
	personstore "safereturn/internal/person/store"
	"safereturn/internal/ticket/models"
	id "safereturn/pkg/domain"
	"safereturn/pkg/platform/sentinel"
	"safereturn/pkg/testutil/containers"
)

type PostgresTicketStoreSuite struct {
	suite.Suite
	pg           *containers.PostgresContainer
	store        *Postgres
	ctx          context.Context
	caseID       id.CaseID
	caseworkerID id.PersonID
}

func TestPostgresTicketStoreSuite(t *testing.T) {
	suite.Run(t, new(PostgresTicketStoreSuite))
}

func (s *PostgresTicketStoreSuite) SetupSuite() {
	s.pg = containers.NewPostgresContainer(s.T())
	s.store = NewPostgres(s.pg.DB)
	s.ctx = context.Background()
}

func (s *PostgresTicketStoreSuite) SetupTest() {
	s.Require().NoError(s.pg.Truncate(s.ctx, "persons"))

	persons := personstore.NewPostgres(s.pg.DB)
	p, err := personmodels.NewPerson(
		id.PersonID(uuid.New()),
		fmt.Sprintf("%010d", rand.Int64N(10_000_000_000)),
		"Test Person", id.RoleBeneficiary, "", time.Now().UTC())
	s.Require().NoError(err)
	s.Require().NoError(persons.CreateIfNationalIDAvailable(s.ctx, p))

	worker, err := personmodels.NewPerson(
		id.PersonID(uuid.New()),
		fmt.Sprintf("%010d", rand.Int64N(10_000_000_000)),
		"Test Caseworker", id.RoleCaseWorker, "", time.Now().UTC())
	s.Require().NoError(err)
	s.Require().NoError(persons.CreateIfNationalIDAvailable(s.ctx, worker))
	s.caseworkerID = worker.ID

	cases := profilestore.NewPostgres(s.pg.DB)
	release := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	c, err := casemodels.NewCase(
		id.CaseID(uuid.New()), p.ID, release, release.AddDate(0, 0, 365),
		id.CityRiyadh, "", time.Now().UTC())
	s.Require().NoError(err)
	s.Require().NoError(cases.CreateIfPersonUnassigned(s.ctx, c))
	s.caseID = c.ID
}

func (s *PostgresTicketStoreSuite) TestFindOrCreateOpenAutoIsIdempotent() {
	first, created, err := s.store.FindOrCreateOpenAuto(s.ctx, s.caseID, models.CategoryJob, "month 1")
	s.Require().NoError(err)
	s.True(created)
	s.True(first.AutoGenerated)
	s.Equal(models.StatusOpen, first.Status)

	second, created, err := s.store.FindOrCreateOpenAuto(s.ctx, s.caseID, models.CategoryJob, "month 2")
	s.Require().NoError(err)
	s.False(created)
	s.Equal(first.ID, second.ID)
	// the existing ticket's notes are untouched
	s.Equal("month 1", second.Notes)
}

func (s *PostgresTicketStoreSuite) TestResolvedTicketAllowsReissue() {
	first, _, err := s.store.FindOrCreateOpenAuto(s.ctx, s.caseID, models.CategoryHousing, "")
	s.Require().NoError(err)
	_, err = s.store.UpdateStatus(s.ctx, first.ID, models.StatusResolved)
	s.Require().NoError(err)

	second, created, err := s.store.FindOrCreateOpenAuto(s.ctx, s.caseID, models.CategoryHousing, "")
	s.Require().NoError(err)
	s.True(created)
	s.NotEqual(first.ID, second.ID)
}

func (s *PostgresTicketStoreSuite) TestManualTicketsOutsideAutoKeySpace() {
	manual, err := models.NewManualTicket(
		id.TicketID(uuid.New()), s.caseID, models.CategorySocial, "",
		s.caseworkerID, time.Now().UTC())
	s.Require().NoError(err)
	s.Require().NoError(s.store.Create(s.ctx, manual))

	auto, created, err := s.store.FindOrCreateOpenAuto(s.ctx, s.caseID, models.CategorySocial, "")
	s.Require().NoError(err)
	s.True(created)
	s.NotEqual(manual.ID, auto.ID)
}

func (s *PostgresTicketStoreSuite) TestUpdateStatusMissing() {
	_, err := s.store.UpdateStatus(s.ctx, id.TicketID(uuid.New()), models.StatusClosed)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresTicketStoreSuite) TestListAndDeleteByCase() {
	_, _, err := s.store.FindOrCreateOpenAuto(s.ctx, s.caseID, models.CategoryJob, "")
	s.Require().NoError(err)
	_, _, err = s.store.FindOrCreateOpenAuto(s.ctx, s.caseID, models.CategoryPsychological, "")
	s.Require().NoError(err)

	list, err := s.store.ListByCase(s.ctx, s.caseID)
	s.Require().NoError(err)
	s.Len(list, 2)

	s.Require().NoError(s.store.DeleteByCase(s.ctx, s.caseID))
	list, err = s.store.ListByCase(s.ctx, s.caseID)
	s.Require().NoError(err)
	s.Empty(list)
}
