//go:build integration

package report

import (
	"context"
	"fmt"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"safereturn/internal/followup/models"
	profilestore "safereturn/internal/followup/store/profile"
	personmodels "safereturn/internal/person/models"
	personstore "safereturn/internal/person/store"
	id "safereturn/pkg/domain"
	"safereturn/pkg/platform/sentinel"
	"safereturn/pkg/testutil/containers"
)

type PostgresReportStoreSuite struct {
	suite.Suite
	pg     *containers.PostgresContainer
	store  *Postgres
	ctx    context.Context
	caseID id.CaseID
}

func TestPostgresReportStoreSuite(t *testing.T) {
	suite.Run(t, new(PostgresReportStoreSuite))
}

func (s *PostgresReportStoreSuite) SetupSuite() {
	s.pg = containers.NewPostgresContainer(s.T())
	s.store = NewPostgres(s.pg.DB)
	s.ctx = context.Background()
}

// SetupTest seeds a fresh person+case pair for the reports to hang off.
func (s *PostgresReportStoreSuite) SetupTest() {
	s.Require().NoError(s.pg.Truncate(s.ctx, "persons"))

	persons := personstore.NewPostgres(s.pg.DB)
	p, err := personmodels.NewPerson(
		id.PersonID(uuid.New()),
		fmt.Sprintf("%010d", rand.Int64N(10_000_000_000)),
		"Test Person", id.RoleBeneficiary, "", time.Now().UTC())
	s.Require().NoError(err)
	s.Require().NoError(persons.CreateIfNationalIDAvailable(s.ctx, p))

	cases := profilestore.NewPostgres(s.pg.DB)
	release := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	c, err := models.NewCase(
		id.CaseID(uuid.New()), p.ID, release, release.AddDate(0, 0, 365),
		id.CityRiyadh, "", time.Now().UTC())
	s.Require().NoError(err)
	s.Require().NoError(cases.CreateIfPersonUnassigned(s.ctx, c))
	s.caseID = c.ID
}

func (s *PostgresReportStoreSuite) newReport(month int, created time.Time) *models.MonthlyReport {
	r, err := models.NewMonthlyReport(
		id.ReportID(uuid.New()), s.caseID, month,
		models.HousingStable, models.JobEmployed, models.MentalGood, models.FamilySupportive,
		"", created)
	s.Require().NoError(err)
	return r
}

func (s *PostgresReportStoreSuite) TestUpsertInsertsThenReplaces() {
	first := s.newReport(3, time.Now().UTC())
	stored, replaced, err := s.store.Upsert(s.ctx, first)
	s.Require().NoError(err)
	s.False(replaced)
	s.Equal(first.ID, stored.ID)

	second := s.newReport(3, time.Now().UTC())
	second.MentalState = models.MentalBad
	stored, replaced, err = s.store.Upsert(s.ctx, second)
	s.Require().NoError(err)
	s.True(replaced)
	// the original row ID survives the replace
	s.Equal(first.ID, stored.ID)
	s.Equal(models.MentalBad, stored.MentalState)

	list, err := s.store.ListByCase(s.ctx, s.caseID)
	s.Require().NoError(err)
	s.Len(list, 1)
}

func (s *PostgresReportStoreSuite) TestLatestBySubmissionTime() {
	_, _, err := s.store.Upsert(s.ctx, s.newReport(5, time.Now().UTC().Add(-time.Hour)))
	s.Require().NoError(err)
	backfilled := s.newReport(2, time.Now().UTC())
	_, _, err = s.store.Upsert(s.ctx, backfilled)
	s.Require().NoError(err)

	latest, err := s.store.Latest(s.ctx, s.caseID)
	s.Require().NoError(err)
	s.Equal(2, latest.MonthIndex)
}

func (s *PostgresReportStoreSuite) TestLatestEmpty() {
	_, err := s.store.Latest(s.ctx, s.caseID)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresReportStoreSuite) TestListByCaseOrdering() {
	for _, month := range []int{4, 7, 2} {
		_, _, err := s.store.Upsert(s.ctx, s.newReport(month, time.Now().UTC()))
		s.Require().NoError(err)
	}

	list, err := s.store.ListByCase(s.ctx, s.caseID)
	s.Require().NoError(err)
	s.Require().Len(list, 3)
	s.Equal(7, list[0].MonthIndex)
	s.Equal(4, list[1].MonthIndex)
	s.Equal(2, list[2].MonthIndex)
}
