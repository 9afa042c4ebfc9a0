//go:build integration

package profile

import (
	"context"
	"fmt"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"safereturn/internal/followup/models"
	personmodels "safereturn/internal/person/models"
	personstore "safereturn/internal/person/store"
	id "safereturn/pkg/domain"
	"safereturn/pkg/platform/sentinel"
	"safereturn/pkg/testutil/containers"
)

type PostgresCaseStoreSuite struct {
	suite.Suite
	pg      *containers.PostgresContainer
	store   *Postgres
	persons *personstore.Postgres
	ctx     context.Context
}

func TestPostgresCaseStoreSuite(t *testing.T) {
	suite.Run(t, new(PostgresCaseStoreSuite))
}

func (s *PostgresCaseStoreSuite) SetupSuite() {
	s.pg = containers.NewPostgresContainer(s.T())
	s.store = NewPostgres(s.pg.DB)
	s.persons = personstore.NewPostgres(s.pg.DB)
	s.ctx = context.Background()
}

func (s *PostgresCaseStoreSuite) SetupTest() {
	s.Require().NoError(s.pg.Truncate(s.ctx, "persons"))
}

func (s *PostgresCaseStoreSuite) seedPerson(role id.Role) id.PersonID {
	p, err := personmodels.NewPerson(
		id.PersonID(uuid.New()), numericNationalID(), "Test Person", role, "", time.Now().UTC())
	s.Require().NoError(err)
	s.Require().NoError(s.persons.CreateIfNationalIDAvailable(s.ctx, p))
	return p.ID
}

func numericNationalID() string {
	return fmt.Sprintf("%010d", rand.Int64N(10_000_000_000))
}

func (s *PostgresCaseStoreSuite) newCase(personID id.PersonID) *models.Case {
	release := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	c, err := models.NewCase(
		id.CaseID(uuid.New()), personID, release, release.AddDate(0, 0, 365),
		id.CityRiyadh, "", time.Now().UTC())
	s.Require().NoError(err)
	return c
}

func (s *PostgresCaseStoreSuite) TestCreateAndFind() {
	personID := s.seedPerson(id.RoleBeneficiary)
	c := s.newCase(personID)
	s.Require().NoError(s.store.CreateIfPersonUnassigned(s.ctx, c))

	got, err := s.store.FindByID(s.ctx, c.ID)
	s.Require().NoError(err)
	s.Equal(c.PersonID, got.PersonID)
	s.Equal(models.TierGreen, got.RiskTier)

	byPerson, err := s.store.FindByPerson(s.ctx, personID)
	s.Require().NoError(err)
	s.Equal(c.ID, byPerson.ID)
}

func (s *PostgresCaseStoreSuite) TestOneCasePerPerson() {
	personID := s.seedPerson(id.RoleBeneficiary)
	s.Require().NoError(s.store.CreateIfPersonUnassigned(s.ctx, s.newCase(personID)))

	err := s.store.CreateIfPersonUnassigned(s.ctx, s.newCase(personID))
	s.Require().Error(err)
	s.ErrorIs(err, sentinel.ErrAlreadyUsed)
}

func (s *PostgresCaseStoreSuite) TestExecuteAppliesMutation() {
	personID := s.seedPerson(id.RoleBeneficiary)
	c := s.newCase(personID)
	s.Require().NoError(s.store.CreateIfPersonUnassigned(s.ctx, c))

	updated, err := s.store.Execute(s.ctx, c.ID,
		func(*models.Case) error { return nil },
		func(c *models.Case) { c.ApplyTier(models.TierRed, time.Now().UTC()) })
	s.Require().NoError(err)
	s.Equal(models.TierRed, updated.RiskTier)

	got, err := s.store.FindByID(s.ctx, c.ID)
	s.Require().NoError(err)
	s.Equal(models.TierRed, got.RiskTier)
}

func (s *PostgresCaseStoreSuite) TestExecuteMissingCase() {
	_, err := s.store.Execute(s.ctx, id.CaseID(uuid.New()),
		func(*models.Case) error { return nil },
		func(*models.Case) {})
	s.Require().Error(err)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresCaseStoreSuite) TestCaseworkerAssignmentLifecycle() {
	personID := s.seedPerson(id.RoleBeneficiary)
	caseworkerID := s.seedPerson(id.RoleCaseWorker)
	c := s.newCase(personID)
	s.Require().NoError(s.store.CreateIfPersonUnassigned(s.ctx, c))

	_, err := s.store.Execute(s.ctx, c.ID,
		func(*models.Case) error { return nil },
		func(c *models.Case) { c.ApplyCaseworker(&caseworkerID, time.Now().UTC()) })
	s.Require().NoError(err)

	assigned, err := s.store.ListByCaseworker(s.ctx, caseworkerID)
	s.Require().NoError(err)
	s.Len(assigned, 1)

	s.Require().NoError(s.store.ClearCaseworker(s.ctx, caseworkerID))

	got, err := s.store.FindByID(s.ctx, c.ID)
	s.Require().NoError(err)
	s.Nil(got.CaseworkerID)
}

func (s *PostgresCaseStoreSuite) TestDeleteByPerson() {
	personID := s.seedPerson(id.RoleBeneficiary)
	c := s.newCase(personID)
	s.Require().NoError(s.store.CreateIfPersonUnassigned(s.ctx, c))

	caseID, err := s.store.DeleteByPerson(s.ctx, personID)
	s.Require().NoError(err)
	s.Equal(c.ID, caseID)

	_, err = s.store.FindByID(s.ctx, c.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)

	// the person slot is free again
	s.Require().NoError(s.store.CreateIfPersonUnassigned(s.ctx, s.newCase(personID)))
}
