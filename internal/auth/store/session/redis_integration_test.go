//go:build integration

package session

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"safereturn/internal/auth/models"
	id "safereturn/pkg/domain"
	"safereturn/pkg/platform/sentinel"
	"safereturn/pkg/testutil/containers"
)

type RedisSessionStoreSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	store *RedisStore
	ctx   context.Context
}

func TestRedisSessionStoreSuite(t *testing.T) {
	suite.Run(t, new(RedisSessionStoreSuite))
}

func (s *RedisSessionStoreSuite) SetupSuite() {
	s.redis = containers.NewRedisContainer(s.T())
	s.store = NewRedis(s.redis.Client)
	s.ctx = context.Background()
}

func (s *RedisSessionStoreSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(s.ctx))
}

func (s *RedisSessionStoreSuite) newSession(ttl time.Duration) *models.Session {
	now := time.Now().UTC()
	return &models.Session{
		ID:        uuid.NewString(),
		PersonID:  id.PersonID(uuid.New()),
		Role:      id.RoleBeneficiary,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}

func (s *RedisSessionStoreSuite) TestRoundTrip() {
	sess := s.newSession(time.Hour)
	s.Require().NoError(s.store.Create(s.ctx, sess))

	got, err := s.store.FindByID(s.ctx, sess.ID)
	s.Require().NoError(err)
	s.Equal(sess.PersonID, got.PersonID)
	s.Equal(sess.Role, got.Role)
}

func (s *RedisSessionStoreSuite) TestFindMissing() {
	_, err := s.store.FindByID(s.ctx, uuid.NewString())
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *RedisSessionStoreSuite) TestDeleteRevokes() {
	sess := s.newSession(time.Hour)
	s.Require().NoError(s.store.Create(s.ctx, sess))
	s.Require().NoError(s.store.Delete(s.ctx, sess.ID))

	_, err := s.store.FindByID(s.ctx, sess.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *RedisSessionStoreSuite) TestDeleteMissing() {
	s.ErrorIs(s.store.Delete(s.ctx, uuid.NewString()), sentinel.ErrNotFound)
}

func (s *RedisSessionStoreSuite) TestKeyExpiresWithSession() {
	sess := s.newSession(time.Second)
	s.Require().NoError(s.store.Create(s.ctx, sess))

	s.Eventually(func() bool {
		_, err := s.store.FindByID(s.ctx, sess.ID)
		return err != nil
	}, 5*time.Second, 200*time.Millisecond)
}

func (s *RedisSessionStoreSuite) TestExpiredSessionRejectedAtCreate() {
	sess := s.newSession(-time.Minute)
	s.Error(s.store.Create(s.ctx, sess))
}
