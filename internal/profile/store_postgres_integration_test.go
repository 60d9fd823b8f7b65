//go:build integration

package profile_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	id "trueconnect/pkg/domain"
	"trueconnect/pkg/sentinel"
	"trueconnect/pkg/testutil/containers"

	"trueconnect/internal/profile"
	"trueconnect/internal/verification/status"
)

type PostgresProfileStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *profile.PostgresStore
}

func TestPostgresProfileStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresProfileStoreSuite))
}

func (s *PostgresProfileStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.store = profile.NewPostgres(s.postgres.DB)
}

func (s *PostgresProfileStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "profiles"))
}

func newProfile() *profile.Profile {
	return &profile.Profile{
		UserID:      id.NewUserID(),
		Email:       "dana@example.com",
		DisplayName: "Dana",
		Status:      status.New,
		CreatedAt:   time.Now().UTC().Truncate(time.Microsecond),
	}
}

func (s *PostgresProfileStoreSuite) TestCreateAndFind() {
	ctx := context.Background()
	prof := newProfile()

	s.Require().NoError(s.store.Create(ctx, prof))

	found, err := s.store.FindByID(ctx, prof.UserID)
	s.Require().NoError(err)
	s.Equal(prof.Email, found.Email)
	s.Equal(status.New, found.Status)
	s.False(found.IsAdmin)
	s.Empty(found.RejectionReason)
	s.Nil(found.LastSubmittedAt)
}

func (s *PostgresProfileStoreSuite) TestCreateDuplicateConflicts() {
	ctx := context.Background()
	prof := newProfile()

	s.Require().NoError(s.store.Create(ctx, prof))
	s.Require().ErrorIs(s.store.Create(ctx, prof), sentinel.ErrConflict)
}

func (s *PostgresProfileStoreSuite) TestFindMissing() {
	_, err := s.store.FindByID(context.Background(), id.NewUserID())
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresProfileStoreSuite) TestSaveRoundtripsLifecycleFields() {
	ctx := context.Background()
	prof := newProfile()
	s.Require().NoError(s.store.Create(ctx, prof))

	now := time.Now().UTC().Truncate(time.Microsecond)
	prof.Status = status.Pending
	prof.IDImageRef = "https://cdn.example.com/id-documents/x/passport.png"
	prof.LastSubmittedAt = &now
	s.Require().NoError(s.store.Save(ctx, prof))

	found, err := s.store.FindByID(ctx, prof.UserID)
	s.Require().NoError(err)
	s.Equal(status.Pending, found.Status)
	s.Equal(prof.IDImageRef, found.IDImageRef)
	s.Require().NotNil(found.LastSubmittedAt)
	s.True(found.LastSubmittedAt.Equal(now))

	prof.Status = status.Rejected
	prof.RejectionReason = "document is unreadable"
	prof.RejectedAt = &now
	s.Require().NoError(s.store.Save(ctx, prof))

	found, err = s.store.FindByID(ctx, prof.UserID)
	s.Require().NoError(err)
	s.Equal(status.Rejected, found.Status)
	s.Equal("document is unreadable", found.RejectionReason)
}

func (s *PostgresProfileStoreSuite) TestSaveMissingProfile() {
	err := s.store.Save(context.Background(), newProfile())
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}
