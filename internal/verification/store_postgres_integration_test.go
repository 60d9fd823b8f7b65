//go:build integration

package verification_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	id "trueconnect/pkg/domain"
	"trueconnect/pkg/sentinel"
	"trueconnect/pkg/testutil/containers"

	"trueconnect/internal/verification"
	"trueconnect/internal/verification/status"
)

type PostgresRequestStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *verification.PostgresRequestStore
}

func TestPostgresRequestStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresRequestStoreSuite))
}

func (s *PostgresRequestStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.store = verification.NewPostgresRequestStore(s.postgres.DB)
}

func (s *PostgresRequestStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "verification_requests"))
}

func newPendingRequest(submittedAt time.Time) *verification.Request {
	return &verification.Request{
		ID:          id.NewRequestID(),
		UserID:      id.NewUserID(),
		UserEmail:   "dana@example.com",
		UserName:    "Dana",
		DocumentURL: "https://cdn.example.com/id-documents/x/passport.png",
		FileName:    "passport.png",
		Status:      status.RequestPending,
		SubmittedAt: submittedAt.UTC().Truncate(time.Microsecond),
	}
}

func (s *PostgresRequestStoreSuite) TestCreateAndFind() {
	ctx := context.Background()
	request := newPendingRequest(time.Now())

	s.Require().NoError(s.store.Create(ctx, request))

	found, err := s.store.FindByID(ctx, request.ID)
	s.Require().NoError(err)
	s.Equal(request.UserEmail, found.UserEmail)
	s.Equal(status.RequestPending, found.Status)
	s.Nil(found.ProcessedAt)
}

func (s *PostgresRequestStoreSuite) TestListPendingOrdersByArrival() {
	ctx := context.Background()
	now := time.Now()
	second := newPendingRequest(now.Add(time.Minute))
	first := newPendingRequest(now)

	s.Require().NoError(s.store.Create(ctx, second))
	s.Require().NoError(s.store.Create(ctx, first))

	pending, err := s.store.ListPending(ctx)
	s.Require().NoError(err)
	s.Require().Len(pending, 2)
	s.Equal(first.ID, pending[0].ID)
	s.Equal(second.ID, pending[1].ID)
}

func (s *PostgresRequestStoreSuite) TestMarkProcessedLeavesQueue() {
	ctx := context.Background()
	request := newPendingRequest(time.Now())
	s.Require().NoError(s.store.Create(ctx, request))

	now := time.Now().UTC().Truncate(time.Microsecond)
	err := s.store.MarkProcessed(ctx, request.ID, status.RequestRejected, "document is unreadable", now)
	s.Require().NoError(err)

	found, err := s.store.FindByID(ctx, request.ID)
	s.Require().NoError(err)
	s.Equal(status.RequestRejected, found.Status)
	s.Equal("document is unreadable", found.AdminComment)
	s.Require().NotNil(found.ProcessedAt)

	pending, err := s.store.ListPending(ctx)
	s.Require().NoError(err)
	s.Empty(pending)
}

func (s *PostgresRequestStoreSuite) TestMarkProcessedUnknownRequest() {
	err := s.store.MarkProcessed(context.Background(), id.NewRequestID(),
		status.RequestApproved, "", time.Now().UTC())
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

// TestConcurrentDecisions verifies that two administrators racing on the same
// request produce exactly one applied decision.
func (s *PostgresRequestStoreSuite) TestConcurrentDecisions() {
	ctx := context.Background()
	request := newPendingRequest(time.Now())
	s.Require().NoError(s.store.Create(ctx, request))

	const goroutines = 20
	var wg sync.WaitGroup
	var applied, conflicted atomic.Int32

	for i := 0; i < goroutines; i++ {
		outcome := status.RequestApproved
		if i%2 == 1 {
			outcome = status.RequestRejected
		}
		wg.Add(1)
		go func(outcome status.RequestStatus) {
			defer wg.Done()
			err := s.store.MarkProcessed(ctx, request.ID, outcome, "raced", time.Now().UTC())
			if err == nil {
				applied.Add(1)
			} else if errors.Is(err, sentinel.ErrInvalidState) {
				conflicted.Add(1)
			}
		}(outcome)
	}
	wg.Wait()

	s.Equal(int32(1), applied.Load(), "exactly one decision should apply")
	s.Equal(int32(goroutines-1), conflicted.Load())
}
