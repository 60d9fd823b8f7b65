package verification

import (
	"context"
	"errors"
	"log/slog"
	"time"

	id "trueconnect/pkg/domain"
	dErrors "trueconnect/pkg/domainerrors"
	"trueconnect/pkg/platform/tx"
	"trueconnect/pkg/sentinel"

	"trueconnect/internal/platform/audit"
	"trueconnect/internal/platform/metrics"
	"trueconnect/internal/profile"
	"trueconnect/internal/verification/status"
)

// ReviewService is the admin side of verification: listing the pending queue
// and deciding requests. A decision updates the request and the submitter's
// profile in one transaction, so the two records never disagree.
type ReviewService struct {
	profiles profile.Store
	requests RequestStore
	txRunner tx.Runner
	notifier Notifier
	logger   *slog.Logger
	metrics  *metrics.Metrics
	audit    audit.Recorder
}

func NewReviewService(
	profiles profile.Store,
	requests RequestStore,
	txRunner tx.Runner,
	notifier Notifier,
	logger *slog.Logger,
	m *metrics.Metrics,
	recorder audit.Recorder,
) *ReviewService {
	return &ReviewService{
		profiles: profiles,
		requests: requests,
		txRunner: txRunner,
		notifier: notifier,
		logger:   logger,
		metrics:  m,
		audit:    recorder,
	}
}

// Queue returns all pending requests in arrival order.
func (s *ReviewService) Queue(ctx context.Context) ([]*Request, error) {
	requests, err := s.requests.ListPending(ctx)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeUnavailable, "could not load the review queue", err)
	}
	return requests, nil
}

// Approve marks a pending request approved and its submitter verified.
func (s *ReviewService) Approve(ctx context.Context, adminID id.UserID, requestID id.RequestID) (*Request, error) {
	return s.decide(ctx, adminID, requestID, status.RequestApproved, "")
}

// Reject marks a pending request rejected with a reason the submitter will
// see. The reason is required; rejection without one is refused before any
// write happens.
func (s *ReviewService) Reject(ctx context.Context, adminID id.UserID, requestID id.RequestID, reason string) (*Request, error) {
	if reason == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "Please provide a reason for rejection")
	}
	return s.decide(ctx, adminID, requestID, status.RequestRejected, reason)
}

func (s *ReviewService) decide(ctx context.Context, adminID id.UserID, requestID id.RequestID, outcome status.RequestStatus, reason string) (*Request, error) {
	now := time.Now().UTC()

	var request *Request
	var prof *profile.Profile

	err := s.txRunner.RunInTx(ctx, func(ctx context.Context) error {
		// The conditional update settles races between administrators:
		// the first decision wins, the second sees ErrInvalidState.
		if err := s.requests.MarkProcessed(ctx, requestID, outcome, reason, now); err != nil {
			return err
		}

		var err error
		request, err = s.requests.FindByID(ctx, requestID)
		if err != nil {
			return err
		}

		prof, err = s.profiles.FindByID(ctx, request.UserID)
		if err != nil {
			return err
		}

		switch outcome {
		case status.RequestApproved:
			next, err := status.Approve(prof.Status)
			if err != nil {
				return err
			}
			prof.Status = next
			prof.RejectionReason = ""
			prof.VerifiedAt = &now
		case status.RequestRejected:
			next, err := status.Reject(prof.Status, reason)
			if err != nil {
				return err
			}
			prof.Status = next
			prof.RejectionReason = reason
			prof.RejectedAt = &now
		}

		if err := s.profiles.Save(ctx, prof); err != nil {
			return err
		}

		event := audit.NewEvent(actionFor(outcome), adminID.String())
		event.SubjectID = request.UserID.String()
		event.RequestID = requestID.String()
		event.Reason = reason
		return s.audit.Record(ctx, event)
	})
	if err != nil {
		return nil, s.decideError(ctx, requestID, outcome, err)
	}

	if s.metrics != nil {
		s.metrics.ReviewsProcessed.WithLabelValues(string(outcome)).Inc()
	}
	if s.notifier != nil {
		s.notifier.ProfileChanged(ctx, prof)
		s.notifier.QueueChanged(ctx)
	}
	return request, nil
}

func (s *ReviewService) decideError(ctx context.Context, requestID id.RequestID, outcome status.RequestStatus, err error) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.Wrap(dErrors.CodeNotFound, "verification request not found", err)
	case errors.Is(err, sentinel.ErrInvalidState):
		return dErrors.Wrap(dErrors.CodeConflict, "this request has already been processed", err)
	case dErrors.HasCode(err, dErrors.CodePolicy), dErrors.HasCode(err, dErrors.CodeInvalidInput):
		return err
	default:
		s.logger.ErrorContext(ctx, "review decision failed",
			"request_id", requestID.String(), "outcome", string(outcome), "error", err)
		return dErrors.Wrap(dErrors.CodeUnavailable, "could not process the request", err)
	}
}

func actionFor(outcome status.RequestStatus) string {
	if outcome == status.RequestApproved {
		return audit.ActionApproved
	}
	return audit.ActionRejected
}
