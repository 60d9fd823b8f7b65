package verification

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	id "trueconnect/pkg/domain"
	dErrors "trueconnect/pkg/domainerrors"
	"trueconnect/pkg/platform/tx"

	"trueconnect/internal/blob"
	"trueconnect/internal/platform/audit"
	"trueconnect/internal/platform/metrics"
	"trueconnect/internal/profile"
	"trueconnect/internal/verification/status"
)

// MaxDocumentSize is the upload limit for a single ID document.
const MaxDocumentSize = 5 << 20 // 5 MiB

var allowedContentTypes = map[string]bool{
	"image/jpeg":      true,
	"image/jpg":       true,
	"image/png":       true,
	"application/pdf": true,
}

// Notifier pushes change events to connected clients after a write settles.
type Notifier interface {
	ProfileChanged(ctx context.Context, p *profile.Profile)
	QueueChanged(ctx context.Context)
}

// Service runs the submission flow: validate, store the document, record the
// request, and move the profile into pending review.
type Service struct {
	profiles profile.Store
	requests RequestStore
	blobs    blob.Store
	txRunner tx.Runner
	notifier Notifier
	logger   *slog.Logger
	metrics  *metrics.Metrics
	audit    audit.Recorder
}

func NewService(
	profiles profile.Store,
	requests RequestStore,
	blobs blob.Store,
	txRunner tx.Runner,
	notifier Notifier,
	logger *slog.Logger,
	m *metrics.Metrics,
	recorder audit.Recorder,
) *Service {
	return &Service{
		profiles: profiles,
		requests: requests,
		blobs:    blobs,
		txRunner: txRunner,
		notifier: notifier,
		logger:   logger,
		metrics:  m,
		audit:    recorder,
	}
}

// ValidateDocument applies the client-side rules server-side: type and size
// checks run before any store or network call.
func ValidateDocument(doc Document) error {
	if doc.FileName == "" || len(doc.Data) == 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "Please select an ID file first!")
	}
	if !allowedContentTypes[doc.ContentType] {
		return dErrors.New(dErrors.CodeInvalidInput, "Please select a valid file type (JPG, PNG, or PDF)")
	}
	if len(doc.Data) > MaxDocumentSize {
		return dErrors.New(dErrors.CodeInvalidInput, "File size must be less than 5MB")
	}
	return nil
}

// Submit processes one verification submission for userID.
//
// Failure at any step surfaces an error and leaves the profile status
// unchanged. The request and profile writes share a transaction; if it fails
// after the upload succeeded, the uploaded object is deleted best-effort so
// orphaned blobs don't accumulate.
func (s *Service) Submit(ctx context.Context, userID id.UserID, doc Document) (*Request, error) {
	if err := ValidateDocument(doc); err != nil {
		s.refused("validation")
		return nil, err
	}

	prof, err := s.profiles.FindByID(ctx, userID)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeUnavailable, "Upload failed: could not load your profile", err)
	}

	nextStatus, err := status.Submit(prof.Status)
	if err != nil {
		s.refused("status_guard")
		return nil, err
	}

	key := blob.DocumentKey(userID, doc.FileName)
	documentURL, err := s.blobs.Upload(ctx, key, doc.ContentType, doc.Data)
	if err != nil {
		s.logger.ErrorContext(ctx, "document upload failed",
			"user_id", userID.String(), "error", err)
		return nil, dErrors.Wrap(dErrors.CodeUnavailable, fmt.Sprintf("Upload failed: %v", err), err)
	}

	now := time.Now().UTC()
	request := &Request{
		ID:          id.NewRequestID(),
		UserID:      userID,
		UserEmail:   prof.Email,
		UserName:    prof.DisplayName,
		DocumentURL: documentURL,
		FileName:    doc.FileName,
		Status:      status.RequestPending,
		SubmittedAt: now,
	}

	prof.Status = nextStatus
	prof.IDImageRef = documentURL
	prof.RejectionReason = ""
	prof.LastSubmittedAt = &now

	err = s.txRunner.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.requests.Create(ctx, request); err != nil {
			return err
		}
		if err := s.profiles.Save(ctx, prof); err != nil {
			return err
		}
		event := audit.NewEvent(audit.ActionSubmitted, userID.String())
		event.SubjectID = request.ID.String()
		return s.audit.Record(ctx, event)
	})
	if err != nil {
		// Compensate the upload so the failed submission leaves no
		// unreferenced object behind.
		if delErr := s.blobs.Delete(ctx, key); delErr != nil {
			s.logger.WarnContext(ctx, "orphaned document left in blob store",
				"key", key, "error", delErr)
		}
		s.logger.ErrorContext(ctx, "submission write failed",
			"user_id", userID.String(), "error", err)
		return nil, dErrors.Wrap(dErrors.CodeUnavailable, fmt.Sprintf("Upload failed: %v", err), err)
	}

	if s.metrics != nil {
		s.metrics.SubmissionsAccepted.Inc()
	}
	s.notify(ctx, prof)
	return request, nil
}

func (s *Service) refused(reason string) {
	if s.metrics != nil {
		s.metrics.SubmissionsRefused.WithLabelValues(reason).Inc()
	}
}

func (s *Service) notify(ctx context.Context, prof *profile.Profile) {
	if s.notifier == nil {
		return
	}
	s.notifier.ProfileChanged(ctx, prof)
	s.notifier.QueueChanged(ctx)
}
