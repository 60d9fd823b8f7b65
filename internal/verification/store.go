package verification

import (
	"context"
	"time"

	id "trueconnect/pkg/domain"

	"trueconnect/internal/verification/status"
)

// RequestStore persists verification requests.
type RequestStore interface {
	Create(ctx context.Context, r *Request) error
	FindByID(ctx context.Context, requestID id.RequestID) (*Request, error)
	// ListPending returns pending requests in arrival order.
	ListPending(ctx context.Context) ([]*Request, error)
	// MarkProcessed moves a pending request to its outcome. It is
	// conditional on the request still being pending: a second racing
	// administrator gets sentinel.ErrInvalidState, never a double apply.
	MarkProcessed(ctx context.Context, requestID id.RequestID, outcome status.RequestStatus, comment string, at time.Time) error
}
