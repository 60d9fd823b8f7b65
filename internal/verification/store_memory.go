package verification

import (
	"context"
	"sort"
	"sync"
	"time"

	id "trueconnect/pkg/domain"
	"trueconnect/pkg/sentinel"

	"trueconnect/internal/verification/status"
)

// InMemoryRequestStore is a map-backed RequestStore for tests.
type InMemoryRequestStore struct {
	mu       sync.RWMutex
	requests map[id.RequestID]Request
}

func NewInMemoryRequestStore() *InMemoryRequestStore {
	return &InMemoryRequestStore{requests: make(map[id.RequestID]Request)}
}

func (s *InMemoryRequestStore) Create(ctx context.Context, r *Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.requests[r.ID]; exists {
		return sentinel.ErrConflict
	}
	s.requests[r.ID] = *r
	return nil
}

func (s *InMemoryRequestStore) FindByID(ctx context.Context, requestID id.RequestID) (*Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.requests[requestID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := r
	return &copied, nil
}

func (s *InMemoryRequestStore) ListPending(ctx context.Context) ([]*Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var pending []*Request
	for _, r := range s.requests {
		if r.Status == status.RequestPending {
			copied := r
			pending = append(pending, &copied)
		}
	}
	sort.Slice(pending, func(i, j int) bool {
		return pending[i].SubmittedAt.Before(pending[j].SubmittedAt)
	})
	return pending, nil
}

func (s *InMemoryRequestStore) MarkProcessed(ctx context.Context, requestID id.RequestID, outcome status.RequestStatus, comment string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.requests[requestID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if r.Status != status.RequestPending {
		return sentinel.ErrInvalidState
	}
	r.Status = outcome
	r.AdminComment = comment
	r.ProcessedAt = &at
	s.requests[requestID] = r
	return nil
}
