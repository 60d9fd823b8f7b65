package profile

import (
	"context"
	"sync"

	id "trueconnect/pkg/domain"
	"trueconnect/pkg/sentinel"
)

// InMemoryStore is a map-backed Store for tests and local development.
type InMemoryStore struct {
	mu       sync.RWMutex
	profiles map[id.UserID]Profile
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{profiles: make(map[id.UserID]Profile)}
}

func (s *InMemoryStore) Create(ctx context.Context, p *Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.profiles[p.UserID]; exists {
		return sentinel.ErrConflict
	}
	s.profiles[p.UserID] = *p
	return nil
}

func (s *InMemoryStore) FindByID(ctx context.Context, userID id.UserID) (*Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[userID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := p
	return &copied, nil
}

func (s *InMemoryStore) Save(ctx context.Context, p *Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.profiles[p.UserID]; !ok {
		return sentinel.ErrNotFound
	}
	s.profiles[p.UserID] = *p
	return nil
}
