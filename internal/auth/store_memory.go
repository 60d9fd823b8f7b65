package auth

import (
	"context"
	"strings"
	"sync"

	id "trueconnect/pkg/domain"
	"trueconnect/pkg/sentinel"
)

// InMemoryUserStore is a map-backed UserStore for tests.
type InMemoryUserStore struct {
	mu      sync.RWMutex
	byID    map[id.UserID]User
	byEmail map[string]id.UserID
}

func NewInMemoryUserStore() *InMemoryUserStore {
	return &InMemoryUserStore{
		byID:    make(map[id.UserID]User),
		byEmail: make(map[string]id.UserID),
	}
}

func (s *InMemoryUserStore) Create(ctx context.Context, user *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.ToLower(user.Email)
	if _, exists := s.byEmail[key]; exists {
		return sentinel.ErrConflict
	}
	s.byID[user.ID] = *user
	s.byEmail[key] = user.ID
	return nil
}

func (s *InMemoryUserStore) FindByID(ctx context.Context, userID id.UserID) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.byID[userID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := u
	return &copied, nil
}

func (s *InMemoryUserStore) FindByEmail(ctx context.Context, email string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	userID, ok := s.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	u := s.byID[userID]
	return &u, nil
}
