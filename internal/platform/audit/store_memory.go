package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// InMemoryStore holds outbox entries in a slice. Tests and local development
// only; nothing survives a restart.
type InMemoryStore struct {
	mu        sync.Mutex
	nextSeq   int64
	pending   map[int64][]byte
	published map[int64][]byte
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{
		pending:   make(map[int64][]byte),
		published: make(map[int64][]byte),
	}
}

func (s *InMemoryStore) Record(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSeq++
	s.pending[s.nextSeq] = payload
	return nil
}

func (s *InMemoryStore) NextBatch(ctx context.Context, limit int) ([]OutboxEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var entries []OutboxEntry
	for seq := int64(1); seq <= s.nextSeq && len(entries) < limit; seq++ {
		if payload, ok := s.pending[seq]; ok {
			entries = append(entries, OutboxEntry{Seq: seq, Payload: payload})
		}
	}
	return entries, nil
}

func (s *InMemoryStore) MarkPublished(ctx context.Context, seqs []int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, seq := range seqs {
		if payload, ok := s.pending[seq]; ok {
			s.published[seq] = payload
			delete(s.pending, seq)
		}
	}
	return nil
}

// Published returns the payloads drained so far, for test assertions.
func (s *InMemoryStore) Published() [][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out [][]byte
	for seq := int64(1); seq <= s.nextSeq; seq++ {
		if payload, ok := s.published[seq]; ok {
			out = append(out, payload)
		}
	}
	return out
}
