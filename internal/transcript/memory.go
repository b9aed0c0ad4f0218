// Package transcript implements the append-only per-user message
// history. The in-memory store is the default; the SQLite store is an
// opt-in persistence backend with the same contract.
package transcript

import (
	"context"
	"sync"

	"relaybot/internal/domain"
)

// MemoryStore keeps transcripts and profiles in process memory.
// Growth is unbounded: there is no eviction, the history lives for the
// process lifetime.
type MemoryStore struct {
	mu       sync.RWMutex
	entries  map[domain.UserID][]domain.ConversationEntry
	profiles map[domain.UserID]domain.UserProfile
	order    []domain.UserID // first-contact order
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries:  make(map[domain.UserID][]domain.ConversationEntry),
		profiles: make(map[domain.UserID]domain.UserProfile),
	}
}

func (s *MemoryStore) Ensure(_ context.Context, user domain.UserID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ensureLocked(user), nil
}

func (s *MemoryStore) ensureLocked(user domain.UserID) bool {
	if _, ok := s.entries[user]; ok {
		return false
	}
	s.entries[user] = nil
	s.order = append(s.order, user)
	return true
}

func (s *MemoryStore) Append(_ context.Context, user domain.UserID, entry domain.ConversationEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLocked(user)
	s.entries[user] = append(s.entries[user], entry)
	return nil
}

func (s *MemoryStore) History(_ context.Context, user domain.UserID) ([]domain.ConversationEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	src := s.entries[user]
	out := make([]domain.ConversationEntry, len(src))
	copy(out, src)
	return out, nil
}

func (s *MemoryStore) KnownUsers(_ context.Context) ([]domain.UserID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.UserID, len(s.order))
	copy(out, s.order)
	return out, nil
}

func (s *MemoryStore) SaveProfile(_ context.Context, user domain.UserID, p domain.UserProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[user] = p
	return nil
}

func (s *MemoryStore) Profile(_ context.Context, user domain.UserID) (domain.UserProfile, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[user]
	return p, ok, nil
}

func (s *MemoryStore) Close() error { return nil }
