package credstore

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is the in-process Store implementation. It hands out
// copies, so callers cannot mutate the stored record.
type MemoryStore struct {
	mu     sync.RWMutex
	record *Record

	now func() time.Time
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{now: time.Now}
}

// SaveToken stores the token pair, preserving any cached user.
func (s *MemoryStore) SaveToken(ctx context.Context, access, refresh string, expiresAt time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	record := s.cloneLocked()
	record.AccessToken = access
	record.RefreshToken = refresh
	record.TokenExpiresAt = expiresAt.Unix()
	record.SavedAt = s.now().Unix()
	s.record = record
	return nil
}

// CacheUser stores the profile snapshot, preserving any saved tokens.
func (s *MemoryStore) CacheUser(ctx context.Context, user CachedUser) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	record := s.cloneLocked()
	record.User = user
	record.SavedAt = s.now().Unix()
	s.record = record
	return nil
}

// LastRecord returns a copy of the current record, or (nil, nil) when
// empty.
func (s *MemoryStore) LastRecord(ctx context.Context) (*Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.record == nil {
		return nil, nil
	}
	out := *s.record
	return &out, nil
}

// Clear drops the record.
func (s *MemoryStore) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.record = nil
	return nil
}

func (s *MemoryStore) cloneLocked() *Record {
	if s.record == nil {
		return &Record{}
	}
	out := *s.record
	return &out
}
