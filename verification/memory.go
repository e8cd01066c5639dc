package verification

import (
	"context"
	"crypto/subtle"
	"sync"
	"time"
)

type memoryRecord struct {
	hash        [32]byte
	kind        Kind
	expiresAt   time.Time
	retainUntil time.Time
}

// MemoryStore is the in-process Store implementation. It mirrors the
// Redis semantics, including the expired-record tombstone window, and
// is safe for concurrent use.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]memoryRecord

	now func() time.Time
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]memoryRecord),
		now:     time.Now,
	}
}

func memoryKey(email string, kind Kind) string {
	return kind.String() + ":" + normalizeEmail(email)
}

// Save replaces any existing code for (email, kind).
func (s *MemoryStore) Save(ctx context.Context, email string, codeHash [32]byte, kind Kind, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sweepLocked(now)
	s.records[memoryKey(email, kind)] = memoryRecord{
		hash:        codeHash,
		kind:        kind,
		expiresAt:   now.Add(ttl),
		retainUntil: now.Add(retentionFor(ttl)),
	}
	return nil
}

// Verify checks and, on success, consumes the stored code.
func (s *MemoryStore) Verify(ctx context.Context, email string, codeHash [32]byte, kind Kind) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	now := s.now()
	key := memoryKey(email, kind)

	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[key]
	if !ok || now.After(record.retainUntil) {
		delete(s.records, key)
		return Result{Status: StatusNotFound}, nil
	}
	if now.After(record.expiresAt) {
		return Result{Status: StatusExpired}, nil
	}
	if subtle.ConstantTimeCompare(record.hash[:], codeHash[:]) != 1 {
		return Result{Status: StatusMismatch}, nil
	}

	delete(s.records, key)
	return Result{
		Status:    StatusSuccess,
		Remaining: record.expiresAt.Sub(now),
	}, nil
}

func (s *MemoryStore) sweepLocked(now time.Time) {
	for key, record := range s.records {
		if now.After(record.retainUntil) {
			delete(s.records, key)
		}
	}
}
