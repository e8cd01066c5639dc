package credstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps the session record under a single key. Writes merge
// into the existing record under WATCH, so SaveToken and CacheUser can
// interleave with reads without producing a torn session.
type RedisStore struct {
	redis  *redis.Client
	key    string
	ttl    time.Duration
	now    func() time.Time
}

// NewRedisStore creates a RedisStore. ttl bounds how long an untouched
// record survives; align it with the refresh-token lifetime.
func NewRedisStore(client *redis.Client, prefix string, ttl time.Duration) *RedisStore {
	return &RedisStore{
		redis: client,
		key:   prefix + ":cred",
		ttl:   ttl,
		now:   time.Now,
	}
}

// SaveToken stores the token pair, preserving any cached user.
func (s *RedisStore) SaveToken(ctx context.Context, access, refresh string, expiresAt time.Time) error {
	return s.update(ctx, func(r *Record) {
		r.AccessToken = access
		r.RefreshToken = refresh
		r.TokenExpiresAt = expiresAt.Unix()
	})
}

// CacheUser stores the profile snapshot, preserving any saved tokens.
func (s *RedisStore) CacheUser(ctx context.Context, user CachedUser) error {
	return s.update(ctx, func(r *Record) {
		r.User = user
	})
}

// LastRecord returns the current record, or (nil, nil) when empty.
func (s *RedisStore) LastRecord(ctx context.Context) (*Record, error) {
	data, err := s.redis.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}

	record, err := decodeRecord(data)
	if err != nil {
		return nil, err
	}
	return record, nil
}

// Clear drops the record entirely.
func (s *RedisStore) Clear(ctx context.Context) error {
	if err := s.redis.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	return nil
}

func (s *RedisStore) update(ctx context.Context, apply func(*Record)) error {
	const maxRetries = 4

	for i := 0; i < maxRetries; i++ {
		err := s.redis.Watch(ctx, func(tx *redis.Tx) error {
			record := &Record{}

			data, err := tx.Get(ctx, s.key).Bytes()
			switch {
			case errors.Is(err, redis.Nil):
				// first write
			case err != nil:
				return err
			default:
				decoded, derr := decodeRecord(data)
				if derr == nil {
					record = decoded
				}
				// A corrupt record is overwritten rather than surfaced.
			}

			apply(record)
			record.SavedAt = s.now().Unix()

			encoded, err := encodeRecord(record)
			if err != nil {
				return err
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, s.key, encoded, s.ttl)
				return nil
			})
			return err
		}, s.key)

		if err == redis.TxFailedErr {
			continue
		}
		if err != nil {
			return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
		}
		return nil
	}

	return fmt.Errorf("%w: too much write contention", ErrBackendUnavailable)
}
