package verification

import (
	"bytes"
	"context"
	"crypto/subtle"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/redis/go-redis/v9"
)

const codeRecordVersionV1 = 1

var errCorruptRecord = errors.New("corrupt verification record")

type codeRecord struct {
	Kind      Kind
	ExpiresAt int64
	Hash      [32]byte
}

// RedisStore keeps verification codes in Redis, one record per
// (email, kind) key. Consumption runs under WATCH so two concurrent
// verifications of the same code cannot both succeed.
type RedisStore struct {
	redis  *redis.Client
	prefix string

	now func() time.Time
}

// NewRedisStore creates a RedisStore. prefix namespaces every key and
// must match across processes sharing the same Redis.
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{
		redis:  client,
		prefix: prefix,
		now:    time.Now,
	}
}

func (s *RedisStore) key(email string, kind Kind) string {
	return s.prefix + ":vc:" + kind.String() + ":" + normalizeEmail(email)
}

// Save replaces any existing code for (email, kind). The Redis TTL is
// the retention window, not the code lifetime; expiry is judged against
// the ExpiresAt embedded in the record so an expired-but-retained code
// still reports StatusExpired.
func (s *RedisStore) Save(ctx context.Context, email string, codeHash [32]byte, kind Kind, ttl time.Duration) error {
	if ttl <= 0 {
		return errors.New("verification ttl must be > 0")
	}

	record := &codeRecord{
		Kind:      kind,
		ExpiresAt: s.now().Add(ttl).Unix(),
		Hash:      codeHash,
	}
	encoded, err := encodeCodeRecord(record)
	if err != nil {
		return err
	}

	if err := s.redis.Set(ctx, s.key(email, kind), encoded, retentionFor(ttl)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	return nil
}

// Verify checks the stored code for (email, kind) and deletes it on a
// match. Non-matching attempts leave the record in place; there is no
// attempt counter at this layer, the lifetime bounds the guess window.
func (s *RedisStore) Verify(ctx context.Context, email string, codeHash [32]byte, kind Kind) (Result, error) {
	const maxRetries = 4
	key := s.key(email, kind)

	for i := 0; i < maxRetries; i++ {
		var result Result

		err := s.redis.Watch(ctx, func(tx *redis.Tx) error {
			data, err := tx.Get(ctx, key).Bytes()
			if err != nil {
				return err
			}

			record, err := decodeCodeRecord(data)
			if err != nil {
				return err
			}
			if record.Kind != kind {
				result = Result{Status: StatusNotFound}
				return nil
			}

			now := s.now()
			if now.Unix() > record.ExpiresAt {
				result = Result{Status: StatusExpired}
				return nil
			}

			if subtle.ConstantTimeCompare(record.Hash[:], codeHash[:]) != 1 {
				result = Result{Status: StatusMismatch}
				return nil
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Del(ctx, key)
				return nil
			})
			if err != nil {
				return err
			}

			result = Result{
				Status:    StatusSuccess,
				Remaining: time.Unix(record.ExpiresAt, 0).Sub(now),
			}
			return nil
		}, key)

		if err == redis.TxFailedErr {
			continue
		}
		if errors.Is(err, redis.Nil) {
			return Result{Status: StatusNotFound}, nil
		}
		if errors.Is(err, errCorruptRecord) {
			return Result{Status: StatusNotFound}, nil
		}
		if err != nil {
			return Result{}, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
		}
		return result, nil
	}

	// Contention on a single client-session key this persistent means
	// something else keeps rewriting it; report the code gone.
	return Result{Status: StatusNotFound}, nil
}

func encodeCodeRecord(record *codeRecord) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte(codeRecordVersionV1)
	buf.WriteByte(byte(record.Kind))
	if err := binary.Write(&buf, binary.BigEndian, record.ExpiresAt); err != nil {
		return nil, err
	}
	buf.Write(record.Hash[:])

	return buf.Bytes(), nil
}

func decodeCodeRecord(data []byte) (*codeRecord, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return nil, errCorruptRecord
	}
	if version != codeRecordVersionV1 {
		return nil, errCorruptRecord
	}

	kind, err := reader.ReadByte()
	if err != nil {
		return nil, errCorruptRecord
	}

	record := &codeRecord{Kind: Kind(kind)}
	if err := binary.Read(reader, binary.BigEndian, &record.ExpiresAt); err != nil {
		return nil, errCorruptRecord
	}
	if _, err := io.ReadFull(reader, record.Hash[:]); err != nil {
		return nil, errCorruptRecord
	}

	return record, nil
}
