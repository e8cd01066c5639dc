package credstore

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewRedisStore(client, "vt", 7*24*time.Hour), mr
}

// Both implementations must expose identical semantics; each test runs
// against the redis and the memory store.
func stores(t *testing.T) map[string]Store {
	t.Helper()

	redisStore, _ := newTestRedisStore(t)
	return map[string]Store{
		"redis":  redisStore,
		"memory": NewMemoryStore(),
	}
}

func TestStoreEmptyReadsNil(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			record, err := store.LastRecord(context.Background())
			if err != nil {
				t.Fatalf("LastRecord: %v", err)
			}
			if record != nil {
				t.Fatalf("record = %+v, want nil", record)
			}
		})
	}
}

func TestStoreTokenAndUserMerge(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			expiresAt := time.Now().Add(15 * time.Minute)

			if err := store.SaveToken(ctx, "access-1", "refresh-1", expiresAt); err != nil {
				t.Fatalf("SaveToken: %v", err)
			}
			if err := store.CacheUser(ctx, CachedUser{
				UserID:      "user-1",
				DisplayName: "Alice",
				Email:       "alice@example.com",
				Role:        "patient",
			}); err != nil {
				t.Fatalf("CacheUser: %v", err)
			}

			record, err := store.LastRecord(ctx)
			if err != nil {
				t.Fatalf("LastRecord: %v", err)
			}
			if record == nil {
				t.Fatal("record missing after writes")
			}
			if record.AccessToken != "access-1" || record.RefreshToken != "refresh-1" {
				t.Fatalf("tokens = %q/%q, want access-1/refresh-1", record.AccessToken, record.RefreshToken)
			}
			if record.TokenExpiresAt != expiresAt.Unix() {
				t.Fatalf("expiry = %d, want %d", record.TokenExpiresAt, expiresAt.Unix())
			}
			if record.User.UserID != "user-1" || record.User.Email != "alice@example.com" {
				t.Fatalf("user = %+v, want user-1", record.User)
			}

			// A later token write must keep the cached user.
			if err := store.SaveToken(ctx, "access-2", "refresh-2", expiresAt.Add(time.Hour)); err != nil {
				t.Fatalf("SaveToken: %v", err)
			}
			record, err = store.LastRecord(ctx)
			if err != nil {
				t.Fatalf("LastRecord: %v", err)
			}
			if record.AccessToken != "access-2" {
				t.Fatalf("access = %q, want access-2", record.AccessToken)
			}
			if record.User.UserID != "user-1" {
				t.Fatalf("user lost on token rotation: %+v", record.User)
			}
		})
	}
}

func TestStoreUserBeforeToken(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			if err := store.CacheUser(ctx, CachedUser{UserID: "user-1"}); err != nil {
				t.Fatalf("CacheUser: %v", err)
			}
			if err := store.SaveToken(ctx, "access-1", "refresh-1", time.Now().Add(time.Minute)); err != nil {
				t.Fatalf("SaveToken: %v", err)
			}

			record, err := store.LastRecord(ctx)
			if err != nil {
				t.Fatalf("LastRecord: %v", err)
			}
			if record.User.UserID != "user-1" || record.AccessToken != "access-1" {
				t.Fatalf("record = %+v, want both halves present", record)
			}
		})
	}
}

func TestStoreClear(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			if err := store.SaveToken(ctx, "access-1", "refresh-1", time.Now().Add(time.Minute)); err != nil {
				t.Fatalf("SaveToken: %v", err)
			}
			if err := store.Clear(ctx); err != nil {
				t.Fatalf("Clear: %v", err)
			}

			record, err := store.LastRecord(ctx)
			if err != nil {
				t.Fatalf("LastRecord: %v", err)
			}
			if record != nil {
				t.Fatalf("record = %+v after Clear, want nil", record)
			}

			// Clearing an empty store is a no-op, not an error.
			if err := store.Clear(ctx); err != nil {
				t.Fatalf("Clear on empty store: %v", err)
			}
		})
	}
}

func TestRedisStoreRecordSurvivesReconnect(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	ctx := context.Background()
	expiresAt := time.Now().Add(time.Hour)

	first := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewRedisStore(first, "vt", time.Hour)
	if err := store.SaveToken(ctx, "access-1", "refresh-1", expiresAt); err != nil {
		t.Fatalf("SaveToken: %v", err)
	}
	if err := store.CacheUser(ctx, CachedUser{UserID: "user-1", Role: "doctor"}); err != nil {
		t.Fatalf("CacheUser: %v", err)
	}
	first.Close()

	// A fresh client (new app launch) sees the persisted session.
	second := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { second.Close() })

	record, err := NewRedisStore(second, "vt", time.Hour).LastRecord(ctx)
	if err != nil {
		t.Fatalf("LastRecord: %v", err)
	}
	if record == nil || record.AccessToken != "access-1" || record.User.Role != "doctor" {
		t.Fatalf("record = %+v, want persisted session", record)
	}
}

func TestRedisStoreCorruptRecordOverwritten(t *testing.T) {
	store, mr := newTestRedisStore(t)
	ctx := context.Background()

	mr.Set("vt:cred", "garbage")

	if err := store.SaveToken(ctx, "access-1", "refresh-1", time.Now().Add(time.Minute)); err != nil {
		t.Fatalf("SaveToken over corrupt record: %v", err)
	}

	record, err := store.LastRecord(ctx)
	if err != nil {
		t.Fatalf("LastRecord: %v", err)
	}
	if record == nil || record.AccessToken != "access-1" {
		t.Fatalf("record = %+v, want fresh record", record)
	}
}

func TestRedisStoreUnavailable(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	store := NewRedisStore(client, "vt", time.Hour)
	mr.Close()

	if err := store.SaveToken(context.Background(), "a", "r", time.Now()); err == nil {
		t.Fatal("SaveToken on dead backend should fail")
	}
	if _, err := store.LastRecord(context.Background()); err == nil {
		t.Fatal("LastRecord on dead backend should fail")
	}
}
