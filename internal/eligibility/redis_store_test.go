package eligibility

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedisStore(t *testing.T, ttl time.Duration) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewRedisStore(client, ttl), mr
}

func TestRedisStoreRoundTrip(t *testing.T) {
	store, _ := newTestRedisStore(t, time.Minute)
	ctx := context.Background()

	want := Result{
		Eligible:      false,
		Reasons:       []string{"initial visit required"},
		VisitRequired: true,
	}
	if err := store.Set(ctx, "patient:follow_up", want); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	got, ok, err := store.Get(ctx, "patient:follow_up")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if !ok {
		t.Fatal("expected cache hit")
	}
	if got.Eligible != want.Eligible || !got.VisitRequired || len(got.Reasons) != 1 {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}

func TestRedisStoreMissOnUnknownKey(t *testing.T) {
	store, _ := newTestRedisStore(t, time.Minute)
	_, ok, err := store.Get(context.Background(), "nope")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatal("expected miss for unknown key")
	}
}

func TestRedisStoreExpiryReadsAsMiss(t *testing.T) {
	store, mr := newTestRedisStore(t, time.Minute)
	ctx := context.Background()

	if err := store.Set(ctx, "k", Result{Eligible: true}); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	mr.FastForward(61 * time.Second)

	_, ok, err := store.Get(ctx, "k")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatal("expected expired key to read as miss")
	}
}
