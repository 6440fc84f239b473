package redis

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

type fakeStore struct {
	values  map[string]string
	counts  map[string]int64
	expires map[string]time.Duration
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		values:  map[string]string{},
		counts:  map[string]int64{},
		expires: map[string]time.Duration{},
	}
}

func (f *fakeStore) Ping(ctx context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", nil)
}

func (f *fakeStore) Set(ctx context.Context, key string, value any, ttl time.Duration) *redis.StatusCmd {
	f.values[key] = value.(string)
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeStore) Get(ctx context.Context, key string) *redis.StringCmd {
	if v, ok := f.values[key]; ok {
		return redis.NewStringResult(v, nil)
	}
	return redis.NewStringResult("", redis.Nil)
}

func (f *fakeStore) SetNX(ctx context.Context, key string, value any, ttl time.Duration) *redis.BoolCmd {
	if _, ok := f.values[key]; ok {
		return redis.NewBoolResult(false, nil)
	}
	f.values[key] = value.(string)
	return redis.NewBoolResult(true, nil)
}

func (f *fakeStore) Incr(ctx context.Context, key string) *redis.IntCmd {
	f.counts[key]++
	return redis.NewIntResult(f.counts[key], nil)
}

func (f *fakeStore) Expire(ctx context.Context, key string, ttl time.Duration) *redis.BoolCmd {
	f.expires[key] = ttl
	return redis.NewBoolResult(true, nil)
}

func (f *fakeStore) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	var removed int64
	for _, key := range keys {
		if _, ok := f.values[key]; ok {
			delete(f.values, key)
			removed++
		}
	}
	return redis.NewIntResult(removed, nil)
}

func TestBuildKeyNamespacing(t *testing.T) {
	t.Parallel()

	c := &Client{store: newFakeStore()}
	if got := c.IdempotencyKey("generate", "abc"); got != "ink:idempotency:generate:abc" {
		t.Fatalf("unexpected key %s", got)
	}
	if got := c.RateLimitKey("generate:1.2.3.4"); got != "ink:rate_limit:generate:1.2.3.4" {
		t.Fatalf("unexpected key %s", got)
	}
}

func TestFixedWindowAllow(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	c := &Client{store: store}
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ok, _, err := c.FixedWindowAllow(ctx, "gen", 3, time.Minute)
		if err != nil {
			t.Fatalf("FixedWindowAllow: %v", err)
		}
		if !ok {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}

	ok, count, err := c.FixedWindowAllow(ctx, "gen", 3, time.Minute)
	if err != nil {
		t.Fatalf("FixedWindowAllow: %v", err)
	}
	if ok {
		t.Fatal("fourth request should be limited")
	}
	if count != 4 {
		t.Fatalf("expected count 4 got %d", count)
	}
	if store.expires[c.RateLimitKey("gen")] != time.Minute {
		t.Fatal("expected ttl applied on first increment")
	}
}

func TestSetNXFirstWriterWins(t *testing.T) {
	t.Parallel()

	c := &Client{store: newFakeStore()}
	ctx := context.Background()

	ok, err := c.SetNX(ctx, "k", "first", time.Minute)
	if err != nil || !ok {
		t.Fatalf("first SetNX: ok=%v err=%v", ok, err)
	}
	ok, err = c.SetNX(ctx, "k", "second", time.Minute)
	if err != nil {
		t.Fatalf("second SetNX: %v", err)
	}
	if ok {
		t.Fatal("second SetNX must not overwrite")
	}
	v, err := c.Get(ctx, "k")
	if err != nil || v != "first" {
		t.Fatalf("expected first value, got %q err=%v", v, err)
	}
}
