package idempotency

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
)

type fakeIdempotencyStore struct {
	values map[string]string
	ttls   map[string]time.Duration
}

func newFakeIdempotencyStore() *fakeIdempotencyStore {
	return &fakeIdempotencyStore{values: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeIdempotencyStore) Get(ctx context.Context, key string) (string, error) {
	return f.values[key], nil
}

func (f *fakeIdempotencyStore) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if _, ok := f.values[key]; ok {
		return false, nil
	}
	f.values[key] = value.(string)
	f.ttls[key] = ttl
	return true, nil
}

func (f *fakeIdempotencyStore) IdempotencyKey(scope, id string) string {
	return "ink:idempotency:" + scope + ":" + id
}

func (f *fakeIdempotencyStore) Del(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		delete(f.values, key)
	}
	return nil
}

func TestCheckAndMarkProcessed(t *testing.T) {
	t.Parallel()

	store := newFakeIdempotencyStore()
	manager, err := NewManager(store, time.Hour)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	ctx := context.Background()
	eventID := uuid.New()

	already, err := manager.CheckAndMarkProcessed(ctx, "durability-worker", eventID)
	if err != nil {
		t.Fatalf("first check: %v", err)
	}
	if already {
		t.Fatal("first check must not report processed")
	}

	already, err = manager.CheckAndMarkProcessed(ctx, "durability-worker", eventID)
	if err != nil {
		t.Fatalf("second check: %v", err)
	}
	if !already {
		t.Fatal("second check must report processed")
	}
}

func TestDeleteAllowsRetry(t *testing.T) {
	t.Parallel()

	store := newFakeIdempotencyStore()
	manager, err := NewManager(store, time.Hour)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	ctx := context.Background()
	eventID := uuid.New()

	if _, err := manager.CheckAndMarkProcessed(ctx, "durability-worker", eventID); err != nil {
		t.Fatalf("mark: %v", err)
	}
	if err := manager.Delete(ctx, "durability-worker", eventID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	already, err := manager.CheckAndMarkProcessed(ctx, "durability-worker", eventID)
	if err != nil {
		t.Fatalf("recheck: %v", err)
	}
	if already {
		t.Fatal("deleted mark must allow reprocessing")
	}
}

func TestManagerValidation(t *testing.T) {
	t.Parallel()

	if _, err := NewManager(nil, time.Hour); err == nil {
		t.Fatal("expected missing store to fail")
	}
	manager, err := NewManager(newFakeIdempotencyStore(), time.Hour)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	if _, err := manager.CheckAndMarkProcessed(context.Background(), "", uuid.New()); err == nil {
		t.Fatal("expected missing consumer to fail")
	}
	if _, err := manager.CheckAndMarkProcessed(context.Background(), "worker", uuid.Nil); err == nil {
		t.Fatal("expected nil event id to fail")
	}
}
