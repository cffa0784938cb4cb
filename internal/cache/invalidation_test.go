package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

// plainStore hides Memory's DeletePrefix so the Clear fallback is exercised.
type plainStore struct{ m *Memory }

func (p plainStore) Get(ctx context.Context, key string) ([]byte, error) { return p.m.Get(ctx, key) }
func (p plainStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return p.m.Set(ctx, key, value, ttl)
}
func (p plainStore) Delete(ctx context.Context, key string) error { return p.m.Delete(ctx, key) }
func (p plainStore) Clear(ctx context.Context) error              { return p.m.Clear(ctx) }

// failingStore errors on everything; invalidation must swallow it.
type failingStore struct{}

func (failingStore) Get(context.Context, string) ([]byte, error) { return nil, errors.New("down") }
func (failingStore) Set(context.Context, string, []byte, time.Duration) error {
	return errors.New("down")
}
func (failingStore) Delete(context.Context, string) error { return errors.New("down") }
func (failingStore) Clear(context.Context) error          { return errors.New("down") }

func TestFeedPageKey(t *testing.T) {
	if got := FeedPageKey("u1", 3); got != "feed:u1:page_3" {
		t.Fatalf("FeedPageKey = %q", got)
	}
}

func TestOnCounterChanged_PrefixEviction(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	_ = m.Set(ctx, FeedPageKey("u1", 1), []byte("a"), 0)
	_ = m.Set(ctx, FeedPageKey("u1", 2), []byte("b"), 0)
	_ = m.Set(ctx, FeedPageKey("u2", 1), []byte("c"), 0)

	inv := &FeedInvalidator{Store: m}
	inv.OnCounterChanged(ctx, "u1")

	if _, err := m.Get(ctx, FeedPageKey("u1", 1)); err != ErrMiss {
		t.Fatalf("u1 page 1 should be evicted")
	}
	if _, err := m.Get(ctx, FeedPageKey("u1", 2)); err != ErrMiss {
		t.Fatalf("u1 page 2 should be evicted")
	}
	if _, err := m.Get(ctx, FeedPageKey("u2", 1)); err != nil {
		t.Fatalf("u2 pages must survive a u1 invalidation: %v", err)
	}
}

func TestOnCounterChanged_ClearFallback(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	_ = m.Set(ctx, FeedPageKey("u1", 1), []byte("a"), 0)
	_ = m.Set(ctx, FeedPageKey("u2", 1), []byte("c"), 0)

	// Store without DeletePrefix: the whole cache is cleared instead.
	inv := &FeedInvalidator{Store: plainStore{m: m}}
	inv.OnCounterChanged(ctx, "u1")

	if m.Len() != 0 {
		t.Fatalf("fallback must clear everything, Len = %d", m.Len())
	}
}

func TestOnCounterChanged_ErrorsSwallowed(t *testing.T) {
	inv := &FeedInvalidator{Store: failingStore{}}
	// Must not panic and must not propagate the error.
	inv.OnCounterChanged(context.Background(), "u1")

	var nilInv *FeedInvalidator
	nilInv.OnCounterChanged(context.Background(), "u1") // nil receiver is a no-op
}
