// Package cache provides the generic TTL key-value store used as the storage
// substrate for idempotency records and cached derived views (feed pages).
//
// The Store interface is deliberately narrow (get/set/delete with TTL) so the
// backing implementation can be swapped; PrefixDeleter is an optional
// extension for pattern-based eviction. The bundled Memory implementation is
// an in-process map with expiry, suitable for a single-process deployment.
package cache

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"
)

// ErrMiss is returned by Get when no live entry exists for the key.
var ErrMiss = errors.New("cache miss")

// Store is the minimal contract for a TTL-backed key-value cache.
//
// Consistency: implementations must guarantee that once Set returns, a
// subsequent Get for the same key observes the value (read-your-writes).
// An eventually consistent backend narrows the idempotency guarantee to a
// best-effort window; see the idempotency package.
type Store interface {
	// Get returns the value stored under key, or ErrMiss when absent/expired.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set stores value under key for ttl. A ttl <= 0 means no expiry.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Clear removes every entry. Used as the conservative eviction fallback.
	Clear(ctx context.Context) error
}

// PrefixDeleter is an optional Store extension for pattern-based eviction.
// Stores that cannot enumerate keys simply don't implement it and callers
// fall back to Clear.
type PrefixDeleter interface {
	// DeletePrefix removes every entry whose key starts with prefix and
	// returns the number of entries removed.
	DeletePrefix(ctx context.Context, prefix string) (int, error)
}

// Key joins parts into a namespaced cache key ("feed:u1:page_2").
func Key(parts ...string) string { return strings.Join(parts, ":") }

// entry is a stored value with its expiry deadline (zero = no expiry).
type entry struct {
	value     []byte
	expiresAt time.Time
}

// Memory is an in-process Store with per-entry TTLs and opportunistic
// garbage collection. It is safe for concurrent use.
//
// Expired entries are reaped lazily on Get and in bulk after a threshold of
// writes, so memory stays bounded without a background goroutine.
type Memory struct {
	mu      sync.Mutex
	entries map[string]entry
	writes  uint64

	// now is a seam for tests; defaults to time.Now.
	now func() time.Time
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

// Get implements Store. Expired entries are removed on access.
func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok {
		return nil, ErrMiss
	}
	if !e.expiresAt.IsZero() && !m.now().Before(e.expiresAt) {
		delete(m.entries, key)
		return nil, ErrMiss
	}
	// Copy so callers cannot mutate the stored slice.
	out := make([]byte, len(e.value))
	copy(out, e.value)
	return out, nil
}

// Set implements Store.
func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	v := make([]byte, len(value))
	copy(v, value)

	var deadline time.Time
	if ttl > 0 {
		deadline = m.now().Add(ttl)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// Opportunistic reap of expired entries after a batch of writes.
	m.writes++
	if m.writes >= 1000 {
		now := m.now()
		for k, e := range m.entries {
			if !e.expiresAt.IsZero() && !now.Before(e.expiresAt) {
				delete(m.entries, k)
			}
		}
		m.writes = 0
	}

	m.entries[key] = entry{value: v, expiresAt: deadline}
	return nil
}

// Delete implements Store.
func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	return nil
}

// Clear implements Store.
func (m *Memory) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = make(map[string]entry)
	return nil
}

// DeletePrefix implements PrefixDeleter.
func (m *Memory) DeletePrefix(_ context.Context, prefix string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for k := range m.entries {
		if strings.HasPrefix(k, prefix) {
			delete(m.entries, k)
			n++
		}
	}
	return n, nil
}

// Len reports the number of live and expired-but-unreaped entries. Test helper.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
