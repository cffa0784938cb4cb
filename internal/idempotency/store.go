// Record store for idempotent responses.
//
// Records live in the generic cache substrate under a namespaced key derived
// from the client token. A record is written once, after the first successful
// execution, and is never mutated; TTL expiry is the only delete path. The
// guarantee is therefore best-effort within the record's lifetime, not
// permanent.
//
// Every store call runs under a bounded timeout so an unreachable backend
// degrades the caller to "no idempotency" instead of stalling the request.
package idempotency

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/tbourn/go-social-backend/internal/cache"
)

// Namespace prefixes every record key in the backing cache.
const Namespace = "idempotency"

// Sentinel errors returned by Store.
var (
	// ErrNoRecord indicates no live record exists for the token.
	ErrNoRecord = errors.New("no idempotency record")

	// ErrStoreUnavailable indicates the backing cache failed or timed out.
	// Callers must treat this as "proceed without idempotency guarantee",
	// never as a failure of the user-visible request.
	ErrStoreUnavailable = errors.New("idempotency store unavailable")
)

// Record is the captured outcome of the first execution of a mutation,
// paired with the fingerprint of the request that produced it.
type Record struct {
	Fingerprint string          `json:"fingerprint"`
	Status      int             `json:"status"`
	Payload     json.RawMessage `json:"payload"`
	StoredAt    time.Time       `json:"stored_at"`
}

// Store persists idempotency records in a TTL cache. The zero value is not
// usable; construct with NewStore.
type Store struct {
	cache   cache.Store
	ttl     time.Duration
	timeout time.Duration
}

// NewStore builds a Store over the given cache. ttl bounds record lifetime
// (<= 0 defaults to 24h); timeout bounds individual cache calls (<= 0
// defaults to 500ms).
func NewStore(c cache.Store, ttl, timeout time.Duration) *Store {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	if timeout <= 0 {
		timeout = 500 * time.Millisecond
	}
	return &Store{cache: c, ttl: ttl, timeout: timeout}
}

// key derives the namespaced cache key for a token.
func key(token string) string { return cache.Key(Namespace, token) }

// Get returns the record stored for token, ErrNoRecord when absent, or
// ErrStoreUnavailable when the backend failed or timed out.
func (s *Store) Get(ctx context.Context, token string) (*Record, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	raw, err := s.cache.Get(ctx, key(token))
	if errors.Is(err, cache.ErrMiss) {
		return nil, ErrNoRecord
	}
	if err != nil {
		return nil, ErrStoreUnavailable
	}
	var rec Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		// A corrupt record cannot be replayed; treat as absent so the
		// request executes fresh.
		return nil, ErrNoRecord
	}
	return &rec, nil
}

// Put stores rec under token with the configured TTL. There is no update
// path: the gateway only calls Put after a miss, so an existing record is
// never silently overwritten.
func (s *Store) Put(ctx context.Context, token string, rec Record) error {
	if rec.StoredAt.IsZero() {
		rec.StoredAt = time.Now().UTC()
	}
	raw, err := json.Marshal(rec)
	if err != nil {
		return ErrStoreUnavailable
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.cache.Set(ctx, key(token), raw, s.ttl); err != nil {
		return ErrStoreUnavailable
	}
	return nil
}
