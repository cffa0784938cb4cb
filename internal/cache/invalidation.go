// Feed cache invalidation.
//
// Counter-affecting events (like toggles, follow toggles, comment writes)
// must evict any cached feed pages derived from the affected owner, otherwise
// stale counts would be served until the page TTL lapses. Eviction is
// prefix-based when the store supports it and degrades to a full-cache clear
// when it does not: cache efficiency is traded for correctness, never the
// other way around.
package cache

import (
	"context"

	"github.com/rs/zerolog/log"
)

// FeedPrefix namespaces cached feed pages: feed:<userID>:page_<n>.
const FeedPrefix = "feed"

// FeedPageKey returns the cache key for one page of a user's feed.
func FeedPageKey(userID string, page int) string {
	return Key(FeedPrefix, userID, "page_"+itoa(page))
}

// FeedInvalidator evicts cached derived views when counters change.
type FeedInvalidator struct {
	Store Store
}

// OnCounterChanged evicts every cached feed page belonging to ownerID.
//
// When the backing store does not implement PrefixDeleter the whole cache is
// cleared instead. Errors are logged and swallowed: invalidation failure must
// not fail the mutation that triggered it (the pages expire by TTL anyway).
func (f *FeedInvalidator) OnCounterChanged(ctx context.Context, ownerID string) {
	if f == nil || f.Store == nil {
		return
	}
	if pd, ok := f.Store.(PrefixDeleter); ok {
		if _, err := pd.DeletePrefix(ctx, Key(FeedPrefix, ownerID)+":"); err != nil {
			log.Warn().Err(err).Str("owner_id", ownerID).Msg("feed invalidation failed")
		}
		return
	}
	if err := f.Store.Clear(ctx); err != nil {
		log.Warn().Err(err).Str("owner_id", ownerID).Msg("feed cache clear failed")
	}
}

// itoa converts a non-negative int to its decimal string form.
func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	var b [20]byte
	pos := len(b)
	for i > 0 {
		pos--
		b[pos] = byte('0' + i%10)
		i /= 10
	}
	return string(b[pos:])
}
