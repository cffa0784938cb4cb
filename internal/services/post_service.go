// Package services – PostService
//
// This file implements PostService, the application-level component that owns
// the post lifecycle and the like toggle with its denormalized counter.
//
// Toggle semantics: the like row INSERT is attempted first and the unique
// (user_id, post_id) index arbitrates. A violation means "already liked", so
// the row is deleted and the counter decremented. Row mutation and counter
// delta always run in one transaction; the delta is a storage-layer
// expression, never a read-modify-write in application memory. The counter
// therefore always equals the live row count, under any interleaving of
// concurrent toggles.
//
// The following feed is served from the TTL cache; counter-affecting events
// route through the FeedInvalidator so stale pages are evicted eagerly.
//
// Observability: all public methods are OpenTelemetry-instrumented.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"golang.org/x/text/unicode/norm"

	"github.com/tbourn/go-social-backend/internal/cache"
	"github.com/tbourn/go-social-backend/internal/domain"
	"github.com/tbourn/go-social-backend/internal/repo"
)

// PostService coordinates post persistence, the like toggle, and the cached
// following feed.
type PostService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB

	// Cache holds serialized feed pages; may be nil to disable feed caching.
	Cache cache.Store
	// Invalidator evicts cached feed pages on counter-affecting events.
	Invalidator *cache.FeedInvalidator
	// FeedTTL bounds the staleness of a cached feed page. <= 0 means 60s.
	FeedTTL time.Duration

	// MaxContentRunes caps post bodies by rune length. <= 0 means 500.
	MaxContentRunes int
}

// feedPage is the cached representation of one page of the following feed.
type feedPage struct {
	Posts []domain.Post `json:"posts"`
	Total int64         `json:"total"`
}

// Create validates and persists a new post authored by userID. Hashtags are
// lowercased, deduplicated, and stored alongside the post.
func (s *PostService) Create(ctx context.Context, userID, content string, hashtags []string) (*domain.Post, error) {
	tr := otel.Tracer("services/PostService")
	ctx, span := tr.Start(ctx, "Create",
		trace.WithAttributes(attribute.String("user.id", userID)),
	)
	defer span.End()

	content, err := s.normalizeContent(content)
	if err != nil {
		return nil, err
	}
	return repo.CreatePost(ctx, s.DB, userID, content, normalizeHashtags(hashtags))
}

// Get returns a post by ID, or ErrPostNotFound.
func (s *PostService) Get(ctx context.Context, postID string) (*domain.Post, error) {
	p, err := repo.GetPost(ctx, s.DB, postID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrPostNotFound
	}
	return p, err
}

// ListPage returns a page of the global timeline, newest first, plus the
// total count.
func (s *PostService) ListPage(ctx context.Context, page, pageSize int) ([]domain.Post, int64, error) {
	tr := otel.Tracer("services/PostService")
	ctx, span := tr.Start(ctx, "ListPage",
		trace.WithAttributes(attribute.Int("page", page), attribute.Int("page_size", pageSize)),
	)
	defer span.End()

	page, pageSize = clampPage(page, pageSize)
	total, err := repo.CountPosts(ctx, s.DB)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Post{}, 0, nil
	}
	items, err := repo.ListPostsPage(ctx, s.DB, (page-1)*pageSize, pageSize)
	return items, total, err
}

// Update rewrites a post's content. Only the author may update, and the post
// is marked edited.
func (s *PostService) Update(ctx context.Context, callerID, postID, content string) (*domain.Post, error) {
	tr := otel.Tracer("services/PostService")
	ctx, span := tr.Start(ctx, "Update",
		trace.WithAttributes(attribute.String("post.id", postID)),
	)
	defer span.End()

	content, err := s.normalizeContent(content)
	if err != nil {
		return nil, err
	}

	p, err := s.Get(ctx, postID)
	if err != nil {
		return nil, err
	}
	if p.UserID != callerID {
		return nil, ErrNotOwner
	}
	if content != p.Content {
		if err := repo.UpdatePostContent(ctx, s.DB, postID, content); err != nil {
			return nil, err
		}
		p.Content = content
		p.Edited = true
	}
	return p, nil
}

// Delete removes a post. Only the author may delete.
func (s *PostService) Delete(ctx context.Context, callerID, postID string) error {
	tr := otel.Tracer("services/PostService")
	ctx, span := tr.Start(ctx, "Delete",
		trace.WithAttributes(attribute.String("post.id", postID)),
	)
	defer span.End()

	p, err := s.Get(ctx, postID)
	if err != nil {
		return err
	}
	if p.UserID != callerID {
		return ErrNotOwner
	}
	return repo.DeletePost(ctx, s.DB, postID)
}

// ToggleLike flips userID's like on postID and returns the resulting state
// and the post's updated like count.
//
// Algorithm: INSERT the relation row first; the unique-pair index is the race
// arbiter. On success the counter is incremented; on a duplicate the row is
// deleted and the counter decremented. Both statements share one transaction,
// so a failure between them cannot leave the counter and the rows
// inconsistent. The returned count is re-read inside the same transaction.
func (s *PostService) ToggleLike(ctx context.Context, userID, postID string) (active bool, count int64, err error) {
	tr := otel.Tracer("services/PostService")
	ctx, span := tr.Start(ctx, "ToggleLike",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.String("post.id", postID),
		),
	)
	defer span.End()

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, gerr := repo.GetPost(ctx, tx, postID); gerr != nil {
			if errors.Is(gerr, repo.ErrNotFound) {
				return ErrPostNotFound
			}
			return gerr
		}

		switch cerr := repo.CreateLike(ctx, tx, userID, postID); {
		case cerr == nil:
			if aerr := repo.AdjustLikesCount(ctx, tx, postID, +1); aerr != nil {
				return aerr
			}
			active = true
		case errors.Is(cerr, repo.ErrDuplicate):
			// Row already existed: this toggle is an unlike.
			if derr := repo.DeleteLike(ctx, tx, userID, postID); derr != nil {
				return derr
			}
			if aerr := repo.AdjustLikesCount(ctx, tx, postID, -1); aerr != nil {
				return aerr
			}
			active = false
		default:
			return cerr
		}

		p, gerr := repo.GetPost(ctx, tx, postID)
		if gerr != nil {
			return gerr
		}
		count = p.LikesCount
		return nil
	})
	if err != nil {
		return false, 0, err
	}

	s.Invalidator.OnCounterChanged(ctx, userID)
	return active, count, nil
}

// FollowingFeed returns a page of posts authored by the users that userID
// follows, newest first. Pages are served from the cache when fresh and
// cached on miss with the configured TTL.
func (s *PostService) FollowingFeed(ctx context.Context, userID string, page, pageSize int) ([]domain.Post, int64, error) {
	tr := otel.Tracer("services/PostService")
	ctx, span := tr.Start(ctx, "FollowingFeed",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.Int("page", page),
		),
	)
	defer span.End()

	page, pageSize = clampPage(page, pageSize)

	key := cache.FeedPageKey(userID, page)
	if s.Cache != nil {
		if raw, err := s.Cache.Get(ctx, key); err == nil {
			var fp feedPage
			if err := json.Unmarshal(raw, &fp); err == nil {
				return fp.Posts, fp.Total, nil
			}
		}
	}

	authorIDs, err := repo.FollowingIDs(ctx, s.DB, userID)
	if err != nil {
		return nil, 0, err
	}
	total, err := repo.CountPostsByAuthors(ctx, s.DB, authorIDs)
	if err != nil {
		return nil, 0, err
	}
	items := []domain.Post{}
	if total > 0 {
		items, err = repo.ListPostsByAuthorsPage(ctx, s.DB, authorIDs, (page-1)*pageSize, pageSize)
		if err != nil {
			return nil, 0, err
		}
	}

	if s.Cache != nil {
		ttl := s.FeedTTL
		if ttl <= 0 {
			ttl = time.Minute
		}
		if raw, err := json.Marshal(feedPage{Posts: items, Total: total}); err == nil {
			// Best effort; a failed Set only costs a cache miss next time.
			_ = s.Cache.Set(ctx, key, raw, ttl)
		}
	}
	return items, total, nil
}

// normalizeContent NFC-normalizes and validates a post body.
func (s *PostService) normalizeContent(content string) (string, error) {
	content = strings.TrimSpace(norm.NFC.String(content))
	if content == "" {
		return "", ErrEmptyContent
	}
	max := s.MaxContentRunes
	if max <= 0 {
		max = 500
	}
	if utf8.RuneCountInString(content) > max {
		return "", ErrTooLong
	}
	return content, nil
}

// normalizeHashtags lowercases, strips leading '#', deduplicates, and joins.
func normalizeHashtags(tags []string) string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(t)), "#")
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return strings.Join(out, ",")
}

// clampPage applies defaults for invalid page/pageSize.
func clampPage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	return page, pageSize
}
