// Handler wiring for the public API.
//
// Handlers are transport-thin: they validate input, call application services
// through narrow interfaces, and translate results into HTTP responses. All
// business rules (ownership, toggles, counters) live in the services package.
package handlers

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-social-backend/internal/domain"
	"github.com/tbourn/go-social-backend/internal/services"
	"github.com/tbourn/go-social-backend/internal/utils"
)

//
// Service contracts (context-aware)
//

// UserService defines account and profile operations consumed by HTTP
// handlers. Implementations must be safe for concurrent use and honor the
// provided context.
type UserService interface {
	// Register creates an account and returns it.
	Register(ctx context.Context, username, email, bio string) (*domain.User, error)
	// ProfileByUsername returns a user plus read-time counts.
	ProfileByUsername(ctx context.Context, username string) (*services.Profile, error)
	// UpdateProfile rewrites bio/avatar; only the owner may update.
	UpdateProfile(ctx context.Context, callerID, username, bio, avatar string) error
}

// PostService defines the post lifecycle, the like toggle, and the feed.
type PostService interface {
	Create(ctx context.Context, userID, content string, hashtags []string) (*domain.Post, error)
	Get(ctx context.Context, postID string) (*domain.Post, error)
	ListPage(ctx context.Context, page, pageSize int) ([]domain.Post, int64, error)
	Update(ctx context.Context, callerID, postID, content string) (*domain.Post, error)
	Delete(ctx context.Context, callerID, postID string) error
	// ToggleLike flips the caller's like and returns the resulting state and
	// the post's updated like count.
	ToggleLike(ctx context.Context, userID, postID string) (bool, int64, error)
	// FollowingFeed returns a page of posts from followed users.
	FollowingFeed(ctx context.Context, userID string, page, pageSize int) ([]domain.Post, int64, error)
}

// CommentService defines comment writes and listings.
type CommentService interface {
	Create(ctx context.Context, userID, postID, content string) (*domain.Comment, error)
	Delete(ctx context.Context, callerID, commentID string) error
	ListPage(ctx context.Context, postID string, page, pageSize int) ([]domain.Comment, int64, error)
}

// FollowService defines the follow toggle and relation listings.
type FollowService interface {
	// Toggle flips the caller's follow edge and returns the resulting state
	// and the target's updated follower count.
	Toggle(ctx context.Context, followerID, followingUsername string) (bool, int64, error)
	FollowersPage(ctx context.Context, userID string, page, pageSize int) ([]domain.User, int64, error)
	FollowingPage(ctx context.Context, userID string, page, pageSize int) ([]domain.User, int64, error)
}

//
// Handler wiring
//

// Handlers groups the HTTP endpoints for users, posts, comments, and follows.
type Handlers struct {
	userSvc    UserService
	postSvc    PostService
	commentSvc CommentService
	followSvc  FollowService
}

// New constructs a Handlers instance bound to the given services.
func New(userSvc UserService, postSvc PostService, commentSvc CommentService, followSvc FollowService) *Handlers {
	return &Handlers{userSvc: userSvc, postSvc: postSvc, commentSvc: commentSvc, followSvc: followSvc}
}

// userID extracts the authenticated user id from Gin context (set by upstream
// middleware). If absent, it falls back to "X-User-ID" header (tests use it),
// and finally to "demo-user". It never touches c.Request if it's nil.
func userID(c *gin.Context) string {
	if v, ok := c.Get("userID"); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	if c != nil && c.Request != nil {
		if h := strings.TrimSpace(c.GetHeader("X-User-ID")); h != "" {
			return h
		}
	}
	return "demo-user"
}

//
// Shared DTOs
//

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// ToggleResponse is the body returned by the like and follow toggles.
type ToggleResponse struct {
	// Active reports the state after this toggle.
	Active bool `json:"active"`
	// Count is the updated counter value (likes or followers).
	Count int64 `json:"count"`
}

// newPagination derives the metadata block for one result page.
func newPagination(page, pageSize int, total int64) Pagination {
	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	return Pagination{
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
	}
}

// clampPagination parses and bounds page and page_size query params to sane
// defaults and limits, returning (page, pageSize).
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPage     = 1
		defaultPageSize = 20
		maxPageSize     = 100
	)
	page = utils.AtoiDefault(c.Query("page"), defaultPage)
	if page < 1 {
		page = 1
	}
	pageSize = utils.AtoiDefault(c.Query("page_size"), defaultPageSize)
	if pageSize < 1 {
		pageSize = 1
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return
}
