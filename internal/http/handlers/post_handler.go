// Post HTTP handlers.
//
// This file exposes REST endpoints for post resources:
//   - POST   /posts           (create)
//   - GET    /posts           (global timeline, paginated, ETag support)
//   - GET    /posts/{id}      (fetch)
//   - PATCH  /posts/{id}      (owner-only edit)
//   - DELETE /posts/{id}      (owner-only delete)
//   - POST   /posts/{id}/like (toggle)
//   - GET    /feed            (posts from followed users, cached)
//
// Handlers are transport-thin: they validate input, call application services,
// and translate results into HTTP responses (including conditional responses).
package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-social-backend/internal/domain"
	"github.com/tbourn/go-social-backend/internal/repo"
	"github.com/tbourn/go-social-backend/internal/services"
)

//
// DTOs
//

// CreatePostRequest is the JSON payload for creating a post.
type CreatePostRequest struct {
	// Content is the post body (1-500 chars after normalization).
	Content string `json:"content" binding:"required" example:"Shipped the new feed today."`
	// Hashtags optionally tags the post; '#' prefixes are stripped.
	Hashtags []string `json:"hashtags" example:"golang,backend"`
}

// UpdatePostRequest is the JSON payload for editing a post.
type UpdatePostRequest struct {
	Content string `json:"content" binding:"required" example:"Shipped the new feed today (for real this time)."`
}

// ListPostsResponse wraps a page of posts and pagination information.
type ListPostsResponse struct {
	Posts      []domain.Post `json:"posts"`
	Pagination Pagination    `json:"pagination"`
}

//
// Handlers
//

// CreatePost godoc
// @ID          createPost
// @Summary     Create a new post
// @Description Creates a post for the current user. Safe to retry with X-Idempotency-Key.
// @Tags        Posts
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID          header  string  false "User ID (demo header)"                example(user123)
// @Param       X-Idempotency-Key  header  string  false "Idempotency token for safe retries"   example(create-post-42)
// @Param       body               body    handlers.CreatePostRequest  true  "Post payload"
//
// @Success     201  {object}  domain.Post
// @Failure     400  {object}  handlers.ErrorResponse  "Validation error"
// @Failure     409  {object}  handlers.ErrorResponse  "Idempotency conflict"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /posts [post]
func (h *Handlers) CreatePost(c *gin.Context) {
	var req CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body", nil)
		return
	}

	p, err := h.postSvc.Create(c.Request.Context(), userID(c), req.Content, req.Hashtags)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusCreated, p)
}

// ListPosts godoc
// @ID          listPosts
// @Summary     List posts (paginated)
// @Description Returns a page of the global timeline, newest first. Supports weak ETag via If-None-Match and may return 304.
// @Tags        Posts
// @Produce     json
//
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"  example(W/\"abc123\")
// @Param       page           query   int     false "Page number"                  minimum(1) default(1)
// @Param       page_size      query   int     false "Items per page"               minimum(1) maximum(100) default(20)
//
// @Success     200  {object} handlers.ListPostsResponse
// @Header      200  {string} ETag  "Weak ETag for current result"
// @Success     304  {string} string "Not Modified"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /posts [get]
func (h *Handlers) ListPosts(c *gin.Context) {
	ctx := c.Request.Context()
	page, pageSize := clampPagination(c)

	// ETag pre-check (best effort).
	var db *gorm.DB
	if svc, isConcrete := h.postSvc.(*services.PostService); isConcrete {
		db = svc.DB
	}
	if db != nil {
		count, maxTS, err := repo.PostsStats(ctx, db)
		if err == nil {
			var ts int64
			if maxTS != nil {
				ts = maxTS.Unix()
			}
			etag := fmt.Sprintf(`W/"posts:%d:%d"`, count, ts)
			c.Header("ETag", etag)
			if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
				c.Status(http.StatusNotModified)
				return
			}
		}
	}

	items, total, err := h.postSvc.ListPage(ctx, page, pageSize)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, ListPostsResponse{
		Posts:      items,
		Pagination: newPagination(page, pageSize, total),
	})
}

// GetPost godoc
// @ID          getPost
// @Summary     Get a post
// @Tags        Posts
// @Produce     json
//
// @Param       id  path  string  true  "Post ID (UUID)"  format(uuid)
//
// @Success     200  {object}  domain.Post
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Post not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /posts/{id} [get]
func (h *Handlers) GetPost(c *gin.Context) {
	postID := c.Param("id")
	if _, err := uuid.Parse(postID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "post id must be a UUID", nil)
		return
	}

	p, err := h.postSvc.Get(c.Request.Context(), postID)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, p)
}

// UpdatePost godoc
// @ID          updatePost
// @Summary     Edit a post
// @Description Rewrites the post content. Only the author may edit; the post is flagged edited.
// @Tags        Posts
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID          header  string  false "User ID (demo header)"  example(user123)
// @Param       X-Idempotency-Key  header  string  false "Idempotency token"      example(edit-post-42)
// @Param       id                 path    string  true  "Post ID (UUID)"         format(uuid)
// @Param       body               body    handlers.UpdatePostRequest  true  "New content"
//
// @Success     200  {object}  domain.Post
// @Failure     400  {object}  handlers.ErrorResponse  "Validation error"
// @Failure     403  {object}  handlers.ErrorResponse  "Not the author"
// @Failure     404  {object}  handlers.ErrorResponse  "Post not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /posts/{id} [patch]
func (h *Handlers) UpdatePost(c *gin.Context) {
	postID := c.Param("id")
	if _, err := uuid.Parse(postID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "post id must be a UUID", nil)
		return
	}

	var req UpdatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body", nil)
		return
	}

	p, err := h.postSvc.Update(c.Request.Context(), userID(c), postID, req.Content)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, p)
}

// DeletePost godoc
// @ID          deletePost
// @Summary     Delete a post
// @Description Removes a post. Only the author may delete.
// @Tags        Posts
// @Produce     json
//
// @Param       X-User-ID          header  string  false "User ID (demo header)"  example(user123)
// @Param       X-Idempotency-Key  header  string  false "Idempotency token"      example(delete-post-42)
// @Param       id                 path    string  true  "Post ID (UUID)"         format(uuid)
//
// @Success     204  {string}  string  "No Content"
// @Failure     403  {object}  handlers.ErrorResponse  "Not the author"
// @Failure     404  {object}  handlers.ErrorResponse  "Post not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /posts/{id} [delete]
func (h *Handlers) DeletePost(c *gin.Context) {
	postID := c.Param("id")
	if _, err := uuid.Parse(postID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "post id must be a UUID", nil)
		return
	}

	if err := h.postSvc.Delete(c.Request.Context(), userID(c), postID); err != nil {
		failErr(c, err)
		return
	}
	noContent(c)
}

// ToggleLike godoc
// @ID          toggleLike
// @Summary     Like or unlike a post
// @Description Flips the caller's like. Returns the resulting state and the post's updated like count.
// @Tags        Posts
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       id         path    string  true  "Post ID (UUID)"         format(uuid)
//
// @Success     200  {object}  handlers.ToggleResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Post not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /posts/{id}/like [post]
func (h *Handlers) ToggleLike(c *gin.Context) {
	postID := c.Param("id")
	if _, err := uuid.Parse(postID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "post id must be a UUID", nil)
		return
	}

	active, count, err := h.postSvc.ToggleLike(c.Request.Context(), userID(c), postID)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, ToggleResponse{Active: active, Count: count})
}

// Feed godoc
// @ID          feed
// @Summary     Following feed (paginated)
// @Description Returns posts authored by users the caller follows, newest first. Pages are cached with a short TTL.
// @Tags        Posts
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       page       query   int     false "Page number"            minimum(1) default(1)
// @Param       page_size  query   int     false "Items per page"         minimum(1) maximum(100) default(20)
//
// @Success     200  {object}  handlers.ListPostsResponse
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /feed [get]
func (h *Handlers) Feed(c *gin.Context) {
	page, pageSize := clampPagination(c)
	items, total, err := h.postSvc.FollowingFeed(c.Request.Context(), userID(c), page, pageSize)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, ListPostsResponse{
		Posts:      items,
		Pagination: newPagination(page, pageSize, total),
	})
}
