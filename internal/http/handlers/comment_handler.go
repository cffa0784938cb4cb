// Comment HTTP handlers.
//
//   - POST   /posts/{id}/comments  (create; moves comments_count atomically)
//   - GET    /posts/{id}/comments  (paginated, ETag support)
//   - DELETE /comments/{id}        (comment or post author only)
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

// CreateCommentRequest is the JSON payload for commenting on a post.
type CreateCommentRequest struct {
	Content string `json:"content" binding:"required" example:"Nice one."`
}

// ListCommentsResponse wraps a page of comments and pagination information.
type ListCommentsResponse struct {
	Comments   []domain.Comment `json:"comments"`
	Pagination Pagination       `json:"pagination"`
}

// CreateComment godoc
// @ID          createComment
// @Summary     Comment on a post
// @Description Creates a comment and increments the post's comment counter in the same transaction.
// @Tags        Comments
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID          header  string  false "User ID (demo header)"  example(user123)
// @Param       X-Idempotency-Key  header  string  false "Idempotency token"      example(comment-42)
// @Param       id                 path    string  true  "Post ID (UUID)"         format(uuid)
// @Param       body               body    handlers.CreateCommentRequest  true  "Comment payload"
//
// @Success     201  {object}  domain.Comment
// @Failure     400  {object}  handlers.ErrorResponse  "Validation error"
// @Failure     404  {object}  handlers.ErrorResponse  "Post not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /posts/{id}/comments [post]
func (h *Handlers) CreateComment(c *gin.Context) {
	postID := c.Param("id")
	if _, err := uuid.Parse(postID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "post id must be a UUID", nil)
		return
	}

	var req CreateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body", nil)
		return
	}

	cm, err := h.commentSvc.Create(c.Request.Context(), userID(c), postID, req.Content)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusCreated, cm)
}

// ListComments godoc
// @ID          listComments
// @Summary     List comments on a post (paginated)
// @Description Returns a page of comments, newest first. Supports weak ETag via If-None-Match and may return 304.
// @Tags        Comments
// @Produce     json
//
// @Param       id             path    string  true  "Post ID (UUID)"              format(uuid)
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"  example(W/\"abc123\")
// @Param       page           query   int     false "Page number"                 minimum(1) default(1)
// @Param       page_size      query   int     false "Items per page"              minimum(1) maximum(100) default(20)
//
// @Success     200  {object}  handlers.ListCommentsResponse
// @Header      200  {string}  ETag  "Weak ETag for current result"
// @Success     304  {string}  string  "Not Modified"
// @Failure     404  {object}  handlers.ErrorResponse  "Post not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /posts/{id}/comments [get]
func (h *Handlers) ListComments(c *gin.Context) {
	ctx := c.Request.Context()
	postID := c.Param("id")
	if _, err := uuid.Parse(postID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "post id must be a UUID", nil)
		return
	}
	page, pageSize := clampPagination(c)

	// ETag pre-check (best effort).
	var db *gorm.DB
	if svc, isConcrete := h.commentSvc.(*services.CommentService); isConcrete {
		db = svc.DB
	}
	if db != nil {
		count, maxTS, err := repo.CommentsStats(ctx, db, postID)
		if err == nil {
			var ts int64
			if maxTS != nil {
				ts = maxTS.Unix()
			}
			etag := fmt.Sprintf(`W/"comments:%s:%d:%d"`, postID, count, ts)
			c.Header("ETag", etag)
			if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
				c.Status(http.StatusNotModified)
				return
			}
		}
	}

	items, total, err := h.commentSvc.ListPage(ctx, postID, page, pageSize)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, ListCommentsResponse{
		Comments:   items,
		Pagination: newPagination(page, pageSize, total),
	})
}

// DeleteComment godoc
// @ID          deleteComment
// @Summary     Delete a comment
// @Description Removes a comment and decrements the post's comment counter in the same transaction. The comment author or the post author may delete.
// @Tags        Comments
// @Produce     json
//
// @Param       X-User-ID          header  string  false "User ID (demo header)"  example(user123)
// @Param       X-Idempotency-Key  header  string  false "Idempotency token"      example(del-comment-42)
// @Param       id                 path    string  true  "Comment ID (UUID)"      format(uuid)
//
// @Success     204  {string}  string  "No Content"
// @Failure     403  {object}  handlers.ErrorResponse  "Not allowed"
// @Failure     404  {object}  handlers.ErrorResponse  "Comment not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /comments/{id} [delete]
func (h *Handlers) DeleteComment(c *gin.Context) {
	commentID := c.Param("id")
	if _, err := uuid.Parse(commentID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "comment id must be a UUID", nil)
		return
	}

	if err := h.commentSvc.Delete(c.Request.Context(), userID(c), commentID); err != nil {
		failErr(c, err)
		return
	}
	noContent(c)
}
