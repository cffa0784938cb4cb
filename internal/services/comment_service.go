// Package services – CommentService
//
// Comment writes move the post's denormalized comments_count. The row insert
// or delete and the counter delta always share one transaction, so the
// counter stays equal to the live comment count.
package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-social-backend/internal/cache"
	"github.com/tbourn/go-social-backend/internal/domain"
	"github.com/tbourn/go-social-backend/internal/repo"
)

// CommentService implements comment writes and listings.
type CommentService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB

	// Invalidator evicts the actor's cached feed pages after counter moves.
	Invalidator *cache.FeedInvalidator

	// MaxContentRunes caps comment bodies by rune length. <= 0 means 500.
	MaxContentRunes int
}

// Create validates and persists a comment on postID and increments the
// post's comment counter in the same transaction.
func (s *CommentService) Create(ctx context.Context, userID, postID, content string) (*domain.Comment, error) {
	tr := otel.Tracer("services/CommentService")
	ctx, span := tr.Start(ctx, "Create",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.String("post.id", postID),
		),
	)
	defer span.End()

	ps := &PostService{MaxContentRunes: s.MaxContentRunes}
	content, err := ps.normalizeContent(content)
	if err != nil {
		return nil, err
	}

	var c *domain.Comment
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, gerr := repo.GetPost(ctx, tx, postID); gerr != nil {
			if errors.Is(gerr, repo.ErrNotFound) {
				return ErrPostNotFound
			}
			return gerr
		}
		var cerr error
		c, cerr = repo.CreateComment(ctx, tx, postID, userID, content)
		if cerr != nil {
			return cerr
		}
		return repo.AdjustCommentsCount(ctx, tx, postID, +1)
	})
	if err != nil {
		return nil, err
	}

	s.Invalidator.OnCounterChanged(ctx, userID)
	return c, nil
}

// Delete removes a comment and decrements the post's comment counter in the
// same transaction. Either the comment author or the post author may delete.
func (s *CommentService) Delete(ctx context.Context, callerID, commentID string) error {
	tr := otel.Tracer("services/CommentService")
	ctx, span := tr.Start(ctx, "Delete",
		trace.WithAttributes(attribute.String("comment.id", commentID)),
	)
	defer span.End()

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		c, gerr := repo.GetComment(ctx, tx, commentID)
		if errors.Is(gerr, repo.ErrNotFound) {
			return ErrCommentNotFound
		}
		if gerr != nil {
			return gerr
		}
		if c.UserID != callerID {
			p, perr := repo.GetPost(ctx, tx, c.PostID)
			if perr != nil {
				return perr
			}
			if p.UserID != callerID {
				return ErrNotOwner
			}
		}
		if derr := repo.DeleteComment(ctx, tx, commentID); derr != nil {
			return derr
		}
		return repo.AdjustCommentsCount(ctx, tx, c.PostID, -1)
	})
	if err != nil {
		return err
	}

	s.Invalidator.OnCounterChanged(ctx, callerID)
	return nil
}

// ListPage returns a page of comments on postID, newest first, plus the
// total count. Returns ErrPostNotFound for an unknown post.
func (s *CommentService) ListPage(ctx context.Context, postID string, page, pageSize int) ([]domain.Comment, int64, error) {
	tr := otel.Tracer("services/CommentService")
	ctx, span := tr.Start(ctx, "ListPage",
		trace.WithAttributes(attribute.String("post.id", postID)),
	)
	defer span.End()

	if _, err := repo.GetPost(ctx, s.DB, postID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, 0, ErrPostNotFound
		}
		return nil, 0, err
	}

	page, pageSize = clampPage(page, pageSize)
	total, err := repo.CountComments(ctx, s.DB, postID)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Comment{}, 0, nil
	}
	items, err := repo.ListCommentsPage(ctx, s.DB, postID, (page-1)*pageSize, pageSize)
	return items, total, err
}
