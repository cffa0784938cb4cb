// Package services – FollowService
//
// This file implements the follow toggle between users. Like the like toggle,
// it is create-first: the unique (follower_id, following_id) index arbitrates
// concurrent toggles, and a violation flips the operation into an unfollow.
// Self-follows are rejected before the edge is written (the table also
// carries a CHECK constraint as a backstop).
package services

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-social-backend/internal/cache"
	"github.com/tbourn/go-social-backend/internal/domain"
	"github.com/tbourn/go-social-backend/internal/repo"
)

// FollowService implements the follow/unfollow toggle and follower listings.
type FollowService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB

	// Invalidator evicts the actor's cached feed pages after a toggle, since
	// the feed's author set just changed.
	Invalidator *cache.FeedInvalidator
}

// Toggle flips followerID's follow edge towards the user behind
// followingUsername and returns the resulting state plus that user's updated
// follower count.
//
// The follower count is computed from the relation rows inside the same
// transaction as the row mutation, so the returned value reflects this
// toggle and every toggle committed before it.
func (s *FollowService) Toggle(ctx context.Context, followerID, followingUsername string) (active bool, count int64, err error) {
	tr := otel.Tracer("services/FollowService")
	ctx, span := tr.Start(ctx, "Toggle",
		trace.WithAttributes(
			attribute.String("follower.id", followerID),
			attribute.String("following.name", followingUsername),
		),
	)
	defer span.End()

	var followingID string
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		target, gerr := repo.GetUserByUsername(ctx, tx, strings.ToLower(strings.TrimSpace(followingUsername)))
		if errors.Is(gerr, repo.ErrNotFound) {
			return ErrUserNotFound
		}
		if gerr != nil {
			return gerr
		}
		followingID = target.ID
		if followerID == followingID {
			return ErrSelfFollow
		}

		switch cerr := repo.CreateFollow(ctx, tx, followerID, followingID); {
		case cerr == nil:
			active = true
		case errors.Is(cerr, repo.ErrDuplicate):
			// Edge already existed: this toggle is an unfollow.
			if derr := repo.DeleteFollow(ctx, tx, followerID, followingID); derr != nil {
				return derr
			}
			active = false
		default:
			return cerr
		}

		count, gerr = repo.CountFollowers(ctx, tx, followingID)
		return gerr
	})
	if err != nil {
		return false, 0, err
	}

	s.Invalidator.OnCounterChanged(ctx, followerID)
	return active, count, nil
}

// IsFollowing reports whether followerID currently follows followingID.
func (s *FollowService) IsFollowing(ctx context.Context, followerID, followingID string) (bool, error) {
	return repo.IsFollowing(ctx, s.DB, followerID, followingID)
}

// FollowersPage returns a page of users following userID plus the total.
func (s *FollowService) FollowersPage(ctx context.Context, userID string, page, pageSize int) ([]domain.User, int64, error) {
	tr := otel.Tracer("services/FollowService")
	ctx, span := tr.Start(ctx, "FollowersPage",
		trace.WithAttributes(attribute.String("user.id", userID)),
	)
	defer span.End()

	page, pageSize = clampPage(page, pageSize)
	total, err := repo.CountFollowers(ctx, s.DB, userID)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.User{}, 0, nil
	}
	items, err := repo.ListFollowersPage(ctx, s.DB, userID, (page-1)*pageSize, pageSize)
	return items, total, err
}

// FollowingPage returns a page of users that userID follows plus the total.
func (s *FollowService) FollowingPage(ctx context.Context, userID string, page, pageSize int) ([]domain.User, int64, error) {
	tr := otel.Tracer("services/FollowService")
	ctx, span := tr.Start(ctx, "FollowingPage",
		trace.WithAttributes(attribute.String("user.id", userID)),
	)
	defer span.End()

	page, pageSize = clampPage(page, pageSize)
	ids, err := repo.FollowingIDs(ctx, s.DB, userID)
	if err != nil {
		return nil, 0, err
	}
	if len(ids) == 0 {
		return []domain.User{}, 0, nil
	}
	items, err := repo.ListFollowingPage(ctx, s.DB, userID, (page-1)*pageSize, pageSize)
	return items, int64(len(ids)), err
}
