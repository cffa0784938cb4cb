// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Like
// relation behind the like toggle.
//
// CreateLike deliberately has no preceding existence check: the unique index
// on (user_id, post_id) is the arbiter under concurrency, and a violation is
// reported as ErrDuplicate for the service layer to react to.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-social-backend/internal/domain"
)

// CreateLike inserts a like row and returns ErrDuplicate on unique violation.
func CreateLike(ctx context.Context, db *gorm.DB, userID, postID string) error {
	l := &domain.Like{
		ID:        uuid.NewString(),
		UserID:    userID,
		PostID:    postID,
		CreatedAt: time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(l).Error; err != nil {
		if IsDuplicate(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

// DeleteLike removes the like row for (userID, postID). Returns ErrNotFound
// when no row was affected.
func DeleteLike(ctx context.Context, db *gorm.DB, userID, postID string) error {
	res := db.WithContext(ctx).
		Where("user_id = ? AND post_id = ?", userID, postID).
		Delete(&domain.Like{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// CountLikes returns the number of like rows referencing postID. Used by
// tests and consistency checks; the serving path reads the denormalized
// counter instead.
func CountLikes(ctx context.Context, db *gorm.DB, postID string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.Like{}).
		Where("post_id = ?", postID).
		Count(&total).Error
	return total, err
}

// LikedPostIDs returns which of postIDs the user has liked, as a set.
// Used to annotate list responses without an N+1 per post.
func LikedPostIDs(ctx context.Context, db *gorm.DB, userID string, postIDs []string) (map[string]struct{}, error) {
	out := make(map[string]struct{}, len(postIDs))
	if userID == "" || len(postIDs) == 0 {
		return out, nil
	}
	var ids []string
	err := db.WithContext(ctx).
		Model(&domain.Like{}).
		Where("user_id = ? AND post_id IN ?", userID, postIDs).
		Pluck("post_id", &ids).Error
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		out[id] = struct{}{}
	}
	return out, nil
}
