// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Follow
// relation behind the follow toggle.
//
// Same create-first discipline as the like repository: the unique index on
// (follower_id, following_id) arbitrates concurrent toggles.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-social-backend/internal/domain"
)

// CreateFollow inserts a follow row and returns ErrDuplicate on unique violation.
func CreateFollow(ctx context.Context, db *gorm.DB, followerID, followingID string) error {
	f := &domain.Follow{
		ID:          uuid.NewString(),
		FollowerID:  followerID,
		FollowingID: followingID,
		CreatedAt:   time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(f).Error; err != nil {
		if IsDuplicate(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

// DeleteFollow removes the follow row for (followerID, followingID).
// Returns ErrNotFound when no row was affected.
func DeleteFollow(ctx context.Context, db *gorm.DB, followerID, followingID string) error {
	res := db.WithContext(ctx).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		Delete(&domain.Follow{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// CountFollowers returns how many users follow userID.
func CountFollowers(ctx context.Context, db *gorm.DB, userID string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.Follow{}).
		Where("following_id = ?", userID).
		Count(&total).Error
	return total, err
}

// IsFollowing reports whether followerID currently follows followingID.
func IsFollowing(ctx context.Context, db *gorm.DB, followerID, followingID string) (bool, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.Follow{}).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		Count(&total).Error
	return total > 0, err
}

// FollowingIDs returns the IDs of every user that followerID follows.
// Feeds are built from this set.
func FollowingIDs(ctx context.Context, db *gorm.DB, followerID string) ([]string, error) {
	var ids []string
	err := db.WithContext(ctx).
		Model(&domain.Follow{}).
		Where("follower_id = ?", followerID).
		Pluck("following_id", &ids).Error
	return ids, err
}

// ListFollowersPage returns a page of users following userID, most recent
// follow first.
func ListFollowersPage(ctx context.Context, db *gorm.DB, userID string, offset, limit int) ([]domain.User, error) {
	var out []domain.User
	err := db.WithContext(ctx).
		Model(&domain.User{}).
		Joins("JOIN follows ON follows.follower_id = users.id").
		Where("follows.following_id = ?", userID).
		Order("follows.created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// ListFollowingPage returns a page of users that userID follows, most recent
// follow first.
func ListFollowingPage(ctx context.Context, db *gorm.DB, userID string, offset, limit int) ([]domain.User, error) {
	var out []domain.User
	err := db.WithContext(ctx).
		Model(&domain.User{}).
		Joins("JOIN follows ON follows.following_id = users.id").
		Where("follows.follower_id = ?", userID).
		Order("follows.created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}
