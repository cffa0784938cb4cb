// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Post model,
// including the atomic counter deltas used by the toggle and comment flows.
//
// Counter semantics: AdjustLikesCount and AdjustCommentsCount apply the delta
// as a storage-layer expression (likes_count = likes_count + ?), never a
// read-modify-write of a value held in application memory. They are intended
// to run inside the same transaction as the relation-row mutation so the
// counter and the rows can never diverge.
package repo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-social-backend/internal/domain"
)

// CreatePost inserts a new Post row authored by userID.
func CreatePost(ctx context.Context, db *gorm.DB, userID, content, hashtags string) (*domain.Post, error) {
	p := &domain.Post{
		ID:        uuid.NewString(),
		UserID:    userID,
		Content:   content,
		Hashtags:  hashtags,
		CreatedAt: time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(p).Error; err != nil {
		return nil, err
	}
	return p, nil
}

// GetPost fetches a post by ID, or ErrNotFound.
func GetPost(ctx context.Context, db *gorm.DB, id string) (*domain.Post, error) {
	var p domain.Post
	err := db.WithContext(ctx).Where("id = ?", id).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// CountPosts returns the total number of live posts.
func CountPosts(ctx context.Context, db *gorm.DB) (int64, error) {
	var total int64
	err := db.WithContext(ctx).Model(&domain.Post{}).Count(&total).Error
	return total, err
}

// ListPostsPage returns a page of posts ordered newest first.
func ListPostsPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.Post, error) {
	var out []domain.Post
	err := db.WithContext(ctx).
		Order("created_at DESC, id DESC").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// CountPostsByAuthors returns the number of posts authored by any of authorIDs.
func CountPostsByAuthors(ctx context.Context, db *gorm.DB, authorIDs []string) (int64, error) {
	if len(authorIDs) == 0 {
		return 0, nil
	}
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.Post{}).
		Where("user_id IN ?", authorIDs).
		Count(&total).Error
	return total, err
}

// ListPostsByAuthorsPage returns a page of posts by the given authors, newest
// first. Used for the following feed.
func ListPostsByAuthorsPage(ctx context.Context, db *gorm.DB, authorIDs []string, offset, limit int) ([]domain.Post, error) {
	if len(authorIDs) == 0 {
		return []domain.Post{}, nil
	}
	var out []domain.Post
	err := db.WithContext(ctx).
		Where("user_id IN ?", authorIDs).
		Order("created_at DESC, id DESC").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// UpdatePostContent rewrites content for the post identified by id, marking
// it edited. Returns ErrNotFound when no row was affected.
func UpdatePostContent(ctx context.Context, db *gorm.DB, id, content string) error {
	res := db.WithContext(ctx).
		Model(&domain.Post{}).
		Where("id = ?", id).
		Updates(map[string]any{"content": content, "edited": true})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeletePost soft-deletes a post. Returns ErrNotFound when no row was affected.
func DeletePost(ctx context.Context, db *gorm.DB, id string) error {
	res := db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Post{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// AdjustLikesCount applies an atomic delta to posts.likes_count. Must run on
// a transaction handle together with the Like row mutation it mirrors.
func AdjustLikesCount(ctx context.Context, db *gorm.DB, postID string, delta int) error {
	return db.WithContext(ctx).
		Model(&domain.Post{}).
		Where("id = ?", postID).
		UpdateColumn("likes_count", gorm.Expr("likes_count + ?", delta)).Error
}

// AdjustCommentsCount applies an atomic delta to posts.comments_count. Must
// run on a transaction handle together with the Comment row mutation.
func AdjustCommentsCount(ctx context.Context, db *gorm.DB, postID string, delta int) error {
	return db.WithContext(ctx).
		Model(&domain.Post{}).
		Where("id = ?", postID).
		UpdateColumn("comments_count", gorm.Expr("comments_count + ?", delta)).Error
}
