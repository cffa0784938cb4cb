// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the User model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations.
// They follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
//
// Error semantics:
//   - When a user is not found, functions return ErrNotFound.
//   - Unique violations on username/email surface as ErrDuplicate.
//   - On other DB errors the raw gorm error is propagated.
package repo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-social-backend/internal/domain"
)

// CreateUser inserts a new User row. The ID is a randomly generated UUID and
// CreatedAt is set to UTC. Username/email collisions map to ErrDuplicate.
func CreateUser(ctx context.Context, db *gorm.DB, username, email, bio string) (*domain.User, error) {
	u := &domain.User{
		ID:        uuid.NewString(),
		Username:  username,
		Email:     email,
		Bio:       bio,
		CreatedAt: time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(u).Error; err != nil {
		if IsDuplicate(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return u, nil
}

// GetUser fetches a user by ID, or ErrNotFound.
func GetUser(ctx context.Context, db *gorm.DB, id string) (*domain.User, error) {
	var u domain.User
	err := db.WithContext(ctx).Where("id = ?", id).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetUserByUsername fetches a user by handle, or ErrNotFound.
func GetUserByUsername(ctx context.Context, db *gorm.DB, username string) (*domain.User, error) {
	var u domain.User
	err := db.WithContext(ctx).Where("username = ?", username).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// UpdateUserProfile updates bio and avatar for the user identified by id.
// Returns ErrNotFound when no row was affected.
func UpdateUserProfile(ctx context.Context, db *gorm.DB, id, bio, avatar string) error {
	res := db.WithContext(ctx).
		Model(&domain.User{}).
		Where("id = ?", id).
		Updates(map[string]any{"bio": bio, "avatar": avatar})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// UserStats aggregates the read-time counts displayed on a profile:
// followers, following, and authored posts. These are computed per read
// rather than denormalized (only post counters are denormalized).
func UserStats(ctx context.Context, db *gorm.DB, userID string) (followers, following, posts int64, err error) {
	h := db.WithContext(ctx)
	if err = h.Model(&domain.Follow{}).Where("following_id = ?", userID).Count(&followers).Error; err != nil {
		return
	}
	if err = h.Model(&domain.Follow{}).Where("follower_id = ?", userID).Count(&following).Error; err != nil {
		return
	}
	err = h.Model(&domain.Post{}).Where("user_id = ?", userID).Count(&posts).Error
	return
}
