// Package domain defines the persistence models for users, posts, comments,
// likes, and follows. These types are mapped with GORM and form the core data
// layer of the social backend.
package domain

import (
	"time"

	"gorm.io/gorm"
)

// User represents a registered account. Follower, following, and post counts
// are computed on read (see repo.UserStats) rather than denormalized.
//
// Fields:
//   - ID: stable UUID primary key (char(36)).
//   - Username: unique handle; indexed for profile lookups.
//   - Email: unique contact address.
//   - Bio / Avatar: optional profile decoration.
//   - CreatedAt / UpdatedAt: timestamps managed by GORM.
//   - DeletedAt: soft deletion marker (retains row for audit/history).
type User struct {
	ID        string         `json:"id"         gorm:"type:char(36);primaryKey"`
	Username  string         `json:"username"   gorm:"type:varchar(64);not null;uniqueIndex:ux_users_username"`
	Email     string         `json:"email"      gorm:"type:varchar(255);not null;uniqueIndex:ux_users_email"`
	Bio       string         `json:"bio"        gorm:"type:varchar(500);not null;default:''"`
	Avatar    string         `json:"avatar"     gorm:"type:varchar(500);not null;default:''"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-"          gorm:"index"`
}

// TableName returns the database table name for User.
func (User) TableName() string { return "users" }

// Post represents a user-authored post. LikesCount and CommentsCount are
// denormalized aggregates maintained incrementally by the service layer; no
// code path outside the toggle/comment transactions may write them.
//
// Invariant: likes_count equals the number of live Like rows referencing the
// post, and comments_count the number of live Comment rows, at all times.
type Post struct {
	ID            string         `json:"id"             gorm:"type:char(36);primaryKey"`
	UserID        string         `json:"user_id"        gorm:"type:char(36);not null;index:idx_posts_user_timeline,priority:1"`
	Content       string         `json:"content"        gorm:"type:varchar(500);not null"`
	LikesCount    int64          `json:"likes_count"    gorm:"not null;default:0;index"`
	CommentsCount int64          `json:"comments_count" gorm:"not null;default:0"`
	Hashtags      string         `json:"-"              gorm:"type:text;not null;default:''"` // comma-joined, lowercase
	Edited        bool           `json:"edited"         gorm:"not null;default:false"`
	CreatedAt     time.Time      `json:"created_at"     gorm:"index:idx_posts_user_timeline,priority:2;index"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `json:"-"              gorm:"index"`

	// User is the author. Posts are cascade-deleted with their author.
	User User `json:"-" gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Post.
func (Post) TableName() string { return "posts" }

// Comment represents a reply on a post. Creating or deleting a comment
// adjusts the owning post's comments_count in the same transaction.
type Comment struct {
	ID        string         `json:"id"         gorm:"type:char(36);primaryKey"`
	PostID    string         `json:"post_id"    gorm:"type:char(36);not null;index:idx_comments_post,priority:1"`
	UserID    string         `json:"user_id"    gorm:"type:char(36);not null;index"`
	Content   string         `json:"content"    gorm:"type:varchar(500);not null"`
	CreatedAt time.Time      `json:"created_at" gorm:"index:idx_comments_post,priority:2"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-"          gorm:"index"`

	Post Post `json:"-" gorm:"foreignKey:PostID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Comment.
func (Comment) TableName() string { return "comments" }

// Like is the (user, post) relation row behind the like toggle. The unique
// index on the pair is the arbiter for concurrent toggles: the service always
// attempts the INSERT first and reacts to the constraint violation, never to a
// prior existence check.
//
// Likes are hard rows, not soft-deleted: a toggle either inserts or removes
// the row, so DeletedAt is deliberately absent.
type Like struct {
	ID        string    `json:"id"         gorm:"type:char(36);primaryKey"`
	UserID    string    `json:"user_id"    gorm:"type:char(36);not null;uniqueIndex:ux_likes_user_post,priority:1"`
	PostID    string    `json:"post_id"    gorm:"type:char(36);not null;uniqueIndex:ux_likes_user_post,priority:2;index"`
	CreatedAt time.Time `json:"created_at"`

	Post Post `json:"-" gorm:"foreignKey:PostID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Like.
func (Like) TableName() string { return "likes" }

// Follow is the (follower, following) relation row behind the follow toggle.
// Same unique-pair arbitration as Like; self-follows are rejected in the
// service layer before the edge is written and additionally by a CHECK
// constraint at the schema level.
type Follow struct {
	ID          string    `json:"id"           gorm:"type:char(36);primaryKey"`
	FollowerID  string    `json:"follower_id"  gorm:"type:char(36);not null;uniqueIndex:ux_follows_pair,priority:1;check:chk_no_self_follow,follower_id <> following_id"`
	FollowingID string    `json:"following_id" gorm:"type:char(36);not null;uniqueIndex:ux_follows_pair,priority:2;index"`
	CreatedAt   time.Time `json:"created_at"`

	Follower  User `json:"-" gorm:"foreignKey:FollowerID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Following User `json:"-" gorm:"foreignKey:FollowingID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Follow.
func (Follow) TableName() string { return "follows" }
