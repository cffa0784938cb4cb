package services

import (
	"context"
	"fmt"
	"testing"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-social-backend/internal/domain"
	"github.com/tbourn/go-social-backend/internal/repo"
)

// newTestDB opens a fresh in-memory SQLite database named after the test.
// The pool is pinned to one connection so concurrent transactions serialize
// at the driver instead of tripping shared-cache table locks.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(1)
	}
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seedUser(t *testing.T, db *gorm.DB, username string) *domain.User {
	t.Helper()
	u, err := repo.CreateUser(context.Background(), db, username, username+"@example.com", "")
	if err != nil {
		t.Fatalf("seed user %s: %v", username, err)
	}
	return u
}

func seedPost(t *testing.T, db *gorm.DB, userID, content string) *domain.Post {
	t.Helper()
	p, err := repo.CreatePost(context.Background(), db, userID, content, "")
	if err != nil {
		t.Fatalf("seed post: %v", err)
	}
	return p
}
