package services

import (
	"context"
	"errors"
	"testing"

	"github.com/tbourn/go-social-backend/internal/repo"
)

func TestCommentCreate_MovesCounter(t *testing.T) {
	db := newTestDB(t)
	svc := &CommentService{DB: db}
	ctx := context.Background()
	author := seedUser(t, db, "author")
	commenter := seedUser(t, db, "commenter")
	p := seedPost(t, db, author.ID, "post")

	c, err := svc.Create(ctx, commenter.ID, p.ID, "  nice post  ")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if c.Content != "nice post" {
		t.Fatalf("content = %q", c.Content)
	}

	got, _ := repo.GetPost(ctx, db, p.ID)
	rows, _ := repo.CountComments(ctx, db, p.ID)
	if got.CommentsCount != 1 || rows != 1 {
		t.Fatalf("counter/rows = %d/%d, want 1/1", got.CommentsCount, rows)
	}
}

func TestCommentCreate_Validation(t *testing.T) {
	db := newTestDB(t)
	svc := &CommentService{DB: db}
	ctx := context.Background()
	u := seedUser(t, db, "user")
	p := seedPost(t, db, u.ID, "post")

	if _, err := svc.Create(ctx, u.ID, p.ID, "   "); !errors.Is(err, ErrEmptyContent) {
		t.Fatalf("blank: got %v, want ErrEmptyContent", err)
	}
	if _, err := svc.Create(ctx, u.ID, "no-such-post", "hello"); !errors.Is(err, ErrPostNotFound) {
		t.Fatalf("unknown post: got %v, want ErrPostNotFound", err)
	}
	// No counter moved and no orphan rows were left behind.
	got, _ := repo.GetPost(ctx, db, p.ID)
	if got.CommentsCount != 0 {
		t.Fatalf("counter moved on failed create: %d", got.CommentsCount)
	}
}

func TestCommentDelete_OwnerRules(t *testing.T) {
	db := newTestDB(t)
	svc := &CommentService{DB: db}
	ctx := context.Background()
	postAuthor := seedUser(t, db, "postauthor")
	commenter := seedUser(t, db, "commenter")
	stranger := seedUser(t, db, "stranger")
	p := seedPost(t, db, postAuthor.ID, "post")

	c1, err := svc.Create(ctx, commenter.ID, p.ID, "one")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	c2, err := svc.Create(ctx, commenter.ID, p.ID, "two")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := svc.Delete(ctx, stranger.ID, c1.ID); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("stranger delete: got %v, want ErrNotOwner", err)
	}
	// The comment author may delete their own comment.
	if err := svc.Delete(ctx, commenter.ID, c1.ID); err != nil {
		t.Fatalf("author delete: %v", err)
	}
	// The post author may moderate comments on their post.
	if err := svc.Delete(ctx, postAuthor.ID, c2.ID); err != nil {
		t.Fatalf("post-author delete: %v", err)
	}

	got, _ := repo.GetPost(ctx, db, p.ID)
	rows, _ := repo.CountComments(ctx, db, p.ID)
	if got.CommentsCount != 0 || rows != 0 {
		t.Fatalf("counter/rows = %d/%d, want 0/0", got.CommentsCount, rows)
	}

	if err := svc.Delete(ctx, commenter.ID, c1.ID); !errors.Is(err, ErrCommentNotFound) {
		t.Fatalf("second delete: got %v, want ErrCommentNotFound", err)
	}
}

func TestCommentListPage(t *testing.T) {
	db := newTestDB(t)
	svc := &CommentService{DB: db}
	ctx := context.Background()
	u := seedUser(t, db, "user")
	p := seedPost(t, db, u.ID, "post")

	if _, _, err := svc.ListPage(ctx, "no-such-post", 1, 20); !errors.Is(err, ErrPostNotFound) {
		t.Fatalf("unknown post: got %v, want ErrPostNotFound", err)
	}

	items, total, err := svc.ListPage(ctx, p.ID, 1, 20)
	if err != nil || total != 0 || len(items) != 0 {
		t.Fatalf("empty list = %d items, total %d, %v", len(items), total, err)
	}

	for i := 0; i < 3; i++ {
		if _, err := svc.Create(ctx, u.ID, p.ID, "comment"); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}
	items, total, err = svc.ListPage(ctx, p.ID, 1, 2)
	if err != nil || total != 3 || len(items) != 2 {
		t.Fatalf("page 1 = %d items, total %d, %v", len(items), total, err)
	}
}
