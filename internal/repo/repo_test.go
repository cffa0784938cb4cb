package repo

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-social-backend/internal/domain"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func mustUser(t *testing.T, db *gorm.DB, username string) *domain.User {
	t.Helper()
	u, err := CreateUser(context.Background(), db, username, username+"@example.com", "")
	if err != nil {
		t.Fatalf("CreateUser(%s): %v", username, err)
	}
	return u
}

func mustPost(t *testing.T, db *gorm.DB, userID, content string) *domain.Post {
	t.Helper()
	p, err := CreatePost(context.Background(), db, userID, content, "")
	if err != nil {
		t.Fatalf("CreatePost: %v", err)
	}
	return p
}

func TestCreateUser_DuplicateUsernameAndEmail(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	if _, err := CreateUser(ctx, db, "alice", "alice@example.com", ""); err != nil {
		t.Fatalf("first create: %v", err)
	}
	if _, err := CreateUser(ctx, db, "alice", "other@example.com", ""); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("duplicate username: got %v, want ErrDuplicate", err)
	}
	if _, err := CreateUser(ctx, db, "alice2", "alice@example.com", ""); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("duplicate email: got %v, want ErrDuplicate", err)
	}
}

func TestGetUserByUsername(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	u := mustUser(t, db, "bob")

	got, err := GetUserByUsername(ctx, db, "bob")
	if err != nil {
		t.Fatalf("GetUserByUsername: %v", err)
	}
	if got.ID != u.ID {
		t.Fatalf("got ID %s, want %s", got.ID, u.ID)
	}
	if _, err := GetUserByUsername(ctx, db, "nobody"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing user: got %v, want ErrNotFound", err)
	}
}

func TestUpdateUserProfile(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	u := mustUser(t, db, "carol")

	if err := UpdateUserProfile(ctx, db, u.ID, "new bio", "http://img"); err != nil {
		t.Fatalf("UpdateUserProfile: %v", err)
	}
	got, _ := GetUser(ctx, db, u.ID)
	if got.Bio != "new bio" || got.Avatar != "http://img" {
		t.Fatalf("profile not updated: %+v", got)
	}
	if err := UpdateUserProfile(ctx, db, "missing-id", "x", "y"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing user: got %v, want ErrNotFound", err)
	}
}

func TestCreateLike_UniqueIndexArbitrates(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	u := mustUser(t, db, "dave")
	p := mustPost(t, db, u.ID, "hello")

	if err := CreateLike(ctx, db, u.ID, p.ID); err != nil {
		t.Fatalf("first like: %v", err)
	}
	if err := CreateLike(ctx, db, u.ID, p.ID); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("second like: got %v, want ErrDuplicate", err)
	}
	if err := DeleteLike(ctx, db, u.ID, p.ID); err != nil {
		t.Fatalf("DeleteLike: %v", err)
	}
	if err := DeleteLike(ctx, db, u.ID, p.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("delete absent like: got %v, want ErrNotFound", err)
	}
}

func TestAdjustCounters(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	u := mustUser(t, db, "erin")
	p := mustPost(t, db, u.ID, "hello")

	for i := 0; i < 3; i++ {
		if err := AdjustLikesCount(ctx, db, p.ID, +1); err != nil {
			t.Fatalf("AdjustLikesCount: %v", err)
		}
	}
	if err := AdjustLikesCount(ctx, db, p.ID, -1); err != nil {
		t.Fatalf("AdjustLikesCount -1: %v", err)
	}
	if err := AdjustCommentsCount(ctx, db, p.ID, +1); err != nil {
		t.Fatalf("AdjustCommentsCount: %v", err)
	}

	got, _ := GetPost(ctx, db, p.ID)
	if got.LikesCount != 2 {
		t.Fatalf("LikesCount = %d, want 2", got.LikesCount)
	}
	if got.CommentsCount != 1 {
		t.Fatalf("CommentsCount = %d, want 1", got.CommentsCount)
	}
}

func TestLikedPostIDs(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	u := mustUser(t, db, "frank")
	p1 := mustPost(t, db, u.ID, "one")
	p2 := mustPost(t, db, u.ID, "two")

	if err := CreateLike(ctx, db, u.ID, p1.ID); err != nil {
		t.Fatalf("CreateLike: %v", err)
	}
	set, err := LikedPostIDs(ctx, db, u.ID, []string{p1.ID, p2.ID})
	if err != nil {
		t.Fatalf("LikedPostIDs: %v", err)
	}
	if _, ok := set[p1.ID]; !ok {
		t.Fatalf("p1 should be in the liked set")
	}
	if _, ok := set[p2.ID]; ok {
		t.Fatalf("p2 should not be in the liked set")
	}
}

func TestFollowPairUniqueness(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	a := mustUser(t, db, "grace")
	b := mustUser(t, db, "heidi")

	if err := CreateFollow(ctx, db, a.ID, b.ID); err != nil {
		t.Fatalf("first follow: %v", err)
	}
	if err := CreateFollow(ctx, db, a.ID, b.ID); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("second follow: got %v, want ErrDuplicate", err)
	}
	// The reverse direction is a distinct edge.
	if err := CreateFollow(ctx, db, b.ID, a.ID); err != nil {
		t.Fatalf("reverse follow: %v", err)
	}

	n, err := CountFollowers(ctx, db, b.ID)
	if err != nil || n != 1 {
		t.Fatalf("CountFollowers = %d, %v", n, err)
	}
	ok, err := IsFollowing(ctx, db, a.ID, b.ID)
	if err != nil || !ok {
		t.Fatalf("IsFollowing = %v, %v", ok, err)
	}

	ids, err := FollowingIDs(ctx, db, a.ID)
	if err != nil || len(ids) != 1 || ids[0] != b.ID {
		t.Fatalf("FollowingIDs = %v, %v", ids, err)
	}
}

func TestListPostsPage_Ordering(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	u := mustUser(t, db, "ivan")

	base := time.Now().UTC().Add(-time.Hour)
	var ids []string
	for i := 0; i < 3; i++ {
		p := mustPost(t, db, u.ID, fmt.Sprintf("post %d", i))
		// Force distinct creation times; the UUID key breaks remaining ties.
		db.Model(&domain.Post{}).Where("id = ?", p.ID).
			UpdateColumn("created_at", base.Add(time.Duration(i)*time.Minute))
		ids = append(ids, p.ID)
	}

	page, err := ListPostsPage(ctx, db, 0, 10)
	if err != nil {
		t.Fatalf("ListPostsPage: %v", err)
	}
	if len(page) != 3 {
		t.Fatalf("len = %d", len(page))
	}
	// Newest first.
	if page[0].ID != ids[2] || page[2].ID != ids[0] {
		t.Fatalf("wrong order: %s, %s, %s", page[0].ID, page[1].ID, page[2].ID)
	}

	second, err := ListPostsPage(ctx, db, 2, 10)
	if err != nil || len(second) != 1 || second[0].ID != ids[0] {
		t.Fatalf("offset page wrong: %v, %v", second, err)
	}
}

func TestListPostsByAuthorsPage(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	a := mustUser(t, db, "judy")
	b := mustUser(t, db, "karl")
	mustPost(t, db, a.ID, "from a")
	mustPost(t, db, b.ID, "from b")

	total, err := CountPostsByAuthors(ctx, db, []string{a.ID})
	if err != nil || total != 1 {
		t.Fatalf("CountPostsByAuthors = %d, %v", total, err)
	}
	page, err := ListPostsByAuthorsPage(ctx, db, []string{a.ID}, 0, 10)
	if err != nil || len(page) != 1 || page[0].UserID != a.ID {
		t.Fatalf("ListPostsByAuthorsPage = %v, %v", page, err)
	}

	// Empty author set short-circuits without touching the DB.
	total, err = CountPostsByAuthors(ctx, db, nil)
	if err != nil || total != 0 {
		t.Fatalf("empty authors count = %d, %v", total, err)
	}
	page, err = ListPostsByAuthorsPage(ctx, db, nil, 0, 10)
	if err != nil || len(page) != 0 {
		t.Fatalf("empty authors page = %v, %v", page, err)
	}
}

func TestDeletePost_SoftDelete(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	u := mustUser(t, db, "liam")
	p := mustPost(t, db, u.ID, "going away")

	if err := DeletePost(ctx, db, p.ID); err != nil {
		t.Fatalf("DeletePost: %v", err)
	}
	if _, err := GetPost(ctx, db, p.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("deleted post still visible: %v", err)
	}
	if err := DeletePost(ctx, db, p.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second delete: got %v, want ErrNotFound", err)
	}
	// The row survives as a tombstone.
	var n int64
	db.Unscoped().Model(&domain.Post{}).Where("id = ?", p.ID).Count(&n)
	if n != 1 {
		t.Fatalf("soft-deleted row missing, count = %d", n)
	}
}

func TestCommentLifecycle(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	u := mustUser(t, db, "mona")
	p := mustPost(t, db, u.ID, "post")

	c, err := CreateComment(ctx, db, p.ID, u.ID, "first!")
	if err != nil {
		t.Fatalf("CreateComment: %v", err)
	}
	got, err := GetComment(ctx, db, c.ID)
	if err != nil || got.Content != "first!" {
		t.Fatalf("GetComment = %+v, %v", got, err)
	}

	n, err := CountComments(ctx, db, p.ID)
	if err != nil || n != 1 {
		t.Fatalf("CountComments = %d, %v", n, err)
	}
	page, err := ListCommentsPage(ctx, db, p.ID, 0, 10)
	if err != nil || len(page) != 1 {
		t.Fatalf("ListCommentsPage = %v, %v", page, err)
	}

	if err := DeleteComment(ctx, db, c.ID); err != nil {
		t.Fatalf("DeleteComment: %v", err)
	}
	if _, err := GetComment(ctx, db, c.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("deleted comment still visible: %v", err)
	}
}

func TestUserStats(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	a := mustUser(t, db, "nina")
	b := mustUser(t, db, "oscar")
	c := mustUser(t, db, "peggy")

	// b and c follow a; a follows b. a has two posts.
	_ = CreateFollow(ctx, db, b.ID, a.ID)
	_ = CreateFollow(ctx, db, c.ID, a.ID)
	_ = CreateFollow(ctx, db, a.ID, b.ID)
	mustPost(t, db, a.ID, "one")
	mustPost(t, db, a.ID, "two")

	followers, following, posts, err := UserStats(ctx, db, a.ID)
	if err != nil {
		t.Fatalf("UserStats: %v", err)
	}
	if followers != 2 || following != 1 || posts != 2 {
		t.Fatalf("stats = %d/%d/%d", followers, following, posts)
	}
}

func TestPostsStats(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	count, max, err := PostsStats(ctx, db)
	if err != nil || count != 0 || max != nil {
		t.Fatalf("empty stats = %d, %v, %v", count, max, err)
	}

	u := mustUser(t, db, "quinn")
	mustPost(t, db, u.ID, "one")
	mustPost(t, db, u.ID, "two")

	count, max, err = PostsStats(ctx, db)
	if err != nil {
		t.Fatalf("PostsStats: %v", err)
	}
	if count != 2 || max == nil || max.IsZero() {
		t.Fatalf("stats = %d, %v", count, max)
	}
}

func TestCommentsStats(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	u := mustUser(t, db, "rita")
	p := mustPost(t, db, u.ID, "post")

	count, max, err := CommentsStats(ctx, db, p.ID)
	if err != nil || count != 0 || max != nil {
		t.Fatalf("empty stats = %d, %v, %v", count, max, err)
	}

	if _, err := CreateComment(ctx, db, p.ID, u.ID, "hello"); err != nil {
		t.Fatalf("CreateComment: %v", err)
	}
	count, max, err = CommentsStats(ctx, db, p.ID)
	if err != nil || count != 1 || max == nil {
		t.Fatalf("stats = %d, %v, %v", count, max, err)
	}
}
