package services

import (
	"context"
	"errors"
	"testing"
)

func TestFollowToggle_OnOff(t *testing.T) {
	db := newTestDB(t)
	svc := &FollowService{DB: db}
	ctx := context.Background()
	a := seedUser(t, db, "alice")
	b := seedUser(t, db, "bob")

	active, count, err := svc.Toggle(ctx, a.ID, "bob")
	if err != nil {
		t.Fatalf("follow: %v", err)
	}
	if !active || count != 1 {
		t.Fatalf("follow = %v/%d, want true/1", active, count)
	}
	ok, err := svc.IsFollowing(ctx, a.ID, b.ID)
	if err != nil || !ok {
		t.Fatalf("IsFollowing = %v, %v", ok, err)
	}

	active, count, err = svc.Toggle(ctx, a.ID, "bob")
	if err != nil {
		t.Fatalf("unfollow: %v", err)
	}
	if active || count != 0 {
		t.Fatalf("unfollow = %v/%d, want false/0", active, count)
	}
	ok, _ = svc.IsFollowing(ctx, a.ID, b.ID)
	if ok {
		t.Fatalf("edge should be gone after unfollow")
	}
}

func TestFollowToggle_SelfFollowRejected(t *testing.T) {
	db := newTestDB(t)
	svc := &FollowService{DB: db}
	a := seedUser(t, db, "alice")

	if _, _, err := svc.Toggle(context.Background(), a.ID, "alice"); !errors.Is(err, ErrSelfFollow) {
		t.Fatalf("got %v, want ErrSelfFollow", err)
	}
}

func TestFollowToggle_UnknownTarget(t *testing.T) {
	db := newTestDB(t)
	svc := &FollowService{DB: db}
	a := seedUser(t, db, "alice")

	if _, _, err := svc.Toggle(context.Background(), a.ID, "ghost"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("got %v, want ErrUserNotFound", err)
	}
}

func TestFollowToggle_UsernameNormalized(t *testing.T) {
	db := newTestDB(t)
	svc := &FollowService{DB: db}
	a := seedUser(t, db, "alice")
	seedUser(t, db, "bob")

	// Mixed case and padding still resolve the handle.
	active, _, err := svc.Toggle(context.Background(), a.ID, "  BOB ")
	if err != nil || !active {
		t.Fatalf("toggle = %v, %v", active, err)
	}
}

func TestFollowersAndFollowingPages(t *testing.T) {
	db := newTestDB(t)
	svc := &FollowService{DB: db}
	ctx := context.Background()
	a := seedUser(t, db, "alice")
	b := seedUser(t, db, "bob")
	c := seedUser(t, db, "carol")

	// b and c follow a; a follows b.
	if _, _, err := svc.Toggle(ctx, b.ID, "alice"); err != nil {
		t.Fatalf("b follows a: %v", err)
	}
	if _, _, err := svc.Toggle(ctx, c.ID, "alice"); err != nil {
		t.Fatalf("c follows a: %v", err)
	}
	if _, _, err := svc.Toggle(ctx, a.ID, "bob"); err != nil {
		t.Fatalf("a follows b: %v", err)
	}

	followers, total, err := svc.FollowersPage(ctx, a.ID, 1, 20)
	if err != nil {
		t.Fatalf("FollowersPage: %v", err)
	}
	if total != 2 || len(followers) != 2 {
		t.Fatalf("followers = %d, total %d", len(followers), total)
	}

	following, total, err := svc.FollowingPage(ctx, a.ID, 1, 20)
	if err != nil {
		t.Fatalf("FollowingPage: %v", err)
	}
	if total != 1 || len(following) != 1 || following[0].ID != b.ID {
		t.Fatalf("following = %v, total %d", following, total)
	}

	// A user with no edges gets empty pages, not an error.
	d := seedUser(t, db, "dave")
	empty, total, err := svc.FollowersPage(ctx, d.ID, 1, 20)
	if err != nil || total != 0 || len(empty) != 0 {
		t.Fatalf("d followers = %d, total %d, %v", len(empty), total, err)
	}
	empty, total, err = svc.FollowingPage(ctx, d.ID, 1, 20)
	if err != nil || total != 0 || len(empty) != 0 {
		t.Fatalf("d following = %d, total %d, %v", len(empty), total, err)
	}
}
