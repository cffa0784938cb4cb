// Package services – UserService
//
// This file implements UserService, which owns account registration and
// profile reads/updates. Follower, following, and post counts are computed at
// read time (see repo.UserStats); they are not denormalized on the user row.
//
// Observability: public methods are OpenTelemetry-instrumented.
package services

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"

	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"golang.org/x/text/unicode/norm"

	"github.com/tbourn/go-social-backend/internal/domain"
	"github.com/tbourn/go-social-backend/internal/repo"
)

// usernameRE restricts handles to a URL-safe shape.
var usernameRE = regexp.MustCompile(`^[a-zA-Z0-9_]{3,64}$`)

// emailRE is a pragmatic format check, not an RFC 5322 validator.
var emailRE = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// Profile is a user together with the counts displayed alongside it.
type Profile struct {
	User      *domain.User `json:"user"`
	Followers int64        `json:"followers_count"`
	Following int64        `json:"following_count"`
	Posts     int64        `json:"posts_count"`
}

// UserService implements the use-cases around accounts and profiles.
type UserService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB

	// MaxBioRunes caps stored bios by rune length. <= 0 means 500.
	MaxBioRunes int
}

// Register creates an account. Usernames are lowercased; bios are
// NFC-normalized and clipped.
func (s *UserService) Register(ctx context.Context, username, email, bio string) (*domain.User, error) {
	tr := otel.Tracer("services/UserService")
	ctx, span := tr.Start(ctx, "Register",
		trace.WithAttributes(attribute.String("user.name", username)),
	)
	defer span.End()

	username = strings.ToLower(strings.TrimSpace(username))
	if !usernameRE.MatchString(username) {
		return nil, ErrInvalidUsername
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if !emailRE.MatchString(email) {
		return nil, ErrInvalidEmail
	}
	bio = s.normalizeBio(bio)

	u, err := repo.CreateUser(ctx, s.DB, username, email, bio)
	if errors.Is(err, repo.ErrDuplicate) {
		return nil, ErrDuplicateUser
	}
	return u, err
}

// ProfileByUsername returns a user plus read-time counts, or ErrUserNotFound.
func (s *UserService) ProfileByUsername(ctx context.Context, username string) (*Profile, error) {
	tr := otel.Tracer("services/UserService")
	ctx, span := tr.Start(ctx, "ProfileByUsername",
		trace.WithAttributes(attribute.String("user.name", username)),
	)
	defer span.End()

	u, err := repo.GetUserByUsername(ctx, s.DB, strings.ToLower(strings.TrimSpace(username)))
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	followers, following, posts, err := repo.UserStats(ctx, s.DB, u.ID)
	if err != nil {
		return nil, err
	}
	return &Profile{User: u, Followers: followers, Following: following, Posts: posts}, nil
}

// UpdateProfile rewrites bio and avatar for the account behind username.
// Only the account owner may update it.
func (s *UserService) UpdateProfile(ctx context.Context, callerID, username, bio, avatar string) error {
	tr := otel.Tracer("services/UserService")
	ctx, span := tr.Start(ctx, "UpdateProfile",
		trace.WithAttributes(attribute.String("user.name", username)),
	)
	defer span.End()

	u, err := repo.GetUserByUsername(ctx, s.DB, strings.ToLower(strings.TrimSpace(username)))
	if errors.Is(err, repo.ErrNotFound) {
		return ErrUserNotFound
	}
	if err != nil {
		return err
	}
	if u.ID != callerID {
		return ErrNotOwner
	}
	return repo.UpdateUserProfile(ctx, s.DB, u.ID, s.normalizeBio(bio), strings.TrimSpace(avatar))
}

// normalizeBio NFC-normalizes, trims, and clips a bio.
func (s *UserService) normalizeBio(bio string) string {
	bio = strings.TrimSpace(norm.NFC.String(bio))
	max := s.MaxBioRunes
	if max <= 0 {
		max = 500
	}
	if utf8.RuneCountInString(bio) > max {
		bio = string([]rune(bio)[:max])
	}
	return bio
}
