// Package services defines the business logic for users, posts, comments,
// likes, and follows. This file centralizes common service-level error values
// so that they can be consistently returned by service methods and checked by
// callers.
//
// These errors are intended for internal use by the service layer and
// translation into user-facing messages or HTTP status codes should be
// performed at the handler layer.
package services

import "errors"

var (
	// ErrUserNotFound indicates that the requested user does not exist.
	ErrUserNotFound = errors.New("user not found")

	// ErrPostNotFound indicates that the requested post does not exist.
	ErrPostNotFound = errors.New("post not found")

	// ErrCommentNotFound indicates that the requested comment does not exist.
	ErrCommentNotFound = errors.New("comment not found")

	// ErrDuplicateUser is returned when the username or email is already
	// registered.
	ErrDuplicateUser = errors.New("username or email already taken")

	// ErrSelfFollow is returned when a user attempts to follow themselves.
	// It is raised before the follow row is written.
	ErrSelfFollow = errors.New("cannot follow yourself")

	// ErrEmptyContent is returned when a post or comment body is empty after
	// normalization.
	ErrEmptyContent = errors.New("content is empty")

	// ErrTooLong is returned when content exceeds the maximum configured
	// rune length.
	ErrTooLong = errors.New("content too long")

	// ErrInvalidUsername is returned when a username fails validation.
	ErrInvalidUsername = errors.New("invalid username")

	// ErrInvalidEmail is returned when an email address fails validation.
	ErrInvalidEmail = errors.New("invalid email")

	// ErrNotOwner is returned when a caller attempts to modify a resource
	// they do not own.
	ErrNotOwner = errors.New("not the resource owner")
)
