// User HTTP handlers.
//
// This file exposes REST endpoints for user resources:
//   - POST   /users                       (register)
//   - GET    /users/{username}            (profile with read-time counts)
//   - PATCH  /users/{username}            (owner-only bio/avatar update)
//   - GET    /users/{username}/followers  (paginated)
//   - GET    /users/{username}/following  (paginated)
//   - POST   /users/{username}/follow     (toggle)
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-social-backend/internal/domain"
)

//
// DTOs
//

// RegisterUserRequest is the JSON payload for creating an account.
type RegisterUserRequest struct {
	// Username is the unique handle (3-64 chars, [a-z0-9_]).
	Username string `json:"username" binding:"required" example:"ada_l"`
	// Email must be unique across accounts.
	Email string `json:"email" binding:"required" example:"ada@example.com"`
	// Bio is optional free text shown on the profile.
	Bio string `json:"bio" example:"Analyst. Occasional poet."`
}

// UpdateProfileRequest is the JSON payload for updating a profile.
type UpdateProfileRequest struct {
	Bio    string `json:"bio" example:"New bio"`
	Avatar string `json:"avatar" example:"https://cdn.example.com/a/ada.png"`
}

// ListUsersResponse wraps a page of users and pagination information.
type ListUsersResponse struct {
	Users      []domain.User `json:"users"`
	Pagination Pagination    `json:"pagination"`
}

//
// Handlers
//

// RegisterUser godoc
// @ID          registerUser
// @Summary     Register a new user
// @Description Creates an account with a unique username and email.
// @Tags        Users
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.RegisterUserRequest  true  "Registration payload"
//
// @Success     201  {object}  domain.User
// @Failure     400  {object}  handlers.ErrorResponse  "Validation error"
// @Failure     409  {object}  handlers.ErrorResponse  "Username or email taken"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /users [post]
func (h *Handlers) RegisterUser(c *gin.Context) {
	var req RegisterUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body", nil)
		return
	}

	u, err := h.userSvc.Register(c.Request.Context(), req.Username, req.Email, req.Bio)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusCreated, u)
}

// GetProfile godoc
// @ID          getProfile
// @Summary     Get a user profile
// @Description Returns the user plus follower/following/post counts. Counts are computed from relation rows at read time.
// @Tags        Users
// @Produce     json
//
// @Param       username  path  string  true  "Username"  example(ada_l)
//
// @Success     200  {object}  services.Profile
// @Failure     404  {object}  handlers.ErrorResponse  "User not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /users/{username} [get]
func (h *Handlers) GetProfile(c *gin.Context) {
	p, err := h.userSvc.ProfileByUsername(c.Request.Context(), c.Param("username"))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, p)
}

// UpdateProfile godoc
// @ID          updateProfile
// @Summary     Update a user profile
// @Description Rewrites bio and avatar. Only the account owner may update.
// @Tags        Users
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       username   path    string  true  "Username"               example(ada_l)
// @Param       body       body    handlers.UpdateProfileRequest  true  "Profile payload"
//
// @Success     204  {string}  string  "No Content"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     403  {object}  handlers.ErrorResponse  "Not the owner"
// @Failure     404  {object}  handlers.ErrorResponse  "User not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /users/{username} [patch]
func (h *Handlers) UpdateProfile(c *gin.Context) {
	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body", nil)
		return
	}

	if err := h.userSvc.UpdateProfile(c.Request.Context(), userID(c), c.Param("username"), req.Bio, req.Avatar); err != nil {
		failErr(c, err)
		return
	}
	noContent(c)
}

// ListFollowers godoc
// @ID          listFollowers
// @Summary     List a user's followers (paginated)
// @Tags        Users
// @Produce     json
//
// @Param       username   path   string  true  "Username"        example(ada_l)
// @Param       page       query  int     false "Page number"     minimum(1) default(1)
// @Param       page_size  query  int     false "Items per page"  minimum(1) maximum(100) default(20)
//
// @Success     200  {object}  handlers.ListUsersResponse
// @Failure     404  {object}  handlers.ErrorResponse  "User not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /users/{username}/followers [get]
func (h *Handlers) ListFollowers(c *gin.Context) {
	h.listRelations(c, h.followSvc.FollowersPage)
}

// ListFollowing godoc
// @ID          listFollowing
// @Summary     List users a user follows (paginated)
// @Tags        Users
// @Produce     json
//
// @Param       username   path   string  true  "Username"        example(ada_l)
// @Param       page       query  int     false "Page number"     minimum(1) default(1)
// @Param       page_size  query  int     false "Items per page"  minimum(1) maximum(100) default(20)
//
// @Success     200  {object}  handlers.ListUsersResponse
// @Failure     404  {object}  handlers.ErrorResponse  "User not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /users/{username}/following [get]
func (h *Handlers) ListFollowing(c *gin.Context) {
	h.listRelations(c, h.followSvc.FollowingPage)
}

// listRelations resolves the username, then serves one page from the given
// relation listing.
func (h *Handlers) listRelations(c *gin.Context, pageFn func(ctx context.Context, userID string, page, pageSize int) ([]domain.User, int64, error)) {
	ctx := c.Request.Context()
	p, err := h.userSvc.ProfileByUsername(ctx, c.Param("username"))
	if err != nil {
		failErr(c, err)
		return
	}

	page, pageSize := clampPagination(c)
	items, total, err := pageFn(ctx, p.User.ID, page, pageSize)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, ListUsersResponse{
		Users:      items,
		Pagination: newPagination(page, pageSize, total),
	})
}

// ToggleFollow godoc
// @ID          toggleFollow
// @Summary     Follow or unfollow a user
// @Description Flips the caller's follow edge towards the target. Returns the resulting state and the target's updated follower count.
// @Tags        Users
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       username   path    string  true  "Target username"        example(ada_l)
//
// @Success     200  {object}  handlers.ToggleResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Self-follow"
// @Failure     404  {object}  handlers.ErrorResponse  "User not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /users/{username}/follow [post]
func (h *Handlers) ToggleFollow(c *gin.Context) {
	active, count, err := h.followSvc.Toggle(c.Request.Context(), userID(c), c.Param("username"))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, ToggleResponse{Active: active, Count: count})
}
