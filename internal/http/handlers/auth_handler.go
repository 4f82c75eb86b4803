// Account HTTP handlers.
//
// This file exposes REST endpoints for account resources:
//   - POST   /auth/signup                    (register)
//   - POST   /auth/login                     (verify credentials)
//   - GET    /auth/users/{username}          (profile)
//   - PUT    /auth/users/{username}          (update contact fields)
//   - PUT    /auth/users/{username}/password (change password)
//   - DELETE /auth/users/{username}          (delete account + history)
//
// Handlers are transport-thin: they validate input, call the account
// service, and translate typed service errors into HTTP responses.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-translator-backend/internal/services"
)

// AccountService defines account lifecycle operations consumed by HTTP
// handlers. Implementations should be safe for concurrent use and must
// honor the provided context for cancellation and timeouts.
type AccountService interface {
	// Register creates a new account.
	Register(ctx context.Context, username, password, email, phone string) error
	// Authenticate reports whether the credentials match.
	Authenticate(ctx context.Context, username, password string) (bool, error)
	// Profile returns the non-secret fields for username.
	Profile(ctx context.Context, username string) (*services.Profile, error)
	// UpdateProfile updates contact fields; nil retains the stored value.
	UpdateProfile(ctx context.Context, username string, email, phone *string) error
	// UpdatePassword re-verifies the old password before writing the new hash.
	UpdatePassword(ctx context.Context, username, oldPassword, newPassword string) error
	// Delete removes the account and its history.
	Delete(ctx context.Context, username string) error
}

//
// DTOs
//

// SignupRequest is the JSON payload for registering an account.
type SignupRequest struct {
	Username string `json:"username" binding:"required,min=1,max=64" example:"alice"`
	Password string `json:"password" binding:"required,min=6" example:"s3cret-pw"`
	Email    string `json:"email"    binding:"required" example:"alice@example.com"`
	Phone    string `json:"phone"    binding:"required" example:"+212600000000"`
}

// LoginRequest is the JSON payload for verifying credentials.
type LoginRequest struct {
	Username string `json:"username" binding:"required" example:"alice"`
	Password string `json:"password" binding:"required" example:"s3cret-pw"`
}

// LoginResponse echoes the profile on successful login.
type LoginResponse struct {
	Message  string `json:"message" example:"Login successful"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
}

// UpdateUserRequest carries optional contact updates. An absent field
// retains the stored value; at least one must be present.
type UpdateUserRequest struct {
	Email *string `json:"email,omitempty" example:"new@example.com"`
	Phone *string `json:"phone,omitempty" example:"+212611111111"`
}

// UpdatePasswordRequest carries a password change.
type UpdatePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required" example:"s3cret-pw"`
	NewPassword string `json:"new_password" binding:"required,min=6" example:"n3w-s3cret"`
}

//
// Handlers
//

// Signup godoc
// @ID          signup
// @Summary     Register a new account
// @Description Creates an account; all four fields are required. Fails with 409 when the username is taken.
// @Tags        Auth
// @Accept      json
// @Produce     json
// @Param       body  body  handlers.SignupRequest  true  "Signup payload"
// @Success     201  {object}  map[string]string
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     409  {object}  handlers.ErrorResponse  "Username already exists"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /auth/signup [post]
func (h *Handlers) Signup(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest,
			"all fields (username, password, email, phone) are required")
		return
	}

	err := h.accountSvc.Register(c.Request.Context(),
		strings.TrimSpace(req.Username), req.Password, req.Email, req.Phone)
	switch {
	case errors.Is(err, services.ErrUsernameTaken):
		fail(c, http.StatusConflict, ErrCodeAlreadyExists, "username already exists")
	case err != nil:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
	default:
		ok(c, http.StatusCreated, gin.H{"message": "User registered"})
	}
}

// Login godoc
// @ID          login
// @Summary     Verify credentials
// @Description Checks username/password and returns the profile on success.
// @Tags        Auth
// @Accept      json
// @Produce     json
// @Param       body  body  handlers.LoginRequest  true  "Login payload"
// @Success     200  {object}  handlers.LoginResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     401  {object}  handlers.ErrorResponse  "Invalid credentials"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /auth/login [post]
func (h *Handlers) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "username and password required")
		return
	}

	ctx := c.Request.Context()
	authed, err := h.accountSvc.Authenticate(ctx, req.Username, req.Password)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	if !authed {
		fail(c, http.StatusUnauthorized, ErrCodeAuthFailed, "invalid credentials")
		return
	}

	p, err := h.accountSvc.Profile(ctx, req.Username)
	if err != nil {
		// Authenticated a moment ago; any failure here is a store fault.
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, LoginResponse{
		Message:  "Login successful",
		Username: p.Username,
		Email:    p.Email,
		Phone:    p.Phone,
	})
}

// GetUser godoc
// @ID          getUser
// @Summary     Fetch a profile
// @Description Returns the non-secret account fields.
// @Tags        Auth
// @Produce     json
// @Param       username  path  string  true  "Username"  example(alice)
// @Success     200  {object}  services.Profile
// @Failure     404  {object}  handlers.ErrorResponse  "Account not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /auth/users/{username} [get]
func (h *Handlers) GetUser(c *gin.Context) {
	p, err := h.accountSvc.Profile(c.Request.Context(), c.Param("username"))
	switch {
	case errors.Is(err, services.ErrAccountNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "account not found")
	case err != nil:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
	default:
		ok(c, http.StatusOK, p)
	}
}

// UpdateUser godoc
// @ID          updateUser
// @Summary     Update contact fields
// @Description Updates email and/or phone; an omitted field keeps its value.
// @Tags        Auth
// @Accept      json
// @Produce     json
// @Param       username  path  string  true  "Username"  example(alice)
// @Param       body      body  handlers.UpdateUserRequest  true  "Fields to update"
// @Success     200  {object}  map[string]string
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Account not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /auth/users/{username} [put]
func (h *Handlers) UpdateUser(c *gin.Context) {
	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	if req.Email == nil && req.Phone == nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "at least email or phone must be provided")
		return
	}

	err := h.accountSvc.UpdateProfile(c.Request.Context(), c.Param("username"), req.Email, req.Phone)
	switch {
	case errors.Is(err, services.ErrAccountNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "account not found")
	case err != nil:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
	default:
		ok(c, http.StatusOK, gin.H{"message": "User updated successfully"})
	}
}

// UpdatePassword godoc
// @ID          updatePassword
// @Summary     Change the password
// @Description Re-verifies the old password before storing the new hash.
// @Tags        Auth
// @Accept      json
// @Produce     json
// @Param       username  path  string  true  "Username"  example(alice)
// @Param       body      body  handlers.UpdatePasswordRequest  true  "Password change"
// @Success     200  {object}  map[string]string
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     401  {object}  handlers.ErrorResponse  "Invalid old password"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /auth/users/{username}/password [put]
func (h *Handlers) UpdatePassword(c *gin.Context) {
	var req UpdatePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest,
			"old password and new password (min 6 chars) are required")
		return
	}

	err := h.accountSvc.UpdatePassword(c.Request.Context(), c.Param("username"),
		req.OldPassword, req.NewPassword)
	switch {
	case errors.Is(err, services.ErrAuthFailed):
		fail(c, http.StatusUnauthorized, ErrCodeAuthFailed, "invalid old password or user not found")
	case err != nil:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
	default:
		ok(c, http.StatusOK, gin.H{"message": "Password updated successfully"})
	}
}

// DeleteUser godoc
// @ID          deleteUser
// @Summary     Delete an account
// @Description Verifies the password, then removes the account and all of its history.
// @Tags        Auth
// @Produce     json
// @Param       username  path   string  true  "Username"  example(alice)
// @Param       password  query  string  true  "Current password"
// @Success     200  {object}  map[string]string
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     401  {object}  handlers.ErrorResponse  "Invalid password"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /auth/users/{username} [delete]
func (h *Handlers) DeleteUser(c *gin.Context) {
	username := c.Param("username")
	password := c.Query("password")
	if strings.TrimSpace(password) == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "password is required for account deletion")
		return
	}

	ctx := c.Request.Context()
	authed, err := h.accountSvc.Authenticate(ctx, username, password)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	if !authed {
		fail(c, http.StatusUnauthorized, ErrCodeAuthFailed, "invalid password")
		return
	}

	if err := h.accountSvc.Delete(ctx, username); err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, gin.H{"message": "User account deleted successfully"})
}
