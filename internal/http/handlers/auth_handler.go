// Auth HTTP handlers.
//
// This file exposes the authentication endpoints:
//   - POST /auth/register  (create account, returns user + token)
//   - POST /auth/login     (verify credentials, returns user + token)
//
// Handlers are transport-thin: they validate input, call the auth service,
// and translate results into HTTP responses. Unlike resource endpoints the
// auth payload is top-level (user and token beside success/message) because
// the frontend stores both directly from the response root.
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-crm-backend/internal/domain"
	"github.com/tbourn/go-crm-backend/internal/services"
)

// AuthService defines the account operations consumed by HTTP handlers.
//
// Implementations must be safe for concurrent use and honor the provided
// context for cancellation and timeouts.
type AuthService interface {
	// Register creates a user and returns it with a signed token.
	Register(ctx context.Context, name, email, password string, role domain.Role) (*services.AuthResult, error)
	// Login verifies credentials and returns the user with a signed token.
	Login(ctx context.Context, email, password string) (*services.AuthResult, error)
}

// RegisterRequest is the JSON payload for creating an account.
type RegisterRequest struct {
	Name     string `json:"name" binding:"required,min=2,max=100" example:"Jane Smith"`
	Email    string `json:"email" binding:"required,email" example:"jane@crm.com"`
	Password string `json:"password" binding:"required,min=6,max=128" example:"s3cret-pw"`
	// Role defaults to SALES when omitted.
	Role string `json:"role" binding:"omitempty,oneof=ADMIN MANAGER SALES" example:"SALES"`
}

// LoginRequest is the JSON payload for logging in.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email" example:"jane@crm.com"`
	Password string `json:"password" binding:"required" example:"s3cret-pw"`
}

// AuthResponse is the top-level envelope for both auth endpoints.
type AuthResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	User    *domain.User `json:"user"`
	Token   string       `json:"token"`
}

// Register creates an account and logs the caller in.
func (h *Handlers) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, err)
		return
	}

	res, err := h.authSvc.Register(c.Request.Context(), req.Name, req.Email, req.Password, domain.Role(req.Role))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, AuthResponse{
		Success: true,
		Message: "User registered successfully",
		User:    res.User,
		Token:   res.Token,
	})
}

// Login verifies credentials and issues a fresh token.
func (h *Handlers) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, err)
		return
	}

	res, err := h.authSvc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, AuthResponse{
		Success: true,
		Message: "Login successful",
		User:    res.User,
		Token:   res.Token,
	})
}
