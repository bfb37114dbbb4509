package dto

import (
	"time"

	"github.com/google/uuid"
)

// RegisterRequest represents a self sign-up. The role is always contributor.
type RegisterRequest struct {
	Username string `json:"username" binding:"required,max=150" example:"jane"`
	Email    string `json:"email" binding:"omitempty,email" example:"jane@example.com"`
	Password string `json:"password" binding:"required,min=8" example:"s3cret-pass"`
}

// TokenRequest represents the credentials exchanged for a token pair
type TokenRequest struct {
	Username string `json:"username" binding:"required" example:"jane"`
	Password string `json:"password" binding:"required" example:"s3cret-pass"`
}

// RefreshRequest carries a refresh token
type RefreshRequest struct {
	Refresh string `json:"refresh" binding:"required"`
}

// TokenResponse represents an issued token pair. Refresh is empty on refresh calls.
type TokenResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh,omitempty"`
}

// ChangeRoleRequest represents an admin role assignment
type ChangeRoleRequest struct {
	Role string `json:"role" enums:"admin,moderator,contributor" example:"moderator"`
}

// UserResponse represents a user account
type UserResponse struct {
	ID          uuid.UUID `json:"id"`
	Username    string    `json:"username"`
	Email       string    `json:"email"`
	Role        string    `json:"role"`
	IsSuperuser bool      `json:"is_superuser"`
	CreatedAt   time.Time `json:"date_joined"`
}

// UserSummary is the compact user shape nested in other resources
type UserSummary struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	Role     string    `json:"role"`
}
