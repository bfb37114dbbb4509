package dto

import (
	"time"

	"github.com/google/uuid"
)

// CreateBoardRequest represents the request to create a new board
// @Description isPublic defaults to true when omitted
type CreateBoardRequest struct {
	Name        string `json:"name" example:"Roadmap"`
	Description string `json:"description" example:"Ideas for the next quarter"`
	IsPublic    *bool  `json:"is_public,omitempty" example:"true"`
}

// UpdateBoardRequest represents the request to update a board. Absent fields are left unchanged.
type UpdateBoardRequest struct {
	Name        *string `json:"name,omitempty" example:"Roadmap 2025"`
	Description *string `json:"description,omitempty"`
	IsPublic    *bool   `json:"is_public,omitempty" example:"false"`
}

// AddMemberRequest names the user to add to a board
type AddMemberRequest struct {
	Username string `json:"username" example:"jane"`
}

// BoardListQuery holds the query parameters of the board list
type BoardListQuery struct {
	Page     int    `form:"page"`
	Name     string `form:"name"`
	IsPublic *bool  `form:"is_public"`
	Search   string `form:"search"`
}

// BoardResponse represents the board response including its members
type BoardResponse struct {
	ID          uuid.UUID     `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	IsPublic    bool          `json:"is_public"`
	Members     []UserSummary `json:"members"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// MemberAddedResponse is returned by add-member, whether or not the user was already a member
type MemberAddedResponse struct {
	Status string `json:"status" example:"member added"`
	Added  bool   `json:"added"`
}
