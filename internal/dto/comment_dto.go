package dto

import (
	"time"

	"github.com/google/uuid"
)

// CreateCommentRequest represents the request to create a new comment
// @Description Request body for commenting on a feedback item the caller can see
type CreateCommentRequest struct {
	Feedback *uuid.UUID `json:"feedback" example:"f47ac10b-58cc-4372-a567-0e02b2c3d479"`
	Content  string     `json:"content" example:"Same problem on Firefox"`
}

// UpdateCommentRequest represents the request to update a comment
// @Description Request body for editing a comment. Only the content can change.
type UpdateCommentRequest struct {
	Content *string `json:"content" example:"Same problem on Firefox 128"`
}

// CommentListQuery holds the query parameters of the comment list
type CommentListQuery struct {
	Page     int    `form:"page"`
	Feedback string `form:"feedback"`
}

// CommentResponse represents the comment response
type CommentResponse struct {
	ID        uuid.UUID    `json:"id"`
	Feedback  uuid.UUID    `json:"feedback"`
	CreatedBy *UserSummary `json:"created_by"`
	Content   string       `json:"content"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}
