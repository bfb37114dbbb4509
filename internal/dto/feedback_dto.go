package dto

import (
	"time"

	"github.com/google/uuid"
)

// FeedbackRequest is the body of feedback create, PUT and PATCH calls.
// A nil tag slice means "not supplied"; an empty one clears the tag set.
// @Description tag_ids must reference existing tags; tag_names are created on demand (case-insensitive)
type FeedbackRequest struct {
	Board        *uuid.UUID  `json:"board" example:"539167fb-b599-41ba-9ead-344a6d0b3a2f"`
	Title        *string     `json:"title" example:"Dark mode"`
	Description  *string     `json:"description" example:"Please add a dark theme"`
	FeedbackType *string     `json:"feedback_type" example:"feature"`
	Status       *string     `json:"status" example:"open"`
	TagIDs       []uuid.UUID `json:"tag_ids"`
	TagNames     []string    `json:"tag_names" example:"ui,theme"`
}

// TagsSupplied reports whether the request replaces the tag set
func (r *FeedbackRequest) TagsSupplied() bool {
	return r.TagIDs != nil || r.TagNames != nil
}

// MoveFeedbackRequest sets a new workflow status
type MoveFeedbackRequest struct {
	Status string `json:"status" example:"in_progress"`
}

// FeedbackListQuery holds the query parameters of the feedback list
type FeedbackListQuery struct {
	Page         int    `form:"page"`
	Status       string `form:"status"`
	FeedbackType string `form:"feedback_type"`
	Board        string `form:"board"`
	Tags         string `form:"tags"`
	TagName      string `form:"tag_name"`
	Search       string `form:"search"`
	Ordering     string `form:"ordering"`
}

// FeedbackResponse represents a feedback item as seen by the caller
type FeedbackResponse struct {
	ID           uuid.UUID     `json:"id"`
	Board        uuid.UUID     `json:"board"`
	BoardName    string        `json:"board_name,omitempty"`
	CreatedBy    *UserSummary  `json:"created_by"`
	Title        string        `json:"title"`
	Description  string        `json:"description"`
	FeedbackType string        `json:"feedback_type"`
	Status       string        `json:"status"`
	Tags         []TagResponse `json:"tags"`
	UpvoteCount  int64         `json:"upvote_count"`
	HasUpvoted   bool          `json:"has_upvoted"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// UpvoteResponse reports the caller's upvote state after a toggle
type UpvoteResponse struct {
	Upvoted     bool  `json:"upvoted"`
	UpvoteCount int64 `json:"upvote_count"`
}
