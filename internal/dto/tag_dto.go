package dto

import (
	"time"

	"github.com/google/uuid"
)

// TagRequest is the body of tag create, PUT and PATCH calls
type TagRequest struct {
	Name string `json:"name" example:"performance"`
}

// TagListQuery holds the query parameters of the tag list
type TagListQuery struct {
	Page   int    `form:"page"`
	Search string `form:"search"`
}

// TagResponse represents a tag
type TagResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}
