package domain

import (
	"time"

	"github.com/google/uuid"
)

// FeedbackType classifies a feedback item
type FeedbackType string

const (
	FeedbackTypeFeature    FeedbackType = "feature"
	FeedbackTypeBug        FeedbackType = "bug"
	FeedbackTypeSuggestion FeedbackType = "suggestion"
)

// IsValid reports whether t is a defined feedback type
func (t FeedbackType) IsValid() bool {
	switch t {
	case FeedbackTypeFeature, FeedbackTypeBug, FeedbackTypeSuggestion:
		return true
	}
	return false
}

// FeedbackStatus is a flat three-state set; any status may move to any other
type FeedbackStatus string

const (
	StatusOpen       FeedbackStatus = "open"
	StatusInProgress FeedbackStatus = "in_progress"
	StatusCompleted  FeedbackStatus = "completed"
)

// IsValid reports whether s is a defined status
func (s FeedbackStatus) IsValid() bool {
	switch s {
	case StatusOpen, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// Feedback is an item posted to a board
type Feedback struct {
	BaseModel
	BoardID      uuid.UUID      `gorm:"type:uuid;not null;index:idx_feedback_board_id" json:"board_id"`
	CreatedByID  *uuid.UUID     `gorm:"type:uuid;index:idx_feedback_created_by_id" json:"created_by_id"`
	Title        string         `gorm:"type:varchar(255);not null" json:"title"`
	Description  string         `gorm:"type:text" json:"description"`
	FeedbackType FeedbackType   `gorm:"type:varchar(20);not null;default:feature;index:idx_feedback_type" json:"feedback_type"`
	Status       FeedbackStatus `gorm:"type:varchar(20);not null;default:open;index:idx_feedback_status" json:"status"`
	// UpvoteCount is derived from feedback_upvotes and only populated by queries that select it
	UpvoteCount int64  `gorm:"->;-:migration" json:"upvote_count"`
	Board       *Board `gorm:"foreignKey:BoardID;constraint:OnDelete:CASCADE" json:"board,omitempty"`
	CreatedBy   *User  `gorm:"foreignKey:CreatedByID;constraint:OnDelete:SET NULL" json:"created_by,omitempty"`
	Tags        []Tag  `gorm:"many2many:feedback_tags;joinForeignKey:FeedbackID;joinReferences:TagID" json:"tags,omitempty"`
}

// TableName specifies the table name for Feedback
func (Feedback) TableName() string {
	return "feedback"
}

// FeedbackTag links a feedback item to a tag
type FeedbackTag struct {
	FeedbackID uuid.UUID `gorm:"type:uuid;primaryKey" json:"feedback_id"`
	TagID      uuid.UUID `gorm:"type:uuid;primaryKey;index:idx_feedback_tags_tag_id" json:"tag_id"`
}

// TableName specifies the table name for FeedbackTag
func (FeedbackTag) TableName() string {
	return "feedback_tags"
}

// Upvote records that a user upvoted a feedback item. At most one row per pair.
type Upvote struct {
	FeedbackID uuid.UUID `gorm:"type:uuid;primaryKey" json:"feedback_id"`
	UserID     uuid.UUID `gorm:"type:uuid;primaryKey;index:idx_feedback_upvotes_user_id" json:"user_id"`
	CreatedAt  time.Time `gorm:"not null" json:"created_at"`
}

// TableName specifies the table name for Upvote
func (Upvote) TableName() string {
	return "feedback_upvotes"
}
