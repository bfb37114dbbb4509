package domain

import "github.com/google/uuid"

// Comment represents a comment on a feedback item
type Comment struct {
	BaseModel
	FeedbackID  uuid.UUID  `gorm:"type:uuid;not null;index:idx_comments_feedback_id" json:"feedback_id"`
	CreatedByID *uuid.UUID `gorm:"type:uuid;index:idx_comments_created_by_id" json:"created_by_id"`
	Content     string     `gorm:"type:text;not null" json:"content"`
	Feedback    *Feedback  `gorm:"foreignKey:FeedbackID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedBy   *User      `gorm:"foreignKey:CreatedByID;constraint:OnDelete:SET NULL" json:"created_by,omitempty"`
}

// TableName specifies the table name for Comment
func (Comment) TableName() string {
	return "comments"
}
