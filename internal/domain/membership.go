package domain

import (
	"time"

	"github.com/google/uuid"
)

// Membership grants a user access to a board. One row per (board, user).
type Membership struct {
	BoardID  uuid.UUID `gorm:"type:uuid;primaryKey" json:"board_id"`
	UserID   uuid.UUID `gorm:"type:uuid;primaryKey;index:idx_board_memberships_user_id" json:"user_id"`
	JoinedAt time.Time `gorm:"not null" json:"joined_at"`
}

// TableName specifies the table name for Membership
func (Membership) TableName() string {
	return "board_memberships"
}
