package domain

// Board scopes a set of feedback items. Private boards are visible to members only.
type Board struct {
	BaseModel
	Name        string `gorm:"type:varchar(100);not null;index:idx_boards_name" json:"name"`
	Description string `gorm:"type:text" json:"description"`
	// no gorm default: a false value must reach the INSERT
	IsPublic bool   `gorm:"not null" json:"is_public"`
	Members  []User `gorm:"many2many:board_memberships;joinForeignKey:BoardID;joinReferences:UserID" json:"members,omitempty"`
}

// TableName specifies the table name for Board
func (Board) TableName() string {
	return "boards"
}
