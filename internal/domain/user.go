package domain

// Role governs write permissions. Moderator exists but no permission rule grants it anything.
type Role string

const (
	RoleAdmin       Role = "admin"
	RoleModerator   Role = "moderator"
	RoleContributor Role = "contributor"
)

// IsValid reports whether r is one of the defined roles
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleModerator, RoleContributor:
		return true
	}
	return false
}

// User represents an account
type User struct {
	BaseModel
	Username     string `gorm:"type:varchar(150);not null;uniqueIndex:idx_users_username" json:"username"`
	Email        string `gorm:"type:varchar(254)" json:"email"`
	PasswordHash string `gorm:"type:varchar(255);not null" json:"-"`
	Role         Role   `gorm:"type:varchar(20);not null;default:contributor" json:"role"`
	IsSuperuser  bool   `gorm:"not null" json:"is_superuser"`
}

// TableName specifies the table name for User
func (User) TableName() string {
	return "users"
}
