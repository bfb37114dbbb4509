package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"feedback-board-api/internal/database"
	"feedback-board-api/internal/domain"
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	UpdateRole(ctx context.Context, id uuid.UUID, role domain.Role) error
	Delete(ctx context.Context, id uuid.UUID) error
	Count(ctx context.Context) (int64, error)
}

// userRepositoryImpl is the GORM implementation of UserRepository
type userRepositoryImpl struct {
	db *gorm.DB
}

// NewUserRepository creates a new instance of UserRepository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepositoryImpl{db: db}
}

func (r *userRepositoryImpl) conn(ctx context.Context) *gorm.DB {
	return database.Conn(ctx, r.db)
}

// Create creates a new user
func (r *userRepositoryImpl) Create(ctx context.Context, user *domain.User) error {
	return r.conn(ctx).Create(user).Error
}

// FindByID finds a user by ID
func (r *userRepositoryImpl) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	var user domain.User
	if err := r.conn(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByUsername finds a user by exact username
func (r *userRepositoryImpl) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	var user domain.User
	if err := r.conn(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// ExistsByUsername reports whether the username is taken
func (r *userRepositoryImpl) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	var count int64
	if err := r.conn(ctx).Model(&domain.User{}).Where("username = ?", username).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// UpdateRole changes a user's role
func (r *userRepositoryImpl) UpdateRole(ctx context.Context, id uuid.UUID, role domain.Role) error {
	result := r.conn(ctx).Model(&domain.User{}).Where("id = ?", id).Update("role", role)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete removes a user. Authored feedback and comments are kept with created_by cleared;
// memberships and upvotes are removed. Run it inside a transaction.
func (r *userRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	db := r.conn(ctx)

	if err := db.Model(&domain.Feedback{}).Where("created_by_id = ?", id).UpdateColumn("created_by_id", nil).Error; err != nil {
		return err
	}
	if err := db.Model(&domain.Comment{}).Where("created_by_id = ?", id).UpdateColumn("created_by_id", nil).Error; err != nil {
		return err
	}
	if err := db.Where("user_id = ?", id).Delete(&domain.Membership{}).Error; err != nil {
		return err
	}
	if err := db.Where("user_id = ?", id).Delete(&domain.Upvote{}).Error; err != nil {
		return err
	}

	result := db.Where("id = ?", id).Delete(&domain.User{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Count returns the number of users
func (r *userRepositoryImpl) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.conn(ctx).Model(&domain.User{}).Count(&count).Error
	return count, err
}
