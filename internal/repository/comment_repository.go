package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"feedback-board-api/internal/database"
	"feedback-board-api/internal/domain"
)

// CommentRepository defines the interface for comment data access
type CommentRepository interface {
	Create(ctx context.Context, comment *domain.Comment) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Comment, error)
	ListVisible(ctx context.Context, userID uuid.UUID, feedbackID *uuid.UUID, page Page) ([]*domain.Comment, int64, error)
	Update(ctx context.Context, comment *domain.Comment) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// commentRepositoryImpl is the GORM implementation of CommentRepository
type commentRepositoryImpl struct {
	db *gorm.DB
}

// NewCommentRepository creates a new instance of CommentRepository
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepositoryImpl{db: db}
}

func (r *commentRepositoryImpl) conn(ctx context.Context) *gorm.DB {
	return database.Conn(ctx, r.db)
}

// Create creates a new comment
func (r *commentRepositoryImpl) Create(ctx context.Context, comment *domain.Comment) error {
	return r.conn(ctx).Omit(clause.Associations).Create(comment).Error
}

// FindByID finds a comment with its creator
func (r *commentRepositoryImpl) FindByID(ctx context.Context, id uuid.UUID) (*domain.Comment, error) {
	var comment domain.Comment
	if err := r.conn(ctx).
		Preload("CreatedBy").
		Where("id = ?", id).
		First(&comment).Error; err != nil {
		return nil, err
	}
	return &comment, nil
}

// ListVisible lists comments on feedback whose board is visible to userID, oldest first
func (r *commentRepositoryImpl) ListVisible(ctx context.Context, userID uuid.UUID, feedbackID *uuid.UUID, page Page) ([]*domain.Comment, int64, error) {
	query := r.conn(ctx).Model(&domain.Comment{}).
		Joins("JOIN feedback ON feedback.id = comments.feedback_id").
		Joins("JOIN boards ON boards.id = feedback.board_id").
		Scopes(visibleTo(userID))

	if feedbackID != nil {
		query = query.Where("comments.feedback_id = ?", *feedbackID)
	}

	base := query.Session(&gorm.Session{})

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var comments []*domain.Comment
	if err := base.
		Select("comments.*").
		Preload("CreatedBy").
		Order("comments.created_at ASC").
		Order("comments.id ASC").
		Scopes(paginate(page)).
		Find(&comments).Error; err != nil {
		return nil, 0, err
	}

	return comments, total, nil
}

// Update writes the comment content and bumps updated_at
func (r *commentRepositoryImpl) Update(ctx context.Context, comment *domain.Comment) error {
	result := r.conn(ctx).Model(&domain.Comment{}).Where("id = ?", comment.ID).Update("content", comment.Content)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete removes a comment
func (r *commentRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.conn(ctx).Where("id = ?", id).Delete(&domain.Comment{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
