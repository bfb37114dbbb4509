package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"feedback-board-api/internal/database"
	"feedback-board-api/internal/domain"
)

// BoardFilter narrows a board list
type BoardFilter struct {
	Name     string
	IsPublic *bool
	Search   string
}

// BoardRepository defines the interface for board data access
type BoardRepository interface {
	Create(ctx context.Context, board *domain.Board) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Board, error)
	ListVisible(ctx context.Context, userID uuid.UUID, filter BoardFilter, page Page) ([]*domain.Board, int64, error)
	Update(ctx context.Context, board *domain.Board) error
	Delete(ctx context.Context, id uuid.UUID) error
	AddMember(ctx context.Context, boardID, userID uuid.UUID) (bool, error)
	IsMember(ctx context.Context, boardID, userID uuid.UUID) (bool, error)
	Count(ctx context.Context) (int64, error)
}

// boardRepositoryImpl is the GORM implementation of BoardRepository
type boardRepositoryImpl struct {
	db *gorm.DB
}

// NewBoardRepository creates a new instance of BoardRepository
func NewBoardRepository(db *gorm.DB) BoardRepository {
	return &boardRepositoryImpl{db: db}
}

func (r *boardRepositoryImpl) conn(ctx context.Context) *gorm.DB {
	return database.Conn(ctx, r.db)
}

func preloadMembers(db *gorm.DB) *gorm.DB {
	return db.Order("users.username ASC")
}

// Create creates a new board
func (r *boardRepositoryImpl) Create(ctx context.Context, board *domain.Board) error {
	return r.conn(ctx).Omit(clause.Associations).Create(board).Error
}

// FindByID finds a board by ID with its members
func (r *boardRepositoryImpl) FindByID(ctx context.Context, id uuid.UUID) (*domain.Board, error) {
	var board domain.Board
	if err := r.conn(ctx).
		Preload("Members", preloadMembers).
		Where("id = ?", id).
		First(&board).Error; err != nil {
		return nil, err
	}
	return &board, nil
}

// ListVisible lists boards that are public or where userID is a member
func (r *boardRepositoryImpl) ListVisible(ctx context.Context, userID uuid.UUID, filter BoardFilter, page Page) ([]*domain.Board, int64, error) {
	query := r.conn(ctx).Model(&domain.Board{}).Scopes(visibleTo(userID))

	if filter.Name != "" {
		query = query.Where("boards.name = ?", filter.Name)
	}
	if filter.IsPublic != nil {
		query = query.Where("boards.is_public = ?", *filter.IsPublic)
	}
	if filter.Search != "" {
		pattern := containsPattern(filter.Search)
		query = query.Where("LOWER(boards.name) LIKE ?"+likeEscape+" OR LOWER(boards.description) LIKE ?"+likeEscape, pattern, pattern)
	}

	base := query.Session(&gorm.Session{})

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var boards []*domain.Board
	if err := base.
		Preload("Members", preloadMembers).
		Order("boards.created_at DESC").
		Order("boards.id ASC").
		Scopes(paginate(page)).
		Find(&boards).Error; err != nil {
		return nil, 0, err
	}

	return boards, total, nil
}

// Update updates the editable board fields
func (r *boardRepositoryImpl) Update(ctx context.Context, board *domain.Board) error {
	result := r.conn(ctx).Model(&domain.Board{}).Where("id = ?", board.ID).Updates(map[string]interface{}{
		"name":        board.Name,
		"description": board.Description,
		"is_public":   board.IsPublic,
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete removes a board with all of its feedback, comments, tag links, upvotes and memberships.
// Run it inside a transaction.
func (r *boardRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	db := r.conn(ctx)
	feedbackIDs := db.Model(&domain.Feedback{}).Select("id").Where("board_id = ?", id)

	if err := db.Where("feedback_id IN (?)", feedbackIDs).Delete(&domain.Comment{}).Error; err != nil {
		return err
	}
	if err := db.Where("feedback_id IN (?)", feedbackIDs).Delete(&domain.FeedbackTag{}).Error; err != nil {
		return err
	}
	if err := db.Where("feedback_id IN (?)", feedbackIDs).Delete(&domain.Upvote{}).Error; err != nil {
		return err
	}
	if err := db.Where("board_id = ?", id).Delete(&domain.Feedback{}).Error; err != nil {
		return err
	}
	if err := db.Where("board_id = ?", id).Delete(&domain.Membership{}).Error; err != nil {
		return err
	}

	result := db.Where("id = ?", id).Delete(&domain.Board{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// AddMember inserts a membership and reports whether a new row was written.
// An existing membership is left untouched.
func (r *boardRepositoryImpl) AddMember(ctx context.Context, boardID, userID uuid.UUID) (bool, error) {
	membership := &domain.Membership{
		BoardID:  boardID,
		UserID:   userID,
		JoinedAt: time.Now().UTC(),
	}
	result := r.conn(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(membership)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// IsMember reports whether a membership exists
func (r *boardRepositoryImpl) IsMember(ctx context.Context, boardID, userID uuid.UUID) (bool, error) {
	var count int64
	if err := r.conn(ctx).Model(&domain.Membership{}).
		Where("board_id = ? AND user_id = ?", boardID, userID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Count returns the number of boards
func (r *boardRepositoryImpl) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.conn(ctx).Model(&domain.Board{}).Count(&count).Error
	return count, err
}
