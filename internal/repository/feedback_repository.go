package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"feedback-board-api/internal/database"
	"feedback-board-api/internal/domain"
)

// feedbackColumns selects feedback rows together with their derived upvote count
const feedbackColumns = "feedback.*, (SELECT COUNT(*) FROM feedback_upvotes fu WHERE fu.feedback_id = feedback.id) AS upvote_count"

// DefaultFeedbackOrdering sorts by upvote count, highest first
const DefaultFeedbackOrdering = "-upvotes"

// feedbackOrderings maps the accepted ordering keys to columns
var feedbackOrderings = map[string]string{
	"created_at": "feedback.created_at",
	"upvotes":    "upvote_count",
	"title":      "feedback.title",
	"status":     "feedback.status",
}

// FeedbackFilter narrows a feedback list
type FeedbackFilter struct {
	Status       string
	FeedbackType string
	BoardID      *uuid.UUID
	TagID        *uuid.UUID
	TagName      string
	Search       string
	// Ordering is one of created_at, upvotes, title, status, optionally prefixed with "-"
	Ordering string
}

// ErrInvalidOrdering is returned for an ordering key outside the accepted set
var ErrInvalidOrdering = errors.New("invalid ordering")

// FeedbackRepository defines the interface for feedback data access
type FeedbackRepository interface {
	Create(ctx context.Context, feedback *domain.Feedback) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Feedback, error)
	ListVisible(ctx context.Context, userID uuid.UUID, filter FeedbackFilter, page Page) ([]*domain.Feedback, int64, error)
	Update(ctx context.Context, feedback *domain.Feedback) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.FeedbackStatus) error
	Delete(ctx context.Context, id uuid.UUID) error
	ReplaceTags(ctx context.Context, feedbackID uuid.UUID, tagIDs []uuid.UUID) error
	ToggleUpvote(ctx context.Context, feedbackID, userID uuid.UUID) (bool, error)
	CountUpvotes(ctx context.Context, feedbackID uuid.UUID) (int64, error)
	UpvotedBy(ctx context.Context, userID uuid.UUID, feedbackIDs []uuid.UUID) (map[uuid.UUID]bool, error)
	Count(ctx context.Context) (int64, error)
}

// feedbackRepositoryImpl is the GORM implementation of FeedbackRepository
type feedbackRepositoryImpl struct {
	db *gorm.DB
}

// NewFeedbackRepository creates a new instance of FeedbackRepository
func NewFeedbackRepository(db *gorm.DB) FeedbackRepository {
	return &feedbackRepositoryImpl{db: db}
}

func (r *feedbackRepositoryImpl) conn(ctx context.Context) *gorm.DB {
	return database.Conn(ctx, r.db)
}

func preloadTags(db *gorm.DB) *gorm.DB {
	return db.Order("tags.name ASC")
}

// Create creates a new feedback item without touching its associations
func (r *feedbackRepositoryImpl) Create(ctx context.Context, feedback *domain.Feedback) error {
	return r.conn(ctx).Omit(clause.Associations).Create(feedback).Error
}

// FindByID finds a feedback item with its board, creator, tags and upvote count
func (r *feedbackRepositoryImpl) FindByID(ctx context.Context, id uuid.UUID) (*domain.Feedback, error) {
	var feedback domain.Feedback
	if err := r.conn(ctx).
		Select(feedbackColumns).
		Preload("Board").
		Preload("CreatedBy").
		Preload("Tags", preloadTags).
		Where("feedback.id = ?", id).
		First(&feedback).Error; err != nil {
		return nil, err
	}
	return &feedback, nil
}

// ListVisible lists feedback on boards that are public or where userID is a member
func (r *feedbackRepositoryImpl) ListVisible(ctx context.Context, userID uuid.UUID, filter FeedbackFilter, page Page) ([]*domain.Feedback, int64, error) {
	order, err := feedbackOrder(filter.Ordering)
	if err != nil {
		return nil, 0, err
	}

	query := r.conn(ctx).Model(&domain.Feedback{}).
		Joins("JOIN boards ON boards.id = feedback.board_id").
		Scopes(visibleTo(userID))

	if filter.Status != "" {
		query = query.Where("feedback.status = ?", filter.Status)
	}
	if filter.FeedbackType != "" {
		query = query.Where("feedback.feedback_type = ?", filter.FeedbackType)
	}
	if filter.BoardID != nil {
		query = query.Where("feedback.board_id = ?", *filter.BoardID)
	}
	if filter.TagID != nil {
		query = query.Where("EXISTS (SELECT 1 FROM feedback_tags ft WHERE ft.feedback_id = feedback.id AND ft.tag_id = ?)", *filter.TagID)
	}
	if filter.TagName != "" {
		query = query.Where("EXISTS (SELECT 1 FROM feedback_tags ft JOIN tags t ON t.id = ft.tag_id WHERE ft.feedback_id = feedback.id AND t.name_key LIKE ?"+likeEscape+")",
			containsPattern(filter.TagName))
	}
	if filter.Search != "" {
		pattern := containsPattern(filter.Search)
		query = query.Where("LOWER(feedback.title) LIKE ?"+likeEscape+" OR LOWER(feedback.description) LIKE ?"+likeEscape, pattern, pattern)
	}

	base := query.Session(&gorm.Session{})

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var items []*domain.Feedback
	if err := base.
		Select(feedbackColumns).
		Preload("CreatedBy").
		Preload("Tags", preloadTags).
		Order(order).
		Order("feedback.id ASC").
		Scopes(paginate(page)).
		Find(&items).Error; err != nil {
		return nil, 0, err
	}

	return items, total, nil
}

// feedbackOrder turns an ordering key into an ORDER BY expression
func feedbackOrder(ordering string) (string, error) {
	if ordering == "" {
		ordering = DefaultFeedbackOrdering
	}
	direction := "ASC"
	key := ordering
	if strings.HasPrefix(ordering, "-") {
		direction = "DESC"
		key = strings.TrimPrefix(ordering, "-")
	}
	column, ok := feedbackOrderings[key]
	if !ok {
		return "", ErrInvalidOrdering
	}
	return column + " " + direction, nil
}

// Update writes the editable feedback fields and bumps updated_at
func (r *feedbackRepositoryImpl) Update(ctx context.Context, feedback *domain.Feedback) error {
	result := r.conn(ctx).Model(&domain.Feedback{}).Where("id = ?", feedback.ID).Updates(map[string]interface{}{
		"board_id":      feedback.BoardID,
		"title":         feedback.Title,
		"description":   feedback.Description,
		"feedback_type": feedback.FeedbackType,
		"status":        feedback.Status,
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// UpdateStatus changes only the status
func (r *feedbackRepositoryImpl) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.FeedbackStatus) error {
	result := r.conn(ctx).Model(&domain.Feedback{}).Where("id = ?", id).Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete removes a feedback item with its comments, tag links and upvotes.
// Run it inside a transaction.
func (r *feedbackRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	db := r.conn(ctx)

	if err := db.Where("feedback_id = ?", id).Delete(&domain.Comment{}).Error; err != nil {
		return err
	}
	if err := db.Where("feedback_id = ?", id).Delete(&domain.FeedbackTag{}).Error; err != nil {
		return err
	}
	if err := db.Where("feedback_id = ?", id).Delete(&domain.Upvote{}).Error; err != nil {
		return err
	}

	result := db.Where("id = ?", id).Delete(&domain.Feedback{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ReplaceTags sets the tag set of a feedback item to exactly tagIDs
func (r *feedbackRepositoryImpl) ReplaceTags(ctx context.Context, feedbackID uuid.UUID, tagIDs []uuid.UUID) error {
	db := r.conn(ctx)

	if err := db.Where("feedback_id = ?", feedbackID).Delete(&domain.FeedbackTag{}).Error; err != nil {
		return err
	}
	if len(tagIDs) == 0 {
		return nil
	}

	links := make([]domain.FeedbackTag, 0, len(tagIDs))
	for _, tagID := range tagIDs {
		links = append(links, domain.FeedbackTag{FeedbackID: feedbackID, TagID: tagID})
	}
	return db.Clauses(clause.OnConflict{DoNothing: true}).Create(&links).Error
}

// ToggleUpvote removes the user's upvote if present, otherwise adds it.
// It returns whether the user has upvoted after the call.
func (r *feedbackRepositoryImpl) ToggleUpvote(ctx context.Context, feedbackID, userID uuid.UUID) (bool, error) {
	db := r.conn(ctx)

	removed := db.Where("feedback_id = ? AND user_id = ?", feedbackID, userID).Delete(&domain.Upvote{})
	if removed.Error != nil {
		return false, removed.Error
	}
	if removed.RowsAffected > 0 {
		return false, nil
	}

	upvote := &domain.Upvote{FeedbackID: feedbackID, UserID: userID, CreatedAt: time.Now().UTC()}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(upvote).Error; err != nil {
		return false, err
	}
	return true, nil
}

// CountUpvotes returns the size of the upvote set
func (r *feedbackRepositoryImpl) CountUpvotes(ctx context.Context, feedbackID uuid.UUID) (int64, error) {
	var count int64
	err := r.conn(ctx).Model(&domain.Upvote{}).Where("feedback_id = ?", feedbackID).Count(&count).Error
	return count, err
}

// UpvotedBy reports which of feedbackIDs the user has upvoted
func (r *feedbackRepositoryImpl) UpvotedBy(ctx context.Context, userID uuid.UUID, feedbackIDs []uuid.UUID) (map[uuid.UUID]bool, error) {
	result := make(map[uuid.UUID]bool, len(feedbackIDs))
	if len(feedbackIDs) == 0 {
		return result, nil
	}

	var upvoted []uuid.UUID
	if err := r.conn(ctx).Model(&domain.Upvote{}).
		Where("user_id = ? AND feedback_id IN ?", userID, feedbackIDs).
		Pluck("feedback_id", &upvoted).Error; err != nil {
		return nil, err
	}
	for _, id := range upvoted {
		result[id] = true
	}
	return result, nil
}

// Count returns the number of feedback items
func (r *feedbackRepositoryImpl) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.conn(ctx).Model(&domain.Feedback{}).Count(&count).Error
	return count, err
}
