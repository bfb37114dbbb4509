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

// TagRepository defines the interface for tag data access
type TagRepository interface {
	Create(ctx context.Context, tag *domain.Tag) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Tag, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.Tag, error)
	FindByName(ctx context.Context, name string) (*domain.Tag, error)
	GetOrCreate(ctx context.Context, name string) (*domain.Tag, error)
	List(ctx context.Context, search string, page Page) ([]*domain.Tag, int64, error)
	Update(ctx context.Context, tag *domain.Tag) error
	Delete(ctx context.Context, id uuid.UUID) error
	Count(ctx context.Context) (int64, error)
}

// tagRepositoryImpl is the GORM implementation of TagRepository
type tagRepositoryImpl struct {
	db *gorm.DB
}

// NewTagRepository creates a new instance of TagRepository
func NewTagRepository(db *gorm.DB) TagRepository {
	return &tagRepositoryImpl{db: db}
}

func (r *tagRepositoryImpl) conn(ctx context.Context) *gorm.DB {
	return database.Conn(ctx, r.db)
}

// Create creates a new tag
func (r *tagRepositoryImpl) Create(ctx context.Context, tag *domain.Tag) error {
	return r.conn(ctx).Create(tag).Error
}

// FindByID finds a tag by ID
func (r *tagRepositoryImpl) FindByID(ctx context.Context, id uuid.UUID) (*domain.Tag, error) {
	var tag domain.Tag
	if err := r.conn(ctx).Where("id = ?", id).First(&tag).Error; err != nil {
		return nil, err
	}
	return &tag, nil
}

// FindByIDs finds the tags among ids that exist
func (r *tagRepositoryImpl) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.Tag, error) {
	var tags []*domain.Tag
	if len(ids) == 0 {
		return tags, nil
	}
	if err := r.conn(ctx).Where("id IN ?", ids).Find(&tags).Error; err != nil {
		return nil, err
	}
	return tags, nil
}

// FindByName finds a tag by name, ignoring case
func (r *tagRepositoryImpl) FindByName(ctx context.Context, name string) (*domain.Tag, error) {
	var tag domain.Tag
	if err := r.conn(ctx).Where("name_key = ?", domain.TagKey(name)).First(&tag).Error; err != nil {
		return nil, err
	}
	return &tag, nil
}

// GetOrCreate returns the tag whose name matches ignoring case, creating it with the
// given spelling when absent. A concurrent insert of the same name resolves to the stored row.
func (r *tagRepositoryImpl) GetOrCreate(ctx context.Context, name string) (*domain.Tag, error) {
	existing, err := r.FindByName(ctx, name)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	tag := &domain.Tag{Name: strings.TrimSpace(name)}
	if err := r.conn(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "name_key"}}, DoNothing: true}).
		Create(tag).Error; err != nil {
		return nil, err
	}

	// the insert may have been skipped by a concurrent writer, so read back what is stored
	return r.FindByName(ctx, name)
}

// List lists tags by name, optionally narrowed by a case-insensitive substring
func (r *tagRepositoryImpl) List(ctx context.Context, search string, page Page) ([]*domain.Tag, int64, error) {
	query := r.conn(ctx).Model(&domain.Tag{})
	if search != "" {
		query = query.Where("name_key LIKE ?"+likeEscape, containsPattern(search))
	}

	base := query.Session(&gorm.Session{})

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var tags []*domain.Tag
	if err := base.Order("name_key ASC").Scopes(paginate(page)).Find(&tags).Error; err != nil {
		return nil, 0, err
	}
	return tags, total, nil
}

// Update renames a tag
func (r *tagRepositoryImpl) Update(ctx context.Context, tag *domain.Tag) error {
	result := r.conn(ctx).Model(&domain.Tag{}).Where("id = ?", tag.ID).UpdateColumns(map[string]interface{}{
		"name":       strings.TrimSpace(tag.Name),
		"name_key":   domain.TagKey(tag.Name),
		"updated_at": time.Now().UTC(),
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete removes a tag and its links to feedback. Run it inside a transaction.
func (r *tagRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	db := r.conn(ctx)
	if err := db.Where("tag_id = ?", id).Delete(&domain.FeedbackTag{}).Error; err != nil {
		return err
	}
	result := db.Where("id = ?", id).Delete(&domain.Tag{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Count returns the number of tags
func (r *tagRepositoryImpl) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.conn(ctx).Model(&domain.Tag{}).Count(&count).Error
	return count, err
}
