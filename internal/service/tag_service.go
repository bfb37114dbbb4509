package service

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"feedback-board-api/internal/authz"
	"feedback-board-api/internal/cache"
	"feedback-board-api/internal/database"
	"feedback-board-api/internal/domain"
	"feedback-board-api/internal/dto"
	"feedback-board-api/internal/repository"
	"feedback-board-api/internal/response"
)

const (
	maxTagNameLength = 50
	msgTagExists     = "tag with this name already exists."
)

// TagService defines the interface for tag business logic
type TagService interface {
	CreateTag(ctx context.Context, caller *authz.Caller, req *dto.TagRequest) (*dto.TagResponse, error)
	GetTag(ctx context.Context, caller *authz.Caller, tagID uuid.UUID) (*dto.TagResponse, error)
	ListTags(ctx context.Context, caller *authz.Caller, query *dto.TagListQuery) (*dto.PageResponse[dto.TagResponse], error)
	UpdateTag(ctx context.Context, caller *authz.Caller, tagID uuid.UUID, req *dto.TagRequest) (*dto.TagResponse, error)
	DeleteTag(ctx context.Context, caller *authz.Caller, tagID uuid.UUID) error
}

// tagServiceImpl is the implementation of TagService
type tagServiceImpl struct {
	tagRepo repository.TagRepository
	tx      database.Transactor
	cache   *cache.TagCache
	logger  *zap.Logger
}

// NewTagService creates a new instance of TagService. tagCache may be nil.
func NewTagService(tagRepo repository.TagRepository, tx database.Transactor, tagCache *cache.TagCache, logger *zap.Logger) TagService {
	return &tagServiceImpl{
		tagRepo: tagRepo,
		tx:      tx,
		cache:   tagCache,
		logger:  logger,
	}
}

func validateTagName(name string) (string, error) {
	name = strings.TrimSpace(name)
	switch {
	case name == "":
		return "", response.NewValidationError("name", msgBlank)
	case utf8.RuneCountInString(name) > maxTagNameLength:
		return "", response.NewValidationError("name", "Ensure this field has no more than 50 characters.")
	}
	return name, nil
}

func tagExistsError() error {
	return &response.AppError{
		Code:    response.ErrCodeAlreadyExists,
		Message: msgTagExists,
		Fields:  map[string]string{"name": msgTagExists},
	}
}

// CreateTag creates a tag. A name matching an existing tag ignoring case is a conflict.
func (s *tagServiceImpl) CreateTag(ctx context.Context, caller *authz.Caller, req *dto.TagRequest) (*dto.TagResponse, error) {
	if err := authorize(caller, authz.ActionCreate, authz.Resource{Kind: authz.KindTag}); err != nil {
		return nil, err
	}
	name, err := validateTagName(req.Name)
	if err != nil {
		return nil, err
	}

	tag := &domain.Tag{Name: name}
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.tagRepo.FindByName(ctx, name); err == nil {
			return tagExistsError()
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		return s.tagRepo.Create(ctx, tag)
	})
	if err != nil {
		// the unique index caught a concurrent insert of the same name
		if _, findErr := s.tagRepo.FindByName(ctx, name); findErr == nil {
			return nil, tagExistsError()
		}
		return nil, passThrough(err, "Failed to create tag")
	}

	s.cache.Invalidate(ctx)
	resp := toTagResponse(tag)
	return &resp, nil
}

// GetTag retrieves a tag. Anonymous callers are allowed.
func (s *tagServiceImpl) GetTag(ctx context.Context, caller *authz.Caller, tagID uuid.UUID) (*dto.TagResponse, error) {
	if err := authorize(caller, authz.ActionRetrieve, authz.Resource{Kind: authz.KindTag}); err != nil {
		return nil, err
	}
	tag, err := s.tagRepo.FindByID(ctx, tagID)
	if err != nil {
		return nil, lookupError(err, "Tag")
	}
	resp := toTagResponse(tag)
	return &resp, nil
}

// ListTags lists tags alphabetically, served from the cache when possible
func (s *tagServiceImpl) ListTags(ctx context.Context, caller *authz.Caller, query *dto.TagListQuery) (*dto.PageResponse[dto.TagResponse], error) {
	if err := authorize(caller, authz.ActionList, authz.Resource{Kind: authz.KindTag}); err != nil {
		return nil, err
	}

	page := repository.NewPage(query.Page)
	search := strings.TrimSpace(query.Search)
	if cached, ok := s.cache.GetPage(ctx, search, page.Number); ok {
		return cached, nil
	}

	tags, total, err := s.tagRepo.List(ctx, search, page)
	if err != nil {
		return nil, internalError("Failed to list tags", err)
	}
	results := make([]dto.TagResponse, 0, len(tags))
	for _, t := range tags {
		results = append(results, toTagResponse(t))
	}
	resp := dto.NewPageResponse(results, total, page.Number, page.Limit())
	s.cache.SetPage(ctx, search, page.Number, resp)
	return resp, nil
}

// UpdateTag renames a tag. Admin only. Renaming onto another tag's name is a conflict.
func (s *tagServiceImpl) UpdateTag(ctx context.Context, caller *authz.Caller, tagID uuid.UUID, req *dto.TagRequest) (*dto.TagResponse, error) {
	// the rule does not depend on the tag, so known and unknown ids are refused alike
	if err := authorize(caller, authz.ActionUpdate, authz.Resource{Kind: authz.KindTag}); err != nil {
		return nil, err
	}
	tag, err := s.tagRepo.FindByID(ctx, tagID)
	if err != nil {
		return nil, lookupError(err, "Tag")
	}
	name, err := validateTagName(req.Name)
	if err != nil {
		return nil, err
	}

	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		other, err := s.tagRepo.FindByName(ctx, name)
		if err == nil && other.ID != tag.ID {
			return tagExistsError()
		} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		tag.Name = name
		return s.tagRepo.Update(ctx, tag)
	})
	if err != nil {
		return nil, passThrough(err, "Failed to update tag")
	}

	s.cache.Invalidate(ctx)
	updated, err := s.tagRepo.FindByID(ctx, tagID)
	if err != nil {
		return nil, lookupError(err, "Tag")
	}
	resp := toTagResponse(updated)
	return &resp, nil
}

// DeleteTag removes a tag and detaches it from every feedback item. Admin only.
func (s *tagServiceImpl) DeleteTag(ctx context.Context, caller *authz.Caller, tagID uuid.UUID) error {
	if err := authorize(caller, authz.ActionDelete, authz.Resource{Kind: authz.KindTag}); err != nil {
		return err
	}
	if _, err := s.tagRepo.FindByID(ctx, tagID); err != nil {
		return lookupError(err, "Tag")
	}

	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		return s.tagRepo.Delete(ctx, tagID)
	})
	if err != nil {
		return passThrough(err, "Failed to delete tag")
	}
	s.cache.Invalidate(ctx)
	return nil
}

// normalizeTagNames trims names, drops blanks and keeps the first spelling of each
// case-insensitive duplicate, preserving input order
func normalizeTagNames(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, raw := range names {
		name := strings.TrimSpace(raw)
		if name == "" {
			continue
		}
		key := domain.TagKey(name)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, name)
	}
	return out
}

// resolveTags turns explicit tag ids and free-text names into one de-duplicated id set.
// Every id must exist; names are fetched or created. Must run inside the caller's transaction.
func resolveTags(ctx context.Context, tagRepo repository.TagRepository, ids []uuid.UUID, names []string) ([]uuid.UUID, error) {
	seen := make(map[uuid.UUID]struct{}, len(ids)+len(names))
	resolved := make([]uuid.UUID, 0, len(ids)+len(names))
	appendID := func(id uuid.UUID) {
		if _, dup := seen[id]; dup {
			return
		}
		seen[id] = struct{}{}
		resolved = append(resolved, id)
	}

	if len(ids) > 0 {
		found, err := tagRepo.FindByIDs(ctx, ids)
		if err != nil {
			return nil, err
		}
		existing := make(map[uuid.UUID]struct{}, len(found))
		for _, t := range found {
			existing[t.ID] = struct{}{}
		}
		for _, id := range ids {
			if _, ok := existing[id]; !ok {
				return nil, response.NewValidationError("tag_ids", "Invalid pk \""+id.String()+"\" - object does not exist.")
			}
			appendID(id)
		}
	}

	for _, name := range normalizeTagNames(names) {
		if utf8.RuneCountInString(name) > maxTagNameLength {
			return nil, response.NewValidationError("tag_names", "Ensure each tag name has no more than 50 characters.")
		}
		tag, err := tagRepo.GetOrCreate(ctx, name)
		if err != nil {
			return nil, err
		}
		appendID(tag.ID)
	}
	return resolved, nil
}
