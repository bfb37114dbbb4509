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
	"feedback-board-api/internal/client"
	"feedback-board-api/internal/database"
	"feedback-board-api/internal/domain"
	"feedback-board-api/internal/dto"
	"feedback-board-api/internal/metrics"
	"feedback-board-api/internal/repository"
	"feedback-board-api/internal/response"
)

const maxFeedbackTitleLength = 255

// FeedbackService defines the interface for the feedback lifecycle
type FeedbackService interface {
	CreateFeedback(ctx context.Context, caller *authz.Caller, req *dto.FeedbackRequest) (*dto.FeedbackResponse, error)
	GetFeedback(ctx context.Context, caller *authz.Caller, feedbackID uuid.UUID) (*dto.FeedbackResponse, error)
	ListFeedback(ctx context.Context, caller *authz.Caller, query *dto.FeedbackListQuery) (*dto.PageResponse[dto.FeedbackResponse], error)
	// UpdateFeedback applies the supplied fields. With partial=false title and board are required.
	UpdateFeedback(ctx context.Context, caller *authz.Caller, feedbackID uuid.UUID, req *dto.FeedbackRequest, partial bool) (*dto.FeedbackResponse, error)
	DeleteFeedback(ctx context.Context, caller *authz.Caller, feedbackID uuid.UUID) error
	ToggleUpvote(ctx context.Context, caller *authz.Caller, feedbackID uuid.UUID) (*dto.UpvoteResponse, error)
	MoveFeedback(ctx context.Context, caller *authz.Caller, feedbackID uuid.UUID, req *dto.MoveFeedbackRequest) (*dto.FeedbackResponse, error)
}

// feedbackServiceImpl is the implementation of FeedbackService
type feedbackServiceImpl struct {
	feedbackRepo repository.FeedbackRepository
	boardRepo    repository.BoardRepository
	tagRepo      repository.TagRepository
	tx           database.Transactor
	tagCache     *cache.TagCache
	events       client.EventPublisher
	metrics      *metrics.Metrics
	logger       *zap.Logger
}

// NewFeedbackService creates a new instance of FeedbackService
func NewFeedbackService(
	feedbackRepo repository.FeedbackRepository,
	boardRepo repository.BoardRepository,
	tagRepo repository.TagRepository,
	tx database.Transactor,
	tagCache *cache.TagCache,
	events client.EventPublisher,
	m *metrics.Metrics,
	logger *zap.Logger,
) FeedbackService {
	return &feedbackServiceImpl{
		feedbackRepo: feedbackRepo,
		boardRepo:    boardRepo,
		tagRepo:      tagRepo,
		tx:           tx,
		tagCache:     tagCache,
		events:       events,
		metrics:      m,
		logger:       logger,
	}
}

func invalidChoice(value string) string {
	return "\"" + value + "\" is not a valid choice."
}

// resolveBoard checks that a board reference points at an existing board
func (s *feedbackServiceImpl) resolveBoard(ctx context.Context, boardID *uuid.UUID, fields fieldErrors) error {
	if boardID == nil {
		fields.add("board", msgRequired)
		return nil
	}
	if _, err := s.boardRepo.FindByID(ctx, *boardID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			fields.add("board", "Invalid pk \""+boardID.String()+"\" - object does not exist.")
			return nil
		}
		return internalError("Failed to load board", err)
	}
	return nil
}

func validateTitle(title string, fields fieldErrors) string {
	title = strings.TrimSpace(title)
	switch {
	case title == "":
		fields.add("title", msgBlank)
	case utf8.RuneCountInString(title) > maxFeedbackTitleLength:
		fields.add("title", "Ensure this field has no more than 255 characters.")
	}
	return title
}

// CreateFeedback posts a new open feedback item on an existing board
func (s *feedbackServiceImpl) CreateFeedback(ctx context.Context, caller *authz.Caller, req *dto.FeedbackRequest) (*dto.FeedbackResponse, error) {
	if err := authorize(caller, authz.ActionCreate, authz.Resource{Kind: authz.KindFeedback}); err != nil {
		return nil, err
	}

	fields := fieldErrors{}
	if err := s.resolveBoard(ctx, req.Board, fields); err != nil {
		return nil, err
	}
	var title string
	if req.Title == nil {
		fields.add("title", msgRequired)
	} else {
		title = validateTitle(*req.Title, fields)
	}
	feedbackType := domain.FeedbackTypeFeature
	if req.FeedbackType != nil {
		feedbackType = domain.FeedbackType(*req.FeedbackType)
		if !feedbackType.IsValid() {
			fields.add("feedback_type", invalidChoice(*req.FeedbackType))
		}
	}
	if err := fields.err(); err != nil {
		return nil, err
	}

	authorID := caller.UserID
	feedback := &domain.Feedback{
		BoardID:      *req.Board,
		CreatedByID:  &authorID,
		Title:        title,
		FeedbackType: feedbackType,
		Status:       domain.StatusOpen,
	}
	if req.Description != nil {
		feedback.Description = *req.Description
	}

	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.feedbackRepo.Create(ctx, feedback); err != nil {
			return err
		}
		return s.replaceTags(ctx, feedback.ID, req)
	})
	if err != nil {
		return nil, passThrough(err, "Failed to create feedback")
	}
	if len(req.TagNames) > 0 {
		s.tagCache.Invalidate(ctx)
	}

	s.metrics.IncrementFeedbackCreated()
	s.logger.Info("Feedback created",
		zap.String("feedback_id", feedback.ID.String()),
		zap.String("board_id", feedback.BoardID.String()),
		zap.String("created_by", authorID.String()),
	)
	publishEvent(ctx, s.events, s.logger, client.Event{
		Type:         client.EventFeedbackCreated,
		ActorID:      authorID,
		BoardID:      feedback.BoardID,
		ResourceType: "feedback",
		ResourceID:   feedback.ID,
		ResourceName: feedback.Title,
		Metadata:     map[string]interface{}{"feedbackType": string(feedbackType)},
	})

	return s.reload(ctx, caller, feedback.ID)
}

// replaceTags sets the tag set to exactly the resolved request tags when the request supplies any
func (s *feedbackServiceImpl) replaceTags(ctx context.Context, feedbackID uuid.UUID, req *dto.FeedbackRequest) error {
	if !req.TagsSupplied() {
		return nil
	}
	tagIDs, err := resolveTags(ctx, s.tagRepo, req.TagIDs, req.TagNames)
	if err != nil {
		return err
	}
	return s.feedbackRepo.ReplaceTags(ctx, feedbackID, tagIDs)
}

// loadAuthorized resolves a feedback item and checks action against its board and owner
func (s *feedbackServiceImpl) loadAuthorized(ctx context.Context, caller *authz.Caller, feedbackID uuid.UUID, action authz.Action) (*domain.Feedback, error) {
	feedback, err := s.feedbackRepo.FindByID(ctx, feedbackID)
	if err != nil {
		return nil, lookupError(err, "Feedback")
	}
	board := feedback.Board
	if board == nil {
		if board, err = s.boardRepo.FindByID(ctx, feedback.BoardID); err != nil {
			return nil, lookupError(err, "Board")
		}
	}
	access, err := boardAccess(ctx, s.boardRepo, caller, board)
	if err != nil {
		return nil, internalError("Failed to check membership", err)
	}
	res := authz.Resource{Kind: authz.KindFeedback, OwnerID: feedback.CreatedByID, Board: access}
	if err := authorize(caller, action, res); err != nil {
		return nil, err
	}
	return feedback, nil
}

// reload re-reads a feedback item with its derived upvote count and the caller's upvote state
func (s *feedbackServiceImpl) reload(ctx context.Context, caller *authz.Caller, feedbackID uuid.UUID) (*dto.FeedbackResponse, error) {
	feedback, err := s.feedbackRepo.FindByID(ctx, feedbackID)
	if err != nil {
		return nil, lookupError(err, "Feedback")
	}
	return s.toResponse(ctx, caller, feedback)
}

func (s *feedbackServiceImpl) toResponse(ctx context.Context, caller *authz.Caller, feedback *domain.Feedback) (*dto.FeedbackResponse, error) {
	hasUpvoted := false
	if caller != nil {
		upvoted, err := s.feedbackRepo.UpvotedBy(ctx, caller.UserID, []uuid.UUID{feedback.ID})
		if err != nil {
			return nil, internalError("Failed to load upvotes", err)
		}
		hasUpvoted = upvoted[feedback.ID]
	}
	return toFeedbackResponse(feedback, hasUpvoted), nil
}

// GetFeedback retrieves a feedback item on a board the caller can see
func (s *feedbackServiceImpl) GetFeedback(ctx context.Context, caller *authz.Caller, feedbackID uuid.UUID) (*dto.FeedbackResponse, error) {
	feedback, err := s.loadAuthorized(ctx, caller, feedbackID, authz.ActionRetrieve)
	if err != nil {
		return nil, err
	}
	return s.toResponse(ctx, caller, feedback)
}

// ListFeedback lists feedback on visible boards, filtered and ordered per query
func (s *feedbackServiceImpl) ListFeedback(ctx context.Context, caller *authz.Caller, query *dto.FeedbackListQuery) (*dto.PageResponse[dto.FeedbackResponse], error) {
	if err := authorize(caller, authz.ActionList, authz.Resource{Kind: authz.KindFeedback}); err != nil {
		return nil, err
	}

	boardID, err := parseOptionalID("board", query.Board)
	if err != nil {
		return nil, err
	}
	tagID, err := parseOptionalID("tags", query.Tags)
	if err != nil {
		return nil, err
	}

	filter := repository.FeedbackFilter{
		Status:       strings.TrimSpace(query.Status),
		FeedbackType: strings.TrimSpace(query.FeedbackType),
		BoardID:      boardID,
		TagID:        tagID,
		TagName:      query.TagName,
		Search:       query.Search,
		Ordering:     strings.TrimSpace(query.Ordering),
	}
	if filter.Status != "" && !domain.FeedbackStatus(filter.Status).IsValid() {
		return nil, response.NewValidationError("status", "Select a valid choice. "+filter.Status+" is not one of the available choices.")
	}
	if filter.FeedbackType != "" && !domain.FeedbackType(filter.FeedbackType).IsValid() {
		return nil, response.NewValidationError("feedback_type", "Select a valid choice. "+filter.FeedbackType+" is not one of the available choices.")
	}

	page := repository.NewPage(query.Page)
	items, total, err := s.feedbackRepo.ListVisible(ctx, caller.UserID, filter, page)
	if err != nil {
		if errors.Is(err, repository.ErrInvalidOrdering) {
			return nil, response.NewValidationError("ordering", "Ordering must be one of created_at, upvotes, title, status, optionally prefixed with -.")
		}
		return nil, internalError("Failed to list feedback", err)
	}

	ids := make([]uuid.UUID, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ID)
	}
	upvoted, err := s.feedbackRepo.UpvotedBy(ctx, caller.UserID, ids)
	if err != nil {
		return nil, internalError("Failed to load upvotes", err)
	}

	results := make([]dto.FeedbackResponse, 0, len(items))
	for _, it := range items {
		results = append(results, *toFeedbackResponse(it, upvoted[it.ID]))
	}
	return dto.NewPageResponse(results, total, page.Number, page.Limit()), nil
}

// UpdateFeedback edits a feedback item. Owner or admin, on a visible board.
func (s *feedbackServiceImpl) UpdateFeedback(ctx context.Context, caller *authz.Caller, feedbackID uuid.UUID, req *dto.FeedbackRequest, partial bool) (*dto.FeedbackResponse, error) {
	feedback, err := s.loadAuthorized(ctx, caller, feedbackID, authz.ActionUpdate)
	if err != nil {
		return nil, err
	}
	previousStatus := feedback.Status

	fields := fieldErrors{}
	if req.Board != nil || !partial {
		if err := s.resolveBoard(ctx, req.Board, fields); err != nil {
			return nil, err
		}
		if req.Board != nil {
			feedback.BoardID = *req.Board
		}
	}
	if req.Title != nil {
		feedback.Title = validateTitle(*req.Title, fields)
	} else if !partial {
		fields.add("title", msgRequired)
	}
	if req.Description != nil {
		feedback.Description = *req.Description
	}
	if req.FeedbackType != nil {
		feedback.FeedbackType = domain.FeedbackType(*req.FeedbackType)
		if !feedback.FeedbackType.IsValid() {
			fields.add("feedback_type", invalidChoice(*req.FeedbackType))
		}
	}
	if req.Status != nil {
		feedback.Status = domain.FeedbackStatus(*req.Status)
		if !feedback.Status.IsValid() {
			fields.add("status", invalidChoice(*req.Status))
		}
	}
	if err := fields.err(); err != nil {
		return nil, err
	}

	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.feedbackRepo.Update(ctx, feedback); err != nil {
			return err
		}
		return s.replaceTags(ctx, feedback.ID, req)
	})
	if err != nil {
		return nil, passThrough(err, "Failed to update feedback")
	}
	if len(req.TagNames) > 0 {
		s.tagCache.Invalidate(ctx)
	}
	if feedback.Status != previousStatus {
		s.statusChanged(ctx, caller, feedback, previousStatus)
	}

	return s.reload(ctx, caller, feedback.ID)
}

// DeleteFeedback removes a feedback item with its comments, tag links and upvotes
func (s *feedbackServiceImpl) DeleteFeedback(ctx context.Context, caller *authz.Caller, feedbackID uuid.UUID) error {
	if _, err := s.loadAuthorized(ctx, caller, feedbackID, authz.ActionDelete); err != nil {
		return err
	}
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		return s.feedbackRepo.Delete(ctx, feedbackID)
	})
	if err != nil {
		return passThrough(err, "Failed to delete feedback")
	}
	s.logger.Info("Feedback deleted", zap.String("feedback_id", feedbackID.String()), zap.String("by", caller.UserID.String()))
	return nil
}

// ToggleUpvote adds the caller's upvote, or removes it when already present.
// Two racing toggles by the same user settle on whichever write lands last.
func (s *feedbackServiceImpl) ToggleUpvote(ctx context.Context, caller *authz.Caller, feedbackID uuid.UUID) (*dto.UpvoteResponse, error) {
	if _, err := s.loadAuthorized(ctx, caller, feedbackID, authz.ActionUpvote); err != nil {
		return nil, err
	}

	var resp dto.UpvoteResponse
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		upvoted, err := s.feedbackRepo.ToggleUpvote(ctx, feedbackID, caller.UserID)
		if err != nil {
			return err
		}
		count, err := s.feedbackRepo.CountUpvotes(ctx, feedbackID)
		if err != nil {
			return err
		}
		resp = dto.UpvoteResponse{Upvoted: upvoted, UpvoteCount: count}
		return nil
	})
	if err != nil {
		return nil, passThrough(err, "Failed to toggle upvote")
	}

	s.metrics.RecordUpvoteToggle(resp.Upvoted)
	return &resp, nil
}

// MoveFeedback sets the workflow status. Admin only; any status may follow any other.
func (s *feedbackServiceImpl) MoveFeedback(ctx context.Context, caller *authz.Caller, feedbackID uuid.UUID, req *dto.MoveFeedbackRequest) (*dto.FeedbackResponse, error) {
	feedback, err := s.loadAuthorized(ctx, caller, feedbackID, authz.ActionMove)
	if err != nil {
		return nil, err
	}

	status := domain.FeedbackStatus(strings.TrimSpace(req.Status))
	if !status.IsValid() {
		return nil, response.NewValidationError("status", "Invalid status.")
	}

	previous := feedback.Status
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		return s.feedbackRepo.UpdateStatus(ctx, feedbackID, status)
	})
	if err != nil {
		return nil, passThrough(err, "Failed to move feedback")
	}

	s.metrics.RecordFeedbackMoved(string(status))
	if status != previous {
		feedback.Status = status
		s.statusChanged(ctx, caller, feedback, previous)
	}
	return s.reload(ctx, caller, feedbackID)
}

func (s *feedbackServiceImpl) statusChanged(ctx context.Context, caller *authz.Caller, feedback *domain.Feedback, from domain.FeedbackStatus) {
	s.logger.Info("Feedback status changed",
		zap.String("feedback_id", feedback.ID.String()),
		zap.String("from", string(from)),
		zap.String("to", string(feedback.Status)),
	)
	publishEvent(ctx, s.events, s.logger, client.Event{
		Type:         client.EventFeedbackStatusChanged,
		ActorID:      caller.UserID,
		BoardID:      feedback.BoardID,
		ResourceType: "feedback",
		ResourceID:   feedback.ID,
		ResourceName: feedback.Title,
		Metadata:     map[string]interface{}{"from": string(from), "to": string(feedback.Status)},
	})
}
