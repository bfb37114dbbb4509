package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"feedback-board-api/internal/authz"
	"feedback-board-api/internal/client"
	"feedback-board-api/internal/domain"
	"feedback-board-api/internal/dto"
	"feedback-board-api/internal/metrics"
	"feedback-board-api/internal/repository"
	"feedback-board-api/internal/response"
)

// CommentService defines the interface for comment business logic
type CommentService interface {
	CreateComment(ctx context.Context, caller *authz.Caller, req *dto.CreateCommentRequest) (*dto.CommentResponse, error)
	GetComment(ctx context.Context, caller *authz.Caller, commentID uuid.UUID) (*dto.CommentResponse, error)
	ListComments(ctx context.Context, caller *authz.Caller, query *dto.CommentListQuery) (*dto.PageResponse[dto.CommentResponse], error)
	UpdateComment(ctx context.Context, caller *authz.Caller, commentID uuid.UUID, req *dto.UpdateCommentRequest, partial bool) (*dto.CommentResponse, error)
	DeleteComment(ctx context.Context, caller *authz.Caller, commentID uuid.UUID) error
}

// commentServiceImpl is the implementation of CommentService
type commentServiceImpl struct {
	commentRepo  repository.CommentRepository
	feedbackRepo repository.FeedbackRepository
	boardRepo    repository.BoardRepository
	events       client.EventPublisher
	metrics      *metrics.Metrics
	logger       *zap.Logger
}

// NewCommentService creates a new instance of CommentService
func NewCommentService(
	commentRepo repository.CommentRepository,
	feedbackRepo repository.FeedbackRepository,
	boardRepo repository.BoardRepository,
	events client.EventPublisher,
	m *metrics.Metrics,
	logger *zap.Logger,
) CommentService {
	return &commentServiceImpl{
		commentRepo:  commentRepo,
		feedbackRepo: feedbackRepo,
		boardRepo:    boardRepo,
		events:       events,
		metrics:      m,
		logger:       logger,
	}
}

// CreateComment adds a comment to an existing feedback item
func (s *commentServiceImpl) CreateComment(ctx context.Context, caller *authz.Caller, req *dto.CreateCommentRequest) (*dto.CommentResponse, error) {
	if err := authorize(caller, authz.ActionCreate, authz.Resource{Kind: authz.KindComment}); err != nil {
		return nil, err
	}

	fields := fieldErrors{}
	var feedback *domain.Feedback
	if req.Feedback == nil {
		fields.add("feedback", msgRequired)
	} else {
		found, err := s.feedbackRepo.FindByID(ctx, *req.Feedback)
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			fields.add("feedback", "Invalid pk \""+req.Feedback.String()+"\" - object does not exist.")
		case err != nil:
			return nil, internalError("Failed to load feedback", err)
		}
		feedback = found
	}
	content := strings.TrimSpace(req.Content)
	if content == "" {
		fields.add("content", msgBlank)
	}
	if err := fields.err(); err != nil {
		return nil, err
	}

	authorID := caller.UserID
	comment := &domain.Comment{
		FeedbackID:  feedback.ID,
		CreatedByID: &authorID,
		Content:     content,
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, internalError("Failed to create comment", err)
	}

	s.metrics.IncrementCommentCreated()
	s.logger.Info("Comment created",
		zap.String("comment_id", comment.ID.String()),
		zap.String("feedback_id", feedback.ID.String()),
	)
	publishEvent(ctx, s.events, s.logger, client.Event{
		Type:         client.EventCommentAdded,
		ActorID:      authorID,
		BoardID:      feedback.BoardID,
		ResourceType: "comment",
		ResourceID:   comment.ID,
		ResourceName: feedback.Title,
		Metadata:     map[string]interface{}{"feedbackId": feedback.ID.String()},
	})

	return s.reload(ctx, comment.ID)
}

// loadAuthorized resolves a comment and checks action against its feedback's board and its author
func (s *commentServiceImpl) loadAuthorized(ctx context.Context, caller *authz.Caller, commentID uuid.UUID, action authz.Action) (*domain.Comment, error) {
	comment, err := s.commentRepo.FindByID(ctx, commentID)
	if err != nil {
		return nil, lookupError(err, "Comment")
	}
	feedback, err := s.feedbackRepo.FindByID(ctx, comment.FeedbackID)
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
	res := authz.Resource{Kind: authz.KindComment, OwnerID: comment.CreatedByID, Board: access}
	if err := authorize(caller, action, res); err != nil {
		return nil, err
	}
	return comment, nil
}

func (s *commentServiceImpl) reload(ctx context.Context, commentID uuid.UUID) (*dto.CommentResponse, error) {
	comment, err := s.commentRepo.FindByID(ctx, commentID)
	if err != nil {
		return nil, lookupError(err, "Comment")
	}
	return toCommentResponse(comment), nil
}

// GetComment retrieves a comment on a visible feedback item
func (s *commentServiceImpl) GetComment(ctx context.Context, caller *authz.Caller, commentID uuid.UUID) (*dto.CommentResponse, error) {
	comment, err := s.loadAuthorized(ctx, caller, commentID, authz.ActionRetrieve)
	if err != nil {
		return nil, err
	}
	return toCommentResponse(comment), nil
}

// ListComments lists comments on visible boards, oldest first
func (s *commentServiceImpl) ListComments(ctx context.Context, caller *authz.Caller, query *dto.CommentListQuery) (*dto.PageResponse[dto.CommentResponse], error) {
	if err := authorize(caller, authz.ActionList, authz.Resource{Kind: authz.KindComment}); err != nil {
		return nil, err
	}
	feedbackID, err := parseOptionalID("feedback", query.Feedback)
	if err != nil {
		return nil, err
	}

	page := repository.NewPage(query.Page)
	comments, total, err := s.commentRepo.ListVisible(ctx, caller.UserID, feedbackID, page)
	if err != nil {
		return nil, internalError("Failed to list comments", err)
	}

	results := make([]dto.CommentResponse, 0, len(comments))
	for _, c := range comments {
		results = append(results, *toCommentResponse(c))
	}
	return dto.NewPageResponse(results, total, page.Number, page.Limit()), nil
}

// UpdateComment edits the content. Author or admin, on a visible board.
func (s *commentServiceImpl) UpdateComment(ctx context.Context, caller *authz.Caller, commentID uuid.UUID, req *dto.UpdateCommentRequest, partial bool) (*dto.CommentResponse, error) {
	comment, err := s.loadAuthorized(ctx, caller, commentID, authz.ActionUpdate)
	if err != nil {
		return nil, err
	}

	if req.Content == nil {
		if partial {
			return toCommentResponse(comment), nil
		}
		return nil, response.NewValidationError("content", msgRequired)
	}
	content := strings.TrimSpace(*req.Content)
	if content == "" {
		return nil, response.NewValidationError("content", msgBlank)
	}

	comment.Content = content
	if err := s.commentRepo.Update(ctx, comment); err != nil {
		return nil, passThrough(err, "Failed to update comment")
	}
	return s.reload(ctx, comment.ID)
}

// DeleteComment removes a comment. Author or admin, on a visible board.
func (s *commentServiceImpl) DeleteComment(ctx context.Context, caller *authz.Caller, commentID uuid.UUID) error {
	if _, err := s.loadAuthorized(ctx, caller, commentID, authz.ActionDelete); err != nil {
		return err
	}
	if err := s.commentRepo.Delete(ctx, commentID); err != nil {
		return passThrough(err, "Failed to delete comment")
	}
	s.logger.Info("Comment deleted", zap.String("comment_id", commentID.String()), zap.String("by", caller.UserID.String()))
	return nil
}
