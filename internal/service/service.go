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
	"feedback-board-api/internal/repository"
	"feedback-board-api/internal/response"
)

const (
	msgRequired      = "This field is required."
	msgBlank         = "This field may not be blank."
	msgUnauthorized  = "Authentication credentials were not provided."
	msgForbidden     = "You do not have permission to perform this action."
	msgInvalidFields = "Invalid input."
)

// authorize runs the permission table and converts a denial into an AppError
func authorize(caller *authz.Caller, action authz.Action, res authz.Resource) error {
	err := authz.Authorize(caller, action, res)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, authz.ErrUnauthenticated):
		return response.NewAppError(response.ErrCodeUnauthorized, msgUnauthorized, "")
	default:
		return response.NewAppError(response.ErrCodeForbidden, msgForbidden, "")
	}
}

// boardAccess collects the visibility facts of board for caller
func boardAccess(ctx context.Context, boards repository.BoardRepository, caller *authz.Caller, board *domain.Board) (*authz.BoardAccess, error) {
	access := &authz.BoardAccess{IsPublic: board.IsPublic}
	if caller == nil || board.IsPublic {
		return access, nil
	}
	isMember, err := boards.IsMember(ctx, board.ID, caller.UserID)
	if err != nil {
		return nil, err
	}
	access.CallerIsMember = isMember
	return access, nil
}

// lookupError turns a repository lookup failure into NOT_FOUND or INTERNAL_ERROR
func lookupError(err error, resource string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return response.NewAppError(response.ErrCodeNotFound, resource+" not found", "")
	}
	return internalError("Failed to load "+strings.ToLower(resource), err)
}

func internalError(message string, err error) *response.AppError {
	details := ""
	if err != nil {
		details = err.Error()
	}
	return response.NewAppError(response.ErrCodeInternal, message, details)
}

// passThrough keeps AppErrors raised inside a transaction and wraps anything else
func passThrough(err error, message string) error {
	var appErr *response.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return response.NewAppError(response.ErrCodeNotFound, "Not found", "")
	}
	return internalError(message, err)
}

// fieldErrors accumulates per-field validation messages
type fieldErrors map[string]string

func (f fieldErrors) add(field, message string) {
	if _, exists := f[field]; !exists {
		f[field] = message
	}
}

func (f fieldErrors) err() error {
	if len(f) == 0 {
		return nil
	}
	return response.NewFieldsError(msgInvalidFields, f)
}

func toUserSummary(u *domain.User) *dto.UserSummary {
	if u == nil {
		return nil
	}
	return &dto.UserSummary{ID: u.ID, Username: u.Username, Role: string(u.Role)}
}

func toUserResponse(u *domain.User) *dto.UserResponse {
	return &dto.UserResponse{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		Role:        string(u.Role),
		IsSuperuser: u.IsSuperuser,
		CreatedAt:   u.CreatedAt,
	}
}

func toBoardResponse(b *domain.Board) *dto.BoardResponse {
	members := make([]dto.UserSummary, 0, len(b.Members))
	for i := range b.Members {
		members = append(members, *toUserSummary(&b.Members[i]))
	}
	return &dto.BoardResponse{
		ID:          b.ID,
		Name:        b.Name,
		Description: b.Description,
		IsPublic:    b.IsPublic,
		Members:     members,
		CreatedAt:   b.CreatedAt,
		UpdatedAt:   b.UpdatedAt,
	}
}

func toTagResponse(t *domain.Tag) dto.TagResponse {
	return dto.TagResponse{ID: t.ID, Name: t.Name, CreatedAt: t.CreatedAt}
}

func toFeedbackResponse(f *domain.Feedback, hasUpvoted bool) *dto.FeedbackResponse {
	tags := make([]dto.TagResponse, 0, len(f.Tags))
	for i := range f.Tags {
		tags = append(tags, toTagResponse(&f.Tags[i]))
	}
	resp := &dto.FeedbackResponse{
		ID:           f.ID,
		Board:        f.BoardID,
		CreatedBy:    toUserSummary(f.CreatedBy),
		Title:        f.Title,
		Description:  f.Description,
		FeedbackType: string(f.FeedbackType),
		Status:       string(f.Status),
		Tags:         tags,
		UpvoteCount:  f.UpvoteCount,
		HasUpvoted:   hasUpvoted,
		CreatedAt:    f.CreatedAt,
		UpdatedAt:    f.UpdatedAt,
	}
	if f.Board != nil {
		resp.BoardName = f.Board.Name
	}
	return resp
}

func toCommentResponse(c *domain.Comment) *dto.CommentResponse {
	return &dto.CommentResponse{
		ID:        c.ID,
		Feedback:  c.FeedbackID,
		CreatedBy: toUserSummary(c.CreatedBy),
		Content:   c.Content,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

// parseOptionalID parses a query parameter holding a UUID. An empty value yields nil.
func parseOptionalID(field, raw string) (*uuid.UUID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, response.NewValidationError(field, "“"+raw+"” is not a valid UUID.")
	}
	return &id, nil
}

// publishEvent hands an event to the broker after commit. Failures never fail the operation.
func publishEvent(ctx context.Context, events client.EventPublisher, logger *zap.Logger, event client.Event) {
	if events == nil {
		return
	}
	if err := events.Publish(ctx, event); err != nil {
		logger.Warn("Failed to publish event", zap.String("type", string(event.Type)), zap.Error(err))
	}
}
