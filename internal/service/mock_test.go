package service

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"feedback-board-api/internal/authz"
	"feedback-board-api/internal/client"
	"feedback-board-api/internal/domain"
	"feedback-board-api/internal/repository"
)

// MockUserRepository is a mock implementation of UserRepository
type MockUserRepository struct {
	CreateFunc           func(ctx context.Context, user *domain.User) error
	FindByIDFunc         func(ctx context.Context, id uuid.UUID) (*domain.User, error)
	FindByUsernameFunc   func(ctx context.Context, username string) (*domain.User, error)
	ExistsByUsernameFunc func(ctx context.Context, username string) (bool, error)
	UpdateRoleFunc       func(ctx context.Context, id uuid.UUID, role domain.Role) error
	DeleteFunc           func(ctx context.Context, id uuid.UUID) error
}

func (m *MockUserRepository) Create(ctx context.Context, user *domain.User) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, user)
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	return nil
}

func (m *MockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, id)
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *MockUserRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	if m.FindByUsernameFunc != nil {
		return m.FindByUsernameFunc(ctx, username)
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *MockUserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	if m.ExistsByUsernameFunc != nil {
		return m.ExistsByUsernameFunc(ctx, username)
	}
	return false, nil
}

func (m *MockUserRepository) UpdateRole(ctx context.Context, id uuid.UUID, role domain.Role) error {
	if m.UpdateRoleFunc != nil {
		return m.UpdateRoleFunc(ctx, id, role)
	}
	return nil
}

func (m *MockUserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

func (m *MockUserRepository) Count(ctx context.Context) (int64, error) {
	return 0, nil
}

// MockBoardRepository is a mock implementation of BoardRepository
type MockBoardRepository struct {
	CreateFunc      func(ctx context.Context, board *domain.Board) error
	FindByIDFunc    func(ctx context.Context, id uuid.UUID) (*domain.Board, error)
	ListVisibleFunc func(ctx context.Context, userID uuid.UUID, filter repository.BoardFilter, page repository.Page) ([]*domain.Board, int64, error)
	UpdateFunc      func(ctx context.Context, board *domain.Board) error
	DeleteFunc      func(ctx context.Context, id uuid.UUID) error
	AddMemberFunc   func(ctx context.Context, boardID, userID uuid.UUID) (bool, error)
	IsMemberFunc    func(ctx context.Context, boardID, userID uuid.UUID) (bool, error)
}

func (m *MockBoardRepository) Create(ctx context.Context, board *domain.Board) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, board)
	}
	if board.ID == uuid.Nil {
		board.ID = uuid.New()
	}
	return nil
}

func (m *MockBoardRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Board, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, id)
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *MockBoardRepository) ListVisible(ctx context.Context, userID uuid.UUID, filter repository.BoardFilter, page repository.Page) ([]*domain.Board, int64, error) {
	if m.ListVisibleFunc != nil {
		return m.ListVisibleFunc(ctx, userID, filter, page)
	}
	return nil, 0, nil
}

func (m *MockBoardRepository) Update(ctx context.Context, board *domain.Board) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, board)
	}
	return nil
}

func (m *MockBoardRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

func (m *MockBoardRepository) AddMember(ctx context.Context, boardID, userID uuid.UUID) (bool, error) {
	if m.AddMemberFunc != nil {
		return m.AddMemberFunc(ctx, boardID, userID)
	}
	return true, nil
}

func (m *MockBoardRepository) IsMember(ctx context.Context, boardID, userID uuid.UUID) (bool, error) {
	if m.IsMemberFunc != nil {
		return m.IsMemberFunc(ctx, boardID, userID)
	}
	return false, nil
}

func (m *MockBoardRepository) Count(ctx context.Context) (int64, error) {
	return 0, nil
}

// MockFeedbackRepository is a mock implementation of FeedbackRepository
type MockFeedbackRepository struct {
	CreateFunc       func(ctx context.Context, feedback *domain.Feedback) error
	FindByIDFunc     func(ctx context.Context, id uuid.UUID) (*domain.Feedback, error)
	ListVisibleFunc  func(ctx context.Context, userID uuid.UUID, filter repository.FeedbackFilter, page repository.Page) ([]*domain.Feedback, int64, error)
	UpdateFunc       func(ctx context.Context, feedback *domain.Feedback) error
	UpdateStatusFunc func(ctx context.Context, id uuid.UUID, status domain.FeedbackStatus) error
	DeleteFunc       func(ctx context.Context, id uuid.UUID) error
	ReplaceTagsFunc  func(ctx context.Context, feedbackID uuid.UUID, tagIDs []uuid.UUID) error
	ToggleUpvoteFunc func(ctx context.Context, feedbackID, userID uuid.UUID) (bool, error)
	CountUpvotesFunc func(ctx context.Context, feedbackID uuid.UUID) (int64, error)
	UpvotedByFunc    func(ctx context.Context, userID uuid.UUID, feedbackIDs []uuid.UUID) (map[uuid.UUID]bool, error)
}

func (m *MockFeedbackRepository) Create(ctx context.Context, feedback *domain.Feedback) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, feedback)
	}
	if feedback.ID == uuid.Nil {
		feedback.ID = uuid.New()
	}
	return nil
}

func (m *MockFeedbackRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Feedback, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, id)
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *MockFeedbackRepository) ListVisible(ctx context.Context, userID uuid.UUID, filter repository.FeedbackFilter, page repository.Page) ([]*domain.Feedback, int64, error) {
	if m.ListVisibleFunc != nil {
		return m.ListVisibleFunc(ctx, userID, filter, page)
	}
	return nil, 0, nil
}

func (m *MockFeedbackRepository) Update(ctx context.Context, feedback *domain.Feedback) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, feedback)
	}
	return nil
}

func (m *MockFeedbackRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.FeedbackStatus) error {
	if m.UpdateStatusFunc != nil {
		return m.UpdateStatusFunc(ctx, id, status)
	}
	return nil
}

func (m *MockFeedbackRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

func (m *MockFeedbackRepository) ReplaceTags(ctx context.Context, feedbackID uuid.UUID, tagIDs []uuid.UUID) error {
	if m.ReplaceTagsFunc != nil {
		return m.ReplaceTagsFunc(ctx, feedbackID, tagIDs)
	}
	return nil
}

func (m *MockFeedbackRepository) ToggleUpvote(ctx context.Context, feedbackID, userID uuid.UUID) (bool, error) {
	if m.ToggleUpvoteFunc != nil {
		return m.ToggleUpvoteFunc(ctx, feedbackID, userID)
	}
	return true, nil
}

func (m *MockFeedbackRepository) CountUpvotes(ctx context.Context, feedbackID uuid.UUID) (int64, error) {
	if m.CountUpvotesFunc != nil {
		return m.CountUpvotesFunc(ctx, feedbackID)
	}
	return 0, nil
}

func (m *MockFeedbackRepository) UpvotedBy(ctx context.Context, userID uuid.UUID, feedbackIDs []uuid.UUID) (map[uuid.UUID]bool, error) {
	if m.UpvotedByFunc != nil {
		return m.UpvotedByFunc(ctx, userID, feedbackIDs)
	}
	return map[uuid.UUID]bool{}, nil
}

func (m *MockFeedbackRepository) Count(ctx context.Context) (int64, error) {
	return 0, nil
}

// MockTagRepository is a mock implementation of TagRepository
type MockTagRepository struct {
	CreateFunc      func(ctx context.Context, tag *domain.Tag) error
	FindByIDFunc    func(ctx context.Context, id uuid.UUID) (*domain.Tag, error)
	FindByIDsFunc   func(ctx context.Context, ids []uuid.UUID) ([]*domain.Tag, error)
	FindByNameFunc  func(ctx context.Context, name string) (*domain.Tag, error)
	GetOrCreateFunc func(ctx context.Context, name string) (*domain.Tag, error)
	ListFunc        func(ctx context.Context, search string, page repository.Page) ([]*domain.Tag, int64, error)
	UpdateFunc      func(ctx context.Context, tag *domain.Tag) error
	DeleteFunc      func(ctx context.Context, id uuid.UUID) error
}

func (m *MockTagRepository) Create(ctx context.Context, tag *domain.Tag) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tag)
	}
	if tag.ID == uuid.Nil {
		tag.ID = uuid.New()
	}
	return nil
}

func (m *MockTagRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Tag, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, id)
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *MockTagRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.Tag, error) {
	if m.FindByIDsFunc != nil {
		return m.FindByIDsFunc(ctx, ids)
	}
	return nil, nil
}

func (m *MockTagRepository) FindByName(ctx context.Context, name string) (*domain.Tag, error) {
	if m.FindByNameFunc != nil {
		return m.FindByNameFunc(ctx, name)
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *MockTagRepository) GetOrCreate(ctx context.Context, name string) (*domain.Tag, error) {
	if m.GetOrCreateFunc != nil {
		return m.GetOrCreateFunc(ctx, name)
	}
	return &domain.Tag{BaseModel: domain.BaseModel{ID: uuid.New()}, Name: name, NameKey: domain.TagKey(name)}, nil
}

func (m *MockTagRepository) List(ctx context.Context, search string, page repository.Page) ([]*domain.Tag, int64, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, search, page)
	}
	return nil, 0, nil
}

func (m *MockTagRepository) Update(ctx context.Context, tag *domain.Tag) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, tag)
	}
	return nil
}

func (m *MockTagRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

func (m *MockTagRepository) Count(ctx context.Context) (int64, error) {
	return 0, nil
}

// MockCommentRepository is a mock implementation of CommentRepository
type MockCommentRepository struct {
	CreateFunc      func(ctx context.Context, comment *domain.Comment) error
	FindByIDFunc    func(ctx context.Context, id uuid.UUID) (*domain.Comment, error)
	ListVisibleFunc func(ctx context.Context, userID uuid.UUID, feedbackID *uuid.UUID, page repository.Page) ([]*domain.Comment, int64, error)
	UpdateFunc      func(ctx context.Context, comment *domain.Comment) error
	DeleteFunc      func(ctx context.Context, id uuid.UUID) error
}

func (m *MockCommentRepository) Create(ctx context.Context, comment *domain.Comment) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, comment)
	}
	if comment.ID == uuid.Nil {
		comment.ID = uuid.New()
	}
	return nil
}

func (m *MockCommentRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Comment, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, id)
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *MockCommentRepository) ListVisible(ctx context.Context, userID uuid.UUID, feedbackID *uuid.UUID, page repository.Page) ([]*domain.Comment, int64, error) {
	if m.ListVisibleFunc != nil {
		return m.ListVisibleFunc(ctx, userID, feedbackID, page)
	}
	return nil, 0, nil
}

func (m *MockCommentRepository) Update(ctx context.Context, comment *domain.Comment) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, comment)
	}
	return nil
}

func (m *MockCommentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

// fakeTransactor runs fn directly and counts calls
type fakeTransactor struct {
	calls int
}

func (f *fakeTransactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	f.calls++
	return fn(ctx)
}

// recordingPublisher keeps every published event
type recordingPublisher struct {
	mu     sync.Mutex
	events []client.Event
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, event client.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []client.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]client.EventType, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

func testLogger() *zap.Logger {
	return zap.NewNop()
}

func newCaller(role domain.Role) *authz.Caller {
	return &authz.Caller{UserID: uuid.New(), Username: "user-" + string(role), Role: role}
}
