package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"feedback-board-api/internal/authz"
	"feedback-board-api/internal/config"
	"feedback-board-api/internal/domain"
	"feedback-board-api/internal/dto"
	"feedback-board-api/internal/response"
	"feedback-board-api/internal/util"
)

// MockAuthService is a mock implementation of AuthService
type MockAuthService struct {
	RegisterFunc     func(ctx context.Context, req *dto.RegisterRequest) (*dto.UserResponse, error)
	ObtainTokenFunc  func(ctx context.Context, req *dto.TokenRequest) (*dto.TokenResponse, error)
	RefreshTokenFunc func(ctx context.Context, req *dto.RefreshRequest) (*dto.TokenResponse, error)
}

func (m *MockAuthService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.UserResponse, error) {
	if m.RegisterFunc != nil {
		return m.RegisterFunc(ctx, req)
	}
	return nil, nil
}

func (m *MockAuthService) ObtainToken(ctx context.Context, req *dto.TokenRequest) (*dto.TokenResponse, error) {
	if m.ObtainTokenFunc != nil {
		return m.ObtainTokenFunc(ctx, req)
	}
	return nil, nil
}

func (m *MockAuthService) RefreshToken(ctx context.Context, req *dto.RefreshRequest) (*dto.TokenResponse, error) {
	if m.RefreshTokenFunc != nil {
		return m.RefreshTokenFunc(ctx, req)
	}
	return nil, nil
}

func (m *MockAuthService) ValidateToken(ctx context.Context, tokenString string) (*authz.Caller, error) {
	return nil, nil
}

func (m *MockAuthService) EnsureBootstrapAdmin(ctx context.Context, cfg config.BootstrapAdminConfig) error {
	return nil
}

// MockUserService is a mock implementation of UserService
type MockUserService struct {
	GetMeFunc      func(ctx context.Context, caller *authz.Caller) (*dto.UserResponse, error)
	ChangeRoleFunc func(ctx context.Context, caller *authz.Caller, userID uuid.UUID, req *dto.ChangeRoleRequest) (*dto.UserResponse, error)
	DeleteUserFunc func(ctx context.Context, caller *authz.Caller, userID uuid.UUID) error
}

func (m *MockUserService) GetMe(ctx context.Context, caller *authz.Caller) (*dto.UserResponse, error) {
	if m.GetMeFunc != nil {
		return m.GetMeFunc(ctx, caller)
	}
	return nil, nil
}

func (m *MockUserService) ChangeRole(ctx context.Context, caller *authz.Caller, userID uuid.UUID, req *dto.ChangeRoleRequest) (*dto.UserResponse, error) {
	if m.ChangeRoleFunc != nil {
		return m.ChangeRoleFunc(ctx, caller, userID, req)
	}
	return nil, nil
}

func (m *MockUserService) DeleteUser(ctx context.Context, caller *authz.Caller, userID uuid.UUID) error {
	if m.DeleteUserFunc != nil {
		return m.DeleteUserFunc(ctx, caller, userID)
	}
	return nil
}

// MockBoardService is a mock implementation of BoardService
type MockBoardService struct {
	CreateBoardFunc func(ctx context.Context, caller *authz.Caller, req *dto.CreateBoardRequest) (*dto.BoardResponse, error)
	GetBoardFunc    func(ctx context.Context, caller *authz.Caller, boardID uuid.UUID) (*dto.BoardResponse, error)
	ListBoardsFunc  func(ctx context.Context, caller *authz.Caller, query *dto.BoardListQuery) (*dto.PageResponse[dto.BoardResponse], error)
	UpdateBoardFunc func(ctx context.Context, caller *authz.Caller, boardID uuid.UUID, req *dto.UpdateBoardRequest, partial bool) (*dto.BoardResponse, error)
	DeleteBoardFunc func(ctx context.Context, caller *authz.Caller, boardID uuid.UUID) error
	AddMemberFunc   func(ctx context.Context, caller *authz.Caller, boardID uuid.UUID, req *dto.AddMemberRequest) (*dto.MemberAddedResponse, error)
}

func (m *MockBoardService) CreateBoard(ctx context.Context, caller *authz.Caller, req *dto.CreateBoardRequest) (*dto.BoardResponse, error) {
	if m.CreateBoardFunc != nil {
		return m.CreateBoardFunc(ctx, caller, req)
	}
	return nil, nil
}

func (m *MockBoardService) GetBoard(ctx context.Context, caller *authz.Caller, boardID uuid.UUID) (*dto.BoardResponse, error) {
	if m.GetBoardFunc != nil {
		return m.GetBoardFunc(ctx, caller, boardID)
	}
	return nil, nil
}

func (m *MockBoardService) ListBoards(ctx context.Context, caller *authz.Caller, query *dto.BoardListQuery) (*dto.PageResponse[dto.BoardResponse], error) {
	if m.ListBoardsFunc != nil {
		return m.ListBoardsFunc(ctx, caller, query)
	}
	return dto.NewPageResponse[dto.BoardResponse](nil, 0, 1, 10), nil
}

func (m *MockBoardService) UpdateBoard(ctx context.Context, caller *authz.Caller, boardID uuid.UUID, req *dto.UpdateBoardRequest, partial bool) (*dto.BoardResponse, error) {
	if m.UpdateBoardFunc != nil {
		return m.UpdateBoardFunc(ctx, caller, boardID, req, partial)
	}
	return nil, nil
}

func (m *MockBoardService) DeleteBoard(ctx context.Context, caller *authz.Caller, boardID uuid.UUID) error {
	if m.DeleteBoardFunc != nil {
		return m.DeleteBoardFunc(ctx, caller, boardID)
	}
	return nil
}

func (m *MockBoardService) AddMember(ctx context.Context, caller *authz.Caller, boardID uuid.UUID, req *dto.AddMemberRequest) (*dto.MemberAddedResponse, error) {
	if m.AddMemberFunc != nil {
		return m.AddMemberFunc(ctx, caller, boardID, req)
	}
	return nil, nil
}

// MockFeedbackService is a mock implementation of FeedbackService
type MockFeedbackService struct {
	CreateFeedbackFunc func(ctx context.Context, caller *authz.Caller, req *dto.FeedbackRequest) (*dto.FeedbackResponse, error)
	GetFeedbackFunc    func(ctx context.Context, caller *authz.Caller, feedbackID uuid.UUID) (*dto.FeedbackResponse, error)
	ListFeedbackFunc   func(ctx context.Context, caller *authz.Caller, query *dto.FeedbackListQuery) (*dto.PageResponse[dto.FeedbackResponse], error)
	UpdateFeedbackFunc func(ctx context.Context, caller *authz.Caller, feedbackID uuid.UUID, req *dto.FeedbackRequest, partial bool) (*dto.FeedbackResponse, error)
	DeleteFeedbackFunc func(ctx context.Context, caller *authz.Caller, feedbackID uuid.UUID) error
	ToggleUpvoteFunc   func(ctx context.Context, caller *authz.Caller, feedbackID uuid.UUID) (*dto.UpvoteResponse, error)
	MoveFeedbackFunc   func(ctx context.Context, caller *authz.Caller, feedbackID uuid.UUID, req *dto.MoveFeedbackRequest) (*dto.FeedbackResponse, error)
}

func (m *MockFeedbackService) CreateFeedback(ctx context.Context, caller *authz.Caller, req *dto.FeedbackRequest) (*dto.FeedbackResponse, error) {
	if m.CreateFeedbackFunc != nil {
		return m.CreateFeedbackFunc(ctx, caller, req)
	}
	return nil, nil
}

func (m *MockFeedbackService) GetFeedback(ctx context.Context, caller *authz.Caller, feedbackID uuid.UUID) (*dto.FeedbackResponse, error) {
	if m.GetFeedbackFunc != nil {
		return m.GetFeedbackFunc(ctx, caller, feedbackID)
	}
	return nil, nil
}

func (m *MockFeedbackService) ListFeedback(ctx context.Context, caller *authz.Caller, query *dto.FeedbackListQuery) (*dto.PageResponse[dto.FeedbackResponse], error) {
	if m.ListFeedbackFunc != nil {
		return m.ListFeedbackFunc(ctx, caller, query)
	}
	return dto.NewPageResponse[dto.FeedbackResponse](nil, 0, 1, 10), nil
}

func (m *MockFeedbackService) UpdateFeedback(ctx context.Context, caller *authz.Caller, feedbackID uuid.UUID, req *dto.FeedbackRequest, partial bool) (*dto.FeedbackResponse, error) {
	if m.UpdateFeedbackFunc != nil {
		return m.UpdateFeedbackFunc(ctx, caller, feedbackID, req, partial)
	}
	return nil, nil
}

func (m *MockFeedbackService) DeleteFeedback(ctx context.Context, caller *authz.Caller, feedbackID uuid.UUID) error {
	if m.DeleteFeedbackFunc != nil {
		return m.DeleteFeedbackFunc(ctx, caller, feedbackID)
	}
	return nil
}

func (m *MockFeedbackService) ToggleUpvote(ctx context.Context, caller *authz.Caller, feedbackID uuid.UUID) (*dto.UpvoteResponse, error) {
	if m.ToggleUpvoteFunc != nil {
		return m.ToggleUpvoteFunc(ctx, caller, feedbackID)
	}
	return nil, nil
}

func (m *MockFeedbackService) MoveFeedback(ctx context.Context, caller *authz.Caller, feedbackID uuid.UUID, req *dto.MoveFeedbackRequest) (*dto.FeedbackResponse, error) {
	if m.MoveFeedbackFunc != nil {
		return m.MoveFeedbackFunc(ctx, caller, feedbackID, req)
	}
	return nil, nil
}

// MockCommentService is a mock implementation of CommentService
type MockCommentService struct {
	CreateCommentFunc func(ctx context.Context, caller *authz.Caller, req *dto.CreateCommentRequest) (*dto.CommentResponse, error)
	GetCommentFunc    func(ctx context.Context, caller *authz.Caller, commentID uuid.UUID) (*dto.CommentResponse, error)
	ListCommentsFunc  func(ctx context.Context, caller *authz.Caller, query *dto.CommentListQuery) (*dto.PageResponse[dto.CommentResponse], error)
	UpdateCommentFunc func(ctx context.Context, caller *authz.Caller, commentID uuid.UUID, req *dto.UpdateCommentRequest, partial bool) (*dto.CommentResponse, error)
	DeleteCommentFunc func(ctx context.Context, caller *authz.Caller, commentID uuid.UUID) error
}

func (m *MockCommentService) CreateComment(ctx context.Context, caller *authz.Caller, req *dto.CreateCommentRequest) (*dto.CommentResponse, error) {
	if m.CreateCommentFunc != nil {
		return m.CreateCommentFunc(ctx, caller, req)
	}
	return nil, nil
}

func (m *MockCommentService) GetComment(ctx context.Context, caller *authz.Caller, commentID uuid.UUID) (*dto.CommentResponse, error) {
	if m.GetCommentFunc != nil {
		return m.GetCommentFunc(ctx, caller, commentID)
	}
	return nil, nil
}

func (m *MockCommentService) ListComments(ctx context.Context, caller *authz.Caller, query *dto.CommentListQuery) (*dto.PageResponse[dto.CommentResponse], error) {
	if m.ListCommentsFunc != nil {
		return m.ListCommentsFunc(ctx, caller, query)
	}
	return dto.NewPageResponse[dto.CommentResponse](nil, 0, 1, 10), nil
}

func (m *MockCommentService) UpdateComment(ctx context.Context, caller *authz.Caller, commentID uuid.UUID, req *dto.UpdateCommentRequest, partial bool) (*dto.CommentResponse, error) {
	if m.UpdateCommentFunc != nil {
		return m.UpdateCommentFunc(ctx, caller, commentID, req, partial)
	}
	return nil, nil
}

func (m *MockCommentService) DeleteComment(ctx context.Context, caller *authz.Caller, commentID uuid.UUID) error {
	if m.DeleteCommentFunc != nil {
		return m.DeleteCommentFunc(ctx, caller, commentID)
	}
	return nil
}

// MockTagService is a mock implementation of TagService
type MockTagService struct {
	CreateTagFunc func(ctx context.Context, caller *authz.Caller, req *dto.TagRequest) (*dto.TagResponse, error)
	GetTagFunc    func(ctx context.Context, caller *authz.Caller, tagID uuid.UUID) (*dto.TagResponse, error)
	ListTagsFunc  func(ctx context.Context, caller *authz.Caller, query *dto.TagListQuery) (*dto.PageResponse[dto.TagResponse], error)
	UpdateTagFunc func(ctx context.Context, caller *authz.Caller, tagID uuid.UUID, req *dto.TagRequest) (*dto.TagResponse, error)
	DeleteTagFunc func(ctx context.Context, caller *authz.Caller, tagID uuid.UUID) error
}

func (m *MockTagService) CreateTag(ctx context.Context, caller *authz.Caller, req *dto.TagRequest) (*dto.TagResponse, error) {
	if m.CreateTagFunc != nil {
		return m.CreateTagFunc(ctx, caller, req)
	}
	return nil, nil
}

func (m *MockTagService) GetTag(ctx context.Context, caller *authz.Caller, tagID uuid.UUID) (*dto.TagResponse, error) {
	if m.GetTagFunc != nil {
		return m.GetTagFunc(ctx, caller, tagID)
	}
	return nil, nil
}

func (m *MockTagService) ListTags(ctx context.Context, caller *authz.Caller, query *dto.TagListQuery) (*dto.PageResponse[dto.TagResponse], error) {
	if m.ListTagsFunc != nil {
		return m.ListTagsFunc(ctx, caller, query)
	}
	return dto.NewPageResponse[dto.TagResponse](nil, 0, 1, 10), nil
}

func (m *MockTagService) UpdateTag(ctx context.Context, caller *authz.Caller, tagID uuid.UUID, req *dto.TagRequest) (*dto.TagResponse, error) {
	if m.UpdateTagFunc != nil {
		return m.UpdateTagFunc(ctx, caller, tagID, req)
	}
	return nil, nil
}

func (m *MockTagService) DeleteTag(ctx context.Context, caller *authz.Caller, tagID uuid.UUID) error {
	if m.DeleteTagFunc != nil {
		return m.DeleteTagFunc(ctx, caller, tagID)
	}
	return nil
}

// setupTestRouter returns a gin engine that runs every request as caller (nil = anonymous)
func setupTestRouter(caller *authz.Caller) *gin.Engine {
	gin.SetMode(gin.TestMode)
	RegisterJSONFieldNames()
	router := gin.New()
	if caller != nil {
		router.Use(func(c *gin.Context) {
			util.SetCaller(c, caller, "test-token")
			c.Next()
		})
	}
	return router
}

func testCaller(role domain.Role) *authz.Caller {
	return &authz.Caller{UserID: uuid.New(), Username: string(role) + "-user", Role: role}
}

// doRequest sends body as JSON. A string body is sent verbatim; nil sends no body.
func doRequest(router http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		data, _ := json.Marshal(b)
		reader = bytes.NewBuffer(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// decodeData unmarshals the data member of a success envelope into out
func decodeData(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	var resp struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.True(t, resp.Success)
	require.NoError(t, json.Unmarshal(resp.Data, out))
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) response.ErrorDetail {
	t.Helper()
	var resp response.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Error
}
