package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"feedback-board-api/internal/authz"
	"feedback-board-api/internal/domain"
	"feedback-board-api/internal/dto"
	"feedback-board-api/internal/response"
)

func TestFeedbackHandler_CreateFeedback(t *testing.T) {
	boardID := uuid.New()
	caller := testCaller(domain.RoleContributor)

	tests := []struct {
		name           string
		requestBody    interface{}
		mockService    func(*MockFeedbackService)
		expectedStatus int
	}{
		{
			name: "성공: 태그 이름과 함께 생성",
			requestBody: map[string]interface{}{
				"board":     boardID,
				"title":     "Dark mode",
				"tag_names": []string{"Perf", "perf"},
			},
			mockService: func(m *MockFeedbackService) {
				m.CreateFeedbackFunc = func(ctx context.Context, c *authz.Caller, req *dto.FeedbackRequest) (*dto.FeedbackResponse, error) {
					assert.Equal(t, caller, c)
					require.NotNil(t, req.Board)
					assert.Equal(t, boardID, *req.Board)
					assert.True(t, req.TagsSupplied())
					return &dto.FeedbackResponse{
						ID:     uuid.New(),
						Board:  *req.Board,
						Title:  *req.Title,
						Status: string(domain.StatusOpen),
						Tags:   []dto.TagResponse{{ID: uuid.New(), Name: "Perf"}},
					}, nil
				}
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "실패: board가 UUID가 아님",
			requestBody:    map[string]interface{}{"board": "not-a-uuid", "title": "x"},
			mockService:    func(m *MockFeedbackService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:        "실패: 서비스 필드 검증",
			requestBody: map[string]interface{}{"title": "x"},
			mockService: func(m *MockFeedbackService) {
				m.CreateFeedbackFunc = func(ctx context.Context, c *authz.Caller, req *dto.FeedbackRequest) (*dto.FeedbackResponse, error) {
					return nil, response.NewValidationError("board", "This field is required.")
				}
			},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := &MockFeedbackService{}
			tt.mockService(mockService)
			router := setupTestRouter(caller)
			router.POST("/api/feedback", NewFeedbackHandler(mockService).CreateFeedback)

			w := doRequest(router, http.MethodPost, "/api/feedback", tt.requestBody)

			assert.Equal(t, tt.expectedStatus, w.Code, w.Body.String())
			if tt.expectedStatus == http.StatusCreated {
				var fb dto.FeedbackResponse
				decodeData(t, w, &fb)
				assert.Equal(t, "Dark mode", fb.Title)
				assert.Len(t, fb.Tags, 1)
			}
		})
	}
}

func TestFeedbackHandler_ListFeedback_PassesFilters(t *testing.T) {
	var got *dto.FeedbackListQuery
	mockService := &MockFeedbackService{
		ListFeedbackFunc: func(ctx context.Context, c *authz.Caller, query *dto.FeedbackListQuery) (*dto.PageResponse[dto.FeedbackResponse], error) {
			got = query
			return dto.NewPageResponse[dto.FeedbackResponse](nil, 0, 1, 10), nil
		},
	}
	router := setupTestRouter(testCaller(domain.RoleContributor))
	router.GET("/api/feedback", NewFeedbackHandler(mockService).ListFeedback)

	w := doRequest(router, http.MethodGet, "/api/feedback?status=open&feedback_type=bug&tag_name=perf&search=slow&ordering=-created_at", nil)

	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, got)
	assert.Equal(t, "open", got.Status)
	assert.Equal(t, "bug", got.FeedbackType)
	assert.Equal(t, "perf", got.TagName)
	assert.Equal(t, "slow", got.Search)
	assert.Equal(t, "-created_at", got.Ordering)

	var page dto.PageResponse[dto.FeedbackResponse]
	decodeData(t, w, &page)
	assert.NotNil(t, page.Results)
	assert.Empty(t, page.Results)
}

func TestFeedbackHandler_UpdateFeedback_PutAndPatch(t *testing.T) {
	feedbackID := uuid.New()
	var partials []bool
	mockService := &MockFeedbackService{
		UpdateFeedbackFunc: func(ctx context.Context, c *authz.Caller, id uuid.UUID, req *dto.FeedbackRequest, partial bool) (*dto.FeedbackResponse, error) {
			partials = append(partials, partial)
			if !partial && req.Title == nil {
				return nil, response.NewValidationError("title", "This field is required.")
			}
			return &dto.FeedbackResponse{ID: id}, nil
		},
	}
	handler := NewFeedbackHandler(mockService)
	router := setupTestRouter(testCaller(domain.RoleContributor))
	router.PUT("/api/feedback/:id", handler.UpdateFeedback)
	router.PATCH("/api/feedback/:id", handler.PatchFeedback)

	path := "/api/feedback/" + feedbackID.String()

	w := doRequest(router, http.MethodPut, path, map[string]string{"status": "completed"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "This field is required.", decodeError(t, w).Fields["title"])

	w = doRequest(router, http.MethodPatch, path, map[string]string{"status": "completed"})
	assert.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, []bool{false, true}, partials)
}

func TestFeedbackHandler_ToggleUpvote(t *testing.T) {
	feedbackID := uuid.New()
	upvoted := false
	count := int64(3)
	mockService := &MockFeedbackService{
		ToggleUpvoteFunc: func(ctx context.Context, c *authz.Caller, id uuid.UUID) (*dto.UpvoteResponse, error) {
			upvoted = !upvoted
			if upvoted {
				count++
			} else {
				count--
			}
			return &dto.UpvoteResponse{Upvoted: upvoted, UpvoteCount: count}, nil
		},
	}
	router := setupTestRouter(testCaller(domain.RoleContributor))
	router.POST("/api/feedback/:id/upvote", NewFeedbackHandler(mockService).ToggleUpvote)

	var first, second dto.UpvoteResponse
	w := doRequest(router, http.MethodPost, "/api/feedback/"+feedbackID.String()+"/upvote", nil)
	require.Equal(t, http.StatusOK, w.Code)
	decodeData(t, w, &first)
	w = doRequest(router, http.MethodPost, "/api/feedback/"+feedbackID.String()+"/upvote", nil)
	require.Equal(t, http.StatusOK, w.Code)
	decodeData(t, w, &second)

	assert.True(t, first.Upvoted)
	assert.Equal(t, int64(4), first.UpvoteCount)
	assert.False(t, second.Upvoted)
	assert.Equal(t, int64(3), second.UpvoteCount)
}

func TestFeedbackHandler_MoveFeedback(t *testing.T) {
	feedbackID := uuid.New()

	tests := []struct {
		name           string
		caller         *authz.Caller
		requestBody    interface{}
		expectedStatus int
	}{
		{"성공: 관리자 이동", testCaller(domain.RoleAdmin), map[string]string{"status": "in_progress"}, http.StatusOK},
		{"실패: 잘못된 상태", testCaller(domain.RoleAdmin), map[string]string{"status": "archived"}, http.StatusBadRequest},
		{"실패: 기여자는 빈 본문이어도 403", testCaller(domain.RoleContributor), nil, http.StatusForbidden},
		{"실패: 익명", nil, map[string]string{"status": "open"}, http.StatusUnauthorized},
	}

	mockService := &MockFeedbackService{
		MoveFeedbackFunc: func(ctx context.Context, c *authz.Caller, id uuid.UUID, req *dto.MoveFeedbackRequest) (*dto.FeedbackResponse, error) {
			if c == nil {
				return nil, response.NewAppError(response.ErrCodeUnauthorized, "Authentication credentials were not provided.", "")
			}
			if c.Role != domain.RoleAdmin {
				return nil, response.NewAppError(response.ErrCodeForbidden, "You do not have permission to perform this action.", "")
			}
			if !domain.FeedbackStatus(req.Status).IsValid() {
				return nil, response.NewValidationError("status", "Invalid status.")
			}
			return &dto.FeedbackResponse{ID: id, Status: req.Status}, nil
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := setupTestRouter(tt.caller)
			router.POST("/api/feedback/:id/move", NewFeedbackHandler(mockService).MoveFeedback)

			w := doRequest(router, http.MethodPost, "/api/feedback/"+feedbackID.String()+"/move", tt.requestBody)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedStatus == http.StatusOK {
				var fb dto.FeedbackResponse
				decodeData(t, w, &fb)
				assert.Equal(t, "in_progress", fb.Status)
			}
		})
	}
}

func TestFeedbackHandler_DeleteFeedback(t *testing.T) {
	mockService := &MockFeedbackService{
		DeleteFeedbackFunc: func(ctx context.Context, c *authz.Caller, id uuid.UUID) error {
			return nil
		},
	}
	router := setupTestRouter(testCaller(domain.RoleContributor))
	router.DELETE("/api/feedback/:id", NewFeedbackHandler(mockService).DeleteFeedback)

	w := doRequest(router, http.MethodDelete, "/api/feedback/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doRequest(router, http.MethodDelete, "/api/feedback/42", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
