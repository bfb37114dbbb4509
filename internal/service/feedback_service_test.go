package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"feedback-board-api/internal/authz"
	"feedback-board-api/internal/client"
	"feedback-board-api/internal/domain"
	"feedback-board-api/internal/dto"
	"feedback-board-api/internal/repository"
	"feedback-board-api/internal/response"
)

// End-to-end walk through private board visibility, membership, upvotes and ownership
func TestFeedbackScenario_PrivateBoardLifecycle(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	admin := env.user(t, "admin", domain.RoleAdmin)
	carol := env.user(t, "carol", domain.RoleContributor)
	dave := env.user(t, "dave", domain.RoleContributor)

	board, err := env.boards.CreateBoard(ctx, admin, &dto.CreateBoardRequest{Name: "Roadmap", IsPublic: boolPtr(false)})
	require.NoError(t, err)
	require.Len(t, board.Members, 1)
	assert.Equal(t, admin.UserID, board.Members[0].ID)

	list, err := env.boards.ListBoards(ctx, carol, &dto.BoardListQuery{})
	require.NoError(t, err)
	assert.Equal(t, int64(0), list.Count)

	_, err = env.boards.GetBoard(ctx, carol, board.ID)
	assertAppError(t, err, response.ErrCodeForbidden, "")

	added, err := env.boards.AddMember(ctx, admin, board.ID, &dto.AddMemberRequest{Username: "carol"})
	require.NoError(t, err)
	assert.True(t, added.Added)

	list, err = env.boards.ListBoards(ctx, carol, &dto.BoardListQuery{})
	require.NoError(t, err)
	require.Len(t, list.Results, 1)
	assert.Equal(t, board.ID, list.Results[0].ID)

	fb, err := env.feedback.CreateFeedback(ctx, carol, &dto.FeedbackRequest{Board: &board.ID, Title: strPtr("Export to CSV")})
	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusOpen), fb.Status)
	assert.Equal(t, string(domain.FeedbackTypeFeature), fb.FeedbackType)
	require.NotNil(t, fb.CreatedBy)
	assert.Equal(t, "carol", fb.CreatedBy.Username)

	up, err := env.feedback.ToggleUpvote(ctx, carol, fb.ID)
	require.NoError(t, err)
	assert.True(t, up.Upvoted)
	assert.Equal(t, int64(1), up.UpvoteCount)

	up, err = env.feedback.ToggleUpvote(ctx, carol, fb.ID)
	require.NoError(t, err)
	assert.False(t, up.Upvoted)
	assert.Equal(t, int64(0), up.UpvoteCount)

	got, err := env.feedback.GetFeedback(ctx, carol, fb.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), got.UpvoteCount)

	// dave is neither owner nor admin and cannot see the board
	_, err = env.feedback.UpdateFeedback(ctx, dave, fb.ID, &dto.FeedbackRequest{Title: strPtr("hijacked")}, true)
	assertAppError(t, err, response.ErrCodeForbidden, "")

	// on a public board he still is not the owner
	_, err = env.boards.UpdateBoard(ctx, admin, board.ID, &dto.UpdateBoardRequest{IsPublic: boolPtr(true)}, true)
	require.NoError(t, err)
	_, err = env.feedback.UpdateFeedback(ctx, dave, fb.ID, &dto.FeedbackRequest{Title: strPtr("hijacked")}, true)
	assertAppError(t, err, response.ErrCodeForbidden, "")

	got, err = env.feedback.GetFeedback(ctx, carol, fb.ID)
	require.NoError(t, err)
	assert.Equal(t, "Export to CSV", got.Title)

	assert.Equal(t,
		[]client.EventType{client.EventMemberAdded, client.EventFeedbackCreated},
		env.events.types(),
	)
}

func TestCreateFeedback_TagNamesCaseInsensitive(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	admin := env.user(t, "admin", domain.RoleAdmin)
	board, err := env.boards.CreateBoard(ctx, admin, &dto.CreateBoardRequest{Name: "Public"})
	require.NoError(t, err)

	fb, err := env.feedback.CreateFeedback(ctx, admin, &dto.FeedbackRequest{
		Board:    &board.ID,
		Title:    strPtr("Slow page"),
		TagNames: []string{"Perf", "perf"},
	})
	require.NoError(t, err)
	require.Len(t, fb.Tags, 1)
	assert.Equal(t, "Perf", fb.Tags[0].Name)

	// the same names again reuse the stored tag
	for i := 0; i < 2; i++ {
		_, err = env.feedback.CreateFeedback(ctx, admin, &dto.FeedbackRequest{
			Board:    &board.ID,
			Title:    strPtr("Bug report"),
			TagNames: []string{"bug", "bug"},
		})
		require.NoError(t, err)
	}

	var perf, bug int64
	require.NoError(t, env.db.Model(&domain.Tag{}).Where("name_key = ?", "perf").Count(&perf).Error)
	require.NoError(t, env.db.Model(&domain.Tag{}).Where("name_key = ?", "bug").Count(&bug).Error)
	assert.Equal(t, int64(1), perf)
	assert.Equal(t, int64(1), bug)
}

func TestUpdateFeedback_ReplacesTags(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	admin := env.user(t, "admin", domain.RoleAdmin)
	owner := env.user(t, "owner", domain.RoleContributor)
	board, err := env.boards.CreateBoard(ctx, admin, &dto.CreateBoardRequest{Name: "Public"})
	require.NoError(t, err)

	ui, err := env.tags.CreateTag(ctx, admin, &dto.TagRequest{Name: "ui"})
	require.NoError(t, err)

	fb, err := env.feedback.CreateFeedback(ctx, owner, &dto.FeedbackRequest{
		Board:    &board.ID,
		Title:    strPtr("Dark mode"),
		TagIDs:   []uuid.UUID{ui.ID},
		TagNames: []string{"theme"},
	})
	require.NoError(t, err)
	require.Len(t, fb.Tags, 2)

	t.Run("태그 미지정 PATCH는 태그 유지", func(t *testing.T) {
		got, err := env.feedback.UpdateFeedback(ctx, owner, fb.ID, &dto.FeedbackRequest{Description: strPtr("please")}, true)
		require.NoError(t, err)
		assert.Len(t, got.Tags, 2)
		assert.Equal(t, "please", got.Description)
	})

	t.Run("태그 지정 시 전체 교체", func(t *testing.T) {
		got, err := env.feedback.UpdateFeedback(ctx, owner, fb.ID, &dto.FeedbackRequest{TagNames: []string{"contrast"}}, true)
		require.NoError(t, err)
		require.Len(t, got.Tags, 1)
		assert.Equal(t, "contrast", got.Tags[0].Name)
	})

	t.Run("빈 목록은 태그 제거", func(t *testing.T) {
		got, err := env.feedback.UpdateFeedback(ctx, owner, fb.ID, &dto.FeedbackRequest{TagIDs: []uuid.UUID{}}, true)
		require.NoError(t, err)
		assert.Empty(t, got.Tags)
	})

	t.Run("잘못된 태그 id는 롤백", func(t *testing.T) {
		_, err := env.feedback.UpdateFeedback(ctx, owner, fb.ID, &dto.FeedbackRequest{
			Title:  strPtr("changed"),
			TagIDs: []uuid.UUID{uuid.New()},
		}, true)
		assertAppError(t, err, response.ErrCodeValidation, "tag_ids")

		got, err := env.feedback.GetFeedback(ctx, owner, fb.ID)
		require.NoError(t, err)
		assert.Equal(t, "Dark mode", got.Title)
	})

	t.Run("PUT은 제목과 보드 필수", func(t *testing.T) {
		_, err := env.feedback.UpdateFeedback(ctx, owner, fb.ID, &dto.FeedbackRequest{Description: strPtr("x")}, false)
		assertAppError(t, err, response.ErrCodeValidation, "title")
		assert.Contains(t, err.(*response.AppError).Fields, "board")
	})
}

func TestMoveFeedback_StatusRules(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	admin := env.user(t, "admin", domain.RoleAdmin)
	contributor := env.user(t, "carol", domain.RoleContributor)
	board, err := env.boards.CreateBoard(ctx, admin, &dto.CreateBoardRequest{Name: "Public"})
	require.NoError(t, err)
	fb, err := env.feedback.CreateFeedback(ctx, contributor, &dto.FeedbackRequest{Board: &board.ID, Title: strPtr("Item")})
	require.NoError(t, err)

	tests := []struct {
		name     string
		caller   *authz.Caller
		status   string
		wantCode string
		want     domain.FeedbackStatus
	}{
		{"실패: 기여자 이동", contributor, "completed", response.ErrCodeForbidden, domain.StatusOpen},
		{"실패: 잘못된 상태", admin, "archived", response.ErrCodeValidation, domain.StatusOpen},
		{"성공: open -> completed", admin, "completed", "", domain.StatusCompleted},
		{"성공: completed -> open (역방향 허용)", admin, "open", "", domain.StatusOpen},
		{"성공: open -> in_progress", admin, "in_progress", "", domain.StatusInProgress},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := env.feedback.MoveFeedback(ctx, tt.caller, fb.ID, &dto.MoveFeedbackRequest{Status: tt.status})
			if tt.wantCode != "" {
				assertAppError(t, err, tt.wantCode, "")
			} else {
				require.NoError(t, err)
				assert.Equal(t, string(tt.want), resp.Status)
			}

			reread, err := env.feedback.GetFeedback(ctx, admin, fb.ID)
			require.NoError(t, err)
			assert.Equal(t, string(tt.want), reread.Status)
		})
	}
}

func TestListFeedback_FiltersAndVisibility(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	admin := env.user(t, "admin", domain.RoleAdmin)
	outsider := env.user(t, "outsider", domain.RoleContributor)

	public, err := env.boards.CreateBoard(ctx, admin, &dto.CreateBoardRequest{Name: "Public"})
	require.NoError(t, err)
	private, err := env.boards.CreateBoard(ctx, admin, &dto.CreateBoardRequest{Name: "Private", IsPublic: boolPtr(false)})
	require.NoError(t, err)

	_, err = env.feedback.CreateFeedback(ctx, admin, &dto.FeedbackRequest{Board: &public.ID, Title: strPtr("Crash on save"), FeedbackType: strPtr("bug"), TagNames: []string{"Editor"}})
	require.NoError(t, err)
	popular, err := env.feedback.CreateFeedback(ctx, admin, &dto.FeedbackRequest{Board: &public.ID, Title: strPtr("Dark mode")})
	require.NoError(t, err)
	_, err = env.feedback.CreateFeedback(ctx, admin, &dto.FeedbackRequest{Board: &private.ID, Title: strPtr("Secret plan")})
	require.NoError(t, err)
	_, err = env.feedback.ToggleUpvote(ctx, outsider, popular.ID)
	require.NoError(t, err)

	t.Run("비공개 보드 피드백 제외, 추천순 정렬", func(t *testing.T) {
		page, err := env.feedback.ListFeedback(ctx, outsider, &dto.FeedbackListQuery{})
		require.NoError(t, err)
		require.Equal(t, int64(2), page.Count)
		assert.Equal(t, popular.ID, page.Results[0].ID)
		assert.True(t, page.Results[0].HasUpvoted)
		assert.False(t, page.Results[1].HasUpvoted)
	})

	t.Run("관리자도 가시성 필터 적용", func(t *testing.T) {
		page, err := env.feedback.ListFeedback(ctx, admin, &dto.FeedbackListQuery{})
		require.NoError(t, err)
		assert.Equal(t, int64(3), page.Count)
	})

	t.Run("태그 이름 부분 일치", func(t *testing.T) {
		page, err := env.feedback.ListFeedback(ctx, outsider, &dto.FeedbackListQuery{TagName: "edit"})
		require.NoError(t, err)
		require.Len(t, page.Results, 1)
		assert.Equal(t, "Crash on save", page.Results[0].Title)
	})

	t.Run("유형 필터", func(t *testing.T) {
		page, err := env.feedback.ListFeedback(ctx, outsider, &dto.FeedbackListQuery{FeedbackType: "bug"})
		require.NoError(t, err)
		assert.Equal(t, int64(1), page.Count)
	})

	t.Run("실패: 잘못된 정렬", func(t *testing.T) {
		_, err := env.feedback.ListFeedback(ctx, outsider, &dto.FeedbackListQuery{Ordering: "author"})
		assertAppError(t, err, response.ErrCodeValidation, "ordering")
	})

	t.Run("실패: 잘못된 상태 필터", func(t *testing.T) {
		_, err := env.feedback.ListFeedback(ctx, outsider, &dto.FeedbackListQuery{Status: "done"})
		assertAppError(t, err, response.ErrCodeValidation, "status")
	})

	t.Run("실패: 익명", func(t *testing.T) {
		_, err := env.feedback.ListFeedback(ctx, nil, &dto.FeedbackListQuery{})
		assertAppError(t, err, response.ErrCodeUnauthorized, "")
	})
}

func TestDeleteFeedback_OwnerOrAdmin(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	admin := env.user(t, "admin", domain.RoleAdmin)
	owner := env.user(t, "owner", domain.RoleContributor)
	other := env.user(t, "other", domain.RoleModerator)
	board, err := env.boards.CreateBoard(ctx, admin, &dto.CreateBoardRequest{Name: "Public"})
	require.NoError(t, err)
	fb, err := env.feedback.CreateFeedback(ctx, owner, &dto.FeedbackRequest{Board: &board.ID, Title: strPtr("Item")})
	require.NoError(t, err)
	_, err = env.comments.CreateComment(ctx, other, &dto.CreateCommentRequest{Feedback: &fb.ID, Content: "+1"})
	require.NoError(t, err)

	assertAppError(t, env.feedback.DeleteFeedback(ctx, other, fb.ID), response.ErrCodeForbidden, "")
	assertAppError(t, env.feedback.DeleteFeedback(ctx, owner, uuid.New()), response.ErrCodeNotFound, "")
	require.NoError(t, env.feedback.DeleteFeedback(ctx, owner, fb.ID))

	var comments int64
	require.NoError(t, env.db.Model(&domain.Comment{}).Count(&comments).Error)
	assert.Zero(t, comments)
	_, err = env.feedback.GetFeedback(ctx, owner, fb.ID)
	assertAppError(t, err, response.ErrCodeNotFound, "")
}

func TestCreateFeedback_Validation(t *testing.T) {
	boardID := uuid.New()
	missingBoard := uuid.New()
	boards := &MockBoardRepository{
		FindByIDFunc: func(ctx context.Context, id uuid.UUID) (*domain.Board, error) {
			if id == boardID {
				return &domain.Board{BaseModel: domain.BaseModel{ID: id}, IsPublic: true}, nil
			}
			return nil, gorm.ErrRecordNotFound
		},
	}
	feedbackRepo := &MockFeedbackRepository{
		CreateFunc: func(ctx context.Context, feedback *domain.Feedback) error {
			t.Fatal("Create must not run when validation fails")
			return nil
		},
	}
	svc := NewFeedbackService(feedbackRepo, boards, &MockTagRepository{}, &fakeTransactor{}, nil, nil, nil, testLogger())
	caller := newCaller(domain.RoleContributor)

	tests := []struct {
		name   string
		caller *authz.Caller
		req    *dto.FeedbackRequest
		code   string
		field  string
	}{
		{"실패: 익명", nil, &dto.FeedbackRequest{Board: &boardID, Title: strPtr("t")}, response.ErrCodeUnauthorized, ""},
		{"실패: 보드 누락", caller, &dto.FeedbackRequest{Title: strPtr("t")}, response.ErrCodeValidation, "board"},
		{"실패: 없는 보드", caller, &dto.FeedbackRequest{Board: &missingBoard, Title: strPtr("t")}, response.ErrCodeValidation, "board"},
		{"실패: 제목 누락", caller, &dto.FeedbackRequest{Board: &boardID}, response.ErrCodeValidation, "title"},
		{"실패: 공백 제목", caller, &dto.FeedbackRequest{Board: &boardID, Title: strPtr("   ")}, response.ErrCodeValidation, "title"},
		{"실패: 잘못된 유형", caller, &dto.FeedbackRequest{Board: &boardID, Title: strPtr("t"), FeedbackType: strPtr("idea")}, response.ErrCodeValidation, "feedback_type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateFeedback(context.Background(), tt.caller, tt.req)
			assertAppError(t, err, tt.code, tt.field)
		})
	}
}

func TestCreateFeedback_RollsBackOnTagFailure(t *testing.T) {
	boardID := uuid.New()
	boards := &MockBoardRepository{
		FindByIDFunc: func(ctx context.Context, id uuid.UUID) (*domain.Board, error) {
			return &domain.Board{BaseModel: domain.BaseModel{ID: id}, IsPublic: true}, nil
		},
	}
	tags := &MockTagRepository{
		GetOrCreateFunc: func(ctx context.Context, name string) (*domain.Tag, error) {
			return nil, errors.New("connection reset")
		},
	}
	events := &recordingPublisher{}
	tx := &fakeTransactor{}
	svc := NewFeedbackService(&MockFeedbackRepository{}, boards, tags, tx, nil, events, nil, testLogger())

	_, err := svc.CreateFeedback(context.Background(), newCaller(domain.RoleContributor), &dto.FeedbackRequest{
		Board:    &boardID,
		Title:    strPtr("t"),
		TagNames: []string{"x"},
	})
	assertAppError(t, err, response.ErrCodeInternal, "")
	assert.Equal(t, 1, tx.calls)
	assert.Empty(t, events.types(), "no event for a failed create")
}

func TestMoveFeedback_NotFoundBeforeForbidden(t *testing.T) {
	svc := NewFeedbackService(&MockFeedbackRepository{}, &MockBoardRepository{}, &MockTagRepository{}, &fakeTransactor{}, nil, nil, nil, testLogger())

	_, err := svc.MoveFeedback(context.Background(), newCaller(domain.RoleContributor), uuid.New(), &dto.MoveFeedbackRequest{Status: "completed"})
	assertAppError(t, err, response.ErrCodeNotFound, "")
}

// toggleStore is an in-memory upvote set behind the repository interface
type toggleStore struct {
	votes map[uuid.UUID]bool
}

func (s *toggleStore) repo(feedback *domain.Feedback) *MockFeedbackRepository {
	return &MockFeedbackRepository{
		FindByIDFunc: func(ctx context.Context, id uuid.UUID) (*domain.Feedback, error) {
			return feedback, nil
		},
		ToggleUpvoteFunc: func(ctx context.Context, feedbackID, userID uuid.UUID) (bool, error) {
			s.votes[userID] = !s.votes[userID]
			return s.votes[userID], nil
		},
		CountUpvotesFunc: func(ctx context.Context, feedbackID uuid.UUID) (int64, error) {
			var n int64
			for _, v := range s.votes {
				if v {
					n++
				}
			}
			return n, nil
		},
	}
}

func TestProperty_UpvoteToggleIsInvolution(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	board := &domain.Board{BaseModel: domain.BaseModel{ID: uuid.New()}, IsPublic: true}
	feedback := &domain.Feedback{BaseModel: domain.BaseModel{ID: uuid.New()}, BoardID: board.ID, Board: board}

	properties.Property("two toggles by one user restore state and count", prop.ForAll(
		func(others int, initiallyUpvoted bool) bool {
			store := &toggleStore{votes: map[uuid.UUID]bool{}}
			for i := 0; i < others; i++ {
				store.votes[uuid.New()] = true
			}
			caller := newCaller(domain.RoleContributor)
			store.votes[caller.UserID] = initiallyUpvoted

			svc := NewFeedbackService(store.repo(feedback), &MockBoardRepository{}, &MockTagRepository{}, &fakeTransactor{}, nil, nil, nil, testLogger())
			before, _ := store.repo(feedback).CountUpvotes(context.Background(), feedback.ID)

			first, err := svc.ToggleUpvote(context.Background(), caller, feedback.ID)
			if err != nil || first.Upvoted == initiallyUpvoted {
				return false
			}
			second, err := svc.ToggleUpvote(context.Background(), caller, feedback.ID)
			if err != nil {
				return false
			}
			return second.Upvoted == initiallyUpvoted && second.UpvoteCount == before
		},
		gen.IntRange(0, 20), gen.Bool(),
	))

	properties.TestingRun(t)
}

func TestListFeedback_PassesFilterToRepository(t *testing.T) {
	boardID := uuid.New()
	tagID := uuid.New()
	var got repository.FeedbackFilter
	var gotPage repository.Page
	repo := &MockFeedbackRepository{
		ListVisibleFunc: func(ctx context.Context, userID uuid.UUID, filter repository.FeedbackFilter, page repository.Page) ([]*domain.Feedback, int64, error) {
			got = filter
			gotPage = page
			return nil, 0, nil
		},
	}
	svc := NewFeedbackService(repo, &MockBoardRepository{}, &MockTagRepository{}, &fakeTransactor{}, nil, nil, nil, testLogger())

	page, err := svc.ListFeedback(context.Background(), newCaller(domain.RoleContributor), &dto.FeedbackListQuery{
		Page:     3,
		Status:   "open",
		Board:    boardID.String(),
		Tags:     tagID.String(),
		Search:   "csv",
		Ordering: "-created_at",
	})
	require.NoError(t, err)
	assert.NotNil(t, page.Results)
	assert.Equal(t, 3, page.Page)
	assert.Equal(t, 3, gotPage.Number)
	assert.Equal(t, "open", got.Status)
	assert.Equal(t, boardID, *got.BoardID)
	assert.Equal(t, tagID, *got.TagID)
	assert.Equal(t, "csv", got.Search)
	assert.Equal(t, "-created_at", got.Ordering)

	_, err = svc.ListFeedback(context.Background(), newCaller(domain.RoleContributor), &dto.FeedbackListQuery{Board: "nope"})
	assertAppError(t, err, response.ErrCodeValidation, "board")
}
