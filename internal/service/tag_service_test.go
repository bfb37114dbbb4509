package service

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"feedback-board-api/internal/domain"
	"feedback-board-api/internal/dto"
	"feedback-board-api/internal/response"
)

func TestTagService_Permissions(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	admin := env.user(t, "admin", domain.RoleAdmin)
	contributor := env.user(t, "carol", domain.RoleContributor)

	_, err := env.tags.CreateTag(ctx, nil, &dto.TagRequest{Name: "ui"})
	assertAppError(t, err, response.ErrCodeUnauthorized, "")

	tag, err := env.tags.CreateTag(ctx, contributor, &dto.TagRequest{Name: " UI "})
	require.NoError(t, err)
	assert.Equal(t, "UI", tag.Name)

	got, err := env.tags.GetTag(ctx, nil, tag.ID)
	require.NoError(t, err)
	assert.Equal(t, tag.ID, got.ID)

	page, err := env.tags.ListTags(ctx, nil, &dto.TagListQuery{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Count)

	_, err = env.tags.UpdateTag(ctx, contributor, tag.ID, &dto.TagRequest{Name: "ux"})
	assertAppError(t, err, response.ErrCodeForbidden, "")
	assertAppError(t, env.tags.DeleteTag(ctx, contributor, tag.ID), response.ErrCodeForbidden, "")

	renamed, err := env.tags.UpdateTag(ctx, admin, tag.ID, &dto.TagRequest{Name: "ux"})
	require.NoError(t, err)
	assert.Equal(t, "ux", renamed.Name)

	require.NoError(t, env.tags.DeleteTag(ctx, admin, tag.ID))
	_, err = env.tags.GetTag(ctx, nil, tag.ID)
	assertAppError(t, err, response.ErrCodeNotFound, "")
}

func TestTagService_AdminRuleBeforeLookup(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	contributor := env.user(t, "carol", domain.RoleContributor)

	tag, err := env.tags.CreateTag(ctx, contributor, &dto.TagRequest{Name: "perf"})
	require.NoError(t, err)

	// existing and absent ids are refused the same way
	for _, id := range []uuid.UUID{tag.ID, uuid.New()} {
		_, err := env.tags.UpdateTag(ctx, nil, id, &dto.TagRequest{Name: "x"})
		assertAppError(t, err, response.ErrCodeUnauthorized, "")
		assertAppError(t, env.tags.DeleteTag(ctx, nil, id), response.ErrCodeUnauthorized, "")

		_, err = env.tags.UpdateTag(ctx, contributor, id, &dto.TagRequest{})
		assertAppError(t, err, response.ErrCodeForbidden, "")
		assertAppError(t, env.tags.DeleteTag(ctx, contributor, id), response.ErrCodeForbidden, "")
	}
}

func TestTagService_Conflicts(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	admin := env.user(t, "admin", domain.RoleAdmin)

	perf, err := env.tags.CreateTag(ctx, admin, &dto.TagRequest{Name: "Perf"})
	require.NoError(t, err)
	ui, err := env.tags.CreateTag(ctx, admin, &dto.TagRequest{Name: "ui"})
	require.NoError(t, err)

	tests := []struct {
		name  string
		apply func() error
		code  string
	}{
		{"실패: 대소문자만 다른 이름 생성", func() error {
			_, err := env.tags.CreateTag(ctx, admin, &dto.TagRequest{Name: "PERF"})
			return err
		}, response.ErrCodeAlreadyExists},
		{"실패: 다른 태그 이름으로 변경", func() error {
			_, err := env.tags.UpdateTag(ctx, admin, ui.ID, &dto.TagRequest{Name: "perf"})
			return err
		}, response.ErrCodeAlreadyExists},
		{"성공: 자기 이름 대소문자 변경", func() error {
			_, err := env.tags.UpdateTag(ctx, admin, perf.ID, &dto.TagRequest{Name: "PERF"})
			return err
		}, ""},
		{"실패: 빈 이름", func() error {
			_, err := env.tags.CreateTag(ctx, admin, &dto.TagRequest{Name: " "})
			return err
		}, response.ErrCodeValidation},
		{"실패: 긴 이름", func() error {
			_, err := env.tags.CreateTag(ctx, admin, &dto.TagRequest{Name: strings.Repeat("t", 51)})
			return err
		}, response.ErrCodeValidation},
		{"실패: 없는 태그 변경", func() error {
			_, err := env.tags.UpdateTag(ctx, admin, uuid.New(), &dto.TagRequest{Name: "x"})
			return err
		}, response.ErrCodeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.apply()
			if tt.code == "" {
				assert.NoError(t, err)
				return
			}
			assertAppError(t, err, tt.code, "")
		})
	}

	var count int64
	require.NoError(t, env.db.Model(&domain.Tag{}).Count(&count).Error)
	assert.Equal(t, int64(2), count)
}

func TestTagService_DeleteDetachesFromFeedback(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	admin := env.user(t, "admin", domain.RoleAdmin)
	board, err := env.boards.CreateBoard(ctx, admin, &dto.CreateBoardRequest{Name: "Public"})
	require.NoError(t, err)
	fb, err := env.feedback.CreateFeedback(ctx, admin, &dto.FeedbackRequest{Board: &board.ID, Title: strPtr("Item"), TagNames: []string{"ui", "perf"}})
	require.NoError(t, err)
	require.Len(t, fb.Tags, 2)

	var uiID uuid.UUID
	for _, tag := range fb.Tags {
		if tag.Name == "ui" {
			uiID = tag.ID
		}
	}
	require.NoError(t, env.tags.DeleteTag(ctx, admin, uiID))

	got, err := env.feedback.GetFeedback(ctx, admin, fb.ID)
	require.NoError(t, err)
	require.Len(t, got.Tags, 1)
	assert.Equal(t, "perf", got.Tags[0].Name)
}

func TestTagService_ListSearch(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	admin := env.user(t, "admin", domain.RoleAdmin)
	for _, name := range []string{"zeta", "Alpha", "beta", "alphabet"} {
		_, err := env.tags.CreateTag(ctx, admin, &dto.TagRequest{Name: name})
		require.NoError(t, err)
	}

	page, err := env.tags.ListTags(ctx, nil, &dto.TagListQuery{Search: "ALPHA"})
	require.NoError(t, err)
	require.Len(t, page.Results, 2)
	assert.Equal(t, int64(2), page.Count)

	page, err = env.tags.ListTags(ctx, nil, &dto.TagListQuery{Page: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(4), page.Count)
	assert.Empty(t, page.Results)
	assert.Equal(t, 2, page.Page)
}
