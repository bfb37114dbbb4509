package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"feedback-board-api/internal/authz"
	"feedback-board-api/internal/database"
	"feedback-board-api/internal/domain"
	"feedback-board-api/internal/repository"
	"feedback-board-api/internal/response"
)

// testEnv wires every service to a migrated in-memory SQLite database
type testEnv struct {
	db        *gorm.DB
	users     repository.UserRepository
	events    *recordingPublisher
	boards    BoardService
	feedback  FeedbackService
	comments  CommentService
	tags      TagService
	userAdmin UserService
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err, "failed to open database")
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.AutoMigrate(db))

	tx := database.NewTransactor(db)
	userRepo := repository.NewUserRepository(db)
	boardRepo := repository.NewBoardRepository(db)
	feedbackRepo := repository.NewFeedbackRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	tagRepo := repository.NewTagRepository(db)
	events := &recordingPublisher{}
	logger := testLogger()

	return &testEnv{
		db:        db,
		users:     userRepo,
		events:    events,
		boards:    NewBoardService(boardRepo, userRepo, tx, events, nil, logger),
		feedback:  NewFeedbackService(feedbackRepo, boardRepo, tagRepo, tx, nil, events, nil, logger),
		comments:  NewCommentService(commentRepo, feedbackRepo, boardRepo, events, nil, logger),
		tags:      NewTagService(tagRepo, tx, nil, logger),
		userAdmin: NewUserService(userRepo, tx, logger),
	}
}

// user stores an account and returns it as a caller
func (e *testEnv) user(t *testing.T, username string, role domain.Role) *authz.Caller {
	t.Helper()
	u := &domain.User{Username: username, Email: username + "@example.com", PasswordHash: "x", Role: role}
	require.NoError(t, e.users.Create(context.Background(), u))
	return &authz.Caller{UserID: u.ID, Username: u.Username, Role: u.Role}
}

func strPtr(s string) *string { return &s }

func boolPtr(b bool) *bool { return &b }

// assertAppError checks the AppError code and, when field is not empty, that it carries a message for field
func assertAppError(t *testing.T, err error, code, field string) {
	t.Helper()
	require.Error(t, err)
	var appErr *response.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code)
	if field != "" {
		assert.Contains(t, appErr.Fields, field)
	}
}

func TestAuthorize_MapsDenials(t *testing.T) {
	err := authorize(nil, authz.ActionCreate, authz.Resource{Kind: authz.KindFeedback})
	assertAppError(t, err, response.ErrCodeUnauthorized, "")
	assert.Equal(t, msgUnauthorized, err.(*response.AppError).Message)

	err = authorize(newCaller(domain.RoleContributor), authz.ActionCreate, authz.Resource{Kind: authz.KindBoard})
	assertAppError(t, err, response.ErrCodeForbidden, "")
	assert.Equal(t, msgForbidden, err.(*response.AppError).Message)

	assert.NoError(t, authorize(newCaller(domain.RoleAdmin), authz.ActionCreate, authz.Resource{Kind: authz.KindBoard}))
}

func TestLookupAndPassThrough(t *testing.T) {
	assertAppError(t, lookupError(gorm.ErrRecordNotFound, "Feedback"), response.ErrCodeNotFound, "")
	assertAppError(t, lookupError(errors.New("boom"), "Feedback"), response.ErrCodeInternal, "")

	original := response.NewValidationError("title", msgBlank)
	assert.Same(t, original, passThrough(original, "x"))
	assertAppError(t, passThrough(gorm.ErrRecordNotFound, "x"), response.ErrCodeNotFound, "")
	assertAppError(t, passThrough(errors.New("disk full"), "x"), response.ErrCodeInternal, "")
}

func TestFieldErrors_KeepsFirstMessagePerField(t *testing.T) {
	f := fieldErrors{}
	assert.NoError(t, f.err())

	f.add("title", "first")
	f.add("title", "second")
	f.add("board", msgRequired)

	err := f.err()
	assertAppError(t, err, response.ErrCodeValidation, "title")
	assert.Equal(t, "first", err.(*response.AppError).Fields["title"])
	assert.Equal(t, msgRequired, err.(*response.AppError).Fields["board"])
}

func TestParseOptionalID(t *testing.T) {
	id, err := parseOptionalID("board", "  ")
	assert.NoError(t, err)
	assert.Nil(t, id)

	want := uuid.New()
	id, err = parseOptionalID("board", want.String())
	require.NoError(t, err)
	assert.Equal(t, want, *id)

	_, err = parseOptionalID("board", "not-a-uuid")
	assertAppError(t, err, response.ErrCodeValidation, "board")
}

func TestNormalizeTagNames(t *testing.T) {
	tests := []struct {
		name  string
		input []string
		want  []string
	}{
		{"빈 입력", nil, []string{}},
		{"공백 제거", []string{"  ui ", "\t"}, []string{"ui"}},
		{"대소문자 중복은 첫 표기 유지", []string{"Perf", "perf", "PERF"}, []string{"Perf"}},
		{"순서 유지", []string{"b", "a", "B"}, []string{"b", "a"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, normalizeTagNames(tt.input))
		})
	}
}

func TestProperty_NormalizeTagNames(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	names := gen.SliceOf(gen.OneGenOf(
		gen.AlphaString(),
		gen.OneConstOf("Perf", "perf", " PERF ", "", "  ", "ui", "UI"),
	))

	properties.Property("normalizing twice equals normalizing once", prop.ForAll(
		func(in []string) bool {
			once := normalizeTagNames(in)
			twice := normalizeTagNames(once)
			if len(once) != len(twice) {
				return false
			}
			for i := range once {
				if once[i] != twice[i] {
					return false
				}
			}
			return true
		},
		names,
	))

	properties.Property("output keys are unique and non-blank", prop.ForAll(
		func(in []string) bool {
			seen := map[string]bool{}
			for _, n := range normalizeTagNames(in) {
				if strings.TrimSpace(n) != n || n == "" {
					return false
				}
				key := domain.TagKey(n)
				if seen[key] {
					return false
				}
				seen[key] = true
			}
			return true
		},
		names,
	))

	properties.TestingRun(t)
}

func TestResolveTags(t *testing.T) {
	existing := &domain.Tag{BaseModel: domain.BaseModel{ID: uuid.New()}, Name: "ui"}
	created := map[string]*domain.Tag{}
	repo := &MockTagRepository{
		FindByIDsFunc: func(ctx context.Context, ids []uuid.UUID) ([]*domain.Tag, error) {
			var out []*domain.Tag
			for _, id := range ids {
				if id == existing.ID {
					out = append(out, existing)
				}
			}
			return out, nil
		},
		GetOrCreateFunc: func(ctx context.Context, name string) (*domain.Tag, error) {
			if domain.TagKey(name) == "ui" {
				return existing, nil
			}
			key := domain.TagKey(name)
			if t, ok := created[key]; ok {
				return t, nil
			}
			t := &domain.Tag{BaseModel: domain.BaseModel{ID: uuid.New()}, Name: name}
			created[key] = t
			return t, nil
		},
	}

	t.Run("성공: id와 이름의 합집합, 중복 제거", func(t *testing.T) {
		ids, err := resolveTags(context.Background(), repo, []uuid.UUID{existing.ID, existing.ID}, []string{"UI", "Perf", "perf"})
		require.NoError(t, err)
		require.Len(t, ids, 2)
		assert.Equal(t, existing.ID, ids[0])
		assert.Equal(t, created["perf"].ID, ids[1])
		assert.Equal(t, "Perf", created["perf"].Name)
	})

	t.Run("실패: 존재하지 않는 태그 id", func(t *testing.T) {
		_, err := resolveTags(context.Background(), repo, []uuid.UUID{uuid.New()}, nil)
		assertAppError(t, err, response.ErrCodeValidation, "tag_ids")
	})

	t.Run("실패: 너무 긴 태그 이름", func(t *testing.T) {
		_, err := resolveTags(context.Background(), repo, nil, []string{strings.Repeat("x", 51)})
		assertAppError(t, err, response.ErrCodeValidation, "tag_names")
	})

	t.Run("성공: 빈 입력은 빈 집합", func(t *testing.T) {
		ids, err := resolveTags(context.Background(), repo, []uuid.UUID{}, []string{})
		require.NoError(t, err)
		assert.Empty(t, ids)
	})
}
