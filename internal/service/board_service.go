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
	"feedback-board-api/internal/client"
	"feedback-board-api/internal/database"
	"feedback-board-api/internal/domain"
	"feedback-board-api/internal/dto"
	"feedback-board-api/internal/metrics"
	"feedback-board-api/internal/repository"
	"feedback-board-api/internal/response"
)

const maxBoardNameLength = 100

// BoardService defines the interface for board business logic
type BoardService interface {
	CreateBoard(ctx context.Context, caller *authz.Caller, req *dto.CreateBoardRequest) (*dto.BoardResponse, error)
	GetBoard(ctx context.Context, caller *authz.Caller, boardID uuid.UUID) (*dto.BoardResponse, error)
	ListBoards(ctx context.Context, caller *authz.Caller, query *dto.BoardListQuery) (*dto.PageResponse[dto.BoardResponse], error)
	// UpdateBoard applies req. With partial=false the name is required.
	UpdateBoard(ctx context.Context, caller *authz.Caller, boardID uuid.UUID, req *dto.UpdateBoardRequest, partial bool) (*dto.BoardResponse, error)
	DeleteBoard(ctx context.Context, caller *authz.Caller, boardID uuid.UUID) error
	AddMember(ctx context.Context, caller *authz.Caller, boardID uuid.UUID, req *dto.AddMemberRequest) (*dto.MemberAddedResponse, error)
}

// boardServiceImpl is the implementation of BoardService
type boardServiceImpl struct {
	boardRepo repository.BoardRepository
	userRepo  repository.UserRepository
	tx        database.Transactor
	events    client.EventPublisher
	metrics   *metrics.Metrics
	logger    *zap.Logger
}

// NewBoardService creates a new instance of BoardService
func NewBoardService(
	boardRepo repository.BoardRepository,
	userRepo repository.UserRepository,
	tx database.Transactor,
	events client.EventPublisher,
	m *metrics.Metrics,
	logger *zap.Logger,
) BoardService {
	return &boardServiceImpl{
		boardRepo: boardRepo,
		userRepo:  userRepo,
		tx:        tx,
		events:    events,
		metrics:   m,
		logger:    logger,
	}
}

func validateBoardName(name string, fields fieldErrors) string {
	name = strings.TrimSpace(name)
	switch {
	case name == "":
		fields.add("name", msgBlank)
	case utf8.RuneCountInString(name) > maxBoardNameLength:
		fields.add("name", "Ensure this field has no more than 100 characters.")
	}
	return name
}

// CreateBoard creates a board and makes its creator the first member, atomically
func (s *boardServiceImpl) CreateBoard(ctx context.Context, caller *authz.Caller, req *dto.CreateBoardRequest) (*dto.BoardResponse, error) {
	if err := authorize(caller, authz.ActionCreate, authz.Resource{Kind: authz.KindBoard}); err != nil {
		return nil, err
	}

	fields := fieldErrors{}
	name := validateBoardName(req.Name, fields)
	if err := fields.err(); err != nil {
		return nil, err
	}

	board := &domain.Board{
		Name:        name,
		Description: req.Description,
		IsPublic:    true,
	}
	if req.IsPublic != nil {
		board.IsPublic = *req.IsPublic
	}

	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.boardRepo.Create(ctx, board); err != nil {
			return err
		}
		_, err := s.boardRepo.AddMember(ctx, board.ID, caller.UserID)
		return err
	})
	if err != nil {
		return nil, passThrough(err, "Failed to create board")
	}

	s.metrics.IncrementBoardCreated()
	s.logger.Info("Board created",
		zap.String("board_id", board.ID.String()),
		zap.Bool("is_public", board.IsPublic),
		zap.String("created_by", caller.UserID.String()),
	)

	created, err := s.boardRepo.FindByID(ctx, board.ID)
	if err != nil {
		return nil, lookupError(err, "Board")
	}
	return toBoardResponse(created), nil
}

// loadAuthorized resolves a board and checks that the caller may perform action on it
func (s *boardServiceImpl) loadAuthorized(ctx context.Context, caller *authz.Caller, boardID uuid.UUID, action authz.Action) (*domain.Board, error) {
	board, err := s.boardRepo.FindByID(ctx, boardID)
	if err != nil {
		return nil, lookupError(err, "Board")
	}
	access, err := boardAccess(ctx, s.boardRepo, caller, board)
	if err != nil {
		return nil, internalError("Failed to check membership", err)
	}
	if err := authorize(caller, action, authz.Resource{Kind: authz.KindBoard, Board: access}); err != nil {
		return nil, err
	}
	return board, nil
}

// GetBoard retrieves a board the caller can see
func (s *boardServiceImpl) GetBoard(ctx context.Context, caller *authz.Caller, boardID uuid.UUID) (*dto.BoardResponse, error) {
	board, err := s.loadAuthorized(ctx, caller, boardID, authz.ActionRetrieve)
	if err != nil {
		return nil, err
	}
	return toBoardResponse(board), nil
}

// ListBoards returns public boards and the private boards the caller belongs to
func (s *boardServiceImpl) ListBoards(ctx context.Context, caller *authz.Caller, query *dto.BoardListQuery) (*dto.PageResponse[dto.BoardResponse], error) {
	if err := authorize(caller, authz.ActionList, authz.Resource{Kind: authz.KindBoard}); err != nil {
		return nil, err
	}

	page := repository.NewPage(query.Page)
	filter := repository.BoardFilter{
		Name:     strings.TrimSpace(query.Name),
		IsPublic: query.IsPublic,
		Search:   query.Search,
	}
	boards, total, err := s.boardRepo.ListVisible(ctx, caller.UserID, filter, page)
	if err != nil {
		return nil, internalError("Failed to list boards", err)
	}

	results := make([]dto.BoardResponse, 0, len(boards))
	for _, b := range boards {
		results = append(results, *toBoardResponse(b))
	}
	return dto.NewPageResponse(results, total, page.Number, page.Limit()), nil
}

// UpdateBoard changes name, description or visibility. Admin only.
func (s *boardServiceImpl) UpdateBoard(ctx context.Context, caller *authz.Caller, boardID uuid.UUID, req *dto.UpdateBoardRequest, partial bool) (*dto.BoardResponse, error) {
	board, err := s.loadAuthorized(ctx, caller, boardID, authz.ActionUpdate)
	if err != nil {
		return nil, err
	}

	fields := fieldErrors{}
	if req.Name != nil {
		board.Name = validateBoardName(*req.Name, fields)
	} else if !partial {
		fields.add("name", msgRequired)
	}
	if err := fields.err(); err != nil {
		return nil, err
	}
	if req.Description != nil {
		board.Description = *req.Description
	}
	if req.IsPublic != nil {
		board.IsPublic = *req.IsPublic
	}

	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		return s.boardRepo.Update(ctx, board)
	})
	if err != nil {
		return nil, passThrough(err, "Failed to update board")
	}

	updated, err := s.boardRepo.FindByID(ctx, boardID)
	if err != nil {
		return nil, lookupError(err, "Board")
	}
	return toBoardResponse(updated), nil
}

// DeleteBoard removes a board together with its feedback, comments, upvotes and memberships
func (s *boardServiceImpl) DeleteBoard(ctx context.Context, caller *authz.Caller, boardID uuid.UUID) error {
	if _, err := s.loadAuthorized(ctx, caller, boardID, authz.ActionDelete); err != nil {
		return err
	}

	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		return s.boardRepo.Delete(ctx, boardID)
	})
	if err != nil {
		return passThrough(err, "Failed to delete board")
	}
	s.logger.Info("Board deleted", zap.String("board_id", boardID.String()), zap.String("by", caller.UserID.String()))
	return nil
}

// AddMember grants a user access to a board. Adding an existing member succeeds without change.
func (s *boardServiceImpl) AddMember(ctx context.Context, caller *authz.Caller, boardID uuid.UUID, req *dto.AddMemberRequest) (*dto.MemberAddedResponse, error) {
	board, err := s.loadAuthorized(ctx, caller, boardID, authz.ActionAddMember)
	if err != nil {
		return nil, err
	}

	username := strings.TrimSpace(req.Username)
	if username == "" {
		return nil, response.NewValidationError("username", "username required.")
	}
	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewAppError(response.ErrCodeNotFound, "User not found.", "")
		}
		return nil, internalError("Failed to load user", err)
	}

	var added bool
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		added, err = s.boardRepo.AddMember(ctx, board.ID, user.ID)
		return err
	})
	if err != nil {
		return nil, passThrough(err, "Failed to add member")
	}

	if added {
		s.logger.Info("Board member added",
			zap.String("board_id", board.ID.String()),
			zap.String("user_id", user.ID.String()),
		)
		publishEvent(ctx, s.events, s.logger, client.Event{
			Type:         client.EventMemberAdded,
			ActorID:      caller.UserID,
			BoardID:      board.ID,
			ResourceType: "user",
			ResourceID:   user.ID,
			ResourceName: user.Username,
		})
	}
	return &dto.MemberAddedResponse{Status: "User " + username + " added to board.", Added: added}, nil
}
