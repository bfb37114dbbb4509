package service

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"feedback-board-api/internal/authz"
	"feedback-board-api/internal/database"
	"feedback-board-api/internal/domain"
	"feedback-board-api/internal/dto"
	"feedback-board-api/internal/repository"
	"feedback-board-api/internal/response"
)

// UserService defines the interface for account management
type UserService interface {
	GetMe(ctx context.Context, caller *authz.Caller) (*dto.UserResponse, error)
	ChangeRole(ctx context.Context, caller *authz.Caller, userID uuid.UUID, req *dto.ChangeRoleRequest) (*dto.UserResponse, error)
	DeleteUser(ctx context.Context, caller *authz.Caller, userID uuid.UUID) error
}

// userServiceImpl is the implementation of UserService
type userServiceImpl struct {
	userRepo repository.UserRepository
	tx       database.Transactor
	logger   *zap.Logger
}

// NewUserService creates a new instance of UserService
func NewUserService(userRepo repository.UserRepository, tx database.Transactor, logger *zap.Logger) UserService {
	return &userServiceImpl{
		userRepo: userRepo,
		tx:       tx,
		logger:   logger,
	}
}

// GetMe returns the caller's own account
func (s *userServiceImpl) GetMe(ctx context.Context, caller *authz.Caller) (*dto.UserResponse, error) {
	if err := authorize(caller, authz.ActionRetrieve, authz.Resource{Kind: authz.KindUser}); err != nil {
		return nil, err
	}
	user, err := s.userRepo.FindByID(ctx, caller.UserID)
	if err != nil {
		return nil, lookupError(err, "User")
	}
	return toUserResponse(user), nil
}

// ChangeRole assigns a new role. Admin only.
func (s *userServiceImpl) ChangeRole(ctx context.Context, caller *authz.Caller, userID uuid.UUID, req *dto.ChangeRoleRequest) (*dto.UserResponse, error) {
	if err := authorize(caller, authz.ActionChangeRole, authz.Resource{Kind: authz.KindUser}); err != nil {
		return nil, err
	}
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, lookupError(err, "User")
	}

	role := domain.Role(req.Role)
	if req.Role == "" {
		return nil, response.NewValidationError("role", msgRequired)
	}
	if !role.IsValid() {
		return nil, response.NewValidationError("role", "\""+req.Role+"\" is not a valid choice.")
	}

	if err := s.userRepo.UpdateRole(ctx, user.ID, role); err != nil {
		return nil, passThrough(err, "Failed to change role")
	}
	s.logger.Info("User role changed",
		zap.String("user_id", user.ID.String()),
		zap.String("from", string(user.Role)),
		zap.String("to", string(role)),
		zap.String("by", caller.UserID.String()),
	)
	user.Role = role
	return toUserResponse(user), nil
}

// DeleteUser removes an account. Feedback and comments it authored stay with a null author.
func (s *userServiceImpl) DeleteUser(ctx context.Context, caller *authz.Caller, userID uuid.UUID) error {
	if err := authorize(caller, authz.ActionDelete, authz.Resource{Kind: authz.KindUser}); err != nil {
		return err
	}
	if _, err := s.userRepo.FindByID(ctx, userID); err != nil {
		return lookupError(err, "User")
	}

	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		return s.userRepo.Delete(ctx, userID)
	})
	if err != nil {
		return passThrough(err, "Failed to delete user")
	}
	s.logger.Info("User deleted", zap.String("user_id", userID.String()), zap.String("by", caller.UserID.String()))
	return nil
}
