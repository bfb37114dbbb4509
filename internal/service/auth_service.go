package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"feedback-board-api/internal/authz"
	"feedback-board-api/internal/config"
	"feedback-board-api/internal/domain"
	"feedback-board-api/internal/dto"
	"feedback-board-api/internal/metrics"
	"feedback-board-api/internal/repository"
	"feedback-board-api/internal/response"
	"feedback-board-api/internal/token"
)

const msgBadCredentials = "No active account found with the given credentials"

// AuthService defines the interface for registration and token handling
type AuthService interface {
	Register(ctx context.Context, req *dto.RegisterRequest) (*dto.UserResponse, error)
	ObtainToken(ctx context.Context, req *dto.TokenRequest) (*dto.TokenResponse, error)
	RefreshToken(ctx context.Context, req *dto.RefreshRequest) (*dto.TokenResponse, error)
	// ValidateToken resolves an access token to the caller as currently stored,
	// so role changes and deletions take effect before the token expires
	ValidateToken(ctx context.Context, tokenString string) (*authz.Caller, error)
	EnsureBootstrapAdmin(ctx context.Context, cfg config.BootstrapAdminConfig) error
}

// authServiceImpl is the implementation of AuthService
type authServiceImpl struct {
	userRepo repository.UserRepository
	tokens   *token.Manager
	hashCost int
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

// NewAuthService creates a new instance of AuthService
func NewAuthService(
	userRepo repository.UserRepository,
	tokens *token.Manager,
	hashCost int,
	m *metrics.Metrics,
	logger *zap.Logger,
) AuthService {
	if hashCost == 0 {
		hashCost = bcrypt.DefaultCost
	}
	return &authServiceImpl{
		userRepo: userRepo,
		tokens:   tokens,
		hashCost: hashCost,
		metrics:  m,
		logger:   logger,
	}
}

// Register creates a contributor account. The role cannot be chosen by the caller.
func (s *authServiceImpl) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.UserResponse, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" {
		return nil, response.NewValidationError("username", msgBlank)
	}

	exists, err := s.userRepo.ExistsByUsername(ctx, username)
	if err != nil {
		return nil, internalError("Failed to check username", err)
	}
	if exists {
		return nil, response.NewValidationError("username", "A user with that username already exists.")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.hashCost)
	if err != nil {
		return nil, internalError("Failed to hash password", err)
	}

	user := &domain.User{
		Username:     username,
		Email:        strings.TrimSpace(req.Email),
		PasswordHash: string(hash),
		Role:         domain.RoleContributor,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		// lost a race against a concurrent registration of the same name
		if exists, _ := s.userRepo.ExistsByUsername(ctx, username); exists {
			return nil, response.NewValidationError("username", "A user with that username already exists.")
		}
		return nil, internalError("Failed to create user", err)
	}

	s.logger.Info("User registered", zap.String("user_id", user.ID.String()), zap.String("username", username))
	return toUserResponse(user), nil
}

// ObtainToken exchanges username and password for an access/refresh pair
func (s *authServiceImpl) ObtainToken(ctx context.Context, req *dto.TokenRequest) (*dto.TokenResponse, error) {
	user, err := s.userRepo.FindByUsername(ctx, strings.TrimSpace(req.Username))
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internalError("Failed to load user", err)
		}
		s.metrics.RecordLoginAttempt(false)
		return nil, response.NewAppError(response.ErrCodeUnauthorized, msgBadCredentials, "")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		s.metrics.RecordLoginAttempt(false)
		return nil, response.NewAppError(response.ErrCodeUnauthorized, msgBadCredentials, "")
	}

	pair, err := s.tokens.IssuePair(user)
	if err != nil {
		return nil, internalError("Failed to issue token", err)
	}
	s.metrics.RecordLoginAttempt(true)
	return &dto.TokenResponse{Access: pair.Access, Refresh: pair.Refresh}, nil
}

// RefreshToken issues a new access token carrying the user's current role
func (s *authServiceImpl) RefreshToken(ctx context.Context, req *dto.RefreshRequest) (*dto.TokenResponse, error) {
	user, err := s.userFromToken(ctx, req.Refresh, token.TypeRefresh)
	if err != nil {
		return nil, response.NewAppError(response.ErrCodeUnauthorized, "Token is invalid or expired", "")
	}
	access, err := s.tokens.IssueAccess(user)
	if err != nil {
		return nil, internalError("Failed to issue token", err)
	}
	return &dto.TokenResponse{Access: access}, nil
}

// ValidateToken implements the auth middleware's TokenValidator
func (s *authServiceImpl) ValidateToken(ctx context.Context, tokenString string) (*authz.Caller, error) {
	user, err := s.userFromToken(ctx, tokenString, token.TypeAccess)
	if err != nil {
		return nil, err
	}
	return &authz.Caller{
		UserID:      user.ID,
		Username:    user.Username,
		Role:        user.Role,
		IsSuperuser: user.IsSuperuser,
	}, nil
}

func (s *authServiceImpl) userFromToken(ctx context.Context, tokenString string, typ token.Type) (*domain.User, error) {
	claims, err := s.tokens.Parse(tokenString, typ)
	if err != nil {
		return nil, err
	}
	userID, err := claims.ParsedUserID()
	if err != nil {
		return nil, err
	}
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, token.ErrInvalidToken
		}
		return nil, err
	}
	return user, nil
}

// EnsureBootstrapAdmin creates the configured admin account, or promotes it when it
// already exists with a lesser role. An empty username disables the bootstrap.
func (s *authServiceImpl) EnsureBootstrapAdmin(ctx context.Context, cfg config.BootstrapAdminConfig) error {
	username := strings.TrimSpace(cfg.Username)
	if username == "" {
		return nil
	}

	existing, err := s.userRepo.FindByUsername(ctx, username)
	switch {
	case err == nil:
		if existing.Role == domain.RoleAdmin {
			return nil
		}
		if err := s.userRepo.UpdateRole(ctx, existing.ID, domain.RoleAdmin); err != nil {
			return err
		}
		s.logger.Info("Promoted bootstrap user to admin", zap.String("username", username))
		return nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.Password), s.hashCost)
	if err != nil {
		return err
	}
	admin := &domain.User{
		Username:     username,
		Email:        cfg.Email,
		PasswordHash: string(hash),
		Role:         domain.RoleAdmin,
		IsSuperuser:  true,
	}
	if err := s.userRepo.Create(ctx, admin); err != nil {
		return err
	}
	s.logger.Info("Created bootstrap admin", zap.String("user_id", admin.ID.String()), zap.String("username", username))
	return nil
}
