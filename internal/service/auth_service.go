package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/eduline/homework-service/internal/apperr"
	"github.com/eduline/homework-service/internal/models"
	"github.com/eduline/homework-service/internal/repository"
	"github.com/eduline/homework-service/pkg/password"
)

type AuthService interface {
	Register(ctx context.Context, req *models.RegisterRequest) (*models.User, error)
	Login(ctx context.Context, req *models.LoginRequest) (*models.User, error)
	GetUser(ctx context.Context, id string) (*models.User, error)
	ListUsers(ctx context.Context, actor models.Actor, role string, page, limit int) ([]models.User, int, error)
	UpdateUser(ctx context.Context, actor models.Actor, id string, req *models.UpdateUserRequest) (*models.User, error)
	HideUser(ctx context.Context, actor models.Actor, id string) error
}

type authService struct {
	userRepo repository.UserRepository
	logger   zerolog.Logger
}

func NewAuthService(userRepo repository.UserRepository, logger zerolog.Logger) AuthService {
	return &authService{
		userRepo: userRepo,
		logger:   logger,
	}
}

func (s *authService) Register(ctx context.Context, req *models.RegisterRequest) (*models.User, error) {
	if !models.IsValidRole(req.Role) {
		return nil, apperr.Validation("invalid role")
	}

	existing, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if existing != nil {
		return nil, apperr.Conflict("email already registered")
	}

	hash, err := password.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now()
	user := &models.User{
		ID:           uuid.New().String(),
		Email:        req.Email,
		Name:         req.Name,
		PasswordHash: hash,
		Role:         models.Role(req.Role),
		Lifecycle:    models.LifecycleActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info().
		Str("user_id", user.ID).
		Str("role", user.Role.String()).
		Msg("User registered")

	return user, nil
}

func (s *authService) Login(ctx context.Context, req *models.LoginRequest) (*models.User, error) {
	user, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil || !password.Verify(req.Password, user.PasswordHash) {
		return nil, apperr.AuthenticationRequired("invalid email or password")
	}

	return user, nil
}

// ListUsers returns active users of one role. Admins can list anyone,
// teachers only students (for enrollment pickers).
func (s *authService) ListUsers(ctx context.Context, actor models.Actor, role string, page, limit int) ([]models.User, int, error) {
	if actor.UserID == "" {
		return nil, 0, apperr.AuthenticationRequired("authentication required")
	}
	if !models.IsValidRole(role) {
		return nil, 0, apperr.Validation("invalid role")
	}

	switch actor.Role {
	case models.RoleAdmin:
	case models.RoleTeacher:
		if models.Role(role) != models.RoleStudent {
			return nil, 0, apperr.Forbidden("teachers can only list students")
		}
	default:
		return nil, 0, apperr.Forbidden("insufficient role")
	}

	page, limit = normalizePage(page, limit)
	return s.userRepo.GetActiveByRole(ctx, models.Role(role), limit, (page-1)*limit)
}

func (s *authService) UpdateUser(ctx context.Context, actor models.Actor, id string, req *models.UpdateUserRequest) (*models.User, error) {
	if !actor.Is(models.RoleAdmin) && actor.UserID != id {
		return nil, apperr.Forbidden("cannot update another user")
	}

	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil || user.Lifecycle != models.LifecycleActive {
		return nil, apperr.NotFound("user not found")
	}

	user.Name = req.Name
	user.Phone = req.Phone
	if req.BranchID != nil {
		user.BranchID = req.BranchID
	}
	if req.BirthDate != nil {
		birthDate, err := time.Parse("2006-01-02", *req.BirthDate)
		if err != nil {
			return nil, apperr.Validation("invalid birth_date")
		}
		user.BirthDate = &birthDate
	}
	user.UpdatedAt = time.Now()

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	return user, nil
}

func (s *authService) HideUser(ctx context.Context, actor models.Actor, id string) error {
	if !actor.Is(models.RoleAdmin) {
		return apperr.Forbidden("admin role required")
	}

	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil || user.Lifecycle != models.LifecycleActive {
		return apperr.NotFound("user not found")
	}

	if err := s.userRepo.Hide(ctx, id); err != nil {
		return fmt.Errorf("failed to hide user: %w", err)
	}

	s.logger.Info().Str("user_id", id).Msg("User hidden")
	return nil
}

func (s *authService) GetUser(ctx context.Context, id string) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil {
		return nil, apperr.NotFound("user not found")
	}
	return user, nil
}
