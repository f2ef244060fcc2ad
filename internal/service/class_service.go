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
)

type ClassService interface {
	Create(ctx context.Context, actor models.Actor, req *models.CreateClassRequest) (*models.Class, error)
	GetByID(ctx context.Context, actor models.Actor, id string) (*models.Class, error)
	List(ctx context.Context, actor models.Actor, page, limit int) ([]models.Class, int, error)
	Update(ctx context.Context, actor models.Actor, id string, req *models.UpdateClassRequest) (*models.Class, error)
	Hide(ctx context.Context, actor models.Actor, id string) error
}

type classService struct {
	classRepo  repository.ClassRepository
	branchRepo repository.BranchRepository
	access     AccessService
	logger     zerolog.Logger
}

func NewClassService(
	classRepo repository.ClassRepository,
	branchRepo repository.BranchRepository,
	access AccessService,
	logger zerolog.Logger,
) ClassService {
	return &classService{
		classRepo:  classRepo,
		branchRepo: branchRepo,
		access:     access,
		logger:     logger,
	}
}

func (s *classService) Create(ctx context.Context, actor models.Actor, req *models.CreateClassRequest) (*models.Class, error) {
	if err := s.access.RequireRole(actor, models.RoleAdmin); err != nil {
		return nil, err
	}

	if req.BranchID != nil {
		ok, err := s.branchRepo.Exists(ctx, *req.BranchID)
		if err != nil {
			return nil, fmt.Errorf("failed to check branch: %w", err)
		}
		if !ok {
			return nil, apperr.ValidationFields("unknown branch", map[string]string{"branch_id": *req.BranchID})
		}
	}

	now := time.Now()
	class := &models.Class{
		ID:           uuid.New().String(),
		Name:         req.Name,
		BranchID:     req.BranchID,
		EnglishLevel: req.EnglishLevel,
		AgeGroup:     req.AgeGroup,
		Lifecycle:    models.LifecycleActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.classRepo.Create(ctx, class); err != nil {
		return nil, fmt.Errorf("failed to create class: %w", err)
	}

	return class, nil
}

func (s *classService) GetByID(ctx context.Context, actor models.Actor, id string) (*models.Class, error) {
	if err := s.access.CanViewClass(ctx, actor, id); err != nil {
		return nil, err
	}

	class, err := s.classRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load class: %w", err)
	}
	if class == nil {
		return nil, apperr.NotFound("class not found")
	}
	return class, nil
}

// List returns classes within the actor's scope: everything for admins,
// granted classes for teachers, enrolled classes for students.
func (s *classService) List(ctx context.Context, actor models.Actor, page, limit int) ([]models.Class, int, error) {
	if actor.UserID == "" {
		return nil, 0, apperr.AuthenticationRequired("authentication required")
	}

	page, limit = normalizePage(page, limit)

	if actor.Role == models.RoleAdmin {
		return s.classRepo.GetAll(ctx, limit, (page-1)*limit)
	}

	var classIDs []string
	var err error
	switch actor.Role {
	case models.RoleTeacher:
		classIDs, err = s.access.TeacherClassIDs(ctx, actor.UserID)
	case models.RoleStudent:
		classIDs, err = s.access.StudentClassIDs(ctx, actor.UserID)
	default:
		return nil, 0, apperr.Forbidden("insufficient role")
	}
	if err != nil {
		return nil, 0, fmt.Errorf("failed to resolve class scope: %w", err)
	}

	classes, err := s.classRepo.GetByIDs(ctx, classIDs)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to load classes: %w", err)
	}

	return classes, len(classes), nil
}

func (s *classService) Update(ctx context.Context, actor models.Actor, id string, req *models.UpdateClassRequest) (*models.Class, error) {
	if err := s.access.CanManageClass(ctx, actor, id); err != nil {
		return nil, err
	}

	class, err := s.classRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load class: %w", err)
	}
	if class == nil {
		return nil, apperr.NotFound("class not found")
	}

	if req.Name != nil {
		class.Name = *req.Name
	}
	if req.BranchID != nil {
		ok, err := s.branchRepo.Exists(ctx, *req.BranchID)
		if err != nil {
			return nil, fmt.Errorf("failed to check branch: %w", err)
		}
		if !ok {
			return nil, apperr.ValidationFields("unknown branch", map[string]string{"branch_id": *req.BranchID})
		}
		class.BranchID = req.BranchID
	}
	if req.EnglishLevel != nil {
		class.EnglishLevel = *req.EnglishLevel
	}
	if req.AgeGroup != nil {
		class.AgeGroup = *req.AgeGroup
	}

	if err := s.classRepo.Update(ctx, class); err != nil {
		return nil, fmt.Errorf("failed to update class: %w", err)
	}

	return class, nil
}

func (s *classService) Hide(ctx context.Context, actor models.Actor, id string) error {
	if err := s.access.RequireRole(actor, models.RoleAdmin); err != nil {
		return err
	}

	class, err := s.classRepo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load class: %w", err)
	}
	if class == nil {
		return apperr.NotFound("class not found")
	}

	return s.classRepo.Hide(ctx, id)
}
