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

type BranchService interface {
	Create(ctx context.Context, actor models.Actor, req *models.CreateBranchRequest) (*models.Branch, error)
	GetByID(ctx context.Context, actor models.Actor, id string) (*models.Branch, error)
	GetAll(ctx context.Context, actor models.Actor, page, limit int) ([]models.Branch, int, error)
	Update(ctx context.Context, actor models.Actor, id string, req *models.UpdateBranchRequest) (*models.Branch, error)
	Hide(ctx context.Context, actor models.Actor, id string) error
}

type branchService struct {
	branchRepo repository.BranchRepository
	access     AccessService
	logger     zerolog.Logger
}

func NewBranchService(branchRepo repository.BranchRepository, access AccessService, logger zerolog.Logger) BranchService {
	return &branchService{
		branchRepo: branchRepo,
		access:     access,
		logger:     logger,
	}
}

func (s *branchService) Create(ctx context.Context, actor models.Actor, req *models.CreateBranchRequest) (*models.Branch, error) {
	if err := s.access.RequireRole(actor, models.RoleAdmin); err != nil {
		return nil, err
	}

	now := time.Now()
	branch := &models.Branch{
		ID:        uuid.New().String(),
		Name:      req.Name,
		Address:   req.Address,
		Lifecycle: models.LifecycleActive,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.branchRepo.Create(ctx, branch); err != nil {
		return nil, fmt.Errorf("failed to create branch: %w", err)
	}

	return branch, nil
}

func (s *branchService) GetByID(ctx context.Context, actor models.Actor, id string) (*models.Branch, error) {
	if err := s.access.RequireRole(actor, models.RoleAdmin, models.RoleTeacher); err != nil {
		return nil, err
	}

	branch, err := s.branchRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load branch: %w", err)
	}
	if branch == nil {
		return nil, apperr.NotFound("branch not found")
	}
	return branch, nil
}

func (s *branchService) GetAll(ctx context.Context, actor models.Actor, page, limit int) ([]models.Branch, int, error) {
	if err := s.access.RequireRole(actor, models.RoleAdmin, models.RoleTeacher); err != nil {
		return nil, 0, err
	}

	page, limit = normalizePage(page, limit)
	return s.branchRepo.GetAll(ctx, limit, (page-1)*limit)
}

func (s *branchService) Update(ctx context.Context, actor models.Actor, id string, req *models.UpdateBranchRequest) (*models.Branch, error) {
	if err := s.access.RequireRole(actor, models.RoleAdmin); err != nil {
		return nil, err
	}

	branch, err := s.branchRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load branch: %w", err)
	}
	if branch == nil {
		return nil, apperr.NotFound("branch not found")
	}

	if req.Name != nil {
		branch.Name = *req.Name
	}
	if req.Address != nil {
		branch.Address = req.Address
	}

	if err := s.branchRepo.Update(ctx, branch); err != nil {
		return nil, fmt.Errorf("failed to update branch: %w", err)
	}

	return branch, nil
}

func (s *branchService) Hide(ctx context.Context, actor models.Actor, id string) error {
	if err := s.access.RequireRole(actor, models.RoleAdmin); err != nil {
		return err
	}

	branch, err := s.branchRepo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load branch: %w", err)
	}
	if branch == nil {
		return apperr.NotFound("branch not found")
	}

	return s.branchRepo.Hide(ctx, id)
}

func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit
}
