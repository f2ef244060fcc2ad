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

type AssignmentService interface {
	Create(ctx context.Context, actor models.Actor, req *models.CreateAssignmentRequest) (*models.Assignment, error)
	GetByID(ctx context.Context, actor models.Actor, id string) (*models.Assignment, error)
	List(ctx context.Context, actor models.Actor, page, limit int) ([]models.AssignmentWithStats, int, error)
	Update(ctx context.Context, actor models.Actor, id string, req *models.UpdateAssignmentRequest) (*models.Assignment, error)
	Hide(ctx context.Context, actor models.Actor, id string) error
}

type assignmentService struct {
	assignmentRepo repository.AssignmentRepository
	classRepo      repository.ClassRepository
	access         AccessService
	logger         zerolog.Logger
}

func NewAssignmentService(
	assignmentRepo repository.AssignmentRepository,
	classRepo repository.ClassRepository,
	access AccessService,
	logger zerolog.Logger,
) AssignmentService {
	return &assignmentService{
		assignmentRepo: assignmentRepo,
		classRepo:      classRepo,
		access:         access,
		logger:         logger,
	}
}

func (s *assignmentService) Create(ctx context.Context, actor models.Actor, req *models.CreateAssignmentRequest) (*models.Assignment, error) {
	if err := s.access.CanManageClass(ctx, actor, req.ClassID); err != nil {
		return nil, err
	}

	classExists, err := s.classRepo.Exists(ctx, req.ClassID)
	if err != nil {
		return nil, fmt.Errorf("failed to check class: %w", err)
	}
	if !classExists {
		return nil, apperr.NotFound("class not found")
	}

	now := time.Now()
	creator := actor.UserID
	assignment := &models.Assignment{
		ID:            uuid.New().String(),
		Title:         req.Title,
		Description:   req.Description,
		ClassID:       &req.ClassID,
		CreatorUserID: &creator,
		DueDate:       req.DueDate,
		Status:        models.AssignmentStatusDraft,
		Lifecycle:     models.LifecycleActive,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.assignmentRepo.Create(ctx, assignment); err != nil {
		return nil, fmt.Errorf("failed to create assignment: %w", err)
	}

	s.logger.Info().
		Str("assignment_id", assignment.ID).
		Str("class_id", req.ClassID).
		Msg("Assignment created")

	return assignment, nil
}

func (s *assignmentService) GetByID(ctx context.Context, actor models.Actor, id string) (*models.Assignment, error) {
	assignment, err := s.assignmentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load assignment: %w", err)
	}
	if assignment == nil {
		return nil, apperr.NotFound("assignment not found")
	}

	if assignment.ClassID != nil {
		if err := s.access.CanViewClass(ctx, actor, *assignment.ClassID); err != nil {
			return nil, err
		}
	} else if err := s.access.RequireRole(actor, models.RoleAdmin); err != nil {
		return nil, err
	}

	return assignment, nil
}

func (s *assignmentService) List(ctx context.Context, actor models.Actor, page, limit int) ([]models.AssignmentWithStats, int, error) {
	if actor.UserID == "" {
		return nil, 0, apperr.AuthenticationRequired("authentication required")
	}

	page, limit = normalizePage(page, limit)

	if actor.Role == models.RoleAdmin {
		return s.assignmentRepo.GetAll(ctx, limit, (page-1)*limit)
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

	return s.assignmentRepo.GetByClassIDs(ctx, classIDs, limit, (page-1)*limit)
}

func (s *assignmentService) Update(ctx context.Context, actor models.Actor, id string, req *models.UpdateAssignmentRequest) (*models.Assignment, error) {
	assignment, err := s.assignmentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load assignment: %w", err)
	}
	if assignment == nil {
		return nil, apperr.NotFound("assignment not found")
	}

	if assignment.ClassID != nil {
		if err := s.access.CanManageClass(ctx, actor, *assignment.ClassID); err != nil {
			return nil, err
		}
	} else if err := s.access.RequireRole(actor, models.RoleAdmin); err != nil {
		return nil, err
	}

	if req.Title != nil {
		assignment.Title = *req.Title
	}
	if req.Description != nil {
		assignment.Description = req.Description
	}
	if req.DueDate != nil {
		assignment.DueDate = req.DueDate
	}
	if req.Status != nil {
		if !models.IsValidAssignmentStatus(*req.Status) {
			return nil, apperr.Validation("invalid assignment status")
		}
		assignment.Status = models.AssignmentStatus(*req.Status)
	}

	if err := s.assignmentRepo.Update(ctx, assignment); err != nil {
		return nil, fmt.Errorf("failed to update assignment: %w", err)
	}

	return assignment, nil
}

func (s *assignmentService) Hide(ctx context.Context, actor models.Actor, id string) error {
	assignment, err := s.assignmentRepo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load assignment: %w", err)
	}
	if assignment == nil {
		return apperr.NotFound("assignment not found")
	}

	if assignment.ClassID != nil {
		if err := s.access.CanManageClass(ctx, actor, *assignment.ClassID); err != nil {
			return err
		}
	} else if err := s.access.RequireRole(actor, models.RoleAdmin); err != nil {
		return err
	}

	return s.assignmentRepo.Hide(ctx, id)
}
