package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/eduline/homework-service/internal/apperr"
	"github.com/eduline/homework-service/internal/models"
	"github.com/eduline/homework-service/internal/repository"
)

// AccessService gates every operation by actor role and scoped relationship.
// Scope is re-derived from the database on each call; grants can change
// between requests, so nothing here is cached.
type AccessService interface {
	RequireRole(actor models.Actor, roles ...models.Role) error
	CanManageClass(ctx context.Context, actor models.Actor, classID string) error
	CanViewClass(ctx context.Context, actor models.Actor, classID string) error
	TeacherClassIDs(ctx context.Context, teacherID string) ([]string, error)
	StudentClassIDs(ctx context.Context, studentID string) ([]string, error)
	GetTeacherAuthority(ctx context.Context, actor models.Actor, teacherID string) (*models.TeacherAuthorityResponse, error)
	UpdateTeacherAuthority(ctx context.Context, actor models.Actor, teacherID string, branchIDs, classIDs []string) error
	SetClassTeacher(ctx context.Context, actor models.Actor, classID, teacherID string, hasAccess, isLead bool) error
	EnrollStudent(ctx context.Context, actor models.Actor, classID, studentID string) error
	UnenrollStudent(ctx context.Context, actor models.Actor, classID, studentID string) error
	IsStudentEnrolled(ctx context.Context, studentID, classID string) (bool, error)
}

type accessService struct {
	accessRepo repository.AccessRepository
	userRepo   repository.UserRepository
	classRepo  repository.ClassRepository
	branchRepo repository.BranchRepository
	logger     zerolog.Logger
}

func NewAccessService(
	accessRepo repository.AccessRepository,
	userRepo repository.UserRepository,
	classRepo repository.ClassRepository,
	branchRepo repository.BranchRepository,
	logger zerolog.Logger,
) AccessService {
	return &accessService{
		accessRepo: accessRepo,
		userRepo:   userRepo,
		classRepo:  classRepo,
		branchRepo: branchRepo,
		logger:     logger,
	}
}

func (s *accessService) RequireRole(actor models.Actor, roles ...models.Role) error {
	if actor.UserID == "" {
		return apperr.AuthenticationRequired("authentication required")
	}
	if !actor.Is(roles...) {
		return apperr.Forbidden("insufficient role")
	}
	return nil
}

// CanManageClass allows admins everywhere and teachers holding a class grant.
func (s *accessService) CanManageClass(ctx context.Context, actor models.Actor, classID string) error {
	if err := s.RequireRole(actor, models.RoleAdmin, models.RoleTeacher); err != nil {
		return err
	}
	if actor.Role == models.RoleAdmin {
		return nil
	}

	ok, err := s.accessRepo.HasClassAccess(ctx, actor.UserID, classID)
	if err != nil {
		return fmt.Errorf("failed to check class access: %w", err)
	}
	if !ok {
		return apperr.Forbidden("no access to this class")
	}
	return nil
}

// CanViewClass additionally admits enrolled students.
func (s *accessService) CanViewClass(ctx context.Context, actor models.Actor, classID string) error {
	if actor.UserID == "" {
		return apperr.AuthenticationRequired("authentication required")
	}
	if actor.Role == models.RoleStudent {
		enrolled, err := s.accessRepo.IsStudentEnrolled(ctx, actor.UserID, classID)
		if err != nil {
			return fmt.Errorf("failed to check enrollment: %w", err)
		}
		if !enrolled {
			return apperr.Forbidden("not enrolled in this class")
		}
		return nil
	}
	return s.CanManageClass(ctx, actor, classID)
}

func (s *accessService) TeacherClassIDs(ctx context.Context, teacherID string) ([]string, error) {
	return s.accessRepo.TeacherClassIDs(ctx, teacherID)
}

func (s *accessService) StudentClassIDs(ctx context.Context, studentID string) ([]string, error) {
	return s.accessRepo.StudentClassIDs(ctx, studentID)
}

func (s *accessService) GetTeacherAuthority(ctx context.Context, actor models.Actor, teacherID string) (*models.TeacherAuthorityResponse, error) {
	if err := s.RequireRole(actor, models.RoleAdmin); err != nil {
		return nil, err
	}

	branchIDs, err := s.accessRepo.TeacherBranchIDs(ctx, teacherID)
	if err != nil {
		return nil, fmt.Errorf("failed to load branch grants: %w", err)
	}
	classIDs, err := s.accessRepo.TeacherClassIDs(ctx, teacherID)
	if err != nil {
		return nil, fmt.Errorf("failed to load class grants: %w", err)
	}
	leadOf, err := s.accessRepo.TeacherLeadClassIDs(ctx, teacherID)
	if err != nil {
		return nil, fmt.Errorf("failed to load lead markers: %w", err)
	}

	return &models.TeacherAuthorityResponse{
		TeacherID: teacherID,
		BranchIDs: branchIDs,
		ClassIDs:  classIDs,
		LeadOf:    leadOf,
	}, nil
}

// UpdateTeacherAuthority performs a full replace of the teacher's grants:
// grants missing from the new set are revoked, new ones inserted, all in one
// transaction. Calling it twice with the same sets is a no-op the second time.
func (s *accessService) UpdateTeacherAuthority(ctx context.Context, actor models.Actor, teacherID string, branchIDs, classIDs []string) error {
	if err := s.RequireRole(actor, models.RoleAdmin); err != nil {
		return err
	}

	teacher, err := s.userRepo.GetByID(ctx, teacherID)
	if err != nil {
		return fmt.Errorf("failed to load teacher: %w", err)
	}
	if teacher == nil {
		return apperr.NotFound("teacher not found")
	}
	if teacher.Role != models.RoleTeacher {
		return apperr.Conflict("user is not a teacher")
	}

	for _, branchID := range branchIDs {
		ok, err := s.branchRepo.Exists(ctx, branchID)
		if err != nil {
			return fmt.Errorf("failed to check branch: %w", err)
		}
		if !ok {
			return apperr.ValidationFields("unknown branch", map[string]string{"branch_ids": branchID})
		}
	}

	for _, classID := range classIDs {
		ok, err := s.classRepo.Exists(ctx, classID)
		if err != nil {
			return fmt.Errorf("failed to check class: %w", err)
		}
		if !ok {
			return apperr.ValidationFields("unknown class", map[string]string{"class_ids": classID})
		}
	}

	if err := s.accessRepo.ReplaceTeacherAuthority(ctx, teacherID, branchIDs, classIDs); err != nil {
		return fmt.Errorf("failed to replace authority: %w", err)
	}

	s.logger.Info().
		Str("teacher_id", teacherID).
		Int("branches", len(branchIDs)).
		Int("classes", len(classIDs)).
		Msg("Teacher authority replaced")

	return nil
}

// SetClassTeacher drives the per-class relationship between a teacher and a
// class: NoAccess <-> Access <-> AccessAndLead. Lead without access is not a
// reachable state; requesting it fails with a conflict.
func (s *accessService) SetClassTeacher(ctx context.Context, actor models.Actor, classID, teacherID string, hasAccess, isLead bool) error {
	if err := s.RequireRole(actor, models.RoleAdmin); err != nil {
		return err
	}

	if isLead && !hasAccess {
		return apperr.Conflict("a teacher cannot lead a class without access to it")
	}

	teacher, err := s.userRepo.GetByID(ctx, teacherID)
	if err != nil {
		return fmt.Errorf("failed to load teacher: %w", err)
	}
	if teacher == nil || teacher.Role != models.RoleTeacher {
		return apperr.NotFound("teacher not found")
	}

	classExists, err := s.classRepo.Exists(ctx, classID)
	if err != nil {
		return fmt.Errorf("failed to check class: %w", err)
	}
	if !classExists {
		return apperr.NotFound("class not found")
	}

	if !hasAccess {
		// revoking access clears the lead marker in the same transaction
		if err := s.accessRepo.RevokeClassAccess(ctx, teacherID, classID); err != nil {
			return fmt.Errorf("failed to revoke class access: %w", err)
		}
		return nil
	}

	if err := s.accessRepo.GrantClassAccess(ctx, teacherID, classID); err != nil {
		return fmt.Errorf("failed to grant class access: %w", err)
	}

	if isLead {
		if err := s.accessRepo.GrantLead(ctx, teacherID, classID); err != nil {
			return fmt.Errorf("failed to grant lead: %w", err)
		}
	} else {
		if err := s.accessRepo.RevokeLead(ctx, teacherID, classID); err != nil {
			return fmt.Errorf("failed to revoke lead: %w", err)
		}
	}

	return nil
}

func (s *accessService) EnrollStudent(ctx context.Context, actor models.Actor, classID, studentID string) error {
	if err := s.CanManageClass(ctx, actor, classID); err != nil {
		return err
	}

	student, err := s.userRepo.GetByID(ctx, studentID)
	if err != nil {
		return fmt.Errorf("failed to load student: %w", err)
	}
	if student == nil || student.Role != models.RoleStudent {
		return apperr.NotFound("student not found")
	}

	classExists, err := s.classRepo.Exists(ctx, classID)
	if err != nil {
		return fmt.Errorf("failed to check class: %w", err)
	}
	if !classExists {
		return apperr.NotFound("class not found")
	}

	return s.accessRepo.EnrollStudent(ctx, studentID, classID)
}

func (s *accessService) UnenrollStudent(ctx context.Context, actor models.Actor, classID, studentID string) error {
	if err := s.CanManageClass(ctx, actor, classID); err != nil {
		return err
	}
	return s.accessRepo.UnenrollStudent(ctx, studentID, classID)
}

func (s *accessService) IsStudentEnrolled(ctx context.Context, studentID, classID string) (bool, error) {
	return s.accessRepo.IsStudentEnrolled(ctx, studentID, classID)
}
