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
	"github.com/eduline/homework-service/internal/service/integration"
	"github.com/eduline/homework-service/internal/storage"
)

type SubmissionService interface {
	Upload(ctx context.Context, actor models.Actor, req *models.UploadSubmissionRequest) (*models.Submission, error)
	GetByID(ctx context.Context, actor models.Actor, id string) (*models.Submission, error)
	ListByAssignment(ctx context.Context, actor models.Actor, assignmentID string, page, limit int) (*models.SubmissionsResponse, error)
	ListByStudent(ctx context.Context, actor models.Actor, studentID string, page, limit int) (*models.SubmissionsResponse, error)
	Patch(ctx context.Context, actor models.Actor, id string, req *models.PatchSubmissionRequest) (*models.Submission, error)
	Delete(ctx context.Context, actor models.Actor, id string) error
	GetEvents(ctx context.Context, actor models.Actor, id string) ([]models.SubmissionEvent, error)
}

type submissionService struct {
	submissionRepo repository.SubmissionRepository
	assignmentRepo repository.AssignmentRepository
	userRepo       repository.UserRepository
	eventRepo      repository.EventRepository
	access         AccessService
	images         storage.ImageStore
	publisher      integration.EventPublisher
	logger         zerolog.Logger
}

func NewSubmissionService(
	submissionRepo repository.SubmissionRepository,
	assignmentRepo repository.AssignmentRepository,
	userRepo repository.UserRepository,
	eventRepo repository.EventRepository,
	access AccessService,
	images storage.ImageStore,
	publisher integration.EventPublisher,
	logger zerolog.Logger,
) SubmissionService {
	return &submissionService{
		submissionRepo: submissionRepo,
		assignmentRepo: assignmentRepo,
		userRepo:       userRepo,
		eventRepo:      eventRepo,
		access:         access,
		images:         images,
		publisher:      publisher,
		logger:         logger,
	}
}

// Upload stores the image and records the submission as uploaded. Both the
// assignment and the student must exist before anything is written; a
// submission never references a missing row.
func (s *submissionService) Upload(ctx context.Context, actor models.Actor, req *models.UploadSubmissionRequest) (*models.Submission, error) {
	if actor.UserID == "" {
		return nil, apperr.AuthenticationRequired("authentication required")
	}
	if actor.Role == models.RoleStudent && actor.UserID != req.StudentID {
		return nil, apperr.Forbidden("students can only upload their own submissions")
	}
	if len(req.ImageContent) == 0 {
		return nil, apperr.Validation("image content is empty")
	}

	assignment, err := s.assignmentRepo.GetByID(ctx, req.AssignmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load assignment: %w", err)
	}
	if assignment == nil {
		return nil, apperr.NotFound("assignment not found")
	}

	student, err := s.userRepo.GetByID(ctx, req.StudentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load student: %w", err)
	}
	if student == nil || student.Role != models.RoleStudent {
		return nil, apperr.NotFound("student not found")
	}

	if assignment.ClassID != nil {
		switch actor.Role {
		case models.RoleStudent:
			enrolled, err := s.access.IsStudentEnrolled(ctx, actor.UserID, *assignment.ClassID)
			if err != nil {
				return nil, fmt.Errorf("failed to check enrollment: %w", err)
			}
			if !enrolled {
				return nil, apperr.Forbidden("not enrolled in this class")
			}
		default:
			if err := s.access.CanManageClass(ctx, actor, *assignment.ClassID); err != nil {
				return nil, err
			}
		}
	} else if err := s.access.RequireRole(actor, models.RoleAdmin); err != nil {
		return nil, err
	}

	imageURL, err := s.images.Put(ctx, req.ImageContent, req.ContentType)
	if err != nil {
		return nil, fmt.Errorf("failed to store image: %w", err)
	}

	now := time.Now()
	submission := &models.Submission{
		ID:           uuid.New().String(),
		AssignmentID: req.AssignmentID,
		StudentID:    req.StudentID,
		ImageURL:     imageURL,
		Status:       models.SubmissionStatusUploaded,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.submissionRepo.Create(ctx, submission); err != nil {
		return nil, fmt.Errorf("failed to create submission: %w", err)
	}

	s.logger.Info().
		Str("submission_id", submission.ID).
		Str("assignment_id", submission.AssignmentID).
		Msg("Submission uploaded")

	s.publishEvent(ctx, submission, models.EventSubmissionUploaded, "")

	return submission, nil
}

func (s *submissionService) GetByID(ctx context.Context, actor models.Actor, id string) (*models.Submission, error) {
	submission, err := s.submissionRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load submission: %w", err)
	}
	if submission == nil {
		return nil, apperr.NotFound("submission not found")
	}

	if err := s.authorizeView(ctx, actor, submission); err != nil {
		return nil, err
	}

	return submission, nil
}

func (s *submissionService) ListByAssignment(ctx context.Context, actor models.Actor, assignmentID string, page, limit int) (*models.SubmissionsResponse, error) {
	assignment, err := s.assignmentRepo.GetByID(ctx, assignmentID)
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

	page, limit = normalizePage(page, limit)

	// Students see only their own rows; the predicate runs in SQL so
	// pagination and the total never count other students' submissions.
	var (
		submissions []models.SubmissionWithDetails
		total       int
	)
	if actor.Role == models.RoleStudent {
		submissions, total, err = s.submissionRepo.GetByAssignmentAndStudent(ctx, assignmentID, actor.UserID, limit, (page-1)*limit)
	} else {
		submissions, total, err = s.submissionRepo.GetByAssignmentID(ctx, assignmentID, limit, (page-1)*limit)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}

	return &models.SubmissionsResponse{
		Submissions: submissions,
		Total:       total,
		Page:        page,
		Limit:       limit,
	}, nil
}

func (s *submissionService) ListByStudent(ctx context.Context, actor models.Actor, studentID string, page, limit int) (*models.SubmissionsResponse, error) {
	if actor.UserID == "" {
		return nil, apperr.AuthenticationRequired("authentication required")
	}
	if actor.Role == models.RoleStudent && actor.UserID != studentID {
		return nil, apperr.Forbidden("students can only view their own submissions")
	}
	if actor.Role != models.RoleStudent {
		if err := s.access.RequireRole(actor, models.RoleAdmin, models.RoleTeacher); err != nil {
			return nil, err
		}
	}

	page, limit = normalizePage(page, limit)
	submissions, total, err := s.submissionRepo.GetByStudentID(ctx, studentID, limit, (page-1)*limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}

	return &models.SubmissionsResponse{
		Submissions: submissions,
		Total:       total,
		Page:        page,
		Limit:       limit,
	}, nil
}

// Patch covers the teacher's manual pass: feedback text and explicit status
// moves such as ai-reviewed -> completed.
func (s *submissionService) Patch(ctx context.Context, actor models.Actor, id string, req *models.PatchSubmissionRequest) (*models.Submission, error) {
	submission, err := s.submissionRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load submission: %w", err)
	}
	if submission == nil {
		return nil, apperr.NotFound("submission not found")
	}

	if err := s.authorizeManage(ctx, actor, submission); err != nil {
		return nil, err
	}

	var status *models.SubmissionStatus
	if req.Status != nil {
		if !models.IsValidSubmissionStatus(*req.Status) {
			return nil, apperr.Validation("invalid submission status")
		}
		st := models.SubmissionStatus(*req.Status)
		status = &st
	}

	if err := s.submissionRepo.UpdateTeacherReview(ctx, id, req.TeacherFeedback, status); err != nil {
		return nil, fmt.Errorf("failed to update submission: %w", err)
	}

	updated, err := s.submissionRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to reload submission: %w", err)
	}
	return updated, nil
}

func (s *submissionService) Delete(ctx context.Context, actor models.Actor, id string) error {
	submission, err := s.submissionRepo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load submission: %w", err)
	}
	if submission == nil {
		return apperr.NotFound("submission not found")
	}

	if err := s.authorizeManage(ctx, actor, submission); err != nil {
		return err
	}

	if err := s.submissionRepo.DeleteWithComments(ctx, id); err != nil {
		return fmt.Errorf("failed to delete submission: %w", err)
	}

	// The database row is the source of truth; an orphaned image is only
	// wasted space.
	if err := s.images.Delete(ctx, submission.ImageURL); err != nil {
		s.logger.Warn().Err(err).
			Str("submission_id", id).
			Msg("Failed to delete submission image")
	}

	return nil
}

func (s *submissionService) GetEvents(ctx context.Context, actor models.Actor, id string) ([]models.SubmissionEvent, error) {
	if err := s.access.RequireRole(actor, models.RoleAdmin); err != nil {
		return nil, err
	}

	submission, err := s.submissionRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load submission: %w", err)
	}
	if submission == nil {
		return nil, apperr.NotFound("submission not found")
	}

	return s.eventRepo.GetBySubmissionID(ctx, id)
}

func (s *submissionService) authorizeView(ctx context.Context, actor models.Actor, submission *models.Submission) error {
	if actor.UserID == "" {
		return apperr.AuthenticationRequired("authentication required")
	}
	if actor.Role == models.RoleStudent {
		if submission.StudentID != actor.UserID {
			return apperr.Forbidden("students can only view their own submissions")
		}
		return nil
	}
	return s.authorizeManage(ctx, actor, submission)
}

func (s *submissionService) authorizeManage(ctx context.Context, actor models.Actor, submission *models.Submission) error {
	if err := s.access.RequireRole(actor, models.RoleAdmin, models.RoleTeacher); err != nil {
		return err
	}
	if actor.Role == models.RoleAdmin {
		return nil
	}

	assignment, err := s.assignmentRepo.GetByID(ctx, submission.AssignmentID)
	if err != nil {
		return fmt.Errorf("failed to load assignment: %w", err)
	}
	if assignment == nil || assignment.ClassID == nil {
		return apperr.Forbidden("no access to this submission")
	}
	return s.access.CanManageClass(ctx, actor, *assignment.ClassID)
}

func (s *submissionService) publishEvent(ctx context.Context, submission *models.Submission, eventType, detail string) {
	if s.publisher == nil {
		return
	}

	event := &models.SubmissionLifecycleEvent{
		Type:         eventType,
		SubmissionID: submission.ID,
		AssignmentID: submission.AssignmentID,
		StudentID:    submission.StudentID,
		Status:       submission.Status.String(),
		Detail:       detail,
		Timestamp:    time.Now().Unix(),
	}

	if err := s.publisher.PublishSubmissionEvent(ctx, event); err != nil {
		s.logger.Warn().Err(err).
			Str("submission_id", submission.ID).
			Str("type", eventType).
			Msg("Failed to publish submission event")
	}
}
