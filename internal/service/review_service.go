package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/eduline/homework-service/internal/apperr"
	"github.com/eduline/homework-service/internal/models"
	"github.com/eduline/homework-service/internal/repository"
	"github.com/eduline/homework-service/internal/service/integration"
	"github.com/eduline/homework-service/internal/storage"
)

// ReviewService runs the OCR + feedback pipeline over uploaded submissions.
// Processing is synchronous and sequential: one submission at a time, each
// claimed atomically so a concurrent sweep can never double-process.
type ReviewService interface {
	ReviewAssignment(ctx context.Context, actor models.Actor, assignmentID string) (int, error)
	Reprocess(ctx context.Context, actor models.Actor, submissionID string) (*models.Submission, error)
}

type reviewService struct {
	submissionRepo repository.SubmissionRepository
	assignmentRepo repository.AssignmentRepository
	classRepo      repository.ClassRepository
	access         AccessService
	images         storage.ImageStore
	ai             integration.AIClient
	publisher      integration.EventPublisher
	logger         zerolog.Logger
}

func NewReviewService(
	submissionRepo repository.SubmissionRepository,
	assignmentRepo repository.AssignmentRepository,
	classRepo repository.ClassRepository,
	access AccessService,
	images storage.ImageStore,
	ai integration.AIClient,
	publisher integration.EventPublisher,
	logger zerolog.Logger,
) ReviewService {
	return &reviewService{
		submissionRepo: submissionRepo,
		assignmentRepo: assignmentRepo,
		classRepo:      classRepo,
		access:         access,
		images:         images,
		ai:             ai,
		publisher:      publisher,
		logger:         logger,
	}
}

// ReviewAssignment sweeps every uploaded submission of the assignment and
// returns how many ended up ai-reviewed. A failure on one submission is
// recorded on that submission and never aborts the rest of the sweep.
func (s *reviewService) ReviewAssignment(ctx context.Context, actor models.Actor, assignmentID string) (int, error) {
	assignment, err := s.assignmentRepo.GetByID(ctx, assignmentID)
	if err != nil {
		return 0, fmt.Errorf("failed to load assignment: %w", err)
	}
	if assignment == nil {
		return 0, apperr.NotFound("assignment not found")
	}

	if assignment.ClassID != nil {
		if err := s.access.CanManageClass(ctx, actor, *assignment.ClassID); err != nil {
			return 0, err
		}
	} else if err := s.access.RequireRole(actor, models.RoleAdmin); err != nil {
		return 0, err
	}

	ids, err := s.submissionRepo.GetUploadedIDsByAssignment(ctx, assignmentID)
	if err != nil {
		return 0, fmt.Errorf("failed to list uploaded submissions: %w", err)
	}

	processed := 0
	for _, id := range ids {
		claimed, err := s.submissionRepo.Claim(ctx, id)
		if err != nil {
			s.logger.Error().Err(err).Str("submission_id", id).Msg("Failed to claim submission")
			continue
		}
		if !claimed {
			// someone else took it since the listing; nothing to do
			continue
		}

		if err := s.process(ctx, id); err != nil {
			s.logger.Warn().Err(err).Str("submission_id", id).Msg("Submission review failed")
			continue
		}
		processed++
	}

	s.logger.Info().
		Str("assignment_id", assignmentID).
		Int("uploaded", len(ids)).
		Int("processed", processed).
		Msg("Assignment review finished")

	return processed, nil
}

// Reprocess forces a single submission through the pipeline regardless of its
// current status. The failed -> processing transition lives here.
func (s *reviewService) Reprocess(ctx context.Context, actor models.Actor, submissionID string) (*models.Submission, error) {
	submission, err := s.submissionRepo.GetByID(ctx, submissionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load submission: %w", err)
	}
	if submission == nil {
		return nil, apperr.NotFound("submission not found")
	}

	assignment, err := s.assignmentRepo.GetByID(ctx, submission.AssignmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load assignment: %w", err)
	}
	if assignment != nil && assignment.ClassID != nil {
		if err := s.access.CanManageClass(ctx, actor, *assignment.ClassID); err != nil {
			return nil, err
		}
	} else if err := s.access.RequireRole(actor, models.RoleAdmin); err != nil {
		return nil, err
	}

	if err := s.submissionRepo.ForceClaim(ctx, submissionID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("submission not found")
		}
		return nil, fmt.Errorf("failed to claim submission: %w", err)
	}

	if err := s.process(ctx, submissionID); err != nil {
		s.logger.Warn().Err(err).Str("submission_id", submissionID).Msg("Submission reprocess failed")
	}

	updated, err := s.submissionRepo.GetByID(ctx, submissionID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload submission: %w", err)
	}
	return updated, nil
}

// process runs OCR and feedback for one already-claimed submission and
// records the terminal state. Provider timeouts roll the submission back to
// uploaded so a later sweep retries it; every other failure lands in failed
// with a diagnostic.
func (s *reviewService) process(ctx context.Context, submissionID string) error {
	submission, err := s.submissionRepo.GetByID(ctx, submissionID)
	if err != nil {
		return fmt.Errorf("failed to load submission: %w", err)
	}
	if submission == nil {
		return fmt.Errorf("submission %s vanished during processing", submissionID)
	}

	// resolve the class before touching the provider; a broken reference
	// should not burn quota
	class, err := s.resolveClass(ctx, submission.AssignmentID)
	if err != nil {
		return s.fail(ctx, submission, err)
	}

	image, err := s.images.Get(ctx, submission.ImageURL)
	if err != nil {
		return s.fail(ctx, submission, fmt.Errorf("failed to fetch image: %w", err))
	}

	extraction, err := s.ai.ExtractText(ctx, image)
	if err != nil {
		return s.fail(ctx, submission, err)
	}

	feedback, err := s.ai.GenerateFeedback(ctx, extraction.Text, class.EnglishLevel, class.AgeGroup)
	if err != nil {
		return s.fail(ctx, submission, err)
	}

	if err := s.submissionRepo.MarkReviewed(ctx, submission.ID, extraction.Text, feedback); err != nil {
		return fmt.Errorf("failed to mark submission reviewed: %w", err)
	}

	submission.Status = models.SubmissionStatusAIReviewed
	s.publishEvent(ctx, submission, models.EventSubmissionReviewed, "")

	s.logger.Info().
		Str("submission_id", submission.ID).
		Float64("ocr_confidence", extraction.Confidence).
		Msg("Submission reviewed")

	return nil
}

func (s *reviewService) resolveClass(ctx context.Context, assignmentID string) (*models.Class, error) {
	assignment, err := s.assignmentRepo.GetByID(ctx, assignmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load assignment: %w", err)
	}
	if assignment == nil {
		return nil, fmt.Errorf("assignment %s not found", assignmentID)
	}
	if assignment.ClassID == nil {
		return nil, fmt.Errorf("assignment %s has no class", assignmentID)
	}

	class, err := s.classRepo.GetByID(ctx, *assignment.ClassID)
	if err != nil {
		return nil, fmt.Errorf("failed to load class: %w", err)
	}
	if class == nil {
		return nil, fmt.Errorf("class %s not found", *assignment.ClassID)
	}
	return class, nil
}

func (s *reviewService) fail(ctx context.Context, submission *models.Submission, cause error) error {
	if apperr.IsTimeout(cause) {
		if err := s.submissionRepo.ReleaseToUploaded(ctx, submission.ID); err != nil {
			s.logger.Error().Err(err).Str("submission_id", submission.ID).Msg("Failed to release submission")
		}
		return cause
	}

	if err := s.submissionRepo.MarkFailed(ctx, submission.ID, cause.Error()); err != nil {
		s.logger.Error().Err(err).Str("submission_id", submission.ID).Msg("Failed to mark submission failed")
		return cause
	}

	submission.Status = models.SubmissionStatusFailed
	s.publishEvent(ctx, submission, models.EventSubmissionFailed, cause.Error())

	return cause
}

func (s *reviewService) publishEvent(ctx context.Context, submission *models.Submission, eventType, detail string) {
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
