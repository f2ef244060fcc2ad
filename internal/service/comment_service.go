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

type CommentService interface {
	Create(ctx context.Context, actor models.Actor, submissionID string, req *models.CreateCommentRequest) (*models.Comment, error)
	ListBySubmission(ctx context.Context, actor models.Actor, submissionID string) ([]models.Comment, error)
	Delete(ctx context.Context, actor models.Actor, id string) error
}

type commentService struct {
	commentRepo repository.CommentRepository
	submissions SubmissionService
	logger      zerolog.Logger
}

func NewCommentService(
	commentRepo repository.CommentRepository,
	submissions SubmissionService,
	logger zerolog.Logger,
) CommentService {
	return &commentService{
		commentRepo: commentRepo,
		submissions: submissions,
		logger:      logger,
	}
}

func (s *commentService) Create(ctx context.Context, actor models.Actor, submissionID string, req *models.CreateCommentRequest) (*models.Comment, error) {
	// viewing rights imply commenting rights
	if _, err := s.submissions.GetByID(ctx, actor, submissionID); err != nil {
		return nil, err
	}

	if req.ParentID != nil {
		parent, err := s.commentRepo.GetByID(ctx, *req.ParentID)
		if err != nil {
			return nil, fmt.Errorf("failed to load parent comment: %w", err)
		}
		if parent == nil {
			return nil, apperr.NotFound("parent comment not found")
		}
		if parent.SubmissionID != submissionID {
			return nil, apperr.Validation("parent comment belongs to a different submission")
		}
	}

	comment := &models.Comment{
		ID:           uuid.New().String(),
		SubmissionID: submissionID,
		UserID:       actor.UserID,
		ParentID:     req.ParentID,
		Content:      req.Content,
		ImageURLs:    req.ImageURLs,
		CreatedAt:    time.Now(),
	}

	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}

	return comment, nil
}

func (s *commentService) ListBySubmission(ctx context.Context, actor models.Actor, submissionID string) ([]models.Comment, error) {
	if _, err := s.submissions.GetByID(ctx, actor, submissionID); err != nil {
		return nil, err
	}
	return s.commentRepo.GetBySubmissionID(ctx, submissionID)
}

// Delete allows authors to remove their own comments; admins can remove any.
func (s *commentService) Delete(ctx context.Context, actor models.Actor, id string) error {
	if actor.UserID == "" {
		return apperr.AuthenticationRequired("authentication required")
	}

	comment, err := s.commentRepo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load comment: %w", err)
	}
	if comment == nil {
		return apperr.NotFound("comment not found")
	}

	if comment.UserID != actor.UserID && actor.Role != models.RoleAdmin {
		return apperr.Forbidden("only the author or an admin can delete a comment")
	}

	return s.commentRepo.Delete(ctx, id)
}
