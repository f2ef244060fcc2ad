package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eduline/homework-service/internal/apperr"
	"github.com/eduline/homework-service/internal/models"
	"github.com/eduline/homework-service/internal/service/integration"
)

type reviewFixture struct {
	svc         ReviewService
	submissions *fakeSubmissionRepo
	images      *fakeImageStore
	ai          *fakeAIClient
	publisher   *fakePublisher
}

func newReviewFixture(t *testing.T, submissions ...*models.Submission) *reviewFixture {
	t.Helper()

	classID := "class-1"
	assignmentRepo := newFakeAssignmentRepo(
		&models.Assignment{ID: "assignment-1", Title: "Essay", ClassID: &classID},
	)
	classRepo := newFakeClassRepo(
		&models.Class{ID: classID, Name: "Starters A", EnglishLevel: "A1", AgeGroup: "7-9"},
	)
	accessRepo := newFakeAccessRepo()
	userRepo := newFakeUserRepo(
		&models.User{ID: "admin-1", Role: models.RoleAdmin, Lifecycle: models.LifecycleActive},
		&models.User{ID: "teacher-1", Role: models.RoleTeacher, Lifecycle: models.LifecycleActive},
	)
	branchRepo := newFakeBranchRepo()
	access := NewAccessService(accessRepo, userRepo, classRepo, branchRepo, zerolog.Nop())

	images := newFakeImageStore()
	submissionRepo := newFakeSubmissionRepo(submissions...)
	for _, s := range submissions {
		images.images[s.ImageURL] = []byte("scanned homework")
	}

	ai := &fakeAIClient{
		extract: func(_ []byte) (*integration.ExtractionResult, error) {
			return &integration.ExtractionResult{Text: "I goes to school", Confidence: 0.9}, nil
		},
		feedback: func(text, level, age string) (string, error) {
			return fmt.Sprintf("Feedback for %q at %s (%s)", text, level, age), nil
		},
	}

	publisher := &fakePublisher{}

	svc := NewReviewService(
		submissionRepo,
		assignmentRepo,
		classRepo,
		access,
		images,
		ai,
		publisher,
		zerolog.Nop(),
	)

	return &reviewFixture{
		svc:         svc,
		submissions: submissionRepo,
		images:      images,
		ai:          ai,
		publisher:   publisher,
	}
}

func uploadedSubmission(id string) *models.Submission {
	return &models.Submission{
		ID:           id,
		AssignmentID: "assignment-1",
		StudentID:    "student-1",
		ImageURL:     "mem://seed/" + id,
		Status:       models.SubmissionStatusUploaded,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
}

func TestReviewAssignmentProcessesAllUploaded(t *testing.T) {
	fx := newReviewFixture(t,
		uploadedSubmission("sub-1"),
		uploadedSubmission("sub-2"),
		uploadedSubmission("sub-3"),
	)
	ctx := context.Background()

	processed, err := fx.svc.ReviewAssignment(ctx, admin, "assignment-1")
	require.NoError(t, err)
	assert.Equal(t, 3, processed)

	for _, id := range []string{"sub-1", "sub-2", "sub-3"} {
		s, _ := fx.submissions.GetByID(ctx, id)
		require.NotNil(t, s)
		assert.Equal(t, models.SubmissionStatusAIReviewed, s.Status)
		require.NotNil(t, s.OCRText)
		assert.Equal(t, "I goes to school", *s.OCRText)
		require.NotNil(t, s.AIFeedback)
		assert.Contains(t, *s.AIFeedback, "A1")
		assert.Nil(t, s.Diagnostic)
	}

	assert.Len(t, fx.publisher.byType(models.EventSubmissionReviewed), 3)
}

func TestReviewAssignmentIsolatesFailures(t *testing.T) {
	fx := newReviewFixture(t,
		uploadedSubmission("sub-1"),
		uploadedSubmission("sub-2"),
		uploadedSubmission("sub-3"),
	)
	ctx := context.Background()

	calls := 0
	fx.ai.extract = func(_ []byte) (*integration.ExtractionResult, error) {
		calls++
		if calls == 2 {
			return nil, apperr.MalformedResponse("garbled OCR payload", nil)
		}
		return &integration.ExtractionResult{Text: "ok", Confidence: 1}, nil
	}

	processed, err := fx.svc.ReviewAssignment(ctx, admin, "assignment-1")
	require.NoError(t, err)
	assert.Equal(t, 2, processed)

	s1, _ := fx.submissions.GetByID(ctx, "sub-1")
	s2, _ := fx.submissions.GetByID(ctx, "sub-2")
	s3, _ := fx.submissions.GetByID(ctx, "sub-3")
	assert.Equal(t, models.SubmissionStatusAIReviewed, s1.Status)
	assert.Equal(t, models.SubmissionStatusFailed, s2.Status)
	assert.Equal(t, models.SubmissionStatusAIReviewed, s3.Status)

	require.NotNil(t, s2.Diagnostic)
	assert.Contains(t, *s2.Diagnostic, "garbled OCR payload")
	assert.Nil(t, s2.OCRText)
	assert.Nil(t, s2.AIFeedback)

	assert.Len(t, fx.publisher.byType(models.EventSubmissionFailed), 1)
}

func TestReviewTimeoutReleasesToUploaded(t *testing.T) {
	fx := newReviewFixture(t, uploadedSubmission("sub-1"))
	ctx := context.Background()

	fx.ai.feedback = func(_, _, _ string) (string, error) {
		return "", apperr.Timeout("feedback job did not complete within 60 attempts")
	}

	processed, err := fx.svc.ReviewAssignment(ctx, admin, "assignment-1")
	require.NoError(t, err)
	assert.Equal(t, 0, processed)

	s, _ := fx.submissions.GetByID(ctx, "sub-1")
	require.NotNil(t, s)
	assert.Equal(t, models.SubmissionStatusUploaded, s.Status, "timeouts roll back for a later retry")
	assert.Nil(t, s.Diagnostic)
}

func TestReviewAssignmentSkipsNonUploaded(t *testing.T) {
	completed := uploadedSubmission("sub-done")
	completed.Status = models.SubmissionStatusCompleted
	fx := newReviewFixture(t, completed, uploadedSubmission("sub-1"))
	ctx := context.Background()

	processed, err := fx.svc.ReviewAssignment(ctx, admin, "assignment-1")
	require.NoError(t, err)
	assert.Equal(t, 1, processed)

	s, _ := fx.submissions.GetByID(ctx, "sub-done")
	assert.Equal(t, models.SubmissionStatusCompleted, s.Status)
}

func TestReviewAssignmentScope(t *testing.T) {
	fx := newReviewFixture(t, uploadedSubmission("sub-1"))
	ctx := context.Background()

	_, err := fx.svc.ReviewAssignment(ctx, teacher, "assignment-1")
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err), "teacher without a class grant")

	_, err = fx.svc.ReviewAssignment(ctx, student, "assignment-1")
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))

	_, err = fx.svc.ReviewAssignment(ctx, admin, "no-such-assignment")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestReprocessFailedSubmission(t *testing.T) {
	failed := uploadedSubmission("sub-1")
	failed.Status = models.SubmissionStatusFailed
	diag := "AI provider returned status 400"
	failed.Diagnostic = &diag

	fx := newReviewFixture(t, failed)
	ctx := context.Background()

	updated, err := fx.svc.Reprocess(ctx, admin, "sub-1")
	require.NoError(t, err)
	assert.Equal(t, models.SubmissionStatusAIReviewed, updated.Status)
	assert.Nil(t, updated.Diagnostic)
	require.NotNil(t, updated.AIFeedback)
}

func TestReprocessRecordsNewFailure(t *testing.T) {
	fx := newReviewFixture(t, uploadedSubmission("sub-1"))
	ctx := context.Background()

	fx.ai.extract = func(_ []byte) (*integration.ExtractionResult, error) {
		return nil, errors.New("connection refused")
	}

	updated, err := fx.svc.Reprocess(ctx, admin, "sub-1")
	require.NoError(t, err, "pipeline failure is recorded on the submission, not returned")
	assert.Equal(t, models.SubmissionStatusFailed, updated.Status)
	require.NotNil(t, updated.Diagnostic)
	assert.Contains(t, *updated.Diagnostic, "connection refused")
}

func TestReprocessMissingSubmission(t *testing.T) {
	fx := newReviewFixture(t)

	_, err := fx.svc.Reprocess(context.Background(), admin, "no-such-submission")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestReviewQuotaExceededMarksFailed(t *testing.T) {
	fx := newReviewFixture(t, uploadedSubmission("sub-1"))
	ctx := context.Background()

	fx.ai.extract = func(_ []byte) (*integration.ExtractionResult, error) {
		return nil, apperr.QuotaExceeded(errors.New("AI provider returned 429"))
	}

	processed, err := fx.svc.ReviewAssignment(ctx, admin, "assignment-1")
	require.NoError(t, err)
	assert.Equal(t, 0, processed)

	s, _ := fx.submissions.GetByID(ctx, "sub-1")
	assert.Equal(t, models.SubmissionStatusFailed, s.Status, "quota errors do not retry")
	require.NotNil(t, s.Diagnostic)
	assert.Contains(t, *s.Diagnostic, "quota")
}
