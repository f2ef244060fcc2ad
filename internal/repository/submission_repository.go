package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/eduline/homework-service/internal/models"
)

type SubmissionRepository interface {
	Create(ctx context.Context, submission *models.Submission) error
	GetByID(ctx context.Context, id string) (*models.Submission, error)
	GetByAssignmentID(ctx context.Context, assignmentID string, limit, offset int) ([]models.SubmissionWithDetails, int, error)
	GetByAssignmentAndStudent(ctx context.Context, assignmentID, studentID string, limit, offset int) ([]models.SubmissionWithDetails, int, error)
	GetByStudentID(ctx context.Context, studentID string, limit, offset int) ([]models.SubmissionWithDetails, int, error)
	GetUploadedIDsByAssignment(ctx context.Context, assignmentID string) ([]string, error)
	Claim(ctx context.Context, id string) (bool, error)
	ForceClaim(ctx context.Context, id string) error
	MarkReviewed(ctx context.Context, id, ocrText, feedback string) error
	MarkFailed(ctx context.Context, id, diagnostic string) error
	ReleaseToUploaded(ctx context.Context, id string) error
	UpdateTeacherReview(ctx context.Context, id string, teacherFeedback *string, status *models.SubmissionStatus) error
	DeleteWithComments(ctx context.Context, id string) error
}

type submissionRepository struct {
	*PostgresRepository
}

func NewSubmissionRepository(db *sql.DB, logger zerolog.Logger) SubmissionRepository {
	return &submissionRepository{
		PostgresRepository: NewPostgresRepository(db, logger),
	}
}

const submissionColumns = `id, assignment_id, student_id, image_url, ocr_text, ai_feedback, teacher_feedback, status, diagnostic, created_at, updated_at`

func scanSubmission(row interface{ Scan(...any) error }) (*models.Submission, error) {
	s := &models.Submission{}
	err := row.Scan(
		&s.ID,
		&s.AssignmentID,
		&s.StudentID,
		&s.ImageURL,
		&s.OCRText,
		&s.AIFeedback,
		&s.TeacherFeedback,
		&s.Status,
		&s.Diagnostic,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (r *submissionRepository) Create(ctx context.Context, submission *models.Submission) error {
	query := `
		INSERT INTO submissions (id, assignment_id, student_id, image_url, ocr_text, ai_feedback, teacher_feedback, status, diagnostic, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.db.ExecContext(ctx, query,
		submission.ID,
		submission.AssignmentID,
		submission.StudentID,
		submission.ImageURL,
		submission.OCRText,
		submission.AIFeedback,
		submission.TeacherFeedback,
		submission.Status,
		submission.Diagnostic,
		submission.CreatedAt,
		submission.UpdatedAt,
	)

	return err
}

func (r *submissionRepository) GetByID(ctx context.Context, id string) (*models.Submission, error) {
	query := `SELECT ` + submissionColumns + ` FROM submissions WHERE id = $1`
	return scanSubmission(r.db.QueryRowContext(ctx, query, id))
}

const submissionDetailsQuery = `
	SELECT
		s.id, s.assignment_id, s.student_id, s.image_url, s.ocr_text, s.ai_feedback, s.teacher_feedback, s.status, s.diagnostic, s.created_at, s.updated_at,
		u.name AS student_name, u.email AS student_email,
		a.title AS assignment_title
	FROM submissions s
	JOIN users u ON s.student_id = u.id
	JOIN assignments a ON s.assignment_id = a.id
`

func scanSubmissionDetails(rows *sql.Rows) ([]models.SubmissionWithDetails, error) {
	var submissions []models.SubmissionWithDetails
	for rows.Next() {
		var s models.SubmissionWithDetails
		err := rows.Scan(
			&s.ID,
			&s.AssignmentID,
			&s.StudentID,
			&s.ImageURL,
			&s.OCRText,
			&s.AIFeedback,
			&s.TeacherFeedback,
			&s.Status,
			&s.Diagnostic,
			&s.CreatedAt,
			&s.UpdatedAt,
			&s.StudentName,
			&s.StudentEmail,
			&s.AssignmentTitle,
		)
		if err != nil {
			return nil, err
		}
		submissions = append(submissions, s)
	}
	return submissions, rows.Err()
}

func (r *submissionRepository) GetByAssignmentID(ctx context.Context, assignmentID string, limit, offset int) ([]models.SubmissionWithDetails, int, error) {
	countQuery := `SELECT COUNT(*) FROM submissions WHERE assignment_id = $1`
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, assignmentID).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := submissionDetailsQuery + `
		WHERE s.assignment_id = $1
		ORDER BY s.created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.QueryContext(ctx, query, assignmentID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	submissions, err := scanSubmissionDetails(rows)
	return submissions, total, err
}

// GetByAssignmentAndStudent narrows the assignment listing to one student in
// SQL, so pagination and the total count apply to the student's own rows.
func (r *submissionRepository) GetByAssignmentAndStudent(ctx context.Context, assignmentID, studentID string, limit, offset int) ([]models.SubmissionWithDetails, int, error) {
	countQuery := `SELECT COUNT(*) FROM submissions WHERE assignment_id = $1 AND student_id = $2`
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, assignmentID, studentID).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := submissionDetailsQuery + `
		WHERE s.assignment_id = $1 AND s.student_id = $2
		ORDER BY s.created_at DESC
		LIMIT $3 OFFSET $4
	`

	rows, err := r.db.QueryContext(ctx, query, assignmentID, studentID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	submissions, err := scanSubmissionDetails(rows)
	return submissions, total, err
}

func (r *submissionRepository) GetByStudentID(ctx context.Context, studentID string, limit, offset int) ([]models.SubmissionWithDetails, int, error) {
	countQuery := `SELECT COUNT(*) FROM submissions WHERE student_id = $1`
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, studentID).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := submissionDetailsQuery + `
		WHERE s.student_id = $1
		ORDER BY s.created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.QueryContext(ctx, query, studentID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	submissions, err := scanSubmissionDetails(rows)
	return submissions, total, err
}

func (r *submissionRepository) GetUploadedIDsByAssignment(ctx context.Context, assignmentID string) ([]string, error) {
	query := `
		SELECT id FROM submissions
		WHERE assignment_id = $1 AND status = $2
		ORDER BY created_at
	`

	rows, err := r.db.QueryContext(ctx, query, assignmentID, models.SubmissionStatusUploaded)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}

// Claim is the atomic uploaded -> processing transition. Two concurrent
// sweeps hitting the same submission see exactly one row affected between
// them, so at most one processor ever runs per submission.
func (r *submissionRepository) Claim(ctx context.Context, id string) (bool, error) {
	query := `
		UPDATE submissions
		SET status = $2, updated_at = NOW()
		WHERE id = $1 AND status = $3
	`

	result, err := r.db.ExecContext(ctx, query, id, models.SubmissionStatusProcessing, models.SubmissionStatusUploaded)
	if err != nil {
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return affected == 1, nil
}

// ForceClaim enters processing from any state; used by explicit reprocess.
func (r *submissionRepository) ForceClaim(ctx context.Context, id string) error {
	query := `
		UPDATE submissions
		SET status = $2, diagnostic = NULL, updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query, id, models.SubmissionStatusProcessing)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}

	return nil
}

func (r *submissionRepository) MarkReviewed(ctx context.Context, id, ocrText, feedback string) error {
	query := `
		UPDATE submissions
		SET status = $2, ocr_text = $3, ai_feedback = $4, diagnostic = NULL, updated_at = NOW()
		WHERE id = $1
	`

	_, err := r.db.ExecContext(ctx, query, id, models.SubmissionStatusAIReviewed, ocrText, feedback)
	return err
}

func (r *submissionRepository) MarkFailed(ctx context.Context, id, diagnostic string) error {
	query := `
		UPDATE submissions
		SET status = $2, ocr_text = NULL, ai_feedback = NULL, diagnostic = $3, updated_at = NOW()
		WHERE id = $1
	`

	_, err := r.db.ExecContext(ctx, query, id, models.SubmissionStatusFailed, diagnostic)
	return err
}

// ReleaseToUploaded rolls a processing submission back so a later sweep
// retries it; used when the pipeline failure was a provider timeout.
func (r *submissionRepository) ReleaseToUploaded(ctx context.Context, id string) error {
	query := `
		UPDATE submissions
		SET status = $2, updated_at = NOW()
		WHERE id = $1
	`

	_, err := r.db.ExecContext(ctx, query, id, models.SubmissionStatusUploaded)
	return err
}

func (r *submissionRepository) UpdateTeacherReview(ctx context.Context, id string, teacherFeedback *string, status *models.SubmissionStatus) error {
	query := `
		UPDATE submissions
		SET teacher_feedback = COALESCE($2, teacher_feedback),
		    status = COALESCE($3, status),
		    updated_at = NOW()
		WHERE id = $1
	`

	_, err := r.db.ExecContext(ctx, query, id, teacherFeedback, status)
	return err
}

// DeleteWithComments removes the submission and its comments in one
// transaction; a failure on either side leaves both untouched.
func (r *submissionRepository) DeleteWithComments(ctx context.Context, id string) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM comments WHERE submission_id = $1`, id); err != nil {
			return fmt.Errorf("failed to delete comments: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM submissions WHERE id = $1`, id); err != nil {
			return fmt.Errorf("failed to delete submission: %w", err)
		}

		return nil
	})
}
