package repository

import (
	"context"
	"database/sql"

	"github.com/lib/pq"
	"github.com/rs/zerolog"

	"github.com/eduline/homework-service/internal/models"
)

type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	GetByID(ctx context.Context, id string) (*models.Comment, error)
	GetBySubmissionID(ctx context.Context, submissionID string) ([]models.Comment, error)
	Delete(ctx context.Context, id string) error
}

type commentRepository struct {
	*PostgresRepository
}

func NewCommentRepository(db *sql.DB, logger zerolog.Logger) CommentRepository {
	return &commentRepository{
		PostgresRepository: NewPostgresRepository(db, logger),
	}
}

func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) error {
	query := `
		INSERT INTO comments (id, submission_id, user_id, parent_id, content, image_urls, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.ExecContext(ctx, query,
		comment.ID,
		comment.SubmissionID,
		comment.UserID,
		comment.ParentID,
		comment.Content,
		pq.Array(comment.ImageURLs),
		comment.CreatedAt,
	)

	return err
}

func (r *commentRepository) GetByID(ctx context.Context, id string) (*models.Comment, error) {
	query := `
		SELECT id, submission_id, user_id, parent_id, content, image_urls, created_at
		FROM comments
		WHERE id = $1
	`

	comment := &models.Comment{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&comment.ID,
		&comment.SubmissionID,
		&comment.UserID,
		&comment.ParentID,
		&comment.Content,
		pq.Array(&comment.ImageURLs),
		&comment.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	return comment, err
}

func (r *commentRepository) GetBySubmissionID(ctx context.Context, submissionID string) ([]models.Comment, error) {
	query := `
		SELECT id, submission_id, user_id, parent_id, content, image_urls, created_at
		FROM comments
		WHERE submission_id = $1
		ORDER BY created_at
	`

	rows, err := r.db.QueryContext(ctx, query, submissionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var comments []models.Comment
	for rows.Next() {
		var comment models.Comment
		err := rows.Scan(
			&comment.ID,
			&comment.SubmissionID,
			&comment.UserID,
			&comment.ParentID,
			&comment.Content,
			pq.Array(&comment.ImageURLs),
			&comment.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		comments = append(comments, comment)
	}

	return comments, rows.Err()
}

func (r *commentRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM comments WHERE id = $1`, id)
	return err
}
