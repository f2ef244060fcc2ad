package repository

import (
	"context"
	"database/sql"

	"github.com/lib/pq"
	"github.com/rs/zerolog"

	"github.com/eduline/homework-service/internal/models"
)

type AssignmentRepository interface {
	Create(ctx context.Context, assignment *models.Assignment) error
	GetByID(ctx context.Context, id string) (*models.Assignment, error)
	GetAll(ctx context.Context, limit, offset int) ([]models.AssignmentWithStats, int, error)
	GetByClassIDs(ctx context.Context, classIDs []string, limit, offset int) ([]models.AssignmentWithStats, int, error)
	Update(ctx context.Context, assignment *models.Assignment) error
	Hide(ctx context.Context, id string) error
	Exists(ctx context.Context, id string) (bool, error)
}

type assignmentRepository struct {
	*PostgresRepository
}

func NewAssignmentRepository(db *sql.DB, logger zerolog.Logger) AssignmentRepository {
	return &assignmentRepository{
		PostgresRepository: NewPostgresRepository(db, logger),
	}
}

func (r *assignmentRepository) Create(ctx context.Context, assignment *models.Assignment) error {
	query := `
		INSERT INTO assignments (id, title, description, class_id, creator_user_id, due_date, status, lifecycle, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.db.ExecContext(ctx, query,
		assignment.ID,
		assignment.Title,
		assignment.Description,
		assignment.ClassID,
		assignment.CreatorUserID,
		assignment.DueDate,
		assignment.Status,
		assignment.Lifecycle,
		assignment.CreatedAt,
		assignment.UpdatedAt,
	)

	return err
}

func (r *assignmentRepository) GetByID(ctx context.Context, id string) (*models.Assignment, error) {
	query := `
		SELECT id, title, description, class_id, creator_user_id, due_date, status, lifecycle, created_at, updated_at
		FROM assignments
		WHERE id = $1
	`

	assignment := &models.Assignment{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&assignment.ID,
		&assignment.Title,
		&assignment.Description,
		&assignment.ClassID,
		&assignment.CreatorUserID,
		&assignment.DueDate,
		&assignment.Status,
		&assignment.Lifecycle,
		&assignment.CreatedAt,
		&assignment.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	return assignment, err
}

const assignmentStatsQuery = `
	SELECT
		a.id, a.title, a.description, a.class_id, a.creator_user_id, a.due_date, a.status, a.lifecycle, a.created_at, a.updated_at,
		COUNT(s.id) AS total_submissions,
		COUNT(CASE WHEN s.status IN ('ai-reviewed', 'completed') THEN 1 END) AS reviewed_submissions,
		COUNT(CASE WHEN s.status IN ('uploaded', 'processing') THEN 1 END) AS pending_submissions
	FROM assignments a
	LEFT JOIN submissions s ON s.assignment_id = a.id
`

func (r *assignmentRepository) scanStatsRows(rows *sql.Rows) ([]models.AssignmentWithStats, error) {
	var assignments []models.AssignmentWithStats
	for rows.Next() {
		var a models.AssignmentWithStats
		err := rows.Scan(
			&a.ID,
			&a.Title,
			&a.Description,
			&a.ClassID,
			&a.CreatorUserID,
			&a.DueDate,
			&a.Status,
			&a.Lifecycle,
			&a.CreatedAt,
			&a.UpdatedAt,
			&a.TotalSubmissions,
			&a.ReviewedSubmissions,
			&a.PendingSubmissions,
		)
		if err != nil {
			return nil, err
		}
		assignments = append(assignments, a)
	}
	return assignments, rows.Err()
}

func (r *assignmentRepository) GetAll(ctx context.Context, limit, offset int) ([]models.AssignmentWithStats, int, error) {
	countQuery := `SELECT COUNT(*) FROM assignments WHERE lifecycle = $1`
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, models.LifecycleActive).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := assignmentStatsQuery + `
		WHERE a.lifecycle = $1
		GROUP BY a.id
		ORDER BY a.created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.QueryContext(ctx, query, models.LifecycleActive, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	assignments, err := r.scanStatsRows(rows)
	return assignments, total, err
}

func (r *assignmentRepository) GetByClassIDs(ctx context.Context, classIDs []string, limit, offset int) ([]models.AssignmentWithStats, int, error) {
	if len(classIDs) == 0 {
		return nil, 0, nil
	}

	countQuery := `SELECT COUNT(*) FROM assignments WHERE class_id = ANY($1) AND lifecycle = $2`
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, pq.Array(classIDs), models.LifecycleActive).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := assignmentStatsQuery + `
		WHERE a.class_id = ANY($1) AND a.lifecycle = $2
		GROUP BY a.id
		ORDER BY a.created_at DESC
		LIMIT $3 OFFSET $4
	`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(classIDs), models.LifecycleActive, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	assignments, err := r.scanStatsRows(rows)
	return assignments, total, err
}

func (r *assignmentRepository) Update(ctx context.Context, assignment *models.Assignment) error {
	query := `
		UPDATE assignments
		SET title = $2, description = $3, due_date = $4, status = $5, updated_at = NOW()
		WHERE id = $1
	`

	_, err := r.db.ExecContext(ctx, query,
		assignment.ID,
		assignment.Title,
		assignment.Description,
		assignment.DueDate,
		assignment.Status,
	)

	return err
}

func (r *assignmentRepository) Hide(ctx context.Context, id string) error {
	query := `UPDATE assignments SET lifecycle = $2, updated_at = NOW() WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id, models.LifecycleHidden)
	return err
}

func (r *assignmentRepository) Exists(ctx context.Context, id string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM assignments WHERE id = $1 AND lifecycle = $2)`
	var exists bool
	err := r.db.QueryRowContext(ctx, query, id, models.LifecycleActive).Scan(&exists)
	return exists, err
}
