package repository

import (
	"context"
	"database/sql"

	"github.com/lib/pq"
	"github.com/rs/zerolog"

	"github.com/eduline/homework-service/internal/models"
)

type ClassRepository interface {
	Create(ctx context.Context, class *models.Class) error
	GetByID(ctx context.Context, id string) (*models.Class, error)
	GetAll(ctx context.Context, limit, offset int) ([]models.Class, int, error)
	GetByIDs(ctx context.Context, ids []string) ([]models.Class, error)
	Update(ctx context.Context, class *models.Class) error
	Hide(ctx context.Context, id string) error
	Exists(ctx context.Context, id string) (bool, error)
}

type classRepository struct {
	*PostgresRepository
}

func NewClassRepository(db *sql.DB, logger zerolog.Logger) ClassRepository {
	return &classRepository{
		PostgresRepository: NewPostgresRepository(db, logger),
	}
}

const classColumns = `id, name, branch_id, english_level, age_group, lifecycle, created_at, updated_at`

func scanClass(row interface{ Scan(...any) error }) (*models.Class, error) {
	class := &models.Class{}
	err := row.Scan(
		&class.ID,
		&class.Name,
		&class.BranchID,
		&class.EnglishLevel,
		&class.AgeGroup,
		&class.Lifecycle,
		&class.CreatedAt,
		&class.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return class, nil
}

func (r *classRepository) Create(ctx context.Context, class *models.Class) error {
	query := `
		INSERT INTO classes (id, name, branch_id, english_level, age_group, lifecycle, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.ExecContext(ctx, query,
		class.ID,
		class.Name,
		class.BranchID,
		class.EnglishLevel,
		class.AgeGroup,
		class.Lifecycle,
		class.CreatedAt,
		class.UpdatedAt,
	)

	return err
}

func (r *classRepository) GetByID(ctx context.Context, id string) (*models.Class, error) {
	query := `SELECT ` + classColumns + ` FROM classes WHERE id = $1`
	return scanClass(r.db.QueryRowContext(ctx, query, id))
}

func (r *classRepository) GetAll(ctx context.Context, limit, offset int) ([]models.Class, int, error) {
	countQuery := `SELECT COUNT(*) FROM classes WHERE lifecycle = $1`
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, models.LifecycleActive).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT ` + classColumns + `
		FROM classes
		WHERE lifecycle = $1
		ORDER BY name
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.QueryContext(ctx, query, models.LifecycleActive, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var classes []models.Class
	for rows.Next() {
		class, err := scanClass(rows)
		if err != nil {
			return nil, 0, err
		}
		classes = append(classes, *class)
	}

	return classes, total, rows.Err()
}

func (r *classRepository) GetByIDs(ctx context.Context, ids []string) ([]models.Class, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := `
		SELECT ` + classColumns + `
		FROM classes
		WHERE id = ANY($1) AND lifecycle = $2
		ORDER BY name
	`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids), models.LifecycleActive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var classes []models.Class
	for rows.Next() {
		class, err := scanClass(rows)
		if err != nil {
			return nil, err
		}
		classes = append(classes, *class)
	}

	return classes, rows.Err()
}

func (r *classRepository) Update(ctx context.Context, class *models.Class) error {
	query := `
		UPDATE classes
		SET name = $2, branch_id = $3, english_level = $4, age_group = $5, updated_at = NOW()
		WHERE id = $1
	`

	_, err := r.db.ExecContext(ctx, query,
		class.ID,
		class.Name,
		class.BranchID,
		class.EnglishLevel,
		class.AgeGroup,
	)

	return err
}

func (r *classRepository) Hide(ctx context.Context, id string) error {
	query := `UPDATE classes SET lifecycle = $2, updated_at = NOW() WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id, models.LifecycleHidden)
	return err
}

func (r *classRepository) Exists(ctx context.Context, id string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM classes WHERE id = $1 AND lifecycle = $2)`
	var exists bool
	err := r.db.QueryRowContext(ctx, query, id, models.LifecycleActive).Scan(&exists)
	return exists, err
}
