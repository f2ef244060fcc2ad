package repository

import (
	"context"
	"database/sql"

	"github.com/rs/zerolog"

	"github.com/eduline/homework-service/internal/models"
)

type BranchRepository interface {
	Create(ctx context.Context, branch *models.Branch) error
	GetByID(ctx context.Context, id string) (*models.Branch, error)
	GetAll(ctx context.Context, limit, offset int) ([]models.Branch, int, error)
	Update(ctx context.Context, branch *models.Branch) error
	Hide(ctx context.Context, id string) error
	Exists(ctx context.Context, id string) (bool, error)
}

type branchRepository struct {
	*PostgresRepository
}

func NewBranchRepository(db *sql.DB, logger zerolog.Logger) BranchRepository {
	return &branchRepository{
		PostgresRepository: NewPostgresRepository(db, logger),
	}
}

func (r *branchRepository) Create(ctx context.Context, branch *models.Branch) error {
	query := `
		INSERT INTO branches (id, name, address, lifecycle, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.ExecContext(ctx, query,
		branch.ID,
		branch.Name,
		branch.Address,
		branch.Lifecycle,
		branch.CreatedAt,
		branch.UpdatedAt,
	)

	return err
}

func (r *branchRepository) GetByID(ctx context.Context, id string) (*models.Branch, error) {
	query := `
		SELECT id, name, address, lifecycle, created_at, updated_at
		FROM branches
		WHERE id = $1
	`

	branch := &models.Branch{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&branch.ID,
		&branch.Name,
		&branch.Address,
		&branch.Lifecycle,
		&branch.CreatedAt,
		&branch.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	return branch, err
}

func (r *branchRepository) GetAll(ctx context.Context, limit, offset int) ([]models.Branch, int, error) {
	countQuery := `SELECT COUNT(*) FROM branches WHERE lifecycle = $1`
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, models.LifecycleActive).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT id, name, address, lifecycle, created_at, updated_at
		FROM branches
		WHERE lifecycle = $1
		ORDER BY name
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.QueryContext(ctx, query, models.LifecycleActive, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var branches []models.Branch
	for rows.Next() {
		var branch models.Branch
		err := rows.Scan(
			&branch.ID,
			&branch.Name,
			&branch.Address,
			&branch.Lifecycle,
			&branch.CreatedAt,
			&branch.UpdatedAt,
		)
		if err != nil {
			return nil, 0, err
		}
		branches = append(branches, branch)
	}

	return branches, total, rows.Err()
}

func (r *branchRepository) Update(ctx context.Context, branch *models.Branch) error {
	query := `
		UPDATE branches
		SET name = $2, address = $3, updated_at = NOW()
		WHERE id = $1
	`

	_, err := r.db.ExecContext(ctx, query, branch.ID, branch.Name, branch.Address)
	return err
}

func (r *branchRepository) Hide(ctx context.Context, id string) error {
	query := `UPDATE branches SET lifecycle = $2, updated_at = NOW() WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id, models.LifecycleHidden)
	return err
}

func (r *branchRepository) Exists(ctx context.Context, id string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM branches WHERE id = $1 AND lifecycle = $2)`
	var exists bool
	err := r.db.QueryRowContext(ctx, query, id, models.LifecycleActive).Scan(&exists)
	return exists, err
}
