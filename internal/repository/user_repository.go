package repository

import (
	"context"
	"database/sql"

	"github.com/rs/zerolog"

	"github.com/eduline/homework-service/internal/models"
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetActiveByRole(ctx context.Context, role models.Role, limit, offset int) ([]models.User, int, error)
	Update(ctx context.Context, user *models.User) error
	Hide(ctx context.Context, id string) error
	Exists(ctx context.Context, id string) (bool, error)
}

type userRepository struct {
	*PostgresRepository
}

func NewUserRepository(db *sql.DB, logger zerolog.Logger) UserRepository {
	return &userRepository{
		PostgresRepository: NewPostgresRepository(db, logger),
	}
}

const userColumns = `id, email, name, password_hash, role, branch_id, phone, birth_date, lifecycle, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&user.PasswordHash,
		&user.Role,
		&user.BranchID,
		&user.Phone,
		&user.BirthDate,
		&user.Lifecycle,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, email, name, password_hash, role, branch_id, phone, birth_date, lifecycle, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.db.ExecContext(ctx, query,
		user.ID,
		user.Email,
		user.Name,
		user.PasswordHash,
		user.Role,
		user.BranchID,
		user.Phone,
		user.BirthDate,
		user.Lifecycle,
		user.CreatedAt,
		user.UpdatedAt,
	)

	return err
}

// GetByID resolves hidden users too so historical submissions and comments
// keep their author.
func (r *userRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, id))
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1 AND lifecycle = $2`
	return scanUser(r.db.QueryRowContext(ctx, query, email, models.LifecycleActive))
}

func (r *userRepository) GetActiveByRole(ctx context.Context, role models.Role, limit, offset int) ([]models.User, int, error) {
	countQuery := `SELECT COUNT(*) FROM users WHERE role = $1 AND lifecycle = $2`
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, role, models.LifecycleActive).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE role = $1 AND lifecycle = $2
		ORDER BY name
		LIMIT $3 OFFSET $4
	`

	rows, err := r.db.QueryContext(ctx, query, role, models.LifecycleActive, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		users = append(users, *user)
	}

	return users, total, rows.Err()
}

func (r *userRepository) Update(ctx context.Context, user *models.User) error {
	query := `
		UPDATE users
		SET email = $2, name = $3, password_hash = $4, branch_id = $5, phone = $6, birth_date = $7, updated_at = NOW()
		WHERE id = $1
	`

	_, err := r.db.ExecContext(ctx, query,
		user.ID,
		user.Email,
		user.Name,
		user.PasswordHash,
		user.BranchID,
		user.Phone,
		user.BirthDate,
	)

	return err
}

func (r *userRepository) Hide(ctx context.Context, id string) error {
	query := `UPDATE users SET lifecycle = $2, updated_at = NOW() WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id, models.LifecycleHidden)
	return err
}

func (r *userRepository) Exists(ctx context.Context, id string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE id = $1 AND lifecycle = $2)`
	var exists bool
	err := r.db.QueryRowContext(ctx, query, id, models.LifecycleActive).Scan(&exists)
	return exists, err
}
