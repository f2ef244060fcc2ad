package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
	"github.com/rs/zerolog"
)

// AccessRepository stores the scoped permission rows: teacher-branch and
// teacher-class grants, class lead markers and student enrollment.
type AccessRepository interface {
	TeacherBranchIDs(ctx context.Context, teacherID string) ([]string, error)
	TeacherClassIDs(ctx context.Context, teacherID string) ([]string, error)
	TeacherLeadClassIDs(ctx context.Context, teacherID string) ([]string, error)
	HasClassAccess(ctx context.Context, teacherID, classID string) (bool, error)
	IsLead(ctx context.Context, teacherID, classID string) (bool, error)
	ReplaceTeacherAuthority(ctx context.Context, teacherID string, branchIDs, classIDs []string) error
	GrantClassAccess(ctx context.Context, teacherID, classID string) error
	RevokeClassAccess(ctx context.Context, teacherID, classID string) error
	GrantLead(ctx context.Context, teacherID, classID string) error
	RevokeLead(ctx context.Context, teacherID, classID string) error
	EnrollStudent(ctx context.Context, studentID, classID string) error
	UnenrollStudent(ctx context.Context, studentID, classID string) error
	IsStudentEnrolled(ctx context.Context, studentID, classID string) (bool, error)
	StudentClassIDs(ctx context.Context, studentID string) ([]string, error)
}

type accessRepository struct {
	*PostgresRepository
}

func NewAccessRepository(db *sql.DB, logger zerolog.Logger) AccessRepository {
	return &accessRepository{
		PostgresRepository: NewPostgresRepository(db, logger),
	}
}

func (r *accessRepository) queryIDs(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
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

func (r *accessRepository) TeacherBranchIDs(ctx context.Context, teacherID string) ([]string, error) {
	return r.queryIDs(ctx, `SELECT branch_id FROM teacher_branch_access WHERE teacher_id = $1`, teacherID)
}

func (r *accessRepository) TeacherClassIDs(ctx context.Context, teacherID string) ([]string, error) {
	return r.queryIDs(ctx, `SELECT class_id FROM teacher_class_access WHERE teacher_id = $1`, teacherID)
}

func (r *accessRepository) TeacherLeadClassIDs(ctx context.Context, teacherID string) ([]string, error) {
	return r.queryIDs(ctx, `SELECT class_id FROM class_lead_teachers WHERE teacher_id = $1`, teacherID)
}

func (r *accessRepository) HasClassAccess(ctx context.Context, teacherID, classID string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM teacher_class_access WHERE teacher_id = $1 AND class_id = $2)`
	var exists bool
	err := r.db.QueryRowContext(ctx, query, teacherID, classID).Scan(&exists)
	return exists, err
}

func (r *accessRepository) IsLead(ctx context.Context, teacherID, classID string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM class_lead_teachers WHERE teacher_id = $1 AND class_id = $2)`
	var exists bool
	err := r.db.QueryRowContext(ctx, query, teacherID, classID).Scan(&exists)
	return exists, err
}

// ReplaceTeacherAuthority swaps the teacher's full grant set in one
// transaction. Lead rows for classes no longer granted are removed in the
// same transaction so a lead can never outlive its access.
func (r *accessRepository) ReplaceTeacherAuthority(ctx context.Context, teacherID string, branchIDs, classIDs []string) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM teacher_branch_access WHERE teacher_id = $1`, teacherID); err != nil {
			return fmt.Errorf("failed to clear branch grants: %w", err)
		}

		for _, branchID := range branchIDs {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO teacher_branch_access (teacher_id, branch_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
				teacherID, branchID,
			)
			if err != nil {
				return fmt.Errorf("failed to grant branch access: %w", err)
			}
		}

		_, err := tx.ExecContext(ctx,
			`DELETE FROM class_lead_teachers WHERE teacher_id = $1 AND NOT (class_id = ANY($2))`,
			teacherID, pq.Array(classIDs),
		)
		if err != nil {
			return fmt.Errorf("failed to clear stale lead markers: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM teacher_class_access WHERE teacher_id = $1`, teacherID); err != nil {
			return fmt.Errorf("failed to clear class grants: %w", err)
		}

		for _, classID := range classIDs {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO teacher_class_access (teacher_id, class_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
				teacherID, classID,
			)
			if err != nil {
				return fmt.Errorf("failed to grant class access: %w", err)
			}
		}

		return nil
	})
}

func (r *accessRepository) GrantClassAccess(ctx context.Context, teacherID, classID string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO teacher_class_access (teacher_id, class_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		teacherID, classID,
	)
	return err
}

// RevokeClassAccess also clears the lead marker in the same transaction;
// lead cannot exist without access.
func (r *accessRepository) RevokeClassAccess(ctx context.Context, teacherID, classID string) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM class_lead_teachers WHERE teacher_id = $1 AND class_id = $2`,
			teacherID, classID,
		); err != nil {
			return fmt.Errorf("failed to revoke lead: %w", err)
		}

		if _, err := tx.ExecContext(ctx,
			`DELETE FROM teacher_class_access WHERE teacher_id = $1 AND class_id = $2`,
			teacherID, classID,
		); err != nil {
			return fmt.Errorf("failed to revoke class access: %w", err)
		}

		return nil
	})
}

func (r *accessRepository) GrantLead(ctx context.Context, teacherID, classID string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO class_lead_teachers (teacher_id, class_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		teacherID, classID,
	)
	return err
}

func (r *accessRepository) RevokeLead(ctx context.Context, teacherID, classID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM class_lead_teachers WHERE teacher_id = $1 AND class_id = $2`,
		teacherID, classID,
	)
	return err
}

func (r *accessRepository) EnrollStudent(ctx context.Context, studentID, classID string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO student_class_access (student_id, class_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		studentID, classID,
	)
	return err
}

func (r *accessRepository) UnenrollStudent(ctx context.Context, studentID, classID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM student_class_access WHERE student_id = $1 AND class_id = $2`,
		studentID, classID,
	)
	return err
}

func (r *accessRepository) IsStudentEnrolled(ctx context.Context, studentID, classID string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM student_class_access WHERE student_id = $1 AND class_id = $2)`
	var exists bool
	err := r.db.QueryRowContext(ctx, query, studentID, classID).Scan(&exists)
	return exists, err
}

func (r *accessRepository) StudentClassIDs(ctx context.Context, studentID string) ([]string, error) {
	return r.queryIDs(ctx, `SELECT class_id FROM student_class_access WHERE student_id = $1`, studentID)
}
