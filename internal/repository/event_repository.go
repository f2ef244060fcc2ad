package repository

import (
	"context"
	"database/sql"

	"github.com/rs/zerolog"

	"github.com/eduline/homework-service/internal/models"
)

type EventRepository interface {
	Create(ctx context.Context, event *models.SubmissionEvent) error
	GetBySubmissionID(ctx context.Context, submissionID string) ([]models.SubmissionEvent, error)
}

type eventRepository struct {
	*PostgresRepository
}

func NewEventRepository(db *sql.DB, logger zerolog.Logger) EventRepository {
	return &eventRepository{
		PostgresRepository: NewPostgresRepository(db, logger),
	}
}

func (r *eventRepository) Create(ctx context.Context, event *models.SubmissionEvent) error {
	query := `
		INSERT INTO submission_events (id, submission_id, type, status, detail, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.ExecContext(ctx, query,
		event.ID,
		event.SubmissionID,
		event.Type,
		event.Status,
		event.Detail,
		event.CreatedAt,
	)

	return err
}

func (r *eventRepository) GetBySubmissionID(ctx context.Context, submissionID string) ([]models.SubmissionEvent, error) {
	query := `
		SELECT id, submission_id, type, status, detail, created_at
		FROM submission_events
		WHERE submission_id = $1
		ORDER BY created_at
	`

	rows, err := r.db.QueryContext(ctx, query, submissionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []models.SubmissionEvent
	for rows.Next() {
		var event models.SubmissionEvent
		err := rows.Scan(
			&event.ID,
			&event.SubmissionID,
			&event.Type,
			&event.Status,
			&event.Detail,
			&event.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}

	return events, rows.Err()
}
