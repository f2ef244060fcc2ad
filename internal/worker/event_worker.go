package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/eduline/homework-service/internal/models"
	"github.com/eduline/homework-service/internal/repository"
	"github.com/eduline/homework-service/internal/worker/queue"
)

// EventWorker drains submission lifecycle events from the queue into the
// audit table. It is an observer: the review pipeline never waits on it, and
// losing it costs audit rows, not submissions.
type EventWorker interface {
	Start(ctx context.Context) error
	Stop() error
}

type eventWorker struct {
	workerPool    *WorkerPool
	queueConsumer queue.RabbitMQConsumer
	eventRepo     repository.EventRepository
	logger        zerolog.Logger
}

func NewEventWorker(
	workerPool *WorkerPool,
	queueConsumer queue.RabbitMQConsumer,
	eventRepo repository.EventRepository,
	logger zerolog.Logger,
) EventWorker {
	return &eventWorker{
		workerPool:    workerPool,
		queueConsumer: queueConsumer,
		eventRepo:     eventRepo,
		logger:        logger,
	}
}

func (w *eventWorker) Start(ctx context.Context) error {
	if err := w.workerPool.Start(ctx); err != nil {
		return fmt.Errorf("failed to start worker pool: %w", err)
	}

	msgs, err := w.queueConsumer.Consume(ctx)
	if err != nil {
		return fmt.Errorf("failed to start consuming messages: %w", err)
	}

	go w.processMessages(ctx, msgs)

	w.logger.Info().Msg("Event worker started")
	return nil
}

func (w *eventWorker) Stop() error {
	if n := w.workerPool.QueueLength(); n > 0 {
		w.logger.Info().Int("queued_tasks", n).Msg("Draining event worker queue")
	}

	if err := w.workerPool.Stop(); err != nil {
		w.logger.Error().Err(err).Msg("Failed to stop worker pool")
	}

	if err := w.queueConsumer.Close(); err != nil {
		w.logger.Error().Err(err).Msg("Failed to close queue consumer")
	}

	w.logger.Info().Msg("Event worker stopped")
	return nil
}

func (w *eventWorker) processMessages(ctx context.Context, msgs <-chan queue.RabbitMQMessage) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				w.logger.Warn().Msg("Message channel closed")
				return
			}

			w.workerPool.Submit(func() {
				if err := w.processMessage(ctx, msg); err != nil {
					w.logger.Error().Err(err).Msg("Failed to process event message")

					if isPermanentError(err) {
						// malformed messages would requeue forever
						if ackErr := msg.Ack(false); ackErr != nil {
							w.logger.Error().Err(ackErr).Msg("Failed to ack message")
						}
						return
					}

					if nackErr := msg.Nack(false, true); nackErr != nil {
						w.logger.Error().Err(nackErr).Msg("Failed to nack message")
					}
					return
				}

				if err := msg.Ack(false); err != nil {
					w.logger.Error().Err(err).Msg("Failed to ack message")
				}
			})
		}
	}
}

func (w *eventWorker) processMessage(ctx context.Context, msg queue.RabbitMQMessage) error {
	var event models.SubmissionLifecycleEvent
	if err := json.Unmarshal(msg.Body, &event); err != nil {
		return permanent(fmt.Errorf("failed to unmarshal event: %w", err))
	}

	if strings.TrimSpace(event.SubmissionID) == "" {
		return permanent(errors.New("empty submission_id"))
	}
	if strings.TrimSpace(event.Type) == "" {
		return permanent(errors.New("empty event type"))
	}

	createdAt := time.Unix(event.Timestamp, 0)
	if event.Timestamp == 0 {
		createdAt = time.Now()
	}

	record := &models.SubmissionEvent{
		ID:           uuid.New().String(),
		SubmissionID: event.SubmissionID,
		Type:         event.Type,
		Status:       event.Status,
		Detail:       event.Detail,
		CreatedAt:    createdAt,
	}

	if err := w.eventRepo.Create(ctx, record); err != nil {
		return fmt.Errorf("failed to persist event: %w", err)
	}

	w.logger.Debug().
		Str("submission_id", event.SubmissionID).
		Str("type", event.Type).
		Msg("Submission event persisted")

	return nil
}

type permanentError struct {
	err error
}

func (e permanentError) Error() string { return e.err.Error() }
func (e permanentError) Unwrap() error { return e.err }

func permanent(err error) error {
	return permanentError{err: err}
}

func isPermanentError(err error) bool {
	var p permanentError
	return errors.As(err, &p)
}
