package models

import "time"

const (
	EventSubmissionUploaded = "submission.uploaded"
	EventSubmissionReviewed = "submission.reviewed"
	EventSubmissionFailed   = "submission.failed"
)

// SubmissionLifecycleEvent is published to RabbitMQ whenever the pipeline or
// an upload changes a submission's state. The audit consumer persists these;
// review semantics never depend on them.
type SubmissionLifecycleEvent struct {
	Type         string `json:"type"`
	SubmissionID string `json:"submission_id"`
	AssignmentID string `json:"assignment_id"`
	StudentID    string `json:"student_id"`
	Status       string `json:"status"`
	Detail       string `json:"detail,omitempty"`
	Timestamp    int64  `json:"timestamp"`
}

type SubmissionEvent struct {
	ID           string    `json:"id" db:"id"`
	SubmissionID string    `json:"submission_id" db:"submission_id"`
	Type         string    `json:"type" db:"type"`
	Status       string    `json:"status" db:"status"`
	Detail       string    `json:"detail,omitempty" db:"detail"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}
