package models

import (
	"time"
)

type SubmissionStatus string

const (
	SubmissionStatusPending    SubmissionStatus = "pending"
	SubmissionStatusUploaded   SubmissionStatus = "uploaded"
	SubmissionStatusProcessing SubmissionStatus = "processing"
	SubmissionStatusAIReviewed SubmissionStatus = "ai-reviewed"
	SubmissionStatusFailed     SubmissionStatus = "failed"
	SubmissionStatusCompleted  SubmissionStatus = "completed"
)

func (s SubmissionStatus) String() string {
	return string(s)
}

func IsValidSubmissionStatus(status string) bool {
	switch status {
	case "pending", "uploaded", "processing", "ai-reviewed", "failed", "completed":
		return true
	default:
		return false
	}
}

type Submission struct {
	ID              string           `json:"id" db:"id"`
	AssignmentID    string           `json:"assignment_id" db:"assignment_id"`
	StudentID       string           `json:"student_id" db:"student_id"`
	ImageURL        string           `json:"image_url" db:"image_url"`
	OCRText         *string          `json:"ocr_text,omitempty" db:"ocr_text"`
	AIFeedback      *string          `json:"ai_feedback,omitempty" db:"ai_feedback"`
	TeacherFeedback *string          `json:"teacher_feedback,omitempty" db:"teacher_feedback"`
	Status          SubmissionStatus `json:"status" db:"status"`
	Diagnostic      *string          `json:"diagnostic,omitempty" db:"diagnostic"`
	CreatedAt       time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at" db:"updated_at"`
}

type SubmissionWithDetails struct {
	Submission
	StudentName     string `json:"student_name,omitempty" db:"student_name"`
	StudentEmail    string `json:"student_email,omitempty" db:"student_email"`
	AssignmentTitle string `json:"assignment_title" db:"assignment_title"`
}

type Comment struct {
	ID           string    `json:"id" db:"id"`
	SubmissionID string    `json:"submission_id" db:"submission_id"`
	UserID       string    `json:"user_id" db:"user_id"`
	ParentID     *string   `json:"parent_id,omitempty" db:"parent_id"`
	Content      string    `json:"content" db:"content"`
	ImageURLs    []string  `json:"image_urls" db:"image_urls"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}
