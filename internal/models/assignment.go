package models

import (
	"time"
)

type AssignmentStatus string

const (
	AssignmentStatusDraft     AssignmentStatus = "draft"
	AssignmentStatusPublished AssignmentStatus = "published"
	AssignmentStatusCompleted AssignmentStatus = "completed"
)

func (s AssignmentStatus) String() string {
	return string(s)
}

func IsValidAssignmentStatus(status string) bool {
	switch status {
	case "draft", "published", "completed":
		return true
	default:
		return false
	}
}

type Assignment struct {
	ID            string           `json:"id" db:"id"`
	Title         string           `json:"title" db:"title"`
	Description   *string          `json:"description,omitempty" db:"description"`
	ClassID       *string          `json:"class_id,omitempty" db:"class_id"`
	CreatorUserID *string          `json:"creator_user_id,omitempty" db:"creator_user_id"`
	DueDate       *time.Time       `json:"due_date,omitempty" db:"due_date"`
	Status        AssignmentStatus `json:"status" db:"status"`
	Lifecycle     Lifecycle        `json:"-" db:"lifecycle"`
	CreatedAt     time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at" db:"updated_at"`
}

type AssignmentWithStats struct {
	Assignment
	TotalSubmissions    int `json:"total_submissions" db:"total_submissions"`
	ReviewedSubmissions int `json:"reviewed_submissions" db:"reviewed_submissions"`
	PendingSubmissions  int `json:"pending_submissions" db:"pending_submissions"`
}
