package models

import "time"

// Data Transfer Objects

type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8,max=128"`
	Name     string `json:"name" validate:"required,min=2,max=255"`
	Role     string `json:"role" validate:"required,oneof=ADMIN TEACHER STUDENT"`
}

type UpdateUserRequest struct {
	Name      string  `json:"name" validate:"required,min=2,max=255"`
	BranchID  *string `json:"branch_id,omitempty" validate:"omitempty,uuid"`
	Phone     *string `json:"phone,omitempty" validate:"omitempty,max=32"`
	BirthDate *string `json:"birth_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type CreateBranchRequest struct {
	Name    string  `json:"name" validate:"required,min=2,max=255"`
	Address *string `json:"address" validate:"omitempty,max=500"`
}

type UpdateBranchRequest struct {
	Name    *string `json:"name" validate:"omitempty,min=2,max=255"`
	Address *string `json:"address" validate:"omitempty,max=500"`
}

type CreateClassRequest struct {
	Name         string  `json:"name" validate:"required,min=2,max=255"`
	BranchID     *string `json:"branch_id" validate:"omitempty,uuid"`
	EnglishLevel string  `json:"english_level" validate:"required,max=64"`
	AgeGroup     string  `json:"age_group" validate:"required,max=64"`
}

type UpdateClassRequest struct {
	Name         *string `json:"name" validate:"omitempty,min=2,max=255"`
	BranchID     *string `json:"branch_id" validate:"omitempty,uuid"`
	EnglishLevel *string `json:"english_level" validate:"omitempty,max=64"`
	AgeGroup     *string `json:"age_group" validate:"omitempty,max=64"`
}

type CreateAssignmentRequest struct {
	Title       string     `json:"title" validate:"required,min=3,max=255"`
	Description *string    `json:"description" validate:"omitempty,max=2000"`
	ClassID     string     `json:"class_id" validate:"required,uuid"`
	DueDate     *time.Time `json:"due_date"`
}

type UpdateAssignmentRequest struct {
	Title       *string    `json:"title" validate:"omitempty,min=3,max=255"`
	Description *string    `json:"description" validate:"omitempty,max=2000"`
	DueDate     *time.Time `json:"due_date"`
	Status      *string    `json:"status" validate:"omitempty,oneof=draft published completed"`
}

type UploadSubmissionRequest struct {
	AssignmentID string `json:"assignment_id" validate:"required,uuid"`
	StudentID    string `json:"student_id" validate:"required,uuid"`
	ImageContent []byte `json:"-"`
	ContentType  string `json:"-"`
}

type PatchSubmissionRequest struct {
	TeacherFeedback *string `json:"teacher_feedback" validate:"omitempty,max=5000"`
	Status          *string `json:"status" validate:"omitempty,oneof=pending uploaded processing ai-reviewed failed completed"`
}

type UpdateAuthorityRequest struct {
	BranchIDs []string `json:"branch_ids" validate:"dive,uuid"`
	ClassIDs  []string `json:"class_ids" validate:"dive,uuid"`
}

type SetClassTeacherRequest struct {
	HasAccess bool `json:"has_access"`
	IsLead    bool `json:"is_lead"`
}

type CreateCommentRequest struct {
	Content   string   `json:"content" validate:"required,max=5000"`
	ImageURLs []string `json:"image_urls" validate:"max=10"`
	ParentID  *string  `json:"parent_id" validate:"omitempty,uuid"`
}

type ReviewResponse struct {
	Processed int `json:"processed"`
}

type SubmissionsResponse struct {
	Submissions []SubmissionWithDetails `json:"submissions"`
	Total       int                     `json:"total"`
	Page        int                     `json:"page"`
	Limit       int                     `json:"limit"`
}

type TeacherAuthorityResponse struct {
	TeacherID string   `json:"teacher_id"`
	BranchIDs []string `json:"branch_ids"`
	ClassIDs  []string `json:"class_ids"`
	LeadOf    []string `json:"lead_of"`
}
