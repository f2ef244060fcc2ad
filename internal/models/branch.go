package models

import (
	"time"
)

type Branch struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Address   *string   `json:"address,omitempty" db:"address"`
	Lifecycle Lifecycle `json:"-" db:"lifecycle"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type Class struct {
	ID           string    `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	BranchID     *string   `json:"branch_id,omitempty" db:"branch_id"`
	EnglishLevel string    `json:"english_level" db:"english_level"`
	AgeGroup     string    `json:"age_group" db:"age_group"`
	Lifecycle    Lifecycle `json:"-" db:"lifecycle"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}
