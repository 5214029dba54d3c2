package models

import (
	"time"

	"github.com/campusflow/assignment-service/internal/lifecycle"
)

type AssignmentType string

const (
	AssignmentTypeIndividual AssignmentType = "individual"
	AssignmentTypeGroup      AssignmentType = "group"
)

type Assignment struct {
	ID           string         `json:"id" db:"id"`
	Title        string         `json:"title" db:"title"`
	Description  string         `json:"description" db:"description"`
	Instructions string         `json:"instructions" db:"instructions"`
	DueDate      time.Time      `json:"due_date" db:"due_date"`
	IsActive     bool           `json:"is_active" db:"is_active"`
	MaxScore     int            `json:"max_score" db:"max_score"`
	Attachments  []string       `json:"attachments" db:"attachments"`
	Type         AssignmentType `json:"assignment_type" db:"assignment_type"`
	MaxGroupSize int            `json:"max_group_size" db:"max_group_size"`
	CreatedBy    string         `json:"created_by" db:"created_by"`
	UpdatedBy    string         `json:"updated_by" db:"updated_by"`
	CreatedAt    time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at" db:"updated_at"`
}

// AssignmentWithStats carries the invitation/submission counts the lifecycle
// engine needs; Status is filled in by the service on read.
type AssignmentWithStats struct {
	Assignment
	InvitedCount   int              `json:"invited_count" db:"invited_count"`
	SubmittedCount int              `json:"submitted_count" db:"submitted_count"`
	Status         lifecycle.Status `json:"status"`
}

// AssignmentSnapshot is the minimal row the analytics aggregator fetches per
// assignment, with counts restricted to the requested "as of" instant.
type AssignmentSnapshot struct {
	ID             string    `db:"id"`
	IsActive       bool      `db:"is_active"`
	DueDate        time.Time `db:"due_date"`
	CreatedAt      time.Time `db:"created_at"`
	InvitedCount   int       `db:"invited_count"`
	SubmittedCount int       `db:"submitted_count"`
}
