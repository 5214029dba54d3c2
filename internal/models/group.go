package models

import (
	"time"
)

// Group name uniqueness is per assignment, case-insensitive on the trimmed
// name. A student belongs to at most one group per assignment.
type Group struct {
	ID           string    `json:"id" db:"id"`
	AssignmentID string    `json:"assignment_id" db:"assignment_id"`
	Name         string    `json:"group_name" db:"group_name"`
	MaxMembers   int       `json:"max_members" db:"max_members"`
	CreatedBy    string    `json:"created_by" db:"created_by"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

type GroupMember struct {
	GroupID   string    `json:"group_id" db:"group_id"`
	StudentID string    `json:"student_id" db:"student_id"`
	JoinedAt  time.Time `json:"joined_at" db:"joined_at"`
}

type GroupWithMembers struct {
	Group
	Members []GroupMember `json:"members"`
}
