package models

import (
	"time"
)

type InvitationStatus string

const (
	InvitationStatusPending  InvitationStatus = "pending"
	InvitationStatusAccepted InvitationStatus = "accepted"
	InvitationStatusDeclined InvitationStatus = "declined"
)

// Invitation is a standing offer for one student to participate in one
// assignment. The (assignment_id, student_id) pair is unique; uninvite is a
// hard delete.
type Invitation struct {
	ID            string           `json:"id" db:"id"`
	AssignmentID  string           `json:"assignment_id" db:"assignment_id"`
	StudentID     string           `json:"student_id" db:"student_id"`
	Status        InvitationStatus `json:"status" db:"status"`
	CustomMessage string           `json:"custom_message,omitempty" db:"custom_message"`
	InvitedAt     time.Time        `json:"invited_at" db:"invited_at"`
	RespondedAt   *time.Time       `json:"responded_at,omitempty" db:"responded_at"`
}
