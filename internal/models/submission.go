package models

import (
	"time"
)

type SubmissionStatus string

const (
	SubmissionStatusPending         SubmissionStatus = "pending"
	SubmissionStatusApproved        SubmissionStatus = "approved"
	SubmissionStatusChangesRequired SubmissionStatus = "changes_required"
	SubmissionStatusRejected        SubmissionStatus = "rejected"
)

func IsValidGradingStatus(status string) bool {
	switch SubmissionStatus(status) {
	case SubmissionStatusApproved, SubmissionStatusChangesRequired, SubmissionStatusRejected:
		return true
	default:
		return false
	}
}

// Submission is a student's (or group's) response to an assignment. Exactly
// one of StudentID/GroupID is set. Version is the optimistic-concurrency
// token bumped on every grade; a stale version is rejected as a conflict
// instead of silently overwriting a concurrent grader.
type Submission struct {
	ID             string           `json:"id" db:"id"`
	AssignmentID   string           `json:"assignment_id" db:"assignment_id"`
	StudentID      *string          `json:"student_id,omitempty" db:"student_id"`
	GroupID        *string          `json:"group_id,omitempty" db:"group_id"`
	SubmissionText string           `json:"submission_text" db:"submission_text"`
	Attachments    []string         `json:"attachments" db:"attachments"`
	SubmittedAt    time.Time        `json:"submitted_at" db:"submitted_at"`
	Score          *int             `json:"score,omitempty" db:"score"`
	Feedback       string           `json:"feedback" db:"feedback"`
	Status         SubmissionStatus `json:"status" db:"status"`
	GradedAt       *time.Time       `json:"graded_at,omitempty" db:"graded_at"`
	Version        int              `json:"version" db:"version"`
}
