package models

import "time"

type NotificationType string

const (
	NotificationInvitationSent    NotificationType = "invitation.sent"
	NotificationInvitationRevoked NotificationType = "invitation.revoked"
	NotificationSubmissionGraded  NotificationType = "submission.graded"
	NotificationStatusChanged     NotificationType = "assignment.status_changed"
)

// NotificationEvent is the queue payload consumed by the dispatch worker.
// Delivery is at-least-once and best-effort: a publish failure is tallied by
// the producing service, never propagated as a data-layer error.
type NotificationEvent struct {
	Type            NotificationType `json:"type"`
	StudentID       string           `json:"student_id"`
	StudentName     string           `json:"student_name"`
	StudentEmail    string           `json:"student_email"`
	AssignmentID    string           `json:"assignment_id"`
	AssignmentTitle string           `json:"assignment_title"`
	SupervisorID    string           `json:"supervisor_id"`
	SupervisorName  string           `json:"supervisor_name"`
	DueDate         *time.Time       `json:"due_date,omitempty"`
	CustomMessage   string           `json:"custom_message,omitempty"`
	Reason          string           `json:"reason,omitempty"`
	Score           *int             `json:"score,omitempty"`
	Feedback        string           `json:"feedback,omitempty"`
	GradeStatus     string           `json:"grade_status,omitempty"`
	IsActive        *bool            `json:"is_active,omitempty"`
	Timestamp       int64            `json:"timestamp"`
}

// EmailRequest is what the dispatch worker posts to the mailer service; the
// mailer owns template rendering and delivery.
type EmailRequest struct {
	To       string                 `json:"to"`
	ToName   string                 `json:"to_name"`
	Template string                 `json:"template"`
	Params   map[string]interface{} `json:"params"`
}
