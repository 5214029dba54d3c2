package models

import "time"

// Data Transfer Objects

type CreateAssignmentRequest struct {
	Title        string    `json:"title" validate:"required,min=3,max=255"`
	Description  string    `json:"description" validate:"max=2000"`
	Instructions string    `json:"instructions" validate:"max=5000"`
	DueDate      time.Time `json:"due_date" validate:"required"`
	MaxScore     int       `json:"max_score" validate:"required,gt=0"`
	Type         string    `json:"assignment_type" validate:"required,oneof=individual group"`
	MaxGroupSize int       `json:"max_group_size" validate:"omitempty,gt=1"`
	SupervisorID string    `json:"supervisor_id" validate:"required,uuid"`
}

type UpdateAssignmentRequest struct {
	Title        string    `json:"title" validate:"required,min=3,max=255"`
	Description  string    `json:"description" validate:"max=2000"`
	Instructions string    `json:"instructions" validate:"max=5000"`
	DueDate      time.Time `json:"due_date" validate:"required"`
	MaxScore     int       `json:"max_score" validate:"required,gt=0"`
	MaxGroupSize int       `json:"max_group_size" validate:"omitempty,gt=1"`
	SupervisorID string    `json:"supervisor_id" validate:"required,uuid"`
}

type ToggleAssignmentStatusRequest struct {
	SupervisorID string `json:"supervisor_id" validate:"required,uuid"`
	IsActive     bool   `json:"is_active"`
}

type AssignmentsResponse struct {
	Assignments []AssignmentWithStats `json:"assignments"`
	Total       int                   `json:"total"`
	Page        int                   `json:"page"`
	Limit       int                   `json:"limit"`
}

type InviteStudentsRequest struct {
	AssignmentID  string   `json:"-"`
	SupervisorID  string   `json:"supervisor_id" validate:"required,uuid"`
	StudentIDs    []string `json:"student_ids" validate:"required,min=1,max=50,dive,uuid"`
	CustomMessage string   `json:"custom_message" validate:"max=1000"`
}

type InviteStudentsResponse struct {
	Invited      []string `json:"invited"`
	EmailsSent   int      `json:"emails_sent"`
	EmailsFailed int      `json:"emails_failed"`
	Warnings     []string `json:"warnings,omitempty"`
}

type UninviteStudentsRequest struct {
	AssignmentID string   `json:"-"`
	SupervisorID string   `json:"supervisor_id" validate:"required,uuid"`
	StudentIDs   []string `json:"student_ids" validate:"required,min=1,max=50,dive,uuid"`
	Reason       string   `json:"reason" validate:"max=1000"`
}

type UninviteStudentsResponse struct {
	Removed      int `json:"removed"`
	EmailsSent   int `json:"emails_sent"`
	EmailsFailed int `json:"emails_failed"`
}

type GradeSubmissionRequest struct {
	SubmissionID string `json:"-"`
	SupervisorID string `json:"supervisor_id" validate:"required,uuid"`
	Score        int    `json:"score"`
	Feedback     string `json:"feedback" validate:"max=5000"`
	Status       string `json:"status" validate:"required,oneof=approved changes_required rejected"`
	Version      int    `json:"version" validate:"gte=0"`
}

type CreateGroupRequest struct {
	AssignmentID string   `json:"assignment_id" validate:"required,uuid"`
	Name         string   `json:"group_name" validate:"required,min=2,max=255"`
	MemberIDs    []string `json:"members" validate:"required,min=2,dive,uuid"`
	SupervisorID string   `json:"supervisor_id" validate:"required,uuid"`
}

type UpdateGroupRequest struct {
	GroupID      string    `json:"-"`
	SupervisorID string    `json:"supervisor_id" validate:"required,uuid"`
	Name         *string   `json:"group_name" validate:"omitempty,min=2,max=255"`
	MemberIDs    *[]string `json:"members" validate:"omitempty,min=2,dive,uuid"`
}
