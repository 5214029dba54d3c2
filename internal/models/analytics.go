package models

// OverviewMetrics is one period's worth of roster-scoped aggregates.
type OverviewMetrics struct {
	TotalAssignments     int     `json:"total_assignments"`
	ActiveAssignments    int     `json:"active_assignments"`
	InactiveAssignments  int     `json:"inactive_assignments"`
	CompletedAssignments int     `json:"completed_assignments"`
	OverdueAssignments   int     `json:"overdue_assignments"`
	TotalSubmissions     int     `json:"total_submissions"`
	AverageScore         float64 `json:"average_score"`
	StudentsInvited      int     `json:"students_invited"`
}

// OverviewChange holds the month-over-month percentage change per metric.
type OverviewChange struct {
	TotalAssignments     int `json:"total_assignments"`
	ActiveAssignments    int `json:"active_assignments"`
	InactiveAssignments  int `json:"inactive_assignments"`
	CompletedAssignments int `json:"completed_assignments"`
	OverdueAssignments   int `json:"overdue_assignments"`
	TotalSubmissions     int `json:"total_submissions"`
	AverageScore         int `json:"average_score"`
	StudentsInvited      int `json:"students_invited"`
}

type AnalyticsOverview struct {
	SupervisorID string          `json:"supervisor_id"`
	Current      OverviewMetrics `json:"current"`
	Previous     OverviewMetrics `json:"previous"`
	Change       OverviewChange  `json:"percentage_change"`
}
