package lifecycle

import "time"

// Status is the workflow state of an assignment. It is always derived from
// time and counts, never stored.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusOverdue   Status = "overdue"
	StatusActive    Status = "active"
	StatusPending   Status = "pending"
	StatusInactive  Status = "inactive"
	StatusUnknown   Status = "unknown"
)

func (s Status) String() string {
	return string(s)
}

// Snapshot is everything Derive needs about one assignment at a point in
// time. Callers computing a historical status pass counts restricted to rows
// that existed at that moment, together with the matching "now".
type Snapshot struct {
	IsActive       bool
	DueDate        time.Time
	InvitedCount   int
	SubmittedCount int
}

// Derive computes the workflow status for a snapshot. Rules are evaluated in
// strict precedence order, first match wins:
//
//  1. every invitee has submitted            -> Completed (terminal)
//  2. active, past due, partial submissions  -> Overdue
//  3. active, not yet due, partial           -> Active
//  4. active, nobody invited yet             -> Active
//  5. not active                             -> Inactive
//  6. anything else                          -> Unknown (data defect)
//
// StatusUnknown is only reachable when the stored counts are inconsistent
// (more submissions than invitations on an active assignment); callers should
// log it as a defect signal.
func Derive(s Snapshot, now time.Time) Status {
	partial := s.InvitedCount > 0 && s.SubmittedCount < s.InvitedCount

	switch {
	case s.InvitedCount > 0 && s.SubmittedCount == s.InvitedCount:
		return StatusCompleted
	case s.IsActive && s.DueDate.Before(now) && partial:
		return StatusOverdue
	case s.IsActive && !s.DueDate.Before(now) && partial:
		return StatusActive
	case s.IsActive && s.InvitedCount == 0:
		return StatusActive
	case !s.IsActive:
		return StatusInactive
	default:
		return StatusUnknown
	}
}
