package lifecycle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDerive(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	yesterday := now.Add(-24 * time.Hour)
	tomorrow := now.Add(24 * time.Hour)

	tests := []struct {
		name string
		snap Snapshot
		want Status
	}{
		{
			name: "all invitees submitted is completed",
			snap: Snapshot{IsActive: true, DueDate: tomorrow, InvitedCount: 3, SubmittedCount: 3},
			want: StatusCompleted,
		},
		{
			name: "completed wins over inactive",
			snap: Snapshot{IsActive: false, DueDate: tomorrow, InvitedCount: 2, SubmittedCount: 2},
			want: StatusCompleted,
		},
		{
			name: "completed wins over past due date",
			snap: Snapshot{IsActive: true, DueDate: yesterday, InvitedCount: 5, SubmittedCount: 5},
			want: StatusCompleted,
		},
		{
			name: "active past due with partial submissions is overdue",
			snap: Snapshot{IsActive: true, DueDate: yesterday, InvitedCount: 3, SubmittedCount: 2},
			want: StatusOverdue,
		},
		{
			name: "active not yet due with partial submissions is active",
			snap: Snapshot{IsActive: true, DueDate: tomorrow, InvitedCount: 3, SubmittedCount: 1},
			want: StatusActive,
		},
		{
			name: "due date exactly now counts as not yet due",
			snap: Snapshot{IsActive: true, DueDate: now, InvitedCount: 4, SubmittedCount: 2},
			want: StatusActive,
		},
		{
			name: "active with no invitations is active",
			snap: Snapshot{IsActive: true, DueDate: yesterday, InvitedCount: 0, SubmittedCount: 0},
			want: StatusActive,
		},
		{
			name: "inactive with partial submissions is inactive",
			snap: Snapshot{IsActive: false, DueDate: tomorrow, InvitedCount: 3, SubmittedCount: 1},
			want: StatusInactive,
		},
		{
			name: "inactive with no invitations is inactive",
			snap: Snapshot{IsActive: false, DueDate: tomorrow, InvitedCount: 0, SubmittedCount: 0},
			want: StatusInactive,
		},
		{
			name: "more submissions than invitations is a defect",
			snap: Snapshot{IsActive: true, DueDate: tomorrow, InvitedCount: 2, SubmittedCount: 3},
			want: StatusUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Derive(tt.snap, now))
		})
	}
}

// Derive must return exactly one of the six states for every input
// combination, and it must be deterministic in "now".
func TestDeriveIsTotal(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	dueDates := []time.Time{now.Add(-time.Hour), now, now.Add(time.Hour)}
	counts := []int{0, 1, 2, 3}
	valid := map[Status]bool{
		StatusCompleted: true,
		StatusOverdue:   true,
		StatusActive:    true,
		StatusPending:   true,
		StatusInactive:  true,
		StatusUnknown:   true,
	}

	for _, active := range []bool{true, false} {
		for _, due := range dueDates {
			for _, invited := range counts {
				for _, submitted := range counts {
					snap := Snapshot{
						IsActive:       active,
						DueDate:        due,
						InvitedCount:   invited,
						SubmittedCount: submitted,
					}
					got := Derive(snap, now)
					assert.True(t, valid[got], "unexpected status %q for %+v", got, snap)
					assert.Equal(t, got, Derive(snap, now))
				}
			}
		}
	}
}

// The same snapshot evaluated for the current period and for a historical
// "as of" timestamp must go through identical branch logic.
func TestDeriveAsOfConsistency(t *testing.T) {
	due := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	snap := Snapshot{IsActive: true, DueDate: due, InvitedCount: 3, SubmittedCount: 2}

	// Before the due date the assignment is active, after it is overdue;
	// there is no window in which it would flip to pending.
	assert.Equal(t, StatusActive, Derive(snap, due.Add(-time.Hour)))
	assert.Equal(t, StatusOverdue, Derive(snap, due.Add(time.Hour)))
}
