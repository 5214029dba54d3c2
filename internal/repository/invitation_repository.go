package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
	"github.com/rs/zerolog"

	"github.com/campusflow/assignment-service/internal/models"
)

// ErrDuplicateInvitation is returned when an insert hits the unique
// (assignment_id, student_id) constraint despite the pre-insert check; it can
// only happen when a concurrent transaction won the race.
var ErrDuplicateInvitation = fmt.Errorf("invitation already exists")

type InvitationRepository interface {
	Create(ctx context.Context, invitation *models.Invitation) error
	ListByAssignment(ctx context.Context, assignmentID string) ([]models.Invitation, error)
	ListByAssignmentAndStudents(ctx context.Context, assignmentID string, studentIDs []string) ([]models.Invitation, error)
	DeleteByAssignmentAndStudents(ctx context.Context, assignmentID string, studentIDs []string) (int64, error)
}

type invitationRepository struct {
	*PostgresRepository
}

func NewInvitationRepository(db *sql.DB, logger zerolog.Logger) InvitationRepository {
	return &invitationRepository{
		PostgresRepository: NewPostgresRepository(db, logger),
	}
}

func (r *invitationRepository) Create(ctx context.Context, invitation *models.Invitation) error {
	query := `
		INSERT INTO invitations (id, assignment_id, student_id, status, custom_message, invited_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.exec(ctx).ExecContext(ctx, query,
		invitation.ID,
		invitation.AssignmentID,
		invitation.StudentID,
		invitation.Status,
		invitation.CustomMessage,
		invitation.InvitedAt,
	)

	if err != nil && isUniqueViolation(err) {
		return ErrDuplicateInvitation
	}

	return err
}

func (r *invitationRepository) ListByAssignment(ctx context.Context, assignmentID string) ([]models.Invitation, error) {
	query := `
		SELECT id, assignment_id, student_id, status, custom_message, invited_at, responded_at
		FROM invitations
		WHERE assignment_id = $1
		ORDER BY invited_at
	`

	rows, err := r.exec(ctx).QueryContext(ctx, query, assignmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var invitations []models.Invitation
	for rows.Next() {
		var inv models.Invitation
		err := rows.Scan(
			&inv.ID,
			&inv.AssignmentID,
			&inv.StudentID,
			&inv.Status,
			&inv.CustomMessage,
			&inv.InvitedAt,
			&inv.RespondedAt,
		)
		if err != nil {
			return nil, err
		}
		invitations = append(invitations, inv)
	}

	return invitations, rows.Err()
}

func (r *invitationRepository) ListByAssignmentAndStudents(ctx context.Context, assignmentID string, studentIDs []string) ([]models.Invitation, error) {
	query := `
		SELECT id, assignment_id, student_id, status, custom_message, invited_at, responded_at
		FROM invitations
		WHERE assignment_id = $1 AND student_id = ANY($2)
	`

	rows, err := r.exec(ctx).QueryContext(ctx, query, assignmentID, pq.Array(studentIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var invitations []models.Invitation
	for rows.Next() {
		var inv models.Invitation
		err := rows.Scan(
			&inv.ID,
			&inv.AssignmentID,
			&inv.StudentID,
			&inv.Status,
			&inv.CustomMessage,
			&inv.InvitedAt,
			&inv.RespondedAt,
		)
		if err != nil {
			return nil, err
		}
		invitations = append(invitations, inv)
	}

	return invitations, rows.Err()
}

func (r *invitationRepository) DeleteByAssignmentAndStudents(ctx context.Context, assignmentID string, studentIDs []string) (int64, error) {
	query := `DELETE FROM invitations WHERE assignment_id = $1 AND student_id = ANY($2)`

	res, err := r.exec(ctx).ExecContext(ctx, query, assignmentID, pq.Array(studentIDs))
	if err != nil {
		return 0, err
	}

	return res.RowsAffected()
}
