package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/lib/pq"
	"github.com/rs/zerolog"

	"github.com/campusflow/assignment-service/internal/models"
)

type SubmissionRepository interface {
	Create(ctx context.Context, submission *models.Submission) error
	GetByID(ctx context.Context, id string) (*models.Submission, error)
	// StudentsWithSubmissions returns the subset of studentIDs that already
	// submitted for the assignment, either directly or through a group.
	StudentsWithSubmissions(ctx context.Context, assignmentID string, studentIDs []string) ([]string, error)
	ExistsForAssignment(ctx context.Context, assignmentID string) (bool, error)
	ExistsForGroup(ctx context.Context, groupID string) (bool, error)
	// UpdateGrade writes score/feedback/status/graded_at in one statement,
	// guarded by the version token. Returns false when the version is stale.
	UpdateGrade(ctx context.Context, id string, score int, feedback string, status models.SubmissionStatus, gradedAt time.Time, expectedVersion int) (bool, error)
}

type submissionRepository struct {
	*PostgresRepository
}

func NewSubmissionRepository(db *sql.DB, logger zerolog.Logger) SubmissionRepository {
	return &submissionRepository{
		PostgresRepository: NewPostgresRepository(db, logger),
	}
}

func (r *submissionRepository) Create(ctx context.Context, submission *models.Submission) error {
	query := `
		INSERT INTO submissions (
			id, assignment_id, student_id, group_id, submission_text, attachments,
			submitted_at, score, feedback, status, graded_at, version
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := r.exec(ctx).ExecContext(ctx, query,
		submission.ID,
		submission.AssignmentID,
		submission.StudentID,
		submission.GroupID,
		submission.SubmissionText,
		pq.Array(submission.Attachments),
		submission.SubmittedAt,
		submission.Score,
		submission.Feedback,
		submission.Status,
		submission.GradedAt,
		submission.Version,
	)

	return err
}

func (r *submissionRepository) GetByID(ctx context.Context, id string) (*models.Submission, error) {
	query := `
		SELECT id, assignment_id, student_id, group_id, submission_text, attachments,
			submitted_at, score, feedback, status, graded_at, version
		FROM submissions
		WHERE id = $1
	`

	submission := &models.Submission{}
	err := r.exec(ctx).QueryRowContext(ctx, query, id).Scan(
		&submission.ID,
		&submission.AssignmentID,
		&submission.StudentID,
		&submission.GroupID,
		&submission.SubmissionText,
		pq.Array(&submission.Attachments),
		&submission.SubmittedAt,
		&submission.Score,
		&submission.Feedback,
		&submission.Status,
		&submission.GradedAt,
		&submission.Version,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	return submission, err
}

func (r *submissionRepository) StudentsWithSubmissions(ctx context.Context, assignmentID string, studentIDs []string) ([]string, error) {
	query := `
		SELECT DISTINCT s.student_id
		FROM submissions s
		WHERE s.assignment_id = $1 AND s.student_id = ANY($2)
		UNION
		SELECT gm.student_id
		FROM submissions s
		JOIN group_members gm ON gm.group_id = s.group_id
		WHERE s.assignment_id = $1 AND s.group_id IS NOT NULL AND gm.student_id = ANY($2)
	`

	rows, err := r.exec(ctx).QueryContext(ctx, query, assignmentID, pq.Array(studentIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}

func (r *submissionRepository) ExistsForAssignment(ctx context.Context, assignmentID string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM submissions WHERE assignment_id = $1)`
	var exists bool
	err := r.exec(ctx).QueryRowContext(ctx, query, assignmentID).Scan(&exists)
	return exists, err
}

func (r *submissionRepository) ExistsForGroup(ctx context.Context, groupID string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM submissions WHERE group_id = $1)`
	var exists bool
	err := r.exec(ctx).QueryRowContext(ctx, query, groupID).Scan(&exists)
	return exists, err
}

func (r *submissionRepository) UpdateGrade(ctx context.Context, id string, score int, feedback string, status models.SubmissionStatus, gradedAt time.Time, expectedVersion int) (bool, error) {
	query := `
		UPDATE submissions
		SET score = $1, feedback = $2, status = $3, graded_at = $4, version = version + 1
		WHERE id = $5 AND version = $6
	`

	res, err := r.exec(ctx).ExecContext(ctx, query, score, feedback, status, gradedAt, id, expectedVersion)
	if err != nil {
		return false, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	return affected == 1, nil
}
