package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/lib/pq"
	"github.com/rs/zerolog"

	"github.com/campusflow/assignment-service/internal/models"
)

// AnalyticsRepository serves the read side only. Every query takes an "as of"
// cutoff so a period's metrics are computed from the rows that existed at
// that instant, with the same shape for the current and the trailing period.
type AnalyticsRepository interface {
	AssignmentSnapshots(ctx context.Context, ownerIDs []string, asOf time.Time) ([]models.AssignmentSnapshot, error)
	SubmissionStats(ctx context.Context, ownerIDs []string, asOf time.Time) (total int, avgScore float64, err error)
	DistinctInvitedStudents(ctx context.Context, ownerIDs []string, asOf time.Time) (int, error)
}

type analyticsRepository struct {
	*PostgresRepository
}

func NewAnalyticsRepository(db *sql.DB, logger zerolog.Logger) AnalyticsRepository {
	return &analyticsRepository{
		PostgresRepository: NewPostgresRepository(db, logger),
	}
}

func (r *analyticsRepository) AssignmentSnapshots(ctx context.Context, ownerIDs []string, asOf time.Time) ([]models.AssignmentSnapshot, error) {
	query := `
		SELECT
			a.id, a.is_active, a.due_date, a.created_at,
			(SELECT COUNT(*) FROM invitations i
				WHERE i.assignment_id = a.id AND i.invited_at <= $2) AS invited_count,
			(SELECT COUNT(*) FROM submissions s
				WHERE s.assignment_id = a.id AND s.submitted_at <= $2) AS submitted_count
		FROM assignments a
		WHERE a.created_by = ANY($1) AND a.created_at <= $2
	`

	rows, err := r.exec(ctx).QueryContext(ctx, query, pq.Array(ownerIDs), asOf)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var snapshots []models.AssignmentSnapshot
	for rows.Next() {
		var s models.AssignmentSnapshot
		err := rows.Scan(
			&s.ID,
			&s.IsActive,
			&s.DueDate,
			&s.CreatedAt,
			&s.InvitedCount,
			&s.SubmittedCount,
		)
		if err != nil {
			return nil, err
		}
		snapshots = append(snapshots, s)
	}

	return snapshots, rows.Err()
}

func (r *analyticsRepository) SubmissionStats(ctx context.Context, ownerIDs []string, asOf time.Time) (int, float64, error) {
	query := `
		SELECT COUNT(*), COALESCE(AVG(s.score) FILTER (WHERE s.score IS NOT NULL), 0)
		FROM submissions s
		JOIN assignments a ON a.id = s.assignment_id
		WHERE a.created_by = ANY($1) AND s.submitted_at <= $2
	`

	var total int
	var avg float64
	err := r.exec(ctx).QueryRowContext(ctx, query, pq.Array(ownerIDs), asOf).Scan(&total, &avg)
	return total, avg, err
}

func (r *analyticsRepository) DistinctInvitedStudents(ctx context.Context, ownerIDs []string, asOf time.Time) (int, error) {
	query := `
		SELECT COUNT(DISTINCT i.student_id)
		FROM invitations i
		JOIN assignments a ON a.id = i.assignment_id
		WHERE a.created_by = ANY($1) AND i.invited_at <= $2
	`

	var count int
	err := r.exec(ctx).QueryRowContext(ctx, query, pq.Array(ownerIDs), asOf).Scan(&count)
	return count, err
}
