package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/lib/pq"
	"github.com/rs/zerolog"

	"github.com/campusflow/assignment-service/internal/models"
)

type AssignmentRepository interface {
	Create(ctx context.Context, assignment *models.Assignment) error
	GetByID(ctx context.Context, id string) (*models.Assignment, error)
	GetWithStats(ctx context.Context, id string) (*models.AssignmentWithStats, error)
	ListByOwners(ctx context.Context, ownerIDs []string, limit, offset int) ([]models.AssignmentWithStats, int, error)
	Update(ctx context.Context, assignment *models.Assignment) error
	SetActive(ctx context.Context, id string, active bool, updatedBy string, now time.Time) error
	AppendAttachment(ctx context.Context, id, url, updatedBy string, now time.Time) error
	Delete(ctx context.Context, id string) error
}

type assignmentRepository struct {
	*PostgresRepository
}

func NewAssignmentRepository(db *sql.DB, logger zerolog.Logger) AssignmentRepository {
	return &assignmentRepository{
		PostgresRepository: NewPostgresRepository(db, logger),
	}
}

const assignmentColumns = `
	id, title, description, instructions, due_date, is_active, max_score,
	attachments, assignment_type, max_group_size, created_by, updated_by,
	created_at, updated_at`

func scanAssignment(row interface {
	Scan(dest ...interface{}) error
}, a *models.Assignment) error {
	return row.Scan(
		&a.ID,
		&a.Title,
		&a.Description,
		&a.Instructions,
		&a.DueDate,
		&a.IsActive,
		&a.MaxScore,
		pq.Array(&a.Attachments),
		&a.Type,
		&a.MaxGroupSize,
		&a.CreatedBy,
		&a.UpdatedBy,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
}

func (r *assignmentRepository) Create(ctx context.Context, assignment *models.Assignment) error {
	query := `
		INSERT INTO assignments (
			id, title, description, instructions, due_date, is_active, max_score,
			attachments, assignment_type, max_group_size, created_by, updated_by,
			created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err := r.exec(ctx).ExecContext(ctx, query,
		assignment.ID,
		assignment.Title,
		assignment.Description,
		assignment.Instructions,
		assignment.DueDate,
		assignment.IsActive,
		assignment.MaxScore,
		pq.Array(assignment.Attachments),
		assignment.Type,
		assignment.MaxGroupSize,
		assignment.CreatedBy,
		assignment.UpdatedBy,
		assignment.CreatedAt,
		assignment.UpdatedAt,
	)

	return err
}

func (r *assignmentRepository) GetByID(ctx context.Context, id string) (*models.Assignment, error) {
	query := `SELECT` + assignmentColumns + ` FROM assignments WHERE id = $1`

	assignment := &models.Assignment{}
	err := scanAssignment(r.exec(ctx).QueryRowContext(ctx, query, id), assignment)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	return assignment, err
}

func (r *assignmentRepository) GetWithStats(ctx context.Context, id string) (*models.AssignmentWithStats, error) {
	query := `
		SELECT
			a.id, a.title, a.description, a.instructions, a.due_date, a.is_active,
			a.max_score, a.attachments, a.assignment_type, a.max_group_size,
			a.created_by, a.updated_by, a.created_at, a.updated_at,
			(SELECT COUNT(*) FROM invitations i WHERE i.assignment_id = a.id) AS invited_count,
			(SELECT COUNT(*) FROM submissions s WHERE s.assignment_id = a.id) AS submitted_count
		FROM assignments a
		WHERE a.id = $1
	`

	assignment := &models.AssignmentWithStats{}
	err := r.exec(ctx).QueryRowContext(ctx, query, id).Scan(
		&assignment.ID,
		&assignment.Title,
		&assignment.Description,
		&assignment.Instructions,
		&assignment.DueDate,
		&assignment.IsActive,
		&assignment.MaxScore,
		pq.Array(&assignment.Attachments),
		&assignment.Type,
		&assignment.MaxGroupSize,
		&assignment.CreatedBy,
		&assignment.UpdatedBy,
		&assignment.CreatedAt,
		&assignment.UpdatedAt,
		&assignment.InvitedCount,
		&assignment.SubmittedCount,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	return assignment, err
}

func (r *assignmentRepository) ListByOwners(ctx context.Context, ownerIDs []string, limit, offset int) ([]models.AssignmentWithStats, int, error) {
	countQuery := `SELECT COUNT(*) FROM assignments WHERE created_by = ANY($1)`
	var total int
	err := r.exec(ctx).QueryRowContext(ctx, countQuery, pq.Array(ownerIDs)).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	query := `
		SELECT
			a.id, a.title, a.description, a.instructions, a.due_date, a.is_active,
			a.max_score, a.attachments, a.assignment_type, a.max_group_size,
			a.created_by, a.updated_by, a.created_at, a.updated_at,
			(SELECT COUNT(*) FROM invitations i WHERE i.assignment_id = a.id) AS invited_count,
			(SELECT COUNT(*) FROM submissions s WHERE s.assignment_id = a.id) AS submitted_count
		FROM assignments a
		WHERE a.created_by = ANY($1)
		ORDER BY a.created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.exec(ctx).QueryContext(ctx, query, pq.Array(ownerIDs), limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var assignments []models.AssignmentWithStats
	for rows.Next() {
		var a models.AssignmentWithStats
		err := rows.Scan(
			&a.ID,
			&a.Title,
			&a.Description,
			&a.Instructions,
			&a.DueDate,
			&a.IsActive,
			&a.MaxScore,
			pq.Array(&a.Attachments),
			&a.Type,
			&a.MaxGroupSize,
			&a.CreatedBy,
			&a.UpdatedBy,
			&a.CreatedAt,
			&a.UpdatedAt,
			&a.InvitedCount,
			&a.SubmittedCount,
		)
		if err != nil {
			return nil, 0, err
		}
		assignments = append(assignments, a)
	}

	return assignments, total, rows.Err()
}

func (r *assignmentRepository) Update(ctx context.Context, assignment *models.Assignment) error {
	query := `
		UPDATE assignments
		SET title = $1, description = $2, instructions = $3, due_date = $4,
			max_score = $5, max_group_size = $6, updated_by = $7, updated_at = $8
		WHERE id = $9
	`

	_, err := r.exec(ctx).ExecContext(ctx, query,
		assignment.Title,
		assignment.Description,
		assignment.Instructions,
		assignment.DueDate,
		assignment.MaxScore,
		assignment.MaxGroupSize,
		assignment.UpdatedBy,
		assignment.UpdatedAt,
		assignment.ID,
	)

	return err
}

func (r *assignmentRepository) SetActive(ctx context.Context, id string, active bool, updatedBy string, now time.Time) error {
	query := `UPDATE assignments SET is_active = $1, updated_by = $2, updated_at = $3 WHERE id = $4`
	_, err := r.exec(ctx).ExecContext(ctx, query, active, updatedBy, now, id)
	return err
}

func (r *assignmentRepository) AppendAttachment(ctx context.Context, id, url, updatedBy string, now time.Time) error {
	query := `
		UPDATE assignments
		SET attachments = array_append(attachments, $1), updated_by = $2, updated_at = $3
		WHERE id = $4
	`
	_, err := r.exec(ctx).ExecContext(ctx, query, url, updatedBy, now, id)
	return err
}

func (r *assignmentRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM assignments WHERE id = $1`
	_, err := r.exec(ctx).ExecContext(ctx, query, id)
	return err
}
