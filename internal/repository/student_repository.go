package repository

import (
	"context"
	"database/sql"

	"github.com/lib/pq"
	"github.com/rs/zerolog"

	"github.com/campusflow/assignment-service/internal/models"
)

type StudentRepository interface {
	GetByIDs(ctx context.Context, ids []string) ([]models.Student, error)
	GetSupervisorByID(ctx context.Context, id string) (*models.Supervisor, error)
	// RosterIDs returns the supervisor id plus the ids of every student
	// delegated to them; this is the ownership scope for listings and
	// analytics.
	RosterIDs(ctx context.Context, supervisorID string) ([]string, error)
}

type studentRepository struct {
	*PostgresRepository
}

func NewStudentRepository(db *sql.DB, logger zerolog.Logger) StudentRepository {
	return &studentRepository{
		PostgresRepository: NewPostgresRepository(db, logger),
	}
}

func (r *studentRepository) GetByIDs(ctx context.Context, ids []string) ([]models.Student, error) {
	query := `
		SELECT id, name, email, department_id, supervisor_id, is_active, created_at, updated_at
		FROM students
		WHERE id = ANY($1)
	`

	rows, err := r.exec(ctx).QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var students []models.Student
	for rows.Next() {
		var s models.Student
		err := rows.Scan(
			&s.ID,
			&s.Name,
			&s.Email,
			&s.DepartmentID,
			&s.SupervisorID,
			&s.IsActive,
			&s.CreatedAt,
			&s.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		students = append(students, s)
	}

	return students, rows.Err()
}

func (r *studentRepository) GetSupervisorByID(ctx context.Context, id string) (*models.Supervisor, error) {
	query := `
		SELECT id, name, email, department_id, created_at, updated_at
		FROM supervisors
		WHERE id = $1
	`

	supervisor := &models.Supervisor{}
	err := r.exec(ctx).QueryRowContext(ctx, query, id).Scan(
		&supervisor.ID,
		&supervisor.Name,
		&supervisor.Email,
		&supervisor.DepartmentID,
		&supervisor.CreatedAt,
		&supervisor.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	return supervisor, err
}

func (r *studentRepository) RosterIDs(ctx context.Context, supervisorID string) ([]string, error) {
	query := `
		SELECT id FROM supervisors WHERE id = $1
		UNION
		SELECT id FROM students WHERE supervisor_id = $1
	`

	rows, err := r.exec(ctx).QueryContext(ctx, query, supervisorID)
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
