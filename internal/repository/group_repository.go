package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/lib/pq"
	"github.com/rs/zerolog"

	"github.com/campusflow/assignment-service/internal/models"
)

type GroupRepository interface {
	Create(ctx context.Context, group *models.Group) error
	GetByID(ctx context.Context, id string) (*models.Group, error)
	// NameExists matches on the trimmed, case-folded name within one
	// assignment; excludeGroupID skips the group itself on rename.
	NameExists(ctx context.Context, assignmentID, name, excludeGroupID string) (bool, error)
	// MembersInOtherGroups returns the subset of studentIDs already belonging
	// to a different group of the same assignment.
	MembersInOtherGroups(ctx context.Context, assignmentID string, studentIDs []string, excludeGroupID string) ([]string, error)
	InsertMembers(ctx context.Context, groupID string, studentIDs []string, joinedAt time.Time) error
	ListMembers(ctx context.Context, groupID string) ([]models.GroupMember, error)
	DeleteMembers(ctx context.Context, groupID string) error
	UpdateName(ctx context.Context, id, name string, now time.Time) error
	Delete(ctx context.Context, id string) error
}

type groupRepository struct {
	*PostgresRepository
}

func NewGroupRepository(db *sql.DB, logger zerolog.Logger) GroupRepository {
	return &groupRepository{
		PostgresRepository: NewPostgresRepository(db, logger),
	}
}

func (r *groupRepository) Create(ctx context.Context, group *models.Group) error {
	query := `
		INSERT INTO assignment_groups (id, assignment_id, group_name, max_members, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.exec(ctx).ExecContext(ctx, query,
		group.ID,
		group.AssignmentID,
		group.Name,
		group.MaxMembers,
		group.CreatedBy,
		group.CreatedAt,
		group.UpdatedAt,
	)

	return err
}

func (r *groupRepository) GetByID(ctx context.Context, id string) (*models.Group, error) {
	query := `
		SELECT id, assignment_id, group_name, max_members, created_by, created_at, updated_at
		FROM assignment_groups
		WHERE id = $1
	`

	group := &models.Group{}
	err := r.exec(ctx).QueryRowContext(ctx, query, id).Scan(
		&group.ID,
		&group.AssignmentID,
		&group.Name,
		&group.MaxMembers,
		&group.CreatedBy,
		&group.CreatedAt,
		&group.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	return group, err
}

func (r *groupRepository) NameExists(ctx context.Context, assignmentID, name, excludeGroupID string) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM assignment_groups
			WHERE assignment_id = $1
			  AND LOWER(TRIM(group_name)) = LOWER(TRIM($2))
			  AND ($3 = '' OR id <> $3)
		)
	`

	var exists bool
	err := r.exec(ctx).QueryRowContext(ctx, query, assignmentID, name, excludeGroupID).Scan(&exists)
	return exists, err
}

func (r *groupRepository) MembersInOtherGroups(ctx context.Context, assignmentID string, studentIDs []string, excludeGroupID string) ([]string, error) {
	query := `
		SELECT DISTINCT gm.student_id
		FROM group_members gm
		JOIN assignment_groups g ON g.id = gm.group_id
		WHERE g.assignment_id = $1
		  AND gm.student_id = ANY($2)
		  AND ($3 = '' OR gm.group_id <> $3)
	`

	rows, err := r.exec(ctx).QueryContext(ctx, query, assignmentID, pq.Array(studentIDs), excludeGroupID)
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

func (r *groupRepository) InsertMembers(ctx context.Context, groupID string, studentIDs []string, joinedAt time.Time) error {
	query := `
		INSERT INTO group_members (group_id, student_id, joined_at)
		SELECT $1, unnest($2::uuid[]), $3
	`

	_, err := r.exec(ctx).ExecContext(ctx, query, groupID, pq.Array(studentIDs), joinedAt)
	return err
}

func (r *groupRepository) ListMembers(ctx context.Context, groupID string) ([]models.GroupMember, error) {
	query := `
		SELECT group_id, student_id, joined_at
		FROM group_members
		WHERE group_id = $1
		ORDER BY joined_at
	`

	rows, err := r.exec(ctx).QueryContext(ctx, query, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []models.GroupMember
	for rows.Next() {
		var m models.GroupMember
		if err := rows.Scan(&m.GroupID, &m.StudentID, &m.JoinedAt); err != nil {
			return nil, err
		}
		members = append(members, m)
	}

	return members, rows.Err()
}

func (r *groupRepository) DeleteMembers(ctx context.Context, groupID string) error {
	query := `DELETE FROM group_members WHERE group_id = $1`
	_, err := r.exec(ctx).ExecContext(ctx, query, groupID)
	return err
}

func (r *groupRepository) UpdateName(ctx context.Context, id, name string, now time.Time) error {
	query := `UPDATE assignment_groups SET group_name = $1, updated_at = $2 WHERE id = $3`
	_, err := r.exec(ctx).ExecContext(ctx, query, name, now, id)
	return err
}

func (r *groupRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM assignment_groups WHERE id = $1`
	_, err := r.exec(ctx).ExecContext(ctx, query, id)
	return err
}
