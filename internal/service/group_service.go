package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/campusflow/assignment-service/internal/apperr"
	"github.com/campusflow/assignment-service/internal/models"
	"github.com/campusflow/assignment-service/internal/repository"
)

type GroupService interface {
	Create(ctx context.Context, req *models.CreateGroupRequest) (*models.GroupWithMembers, error)
	Update(ctx context.Context, req *models.UpdateGroupRequest) (*models.GroupWithMembers, error)
	Delete(ctx context.Context, groupID, supervisorID string) error
}

type groupService struct {
	store          repository.Store
	groupRepo      repository.GroupRepository
	assignmentRepo repository.AssignmentRepository
	studentRepo    repository.StudentRepository
	submissionRepo repository.SubmissionRepository
	logger         zerolog.Logger
}

func NewGroupService(
	store repository.Store,
	groupRepo repository.GroupRepository,
	assignmentRepo repository.AssignmentRepository,
	studentRepo repository.StudentRepository,
	submissionRepo repository.SubmissionRepository,
	logger zerolog.Logger,
) GroupService {
	return &groupService{
		store:          store,
		groupRepo:      groupRepo,
		assignmentRepo: assignmentRepo,
		studentRepo:    studentRepo,
		submissionRepo: submissionRepo,
		logger:         logger,
	}
}

func (s *groupService) Create(ctx context.Context, req *models.CreateGroupRequest) (*models.GroupWithMembers, error) {
	now := time.Now().UTC()
	name := strings.TrimSpace(req.Name)

	var result *models.GroupWithMembers

	err := s.store.WithinTx(ctx, func(ctx context.Context) error {
		assignment, err := s.assignmentRepo.GetByID(ctx, req.AssignmentID)
		if err != nil {
			return fmt.Errorf("failed to get assignment: %w", err)
		}
		if assignment == nil {
			return apperr.New(apperr.KindNotFound, apperr.CodeAssignmentNotFound, "assignment not found")
		}
		if assignment.CreatedBy != req.SupervisorID {
			return apperr.New(apperr.KindPermissionDenied, apperr.CodeAccessDenied, "only the assignment creator may manage groups")
		}
		if assignment.Type != models.AssignmentTypeGroup {
			return apperr.New(apperr.KindValidation, apperr.CodeNotGroupAssignment, "assignment does not accept group submissions")
		}

		if err := s.validateMembers(ctx, assignment, req.MemberIDs, ""); err != nil {
			return err
		}

		exists, err := s.groupRepo.NameExists(ctx, req.AssignmentID, name, "")
		if err != nil {
			return fmt.Errorf("failed to check group name: %w", err)
		}
		if exists {
			return apperr.New(apperr.KindConflict, apperr.CodeDuplicateGroupName, "a group with this name already exists for the assignment")
		}

		group := &models.Group{
			ID:           uuid.New().String(),
			AssignmentID: req.AssignmentID,
			Name:         name,
			MaxMembers:   assignment.MaxGroupSize,
			CreatedBy:    req.SupervisorID,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := s.groupRepo.Create(ctx, group); err != nil {
			return fmt.Errorf("failed to create group: %w", err)
		}

		if err := s.groupRepo.InsertMembers(ctx, group.ID, req.MemberIDs, now); err != nil {
			return fmt.Errorf("failed to insert group members: %w", err)
		}

		members, err := s.groupRepo.ListMembers(ctx, group.ID)
		if err != nil {
			return fmt.Errorf("failed to list group members: %w", err)
		}

		result = &models.GroupWithMembers{Group: *group, Members: members}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("group_id", result.ID).
		Str("assignment_id", req.AssignmentID).
		Int("members", len(result.Members)).
		Msg("Group created")

	return result, nil
}

func (s *groupService) Update(ctx context.Context, req *models.UpdateGroupRequest) (*models.GroupWithMembers, error) {
	now := time.Now().UTC()

	var result *models.GroupWithMembers

	err := s.store.WithinTx(ctx, func(ctx context.Context) error {
		group, err := s.groupRepo.GetByID(ctx, req.GroupID)
		if err != nil {
			return fmt.Errorf("failed to get group: %w", err)
		}
		if group == nil {
			return apperr.New(apperr.KindNotFound, apperr.CodeGroupNotFound, "group not found")
		}

		assignment, err := s.assignmentRepo.GetByID(ctx, group.AssignmentID)
		if err != nil {
			return fmt.Errorf("failed to get assignment: %w", err)
		}
		if assignment == nil {
			return fmt.Errorf("group %s references missing assignment %s", group.ID, group.AssignmentID)
		}
		if assignment.CreatedBy != req.SupervisorID {
			return apperr.New(apperr.KindPermissionDenied, apperr.CodeAccessDenied, "only the assignment creator may manage groups")
		}

		if req.Name != nil {
			name := strings.TrimSpace(*req.Name)
			exists, err := s.groupRepo.NameExists(ctx, group.AssignmentID, name, group.ID)
			if err != nil {
				return fmt.Errorf("failed to check group name: %w", err)
			}
			if exists {
				return apperr.New(apperr.KindConflict, apperr.CodeDuplicateGroupName, "a group with this name already exists for the assignment")
			}
			if err := s.groupRepo.UpdateName(ctx, group.ID, name, now); err != nil {
				return fmt.Errorf("failed to rename group: %w", err)
			}
			group.Name = name
			group.UpdatedAt = now
		}

		if req.MemberIDs != nil {
			if err := s.validateMembers(ctx, assignment, *req.MemberIDs, group.ID); err != nil {
				return err
			}
			// Membership update is a full replace, not a diff.
			if err := s.groupRepo.DeleteMembers(ctx, group.ID); err != nil {
				return fmt.Errorf("failed to clear group members: %w", err)
			}
			if err := s.groupRepo.InsertMembers(ctx, group.ID, *req.MemberIDs, now); err != nil {
				return fmt.Errorf("failed to insert group members: %w", err)
			}
		}

		members, err := s.groupRepo.ListMembers(ctx, group.ID)
		if err != nil {
			return fmt.Errorf("failed to list group members: %w", err)
		}

		result = &models.GroupWithMembers{Group: *group, Members: members}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("group_id", req.GroupID).
		Msg("Group updated")

	return result, nil
}

func (s *groupService) Delete(ctx context.Context, groupID, supervisorID string) error {
	err := s.store.WithinTx(ctx, func(ctx context.Context) error {
		group, err := s.groupRepo.GetByID(ctx, groupID)
		if err != nil {
			return fmt.Errorf("failed to get group: %w", err)
		}
		if group == nil {
			return apperr.New(apperr.KindNotFound, apperr.CodeGroupNotFound, "group not found")
		}

		assignment, err := s.assignmentRepo.GetByID(ctx, group.AssignmentID)
		if err != nil {
			return fmt.Errorf("failed to get assignment: %w", err)
		}
		if assignment != nil && assignment.CreatedBy != supervisorID {
			return apperr.New(apperr.KindPermissionDenied, apperr.CodeAccessDenied, "only the assignment creator may manage groups")
		}

		hasSubmissions, err := s.submissionRepo.ExistsForGroup(ctx, groupID)
		if err != nil {
			return fmt.Errorf("failed to check group submissions: %w", err)
		}
		if hasSubmissions {
			return apperr.New(apperr.KindDependency, apperr.CodeGroupHasSubmissions, "group has submissions and cannot be deleted")
		}

		if err := s.groupRepo.DeleteMembers(ctx, groupID); err != nil {
			return fmt.Errorf("failed to delete group members: %w", err)
		}
		if err := s.groupRepo.Delete(ctx, groupID); err != nil {
			return fmt.Errorf("failed to delete group: %w", err)
		}

		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info().Str("group_id", groupID).Msg("Group deleted")
	return nil
}

// validateMembers checks the size limit, that every member resolves to an
// existing student, and that nobody already belongs to another group of the
// same assignment.
func (s *groupService) validateMembers(ctx context.Context, assignment *models.Assignment, memberIDs []string, excludeGroupID string) error {
	if assignment.MaxGroupSize > 0 && len(memberIDs) > assignment.MaxGroupSize {
		return apperr.New(apperr.KindConflict, apperr.CodeGroupSizeExceeded,
			fmt.Sprintf("group size %d exceeds the maximum of %d", len(memberIDs), assignment.MaxGroupSize))
	}

	students, err := s.studentRepo.GetByIDs(ctx, memberIDs)
	if err != nil {
		return fmt.Errorf("failed to resolve students: %w", err)
	}
	if len(students) != len(memberIDs) {
		found := make(map[string]bool, len(students))
		for _, st := range students {
			found[st.ID] = true
		}
		missing := make(map[string]string)
		for _, id := range memberIDs {
			if !found[id] {
				missing[id] = "student not found"
			}
		}
		return apperr.New(apperr.KindValidation, apperr.CodeStudentsNotFound, "some members do not exist").
			WithFields(missing)
	}

	conflicted, err := s.groupRepo.MembersInOtherGroups(ctx, assignment.ID, memberIDs, excludeGroupID)
	if err != nil {
		return fmt.Errorf("failed to check group membership: %w", err)
	}
	if len(conflicted) > 0 {
		fields := make(map[string]string, len(conflicted))
		for _, id := range conflicted {
			fields[id] = "already in another group for this assignment"
		}
		return apperr.New(apperr.KindConflict, apperr.CodeStudentAlreadyInGroup, "some students already belong to a group").
			WithFields(fields)
	}

	return nil
}
