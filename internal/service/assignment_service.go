package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/campusflow/assignment-service/internal/apperr"
	"github.com/campusflow/assignment-service/internal/lifecycle"
	"github.com/campusflow/assignment-service/internal/models"
	"github.com/campusflow/assignment-service/internal/repository"
	"github.com/campusflow/assignment-service/internal/service/integration"
)

type AssignmentService interface {
	Create(ctx context.Context, req *models.CreateAssignmentRequest) (*models.Assignment, error)
	GetByID(ctx context.Context, id string) (*models.AssignmentWithStats, error)
	ListBySupervisor(ctx context.Context, supervisorID string, page, limit int) (*models.AssignmentsResponse, error)
	Update(ctx context.Context, id string, req *models.UpdateAssignmentRequest) (*models.Assignment, error)
	ToggleStatus(ctx context.Context, id string, req *models.ToggleAssignmentStatusRequest) (*models.Assignment, error)
	Delete(ctx context.Context, id, supervisorID string) error
	AddAttachment(ctx context.Context, id, supervisorID string, fileContent []byte, fileName string) (*models.Assignment, error)
}

type assignmentService struct {
	store          repository.Store
	assignmentRepo repository.AssignmentRepository
	invitationRepo repository.InvitationRepository
	submissionRepo repository.SubmissionRepository
	studentRepo    repository.StudentRepository
	publisher      integration.NotificationPublisher
	documentClient integration.DocumentClient
	logger         zerolog.Logger
}

func NewAssignmentService(
	store repository.Store,
	assignmentRepo repository.AssignmentRepository,
	invitationRepo repository.InvitationRepository,
	submissionRepo repository.SubmissionRepository,
	studentRepo repository.StudentRepository,
	publisher integration.NotificationPublisher,
	documentClient integration.DocumentClient,
	logger zerolog.Logger,
) AssignmentService {
	return &assignmentService{
		store:          store,
		assignmentRepo: assignmentRepo,
		invitationRepo: invitationRepo,
		submissionRepo: submissionRepo,
		studentRepo:    studentRepo,
		publisher:      publisher,
		documentClient: documentClient,
		logger:         logger,
	}
}

func (s *assignmentService) Create(ctx context.Context, req *models.CreateAssignmentRequest) (*models.Assignment, error) {
	now := time.Now().UTC()

	supervisor, err := s.studentRepo.GetSupervisorByID(ctx, req.SupervisorID)
	if err != nil {
		return nil, fmt.Errorf("failed to get supervisor: %w", err)
	}
	if supervisor == nil {
		return nil, apperr.New(apperr.KindNotFound, apperr.CodeSupervisorNotFound, "supervisor not found")
	}

	assignmentType := models.AssignmentType(req.Type)
	if assignmentType == models.AssignmentTypeIndividual && req.MaxGroupSize > 0 {
		return nil, apperr.Validation("max_group_size is only valid for group assignments", map[string]string{
			"max_group_size": "not allowed for individual assignments",
		})
	}

	assignment := &models.Assignment{
		ID:           uuid.New().String(),
		Title:        strings.TrimSpace(req.Title),
		Description:  req.Description,
		Instructions: req.Instructions,
		DueDate:      req.DueDate.UTC(),
		IsActive:     true,
		MaxScore:     req.MaxScore,
		Attachments:  []string{},
		Type:         assignmentType,
		MaxGroupSize: req.MaxGroupSize,
		CreatedBy:    req.SupervisorID,
		UpdatedBy:    req.SupervisorID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.assignmentRepo.Create(ctx, assignment); err != nil {
		return nil, fmt.Errorf("failed to create assignment: %w", err)
	}

	s.logger.Info().
		Str("assignment_id", assignment.ID).
		Str("supervisor_id", req.SupervisorID).
		Str("type", string(assignment.Type)).
		Msg("Assignment created")

	return assignment, nil
}

func (s *assignmentService) GetByID(ctx context.Context, id string) (*models.AssignmentWithStats, error) {
	assignment, err := s.assignmentRepo.GetWithStats(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get assignment: %w", err)
	}
	if assignment == nil {
		return nil, apperr.New(apperr.KindNotFound, apperr.CodeAssignmentNotFound, "assignment not found")
	}

	s.deriveStatus(assignment, time.Now().UTC())
	return assignment, nil
}

func (s *assignmentService) ListBySupervisor(ctx context.Context, supervisorID string, page, limit int) (*models.AssignmentsResponse, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	supervisor, err := s.studentRepo.GetSupervisorByID(ctx, supervisorID)
	if err != nil {
		return nil, fmt.Errorf("failed to get supervisor: %w", err)
	}
	if supervisor == nil {
		return nil, apperr.New(apperr.KindNotFound, apperr.CodeSupervisorNotFound, "supervisor not found")
	}

	ownerIDs, err := s.studentRepo.RosterIDs(ctx, supervisorID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve roster: %w", err)
	}

	assignments, total, err := s.assignmentRepo.ListByOwners(ctx, ownerIDs, limit, (page-1)*limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list assignments: %w", err)
	}

	now := time.Now().UTC()
	for i := range assignments {
		s.deriveStatus(&assignments[i], now)
	}

	return &models.AssignmentsResponse{
		Assignments: assignments,
		Total:       total,
		Page:        page,
		Limit:       limit,
	}, nil
}

func (s *assignmentService) Update(ctx context.Context, id string, req *models.UpdateAssignmentRequest) (*models.Assignment, error) {
	now := time.Now().UTC()

	var updated *models.Assignment

	err := s.store.WithinTx(ctx, func(ctx context.Context) error {
		assignment, err := s.assignmentRepo.GetByID(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to get assignment: %w", err)
		}
		if assignment == nil {
			return apperr.New(apperr.KindNotFound, apperr.CodeAssignmentNotFound, "assignment not found")
		}
		if assignment.CreatedBy != req.SupervisorID {
			return apperr.New(apperr.KindPermissionDenied, apperr.CodeAccessDenied, "only the assignment creator may update it")
		}

		assignment.Title = strings.TrimSpace(req.Title)
		assignment.Description = req.Description
		assignment.Instructions = req.Instructions
		assignment.DueDate = req.DueDate.UTC()
		assignment.MaxScore = req.MaxScore
		assignment.MaxGroupSize = req.MaxGroupSize
		assignment.UpdatedBy = req.SupervisorID
		assignment.UpdatedAt = now

		if err := s.assignmentRepo.Update(ctx, assignment); err != nil {
			return fmt.Errorf("failed to update assignment: %w", err)
		}

		updated = assignment
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("assignment_id", id).Msg("Assignment updated")
	return updated, nil
}

func (s *assignmentService) ToggleStatus(ctx context.Context, id string, req *models.ToggleAssignmentStatusRequest) (*models.Assignment, error) {
	now := time.Now().UTC()

	var updated *models.Assignment

	err := s.store.WithinTx(ctx, func(ctx context.Context) error {
		assignment, err := s.assignmentRepo.GetByID(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to get assignment: %w", err)
		}
		if assignment == nil {
			return apperr.New(apperr.KindNotFound, apperr.CodeAssignmentNotFound, "assignment not found")
		}
		if assignment.CreatedBy != req.SupervisorID {
			return apperr.New(apperr.KindPermissionDenied, apperr.CodeAccessDenied, "only the assignment creator may change its status")
		}
		if assignment.IsActive == req.IsActive {
			return apperr.New(apperr.KindConflict, apperr.CodeStatusUnchanged, "assignment already has the requested status")
		}

		if err := s.assignmentRepo.SetActive(ctx, id, req.IsActive, req.SupervisorID, now); err != nil {
			return fmt.Errorf("failed to toggle assignment status: %w", err)
		}

		assignment.IsActive = req.IsActive
		assignment.UpdatedBy = req.SupervisorID
		assignment.UpdatedAt = now
		updated = assignment
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifyStatusChanged(ctx, updated)

	s.logger.Info().
		Str("assignment_id", id).
		Bool("is_active", updated.IsActive).
		Msg("Assignment status toggled")

	return updated, nil
}

func (s *assignmentService) Delete(ctx context.Context, id, supervisorID string) error {
	err := s.store.WithinTx(ctx, func(ctx context.Context) error {
		assignment, err := s.assignmentRepo.GetByID(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to get assignment: %w", err)
		}
		if assignment == nil {
			return apperr.New(apperr.KindNotFound, apperr.CodeAssignmentNotFound, "assignment not found")
		}
		if assignment.CreatedBy != supervisorID {
			return apperr.New(apperr.KindPermissionDenied, apperr.CodeAccessDenied, "only the assignment creator may delete it")
		}

		hasSubmissions, err := s.submissionRepo.ExistsForAssignment(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to check submissions: %w", err)
		}
		if hasSubmissions {
			return apperr.New(apperr.KindDependency, apperr.CodeAssignmentHasSubs, "assignment has submissions and cannot be deleted")
		}

		if err := s.assignmentRepo.Delete(ctx, id); err != nil {
			return fmt.Errorf("failed to delete assignment: %w", err)
		}

		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info().Str("assignment_id", id).Msg("Assignment deleted")
	return nil
}

func (s *assignmentService) AddAttachment(ctx context.Context, id, supervisorID string, fileContent []byte, fileName string) (*models.Assignment, error) {
	now := time.Now().UTC()

	assignment, err := s.assignmentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get assignment: %w", err)
	}
	if assignment == nil {
		return nil, apperr.New(apperr.KindNotFound, apperr.CodeAssignmentNotFound, "assignment not found")
	}
	if assignment.CreatedBy != supervisorID {
		return nil, apperr.New(apperr.KindPermissionDenied, apperr.CodeAccessDenied, "only the assignment creator may attach files")
	}

	upload, err := s.documentClient.Upload(ctx, fileContent, fileName)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.KindInfrastructure, apperr.CodeInternalError, "document upload failed")
	}

	if err := s.assignmentRepo.AppendAttachment(ctx, id, upload.URL, supervisorID, now); err != nil {
		return nil, fmt.Errorf("failed to append attachment: %w", err)
	}

	assignment.Attachments = append(assignment.Attachments, upload.URL)
	assignment.UpdatedBy = supervisorID
	assignment.UpdatedAt = now

	s.logger.Info().
		Str("assignment_id", id).
		Str("file_name", fileName).
		Int64("size", upload.Size).
		Msg("Attachment uploaded")

	return assignment, nil
}

func (s *assignmentService) deriveStatus(a *models.AssignmentWithStats, now time.Time) {
	a.Status = lifecycle.Derive(lifecycle.Snapshot{
		IsActive:       a.IsActive,
		DueDate:        a.DueDate,
		InvitedCount:   a.InvitedCount,
		SubmittedCount: a.SubmittedCount,
	}, now)

	if a.Status == lifecycle.StatusUnknown {
		s.logger.Error().
			Str("assignment_id", a.ID).
			Bool("is_active", a.IsActive).
			Int("invited", a.InvitedCount).
			Int("submitted", a.SubmittedCount).
			Msg("Assignment fell through every lifecycle rule")
	}
}

// notifyStatusChanged fans out a status-change event to every invited student.
// The change is already committed; a failed publish is logged and dropped.
func (s *assignmentService) notifyStatusChanged(ctx context.Context, assignment *models.Assignment) {
	invitations, err := s.invitationRepo.ListByAssignment(ctx, assignment.ID)
	if err != nil {
		s.logger.Error().Err(err).
			Str("assignment_id", assignment.ID).
			Msg("Failed to list invitations for status notification")
		return
	}
	if len(invitations) == 0 {
		return
	}

	studentIDs := make([]string, 0, len(invitations))
	for _, inv := range invitations {
		studentIDs = append(studentIDs, inv.StudentID)
	}

	students, err := s.studentRepo.GetByIDs(ctx, studentIDs)
	if err != nil {
		s.logger.Error().Err(err).
			Str("assignment_id", assignment.ID).
			Msg("Failed to resolve students for status notification")
		return
	}

	isActive := assignment.IsActive
	dueDate := assignment.DueDate

	for _, student := range students {
		event := &models.NotificationEvent{
			Type:            models.NotificationStatusChanged,
			StudentID:       student.ID,
			StudentName:     student.Name,
			StudentEmail:    student.Email,
			AssignmentID:    assignment.ID,
			AssignmentTitle: assignment.Title,
			SupervisorID:    assignment.CreatedBy,
			DueDate:         &dueDate,
			IsActive:        &isActive,
			Timestamp:       time.Now().Unix(),
		}
		if err := s.publisher.PublishNotification(ctx, event); err != nil {
			s.logger.Error().Err(err).
				Str("assignment_id", assignment.ID).
				Str("student_id", student.ID).
				Msg("Failed to publish status change notification")
		}
	}
}
