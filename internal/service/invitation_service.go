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
	"github.com/campusflow/assignment-service/internal/service/integration"
)

type InvitationService interface {
	Invite(ctx context.Context, req *models.InviteStudentsRequest) (*models.InviteStudentsResponse, error)
	Uninvite(ctx context.Context, req *models.UninviteStudentsRequest) (*models.UninviteStudentsResponse, error)
}

type invitationService struct {
	store          repository.Store
	invitationRepo repository.InvitationRepository
	assignmentRepo repository.AssignmentRepository
	studentRepo    repository.StudentRepository
	submissionRepo repository.SubmissionRepository
	publisher      integration.NotificationPublisher
	logger         zerolog.Logger
}

func NewInvitationService(
	store repository.Store,
	invitationRepo repository.InvitationRepository,
	assignmentRepo repository.AssignmentRepository,
	studentRepo repository.StudentRepository,
	submissionRepo repository.SubmissionRepository,
	publisher integration.NotificationPublisher,
	logger zerolog.Logger,
) InvitationService {
	return &invitationService{
		store:          store,
		invitationRepo: invitationRepo,
		assignmentRepo: assignmentRepo,
		studentRepo:    studentRepo,
		submissionRepo: submissionRepo,
		publisher:      publisher,
		logger:         logger,
	}
}

func (s *invitationService) Invite(ctx context.Context, req *models.InviteStudentsRequest) (*models.InviteStudentsResponse, error) {
	now := time.Now().UTC()

	var (
		assignment *models.Assignment
		supervisor *models.Supervisor
		students   []models.Student
		warnings   []string
	)

	err := s.store.WithinTx(ctx, func(ctx context.Context) error {
		var err error

		assignment, err = s.assignmentRepo.GetByID(ctx, req.AssignmentID)
		if err != nil {
			return fmt.Errorf("failed to get assignment: %w", err)
		}
		if assignment == nil {
			return apperr.New(apperr.KindNotFound, apperr.CodeAssignmentNotFound, "assignment not found")
		}

		supervisor, err = s.studentRepo.GetSupervisorByID(ctx, req.SupervisorID)
		if err != nil {
			return fmt.Errorf("failed to get supervisor: %w", err)
		}
		if supervisor == nil {
			return apperr.New(apperr.KindNotFound, apperr.CodeSupervisorNotFound, "supervisor not found")
		}

		if assignment.CreatedBy != req.SupervisorID {
			return apperr.New(apperr.KindPermissionDenied, apperr.CodeAccessDenied, "only the assignment creator may invite students")
		}

		if !assignment.IsActive {
			return apperr.New(apperr.KindConflict, apperr.CodeAssignmentInactive, "assignment is not active")
		}

		students, err = s.studentRepo.GetByIDs(ctx, req.StudentIDs)
		if err != nil {
			return fmt.Errorf("failed to resolve students: %w", err)
		}

		// Every target must exist and belong to the supervisor's department.
		// Inactive students pass with a warning rather than a rejection.
		byID := make(map[string]models.Student, len(students))
		for _, st := range students {
			byID[st.ID] = st
		}

		invalid := make(map[string]string)
		for _, id := range req.StudentIDs {
			st, ok := byID[id]
			if !ok {
				invalid[id] = "student not found"
				continue
			}
			if st.DepartmentID != supervisor.DepartmentID {
				invalid[id] = "student belongs to a different department"
				continue
			}
			if !st.IsActive {
				warnings = append(warnings, fmt.Sprintf("student %s is inactive", id))
			}
		}
		if len(invalid) > 0 {
			return apperr.New(apperr.KindValidation, apperr.CodeInvalidStudents, "some students cannot be invited").
				WithFields(invalid)
		}

		existing, err := s.invitationRepo.ListByAssignmentAndStudents(ctx, req.AssignmentID, req.StudentIDs)
		if err != nil {
			return fmt.Errorf("failed to check existing invitations: %w", err)
		}
		if len(existing) > 0 {
			dup := make(map[string]string, len(existing))
			for _, inv := range existing {
				dup[inv.StudentID] = "already invited"
			}
			return apperr.New(apperr.KindConflict, apperr.CodeAlreadyInvited, "some students are already invited").
				WithFields(dup)
		}

		// Inserts run sequentially, not concurrently, so two rows for the
		// same student can never interleave past the uniqueness check. Any
		// failure aborts the whole batch.
		for _, id := range req.StudentIDs {
			inv := &models.Invitation{
				ID:            uuid.New().String(),
				AssignmentID:  req.AssignmentID,
				StudentID:     id,
				Status:        models.InvitationStatusPending,
				CustomMessage: strings.TrimSpace(req.CustomMessage),
				InvitedAt:     now,
			}
			if err := s.invitationRepo.Create(ctx, inv); err != nil {
				if err == repository.ErrDuplicateInvitation {
					return apperr.Wrap(err, apperr.KindConflict, apperr.CodeAlreadyInvited, "invitation already exists")
				}
				return fmt.Errorf("failed to create invitation: %w", err)
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	// Notifications go out only after the batch is committed. A publish
	// failure is tallied, never surfaced as an error.
	resp := &models.InviteStudentsResponse{
		Invited:  req.StudentIDs,
		Warnings: warnings,
	}
	for _, st := range students {
		event := &models.NotificationEvent{
			Type:            models.NotificationInvitationSent,
			StudentID:       st.ID,
			StudentName:     st.Name,
			StudentEmail:    st.Email,
			AssignmentID:    assignment.ID,
			AssignmentTitle: assignment.Title,
			SupervisorID:    supervisor.ID,
			SupervisorName:  supervisor.Name,
			DueDate:         &assignment.DueDate,
			CustomMessage:   strings.TrimSpace(req.CustomMessage),
			Timestamp:       now.Unix(),
		}
		if err := s.publisher.PublishNotification(ctx, event); err != nil {
			s.logger.Error().Err(err).
				Str("student_id", st.ID).
				Str("assignment_id", assignment.ID).
				Msg("Failed to publish invitation notification")
			resp.EmailsFailed++
			continue
		}
		resp.EmailsSent++
	}

	s.logger.Info().
		Str("assignment_id", assignment.ID).
		Int("invited", len(req.StudentIDs)).
		Int("emails_sent", resp.EmailsSent).
		Int("emails_failed", resp.EmailsFailed).
		Msg("Students invited")

	return resp, nil
}

func (s *invitationService) Uninvite(ctx context.Context, req *models.UninviteStudentsRequest) (*models.UninviteStudentsResponse, error) {
	now := time.Now().UTC()
	resp := &models.UninviteStudentsResponse{}

	err := s.store.WithinTx(ctx, func(ctx context.Context) error {
		assignment, err := s.assignmentRepo.GetByID(ctx, req.AssignmentID)
		if err != nil {
			return fmt.Errorf("failed to get assignment: %w", err)
		}
		if assignment == nil {
			return apperr.New(apperr.KindNotFound, apperr.CodeAssignmentNotFound, "assignment not found")
		}
		if assignment.CreatedBy != req.SupervisorID {
			return apperr.New(apperr.KindPermissionDenied, apperr.CodeAccessDenied, "only the assignment creator may remove invitations")
		}

		invitations, err := s.invitationRepo.ListByAssignmentAndStudents(ctx, req.AssignmentID, req.StudentIDs)
		if err != nil {
			return fmt.Errorf("failed to list invitations: %w", err)
		}
		if len(invitations) == 0 {
			return apperr.New(apperr.KindNotFound, apperr.CodeNoInvitationsFound, "none of the students are invited")
		}

		invited := make([]string, 0, len(invitations))
		for _, inv := range invitations {
			invited = append(invited, inv.StudentID)
		}

		// Removal must never orphan a submission, graded or pending.
		submitters, err := s.submissionRepo.StudentsWithSubmissions(ctx, req.AssignmentID, invited)
		if err != nil {
			return fmt.Errorf("failed to check submissions: %w", err)
		}
		if len(submitters) > 0 {
			fields := make(map[string]string, len(submitters))
			for _, id := range submitters {
				fields[id] = "student has a submission"
			}
			return apperr.New(apperr.KindDependency, apperr.CodeStudentsHaveSubmissions, "students with submissions cannot be uninvited").
				WithFields(fields)
		}

		// The removal notice goes out while the invitation still exists;
		// only then are the rows deleted.
		students, err := s.studentRepo.GetByIDs(ctx, invited)
		if err != nil {
			return fmt.Errorf("failed to resolve students: %w", err)
		}
		for _, st := range students {
			event := &models.NotificationEvent{
				Type:            models.NotificationInvitationRevoked,
				StudentID:       st.ID,
				StudentName:     st.Name,
				StudentEmail:    st.Email,
				AssignmentID:    assignment.ID,
				AssignmentTitle: assignment.Title,
				SupervisorID:    req.SupervisorID,
				Reason:          strings.TrimSpace(req.Reason),
				Timestamp:       now.Unix(),
			}
			if err := s.publisher.PublishNotification(ctx, event); err != nil {
				s.logger.Error().Err(err).
					Str("student_id", st.ID).
					Str("assignment_id", assignment.ID).
					Msg("Failed to publish removal notification")
				resp.EmailsFailed++
				continue
			}
			resp.EmailsSent++
		}

		removed, err := s.invitationRepo.DeleteByAssignmentAndStudents(ctx, req.AssignmentID, invited)
		if err != nil {
			return fmt.Errorf("failed to delete invitations: %w", err)
		}
		resp.Removed = int(removed)

		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("assignment_id", req.AssignmentID).
		Int("removed", resp.Removed).
		Msg("Students uninvited")

	return resp, nil
}
