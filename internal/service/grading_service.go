package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/campusflow/assignment-service/internal/apperr"
	"github.com/campusflow/assignment-service/internal/models"
	"github.com/campusflow/assignment-service/internal/repository"
	"github.com/campusflow/assignment-service/internal/service/integration"
)

type GradingService interface {
	Grade(ctx context.Context, req *models.GradeSubmissionRequest) (*models.Submission, error)
	GetSubmission(ctx context.Context, id string) (*models.Submission, error)
}

type gradingService struct {
	store          repository.Store
	submissionRepo repository.SubmissionRepository
	assignmentRepo repository.AssignmentRepository
	studentRepo    repository.StudentRepository
	groupRepo      repository.GroupRepository
	publisher      integration.NotificationPublisher
	logger         zerolog.Logger
}

func NewGradingService(
	store repository.Store,
	submissionRepo repository.SubmissionRepository,
	assignmentRepo repository.AssignmentRepository,
	studentRepo repository.StudentRepository,
	groupRepo repository.GroupRepository,
	publisher integration.NotificationPublisher,
	logger zerolog.Logger,
) GradingService {
	return &gradingService{
		store:          store,
		submissionRepo: submissionRepo,
		assignmentRepo: assignmentRepo,
		studentRepo:    studentRepo,
		groupRepo:      groupRepo,
		publisher:      publisher,
		logger:         logger,
	}
}

func (s *gradingService) Grade(ctx context.Context, req *models.GradeSubmissionRequest) (*models.Submission, error) {
	now := time.Now().UTC()
	feedback := strings.TrimSpace(req.Feedback)

	var (
		submission *models.Submission
		assignment *models.Assignment
	)

	err := s.store.WithinTx(ctx, func(ctx context.Context) error {
		var err error

		submission, err = s.submissionRepo.GetByID(ctx, req.SubmissionID)
		if err != nil {
			return fmt.Errorf("failed to get submission: %w", err)
		}
		if submission == nil {
			return apperr.New(apperr.KindNotFound, apperr.CodeSubmissionNotFound, "submission not found")
		}

		assignment, err = s.assignmentRepo.GetByID(ctx, submission.AssignmentID)
		if err != nil {
			return fmt.Errorf("failed to get assignment: %w", err)
		}
		if assignment == nil {
			return fmt.Errorf("submission %s references missing assignment %s", submission.ID, submission.AssignmentID)
		}

		if assignment.CreatedBy != req.SupervisorID {
			return apperr.New(apperr.KindPermissionDenied, apperr.CodeAccessDenied, "only the assignment creator may grade submissions")
		}

		// Out-of-range scores are rejected, never clamped.
		if req.Score < 0 || req.Score > assignment.MaxScore {
			return apperr.New(apperr.KindValidation, apperr.CodeInvalidScore,
				fmt.Sprintf("score must be between 0 and %d", assignment.MaxScore)).
				WithFields(map[string]string{"score": fmt.Sprintf("must be between 0 and %d", assignment.MaxScore)})
		}

		ok, err := s.submissionRepo.UpdateGrade(ctx, submission.ID, req.Score, feedback,
			models.SubmissionStatus(req.Status), now, req.Version)
		if err != nil {
			return fmt.Errorf("failed to update grade: %w", err)
		}
		if !ok {
			// Somebody graded this submission between the caller's read and
			// this write; last-write-wins is not acceptable here.
			return apperr.New(apperr.KindConflict, apperr.CodeConflict, "submission was graded by someone else, reload and retry")
		}

		submission, err = s.submissionRepo.GetByID(ctx, submission.ID)
		if err != nil {
			return fmt.Errorf("failed to reload submission: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifyGraded(ctx, assignment, submission, now)

	s.logger.Info().
		Str("submission_id", submission.ID).
		Str("assignment_id", assignment.ID).
		Int("score", req.Score).
		Str("status", req.Status).
		Msg("Submission graded")

	return submission, nil
}

func (s *gradingService) GetSubmission(ctx context.Context, id string) (*models.Submission, error) {
	submission, err := s.submissionRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}
	if submission == nil {
		return nil, apperr.New(apperr.KindNotFound, apperr.CodeSubmissionNotFound, "submission not found")
	}
	return submission, nil
}

// notifyGraded publishes one grade notification per affected student after
// the grade has been committed. Group submissions fan out to every member.
func (s *gradingService) notifyGraded(ctx context.Context, assignment *models.Assignment, submission *models.Submission, now time.Time) {
	var studentIDs []string

	switch {
	case submission.StudentID != nil:
		studentIDs = []string{*submission.StudentID}
	case submission.GroupID != nil:
		members, err := s.groupRepo.ListMembers(ctx, *submission.GroupID)
		if err != nil {
			s.logger.Error().Err(err).Str("group_id", *submission.GroupID).Msg("Failed to list group members for grade notification")
			return
		}
		for _, m := range members {
			studentIDs = append(studentIDs, m.StudentID)
		}
	}

	if len(studentIDs) == 0 {
		return
	}

	students, err := s.studentRepo.GetByIDs(ctx, studentIDs)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to resolve students for grade notification")
		return
	}

	for _, st := range students {
		event := &models.NotificationEvent{
			Type:            models.NotificationSubmissionGraded,
			StudentID:       st.ID,
			StudentName:     st.Name,
			StudentEmail:    st.Email,
			AssignmentID:    assignment.ID,
			AssignmentTitle: assignment.Title,
			SupervisorID:    assignment.CreatedBy,
			Score:           submission.Score,
			Feedback:        submission.Feedback,
			GradeStatus:     string(submission.Status),
			Timestamp:       now.Unix(),
		}
		if err := s.publisher.PublishNotification(ctx, event); err != nil {
			s.logger.Error().Err(err).
				Str("student_id", st.ID).
				Str("submission_id", submission.ID).
				Msg("Failed to publish grade notification")
		}
	}
}
