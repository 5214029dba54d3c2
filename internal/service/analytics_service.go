package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/campusflow/assignment-service/internal/apperr"
	"github.com/campusflow/assignment-service/internal/lifecycle"
	"github.com/campusflow/assignment-service/internal/models"
	"github.com/campusflow/assignment-service/internal/repository"
)

type AnalyticsService interface {
	Overview(ctx context.Context, supervisorID string) (*models.AnalyticsOverview, error)
}

type analyticsService struct {
	analyticsRepo repository.AnalyticsRepository
	studentRepo   repository.StudentRepository
	logger        zerolog.Logger
}

func NewAnalyticsService(
	analyticsRepo repository.AnalyticsRepository,
	studentRepo repository.StudentRepository,
	logger zerolog.Logger,
) AnalyticsService {
	return &analyticsService{
		analyticsRepo: analyticsRepo,
		studentRepo:   studentRepo,
		logger:        logger,
	}
}

func (s *analyticsService) Overview(ctx context.Context, supervisorID string) (*models.AnalyticsOverview, error) {
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

	now := time.Now().UTC()

	current, err := s.metricsAsOf(ctx, ownerIDs, now)
	if err != nil {
		return nil, err
	}

	// Previous period is the same computation replayed against last month's
	// cutoff. is_active has no history, so the current flag stands in for it.
	previous, err := s.metricsAsOf(ctx, ownerIDs, now.AddDate(0, -1, 0))
	if err != nil {
		return nil, err
	}

	return &models.AnalyticsOverview{
		SupervisorID: supervisorID,
		Current:      *current,
		Previous:     *previous,
		Change:       computeChange(current, previous),
	}, nil
}

func (s *analyticsService) metricsAsOf(ctx context.Context, ownerIDs []string, asOf time.Time) (*models.OverviewMetrics, error) {
	metrics := &models.OverviewMetrics{}

	snapshots, err := s.analyticsRepo.AssignmentSnapshots(ctx, ownerIDs, asOf)
	if err != nil {
		return nil, fmt.Errorf("failed to load assignment snapshots: %w", err)
	}

	metrics.TotalAssignments = len(snapshots)
	for _, snap := range snapshots {
		status := lifecycle.Derive(lifecycle.Snapshot{
			IsActive:       snap.IsActive,
			DueDate:        snap.DueDate,
			InvitedCount:   snap.InvitedCount,
			SubmittedCount: snap.SubmittedCount,
		}, asOf)

		switch status {
		case lifecycle.StatusActive:
			metrics.ActiveAssignments++
		case lifecycle.StatusInactive:
			metrics.InactiveAssignments++
		case lifecycle.StatusCompleted:
			metrics.CompletedAssignments++
		case lifecycle.StatusOverdue:
			metrics.OverdueAssignments++
		default:
			s.logger.Error().
				Str("assignment_id", snap.ID).
				Time("as_of", asOf).
				Msg("Assignment fell through every lifecycle rule")
		}
	}

	totalSubmissions, avgScore, err := s.analyticsRepo.SubmissionStats(ctx, ownerIDs, asOf)
	if err != nil {
		return nil, fmt.Errorf("failed to load submission stats: %w", err)
	}
	metrics.TotalSubmissions = totalSubmissions
	metrics.AverageScore = avgScore

	invited, err := s.analyticsRepo.DistinctInvitedStudents(ctx, ownerIDs, asOf)
	if err != nil {
		return nil, fmt.Errorf("failed to count invited students: %w", err)
	}
	metrics.StudentsInvited = invited

	return metrics, nil
}

func computeChange(current, previous *models.OverviewMetrics) models.OverviewChange {
	return models.OverviewChange{
		TotalAssignments:     pctChange(float64(current.TotalAssignments), float64(previous.TotalAssignments)),
		ActiveAssignments:    pctChange(float64(current.ActiveAssignments), float64(previous.ActiveAssignments)),
		InactiveAssignments:  pctChange(float64(current.InactiveAssignments), float64(previous.InactiveAssignments)),
		CompletedAssignments: pctChange(float64(current.CompletedAssignments), float64(previous.CompletedAssignments)),
		OverdueAssignments:   pctChange(float64(current.OverdueAssignments), float64(previous.OverdueAssignments)),
		TotalSubmissions:     pctChange(float64(current.TotalSubmissions), float64(previous.TotalSubmissions)),
		AverageScore:         pctChange(current.AverageScore, previous.AverageScore),
		StudentsInvited:      pctChange(float64(current.StudentsInvited), float64(previous.StudentsInvited)),
	}
}

// pctChange reports a rounded month-over-month percentage; a fresh metric
// that appeared this month counts as +100%.
func pctChange(current, previous float64) int {
	if previous == 0 {
		if current > 0 {
			return 100
		}
		return 0
	}
	return int(math.Round((current - previous) / previous * 100))
}
