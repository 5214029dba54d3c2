package service

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusflow/assignment-service/internal/apperr"
	"github.com/campusflow/assignment-service/internal/models"
)

type gradingFixture struct {
	svc            GradingService
	assignmentRepo *fakeAssignmentRepo
	submissionRepo *fakeSubmissionRepo
	studentRepo    *fakeStudentRepo
	groupRepo      *fakeGroupRepo
	publisher      *fakePublisher
}

func newGradingFixture() *gradingFixture {
	f := &gradingFixture{
		assignmentRepo: newFakeAssignmentRepo(),
		submissionRepo: newFakeSubmissionRepo(),
		studentRepo:    newFakeStudentRepo(),
		groupRepo:      newFakeGroupRepo(),
		publisher:      &fakePublisher{},
	}
	f.svc = NewGradingService(
		&fakeStore{},
		f.submissionRepo,
		f.assignmentRepo,
		f.studentRepo,
		f.groupRepo,
		f.publisher,
		zerolog.Nop(),
	)

	f.studentRepo.students["stu-1"] = models.Student{ID: "stu-1", Name: "Ada", Email: "ada@uni.edu", IsActive: true}
	f.assignmentRepo.assignments["asg-1"] = &models.Assignment{
		ID:        "asg-1",
		Title:     "Thesis draft",
		DueDate:   time.Now().Add(72 * time.Hour),
		IsActive:  true,
		MaxScore:  100,
		Type:      models.AssignmentTypeIndividual,
		CreatedBy: "sup-1",
	}

	studentID := "stu-1"
	f.submissionRepo.submissions["sub-1"] = &models.Submission{
		ID:           "sub-1",
		AssignmentID: "asg-1",
		StudentID:    &studentID,
		Status:       models.SubmissionStatusPending,
		SubmittedAt:  time.Now().Add(-time.Hour),
		Version:      0,
	}
	return f
}

func TestGradeSubmission(t *testing.T) {
	f := newGradingFixture()

	sub, err := f.svc.Grade(context.Background(), &models.GradeSubmissionRequest{
		SubmissionID: "sub-1",
		SupervisorID: "sup-1",
		Score:        85,
		Feedback:     "solid work",
		Status:       "approved",
		Version:      0,
	})

	require.NoError(t, err)
	require.NotNil(t, sub.Score)
	assert.Equal(t, 85, *sub.Score)
	assert.Equal(t, "solid work", sub.Feedback)
	assert.Equal(t, models.SubmissionStatusApproved, sub.Status)
	assert.NotNil(t, sub.GradedAt)
	assert.Equal(t, 1, sub.Version)

	require.Len(t, f.publisher.events, 1)
	assert.Equal(t, models.NotificationSubmissionGraded, f.publisher.events[0].Type)
	assert.Equal(t, "stu-1", f.publisher.events[0].StudentID)
}

func TestGradeScoreBoundaries(t *testing.T) {
	cases := []struct {
		name    string
		score   int
		wantErr bool
	}{
		{"negative", -1, true},
		{"zero", 0, false},
		{"max", 100, false},
		{"above max", 101, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newGradingFixture()

			_, err := f.svc.Grade(context.Background(), &models.GradeSubmissionRequest{
				SubmissionID: "sub-1",
				SupervisorID: "sup-1",
				Score:        tc.score,
				Status:       "approved",
				Version:      0,
			})

			if tc.wantErr {
				appErr, ok := apperr.From(err)
				require.True(t, ok)
				assert.Equal(t, apperr.CodeInvalidScore, appErr.Code)
				// Rejected, never clamped.
				assert.Nil(t, f.submissionRepo.submissions["sub-1"].Score)
			} else {
				require.NoError(t, err)
				require.NotNil(t, f.submissionRepo.submissions["sub-1"].Score)
				assert.Equal(t, tc.score, *f.submissionRepo.submissions["sub-1"].Score)
			}
		})
	}
}

func TestGradeStaleVersion(t *testing.T) {
	f := newGradingFixture()

	_, err := f.svc.Grade(context.Background(), &models.GradeSubmissionRequest{
		SubmissionID: "sub-1",
		SupervisorID: "sup-1",
		Score:        70,
		Status:       "changes_required",
		Version:      0,
	})
	require.NoError(t, err)

	// A second grader still holding version 0 must get a conflict, not a
	// silent overwrite.
	_, err = f.svc.Grade(context.Background(), &models.GradeSubmissionRequest{
		SubmissionID: "sub-1",
		SupervisorID: "sup-1",
		Score:        95,
		Status:       "approved",
		Version:      0,
	})

	appErr, ok := apperr.From(err)
	require.True(t, ok)
	assert.Equal(t, apperr.CodeConflict, appErr.Code)
	assert.Equal(t, 70, *f.submissionRepo.submissions["sub-1"].Score)
}

func TestGradeNotCreator(t *testing.T) {
	f := newGradingFixture()

	_, err := f.svc.Grade(context.Background(), &models.GradeSubmissionRequest{
		SubmissionID: "sub-1",
		SupervisorID: "sup-2",
		Score:        50,
		Status:       "approved",
		Version:      0,
	})

	appErr, ok := apperr.From(err)
	require.True(t, ok)
	assert.Equal(t, apperr.CodeAccessDenied, appErr.Code)
}

func TestGradeSubmissionNotFound(t *testing.T) {
	f := newGradingFixture()

	_, err := f.svc.Grade(context.Background(), &models.GradeSubmissionRequest{
		SubmissionID: "missing",
		SupervisorID: "sup-1",
		Score:        50,
		Status:       "approved",
	})

	appErr, ok := apperr.From(err)
	require.True(t, ok)
	assert.Equal(t, apperr.CodeSubmissionNotFound, appErr.Code)
}

func TestGradeGroupSubmissionNotifiesAllMembers(t *testing.T) {
	f := newGradingFixture()
	f.studentRepo.students["stu-2"] = models.Student{ID: "stu-2", Name: "Lin", Email: "lin@uni.edu", IsActive: true}

	groupID := "grp-1"
	f.groupRepo.groups[groupID] = &models.Group{ID: groupID, AssignmentID: "asg-1", Name: "Team A"}
	require.NoError(t, f.groupRepo.InsertMembers(context.Background(), groupID, []string{"stu-1", "stu-2"}, time.Now()))

	f.submissionRepo.submissions["sub-2"] = &models.Submission{
		ID:           "sub-2",
		AssignmentID: "asg-1",
		GroupID:      &groupID,
		Status:       models.SubmissionStatusPending,
	}

	_, err := f.svc.Grade(context.Background(), &models.GradeSubmissionRequest{
		SubmissionID: "sub-2",
		SupervisorID: "sup-1",
		Score:        90,
		Status:       "approved",
		Version:      0,
	})

	require.NoError(t, err)
	assert.Len(t, f.publisher.events, 2)
}
