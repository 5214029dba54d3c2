package httpd

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusflow/assignment-service/internal/apperr"
	"github.com/campusflow/assignment-service/internal/models"
)

const (
	testAssignmentID = "6b1f5a52-7b15-4f68-9f0a-0a2b4c5d6e7f"
	testSupervisorID = "0f9a8b7c-6d5e-4f3a-8b2c-1d0e9f8a7b6c"
	testStudentID    = "1a2b3c4d-5e6f-4a8b-9c0d-1e2f3a4b5c6d"
	testSubmissionID = "2b3c4d5e-6f7a-4b8c-9d0e-1f2a3b4c5d6e"
	testGroupID      = "3c4d5e6f-7a8b-4c9d-8e0f-2a3b4c5d6e7f"
)

type stubAssignmentService struct {
	assignment *models.Assignment
	withStats  *models.AssignmentWithStats
	list       *models.AssignmentsResponse
	err        error
}

func (s *stubAssignmentService) Create(context.Context, *models.CreateAssignmentRequest) (*models.Assignment, error) {
	return s.assignment, s.err
}
func (s *stubAssignmentService) GetByID(context.Context, string) (*models.AssignmentWithStats, error) {
	return s.withStats, s.err
}
func (s *stubAssignmentService) ListBySupervisor(context.Context, string, int, int) (*models.AssignmentsResponse, error) {
	return s.list, s.err
}
func (s *stubAssignmentService) Update(context.Context, string, *models.UpdateAssignmentRequest) (*models.Assignment, error) {
	return s.assignment, s.err
}
func (s *stubAssignmentService) ToggleStatus(context.Context, string, *models.ToggleAssignmentStatusRequest) (*models.Assignment, error) {
	return s.assignment, s.err
}
func (s *stubAssignmentService) Delete(context.Context, string, string) error { return s.err }
func (s *stubAssignmentService) AddAttachment(context.Context, string, string, []byte, string) (*models.Assignment, error) {
	return s.assignment, s.err
}

type stubInvitationService struct {
	inviteResp   *models.InviteStudentsResponse
	uninviteResp *models.UninviteStudentsResponse
	err          error
}

func (s *stubInvitationService) Invite(context.Context, *models.InviteStudentsRequest) (*models.InviteStudentsResponse, error) {
	return s.inviteResp, s.err
}
func (s *stubInvitationService) Uninvite(context.Context, *models.UninviteStudentsRequest) (*models.UninviteStudentsResponse, error) {
	return s.uninviteResp, s.err
}

type stubGradingService struct {
	submission *models.Submission
	err        error
}

func (s *stubGradingService) Grade(context.Context, *models.GradeSubmissionRequest) (*models.Submission, error) {
	return s.submission, s.err
}
func (s *stubGradingService) GetSubmission(context.Context, string) (*models.Submission, error) {
	return s.submission, s.err
}

type stubGroupService struct {
	group *models.GroupWithMembers
	err   error
}

func (s *stubGroupService) Create(context.Context, *models.CreateGroupRequest) (*models.GroupWithMembers, error) {
	return s.group, s.err
}
func (s *stubGroupService) Update(context.Context, *models.UpdateGroupRequest) (*models.GroupWithMembers, error) {
	return s.group, s.err
}
func (s *stubGroupService) Delete(context.Context, string, string) error { return s.err }

type stubAnalyticsService struct {
	overview *models.AnalyticsOverview
	err      error
}

func (s *stubAnalyticsService) Overview(context.Context, string) (*models.AnalyticsOverview, error) {
	return s.overview, s.err
}

type stubs struct {
	assignments *stubAssignmentService
	invitations *stubInvitationService
	grading     *stubGradingService
	groups      *stubGroupService
	analytics   *stubAnalyticsService
}

func newTestRouter(s stubs) chi.Router {
	if s.assignments == nil {
		s.assignments = &stubAssignmentService{}
	}
	if s.invitations == nil {
		s.invitations = &stubInvitationService{}
	}
	if s.grading == nil {
		s.grading = &stubGradingService{}
	}
	if s.groups == nil {
		s.groups = &stubGroupService{}
	}
	if s.analytics == nil {
		s.analytics = &stubAnalyticsService{}
	}

	h := NewHandler(s.assignments, s.invitations, s.grading, s.groups, s.analytics, zerolog.Nop())
	router := chi.NewRouter()
	h.RegisterRoutes(router)
	return router
}

func doRequest(t *testing.T, router chi.Router, method, path string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return rec, env
}

func TestHealthCheck(t *testing.T) {
	router := newTestRouter(stubs{})

	rec, env := doRequest(t, router, http.MethodGet, "/health", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)
	assert.Equal(t, "healthy", env.Message)
}

func TestCreateAssignmentValidation(t *testing.T) {
	router := newTestRouter(stubs{})

	rec, env := doRequest(t, router, http.MethodPost, "/api/v1/assignments", map[string]interface{}{
		"title": "x", // too short, and required fields missing
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, env.Success)
	assert.Equal(t, apperr.CodeValidationError, env.Error)
	assert.NotEmpty(t, env.Errors)
}

func TestGetAssignmentNotFound(t *testing.T) {
	router := newTestRouter(stubs{
		assignments: &stubAssignmentService{
			err: apperr.New(apperr.KindNotFound, apperr.CodeAssignmentNotFound, "assignment not found"),
		},
	})

	rec, env := doRequest(t, router, http.MethodGet, "/api/v1/assignments/"+testAssignmentID, nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.False(t, env.Success)
	assert.Equal(t, apperr.CodeAssignmentNotFound, env.Error)
}

func TestGetAssignmentBadID(t *testing.T) {
	router := newTestRouter(stubs{})

	rec, env := doRequest(t, router, http.MethodGet, "/api/v1/assignments/not-a-uuid", nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, apperr.CodeValidationError, env.Error)
}

func TestListAssignmentsRequiresSupervisor(t *testing.T) {
	router := newTestRouter(stubs{})

	rec, _ := doRequest(t, router, http.MethodGet, "/api/v1/assignments", nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestInviteStudentsConflictCarriesFields(t *testing.T) {
	router := newTestRouter(stubs{
		invitations: &stubInvitationService{
			err: apperr.New(apperr.KindConflict, apperr.CodeAlreadyInvited, "some students are already invited").
				WithFields(map[string]string{testStudentID: "already invited"}),
		},
	})

	rec, env := doRequest(t, router, http.MethodPost,
		"/api/v1/assignments/"+testAssignmentID+"/invitations",
		map[string]interface{}{
			"supervisor_id": testSupervisorID,
			"student_ids":   []string{testStudentID},
		})

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, apperr.CodeAlreadyInvited, env.Error)
	assert.Contains(t, env.Errors, testStudentID)
}

func TestInviteStudentsEmptyBatchRejected(t *testing.T) {
	router := newTestRouter(stubs{})

	rec, _ := doRequest(t, router, http.MethodPost,
		"/api/v1/assignments/"+testAssignmentID+"/invitations",
		map[string]interface{}{
			"supervisor_id": testSupervisorID,
			"student_ids":   []string{},
		})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGradeSubmissionConflict(t *testing.T) {
	router := newTestRouter(stubs{
		grading: &stubGradingService{
			err: apperr.New(apperr.KindConflict, apperr.CodeConflict, "submission was graded by someone else, reload and retry"),
		},
	})

	rec, env := doRequest(t, router, http.MethodPut,
		"/api/v1/submissions/"+testSubmissionID+"/grade",
		map[string]interface{}{
			"supervisor_id": testSupervisorID,
			"score":         85,
			"status":        "approved",
			"version":       0,
		})

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, apperr.CodeConflict, env.Error)
}

func TestGradeSubmissionRejectsBadStatus(t *testing.T) {
	router := newTestRouter(stubs{})

	rec, env := doRequest(t, router, http.MethodPut,
		"/api/v1/submissions/"+testSubmissionID+"/grade",
		map[string]interface{}{
			"supervisor_id": testSupervisorID,
			"score":         85,
			"status":        "maybe",
		})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, env.Errors, "Status")
}

func TestCreateGroupPermissionDenied(t *testing.T) {
	router := newTestRouter(stubs{
		groups: &stubGroupService{
			err: apperr.New(apperr.KindPermissionDenied, apperr.CodeAccessDenied, "only the assignment creator may manage groups"),
		},
	})

	rec, env := doRequest(t, router, http.MethodPost, "/api/v1/groups",
		map[string]interface{}{
			"assignment_id": testAssignmentID,
			"group_name":    "Team Alpha",
			"members":       []string{testStudentID, testSupervisorID},
			"supervisor_id": testSupervisorID,
		})

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, apperr.CodeAccessDenied, env.Error)
}

func TestUpdateGroupRequiresSomeChange(t *testing.T) {
	router := newTestRouter(stubs{})

	rec, _ := doRequest(t, router, http.MethodPut, "/api/v1/groups/"+testGroupID,
		map[string]interface{}{
			"supervisor_id": testSupervisorID,
		})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAnalyticsOverview(t *testing.T) {
	router := newTestRouter(stubs{
		analytics: &stubAnalyticsService{
			overview: &models.AnalyticsOverview{
				SupervisorID: testSupervisorID,
				Current:      models.OverviewMetrics{TotalAssignments: 3},
			},
		},
	})

	rec, env := doRequest(t, router, http.MethodGet,
		"/api/v1/analytics/overview?supervisor_id="+testSupervisorID, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)

	payload, err := json.Marshal(env.Data)
	require.NoError(t, err)
	var overview models.AnalyticsOverview
	require.NoError(t, json.Unmarshal(payload, &overview))
	assert.Equal(t, 3, overview.Current.TotalAssignments)
}

func TestUnknownFieldRejected(t *testing.T) {
	router := newTestRouter(stubs{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/assignments",
		strings.NewReader(`{"title":"Thesis","bogus_field":true}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
