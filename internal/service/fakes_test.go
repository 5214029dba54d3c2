package service

import (
	"context"
	"strings"
	"time"

	"github.com/campusflow/assignment-service/internal/models"
	"github.com/campusflow/assignment-service/internal/repository"
	"github.com/campusflow/assignment-service/internal/service/integration"
)

// In-memory doubles for the repository and integration interfaces. The store
// fake runs the transactional closure directly, which is all the services
// need since state lives in plain maps.

type fakeStore struct {
	txErr error
}

func (s *fakeStore) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.txErr != nil {
		return s.txErr
	}
	return fn(ctx)
}

type fakeAssignmentRepo struct {
	assignments map[string]*models.Assignment
	stats       map[string]*models.AssignmentWithStats
	deleted     []string
}

func newFakeAssignmentRepo() *fakeAssignmentRepo {
	return &fakeAssignmentRepo{
		assignments: make(map[string]*models.Assignment),
		stats:       make(map[string]*models.AssignmentWithStats),
	}
}

func (r *fakeAssignmentRepo) Create(_ context.Context, a *models.Assignment) error {
	cp := *a
	r.assignments[a.ID] = &cp
	return nil
}

func (r *fakeAssignmentRepo) GetByID(_ context.Context, id string) (*models.Assignment, error) {
	a, ok := r.assignments[id]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (r *fakeAssignmentRepo) GetWithStats(_ context.Context, id string) (*models.AssignmentWithStats, error) {
	if st, ok := r.stats[id]; ok {
		cp := *st
		return &cp, nil
	}
	a, ok := r.assignments[id]
	if !ok {
		return nil, nil
	}
	return &models.AssignmentWithStats{Assignment: *a}, nil
}

func (r *fakeAssignmentRepo) ListByOwners(_ context.Context, ownerIDs []string, limit, offset int) ([]models.AssignmentWithStats, int, error) {
	owners := make(map[string]bool, len(ownerIDs))
	for _, id := range ownerIDs {
		owners[id] = true
	}
	var out []models.AssignmentWithStats
	for _, a := range r.assignments {
		if owners[a.CreatedBy] {
			out = append(out, models.AssignmentWithStats{Assignment: *a})
		}
	}
	total := len(out)
	if offset > len(out) {
		offset = len(out)
	}
	out = out[offset:]
	if limit < len(out) {
		out = out[:limit]
	}
	return out, total, nil
}

func (r *fakeAssignmentRepo) Update(_ context.Context, a *models.Assignment) error {
	cp := *a
	r.assignments[a.ID] = &cp
	return nil
}

func (r *fakeAssignmentRepo) SetActive(_ context.Context, id string, active bool, updatedBy string, now time.Time) error {
	a := r.assignments[id]
	a.IsActive = active
	a.UpdatedBy = updatedBy
	a.UpdatedAt = now
	return nil
}

func (r *fakeAssignmentRepo) AppendAttachment(_ context.Context, id, url, updatedBy string, now time.Time) error {
	a := r.assignments[id]
	a.Attachments = append(a.Attachments, url)
	a.UpdatedBy = updatedBy
	a.UpdatedAt = now
	return nil
}

func (r *fakeAssignmentRepo) Delete(_ context.Context, id string) error {
	delete(r.assignments, id)
	r.deleted = append(r.deleted, id)
	return nil
}

type fakeStudentRepo struct {
	students    map[string]models.Student
	supervisors map[string]models.Supervisor
	rosters     map[string][]string
}

func newFakeStudentRepo() *fakeStudentRepo {
	return &fakeStudentRepo{
		students:    make(map[string]models.Student),
		supervisors: make(map[string]models.Supervisor),
		rosters:     make(map[string][]string),
	}
}

func (r *fakeStudentRepo) GetByIDs(_ context.Context, ids []string) ([]models.Student, error) {
	var out []models.Student
	for _, id := range ids {
		if st, ok := r.students[id]; ok {
			out = append(out, st)
		}
	}
	return out, nil
}

func (r *fakeStudentRepo) GetSupervisorByID(_ context.Context, id string) (*models.Supervisor, error) {
	sup, ok := r.supervisors[id]
	if !ok {
		return nil, nil
	}
	return &sup, nil
}

func (r *fakeStudentRepo) RosterIDs(_ context.Context, supervisorID string) ([]string, error) {
	return append([]string{supervisorID}, r.rosters[supervisorID]...), nil
}

type fakeInvitationRepo struct {
	invitations map[string][]models.Invitation // by assignment id
	createErr   error
}

func newFakeInvitationRepo() *fakeInvitationRepo {
	return &fakeInvitationRepo{invitations: make(map[string][]models.Invitation)}
}

func (r *fakeInvitationRepo) Create(_ context.Context, inv *models.Invitation) error {
	if r.createErr != nil {
		return r.createErr
	}
	for _, existing := range r.invitations[inv.AssignmentID] {
		if existing.StudentID == inv.StudentID {
			return repository.ErrDuplicateInvitation
		}
	}
	r.invitations[inv.AssignmentID] = append(r.invitations[inv.AssignmentID], *inv)
	return nil
}

func (r *fakeInvitationRepo) ListByAssignment(_ context.Context, assignmentID string) ([]models.Invitation, error) {
	return r.invitations[assignmentID], nil
}

func (r *fakeInvitationRepo) ListByAssignmentAndStudents(_ context.Context, assignmentID string, studentIDs []string) ([]models.Invitation, error) {
	wanted := make(map[string]bool, len(studentIDs))
	for _, id := range studentIDs {
		wanted[id] = true
	}
	var out []models.Invitation
	for _, inv := range r.invitations[assignmentID] {
		if wanted[inv.StudentID] {
			out = append(out, inv)
		}
	}
	return out, nil
}

func (r *fakeInvitationRepo) DeleteByAssignmentAndStudents(_ context.Context, assignmentID string, studentIDs []string) (int64, error) {
	wanted := make(map[string]bool, len(studentIDs))
	for _, id := range studentIDs {
		wanted[id] = true
	}
	var kept []models.Invitation
	var removed int64
	for _, inv := range r.invitations[assignmentID] {
		if wanted[inv.StudentID] {
			removed++
			continue
		}
		kept = append(kept, inv)
	}
	r.invitations[assignmentID] = kept
	return removed, nil
}

type fakeSubmissionRepo struct {
	submissions map[string]*models.Submission
}

func newFakeSubmissionRepo() *fakeSubmissionRepo {
	return &fakeSubmissionRepo{submissions: make(map[string]*models.Submission)}
}

func (r *fakeSubmissionRepo) Create(_ context.Context, sub *models.Submission) error {
	cp := *sub
	r.submissions[sub.ID] = &cp
	return nil
}

func (r *fakeSubmissionRepo) GetByID(_ context.Context, id string) (*models.Submission, error) {
	sub, ok := r.submissions[id]
	if !ok {
		return nil, nil
	}
	cp := *sub
	return &cp, nil
}

func (r *fakeSubmissionRepo) StudentsWithSubmissions(_ context.Context, assignmentID string, studentIDs []string) ([]string, error) {
	wanted := make(map[string]bool, len(studentIDs))
	for _, id := range studentIDs {
		wanted[id] = true
	}
	var out []string
	for _, sub := range r.submissions {
		if sub.AssignmentID == assignmentID && sub.StudentID != nil && wanted[*sub.StudentID] {
			out = append(out, *sub.StudentID)
		}
	}
	return out, nil
}

func (r *fakeSubmissionRepo) ExistsForAssignment(_ context.Context, assignmentID string) (bool, error) {
	for _, sub := range r.submissions {
		if sub.AssignmentID == assignmentID {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeSubmissionRepo) ExistsForGroup(_ context.Context, groupID string) (bool, error) {
	for _, sub := range r.submissions {
		if sub.GroupID != nil && *sub.GroupID == groupID {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeSubmissionRepo) UpdateGrade(_ context.Context, id string, score int, feedback string, status models.SubmissionStatus, gradedAt time.Time, expectedVersion int) (bool, error) {
	sub, ok := r.submissions[id]
	if !ok || sub.Version != expectedVersion {
		return false, nil
	}
	sub.Score = &score
	sub.Feedback = feedback
	sub.Status = status
	sub.GradedAt = &gradedAt
	sub.Version++
	return true, nil
}

type fakeGroupRepo struct {
	groups  map[string]*models.Group
	members map[string][]models.GroupMember
	deleted []string
}

func newFakeGroupRepo() *fakeGroupRepo {
	return &fakeGroupRepo{
		groups:  make(map[string]*models.Group),
		members: make(map[string][]models.GroupMember),
	}
}

func (r *fakeGroupRepo) Create(_ context.Context, g *models.Group) error {
	cp := *g
	r.groups[g.ID] = &cp
	return nil
}

func (r *fakeGroupRepo) GetByID(_ context.Context, id string) (*models.Group, error) {
	g, ok := r.groups[id]
	if !ok {
		return nil, nil
	}
	cp := *g
	return &cp, nil
}

func (r *fakeGroupRepo) NameExists(_ context.Context, assignmentID, name, excludeGroupID string) (bool, error) {
	for _, g := range r.groups {
		if g.AssignmentID == assignmentID && g.ID != excludeGroupID &&
			strings.EqualFold(strings.TrimSpace(g.Name), strings.TrimSpace(name)) {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeGroupRepo) MembersInOtherGroups(_ context.Context, assignmentID string, studentIDs []string, excludeGroupID string) ([]string, error) {
	wanted := make(map[string]bool, len(studentIDs))
	for _, id := range studentIDs {
		wanted[id] = true
	}
	var out []string
	for gid, members := range r.members {
		g, ok := r.groups[gid]
		if !ok || g.AssignmentID != assignmentID || gid == excludeGroupID {
			continue
		}
		for _, m := range members {
			if wanted[m.StudentID] {
				out = append(out, m.StudentID)
			}
		}
	}
	return out, nil
}

func (r *fakeGroupRepo) InsertMembers(_ context.Context, groupID string, studentIDs []string, joinedAt time.Time) error {
	for _, id := range studentIDs {
		r.members[groupID] = append(r.members[groupID], models.GroupMember{
			GroupID:   groupID,
			StudentID: id,
			JoinedAt:  joinedAt,
		})
	}
	return nil
}

func (r *fakeGroupRepo) ListMembers(_ context.Context, groupID string) ([]models.GroupMember, error) {
	return r.members[groupID], nil
}

func (r *fakeGroupRepo) DeleteMembers(_ context.Context, groupID string) error {
	delete(r.members, groupID)
	return nil
}

func (r *fakeGroupRepo) UpdateName(_ context.Context, id, name string, now time.Time) error {
	g := r.groups[id]
	g.Name = name
	g.UpdatedAt = now
	return nil
}

func (r *fakeGroupRepo) Delete(_ context.Context, id string) error {
	delete(r.groups, id)
	r.deleted = append(r.deleted, id)
	return nil
}

type fakeAnalyticsRepo struct {
	snapshotsFn func(asOf time.Time) []models.AssignmentSnapshot
	statsFn     func(asOf time.Time) (int, float64)
	invitedFn   func(asOf time.Time) int
}

func (r *fakeAnalyticsRepo) AssignmentSnapshots(_ context.Context, _ []string, asOf time.Time) ([]models.AssignmentSnapshot, error) {
	if r.snapshotsFn == nil {
		return nil, nil
	}
	return r.snapshotsFn(asOf), nil
}

func (r *fakeAnalyticsRepo) SubmissionStats(_ context.Context, _ []string, asOf time.Time) (int, float64, error) {
	if r.statsFn == nil {
		return 0, 0, nil
	}
	total, avg := r.statsFn(asOf)
	return total, avg, nil
}

func (r *fakeAnalyticsRepo) DistinctInvitedStudents(_ context.Context, _ []string, asOf time.Time) (int, error) {
	if r.invitedFn == nil {
		return 0, nil
	}
	return r.invitedFn(asOf), nil
}

type fakePublisher struct {
	events  []*models.NotificationEvent
	failFor map[string]bool // by student id
}

func (p *fakePublisher) PublishNotification(_ context.Context, event *models.NotificationEvent) error {
	if p.failFor[event.StudentID] {
		return context.DeadlineExceeded
	}
	p.events = append(p.events, event)
	return nil
}

func (p *fakePublisher) Close() error { return nil }

type fakeDocumentClient struct {
	resp *integration.UploadResponse
	err  error
}

func (c *fakeDocumentClient) Upload(_ context.Context, _ []byte, _ string) (*integration.UploadResponse, error) {
	if c.err != nil {
		return nil, c.err
	}
	return c.resp, nil
}
