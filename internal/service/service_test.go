package service

import (
	"context"
	"database/sql"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/QuangNH139/jira-nidec-sub000/internal/apperr"
	"github.com/QuangNH139/jira-nidec-sub000/internal/models"
	"github.com/QuangNH139/jira-nidec-sub000/internal/storage/sqlite"
)

type fixture struct {
	svc      *Service
	store    *sqlite.Store
	admin    models.User
	member   models.User
	outsider models.User
	project  models.Project
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	store, err := sqlite.Open(filepath.Join(t.TempDir(), "test.db"), slog.Default())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	svc := New(store, slog.Default())

	admin, err := store.GetUser(ctx, 1)
	require.NoError(t, err)

	member, err := store.CreateUser(ctx, models.User{Username: "member", FullName: "Member One", Role: models.RoleDeveloper})
	require.NoError(t, err)
	outsider, err := store.CreateUser(ctx, models.User{Username: "outsider", FullName: "Out Sider", Role: models.RoleDeveloper})
	require.NoError(t, err)

	project, err := svc.CreateProject(ctx, member, models.Project{Key: "FIX", Name: "Fixture"})
	require.NoError(t, err)

	return &fixture{svc: svc, store: store, admin: admin, member: member, outsider: outsider, project: project}
}

func (f *fixture) statuses(t *testing.T) []models.IssueStatus {
	t.Helper()
	statuses, err := f.svc.ListStatuses(context.Background(), f.member, f.project.ID)
	require.NoError(t, err)
	return statuses
}

func (f *fixture) createIssue(t *testing.T, title string, statusID int64) models.Issue {
	t.Helper()
	issue, err := f.svc.CreateIssue(context.Background(), f.member, models.Issue{
		ProjectID: f.project.ID,
		Title:     title,
		StatusID:  statusID,
	})
	require.NoError(t, err)
	return issue
}

func assertAPIStatus(t *testing.T, err error, status int) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, status, apperr.From(err).Status)
}

func TestAccessGate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.GetProject(ctx, f.member, f.project.ID)
	assert.NoError(t, err)

	_, err = f.svc.GetProject(ctx, f.admin, f.project.ID)
	assert.NoError(t, err)

	_, err = f.svc.GetProject(ctx, f.outsider, f.project.ID)
	assertAPIStatus(t, err, 403)

	// The same Forbidden answer for a project that does not exist at all.
	_, err = f.svc.GetProject(ctx, f.outsider, 99999)
	assertAPIStatus(t, err, 403)
}

func TestAccessDenialIsAudited(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.GetProject(ctx, f.outsider, f.project.ID)
	assertAPIStatus(t, err, 403)

	logs, err := f.store.ListProjectActivity(ctx, f.project.ID, 10)
	require.NoError(t, err)
	found := false
	for _, l := range logs {
		if l.Action == "access_denied" {
			found = true
		}
	}
	assert.True(t, found, "expected an access_denied audit row")
}

func TestCreateIssueRejectsForeignStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	other, err := f.svc.CreateProject(ctx, f.member, models.Project{Key: "OTH", Name: "Other"})
	require.NoError(t, err)
	otherStatuses, err := f.svc.ListStatuses(ctx, f.member, other.ID)
	require.NoError(t, err)

	_, err = f.svc.CreateIssue(ctx, f.member, models.Issue{
		ProjectID: f.project.ID,
		Title:     "cross project",
		StatusID:  otherStatuses[0].ID,
	})
	assertAPIStatus(t, err, 400)
}

func TestUpdateStatusRejectsForeignStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	issue := f.createIssue(t, "drag target", f.statuses(t)[0].ID)

	other, err := f.svc.CreateProject(ctx, f.member, models.Project{Key: "FRN", Name: "Foreign"})
	require.NoError(t, err)
	otherStatuses, err := f.svc.ListStatuses(ctx, f.member, other.ID)
	require.NoError(t, err)

	_, err = f.svc.UpdateIssueStatus(ctx, f.member, issue.ID, otherStatuses[0].ID)
	assertAPIStatus(t, err, 400)
}

func TestAssignToCompletedSprintRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	issue := f.createIssue(t, "too late", f.statuses(t)[0].ID)

	sp, err := f.svc.CreateSprint(ctx, f.member, models.Sprint{ProjectID: f.project.ID, Name: "Closed"})
	require.NoError(t, err)
	_, err = f.svc.CompleteSprint(ctx, f.member, sp.ID)
	require.NoError(t, err)

	_, err = f.svc.AssignToSprint(ctx, f.member, issue.ID, sp.ID)
	assertAPIStatus(t, err, 400)

	// Leaving a completed sprint is still allowed.
	active, err := f.svc.CreateSprint(ctx, f.member, models.Sprint{ProjectID: f.project.ID, Name: "Open"})
	require.NoError(t, err)
	issue, err = f.svc.AssignToSprint(ctx, f.member, issue.ID, active.ID)
	require.NoError(t, err)
	_, err = f.svc.CompleteSprint(ctx, f.member, active.ID)
	require.NoError(t, err)
	issue, err = f.svc.RemoveFromSprint(ctx, f.member, issue.ID)
	require.NoError(t, err)
	assert.Nil(t, issue.SprintID)
}

func TestAssignToForeignSprintRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	issue := f.createIssue(t, "stay home", f.statuses(t)[0].ID)

	other, err := f.svc.CreateProject(ctx, f.member, models.Project{Key: "AWY", Name: "Away"})
	require.NoError(t, err)
	sp, err := f.svc.CreateSprint(ctx, f.member, models.Sprint{ProjectID: other.ID, Name: "Away Sprint"})
	require.NoError(t, err)

	_, err = f.svc.AssignToSprint(ctx, f.member, issue.ID, sp.ID)
	assertAPIStatus(t, err, 400)
}

func TestStartSprintSingleActiveInvariant(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	s1, err := f.svc.CreateSprint(ctx, f.member, models.Sprint{ProjectID: f.project.ID, Name: "Sprint 1"})
	require.NoError(t, err)
	s2, err := f.svc.CreateSprint(ctx, f.member, models.Sprint{ProjectID: f.project.ID, Name: "Sprint 2"})
	require.NoError(t, err)

	s1, err = f.svc.StartSprint(ctx, f.member, s1.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SprintActive, s1.Status)

	s2, err = f.svc.StartSprint(ctx, f.member, s2.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SprintActive, s2.Status)

	sprints, err := f.svc.ListSprints(ctx, f.member, f.project.ID)
	require.NoError(t, err)
	activeCount := 0
	for _, sp := range sprints {
		if sp.Status == models.SprintActive {
			activeCount++
			assert.Equal(t, s2.ID, sp.ID)
		}
	}
	assert.Equal(t, 1, activeCount)
}

func TestStartCompletedSprintRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sp, err := f.svc.CreateSprint(ctx, f.member, models.Sprint{ProjectID: f.project.ID, Name: "Done deal"})
	require.NoError(t, err)
	_, err = f.svc.CompleteSprint(ctx, f.member, sp.ID)
	require.NoError(t, err)

	_, err = f.svc.StartSprint(ctx, f.member, sp.ID)
	assertAPIStatus(t, err, 400)
}

func TestGetActiveSprintNone(t *testing.T) {
	f := newFixture(t)

	sp, err := f.svc.GetActiveSprint(context.Background(), f.member, f.project.ID)
	require.NoError(t, err)
	assert.Nil(t, sp)
}

func TestKanbanPartition(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	statuses := f.statuses(t)

	seen := map[int64]bool{}
	for n := 0; n < 7; n++ {
		issue := f.createIssue(t, "card", statuses[n%3].ID)
		seen[issue.ID] = false
	}

	columns, err := f.svc.KanbanBoard(ctx, f.member, f.project.ID, "")
	require.NoError(t, err)
	require.Len(t, columns, len(statuses))

	// Columns come back in position order.
	for n, col := range columns {
		assert.Equal(t, statuses[n].ID, col.Status.ID)
	}

	total := 0
	for _, col := range columns {
		for _, issue := range col.Issues {
			assert.Equal(t, col.Status.ID, issue.StatusID)
			already, known := seen[issue.ID]
			require.True(t, known, "board produced an unknown issue")
			require.False(t, already, "issue appeared in two columns")
			seen[issue.ID] = true
			total++
		}
	}
	assert.Equal(t, len(seen), total)
}

func TestKanbanSprintFilter(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	statuses := f.statuses(t)

	sp, err := f.svc.CreateSprint(ctx, f.member, models.Sprint{ProjectID: f.project.ID, Name: "Filter"})
	require.NoError(t, err)

	inSprint := f.createIssue(t, "scheduled", statuses[0].ID)
	_, err = f.svc.AssignToSprint(ctx, f.member, inSprint.ID, sp.ID)
	require.NoError(t, err)
	backlog := f.createIssue(t, "unscheduled", statuses[0].ID)

	columns, err := f.svc.KanbanBoard(ctx, f.member, f.project.ID, "none")
	require.NoError(t, err)
	require.Len(t, columns[0].Issues, 1)
	assert.Equal(t, backlog.ID, columns[0].Issues[0].ID)

	_, err = f.svc.KanbanBoard(ctx, f.member, f.project.ID, "bogus")
	assertAPIStatus(t, err, 400)
}

func TestBacklogPartition(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	statuses := f.statuses(t)

	sp, err := f.svc.CreateSprint(ctx, f.member, models.Sprint{ProjectID: f.project.ID, Name: "Bucket"})
	require.NoError(t, err)

	scheduled := f.createIssue(t, "scheduled", statuses[0].ID)
	_, err = f.svc.AssignToSprint(ctx, f.member, scheduled.ID, sp.ID)
	require.NoError(t, err)
	f.createIssue(t, "unscheduled", statuses[0].ID)

	view, err := f.svc.BacklogView(ctx, f.member, f.project.ID)
	require.NoError(t, err)
	require.Len(t, view.Backlog, 1)
	require.Len(t, view.Sprints, 1)
	require.Len(t, view.Sprints[0].Issues, 1)
	assert.Equal(t, scheduled.ID, view.Sprints[0].Issues[0].ID)
}

func TestStatsSumIdentity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	statuses := f.statuses(t)

	points := []int64{1, 2, 3, 5, 8}
	for n, p := range points {
		issue := f.createIssue(t, "pointed", statuses[n%3].ID)
		pts := p
		_, err := f.svc.UpdateIssue(ctx, f.member, issue.ID, sqlite.IssueUpdate{
			StoryPoints: nullInt64(pts),
		})
		require.NoError(t, err)
	}
	// One issue without story points still counts toward totals.
	f.createIssue(t, "unpointed", statuses[2].ID)

	stats, err := f.svc.ProjectStats(ctx, f.member, f.project.ID)
	require.NoError(t, err)
	assert.Equal(t, stats.TotalIssues, stats.TodoIssues+stats.InProgressIssues+stats.CompletedIssues)
	assert.Equal(t, int64(6), stats.TotalIssues)
	assert.Equal(t, int64(19), stats.TotalPoints)
	// Done column got the 3-point issue plus the unpointed one.
	assert.Equal(t, int64(2), stats.CompletedIssues)
	assert.Equal(t, int64(3), stats.CompletedPoints)
}

func TestScenarioStatusDrag(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	statuses := f.statuses(t)
	todo, done := statuses[0], statuses[2]

	issue := f.createIssue(t, "ship it", todo.ID)

	issue, err := f.svc.UpdateIssueStatus(ctx, f.member, issue.ID, done.ID)
	require.NoError(t, err)
	assert.Equal(t, done.ID, issue.StatusID)

	columns, err := f.svc.KanbanBoard(ctx, f.member, f.project.ID, "")
	require.NoError(t, err)
	for _, col := range columns {
		if col.Status.ID == done.ID {
			require.Len(t, col.Issues, 1)
			assert.Equal(t, issue.ID, col.Issues[0].ID)
		} else {
			assert.Empty(t, col.Issues)
		}
	}

	stats, err := f.svc.ProjectStats(ctx, f.member, f.project.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.CompletedIssues)
}

func TestSprintStats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	statuses := f.statuses(t)

	sp, err := f.svc.CreateSprint(ctx, f.member, models.Sprint{ProjectID: f.project.ID, Name: "Measured"})
	require.NoError(t, err)

	inSprint := f.createIssue(t, "counted", statuses[0].ID)
	_, err = f.svc.AssignToSprint(ctx, f.member, inSprint.ID, sp.ID)
	require.NoError(t, err)
	f.createIssue(t, "not counted", statuses[0].ID)

	stats, err := f.svc.SprintStats(ctx, f.member, sp.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.TotalIssues)
}

func TestCommentPermissions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	issue := f.createIssue(t, "debated", f.statuses(t)[0].ID)

	// Second member of the same project.
	other, err := f.store.CreateUser(ctx, models.User{Username: "peer", FullName: "Peer Dev"})
	require.NoError(t, err)
	require.NoError(t, f.svc.AddMember(ctx, f.member, f.project.ID, other.ID, models.MemberMember))

	comment, err := f.svc.CreateComment(ctx, f.member, issue.ID, "my take")
	require.NoError(t, err)

	_, err = f.svc.UpdateComment(ctx, other, comment.ID, "hijacked")
	assertAPIStatus(t, err, 403)

	_, err = f.svc.UpdateComment(ctx, f.admin, comment.ID, "moderated")
	require.NoError(t, err)

	err = f.svc.DeleteComment(ctx, other, comment.ID)
	assertAPIStatus(t, err, 403)
	require.NoError(t, f.svc.DeleteComment(ctx, f.member, comment.ID))
}

func TestRemovedMemberLosesCommentAccess(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	issue := f.createIssue(t, "contested", f.statuses(t)[0].ID)

	other, err := f.store.CreateUser(ctx, models.User{Username: "departed", FullName: "De Parted"})
	require.NoError(t, err)
	require.NoError(t, f.svc.AddMember(ctx, f.member, f.project.ID, other.ID, models.MemberMember))

	comment, err := f.svc.CreateComment(ctx, other, issue.ID, "written while a member")
	require.NoError(t, err)

	require.NoError(t, f.svc.RemoveMember(ctx, f.member, f.project.ID, other.ID))

	// Authorship alone is not enough once project access is gone.
	_, err = f.svc.UpdateComment(ctx, other, comment.ID, "edited after leaving")
	assertAPIStatus(t, err, 403)
	err = f.svc.DeleteComment(ctx, other, comment.ID)
	assertAPIStatus(t, err, 403)

	_, err = f.svc.UpdateComment(ctx, f.admin, comment.ID, "moderated")
	require.NoError(t, err)
	require.NoError(t, f.svc.DeleteComment(ctx, f.admin, comment.ID))
}

func TestDeleteUserOwningProjectConflicts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// f.member owns the fixture project, so the delete is refused.
	err := f.svc.DeleteUser(ctx, f.admin, f.member.ID)
	assertAPIStatus(t, err, 409)

	_, err = f.svc.GetUser(ctx, f.member.ID)
	require.NoError(t, err)
}

func TestDeleteUserRequiresAdmin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	err := f.svc.DeleteUser(ctx, f.member, f.outsider.ID)
	assertAPIStatus(t, err, 403)

	require.NoError(t, f.svc.DeleteUser(ctx, f.admin, f.outsider.ID))
	_, err = f.svc.GetUser(ctx, f.outsider.ID)
	assertAPIStatus(t, err, 404)
}

func nullInt64(v int64) *sql.NullInt64 {
	return &sql.NullInt64{Int64: v, Valid: true}
}
