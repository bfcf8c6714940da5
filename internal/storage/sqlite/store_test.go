package sqlite

import (
	"context"
	"database/sql"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/QuangNH139/jira-nidec-sub000/internal/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "test.db"), slog.Default())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func createTestProject(t *testing.T, store *Store, key string) models.Project {
	t.Helper()
	p, err := store.CreateProject(context.Background(), models.Project{Key: key, Name: "Project " + key, OwnerID: 1})
	require.NoError(t, err)
	return p
}

func createTestIssue(t *testing.T, store *Store, p models.Project, title string) models.Issue {
	t.Helper()
	ctx := context.Background()
	statuses, err := store.ListStatuses(ctx, p.ID)
	require.NoError(t, err)
	reporter := int64(1)
	i, err := store.CreateIssue(ctx, models.Issue{
		ProjectID:  p.ID,
		Title:      title,
		StatusID:   statuses[0].ID,
		ReporterID: &reporter,
	})
	require.NoError(t, err)
	return i
}

func TestSeedAdmin(t *testing.T) {
	store := newTestStore(t)

	admin, err := store.GetUser(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, admin.Role)
}

func TestCreateProjectDefaults(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	p := createTestProject(t, store, "brd")
	assert.Equal(t, "BRD", p.Key)

	statuses, err := store.ListStatuses(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, statuses, 3)
	assert.Equal(t, "To Do", statuses[0].Name)
	assert.Equal(t, "In Progress", statuses[1].Name)
	assert.Equal(t, "Done", statuses[2].Name)
	for i, st := range statuses {
		assert.Equal(t, int64(i+1), st.Position)
	}
	assert.Equal(t, models.CategoryTodo, statuses[0].Category)
	assert.Equal(t, models.CategoryInProgress, statuses[1].Category)
	assert.Equal(t, models.CategoryDone, statuses[2].Category)

	members, err := store.ListMembers(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, int64(1), members[0].UserID)
	assert.Equal(t, models.MemberOwner, members[0].Role)
}

func TestCreateProjectDuplicateKey(t *testing.T) {
	store := newTestStore(t)

	createTestProject(t, store, "DUP")
	_, err := store.CreateProject(context.Background(), models.Project{Key: "DUP", Name: "Again", OwnerID: 1})
	assert.ErrorIs(t, err, ErrProjectKeyExists)
}

func TestCreateStatusAppendsPosition(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	p := createTestProject(t, store, "POS")

	st, err := store.CreateStatus(ctx, models.IssueStatus{ProjectID: p.ID, Name: "In Review", Category: models.CategoryInProgress})
	require.NoError(t, err)
	assert.Equal(t, int64(4), st.Position)
}

func TestStartSprintDemotesActive(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	p := createTestProject(t, store, "SPR")

	s1, err := store.CreateSprint(ctx, models.Sprint{ProjectID: p.ID, Name: "Sprint 1"})
	require.NoError(t, err)
	assert.Equal(t, models.SprintPlanned, s1.Status)

	s2, err := store.CreateSprint(ctx, models.Sprint{ProjectID: p.ID, Name: "Sprint 2"})
	require.NoError(t, err)

	s1, err = store.StartSprint(ctx, s1.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SprintActive, s1.Status)

	s2, err = store.StartSprint(ctx, s2.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SprintActive, s2.Status)

	s1, err = store.GetSprint(ctx, s1.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SprintCompleted, s1.Status)

	active, err := store.GetActiveSprint(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, s2.ID, active.ID)
}

func TestStartSprintDoesNotDemoteOtherProjects(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	p1 := createTestProject(t, store, "PA")
	p2 := createTestProject(t, store, "PB")

	s1, err := store.CreateSprint(ctx, models.Sprint{ProjectID: p1.ID, Name: "A1"})
	require.NoError(t, err)
	s2, err := store.CreateSprint(ctx, models.Sprint{ProjectID: p2.ID, Name: "B1"})
	require.NoError(t, err)

	_, err = store.StartSprint(ctx, s1.ID)
	require.NoError(t, err)
	_, err = store.StartSprint(ctx, s2.ID)
	require.NoError(t, err)

	s1, err = store.GetSprint(ctx, s1.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SprintActive, s1.Status)
}

func TestCompleteSprintIdempotent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	p := createTestProject(t, store, "CMP")

	sp, err := store.CreateSprint(ctx, models.Sprint{ProjectID: p.ID, Name: "Sprint"})
	require.NoError(t, err)

	sp, err = store.CompleteSprint(ctx, sp.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SprintCompleted, sp.Status)

	sp, err = store.CompleteSprint(ctx, sp.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SprintCompleted, sp.Status)
}

func TestDeleteSprintDetachesIssues(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	p := createTestProject(t, store, "DET")

	sp, err := store.CreateSprint(ctx, models.Sprint{ProjectID: p.ID, Name: "Sprint"})
	require.NoError(t, err)

	issue := createTestIssue(t, store, p, "inside sprint")
	issue, err = store.SetIssueSprint(ctx, issue.ID, &sp.ID)
	require.NoError(t, err)
	require.NotNil(t, issue.SprintID)

	require.NoError(t, store.DeleteSprint(ctx, sp.ID))

	issue, err = store.GetIssue(ctx, issue.ID)
	require.NoError(t, err)
	assert.Nil(t, issue.SprintID)

	_, err = store.GetSprint(ctx, sp.ID)
	assert.ErrorIs(t, err, ErrSprintNotFound)
}

func TestDeleteUserUnassignsIssues(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	p := createTestProject(t, store, "USR")

	u, err := store.CreateUser(ctx, models.User{Username: "dev", FullName: "Dev One"})
	require.NoError(t, err)

	issue := createTestIssue(t, store, p, "assigned work")
	issue, err = store.UpdateIssue(ctx, issue.ID, IssueUpdate{
		AssigneeID: &sql.NullInt64{Int64: u.ID, Valid: true},
	})
	require.NoError(t, err)
	require.NotNil(t, issue.AssigneeID)

	require.NoError(t, store.DeleteUser(ctx, u.ID))

	issue, err = store.GetIssue(ctx, issue.ID)
	require.NoError(t, err)
	assert.Nil(t, issue.AssigneeID)

	_, err = store.GetUser(ctx, u.ID)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestDeleteUserOwningProjectRefused(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	u, err := store.CreateUser(ctx, models.User{Username: "owner", FullName: "Own Er"})
	require.NoError(t, err)
	_, err = store.CreateProject(ctx, models.Project{Key: "OWN", Name: "Owned", OwnerID: u.ID})
	require.NoError(t, err)

	err = store.DeleteUser(ctx, u.ID)
	assert.ErrorIs(t, err, ErrUserOwnsProjects)

	// The refused delete leaves the account intact.
	_, err = store.GetUser(ctx, u.ID)
	assert.NoError(t, err)
}

func TestUpdateIssuePartial(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	p := createTestProject(t, store, "UPD")

	issue := createTestIssue(t, store, p, "original title")

	newDesc := "now with a description"
	updated, err := store.UpdateIssue(ctx, issue.ID, IssueUpdate{Description: &newDesc})
	require.NoError(t, err)
	assert.Equal(t, "original title", updated.Title)
	assert.Equal(t, newDesc, updated.Description)
	assert.Equal(t, issue.StatusID, updated.StatusID)
	assert.Nil(t, updated.SprintID)

	points := &sql.NullInt64{Int64: 5, Valid: true}
	updated, err = store.UpdateIssue(ctx, issue.ID, IssueUpdate{StoryPoints: points})
	require.NoError(t, err)
	require.NotNil(t, updated.StoryPoints)
	assert.Equal(t, int64(5), *updated.StoryPoints)
	assert.Equal(t, newDesc, updated.Description)

	updated, err = store.UpdateIssue(ctx, issue.ID, IssueUpdate{StoryPoints: &sql.NullInt64{}})
	require.NoError(t, err)
	assert.Nil(t, updated.StoryPoints)
}

func TestUpdateIssueStatusChangesOnlyStatus(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	p := createTestProject(t, store, "STS")

	statuses, err := store.ListStatuses(ctx, p.ID)
	require.NoError(t, err)

	issue := createTestIssue(t, store, p, "drag me")
	updated, err := store.UpdateIssueStatus(ctx, issue.ID, statuses[2].ID)
	require.NoError(t, err)
	assert.Equal(t, statuses[2].ID, updated.StatusID)
	assert.Equal(t, issue.Title, updated.Title)
	assert.Equal(t, issue.Description, updated.Description)
	assert.Equal(t, issue.Type, updated.Type)
	assert.Equal(t, issue.Priority, updated.Priority)
	assert.Equal(t, issue.SprintID, updated.SprintID)
	assert.Equal(t, issue.AssigneeID, updated.AssigneeID)
}

func TestSetIssueSprintRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	p := createTestProject(t, store, "RTP")

	sp, err := store.CreateSprint(ctx, models.Sprint{ProjectID: p.ID, Name: "Sprint"})
	require.NoError(t, err)

	issue := createTestIssue(t, store, p, "round trip")
	issue, err = store.SetIssueSprint(ctx, issue.ID, &sp.ID)
	require.NoError(t, err)
	require.NotNil(t, issue.SprintID)
	assert.Equal(t, sp.ID, *issue.SprintID)

	issue, err = store.SetIssueSprint(ctx, issue.ID, nil)
	require.NoError(t, err)
	assert.Nil(t, issue.SprintID)
}

func TestListIssuesFilters(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	p := createTestProject(t, store, "FLT")

	sp, err := store.CreateSprint(ctx, models.Sprint{ProjectID: p.ID, Name: "Sprint"})
	require.NoError(t, err)

	inSprint := createTestIssue(t, store, p, "in sprint")
	_, err = store.SetIssueSprint(ctx, inSprint.ID, &sp.ID)
	require.NoError(t, err)
	backlog := createTestIssue(t, store, p, "in backlog")

	all, err := store.ListIssues(ctx, IssueFilter{ProjectID: &p.ID})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	sprintOnly, err := store.ListIssues(ctx, IssueFilter{ProjectID: &p.ID, SprintID: &sp.ID})
	require.NoError(t, err)
	require.Len(t, sprintOnly, 1)
	assert.Equal(t, inSprint.ID, sprintOnly[0].ID)

	backlogOnly, err := store.ListIssues(ctx, IssueFilter{ProjectID: &p.ID, Backlog: true})
	require.NoError(t, err)
	require.Len(t, backlogOnly, 1)
	assert.Equal(t, backlog.ID, backlogOnly[0].ID)
}

func TestIssueJoinedDisplayFields(t *testing.T) {
	store := newTestStore(t)
	p := createTestProject(t, store, "JND")

	issue := createTestIssue(t, store, p, "display")
	assert.Equal(t, "To Do", issue.StatusName)
	assert.Equal(t, models.CategoryTodo, issue.StatusCategory)
	assert.Equal(t, "Administrator", issue.ReporterName)
	assert.Empty(t, issue.AssigneeName)
}

func TestRecordAndListActivity(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	p := createTestProject(t, store, "ACT")

	actor := int64(1)
	require.NoError(t, store.RecordAction(ctx, models.ActionLog{
		UserID:    &actor,
		ProjectID: &p.ID,
		Action:    "issue_created",
		Details:   `{"issue_id":1}`,
		RequestID: "req-1",
	}))

	logs, err := store.ListProjectActivity(ctx, p.ID, 10)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "issue_created", logs[0].Action)
	assert.Equal(t, "req-1", logs[0].RequestID)
	assert.Equal(t, "Administrator", logs[0].ActorName)
}

func TestCommentLifecycle(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	p := createTestProject(t, store, "COM")
	issue := createTestIssue(t, store, p, "discussed")

	c, err := store.CreateComment(ctx, models.Comment{IssueID: issue.ID, AuthorID: 1, Content: "first"})
	require.NoError(t, err)
	assert.Equal(t, "Administrator", c.AuthorName)

	c, err = store.UpdateComment(ctx, c.ID, "edited")
	require.NoError(t, err)
	assert.Equal(t, "edited", c.Content)

	require.NoError(t, store.DeleteComment(ctx, c.ID))
	_, err = store.GetComment(ctx, c.ID)
	assert.ErrorIs(t, err, ErrCommentNotFound)
}
