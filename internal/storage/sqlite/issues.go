package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/QuangNH139/jira-nidec-sub000/internal/models"
)

// IssueUpdate carries a partial update. A nil pointer means "leave the field
// unchanged"; for nullable columns a non-nil *sql.Null* with Valid=false
// means "clear it", so omitted and explicitly-nulled fields stay
// distinguishable.
type IssueUpdate struct {
	Title       *string
	Description *string
	Type        *models.IssueType
	Priority    *models.Priority
	StatusID    *int64
	SprintID    *sql.NullInt64
	AssigneeID  *sql.NullInt64
	StoryPoints *sql.NullInt64
	StartDate   *sql.NullTime
	ImageBefore *string
	ImageAfter  *string
}

// IssueFilter narrows ListIssues. Backlog=true selects issues without a
// sprint; SprintID selects one sprint; both unset selects the whole project.
type IssueFilter struct {
	ProjectID  *int64
	SprintID   *int64
	Backlog    bool
	AssigneeID *int64
}

const issueColumns = `i.id, i.project_id, i.sprint_id, i.title, i.description, i.type, i.priority,
       i.status_id, i.reporter_id, i.assignee_id, i.story_points, i.start_date,
       i.image_before, i.image_after, i.created_at, i.updated_at,
       st.name, st.category, st.color,
       COALESCE(r.full_name, ''), COALESCE(a.full_name, '')`

const issueJoins = ` FROM issues i
       JOIN issue_statuses st ON st.id = i.status_id
       LEFT JOIN users r ON r.id = i.reporter_id
       LEFT JOIN users a ON a.id = i.assignee_id`

func scanIssue(row interface{ Scan(...any) error }) (models.Issue, error) {
	var (
		i           models.Issue
		sprintID    sql.NullInt64
		reporterID  sql.NullInt64
		assigneeID  sql.NullInt64
		storyPoints sql.NullInt64
		startDate   sql.NullTime
	)
	err := row.Scan(&i.ID, &i.ProjectID, &sprintID, &i.Title, &i.Description, &i.Type, &i.Priority,
		&i.StatusID, &reporterID, &assigneeID, &storyPoints, &startDate,
		&i.ImageBefore, &i.ImageAfter, &i.CreatedAt, &i.UpdatedAt,
		&i.StatusName, &i.StatusCategory, &i.StatusColor,
		&i.ReporterName, &i.AssigneeName)
	if err != nil {
		return models.Issue{}, err
	}
	i.SprintID = nullInt(sprintID)
	i.ReporterID = nullInt(reporterID)
	i.AssigneeID = nullInt(assigneeID)
	i.StoryPoints = nullInt(storyPoints)
	if startDate.Valid {
		t := startDate.Time
		i.StartDate = &t
	}
	return i, nil
}

func nullInt(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	n := v.Int64
	return &n
}

// CreateIssue persists a new issue. Referential validation (status and
// sprint belonging to the project) happens at the service boundary.
func (s *Store) CreateIssue(ctx context.Context, i models.Issue) (models.Issue, error) {
	if strings.TrimSpace(i.Title) == "" {
		return models.Issue{}, fmt.Errorf("issue title must not be empty")
	}
	if !i.Type.IsValid() {
		i.Type = models.TypeTask
	}
	if !i.Priority.IsValid() {
		i.Priority = models.PriorityMedium
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO issues(project_id, sprint_id, title, description, type, priority, status_id,
            reporter_id, assignee_id, story_points, start_date, image_before, image_after)
         VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		i.ProjectID, i.SprintID, strings.TrimSpace(i.Title), i.Description, i.Type, i.Priority,
		i.StatusID, i.ReporterID, i.AssigneeID, i.StoryPoints, i.StartDate, i.ImageBefore, i.ImageAfter)
	if err != nil {
		return models.Issue{}, fmt.Errorf("insert issue: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.Issue{}, fmt.Errorf("issue id: %w", err)
	}
	return s.GetIssue(ctx, id)
}

// GetIssue retrieves an issue with its joined display fields.
func (s *Store) GetIssue(ctx context.Context, id int64) (models.Issue, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+issueColumns+issueJoins+` WHERE i.id = ?`, id)
	i, err := scanIssue(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Issue{}, ErrIssueNotFound
	}
	if err != nil {
		return models.Issue{}, fmt.Errorf("get issue: %w", err)
	}
	return i, nil
}

// ListIssues returns issues matching the filter, in board order.
func (s *Store) ListIssues(ctx context.Context, f IssueFilter) ([]models.Issue, error) {
	query := `SELECT ` + issueColumns + issueJoins
	var (
		where []string
		args  []any
	)
	if f.ProjectID != nil {
		where = append(where, "i.project_id = ?")
		args = append(args, *f.ProjectID)
	}
	if f.Backlog {
		where = append(where, "i.sprint_id IS NULL")
	} else if f.SprintID != nil {
		where = append(where, "i.sprint_id = ?")
		args = append(args, *f.SprintID)
	}
	if f.AssigneeID != nil {
		where = append(where, "i.assignee_id = ?")
		args = append(args, *f.AssigneeID)
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY st.position, i.id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list issues: %w", err)
	}
	defer rows.Close()

	var issues []models.Issue
	for rows.Next() {
		i, err := scanIssue(rows)
		if err != nil {
			return nil, fmt.Errorf("scan issue: %w", err)
		}
		issues = append(issues, i)
	}
	return issues, rows.Err()
}

// UpdateIssue overlays the provided fields onto the current row and writes
// the result back. Omitted fields keep their stored value.
func (s *Store) UpdateIssue(ctx context.Context, id int64, upd IssueUpdate) (models.Issue, error) {
	current, err := s.GetIssue(ctx, id)
	if err != nil {
		return models.Issue{}, err
	}

	title := current.Title
	description := current.Description
	issueType := current.Type
	priority := current.Priority
	statusID := current.StatusID
	sprintID := current.SprintID
	assigneeID := current.AssigneeID
	storyPoints := current.StoryPoints
	startDate := current.StartDate
	imageBefore := current.ImageBefore
	imageAfter := current.ImageAfter

	if upd.Title != nil && strings.TrimSpace(*upd.Title) != "" {
		title = strings.TrimSpace(*upd.Title)
	}
	if upd.Description != nil {
		description = *upd.Description
	}
	if upd.Type != nil && upd.Type.IsValid() {
		issueType = *upd.Type
	}
	if upd.Priority != nil && upd.Priority.IsValid() {
		priority = *upd.Priority
	}
	if upd.StatusID != nil {
		statusID = *upd.StatusID
	}
	if upd.SprintID != nil {
		sprintID = nullInt(*upd.SprintID)
	}
	if upd.AssigneeID != nil {
		assigneeID = nullInt(*upd.AssigneeID)
	}
	if upd.StoryPoints != nil {
		storyPoints = nullInt(*upd.StoryPoints)
	}
	if upd.StartDate != nil {
		if upd.StartDate.Valid {
			t := upd.StartDate.Time
			startDate = &t
		} else {
			startDate = nil
		}
	}
	if upd.ImageBefore != nil {
		imageBefore = *upd.ImageBefore
	}
	if upd.ImageAfter != nil {
		imageAfter = *upd.ImageAfter
	}

	_, err = s.db.ExecContext(ctx,
		`UPDATE issues SET title = ?, description = ?, type = ?, priority = ?, status_id = ?,
            sprint_id = ?, assignee_id = ?, story_points = ?, start_date = ?,
            image_before = ?, image_after = ?, updated_at = CURRENT_TIMESTAMP
         WHERE id = ?`,
		title, description, issueType, priority, statusID,
		sprintID, assigneeID, storyPoints, startDate,
		imageBefore, imageAfter, id)
	if err != nil {
		return models.Issue{}, fmt.Errorf("update issue: %w", err)
	}
	return s.GetIssue(ctx, id)
}

// UpdateIssueStatus moves an issue to another board column.
func (s *Store) UpdateIssueStatus(ctx context.Context, id, statusID int64) (models.Issue, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE issues SET status_id = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, statusID, id)
	if err != nil {
		return models.Issue{}, fmt.Errorf("update issue status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return models.Issue{}, err
	}
	if affected == 0 {
		return models.Issue{}, ErrIssueNotFound
	}
	return s.GetIssue(ctx, id)
}

// SetIssueSprint moves an issue into a sprint, or back to the backlog when
// sprintID is nil.
func (s *Store) SetIssueSprint(ctx context.Context, id int64, sprintID *int64) (models.Issue, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE issues SET sprint_id = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, sprintID, id)
	if err != nil {
		return models.Issue{}, fmt.Errorf("update issue sprint: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return models.Issue{}, err
	}
	if affected == 0 {
		return models.Issue{}, ErrIssueNotFound
	}
	return s.GetIssue(ctx, id)
}

// DeleteIssue removes an issue; its comments go with it via cascade.
func (s *Store) DeleteIssue(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM issues WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete issue: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrIssueNotFound
	}
	return nil
}
