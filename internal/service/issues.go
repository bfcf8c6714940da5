package service

import (
	"context"
	"fmt"

	"github.com/QuangNH139/jira-nidec-sub000/internal/apperr"
	"github.com/QuangNH139/jira-nidec-sub000/internal/models"
	"github.com/QuangNH139/jira-nidec-sub000/internal/storage/sqlite"
)

// statusInProject rejects statuses belonging to another project. Without
// this check a Kanban drag could silently point an issue at a foreign
// project's column.
func (s *Service) statusInProject(ctx context.Context, statusID, projectID int64) error {
	st, err := s.store.GetStatus(ctx, statusID)
	if err != nil {
		return s.mapStoreErr(err)
	}
	if st.ProjectID != projectID {
		return apperr.Validation(fmt.Sprintf("status %d does not belong to project %d", statusID, projectID))
	}
	return nil
}

// sprintAcceptsIssues rejects cross-project sprints and sprints that are
// already completed. Completed sprints are closed books; issues may leave
// them but not enter.
func (s *Service) sprintAcceptsIssues(ctx context.Context, sprintID, projectID int64) error {
	sp, err := s.store.GetSprint(ctx, sprintID)
	if err != nil {
		return s.mapStoreErr(err)
	}
	if sp.ProjectID != projectID {
		return apperr.Validation(fmt.Sprintf("sprint %d does not belong to project %d", sprintID, projectID))
	}
	if sp.Status == models.SprintCompleted {
		return apperr.Validation("cannot move issues into a completed sprint")
	}
	return nil
}

// CreateIssue creates an issue in the given project. The reporter defaults
// to the actor.
func (s *Service) CreateIssue(ctx context.Context, actor models.User, i models.Issue) (models.Issue, error) {
	if err := s.requireProjectAccess(ctx, actor, i.ProjectID, "issue_create"); err != nil {
		return models.Issue{}, err
	}
	if i.Title == "" {
		return models.Issue{}, apperr.Validation("issue title is required")
	}
	if i.Type != "" && !i.Type.IsValid() {
		return models.Issue{}, apperr.Validation("unknown issue type " + string(i.Type))
	}
	if i.Priority != "" && !i.Priority.IsValid() {
		return models.Issue{}, apperr.Validation("unknown priority " + string(i.Priority))
	}
	if err := s.statusInProject(ctx, i.StatusID, i.ProjectID); err != nil {
		return models.Issue{}, err
	}
	if i.SprintID != nil {
		if err := s.sprintAcceptsIssues(ctx, *i.SprintID, i.ProjectID); err != nil {
			return models.Issue{}, err
		}
	}
	if i.ReporterID == nil {
		actorID := actor.ID
		i.ReporterID = &actorID
	}

	created, err := s.store.CreateIssue(ctx, i)
	if err != nil {
		return models.Issue{}, s.mapStoreErr(err)
	}
	s.audit(ctx, actor, &created.ProjectID, "issue_created", map[string]any{"issue_id": created.ID, "title": created.Title})
	return created, nil
}

// GetIssue fetches a single issue with display fields.
func (s *Service) GetIssue(ctx context.Context, actor models.User, id int64) (models.Issue, error) {
	i, err := s.store.GetIssue(ctx, id)
	if err != nil {
		return models.Issue{}, s.mapStoreErr(err)
	}
	if err := s.requireProjectAccess(ctx, actor, i.ProjectID, "issue_read"); err != nil {
		return models.Issue{}, err
	}
	return i, nil
}

// ListIssues returns a project's issues, optionally narrowed to one sprint
// or to the backlog.
func (s *Service) ListIssues(ctx context.Context, actor models.User, projectID int64, f sqlite.IssueFilter) ([]models.Issue, error) {
	if err := s.requireProjectAccess(ctx, actor, projectID, "issues_read"); err != nil {
		return nil, err
	}
	f.ProjectID = &projectID
	issues, err := s.store.ListIssues(ctx, f)
	if err != nil {
		return nil, s.mapStoreErr(err)
	}
	return issues, nil
}

// UpdateIssue applies a partial update. Omitted fields keep their value;
// status and sprint changes are validated against the issue's project.
func (s *Service) UpdateIssue(ctx context.Context, actor models.User, id int64, upd sqlite.IssueUpdate) (models.Issue, error) {
	current, err := s.store.GetIssue(ctx, id)
	if err != nil {
		return models.Issue{}, s.mapStoreErr(err)
	}
	if err := s.requireProjectAccess(ctx, actor, current.ProjectID, "issue_update"); err != nil {
		return models.Issue{}, err
	}
	if upd.Type != nil && !upd.Type.IsValid() {
		return models.Issue{}, apperr.Validation("unknown issue type " + string(*upd.Type))
	}
	if upd.Priority != nil && !upd.Priority.IsValid() {
		return models.Issue{}, apperr.Validation("unknown priority " + string(*upd.Priority))
	}
	if upd.StatusID != nil {
		if err := s.statusInProject(ctx, *upd.StatusID, current.ProjectID); err != nil {
			return models.Issue{}, err
		}
	}
	if upd.SprintID != nil && upd.SprintID.Valid {
		if err := s.sprintAcceptsIssues(ctx, upd.SprintID.Int64, current.ProjectID); err != nil {
			return models.Issue{}, err
		}
	}

	updated, err := s.store.UpdateIssue(ctx, id, upd)
	if err != nil {
		return models.Issue{}, s.mapStoreErr(err)
	}
	s.audit(ctx, actor, &updated.ProjectID, "issue_updated", map[string]any{"issue_id": id})
	return updated, nil
}

// UpdateIssueStatus is the Kanban drag primitive: it moves one issue to
// another column and touches nothing else.
func (s *Service) UpdateIssueStatus(ctx context.Context, actor models.User, id, statusID int64) (models.Issue, error) {
	current, err := s.store.GetIssue(ctx, id)
	if err != nil {
		return models.Issue{}, s.mapStoreErr(err)
	}
	if err := s.requireProjectAccess(ctx, actor, current.ProjectID, "issue_status_update"); err != nil {
		return models.Issue{}, err
	}
	if err := s.statusInProject(ctx, statusID, current.ProjectID); err != nil {
		return models.Issue{}, err
	}

	updated, err := s.store.UpdateIssueStatus(ctx, id, statusID)
	if err != nil {
		return models.Issue{}, s.mapStoreErr(err)
	}
	s.audit(ctx, actor, &updated.ProjectID, "issue_status_changed", map[string]any{
		"issue_id": id, "from": current.StatusID, "to": statusID,
	})
	return updated, nil
}

// AssignToSprint is the backlog-to-sprint drag primitive.
func (s *Service) AssignToSprint(ctx context.Context, actor models.User, id, sprintID int64) (models.Issue, error) {
	current, err := s.store.GetIssue(ctx, id)
	if err != nil {
		return models.Issue{}, s.mapStoreErr(err)
	}
	if err := s.requireProjectAccess(ctx, actor, current.ProjectID, "issue_sprint_assign"); err != nil {
		return models.Issue{}, err
	}
	if err := s.sprintAcceptsIssues(ctx, sprintID, current.ProjectID); err != nil {
		return models.Issue{}, err
	}

	updated, err := s.store.SetIssueSprint(ctx, id, &sprintID)
	if err != nil {
		return models.Issue{}, s.mapStoreErr(err)
	}
	s.audit(ctx, actor, &updated.ProjectID, "issue_sprint_assigned", map[string]any{"issue_id": id, "sprint_id": sprintID})
	return updated, nil
}

// RemoveFromSprint moves an issue back to the backlog.
func (s *Service) RemoveFromSprint(ctx context.Context, actor models.User, id int64) (models.Issue, error) {
	current, err := s.store.GetIssue(ctx, id)
	if err != nil {
		return models.Issue{}, s.mapStoreErr(err)
	}
	if err := s.requireProjectAccess(ctx, actor, current.ProjectID, "issue_sprint_remove"); err != nil {
		return models.Issue{}, err
	}

	updated, err := s.store.SetIssueSprint(ctx, id, nil)
	if err != nil {
		return models.Issue{}, s.mapStoreErr(err)
	}
	s.audit(ctx, actor, &updated.ProjectID, "issue_sprint_removed", map[string]any{"issue_id": id})
	return updated, nil
}

// DeleteIssue removes an issue and its comments.
func (s *Service) DeleteIssue(ctx context.Context, actor models.User, id int64) error {
	current, err := s.store.GetIssue(ctx, id)
	if err != nil {
		return s.mapStoreErr(err)
	}
	if err := s.requireProjectAccess(ctx, actor, current.ProjectID, "issue_delete"); err != nil {
		return err
	}
	if err := s.store.DeleteIssue(ctx, id); err != nil {
		return s.mapStoreErr(err)
	}
	s.audit(ctx, actor, &current.ProjectID, "issue_deleted", map[string]any{"issue_id": id, "title": current.Title})
	return nil
}
