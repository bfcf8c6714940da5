package service

import (
	"context"

	"github.com/QuangNH139/jira-nidec-sub000/internal/apperr"
	"github.com/QuangNH139/jira-nidec-sub000/internal/models"
)

// CreateProject creates a project owned by the actor, with the owner
// membership and the three default board columns.
func (s *Service) CreateProject(ctx context.Context, actor models.User, p models.Project) (models.Project, error) {
	if p.Key == "" || p.Name == "" {
		return models.Project{}, apperr.Validation("project key and name are required")
	}
	p.OwnerID = actor.ID
	created, err := s.store.CreateProject(ctx, p)
	if err != nil {
		return models.Project{}, s.mapStoreErr(err)
	}
	s.audit(ctx, actor, &created.ID, "project_created", map[string]any{"key": created.Key, "name": created.Name})
	return created, nil
}

// ListProjects returns every project for admins, otherwise the actor's own.
func (s *Service) ListProjects(ctx context.Context, actor models.User) ([]models.Project, error) {
	var (
		projects []models.Project
		err      error
	)
	if actor.Role == models.RoleAdmin {
		projects, err = s.store.ListProjects(ctx)
	} else {
		projects, err = s.store.ListProjectsForUser(ctx, actor.ID)
	}
	if err != nil {
		return nil, s.mapStoreErr(err)
	}
	return projects, nil
}

// GetProject fetches a project the actor may access.
func (s *Service) GetProject(ctx context.Context, actor models.User, id int64) (models.Project, error) {
	if err := s.requireProjectAccess(ctx, actor, id, "project_read"); err != nil {
		return models.Project{}, err
	}
	p, err := s.store.GetProject(ctx, id)
	if err != nil {
		return models.Project{}, s.mapStoreErr(err)
	}
	return p, nil
}

// UpdateProject renames a project or changes its description.
func (s *Service) UpdateProject(ctx context.Context, actor models.User, id int64, name, description string) (models.Project, error) {
	if err := s.requireProjectAccess(ctx, actor, id, "project_update"); err != nil {
		return models.Project{}, err
	}
	p, err := s.store.UpdateProject(ctx, id, name, description)
	if err != nil {
		return models.Project{}, s.mapStoreErr(err)
	}
	s.audit(ctx, actor, &id, "project_updated", map[string]any{"name": p.Name})
	return p, nil
}

// DeleteProject removes a project and everything scoped to it.
func (s *Service) DeleteProject(ctx context.Context, actor models.User, id int64) error {
	if err := s.requireProjectAccess(ctx, actor, id, "project_delete"); err != nil {
		return err
	}
	if err := s.store.DeleteProject(ctx, id); err != nil {
		return s.mapStoreErr(err)
	}
	s.audit(ctx, actor, nil, "project_deleted", map[string]any{"project_id": id})
	return nil
}

// ListMembers returns the project's member list.
func (s *Service) ListMembers(ctx context.Context, actor models.User, projectID int64) ([]models.ProjectMember, error) {
	if err := s.requireProjectAccess(ctx, actor, projectID, "members_read"); err != nil {
		return nil, err
	}
	members, err := s.store.ListMembers(ctx, projectID)
	if err != nil {
		return nil, s.mapStoreErr(err)
	}
	return members, nil
}

// AddMember adds a user to the project.
func (s *Service) AddMember(ctx context.Context, actor models.User, projectID, userID int64, role models.MemberRole) error {
	if err := s.requireProjectAccess(ctx, actor, projectID, "member_add"); err != nil {
		return err
	}
	if _, err := s.store.GetUser(ctx, userID); err != nil {
		return s.mapStoreErr(err)
	}
	if err := s.store.AddMember(ctx, projectID, userID, role); err != nil {
		return s.mapStoreErr(err)
	}
	s.audit(ctx, actor, &projectID, "member_added", map[string]any{"user_id": userID, "role": role})
	return nil
}

// RemoveMember removes a user from the project. The owner cannot be removed.
func (s *Service) RemoveMember(ctx context.Context, actor models.User, projectID, userID int64) error {
	if err := s.requireProjectAccess(ctx, actor, projectID, "member_remove"); err != nil {
		return err
	}
	p, err := s.store.GetProject(ctx, projectID)
	if err != nil {
		return s.mapStoreErr(err)
	}
	if p.OwnerID == userID {
		return apperr.Validation("project owner cannot be removed")
	}
	if err := s.store.RemoveMember(ctx, projectID, userID); err != nil {
		return s.mapStoreErr(err)
	}
	s.audit(ctx, actor, &projectID, "member_removed", map[string]any{"user_id": userID})
	return nil
}

// ListStatuses returns the project's board columns in display order.
func (s *Service) ListStatuses(ctx context.Context, actor models.User, projectID int64) ([]models.IssueStatus, error) {
	if err := s.requireProjectAccess(ctx, actor, projectID, "statuses_read"); err != nil {
		return nil, err
	}
	statuses, err := s.store.ListStatuses(ctx, projectID)
	if err != nil {
		return nil, s.mapStoreErr(err)
	}
	return statuses, nil
}

// CreateStatus appends a custom column to the project's board.
func (s *Service) CreateStatus(ctx context.Context, actor models.User, st models.IssueStatus) (models.IssueStatus, error) {
	if err := s.requireProjectAccess(ctx, actor, st.ProjectID, "status_create"); err != nil {
		return models.IssueStatus{}, err
	}
	if st.Category != "" && !st.Category.IsValid() {
		return models.IssueStatus{}, apperr.Validation("unknown status category " + string(st.Category))
	}
	created, err := s.store.CreateStatus(ctx, st)
	if err != nil {
		return models.IssueStatus{}, s.mapStoreErr(err)
	}
	s.audit(ctx, actor, &st.ProjectID, "status_created", map[string]any{"status_id": created.ID, "name": created.Name})
	return created, nil
}

// ProjectActivity returns the project's audit trail, newest first.
func (s *Service) ProjectActivity(ctx context.Context, actor models.User, projectID int64, limit int) ([]models.ActionLog, error) {
	if err := s.requireProjectAccess(ctx, actor, projectID, "activity_read"); err != nil {
		return nil, err
	}
	logs, err := s.store.ListProjectActivity(ctx, projectID, limit)
	if err != nil {
		return nil, s.mapStoreErr(err)
	}
	return logs, nil
}
