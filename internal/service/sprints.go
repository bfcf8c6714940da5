package service

import (
	"context"
	"errors"
	"time"

	"github.com/QuangNH139/jira-nidec-sub000/internal/apperr"
	"github.com/QuangNH139/jira-nidec-sub000/internal/models"
	"github.com/QuangNH139/jira-nidec-sub000/internal/storage/sqlite"
)

// CreateSprint creates a planned sprint in the project.
func (s *Service) CreateSprint(ctx context.Context, actor models.User, sp models.Sprint) (models.Sprint, error) {
	if err := s.requireProjectAccess(ctx, actor, sp.ProjectID, "sprint_create"); err != nil {
		return models.Sprint{}, err
	}
	if sp.Name == "" {
		return models.Sprint{}, apperr.Validation("sprint name is required")
	}
	created, err := s.store.CreateSprint(ctx, sp)
	if err != nil {
		return models.Sprint{}, s.mapStoreErr(err)
	}
	s.audit(ctx, actor, &created.ProjectID, "sprint_created", map[string]any{"sprint_id": created.ID, "name": created.Name})
	return created, nil
}

// ListSprints returns the project's sprints.
func (s *Service) ListSprints(ctx context.Context, actor models.User, projectID int64) ([]models.Sprint, error) {
	if err := s.requireProjectAccess(ctx, actor, projectID, "sprints_read"); err != nil {
		return nil, err
	}
	sprints, err := s.store.ListSprints(ctx, projectID)
	if err != nil {
		return nil, s.mapStoreErr(err)
	}
	return sprints, nil
}

// GetActiveSprint returns the project's running sprint, or nil when no
// sprint is active.
func (s *Service) GetActiveSprint(ctx context.Context, actor models.User, projectID int64) (*models.Sprint, error) {
	if err := s.requireProjectAccess(ctx, actor, projectID, "sprint_read"); err != nil {
		return nil, err
	}
	sp, err := s.store.GetActiveSprint(ctx, projectID)
	if errors.Is(err, sqlite.ErrSprintNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, s.mapStoreErr(err)
	}
	return &sp, nil
}

// UpdateSprint changes the sprint's name, goal or dates.
func (s *Service) UpdateSprint(ctx context.Context, actor models.User, id int64, name, goal string, startDate, endDate *time.Time) (models.Sprint, error) {
	current, err := s.store.GetSprint(ctx, id)
	if err != nil {
		return models.Sprint{}, s.mapStoreErr(err)
	}
	if err := s.requireProjectAccess(ctx, actor, current.ProjectID, "sprint_update"); err != nil {
		return models.Sprint{}, err
	}
	if name == "" {
		return models.Sprint{}, apperr.Validation("sprint name is required")
	}
	updated, err := s.store.UpdateSprint(ctx, id, name, goal, startDate, endDate)
	if err != nil {
		return models.Sprint{}, s.mapStoreErr(err)
	}
	s.audit(ctx, actor, &updated.ProjectID, "sprint_updated", map[string]any{"sprint_id": id})
	return updated, nil
}

// StartSprint activates a sprint. Any other active sprint of the project is
// completed first; demote and promote run in one transaction, so the project
// ends with exactly one active sprint.
func (s *Service) StartSprint(ctx context.Context, actor models.User, id int64) (models.Sprint, error) {
	current, err := s.store.GetSprint(ctx, id)
	if err != nil {
		return models.Sprint{}, s.mapStoreErr(err)
	}
	if err := s.requireProjectAccess(ctx, actor, current.ProjectID, "sprint_start"); err != nil {
		return models.Sprint{}, err
	}
	if current.Status == models.SprintCompleted {
		return models.Sprint{}, apperr.Validation("completed sprints cannot be restarted")
	}

	started, err := s.store.StartSprint(ctx, id)
	if err != nil {
		return models.Sprint{}, s.mapStoreErr(err)
	}
	s.audit(ctx, actor, &started.ProjectID, "sprint_started", map[string]any{"sprint_id": id, "name": started.Name})
	return started, nil
}

// CompleteSprint closes a sprint. The operation is idempotent.
func (s *Service) CompleteSprint(ctx context.Context, actor models.User, id int64) (models.Sprint, error) {
	current, err := s.store.GetSprint(ctx, id)
	if err != nil {
		return models.Sprint{}, s.mapStoreErr(err)
	}
	if err := s.requireProjectAccess(ctx, actor, current.ProjectID, "sprint_complete"); err != nil {
		return models.Sprint{}, err
	}

	completed, err := s.store.CompleteSprint(ctx, id)
	if err != nil {
		return models.Sprint{}, s.mapStoreErr(err)
	}
	s.audit(ctx, actor, &completed.ProjectID, "sprint_completed", map[string]any{"sprint_id": id, "name": completed.Name})
	return completed, nil
}

// DeleteSprint removes a sprint. Its issues return to the backlog rather
// than being deleted; detach and delete run in one transaction.
func (s *Service) DeleteSprint(ctx context.Context, actor models.User, id int64) error {
	current, err := s.store.GetSprint(ctx, id)
	if err != nil {
		return s.mapStoreErr(err)
	}
	if err := s.requireProjectAccess(ctx, actor, current.ProjectID, "sprint_delete"); err != nil {
		return err
	}
	if err := s.store.DeleteSprint(ctx, id); err != nil {
		return s.mapStoreErr(err)
	}
	s.audit(ctx, actor, &current.ProjectID, "sprint_deleted", map[string]any{"sprint_id": id, "name": current.Name})
	return nil
}
