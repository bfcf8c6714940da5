package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/QuangNH139/jira-nidec-sub000/internal/models"
)

// CreateSprint persists a new sprint in the planned state.
func (s *Store) CreateSprint(ctx context.Context, sp models.Sprint) (models.Sprint, error) {
	if strings.TrimSpace(sp.Name) == "" {
		return models.Sprint{}, fmt.Errorf("sprint name must not be empty")
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO sprints(project_id, name, goal, status, start_date, end_date) VALUES(?, ?, ?, ?, ?, ?)`,
		sp.ProjectID, strings.TrimSpace(sp.Name), sp.Goal, models.SprintPlanned, sp.StartDate, sp.EndDate)
	if err != nil {
		return models.Sprint{}, fmt.Errorf("insert sprint: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.Sprint{}, fmt.Errorf("sprint id: %w", err)
	}
	return s.GetSprint(ctx, id)
}

// GetSprint fetches a single sprint by id.
func (s *Store) GetSprint(ctx context.Context, id int64) (models.Sprint, error) {
	var sp models.Sprint
	err := s.db.QueryRowContext(ctx,
		`SELECT id, project_id, name, goal, status, start_date, end_date, created_at, updated_at
         FROM sprints WHERE id = ?`, id).
		Scan(&sp.ID, &sp.ProjectID, &sp.Name, &sp.Goal, &sp.Status, &sp.StartDate, &sp.EndDate, &sp.CreatedAt, &sp.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Sprint{}, ErrSprintNotFound
	}
	if err != nil {
		return models.Sprint{}, fmt.Errorf("get sprint: %w", err)
	}
	return sp, nil
}

// ListSprints returns the project's sprints, newest first.
func (s *Store) ListSprints(ctx context.Context, projectID int64) ([]models.Sprint, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, project_id, name, goal, status, start_date, end_date, created_at, updated_at
         FROM sprints WHERE project_id = ? ORDER BY created_at DESC, id DESC`, projectID)
	if err != nil {
		return nil, fmt.Errorf("list sprints: %w", err)
	}
	defer rows.Close()

	var sprints []models.Sprint
	for rows.Next() {
		var sp models.Sprint
		if err := rows.Scan(&sp.ID, &sp.ProjectID, &sp.Name, &sp.Goal, &sp.Status, &sp.StartDate, &sp.EndDate, &sp.CreatedAt, &sp.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan sprint: %w", err)
		}
		sprints = append(sprints, sp)
	}
	return sprints, rows.Err()
}

// GetActiveSprint returns the single active sprint of the project, or
// ErrSprintNotFound when none is running.
func (s *Store) GetActiveSprint(ctx context.Context, projectID int64) (models.Sprint, error) {
	var sp models.Sprint
	err := s.db.QueryRowContext(ctx,
		`SELECT id, project_id, name, goal, status, start_date, end_date, created_at, updated_at
         FROM sprints WHERE project_id = ? AND status = ?`, projectID, models.SprintActive).
		Scan(&sp.ID, &sp.ProjectID, &sp.Name, &sp.Goal, &sp.Status, &sp.StartDate, &sp.EndDate, &sp.CreatedAt, &sp.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Sprint{}, ErrSprintNotFound
	}
	if err != nil {
		return models.Sprint{}, fmt.Errorf("get active sprint: %w", err)
	}
	return sp, nil
}

// UpdateSprint changes name, goal and dates; status moves only through
// StartSprint and CompleteSprint.
func (s *Store) UpdateSprint(ctx context.Context, id int64, name, goal string, startDate, endDate *time.Time) (models.Sprint, error) {
	if strings.TrimSpace(name) == "" {
		return models.Sprint{}, fmt.Errorf("sprint name must not be empty")
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE sprints SET name = ?, goal = ?, start_date = ?, end_date = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		strings.TrimSpace(name), goal, startDate, endDate, id)
	if err != nil {
		return models.Sprint{}, fmt.Errorf("update sprint: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return models.Sprint{}, err
	}
	if affected == 0 {
		return models.Sprint{}, ErrSprintNotFound
	}
	return s.GetSprint(ctx, id)
}

// StartSprint demotes every other active sprint of the project to completed
// and promotes this sprint to active, in one transaction. After it returns,
// the project has exactly one active sprint.
func (s *Store) StartSprint(ctx context.Context, id int64) (models.Sprint, error) {
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		var projectID int64
		err := tx.QueryRowContext(ctx, `SELECT project_id FROM sprints WHERE id = ?`, id).Scan(&projectID)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrSprintNotFound
		}
		if err != nil {
			return fmt.Errorf("sprint project: %w", err)
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE sprints SET status = ?, updated_at = CURRENT_TIMESTAMP
             WHERE project_id = ? AND status = ? AND id != ?`,
			models.SprintCompleted, projectID, models.SprintActive, id); err != nil {
			return fmt.Errorf("demote active sprints: %w", err)
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE sprints SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
			models.SprintActive, id); err != nil {
			return fmt.Errorf("promote sprint: %w", err)
		}
		return nil
	})
	if err != nil {
		return models.Sprint{}, err
	}
	return s.GetSprint(ctx, id)
}

// CompleteSprint sets the sprint to completed regardless of its current
// state. Calling it twice is harmless.
func (s *Store) CompleteSprint(ctx context.Context, id int64) (models.Sprint, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE sprints SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		models.SprintCompleted, id)
	if err != nil {
		return models.Sprint{}, fmt.Errorf("complete sprint: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return models.Sprint{}, err
	}
	if affected == 0 {
		return models.Sprint{}, ErrSprintNotFound
	}
	return s.GetSprint(ctx, id)
}

// DeleteSprint detaches the sprint's issues back to the backlog and removes
// the sprint row, in one transaction.
func (s *Store) DeleteSprint(ctx context.Context, id int64) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `UPDATE issues SET sprint_id = NULL WHERE sprint_id = ?`, id); err != nil {
			return fmt.Errorf("detach issues: %w", err)
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM sprints WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("delete sprint: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return ErrSprintNotFound
		}
		return nil
	})
}
