package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/QuangNH139/jira-nidec-sub000/internal/models"
)

// ListStatuses returns the project's board statuses in position order. This
// ordering is load-bearing for Kanban column display.
func (s *Store) ListStatuses(ctx context.Context, projectID int64) ([]models.IssueStatus, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, project_id, name, category, color, position, created_at
         FROM issue_statuses WHERE project_id = ? ORDER BY position, id`, projectID)
	if err != nil {
		return nil, fmt.Errorf("list statuses: %w", err)
	}
	defer rows.Close()

	var statuses []models.IssueStatus
	for rows.Next() {
		var st models.IssueStatus
		if err := rows.Scan(&st.ID, &st.ProjectID, &st.Name, &st.Category, &st.Color, &st.Position, &st.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan status: %w", err)
		}
		statuses = append(statuses, st)
	}
	return statuses, rows.Err()
}

// GetStatus fetches a single board status by id.
func (s *Store) GetStatus(ctx context.Context, id int64) (models.IssueStatus, error) {
	var st models.IssueStatus
	err := s.db.QueryRowContext(ctx,
		`SELECT id, project_id, name, category, color, position, created_at FROM issue_statuses WHERE id = ?`, id).
		Scan(&st.ID, &st.ProjectID, &st.Name, &st.Category, &st.Color, &st.Position, &st.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.IssueStatus{}, ErrStatusNotFound
	}
	if err != nil {
		return models.IssueStatus{}, fmt.Errorf("get status: %w", err)
	}
	return st, nil
}

// CreateStatus appends a custom column to the project's board.
func (s *Store) CreateStatus(ctx context.Context, st models.IssueStatus) (models.IssueStatus, error) {
	if strings.TrimSpace(st.Name) == "" {
		return models.IssueStatus{}, fmt.Errorf("status name must not be empty")
	}
	if !st.Category.IsValid() {
		st.Category = models.CategoryTodo
	}
	if st.Color == "" {
		st.Color = "#64748b"
	}

	pos, err := s.nextStatusPosition(ctx, st.ProjectID)
	if err != nil {
		return models.IssueStatus{}, err
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO issue_statuses(project_id, name, category, color, position) VALUES(?, ?, ?, ?, ?)`,
		st.ProjectID, strings.TrimSpace(st.Name), st.Category, st.Color, pos)
	if err != nil {
		return models.IssueStatus{}, fmt.Errorf("insert status: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.IssueStatus{}, fmt.Errorf("status id: %w", err)
	}
	return s.GetStatus(ctx, id)
}

func (s *Store) nextStatusPosition(ctx context.Context, projectID int64) (int64, error) {
	var position sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		`SELECT MAX(position) FROM issue_statuses WHERE project_id = ?`, projectID).Scan(&position)
	if err != nil {
		return 0, fmt.Errorf("select position: %w", err)
	}
	if position.Valid {
		return position.Int64 + 1, nil
	}
	return 1, nil
}
