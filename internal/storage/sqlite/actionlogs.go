package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/QuangNH139/jira-nidec-sub000/internal/models"
)

// RecordAction appends an audit row. Callers treat this as fire-and-forget;
// errors are returned for logging but must never fail the wrapped operation.
func (s *Store) RecordAction(ctx context.Context, l models.ActionLog) error {
	if l.Details == "" {
		l.Details = "{}"
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO action_logs(user_id, project_id, action, details, request_id) VALUES(?, ?, ?, ?, ?)`,
		l.UserID, l.ProjectID, l.Action, l.Details, l.RequestID)
	if err != nil {
		return fmt.Errorf("insert action log: %w", err)
	}
	return nil
}

// ListProjectActivity returns a project's audit trail, newest first.
func (s *Store) ListProjectActivity(ctx context.Context, projectID int64, limit int) ([]models.ActionLog, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT l.id, l.user_id, l.project_id, l.action, l.details, l.request_id,
            COALESCE(u.full_name, ''), l.created_at
         FROM action_logs l
         LEFT JOIN users u ON u.id = l.user_id
         WHERE l.project_id = ?
         ORDER BY l.created_at DESC, l.id DESC
         LIMIT ?`, projectID, limit)
	if err != nil {
		return nil, fmt.Errorf("list activity: %w", err)
	}
	defer rows.Close()

	var logs []models.ActionLog
	for rows.Next() {
		var (
			l         models.ActionLog
			userID    sql.NullInt64
			projectID sql.NullInt64
		)
		if err := rows.Scan(&l.ID, &userID, &projectID, &l.Action, &l.Details, &l.RequestID, &l.ActorName, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan action log: %w", err)
		}
		l.UserID = nullInt(userID)
		l.ProjectID = nullInt(projectID)
		logs = append(logs, l)
	}
	return logs, rows.Err()
}
