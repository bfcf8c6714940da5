package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/QuangNH139/jira-nidec-sub000/internal/models"
)

// defaultStatuses are created for every new project, in board order.
var defaultStatuses = []struct {
	name     string
	category models.StatusCategory
	color    string
}{
	{"To Do", models.CategoryTodo, "#64748b"},
	{"In Progress", models.CategoryInProgress, "#2563eb"},
	{"Done", models.CategoryDone, "#059669"},
}

// CreateProject inserts the project, the owner membership and the three
// default board statuses in one transaction.
func (s *Store) CreateProject(ctx context.Context, p models.Project) (models.Project, error) {
	if strings.TrimSpace(p.Key) == "" || strings.TrimSpace(p.Name) == "" {
		return models.Project{}, fmt.Errorf("project key and name must not be empty")
	}

	var id int64
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO projects(key, name, description, owner_id) VALUES(?, ?, ?, ?)`,
			strings.ToUpper(strings.TrimSpace(p.Key)), strings.TrimSpace(p.Name), p.Description, p.OwnerID)
		if err != nil {
			if isUniqueViolation(err) {
				return ErrProjectKeyExists
			}
			return fmt.Errorf("insert project: %w", err)
		}
		id, err = res.LastInsertId()
		if err != nil {
			return fmt.Errorf("project id: %w", err)
		}

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO project_members(project_id, user_id, role) VALUES(?, ?, ?)`,
			id, p.OwnerID, models.MemberOwner); err != nil {
			return fmt.Errorf("insert owner membership: %w", err)
		}

		for i, st := range defaultStatuses {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO issue_statuses(project_id, name, category, color, position) VALUES(?, ?, ?, ?, ?)`,
				id, st.name, st.category, st.color, i+1); err != nil {
				return fmt.Errorf("insert default status: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return models.Project{}, err
	}
	return s.GetProject(ctx, id)
}

// GetProject fetches a single project by id.
func (s *Store) GetProject(ctx context.Context, id int64) (models.Project, error) {
	var p models.Project
	err := s.db.QueryRowContext(ctx,
		`SELECT id, key, name, description, owner_id, created_at, updated_at FROM projects WHERE id = ?`, id).
		Scan(&p.ID, &p.Key, &p.Name, &p.Description, &p.OwnerID, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Project{}, ErrProjectNotFound
	}
	if err != nil {
		return models.Project{}, fmt.Errorf("get project: %w", err)
	}
	return p, nil
}

// ListProjects retrieves all projects ordered by creation date.
func (s *Store) ListProjects(ctx context.Context) ([]models.Project, error) {
	return s.queryProjects(ctx,
		`SELECT id, key, name, description, owner_id, created_at, updated_at FROM projects ORDER BY created_at ASC`)
}

// ListProjectsForUser retrieves the projects the given user is a member of.
func (s *Store) ListProjectsForUser(ctx context.Context, userID int64) ([]models.Project, error) {
	return s.queryProjects(ctx,
		`SELECT p.id, p.key, p.name, p.description, p.owner_id, p.created_at, p.updated_at
         FROM projects p
         JOIN project_members m ON m.project_id = p.id
         WHERE m.user_id = ?
         ORDER BY p.created_at ASC`, userID)
}

func (s *Store) queryProjects(ctx context.Context, query string, args ...any) ([]models.Project, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var projects []models.Project
	for rows.Next() {
		var p models.Project
		if err := rows.Scan(&p.ID, &p.Key, &p.Name, &p.Description, &p.OwnerID, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// UpdateProject changes name and description; the key is immutable.
func (s *Store) UpdateProject(ctx context.Context, id int64, name, description string) (models.Project, error) {
	if strings.TrimSpace(name) == "" {
		return models.Project{}, fmt.Errorf("project name must not be empty")
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE projects SET name = ?, description = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		strings.TrimSpace(name), description, id)
	if err != nil {
		return models.Project{}, fmt.Errorf("update project: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return models.Project{}, err
	}
	if affected == 0 {
		return models.Project{}, ErrProjectNotFound
	}
	return s.GetProject(ctx, id)
}

// DeleteProject removes a project; statuses, sprints, members, issues and
// logs go with it via ON DELETE CASCADE.
func (s *Store) DeleteProject(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrProjectNotFound
	}
	return nil
}

// IsProjectMember reports whether the user appears in the project member list.
func (s *Store) IsProjectMember(ctx context.Context, projectID, userID int64) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM project_members WHERE project_id = ? AND user_id = ?`, projectID, userID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check membership: %w", err)
	}
	return true, nil
}

// ListMembers returns the project's members with joined display names.
func (s *Store) ListMembers(ctx context.Context, projectID int64) ([]models.ProjectMember, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT m.id, m.project_id, m.user_id, m.role, u.username, u.full_name, m.created_at
         FROM project_members m
         JOIN users u ON u.id = m.user_id
         WHERE m.project_id = ?
         ORDER BY m.created_at ASC`, projectID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	var members []models.ProjectMember
	for rows.Next() {
		var m models.ProjectMember
		if err := rows.Scan(&m.ID, &m.ProjectID, &m.UserID, &m.Role, &m.Username, &m.FullName, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

// AddMember adds a user to the project.
func (s *Store) AddMember(ctx context.Context, projectID, userID int64, role models.MemberRole) error {
	if !role.IsValid() {
		role = models.MemberMember
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO project_members(project_id, user_id, role) VALUES(?, ?, ?)`, projectID, userID, role)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrMemberExists
		}
		return fmt.Errorf("add member: %w", err)
	}
	return nil
}

// RemoveMember removes a user from the project member list.
func (s *Store) RemoveMember(ctx context.Context, projectID, userID int64) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM project_members WHERE project_id = ? AND user_id = ?`, projectID, userID)
	if err != nil {
		return fmt.Errorf("remove member: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrMemberNotFound
	}
	return nil
}
