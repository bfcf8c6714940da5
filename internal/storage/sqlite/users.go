package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/QuangNH139/jira-nidec-sub000/internal/models"
)

// CreateUser persists a new user account.
func (s *Store) CreateUser(ctx context.Context, u models.User) (models.User, error) {
	if strings.TrimSpace(u.Username) == "" {
		return models.User{}, fmt.Errorf("username must not be empty")
	}
	if !u.Role.IsValid() {
		u.Role = models.RoleDeveloper
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO users(username, full_name, email, role) VALUES(?, ?, ?, ?)`,
		strings.TrimSpace(u.Username), strings.TrimSpace(u.FullName), strings.TrimSpace(u.Email), u.Role)
	if err != nil {
		if isUniqueViolation(err) {
			return models.User{}, ErrUserExists
		}
		return models.User{}, fmt.Errorf("insert user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.User{}, fmt.Errorf("user id: %w", err)
	}
	return s.GetUser(ctx, id)
}

// GetUser fetches a single user by id.
func (s *Store) GetUser(ctx context.Context, id int64) (models.User, error) {
	var u models.User
	err := s.db.QueryRowContext(ctx,
		`SELECT id, username, full_name, email, role, created_at, updated_at FROM users WHERE id = ?`, id).
		Scan(&u.ID, &u.Username, &u.FullName, &u.Email, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrUserNotFound
	}
	if err != nil {
		return models.User{}, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// ListUsers retrieves all users ordered by username.
func (s *Store) ListUsers(ctx context.Context) ([]models.User, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, username, full_name, email, role, created_at, updated_at FROM users ORDER BY username`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Username, &u.FullName, &u.Email, &u.Role, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// DeleteUser unassigns the user's issues and removes the account in a single
// transaction. Issues stay behind; only the assignee link is cleared. A user
// who still owns projects cannot be deleted; ownership must move or the
// projects go first.
func (s *Store) DeleteUser(ctx context.Context, id int64) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		var owned int64
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM projects WHERE owner_id = ?`, id).Scan(&owned); err != nil {
			return fmt.Errorf("count owned projects: %w", err)
		}
		if owned > 0 {
			return ErrUserOwnsProjects
		}
		if _, err := tx.ExecContext(ctx, `UPDATE issues SET assignee_id = NULL WHERE assignee_id = ?`, id); err != nil {
			return fmt.Errorf("unassign issues: %w", err)
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("delete user: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return ErrUserNotFound
		}
		return nil
	})
}
