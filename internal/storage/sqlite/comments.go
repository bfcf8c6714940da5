package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/QuangNH139/jira-nidec-sub000/internal/models"
)

// CreateComment adds a comment to an issue. Issue and author links are fixed
// at creation.
func (s *Store) CreateComment(ctx context.Context, c models.Comment) (models.Comment, error) {
	if strings.TrimSpace(c.Content) == "" {
		return models.Comment{}, fmt.Errorf("comment content must not be empty")
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO comments(issue_id, author_id, content) VALUES(?, ?, ?)`,
		c.IssueID, c.AuthorID, strings.TrimSpace(c.Content))
	if err != nil {
		return models.Comment{}, fmt.Errorf("insert comment: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.Comment{}, fmt.Errorf("comment id: %w", err)
	}
	return s.GetComment(ctx, id)
}

// GetComment fetches a comment with the author's display name joined in.
func (s *Store) GetComment(ctx context.Context, id int64) (models.Comment, error) {
	var c models.Comment
	err := s.db.QueryRowContext(ctx,
		`SELECT c.id, c.issue_id, c.author_id, u.full_name, c.content, c.created_at, c.updated_at
         FROM comments c JOIN users u ON u.id = c.author_id WHERE c.id = ?`, id).
		Scan(&c.ID, &c.IssueID, &c.AuthorID, &c.AuthorName, &c.Content, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Comment{}, ErrCommentNotFound
	}
	if err != nil {
		return models.Comment{}, fmt.Errorf("get comment: %w", err)
	}
	return c, nil
}

// ListComments returns an issue's comments, oldest first.
func (s *Store) ListComments(ctx context.Context, issueID int64) ([]models.Comment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT c.id, c.issue_id, c.author_id, u.full_name, c.content, c.created_at, c.updated_at
         FROM comments c JOIN users u ON u.id = c.author_id
         WHERE c.issue_id = ? ORDER BY c.created_at ASC, c.id ASC`, issueID)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()

	var comments []models.Comment
	for rows.Next() {
		var c models.Comment
		if err := rows.Scan(&c.ID, &c.IssueID, &c.AuthorID, &c.AuthorName, &c.Content, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

// UpdateComment replaces the comment content.
func (s *Store) UpdateComment(ctx context.Context, id int64, content string) (models.Comment, error) {
	if strings.TrimSpace(content) == "" {
		return models.Comment{}, fmt.Errorf("comment content must not be empty")
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE comments SET content = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		strings.TrimSpace(content), id)
	if err != nil {
		return models.Comment{}, fmt.Errorf("update comment: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return models.Comment{}, err
	}
	if affected == 0 {
		return models.Comment{}, ErrCommentNotFound
	}
	return s.GetComment(ctx, id)
}

// DeleteComment removes a comment by id.
func (s *Store) DeleteComment(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM comments WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrCommentNotFound
	}
	return nil
}
