package service

import (
	"context"

	"github.com/QuangNH139/jira-nidec-sub000/internal/apperr"
	"github.com/QuangNH139/jira-nidec-sub000/internal/models"
)

// CreateComment adds a comment to an issue, authored by the actor.
func (s *Service) CreateComment(ctx context.Context, actor models.User, issueID int64, content string) (models.Comment, error) {
	issue, err := s.store.GetIssue(ctx, issueID)
	if err != nil {
		return models.Comment{}, s.mapStoreErr(err)
	}
	if err := s.requireProjectAccess(ctx, actor, issue.ProjectID, "comment_create"); err != nil {
		return models.Comment{}, err
	}
	if content == "" {
		return models.Comment{}, apperr.Validation("comment content is required")
	}

	created, err := s.store.CreateComment(ctx, models.Comment{IssueID: issueID, AuthorID: actor.ID, Content: content})
	if err != nil {
		return models.Comment{}, s.mapStoreErr(err)
	}
	s.audit(ctx, actor, &issue.ProjectID, "comment_created", map[string]any{"issue_id": issueID, "comment_id": created.ID})
	return created, nil
}

// ListComments returns an issue's comments, oldest first.
func (s *Service) ListComments(ctx context.Context, actor models.User, issueID int64) ([]models.Comment, error) {
	issue, err := s.store.GetIssue(ctx, issueID)
	if err != nil {
		return nil, s.mapStoreErr(err)
	}
	if err := s.requireProjectAccess(ctx, actor, issue.ProjectID, "comments_read"); err != nil {
		return nil, err
	}
	comments, err := s.store.ListComments(ctx, issueID)
	if err != nil {
		return nil, s.mapStoreErr(err)
	}
	return comments, nil
}

// UpdateComment edits the comment body. The actor must still be a member of
// the issue's project and must be the author or an admin; the issue and
// author links never move.
func (s *Service) UpdateComment(ctx context.Context, actor models.User, id int64, content string) (models.Comment, error) {
	current, err := s.store.GetComment(ctx, id)
	if err != nil {
		return models.Comment{}, s.mapStoreErr(err)
	}
	issue, err := s.store.GetIssue(ctx, current.IssueID)
	if err != nil {
		return models.Comment{}, s.mapStoreErr(err)
	}
	if err := s.requireProjectAccess(ctx, actor, issue.ProjectID, "comment_update"); err != nil {
		return models.Comment{}, err
	}
	if current.AuthorID != actor.ID && actor.Role != models.RoleAdmin {
		return models.Comment{}, apperr.Forbidden("only the author may edit a comment")
	}
	if content == "" {
		return models.Comment{}, apperr.Validation("comment content is required")
	}
	updated, err := s.store.UpdateComment(ctx, id, content)
	if err != nil {
		return models.Comment{}, s.mapStoreErr(err)
	}
	return updated, nil
}

// DeleteComment removes a comment. The actor must still be a member of the
// issue's project and must be the author or an admin.
func (s *Service) DeleteComment(ctx context.Context, actor models.User, id int64) error {
	current, err := s.store.GetComment(ctx, id)
	if err != nil {
		return s.mapStoreErr(err)
	}
	issue, err := s.store.GetIssue(ctx, current.IssueID)
	if err != nil {
		return s.mapStoreErr(err)
	}
	if err := s.requireProjectAccess(ctx, actor, issue.ProjectID, "comment_delete"); err != nil {
		return err
	}
	if current.AuthorID != actor.ID && actor.Role != models.RoleAdmin {
		return apperr.Forbidden("only the author may delete a comment")
	}
	if err := s.store.DeleteComment(ctx, id); err != nil {
		return s.mapStoreErr(err)
	}
	return nil
}
