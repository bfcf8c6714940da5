package service

import (
	"context"

	"github.com/QuangNH139/jira-nidec-sub000/internal/apperr"
	"github.com/QuangNH139/jira-nidec-sub000/internal/models"
)

// CreateUser registers a new account. Only admins may create users.
func (s *Service) CreateUser(ctx context.Context, actor models.User, u models.User) (models.User, error) {
	if actor.Role != models.RoleAdmin {
		return models.User{}, apperr.Forbidden("only admins may create users")
	}
	if u.Role != "" && !u.Role.IsValid() {
		return models.User{}, apperr.Validation("unknown role " + string(u.Role))
	}
	created, err := s.store.CreateUser(ctx, u)
	if err != nil {
		return models.User{}, s.mapStoreErr(err)
	}
	s.audit(ctx, actor, nil, "user_created", map[string]any{"user_id": created.ID, "username": created.Username})
	return created, nil
}

// GetUser fetches a single account.
func (s *Service) GetUser(ctx context.Context, id int64) (models.User, error) {
	u, err := s.store.GetUser(ctx, id)
	if err != nil {
		return models.User{}, s.mapStoreErr(err)
	}
	return u, nil
}

// ListUsers returns every account; the list backs assignee pickers.
func (s *Service) ListUsers(ctx context.Context) ([]models.User, error) {
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, s.mapStoreErr(err)
	}
	return users, nil
}

// DeleteUser removes an account. The user's issues survive with a cleared
// assignee; the unassign and the delete happen in one transaction.
func (s *Service) DeleteUser(ctx context.Context, actor models.User, id int64) error {
	if actor.Role != models.RoleAdmin {
		return apperr.Forbidden("only admins may delete users")
	}
	if err := s.store.DeleteUser(ctx, id); err != nil {
		return s.mapStoreErr(err)
	}
	s.audit(ctx, actor, nil, "user_deleted", map[string]any{"user_id": id})
	return nil
}
