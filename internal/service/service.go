package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/QuangNH139/jira-nidec-sub000/internal/apperr"
	"github.com/QuangNH139/jira-nidec-sub000/internal/models"
	"github.com/QuangNH139/jira-nidec-sub000/internal/storage/sqlite"
)

// Service implements the board lifecycle on top of the store: access
// control, referential validation, sprint and issue state transitions,
// projections and the audit trail.
type Service struct {
	store  *sqlite.Store
	logger *slog.Logger
}

// New constructs the service with its dependencies injected.
func New(store *sqlite.Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, logger: logger}
}

type ctxKey int

const requestIDKey ctxKey = 0

// WithRequestID attaches the per-request id used to correlate audit rows
// with log lines.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

func requestIDFrom(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

// requireProjectAccess is the gate in front of every project-scoped read and
// write. Admins always pass; everyone else must be a project member. The
// membership check runs before any existence check, so non-members get the
// same Forbidden answer whether or not the project exists.
func (s *Service) requireProjectAccess(ctx context.Context, actor models.User, projectID int64, action string) error {
	if actor.Role == models.RoleAdmin {
		return nil
	}
	member, err := s.store.IsProjectMember(ctx, projectID, actor.ID)
	if err != nil {
		s.logger.Error("membership check failed", slog.Int64("project_id", projectID), slog.String("error", err.Error()))
		return apperr.Internal()
	}
	if !member {
		s.audit(ctx, actor, &projectID, "access_denied", map[string]any{"action": action})
		return apperr.Forbidden("not a member of this project")
	}
	return nil
}

// audit records an action. Failures are logged and swallowed: the audit
// trail never fails the operation it describes.
func (s *Service) audit(ctx context.Context, actor models.User, projectID *int64, action string, details any) {
	payload, err := json.Marshal(details)
	if err != nil {
		payload = []byte("{}")
	}
	actorID := actor.ID
	entry := models.ActionLog{
		UserID:    &actorID,
		ProjectID: projectID,
		Action:    action,
		Details:   string(payload),
		RequestID: requestIDFrom(ctx),
	}
	if err := s.store.RecordAction(ctx, entry); err != nil {
		s.logger.Error("audit write failed", slog.String("action", action), slog.String("error", err.Error()))
	}
}

// mapStoreErr translates storage sentinels into the API error taxonomy.
// Unknown errors are logged by the caller and become opaque 500s.
func (s *Service) mapStoreErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sqlite.ErrUserNotFound),
		errors.Is(err, sqlite.ErrProjectNotFound),
		errors.Is(err, sqlite.ErrMemberNotFound),
		errors.Is(err, sqlite.ErrStatusNotFound),
		errors.Is(err, sqlite.ErrSprintNotFound),
		errors.Is(err, sqlite.ErrIssueNotFound),
		errors.Is(err, sqlite.ErrCommentNotFound):
		return apperr.NotFound(err.Error())
	case errors.Is(err, sqlite.ErrUserExists),
		errors.Is(err, sqlite.ErrUserOwnsProjects),
		errors.Is(err, sqlite.ErrProjectKeyExists),
		errors.Is(err, sqlite.ErrMemberExists):
		return apperr.Conflict(err.Error())
	default:
		s.logger.Error("storage failure", slog.String("error", err.Error()))
		return apperr.Internal()
	}
}
