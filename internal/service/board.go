package service

import (
	"context"
	"strconv"

	"github.com/QuangNH139/jira-nidec-sub000/internal/apperr"
	"github.com/QuangNH139/jira-nidec-sub000/internal/models"
	"github.com/QuangNH139/jira-nidec-sub000/internal/storage/sqlite"
)

// SprintFilterBacklog selects only issues without a sprint.
const SprintFilterBacklog = "none"

// KanbanBoard projects the current issue state into columns, one per board
// status in position order. The sprint filter is "" for the whole project,
// "none" for backlog issues only, or a sprint id. Recomputed on every call;
// nothing is materialized.
func (s *Service) KanbanBoard(ctx context.Context, actor models.User, projectID int64, sprintFilter string) ([]models.KanbanColumn, error) {
	if err := s.requireProjectAccess(ctx, actor, projectID, "board_read"); err != nil {
		return nil, err
	}

	statuses, err := s.store.ListStatuses(ctx, projectID)
	if err != nil {
		return nil, s.mapStoreErr(err)
	}

	filter := sqlite.IssueFilter{ProjectID: &projectID}
	switch sprintFilter {
	case "":
	case SprintFilterBacklog:
		filter.Backlog = true
	default:
		sprintID, err := strconv.ParseInt(sprintFilter, 10, 64)
		if err != nil {
			return nil, apperr.Validation("sprint filter must be a sprint id or \"none\"")
		}
		filter.SprintID = &sprintID
	}

	issues, err := s.store.ListIssues(ctx, filter)
	if err != nil {
		return nil, s.mapStoreErr(err)
	}

	byStatus := make(map[int64][]models.Issue, len(statuses))
	for _, i := range issues {
		byStatus[i.StatusID] = append(byStatus[i.StatusID], i)
	}

	columns := make([]models.KanbanColumn, 0, len(statuses))
	for _, st := range statuses {
		col := models.KanbanColumn{Status: st, Issues: byStatus[st.ID]}
		if col.Issues == nil {
			col.Issues = []models.Issue{}
		}
		columns = append(columns, col)
	}
	return columns, nil
}

// BacklogView partitions the project's issues into the backlog and
// per-sprint buckets. Every issue lands in exactly one bucket because
// sprint_id is a single nullable column.
func (s *Service) BacklogView(ctx context.Context, actor models.User, projectID int64) (models.Backlog, error) {
	if err := s.requireProjectAccess(ctx, actor, projectID, "backlog_read"); err != nil {
		return models.Backlog{}, err
	}

	sprints, err := s.store.ListSprints(ctx, projectID)
	if err != nil {
		return models.Backlog{}, s.mapStoreErr(err)
	}
	issues, err := s.store.ListIssues(ctx, sqlite.IssueFilter{ProjectID: &projectID})
	if err != nil {
		return models.Backlog{}, s.mapStoreErr(err)
	}

	view := models.Backlog{Backlog: []models.Issue{}}
	bySprint := make(map[int64][]models.Issue)
	for _, i := range issues {
		if i.SprintID == nil {
			view.Backlog = append(view.Backlog, i)
			continue
		}
		bySprint[*i.SprintID] = append(bySprint[*i.SprintID], i)
	}
	for _, sp := range sprints {
		bucket := bySprint[sp.ID]
		if bucket == nil {
			bucket = []models.Issue{}
		}
		view.Sprints = append(view.Sprints, models.SprintIssues{Sprint: sp, Issues: bucket})
	}
	return view, nil
}
