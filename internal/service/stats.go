package service

import (
	"context"

	"github.com/QuangNH139/jira-nidec-sub000/internal/models"
	"github.com/QuangNH139/jira-nidec-sub000/internal/storage/sqlite"
)

// aggregate folds an issue set into counts and story-point sums. Every issue
// falls into exactly one category bucket; missing story points count as 0.
func aggregate(issues []models.Issue) models.Stats {
	var st models.Stats
	for _, i := range issues {
		st.TotalIssues++
		points := int64(0)
		if i.StoryPoints != nil {
			points = *i.StoryPoints
		}
		st.TotalPoints += points
		switch i.StatusCategory {
		case models.CategoryInProgress:
			st.InProgressIssues++
		case models.CategoryDone:
			st.CompletedIssues++
			st.CompletedPoints += points
		default:
			st.TodoIssues++
		}
	}
	return st
}

// ProjectStats aggregates over every issue of the project.
func (s *Service) ProjectStats(ctx context.Context, actor models.User, projectID int64) (models.Stats, error) {
	if err := s.requireProjectAccess(ctx, actor, projectID, "stats_read"); err != nil {
		return models.Stats{}, err
	}
	issues, err := s.store.ListIssues(ctx, sqlite.IssueFilter{ProjectID: &projectID})
	if err != nil {
		return models.Stats{}, s.mapStoreErr(err)
	}
	return aggregate(issues), nil
}

// SprintStats aggregates over the issues assigned to one sprint.
func (s *Service) SprintStats(ctx context.Context, actor models.User, sprintID int64) (models.Stats, error) {
	sp, err := s.store.GetSprint(ctx, sprintID)
	if err != nil {
		return models.Stats{}, s.mapStoreErr(err)
	}
	if err := s.requireProjectAccess(ctx, actor, sp.ProjectID, "stats_read"); err != nil {
		return models.Stats{}, err
	}
	issues, err := s.store.ListIssues(ctx, sqlite.IssueFilter{SprintID: &sprintID})
	if err != nil {
		return models.Stats{}, s.mapStoreErr(err)
	}
	return aggregate(issues), nil
}
