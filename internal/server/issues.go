package server

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/QuangNH139/jira-nidec-sub000/internal/apperr"
	"github.com/QuangNH139/jira-nidec-sub000/internal/models"
	"github.com/QuangNH139/jira-nidec-sub000/internal/storage/sqlite"
)

type issueRequest struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	Type        *string    `json:"type"`
	Priority    *string    `json:"priority"`
	StatusID    *int64     `json:"status_id"`
	SprintID    *int64     `json:"sprint_id"`
	AssigneeID  *int64     `json:"assignee_id"`
	StoryPoints *int64     `json:"story_points"`
	StartDate   *time.Time `json:"start_date"`
	ImageBefore *string    `json:"image_before"`
	ImageAfter  *string    `json:"image_after"`
}

// handleListIssues fetches a project's issues. The sprint query narrows to
// one sprint, or to the backlog with sprint=none.
func (s *Server) handleListIssues(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		s.respondError(c, errNoActor)
		return
	}
	projectID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var filter sqlite.IssueFilter
	switch sprint := c.Query("sprint"); sprint {
	case "":
	case "none":
		filter.Backlog = true
	default:
		sprintID, err := parseIDString(sprint)
		if err != nil {
			s.respondError(c, apperr.Validation("sprint query must be a sprint id or \"none\""))
			return
		}
		filter.SprintID = &sprintID
	}

	issues, err := s.svc.ListIssues(c.Request.Context(), actor, projectID, filter)
	if err != nil {
		s.respondError(c, err)
		return
	}
	if issues == nil {
		issues = []models.Issue{}
	}
	respondSuccess(c, http.StatusOK, gin.H{"issues": issues})
}

// handleCreateIssue creates an issue in a project.
func (s *Server) handleCreateIssue(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		s.respondError(c, errNoActor)
		return
	}
	projectID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req issueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondBadRequest(c, err)
		return
	}
	if req.Title == nil || *req.Title == "" {
		s.respondError(c, apperr.Validation("title is required"))
		return
	}
	if req.StatusID == nil {
		s.respondError(c, apperr.Validation("status_id is required"))
		return
	}

	issue := models.Issue{
		ProjectID:   projectID,
		Title:       *req.Title,
		Description: getString(req.Description),
		Type:        models.IssueType(getString(req.Type)),
		Priority:    models.Priority(getString(req.Priority)),
		StatusID:    *req.StatusID,
		SprintID:    req.SprintID,
		AssigneeID:  req.AssigneeID,
		StoryPoints: req.StoryPoints,
		StartDate:   req.StartDate,
		ImageBefore: getString(req.ImageBefore),
		ImageAfter:  getString(req.ImageAfter),
	}

	created, err := s.svc.CreateIssue(c.Request.Context(), actor, issue)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, gin.H{"issue": created})
}

// handleGetIssue returns a single issue with display fields.
func (s *Server) handleGetIssue(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		s.respondError(c, errNoActor)
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	issue, err := s.svc.GetIssue(c.Request.Context(), actor, id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"issue": issue})
}

// handleUpdateIssue applies a partial update. Omitted fields keep their
// stored value; a zero assignee_id clears the assignment.
func (s *Server) handleUpdateIssue(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		s.respondError(c, errNoActor)
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req issueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondBadRequest(c, err)
		return
	}

	upd := sqlite.IssueUpdate{
		Title:       req.Title,
		Description: req.Description,
		StatusID:    req.StatusID,
		ImageBefore: req.ImageBefore,
		ImageAfter:  req.ImageAfter,
	}
	if req.Type != nil {
		t := models.IssueType(*req.Type)
		upd.Type = &t
	}
	if req.Priority != nil {
		p := models.Priority(*req.Priority)
		upd.Priority = &p
	}
	if req.SprintID != nil {
		upd.SprintID = optionalID(*req.SprintID)
	}
	if req.AssigneeID != nil {
		upd.AssigneeID = optionalID(*req.AssigneeID)
	}
	if req.StoryPoints != nil {
		upd.StoryPoints = optionalID(*req.StoryPoints)
	}
	if req.StartDate != nil {
		upd.StartDate = &sql.NullTime{Time: *req.StartDate, Valid: true}
	}

	issue, err := s.svc.UpdateIssue(c.Request.Context(), actor, id, upd)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"issue": issue})
}

// handleUpdateIssueStatus moves an issue to another board column.
func (s *Server) handleUpdateIssueStatus(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		s.respondError(c, errNoActor)
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req struct {
		StatusID *int64 `json:"status_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondBadRequest(c, err)
		return
	}
	if req.StatusID == nil {
		s.respondError(c, apperr.Validation("status_id is required"))
		return
	}

	issue, err := s.svc.UpdateIssueStatus(c.Request.Context(), actor, id, *req.StatusID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"issue": issue})
}

// handleUpdateIssueSprint moves an issue into a sprint, or back to the
// backlog when sprint_id is null or omitted.
func (s *Server) handleUpdateIssueSprint(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		s.respondError(c, errNoActor)
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req struct {
		SprintID *int64 `json:"sprint_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondBadRequest(c, err)
		return
	}

	var (
		issue models.Issue
		err   error
	)
	if req.SprintID == nil || *req.SprintID == 0 {
		issue, err = s.svc.RemoveFromSprint(c.Request.Context(), actor, id)
	} else {
		issue, err = s.svc.AssignToSprint(c.Request.Context(), actor, id, *req.SprintID)
	}
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"issue": issue})
}

// handleDeleteIssue removes an issue completely.
func (s *Server) handleDeleteIssue(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		s.respondError(c, errNoActor)
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := s.svc.DeleteIssue(c.Request.Context(), actor, id); err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"status": "deleted"})
}

// handleKanbanBoard returns one column per status with its issues.
func (s *Server) handleKanbanBoard(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		s.respondError(c, errNoActor)
		return
	}
	projectID, ok := parseID(c, "id")
	if !ok {
		return
	}
	columns, err := s.svc.KanbanBoard(c.Request.Context(), actor, projectID, c.Query("sprint"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"columns": columns})
}

// handleBacklog returns the backlog partition of the project's issues.
func (s *Server) handleBacklog(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		s.respondError(c, errNoActor)
		return
	}
	projectID, ok := parseID(c, "id")
	if !ok {
		return
	}
	view, err := s.svc.BacklogView(c.Request.Context(), actor, projectID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, view)
}

func getString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

// optionalID turns a request id into the tri-state update value; zero means
// "clear the field".
func optionalID(v int64) *sql.NullInt64 {
	if v == 0 {
		return &sql.NullInt64{}
	}
	return &sql.NullInt64{Int64: v, Valid: true}
}
