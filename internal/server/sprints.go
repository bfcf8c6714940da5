package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/QuangNH139/jira-nidec-sub000/internal/models"
)

type sprintRequest struct {
	Name      string     `json:"name"`
	Goal      string     `json:"goal"`
	StartDate *time.Time `json:"start_date"`
	EndDate   *time.Time `json:"end_date"`
}

// handleListSprints returns a project's sprints.
func (s *Server) handleListSprints(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		s.respondError(c, errNoActor)
		return
	}
	projectID, ok := parseID(c, "id")
	if !ok {
		return
	}
	sprints, err := s.svc.ListSprints(c.Request.Context(), actor, projectID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"sprints": sprints})
}

// handleCreateSprint creates a planned sprint in the project.
func (s *Server) handleCreateSprint(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		s.respondError(c, errNoActor)
		return
	}
	projectID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req sprintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondBadRequest(c, err)
		return
	}

	sprint, err := s.svc.CreateSprint(c.Request.Context(), actor, models.Sprint{
		ProjectID: projectID,
		Name:      req.Name,
		Goal:      req.Goal,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
	})
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, gin.H{"sprint": sprint})
}

// handleGetActiveSprint returns the running sprint of a project, if any.
func (s *Server) handleGetActiveSprint(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		s.respondError(c, errNoActor)
		return
	}
	projectID, ok := parseID(c, "id")
	if !ok {
		return
	}
	sprint, err := s.svc.GetActiveSprint(c.Request.Context(), actor, projectID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"sprint": sprint})
}

// handleUpdateSprint changes a sprint's name, goal or dates.
func (s *Server) handleUpdateSprint(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		s.respondError(c, errNoActor)
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req sprintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondBadRequest(c, err)
		return
	}

	sprint, err := s.svc.UpdateSprint(c.Request.Context(), actor, id, req.Name, req.Goal, req.StartDate, req.EndDate)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"sprint": sprint})
}

// handleStartSprint activates a sprint, completing any other active sprint
// of the same project.
func (s *Server) handleStartSprint(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		s.respondError(c, errNoActor)
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	sprint, err := s.svc.StartSprint(c.Request.Context(), actor, id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"sprint": sprint})
}

// handleCompleteSprint closes a sprint.
func (s *Server) handleCompleteSprint(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		s.respondError(c, errNoActor)
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	sprint, err := s.svc.CompleteSprint(c.Request.Context(), actor, id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"sprint": sprint})
}

// handleDeleteSprint removes a sprint; its issues return to the backlog.
func (s *Server) handleDeleteSprint(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		s.respondError(c, errNoActor)
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := s.svc.DeleteSprint(c.Request.Context(), actor, id); err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"status": "deleted"})
}

// handleSprintStats aggregates counts and points over a sprint's issues.
func (s *Server) handleSprintStats(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		s.respondError(c, errNoActor)
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	stats, err := s.svc.SprintStats(c.Request.Context(), actor, id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"stats": stats})
}
