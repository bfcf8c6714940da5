package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/QuangNH139/jira-nidec-sub000/internal/models"
)

type projectRequest struct {
	Key         string `json:"key"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type memberRequest struct {
	UserID int64  `json:"user_id"`
	Role   string `json:"role"`
}

type statusRequest struct {
	Name     string `json:"name"`
	Category string `json:"category"`
	Color    string `json:"color"`
}

// handleListProjects returns the projects visible to the caller.
func (s *Server) handleListProjects(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		s.respondError(c, errNoActor)
		return
	}
	projects, err := s.svc.ListProjects(c.Request.Context(), actor)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"projects": projects})
}

// handleCreateProject creates a project owned by the caller.
func (s *Server) handleCreateProject(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		s.respondError(c, errNoActor)
		return
	}

	var req projectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondBadRequest(c, err)
		return
	}

	project, err := s.svc.CreateProject(c.Request.Context(), actor, models.Project{
		Key:         req.Key,
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, gin.H{"project": project})
}

// handleGetProject returns one project.
func (s *Server) handleGetProject(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		s.respondError(c, errNoActor)
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	project, err := s.svc.GetProject(c.Request.Context(), actor, id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"project": project})
}

// handleUpdateProject renames a project or edits its description.
func (s *Server) handleUpdateProject(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		s.respondError(c, errNoActor)
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req projectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondBadRequest(c, err)
		return
	}

	project, err := s.svc.UpdateProject(c.Request.Context(), actor, id, req.Name, req.Description)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"project": project})
}

// handleDeleteProject removes a project and everything scoped to it.
func (s *Server) handleDeleteProject(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		s.respondError(c, errNoActor)
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := s.svc.DeleteProject(c.Request.Context(), actor, id); err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"status": "deleted"})
}

// handleListMembers returns the project member list.
func (s *Server) handleListMembers(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		s.respondError(c, errNoActor)
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	members, err := s.svc.ListMembers(c.Request.Context(), actor, id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"members": members})
}

// handleAddMember adds a user to the project.
func (s *Server) handleAddMember(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		s.respondError(c, errNoActor)
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req memberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondBadRequest(c, err)
		return
	}

	if err := s.svc.AddMember(c.Request.Context(), actor, id, req.UserID, models.MemberRole(req.Role)); err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, gin.H{"status": "added"})
}

// handleRemoveMember removes a user from the project.
func (s *Server) handleRemoveMember(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		s.respondError(c, errNoActor)
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	userID, err := strconv.ParseInt(c.Param("userID"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid identifier"})
		return
	}
	if err := s.svc.RemoveMember(c.Request.Context(), actor, id, userID); err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"status": "removed"})
}

// handleListStatuses returns the project's board columns.
func (s *Server) handleListStatuses(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		s.respondError(c, errNoActor)
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	statuses, err := s.svc.ListStatuses(c.Request.Context(), actor, id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"statuses": statuses})
}

// handleCreateStatus appends a custom column to the project's board.
func (s *Server) handleCreateStatus(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		s.respondError(c, errNoActor)
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondBadRequest(c, err)
		return
	}

	status, err := s.svc.CreateStatus(c.Request.Context(), actor, models.IssueStatus{
		ProjectID: id,
		Name:      req.Name,
		Category:  models.StatusCategory(req.Category),
		Color:     req.Color,
	})
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, gin.H{"status": status})
}

// handleProjectStats aggregates issue counts and story points.
func (s *Server) handleProjectStats(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		s.respondError(c, errNoActor)
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	stats, err := s.svc.ProjectStats(c.Request.Context(), actor, id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"stats": stats})
}

// handleProjectActivity returns the audit trail for the project.
func (s *Server) handleProjectActivity(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		s.respondError(c, errNoActor)
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	logs, err := s.svc.ProjectActivity(c.Request.Context(), actor, id, limit)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"activity": logs})
}
