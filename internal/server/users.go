package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/QuangNH139/jira-nidec-sub000/internal/models"
)

type userRequest struct {
	Username string `json:"username"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

// handleListUsers returns every account.
func (s *Server) handleListUsers(c *gin.Context) {
	users, err := s.svc.ListUsers(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"users": users})
}

// handleGetUser returns a single account.
func (s *Server) handleGetUser(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	user, err := s.svc.GetUser(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"user": user})
}

// handleCreateUser registers a new account (admin only).
func (s *Server) handleCreateUser(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		s.respondError(c, errNoActor)
		return
	}

	var req userRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondBadRequest(c, err)
		return
	}

	user, err := s.svc.CreateUser(c.Request.Context(), actor, models.User{
		Username: req.Username,
		FullName: req.FullName,
		Email:    req.Email,
		Role:     models.Role(req.Role),
	})
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, gin.H{"user": user})
}

// handleDeleteUser removes an account; the user's issues stay behind
// unassigned.
func (s *Server) handleDeleteUser(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		s.respondError(c, errNoActor)
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := s.svc.DeleteUser(c.Request.Context(), actor, id); err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"status": "deleted"})
}
