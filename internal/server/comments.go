package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type commentRequest struct {
	Content string `json:"content"`
}

// handleListComments returns an issue's comments.
func (s *Server) handleListComments(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		s.respondError(c, errNoActor)
		return
	}
	issueID, ok := parseID(c, "id")
	if !ok {
		return
	}
	comments, err := s.svc.ListComments(c.Request.Context(), actor, issueID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"comments": comments})
}

// handleCreateComment adds a comment authored by the caller.
func (s *Server) handleCreateComment(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		s.respondError(c, errNoActor)
		return
	}
	issueID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req commentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondBadRequest(c, err)
		return
	}

	comment, err := s.svc.CreateComment(c.Request.Context(), actor, issueID, req.Content)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, gin.H{"comment": comment})
}

// handleUpdateComment edits a comment body.
func (s *Server) handleUpdateComment(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		s.respondError(c, errNoActor)
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req commentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondBadRequest(c, err)
		return
	}

	comment, err := s.svc.UpdateComment(c.Request.Context(), actor, id, req.Content)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"comment": comment})
}

// handleDeleteComment removes a comment.
func (s *Server) handleDeleteComment(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		s.respondError(c, errNoActor)
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := s.svc.DeleteComment(c.Request.Context(), actor, id); err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"status": "deleted"})
}
