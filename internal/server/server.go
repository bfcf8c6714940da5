package server

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/QuangNH139/jira-nidec-sub000/internal/apperr"
	"github.com/QuangNH139/jira-nidec-sub000/internal/models"
	"github.com/QuangNH139/jira-nidec-sub000/internal/service"
)

// Server provides HTTP handlers for the board backend.
type Server struct {
	engine    *gin.Engine
	svc       *service.Service
	logger    *slog.Logger
	staticDir string
}

// New constructs the HTTP server with routes and middleware configured.
func New(svc *service.Service, logger *slog.Logger, staticDir string) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(gin.LoggerWithWriter(gin.DefaultWriter))

	srv := &Server{
		engine:    router,
		svc:       svc,
		logger:    logger,
		staticDir: staticDir,
	}

	srv.registerRoutes()
	return srv
}

// Engine exposes the underlying Gin engine.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// registerRoutes wires all API and static handlers together.
func (s *Server) registerRoutes() {
	api := s.engine.Group("/api")
	api.Use(s.requestID())
	{
		api.GET("/healthz", s.handleHealth)

		authed := api.Group("")
		authed.Use(s.identity())
		{
			users := authed.Group("/users")
			{
				users.GET("", s.handleListUsers)
				users.POST("", s.handleCreateUser)
				users.GET(":id", s.handleGetUser)
				users.DELETE(":id", s.handleDeleteUser)
			}

			projects := authed.Group("/projects")
			{
				projects.GET("", s.handleListProjects)
				projects.POST("", s.handleCreateProject)
				projects.GET(":id", s.handleGetProject)
				projects.PUT(":id", s.handleUpdateProject)
				projects.DELETE(":id", s.handleDeleteProject)

				projects.GET(":id/members", s.handleListMembers)
				projects.POST(":id/members", s.handleAddMember)
				projects.DELETE(":id/members/:userID", s.handleRemoveMember)

				projects.GET(":id/statuses", s.handleListStatuses)
				projects.POST(":id/statuses", s.handleCreateStatus)

				projects.GET(":id/sprints", s.handleListSprints)
				projects.POST(":id/sprints", s.handleCreateSprint)
				projects.GET(":id/sprints/active", s.handleGetActiveSprint)

				projects.GET(":id/issues", s.handleListIssues)
				projects.POST(":id/issues", s.handleCreateIssue)
				projects.GET(":id/board", s.handleKanbanBoard)
				projects.GET(":id/backlog", s.handleBacklog)
				projects.GET(":id/stats", s.handleProjectStats)
				projects.GET(":id/activity", s.handleProjectActivity)
			}

			sprints := authed.Group("/sprints")
			{
				sprints.PUT(":id", s.handleUpdateSprint)
				sprints.DELETE(":id", s.handleDeleteSprint)
				sprints.POST(":id/start", s.handleStartSprint)
				sprints.POST(":id/complete", s.handleCompleteSprint)
				sprints.GET(":id/stats", s.handleSprintStats)
			}

			issues := authed.Group("/issues")
			{
				issues.GET(":id", s.handleGetIssue)
				issues.PUT(":id", s.handleUpdateIssue)
				issues.DELETE(":id", s.handleDeleteIssue)
				issues.PATCH(":id/status", s.handleUpdateIssueStatus)
				issues.PATCH(":id/sprint", s.handleUpdateIssueSprint)
				issues.GET(":id/comments", s.handleListComments)
				issues.POST(":id/comments", s.handleCreateComment)
			}

			comments := authed.Group("/comments")
			{
				comments.PUT(":id", s.handleUpdateComment)
				comments.DELETE(":id", s.handleDeleteComment)
			}
		}
	}

	s.mountStatic()
}

// handleHealth provides a basic readiness endpoint.
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// parseID converts a path parameter to int64 with error handling.
func parseID(c *gin.Context, name string) (int64, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid identifier"})
		return 0, false
	}
	return id, true
}

// parseIDString converts a query value to int64.
func parseIDString(raw string) (int64, error) {
	return strconv.ParseInt(raw, 10, 64)
}

// respondError maps an error to the API taxonomy and logs internal ones.
func (s *Server) respondError(c *gin.Context, err error) {
	apiErr := apperr.From(err)
	if apiErr.Status >= http.StatusInternalServerError {
		s.logger.Error("request failed",
			slog.String("path", c.FullPath()),
			slog.String("error", err.Error()))
	}
	c.JSON(apiErr.Status, gin.H{"error": apiErr.Message, "code": apiErr.Code})
}

// respondBadRequest wraps binding failures as validation errors.
func (s *Server) respondBadRequest(c *gin.Context, err error) {
	s.respondError(c, apperr.Validation(err.Error()))
}

// respondSuccess wraps a payload in a JSON envelope for consistency.
func respondSuccess(c *gin.Context, status int, payload any) {
	if payload == nil {
		c.Status(status)
		return
	}
	c.JSON(status, payload)
}

// actorFrom returns the authenticated user placed by the identity middleware.
func actorFrom(c *gin.Context) (models.User, bool) {
	v, ok := c.Get(actorKey)
	if !ok {
		return models.User{}, false
	}
	actor, ok := v.(models.User)
	return actor, ok
}

var errNoActor = errors.New("request has no authenticated user")
