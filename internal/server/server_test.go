package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/QuangNH139/jira-nidec-sub000/internal/models"
	"github.com/QuangNH139/jira-nidec-sub000/internal/service"
	"github.com/QuangNH139/jira-nidec-sub000/internal/storage/sqlite"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "test.db"), slog.Default())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return New(service.New(store, slog.Default()), slog.Default(), "")
}

func doJSON(t *testing.T, srv *Server, method, path string, userID int64, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if userID > 0 {
		req.Header.Set("X-User-ID", fmt.Sprintf("%d", userID))
	}
	rec := httptest.NewRecorder()
	srv.Engine().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder, key string) T {
	t.Helper()
	var envelope map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	var out T
	require.NoError(t, json.Unmarshal(envelope[key], &out))
	return out
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t)
	rec := doJSON(t, srv, http.MethodGet, "/api/healthz", 0, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestIdentityRequired(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/api/projects", 0, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(t, srv, http.MethodGet, "/api/projects", 424242, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequestIDEchoed(t *testing.T) {
	srv := newTestServer(t)
	rec := doJSON(t, srv, http.MethodGet, "/api/healthz", 0, nil)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestBoardFlow(t *testing.T) {
	srv := newTestServer(t)
	admin := int64(1)

	rec := doJSON(t, srv, http.MethodPost, "/api/projects", admin, jsonBody{"key": "FLW", "name": "Flow"})
	require.Equal(t, http.StatusCreated, rec.Code)
	project := decode[models.Project](t, rec, "project")

	rec = doJSON(t, srv, http.MethodGet, fmt.Sprintf("/api/projects/%d/statuses", project.ID), admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	statuses := decode[[]models.IssueStatus](t, rec, "statuses")
	require.Len(t, statuses, 3)

	rec = doJSON(t, srv, http.MethodPost, fmt.Sprintf("/api/projects/%d/issues", project.ID), admin, jsonBody{
		"title":     "first card",
		"type":      "story",
		"priority":  "high",
		"status_id": statuses[0].ID,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	issue := decode[models.Issue](t, rec, "issue")
	assert.Equal(t, models.TypeStory, issue.Type)

	rec = doJSON(t, srv, http.MethodPatch, fmt.Sprintf("/api/issues/%d/status", issue.ID), admin, jsonBody{
		"status_id": statuses[2].ID,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	moved := decode[models.Issue](t, rec, "issue")
	assert.Equal(t, statuses[2].ID, moved.StatusID)

	rec = doJSON(t, srv, http.MethodGet, fmt.Sprintf("/api/projects/%d/board", project.ID), admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	columns := decode[[]models.KanbanColumn](t, rec, "columns")
	require.Len(t, columns, 3)
	assert.Empty(t, columns[0].Issues)
	require.Len(t, columns[2].Issues, 1)
	assert.Equal(t, issue.ID, columns[2].Issues[0].ID)

	rec = doJSON(t, srv, http.MethodGet, fmt.Sprintf("/api/projects/%d/stats", project.ID), admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	stats := decode[models.Stats](t, rec, "stats")
	assert.Equal(t, int64(1), stats.CompletedIssues)
}

func TestForbiddenForNonMembers(t *testing.T) {
	srv := newTestServer(t)
	admin := int64(1)

	rec := doJSON(t, srv, http.MethodPost, "/api/users", admin, jsonBody{"username": "stranger", "full_name": "A Stranger"})
	require.Equal(t, http.StatusCreated, rec.Code)
	stranger := decode[models.User](t, rec, "user")

	rec = doJSON(t, srv, http.MethodPost, "/api/projects", admin, jsonBody{"key": "SEC", "name": "Secret"})
	require.Equal(t, http.StatusCreated, rec.Code)
	project := decode[models.Project](t, rec, "project")

	rec = doJSON(t, srv, http.MethodGet, fmt.Sprintf("/api/projects/%d", project.ID), stranger.ID, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestSprintLifecycleEndpoints(t *testing.T) {
	srv := newTestServer(t)
	admin := int64(1)

	rec := doJSON(t, srv, http.MethodPost, "/api/projects", admin, jsonBody{"key": "SPL", "name": "Sprints"})
	require.Equal(t, http.StatusCreated, rec.Code)
	project := decode[models.Project](t, rec, "project")

	rec = doJSON(t, srv, http.MethodPost, fmt.Sprintf("/api/projects/%d/sprints", project.ID), admin, jsonBody{"name": "Sprint 1"})
	require.Equal(t, http.StatusCreated, rec.Code)
	sprint := decode[models.Sprint](t, rec, "sprint")
	assert.Equal(t, models.SprintPlanned, sprint.Status)

	rec = doJSON(t, srv, http.MethodPost, fmt.Sprintf("/api/sprints/%d/start", sprint.ID), admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	started := decode[models.Sprint](t, rec, "sprint")
	assert.Equal(t, models.SprintActive, started.Status)

	rec = doJSON(t, srv, http.MethodGet, fmt.Sprintf("/api/projects/%d/sprints/active", project.ID), admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	active := decode[models.Sprint](t, rec, "sprint")
	assert.Equal(t, sprint.ID, active.ID)

	rec = doJSON(t, srv, http.MethodPost, fmt.Sprintf("/api/sprints/%d/complete", sprint.ID), admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	completed := decode[models.Sprint](t, rec, "sprint")
	assert.Equal(t, models.SprintCompleted, completed.Status)
}

func TestDuplicateProjectKeyConflict(t *testing.T) {
	srv := newTestServer(t)
	admin := int64(1)

	rec := doJSON(t, srv, http.MethodPost, "/api/projects", admin, jsonBody{"key": "DUP", "name": "One"})
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = doJSON(t, srv, http.MethodPost, "/api/projects", admin, jsonBody{"key": "DUP", "name": "Two"})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

type jsonBody = map[string]any
