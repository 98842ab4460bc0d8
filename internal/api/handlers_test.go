package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"task-manager/internal/logger"
	"task-manager/internal/model"
	"task-manager/internal/repository"
	"task-manager/internal/service"
	"task-manager/internal/stats"
)

var fixedNow = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

type testServer struct {
	*Server
	db *gorm.DB
}

func setupServer(t *testing.T, dev bool) *testServer {
	t.Helper()

	db, err := repository.NewDB(filepath.Join(t.TempDir(), "tasks.db"), logger.Discard())
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	svc := service.NewTaskService(repository.NewTaskRepository(db))
	srv := New(svc, logger.Discard(), Options{
		AllowedOrigins: []string{"http://localhost:3000"},
		Development:    dev,
		Now:            func() time.Time { return fixedNow },
	})
	return &testServer{Server: srv, db: db}
}

func (s *testServer) do(t *testing.T, method, path string, body any) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			reader = bytes.NewBufferString(b)
		default:
			raw, err := json.Marshal(b)
			require.NoError(t, err)
			reader = bytes.NewReader(raw)
		}
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := s.App().Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()

	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func (s *testServer) create(t *testing.T, body map[string]any) model.Task {
	t.Helper()
	resp := s.do(t, http.MethodPost, "/api/tasks", body)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return decode[model.Task](t, resp)
}

func TestCreateAndList(t *testing.T) {
	s := setupServer(t, false)

	resp := s.do(t, http.MethodPost, "/api/tasks", map[string]any{"title": "Buy milk"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	raw := decode[map[string]any](t, resp)

	assert.NotEmpty(t, raw["id"])
	assert.Equal(t, "Buy milk", raw["title"])
	assert.Equal(t, "", raw["description"])
	assert.Equal(t, false, raw["completed"])
	assert.Equal(t, "medium", raw["priority"])
	assert.Equal(t, "default", raw["category"])
	assert.Contains(t, raw, "dueDate")
	assert.Nil(t, raw["dueDate"])
	assert.NotEmpty(t, raw["createdAt"])
	assert.NotContains(t, raw, "SortIndex")

	resp = s.do(t, http.MethodGet, "/api/tasks", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	tasks := decode[[]model.Task](t, resp)
	require.Len(t, tasks, 1)
	assert.Equal(t, raw["id"], tasks[0].ID)
}

func TestListEmptyIsArray(t *testing.T) {
	s := setupServer(t, false)

	resp := s.do(t, http.MethodGet, "/api/tasks", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(body))
}

func TestListNewestFirst(t *testing.T) {
	s := setupServer(t, false)

	first := s.create(t, map[string]any{"title": "first"})
	second := s.create(t, map[string]any{"title": "second"})

	tasks := decode[[]model.Task](t, s.do(t, http.MethodGet, "/api/tasks", nil))
	require.Len(t, tasks, 2)
	assert.Equal(t, second.ID, tasks[0].ID)
	assert.Equal(t, first.ID, tasks[1].ID)
}

func TestCreateValidation(t *testing.T) {
	s := setupServer(t, false)

	cases := map[string]any{
		"missing title": map[string]any{"description": "no title"},
		"empty title":   map[string]any{"title": ""},
		"bad priority":  map[string]any{"title": "x", "priority": "urgent"},
		"bad category":  map[string]any{"title": "x", "category": "hobby"},
		"bad due date":  map[string]any{"title": "x", "dueDate": "someday"},
		"malformed":     `{"title":`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			resp := s.do(t, http.MethodPost, "/api/tasks", body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			errBody := decode[errorResponse](t, resp)
			assert.NotEmpty(t, errBody.Message)
		})
	}

	resp := s.do(t, http.MethodPost, "/api/tasks", map[string]any{})
	assert.Equal(t, "Title is required", decode[errorResponse](t, resp).Message)

	tasks := decode[[]model.Task](t, s.do(t, http.MethodGet, "/api/tasks", nil))
	assert.Empty(t, tasks)
}

func TestUpdatePartial(t *testing.T) {
	s := setupServer(t, false)

	created := s.create(t, map[string]any{
		"title":       "Buy milk",
		"description": "semi-skimmed",
		"priority":    "low",
		"category":    "shopping",
		"dueDate":     "2026-10-20T09:00:00Z",
	})

	resp := s.do(t, http.MethodPut, "/api/tasks/"+created.ID, map[string]any{"completed": true})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	updated := decode[model.Task](t, resp)

	assert.True(t, updated.Completed)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "Buy milk", updated.Title)
	assert.Equal(t, "semi-skimmed", updated.Description)
	assert.Equal(t, model.PriorityLow, updated.Priority)
	assert.Equal(t, model.CategoryShopping, updated.Category)
	require.NotNil(t, updated.DueDate)
	assert.True(t, updated.DueDate.Equal(*created.DueDate))
	assert.True(t, updated.CreatedAt.Equal(created.CreatedAt))
}

func TestUpdateWholeTaskBody(t *testing.T) {
	s := setupServer(t, false)
	created := s.create(t, map[string]any{"title": "Toggle me", "dueDate": "2026-10-25"})

	// The web client sends the full task back with completed flipped.
	body := map[string]any{
		"id":          "something-else",
		"_id":         created.ID,
		"title":       created.Title,
		"description": created.Description,
		"completed":   true,
		"priority":    created.Priority,
		"category":    created.Category,
		"dueDate":     created.DueDate,
		"createdAt":   "2001-01-01T00:00:00Z",
	}
	resp := s.do(t, http.MethodPut, "/api/tasks/"+created.ID, body)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	updated := decode[model.Task](t, resp)

	assert.Equal(t, created.ID, updated.ID)
	assert.True(t, updated.Completed)
	assert.True(t, updated.CreatedAt.Equal(created.CreatedAt))
	require.NotNil(t, updated.DueDate)
	assert.True(t, updated.DueDate.Equal(*created.DueDate))
}

func TestUpdateClearsDueDate(t *testing.T) {
	s := setupServer(t, false)
	created := s.create(t, map[string]any{"title": "Dated", "dueDate": "2026-10-25T10:00:00Z"})

	resp := s.do(t, http.MethodPut, "/api/tasks/"+created.ID, `{"dueDate":null}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Nil(t, decode[model.Task](t, resp).DueDate)
}

func TestUpdateErrors(t *testing.T) {
	s := setupServer(t, false)
	created := s.create(t, map[string]any{"title": "Stable"})

	resp := s.do(t, http.MethodPut, "/api/tasks/unknown", map[string]any{"completed": true})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Task not found", decode[errorResponse](t, resp).Message)

	resp = s.do(t, http.MethodPut, "/api/tasks/"+created.ID, map[string]any{"priority": "urgent"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "priority", decode[errorResponse](t, resp).Field)

	resp = s.do(t, http.MethodPut, "/api/tasks/"+created.ID, map[string]any{"title": "  "})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	tasks := decode[[]model.Task](t, s.do(t, http.MethodGet, "/api/tasks", nil))
	require.Len(t, tasks, 1)
	assert.Equal(t, "Stable", tasks[0].Title)
	assert.Equal(t, model.PriorityMedium, tasks[0].Priority)
}

func TestDelete(t *testing.T) {
	s := setupServer(t, false)
	created := s.create(t, map[string]any{"title": "Bye"})

	resp := s.do(t, http.MethodDelete, "/api/tasks/"+created.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Task deleted successfully", decode[messageResponse](t, resp).Message)

	resp = s.do(t, http.MethodDelete, "/api/tasks/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	tasks := decode[[]model.Task](t, s.do(t, http.MethodGet, "/api/tasks", nil))
	assert.Empty(t, tasks)
}

func TestReorder(t *testing.T) {
	s := setupServer(t, false)
	a := s.create(t, map[string]any{"title": "a"})
	b := s.create(t, map[string]any{"title": "b"})
	c := s.create(t, map[string]any{"title": "c"})

	resp := s.do(t, http.MethodPut, "/api/tasks/reorder", map[string]any{"ids": []string{a.ID, c.ID, b.ID}})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	ordered := decode[[]model.Task](t, resp)
	require.Len(t, ordered, 3)
	assert.Equal(t, []string{a.ID, c.ID, b.ID}, []string{ordered[0].ID, ordered[1].ID, ordered[2].ID})

	// The web client's {tasks: [...]} form.
	resp = s.do(t, http.MethodPut, "/api/tasks/reorder", map[string]any{
		"tasks": []map[string]any{{"_id": b.ID}, {"id": a.ID}, {"id": c.ID}},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	listed := decode[[]model.Task](t, s.do(t, http.MethodGet, "/api/tasks", nil))
	assert.Equal(t, []string{b.ID, a.ID, c.ID}, []string{listed[0].ID, listed[1].ID, listed[2].ID})

	resp = s.do(t, http.MethodPut, "/api/tasks/reorder", map[string]any{"ids": []string{a.ID}})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestListFilters(t *testing.T) {
	s := setupServer(t, false)
	s.create(t, map[string]any{"title": "Report", "category": "work", "priority": "high", "dueDate": "2026-10-17T09:00:00Z"})
	s.create(t, map[string]any{"title": "Groceries", "category": "shopping", "dueDate": "2026-10-19T18:00:00Z"})
	s.create(t, map[string]any{"title": "Course", "category": "education", "dueDate": "2026-10-30T18:00:00Z"})

	titles := func(path string) []string {
		resp := s.do(t, http.MethodGet, path, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var out []string
		for _, task := range decode[[]model.Task](t, resp) {
			out = append(out, task.Title)
		}
		return out
	}

	assert.Equal(t, []string{"Report"}, titles("/api/tasks?tab=overdue"))
	assert.Equal(t, []string{"Groceries"}, titles("/api/tasks?tab=today"))
	assert.Equal(t, []string{"Course"}, titles("/api/tasks?tab=upcoming"))
	assert.Equal(t, []string{"Report"}, titles("/api/tasks?category=work&priority=high"))
	assert.Equal(t, []string{"Groceries"}, titles("/api/tasks?search=GROC"))
	assert.Equal(t, []string{"Course", "Groceries", "Report"}, titles("/api/tasks?sort=title"))

	resp := s.do(t, http.MethodGet, "/api/tasks?tab=someday", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp = s.do(t, http.MethodGet, "/api/tasks?sort=random", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestStatsEndpoint(t *testing.T) {
	s := setupServer(t, false)
	s.create(t, map[string]any{"title": "late", "dueDate": "2026-10-10T09:00:00Z"})
	s.create(t, map[string]any{"title": "today", "dueDate": "2026-10-19T20:00:00Z"})
	done := s.create(t, map[string]any{"title": "done"})
	s.do(t, http.MethodPut, "/api/tasks/"+done.ID, map[string]any{"completed": true})

	resp := s.do(t, http.MethodGet, "/api/tasks/stats", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	st := decode[stats.Statistics](t, resp)
	assert.Equal(t, 3, st.TotalTasks)
	assert.Equal(t, 1, st.CompletedTasks)
	assert.Equal(t, 2, st.PendingTasks)
	assert.Equal(t, 1, st.DueTodayTasks)
	assert.Equal(t, 1, st.OverdueTasksCount)
	assert.InDelta(t, 33.3, st.CompletionRate, 0.1)
}

func TestStoreFailure(t *testing.T) {
	for _, dev := range []bool{false, true} {
		s := setupServer(t, dev)
		sqlDB, err := s.db.DB()
		require.NoError(t, err)
		require.NoError(t, sqlDB.Close())

		resp := s.do(t, http.MethodGet, "/api/tasks", nil)
		require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		body := decode[errorResponse](t, resp)
		assert.Equal(t, "Error fetching tasks", body.Message)
		if dev {
			assert.NotEmpty(t, body.Error)
		} else {
			assert.Empty(t, body.Error)
		}

		resp = s.do(t, http.MethodPost, "/api/tasks", map[string]any{"title": "x"})
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	}
}

func TestHealthMetricsAndUnknownRoute(t *testing.T) {
	s := setupServer(t, false)

	resp := s.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	s.do(t, http.MethodGet, "/api/tasks", nil)
	resp = s.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "http_requests_total")
	assert.Contains(t, string(body), `route="/api/tasks`)

	resp = s.do(t, http.MethodGet, "/api/nope", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.NotEmpty(t, decode[errorResponse](t, resp).Message)
}

func TestCORS(t *testing.T) {
	s := setupServer(t, false)

	req := httptest.NewRequest(http.MethodOptions, "/api/tasks", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPut)
	resp, err := s.App().Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:3000", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", resp.Header.Get("Access-Control-Allow-Credentials"))

	req = httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	resp, err = s.App().Test(req, -1)
	require.NoError(t, err)
	assert.Empty(t, resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestCORSConfig(t *testing.T) {
	cfg := corsConfig([]string{"http://a", "http://b"})
	assert.Equal(t, "http://a,http://b", cfg.AllowOrigins)
	assert.True(t, cfg.AllowCredentials)

	cfg = corsConfig([]string{"*"})
	assert.Equal(t, "*", cfg.AllowOrigins)
	assert.False(t, cfg.AllowCredentials)

	cfg = corsConfig(nil)
	assert.Equal(t, "*", cfg.AllowOrigins)
}
