package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"onboardbuddy/models"
	"onboardbuddy/stores"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	app      *fiber.App
	registry *stores.Registry
}

// newTestEnv serves the workspace handlers for a fixed signed-in user.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	registry := stores.NewRegistry(stores.NewMemoryBackend(), stores.WorkspaceOptions{Location: time.UTC})
	logger := log.New(io.Discard, "", 0)

	user := &models.User{Email: "hr@example.com"}
	user.ID = 1

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("user", user)
		return c.Next()
	})

	gc := NewGalleryController(registry, logger)
	app.Post("/gallery/items", gc.CreateItem)
	app.Post("/gallery/tags", gc.AddVocabularyTag)
	app.Put("/gallery/tags/:tag", gc.RenameVocabularyTag)
	app.Delete("/gallery/tags/:tag", gc.DeleteVocabularyTag)

	mc := NewMissionController(registry, logger)
	app.Get("/missions", mc.GetMissions)
	app.Post("/missions", mc.CreateMission)
	app.Get("/missions/:id", mc.GetMission)
	app.Post("/missions/:id/refresh", mc.RefreshProgress)

	tc := NewTaskController(registry, logger)
	app.Get("/tasks/:id", tc.GetTask)
	app.Post("/tasks/:id/toggle", tc.ToggleTask)

	ec := NewEmployeeController(registry, logger)
	app.Post("/employees", ec.CreateEmployee)
	app.Get("/employees", ec.GetEmployees)
	app.Delete("/employees/:id", ec.DeleteEmployee)

	return &testEnv{app: app, registry: registry}
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}) (int, map[string]interface{}) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	out := map[string]interface{}{}
	raw, _ := io.ReadAll(resp.Body)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out))
	}
	return resp.StatusCode, out
}

func TestGalleryItemsCompleteMission(t *testing.T) {
	env := newTestEnv(t)

	for _, tag := range []string{"setup", "setup", "equipment"} {
		status, _ := env.do(t, http.MethodPost, "/gallery/items", map[string]interface{}{
			"type":  "photo",
			"title": "desk",
			"tags":  []string{tag},
		})
		require.Equal(t, fiber.StatusCreated, status)
	}

	status, body := env.do(t, http.MethodGet, "/missions/workspace-setup", nil)
	require.Equal(t, fiber.StatusOK, status)
	mission := body["data"].(map[string]interface{})
	assert.Equal(t, true, mission["completed"])
	assert.Equal(t, 100.0, mission["progress"])

	_, body = env.do(t, http.MethodGet, "/missions?status=completed", nil)
	assert.Len(t, body["data"], 1)
}

func TestCreateItemRejectsUnknownType(t *testing.T) {
	env := newTestEnv(t)
	status, body := env.do(t, http.MethodPost, "/gallery/items", map[string]interface{}{"type": "video"})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "type must be photo or note", body["error"])
}

func TestCreateMissionReportsEveryProblem(t *testing.T) {
	env := newTestEnv(t)
	status, body := env.do(t, http.MethodPost, "/missions", map[string]interface{}{
		"requirements": []map[string]interface{}{{"tag": "", "count": 0}},
	})
	require.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, []interface{}{
		"Title is required",
		"Description is required",
		"Tag is required for requirement #1",
		"Count must be at least 1 for requirement #1",
	}, body["problems"])
}

func TestRenameVocabularyTagFollowsMissions(t *testing.T) {
	env := newTestEnv(t)
	status, _ := env.do(t, http.MethodPut, "/gallery/tags/setup", map[string]interface{}{"name": "desk-setup"})
	require.Equal(t, fiber.StatusOK, status)

	ws, err := env.registry.Workspace(context.Background(), 1)
	require.NoError(t, err)
	m, ok := ws.Missions.Mission("workspace-setup")
	require.True(t, ok)
	assert.Equal(t, "desk-setup", m.Requirements[0].Tag)
}

func TestTaskHandlers(t *testing.T) {
	env := newTestEnv(t)

	status, _ := env.do(t, http.MethodGet, "/tasks/abc", nil)
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, _ = env.do(t, http.MethodGet, "/tasks/999", nil)
	assert.Equal(t, fiber.StatusNotFound, status)

	status, body := env.do(t, http.MethodPost, "/tasks/1/toggle", nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, true, body["data"].(map[string]interface{})["completed"])
}

func TestDeleteEmployeeArchivesByDefault(t *testing.T) {
	env := newTestEnv(t)
	status, body := env.do(t, http.MethodPost, "/employees", map[string]interface{}{
		"full_name":        "Sam Rivera",
		"start_date":       time.Now().Format("2006-01-02"),
		"position":         "Engineer",
		"department":       "IT",
		"work_arrangement": "hybrid",
		"supervisor":       map[string]interface{}{"id": "s1", "name": "Alex Kim", "email": "alex@example.com", "department": "IT"},
		"contact":          map[string]interface{}{"email": "sam@example.com", "phone": "555-0100"},
		"priority":         "medium",
	})
	require.Equal(t, fiber.StatusCreated, status, body)
	id := body["data"].(map[string]interface{})["id"].(string)

	status, _ = env.do(t, http.MethodDelete, "/employees/"+id, nil)
	require.Equal(t, fiber.StatusNoContent, status)

	_, body = env.do(t, http.MethodGet, "/employees", nil)
	assert.Empty(t, body["data"])
	_, body = env.do(t, http.MethodGet, "/employees?include_archived=true", nil)
	assert.Len(t, body["data"], 1)
}

func TestStoreErrorStatuses(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{&stores.ValidationError{Problems: []string{"x"}}, fiber.StatusBadRequest},
		{stores.ErrInvalidDueDate, fiber.StatusBadRequest},
		{stores.ErrNotFound, fiber.StatusNotFound},
		{stores.ErrEmployeeNotFound, fiber.StatusNotFound},
		{stores.ErrNotArchived, fiber.StatusNotFound},
		{errors.New("boom"), fiber.StatusInternalServerError},
	}
	for _, tc := range cases {
		app := fiber.New()
		app.Get("/", func(c *fiber.Ctx) error { return storeError(c, tc.err) })

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
		require.NoError(t, err)
		assert.Equal(t, tc.status, resp.StatusCode, tc.err.Error())
	}
}

func TestRefreshMissionProgress(t *testing.T) {
	env := newTestEnv(t)

	status, body := env.do(t, http.MethodPost, "/missions/onboarding-basics/refresh", nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "onboarding-basics", body["data"].(map[string]interface{})["id"])

	status, _ = env.do(t, http.MethodPost, "/missions/unknown/refresh", nil)
	assert.Equal(t, fiber.StatusNotFound, status)
}

func TestVocabularyTagWithSpaces(t *testing.T) {
	env := newTestEnv(t)
	status, _ := env.do(t, http.MethodPost, "/gallery/tags", map[string]interface{}{"tag": "follow up"})
	require.Equal(t, fiber.StatusCreated, status)

	status, body := env.do(t, http.MethodPut, "/gallery/tags/follow%20up", map[string]interface{}{"name": "next steps"})
	require.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, body["data"], "next steps")
	assert.NotContains(t, body["data"], "follow up")

	status, _ = env.do(t, http.MethodDelete, "/gallery/tags/next%20steps", nil)
	require.Equal(t, fiber.StatusNoContent, status)

	ws, err := env.registry.Workspace(context.Background(), 1)
	require.NoError(t, err)
	assert.NotContains(t, ws.Gallery.Vocabulary(), "next steps")
}
