package main

import (
	"bytes"
	"context"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"task-manager/internal/api"
	"task-manager/internal/logger"
	"task-manager/internal/repository"
	"task-manager/internal/service"
)

func startAPI(t *testing.T) string {
	t.Helper()

	db, err := repository.NewDB(filepath.Join(t.TempDir(), "tasks.db"), logger.Discard())
	require.NoError(t, err)
	svc := service.NewTaskService(repository.NewTaskRepository(db))
	ts := httptest.NewServer(adaptor.FiberApp(api.New(svc, logger.Discard(), api.Options{}).App()))
	t.Cleanup(func() {
		ts.Close()
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return ts.URL
}

func runCmd(t *testing.T, server string, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), append([]string{"--server", server}, args...), &stdout, &stderr)
	return stdout.String(), err
}

func TestAddListAndRemove(t *testing.T) {
	server := startAPI(t)

	out, err := runCmd(t, server, "add", "Buy", "milk", "--priority", "high", "--category", "shopping")
	require.NoError(t, err)
	assert.Equal(t, "Task added successfully!\n", out)

	out, err = runCmd(t, server, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Buy milk")
	assert.Contains(t, out, "high")
	assert.Contains(t, out, "shopping")

	out, err = runCmd(t, server, "list", "--category", "work")
	require.NoError(t, err)
	assert.Equal(t, "No tasks found\n", out)

	lines := strings.Split(strings.TrimSpace(mustList(t, server)), "\n")
	require.Len(t, lines, 2)
	id := strings.Fields(lines[1])[0]

	out, err = runCmd(t, server, "toggle", id)
	require.NoError(t, err)
	assert.Equal(t, "Task completed!\n", out)

	out, err = runCmd(t, server, "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "Completion  100%")

	out, err = runCmd(t, server, "edit", id, "--title", "Buy oat milk")
	require.NoError(t, err)
	assert.Equal(t, "Task updated successfully!\n", out)
	assert.Contains(t, mustList(t, server), "Buy oat milk")

	out, err = runCmd(t, server, "rm", id)
	require.NoError(t, err)
	assert.Equal(t, "Task deleted successfully!\n", out)

	_, err = runCmd(t, server, "rm", id)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Failed to delete task")
}

func TestReorderCommand(t *testing.T) {
	server := startAPI(t)

	for _, title := range []string{"first", "second", "third"} {
		_, err := runCmd(t, server, "add", title)
		require.NoError(t, err)
	}
	// Newest first: third, second, first.
	ids := listedIDs(t, server)
	require.Len(t, ids, 3)

	out, err := runCmd(t, server, "reorder", ids[0], "3")
	require.NoError(t, err)
	assert.Equal(t, "Tasks reordered successfully!\n", out)
	assert.Equal(t, []string{ids[1], ids[2], ids[0]}, listedIDs(t, server))

	_, err = runCmd(t, server, "reorder", ids[0], ids[1])
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Failed to reorder tasks")
}

func TestUsageErrors(t *testing.T) {
	server := startAPI(t)

	_, err := runCmd(t, server)
	assert.Error(t, err)

	_, err = runCmd(t, server, "frobnicate")
	assert.Error(t, err)

	_, err = runCmd(t, server, "add")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Title is required")

	_, err = runCmd(t, server, "list", "--tab", "someday")
	assert.Error(t, err)

	_, err = runCmd(t, server, "edit", "some-id")
	assert.Error(t, err)
}

func mustList(t *testing.T, server string) string {
	t.Helper()
	out, err := runCmd(t, server, "list")
	require.NoError(t, err)
	return out
}

func listedIDs(t *testing.T, server string) []string {
	t.Helper()
	var ids []string
	for i, line := range strings.Split(strings.TrimSpace(mustList(t, server)), "\n") {
		if i == 0 {
			continue
		}
		ids = append(ids, strings.Fields(line)[0])
	}
	return ids
}
