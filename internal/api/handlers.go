package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"task-manager/internal/filter"
	"task-manager/internal/model"
	"task-manager/internal/service"
)

func (s *Server) entry(c *fiber.Ctx, handler string) *logrus.Entry {
	return s.log.WithFields(logrus.Fields{
		"component":  "http_handler",
		"handler":    handler,
		"request_id": requestID(c),
	})
}

// fail classifies err into a 400, 404 or 500 response. message is what a
// client sees for a store failure.
func (s *Server) fail(c *fiber.Ctx, log *logrus.Entry, message string, err error) error {
	var verr *model.ValidationError
	switch {
	case errors.As(err, &verr):
		log.WithError(err).Warn("invalid input")
		return c.Status(fiber.StatusBadRequest).JSON(errorResponse{
			Message: verr.Message,
			Field:   verr.Field,
		})
	case errors.Is(err, service.ErrNotFound):
		log.Warn("task not found")
		return c.Status(fiber.StatusNotFound).JSON(errorResponse{Message: "Task not found"})
	default:
		log.WithError(err).Error(message)
		resp := errorResponse{Message: message}
		if s.dev {
			resp.Error = err.Error()
		}
		return c.Status(fiber.StatusInternalServerError).JSON(resp)
	}
}

func badBody(c *fiber.Ctx, log *logrus.Entry, err error) error {
	log.WithError(err).Warn("invalid request body")
	return c.Status(fiber.StatusBadRequest).JSON(errorResponse{Message: "Invalid request body"})
}

// health handles GET /health.
func (s *Server) health(c *fiber.Ctx) error {
	return c.JSON(healthResponse{Status: "ok"})
}

// listTasks handles GET /api/tasks. Optional query parameters narrow and
// order the list the same way the client-side views do.
func (s *Server) listTasks(c *fiber.Ctx) error {
	log := s.entry(c, "ListTasks")

	criteria := filter.Criteria{
		Search:   c.Query("search"),
		Category: c.Query("category"),
		Priority: c.Query("priority"),
		Tab:      filter.Tab(c.Query("tab")),
	}
	if err := criteria.Validate(); err != nil {
		return s.fail(c, log, "Error fetching tasks", err)
	}
	sortKey, err := filter.ParseSortKey(c.Query("sort"))
	if err != nil {
		return s.fail(c, log, "Error fetching tasks", err)
	}

	tasks, err := s.tasks.List(c.UserContext())
	if err != nil {
		return s.fail(c, log, "Error fetching tasks", err)
	}

	visible := filter.Apply(tasks, criteria, s.now())
	filter.Sort(visible, sortKey)

	log.WithField("count", len(visible)).Debug("tasks listed")
	return c.JSON(visible)
}

// taskStats handles GET /api/tasks/stats.
func (s *Server) taskStats(c *fiber.Ctx) error {
	log := s.entry(c, "TaskStats")

	st, err := s.tasks.Stats(c.UserContext(), s.now())
	if err != nil {
		return s.fail(c, log, "Error computing statistics", err)
	}
	return c.JSON(st)
}

// createTask handles POST /api/tasks.
func (s *Server) createTask(c *fiber.Ctx) error {
	log := s.entry(c, "CreateTask")

	var req createTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c, log, err)
	}

	task, err := s.tasks.CreateTask(c.UserContext(), req.input())
	if err != nil {
		return s.fail(c, log, "Error creating task", err)
	}

	log.WithField("task_id", task.ID).Info("task created")
	return c.Status(fiber.StatusCreated).JSON(task)
}

// updateTask handles PUT /api/tasks/:id.
func (s *Server) updateTask(c *fiber.Ctx) error {
	id := c.Params("id")
	log := s.entry(c, "UpdateTask").WithField("task_id", id)

	var req updateTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c, log, err)
	}

	task, err := s.tasks.UpdateTask(c.UserContext(), id, req.patch())
	if err != nil {
		return s.fail(c, log, "Error updating task", err)
	}

	log.Info("task updated")
	return c.JSON(task)
}

// deleteTask handles DELETE /api/tasks/:id.
func (s *Server) deleteTask(c *fiber.Ctx) error {
	id := c.Params("id")
	log := s.entry(c, "DeleteTask").WithField("task_id", id)

	if err := s.tasks.DeleteTask(c.UserContext(), id); err != nil {
		return s.fail(c, log, "Error deleting task", err)
	}

	log.Info("task deleted")
	return c.JSON(messageResponse{Message: "Task deleted successfully"})
}

// reorderTasks handles PUT /api/tasks/reorder.
func (s *Server) reorderTasks(c *fiber.Ctx) error {
	log := s.entry(c, "ReorderTasks")

	var req reorderRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c, log, err)
	}

	tasks, err := s.tasks.Reorder(c.UserContext(), req.ids())
	if err != nil {
		return s.fail(c, log, "Error reordering tasks", err)
	}

	log.WithField("count", len(tasks)).Info("tasks reordered")
	return c.JSON(tasks)
}
