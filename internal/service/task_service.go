package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"task-manager/internal/model"
	"task-manager/internal/repository"
	"task-manager/internal/stats"
)

// CreateInput represents data required to create a task. Enum and date
// fields are raw strings; empty means default.
type CreateInput struct {
	Title       string
	Description string
	Priority    string
	Category    string
	DueDate     string
}

// DueDateChange edits the due date: Clear removes it, otherwise Value is parsed.
type DueDateChange struct {
	Clear bool
	Value string
}

// Patch lists the fields an update touches. Nil fields are left as stored.
type Patch struct {
	Title       *string
	Description *string
	Completed   *bool
	Priority    *string
	Category    *string
	DueDate     *DueDateChange
}

// TaskService wraps task-related business logic.
type TaskService struct {
	taskRepo *repository.TaskRepository
}

func NewTaskService(taskRepo *repository.TaskRepository) *TaskService {
	return &TaskService{taskRepo: taskRepo}
}

func (s *TaskService) List(ctx context.Context) ([]model.Task, error) {
	tasks, err := s.taskRepo.List(ctx)
	if err != nil {
		return nil, storeErr("list tasks", err)
	}
	return tasks, nil
}

func (s *TaskService) CreateTask(ctx context.Context, input CreateInput) (*model.Task, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, &model.ValidationError{Field: "title", Message: "Title is required"}
	}

	priority, err := model.ParsePriority(input.Priority)
	if err != nil {
		return nil, err
	}
	category, err := model.ParseCategory(input.Category)
	if err != nil {
		return nil, err
	}
	dueDate, err := model.ParseDueDate(input.DueDate)
	if err != nil {
		return nil, err
	}

	task := model.Task{
		Title:       title,
		Description: input.Description,
		Priority:    priority,
		Category:    category,
		DueDate:     dueDate,
	}
	if err := task.Validate(); err != nil {
		return nil, err
	}

	if err := s.taskRepo.Create(ctx, &task); err != nil {
		return nil, storeErr("create task", err)
	}
	return &task, nil
}

// UpdateTask applies patch to the stored task and returns the result.
// Identifier and creation time are never touched.
func (s *TaskService) UpdateTask(ctx context.Context, id string, patch Patch) (*model.Task, error) {
	task, err := s.taskRepo.FindByID(ctx, id)
	if errors.Is(err, repository.ErrTaskNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, storeErr("find task", err)
	}

	if err := applyPatch(task, patch); err != nil {
		return nil, err
	}
	if err := task.Validate(); err != nil {
		return nil, err
	}

	err = s.taskRepo.Save(ctx, task)
	if errors.Is(err, repository.ErrTaskNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, storeErr("update task", err)
	}
	return task, nil
}

func applyPatch(task *model.Task, patch Patch) error {
	if patch.Title != nil {
		task.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.Description != nil {
		task.Description = *patch.Description
	}
	if patch.Completed != nil {
		task.Completed = *patch.Completed
	}
	if patch.Priority != nil {
		// An explicit empty value is not a request for the default.
		if *patch.Priority == "" {
			return &model.ValidationError{Field: "priority", Message: "priority cannot be empty"}
		}
		p, err := model.ParsePriority(*patch.Priority)
		if err != nil {
			return err
		}
		task.Priority = p
	}
	if patch.Category != nil {
		if *patch.Category == "" {
			return &model.ValidationError{Field: "category", Message: "category cannot be empty"}
		}
		c, err := model.ParseCategory(*patch.Category)
		if err != nil {
			return err
		}
		task.Category = c
	}
	if patch.DueDate != nil {
		if patch.DueDate.Clear {
			task.DueDate = nil
		} else {
			d, err := model.ParseDueDate(patch.DueDate.Value)
			if err != nil {
				return err
			}
			task.DueDate = d
		}
	}
	return nil
}

func (s *TaskService) DeleteTask(ctx context.Context, id string) error {
	err := s.taskRepo.Delete(ctx, id)
	if errors.Is(err, repository.ErrTaskNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return storeErr("delete task", err)
	}
	return nil
}

// Reorder persists ids as the list order and returns the reordered list.
// ids must name every stored task exactly once.
func (s *TaskService) Reorder(ctx context.Context, ids []string) ([]model.Task, error) {
	err := s.taskRepo.Reorder(ctx, ids)
	if errors.Is(err, repository.ErrOrderMismatch) {
		return nil, &model.ValidationError{Field: "ids", Message: "order must list every task exactly once"}
	}
	if err != nil {
		return nil, storeErr("reorder tasks", err)
	}
	return s.List(ctx)
}

// Stats computes the dashboard counters over every stored task.
func (s *TaskService) Stats(ctx context.Context, now time.Time) (stats.Statistics, error) {
	tasks, err := s.List(ctx)
	if err != nil {
		return stats.Statistics{}, err
	}
	return stats.Compute(tasks, now), nil
}
