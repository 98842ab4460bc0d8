package client

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"task-manager/internal/filter"
	"task-manager/internal/model"
	"task-manager/internal/stats"
)

const (
	msgFetchFailed   = "Failed to fetch tasks"
	msgAddFailed     = "Failed to add task"
	msgUpdateFailed  = "Failed to update task"
	msgDeleteFailed  = "Failed to delete task"
	msgReorderFailed = "Failed to reorder tasks"
	msgTitleRequired = "Title is required"
)

// Draft is the new-task form.
type Draft struct {
	Title       string
	Description string
	Priority    model.Priority
	Category    model.Category
	DueDate     string
}

// NewDraft returns an empty form with the default priority and category.
func NewDraft() Draft {
	return Draft{
		Priority: model.DefaultPriority,
		Category: model.DefaultCategory,
	}
}

// State holds what a front end shows: the last fetched list, the draft,
// and the latest error and notice. After every successful mutation it
// fetches the whole list again instead of patching it locally.
type State struct {
	mu     sync.Mutex
	client *Client
	log    *logrus.Entry

	tasks  []model.Task
	draft  Draft
	err    string
	notice string
}

func NewState(client *Client, log *logrus.Logger) *State {
	return &State{
		client: client,
		log:    log.WithField("component", "client_state"),
		draft:  NewDraft(),
	}
}

// Refresh replaces the local list with the server's.
func (s *State) Refresh(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refresh(ctx)
}

func (s *State) refresh(ctx context.Context) error {
	tasks, err := s.client.List(ctx)
	if err != nil {
		return s.failed(msgFetchFailed, err)
	}
	s.tasks = tasks
	return nil
}

func (s *State) failed(message string, err error) error {
	s.log.WithError(err).Warn(message)
	s.err = message
	return fmt.Errorf("%s: %w", strings.ToLower(message), err)
}

func (s *State) succeeded(ctx context.Context, notice string) error {
	s.err = ""
	s.notice = notice
	return s.refresh(ctx)
}

// Draft returns the current new-task form.
func (s *State) Draft() Draft {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft
}

func (s *State) SetDraft(d Draft) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft = d
}

// AddDraft creates a task from the draft and resets the form. A blank
// title is rejected without calling the server.
func (s *State) AddDraft(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.TrimSpace(s.draft.Title) == "" {
		s.err = msgTitleRequired
		return &model.ValidationError{Field: "title", Message: msgTitleRequired}
	}

	_, err := s.client.Create(ctx, NewTask{
		Title:       s.draft.Title,
		Description: s.draft.Description,
		Priority:    s.draft.Priority,
		Category:    s.draft.Category,
		DueDate:     s.draft.DueDate,
	})
	if err != nil {
		return s.failed(msgAddFailed, err)
	}

	s.draft = NewDraft()
	return s.succeeded(ctx, "Task added successfully!")
}

// ToggleComplete flips the completed flag of a task in the local list.
func (s *State) ToggleComplete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.find(id)
	if !ok {
		return s.failed(msgUpdateFailed, fmt.Errorf("task %q is not in the list", id))
	}

	completed := !task.Completed
	if _, err := s.client.Update(ctx, id, TaskUpdate{Completed: &completed}); err != nil {
		return s.failed(msgUpdateFailed, err)
	}

	notice := "Task unmarked!"
	if completed {
		notice = "Task completed!"
	}
	return s.succeeded(ctx, notice)
}

func (s *State) Update(ctx context.Context, id string, upd TaskUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.client.Update(ctx, id, upd); err != nil {
		return s.failed(msgUpdateFailed, err)
	}
	return s.succeeded(ctx, "Task updated successfully!")
}

func (s *State) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.client.Delete(ctx, id); err != nil {
		return s.failed(msgDeleteFailed, err)
	}
	return s.succeeded(ctx, "Task deleted successfully!")
}

// Reorder shows ids in the new order at once, then stores it. On failure
// the authoritative list is fetched again.
func (s *State) Reorder(ctx context.Context, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tasks = arrange(s.tasks, ids)

	tasks, err := s.client.Reorder(ctx, ids)
	if err != nil {
		failure := s.failed(msgReorderFailed, err)
		if rerr := s.refresh(ctx); rerr != nil {
			s.err = msgReorderFailed
		}
		return failure
	}

	s.tasks = tasks
	s.err = ""
	s.notice = "Tasks reordered successfully!"
	return nil
}

// Move places the task id at position (zero based) and stores the order.
func (s *State) Move(ctx context.Context, id string, position int) error {
	s.mu.Lock()
	ids := make([]string, 0, len(s.tasks))
	found := false
	for _, t := range s.tasks {
		if t.ID == id {
			found = true
			continue
		}
		ids = append(ids, t.ID)
	}
	s.mu.Unlock()

	if !found {
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.failed(msgReorderFailed, fmt.Errorf("task %q is not in the list", id))
	}

	position = max(0, min(position, len(ids)))
	ids = append(ids[:position], append([]string{id}, ids[position:]...)...)
	return s.Reorder(ctx, ids)
}

func (s *State) DismissError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = ""
}

// Error is the message of the last failed action, or "".
func (s *State) Error() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Notice is the message of the last successful action, or "".
func (s *State) Notice() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.notice
}

// Tasks returns a copy of the local list in server order.
func (s *State) Tasks() []model.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Task(nil), s.tasks...)
}

func (s *State) Stats(now time.Time) stats.Statistics {
	return stats.Compute(s.Tasks(), now)
}

// Visible is the filtered and sorted view of the local list.
func (s *State) Visible(c filter.Criteria, key filter.SortKey, now time.Time) []model.Task {
	visible := filter.Apply(s.Tasks(), c, now)
	filter.Sort(visible, key)
	return visible
}

func (s *State) find(id string) (model.Task, bool) {
	for _, t := range s.tasks {
		if t.ID == id {
			return t, true
		}
	}
	return model.Task{}, false
}

// arrange orders tasks by ids. Tasks missing from ids keep their relative
// order at the end.
func arrange(tasks []model.Task, ids []string) []model.Task {
	byID := make(map[string]model.Task, len(tasks))
	for _, t := range tasks {
		byID[t.ID] = t
	}
	out := make([]model.Task, 0, len(tasks))
	for _, id := range ids {
		if t, ok := byID[id]; ok {
			out = append(out, t)
			delete(byID, id)
		}
	}
	for _, t := range tasks {
		if _, ok := byID[t.ID]; ok {
			out = append(out, t)
		}
	}
	return out
}
