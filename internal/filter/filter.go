// Package filter selects and orders the tasks shown in a view.
package filter

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"task-manager/internal/model"
)

// All matches any category or priority.
const All = "all"

// Tab is a mutually exclusive view selector.
type Tab string

const (
	TabAll       Tab = "all"
	TabToday     Tab = "today"
	TabUpcoming  Tab = "upcoming"
	TabOverdue   Tab = "overdue"
	TabCompleted Tab = "completed"
)

var Tabs = []Tab{TabAll, TabToday, TabUpcoming, TabOverdue, TabCompleted}

// ParseTab treats an empty string as TabAll.
func ParseTab(raw string) (Tab, error) {
	switch t := Tab(raw); t {
	case "":
		return TabAll, nil
	case TabAll, TabToday, TabUpcoming, TabOverdue, TabCompleted:
		return t, nil
	default:
		return "", &model.ValidationError{Field: "tab", Message: fmt.Sprintf("%q is not a valid tab", raw)}
	}
}

// Criteria is the filter state of a list view. Empty fields match everything.
type Criteria struct {
	Search   string
	Category string
	Priority string
	Tab      Tab
}

// Validate rejects category, priority and tab values outside their enums.
func (c Criteria) Validate() error {
	if c.Category != "" && c.Category != All {
		if _, err := model.ParseCategory(c.Category); err != nil {
			return err
		}
	}
	if c.Priority != "" && c.Priority != All {
		if _, err := model.ParsePriority(c.Priority); err != nil {
			return err
		}
	}
	if _, err := ParseTab(string(c.Tab)); err != nil {
		return err
	}
	return nil
}

// Match reports whether task passes search, category, priority and tab.
func (c Criteria) Match(task model.Task, now time.Time) bool {
	return c.matchSearch(task) &&
		(c.Category == "" || c.Category == All || string(task.Category) == c.Category) &&
		(c.Priority == "" || c.Priority == All || string(task.Priority) == c.Priority) &&
		c.matchTab(task, now)
}

func (c Criteria) matchSearch(task model.Task) bool {
	if c.Search == "" {
		return true
	}
	needle := strings.ToLower(c.Search)
	return strings.Contains(strings.ToLower(task.Title), needle) ||
		strings.Contains(strings.ToLower(task.Description), needle)
}

func (c Criteria) matchTab(task model.Task, now time.Time) bool {
	switch c.Tab {
	case "", TabAll:
		return true
	case TabToday:
		return task.DueOn(now)
	case TabUpcoming:
		return task.DueAfter(now)
	case TabOverdue:
		return task.Overdue(now)
	case TabCompleted:
		return task.Completed
	default:
		return false
	}
}

// Apply keeps the tasks that match c, preserving their order.
func Apply(tasks []model.Task, c Criteria, now time.Time) []model.Task {
	out := make([]model.Task, 0, len(tasks))
	for _, task := range tasks {
		if c.Match(task, now) {
			out = append(out, task)
		}
	}
	return out
}

// SortKey names a list ordering.
type SortKey string

const (
	SortCreated  SortKey = "created"
	SortDue      SortKey = "due"
	SortPriority SortKey = "priority"
	SortTitle    SortKey = "title"
)

// ParseSortKey treats an empty string as SortCreated.
func ParseSortKey(raw string) (SortKey, error) {
	switch k := SortKey(raw); k {
	case "":
		return SortCreated, nil
	case SortCreated, SortDue, SortPriority, SortTitle:
		return k, nil
	default:
		return "", &model.ValidationError{Field: "sort", Message: fmt.Sprintf("%q is not a valid sort key", raw)}
	}
}

// Sort orders tasks in place. SortCreated keeps the server order; the
// other keys are stable so ties keep it too.
func Sort(tasks []model.Task, key SortKey) {
	switch key {
	case SortDue:
		sort.SliceStable(tasks, func(i, j int) bool {
			a, b := tasks[i].DueDate, tasks[j].DueDate
			switch {
			case a == nil:
				return false
			case b == nil:
				return true
			default:
				return a.Before(*b)
			}
		})
	case SortPriority:
		sort.SliceStable(tasks, func(i, j int) bool {
			return tasks[i].Priority.Rank() > tasks[j].Priority.Rank()
		})
	case SortTitle:
		sort.SliceStable(tasks, func(i, j int) bool {
			return strings.ToLower(tasks[i].Title) < strings.ToLower(tasks[j].Title)
		})
	}
}
