// Package stats derives the dashboard counters from a task list.
package stats

import (
	"time"

	"task-manager/internal/model"
)

// Statistics summarises a task list as of a reference time.
type Statistics struct {
	TotalTasks        int     `json:"totalTasks"`
	CompletedTasks    int     `json:"completedTasks"`
	PendingTasks      int     `json:"pendingTasks"`
	CompletionRate    float64 `json:"completionRate"`
	DueTodayTasks     int     `json:"dueTodayTasks"`
	OverdueTasksCount int     `json:"overdueTasksCount"`
}

// Compute counts tasks against the calendar day of now, in now's zone.
// A task due today counts as due today whether or not it is completed,
// and never as overdue.
func Compute(tasks []model.Task, now time.Time) Statistics {
	var s Statistics
	s.TotalTasks = len(tasks)
	for _, task := range tasks {
		if task.Completed {
			s.CompletedTasks++
		}
		if task.DueOn(now) {
			s.DueTodayTasks++
		}
		if task.Overdue(now) {
			s.OverdueTasksCount++
		}
	}
	s.PendingTasks = s.TotalTasks - s.CompletedTasks
	if s.TotalTasks > 0 {
		s.CompletionRate = float64(s.CompletedTasks) / float64(s.TotalTasks) * 100
	}
	return s
}

// RoundedRate is the completion rate rounded to a whole percent.
func (s Statistics) RoundedRate() int {
	return int(s.CompletionRate + 0.5)
}
