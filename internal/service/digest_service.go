package service

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	"task-manager/internal/filter"
	"task-manager/internal/model"
	"task-manager/internal/stats"
)

// DigestService builds human-readable summaries for daily notifications.
type DigestService struct {
	taskSvc *TaskService
}

func NewDigestService(taskSvc *TaskService) *DigestService {
	return &DigestService{taskSvc: taskSvc}
}

// Summary renders the counters plus the overdue and open due-today tasks
// as Telegram-flavoured HTML.
func (s *DigestService) Summary(ctx context.Context, now time.Time) (string, error) {
	tasks, err := s.taskSvc.List(ctx)
	if err != nil {
		return "", err
	}
	st := stats.Compute(tasks, now)

	overdue := filter.Apply(tasks, filter.Criteria{Tab: filter.TabOverdue}, now)
	filter.Sort(overdue, filter.SortDue)

	var dueToday []model.Task
	for _, task := range filter.Apply(tasks, filter.Criteria{Tab: filter.TabToday}, now) {
		if !task.Completed {
			dueToday = append(dueToday, task)
		}
	}
	filter.Sort(dueToday, filter.SortPriority)

	var builder strings.Builder
	builder.WriteString("📋 <b>Daily digest</b>\n")
	builder.WriteString(fmt.Sprintf("🗓 %s\n\n", now.Format("2006-01-02")))
	builder.WriteString(fmt.Sprintf("✅ %d/%d done (%d%%) · ⏳ %d due today · ⚠️ %d overdue\n",
		st.CompletedTasks, st.TotalTasks, st.RoundedRate(), st.DueTodayTasks, st.OverdueTasksCount))

	builder.WriteString("\n⚠️ <b>Overdue</b>\n")
	if len(overdue) == 0 {
		builder.WriteString("— nothing overdue\n")
	} else {
		for _, task := range overdue {
			builder.WriteString(formatTask(task, now))
		}
	}

	builder.WriteString("\n⏳ <b>Due today</b>\n")
	if len(dueToday) == 0 {
		builder.WriteString("— nothing left for today\n")
	} else {
		for _, task := range dueToday {
			builder.WriteString(formatTask(task, now))
		}
	}

	return strings.TrimSpace(builder.String()), nil
}

func formatTask(task model.Task, now time.Time) string {
	var sb strings.Builder

	icon := "🟢"
	switch {
	case task.Overdue(now):
		icon = "⚠️"
	case task.Priority == model.PriorityHigh:
		icon = "🔥"
	}

	sb.WriteString(fmt.Sprintf("%s %s", icon, html.EscapeString(strings.TrimSpace(task.Title))))
	if task.Category != model.CategoryDefault && task.Category != "" {
		sb.WriteString(fmt.Sprintf(" <i>(%s)</i>", html.EscapeString(string(task.Category))))
	}

	if task.DueDate != nil && task.Overdue(now) {
		d := task.DueDate.In(now.Location())
		days := daysBetween(d, now)
		sb.WriteString(fmt.Sprintf("\n   ⏰ due %s — <b>%d d late</b>", d.Format("2006-01-02"), days))
	}

	if desc := strings.TrimSpace(task.Description); desc != "" {
		sb.WriteString(fmt.Sprintf("\n   📝 %s", html.EscapeString(desc)))
	}

	sb.WriteByte('\n')
	return sb.String()
}

// daysBetween counts calendar days from a to b in b's zone.
func daysBetween(a, b time.Time) int {
	loc := b.Location()
	ay, am, ad := a.In(loc).Date()
	by, bm, bd := b.Date()
	from := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	to := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(to.Sub(from).Hours() / 24)
}
