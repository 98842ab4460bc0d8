package model

import (
	"fmt"
	"strings"
	"time"
)

var dueDateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseDueDate accepts RFC 3339 timestamps and the common zone-less
// forms. Zone-less values are read in the local zone. An empty string
// means no due date.
func ParseDueDate(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	for _, layout := range dueDateLayouts {
		var (
			parsed time.Time
			err    error
		)
		if layout == time.RFC3339Nano {
			parsed, err = time.Parse(layout, raw)
		} else {
			parsed, err = time.ParseInLocation(layout, raw, time.Local)
		}
		if err == nil {
			return &parsed, nil
		}
	}
	return nil, &ValidationError{
		Field:   "dueDate",
		Message: fmt.Sprintf("%q is not a valid date", raw),
	}
}

// civilDay truncates t to midnight in loc.
func civilDay(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// DueOn reports whether the due date falls on the calendar day of ref,
// using ref's zone.
func (t Task) DueOn(ref time.Time) bool {
	if t.DueDate == nil {
		return false
	}
	loc := ref.Location()
	return civilDay(*t.DueDate, loc).Equal(civilDay(ref, loc))
}

// DueBefore reports whether the due date falls on a calendar day before ref's.
func (t Task) DueBefore(ref time.Time) bool {
	if t.DueDate == nil {
		return false
	}
	loc := ref.Location()
	return civilDay(*t.DueDate, loc).Before(civilDay(ref, loc))
}

// DueAfter reports whether the due date falls on a calendar day after ref's.
func (t Task) DueAfter(ref time.Time) bool {
	if t.DueDate == nil {
		return false
	}
	loc := ref.Location()
	return civilDay(*t.DueDate, loc).After(civilDay(ref, loc))
}

// Overdue is DueBefore for tasks that are still open.
func (t Task) Overdue(ref time.Time) bool {
	return !t.Completed && t.DueBefore(ref)
}
