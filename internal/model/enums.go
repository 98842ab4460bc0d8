package model

import "fmt"

// Priority ranks how urgent a task is.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"

	DefaultPriority = PriorityMedium
)

// Priorities lists every priority, lowest first.
var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh}

// Rank orders priorities; higher is more urgent.
func (p Priority) Rank() int {
	switch p {
	case PriorityLow:
		return 0
	case PriorityMedium:
		return 1
	case PriorityHigh:
		return 2
	default:
		return -1
	}
}

// ParsePriority returns the default for an empty string and rejects unknown values.
func ParsePriority(raw string) (Priority, error) {
	switch p := Priority(raw); p {
	case "":
		return DefaultPriority, nil
	case PriorityLow, PriorityMedium, PriorityHigh:
		return p, nil
	default:
		return "", &ValidationError{
			Field:   "priority",
			Message: fmt.Sprintf("%q is not a valid priority", raw),
		}
	}
}

// Category groups tasks by area of life.
type Category string

const (
	CategoryDefault   Category = "default"
	CategoryWork      Category = "work"
	CategoryPersonal  Category = "personal"
	CategoryShopping  Category = "shopping"
	CategoryHealth    Category = "health"
	CategoryEducation Category = "education"

	DefaultCategory = CategoryDefault
)

var Categories = []Category{
	CategoryDefault,
	CategoryWork,
	CategoryPersonal,
	CategoryShopping,
	CategoryHealth,
	CategoryEducation,
}

// ParseCategory returns the default for an empty string and rejects unknown values.
func ParseCategory(raw string) (Category, error) {
	switch c := Category(raw); c {
	case "":
		return DefaultCategory, nil
	case CategoryDefault, CategoryWork, CategoryPersonal, CategoryShopping, CategoryHealth, CategoryEducation:
		return c, nil
	default:
		return "", &ValidationError{
			Field:   "category",
			Message: fmt.Sprintf("%q is not a valid category", raw),
		}
	}
}
