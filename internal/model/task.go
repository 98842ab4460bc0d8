package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Task represents a single to-do item.
type Task struct {
	ID          string     `gorm:"primaryKey;size:36" json:"id"`
	Title       string     `gorm:"not null" json:"title"`
	Description string     `json:"description"`
	Completed   bool       `gorm:"default:false" json:"completed"`
	Priority    Priority   `gorm:"size:16;not null" json:"priority"`
	Category    Category   `gorm:"size:16;not null" json:"category"`
	DueDate     *time.Time `json:"dueDate"`
	SortIndex   int64      `gorm:"index" json:"-"`
	CreatedAt   time.Time  `gorm:"index" json:"createdAt"`
	UpdatedAt   time.Time  `json:"-"`
}

// BeforeCreate assigns the identifier on insert.
func (t *Task) BeforeCreate(*gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}

// ApplyDefaults fills the enum fields left empty by the caller.
func (t *Task) ApplyDefaults() {
	if t.Priority == "" {
		t.Priority = DefaultPriority
	}
	if t.Category == "" {
		t.Category = DefaultCategory
	}
}

// Validate checks the same rules the store schema enforces: a non-empty
// title and recognised enum values.
func (t *Task) Validate() error {
	if strings.TrimSpace(t.Title) == "" {
		return &ValidationError{Field: "title", Message: "Title is required"}
	}
	if _, err := ParsePriority(string(t.Priority)); err != nil {
		return err
	}
	if _, err := ParseCategory(string(t.Category)); err != nil {
		return err
	}
	return nil
}
