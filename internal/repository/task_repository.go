package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"task-manager/internal/model"
)

var (
	ErrTaskNotFound  = errors.New("task not found")
	ErrOrderMismatch = errors.New("order does not list every stored task exactly once")
)

// TaskRepository handles CRUD for tasks.
type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// Create inserts the task at the head of the list.
func (r *TaskRepository) Create(ctx context.Context, task *model.Task) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var top int64
		if err := tx.Model(&model.Task{}).Select("COALESCE(MAX(sort_index), 0)").Row().Scan(&top); err != nil {
			return fmt.Errorf("read sort index: %w", err)
		}
		task.SortIndex = top + 1
		return tx.Create(task).Error
	})
	if err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

// List returns every task, head of the list first. Without a reorder
// that is newest first.
func (r *TaskRepository) List(ctx context.Context) ([]model.Task, error) {
	tasks := []model.Task{}
	if err := r.db.WithContext(ctx).
		Order("sort_index DESC").
		Order("created_at DESC").
		Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

func (r *TaskRepository) FindByID(ctx context.Context, id string) (*model.Task, error) {
	var task model.Task
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&task).Error
	switch {
	case err == nil:
		return &task, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, ErrTaskNotFound
	default:
		return nil, fmt.Errorf("find task: %w", err)
	}
}

// Save writes every mutable column of task, including zero values.
func (r *TaskRepository) Save(ctx context.Context, task *model.Task) error {
	res := r.db.WithContext(ctx).Model(task).
		Select("*").
		Omit("id", "created_at").
		Updates(task)
	if res.Error != nil {
		return fmt.Errorf("save task: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrTaskNotFound
	}
	return nil
}

func (r *TaskRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Task{})
	if res.Error != nil {
		return fmt.Errorf("delete task: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrTaskNotFound
	}
	return nil
}

// Reorder persists ids as the new list order. ids must name every stored
// task exactly once.
func (r *TaskRepository) Reorder(ctx context.Context, ids []string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var stored []string
		if err := tx.Model(&model.Task{}).Pluck("id", &stored).Error; err != nil {
			return fmt.Errorf("load task ids: %w", err)
		}
		if !isPermutation(stored, ids) {
			return ErrOrderMismatch
		}

		n := int64(len(ids))
		for i, id := range ids {
			if err := tx.Model(&model.Task{}).
				Where("id = ?", id).
				Update("sort_index", n-int64(i)).Error; err != nil {
				return fmt.Errorf("reorder task %s: %w", id, err)
			}
		}
		return nil
	})
}

func isPermutation(stored, ids []string) bool {
	if len(stored) != len(ids) {
		return false
	}
	seen := make(map[string]bool, len(stored))
	for _, id := range stored {
		seen[id] = false
	}
	for _, id := range ids {
		used, ok := seen[id]
		if !ok || used {
			return false
		}
		seen[id] = true
	}
	return true
}
