package api

import (
	"encoding/json"

	"task-manager/internal/service"
)

type createTaskRequest struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Priority    string  `json:"priority"`
	Category    string  `json:"category"`
	DueDate     *string `json:"dueDate"`
}

func (r createTaskRequest) input() service.CreateInput {
	in := service.CreateInput{
		Title:       r.Title,
		Description: r.Description,
		Priority:    r.Priority,
		Category:    r.Category,
	}
	if r.DueDate != nil {
		in.DueDate = *r.DueDate
	}
	return in
}

// updateTaskRequest ignores id and createdAt so a client may send back a
// whole task.
type updateTaskRequest struct {
	Title       *string        `json:"title"`
	Description *string        `json:"description"`
	Completed   *bool          `json:"completed"`
	Priority    *string        `json:"priority"`
	Category    *string        `json:"category"`
	DueDate     optionalString `json:"dueDate"`
}

func (r updateTaskRequest) patch() service.Patch {
	p := service.Patch{
		Title:       r.Title,
		Description: r.Description,
		Completed:   r.Completed,
		Priority:    r.Priority,
		Category:    r.Category,
	}
	if r.DueDate.Set {
		p.DueDate = &service.DueDateChange{
			Clear: r.DueDate.Null || r.DueDate.Value == "",
			Value: r.DueDate.Value,
		}
	}
	return p
}

// optionalString tells an absent field from an explicit null.
type optionalString struct {
	Set   bool
	Null  bool
	Value string
}

func (o *optionalString) UnmarshalJSON(data []byte) error {
	o.Set = true
	if string(data) == "null" {
		o.Null = true
		return nil
	}
	return json.Unmarshal(data, &o.Value)
}

// reorderRequest accepts either a list of ids or the full task list the
// web client sends.
type reorderRequest struct {
	IDs   []string `json:"ids"`
	Tasks []struct {
		ID       string `json:"id"`
		LegacyID string `json:"_id"`
	} `json:"tasks"`
}

func (r reorderRequest) ids() []string {
	if len(r.IDs) > 0 || len(r.Tasks) == 0 {
		return r.IDs
	}
	ids := make([]string, 0, len(r.Tasks))
	for _, t := range r.Tasks {
		if t.ID != "" {
			ids = append(ids, t.ID)
		} else {
			ids = append(ids, t.LegacyID)
		}
	}
	return ids
}

type messageResponse struct {
	Message string `json:"message"`
}

type errorResponse struct {
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
	Error   string `json:"error,omitempty"`
}

type healthResponse struct {
	Status string `json:"status"`
}
