package upstream

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"
)

// Task is a backend task record.
type Task struct {
	ID          int64      `json:"id"`
	ProjectID   int64      `json:"project_id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	AssigneeID  int64      `json:"assignee_id"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// TaskList is a filtered page of tasks.
type TaskList struct {
	Items []Task `json:"items"`
	Total int    `json:"total"`
}

// TaskFilter narrows task list queries.
type TaskFilter struct {
	ProjectID  int64
	Status     string
	AssigneeID int64
	Search     string
	Page       int
	PerPage    int
}

// Values encodes the filter as query parameters, omitting zero values.
func (f TaskFilter) Values() url.Values {
	v := url.Values{}
	if f.ProjectID > 0 {
		v.Set("project_id", strconv.FormatInt(f.ProjectID, 10))
	}
	if f.Status != "" {
		v.Set("status", f.Status)
	}
	if f.AssigneeID > 0 {
		v.Set("assignee_id", strconv.FormatInt(f.AssigneeID, 10))
	}
	if f.Search != "" {
		v.Set("search", f.Search)
	}
	if f.Page > 0 {
		v.Set("page", strconv.Itoa(f.Page))
	}
	if f.PerPage > 0 {
		v.Set("per_page", strconv.Itoa(f.PerPage))
	}
	return v
}

// TaskInput is the create/update payload for a task.
type TaskInput struct {
	ProjectID   int64      `json:"project_id" validate:"required,gt=0"`
	Title       string     `json:"title" validate:"required,min=2,max=200"`
	Description string     `json:"description" validate:"max=5000"`
	Status      string     `json:"status" validate:"omitempty,oneof=todo in_progress review done"`
	Priority    string     `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
	AssigneeID  int64      `json:"assignee_id" validate:"omitempty,gt=0"`
	DueDate     *time.Time `json:"due_date,omitempty"`
}

// TaskStatusInput moves a task to a new status.
type TaskStatusInput struct {
	Status string `json:"status" validate:"required,oneof=todo in_progress review done"`
}

// ListTasks fetches tasks matching the filter.
func (c *Client) ListTasks(ctx context.Context, filter TaskFilter) (TaskList, error) {
	var list TaskList
	if err := c.get(ctx, "/tasks", filter.Values(), &list); err != nil {
		return TaskList{}, err
	}
	return list, nil
}

// GetTask fetches one task by ID.
func (c *Client) GetTask(ctx context.Context, id int64) (Task, error) {
	var task Task
	if err := c.get(ctx, fmt.Sprintf("/tasks/%d", id), nil, &task); err != nil {
		return Task{}, err
	}
	return task, nil
}

// CreateTask creates a task and returns the stored record.
func (c *Client) CreateTask(ctx context.Context, in TaskInput) (Task, error) {
	var task Task
	if err := c.post(ctx, "/tasks", in, &task); err != nil {
		return Task{}, err
	}
	return task, nil
}

// UpdateTask replaces a task and returns the stored record.
func (c *Client) UpdateTask(ctx context.Context, id int64, in TaskInput) (Task, error) {
	var task Task
	if err := c.put(ctx, fmt.Sprintf("/tasks/%d", id), in, &task); err != nil {
		return Task{}, err
	}
	return task, nil
}

// UpdateTaskStatus moves a task through its workflow.
func (c *Client) UpdateTaskStatus(ctx context.Context, id int64, in TaskStatusInput) (Task, error) {
	var task Task
	if err := c.patch(ctx, fmt.Sprintf("/tasks/%d/status", id), in, &task); err != nil {
		return Task{}, err
	}
	return task, nil
}

// DeleteTask removes a task.
func (c *Client) DeleteTask(ctx context.Context, id int64) error {
	return c.delete(ctx, fmt.Sprintf("/tasks/%d", id))
}
