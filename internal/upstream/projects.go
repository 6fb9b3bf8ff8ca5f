package upstream

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"
)

// Project is a backend project record.
type Project struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	TeamID      int64      `json:"team_id"`
	LeaderID    int64      `json:"leader_id"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	Progress    int        `json:"progress"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// ProjectList is a filtered page of projects.
type ProjectList struct {
	Items []Project `json:"items"`
	Total int       `json:"total"`
}

// ProjectFilter narrows project list queries.
type ProjectFilter struct {
	Status  string
	TeamID  int64
	Search  string
	Page    int
	PerPage int
}

// Values encodes the filter as query parameters. Zero values are omitted so
// equivalent filters always encode identically.
func (f ProjectFilter) Values() url.Values {
	v := url.Values{}
	if f.Status != "" {
		v.Set("status", f.Status)
	}
	if f.TeamID > 0 {
		v.Set("team_id", strconv.FormatInt(f.TeamID, 10))
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

// ProjectInput is the create/update payload for a project.
type ProjectInput struct {
	Name        string     `json:"name" validate:"required,min=2,max=120"`
	Description string     `json:"description" validate:"max=2000"`
	Status      string     `json:"status" validate:"omitempty,oneof=planned active on_hold done archived"`
	TeamID      int64      `json:"team_id" validate:"required,gt=0"`
	LeaderID    int64      `json:"leader_id" validate:"omitempty,gt=0"`
	DueDate     *time.Time `json:"due_date,omitempty"`
}

// ListProjects fetches projects matching the filter.
func (c *Client) ListProjects(ctx context.Context, filter ProjectFilter) (ProjectList, error) {
	var list ProjectList
	if err := c.get(ctx, "/projects", filter.Values(), &list); err != nil {
		return ProjectList{}, err
	}
	return list, nil
}

// GetProject fetches one project by ID.
func (c *Client) GetProject(ctx context.Context, id int64) (Project, error) {
	var project Project
	if err := c.get(ctx, fmt.Sprintf("/projects/%d", id), nil, &project); err != nil {
		return Project{}, err
	}
	return project, nil
}

// CreateProject creates a project and returns the stored record.
func (c *Client) CreateProject(ctx context.Context, in ProjectInput) (Project, error) {
	var project Project
	if err := c.post(ctx, "/projects", in, &project); err != nil {
		return Project{}, err
	}
	return project, nil
}

// UpdateProject replaces a project and returns the stored record.
func (c *Client) UpdateProject(ctx context.Context, id int64, in ProjectInput) (Project, error) {
	var project Project
	if err := c.put(ctx, fmt.Sprintf("/projects/%d", id), in, &project); err != nil {
		return Project{}, err
	}
	return project, nil
}

// DeleteProject removes a project.
func (c *Client) DeleteProject(ctx context.Context, id int64) error {
	return c.delete(ctx, fmt.Sprintf("/projects/%d", id))
}
