package upstream

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/compass-pm/compass/internal/access"
)

// User is a backend user record, role assignments included.
type User struct {
	ID          int64               `json:"id"`
	Email       string              `json:"email"`
	Name        string              `json:"name"`
	IsActive    bool                `json:"is_active"`
	Assignments []access.Assignment `json:"assignments"`
	CreatedAt   time.Time           `json:"created_at"`
}

// UserList is a filtered page of users.
type UserList struct {
	Items []User `json:"items"`
	Total int    `json:"total"`
}

// UserFilter narrows user list queries.
type UserFilter struct {
	Search  string
	Role    string
	Page    int
	PerPage int
}

// Values encodes the filter as query parameters, omitting zero values.
func (f UserFilter) Values() url.Values {
	v := url.Values{}
	if f.Search != "" {
		v.Set("search", f.Search)
	}
	if f.Role != "" {
		v.Set("role", f.Role)
	}
	if f.Page > 0 {
		v.Set("page", strconv.Itoa(f.Page))
	}
	if f.PerPage > 0 {
		v.Set("per_page", strconv.Itoa(f.PerPage))
	}
	return v
}

// RoleAssignmentInput grants or revokes a role, optionally project-scoped.
type RoleAssignmentInput struct {
	Role      access.Role `json:"role" validate:"required"`
	ProjectID *int64      `json:"project_id,omitempty" validate:"omitempty,gt=0"`
}

// ListUsers fetches users matching the filter.
func (c *Client) ListUsers(ctx context.Context, filter UserFilter) (UserList, error) {
	var list UserList
	if err := c.get(ctx, "/users", filter.Values(), &list); err != nil {
		return UserList{}, err
	}
	return list, nil
}

// GetUser fetches one user by ID.
func (c *Client) GetUser(ctx context.Context, id int64) (User, error) {
	var user User
	if err := c.get(ctx, fmt.Sprintf("/users/%d", id), nil, &user); err != nil {
		return User{}, err
	}
	return user, nil
}

// AssignRole grants a role to a user and returns the updated record.
func (c *Client) AssignRole(ctx context.Context, userID int64, in RoleAssignmentInput) (User, error) {
	var user User
	if err := c.post(ctx, fmt.Sprintf("/users/%d/roles", userID), in, &user); err != nil {
		return User{}, err
	}
	return user, nil
}

// RemoveRole revokes a role from a user and returns the updated record.
func (c *Client) RemoveRole(ctx context.Context, userID int64, in RoleAssignmentInput) (User, error) {
	var user User
	if err := c.do(ctx, "DELETE", fmt.Sprintf("/users/%d/roles", userID), nil, in, &user); err != nil {
		return User{}, err
	}
	return user, nil
}
