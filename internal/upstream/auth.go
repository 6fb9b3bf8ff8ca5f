package upstream

import (
	"context"

	"github.com/compass-pm/compass/internal/access"
)

// Me fetches the authenticated session user, role assignments included.
// Assignments are normalized before use by gating.
func (c *Client) Me(ctx context.Context) (*access.User, error) {
	var user access.User
	if err := c.get(ctx, "/auth/me", nil, &user); err != nil {
		return nil, err
	}
	user.Assignments = access.NormalizeAssignments(user.Assignments)
	return &user, nil
}

// Logout revokes the backend session for the current token.
func (c *Client) Logout(ctx context.Context) error {
	return c.post(ctx, "/auth/logout", nil, nil)
}
