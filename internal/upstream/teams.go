package upstream

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"
)

// Team is a backend team record.
type Team struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	LeaderID    int64     `json:"leader_id"`
	MemberCount int       `json:"member_count"`
	CreatedAt   time.Time `json:"created_at"`
}

// TeamList is a filtered page of teams.
type TeamList struct {
	Items []Team `json:"items"`
	Total int    `json:"total"`
}

// TeamMember is a user's membership in a team.
type TeamMember struct {
	UserID   int64     `json:"user_id"`
	Name     string    `json:"name"`
	Email    string    `json:"email"`
	Role     string    `json:"role"`
	JoinedAt time.Time `json:"joined_at"`
}

// TeamActivity is one entry in a team's activity feed.
type TeamActivity struct {
	ID        int64     `json:"id"`
	TeamID    int64     `json:"team_id"`
	UserID    int64     `json:"user_id"`
	Action    string    `json:"action"`
	Detail    string    `json:"detail"`
	CreatedAt time.Time `json:"created_at"`
}

// TeamPerformance summarises a team's task throughput for one period.
type TeamPerformance struct {
	TeamID         int64   `json:"team_id"`
	Period         string  `json:"period"`
	TasksCompleted int     `json:"tasks_completed"`
	TasksOverdue   int     `json:"tasks_overdue"`
	CompletionRate float64 `json:"completion_rate"`
}

// TeamFilter narrows team list queries.
type TeamFilter struct {
	Search  string
	Page    int
	PerPage int
}

// Values encodes the filter as query parameters, omitting zero values.
func (f TeamFilter) Values() url.Values {
	v := url.Values{}
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

// ListTeams fetches teams matching the filter.
func (c *Client) ListTeams(ctx context.Context, filter TeamFilter) (TeamList, error) {
	var list TeamList
	if err := c.get(ctx, "/teams", filter.Values(), &list); err != nil {
		return TeamList{}, err
	}
	return list, nil
}

// GetTeam fetches one team by ID.
func (c *Client) GetTeam(ctx context.Context, id int64) (Team, error) {
	var team Team
	if err := c.get(ctx, fmt.Sprintf("/teams/%d", id), nil, &team); err != nil {
		return Team{}, err
	}
	return team, nil
}

// ListTeamMembers fetches the members of a team.
func (c *Client) ListTeamMembers(ctx context.Context, teamID int64) ([]TeamMember, error) {
	var members []TeamMember
	if err := c.get(ctx, fmt.Sprintf("/teams/%d/members", teamID), nil, &members); err != nil {
		return nil, err
	}
	return members, nil
}

// ListTeamActivities fetches the recent activity feed of a team.
func (c *Client) ListTeamActivities(ctx context.Context, teamID int64) ([]TeamActivity, error) {
	var activities []TeamActivity
	if err := c.get(ctx, fmt.Sprintf("/teams/%d/activities", teamID), nil, &activities); err != nil {
		return nil, err
	}
	return activities, nil
}

// GetTeamPerformance fetches a team's performance summary for a period
// (empty period means the backend's current one).
func (c *Client) GetTeamPerformance(ctx context.Context, teamID int64, period string) (TeamPerformance, error) {
	query := url.Values{}
	if period != "" {
		query.Set("period", period)
	}
	var perf TeamPerformance
	if err := c.get(ctx, fmt.Sprintf("/teams/%d/performance", teamID), query, &perf); err != nil {
		return TeamPerformance{}, err
	}
	return perf, nil
}
