package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// Plans lists the plan catalog
func (c *Client) Plans(ctx context.Context) ([]Plan, error) {
	var plans []Plan
	if err := c.doRequest(ctx, http.MethodGet, "/api/v1/plans", nil, &plans); err != nil {
		return nil, err
	}
	return plans, nil
}

// Checkout starts a Stripe checkout for a paid plan
func (c *Client) Checkout(ctx context.Context, planID, duration string) (*Checkout, error) {
	req := map[string]string{"plan_id": planID, "duration": duration}

	var co Checkout
	if err := c.doRequest(ctx, http.MethodPost, "/api/v1/billing/checkout", req, &co); err != nil {
		return nil, err
	}
	return &co, nil
}

// SetPlan assigns a plan to a user without payment. Requires the admin role.
func (c *Client) SetPlan(ctx context.Context, userID, planID, duration string) (*PlanSummary, error) {
	req := map[string]string{"user_id": userID, "plan_id": planID, "duration": duration}

	var summary PlanSummary
	if err := c.doRequest(ctx, http.MethodPost, "/api/v1/billing/subscription", req, &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

// ListUsers returns one page of users with their usage. Requires the admin role.
func (c *Client) ListUsers(ctx context.Context, page, pageSize int) (*UserPage, error) {
	q := url.Values{}
	if page > 0 {
		q.Set("page", fmt.Sprint(page))
	}
	if pageSize > 0 {
		q.Set("page_size", fmt.Sprint(pageSize))
	}
	path := "/api/v1/admin/users"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var out UserPage
	if err := c.doRequest(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SetRole grants or revokes admin rights. Requires the admin role.
func (c *Client) SetRole(ctx context.Context, userID, role string) (*User, error) {
	var u User
	path := "/api/v1/admin/users/" + url.PathEscape(userID) + "/role"
	if err := c.doRequest(ctx, http.MethodPost, path, map[string]string{"role": role}, &u); err != nil {
		return nil, err
	}
	return &u, nil
}
