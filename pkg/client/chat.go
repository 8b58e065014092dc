package client

import (
	"context"
	"net/http"
)

// Chat sends one gated chat turn
func (c *Client) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	var resp ChatResponse
	if err := c.doRequest(ctx, http.MethodPost, "/api/v1/chat", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Ask sends a single user message
func (c *Client) Ask(ctx context.Context, prompt, module string) (*ChatResponse, error) {
	return c.Chat(ctx, ChatRequest{
		Messages: []Message{{Role: "user", Content: prompt}},
		Module:   module,
	})
}

// Usage returns the caller's plan and usage
func (c *Client) Usage(ctx context.Context) (*PlanSummary, error) {
	var summary PlanSummary
	if err := c.doRequest(ctx, http.MethodGet, "/api/v1/usage", nil, &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}
