// Package client provides a Go SDK for the agents' JSON-RPC API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"

	"github.com/sakamoto-family-smile/sakamomo-family-agents/pkg/a2a"
)

// Client calls an agent's JSON-RPC endpoint. It is safe for concurrent use.
type Client struct {
	BaseURL    string       // e.g. "http://localhost:10010"
	APIKey     string       // optional; set for X-API-Key
	HTTPClient *http.Client // optional; nil uses http.DefaultClient
}

// New returns a client for the given base URL. APIKey is optional.
func New(baseURL, apiKey string) *Client {
	return &Client{BaseURL: baseURL, APIKey: apiKey}
}

func (c *Client) client() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

// call performs one JSON-RPC round trip. A response carrying an error member
// is returned as that *a2a.JSONRPCError.
func (c *Client) call(ctx context.Context, method string, params any) (*a2a.Task, error) {
	rawParams, err := json.Marshal(params)
	if err != nil {
		return nil, err
	}
	reqEnv := a2a.JSONRPCRequest{
		JSONRPC: a2a.Version,
		ID:      uuid.NewString(),
		Method:  method,
		Params:  rawParams,
	}
	body, err := json.Marshal(reqEnv)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.APIKey != "" {
		req.Header.Set("X-API-Key", c.APIKey)
	}
	resp, err := c.client().Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("api %s: status %d", method, resp.StatusCode)
	}
	var env a2a.JSONRPCResponse
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("decode %s response: %w", method, err)
	}
	if env.Error != nil {
		return nil, env.Error
	}
	if env.Result == nil {
		return nil, fmt.Errorf("%s response has neither result nor error", method)
	}
	return env.Result, nil
}

// SendTask sends one user message for the given task and session ids. Empty
// ids are filled with fresh UUIDs.
func (c *Client) SendTask(ctx context.Context, taskID, sessionID, text string) (*a2a.Task, error) {
	if taskID == "" {
		taskID = uuid.NewString()
	}
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	params := a2a.TaskSendParams{
		ID:        taskID,
		SessionID: sessionID,
		Message: a2a.Message{
			Role:  "user",
			Parts: []a2a.Part{a2a.TextPart(text)},
		},
		AcceptedOutputModes: []string{"text", "text/plain"},
	}
	return c.call(ctx, a2a.MethodSendTask, params)
}

// GetTask fetches a task by id.
func (c *Client) GetTask(ctx context.Context, taskID string) (*a2a.Task, error) {
	return c.call(ctx, a2a.MethodGetTask, a2a.TaskQueryParams{ID: taskID})
}

// Card fetches the agent discovery document.
func (c *Client) Card(ctx context.Context) (*a2a.AgentCard, error) {
	var card a2a.AgentCard
	if err := c.getJSON(ctx, "/.well-known/agent.json", &card); err != nil {
		return nil, err
	}
	return &card, nil
}

// Health returns the /health response (ok: true).
func (c *Client) Health(ctx context.Context) (bool, error) {
	var out struct {
		OK bool `json:"ok"`
	}
	err := c.getJSON(ctx, "/health", &out)
	return out.OK, err
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path, nil)
	if err != nil {
		return err
	}
	if c.APIKey != "" {
		req.Header.Set("X-API-Key", c.APIKey)
	}
	resp, err := c.client().Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("api GET %s: status %d", path, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
