package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ClientOpts configures the OpenAI-compatible chat-completions client.
// Any endpoint speaking that dialect works (OpenAI, a local gateway, or a
// provider proxy in front of Gemini).
type ClientOpts struct {
	BaseURL     string // e.g. https://api.openai.com
	APIKey      string
	Model       string  // e.g. gpt-4o-mini
	Temperature float64 // 0 by default: routing and extraction want determinism
	MaxTokens   int     // 0 = provider default
	HTTPClient  *http.Client
}

// Client calls an OpenAI-compatible /v1/chat/completions endpoint.
type Client struct {
	opts ClientOpts
	http *http.Client
}

// NewClient builds a Client. BaseURL and APIKey are required.
func NewClient(opts ClientOpts) (*Client, error) {
	if opts.BaseURL == "" {
		return nil, errors.New("llm base URL required")
	}
	if opts.APIKey == "" {
		return nil, errors.New("llm API key required")
	}
	if opts.Model == "" {
		opts.Model = "gpt-4o-mini"
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 120 * time.Second}
	}
	return &Client{opts: opts, http: hc}, nil
}

func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	res, err := c.GenerateDetailed(ctx, prompt)
	if err != nil {
		return "", err
	}
	return res.Text, nil
}

func (c *Client) GenerateDetailed(ctx context.Context, prompt string) (*Result, error) {
	reqBody := map[string]any{
		"model":       c.opts.Model,
		"temperature": c.opts.Temperature,
		"messages": []map[string]any{
			{"role": "user", "content": prompt},
		},
	}
	if c.opts.MaxTokens > 0 {
		reqBody["max_tokens"] = c.opts.MaxTokens
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}
	url := strings.TrimSuffix(c.opts.BaseURL, "/") + "/v1/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.opts.APIKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("llm request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("llm API returned status %d", resp.StatusCode)
	}

	var apiResp struct {
		Model   string `json:"model"`
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
			FinishReason string `json:"finish_reason"`
		} `json:"choices"`
		Usage struct {
			PromptTokens     int `json:"prompt_tokens"`
			CompletionTokens int `json:"completion_tokens"`
			TotalTokens      int `json:"total_tokens"`
		} `json:"usage"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, fmt.Errorf("decode llm response: %w", err)
	}
	if len(apiResp.Choices) == 0 {
		return nil, errors.New("llm response has no choices")
	}
	model := apiResp.Model
	if model == "" {
		model = c.opts.Model
	}
	return &Result{
		Text:             apiResp.Choices[0].Message.Content,
		Model:            model,
		FinishReason:     apiResp.Choices[0].FinishReason,
		PromptTokens:     apiResp.Usage.PromptTokens,
		CompletionTokens: apiResp.Usage.CompletionTokens,
		TotalTokens:      apiResp.Usage.TotalTokens,
	}, nil
}
