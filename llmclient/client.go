package llmclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"concierge/config"

	"go.uber.org/zap"
)

// Message is one entry of an OpenAI-compatible chat conversation. Tool call
// fields are populated on assistant messages that request a function
// invocation, and ToolCallID/Name on the synthetic "tool" message carrying
// the invocation result back to the model.
type Message struct {
	Role       string     `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
	Name       string     `json:"name,omitempty"`
}

// Tool declares one callable function to the model.
type Tool struct {
	Type     string       `json:"type"`
	Function ToolFunction `json:"function"`
}

// ToolFunction is the schema half of a tool declaration.
type ToolFunction struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// ToolCall is a structured invocation request emitted by the model.
type ToolCall struct {
	ID       string           `json:"id"`
	Type     string           `json:"type"`
	Function ToolCallFunction `json:"function"`
}

// ToolCallFunction carries the requested function name and its JSON-encoded
// arguments.
type ToolCallFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type chatRequest struct {
	Messages    []Message `json:"messages"`
	Stream      bool      `json:"stream"`
	Temperature *float64  `json:"temperature,omitempty"`
	Tools       []Tool    `json:"tools,omitempty"`
	ToolChoice  string    `json:"tool_choice,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
}

type Client struct {
	cfg        *config.Config
	httpClient *http.Client
	logger     *zap.Logger
}

func New(cfg *config.Config, logger *zap.Logger) *Client {
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.LLMRequestTimeout},
		logger:     logger,
	}
}

// Chat performs a non-streaming chat completion call and returns the
// assistant's text. temperature is optional; pass nil to use server default.
func (c *Client) Chat(ctx context.Context, host string, messages []Message, temperature *float64) (string, error) {
	msg, err := c.complete(ctx, host, chatRequest{
		Messages:    messages,
		Temperature: temperature,
	})
	if err != nil {
		return "", err
	}
	return msg.Content, nil
}

// ChatWithTools performs a chat completion with the given tools declared in
// automatic tool-choice mode. The returned message may carry either plain
// text, one or more tool calls, or both.
func (c *Client) ChatWithTools(ctx context.Context, host string, messages []Message, tools []Tool, temperature *float64) (Message, error) {
	return c.complete(ctx, host, chatRequest{
		Messages:    messages,
		Temperature: temperature,
		Tools:       tools,
		ToolChoice:  "auto",
	})
}

func (c *Client) complete(ctx context.Context, host string, reqBody chatRequest) (Message, error) {
	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return Message{}, fmt.Errorf("marshal chat request: %w", err)
	}

	url := fmt.Sprintf("%s/v1/chat/completions", strings.TrimRight(host, "/"))

	bodyBytes, status, err := c.postWithRetry(ctx, url, jsonBody)
	if err != nil {
		return Message{}, err
	}
	if status != http.StatusOK {
		return Message{}, fmt.Errorf("llm server status %d: %s", status, string(bodyBytes))
	}

	var cr chatResponse
	if err := json.Unmarshal(bodyBytes, &cr); err != nil {
		return Message{}, fmt.Errorf("decode chat response: %w", err)
	}
	if len(cr.Choices) == 0 {
		return Message{}, fmt.Errorf("no response choices from llm server")
	}
	return cr.Choices[0].Message, nil
}

// postWithRetry sends the request, retrying with backoff while the server
// reports 503 (model still loading). Context cancellation is never retried.
func (c *Client) postWithRetry(ctx context.Context, url string, jsonBody []byte) ([]byte, int, error) {
	var resp *http.Response
	var lastErr error
	for attempt := 0; attempt < c.cfg.MaxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
		if err != nil {
			return nil, 0, fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err = c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			if ctx.Err() != nil {
				break
			}
		} else if resp.StatusCode == http.StatusServiceUnavailable && attempt < c.cfg.MaxRetries-1 {
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			c.backoffSleep(attempt)
			continue
		} else {
			break
		}
	}
	if resp == nil {
		return nil, 0, fmt.Errorf("no response from LLM server: %w", lastErr)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("read response: %w", err)
	}
	return bodyBytes, resp.StatusCode, nil
}

func (c *Client) backoffSleep(attempt int) {
	delay := c.cfg.RetryDelaySeconds * time.Duration(attempt+1)
	if delay <= 0 {
		delay = time.Second
	}
	time.Sleep(delay)
}
