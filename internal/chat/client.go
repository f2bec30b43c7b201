package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	DefaultBaseURL = "https://api.deepseek.com"
	DefaultModel   = "deepseek-chat"

	// MaxHistory is how many trailing user/assistant messages are forwarded.
	MaxHistory = 20
	// MaxContent caps a single message's length in bytes.
	MaxContent = 4000
)

var (
	ErrNotConfigured = errors.New("chat assistant not configured")
	ErrUpstream      = errors.New("chat upstream error")
	ErrNoMessages    = errors.New("no messages")
)

// Message is one chat turn in the OpenAI wire shape.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Config configures a Client. Zero fields fall back to the defaults above.
type Config struct {
	BaseURL      string
	APIKey       string
	Model        string
	SystemPrompt string
	Timeout      time.Duration
}

// Client talks to an OpenAI-compatible /chat/completions endpoint.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	system     string
	httpClient *http.Client
}

// NewClient creates a chat client.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		system:     cfg.SystemPrompt,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// Configured reports whether an API key is present.
func (c *Client) Configured() bool { return c != nil && c.apiKey != "" }

type completionRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
}

type completionResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
}

// Complete sends the conversation (after the system prompt) and returns the
// assistant's reply. Only user and assistant turns from the caller are kept.
func (c *Client) Complete(ctx context.Context, history []Message) (Message, error) {
	if !c.Configured() {
		return Message{}, ErrNotConfigured
	}
	msgs := Sanitize(history)
	if len(msgs) == 0 {
		return Message{}, ErrNoMessages
	}
	if c.system != "" {
		msgs = append([]Message{{Role: "system", Content: c.system}}, msgs...)
	}

	body, err := json.Marshal(completionRequest{Model: c.model, Messages: msgs})
	if err != nil {
		return Message{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return Message{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Message{}, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Message{}, fmt.Errorf("%w: %s - %s", ErrUpstream, resp.Status, strings.TrimSpace(string(snippet)))
	}

	var out completionResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Message{}, fmt.Errorf("%w: decode: %v", ErrUpstream, err)
	}
	if len(out.Choices) == 0 {
		return Message{}, fmt.Errorf("%w: no choices", ErrUpstream)
	}
	reply := out.Choices[0].Message
	if reply.Role == "" {
		reply.Role = "assistant"
	}
	return reply, nil
}

// Sanitize drops system and unknown roles and empty turns, trims content
// to MaxContent and keeps the last MaxHistory messages.
func Sanitize(history []Message) []Message {
	out := make([]Message, 0, len(history))
	for _, m := range history {
		role := strings.ToLower(strings.TrimSpace(m.Role))
		if role != "user" && role != "assistant" {
			continue
		}
		content := strings.TrimSpace(m.Content)
		if content == "" {
			continue
		}
		if len(content) > MaxContent {
			content = content[:MaxContent]
		}
		out = append(out, Message{Role: role, Content: content})
	}
	if len(out) > MaxHistory {
		out = out[len(out)-MaxHistory:]
	}
	return out
}
