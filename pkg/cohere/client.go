package cohere

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
)

// DefaultURL is the Cohere chat endpoint.
const DefaultURL = "https://api.cohere.ai/v1/chat"

// ErrProviderFailure wraps every failure of the remote chat call.
var ErrProviderFailure = errors.New("chat provider failure")

// Config holds chat provider connection details.
type Config struct {
	APIKey  string
	URL     string
	Model   string
	Timeout time.Duration
}

// ChatMessage is one prior turn of the conversation.
type ChatMessage struct {
	Role    string `json:"role"`
	Message string `json:"message"`
}

// ChatRequest is the input of a single relay call.
type ChatRequest struct {
	Message     string
	Preamble    string
	ChatHistory []ChatMessage
}

type chatPayload struct {
	Message          string        `json:"message"`
	Model            string        `json:"model"`
	Stream           bool          `json:"stream"`
	PreambleOverride string        `json:"preamble_override,omitempty"`
	ChatHistory      []ChatMessage `json:"chat_history,omitempty"`
}

type chatResponse struct {
	Text string `json:"text"`
}

// Client performs blocking chat calls against the provider.
type Client struct {
	cfg Config
}

// NewClient creates a new Client, filling defaults for empty fields.
func NewClient(cfg Config) *Client {
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	if cfg.Model == "" {
		cfg.Model = "command"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Client{cfg: cfg}
}

// Chat sends one message with its preamble and history and returns the
// reply text. No retries are attempted.
func (c *Client) Chat(ctx context.Context, req ChatRequest) (string, error) {
	timeout := c.cfg.Timeout
	if deadline, ok := ctx.Deadline(); ok {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return "", fmt.Errorf("%w: %v", ErrProviderFailure, context.DeadlineExceeded)
		}
		if remaining < timeout {
			timeout = remaining
		}
	}

	agent := fiber.Post(c.cfg.URL)
	agent.Set(fiber.HeaderAccept, fiber.MIMEApplicationJSON)
	agent.Set(fiber.HeaderAuthorization, "Bearer "+c.cfg.APIKey)
	agent.JSON(chatPayload{
		Message:          req.Message,
		Model:            c.cfg.Model,
		Stream:           false,
		PreambleOverride: req.Preamble,
		ChatHistory:      req.ChatHistory,
	})
	agent.Timeout(timeout)

	code, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return "", fmt.Errorf("%w: %v", ErrProviderFailure, errors.Join(errs...))
	}
	if code < fiber.StatusOK || code >= fiber.StatusMultipleChoices {
		return "", fmt.Errorf("%w: status %d: %s", ErrProviderFailure, code, strings.TrimSpace(string(body)))
	}

	var resp chatResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("%w: malformed response: %v", ErrProviderFailure, err)
	}
	return resp.Text, nil
}
