// Package llm is a minimal client for OpenAI-compatible chat completion APIs.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/hyperjump/kaku/internal/config"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

// Message roles.
const (
	RoleSystem = "system"
	RoleUser   = "user"
)

// ErrEmptyCompletion is returned when the service answers without usable text.
var ErrEmptyCompletion = errors.New("empty completion")

// maxErrorBody bounds how much of a failed response is kept in the error.
const maxErrorBody = 4 << 10

// Message is one turn of a chat exchange.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Usage reports token accounting when the service provides it.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Completion is the trimmed text of the first choice.
type Completion struct {
	Content      string
	Model        string
	FinishReason string
	Usage        Usage
}

// Completer produces a completion for a message list.
type Completer interface {
	Complete(ctx context.Context, messages []Message) (*Completion, error)
}

// CompleterFunc adapts a function to Completer.
type CompleterFunc func(ctx context.Context, messages []Message) (*Completion, error)

func (f CompleterFunc) Complete(ctx context.Context, messages []Message) (*Completion, error) {
	return f(ctx, messages)
}

// APIError is a non-2xx answer from the completion service.
type APIError struct {
	StatusCode int
	Type       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Type != "" {
		return fmt.Sprintf("chat completion failed: status %d (%s): %s", e.StatusCode, e.Type, e.Message)
	}
	return fmt.Sprintf("chat completion failed: status %d: %s", e.StatusCode, e.Message)
}

type chatCompletionRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	TopP        float64   `json:"top_p"`
	Stream      bool      `json:"stream"`
}

type chatCompletionResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Index        int     `json:"index"`
		Message      Message `json:"message"`
		FinishReason string  `json:"finish_reason"`
	} `json:"choices"`
	Usage Usage `json:"usage"`
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Client calls {base_url}/chat/completions. It is safe for concurrent use.
type Client struct {
	cfg        config.GenerationConfig
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a client from cfg. A missing API key is reported by Complete,
// not here, so that a server can start before credentials are provided.
func NewClient(cfg config.GenerationConfig, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		logger: logger,
	}
}

// Model returns the configured model identifier.
func (c *Client) Model() string {
	return c.cfg.Model
}

// Complete sends one non-streaming chat completion request.
func (c *Client) Complete(ctx context.Context, messages []Message) (*Completion, error) {
	apiKey, err := c.cfg.GenerationCredential()
	if err != nil {
		return nil, err
	}

	temperature, topP := c.cfg.Sampling()
	body, err := json.Marshal(chatCompletionRequest{
		Model:       c.cfg.Model,
		Messages:    messages,
		Temperature: temperature,
		TopP:        topP,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("chat completion request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, decodeAPIError(resp)
	}

	var out chatCompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode completion: %w", err)
	}
	if len(out.Choices) == 0 {
		return nil, fmt.Errorf("%w: no choices", ErrEmptyCompletion)
	}
	content := strings.TrimSpace(out.Choices[0].Message.Content)
	if content == "" {
		return nil, ErrEmptyCompletion
	}

	c.logger.Debug("chat completion",
		zap.String("model", out.Model),
		zap.String("finish_reason", out.Choices[0].FinishReason),
		zap.Int("total_tokens", out.Usage.TotalTokens),
	)
	model := out.Model
	if model == "" {
		model = c.cfg.Model
	}
	return &Completion{
		Content:      content,
		Model:        model,
		FinishReason: out.Choices[0].FinishReason,
		Usage:        out.Usage,
	}, nil
}

func decodeAPIError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	apiErr := &APIError{StatusCode: resp.StatusCode}
	var er errorResponse
	if err := json.Unmarshal(data, &er); err == nil && er.Error.Message != "" {
		apiErr.Message = er.Error.Message
		apiErr.Type = er.Error.Type
	} else {
		apiErr.Message = strings.TrimSpace(string(data))
	}
	return apiErr
}
