package runtime

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"moonshot-ollama-adapter/internal/models"
)

// Generator is the model runtime: it takes a model id and a message list and
// returns the reply message. Implementations must be safe for concurrent use.
type Generator interface {
	Generate(ctx context.Context, model string, messages []models.ChatMessage) (models.ChatMessage, error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, model string, messages []models.ChatMessage) (models.ChatMessage, error)

func (f GeneratorFunc) Generate(ctx context.Context, model string, messages []models.ChatMessage) (models.ChatMessage, error) {
	return f(ctx, model, messages)
}

// OllamaClient calls the /api/chat endpoint of an Ollama server without streaming.
type OllamaClient struct {
	endpoint string
	timeout  time.Duration
	client   *http.Client
}

type chatRequest struct {
	Model    string               `json:"model"`
	Messages []models.ChatMessage `json:"messages"`
	Stream   bool                 `json:"stream"`
}

type chatResponse struct {
	Model   string             `json:"model"`
	Message models.ChatMessage `json:"message"`
	Done    bool               `json:"done"`
	Error   string             `json:"error,omitempty"`
}

// NewOllamaClient builds a client for baseURL. A zero timeout leaves
// generation unbounded.
func NewOllamaClient(baseURL string, timeout time.Duration) (*OllamaClient, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse runtime base_url: %w", err)
	}
	base.Path = strings.TrimRight(base.Path, "/") + "/api/chat"

	transport := http.DefaultTransport.(*http.Transport).Clone()
	return &OllamaClient{
		endpoint: base.String(),
		timeout:  timeout,
		client:   &http.Client{Transport: transport},
	}, nil
}

func (c *OllamaClient) Endpoint() string {
	return c.endpoint
}

func (c *OllamaClient) Generate(ctx context.Context, model string, messages []models.ChatMessage) (models.ChatMessage, error) {
	// A caller hanging up does not abort a generation that is already running.
	ctx = context.WithoutCancel(ctx)
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	payload, err := json.Marshal(chatRequest{Model: model, Messages: messages, Stream: false})
	if err != nil {
		return models.ChatMessage{}, fmt.Errorf("marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return models.ChatMessage{}, fmt.Errorf("build chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return models.ChatMessage{}, fmt.Errorf("ollama chat %s: %w", model, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return models.ChatMessage{}, fmt.Errorf("read chat response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return models.ChatMessage{}, fmt.Errorf("ollama chat %s: status %d: %s", model, resp.StatusCode, extractMessage(body, resp.StatusCode))
	}

	var out chatResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return models.ChatMessage{}, fmt.Errorf("decode chat response: %w", err)
	}
	if out.Error != "" {
		return models.ChatMessage{}, fmt.Errorf("ollama chat %s: %s", model, out.Error)
	}
	return out.Message, nil
}

func extractMessage(body []byte, statusCode int) string {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return http.StatusText(statusCode)
	}

	var generic map[string]any
	if err := json.Unmarshal(body, &generic); err != nil {
		return trimmed
	}
	if msg, ok := generic["error"].(string); ok && strings.TrimSpace(msg) != "" {
		return strings.TrimSpace(msg)
	}
	return trimmed
}
