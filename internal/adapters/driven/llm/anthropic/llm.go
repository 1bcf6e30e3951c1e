// Package anthropic provides an LLM service adapter using the Anthropic Messages API.
package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/custodia-labs/didakt/internal/core/domain"
	"github.com/custodia-labs/didakt/internal/core/ports/driven"
	"github.com/custodia-labs/didakt/internal/logger"
)

// Ensure LLMService implements the interface.
var _ driven.LLMService = (*LLMService)(nil)

// Default configuration values.
const (
	DefaultBaseURL   = "https://api.anthropic.com"
	DefaultModel     = "claude-3-5-sonnet-latest"
	DefaultTimeout   = 120 * time.Second
	DefaultMaxTokens = 4096

	anthropicVersion = "2023-06-01"

	// jsonPrefill opens the assistant turn so the answer continues a JSON object.
	jsonPrefill = "{"
)

// Config holds configuration for the Anthropic LLM service.
type Config struct {
	// APIKey is the Anthropic API key (required).
	APIKey string

	// BaseURL is the API base URL (default: https://api.anthropic.com).
	BaseURL string

	// Model is the model to use (default: claude-3-5-sonnet-latest).
	Model string

	// Timeout is the request timeout (default: 120s).
	Timeout time.Duration

	// MaxTokens is used when a request sets none. The API requires a value.
	MaxTokens int
}

// LLMService completes prompts with an Anthropic model.
type LLMService struct {
	client    *http.Client
	baseURL   string
	apiKey    string
	model     string
	maxTokens int
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesRequest struct {
	Model       string    `json:"model"`
	System      string    `json:"system,omitempty"`
	Messages    []message `json:"messages"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature,omitempty"`
}

type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string    `json:"stop_reason"`
	Error      *apiError `json:"error,omitempty"`
}

type apiError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// NewLLMService creates a new Anthropic LLM service.
func NewLLMService(cfg Config) (*LLMService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic: %w", domain.ErrMissingCredential)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}

	return &LLMService{
		client:    &http.Client{Timeout: cfg.Timeout},
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:    cfg.APIKey,
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
	}, nil
}

// Complete sends one user turn. In JSON mode the assistant turn is prefilled
// with an opening brace, which is put back in front of the answer.
func (s *LLMService) Complete(ctx context.Context, req driven.CompletionRequest) (string, error) {
	body := messagesRequest{
		Model:       s.model,
		System:      req.System,
		Messages:    []message{{Role: "user", Content: req.Prompt}},
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	}
	if body.MaxTokens <= 0 {
		body.MaxTokens = s.maxTokens
	}
	if req.JSON {
		body.Messages = append(body.Messages, message{Role: "assistant", Content: jsonPrefill})
	}

	var resp messagesResponse
	if err := s.post(ctx, "/v1/messages", body, &resp); err != nil {
		return "", err
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return "", fmt.Errorf("anthropic: empty answer (stop reason %q)", resp.StopReason)
	}
	if resp.StopReason == "max_tokens" {
		logger.Warn("anthropic: answer truncated at %d tokens", body.MaxTokens)
	}

	out := text.String()
	if req.JSON && !strings.HasPrefix(strings.TrimSpace(out), jsonPrefill) {
		out = jsonPrefill + out
	}
	return out, nil
}

func (s *LLMService) post(ctx context.Context, path string, in any, out *messagesResponse) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	s.authorise(req)

	resp, err := s.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return domain.ContextError(ctx.Err())
		}
		return fmt.Errorf("anthropic: send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("anthropic: read response: %w", err)
	}
	if err := statusError(resp.StatusCode, body); err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("anthropic: decode response: %w", err)
	}
	if out.Error != nil {
		return fmt.Errorf("anthropic: %s", out.Error.Message)
	}
	return nil
}

func (s *LLMService) authorise(req *http.Request) {
	req.Header.Set("x-api-key", s.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)
}

// statusError maps an HTTP failure onto the domain error taxonomy.
func statusError(status int, body []byte) error {
	switch {
	case status == http.StatusOK:
		return nil
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return fmt.Errorf("anthropic: API key rejected: %w", domain.ErrMissingCredential)
	case status == http.StatusTooManyRequests:
		return fmt.Errorf("anthropic: %w", domain.ErrRateLimited)
	}

	var wrapped struct {
		Error *apiError `json:"error"`
	}
	if json.Unmarshal(body, &wrapped) == nil && wrapped.Error != nil {
		return fmt.Errorf("anthropic error (status %d): %s", status, wrapped.Error.Message)
	}
	return fmt.Errorf("anthropic error (status %d): %s", status, strings.TrimSpace(string(body)))
}

// ModelName returns the name of the model being used.
func (s *LLMService) ModelName() string {
	return s.model
}

// Ping checks the key against the /v1/models endpoint.
func (s *LLMService) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/v1/models", http.NoBody)
	if err != nil {
		return fmt.Errorf("anthropic: failed to create ping request: %w", err)
	}
	s.authorise(req)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("anthropic: ping failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("anthropic: read ping response: %w", err)
	}
	return statusError(resp.StatusCode, body)
}

// Close releases resources.
func (s *LLMService) Close() error {
	return nil
}
