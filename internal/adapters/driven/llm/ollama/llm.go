// Package ollama provides an LLM service adapter for a local Ollama server.
package ollama

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
	DefaultBaseURL    = "http://localhost:11434"
	DefaultLLMModel   = "llama3.2"
	DefaultLLMTimeout = 120 * time.Second
)

// LLMConfig holds configuration for the Ollama LLM service.
type LLMConfig struct {
	// BaseURL is the Ollama API base URL (default: http://localhost:11434).
	BaseURL string

	// Model is the model to use (default: llama3.2).
	Model string

	// Timeout is the request timeout (default: 120s).
	Timeout time.Duration
}

// LLMService completes prompts with a model served by Ollama.
type LLMService struct {
	client  *http.Client
	baseURL string
	model   string
}

type generateOptions struct {
	NumPredict  int     `json:"num_predict,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
}

type generateRequest struct {
	Model   string           `json:"model"`
	Prompt  string           `json:"prompt"`
	System  string           `json:"system,omitempty"`
	Format  string           `json:"format,omitempty"`
	Stream  bool             `json:"stream"`
	Options *generateOptions `json:"options,omitempty"`
}

type generateResponse struct {
	Response   string `json:"response"`
	Done       bool   `json:"done"`
	DoneReason string `json:"done_reason"`
}

// NewLLMService creates a new Ollama LLM service.
func NewLLMService(cfg LLMConfig) *LLMService {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultLLMModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultLLMTimeout
	}

	return &LLMService{
		client:  &http.Client{Timeout: cfg.Timeout},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		model:   cfg.Model,
	}
}

// Complete runs a non-streaming /api/generate call.
func (s *LLMService) Complete(ctx context.Context, req driven.CompletionRequest) (string, error) {
	body := generateRequest{
		Model:  s.model,
		Prompt: req.Prompt,
		System: req.System,
	}
	if req.JSON {
		body.Format = "json"
	}
	if req.MaxTokens > 0 || req.Temperature > 0 {
		body.Options = &generateOptions{
			NumPredict:  req.MaxTokens,
			Temperature: req.Temperature,
		}
	}

	var resp generateResponse
	if err := s.post(ctx, "/api/generate", body, &resp); err != nil {
		return "", err
	}
	if resp.DoneReason == "length" {
		logger.Warn("ollama: answer truncated at %d tokens", req.MaxTokens)
	}
	return resp.Response, nil
}

func (s *LLMService) post(ctx context.Context, path string, in any, out *generateResponse) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return domain.ContextError(ctx.Err())
		}
		return fmt.Errorf("ollama: send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return s.statusError(resp.StatusCode, msg)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("ollama: decode response: %w", err)
	}
	return nil
}

// statusError maps an HTTP failure onto the domain error taxonomy.
// Ollama answers 404 when the model has not been pulled.
func (s *LLMService) statusError(status int, body []byte) error {
	var wrapped struct {
		Error string `json:"error"`
	}
	msg := strings.TrimSpace(string(body))
	if json.Unmarshal(body, &wrapped) == nil && wrapped.Error != "" {
		msg = wrapped.Error
	}

	if status == http.StatusNotFound {
		return fmt.Errorf("%w: ollama model %q not found (run 'ollama pull %s'): %s",
			domain.ErrLLMUnavailable, s.model, s.model, msg)
	}
	return fmt.Errorf("ollama error (status %d): %s", status, msg)
}

// ModelName returns the name of the model being used.
func (s *LLMService) ModelName() string {
	return s.model
}

// Ping checks connectivity against the /api/tags endpoint.
func (s *LLMService) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/api/tags", http.NoBody)
	if err != nil {
		return fmt.Errorf("ollama: failed to create ping request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("ollama: ping failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("ollama: API returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}

// Close releases resources.
func (s *LLMService) Close() error {
	return nil
}
