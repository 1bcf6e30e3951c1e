// Package wlo provides a ContentRepository backed by the edu-sharing
// ngsearch endpoint of WirLernenOnline.
package wlo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/didakt/internal/core/domain"
	"github.com/custodia-labs/didakt/internal/core/ports/driven"
	"github.com/custodia-labs/didakt/internal/logger"
)

// Ensure Client implements the interface.
var _ driven.ContentRepository = (*Client)(nil)

// Well-known endpoints.
const (
	ProductionBaseURL = "https://redaktion.openeduhub.net/edu-sharing/rest"
	StagingBaseURL    = "https://repository.staging.openeduhub.net/edu-sharing/rest"
)

// Default configuration values.
const (
	DefaultTimeout           = 30 * time.Second
	DefaultRequestsPerSecond = 5
	DefaultMaxRetries        = 2

	repositoryID = "-home-"
	metadataSet  = "mds_oeh"
	queryID      = "ngsearch"

	// searchWordProperty is the ngsearch full-text criterion.
	searchWordProperty = "ngsearchword"

	maxErrorBody = 512
)

// BaseURLFor returns the endpoint of a repository environment.
func BaseURLFor(env domain.RepositoryEnvironment) string {
	if env == domain.RepositoryStaging {
		return StagingBaseURL
	}
	return ProductionBaseURL
}

// Config holds configuration for the search client.
type Config struct {
	// BaseURL is the REST root (default: ProductionBaseURL).
	BaseURL string

	// ProxyURL routes requests through an HTTP proxy. Empty means a direct
	// connection; proxy environment variables are ignored.
	ProxyURL string

	// RequestsPerSecond is the sustained request rate (default: 5).
	RequestsPerSecond float64

	// MaxRetries is the number of retries after a 429 (default: 2).
	MaxRetries int

	// Timeout is the per-request timeout (default: 30s).
	Timeout time.Duration
}

// Client queries the ngsearch endpoint.
type Client struct {
	http       *http.Client
	baseURL    string
	limiter    *RateLimiter
	maxRetries int
}

// criterion is one ngsearch constraint.
type criterion struct {
	Property string   `json:"property"`
	Values   []string `json:"values"`
}

// searchBody is the ngsearch request body.
type searchBody struct {
	Criteria []criterion `json:"criteria"`
}

// NewClient creates a new search client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = ProductionBaseURL
	}
	if cfg.RequestsPerSecond == 0 {
		cfg.RequestsPerSecond = DefaultRequestsPerSecond
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.Proxy = nil
	if cfg.ProxyURL != "" {
		proxy, err := url.Parse(cfg.ProxyURL)
		if err != nil || proxy.Host == "" {
			return nil, fmt.Errorf("%w: proxy url %q", domain.ErrInvalidInput, cfg.ProxyURL)
		}
		transport.Proxy = http.ProxyURL(proxy)
	}

	return &Client{
		http: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
		},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		limiter:    NewRateLimiter(cfg.RequestsPerSecond),
		maxRetries: max(cfg.MaxRetries, 0),
	}, nil
}

// Search runs req against the endpoint. AND sends every constraint in one
// query. OR sends one query per constraint and merges the nodes in first-seen
// order, dropping repeated node ids.
func (c *Client) Search(ctx context.Context, req domain.SearchRequest) (*domain.SearchResult, error) {
	if len(req.Properties) != len(req.Values) {
		return nil, fmt.Errorf("%w: %d properties for %d values",
			domain.ErrInvalidInput, len(req.Properties), len(req.Values))
	}
	if len(req.Properties) == 0 {
		return &domain.SearchResult{}, nil
	}
	maxItems := req.MaxItems
	if maxItems <= 0 {
		maxItems = domain.DefaultMaxItems
	}
	base := c.baseURL
	if req.Endpoint != "" {
		base = strings.TrimRight(req.Endpoint, "/")
	}

	if req.CombineMode != domain.CombineOr {
		criteria := make([]criterion, len(req.Properties))
		for i, prop := range req.Properties {
			criteria[i] = criterion{Property: searchProperty(prop), Values: []string{req.Values[i]}}
		}
		nodes, err := c.query(ctx, base, criteria, maxItems)
		if err != nil {
			return nil, err
		}
		return &domain.SearchResult{Nodes: capNodes(nodes, maxItems)}, nil
	}

	seen := make(map[string]bool)
	var merged []domain.SearchNode
	for i, prop := range req.Properties {
		nodes, err := c.query(ctx, base, []criterion{{Property: searchProperty(prop), Values: []string{req.Values[i]}}}, maxItems)
		if err != nil {
			return nil, err
		}
		for _, node := range nodes {
			id := node.Ref.ID
			if id != "" && seen[id] {
				continue
			}
			seen[id] = true
			merged = append(merged, node)
		}
		if len(merged) >= maxItems {
			break
		}
	}
	return &domain.SearchResult{Nodes: capNodes(merged, maxItems)}, nil
}

// query sends one ngsearch request, retrying after 429 responses.
func (c *Client) query(ctx context.Context, base string, criteria []criterion, maxItems int) ([]domain.SearchNode, error) {
	body, err := json.Marshal(searchBody{Criteria: criteria})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	endpoint := queryURL(base, maxItems)

	for attempt := 0; ; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, domain.ContextError(ctxErr)
			}
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
		if err := ctx.Err(); err != nil {
			return nil, domain.ContextError(err)
		}

		nodes, wait, err := c.send(ctx, endpoint, body)
		if err == nil {
			logger.Debug("wlo: %d criteria -> %d node(s)", len(criteria), len(nodes))
			return nodes, nil
		}
		if wait < 0 || attempt >= c.maxRetries {
			return nil, err
		}
		logger.Warn("wlo: rate limited, retrying in %s (attempt %d/%d)", wait, attempt+1, c.maxRetries)
		c.limiter.Backoff(wait)
	}
}

// send performs one request. A non-negative wait marks a retryable 429.
func (c *Client) send(ctx context.Context, endpoint string, body []byte) ([]domain.SearchNode, time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, -1, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, -1, domain.ContextError(ctxErr)
		}
		return nil, -1, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, RetryAfter(resp, time.Now()), fmt.Errorf("ngsearch: %w", domain.ErrRateLimited)
	}
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, -1, fmt.Errorf("ngsearch error (status %d): %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var result domain.SearchResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, -1, fmt.Errorf("decode response: %w", err)
	}
	return result.Nodes, -1, nil
}

func queryURL(base string, maxItems int) string {
	params := url.Values{}
	params.Set("contentType", "FILES")
	params.Set("maxItems", strconv.Itoa(maxItems))
	params.Set("skipCount", "0")
	params.Set("propertyFilter", "-all-")
	return fmt.Sprintf("%s/search/v1/queries/%s/%s/%s?%s",
		base, repositoryID, metadataSet, queryID, params.Encode())
}

// searchProperty maps a criteria key to the ngsearch criterion name.
// Titles are matched with the full-text search word.
func searchProperty(prop string) string {
	if prop == domain.PropertyTitle {
		return searchWordProperty
	}
	return prop
}

func capNodes(nodes []domain.SearchNode, maxItems int) []domain.SearchNode {
	if nodes == nil {
		return []domain.SearchNode{}
	}
	if len(nodes) > maxItems {
		return nodes[:maxItems]
	}
	return nodes
}
