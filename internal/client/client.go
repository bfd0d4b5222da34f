// Package client provides an HTTP client for the Sports-See answer API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/shah-data-scientist/Sports-See-sub000/internal/conversation"
	"github.com/shah-data-scientist/Sports-See-sub000/internal/engine"
	"github.com/shah-data-scientist/Sports-See-sub000/internal/evaluation"
	"github.com/shah-data-scientist/Sports-See-sub000/internal/retrieval"
)

// Client is an HTTP client for the Sports-See answer API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Config configures the client.
type Config struct {
	// BaseURL is the base URL of the API server.
	BaseURL string

	// Timeout is the request timeout. Answer requests wait on model
	// generation, so this should be generous.
	Timeout time.Duration

	// MaxIdleConns controls the maximum number of idle (keep-alive) connections
	// across all hosts. Zero means no limit.
	MaxIdleConns int

	// MaxConnsPerHost limits the total number of connections per host.
	// Zero means no limit.
	MaxConnsPerHost int

	// IdleConnTimeout is the maximum amount of time an idle (keep-alive)
	// connection will remain idle before closing itself.
	IdleConnTimeout time.Duration
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		BaseURL:         "http://localhost:8080",
		Timeout:         60 * time.Second,
		MaxIdleConns:    100,
		MaxConnsPerHost: 100,
		IdleConnTimeout: 90 * time.Second,
	}
}

// New creates a new API client.
func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:8080"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.MaxIdleConns == 0 {
		cfg.MaxIdleConns = 100
	}
	if cfg.MaxConnsPerHost == 0 {
		cfg.MaxConnsPerHost = 100
	}
	if cfg.IdleConnTimeout == 0 {
		cfg.IdleConnTimeout = 90 * time.Second
	}

	// Configure explicit connection pooling for production tuning
	transport := &http.Transport{
		MaxIdleConns:        cfg.MaxIdleConns,
		MaxIdleConnsPerHost: cfg.MaxConnsPerHost / 5, // 20% per host
		MaxConnsPerHost:     cfg.MaxConnsPerHost,
		IdleConnTimeout:     cfg.IdleConnTimeout,
		DisableCompression:  false,
		ForceAttemptHTTP2:   true,
	}

	return &Client{
		baseURL: cfg.BaseURL,
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
		},
	}
}

// SearchRequest is the body for the raw vector search endpoint.
type SearchRequest struct {
	Query   string            `json:"query"`
	K       int               `json:"k,omitempty"`
	Filters map[string]string `json:"filters,omitempty"`
}

// SearchResponse carries ranked chunks from a raw vector search.
type SearchResponse struct {
	Results []retrieval.SearchResult `json:"results"`
	Count   int                      `json:"count"`
}

// ConversationDetail is a conversation's state and full turn history.
type ConversationDetail struct {
	ConversationID string              `json:"conversation_id"`
	State          conversation.State  `json:"state"`
	Turns          []conversation.Turn `json:"turns"`
}

// ArchiveResult confirms an archive request.
type ArchiveResult struct {
	ConversationID string             `json:"conversation_id"`
	State          conversation.State `json:"state"`
}

// HealthStatus mirrors the server's component health report.
type HealthStatus struct {
	Status     string               `json:"status"`
	Timestamp  time.Time            `json:"timestamp"`
	Version    string               `json:"version,omitempty"`
	Uptime     string               `json:"uptime,omitempty"`
	Components map[string]Component `json:"components"`
}

// Component is the health of a single server dependency.
type Component struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Latency int64  `json:"latency_ms,omitempty"`
}

// VersionInfo reports the server build and uptime.
type VersionInfo struct {
	Version   string `json:"version"`
	Uptime    string `json:"uptime"`
	GoVersion string `json:"go_version"`
}

// APIError represents an API error response.
type APIError struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Answer runs a question through the full answer pipeline.
func (c *Client) Answer(ctx context.Context, req engine.AnswerRequest) (*engine.HybridAnswer, error) {
	var answer engine.HybridAnswer
	if err := c.post(ctx, "/v1/answer", req, &answer); err != nil {
		return nil, err
	}
	return &answer, nil
}

// Search performs a raw vector search without answer composition.
func (c *Client) Search(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	var resp SearchResponse
	if err := c.post(ctx, "/v1/search", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Conversation fetches a conversation's turn history.
func (c *Client) Conversation(ctx context.Context, id string) (*ConversationDetail, error) {
	var detail ConversationDetail
	if err := c.get(ctx, "/v1/conversations/"+url.PathEscape(id), &detail); err != nil {
		return nil, err
	}
	return &detail, nil
}

// ArchiveConversation archives a conversation. Archiving an already
// archived conversation succeeds without effect.
func (c *Client) ArchiveConversation(ctx context.Context, id string) (*ArchiveResult, error) {
	var result ArchiveResult
	if err := c.post(ctx, "/v1/conversations/"+url.PathEscape(id)+"/archive", nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Evaluate scores judged queries against the server's live index.
func (c *Client) Evaluate(ctx context.Context, queries []evaluation.JudgedQuery, ks []int) (*evaluation.Report, error) {
	req := evaluation.RunRequest{Queries: queries, Ks: ks}
	var report evaluation.Report
	if err := c.post(ctx, "/v1/evaluation/run", req, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// Health fetches the component health report. The server answers 503 when
// a dependency is down but still sends the full component breakdown, so the
// body is decoded regardless of status code.
func (c *Client) Health(ctx context.Context) (*HealthStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/health", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var status HealthStatus
	if err := json.Unmarshal(body, &status); err != nil || status.Status == "" {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
	}
	return &status, nil
}

// Version reports the server's build version and uptime.
func (c *Client) Version(ctx context.Context) (*VersionInfo, error) {
	var info VersionInfo
	if err := c.get(ctx, "/v1/version", &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// get performs a GET request.
func (c *Client) get(ctx context.Context, path string, result interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	return c.do(req, result)
}

// post performs a POST request.
func (c *Client) post(ctx context.Context, path string, body, result interface{}) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	return c.do(req, result)
}

// do executes a request.
func (c *Client) do(req *http.Request, result interface{}) error {
	// Request IDs flow through the server middleware into its logs, so a
	// failed call can be traced from either side.
	req.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var apiErr APIError
		if err := json.Unmarshal(body, &apiErr); err != nil || apiErr.Code == "" {
			return fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
		}
		return &apiErr
	}

	if result != nil && len(body) > 0 {
		if err := json.Unmarshal(body, result); err != nil {
			return fmt.Errorf("failed to unmarshal response: %w", err)
		}
	}

	return nil
}
