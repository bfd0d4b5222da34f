package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/shah-data-scientist/Sports-See-sub000/internal/config"
	"github.com/shah-data-scientist/Sports-See-sub000/internal/pkg/errors"
	"github.com/shah-data-scientist/Sports-See-sub000/internal/pkg/logger"
	"github.com/shah-data-scientist/Sports-See-sub000/internal/pkg/retry"
)

const (
	opEmbed    = "ollama_embed"
	opGenerate = "ollama_generate"
)

// ProviderMetrics is the interface for recording provider call metrics.
// This allows the provider to be decoupled from the metrics package.
type ProviderMetrics interface {
	RecordGeneration(latencyMs int64, err error)
	RecordEmbed(batchSize int, latencyMs int64)
	RecordProviderRetry()
}

// Ollama talks to an Ollama server over HTTP. It implements both
// EmbeddingProvider and TextGenerationProvider, with every call going
// through the shared retry policy.
type Ollama struct {
	baseURL       string
	embedModel    string
	generateModel string
	client        *http.Client
	policy        retry.Policy
	log           *logger.Logger
	metrics       ProviderMetrics
}

// NewOllama creates a client for the configured Ollama server.
func NewOllama(cfg config.OllamaConfig, log *logger.Logger) *Ollama {
	policy := retry.DefaultPolicy()
	if cfg.MaxRetries > 0 {
		policy.MaxRetries = cfg.MaxRetries
	}
	if cfg.RetryBaseDelay > 0 {
		policy.BaseDelay = cfg.RetryBaseDelay
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	return &Ollama{
		baseURL:       strings.TrimRight(cfg.URL, "/"),
		embedModel:    cfg.EmbedModel,
		generateModel: cfg.GenerateModel,
		client:        &http.Client{Timeout: timeout},
		policy:        policy,
		log:           log,
	}
}

// SetMetrics wires a metrics recorder into the provider. Retry attempts are
// counted through the policy hook.
func (o *Ollama) SetMetrics(metrics ProviderMetrics) {
	o.metrics = metrics
	o.policy.OnRetry = func(op string, attempt int) {
		metrics.RecordProviderRetry()
	}
}

type embedRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type embedResponse struct {
	Embedding []float32 `json:"embedding"`
}

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type generateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// Embed generates an embedding for a single text.
func (o *Ollama) Embed(ctx context.Context, text string) ([]float32, error) {
	start := time.Now()
	var out embedResponse
	req := embedRequest{Model: o.embedModel, Prompt: text}

	if err := o.post(ctx, opEmbed, "/api/embeddings", req, &out); err != nil {
		return nil, err
	}
	if len(out.Embedding) == 0 {
		return nil, errors.InternalError("ollama returned an empty embedding", nil)
	}
	if o.metrics != nil {
		o.metrics.RecordEmbed(1, time.Since(start).Milliseconds())
	}
	return out.Embedding, nil
}

// EmbedBatch generates embeddings for multiple texts, in order.
func (o *Ollama) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	embeddings := make([][]float32, len(texts))
	for i, text := range texts {
		emb, err := o.Embed(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("embedding text %d: %w", i, err)
		}
		embeddings[i] = emb
	}
	return embeddings, nil
}

// Generate produces a completion for the prompt.
func (o *Ollama) Generate(ctx context.Context, prompt string) (string, error) {
	start := time.Now()
	var out generateResponse
	req := generateRequest{Model: o.generateModel, Prompt: prompt, Stream: false}

	err := o.post(ctx, opGenerate, "/api/generate", req, &out)
	if o.metrics != nil {
		o.metrics.RecordGeneration(time.Since(start).Milliseconds(), err)
	}
	if err != nil {
		return "", err
	}
	return out.Response, nil
}

// Ping checks that the server is reachable. No retries: readiness probes
// want the current state, not an eventual one.
func (o *Ollama) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.baseURL+"/api/tags", nil)
	if err != nil {
		return errors.InternalError("build ollama ping request", err)
	}

	resp, err := o.client.Do(req)
	if err != nil {
		return errors.ServiceUnavailableError("ollama")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errors.ServiceUnavailableError("ollama").
			WithDetail("status", strconv.Itoa(resp.StatusCode))
	}
	return nil
}

// post sends one JSON request under the retry policy and decodes the
// response into out.
func (o *Ollama) post(ctx context.Context, op, path string, payload, out any) error {
	return o.policy.Do(ctx, op, func(ctx context.Context) error {
		body, err := json.Marshal(payload)
		if err != nil {
			return errors.InternalError("encode "+op+" request", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+path, bytes.NewReader(body))
		if err != nil {
			return errors.InternalError("build "+op+" request", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := o.client.Do(req)
		if err != nil {
			// Transport failures are retryable; context errors surface
			// through the policy as typed timeouts.
			return retry.Transient(err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return o.statusError(op, resp.StatusCode)
		}

		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return errors.InternalError("decode "+op+" response", err)
		}
		return nil
	})
}

// statusError maps a non-200 status to an error. Overload and server-side
// failures are retryable; a rejected generate request is a hard generation
// failure, a rejected embed request stays internal so the retrieval leg can
// degrade instead of failing the whole query.
func (o *Ollama) statusError(op string, status int) error {
	switch {
	case status == http.StatusTooManyRequests || status >= 500:
		return retry.Transient(errors.ServiceUnavailableError("ollama").
			WithDetail("operation", op).
			WithDetail("status", strconv.Itoa(status)))
	case op == opGenerate:
		return errors.GenerationError(fmt.Sprintf("ollama rejected the request with status %d", status), nil)
	default:
		return errors.InternalError(fmt.Sprintf("%s rejected with status %d", op, status), nil)
	}
}
