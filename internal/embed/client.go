package embed

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/JosephCarrino/SwissTARO/internal/config"
	"github.com/JosephCarrino/SwissTARO/internal/logger"
	"github.com/JosephCarrino/SwissTARO/pkg/utils"
)

// maxRetryAfter caps server-requested waits.
const maxRetryAfter = 30 * time.Second

// Client implements Embedder against the /v1/embeddings API.
type Client struct {
	endpoint  string
	model     string
	batchSize int
	client    *http.Client
	limiter   *rate.Limiter
	retry     config.RetryPolicy
	headers   http.Header
	log       *logger.Logger
}

// embedRequest is the JSON body sent to /v1/embeddings.
type embedRequest struct {
	Model string   `json:"model,omitempty"`
	Input []string `json:"input"`
}

// embedResponse is the JSON response from /v1/embeddings.
type embedResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
	Model string `json:"model"`
}

// New returns a client for cfg, or Noop when no endpoint is configured.
func New(cfg config.EmbeddingConfig, retry config.RetryPolicy, log *logger.Logger) (Embedder, error) {
	if cfg.Endpoint == "" {
		return Noop{}, nil
	}

	return NewClient(cfg, retry, log)
}

// NewClient creates an embedding client. A zero RequestsPerSecond disables throttling.
func NewClient(cfg config.EmbeddingConfig, retry config.RetryPolicy, log *logger.Logger) (*Client, error) {
	helper := utils.NewHTTPHelper()
	if !helper.IsValidURL(cfg.Endpoint) {
		return nil, fmt.Errorf("invalid embedding endpoint %q", cfg.Endpoint)
	}

	batchSize := cfg.BatchSize
	if batchSize < 1 {
		batchSize = 1
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}

	if retry.MaxAttempts < 1 {
		retry = config.DefaultRetryPolicy()
	}

	return &Client{
		endpoint:  strings.TrimRight(cfg.Endpoint, "/"),
		model:     cfg.Model,
		batchSize: batchSize,
		client:    &http.Client{Timeout: retry.GetTimeout()},
		limiter:   limiter,
		retry:     retry,
		headers:   helper.BuildHeaders(nil),
		log:       log.With("component", "embed", "endpoint", cfg.Endpoint),
	}, nil
}

// Model returns the configured model name.
func (c *Client) Model() string { return c.model }

// Embed returns the vector of a single text.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := c.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}

	return vecs[0], nil
}

// EmbedBatch embeds texts in chunks of the configured batch size, preserving input order.
func (c *Client) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	result := make([][]float32, len(texts))

	for start := 0; start < len(texts); start += c.batchSize {
		end := min(start+c.batchSize, len(texts))

		vecs, err := c.callWithRetry(ctx, texts[start:end])
		if err != nil {
			return nil, fmt.Errorf("batch [%d:%d]: %w", start, end, err)
		}

		copy(result[start:end], vecs)
	}

	return result, nil
}

// callWithRetry retries throttled, server-side and malformed responses with exponential backoff.
func (c *Client) callWithRetry(ctx context.Context, texts []string) ([][]float32, error) {
	var lastErr error

	for attempt := 1; attempt <= c.retry.MaxAttempts; attempt++ {
		var retryAfter time.Duration

		vecs, err := c.call(ctx, texts, &retryAfter)
		if err == nil {
			return vecs, nil
		}

		var se *statusError
		if errors.As(err, &se) && !se.retryable() {
			return nil, err
		}

		if ctx.Err() != nil {
			return nil, fmt.Errorf("embedding request cancelled: %w", ctx.Err())
		}

		lastErr = err

		if attempt == c.retry.MaxAttempts {
			break
		}

		delay := c.retry.GetRetryDelay(attempt + 1)
		if retryAfter > 0 {
			delay = min(retryAfter, maxRetryAfter)
		}

		c.log.Warn("embedding request failed, retrying", "attempt", attempt, "delay", delay, "error", err)

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("embedding request cancelled during retry: %w", ctx.Err())
		case <-time.After(delay):
		}
	}

	return nil, fmt.Errorf("%w: %w", ErrRetriesExceeded, lastErr)
}

// statusError is a non-200 answer of the embedding server.
type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("embedding server returned status %d: %s", e.code, e.body)
}

func (e *statusError) retryable() bool {
	return e.code == http.StatusTooManyRequests || e.code >= http.StatusInternalServerError
}

// call performs one rate-limited request.
func (c *Client) call(ctx context.Context, texts []string, retryAfter *time.Duration) ([][]float32, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait failed: %w", err)
	}

	body, err := json.Marshal(embedRequest{Model: c.model, Input: texts})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := c.endpoint + "/v1/embeddings"

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header = c.headers.Clone()

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP POST %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))

		if seconds, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil && seconds > 0 {
			*retryAfter = time.Duration(seconds) * time.Second
		}

		return nil, &statusError{code: resp.StatusCode, body: strings.TrimSpace(string(respBody))}
	}

	var result embedResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<20)).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if len(result.Data) == 0 {
		return nil, ErrEmptyResponse
	}

	// Reassemble in input order.
	vecs := make([][]float32, len(texts))
	for _, d := range result.Data {
		if d.Index >= 0 && d.Index < len(vecs) {
			vecs[d.Index] = d.Embedding
		}
	}

	for i, v := range vecs {
		if v == nil {
			return nil, fmt.Errorf("%w: index %d", ErrMissingVector, i)
		}
	}

	return vecs, nil
}
