// Package client talks to a running placement service over HTTP.
package client

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

	"github.com/okian/placement/internal/domain/types"
	"github.com/okian/placement/pkg/logger"
)

// Client defaults.
const (
	DefaultBaseURL      = "http://localhost:9080"
	defaultTimeout      = 30 * time.Second
	defaultPollInterval = 250 * time.Millisecond
)

// Client wraps http.Client with the service routes.
type Client struct {
	baseURL      string
	apiKey       string
	http         *http.Client
	pollInterval time.Duration
	logger       logger.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithAPIKey sends key in the X-API-Key header.
func WithAPIKey(key string) Option {
	return func(c *Client) { c.apiKey = key }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithPollInterval sets how often Wait polls a job.
func WithPollInterval(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.pollInterval = d
		}
	}
}

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// New creates a client for baseURL.
func New(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		http:         &http.Client{Timeout: defaultTimeout},
		pollInterval: defaultPollInterval,
		logger:       logger.Named("client"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Optimize runs a synchronous allocation.
func (c *Client) Optimize(ctx context.Context, req types.OptimizeRequest) (types.OptimizeResponse, error) {
	var out types.OptimizeResponse
	err := c.do(ctx, http.MethodPost, "/v1/matching/optimize", req, http.StatusOK, &out)
	return out, err
}

// MatchBatch ranks internships for every student.
func (c *Client) MatchBatch(ctx context.Context, req types.MatchRequest) (types.BatchMatchResponse, error) {
	var out types.BatchMatchResponse
	err := c.do(ctx, http.MethodPost, "/v1/matching/batch", req, http.StatusOK, &out)
	return out, err
}

// Submit queues an allocation job and returns its id.
func (c *Client) Submit(ctx context.Context, req types.OptimizeRequest) (string, error) {
	var out struct {
		JobID string `json:"job_id"`
	}
	if err := c.do(ctx, http.MethodPost, "/v1/allocations", req, http.StatusAccepted, &out); err != nil {
		return "", err
	}
	return out.JobID, nil
}

// Job reads an allocation job.
func (c *Client) Job(ctx context.Context, id string) (types.Job, error) {
	var out types.Job
	err := c.do(ctx, http.MethodGet, "/v1/allocations/"+url.PathEscape(id), nil, http.StatusOK, &out)
	return out, err
}

// Wait polls the job until it finishes or ctx is done. A failed job returns
// ErrJobFailed along with the job.
func (c *Client) Wait(ctx context.Context, id string) (types.Job, error) {
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		job, err := c.Job(ctx, id)
		if err != nil {
			return types.Job{}, err
		}
		switch job.Status {
		case types.JobDone:
			return job, nil
		case types.JobFailed:
			return job, fmt.Errorf("%w: %s: %s", ErrJobFailed, id, job.Error)
		}
		c.logger.Debug(ctx, "waiting for job", logger.String("job_id", id), logger.String("status", string(job.Status)))

		select {
		case <-ctx.Done():
			return types.Job{}, fmt.Errorf("wait for job %s: %w", id, ctx.Err())
		case <-ticker.C:
		}
	}
}

func (c *Client) do(ctx context.Context, method, path string, body any, want int, out any) error {
	var reader io.Reader = http.NoBody
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s response: %w", path, err)
	}
	if resp.StatusCode != want {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if jerr := json.Unmarshal(data, apiErr); jerr != nil || apiErr.Message == "" {
			apiErr.Message = strings.TrimSpace(string(data))
		}
		return apiErr
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}
