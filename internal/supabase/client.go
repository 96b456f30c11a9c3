// Package supabase implements the note store over a Supabase project's
// PostgREST endpoint.
package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rpggio/voicenotes/internal/repository"
)

const maxResponseSize = 8 << 20

// Client sends PostgREST requests authenticated with a project API key.
type Client struct {
	baseURL     string
	apiKey      string
	httpClient  *http.Client
	retryConfig RetryConfig
	logger      *slog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(client *Client) {
		client.httpClient = c
	}
}

// WithRetryConfig sets the retry configuration for reads.
func WithRetryConfig(cfg RetryConfig) ClientOption {
	return func(client *Client) {
		client.retryConfig = cfg
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(client *Client) {
		client.logger = logger
	}
}

// NewClient creates a client for the project at baseURL.
func NewClient(baseURL, apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		apiKey:      apiKey,
		retryConfig: DefaultRetryConfig(),
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

type request struct {
	method string
	table  string
	query  url.Values
	body   any
	prefer []string
}

type response struct {
	body   []byte
	header http.Header
}

// read sends an idempotent request, retrying transport failures.
func (c *Client) read(ctx context.Context, req request) (*response, error) {
	attempts := max(c.retryConfig.MaxAttempts, 1)
	var lastErr error

	for attempt := 1; attempt <= attempts; attempt++ {
		resp, err := c.send(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if !retryable(err) || attempt == attempts {
			break
		}

		backoff := c.retryConfig.backoff(attempt)
		c.logger.Debug("store read failed, retrying",
			"table", req.table,
			"attempt", attempt,
			"max_attempts", attempts,
			"backoff", backoff,
			"error", err)

		select {
		case <-ctx.Done():
			return nil, transportError("read "+req.table, ctx.Err())
		case <-time.After(backoff):
		}
	}

	return nil, lastErr
}

// write sends a request exactly once. A write whose outcome is unknown must
// not be repeated blindly.
func (c *Client) write(ctx context.Context, req request) (*response, error) {
	return c.send(ctx, req)
}

func (c *Client) send(ctx context.Context, req request) (*response, error) {
	endpoint := c.baseURL + "/rest/v1/" + req.table
	if len(req.query) > 0 {
		endpoint += "?" + req.query.Encode()
	}

	var body io.Reader
	if req.body != nil {
		payload, err := json.Marshal(req.body)
		if err != nil {
			return nil, fmt.Errorf("supabase: encode %s body: %w", req.table, err)
		}
		body = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("supabase: create request: %w", err)
	}
	httpReq.Header.Set("apikey", c.apiKey)
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Accept", "application/json")
	if req.body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if len(req.prefer) > 0 {
		httpReq.Header.Set("Prefer", strings.Join(req.prefer, ","))
	}

	start := time.Now()
	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, transportError(req.method+" "+req.table, err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseSize))
	if err != nil {
		return nil, transportError("read "+req.table+" response", err)
	}

	c.logger.Debug("store request",
		"method", req.method,
		"table", req.table,
		"status", httpResp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds())

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		return nil, classifyStatus(httpResp.StatusCode, respBody)
	}

	return &response{body: respBody, header: httpResp.Header}, nil
}

// Ping verifies the endpoint is reachable and the key can read projects.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.read(ctx, request{
		method: http.MethodGet,
		table:  projectsTable,
		query:  url.Values{"select": {"id"}, "limit": {"1"}},
	})
	return err
}

func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return errors.Is(err, repository.ErrTransport)
}
