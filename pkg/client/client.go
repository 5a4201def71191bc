// Package client talks to the workflow backend: it saves workflow documents and
// asks the generation endpoint for new drafts.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dukex/composer/pkg/otelhelper"
	"github.com/moogar0880/problems"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// DefaultTimeout bounds every request unless WithTimeout or WithHTTPClient says otherwise.
const DefaultTimeout = 30 * time.Second

const maxErrorBody = 4096

// Client is the HTTP transport shared by the gateways.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	tracer     trace.Tracer
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithTracer sets the tracer used for gateway spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(c *Client) {
		c.tracer = tracer
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// New returns a client for the backend rooted at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	parsed, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return nil, fmt.Errorf("invalid API URL %q: %w", baseURL, err)
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("invalid API URL %q: scheme must be http or https", baseURL)
	}

	c := &Client{
		baseURL:    parsed,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		tracer:     otelhelper.Tracer("github.com/dukex/composer/pkg/client"),
		logger:     slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// endpoint joins path onto the base URL, keeping any base path prefix.
func (c *Client) endpoint(path string) string {
	u := *c.baseURL
	u.Path = strings.TrimSuffix(u.Path, "/") + path

	return u.String()
}

// do sends a JSON request and decodes a JSON response into out when out is
// not nil. Non-2xx responses become *APIError.
func (c *Client) do(ctx context.Context, op, method, path string, body, out any) error {
	ctx, span := otelhelper.StartSpan(ctx, c.tracer, "client."+op,
		attribute.String(otelhelper.GatewayOperationKey, op),
	)
	defer span.End()

	payload, err := json.Marshal(body)
	if err != nil {
		otelhelper.SetError(span, err)

		return fmt.Errorf("failed to encode %s request: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path), bytes.NewReader(payload))
	if err != nil {
		otelhelper.SetError(span, err)

		return fmt.Errorf("failed to build %s request: %w", op, err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	c.logger.DebugContext(ctx, "Sending request", "op", op, "method", method, "url", req.URL.String())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		otelhelper.SetError(span, err)

		return fmt.Errorf("%s request failed: %w", op, err)
	}

	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.WarnContext(ctx, "Failed to close response body", "error", err)
		}
	}()

	span.SetAttributes(attribute.Int(otelhelper.HTTPStatusKey, resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := decodeAPIError(op, resp)
		otelhelper.SetError(span, apiErr)

		return apiErr
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)

		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		otelhelper.SetError(span, err)

		return fmt.Errorf("failed to decode %s response: %w", op, err)
	}

	return nil
}

// decodeAPIError extracts the most useful detail from an error body: a problem
// document, a {"detail": ...} object or the raw text.
func decodeAPIError(op string, resp *http.Response) *APIError {
	apiErr := &APIError{Op: op, StatusCode: resp.StatusCode}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil || len(bytes.TrimSpace(raw)) == 0 {
		return apiErr
	}

	var problem problems.Problem
	if err := json.Unmarshal(raw, &problem); err == nil && (problem.Detail != "" || problem.Title != "") {
		apiErr.Type = problem.Type
		apiErr.Detail = problem.Detail

		if apiErr.Detail == "" {
			apiErr.Detail = problem.Title
		}

		return apiErr
	}

	apiErr.Detail = strings.TrimSpace(string(raw))

	return apiErr
}
