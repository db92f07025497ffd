package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/kbukum/licensing/logger"
	"github.com/kbukum/licensing/usercontext"
)

// Adapter is a configurable HTTP adapter. It performs exactly one exchange
// per call; retries, breaking and rate limiting belong to the resilience
// policy wrapped around it. It can be used as a simple HTTP client or as a
// provider.RequestResponse for composition with the provider framework.
type Adapter struct {
	httpClient *http.Client
	config     Config
	log        *logger.Logger
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(a *Adapter) { a.httpClient = hc }
}

// WithLogger sets the logger used for request diagnostics.
func WithLogger(log *logger.Logger) Option {
	return func(a *Adapter) { a.log = log }
}

// New creates a new HTTP adapter with the given configuration.
func New(cfg Config, opts ...Option) (*Adapter, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()

	c := &Adapter{
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   cfg.Timeout,
		},
		config: cfg,
		log:    logger.Nop(),
	}

	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.WithComponent("httpclient").WithFields(logger.Fields(logger.FieldClient, cfg.Name))

	return c, nil
}

// Do executes an HTTP request and returns the complete response. Failures are
// *errors.AppError values whose cause is the classified *Error.
func (c *Adapter) Do(ctx context.Context, req Request) (*Response, error) {
	resp, err := c.executeRequest(ctx, req)
	if err != nil {
		c.log.WithContext(ctx).Debug("http request failed", logger.Fields(
			"method", req.Method, "path", req.Path, logger.FieldError, err.Error(),
		))
		return resp, toAppError(c.config.Name, err)
	}
	return resp, nil
}

// Unwrap returns the underlying *http.Client for advanced use cases.
func (c *Adapter) Unwrap() *http.Client {
	return c.httpClient
}

// executeRequest builds and sends the HTTP request.
func (c *Adapter) executeRequest(ctx context.Context, req Request) (*Response, error) {
	httpReq, err := c.buildRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil || isTimeout(err) {
			return nil, NewTimeoutError(err)
		}
		return nil, NewConnectionError(err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		if ctx.Err() != nil {
			return nil, NewTimeoutError(err)
		}
		return nil, NewConnectionError(fmt.Errorf("read response body: %w", err))
	}

	result := &Response{
		StatusCode: resp.StatusCode,
		Headers:    flattenHeaders(resp.Header),
		Body:       body,
	}

	if classErr := ClassifyStatusCode(resp.StatusCode, body); classErr != nil {
		return result, classErr
	}

	return result, nil
}

// buildRequest constructs an *http.Request from the adapter config and request.
func (c *Adapter) buildRequest(ctx context.Context, req Request) (*http.Request, error) {
	// Resolve URL
	url := req.Path
	if c.config.BaseURL != "" && !strings.HasPrefix(req.Path, "http://") && !strings.HasPrefix(req.Path, "https://") {
		url = strings.TrimRight(c.config.BaseURL, "/") + "/" + strings.TrimLeft(req.Path, "/")
	}

	body, contentType, err := encodeBody(req.Body)
	if err != nil {
		return nil, NewValidationError(fmt.Sprintf("encode body: %v", err))
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, url, body)
	if err != nil {
		return nil, NewValidationError(fmt.Sprintf("create request: %v", err))
	}

	if len(req.Query) > 0 {
		q := httpReq.URL.Query()
		for k, v := range req.Query {
			q.Set(k, v)
		}
		httpReq.URL.RawQuery = q.Encode()
	}

	for k, v := range c.config.Headers {
		httpReq.Header.Set(k, v)
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	if body != nil && httpReq.Header.Get("Content-Type") == "" && contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	if httpReq.Header.Get("Accept") == "" {
		httpReq.Header.Set("Accept", "application/json")
	}

	// Forward the caller's identity headers and trace context downstream.
	usercontext.Inject(ctx, httpReq.Header)
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(httpReq.Header))

	return httpReq, nil
}

// encodeBody converts a body value into an io.Reader and content type.
func encodeBody(body any) (io.Reader, string, error) {
	if body == nil {
		return nil, "", nil
	}
	switch v := body.(type) {
	case io.Reader:
		return v, "", nil
	case []byte:
		return bytes.NewReader(v), "", nil
	case string:
		return strings.NewReader(v), "text/plain", nil
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return nil, "", err
		}
		return bytes.NewReader(data), "application/json", nil
	}
}

// flattenHeaders converts multi-value headers to single-value.
func flattenHeaders(h http.Header) map[string]string {
	result := make(map[string]string, len(h))
	for k, v := range h {
		if len(v) > 0 {
			result[k] = v[0]
		}
	}
	return result
}

// --- provider.Provider interface ---

// Name returns the adapter name (implements provider.Provider).
func (c *Adapter) Name() string {
	return c.config.Name
}

// IsAvailable always reports true; availability is the policy's concern.
func (c *Adapter) IsAvailable(_ context.Context) bool {
	return true
}

// --- provider.RequestResponse[Request, *Response] interface ---

// Execute sends an HTTP request and returns the response (implements provider.RequestResponse).
func (c *Adapter) Execute(ctx context.Context, req Request) (*Response, error) {
	return c.Do(ctx, req)
}

// Close releases idle connections held by the adapter.
func (c *Adapter) Close(_ context.Context) error {
	c.httpClient.CloseIdleConnections()
	return nil
}

// GetConfig returns the adapter's configuration.
func (c *Adapter) GetConfig() Config {
	return c.config
}
