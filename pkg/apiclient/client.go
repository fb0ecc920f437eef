package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/angelmondragon/webtemplate/pkg/config"
)

const (
	contentTypeHeader = "Content-Type"
	jsonContentType   = "application/json"
)

// HTTPDoer is the transport the client issues requests through. *http.Client satisfies it.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client calls the template backend. It holds no mutable state and is safe for concurrent use.
type Client struct {
	httpClient HTTPDoer
	origin     string
	basePath   string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP transport.
func WithHTTPClient(doer HTTPDoer) Option {
	return func(c *Client) {
		if doer != nil {
			c.httpClient = doer
		}
	}
}

// New builds a client for cfg. An empty origin falls back to config.DefaultAPIURL.
func New(cfg config.ClientConfig, opts ...Option) *Client {
	client := &Client{
		origin:     cfg.Origin(),
		basePath:   cfg.BasePath,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}

	return client
}

// RequestOptions mirrors the subset of a fetch-style request the client forwards.
type RequestOptions struct {
	// Method defaults to GET.
	Method string
	Header http.Header
	Body   io.Reader
}

// URL joins origin, base path and endpoint verbatim. Slashes are not normalized.
func (c *Client) URL(endpoint string) string {
	return c.origin + c.basePath + endpoint
}

// Do performs exactly one request against endpoint.
//
// A 204 yields a nil message and nil error. Any other 2xx yields the body, which must
// be valid JSON. Every failure, including transport errors, comes back as *Error.
func (c *Client) Do(ctx context.Context, endpoint string, opts RequestOptions) (json.RawMessage, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	method := opts.Method
	if method == "" {
		method = http.MethodGet
	}

	req, err := http.NewRequestWithContext(ctx, method, c.URL(endpoint), opts.Body)
	if err != nil {
		return nil, &Error{Message: err.Error(), cause: err}
	}

	for key, values := range opts.Header {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}
	if req.Header.Get(contentTypeHeader) == "" {
		req.Header.Set(contentTypeHeader, jsonContentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &Error{Message: err.Error(), cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, readErr := io.ReadAll(resp.Body)

	if !isSuccess(resp.StatusCode) {
		if readErr != nil {
			body = nil
		}
		return nil, &Error{Message: errorMessage(resp, body), StatusCode: resp.StatusCode}
	}

	if resp.StatusCode == http.StatusNoContent {
		return nil, nil
	}

	if readErr != nil {
		return nil, &Error{Message: readErr.Error(), StatusCode: resp.StatusCode, cause: readErr}
	}

	var payload json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, &Error{
			Message:    fmt.Sprintf("invalid JSON response: %v", err),
			StatusCode: resp.StatusCode,
			cause:      err,
		}
	}
	return payload, nil
}

// Get is Do with the GET method and no body.
func (c *Client) Get(ctx context.Context, endpoint string) (json.RawMessage, error) {
	return c.Do(ctx, endpoint, RequestOptions{Method: http.MethodGet})
}

// Post marshals payload as the JSON body of a POST.
func (c *Client) Post(ctx context.Context, endpoint string, payload any) (json.RawMessage, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, &Error{Message: fmt.Sprintf("encode request body: %v", err), cause: err}
	}
	return c.Do(ctx, endpoint, RequestOptions{
		Method: http.MethodPost,
		Body:   bytes.NewReader(body),
	})
}

// Call performs Do and decodes the result into T. A 204 yields (nil, nil).
func Call[T any](ctx context.Context, c *Client, endpoint string, opts RequestOptions) (*T, error) {
	raw, err := c.Do(ctx, endpoint, opts)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}

	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, &Error{Message: fmt.Sprintf("invalid JSON response: %v", err), cause: err}
	}
	return &out, nil
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}
