// ABOUTME: Transport boundary to the remote authority and its HTTP implementation
// ABOUTME: Function invocations for mutations, table selects for bulk reads

package dispatch

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
)

// MaxResponseSize bounds every response body read from the authority.
const MaxResponseSize int64 = 16 << 20

// Function names exposed by the authority.
const (
	FunctionAdminAction   = "admin-action"
	FunctionSubmitOrder   = "submit-order"
	FunctionSignGuestbook = "sign-guestbook"
)

// Transport carries requests to the authority. A non-success answer is
// reported as *StatusError; any other error means the authority could not
// be reached.
type Transport interface {
	Invoke(ctx context.Context, function string, body json.RawMessage) (json.RawMessage, error)
	Select(ctx context.Context, table string, newestFirst bool) (json.RawMessage, error)
}

// HTTPTransport talks to the authority over HTTP. The anon key is public and
// identifies the project; it is sent both as apikey and as a bearer token.
type HTTPTransport struct {
	baseURL string
	anonKey string
	client  *http.Client
	logger  *slog.Logger
}

// HTTPOption configures an HTTPTransport.
type HTTPOption func(*HTTPTransport)

// WithHTTPClient replaces the default client.
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(t *HTTPTransport) { t.client = c }
}

// NewHTTPTransport creates a transport for the authority at baseURL.
// No client timeout is set by default; hung requests are left to the
// caller's context.
func NewHTTPTransport(baseURL, anonKey string, opts ...HTTPOption) *HTTPTransport {
	t := &HTTPTransport{
		baseURL: strings.TrimRight(baseURL, "/"),
		anonKey: anonKey,
		client:  &http.Client{},
		logger:  slog.Default().With("component", "transport"),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Invoke posts body to an authority function.
func (t *HTTPTransport) Invoke(ctx context.Context, function string, body json.RawMessage) (json.RawMessage, error) {
	endpoint := t.baseURL + "/functions/v1/" + url.PathEscape(function)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return t.do(req)
}

// Select reads a whole table.
func (t *HTTPTransport) Select(ctx context.Context, table string, newestFirst bool) (json.RawMessage, error) {
	q := url.Values{}
	q.Set("select", "*")
	if newestFirst {
		q.Set("order", "created_at.desc")
	}
	endpoint := t.baseURL + "/rest/v1/" + url.PathEscape(table) + "?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	return t.do(req)
}

func (t *HTTPTransport) do(req *http.Request) (json.RawMessage, error) {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("apikey", t.anonKey)
	req.Header.Set("Authorization", "Bearer "+t.anonKey)

	start := time.Now()
	resp, err := t.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	t.logger.Debug("authority request",
		"method", req.Method,
		"path", req.URL.Path,
		"status", resp.StatusCode,
		"duration", time.Since(start),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Status: resp.StatusCode, Message: errorMessage(data)}
	}
	return data, nil
}

// errorMessage extracts a human-readable message from an error body. The
// functions answer {"error": "..."}; the table API answers {"message": "..."}.
func errorMessage(data []byte) string {
	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &body); err == nil {
		if body.Error != "" {
			return body.Error
		}
		if body.Message != "" {
			return body.Message
		}
	}
	return ""
}
