// ABOUTME: HTTP client for the Discourse REST API with authentication and bounded retry
// ABOUTME: Rate limits and server errors are retried with exponential backoff; other failures surface immediately

package discourse

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	DefaultMaxRetries   = 3
	DefaultInitialDelay = 1 * time.Second

	// maxErrorBodyLen caps how much of an error response we keep around
	maxErrorBodyLen = 500
)

// APIError is a non-2xx response from the Discourse API.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("discourse API error (%d): %s", e.StatusCode, e.Body)
}

// Transient reports whether the failure is worth retrying: rate
// limiting and server-side errors. Everything else means the request
// itself is wrong and a retry would fail the same way.
func (e *APIError) Transient() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// Client talks to a single Discourse forum on behalf of one API user.
type Client struct {
	baseURL     string
	apiKey      string
	apiUsername string

	// HTTPClient, MaxRetries, and InitialDelay may be adjusted before
	// first use. MaxRetries counts retries after the first attempt, so
	// a request is tried at most MaxRetries+1 times.
	HTTPClient   *http.Client
	MaxRetries   int
	InitialDelay time.Duration
}

// New creates a Client for the forum at baseURL authenticating with
// the given admin/mod API key and username
func New(baseURL, apiKey, apiUsername string) *Client {
	return &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		apiKey:       apiKey,
		apiUsername:  apiUsername,
		HTTPClient:   &http.Client{Timeout: 60 * time.Second},
		MaxRetries:   DefaultMaxRetries,
		InitialDelay: DefaultInitialDelay,
	}
}

// do performs one authenticated API call with retry. A non-nil form is
// sent www-form-urlencoded, matching what the Discourse endpoints
// expect. The response body is returned for 2xx statuses; transient
// failures (429, 5xx) are retried with exponential backoff before the
// last error is surfaced.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, form url.Values) ([]byte, error) {
	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	var formBody string
	if form != nil {
		formBody = form.Encode()
	}

	var lastErr error
	for attempt := 0; attempt <= c.MaxRetries; attempt++ {
		if attempt > 0 {
			// Exponential backoff: 1s, 2s, 4s, ...
			delay := c.InitialDelay << (attempt - 1)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		var reqBody io.Reader
		if form != nil {
			reqBody = strings.NewReader(formBody)
		}

		req, err := http.NewRequestWithContext(ctx, method, reqURL, reqBody)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}

		req.Header.Set("Api-Key", c.apiKey)
		req.Header.Set("Api-Username", c.apiUsername)
		req.Header.Set("Accept", "application/json")
		if form != nil {
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		}

		resp, err := c.HTTPClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("HTTP request failed: %w", err)
			continue
		}

		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("failed to read response body: %w", err)
			continue
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return respBody, nil
		}

		apiErr := &APIError{StatusCode: resp.StatusCode, Body: truncate(string(respBody))}
		if !apiErr.Transient() {
			return nil, apiErr
		}

		lastErr = apiErr
		if attempt < c.MaxRetries {
			slog.Warn("Transient forum API error, will retry",
				"method", method, "path", path, "status", apiErr.StatusCode, "attempt", attempt+1)
		}
	}

	return nil, fmt.Errorf("max retries (%d) exceeded: %w", c.MaxRetries, lastErr)
}

func truncate(s string) string {
	if len(s) > maxErrorBodyLen {
		return s[:maxErrorBodyLen]
	}
	return s
}
