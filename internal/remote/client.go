package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Client is a thin HTTP client for the platform's notification API.
// It handles Bearer token authentication, JSON marshaling, and
// automatic retry with exponential backoff on HTTP 429.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	maxRetries int
}

var _ Service = (*Client)(nil)

// NewClient creates a new API client. The baseURL should be the root
// URL of the platform (e.g., https://community.example.org). The token
// is an API token used for Bearer authentication.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		maxRetries: 3,
	}
}

// ListNotifications retrieves a page of raw notifications.
func (c *Client) ListNotifications(
	ctx context.Context,
	opts ListOptions,
) (*ListResult, error) {
	page := opts.Page
	if page < 1 {
		page = 1
	}
	limit := opts.Limit
	if limit < 1 {
		limit = 50
	}

	path := fmt.Sprintf("/api/v1/notifications?page=%d&limit=%d", page, limit)

	var resp listResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, fmt.Errorf("listing notifications: %w", err)
	}

	return &ListResult{
		Items:       resp.Notifications,
		Total:       resp.Total,
		UnreadCount: resp.UnreadCount,
	}, nil
}

// GetStats retrieves aggregate counts.
func (c *Client) GetStats(ctx context.Context) (*StatsPayload, error) {
	var stats StatsPayload
	if err := c.do(
		ctx, http.MethodGet, "/api/v1/notifications/stats", nil, &stats,
	); err != nil {
		return nil, fmt.Errorf("fetching notification stats: %w", err)
	}
	return &stats, nil
}

// MarkRead marks a single notification read.
func (c *Client) MarkRead(ctx context.Context, id string) error {
	path := fmt.Sprintf("/api/v1/notifications/%s/read", id)
	if err := c.do(ctx, http.MethodPut, path, nil, nil); err != nil {
		return fmt.Errorf("marking notification %s read: %w", id, err)
	}
	return nil
}

// MarkAllRead marks every notification read.
func (c *Client) MarkAllRead(ctx context.Context) error {
	if err := c.do(
		ctx, http.MethodPut, "/api/v1/notifications/read-all", nil, nil,
	); err != nil {
		return fmt.Errorf("marking all notifications read: %w", err)
	}
	return nil
}

// DeleteOne removes a single notification.
func (c *Client) DeleteOne(ctx context.Context, id string) error {
	path := fmt.Sprintf("/api/v1/notifications/%s", id)
	if err := c.do(ctx, http.MethodDelete, path, nil, nil); err != nil {
		return fmt.Errorf("deleting notification %s: %w", id, err)
	}
	return nil
}

// DeleteAllRead removes every read notification.
func (c *Client) DeleteAllRead(ctx context.Context) error {
	if err := c.do(
		ctx, http.MethodDelete, "/api/v1/notifications/read", nil, nil,
	); err != nil {
		return fmt.Errorf("deleting read notifications: %w", err)
	}
	return nil
}

// GetPreferences retrieves the user's notification preferences.
func (c *Client) GetPreferences(ctx context.Context) (*RawPreferences, error) {
	var prefs RawPreferences
	if err := c.do(
		ctx, http.MethodGet, "/api/v1/notifications/preferences", nil, &prefs,
	); err != nil {
		return nil, fmt.Errorf("fetching preferences: %w", err)
	}
	return &prefs, nil
}

// SetPreferences writes the full preference set.
func (c *Client) SetPreferences(ctx context.Context, prefs *RawPreferences) error {
	if err := c.do(
		ctx, http.MethodPut, "/api/v1/notifications/preferences", prefs, nil,
	); err != nil {
		return fmt.Errorf("saving preferences: %w", err)
	}
	return nil
}

// SendTest asks the server to synthesize one notification.
func (c *Client) SendTest(ctx context.Context) (*RawNotification, error) {
	var resp testResponse
	if err := c.do(
		ctx, http.MethodPost, "/api/v1/notifications/test", nil, &resp,
	); err != nil {
		return nil, fmt.Errorf("sending test notification: %w", err)
	}
	return &resp.Notification, nil
}

// Me validates the session token and returns the principal.
func (c *Client) Me(ctx context.Context) (*Principal, error) {
	var p Principal
	if err := c.do(ctx, http.MethodGet, "/api/v1/auth/me", nil, &p); err != nil {
		return nil, fmt.Errorf("validating session: %w", err)
	}
	return &p, nil
}

// do is the core HTTP method that builds the request, handles auth,
// rate limiting with exponential backoff, and JSON (de)serialization.
func (c *Client) do(
	ctx context.Context,
	method string,
	path string,
	body interface{},
	result interface{},
) error {
	url := c.baseURL + path

	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		// Rebuild the body reader on retries since it was consumed.
		if attempt > 0 && body != nil {
			data, _ := json.Marshal(body)
			bodyReader = bytes.NewReader(data)
		}

		req, err := http.NewRequestWithContext(
			ctx, method, url, bodyReader,
		)
		if err != nil {
			return fmt.Errorf("creating request: %w", err)
		}

		req.Header.Set("Authorization", "Bearer "+c.token)
		req.Header.Set("Accept", "application/json")
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf(
				"executing request %s %s: %w", method, path, err,
			)
		}

		respBody, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			return fmt.Errorf("reading response body: %w", readErr)
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			waitDuration := retryAfterDuration(resp, attempt)
			lastErr = fmt.Errorf(
				"rate limited (429) on %s %s", method, path,
			)

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(waitDuration):
				continue
			}
		}

		if resp.StatusCode == http.StatusUnauthorized {
			return &AuthError{
				Message: fmt.Sprintf(
					"authentication failed (401): check your API "+
						"token for %s", c.baseURL,
				),
			}
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			var apiErr apiError
			if json.Unmarshal(respBody, &apiErr) == nil &&
				(apiErr.Error != "" || apiErr.Message != "") {
				msg := apiErr.Message
				if msg == "" {
					msg = apiErr.Error
				}
				return fmt.Errorf(
					"API error (%d) on %s %s: %s",
					resp.StatusCode, method, path, msg,
				)
			}
			return fmt.Errorf(
				"unexpected status %d on %s %s: %s",
				resp.StatusCode, method, path, string(respBody),
			)
		}

		// No content to parse (e.g. 204).
		if result == nil || resp.StatusCode == http.StatusNoContent {
			return nil
		}

		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf(
				"unmarshaling response from %s %s: %w",
				method, path, err,
			)
		}

		return nil
	}

	return fmt.Errorf(
		"max retries (%d) exceeded: %w", c.maxRetries, lastErr,
	)
}

// retryAfterDuration reads the Retry-After header and computes a wait
// duration. Falls back to exponential backoff if the header is missing.
func retryAfterDuration(resp *http.Response, attempt int) time.Duration {
	if header := resp.Header.Get("Retry-After"); header != "" {
		if seconds, err := strconv.Atoi(header); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}

	// Exponential backoff: 1s, 2s, 4s, ...
	backoff := time.Duration(1<<uint(attempt)) * time.Second
	if backoff > 30*time.Second {
		backoff = 30 * time.Second
	}
	return backoff
}
