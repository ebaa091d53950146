package driver

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrUnhealthy is returned when the driver health check fails.
var ErrUnhealthy = errors.New("driver health check failed")

// Client talks to the browser driver's REST API. It implements browser.Page.
type Client struct {
	url        string
	httpClient *http.Client
}

// NewClient creates a new driver client.
func NewClient(rawURL string) *Client {
	return &Client{
		url: strings.TrimSuffix(rawURL, "/"),
		httpClient: &http.Client{
			// Page operations can legitimately block on slow remote loads.
			Timeout: 90 * time.Second,
		},
	}
}

// HealthCheck checks whether the driver is responsive.
func (c *Client) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, "GET", c.url+"/health-check", nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnhealthy, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrUnhealthy, resp.StatusCode)
	}
	return nil
}

// apiError is the driver's error response body.
type apiError struct {
	Error string `json:"error"`
}

// post sends a JSON command and decodes the response into out (may be nil).
func (c *Client) post(ctx context.Context, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.url+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("driver request failed: %w", err)
	}
	defer resp.Body.Close()
	return c.handleResponse(resp, out)
}

// get performs a GET with query parameters.
func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	u := c.url + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, "GET", u, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("driver request failed: %w", err)
	}
	defer resp.Body.Close()
	return c.handleResponse(resp, out)
}

func (c *Client) handleResponse(resp *http.Response, out any) error {
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		var apiErr apiError
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("driver: %s", apiErr.Error)
		}
		return fmt.Errorf("driver: status %d", resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// Navigate loads the given URL and waits for the page to settle.
func (c *Client) Navigate(ctx context.Context, pageURL string) error {
	return c.post(ctx, "/navigate", map[string]string{"url": pageURL}, nil)
}

// Click clicks the first element matching selector.
func (c *Client) Click(ctx context.Context, selector string) error {
	return c.post(ctx, "/click", map[string]string{"selector": selector}, nil)
}

// Fill sets an input's value directly.
func (c *Client) Fill(ctx context.Context, selector, value string) error {
	return c.post(ctx, "/fill", map[string]string{"selector": selector, "value": value}, nil)
}

// Type fills an input keystroke by keystroke.
func (c *Client) Type(ctx context.Context, selector, text string, keyDelay time.Duration) error {
	return c.post(ctx, "/type", map[string]any{
		"selector": selector,
		"text":     text,
		"delay_ms": keyDelay.Milliseconds(),
	}, nil)
}

// SelectOption selects an option of a <select> element by value.
func (c *Client) SelectOption(ctx context.Context, selector, value string) error {
	return c.post(ctx, "/select", map[string]string{"selector": selector, "value": value}, nil)
}

// Text returns the inner text of the first matching element.
func (c *Client) Text(ctx context.Context, selector string) (string, error) {
	var out struct {
		Text string `json:"text"`
	}
	err := c.get(ctx, "/text", url.Values{"selector": {selector}}, &out)
	return out.Text, err
}

// Value returns the current value of the first matching form field.
func (c *Client) Value(ctx context.Context, selector string) (string, error) {
	var out struct {
		Value string `json:"value"`
	}
	err := c.get(ctx, "/value", url.Values{"selector": {selector}}, &out)
	return out.Value, err
}

// Count returns how many elements match selector.
func (c *Client) Count(ctx context.Context, selector string) (int, error) {
	var out struct {
		Count int `json:"count"`
	}
	err := c.get(ctx, "/count", url.Values{"selector": {selector}}, &out)
	return out.Count, err
}

// Visible reports whether the first matching element is visible.
func (c *Client) Visible(ctx context.Context, selector string) (bool, error) {
	var out struct {
		Visible bool `json:"visible"`
	}
	err := c.get(ctx, "/visible", url.Values{"selector": {selector}}, &out)
	return out.Visible, err
}

// PressAndHold performs a press-and-hold gesture on the element.
func (c *Client) PressAndHold(ctx context.Context, selector string, hold time.Duration) error {
	return c.post(ctx, "/press-hold", map[string]any{
		"selector": selector,
		"hold_ms":  hold.Milliseconds(),
	}, nil)
}

// WaitVisible blocks until the element is visible or the timeout elapses.
func (c *Client) WaitVisible(ctx context.Context, selector string, timeout time.Duration) error {
	return c.post(ctx, "/wait-visible", map[string]any{
		"selector":   selector,
		"timeout_ms": timeout.Milliseconds(),
	}, nil)
}

// Location returns the current page URL.
func (c *Client) Location(ctx context.Context) (string, error) {
	var out struct {
		URL string `json:"url"`
	}
	err := c.get(ctx, "/location", nil, &out)
	return out.URL, err
}

// Screenshot captures the first matching element as a PNG.
func (c *Client) Screenshot(ctx context.Context, selector string) ([]byte, error) {
	var out struct {
		Data string `json:"data"` // base64-encoded PNG
	}
	q := url.Values{}
	if selector != "" {
		q.Set("selector", selector)
	}
	if err := c.get(ctx, "/screenshot", q, &out); err != nil {
		return nil, err
	}
	img, err := base64.StdEncoding.DecodeString(out.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode screenshot: %w", err)
	}
	return img, nil
}
