// internal/api/client.go
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/aerosweep/sweep/pkg/core"
)

// DefaultTimeout bounds each request when New is given a non-positive timeout.
const DefaultTimeout = 2 * time.Second

// Client posts mission metrics to an HTTP collector (a Node-RED flow by default).
type Client struct {
	baseURL     string
	metricsPath string
	apiKey      string
	httpClient  *http.Client
}

// New creates a new API client.
func New(baseURL, metricsPath, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if metricsPath != "" && !strings.HasPrefix(metricsPath, "/") {
		metricsPath = "/" + metricsPath
	}
	return &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		metricsPath: metricsPath,
		apiKey:      apiKey,
		httpClient:  &http.Client{Timeout: timeout},
	}
}

// Name identifies the sink in logs.
func (c *Client) Name() string {
	return "api"
}

// URL returns the metrics endpoint.
func (c *Client) URL() string {
	return c.baseURL + c.metricsPath
}

// Healthcheck checks if the collector is reachable.
func (c *Client) Healthcheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/healthcheck", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("healthcheck request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("healthcheck returned status %d", resp.StatusCode)
	}
	return nil
}

// Submit posts the summary as JSON. Any 2xx status is success.
func (c *Client) Submit(ctx context.Context, summary core.Summary) error {
	body, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to encode summary: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL(), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("metrics request failed: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("metrics endpoint returned status %d", resp.StatusCode)
	}
	return nil
}
