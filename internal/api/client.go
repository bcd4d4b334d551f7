package api

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/AbdulWasayUl/country-currency-api/internal/logger"
)

const defaultTimeout = 30 * time.Second

// StatusError is returned when the upstream answers with anything but 200.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("API %s returned non-OK status: %d %s", e.URL, e.StatusCode, http.StatusText(e.StatusCode))
}

type Client struct {
	httpClient *http.Client
}

func NewClient() *Client {
	return &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
}

// NewClientWith wraps an existing http.Client, used by tests.
func NewClientWith(hc *http.Client) *Client {
	return &Client{httpClient: hc}
}

// Do performs a single GET. There are no retries: any transport failure or
// non-200 answer is returned to the caller as an error.
func (c *Client) Do(ctx context.Context, url string, headers map[string]string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	logger.Info("Making request to %s", url)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.Error("HTTP request to %s failed: %v", url, err)
		return nil, fmt.Errorf("request to %s failed: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		logger.Error("API returned status code %d. Body: %s", resp.StatusCode, string(body))
		return nil, &StatusError{URL: url, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return body, nil
}
