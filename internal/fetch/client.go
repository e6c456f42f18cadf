// Package fetch provides clients for the upstream market and blockchain data sources.
package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/ratelimit"
)

// newRetryClient creates a new HTTP client with retry capabilities
func newRetryClient(timeout time.Duration) *http.Client {
	c := retryablehttp.NewClient()
	c.RetryMax = 3
	c.RetryWaitMin = 500 * time.Millisecond
	c.RetryWaitMax = 3 * time.Second
	c.Logger = nil

	std := c.StandardClient()
	std.Timeout = timeout
	return std
}

// NewLimiter returns an outbound limiter shared by all clients. rps <= 0 disables limiting.
func NewLimiter(rps int) ratelimit.Limiter {
	if rps <= 0 {
		return ratelimit.NewUnlimited()
	}
	return ratelimit.New(rps)
}

// getJSON issues a GET and decodes a JSON body into out. A nil limiter does not throttle.
func getJSON(ctx context.Context, httpClient *http.Client, limiter ratelimit.Limiter, url, provider string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	if limiter != nil {
		limiter.Take()
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("error fetching data from %s: %w", provider, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s API error: status %d, body: %s", provider, resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("error decoding %s response: %w", provider, err)
	}
	return nil
}
