// internal/common/http/client.go
package http

import (
	"net/http"
	"time"
)

const userAgent = "vca-advisor/1.0"

// Client is the outbound HTTP client shared by the Tekmetric and LLM
// integrations.
type Client struct {
	httpClient *http.Client
}

func NewClient(timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Wrap adapts an existing *http.Client, typically an httptest server client.
func Wrap(c *http.Client) *Client {
	if c == nil {
		c = http.DefaultClient
	}
	return &Client{httpClient: c}
}

func (c *Client) Do(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", userAgent)
	}
	return c.httpClient.Do(req)
}

// HTTPClient exposes the underlying client for SDKs that take their own.
func (c *Client) HTTPClient() *http.Client {
	return c.httpClient
}
