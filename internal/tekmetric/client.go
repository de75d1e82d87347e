// Package tekmetric fetches shop-management records over the Tekmetric REST API.
package tekmetric

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"vca-advisor/internal/common/errors"
	httpclient "vca-advisor/internal/common/http"
	"vca-advisor/internal/common/logger"
	"vca-advisor/internal/common/metrics"
)

const missingBaseURLMsg = "Tekmetric base URL missing. Set TM_BASE_URL or TEKMETRIC_BASE_URL."

// Record is an upstream document. Only a handful of fields are read by this
// service, so records stay loosely typed.
type Record map[string]interface{}

// TokenSource supplies a bearer token for every request.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// RequestOptions overrides the verb and headers of a FetchJSON call.
type RequestOptions struct {
	Method  string
	Headers map[string]string
}

type Client struct {
	baseURL    string
	tokens     TokenSource
	httpClient *httpclient.Client
	logger     logger.Logger
}

func NewClient(baseURL string, tokens TokenSource, httpClient *httpclient.Client, log logger.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		tokens:     tokens,
		httpClient: httpClient,
		logger:     logger.ForComponent(log, "tekmetric-client"),
	}
}

// FetchJSON performs an authenticated request against path and decodes the
// JSON response into out. Numbers decode as json.Number.
func (c *Client) FetchJSON(ctx context.Context, path string, opts *RequestOptions, out interface{}) error {
	if c.baseURL == "" {
		return errors.NewConfigurationError(missingBaseURLMsg)
	}

	token, err := c.tokens.Token(ctx)
	if err != nil {
		return err
	}

	method := http.MethodGet
	if opts != nil && opts.Method != "" {
		method = opts.Method
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request for %s: %w", path, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if opts != nil {
		for k, v := range opts.Headers {
			req.Header.Set(k, v)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.RecordUpstream(metrics.UpstreamTekmetric, 0)
		return fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer resp.Body.Close()
	metrics.RecordUpstream(metrics.UpstreamTekmetric, resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		apiErr := errors.NewUpstreamAPIError(resp.StatusCode, path, string(body))
		c.logger.Warn("Tekmetric request failed", map[string]interface{}{
			"status": resp.StatusCode,
			"path":   path,
		})
		return apiErr
	}

	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", path, err)
	}

	c.logger.Debug("Tekmetric request completed", map[string]interface{}{
		"method": method,
		"path":   path,
		"status": resp.StatusCode,
	})
	return nil
}

func (c *Client) fetchRecord(ctx context.Context, path string) (Record, error) {
	var rec Record
	if err := c.FetchJSON(ctx, path, nil, &rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// FetchRepairOrder returns /repair-orders/{id}.
func (c *Client) FetchRepairOrder(ctx context.Context, id string) (Record, error) {
	return c.fetchRecord(ctx, "/repair-orders/"+url.PathEscape(id))
}

// FetchVehicle returns /vehicles/{id}.
func (c *Client) FetchVehicle(ctx context.Context, id string) (Record, error) {
	return c.fetchRecord(ctx, "/vehicles/"+url.PathEscape(id))
}

// FetchCustomer returns /customers/{id}.
func (c *Client) FetchCustomer(ctx context.Context, id string) (Record, error) {
	return c.fetchRecord(ctx, "/customers/"+url.PathEscape(id))
}

// FetchJobsByRepairOrder returns the jobs listing for a repair order. The
// listing is paged; callers read its "content" array.
func (c *Client) FetchJobsByRepairOrder(ctx context.Context, id string) (Record, error) {
	return c.fetchRecord(ctx, "/jobs?repairOrderId="+url.QueryEscape(id))
}
