package client

import (
	"context"
	"fmt"
	"net/url"
	"time"
)

// DefaultHTTPBinURL is the public httpbin instance.
const DefaultHTTPBinURL = "https://httpbin.org"

// HTTPBinClient wraps httpbin, used by the functional suite for status
// and latency fault injection.
type HTTPBinClient struct {
	*Client
}

// NewHTTPBin creates an httpbin client. An empty baseURL selects the
// public instance.
func NewHTTPBin(baseURL string, opts Options) *HTTPBinClient {
	if baseURL == "" {
		baseURL = DefaultHTTPBinURL
	}
	return &HTTPBinClient{Client: New(baseURL, opts)}
}

// GetArgs calls /get, which echoes the query arguments.
func (c *HTTPBinClient) GetArgs(ctx context.Context, args url.Values) (int, any, time.Duration, error) {
	return c.Get(ctx, "/get", args)
}

// PostData calls /post, which echoes the JSON body.
func (c *HTTPBinClient) PostData(ctx context.Context, data map[string]any) (int, any, time.Duration, error) {
	return c.Post(ctx, "/post", data)
}

// Delay responds after the given number of seconds (httpbin caps this
// at 10).
func (c *HTTPBinClient) Delay(ctx context.Context, seconds int) (int, any, time.Duration, error) {
	return c.Get(ctx, fmt.Sprintf("/delay/%d", seconds), nil)
}

// Status responds with the given status code.
func (c *HTTPBinClient) Status(ctx context.Context, code int) (int, any, time.Duration, error) {
	return c.Get(ctx, fmt.Sprintf("/status/%d", code), nil)
}
