// Package client provides the HTTP collaborators for the test harness:
// a pooled base client with an injectable retry policy, and typed wrappers
// for the JSONPlaceholder, GoRest and HTTPBin demo APIs.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	// HTTP client configuration timeouts
	tcpDialTimeout        = 5 * time.Second
	tcpKeepAliveInterval  = 30 * time.Second
	tlsHandshakeTimeout   = 5 * time.Second
	idleConnTimeout       = 90 * time.Second
	expectContinueTimeout = 1 * time.Second

	// Connection pool limits, total and per host
	defaultConnLimit        = 100
	defaultConnLimitPerHost = 30

	defaultTimeout = 30 * time.Second

	userAgent = "apiprobe/1.0"
)

// Options configures a Client.
type Options struct {
	Timeout          time.Duration
	Retry            RetryPolicy
	Headers          map[string]string
	ConnLimit        int
	ConnLimitPerHost int
}

// Client is a pooled JSON HTTP client. All requests share one transport
// so stress runs reuse connections instead of exhausting sockets.
type Client struct {
	baseURL    string
	httpClient *http.Client
	headers    map[string]string
	retry      RetryPolicy
	log        *logrus.Entry
}

// New creates a client for the given base URL.
func New(baseURL string, opts Options) *Client {
	if opts.Timeout == 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.ConnLimit == 0 {
		opts.ConnLimit = defaultConnLimit
	}
	if opts.ConnLimitPerHost == 0 {
		opts.ConnLimitPerHost = defaultConnLimitPerHost
	}

	headers := map[string]string{
		"Content-Type": "application/json",
		"Accept":       "application/json",
		"User-Agent":   userAgent,
	}
	for key, value := range opts.Headers {
		headers[key] = value
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: buildHTTPClient(opts),
		headers:    headers,
		retry:      opts.Retry,
		log:        logrus.WithField("component", "client"),
	}
}

// buildHTTPClient creates an HTTP client with connection pooling and
// timeouts suitable for sustained concurrent load.
func buildHTTPClient(opts Options) *http.Client {
	transport := &http.Transport{
		MaxIdleConns:        opts.ConnLimit,
		MaxIdleConnsPerHost: opts.ConnLimitPerHost,
		MaxConnsPerHost:     opts.ConnLimit,
		IdleConnTimeout:     idleConnTimeout,
		ForceAttemptHTTP2:   true,

		DialContext: (&net.Dialer{
			Timeout:   tcpDialTimeout,
			KeepAlive: tcpKeepAliveInterval,
		}).DialContext,

		TLSHandshakeTimeout:   tlsHandshakeTimeout,
		ResponseHeaderTimeout: opts.Timeout,
		ExpectContinueTimeout: expectContinueTimeout,
	}

	return &http.Client{
		Timeout:   opts.Timeout,
		Transport: transport,
	}
}

// BaseURL returns the client's base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// buildURL joins the base URL, path and query parameters.
func (c *Client) buildURL(path string, query url.Values) string {
	full := c.baseURL + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		full += "?" + query.Encode()
	}
	return full
}

// Do performs one JSON request and returns the HTTP status, the decoded
// response body and the time the (final) attempt took. Transport-level
// failures are retried per the client's retry policy and returned as
// errors; HTTP error statuses are returned normally for the caller to
// interpret.
func (c *Client) Do(ctx context.Context, method, path string, body any, query url.Values) (int, any, time.Duration, error) {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return 0, nil, 0, fmt.Errorf("failed to encode request body: %w", err)
		}
	}

	fullURL := c.buildURL(path, query)

	var (
		status  int
		decoded any
		elapsed time.Duration
	)

	err := c.retry.Do(ctx, func() error {
		var bodyReader io.Reader
		if payload != nil {
			bodyReader = bytes.NewReader(payload)
		}

		req, err := http.NewRequestWithContext(ctx, method, fullURL, bodyReader)
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		for key, value := range c.headers {
			req.Header.Set(key, value)
		}

		start := time.Now()
		resp, err := c.httpClient.Do(req)
		elapsed = time.Since(start)
		if err != nil {
			c.log.WithFields(logrus.Fields{
				"method": method,
				"url":    fullURL,
			}).WithError(err).Debug("request failed")
			return err
		}
		defer resp.Body.Close()

		raw, err := io.ReadAll(resp.Body)
		elapsed = time.Since(start)
		if err != nil {
			return fmt.Errorf("failed to read response body: %w", err)
		}

		status = resp.StatusCode
		decoded = decodeBody(raw)

		c.log.WithFields(logrus.Fields{
			"method":  method,
			"url":     fullURL,
			"status":  status,
			"elapsed": elapsed,
		}).Debug("request complete")

		return nil
	})
	if err != nil {
		return 0, nil, elapsed, err
	}

	return status, decoded, elapsed, nil
}

// decodeBody parses a JSON response body; non-JSON payloads are wrapped
// as {"text": ...} instead of failing.
func decodeBody(raw []byte) any {
	if len(raw) == 0 {
		return nil
	}
	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return map[string]any{"text": string(raw)}
	}
	return decoded
}

// Get is shorthand for Do with GET.
func (c *Client) Get(ctx context.Context, path string, query url.Values) (int, any, time.Duration, error) {
	return c.Do(ctx, http.MethodGet, path, nil, query)
}

// Post is shorthand for Do with POST.
func (c *Client) Post(ctx context.Context, path string, body any) (int, any, time.Duration, error) {
	return c.Do(ctx, http.MethodPost, path, body, nil)
}

// Put is shorthand for Do with PUT.
func (c *Client) Put(ctx context.Context, path string, body any) (int, any, time.Duration, error) {
	return c.Do(ctx, http.MethodPut, path, body, nil)
}

// Delete is shorthand for Do with DELETE.
func (c *Client) Delete(ctx context.Context, path string) (int, any, time.Duration, error) {
	return c.Do(ctx, http.MethodDelete, path, nil, nil)
}

// Health reports whether the API behind the client is reachable and not
// failing outright: any response below 500 counts as healthy.
func (c *Client) Health(ctx context.Context) bool {
	status, _, _, err := c.Get(ctx, "/", nil)
	if err != nil {
		c.log.WithError(err).Warn("health check failed")
		return false
	}
	return status < 500
}
