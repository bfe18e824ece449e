// Package nui provides the outbound channel to the host game client.
// Requests are JSON POSTs to https://<resource>/<endpoint>, the callback
// convention of the game client's embedded browser.
package nui

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/deathscreen/internal/domain/message"
)

// DefaultTimeout bounds a single outbound request.
const DefaultTimeout = 2 * time.Second

var emptyBody = []byte("{}")

// Config represents NUI client configuration.
type Config struct {
	ResourceName string        // host resource receiving the callbacks
	BaseURL      string        // overrides https://<ResourceName>/ when set
	Timeout      time.Duration // per request
}

// Client posts outbound requests to the host.
type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration

	mu     sync.Mutex
	closed bool
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a new NUI client.
func New(cfg Config) (*Client, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		if cfg.ResourceName == "" {
			return nil, errors.New("resource name or base URL is required")
		}
		baseURL = "https://" + cfg.ResourceName + "/"
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		timeout:    timeout,
		ctx:        ctx,
		cancel:     cancel,
	}, nil
}

// BaseURL returns the URL outbound endpoints are resolved against.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Post sends one request and waits for the response.
func (c *Client) Post(ctx context.Context, endpoint message.Endpoint) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+string(endpoint), bytes.NewReader(emptyBody))
	if err != nil {
		return errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "failed to execute request")
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errors.Newf("host returned status %d", resp.StatusCode)
	}
	return nil
}

// Notify posts the request in the background. Failures are logged at debug
// level and otherwise ignored; nothing is retried.
func (c *Client) Notify(endpoint message.Endpoint) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.wg.Add(1)
	c.mu.Unlock()

	go func() {
		defer c.wg.Done()

		ctx, cancel := context.WithTimeout(c.ctx, c.timeout)
		defer cancel()

		if err := c.Post(ctx, endpoint); err != nil {
			zlog.Debug().Msgf("nui: notification failed: endpoint=%s err=%v", endpoint, err)
			return
		}
		zlog.Debug().Msgf("nui: notification sent: endpoint=%s", endpoint)
	}()
}

// Close rejects new notifications and waits for in-flight ones, each
// bounded by the request timeout.
func (c *Client) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()

	c.wg.Wait()
	c.cancel()
}

// String implements fmt.Stringer.
func (c *Client) String() string {
	return fmt.Sprintf("nui.Client(%s)", c.baseURL)
}
