package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// ErrCallFailed marks transport, protocol and envelope failures of a tool call.
var ErrCallFailed = errors.New("mcp call failed")

const (
	defaultServerURL     = "https://vipfapwm3x.us-east-1.awsapprunner.com/mcp"
	maxResponseSizeBytes = 10 << 20
	maxErrorBodyBytes    = 4 << 10
)

type Config struct {
	ServerURL string        `envconfig:"SERVER_URL" split_words:"true" default:"https://vipfapwm3x.us-east-1.awsapprunner.com/mcp"`
	AuthToken string        `envconfig:"AUTH_TOKEN" split_words:"true"`
	Timeout   time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"30s"`
}

type ClientOption func(*Client)

func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

func WithHeader(key, value string) ClientOption {
	return func(c *Client) {
		if strings.TrimSpace(key) != "" {
			c.headers[key] = value
		}
	}
}

// Client sends JSON-RPC requests to an MCP server over HTTP POST.
type Client struct {
	url        string
	headers    map[string]string
	httpClient *http.Client
	nextID     atomic.Int64
}

func NewClient(cfg Config, opts ...ClientOption) (*Client, error) {
	serverURL := strings.TrimSpace(cfg.ServerURL)
	if serverURL == "" {
		serverURL = defaultServerURL
	}
	if _, err := url.ParseRequestURI(serverURL); err != nil {
		return nil, fmt.Errorf("invalid mcp server url: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	c := &Client{
		url:        serverURL,
		headers:    make(map[string]string, 2),
		httpClient: &http.Client{Timeout: timeout},
	}
	if token := strings.TrimSpace(cfg.AuthToken); token != "" {
		c.headers["Authorization"] = "Bearer " + token
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c, nil
}

// URL returns the server endpoint.
func (c *Client) URL() string { return c.url }

// CallTool invokes a tool by name. A result with isError=true is returned
// as-is; only transport and protocol failures produce an error.
func (c *Client) CallTool(ctx context.Context, name ToolName, args ToolArgs) (*CallToolResponse, error) {
	var arguments any = struct{}{}
	if args != nil {
		arguments = args
	}

	resp, err := c.send(ctx, "tools/call", callToolParams{Name: name, Arguments: arguments})
	if err != nil {
		return nil, fmt.Errorf("tools/call %s: %w", name, err)
	}

	var result CallToolResponse
	if err := json.Unmarshal(resp.Result, &result); err != nil {
		return nil, fmt.Errorf("%w: tools/call %s: decode result: %v", ErrCallFailed, name, err)
	}
	return &result, nil
}

// Ping checks whether the MCP server is responsive.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.send(ctx, "ping", nil)
	return err
}

func (c *Client) send(ctx context.Context, method string, params any) (*Response, error) {
	req := NewRequest(c.nextID.Add(1), method, params)
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create http request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	for k, v := range c.headers {
		httpReq.Header.Set(k, v)
	}

	started := time.Now()
	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: http request to %s: %v", ErrCallFailed, c.url, err)
	}
	defer httpResp.Body.Close()

	zerolog.Ctx(ctx).Debug().
		Str("method", method).
		Int("status", httpResp.StatusCode).
		Dur("elapsed", time.Since(started)).
		Msg("mcp request completed")

	if httpResp.StatusCode < http.StatusOK || httpResp.StatusCode >= http.StatusMultipleChoices {
		errBody, _ := io.ReadAll(io.LimitReader(httpResp.Body, maxErrorBodyBytes))
		return nil, fmt.Errorf("%w: server returned %d: %s", ErrCallFailed, httpResp.StatusCode, strings.TrimSpace(string(errBody)))
	}

	raw, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseSizeBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read response body: %v", ErrCallFailed, err)
	}

	var resp Response
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrCallFailed, err)
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("%w: %v", ErrCallFailed, resp.Error)
	}
	if method != "ping" && (len(resp.Result) == 0 || bytes.Equal(bytes.TrimSpace(resp.Result), []byte("null"))) {
		return nil, fmt.Errorf("%w: response has no result", ErrCallFailed)
	}
	return &resp, nil
}
