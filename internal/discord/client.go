// Package discord looks up guild metadata from the Discord REST API.
package discord

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Priya8975/guildlog/internal/errdef"
)

const (
	DefaultAuthScheme = "Bot"
	DefaultUserAgent  = "curl/7.58.0"
	DefaultTimeout    = 5 * time.Second
)

// Client fetches guilds with a bot credential.
type Client struct {
	baseURL    string
	token      string
	scheme     string
	userAgent  string
	httpClient *http.Client
}

// Guild is the subset of the guild object the dashboard uses.
type Guild struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// APIError represents a non-2xx HTTP response.
type APIError struct {
	StatusCode int
	Body       string // first 512 bytes
}

func (e *APIError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Body)
}

// Option configures Client behavior.
type Option func(*Client)

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

func WithAuthScheme(scheme string) Option {
	return func(c *Client) {
		if scheme != "" {
			c.scheme = scheme
		}
	}
}

func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithHTTPClient replaces the underlying client. The timeout option still
// applies when given after it.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

func New(baseURL, token string, opts ...Option) *Client {
	c := &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		token:     token,
		scheme:    DefaultAuthScheme,
		userAgent: DefaultUserAgent,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Guild fetches one guild. Every failure, including a response without a
// name, is returned as an upstream error.
func (c *Client) Guild(ctx context.Context, guildID int64) (*Guild, error) {
	url := c.baseURL + "/guilds/" + strconv.FormatInt(guildID, 10)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errdef.NewUpstream("building guild request: %w", err)
	}
	req.Header.Set("Authorization", c.scheme+" "+c.token)
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errdef.NewUpstream("fetching guild %d: %w", guildID, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, errdef.NewUpstream("reading guild %d: %w", guildID, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		s := string(body)
		if len(s) > 512 {
			s = s[:512]
		}
		return nil, errdef.NewUpstream("fetching guild %d: %w", guildID, &APIError{StatusCode: resp.StatusCode, Body: s})
	}

	var g Guild
	if err := json.Unmarshal(body, &g); err != nil {
		return nil, errdef.NewUpstream("decoding guild %d: %w", guildID, err)
	}
	if g.Name == "" {
		return nil, errdef.NewUpstream("guild %d has no name", guildID)
	}
	return &g, nil
}
