package mpvremote

import (
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/publicsuffix"
)

// Config holds client configuration.
type Config struct {
	BaseURL    string         // Required: server root, e.g. http://host:8080/
	HTTPClient *http.Client   // Optional: HTTP client (defaults to a client with a cookie jar)
	Timeout    time.Duration  // Optional: per request timeout for the default HTTP client
	Cookies    []*http.Cookie // Optional: session cookies from a previous run
	Logger     Logger         // Optional: Logger interface for debug logging
	UserAgent  string         // Optional: User-Agent header
}

// Logger is an optional interface for logging.
type Logger interface {
	// Debugf logs a debug message with format and arguments.
	Debugf(format string, args ...interface{})
}

// Client talks to a single mpv remote server.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	logger     Logger
	userAgent  string
}

const (
	// DefaultTimeout bounds a single request made by the default HTTP client.
	DefaultTimeout = 10 * time.Second

	defaultUserAgent = "mpvctl/1.0"
)

// NewClient creates a new client for the server at cfg.BaseURL.
//
// Returns an error if the base URL is missing or cannot be parsed.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, ErrNoServer
	}

	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("mpvremote: invalid base URL: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("mpvremote: unsupported scheme %q", base.Scheme)
	}
	// Endpoints are resolved relative to the base, like the browser
	// front-end resolves them relative to the page.
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
		if err != nil {
			return nil, fmt.Errorf("mpvremote: failed to create cookie jar: %w", err)
		}
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		httpClient = &http.Client{Jar: jar, Timeout: timeout}
	}

	if len(cfg.Cookies) > 0 && httpClient.Jar != nil {
		httpClient.Jar.SetCookies(base, cfg.Cookies)
	}

	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	return &Client{
		baseURL:    base,
		httpClient: httpClient,
		logger:     cfg.Logger,
		userAgent:  userAgent,
	}, nil
}

// BaseURL returns the server root the client was configured with.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// Cookies returns the cookies the server has set for this client.
func (c *Client) Cookies() []*http.Cookie {
	if c.httpClient.Jar == nil {
		return nil
	}
	return c.httpClient.Jar.Cookies(c.baseURL)
}

// endpoint resolves an endpoint name against the base URL.
func (c *Client) endpoint(name string, query url.Values) string {
	u := c.baseURL.ResolveReference(&url.URL{Path: name})
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

// logDebugf logs a debug message if a logger is configured.
func (c *Client) logDebugf(format string, args ...interface{}) {
	if c.logger != nil {
		c.logger.Debugf(format, args...)
	}
}
