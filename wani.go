// Package wani is the Go client for the Wani cross-border payments
// API. It implements the authenticated request pipeline (bearer
// token attachment, reactive refresh-and-retry on 401, normalized
// errors) over per-domain services for auth, wallet, and
// transactions.
package wani

import (
	"net/http"
	"time"

	"go.uber.org/zap"
)

const (
	// DefaultTimeout is the transport timeout; there is no
	// finer-grained cancellation beyond this and the caller's context.
	DefaultTimeout = 30 * time.Second

	// apiPrefix versions every API path.
	apiPrefix = "/api/v1"

	clientVersion   = "1.0.0"
	defaultPlatform = "go"
	sdkUserAgent    = "wani-go/" + clientVersion
)

// SessionHandler is the slice of the session the request pipeline
// needs: token reads for attaching credentials, token replacement
// after a refresh cycle, and logout when refresh recovery fails.
// *session.Session implements it.
type SessionHandler interface {
	AccessToken() string
	RefreshToken() string
	UpdateTokens(tokens Tokens) error
	Logout() error
}

// Client is the Wani API client.
//
// The session is injected, not owned: the same session object backs
// the UI (or CLI) layer, and the pipeline is its only other writer.
type Client struct {
	baseURL    string
	session    SessionHandler
	httpClient *http.Client
	logger     *zap.Logger
	userAgent  string
	platform   string

	// Services
	Auth         *AuthService
	Wallet       *WalletService
	Transactions *TransactionsService
}

// Option configures the client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithTimeout sets the transport timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if c.httpClient == nil {
			c.httpClient = &http.Client{}
		}
		c.httpClient.Timeout = timeout
	}
}

// WithLogger enables debug logging of requests and responses.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithPlatform sets the X-Client-Platform header value.
func WithPlatform(platform string) Option {
	return func(c *Client) {
		c.platform = platform
	}
}

// NewClient creates a Wani API client for the given base URL
// (scheme://host, without the /api/v1 prefix).
func NewClient(baseURL string, session SessionHandler, opts ...Option) *Client {
	c := &Client{
		baseURL:   baseURL,
		session:   session,
		logger:    zap.NewNop(),
		userAgent: sdkUserAgent,
		platform:  defaultPlatform,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: DefaultTimeout}
	}

	c.Auth = &AuthService{client: c}
	c.Wallet = &WalletService{client: c}
	c.Transactions = &TransactionsService{client: c}

	return c
}

// BaseURL returns the configured API base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}
