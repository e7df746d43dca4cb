package wani

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

const (
	headerAuthorization  = "Authorization"
	headerContentType    = "Content-Type"
	headerUserAgent      = "User-Agent"
	headerClientVersion  = "X-Client-Version"
	headerClientPlatform = "X-Client-Platform"
	contentTypeJSON      = "application/json"
)

// publicEndpoints never carry an Authorization header, matching the
// server's unauthenticated surface.
var publicEndpoints = []string{
	"/auth/login",
	"/auth/register",
	"/auth/refresh",
	"/health",
}

// isPublicEndpoint matches on the path prefix, ignoring any query
// string.
func isPublicEndpoint(path string) bool {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	for _, endpoint := range publicEndpoints {
		if path == endpoint || strings.HasPrefix(path, endpoint+"/") {
			return true
		}
	}
	return false
}

// Transport retry counts for network-level failures. HTTP error
// statuses are never retried here; the 401 refresh cycle is handled
// separately and runs at most once per request.
const (
	readRetries  = 2
	writeRetries = 1
)

func retriesFor(method string) int {
	if method == http.MethodGet {
		return readRetries
	}
	return writeRetries
}

// refreshEnvelope is the /auth/refresh response body.
type refreshEnvelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    Tokens `json:"data"`
}

// doRequest performs an API request with credential attachment and
// the refresh-and-retry cycle, decoding the response into result.
func (c *Client) doRequest(ctx context.Context, method, path string, body, result interface{}) error {
	var bodyBytes []byte
	if body != nil {
		var err error
		bodyBytes, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
	}
	return c.do(ctx, method, path, bodyBytes, result, false)
}

// do is the request funnel. The retried flag travels with this one
// logical request: a request that already went through a
// refresh-and-retry cycle never triggers a second one, even if it
// receives another 401. The flag is per request, never global —
// independent requests in flight each carry their own.
//
// Known gap, preserved from the original clients: concurrent requests
// that all hit 401 at once each run their own refresh call. There is
// no single-flight deduplication.
func (c *Client) do(ctx context.Context, method, path string, bodyBytes []byte, result interface{}, retried bool) error {
	public := isPublicEndpoint(path)

	token := ""
	if !public {
		// Missing token is not a client-side gate: the request goes
		// out unauthenticated and the server decides.
		token = c.session.AccessToken()
	}

	status, respBody, err := c.send(ctx, method, path, bodyBytes, token)
	if err != nil {
		return err
	}

	if status == http.StatusUnauthorized && !public && !retried {
		return c.refreshAndRetry(ctx, method, path, bodyBytes, result, status, respBody)
	}

	if status >= 400 {
		return parseError(status, respBody)
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}
	}
	return nil
}

// refreshAndRetry runs the single recovery cycle for an authorization
// failure: exchange the refresh token for a new pair, then re-issue
// the original request exactly once. Any failure along the way ends
// the session and propagates the original 401.
func (c *Client) refreshAndRetry(ctx context.Context, method, path string, bodyBytes []byte, result interface{}, origStatus int, origBody []byte) error {
	refreshToken := c.session.RefreshToken()
	if refreshToken == "" {
		c.endSession("no refresh token available")
		return parseError(origStatus, origBody)
	}

	tokens, err := c.refresh(ctx, refreshToken)
	if err != nil {
		c.endSession("token refresh failed")
		return parseError(origStatus, origBody)
	}

	// A failed persist only loses durability; the refreshed session
	// stays valid in memory.
	if err := c.session.UpdateTokens(*tokens); err != nil {
		c.logger.Warn("failed to store refreshed tokens", zap.Error(err))
	}

	c.logger.Debug("retrying request after token refresh",
		zap.String("method", method),
		zap.String("path", path))

	return c.do(ctx, method, path, bodyBytes, result, true)
}

// refresh exchanges the refresh token for a new token pair. It goes
// through send directly so the exchange itself can never recurse into
// another refresh cycle.
func (c *Client) refresh(ctx context.Context, refreshToken string) (*Tokens, error) {
	bodyBytes, err := json.Marshal(map[string]string{"refresh_token": refreshToken})
	if err != nil {
		return nil, err
	}

	status, respBody, err := c.send(ctx, http.MethodPost, "/auth/refresh", bodyBytes, "")
	if err != nil {
		return nil, err
	}
	if status >= 400 {
		return nil, parseError(status, respBody)
	}

	var envelope refreshEnvelope
	if err := json.Unmarshal(respBody, &envelope); err != nil {
		return nil, fmt.Errorf("failed to parse refresh response: %w", err)
	}
	if envelope.Data.AccessToken == "" || envelope.Data.RefreshToken == "" {
		return nil, fmt.Errorf("refresh response missing tokens")
	}
	return &envelope.Data, nil
}

// endSession terminates the session after an unrecoverable 401. The
// UI layer observes the state change and shows the unauthenticated
// flow.
func (c *Client) endSession(reason string) {
	c.logger.Info("ending session", zap.String("reason", reason))
	if err := c.session.Logout(); err != nil {
		c.logger.Warn("logout storage fault", zap.Error(err))
	}
}

// send executes one HTTP exchange, retrying only network-level
// failures (2 attempts for reads, 1 for mutations, on top of the
// original attempt's failure). Returns the status code and the full
// response body.
func (c *Client) send(ctx context.Context, method, path string, bodyBytes []byte, token string) (int, []byte, error) {
	reqURL := c.baseURL + apiPrefix + path

	var lastErr error
	for attempt := 0; attempt <= retriesFor(method); attempt++ {
		var bodyReader io.Reader
		if bodyBytes != nil {
			bodyReader = bytes.NewReader(bodyBytes)
		}

		req, err := http.NewRequestWithContext(ctx, method, reqURL, bodyReader)
		if err != nil {
			return 0, nil, fmt.Errorf("failed to create request: %w", err)
		}

		req.Header.Set(headerUserAgent, c.userAgent)
		req.Header.Set(headerClientVersion, clientVersion)
		req.Header.Set(headerClientPlatform, c.platform)
		if bodyBytes != nil {
			req.Header.Set(headerContentType, contentTypeJSON)
		}
		if token != "" {
			req.Header.Set(headerAuthorization, "Bearer "+token)
		}

		c.logger.Debug("api request",
			zap.String("method", method),
			zap.String("url", reqURL),
			zap.Int("attempt", attempt+1))

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			// The caller's context ending is not retryable.
			if ctx.Err() != nil {
				break
			}
			continue
		}

		respBody, err := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if err != nil {
			lastErr = err
			continue
		}

		c.logger.Debug("api response",
			zap.String("url", reqURL),
			zap.Int("status", resp.StatusCode))

		return resp.StatusCode, respBody, nil
	}

	return 0, nil, transportError(lastErr)
}

// transportError normalizes a transport failure into *Error.
func transportError(err error) *Error {
	code := CodeNetworkError
	message := "Network error. Please check your internet connection."

	var netErr net.Error
	if (errors.As(err, &netErr) && netErr.Timeout()) || errors.Is(err, context.DeadlineExceeded) {
		code = CodeTimeout
		message = "Request timeout. Please try again."
	}

	return &Error{
		Code:    code,
		Message: message,
		Details: map[string]interface{}{"cause": err.Error()},
	}
}

// get performs a GET request.
func (c *Client) get(ctx context.Context, path string, result interface{}) error {
	return c.doRequest(ctx, http.MethodGet, path, nil, result)
}

// post performs a POST request.
func (c *Client) post(ctx context.Context, path string, body, result interface{}) error {
	return c.doRequest(ctx, http.MethodPost, path, body, result)
}
