// Package client provides the authenticated HTTP transport for the admin API:
// reads used by the resource fetcher and the mutation executor for writes.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/waynex/admin/internal/logging"
	"github.com/waynex/admin/internal/metrics"
)

// Headers attached to outgoing requests.
const (
	HeaderUserEmail = "X-User-Email"
	HeaderRequestID = "X-Request-ID"
)

// maxBodySize caps how much of a response body is read.
const maxBodySize = 32 << 20

// SessionSource supplies the email of the signed-in user, or "" when nobody
// is signed in. *session.Store satisfies it.
type SessionSource interface {
	Email() string
}

// Client performs authenticated requests against the admin API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	session    SessionSource
}

// Config holds client configuration.
type Config struct {
	BaseURL string
	Timeout time.Duration
	Session SessionSource
}

// New creates a new client.
func New(cfg Config) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	return &Client{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
				DialContext: (&net.Dialer{
					Timeout:   10 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				MaxIdleConns:        100,
				IdleConnTimeout:     90 * time.Second,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		},
		session: cfg.Session,
	}
}

// BaseURL returns the API base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// applyAuth adds the identifying header when a session exists. Requests are
// never blocked locally; rejecting them is the API's job.
func (c *Client) applyAuth(req *http.Request) {
	if c.session == nil {
		return
	}
	if email := c.session.Email(); email != "" {
		req.Header.Set(HeaderUserEmail, email)
	}
}

// newRequest builds a request for path relative to the base URL.
func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	requestID := uuid.NewString()
	ctx = logging.WithRequestID(ctx, requestID)

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(HeaderRequestID, requestID)
	c.applyAuth(req)
	return req, nil
}

// do executes req and returns the status and body. A non-nil error means no
// usable response was received.
func (c *Client) do(req *http.Request) (int, []byte, error) {
	start := time.Now()
	log := logging.WithContext(req.Context())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.RecordAPIRequest(req.Method, 0, time.Since(start))
		log.Debug("request failed",
			logging.String("method", req.Method),
			logging.String("path", req.URL.RequestURI()),
			logging.Err(err),
		)
		return 0, nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	duration := time.Since(start)
	metrics.RecordAPIRequest(req.Method, resp.StatusCode, duration)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read response: %w", err)
	}

	log.Debug("request completed",
		logging.String("method", req.Method),
		logging.String("path", req.URL.RequestURI()),
		logging.Int("status", resp.StatusCode),
		logging.Duration("duration", duration),
	)
	return resp.StatusCode, data, nil
}

// Get performs an authenticated GET of path and returns the JSON body.
// Failures are returned as *APIError carrying the server message when the
// body has one.
func (c *Client) Get(ctx context.Context, path string) (json.RawMessage, error) {
	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, &APIError{Message: FetchFailedMessage, Err: err}
	}

	status, body, err := c.do(req)
	if err != nil {
		return nil, requestError(req, status, FetchFailedMessage, err)
	}
	if !isSuccess(status) {
		return nil, requestError(req, status, serverMessage(body, FetchFailedMessage, "error", "message"), nil)
	}

	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, nil
	}
	if !json.Valid(body) {
		return nil, requestError(req, status, FetchFailedMessage, errInvalidJSON)
	}
	return json.RawMessage(body), nil
}

// requestError builds the APIError for a request that got as far as being
// sent, tagged with its request ID.
func requestError(req *http.Request, status int, msg string, err error) *APIError {
	ae := &APIError{
		StatusCode: status,
		Message:    msg,
		Err:        err,
		RequestID:  logging.GetRequestID(req.Context()),
	}
	logging.WithContext(req.Context()).Debug("request error",
		logging.String("method", req.Method),
		logging.Int("status", status),
		logging.String("message", msg),
	)
	return ae
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}
