// Package api is the authenticated client for the fraud detection backend.
//
// Every request carries the stored access token. A 401 starts the refresh
// protocol: one shared refresh call renews the credential pair, then the
// original request is replayed once with the new token.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/fraudcheck/cli/internal/logging"
	"github.com/fraudcheck/cli/internal/metrics"
	"github.com/fraudcheck/cli/internal/models"
	"github.com/fraudcheck/cli/internal/session"
	"github.com/fraudcheck/cli/internal/utils"
)

const (
	defaultTimeout = 30 * time.Second
	maxBodySize    = 10 << 20

	refreshPath = "/auth/refresh"
	refreshKey  = "refresh"
)

// TokenStore is the credential storage the client reads and renews
type TokenStore interface {
	AccessToken() string
	RefreshToken() string
	ReplacePair(expectedRefresh string, pair models.TokenPair) error
	Clear() error
}

// Notifier is told when the session ends because it could not be renewed
type Notifier interface {
	Fire(reason error)
}

// Config configures the client
type Config struct {
	BaseURL string
	Timeout time.Duration
	// RateLimit caps outgoing requests per second; zero means unlimited
	RateLimit float64

	HTTPClient *http.Client
	Logger     logrus.FieldLogger
	Metrics    *metrics.Metrics
}

// Request describes one backend call
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   any
	// Anonymous requests carry no bearer token and never trigger a refresh
	Anonymous bool
}

// Response is a successful (2xx) backend response
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Client represents the API client
type Client struct {
	BaseURL    string
	HTTPClient *http.Client

	store   TokenStore
	ended   Notifier
	limiter *rate.Limiter
	log     logrus.FieldLogger
	metrics *metrics.Metrics

	// refreshMu makes "was the token already renewed?" and joining the
	// in-flight refresh a single step.
	refreshMu    sync.Mutex
	refreshGroup singleflight.Group
}

// NewClient creates a new API client
func NewClient(cfg Config, store TokenStore, ended Notifier) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), int(math.Max(1, math.Ceil(cfg.RateLimit))))
	}

	log := cfg.Logger
	if log == nil {
		log = logging.Discard()
	}

	m := cfg.Metrics
	if m == nil {
		m = metrics.New()
	}

	return &Client{
		BaseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		HTTPClient: httpClient,
		store:      store,
		ended:      ended,
		limiter:    limiter,
		log:        log.WithField("component", "api"),
		metrics:    m,
	}
}

// Send performs req. A 401 on an authenticated request is answered by the
// refresh protocol and a single replay; the caller only ever sees the
// replayed response.
func (c *Client) Send(ctx context.Context, req Request) (*Response, error) {
	token := ""
	if !req.Anonymous {
		token = c.store.AccessToken()
	}

	resp, err := c.roundTrip(ctx, req, token)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized || req.Anonymous {
		return check(resp)
	}

	c.log.WithFields(logrus.Fields{"method": req.Method, "path": req.Path}).Debug("access token rejected, renewing credentials")

	fresh, err := c.refresh(ctx, token)
	if err != nil {
		return nil, err
	}

	c.metrics.ObserveRetry()
	resp, err = c.roundTrip(ctx, req, fresh)
	if err != nil {
		return nil, err
	}
	// A second 401 is final; retrying again could loop forever.
	return check(resp)
}

// Do sends req and decodes the envelope's data into out (when out is non-nil)
func (c *Client) Do(ctx context.Context, req Request, out any) error {
	resp, err := c.Send(ctx, req)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return decode(resp, out)
}

// Get performs an authenticated GET
func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	return c.Do(ctx, Request{Method: http.MethodGet, Path: path, Query: query}, out)
}

// Post performs an authenticated POST with a JSON body
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, Request{Method: http.MethodPost, Path: path, Body: body}, out)
}

// refresh returns a renewed access token. Callers whose stale token was
// already replaced get the current one; everyone else joins the single
// in-flight refresh.
func (c *Client) refresh(ctx context.Context, stale string) (string, error) {
	c.refreshMu.Lock()
	if current := c.store.AccessToken(); current != "" && current != stale {
		c.refreshMu.Unlock()
		return current, nil
	}
	ch := c.refreshGroup.DoChan(refreshKey, func() (any, error) {
		// Outlives the caller that started it; other callers may be waiting.
		return c.renew(context.WithoutCancel(ctx))
	})
	c.refreshMu.Unlock()

	select {
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (c *Client) renew(ctx context.Context) (string, error) {
	refreshToken := c.store.RefreshToken()
	if refreshToken == "" {
		c.metrics.ObserveRefresh(metrics.RefreshNoToken)
		return "", c.expire(errors.New("no refresh token"))
	}

	resp, err := c.roundTrip(ctx, Request{
		Method:    http.MethodPost,
		Path:      refreshPath,
		Body:      models.RefreshRequest{RefreshToken: refreshToken},
		Anonymous: true,
	}, "")
	if err == nil {
		resp, err = check(resp)
	}

	var pair models.TokenPair
	if err == nil {
		err = decode(resp, &pair)
	}
	if err == nil && pair.AccessToken == "" {
		err = errors.New("refresh response carried no access token")
	}
	if err == nil {
		err = c.store.ReplacePair(refreshToken, pair)
	}

	if errors.Is(err, session.ErrSessionChanged) {
		// Signed out or signed in again while the call was in flight.
		c.metrics.ObserveRefresh(metrics.RefreshDiscarded)
		c.log.Debug("renewed credentials discarded, session changed")
		return "", fmt.Errorf("%w: %w", utils.ErrSessionExpired, err)
	}
	if err != nil {
		c.metrics.ObserveRefresh(metrics.RefreshFailed)
		return "", c.expire(err)
	}

	c.metrics.ObserveRefresh(metrics.RefreshSucceeded)
	c.log.Debug("credentials renewed")
	return pair.AccessToken, nil
}

// expire discards the credentials and announces the end of the session
func (c *Client) expire(cause error) error {
	if err := c.store.Clear(); err != nil {
		c.log.WithError(err).Warn("failed to clear session")
	}

	err := fmt.Errorf("%w: %w", utils.ErrSessionExpired, cause)
	c.log.WithError(cause).Info("session ended")
	if c.ended != nil {
		c.ended.Fire(err)
	}
	return err
}

func (c *Client) roundTrip(ctx context.Context, req Request, token string) (*Response, error) {
	op := req.Method + " " + req.Path

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait for %s: %w", op, err)
	}

	var body io.Reader
	if req.Body != nil {
		data, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	target := c.BaseURL + req.Path
	if len(req.Query) > 0 {
		target += "?" + req.Query.Encode()
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-Request-ID", uuid.NewString())
	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	httpResp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		c.metrics.ObserveRequest(req.Method, 0, time.Since(start))
		return nil, &utils.NetworkError{Op: op, Err: err}
	}
	defer httpResp.Body.Close() // nolint:errcheck

	data, err := io.ReadAll(io.LimitReader(httpResp.Body, maxBodySize))
	c.metrics.ObserveRequest(req.Method, httpResp.StatusCode, time.Since(start))
	if err != nil {
		return nil, &utils.NetworkError{Op: op, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	c.log.WithFields(logrus.Fields{
		"method":     req.Method,
		"path":       req.Path,
		"status":     httpResp.StatusCode,
		"request_id": httpReq.Header.Get("X-Request-ID"),
		"elapsed":    time.Since(start).String(),
	}).Debug("backend request")

	return &Response{
		StatusCode: httpResp.StatusCode,
		Header:     httpResp.Header,
		Body:       data,
	}, nil
}

// check turns a non-2xx response into an APIError carrying the backend's message
func check(resp *Response) (*Response, error) {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}

	var body models.ErrorResponse
	if err := json.Unmarshal(resp.Body, &body); err != nil {
		return nil, utils.NewAPIError(resp.StatusCode, "", "")
	}

	message := body.Message
	if message == "" {
		message = body.Error
	}
	return nil, utils.NewAPIError(resp.StatusCode, message, body.Error)
}

func decode(resp *Response, out any) error {
	var envelope models.APIResponse
	if err := json.Unmarshal(resp.Body, &envelope); err != nil {
		return utils.NewAPIError(resp.StatusCode, fmt.Sprintf("failed to parse response: %v", err), "")
	}
	if !envelope.Success {
		return utils.NewAPIError(resp.StatusCode, "request was not successful", "")
	}
	if len(envelope.Data) == 0 || string(envelope.Data) == "null" {
		return utils.NewAPIError(resp.StatusCode, "response carried no data", "")
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return utils.NewAPIError(resp.StatusCode, fmt.Sprintf("failed to parse response data: %v", err), "")
	}
	return nil
}
