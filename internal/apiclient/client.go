// Package apiclient is the single point of outbound traffic to the notes backend.
// It attaches the bearer token, runs the refresh-and-replay cycle on 401/403,
// and normalizes response envelopes.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/and161185/voicenotes/internal/errs"
	"github.com/and161185/voicenotes/internal/limiter"
	"github.com/and161185/voicenotes/internal/model"
	"github.com/and161185/voicenotes/internal/session"
)

// RefreshPath is the token refresh endpoint.
const RefreshPath = "/auth/refresh"

// Client sends JSON requests on behalf of a Session.
type Client struct {
	baseURL  string
	http     *http.Client
	sess     *session.Session
	log      *zap.Logger
	throttle limiter.Throttle

	refreshes singleflight.Group
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default transport.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithLogger sets the logger.
func WithLogger(log *zap.Logger) Option {
	return func(c *Client) { c.log = log }
}

// WithThrottle paces outbound requests.
func WithThrottle(t limiter.Throttle) Option {
	return func(c *Client) { c.throttle = t }
}

// New constructs a Client for baseURL.
func New(baseURL string, sess *session.Session, opts ...Option) *Client {
	c := &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		sess:     sess,
		log:      zap.NewNop(),
		throttle: limiter.Noop{},
	}
	for _, o := range opts {
		o(c)
	}
	if c.http == nil {
		c.http = NewHTTPClient(DefaultTimeout, c.log)
	}
	return c
}

// Session returns the session the client authenticates with.
func (c *Client) Session() *session.Session { return c.sess }

// SetTokens adopts tokens for all subsequently built requests and persists them.
func (c *Client) SetTokens(ctx context.Context, t model.Tokens, email string) error {
	return c.sess.SetTokens(ctx, t, email)
}

// ClearTokens forgets tokens in memory and in the store.
func (c *Client) ClearTokens(ctx context.Context) error {
	return c.sess.ClearTokens(ctx)
}

// Tokens returns the currently held tokens.
func (c *Client) Tokens() (model.Tokens, bool) { return c.sess.Tokens() }

// StoredEmail is a best-effort read of the email saved with the tokens.
func (c *Client) StoredEmail(ctx context.Context) (string, bool) {
	return c.sess.StoredEmail(ctx)
}

// OnAuthStatusChange subscribes fn to session invalidation.
func (c *Client) OnAuthStatusChange(fn func(authenticated bool)) (unsubscribe func()) {
	return c.sess.Subscribe(fn)
}

// Get sends a GET request.
func (c *Client) Get(ctx context.Context, path string) (*Response, error) {
	return c.Do(ctx, http.MethodGet, path, nil)
}

// Post sends a POST request.
func (c *Client) Post(ctx context.Context, path string, body any) (*Response, error) {
	return c.Do(ctx, http.MethodPost, path, body)
}

// Put sends a PUT request.
func (c *Client) Put(ctx context.Context, path string, body any) (*Response, error) {
	return c.Do(ctx, http.MethodPut, path, body)
}

// Patch sends a PATCH request.
func (c *Client) Patch(ctx context.Context, path string, body any) (*Response, error) {
	return c.Do(ctx, http.MethodPatch, path, body)
}

// Delete sends a DELETE request.
func (c *Client) Delete(ctx context.Context, path string) (*Response, error) {
	return c.Do(ctx, http.MethodDelete, path, nil)
}

type call struct {
	method  string
	path    string
	payload []byte
}

// Do sends a request with the current bearer token. Non-2xx statuses are
// returned as responses, not errors. A 401/403 while a refresh token is held
// triggers at most one refresh and one replay; if that cycle fails the
// session is invalidated and the error wraps errs.ErrSessionExpired.
func (c *Client) Do(ctx context.Context, method, path string, body any) (*Response, error) {
	cl := call{method: method, path: path}
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		cl.payload = b
	}
	tok, _ := c.sess.Tokens()
	return c.do(ctx, cl, tok.AccessToken)
}

func (c *Client) do(ctx context.Context, cl call, access string) (*Response, error) {
	resp, err := c.send(ctx, cl, access)
	if err != nil {
		return nil, err
	}
	if !isAuthFailure(resp.StatusCode) || isRetried(ctx) {
		return resp, nil
	}
	cur, ok := c.sess.Tokens()
	if !ok || cur.RefreshToken == "" {
		return resp, nil
	}

	ctx = withRetried(ctx)
	fresh := cur.AccessToken
	if fresh == access {
		t, err := c.refresh(ctx, access, resp)
		if err != nil {
			return nil, err
		}
		fresh = t.AccessToken
	} else {
		c.log.Debug("token rotated since dispatch, replaying", zap.String("path", cl.path))
	}

	replay, err := c.do(ctx, cl, fresh)
	if err != nil {
		if ctx.Err() != nil {
			// caller gave up; the session itself is fine
			return nil, err
		}
		c.sess.Invalidate(ctx)
		return nil, fmt.Errorf("%w: %w", errs.ErrSessionExpired, err)
	}
	if isAuthFailure(replay.StatusCode) {
		c.log.Warn("replay rejected after refresh", zap.String("path", cl.path), zap.Int("status", replay.StatusCode))
		c.sess.Invalidate(ctx)
		return nil, fmt.Errorf("%w: %w", errs.ErrSessionExpired, replay.Err(http.StatusText(replay.StatusCode)))
	}
	return replay, nil
}

// refresh exchanges the held refresh token for a new pair. Concurrent callers
// share a single in-flight exchange; a failed exchange invalidates the session once.
// The exchange is detached from caller cancellation: a caller that gives up stops
// waiting, while the exchange runs to completion bounded by the HTTP client timeout.
func (c *Client) refresh(ctx context.Context, stale string, orig *Response) (model.Tokens, error) {
	fctx := context.WithoutCancel(ctx)
	ch := c.refreshes.DoChan("refresh", func() (any, error) {
		cur, ok := c.sess.Tokens()
		if !ok || cur.RefreshToken == "" {
			return model.Tokens{}, fmt.Errorf("%w: %w", errs.ErrSessionExpired, errs.ErrNoRefreshToken)
		}
		if cur.AccessToken != stale {
			return cur, nil
		}

		t, err := c.exchange(fctx, cur.RefreshToken, orig)
		if err != nil {
			c.log.Warn("token refresh failed", zap.Error(err))
			c.sess.Invalidate(fctx)
			return model.Tokens{}, fmt.Errorf("%w: %w", errs.ErrSessionExpired, err)
		}
		if err := c.sess.SetTokens(fctx, t, ""); err != nil {
			c.log.Warn("failed to persist refreshed tokens", zap.Error(err))
		}
		c.log.Info("token refreshed")
		return t, nil
	})

	select {
	case <-ctx.Done():
		return model.Tokens{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return model.Tokens{}, res.Err
		}
		return res.Val.(model.Tokens), nil
	}
}

// exchange POSTs the refresh token on the raw transport, outside interception.
// A non-2xx refresh yields the error of the original response.
func (c *Client) exchange(ctx context.Context, refreshToken string, orig *Response) (model.Tokens, error) {
	payload, err := json.Marshal(map[string]string{"refresh_token": refreshToken})
	if err != nil {
		return model.Tokens{}, err
	}
	req, err := c.newRequest(ctx, call{method: http.MethodPost, path: RefreshPath, payload: payload}, "")
	if err != nil {
		return model.Tokens{}, err
	}
	resp, err := c.roundTrip(req)
	if err != nil {
		return model.Tokens{}, err
	}
	if !resp.OK() {
		return model.Tokens{}, orig.Err(http.StatusText(orig.StatusCode))
	}

	var t model.Tokens
	if err := resp.Decode(&t); err != nil {
		return model.Tokens{}, err
	}
	if t.AccessToken == "" {
		return model.Tokens{}, fmt.Errorf("%w: refresh returned no access token", errs.ErrUnexpectedResponse)
	}
	if t.RefreshToken == "" {
		t.RefreshToken = refreshToken
	}
	return t, nil
}

func (c *Client) send(ctx context.Context, cl call, access string) (*Response, error) {
	if err := c.throttle.Wait(ctx); err != nil {
		return nil, err
	}
	req, err := c.newRequest(ctx, cl, access)
	if err != nil {
		return nil, err
	}
	return c.roundTrip(req)
}

func (c *Client) newRequest(ctx context.Context, cl call, access string) (*http.Request, error) {
	var body io.Reader
	if cl.payload != nil {
		body = bytes.NewReader(cl.payload)
	}
	req, err := http.NewRequestWithContext(ctx, cl.method, c.baseURL+cl.path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if cl.payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if access != "" {
		req.Header.Set("Authorization", "Bearer "+access)
	}
	id, err := uuid.NewV4()
	if err == nil {
		req.Header.Set(HeaderRequestID, id.String())
	}
	return req, nil
}

func (c *Client) roundTrip(req *http.Request) (*Response, error) {
	hr, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer hr.Body.Close()

	b, err := io.ReadAll(hr.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return &Response{
		StatusCode: hr.StatusCode,
		Header:     hr.Header,
		Body:       b,
		Envelope:   Normalize(b),
	}, nil
}

func isAuthFailure(status int) bool {
	return status == http.StatusUnauthorized || status == http.StatusForbidden
}

// IsSessionExpired reports whether err ended the session.
func IsSessionExpired(err error) bool {
	return errors.Is(err, errs.ErrSessionExpired)
}
