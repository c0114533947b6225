// Package api implements the authenticated request pipeline: bearer-token
// injection, a single silent refresh-and-retry on HTTP 401, and typed error
// normalization. Every authenticated call may refresh the token pair or
// clear the whole session as a side effect.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/fleetwatch/go-fleet-client/tokens"
)

const defaultTimeout = 30 * time.Second

// SessionHooks is implemented by the session lifecycle controller. The
// pipeline calls RefreshSession on a 401; the controller owns clearing the
// session when the refresh itself fails.
type SessionHooks interface {
	RefreshSession(ctx context.Context) error
}

// Client issues HTTP calls against the fleet backend.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  *tokens.Store
	hooks   SessionHooks
	logger  zerolog.Logger
}

type ClientOption func(*Client)

func WithHTTPClient(h *http.Client) ClientOption {
	return func(c *Client) {
		c.http = h
	}
}

func WithLogger(logger zerolog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

func NewClient(baseURL string, tokenStore *tokens.Store, options ...ClientOption) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, errors.New("[NewClient] baseURL is required")
	}
	if tokenStore == nil {
		return nil, errors.New("[NewClient] token store is required")
	}

	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
		tokens:  tokenStore,
		logger:  zerolog.Nop(),
	}
	for _, opt := range options {
		opt(c)
	}
	return c, nil
}

// SetSessionHooks wires the session controller in after construction. Until
// hooks are set, a 401 is returned to the caller without a refresh attempt.
func (c *Client) SetSessionHooks(hooks SessionHooks) {
	c.hooks = hooks
}

type requestOptions struct {
	skipAuth bool
	retry    bool
	override *tokens.Pair
	header   http.Header
}

type RequestOption func(*requestOptions)

// WithSkipAuth issues the request without a bearer header and without the
// 401 refresh-and-retry path.
func WithSkipAuth() RequestOption {
	return func(o *requestOptions) {
		o.skipAuth = true
	}
}

// WithoutRetry disables the single refresh-and-retry on 401.
func WithoutRetry() RequestOption {
	return func(o *requestOptions) {
		o.retry = false
	}
}

// WithTokenPair uses an explicit pair instead of the token store's current
// one.
func WithTokenPair(pair *tokens.Pair) RequestOption {
	return func(o *requestOptions) {
		o.override = pair
	}
}

func WithHeader(key, value string) RequestOption {
	return func(o *requestOptions) {
		o.header.Set(key, value)
	}
}

// Do issues method path against the backend. A non-nil body is JSON-encoded;
// a non-nil out receives the JSON-decoded response. A 204 or empty body
// leaves out untouched.
//
// On a 401 with auth enabled and retry allowed, the pipeline performs exactly
// one refresh round-trip and re-issues the request once. The attempt counter
// in the loop enforces the single-retry bound structurally, no matter how
// many 401s the retried request itself produces.
func (c *Client) Do(ctx context.Context, method, path string, body, out any, options ...RequestOption) error {
	o := requestOptions{retry: true, header: http.Header{}}
	for _, opt := range options {
		opt(&o)
	}

	requestID := uuid.New().String()
	for attempt := 0; ; attempt++ {
		err := c.issue(ctx, method, path, body, out, &o, requestID)
		if err == nil || o.skipAuth || !o.retry || attempt > 0 {
			return err
		}
		if !IsUnauthorized(err) {
			return err
		}

		pair, pairErr := c.tokens.Current()
		if pairErr != nil || pair == nil || pair.RefreshToken == "" || c.hooks == nil {
			return err
		}

		c.logger.Debug().
			Str("request_id", requestID).
			Str("method", method).
			Str("path", path).
			Msg("access token rejected, refreshing session")

		if refreshErr := c.hooks.RefreshSession(ctx); refreshErr != nil {
			c.logger.Warn().
				Str("request_id", requestID).
				Str("path", path).
				Err(refreshErr).
				Msg("session refresh failed")
			return err // the original 401
		}
	}
}

func (c *Client) issue(ctx context.Context, method, path string, body, out any, o *requestOptions, requestID string) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "[Client.Do] encode request body")
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return errors.Wrap(err, "[Client.Do] build request")
	}
	for key, values := range o.header {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}
	if body != nil && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}

	if !o.skipAuth {
		pair := o.override
		if pair == nil {
			current, err := c.tokens.Current()
			if err != nil {
				c.logger.Warn().Err(err).Msg("token store read failed, sending request unauthenticated")
			} else {
				pair = current
			}
		}
		if pair != nil && pair.AccessToken != "" {
			req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrap(err, "[Client.Do] http request")
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, "[Client.Do] read response body")
	}

	c.logger.Debug().
		Str("request_id", requestID).
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Msg("request completed")

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		var payload map[string]any
		if len(data) > 0 {
			_ = json.Unmarshal(data, &payload) // best-effort
		}
		return &Error{Status: resp.StatusCode, Payload: payload}
	}

	if out == nil || resp.StatusCode == http.StatusNoContent || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return errors.Wrap(err, "[Client.Do] decode response body")
	}
	return nil
}
