// Package api implements the authenticated backend client: standardized
// headers, JSON and multipart bodies, and a single transparent
// refresh-and-retry when the access token has expired.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/fieldops/companion/internal/core/domain"
	"github.com/fieldops/companion/internal/core/ports"
	"github.com/fieldops/companion/internal/metrics"
)

// locationHeader scopes calls to the employee's active location.
const locationHeader = "X-Location-ID"

// attempt distinguishes the original call from the single post-refresh retry,
// so a 401 on the retry can never trigger a second refresh.
type attempt int

const (
	firstAttempt attempt = iota
	retried
)

// Options configures a Client.
type Options struct {
	// BaseURL is the backend root, without the versioned prefix.
	BaseURL string
	// Prefix is the versioned path prefix, e.g. "/api/v1".
	Prefix  string
	Timeout time.Duration
	// RateLimit caps outbound calls per second; <= 0 disables the limiter.
	RateLimit float64
	// HTTPClient overrides the transport (tests). When nil a client with
	// Timeout is used.
	HTTPClient *http.Client
}

// Client is the ports.APIClient implementation backed by net/http.
type Client struct {
	base    string
	root    string
	http    *http.Client
	creds   ports.CredentialStore
	session *domain.Session
	limiter *rate.Limiter
	log     zerolog.Logger
}

func NewClient(opts Options, creds ports.CredentialStore, session *domain.Session, log zerolog.Logger) *Client {
	root := strings.TrimRight(opts.BaseURL, "/")
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	var limiter *rate.Limiter
	if opts.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), int(opts.RateLimit)+1)
	}

	return &Client{
		base:    root + strings.TrimRight(opts.Prefix, "/"),
		root:    root,
		http:    httpClient,
		creds:   creds,
		session: session,
		limiter: limiter,
		log:     log,
	}
}

// Do performs the request and decodes the JSON response into out when out is
// non-nil. See ports.APIClient for the error contract.
func (c *Client) Do(ctx context.Context, req ports.APIRequest, out any) error {
	start := time.Now()
	err := c.do(ctx, req, out, firstAttempt)
	metrics.APIRequestDuration.WithLabelValues(req.Method).Observe(time.Since(start).Seconds())
	return err
}

func (c *Client) do(ctx context.Context, req ports.APIRequest, out any, att attempt) error {
	var token string
	if req.RequireAuth {
		var err error
		token, err = c.creds.AccessToken()
		if err != nil {
			return fmt.Errorf("api: read access token: %w", err)
		}
		if token == "" {
			metrics.APIRequestsTotal.WithLabelValues(req.Method, "auth_error").Inc()
			return domain.ErrNotAuthenticated
		}
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
	}

	httpReq, err := c.newHTTPRequest(ctx, req, token)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		metrics.APIRequestsTotal.WithLabelValues(req.Method, "network_error").Inc()
		return fmt.Errorf("%w: %v", domain.ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized && req.RequireAuth {
		_, _ = io.Copy(io.Discard, resp.Body)
		metrics.APIRequestsTotal.WithLabelValues(req.Method, "auth_error").Inc()

		if att == firstAttempt {
			if _, err := c.Refresh(ctx); err != nil {
				return err
			}
			c.log.Debug().Str("path", req.Path).Msg("access token refreshed, retrying request")
			return c.do(ctx, req, out, retried)
		}

		// Refresh already happened once for this call; never loop.
		c.teardown()
		return domain.ErrSessionExpired
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.APIRequestsTotal.WithLabelValues(req.Method, "network_error").Inc()
		return fmt.Errorf("%w: %v", domain.ErrNetwork, err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		metrics.APIRequestsTotal.WithLabelValues(req.Method, "http_error").Inc()
		return &domain.APIError{
			StatusCode: resp.StatusCode,
			Detail:     extractDetail(body),
			Body:       body,
		}
	}

	metrics.APIRequestsTotal.WithLabelValues(req.Method, "ok").Inc()

	if out != nil && len(body) > 0 {
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("api: decode response: %w", err)
		}
	}
	return nil
}

func (c *Client) newHTTPRequest(ctx context.Context, req ports.APIRequest, token string) (*http.Request, error) {
	base := c.base
	if req.Unversioned {
		base = c.root
	}
	target := base + req.Path
	if len(req.Query) > 0 {
		q := url.Values{}
		for k, v := range req.Query {
			q.Set(k, v)
		}
		target += "?" + q.Encode()
	}

	var (
		body        io.Reader
		contentType string
	)
	switch {
	case req.Form != nil:
		raw, ct, err := buildMultipart(req.Form)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(raw)
		contentType = ct
	case req.Body != nil:
		raw, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("api: encode request body: %w", err)
		}
		body = bytes.NewReader(raw)
		contentType = "application/json"
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, body)
	if err != nil {
		return nil, fmt.Errorf("api: build request: %w", err)
	}

	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}
	if loc := c.session.LocationID(); loc != "" {
		httpReq.Header.Set(locationHeader, loc)
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}
	return httpReq, nil
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type refreshResponse struct {
	AccessToken string `json:"access_token"`
}

// Refresh exchanges the stored refresh token for a new access token and
// persists it. On any failure — missing refresh token, transport error, or a
// rejection — it clears all stored credentials, clears the session, and
// returns domain.ErrSessionExpired. The refresh itself is never retried.
//
// Concurrent callers racing past token expiry may each trigger a refresh;
// the last stored access token wins, which the backend treats as idempotent.
func (c *Client) Refresh(ctx context.Context) (string, error) {
	fail := func() (string, error) {
		metrics.TokenRefreshTotal.WithLabelValues("failure").Inc()
		c.teardown()
		return "", domain.ErrSessionExpired
	}

	rt, err := c.creds.RefreshToken()
	if err != nil || rt == "" {
		return fail()
	}

	payload, err := json.Marshal(refreshRequest{RefreshToken: rt})
	if err != nil {
		return fail()
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.root+"/auth/refresh", bytes.NewReader(payload))
	if err != nil {
		return fail()
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return fail()
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fail()
	}

	var out refreshResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil || out.AccessToken == "" {
		return fail()
	}
	if err := c.creds.SetAccessToken(out.AccessToken); err != nil {
		return fail()
	}

	metrics.TokenRefreshTotal.WithLabelValues("success").Inc()
	return out.AccessToken, nil
}

// teardown clears credentials and the session context after an unrecoverable
// auth failure.
func (c *Client) teardown() {
	if err := c.creds.ClearAll(); err != nil {
		c.log.Warn().Err(err).Msg("failed to clear stored credentials")
	}
	c.session.Clear()
	c.log.Warn().Msg("session expired, credentials cleared")
}

func buildMultipart(form *ports.MultipartForm) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for k, v := range form.Fields {
		if err := w.WriteField(k, v); err != nil {
			return nil, "", fmt.Errorf("api: write form field %s: %w", k, err)
		}
	}
	for _, f := range form.Files {
		part, err := w.CreateFormFile(f.Field, f.Filename)
		if err != nil {
			return nil, "", fmt.Errorf("api: create form file %s: %w", f.Field, err)
		}
		if _, err := part.Write(f.Content); err != nil {
			return nil, "", fmt.Errorf("api: write form file %s: %w", f.Field, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("api: finalize form: %w", err)
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}

// extractDetail pulls the backend's `detail` field out of an error body so
// screens can show the server's explanation verbatim.
func extractDetail(body []byte) string {
	var envelope struct {
		Detail string `json:"detail"`
		Error  string `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return ""
	}
	if envelope.Detail != "" {
		return envelope.Detail
	}
	return envelope.Error
}
