package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrymomot/livetest/core/logger"
	"github.com/dmitrymomot/livetest/core/response"
)

// DefaultBaseURL is the origin used for in-process requests.
const DefaultBaseURL = "http://localhost"

var (
	ErrNotLive    = errors.New("client is not connected to a live server")
	ErrBaseURL    = errors.New("invalid base URL")
	ErrRequest    = errors.New("failed to perform request")
	ErrEncodeBody = errors.New("failed to encode request body")
)

// RawFactory turns an HTTP response into the Raw type a test wants to work with.
// The factory owns resp.Body and must close it.
type RawFactory func(resp *http.Response) (response.Raw, error)

// Client sends requests to one application. Safe for concurrent use.
type Client struct {
	handler    http.Handler
	base       *url.URL
	httpClient *http.Client
	jar        http.CookieJar
	header     http.Header
	factory    RawFactory
	logger     *slog.Logger
}

// New returns a client that serves requests with handler in the current process.
// A nil handler answers every request with 404.
func New(handler http.Handler, opts ...Option) *Client {
	if handler == nil {
		handler = http.NotFoundHandler()
	}
	base, _ := url.Parse(DefaultBaseURL)
	c := newClient(base, opts)
	c.handler = handler
	return c
}

// NewLive returns a client for a running server at baseURL, e.g. "http://localhost:5001".
func NewLive(baseURL string, opts ...Option) (*Client, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBaseURL, err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrBaseURL, baseURL)
	}
	c := newClient(base, opts)

	hc := http.Client{Timeout: 30 * time.Second}
	if c.httpClient != nil {
		hc = *c.httpClient
	}
	if hc.Jar == nil {
		hc.Jar = c.jar
	}
	if hc.CheckRedirect == nil {
		hc.CheckRedirect = func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}
	c.httpClient = &hc
	c.jar = hc.Jar

	return c, nil
}

func newClient(base *url.URL, opts []Option) *Client {
	jar, _ := cookiejar.New(nil)
	c := &Client{
		base:    base,
		jar:     jar,
		header:  http.Header{},
		factory: defaultFactory,
		logger:  logger.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func defaultFactory(resp *http.Response) (response.Raw, error) {
	return response.FromHTTP(resp)
}

// Live reports whether the client talks to a live server.
func (c *Client) Live() bool {
	return c.handler == nil
}

// BaseURL returns the origin requests are resolved against.
func (c *Client) BaseURL() string {
	return c.base.String()
}

// Jar returns the cookie jar shared by all requests of this client.
func (c *Client) Jar() http.CookieJar {
	return c.jar
}

// URL resolves path against the base URL.
func (c *Client) URL(path string) (*url.URL, error) {
	ref, err := url.Parse(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRequest, err)
	}
	return c.base.ResolveReference(ref), nil
}

// Do sends a request and returns the fully read response.
func (c *Client) Do(ctx context.Context, method, path string, body io.Reader, headers ...http.Header) (response.Response, error) {
	u, err := c.URL(path)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRequest, err)
	}
	for k, vs := range c.header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	for _, h := range headers {
		for k, vs := range h {
			req.Header.Del(k)
			for _, v := range vs {
				req.Header.Add(k, v)
			}
		}
	}

	start := time.Now()
	var resp *http.Response
	if c.handler != nil {
		resp = c.serve(req)
	} else {
		resp, err = c.httpClient.Do(req)
		if err != nil {
			c.logger.DebugContext(ctx, "request failed",
				logger.Action(method), logger.URL(u.String()), logger.Error(err))
			return nil, fmt.Errorf("%w: %s %s: %w", ErrRequest, method, u, err)
		}
	}

	c.logger.DebugContext(ctx, "request completed",
		logger.Action(method),
		logger.URL(u.String()),
		logger.Result(resp.Status),
		logger.Elapsed(start),
	)

	raw, err := c.factory(resp)
	if err != nil {
		return nil, err
	}
	return response.Wrap(raw), nil
}

// serve runs req through the handler and keeps cookies like a browser would.
func (c *Client) serve(req *http.Request) *http.Response {
	for _, ck := range c.jar.Cookies(req.URL) {
		req.AddCookie(ck)
	}
	if req.Body == nil {
		req.Body = http.NoBody
	}
	req.RequestURI = req.URL.RequestURI()
	req.RemoteAddr = "127.0.0.1:1234"

	rec := httptest.NewRecorder()
	c.handler.ServeHTTP(rec, req)

	resp := rec.Result()
	resp.Request = req
	if cookies := resp.Cookies(); len(cookies) > 0 {
		c.jar.SetCookies(req.URL, cookies)
	}
	return resp
}

func (c *Client) Get(ctx context.Context, path string, headers ...http.Header) (response.Response, error) {
	return c.Do(ctx, http.MethodGet, path, nil, headers...)
}

func (c *Client) Head(ctx context.Context, path string, headers ...http.Header) (response.Response, error) {
	return c.Do(ctx, http.MethodHead, path, nil, headers...)
}

func (c *Client) Delete(ctx context.Context, path string, headers ...http.Header) (response.Response, error) {
	return c.Do(ctx, http.MethodDelete, path, nil, headers...)
}

func (c *Client) Options(ctx context.Context, path string, headers ...http.Header) (response.Response, error) {
	return c.Do(ctx, http.MethodOptions, path, nil, headers...)
}

func (c *Client) Post(ctx context.Context, path, contentType string, body io.Reader, headers ...http.Header) (response.Response, error) {
	return c.Do(ctx, http.MethodPost, path, body, withContentType(contentType, headers)...)
}

func (c *Client) Put(ctx context.Context, path, contentType string, body io.Reader, headers ...http.Header) (response.Response, error) {
	return c.Do(ctx, http.MethodPut, path, body, withContentType(contentType, headers)...)
}

func (c *Client) Patch(ctx context.Context, path, contentType string, body io.Reader, headers ...http.Header) (response.Response, error) {
	return c.Do(ctx, http.MethodPatch, path, body, withContentType(contentType, headers)...)
}

// PostJSON encodes v as the JSON request body.
func (c *Client) PostJSON(ctx context.Context, path string, v any, headers ...http.Header) (response.Response, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEncodeBody, err)
	}
	return c.Post(ctx, path, "application/json", bytes.NewReader(data), headers...)
}

// PostForm sends form as an URL-encoded request body.
func (c *Client) PostForm(ctx context.Context, path string, form url.Values, headers ...http.Header) (response.Response, error) {
	return c.Post(ctx, path, "application/x-www-form-urlencoded", strings.NewReader(form.Encode()), headers...)
}

func withContentType(contentType string, headers []http.Header) []http.Header {
	if contentType == "" {
		return headers
	}
	return append([]http.Header{{"Content-Type": []string{contentType}}}, headers...)
}
