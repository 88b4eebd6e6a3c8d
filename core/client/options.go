package client

import (
	"log/slog"
	"net/http"
)

// Option configures a Client.
type Option func(*Client)

// WithHeader adds a header sent with every request.
func WithHeader(key, value string) Option {
	return func(c *Client) {
		c.header.Add(key, value)
	}
}

// WithHeaders adds headers sent with every request.
func WithHeaders(h http.Header) Option {
	return func(c *Client) {
		for k, vs := range h {
			for _, v := range vs {
				c.header.Add(k, v)
			}
		}
	}
}

// WithHTTPClient sets the transport client of a live client. Its Jar and
// CheckRedirect are filled in when nil. In-process clients ignore it.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithJar replaces the cookie jar.
func WithJar(jar http.CookieJar) Option {
	return func(c *Client) {
		if jar != nil {
			c.jar = jar
		}
	}
}

// WithResponseFactory makes the client build responses with f. The result is
// still wrapped with response.Wrap, which keeps a JSON accessor f provides.
func WithResponseFactory(f RawFactory) Option {
	return func(c *Client) {
		if f != nil {
			c.factory = f
		}
	}
}

// WithLogger sets the logger for request tracing at debug level.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}
