package client

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gorilla/websocket"
)

// Websocket opens a WebSocket connection to path on the live server. Cookies
// from the client jar are sent with the handshake.
func (c *Client) Websocket(ctx context.Context, path string, header http.Header) (*websocket.Conn, *http.Response, error) {
	if !c.Live() {
		return nil, nil, ErrNotLive
	}

	u, err := c.URL(path)
	if err != nil {
		return nil, nil, err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}

	h := c.header.Clone()
	for k, vs := range header {
		h[k] = vs
	}

	dialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: websocket.DefaultDialer.HandshakeTimeout,
		Jar:              c.jar,
	}
	conn, resp, err := dialer.DialContext(ctx, u.String(), h)
	if err != nil {
		return nil, resp, fmt.Errorf("%w: websocket %s: %w", ErrRequest, u, err)
	}
	return conn, resp, nil
}
