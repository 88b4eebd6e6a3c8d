// Package client sends requests to an application under test.
//
// An in-process client calls the handler directly through an httptest
// recorder; a live client talks to a running live server over TCP. Both keep
// cookies between requests and return response.Response values:
//
//	c := client.New(handler)
//	res, err := c.Get(ctx, "/ping", client.AcceptJSON())
//	response.RequireStatus(t, res, http.StatusOK)
//
//	lc, err := client.NewLive(srv.URL(""))
//	conn, _, err := lc.Websocket(ctx, "/ws", nil)
//
// Redirects are never followed, so tests can assert on them.
package client
