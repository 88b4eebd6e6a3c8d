// Package livetest is a test-support toolkit for net/http applications.
//
// It provides an in-process request client, response status assertions,
// scoped application configuration and a live server which runs the
// application in a separate process for tests that need a real network
// endpoint, such as browser or websocket tests.
//
// # Setup
//
// Applications are registered by name with a factory, at package level so the
// live server process registers them too. TestMain hands over to Main:
//
//	var webApp = app.Register("web", func(cfg *app.Config) (http.Handler, error) {
//		return newRouter(cfg), nil
//	})
//
//	func TestMain(m *testing.M) {
//		livetest.Main(m)
//	}
//
// # Fixtures
//
//	func TestPing(t *testing.T) {
//		c := livetest.Client(t, webApp)
//		res, err := c.Get(t.Context(), "/ping", client.AcceptJSON())
//		require.NoError(t, err)
//		response.RequireStatus(t, res, http.StatusOK)
//	}
//
//	func TestBrowser(t *testing.T) {
//		srv := livetest.LiveServer(t, webApp)
//		resp, err := http.Get(srv.URL("/ping"))
//		...
//	}
//
// # Options
//
// Live server behavior is configured in layers, later layers winning:
// DefaultOptions, a YAML file (LIVETEST_CONFIG or ./livetest.yaml),
// LIVETEST_* environment variables (a .env file is honored) and the
// -live-server-* test binary flags:
//
//	go test ./... -args -live-server-scope=function -live-server-wait=10
//
// The scope decides how long a live server lives: session and package share
// one server per test binary, module per test source file, class per
// top-level test and function per test.
package livetest
