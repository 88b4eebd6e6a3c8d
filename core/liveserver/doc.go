// Package liveserver runs a registered application in a separate process of
// the test binary and manages its lifecycle from the test side.
//
// The live server process is the test binary itself, re-executed with
// -test.run=^$ and a few LIVETEST_CHILD_* environment variables. TestMain
// must hand control to the child hook before running tests:
//
//	func TestMain(m *testing.M) {
//		if liveserver.IsChild() {
//			os.Exit(liveserver.RunChild())
//		}
//		os.Exit(m.Run())
//	}
//
// The livetest package wraps this in livetest.Main.
//
// # Lifecycle
//
//	srv, err := liveserver.New(a, liveserver.WithPort(0), liveserver.WithWait(5*time.Second))
//	if err != nil {
//		return err
//	}
//	if err := srv.Start(ctx); err != nil {
//		srv.Stop()
//		return err
//	}
//	defer srv.Stop()
//
//	resp, err := http.Get(srv.URL("/ping"))
//
// Start blocks until the server accepts TCP connections or the wait budget
// runs out. Stop first asks the process to shut down with SIGINT when clean
// stop is enabled and falls back to killing it. Stop never fails; the
// returned StopOutcome says which path was taken.
package liveserver
