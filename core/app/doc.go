// Package app describes the application under test.
//
// An application is a named factory that builds an http.Handler from a
// configuration mapping. The name is what crosses the process boundary: the
// live server child process looks the factory up by name and rebuilds the
// handler from a JSON snapshot of the parent's configuration.
//
//	var ping = app.Register("ping", func(cfg *app.Config) (http.Handler, error) {
//		mux := http.NewServeMux()
//		mux.HandleFunc("GET /ping", func(w http.ResponseWriter, r *http.Request) {
//			w.Header().Set("Content-Type", "application/json")
//			io.WriteString(w, `{"ping":"pong"}`)
//		})
//		return mux, nil
//	})
//
// Register must run in both processes, so call it from a package-level
// variable or from TestMain before the child hook.
//
// Config keys are case-insensitive: they are stored upper-cased.
// Override applies a set of values and returns a restore function that puts
// the previous values (or their absence) back.
package app
