package livetest

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"runtime"
	"slices"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/dmitrymomot/livetest/core/app"
	"github.com/dmitrymomot/livetest/core/client"
	"github.com/dmitrymomot/livetest/core/liveserver"
	"github.com/dmitrymomot/livetest/core/logger"
	"github.com/dmitrymomot/livetest/core/scope"
)

// Main runs the test binary: it serves as the live server process when
// re-executed, otherwise it runs the tests and stops the shared live servers.
// It calls os.Exit and never returns.
func Main(m *testing.M) {
	os.Exit(Run(m))
}

// Run is Main without os.Exit, for TestMain functions with their own setup.
func Run(m *testing.M) int {
	if liveserver.IsChild() {
		return liveserver.RunChild()
	}
	RegisterFlags(flag.CommandLine)

	code := m.Run()
	servers.teardown()
	return code
}

// instance is a live server owned by the registry. refs counts the tests
// currently holding it; ready is closed once creation has finished.
type instance struct {
	srv        *liveserver.LiveServer
	serverName string
	refs       int
	ready      chan struct{}
	err        error
}

// slot identifies a registry entry. key is empty for shared scopes, the
// source file for module, the top-level test for class and the test itself
// for function scope.
type slot struct {
	scope scope.Scope
	app   string
	key   string
}

// sibling reports whether o belongs to the same scope and application but a
// different module, class or test.
func (s slot) sibling(o slot) bool {
	return s.scope == o.scope && s.app == o.app && s.key != o.key
}

type registry struct {
	mu        sync.Mutex
	instances map[slot]*instance
	names     map[*app.App]*nameHolders
	logOnce   sync.Once
	log       *slog.Logger
}

var servers = newRegistry()

func newRegistry() *registry {
	return &registry{
		instances: map[slot]*instance{},
		names:     map[*app.App]*nameHolders{},
	}
}

func (r *registry) baseLogger(o Options) *slog.Logger {
	r.logOnce.Do(func() {
		level, _ := logger.ParseLevel(o.LogLevel)
		r.log = logger.New(logger.WithLevel(level), logger.WithAttr(logger.Component("livetest")))
	})
	return r.log
}

// LiveServer returns the live server of a for the scope in effect. A new
// server is created and, unless AutoStart is off, started when the scope has
// no server for the current key. Setup failures fail the test.
//
// The module scope is keyed by the source file of the test function that
// called LiveServer, directly or through helpers. The class scope is keyed by
// the top-level test name. A module or class server stops once no test holds
// it and a different module or class has asked for a server of the same
// application; servers still alive at the end of the run are stopped by Main.
func LiveServer(tb testing.TB, a *app.App) *liveserver.LiveServer {
	tb.Helper()

	srv, err := servers.acquire(tb, a, moduleKey())
	if err != nil {
		tb.Fatalf("livetest: %v", err)
	}
	return srv
}

// moduleKey returns the file of the innermost Test, Benchmark or Fuzz
// function on the call stack, or the direct caller of LiveServer when there
// is none.
func moduleKey() string {
	pcs := make([]uintptr, 32)
	n := runtime.Callers(3, pcs)
	frames := runtime.CallersFrames(pcs[:n])

	first := ""
	for {
		f, more := frames.Next()
		if first == "" {
			first = f.File
		}
		if isTestFunc(f.Function) {
			return f.File
		}
		if !more {
			return first
		}
	}
}

func isTestFunc(fn string) bool {
	if i := strings.LastIndexByte(fn, '/'); i >= 0 {
		fn = fn[i+1:]
	}
	_, name, ok := strings.Cut(fn, ".")
	if !ok {
		return false
	}
	for _, prefix := range []string{"Test", "Benchmark", "Fuzz"} {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}

// acquire returns the server for the slot of tb, creating it when needed.
// The registry lock is held only around map access; starting and stopping
// run outside it. The returned server is non-nil whenever one was created,
// even when starting it failed and it has been stopped again.
func (r *registry) acquire(tb testing.TB, a *app.App, callerFile string) (*liveserver.LiveServer, error) {
	o, err := optionsFor(tb.Name())
	if err != nil {
		return nil, err
	}
	sc, err := o.ParsedScope()
	if err != nil {
		return nil, err
	}
	log := r.baseLogger(o).With(logger.App(a.Name()), logger.Scope(sc.String()))

	s := slot{scope: sc, app: a.Name()}
	switch {
	case sc.Shared():
	case sc == scope.Module:
		s.key = callerFile
	case sc == scope.Class:
		s.key, _, _ = strings.Cut(tb.Name(), "/")
	default:
		s.key = tb.Name()
	}

	r.mu.Lock()
	inst, found := r.instances[s]
	if !found {
		inst = &instance{ready: make(chan struct{})}
		r.instances[s] = inst
	}
	inst.refs++
	idle := r.evictIdle(s)
	r.mu.Unlock()

	r.stop(idle, log)
	tb.Cleanup(func() { r.release(s, inst, log) })

	if found {
		<-inst.ready
		return inst.srv, inst.err
	}

	inst.err = r.create(inst, a, o, log)
	if inst.err != nil {
		r.mu.Lock()
		if r.instances[s] == inst {
			delete(r.instances, s)
		}
		r.mu.Unlock()
	}
	close(inst.ready)
	return inst.srv, inst.err
}

// release drops one reference. Function servers stop with their test;
// module and class servers stop once idle if a sibling has been requested.
func (r *registry) release(s slot, inst *instance, log *slog.Logger) {
	r.mu.Lock()
	inst.refs--
	var stop []*instance
	if inst.refs == 0 && r.instances[s] == inst && (s.scope == scope.Function || r.hasSibling(s)) {
		delete(r.instances, s)
		stop = append(stop, inst)
	}
	r.mu.Unlock()

	<-inst.ready
	r.stop(stop, log)
}

// evictIdle removes unreferenced siblings of s. Called with r.mu held.
func (r *registry) evictIdle(s slot) []*instance {
	var idle []*instance
	for o, inst := range r.instances {
		if s.sibling(o) && inst.refs == 0 {
			delete(r.instances, o)
			idle = append(idle, inst)
		}
	}
	return idle
}

// hasSibling reports whether a sibling of s is registered. Called with r.mu held.
func (r *registry) hasSibling(s slot) bool {
	for o := range r.instances {
		if s.sibling(o) {
			return true
		}
	}
	return false
}

// stop stops insts and gives up their SERVER_NAME claims.
func (r *registry) stop(insts []*instance, log *slog.Logger) {
	for _, inst := range insts {
		if inst.srv == nil {
			continue
		}
		outcome := inst.srv.Stop()
		r.releaseName(inst)
		log.Debug("live server released", logger.InstanceID(inst.srv.ID()), logger.Result(outcome.String()))
	}
}

// create builds and optionally starts the server of inst. On start failure
// the server is stopped and its SERVER_NAME claim dropped; inst.srv stays set.
func (r *registry) create(inst *instance, a *app.App, o Options, log *slog.Logger) error {
	port := o.Port
	if p, ok := a.Config().Int(app.KeyLiveServerPort); ok && p != 0 {
		port = p
	}
	port, err := liveserver.ResolvePort(port)
	if err != nil {
		return err
	}
	inst.serverName = r.rewriteServerName(a, port)

	srv, err := liveserver.New(a,
		liveserver.WithHost(o.Host),
		liveserver.WithPort(port),
		liveserver.WithWait(o.WaitDuration()),
		liveserver.WithCleanStop(o.CleanStop),
		liveserver.WithLogger(log),
		liveserver.WithConfigOverrides(map[string]any{app.KeyServerName: inst.serverName}),
	)
	if err != nil {
		return err
	}
	inst.srv = srv
	r.claimName(inst)

	if o.AutoStart {
		if err := srv.Start(context.Background()); err != nil {
			r.stop([]*instance{inst}, log)
			return err
		}
	}
	return nil
}

// teardown stops every registered live server. Main calls it after m.Run.
func (r *registry) teardown() {
	r.mu.Lock()
	insts := make([]*instance, 0, len(r.instances))
	for s, inst := range r.instances {
		insts = append(insts, inst)
		delete(r.instances, s)
	}
	r.mu.Unlock()

	for _, inst := range insts {
		<-inst.ready
	}
	r.stop(insts, r.baseLogger(DefaultOptions()))
}

// nameHolders tracks the instances of one application that rewrote its
// SERVER_NAME. The newest holder's value is visible; the original comes
// back when the last holder is gone.
type nameHolders struct {
	original string
	restore  func()
	holders  []*instance
}

func (r *registry) rewriteServerName(a *app.App, port int) string {
	r.mu.Lock()
	name := a.Config().String(app.KeyServerName)
	if h, ok := r.names[a]; ok {
		name = h.original
	}
	r.mu.Unlock()

	if name == "" {
		name = app.DefaultServerName
	}
	return app.RewriteServerName(name, strconv.Itoa(port))
}

func (r *registry) claimName(inst *instance) {
	a := inst.srv.App()

	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.names[a]
	if !ok {
		h = &nameHolders{original: a.Config().String(app.KeyServerName)}
		h.restore = a.Config().Override(map[string]any{app.KeyServerName: inst.serverName})
		r.names[a] = h
	} else {
		a.Config().Set(app.KeyServerName, inst.serverName)
	}
	h.holders = append(h.holders, inst)
}

func (r *registry) releaseName(inst *instance) {
	a := inst.srv.App()

	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.names[a]
	if !ok {
		return
	}
	i := slices.Index(h.holders, inst)
	if i < 0 {
		return
	}
	h.holders = slices.Delete(h.holders, i, i+1)
	if len(h.holders) == 0 {
		h.restore()
		delete(r.names, a)
		return
	}
	a.Config().Set(app.KeyServerName, h.holders[len(h.holders)-1].serverName)
}

// Client returns an in-process client for a, built from its current configuration.
func Client(tb testing.TB, a *app.App, opts ...client.Option) *client.Client {
	tb.Helper()
	h, err := a.Handler()
	if err != nil {
		tb.Fatalf("livetest: %v", err)
	}
	return client.New(h, opts...)
}

// LiveClient returns a client for a running live server.
func LiveClient(tb testing.TB, srv *liveserver.LiveServer, opts ...client.Option) *client.Client {
	tb.Helper()
	c, err := client.NewLive(srv.URL(""), opts...)
	if err != nil {
		tb.Fatalf("livetest: %v", err)
	}
	return c
}

// Configure applies overrides to the configuration of a for the duration of
// tb and returns the configuration. Not safe for parallel tests sharing a.
// A live server that is already running keeps the configuration it started with.
func Configure(tb testing.TB, a *app.App, values map[string]any) *app.Config {
	tb.Helper()
	tb.Cleanup(a.Config().Override(values))
	return a.Config()
}
