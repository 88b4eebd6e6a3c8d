package livetest

import (
	"fmt"
	"net/http"
	"path/filepath"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/livetest/core/app"
	"github.com/dmitrymomot/livetest/core/liveserver"
)

var (
	failingStartApp = app.Register("livetest-failing-start", func(*app.Config) (http.Handler, error) {
		return http.NotFoundHandler(), nil
	})
	slowStartApp = app.Register("livetest-slow-start", func(*app.Config) (http.Handler, error) {
		time.Sleep(time.Second)
		return http.NotFoundHandler(), nil
	})
	refsApp = app.Register("livetest-refs", func(*app.Config) (http.Handler, error) {
		return http.NotFoundHandler(), nil
	})
)

// fakeTB records cleanups and turns Fatalf into a goroutine exit, so setup
// failures can be observed without failing the enclosing test.
type fakeTB struct {
	testing.TB
	name string

	mu       sync.Mutex
	cleanups []func()
	fatal    string
}

func newFakeTB(name string) *fakeTB { return &fakeTB{name: name} }

func (f *fakeTB) Name() string { return f.name }

func (f *fakeTB) Helper() {}

func (f *fakeTB) Cleanup(fn func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cleanups = append(f.cleanups, fn)
}

func (f *fakeTB) Fatalf(format string, args ...any) {
	f.mu.Lock()
	f.fatal = fmt.Sprintf(format, args...)
	f.mu.Unlock()
	runtime.Goexit()
}

// do runs fn on its own goroutine and waits for it, Fatalf included.
func (f *fakeTB) do(fn func(tb testing.TB)) {
	done := make(chan struct{})
	go func() {
		defer close(done)
		fn(f)
	}()
	<-done
}

// finish runs the recorded cleanups in reverse order.
func (f *fakeTB) finish() {
	f.mu.Lock()
	fns := f.cleanups
	f.cleanups = nil
	f.mu.Unlock()
	for i := len(fns) - 1; i >= 0; i-- {
		fns[i]()
	}
}

func (r *registry) slots(appName string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for s := range r.instances {
		if s.app == appName {
			n++
		}
	}
	return n
}

// creating reports whether a server of appName is registered but not ready.
func (r *registry) creating(appName string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for s, inst := range r.instances {
		if s.app != appName {
			continue
		}
		select {
		case <-inst.ready:
		default:
			return true
		}
	}
	return false
}

func TestLiveServerStartupFailure(t *testing.T) {
	if testing.Short() {
		t.Skip("starts a live server process")
	}
	o := DefaultOptions()
	o.Scope = "function"
	o.Wait = 0.00000001
	UseOptions(t, o)

	failingStartApp.Config().Set(app.KeyServerName, "failing.test")
	t.Cleanup(func() { failingStartApp.Config().Delete(app.KeyServerName) })

	t.Run("fixture", func(t *testing.T) {
		tb := newFakeTB(t.Name())
		tb.do(func(tb testing.TB) { LiveServer(tb, failingStartApp) })
		tb.finish()

		assert.Contains(t, tb.fatal, "failed to start the live server after")
		assert.Equal(t, "failing.test", failingStartApp.Config().String(app.KeyServerName), "SERVER_NAME restored")
		assert.Zero(t, servers.slots(failingStartApp.Name()))
	})

	t.Run("process", func(t *testing.T) {
		r := newRegistry()
		tb := newFakeTB(t.Name())
		srv, err := r.acquire(tb, failingStartApp, "")
		require.Error(t, err)
		require.ErrorIs(t, err, liveserver.ErrStartupTimeout)
		require.NotNil(t, srv)

		assert.False(t, srv.Alive(), "process is stopped after a failed start")
		assert.Equal(t, liveserver.StateStopped, srv.State())
		assert.Equal(t, "failing.test", failingStartApp.Config().String(app.KeyServerName))
		assert.Zero(t, r.slots(failingStartApp.Name()))

		tb.finish()
		assert.Equal(t, liveserver.StopNoop, srv.Stop())
	})
}

func TestAcquireUnlocksWhileStarting(t *testing.T) {
	if testing.Short() {
		t.Skip("starts a live server process")
	}
	o := DefaultOptions()
	o.Scope = "function"
	o.Wait = 10
	UseOptions(t, o)

	r := newRegistry()
	tb := newFakeTB(t.Name() + "/slow")
	done := make(chan error, 1)
	go func() {
		_, err := r.acquire(tb, slowStartApp, "")
		done <- err
	}()

	require.Eventually(t, func() bool { return r.creating(slowStartApp.Name()) },
		3*time.Second, 5*time.Millisecond, "registry is usable while a server starts")

	require.NoError(t, <-done)
	tb.finish()
	assert.Zero(t, r.slots(slowStartApp.Name()))
}

func TestRegistryClassRefs(t *testing.T) {
	o := DefaultOptions()
	o.Scope = "class"
	o.AutoStart = false

	refsApp.Config().Set(app.KeyServerName, "holder.test")
	t.Cleanup(func() { refsApp.Config().Delete(app.KeyServerName) })

	r := newRegistry()
	acquire := func(tb *fakeTB) *liveserver.LiveServer {
		UseOptions(tb, o)
		srv, err := r.acquire(tb, refsApp, "")
		require.NoError(t, err)
		return srv
	}
	name := func(srv *liveserver.LiveServer) string {
		return fmt.Sprintf("holder.test:%d", srv.Port())
	}

	tbA, tbB, tbC := newFakeTB(t.Name()+"A"), newFakeTB(t.Name()+"B"), newFakeTB(t.Name()+"C")

	a := acquire(tbA)
	b := acquire(tbB)
	assert.NotSame(t, a, b)
	assert.Equal(t, 2, r.slots(refsApp.Name()), "a held server is not evicted by a sibling")
	assert.Equal(t, name(b), refsApp.Config().String(app.KeyServerName))

	tbA.finish()
	assert.Equal(t, 1, r.slots(refsApp.Name()), "released server with a sibling is stopped")
	assert.Equal(t, name(b), refsApp.Config().String(app.KeyServerName))

	tbB.finish()
	assert.Equal(t, 1, r.slots(refsApp.Name()), "released server without a sibling is kept")

	c := acquire(tbC)
	assert.Equal(t, 1, r.slots(refsApp.Name()), "idle sibling is evicted")
	assert.Equal(t, name(c), refsApp.Config().String(app.KeyServerName))

	tbC.finish()
	r.teardown()
	assert.Zero(t, r.slots(refsApp.Name()))
	assert.Equal(t, "holder.test", refsApp.Config().String(app.KeyServerName), "SERVER_NAME restored")
}

func TestIsTestFunc(t *testing.T) {
	t.Parallel()

	tests := []struct {
		fn   string
		want bool
	}{
		{"github.com/acme/shop.TestCheckout", true},
		{"github.com/acme/shop_test.TestCheckout.func1", true},
		{"github.com/acme/shop.BenchmarkCart", true},
		{"github.com/acme/shop.FuzzParse", true},
		{"github.com/acme/shop.startServer", false},
		{"github.com/acme/shop.(*Suite).TestLike", false},
		{"testing.tRunner", false},
		{"main", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, isTestFunc(tt.fn), tt.fn)
	}
}

func TestModuleKeyThroughHelper(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "fixtures_internal_test.go", filepath.Base(moduleKeyViaHelper()))
}
