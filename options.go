package livetest

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dmitrymomot/livetest/core/config"
	"github.com/dmitrymomot/livetest/core/liveserver"
	"github.com/dmitrymomot/livetest/core/logger"
	"github.com/dmitrymomot/livetest/core/scope"
)

// ErrInvalidOptions is returned when options fail validation.
var ErrInvalidOptions = errors.New("invalid live server options")

const (
	// EnvConfigFile names a YAML options file. Defaults to DefaultConfigFile.
	EnvConfigFile     = "LIVETEST_CONFIG"
	DefaultConfigFile = "livetest.yaml"
)

// Options configures live server fixtures.
type Options struct {
	// AutoStart starts the server before handing it to the test.
	AutoStart bool `yaml:"start" env:"LIVETEST_START"`
	Host      string `yaml:"host" env:"LIVETEST_HOST"`
	// Port 0 picks a free port once per server instance.
	Port int `yaml:"port" env:"LIVETEST_PORT"`
	// Wait is the startup budget in seconds.
	Wait float64 `yaml:"wait" env:"LIVETEST_WAIT"`
	// CleanStop tries SIGINT before killing the server process.
	CleanStop bool   `yaml:"clean_stop" env:"LIVETEST_CLEAN_STOP"`
	Scope     string `yaml:"scope" env:"LIVETEST_SCOPE"`
	LogLevel  string `yaml:"log_level" env:"LIVETEST_LOG_LEVEL"`
}

// DefaultOptions returns the built-in defaults.
func DefaultOptions() Options {
	return Options{
		AutoStart: true,
		Host:      liveserver.DefaultHost,
		Port:      0,
		Wait:      liveserver.DefaultWait.Seconds(),
		CleanStop: true,
		Scope:     string(scope.Session),
		LogLevel:  "warn",
	}
}

// WaitDuration returns Wait as a time.Duration.
func (o Options) WaitDuration() time.Duration {
	return time.Duration(o.Wait * float64(time.Second))
}

// ParsedScope returns the validated scope.
func (o Options) ParsedScope() (scope.Scope, error) {
	return scope.Parse(o.Scope)
}

// Validate reports the first invalid field.
func (o Options) Validate() error {
	if _, err := o.ParsedScope(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidOptions, err)
	}
	if o.Host == "" {
		return fmt.Errorf("%w: empty host", ErrInvalidOptions)
	}
	if o.Port < 0 || o.Port > 65535 {
		return fmt.Errorf("%w: port %d out of range", ErrInvalidOptions, o.Port)
	}
	if o.Wait <= 0 {
		return fmt.Errorf("%w: wait must be positive, got %v", ErrInvalidOptions, o.Wait)
	}
	if _, ok := logger.ParseLevel(o.LogLevel); !ok {
		return fmt.Errorf("%w: unknown log level %q", ErrInvalidOptions, o.LogLevel)
	}
	return nil
}

// LoadOptions layers the defaults, the YAML file, the environment and any
// flags registered with RegisterFlags, then validates the result.
func LoadOptions() (Options, error) {
	return loadOptions(&flags)
}

func loadOptions(f *flagSet) (Options, error) {
	o := DefaultOptions()

	path := os.Getenv(EnvConfigFile)
	if path == "" {
		path = DefaultConfigFile
	}
	if err := config.LoadOptionalYAML(path, &o); err != nil {
		return Options{}, fmt.Errorf("%w: %w", ErrInvalidOptions, err)
	}

	// Environment variables only override fields they name.
	if err := config.Load(&o); err != nil {
		return Options{}, fmt.Errorf("%w: %w", ErrInvalidOptions, err)
	}

	f.apply(&o)

	if err := o.Validate(); err != nil {
		return Options{}, err
	}
	return o, nil
}

// flagSet holds values of the -live-server-* flags.
type flagSet struct {
	mu    sync.Mutex
	fs    *flag.FlagSet
	start bool
	host  string
	port  int
	wait  float64
	clean bool
	scope string
}

var flags flagSet

// RegisterFlags adds the -live-server-* flags to fs. Main registers them on
// flag.CommandLine; call it yourself when using a custom TestMain. Only the
// first registration takes effect.
func RegisterFlags(fs *flag.FlagSet) {
	flags.register(fs)
}

func (f *flagSet) register(fs *flag.FlagSet) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fs != nil {
		return
	}
	f.fs = fs

	d := DefaultOptions()
	fs.BoolVar(&f.start, "live-server-start", d.AutoStart, "start the live server automatically")
	fs.StringVar(&f.host, "live-server-host", d.Host, "host the live server binds to")
	fs.IntVar(&f.port, "live-server-port", d.Port, "live server port, 0 picks a free port")
	fs.Float64Var(&f.wait, "live-server-wait", d.Wait, "seconds to wait for the live server to start")
	fs.BoolVar(&f.clean, "live-server-clean-stop", d.CleanStop, "interrupt the live server before killing it")
	fs.StringVar(&f.scope, "live-server-scope", d.Scope, "live server scope: session, package, module, class or function")
}

// apply copies flags that were set explicitly on the command line.
func (f *flagSet) apply(o *Options) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fs == nil || !f.fs.Parsed() {
		return
	}
	f.fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "live-server-start":
			o.AutoStart = f.start
		case "live-server-host":
			o.Host = f.host
		case "live-server-port":
			o.Port = f.port
		case "live-server-wait":
			o.Wait = f.wait
		case "live-server-clean-stop":
			o.CleanStop = f.clean
		case "live-server-scope":
			o.Scope = f.scope
		}
	})
}

var (
	optionsOnce sync.Once
	options     Options
	optionsErr  error

	overridesMu sync.RWMutex
	overrides   = map[string]Options{}
)

// defaultOptions loads the binary-wide options once.
func defaultOptions() (Options, error) {
	optionsOnce.Do(func() {
		options, optionsErr = LoadOptions()
	})
	return options, optionsErr
}

// UseOptions makes tb and its subtests use o instead of the loaded options.
func UseOptions(tb testing.TB, o Options) {
	tb.Helper()
	if err := o.Validate(); err != nil {
		tb.Fatalf("livetest: %v", err)
	}

	name := tb.Name()
	overridesMu.Lock()
	overrides[name] = o
	overridesMu.Unlock()

	tb.Cleanup(func() {
		overridesMu.Lock()
		delete(overrides, name)
		overridesMu.Unlock()
	})
}

// optionsFor returns the options in effect for the test named name.
// Overrides of parent tests apply to subtests.
func optionsFor(name string) (Options, error) {
	overridesMu.RLock()
	for n := name; ; {
		if o, ok := overrides[n]; ok {
			overridesMu.RUnlock()
			return o, nil
		}
		i := strings.LastIndexByte(n, '/')
		if i < 0 {
			break
		}
		n = n[:i]
	}
	overridesMu.RUnlock()
	return defaultOptions()
}

func (o Options) String() string {
	return fmt.Sprintf("start=%t addr=%s:%d wait=%vs clean_stop=%t scope=%s",
		o.AutoStart, o.Host, o.Port, o.Wait, o.CleanStop, o.Scope)
}
