package app

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"sync"
)

var (
	// ErrUnknownApp is returned when no factory is registered under a name.
	ErrUnknownApp = errors.New("application is not registered")

	// ErrFactory is returned when a factory fails or returns a nil handler.
	ErrFactory = errors.New("application factory failed")
)

// Factory builds the application handler from its configuration.
// It runs in the test process for in-process clients and in the live server
// process for network tests, so it must not depend on state that only one of
// them has.
type Factory func(cfg *Config) (http.Handler, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]Factory{}
)

// App is a reference to a registered application and its configuration.
type App struct {
	name   string
	config *Config
}

// Register adds a factory under name and returns an App with an empty
// configuration. It panics on an empty name, a nil factory or a duplicate
// registration.
func Register(name string, factory Factory) *App {
	if name == "" {
		panic("app: empty application name")
	}
	if factory == nil {
		panic("app: nil factory for " + name)
	}

	registryMu.Lock()
	defer registryMu.Unlock()
	if _, exists := registry[name]; exists {
		panic("app: application registered twice: " + name)
	}
	registry[name] = factory

	return &App{name: name, config: NewConfig(nil)}
}

// Lookup returns the factory registered under name.
func Lookup(name string) (Factory, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	f, ok := registry[name]
	return f, ok
}

// Registered returns the sorted names of all registered applications.
func Registered() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// New returns a reference to an already registered application with its own
// configuration. A nil cfg starts empty.
func New(name string, cfg *Config) (*App, error) {
	if _, ok := Lookup(name); !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownApp, name)
	}
	if cfg == nil {
		cfg = NewConfig(nil)
	}
	return &App{name: name, config: cfg}, nil
}

// Name returns the registered application name.
func (a *App) Name() string {
	return a.name
}

// Config returns the live configuration mapping of the application.
func (a *App) Config() *Config {
	return a.config
}

// Handler builds the application in the current process from its current configuration.
func (a *App) Handler() (http.Handler, error) {
	return Build(a.name, a.config)
}

// Build looks up the factory for name and runs it with cfg.
func Build(name string, cfg *Config) (http.Handler, error) {
	factory, ok := Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownApp, name)
	}
	h, err := factory(cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrFactory, name, err)
	}
	if h == nil {
		return nil, fmt.Errorf("%w: %s returned a nil handler", ErrFactory, name)
	}
	return h, nil
}
