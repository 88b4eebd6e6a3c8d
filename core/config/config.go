package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"reflect"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

var (
	// ErrParse is returned when environment variables cannot be parsed into the target.
	ErrParse = errors.New("failed to parse configuration from environment")

	// ErrDecodeFile is returned when a configuration file exists but cannot be decoded.
	ErrDecodeFile = errors.New("failed to decode configuration file")
)

var (
	dotenvOnce sync.Once
	cache      sync.Map // reflect.Type -> any (value of T)
	loadMu     sync.Mutex
)

// Load parses environment variables into cfg. The first successful result for
// type T is cached and copied into cfg on later calls.
func Load[T any](cfg *T) error {
	key := reflect.TypeFor[T]()
	if v, ok := cache.Load(key); ok {
		*cfg = v.(T)
		return nil
	}

	loadMu.Lock()
	defer loadMu.Unlock()

	// Another goroutine may have finished loading while we waited.
	if v, ok := cache.Load(key); ok {
		*cfg = v.(T)
		return nil
	}

	loadDotenv()

	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("%w: %w", ErrParse, err)
	}
	cache.Store(key, *cfg)
	return nil
}

// MustLoad is like Load but panics on error. Useful during test binary startup.
func MustLoad[T any](cfg *T) {
	if err := Load(cfg); err != nil {
		panic(err)
	}
}

// Reset drops the cached value for type T so the next Load parses again.
func Reset[T any]() {
	cache.Delete(reflect.TypeFor[T]())
}

// LoadYAML decodes a YAML file into cfg. A missing file is reported with an
// error wrapping fs.ErrNotExist so callers can treat it as optional.
func LoadYAML(path string, cfg any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("%w %s: %w", ErrDecodeFile, path, err)
	}
	return nil
}

// LoadOptionalYAML is LoadYAML that ignores missing files.
func LoadOptionalYAML(path string, cfg any) error {
	if err := LoadYAML(path, cfg); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// loadDotenv reads .env from the working directory once. Variables already
// present in the environment win over the file.
func loadDotenv() {
	dotenvOnce.Do(func() {
		_ = godotenv.Load()
	})
}
