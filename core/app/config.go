package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"math"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Well-known configuration keys.
const (
	// KeyServerName holds the host[:port] the application considers its own.
	KeyServerName = "SERVER_NAME"

	// KeyLiveServerPort lets the application pin the live server port.
	KeyLiveServerPort = "LIVESERVER_PORT"
)

// DefaultServerName is used when the application has no SERVER_NAME.
const DefaultServerName = "localhost.localdomain"

// ErrDecodeConfig is returned when a serialized configuration cannot be decoded.
var ErrDecodeConfig = errors.New("failed to decode application config")

var upper = cases.Upper(language.Und)

// NormalizeKey returns the canonical, upper-cased form of a configuration key.
func NormalizeKey(key string) string {
	return upper.String(strings.TrimSpace(key))
}

// Config is a concurrency-safe configuration mapping.
type Config struct {
	mu     sync.RWMutex
	values map[string]any
}

// NewConfig creates a Config populated with a copy of values.
func NewConfig(values map[string]any) *Config {
	c := &Config{values: make(map[string]any, len(values))}
	for k, v := range values {
		c.values[NormalizeKey(k)] = v
	}
	return c
}

// Get returns the value stored under key.
func (c *Config) Get(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.values[NormalizeKey(key)]
	return v, ok
}

// Has reports whether key is set.
func (c *Config) Has(key string) bool {
	_, ok := c.Get(key)
	return ok
}

// Set stores value under key.
func (c *Config) Set(key string, value any) {
	c.mu.Lock()
	c.values[NormalizeKey(key)] = value
	c.mu.Unlock()
}

// Delete removes key.
func (c *Config) Delete(key string) {
	c.mu.Lock()
	delete(c.values, NormalizeKey(key))
	c.mu.Unlock()
}

// String returns the value under key formatted as a string, or "" when unset.
func (c *Config) String(key string) string {
	v, ok := c.Get(key)
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// Int returns the value under key as an int. Values that went through JSON
// arrive as float64 and are converted when they hold a whole number.
func (c *Config) Int(key string) (int, bool) {
	v, ok := c.Get(key)
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case int32:
		return int(n), true
	case float64:
		if n == math.Trunc(n) {
			return int(n), true
		}
	case json.Number:
		i, err := n.Int64()
		return int(i), err == nil
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		return i, err == nil
	}
	return 0, false
}

// Bool returns the value under key as a bool. Strings are parsed with strconv.ParseBool.
func (c *Config) Bool(key string) (bool, bool) {
	v, ok := c.Get(key)
	if !ok {
		return false, false
	}
	switch b := v.(type) {
	case bool:
		return b, true
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(b))
		return parsed, err == nil
	}
	return false, false
}

// Float returns the value under key as a float64.
func (c *Config) Float(key string) (float64, bool) {
	v, ok := c.Get(key)
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	}
	return 0, false
}

// Snapshot returns a shallow copy of all values.
func (c *Config) Snapshot() map[string]any {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return maps.Clone(c.values)
}

// Override applies values and returns a function restoring exactly the
// overridden keys to their previous state. Keys that did not exist before are
// removed again. The restore function is safe to call more than once.
func (c *Config) Override(values map[string]any) (restore func()) {
	type prior struct {
		value  any
		exists bool
	}

	c.mu.Lock()
	saved := make(map[string]prior, len(values))
	for k, v := range values {
		key := NormalizeKey(k)
		if _, seen := saved[key]; !seen {
			old, exists := c.values[key]
			saved[key] = prior{value: old, exists: exists}
		}
		c.values[key] = v
	}
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			for key, p := range saved {
				if p.exists {
					c.values[key] = p.value
				} else {
					delete(c.values, key)
				}
			}
		})
	}
}

// MarshalJSON encodes the current values as a JSON object.
func (c *Config) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.Snapshot())
}

// Encode serializes the configuration for another process.
func (c *Config) Encode() (string, error) {
	data, err := c.MarshalJSON()
	if err != nil {
		return "", fmt.Errorf("failed to encode application config: %w", err)
	}
	return string(data), nil
}

// DecodeConfig rebuilds a Config from Encode output. An empty string yields
// an empty configuration.
func DecodeConfig(s string) (*Config, error) {
	if strings.TrimSpace(s) == "" {
		return NewConfig(nil), nil
	}
	var values map[string]any
	if err := json.Unmarshal([]byte(s), &values); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecodeConfig, err)
	}
	return NewConfig(values), nil
}
