package app_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/livetest/core/app"
)

func TestConfigKeysAreCaseInsensitive(t *testing.T) {
	t.Parallel()

	cfg := app.NewConfig(map[string]any{"secret_key": "42"})

	v, ok := cfg.Get("SECRET_KEY")
	require.True(t, ok)
	assert.Equal(t, "42", v)
	assert.True(t, cfg.Has("Secret_Key"))

	cfg.Delete("secret_KEY")
	assert.False(t, cfg.Has("SECRET_KEY"))
}

func TestConfigTypedReaders(t *testing.T) {
	t.Parallel()

	cfg := app.NewConfig(map[string]any{
		"port":      5001,
		"json_port": float64(5002),
		"str_port":  "5003",
		"half":      1.5,
		"debug":     false,
		"str_debug": "true",
		"name":      "localhost",
	})

	port, ok := cfg.Int("port")
	assert.True(t, ok)
	assert.Equal(t, 5001, port)

	port, ok = cfg.Int("json_port")
	assert.True(t, ok)
	assert.Equal(t, 5002, port)

	port, ok = cfg.Int("str_port")
	assert.True(t, ok)
	assert.Equal(t, 5003, port)

	_, ok = cfg.Int("half")
	assert.False(t, ok)

	_, ok = cfg.Int("missing")
	assert.False(t, ok)

	debug, ok := cfg.Bool("debug")
	assert.True(t, ok)
	assert.False(t, debug)

	debug, ok = cfg.Bool("str_debug")
	assert.True(t, ok)
	assert.True(t, debug)

	f, ok := cfg.Float("half")
	assert.True(t, ok)
	assert.Equal(t, 1.5, f)

	assert.Equal(t, "localhost", cfg.String("name"))
	assert.Equal(t, "5001", cfg.String("port"))
	assert.Equal(t, "", cfg.String("missing"))
}

func TestConfigOverrideRestoresPriorState(t *testing.T) {
	t.Parallel()

	cfg := app.NewConfig(map[string]any{"debug": true, "server_name": "example.com"})

	restore := cfg.Override(map[string]any{"debug": false, "foo": 42})

	debug, _ := cfg.Bool("DEBUG")
	assert.False(t, debug)
	foo, _ := cfg.Int("FOO")
	assert.Equal(t, 42, foo)
	assert.Equal(t, "example.com", cfg.String("SERVER_NAME"))

	restore()

	debug, _ = cfg.Bool("DEBUG")
	assert.True(t, debug)
	assert.False(t, cfg.Has("FOO"))
	assert.Equal(t, "example.com", cfg.String("SERVER_NAME"))

	cfg.Set("debug", "changed")
	restore()
	assert.Equal(t, "changed", cfg.String("DEBUG"), "second restore must be a no-op")
}

func TestConfigOverrideWithDuplicateSpellings(t *testing.T) {
	t.Parallel()

	cfg := app.NewConfig(map[string]any{"MODE": "prod"})
	restore := cfg.Override(map[string]any{"mode": "a", "Mode": "b"})
	restore()

	assert.Equal(t, "prod", cfg.String("MODE"))
}

func TestConfigEncodeDecode(t *testing.T) {
	t.Parallel()

	cfg := app.NewConfig(map[string]any{"port": 5001, "debug": true, "name": "ping"})
	encoded, err := cfg.Encode()
	require.NoError(t, err)

	decoded, err := app.DecodeConfig(encoded)
	require.NoError(t, err)

	port, ok := decoded.Int("PORT")
	assert.True(t, ok)
	assert.Equal(t, 5001, port)
	debug, _ := decoded.Bool("DEBUG")
	assert.True(t, debug)
	assert.Equal(t, "ping", decoded.String("NAME"))

	empty, err := app.DecodeConfig("")
	require.NoError(t, err)
	assert.Empty(t, empty.Snapshot())

	_, err = app.DecodeConfig("{not json")
	assert.ErrorIs(t, err, app.ErrDecodeConfig)
}

func TestConfigSnapshotIsACopy(t *testing.T) {
	t.Parallel()

	cfg := app.NewConfig(map[string]any{"a": 1})
	snap := cfg.Snapshot()
	snap["B"] = 2

	assert.False(t, cfg.Has("B"))

	data, err := json.Marshal(cfg)
	require.NoError(t, err)
	assert.JSONEq(t, `{"A":1}`, string(data))
}
