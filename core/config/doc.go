// Package config provides type-safe loading of settings from YAML files,
// .env files and environment variables using Go generics. Each configuration
// type is loaded once and cached for subsequent calls.
//
// The package loads a .env file from the working directory on first use and
// uses the caarlos0/env library for parsing environment variables into
// struct fields. Fields without a matching variable keep the value they had
// before the call, so defaults and file values can be layered underneath:
//
//	type Settings struct {
//		Host string `env:"LIVETEST_HOST" yaml:"host"`
//		Port int    `env:"LIVETEST_PORT" yaml:"port"`
//	}
//
//	s := Settings{Host: "localhost"}
//	if err := config.LoadYAML("livetest.yaml", &s); err != nil && !errors.Is(err, fs.ErrNotExist) {
//		return err
//	}
//	if err := config.Load(&s); err != nil {
//		return err
//	}
//
// # Caching Behavior
//
// Each configuration type is loaded only once per process:
//
//	var a Settings
//	config.Load(&a) // Parses the environment
//
//	var b Settings
//	config.Load(&b) // Returns the cached value, a == b
package config
