// Package scope maps configuration strings to live server lifetimes.
//
// A scope decides how many live server instances a test binary creates:
//
//	sc, err := scope.Parse("module")
//	if err != nil {
//		return err // unknown scopes are never defaulted
//	}
//
// In Go terms a session and a package are the same thing, because `go test`
// builds one binary per package. A module is a test source file and a class
// is a top-level test function together with its subtests.
package scope

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidScope is returned when a scope string is empty or unknown.
var ErrInvalidScope = errors.New("invalid live server scope")

// Scope is the lifetime granularity of a live server instance.
type Scope string

const (
	Session  Scope = "session"
	Package  Scope = "package"
	Module   Scope = "module"
	Class    Scope = "class"
	Function Scope = "function"
)

// All returns every supported scope from the widest to the narrowest.
func All() []Scope {
	return []Scope{Session, Package, Module, Class, Function}
}

// Parse resolves a configuration value into a Scope.
// Matching ignores case and surrounding whitespace.
func Parse(s string) (Scope, error) {
	v := Scope(strings.ToLower(strings.TrimSpace(s)))
	if !v.Valid() {
		names := make([]string, 0, len(All()))
		for _, sc := range All() {
			names = append(names, string(sc))
		}
		return "", fmt.Errorf("%w: %q (expected one of %s)", ErrInvalidScope, s, strings.Join(names, ", "))
	}
	return v, nil
}

// MustParse is like Parse but panics on error.
func MustParse(s string) Scope {
	sc, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return sc
}

// Valid reports whether s is one of the supported scopes.
func (s Scope) Valid() bool {
	switch s {
	case Session, Package, Module, Class, Function:
		return true
	}
	return false
}

// Shared reports whether one instance serves the whole test binary run.
func (s Scope) Shared() bool {
	return s == Session || s == Package
}

func (s Scope) String() string {
	return string(s)
}
