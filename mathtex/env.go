package mathtex

import (
	"sort"
	"strings"
)

// Env is the set of enabled LaTeX packages or feature flags, such as
// amsmath or amssymb. A nil Env has nothing enabled.
type Env map[string]bool

// NewEnv returns an Env with the given flags enabled.
func NewEnv(flags ...string) Env {
	env := make(Env, len(flags))
	for _, f := range flags {
		if f = strings.TrimSpace(f); f != "" {
			env[f] = true
		}
	}
	return env
}

// ParseEnv parses a comma-separated flag list.
func ParseEnv(s string) Env {
	return NewEnv(strings.Split(s, ",")...)
}

// DefaultEnv is the flag set used by the conversion service.
func DefaultEnv() Env {
	return NewEnv("amsmath", "amssymb", "mathbb")
}

// Has reports whether flag is enabled.
func (e Env) Has(flag string) bool {
	return e[flag]
}

// Names returns the enabled flags in sorted order.
func (e Env) Names() []string {
	names := make([]string, 0, len(e))
	for name, on := range e {
		if on {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// String returns the enabled flags comma-separated.
func (e Env) String() string {
	return strings.Join(e.Names(), ",")
}
