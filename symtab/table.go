// Package symtab holds the character tables used when writing LaTeX:
// the (environment, codepoint) command table and the reverse table of
// pre-styled letters from the Mathematical Alphanumeric Symbols block.
//
// Tables are built once and never mutated, so a *Table may be shared by
// any number of goroutines.
package symtab

import (
	"fmt"
	"sort"
)

// BaseEnv is the environment that is always consulted first.
const BaseEnv = "base"

// Category is the symbol class a table command belongs to.
type Category string

const (
	Ord       Category = "Ord"
	Op        Category = "Op"
	Bin       Category = "Bin"
	Rel       Category = "Rel"
	Open      Category = "Open"
	Close     Category = "Close"
	Pun       Category = "Pun"
	Accent    Category = "Accent"
	Fence     Category = "Fence"
	TOver     Category = "TOver"
	TUnder    Category = "TUnder"
	Alpha     Category = "Alpha"
	BotAccent Category = "BotAccent"
	Rad       Category = "Rad"
)

var categories = map[string]Category{
	"Ord": Ord, "Op": Op, "Bin": Bin, "Rel": Rel, "Open": Open,
	"Close": Close, "Pun": Pun, "Accent": Accent, "Fence": Fence,
	"TOver": TOver, "TUnder": TUnder, "Alpha": Alpha,
	"BotAccent": BotAccent, "Rad": Rad,
}

// ParseCategory maps a category name to its Category.
func ParseCategory(s string) (Category, bool) {
	c, ok := categories[s]
	return c, ok
}

// NeedsArgument reports whether a command of this category takes a
// mandatory argument, so that a standalone use must be followed by {}.
func (c Category) NeedsArgument() bool {
	switch c {
	case Accent, Rad, TOver, TUnder:
		return true
	}
	return false
}

// Entry is one command-table row.
type Entry struct {
	Env      string
	Rune     rune
	Category Category
	Command  string
}

// StyledLetter is a reverse-table row: a styled codepoint and the plain
// letter it decorates.
type StyledLetter struct {
	Style  string // TextBold, TextFraktur, ...
	Letter rune
	Macro  string // e.g. \mathfrak{Z}
}

// Table is an immutable symbol table.
type Table struct {
	envs   map[string]map[rune]Entry
	styled map[rune]StyledLetter
}

func newTable() *Table {
	return &Table{
		envs:   make(map[string]map[rune]Entry),
		styled: make(map[rune]StyledLetter),
	}
}

// add inserts e unless the (env, rune) key already exists.
func (t *Table) add(e Entry) {
	m := t.envs[e.Env]
	if m == nil {
		m = make(map[rune]Entry)
		t.envs[e.Env] = m
	}
	if _, dup := m[e.Rune]; dup {
		return
	}
	m[e.Rune] = e
}

func (t *Table) addStyled(cp rune, s StyledLetter) {
	t.styled[cp] = s
}

// Lookup finds the command for r. The base environment is searched first,
// then each of envs in the order given; the first hit wins. Callers pass
// sorted names, as mathtex.Env.Names returns them.
func (t *Table) Lookup(r rune, envs []string) (Entry, bool) {
	if e, ok := t.envs[BaseEnv][r]; ok {
		return e, true
	}
	for _, name := range envs {
		if name == BaseEnv {
			continue
		}
		if e, ok := t.envs[name][r]; ok {
			return e, true
		}
	}
	return Entry{}, false
}

// Styled returns the reverse-table row for a styled codepoint.
func (t *Table) Styled(r rune) (StyledLetter, bool) {
	s, ok := t.styled[r]
	return s, ok
}

// Envs returns the environment names present in the table, sorted.
func (t *Table) Envs() []string {
	names := make([]string, 0, len(t.envs))
	for name := range t.envs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of command rows and styled rows.
func (t *Table) Len() (commands, styled int) {
	for _, m := range t.envs {
		commands += len(m)
	}
	return commands, len(t.styled)
}

// Find returns every command row for r across all environments, ordered by
// environment name with base first. Used for diagnostics.
func (t *Table) Find(r rune) []Entry {
	var out []Entry
	if e, ok := t.envs[BaseEnv][r]; ok {
		out = append(out, e)
	}
	for _, name := range t.Envs() {
		if name == BaseEnv {
			continue
		}
		if e, ok := t.envs[name][r]; ok {
			out = append(out, e)
		}
	}
	return out
}

// String returns a short summary of the table.
func (t *Table) String() string {
	c, s := t.Len()
	return fmt.Sprintf("symtab{envs=%d commands=%d styled=%d}", len(t.envs), c, s)
}
