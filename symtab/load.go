package symtab

import (
	"embed"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"unicode/utf8"
)

// File names inside a table directory.
const (
	CommandFile = "tex_cmd_table.csv"
	StyledFile  = "text_unicode_table.csv"
)

//go:embed data/*.csv
var embedded embed.FS

var (
	defaultOnce  sync.Once
	defaultTable *Table
	defaultErr   error
)

// Default returns the table built from the embedded data. It is parsed on
// first use and shared afterwards.
func Default() *Table {
	defaultOnce.Do(func() {
		cmd, err := embedded.Open("data/" + CommandFile)
		if err != nil {
			defaultErr = err
			return
		}
		defer cmd.Close()
		styled, err := embedded.Open("data/" + StyledFile)
		if err != nil {
			defaultErr = err
			return
		}
		defer styled.Close()
		defaultTable, defaultErr = Load(cmd, styled)
	})
	if defaultErr != nil {
		panic("symtab: embedded tables are corrupt: " + defaultErr.Error())
	}
	return defaultTable
}

// LoadDir loads both tables from dir.
func LoadDir(dir string) (*Table, error) {
	cmd, err := os.Open(filepath.Join(dir, CommandFile))
	if err != nil {
		return nil, fmt.Errorf("symtab: %w", err)
	}
	defer cmd.Close()
	styled, err := os.Open(filepath.Join(dir, StyledFile))
	if err != nil {
		return nil, fmt.Errorf("symtab: %w", err)
	}
	defer styled.Close()
	return Load(cmd, styled)
}

// Load parses the command table (env,codepoint,category,command) and the
// styled-letter table (style,letter,codepoint). Both start with a header
// row. For duplicate command keys the first row wins.
func Load(cmdTable, styledTable io.Reader) (*Table, error) {
	t := newTable()
	if err := readRows(cmdTable, CommandFile, 4, func(line int, rec []string) error {
		r, err := ParseCodepoint(rec[1])
		if err != nil {
			return err
		}
		cat, ok := ParseCategory(rec[2])
		if !ok {
			return fmt.Errorf("unknown category %q", rec[2])
		}
		env := strings.TrimSpace(rec[0])
		if env == "" {
			return errors.New("empty env")
		}
		t.add(Entry{Env: env, Rune: r, Category: cat, Command: rec[3]})
		return nil
	}); err != nil {
		return nil, err
	}
	if err := readRows(styledTable, StyledFile, 3, func(line int, rec []string) error {
		style := rec[0]
		cmd := StyleCommand(style)
		if cmd == "" {
			return fmt.Errorf("unknown style %q", style)
		}
		letter, err := ParseCodepoint(rec[1])
		if err != nil {
			return err
		}
		cp, err := ParseCodepoint(rec[2])
		if err != nil {
			return err
		}
		t.addStyled(cp, StyledLetter{
			Style:  style,
			Letter: letter,
			Macro:  cmd + "{" + string(letter) + "}",
		})
		return nil
	}); err != nil {
		return nil, err
	}
	return t, nil
}

func readRows(r io.Reader, name string, fields int, fn func(line int, rec []string) error) error {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = fields
	cr.ReuseRecord = true
	header := true
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("symtab: %s: %w", name, err)
		}
		if header {
			header = false
			continue
		}
		line, _ := cr.FieldPos(0)
		if err := fn(line, rec); err != nil {
			return fmt.Errorf("symtab: %s:%d: %w", name, line, err)
		}
	}
}

// ParseCodepoint accepts a single literal character or a decimal escape
// such as \8722.
func ParseCodepoint(s string) (rune, error) {
	if strings.HasPrefix(s, `\`) && len(s) > 1 {
		n, err := strconv.ParseUint(s[1:], 10, 32)
		if err != nil {
			return 0, fmt.Errorf("bad codepoint %q", s)
		}
		if n > utf8.MaxRune {
			return 0, fmt.Errorf("codepoint %q out of range", s)
		}
		return rune(n), nil
	}
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 || size != len(s) || r == utf8.RuneError {
		return 0, fmt.Errorf("bad codepoint %q", s)
	}
	return r, nil
}
