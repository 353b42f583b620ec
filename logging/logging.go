// Package logging provides the timestamped line logger shared by the
// server and the command line tools.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// FileName is the log file created under the log directory.
const FileName = "mathtex.log"

// Printer is the logging surface other packages depend on.
type Printer interface {
	Printf(format string, args ...any)
}

// Logger appends timestamped lines to a file or writer.
type Logger struct {
	mu     sync.Mutex
	w      io.Writer
	closer io.Closer
	prefix string
}

// New creates (or reuses) dir/mathtex.log.
func New(dir string) (*Logger, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("logging: ensure log dir: %w", err)
	}
	path := filepath.Join(dir, FileName)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("logging: open log file: %w", err)
	}
	return &Logger{w: f, closer: f}, nil
}

// NewWriter logs to w. Close does not close w.
func NewWriter(w io.Writer) *Logger {
	return &Logger{w: w}
}

// With returns a logger sharing the same output whose lines start with
// prefix.
func (l *Logger) With(prefix string) *Logger {
	if l == nil {
		return nil
	}
	return &Logger{w: lockedWriter{l}, prefix: l.prefix + prefix + ": "}
}

// Close releases the file handle.
func (l *Logger) Close() error {
	if l == nil || l.closer == nil {
		return nil
	}
	return l.closer.Close()
}

// Printf writes a single timestamped line.
func (l *Logger) Printf(format string, args ...any) {
	if l == nil || l.w == nil {
		return
	}
	line := fmt.Sprintf(format, args...)
	line = strings.TrimRight(line, "\n")
	timestamp := time.Now().Format(time.RFC3339)

	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.w, "[%s] %s%s\n", timestamp, l.prefix, line)
}

// lockedWriter routes a derived logger through its parent's mutex.
type lockedWriter struct{ parent *Logger }

func (lw lockedWriter) Write(p []byte) (int, error) {
	lw.parent.mu.Lock()
	defer lw.parent.mu.Unlock()
	return lw.parent.w.Write(p)
}

// Discard drops everything.
var Discard Printer = discard{}

type discard struct{}

func (discard) Printf(string, ...any) {}
