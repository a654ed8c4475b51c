// Package logging provides the leveled, optionally colored console logger
// used by the service, with an optional append-only file sink.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/shadercreator/backend/internal/config"
)

// Level orders log severities.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// ParseLevel maps a config string to a Level. Unknown strings are info.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// Interface is what packages log through.
type Interface interface {
	Debug(format string, args ...interface{})
	Info(format string, args ...interface{})
	Success(format string, args ...interface{})
	Warn(format string, args ...interface{})
	Error(format string, args ...interface{})
}

// palette holds ANSI colors (empty when disabled)
type palette struct {
	red, green, yellow, blue, cyan, reset string
}

var colored = palette{
	red:    "\033[1;91m",
	green:  "\033[1;92m",
	yellow: "\033[1;93m",
	blue:   "\033[1;94m",
	cyan:   "\033[1;96m",
	reset:  "\033[0m",
}

// Logger provides leveled, optionally colored logging with optional file sink.
type Logger struct {
	mu     sync.Mutex
	level  Level
	colors palette
	out    io.Writer
	errOut io.Writer
	file   *os.File
}

var _ Interface = (*Logger)(nil)

// New creates a logger writing to out, with errors going to errOut.
func New(out, errOut io.Writer, level Level, color bool) *Logger {
	l := &Logger{level: level, out: out, errOut: errOut}
	if color {
		l.colors = colored
	}
	return l
}

// NewLogger builds the service logger from the Advanced config section.
// Call Close() when done if LogFile was set.
func NewLogger(cfg *config.AppConfig) (*Logger, error) {
	l := New(os.Stdout, os.Stderr, ParseLevel(cfg.Advanced.LogLevel), colorEnabled(cfg.Advanced.ColorMode, os.Stdout))

	if cfg.Advanced.LogFile != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Advanced.LogFile), 0755); err != nil {
			return nil, err
		}
		f, err := os.OpenFile(cfg.Advanced.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return nil, err
		}
		l.file = f
	}
	return l, nil
}

func colorEnabled(mode string, f *os.File) bool {
	switch mode {
	case config.ColorAlways:
		return true
	case config.ColorNever:
		return false
	default:
		return isTerminal(f) && os.Getenv("NO_COLOR") == "" && strings.ToLower(os.Getenv("TERM")) != "dumb"
	}
}

func isTerminal(f *os.File) bool {
	if f == nil {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Close closes the log file if one was opened.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file != nil {
		err := l.file.Close()
		l.file = nil
		return err
	}
	return nil
}

// SetLevel changes the minimum level.
func (l *Logger) SetLevel(level Level) {
	l.mu.Lock()
	l.level = level
	l.mu.Unlock()
}

func (l *Logger) line(level Level, name, color, text string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if level < l.level {
		return
	}
	ts := time.Now().Format("2006-01-02 15:04:05")
	plain := ts + " [" + name + "] " + text + "\n"
	out := l.out
	if level == LevelError {
		out = l.errOut
	}
	if color != "" {
		_, _ = io.WriteString(out, ts+" "+color+"["+name+"]"+l.colors.reset+" "+text+"\n")
	} else {
		_, _ = io.WriteString(out, plain)
	}
	if l.file != nil {
		_, _ = io.WriteString(l.file, plain)
	}
}

// Debug logs at DEBUG level (cyan).
func (l *Logger) Debug(format string, args ...interface{}) {
	l.line(LevelDebug, "DEBUG", l.colors.cyan, fmt.Sprintf(format, args...))
}

// Info logs at INFO level (blue).
func (l *Logger) Info(format string, args ...interface{}) {
	l.line(LevelInfo, "INFO", l.colors.blue, fmt.Sprintf(format, args...))
}

// Success logs at INFO level under a SUCCESS tag (green).
func (l *Logger) Success(format string, args ...interface{}) {
	l.line(LevelInfo, "SUCCESS", l.colors.green, fmt.Sprintf(format, args...))
}

// Warn logs at WARN level (yellow).
func (l *Logger) Warn(format string, args ...interface{}) {
	l.line(LevelWarn, "WARN", l.colors.yellow, fmt.Sprintf(format, args...))
}

// Error logs at ERROR level (red), to the error stream.
func (l *Logger) Error(format string, args ...interface{}) {
	l.line(LevelError, "ERROR", l.colors.red, fmt.Sprintf(format, args...))
}

type discard struct{}

func (discard) Debug(string, ...interface{})   {}
func (discard) Info(string, ...interface{})    {}
func (discard) Success(string, ...interface{}) {}
func (discard) Warn(string, ...interface{})    {}
func (discard) Error(string, ...interface{})   {}

// Discard returns a logger that drops everything.
func Discard() Interface {
	return discard{}
}
