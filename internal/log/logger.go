// Package log is the analyzer's leveled logger. Components take a named
// Logger from New so every line carries its source; the package-level
// functions log without a component name.
package log

import (
	"fmt"
	"io"
	stdlog "log"
	"os"
	"strings"
	"sync/atomic"
)

// LogLevel defines the severity of a log message.
type LogLevel uint32

// Constants for log levels.
const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
)

// String returns the string representation of the LogLevel.
func (l LogLevel) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	case LevelFatal:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel converts a string (case-insensitive) to a LogLevel.
// Returns LevelInfo and false if the string is not recognized.
func ParseLevel(levelStr string) (LogLevel, bool) {
	switch strings.ToUpper(levelStr) {
	case "DEBUG":
		return LevelDebug, true
	case "INFO":
		return LevelInfo, true
	case "WARN", "WARNING":
		return LevelWarn, true
	case "ERROR":
		return LevelError, true
	case "FATAL":
		return LevelFatal, true
	default:
		return LevelInfo, false // Default to Info on parse error
	}
}

// currentLevel holds the global log level.
var currentLevel atomic.Uint32

// output is shared by every Logger: date, time with microseconds.
var output = stdlog.New(os.Stderr, "", stdlog.Ldate|stdlog.Ltime|stdlog.Lmicroseconds)

// std backs the package-level Fatalf.
var std = &Logger{}

func init() {
	SetLevel(LevelInfo)
}

// SetLevel sets the global logging level.
func SetLevel(level LogLevel) {
	currentLevel.Store(uint32(level))
}

// SetOutput redirects every subsequent message to w. The terminal UI uses
// it to move logging into a file (or io.Discard) while it owns the screen.
func SetOutput(w io.Writer) {
	output.SetOutput(w)
}

// Logger writes messages tagged with a component name.
type Logger struct {
	prefix string
}

// New returns a Logger whose lines start with "component: ".
func New(component string) *Logger {
	return &Logger{prefix: component + ": "}
}

// Enabled reports whether messages at level are written. Callers use it
// to skip building expensive arguments.
func (l *Logger) Enabled(level LogLevel) bool {
	return level >= LogLevel(currentLevel.Load())
}

func (l *Logger) logf(level LogLevel, format string, v []any) {
	if !l.Enabled(level) {
		return
	}
	// Pad the shorter names so messages line up.
	tag := "[" + level.String() + "]"
	if len(tag) < len("[DEBUG]") {
		tag += " "
	}
	output.Printf("%s %s%s", tag, l.prefix, fmt.Sprintf(format, v...))
}

// Debugf logs a formatted debug message if the level is appropriate.
func (l *Logger) Debugf(format string, v ...any) { l.logf(LevelDebug, format, v) }

// Infof logs a formatted info message if the level is appropriate.
func (l *Logger) Infof(format string, v ...any) { l.logf(LevelInfo, format, v) }

// Warnf logs a formatted warning message if the level is appropriate.
func (l *Logger) Warnf(format string, v ...any) { l.logf(LevelWarn, format, v) }

// Errorf logs a formatted error message if the level is appropriate.
func (l *Logger) Errorf(format string, v ...any) { l.logf(LevelError, format, v) }

// Fatalf logs a formatted fatal message and exits the application.
// Fatal messages are always logged regardless of the current level.
func (l *Logger) Fatalf(format string, v ...any) {
	output.Fatalf("[%s] %s%s", LevelFatal, l.prefix, fmt.Sprintf(format, v...))
}

// Fatalf logs a formatted fatal message and exits the application.
func Fatalf(format string, v ...any) { std.Fatalf(format, v...) }
