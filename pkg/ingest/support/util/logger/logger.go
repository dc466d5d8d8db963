// Package logger provides the leveled logger used across surfin-flow.
// It wraps the standard `log` package, prefixes every line with its level
// and drops messages below the configured threshold.
package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync/atomic"
)

// LogLevel is a type representing the logging level.
type LogLevel int32

const (
	// LevelDebug emits compile-path details (pipelines, edges, lookups).
	LevelDebug LogLevel = iota
	// LevelInfo emits one line per generated workflow and per loaded input.
	LevelInfo
	// LevelWarn emits recoverable conditions such as sub-workflow lookup misses.
	LevelWarn
	// LevelError emits failures that abort a compile unit.
	LevelError
	// LevelFatal is used by Fatalf, which terminates the process.
	LevelFatal
)

var levelNames = map[LogLevel]string{
	LevelDebug: "DEBUG",
	LevelInfo:  "INFO",
	LevelWarn:  "WARN",
	LevelError: "ERROR",
	LevelFatal: "FATAL",
}

// String returns the upper-case name of the level.
func (l LogLevel) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return fmt.Sprintf("LEVEL(%d)", int32(l))
}

var (
	logLevel atomic.Int32
	std      = log.New(os.Stderr, "", log.LstdFlags)
)

func init() {
	logLevel.Store(int32(LevelInfo))
}

// ParseLevel converts "DEBUG", "INFO", "WARN", "ERROR" or "FATAL"
// (case-insensitive) to a LogLevel. The second return value is false when
// the name is not recognized.
func ParseLevel(level string) (LogLevel, bool) {
	for l, name := range levelNames {
		if strings.EqualFold(strings.TrimSpace(level), name) {
			return l, true
		}
	}
	return LevelInfo, false
}

// SetLogLevel sets the global threshold. An unknown name falls back to INFO
// and prints a notice.
func SetLogLevel(level string) {
	l, ok := ParseLevel(level)
	if !ok {
		fmt.Fprintf(os.Stderr, "Unknown log level '%s' specified. Defaulting to INFO level.\n", level)
	}
	logLevel.Store(int32(l))
}

// Level returns the current threshold.
func Level() LogLevel {
	return LogLevel(logLevel.Load())
}

// SetOutput redirects log output, mainly for tests.
func SetOutput(w io.Writer) {
	std.SetOutput(w)
}

func logf(l LogLevel, format string, v ...interface{}) {
	if Level() <= l {
		std.Printf("["+l.String()+"] "+format, v...)
	}
}

// Debugf formats and outputs a DEBUG level message.
func Debugf(format string, v ...interface{}) { logf(LevelDebug, format, v...) }

// Infof formats and outputs an INFO level message.
func Infof(format string, v ...interface{}) { logf(LevelInfo, format, v...) }

// Warnf formats and outputs a WARN level message.
func Warnf(format string, v ...interface{}) { logf(LevelWarn, format, v...) }

// Errorf formats and outputs an ERROR level message.
func Errorf(format string, v ...interface{}) { logf(LevelError, format, v...) }

// Fatalf outputs a FATAL message and terminates the program with os.Exit(1).
func Fatalf(format string, v ...interface{}) {
	std.Fatalf("[FATAL] "+format, v...)
}
