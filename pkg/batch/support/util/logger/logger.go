// Package logger provides a simple leveled logging utility for the demo runner.
// It wraps the standard `log` package and filters messages based on log levels.
// All output goes to stderr so that standard output carries only program data.
package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
)

// LogLevel is a type representing the logging level.
type LogLevel int

const (
	// LevelDebug is the log level used for detailed debugging information.
	LevelDebug LogLevel = iota
	// LevelInfo is the log level used for general informational messages.
	LevelInfo
	// LevelWarn is the log level used for potential issues or warning messages.
	LevelWarn
	// LevelError is the log level used for error messages.
	LevelError
	// LevelFatal is the log level used for fatal error messages that cause application termination.
	LevelFatal
	// LevelSilent suppresses everything except Fatalf.
	LevelSilent
)

var (
	mu       sync.RWMutex
	logLevel = LevelInfo
	std      = log.New(os.Stderr, "", log.LstdFlags)
)

// SetLogLevel sets the global log level.
// Valid string values are "DEBUG", "INFO", "WARN", "ERROR", "FATAL", "SILENT" (case-insensitive).
// "TRACE" is accepted as an alias of DEBUG.
// If an invalid value is specified, INFO is used and a warning is written to stderr.
func SetLogLevel(level string) {
	parsed, ok := ParseLevel(level)
	if !ok {
		std.Printf("[WARN] Unknown log level '%s' specified. Defaulting to INFO level.", level)
	}
	mu.Lock()
	logLevel = parsed
	mu.Unlock()
}

// ParseLevel converts a level name into a LogLevel. The second result is false
// when the name is not recognized, in which case LevelInfo is returned.
func ParseLevel(level string) (LogLevel, bool) {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "TRACE", "DEBUG":
		return LevelDebug, true
	case "INFO":
		return LevelInfo, true
	case "WARN", "WARNING":
		return LevelWarn, true
	case "ERROR":
		return LevelError, true
	case "FATAL":
		return LevelFatal, true
	case "SILENT":
		return LevelSilent, true
	default:
		return LevelInfo, false
	}
}

// CurrentLevel returns the active log level.
func CurrentLevel() LogLevel {
	mu.RLock()
	defer mu.RUnlock()
	return logLevel
}

// SetOutput redirects log output. Tests use it to capture messages.
// A nil writer restores stderr.
func SetOutput(w io.Writer) {
	if w == nil {
		w = os.Stderr
	}
	std.SetOutput(w)
}

func enabled(level LogLevel) bool {
	return CurrentLevel() <= level
}

// Debugf formats and outputs a DEBUG level log message.
func Debugf(format string, v ...interface{}) {
	if enabled(LevelDebug) {
		std.Printf("[DEBUG] "+format, v...)
	}
}

// Infof formats and outputs an INFO level log message.
func Infof(format string, v ...interface{}) {
	if enabled(LevelInfo) {
		std.Printf("[INFO] "+format, v...)
	}
}

// Warnf formats and outputs a WARN level log message.
func Warnf(format string, v ...interface{}) {
	if enabled(LevelWarn) {
		std.Printf("[WARN] "+format, v...)
	}
}

// Errorf formats and outputs an ERROR level log message.
func Errorf(format string, v ...interface{}) {
	if enabled(LevelError) {
		std.Printf("[ERROR] "+format, v...)
	}
}

// Fatalf outputs a FATAL level log message regardless of the current level,
// then terminates the program by calling os.Exit(1).
func Fatalf(format string, v ...interface{}) {
	std.Output(2, fmt.Sprintf("[FATAL] "+format, v...))
	os.Exit(1)
}
