// Package logging 对 charmbracelet/log 做一层薄封装，供 CLI 与布局引擎共用。
package logging

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
)

// Field names shared by every log call in the module.
const (
	KeyLine     = "line"
	KeyWidth    = "width"
	KeyMaxWidth = "maxWidth"
	KeyLines    = "lines"
	KeyBytes    = "bytes"
	KeyFormat   = "format"
	KeyPath     = "path"
	KeyErr      = "err"
)

var defaultLogger = sync.OnceValue(func() *log.Logger { return New("warn") })

// New creates a logger writing to stderr at level.
// Valid levels: "debug", "info", "warn", "error"; anything else means "warn".
func New(level string) *log.Logger {
	return NewWriter(os.Stderr, level)
}

// NewWriter is New with an explicit destination.
func NewWriter(w io.Writer, level string) *log.Logger {
	logger := log.NewWithOptions(w, log.Options{
		Prefix:          "markwrap",
		ReportTimestamp: false,
	})
	logger.SetLevel(ParseLevel(level))
	return logger
}

// ParseLevel maps a level name to a log.Level.
func ParseLevel(level string) log.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return log.DebugLevel
	case "info":
		return log.InfoLevel
	case "error":
		return log.ErrorLevel
	default:
		return log.WarnLevel
	}
}

// Default returns the package-level logger. FromContext falls back to it.
func Default() *log.Logger {
	return defaultLogger()
}
