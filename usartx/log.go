package usartx

import (
	"io"
	"log/slog"
	"os"
	"sync"
)

// Component identifies the driver layer emitting a record.
type Component string

// Driver component identifiers.
const (
	ComponentConfig   Component = "config"
	ComponentLock     Component = "lock"
	ComponentRegistry Component = "registry"
	ComponentPort     Component = "port"
)

var (
	// DefaultLogger receives all driver records. Interrupt handlers never log.
	DefaultLogger *slog.Logger

	logLevel = new(slog.LevelVar)
	logMutex sync.RWMutex
)

func init() {
	logLevel.Set(slog.LevelWarn)
	DefaultLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))
}

// SetLogLevel sets the minimum level for driver logging.
func SetLogLevel(level slog.Level) {
	logMutex.Lock()
	defer logMutex.Unlock()
	logLevel.Set(level)
}

// GetLogLevel returns the current minimum level.
func GetLogLevel() slog.Level {
	logMutex.RLock()
	defer logMutex.RUnlock()
	return logLevel.Level()
}

// SetLogger replaces the driver logger.
func SetLogger(logger *slog.Logger) {
	logMutex.Lock()
	defer logMutex.Unlock()
	DefaultLogger = logger
}

// NewLogger returns a text logger writing to w that honours the driver level
// when opts is nil.
func NewLogger(w io.Writer, opts *slog.HandlerOptions) *slog.Logger {
	if opts == nil {
		opts = &slog.HandlerOptions{Level: logLevel}
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func logger() *slog.Logger {
	logMutex.RLock()
	defer logMutex.RUnlock()
	return DefaultLogger
}

func logDebug(c Component, msg string, args ...any) {
	logger().Debug(msg, append([]any{"component", string(c)}, args...)...)
}

func logInfo(c Component, msg string, args ...any) {
	logger().Info(msg, append([]any{"component", string(c)}, args...)...)
}

func logWarn(c Component, msg string, args ...any) {
	logger().Warn(msg, append([]any{"component", string(c)}, args...)...)
}
