package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/killallgit/sherpa/pkg/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is a component-scoped structured logger. Methods take a message
// followed by alternating keys and values.
type Logger struct {
	component string
	fields    []any
	bound     *zap.SugaredLogger
	base      *zap.Logger
	file      *os.File
}

// root is the process-wide logger installed by Init or SetDefault.
var root atomic.Pointer[Logger]

var nop = zap.NewNop().Sugar()

// Init initializes the logger with configuration from global config
func Init() error {
	if root.Load() != nil {
		return nil
	}

	settings := config.Get()
	l, err := New(ParseLevel(settings.Logging.Level), config.ResolvePath(settings.Logging.LogFile), settings.Logging.Preserve)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	root.Store(l)
	return nil
}

// New creates a Logger writing JSON lines to logFile. persist appends to an
// existing file instead of truncating it.
func New(level zapcore.Level, logFile string, persist bool) (*Logger, error) {
	if dir := filepath.Dir(logFile); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
	}

	flags := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	if persist {
		flags = os.O_CREATE | os.O_WRONLY | os.O_APPEND
	}

	file, err := os.OpenFile(logFile, flags, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	l := NewWithWriter(level, file)
	l.file = file
	return l, nil
}

// NewWithWriter creates a Logger writing JSON lines to w
func NewWithWriter(level zapcore.Level, w io.Writer) *Logger {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderCfg),
		zapcore.AddSync(w),
		zap.NewAtomicLevelAt(level),
	)
	base := zap.New(core)

	return &Logger{
		bound: base.Sugar(),
		base:  base,
	}
}

// SetDefault installs l as the process-wide logger and returns the previous one.
func SetDefault(l *Logger) *Logger {
	return root.Swap(l)
}

// ParseLevel converts a string level to a zap level, defaulting to info
func ParseLevel(levelStr string) zapcore.Level {
	switch strings.ToLower(levelStr) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	case "fatal":
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}

// WithComponent returns a logger tagged with component=name. The root
// logger is looked up on every call, so component loggers created before
// Init still reach the log file afterwards.
func WithComponent(name string) *Logger {
	return &Logger{component: name}
}

// With returns a child logger carrying the given key/value pairs
func (l *Logger) With(keysAndValues ...any) *Logger {
	fields := make([]any, 0, len(l.fields)+len(keysAndValues))
	fields = append(fields, l.fields...)
	fields = append(fields, keysAndValues...)
	return &Logger{
		component: l.component,
		fields:    fields,
		bound:     l.bound,
	}
}

func (l *Logger) sugar() *zap.SugaredLogger {
	s := l.bound
	if s == nil {
		if r := root.Load(); r != nil {
			s = r.bound
		} else {
			s = nop
		}
	}
	if l.component != "" {
		s = s.With("component", l.component)
	}
	if len(l.fields) > 0 {
		s = s.With(l.fields...)
	}
	return s
}

// Debug logs a debug message
func (l *Logger) Debug(msg string, keysAndValues ...any) {
	l.sugar().Debugw(msg, keysAndValues...)
}

// Info logs an info message
func (l *Logger) Info(msg string, keysAndValues ...any) {
	l.sugar().Infow(msg, keysAndValues...)
}

// Warn logs a warning message
func (l *Logger) Warn(msg string, keysAndValues ...any) {
	l.sugar().Warnw(msg, keysAndValues...)
}

// Error logs an error message
func (l *Logger) Error(msg string, keysAndValues ...any) {
	l.sugar().Errorw(msg, keysAndValues...)
}

// Close flushes and closes the log file
func (l *Logger) Close() error {
	if l.base != nil {
		_ = l.base.Sync()
	}
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}

// Debug logs a debug message using the default logger
func Debug(msg string, keysAndValues ...any) {
	WithComponent("").Debug(msg, keysAndValues...)
}

// Info logs an info message using the default logger
func Info(msg string, keysAndValues ...any) {
	WithComponent("").Info(msg, keysAndValues...)
}

// Warn logs a warning message using the default logger
func Warn(msg string, keysAndValues ...any) {
	WithComponent("").Warn(msg, keysAndValues...)
}

// Error logs an error message using the default logger
func Error(msg string, keysAndValues ...any) {
	WithComponent("").Error(msg, keysAndValues...)
}

// Close closes the default logger
func Close() error {
	if l := root.Swap(nil); l != nil {
		return l.Close()
	}
	return nil
}
