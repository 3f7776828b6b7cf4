package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Level represents a log severity level
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel converts a config value such as "debug" into a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "", "info":
		return LevelInfo, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

func (l Level) slogLevel() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Field represents a key-value pair for structured logging
type Field struct {
	Key   string
	Value any
}

// String creates a string field
func String(key, value string) Field {
	return Field{Key: key, Value: value}
}

// Int creates an integer field
func Int(key string, value int) Field {
	return Field{Key: key, Value: value}
}

// Int64 creates an int64 field
func Int64(key string, value int64) Field {
	return Field{Key: key, Value: value}
}

// Duration creates a duration field
func Duration(key string, value time.Duration) Field {
	return Field{Key: key, Value: value}
}

// Logger handles structured logging
type Logger interface {
	Info(msg string, fields ...Field)
	Error(msg string, err error, fields ...Field)
	Debug(msg string, fields ...Field)
	Close() error
}

// Config configures the logger
type Config struct {
	// LogDir is the directory holding the log file (default: <user cache>/stitch-sync/logs)
	LogDir string
	// FileName is the active log file name (default: stitch-sync.log)
	FileName string
	// MaxSizeMB is the size at which the file is rotated (default: 10)
	MaxSizeMB int
	// MaxBackups is the number of rotated files kept (default: 5)
	MaxBackups int
	// MaxAgeDays is the number of days rotated files are kept (default: 30)
	MaxAgeDays int
	// Component is attached to every record as component=<name>
	Component string
	// MinLevel is the minimum log level to write
	MinLevel Level
	// Writer replaces the rotated file when set. The logger does not close it.
	Writer io.Writer
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() Config {
	return Config{
		LogDir:     defaultLogDir(),
		FileName:   "stitch-sync.log",
		MaxSizeMB:  10,
		MaxBackups: 5,
		MaxAgeDays: 30,
		MinLevel:   LevelInfo,
	}
}

func defaultLogDir() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, "stitch-sync", "logs")
	}
	return filepath.Join(os.TempDir(), "stitch-sync", "logs")
}

// FileLogger implements Logger on slog with a size-rotated file
type FileLogger struct {
	logger *slog.Logger
	closer io.Closer
	path   string
}

// New creates a new FileLogger with the given configuration
func New(config Config) (*FileLogger, error) {
	defaults := DefaultConfig()
	if config.FileName == "" {
		config.FileName = defaults.FileName
	}
	if config.MaxSizeMB <= 0 {
		config.MaxSizeMB = defaults.MaxSizeMB
	}
	if config.MaxBackups <= 0 {
		config.MaxBackups = defaults.MaxBackups
	}
	if config.MaxAgeDays <= 0 {
		config.MaxAgeDays = defaults.MaxAgeDays
	}

	w := config.Writer
	var closer io.Closer
	var path string
	if w == nil {
		if config.LogDir == "" {
			config.LogDir = defaults.LogDir
		}
		if err := os.MkdirAll(config.LogDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		path = filepath.Join(config.LogDir, config.FileName)
		file := &lumberjack.Logger{
			Filename:   path,
			MaxSize:    config.MaxSizeMB,
			MaxBackups: config.MaxBackups,
			MaxAge:     config.MaxAgeDays,
		}
		w, closer = file, file
	}

	handler := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: config.MinLevel.slogLevel(),
	})
	logger := slog.New(handler)
	if config.Component != "" {
		logger = logger.With("component", config.Component)
	}

	return &FileLogger{logger: logger, closer: closer, path: path}, nil
}

// Info logs an informational message
func (l *FileLogger) Info(msg string, fields ...Field) {
	l.log(slog.LevelInfo, msg, nil, fields)
}

// Error logs an error message
func (l *FileLogger) Error(msg string, err error, fields ...Field) {
	l.log(slog.LevelError, msg, err, fields)
}

// Debug logs a debug message
func (l *FileLogger) Debug(msg string, fields ...Field) {
	l.log(slog.LevelDebug, msg, nil, fields)
}

// Close closes the underlying file. Loggers returned by WithComponent share
// the file and do not close it.
func (l *FileLogger) Close() error {
	if l.closer != nil {
		return l.closer.Close()
	}
	return nil
}

// WithComponent returns a new logger with the specified component name
func (l *FileLogger) WithComponent(component string) *FileLogger {
	return &FileLogger{logger: l.logger.With("component", component), path: l.path}
}

// LogPath returns the active log file, or "" when logging to a custom writer.
func (l *FileLogger) LogPath() string {
	return l.path
}

func (l *FileLogger) log(level slog.Level, msg string, err error, fields []Field) {
	ctx := context.Background()
	if !l.logger.Enabled(ctx, level) {
		return
	}

	attrs := make([]slog.Attr, 0, len(fields)+1)
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	for _, f := range fields {
		attrs = append(attrs, slog.Any(f.Key, f.Value))
	}
	l.logger.LogAttrs(ctx, level, msg, attrs...)
}

type nopLogger struct{}

func (nopLogger) Info(string, ...Field)         {}
func (nopLogger) Error(string, error, ...Field) {}
func (nopLogger) Debug(string, ...Field)        {}
func (nopLogger) Close() error                  { return nil }

// Nop returns a Logger that discards everything.
func Nop() Logger {
	return nopLogger{}
}
