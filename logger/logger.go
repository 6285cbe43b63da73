// Package logger provides the leveled logger used across trialsearch
package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Level represents the log level
type Level int

const (
	// LevelDebug for detailed debugging information
	LevelDebug Level = iota
	// LevelInfo for general informational messages
	LevelInfo
	// LevelWarn for warning messages
	LevelWarn
	// LevelError for error messages
	LevelError
	// LevelSilent disables all logging
	LevelSilent
)

// String returns the string representation of the log level
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	case LevelSilent:
		return "SILENT"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel converts a string to a Level, defaulting to info.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "info":
		return LevelInfo
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	case "silent":
		return LevelSilent
	default:
		return LevelInfo
	}
}

// ValidLevel reports whether s names a level.
func ValidLevel(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug", "info", "warn", "warning", "error", "silent":
		return true
	}
	return false
}

// Config represents logger configuration
type Config struct {
	// Level is the minimum log level to output
	Level Level
	// Output specifies where to write logs: "stdout", "stderr", or a file path
	Output string
	// Format specifies log format: "text" or "json"
	Format string
	// EnableCaller adds file:line information to logs
	EnableCaller bool
	// EnableTimestamp adds timestamp to logs
	EnableTimestamp bool
	// File rotation settings (only used when Output is a file path)
	MaxSize    int  // megabytes
	MaxBackups int  // number of backups to keep
	MaxAge     int  // days
	Compress   bool // compress rotated files
}

// DefaultConfig returns the default logger configuration
func DefaultConfig() *Config {
	return &Config{
		Level:           LevelInfo,
		Output:          "stdout",
		Format:          "text",
		EnableTimestamp: true,
		MaxSize:         100,
		MaxBackups:      3,
		MaxAge:          7,
		Compress:        true,
	}
}

// Logger writes leveled entries to one output.
type Logger struct {
	mu              sync.RWMutex
	level           Level
	output          io.Writer
	json            bool
	enableCaller    bool
	enableTimestamp bool

	writeMu sync.Mutex
}

const timestampLayout = "2006-01-02T15:04:05.000000Z07:00"

var (
	globalMu     sync.RWMutex
	globalLogger = mustDefault()
)

func mustDefault() *Logger {
	l, _ := NewLogger(DefaultConfig())
	return l
}

// Init replaces the global logger with one built from cfg.
func Init(cfg *Config) error {
	l, err := NewLogger(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	SetGlobalLogger(l)
	return nil
}

// NewLogger creates a new logger with the given configuration
func NewLogger(cfg *Config) (*Logger, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	var output io.Writer
	switch cfg.Output {
	case "stdout", "":
		output = os.Stdout
	case "stderr":
		output = os.Stderr
	default:
		// 文件输出，按大小轮转
		if err := os.MkdirAll(filepath.Dir(cfg.Output), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		output = &lumberjack.Logger{
			Filename:   cfg.Output,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   cfg.Compress,
			LocalTime:  true,
		}
	}
	return New(output, cfg), nil
}

// New creates a logger writing to w. Output in cfg is ignored.
func New(w io.Writer, cfg *Config) *Logger {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Logger{
		level:           cfg.Level,
		output:          w,
		json:            cfg.Format == "json",
		enableCaller:    cfg.EnableCaller,
		enableTimestamp: cfg.EnableTimestamp,
	}
}

// SetLevel changes the log level
func (l *Logger) SetLevel(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

// GetLevel returns the current log level
func (l *Logger) GetLevel() Level {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.level
}

// IsLevelEnabled checks if a log level is enabled
func (l *Logger) IsLevelEnabled(level Level) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return level >= l.level && l.level != LevelSilent
}

// log writes one entry. skip is the number of frames between the caller of
// the public method and log itself.
func (l *Logger) log(level Level, skip int, fields map[string]interface{}, format string, v ...interface{}) {
	if !l.IsLevelEnabled(level) {
		return
	}
	msg := fmt.Sprintf(format, v...)

	var caller string
	if l.enableCaller {
		if _, file, line, ok := runtime.Caller(skip); ok {
			caller = fmt.Sprintf("%s:%d", filepath.Base(file), line)
		}
	}

	var line []byte
	if l.json {
		line = l.formatJSON(level, caller, fields, msg)
	} else {
		line = l.formatText(level, caller, fields, msg)
	}

	l.writeMu.Lock()
	defer l.writeMu.Unlock()
	_, _ = l.output.Write(line)
}

func (l *Logger) formatJSON(level Level, caller string, fields map[string]interface{}, msg string) []byte {
	entry := make(map[string]interface{}, len(fields)+4)
	for k, v := range fields {
		if err, ok := v.(error); ok {
			v = err.Error()
		}
		entry[k] = v
	}
	entry["level"] = level.String()
	entry["message"] = msg
	if l.enableTimestamp {
		entry["timestamp"] = time.Now().Format(timestampLayout)
	}
	if caller != "" {
		entry["caller"] = caller
	}
	b, err := json.Marshal(entry)
	if err != nil {
		// 字段无法序列化时退回文本格式
		return l.formatText(level, caller, fields, msg)
	}
	return append(b, '\n')
}

func (l *Logger) formatText(level Level, caller string, fields map[string]interface{}, msg string) []byte {
	var sb strings.Builder
	if l.enableTimestamp {
		sb.WriteString(time.Now().Format(timestampLayout))
		sb.WriteByte(' ')
	}
	sb.WriteString("[")
	sb.WriteString(level.String())
	sb.WriteString("] ")
	if caller != "" {
		sb.WriteString(caller)
		sb.WriteString(": ")
	}
	sb.WriteString(msg)

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&sb, " %s=%v", k, fields[k])
	}
	sb.WriteByte('\n')
	return []byte(sb.String())
}

// Debug logs a debug message
func (l *Logger) Debug(format string, v ...interface{}) {
	l.log(LevelDebug, 2, nil, format, v...)
}

// Info logs an info message
func (l *Logger) Info(format string, v ...interface{}) {
	l.log(LevelInfo, 2, nil, format, v...)
}

// Warn logs a warning message
func (l *Logger) Warn(format string, v ...interface{}) {
	l.log(LevelWarn, 2, nil, format, v...)
}

// Error logs an error message
func (l *Logger) Error(format string, v ...interface{}) {
	l.log(LevelError, 2, nil, format, v...)
}

// Printer adapts the logger to Printf-style consumers such as the
// elastic client's error log.
type Printer struct {
	logger *Logger
	level  Level
}

// Printer returns a Printf adapter logging at level.
func (l *Logger) Printer(level Level) *Printer {
	return &Printer{logger: l, level: level}
}

// Printf logs one formatted line.
func (p *Printer) Printf(format string, v ...interface{}) {
	p.logger.log(p.level, 2, nil, format, v...)
}

// Global logger functions

// GetGlobalLogger returns the global logger instance
func GetGlobalLogger() *Logger {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalLogger
}

// SetGlobalLogger replaces the global logger. nil is ignored.
func SetGlobalLogger(l *Logger) {
	if l == nil {
		return
	}
	globalMu.Lock()
	defer globalMu.Unlock()
	globalLogger = l
}

// SetLevel changes the global logger level
func SetLevel(level Level) {
	GetGlobalLogger().SetLevel(level)
}

// Debug logs a debug message using the global logger
func Debug(format string, v ...interface{}) {
	GetGlobalLogger().log(LevelDebug, 2, nil, format, v...)
}

// Info logs an info message using the global logger
func Info(format string, v ...interface{}) {
	GetGlobalLogger().log(LevelInfo, 2, nil, format, v...)
}

// Warn logs a warning message using the global logger
func Warn(format string, v ...interface{}) {
	GetGlobalLogger().log(LevelWarn, 2, nil, format, v...)
}

// Error logs an error message using the global logger
func Error(format string, v ...interface{}) {
	GetGlobalLogger().log(LevelError, 2, nil, format, v...)
}

// IsDebugEnabled checks if debug logging is enabled
func IsDebugEnabled() bool {
	return GetGlobalLogger().IsLevelEnabled(LevelDebug)
}

// WithField returns a FieldLogger with a single field
func WithField(key string, value interface{}) *FieldLogger {
	return GetGlobalLogger().WithFields(map[string]interface{}{key: value})
}

// WithFields returns a FieldLogger with multiple fields
func WithFields(fields map[string]interface{}) *FieldLogger {
	return GetGlobalLogger().WithFields(fields)
}

// WithFields returns a FieldLogger bound to l.
func (l *Logger) WithFields(fields map[string]interface{}) *FieldLogger {
	copied := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		copied[k] = v
	}
	return &FieldLogger{logger: l, fields: copied}
}

// FieldLogger provides structured logging with fields. In json format the
// fields become top-level keys of the entry.
type FieldLogger struct {
	logger *Logger
	fields map[string]interface{}
}

// WithField returns a copy with one more field.
func (fl *FieldLogger) WithField(key string, value interface{}) *FieldLogger {
	next := fl.logger.WithFields(fl.fields)
	next.fields[key] = value
	return next
}

// Debug logs a debug message with fields
func (fl *FieldLogger) Debug(format string, v ...interface{}) {
	fl.logger.log(LevelDebug, 2, fl.fields, format, v...)
}

// Info logs an info message with fields
func (fl *FieldLogger) Info(format string, v ...interface{}) {
	fl.logger.log(LevelInfo, 2, fl.fields, format, v...)
}

// Warn logs a warning message with fields
func (fl *FieldLogger) Warn(format string, v ...interface{}) {
	fl.logger.log(LevelWarn, 2, fl.fields, format, v...)
}

// Error logs an error message with fields
func (fl *FieldLogger) Error(format string, v ...interface{}) {
	fl.logger.log(LevelError, 2, fl.fields, format, v...)
}
