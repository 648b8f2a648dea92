// Package logger provides structured JSON logging for the parish responder.
package logger

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
)

type Level int

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
	FATAL
)

func (l Level) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	case FATAL:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel converts a level name to a Level, defaulting to INFO.
func ParseLevel(s string) Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return DEBUG
	case "INFO":
		return INFO
	case "WARN", "WARNING":
		return WARN
	case "ERROR":
		return ERROR
	case "FATAL":
		return FATAL
	default:
		return INFO
	}
}

type contextKey string

const (
	ContextKeyRequestID contextKey = "request_id"
	ContextKeyThreadID  contextKey = "thread_id"
)

// LogEntry is the wire format of a single log line.
type LogEntry struct {
	Timestamp  string                 `json:"timestamp"`
	Level      string                 `json:"level"`
	Message    string                 `json:"message"`
	RequestID  string                 `json:"request_id,omitempty"`
	ThreadID   string                 `json:"thread_id,omitempty"`
	Service    string                 `json:"service,omitempty"`
	File       string                 `json:"file,omitempty"`
	Line       int                    `json:"line,omitempty"`
	DurationMS int64                  `json:"duration_ms,omitempty"`
	Error      string                 `json:"error,omitempty"`
	Fields     map[string]interface{} `json:"fields,omitempty"`
}

type Logger struct {
	mu      sync.Mutex
	level   Level
	output  io.Writer
	service string
	fields  map[string]interface{}
}

var (
	defaultLogger *Logger
	once          sync.Once
)

// Init configures the process-wide logger. Safe to call more than once;
// only the first call wins.
func Init(level Level, service string) {
	once.Do(func() {
		defaultLogger = &Logger{
			level:   level,
			output:  os.Stdout,
			service: service,
			fields:  make(map[string]interface{}),
		}
	})
}

// Default returns the process-wide logger, initializing it lazily.
func Default() *Logger {
	if defaultLogger == nil {
		Init(INFO, "parish-responder")
	}
	return defaultLogger
}

// New creates an independent logger instance.
func New(level Level, service string, output io.Writer) *Logger {
	if output == nil {
		output = os.Stdout
	}
	return &Logger{
		level:   level,
		output:  output,
		service: service,
		fields:  make(map[string]interface{}),
	}
}

func (l *Logger) clone() *Logger {
	fields := make(map[string]interface{}, len(l.fields))
	for k, v := range l.fields {
		fields[k] = v
	}
	return &Logger{
		level:   l.level,
		output:  l.output,
		service: l.service,
		fields:  fields,
	}
}

// WithField returns a copy of the logger with an extra field attached.
func (l *Logger) WithField(key string, value interface{}) *Logger {
	c := l.clone()
	c.fields[key] = value
	return c
}

// WithFields returns a copy of the logger with extra fields attached.
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	c := l.clone()
	for k, v := range fields {
		c.fields[k] = v
	}
	return c
}

// WithContext pulls request and thread identifiers from the context.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	c := l.clone()
	if requestID, ok := ctx.Value(ContextKeyRequestID).(string); ok && requestID != "" {
		c.fields["request_id"] = requestID
	}
	if threadID, ok := ctx.Value(ContextKeyThreadID).(string); ok && threadID != "" {
		c.fields["thread_id"] = threadID
	}
	return c
}

// WithError attaches an error to the logger.
func (l *Logger) WithError(err error) *Logger {
	c := l.clone()
	if err != nil {
		c.fields["error"] = err.Error()
	}
	return c
}

// WithDuration attaches an operation duration in milliseconds.
func (l *Logger) WithDuration(d time.Duration) *Logger {
	c := l.clone()
	c.fields["duration_ms"] = d.Milliseconds()
	return c
}

func (l *Logger) log(level Level, msg string) {
	if level < l.level {
		return
	}

	entry := LogEntry{
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Level:     level.String(),
		Message:   msg,
		Service:   l.service,
	}

	fields := make(map[string]interface{})
	for k, v := range l.fields {
		switch k {
		case "request_id":
			if s, ok := v.(string); ok {
				entry.RequestID = s
				continue
			}
		case "thread_id":
			if s, ok := v.(string); ok {
				entry.ThreadID = s
				continue
			}
		case "error":
			if s, ok := v.(string); ok {
				entry.Error = s
				continue
			}
		case "duration_ms":
			if n, ok := v.(int64); ok {
				entry.DurationMS = n
				continue
			}
		}
		fields[k] = v
	}
	if len(fields) > 0 {
		entry.Fields = fields
	}

	if level >= ERROR {
		if _, file, line, ok := runtime.Caller(3); ok {
			parts := strings.Split(file, "/")
			if len(parts) > 2 {
				file = strings.Join(parts[len(parts)-2:], "/")
			}
			entry.File = file
			entry.Line = line
		}
	}

	data, err := json.Marshal(entry)
	if err != nil {
		data = []byte(fmt.Sprintf(`{"level":"ERROR","message":"failed to marshal log entry: %v"}`, err))
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.output.Write(append(data, '\n'))

	if level == FATAL {
		os.Exit(1)
	}
}

func (l *Logger) Debug(msg string) { l.log(DEBUG, msg) }
func (l *Logger) Info(msg string)  { l.log(INFO, msg) }
func (l *Logger) Warn(msg string)  { l.log(WARN, msg) }
func (l *Logger) Error(msg string) { l.log(ERROR, msg) }
func (l *Logger) Fatal(msg string) { l.log(FATAL, msg) }

func (l *Logger) Debugf(format string, args ...interface{}) {
	l.log(DEBUG, fmt.Sprintf(format, args...))
}
func (l *Logger) Infof(format string, args ...interface{}) { l.log(INFO, fmt.Sprintf(format, args...)) }
func (l *Logger) Warnf(format string, args ...interface{}) { l.log(WARN, fmt.Sprintf(format, args...)) }
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.log(ERROR, fmt.Sprintf(format, args...))
}
func (l *Logger) Fatalf(format string, args ...interface{}) {
	l.log(FATAL, fmt.Sprintf(format, args...))
}

// Package-level helpers on the default logger.

func Debug(msg string) { Default().Debug(msg) }
func Info(msg string)  { Default().Info(msg) }
func Warn(msg string)  { Default().Warn(msg) }
func Error(msg string) { Default().Error(msg) }
func Fatal(msg string) { Default().Fatal(msg) }

func Debugf(format string, args ...interface{}) { Default().Debugf(format, args...) }
func Infof(format string, args ...interface{})  { Default().Infof(format, args...) }
func Warnf(format string, args ...interface{})  { Default().Warnf(format, args...) }
func Errorf(format string, args ...interface{}) { Default().Errorf(format, args...) }
func Fatalf(format string, args ...interface{}) { Default().Fatalf(format, args...) }

func WithField(key string, value interface{}) *Logger  { return Default().WithField(key, value) }
func WithFields(fields map[string]interface{}) *Logger { return Default().WithFields(fields) }
func WithContext(ctx context.Context) *Logger          { return Default().WithContext(ctx) }
func WithError(err error) *Logger                      { return Default().WithError(err) }
