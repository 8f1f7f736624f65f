// Package logger provides HashRand's structured logging facade. It mirrors
// the field-based API shape of a hand-rolled JSON logger but is backed by
// zap, so call sites build Fields and never touch zap types directly.
package logger

import (
	"context"
	"os"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Level represents the severity level of a log message.
type Level int

const (
	DebugLevel Level = iota
	InfoLevel
	WarnLevel
	ErrorLevel
	FatalLevel
)

func (l Level) zapLevel() zapcore.Level {
	switch l {
	case DebugLevel:
		return zapcore.DebugLevel
	case WarnLevel:
		return zapcore.WarnLevel
	case ErrorLevel:
		return zapcore.ErrorLevel
	case FatalLevel:
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}

// Field represents a structured logging field.
type Field struct {
	Key   string
	Value interface{}
}

func String(key, value string) Field          { return Field{Key: key, Value: value} }
func Int(key string, value int) Field         { return Field{Key: key, Value: value} }
func Bool(key string, value bool) Field       { return Field{Key: key, Value: value} }
func Duration(key string, value time.Duration) Field { return Field{Key: key, Value: value} }
func Any(key string, value interface{}) Field { return Field{Key: key, Value: value} }

// Error creates an error field. A nil error logs as a null value rather than
// being omitted, so log lines have a stable shape regardless of outcome.
func Error(err error) Field {
	if err == nil {
		return Field{Key: "error", Value: nil}
	}
	return Field{Key: "error", Value: err.Error()}
}

func toZapFields(fields []Field) []zap.Field {
	out := make([]zap.Field, 0, len(fields))
	for _, f := range fields {
		out = append(out, zap.Any(f.Key, f.Value))
	}
	return out
}

// Logger defines HashRand's structured logging interface.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	Fatal(msg string, fields ...Field)

	WithContext(ctx context.Context) Logger
	WithFields(fields ...Field) Logger
	SetLevel(level Level)
	GetLevel() Level
}

// ZapLogger implements Logger over a *zap.Logger.
type ZapLogger struct {
	mu      sync.RWMutex
	level   Level
	atom    zap.AtomicLevel
	zl      *zap.Logger
	ctx     context.Context
}

// New builds a logger writing JSON (or console, for development) to stdout.
func New(levelStr, format string) *ZapLogger {
	level := parseLevel(levelStr)
	atom := zap.NewAtomicLevelAt(level.zapLevel())

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "timestamp"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var encoder zapcore.Encoder
	if strings.EqualFold(format, "console") {
		encoder = zapcore.NewConsoleEncoder(encCfg)
	} else {
		encoder = zapcore.NewJSONEncoder(encCfg)
	}

	core := zapcore.NewCore(encoder, zapcore.AddSync(os.Stdout), atom)
	zl := zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1))

	return &ZapLogger{level: level, atom: atom, zl: zl}
}

// NewDefault builds a logger from LOG_LEVEL/LOG_FORMAT, defaulting to info/json.
func NewDefault() *ZapLogger {
	lvl := os.Getenv("LOG_LEVEL")
	if lvl == "" {
		lvl = "info"
	}
	format := os.Getenv("LOG_FORMAT")
	if format == "" {
		format = "json"
	}
	return New(lvl, format)
}

func parseLevel(s string) Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return DebugLevel
	case "WARN", "WARNING":
		return WarnLevel
	case "ERROR":
		return ErrorLevel
	case "FATAL":
		return FatalLevel
	default:
		return InfoLevel
	}
}

func (l *ZapLogger) Debug(msg string, fields ...Field) { l.zl.Debug(msg, toZapFields(fields)...) }
func (l *ZapLogger) Info(msg string, fields ...Field)  { l.zl.Info(msg, toZapFields(fields)...) }
func (l *ZapLogger) Warn(msg string, fields ...Field)  { l.zl.Warn(msg, toZapFields(fields)...) }
func (l *ZapLogger) Error(msg string, fields ...Field) { l.zl.Error(msg, toZapFields(fields)...) }
func (l *ZapLogger) Fatal(msg string, fields ...Field) { l.zl.Fatal(msg, toZapFields(fields)...) }

// WithContext attaches a request-scoped context whose request_id/trace_id
// values (if present) are folded into every subsequent log line.
func (l *ZapLogger) WithContext(ctx context.Context) Logger {
	l.mu.RLock()
	defer l.mu.RUnlock()

	zl := l.zl
	if ctx != nil {
		extra := make([]zap.Field, 0, 2)
		if rid, ok := ctx.Value(ctxKeyRequestID).(string); ok && rid != "" {
			extra = append(extra, zap.String("request_id", rid))
		}
		if tid, ok := ctx.Value(ctxKeyTraceID).(string); ok && tid != "" {
			extra = append(extra, zap.String("trace_id", tid))
		}
		if len(extra) > 0 {
			zl = zl.With(extra...)
		}
	}

	return &ZapLogger{level: l.level, atom: l.atom, zl: zl, ctx: ctx}
}

// WithFields returns a logger with fields attached to every subsequent line.
func (l *ZapLogger) WithFields(fields ...Field) Logger {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return &ZapLogger{level: l.level, atom: l.atom, zl: l.zl.With(toZapFields(fields)...), ctx: l.ctx}
}

func (l *ZapLogger) SetLevel(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
	l.atom.SetLevel(level.zapLevel())
}

func (l *ZapLogger) GetLevel() Level {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.level
}

// Sync flushes any buffered log entries; call before process exit.
func (l *ZapLogger) Sync() error { return l.zl.Sync() }

type ctxKey int

const (
	ctxKeyRequestID ctxKey = iota
	ctxKeyTraceID
)

// WithRequestID attaches a request ID to ctx for later retrieval by WithContext.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKeyRequestID, id)
}

// WithTraceID attaches a trace ID to ctx for later retrieval by WithContext.
func WithTraceID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKeyTraceID, id)
}

var defaultLogger = NewDefault()

// SetDefaultLogger replaces the package-level default logger.
func SetDefaultLogger(l *ZapLogger) { defaultLogger = l }

// GetDefaultLogger returns the package-level default logger.
func GetDefaultLogger() *ZapLogger { return defaultLogger }

func Debug(msg string, fields ...Field) { defaultLogger.Debug(msg, fields...) }
func Info(msg string, fields ...Field)  { defaultLogger.Info(msg, fields...) }
func Warn(msg string, fields ...Field)  { defaultLogger.Warn(msg, fields...) }
func ErrorMsg(msg string, fields ...Field) { defaultLogger.Error(msg, fields...) }
func Fatal(msg string, fields ...Field) { defaultLogger.Fatal(msg, fields...) }
