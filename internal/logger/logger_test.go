// SPDX-License-Identifier: LGPL-3.0-or-later

package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// newTestLogger builds a ZapLogger writing JSON into buf, bypassing env vars.
func newTestLogger(buf *bytes.Buffer, level Level) *ZapLogger {
	atom := zap.NewAtomicLevelAt(level.zapLevel())
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "timestamp"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.AddSync(buf), atom)
	return &ZapLogger{level: level, atom: atom, zl: zap.New(core)}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in  string
		out Level
	}{
		{"debug", DebugLevel},
		{"DEBUG", DebugLevel},
		{"info", InfoLevel},
		{"warn", WarnLevel},
		{"warning", WarnLevel},
		{"error", ErrorLevel},
		{"fatal", FatalLevel},
		{"", InfoLevel},
		{"bogus", InfoLevel},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.out, parseLevel(tt.in))
	}
}

func TestZapLogger(t *testing.T) {
	t.Run("LogLevelFiltering", func(t *testing.T) {
		var buf bytes.Buffer
		l := newTestLogger(&buf, WarnLevel)

		l.Debug("debug message")
		assert.Empty(t, buf.String(), "debug message should be filtered")

		l.Info("info message")
		assert.Empty(t, buf.String(), "info message should be filtered")

		l.Warn("warn message")
		assert.NotEmpty(t, buf.String(), "warn message should be logged")

		buf.Reset()
		l.Error("error message")
		assert.NotEmpty(t, buf.String(), "error message should be logged")
	})

	t.Run("StructuredFields", func(t *testing.T) {
		var buf bytes.Buffer
		l := newTestLogger(&buf, InfoLevel)

		l.Info("test message",
			String("key1", "value1"),
			Int("key2", 42),
			Bool("key3", true),
			Error(errors.New("test error")),
		)

		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))

		assert.Equal(t, "test message", entry["msg"])
		assert.Equal(t, "value1", entry["key1"])
		assert.Equal(t, float64(42), entry["key2"])
		assert.Equal(t, true, entry["key3"])
		assert.Equal(t, "test error", entry["error"])
		assert.NotNil(t, entry["timestamp"])
	})

	t.Run("NilErrorField", func(t *testing.T) {
		var buf bytes.Buffer
		l := newTestLogger(&buf, InfoLevel)

		l.Info("ok", Error(nil))

		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		assert.Nil(t, entry["error"])
	})

	t.Run("WithFields", func(t *testing.T) {
		var buf bytes.Buffer
		base := newTestLogger(&buf, InfoLevel)
		child := base.WithFields(String("service", "hashrand"), String("version", "1.0.0"))

		child.Info("test message")

		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		assert.Equal(t, "hashrand", entry["service"])
		assert.Equal(t, "1.0.0", entry["version"])
	})

	t.Run("WithContext", func(t *testing.T) {
		var buf bytes.Buffer
		base := newTestLogger(&buf, InfoLevel)

		ctx := WithRequestID(context.Background(), "req-123")
		ctx = WithTraceID(ctx, "trace-456")

		base.WithContext(ctx).Info("test message")

		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		assert.Equal(t, "req-123", entry["request_id"])
		assert.Equal(t, "trace-456", entry["trace_id"])
	})

	t.Run("SetLevel", func(t *testing.T) {
		var buf bytes.Buffer
		l := newTestLogger(&buf, InfoLevel)

		l.Debug("debug 1")
		assert.Empty(t, buf.String(), "debug should be filtered at info level")

		l.SetLevel(DebugLevel)
		l.Debug("debug 2")
		assert.NotEmpty(t, buf.String(), "debug should be logged at debug level")
	})

	t.Run("GetLevel", func(t *testing.T) {
		l := newTestLogger(&bytes.Buffer{}, InfoLevel)
		assert.Equal(t, InfoLevel, l.GetLevel())

		l.SetLevel(ErrorLevel)
		assert.Equal(t, ErrorLevel, l.GetLevel())
	})
}

func TestNewDefault(t *testing.T) {
	l := NewDefault()
	require.NotNil(t, l)
	assert.Equal(t, InfoLevel, l.GetLevel())
}

func TestDefaultLogger(t *testing.T) {
	t.Run("DefaultLoggerExists", func(t *testing.T) {
		assert.NotNil(t, GetDefaultLogger())
	})

	t.Run("SetDefaultLogger", func(t *testing.T) {
		var buf bytes.Buffer
		SetDefaultLogger(newTestLogger(&buf, DebugLevel))
		defer SetDefaultLogger(NewDefault())

		Debug("test debug")
		assert.NotEmpty(t, buf.String())

		buf.Reset()
		Info("test info")
		assert.NotEmpty(t, buf.String())

		buf.Reset()
		Warn("test warn")
		assert.NotEmpty(t, buf.String())

		buf.Reset()
		ErrorMsg("test error")
		assert.NotEmpty(t, buf.String())
	})
}

func TestFieldConstructors(t *testing.T) {
	t.Run("StringField", func(t *testing.T) {
		field := String("key", "value")
		assert.Equal(t, "key", field.Key)
		assert.Equal(t, "value", field.Value)
	})

	t.Run("IntField", func(t *testing.T) {
		field := Int("count", 42)
		assert.Equal(t, "count", field.Key)
		assert.Equal(t, 42, field.Value)
	})

	t.Run("BoolField", func(t *testing.T) {
		field := Bool("enabled", true)
		assert.Equal(t, "enabled", field.Key)
		assert.Equal(t, true, field.Value)
	})

	t.Run("ErrorField", func(t *testing.T) {
		err := errors.New("test error")
		field := Error(err)
		assert.Equal(t, "error", field.Key)
		assert.Equal(t, "test error", field.Value)

		field = Error(nil)
		assert.Equal(t, "error", field.Key)
		assert.Nil(t, field.Value)
	})

	t.Run("AnyField", func(t *testing.T) {
		type testStruct struct {
			Name string
		}
		value := testStruct{Name: "test"}
		field := Any("data", value)
		assert.Equal(t, "data", field.Key)
		assert.Equal(t, value, field.Value)
	})
}

func BenchmarkLogger(b *testing.B) {
	l := newTestLogger(&bytes.Buffer{}, InfoLevel)

	b.Run("SimpleLog", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			l.Info("benchmark message")
		}
	})

	b.Run("LogWithFields", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			l.Info("benchmark message",
				String("key1", "value1"),
				Int("key2", 42),
				Bool("key3", true),
			)
		}
	})

	b.Run("FilteredLog", func(b *testing.B) {
		l.SetLevel(ErrorLevel)
		for i := 0; i < b.N; i++ {
			l.Debug("filtered message")
		}
	})
}
