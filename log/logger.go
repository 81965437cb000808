// Package log provides structured logging with batch context.
//
// Two logger variants are available:
//   - Logger: Non-sugared zap.Logger for resolver and batch paths (structured fields)
//   - SugaredLogger: Printf-style logging for CLI surfaces
//
// Use Logger.Sugar() to obtain a SugaredLogger when needed.
// A nil *Logger is valid and discards everything.
package log

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/pithecene-io/mediaresolve/types"
)

// Logger provides structured logging with batch context.
// Entries carry batch_id (and label when set) when built from a BatchMeta.
type Logger struct {
	zap *zap.Logger
	// fields are kept so they survive core swaps (context fields live in the core).
	fields []zap.Field
}

// SugaredLogger provides printf-style logging for CLI surfaces.
type SugaredLogger struct {
	sugar *zap.SugaredLogger
}

// Level is a minimum log level.
type Level = zapcore.Level

// Levels accepted by WithLevel.
const (
	DebugLevel = zapcore.DebugLevel
	InfoLevel  = zapcore.InfoLevel
	WarnLevel  = zapcore.WarnLevel
	ErrorLevel = zapcore.ErrorLevel
)

// NewLogger creates a logger with batch context writing JSON to os.Stderr.
// meta may be nil for loggers created before a batch exists.
func NewLogger(meta *types.BatchMeta) *Logger {
	return newLoggerWithWriter(meta, os.Stderr, DebugLevel)
}

// NewNop returns a logger that discards all output.
func NewNop() *Logger {
	return &Logger{zap: zap.NewNop()}
}

func encoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:     "timestamp",
		LevelKey:    "level",
		MessageKey:  "message",
		EncodeTime:  zapcore.RFC3339NanoTimeEncoder,
		EncodeLevel: zapcore.LowercaseLevelEncoder,
	}
}

func newCore(w io.Writer, level Level) zapcore.Core {
	return zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig()),
		zapcore.AddSync(w),
		level,
	)
}

func newLoggerWithWriter(meta *types.BatchMeta, w io.Writer, level Level) *Logger {
	var fields []zap.Field
	if meta != nil {
		fields = batchFields(*meta)
	}
	return &Logger{zap: zap.New(newCore(w, level)).With(fields...), fields: fields}
}

func batchFields(meta types.BatchMeta) []zap.Field {
	fields := []zap.Field{zap.String("batch_id", meta.BatchID)}
	if meta.Label != nil {
		fields = append(fields, zap.String("label", *meta.Label))
	}
	return fields
}

// WithOutput returns a new logger writing to w. Context fields are kept.
func (l *Logger) WithOutput(w io.Writer) *Logger {
	return l.swapCore(newCore(w, DebugLevel))
}

// WithLevel returns a new logger writing to w that drops entries below level.
func (l *Logger) WithLevel(w io.Writer, level Level) *Logger {
	return l.swapCore(newCore(w, level))
}

func (l *Logger) swapCore(core zapcore.Core) *Logger {
	if l == nil {
		return nil
	}
	return &Logger{zap: zap.New(core).With(l.fields...), fields: l.fields}
}

// ForBatch returns a child logger annotated with the batch identity.
func (l *Logger) ForBatch(meta types.BatchMeta) *Logger {
	if l == nil {
		return nil
	}
	extra := batchFields(meta)
	fields := append(append([]zap.Field(nil), l.fields...), extra...)
	return &Logger{zap: l.zap.With(extra...), fields: fields}
}

// Debug logs a debug message.
func (l *Logger) Debug(message string, fields map[string]any) {
	if l == nil {
		return
	}
	l.zap.Debug(message, zap.Any("fields", fields))
}

// Info logs an info message.
func (l *Logger) Info(message string, fields map[string]any) {
	if l == nil {
		return
	}
	l.zap.Info(message, zap.Any("fields", fields))
}

// Warn logs a warning message.
func (l *Logger) Warn(message string, fields map[string]any) {
	if l == nil {
		return
	}
	l.zap.Warn(message, zap.Any("fields", fields))
}

// Error logs an error message.
func (l *Logger) Error(message string, fields map[string]any) {
	if l == nil {
		return
	}
	l.zap.Error(message, zap.Any("fields", fields))
}

// Sync flushes buffered entries.
func (l *Logger) Sync() error {
	if l == nil {
		return nil
	}
	return l.zap.Sync()
}

// Sugar returns a SugaredLogger for printf-style logging.
func (l *Logger) Sugar() *SugaredLogger {
	if l == nil {
		return &SugaredLogger{sugar: zap.NewNop().Sugar()}
	}
	return &SugaredLogger{sugar: l.zap.Sugar()}
}

// Debugf logs a debug message with printf-style formatting.
func (s *SugaredLogger) Debugf(template string, args ...any) {
	s.sugar.Debugf(template, args...)
}

// Infof logs an info message with printf-style formatting.
func (s *SugaredLogger) Infof(template string, args ...any) {
	s.sugar.Infof(template, args...)
}

// Warnf logs a warning message with printf-style formatting.
func (s *SugaredLogger) Warnf(template string, args ...any) {
	s.sugar.Warnf(template, args...)
}

// Errorf logs an error message with printf-style formatting.
func (s *SugaredLogger) Errorf(template string, args ...any) {
	s.sugar.Errorf(template, args...)
}

// With returns a SugaredLogger with additional context fields.
func (s *SugaredLogger) With(args ...any) *SugaredLogger {
	return &SugaredLogger{sugar: s.sugar.With(args...)}
}
