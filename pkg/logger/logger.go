
package logger

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config selects level and encoding ("console" or "json").
type Config struct {
	Level       string
	Encoding    string
	Development bool
}

// Logger is a thin wrapper over a zap sugared logger.
type Logger struct {
	s *zap.SugaredLogger
}

var levels = map[string]zapcore.Level{
	"debug": zapcore.DebugLevel,
	"info":  zapcore.InfoLevel,
	"warn":  zapcore.WarnLevel,
	"error": zapcore.ErrorLevel,
}

// New builds a logger writing to stderr.
func New(cfg Config) (*Logger, error) {
	lvl, ok := levels[strings.ToLower(cfg.Level)]
	if cfg.Level == "" {
		lvl, ok = zapcore.InfoLevel, true
	}
	if !ok {
		return nil, fmt.Errorf("invalid log level %q", cfg.Level)
	}
	enc := cfg.Encoding
	if enc == "" {
		enc = "console"
	}
	if enc != "console" && enc != "json" {
		return nil, fmt.Errorf("invalid log encoding %q", cfg.Encoding)
	}

	zc := zap.NewProductionConfig()
	if cfg.Development {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(lvl)
	zc.Encoding = enc
	zc.OutputPaths = []string{"stderr"}
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zc.EncoderConfig.EncodeDuration = zapcore.StringDurationEncoder

	z, err := zc.Build()
	if err != nil {
		return nil, err
	}
	return &Logger{s: z.Sugar()}, nil
}

// Nop returns a logger that discards everything.
func Nop() *Logger { return &Logger{s: zap.NewNop().Sugar()} }

// OrNop returns l, or a no-op logger when l is nil.
func OrNop(l *Logger) *Logger {
	if l == nil {
		return Nop()
	}
	return l
}

// With returns a child logger carrying the given key/value pairs.
func (l *Logger) With(kv ...any) *Logger { return &Logger{s: l.s.With(kv...)} }

func (l *Logger) Debugf(format string, args ...any) { l.s.Debugf(format, args...) }
func (l *Logger) Infof(format string, args ...any)  { l.s.Infof(format, args...) }
func (l *Logger) Warnf(format string, args ...any)  { l.s.Warnf(format, args...) }
func (l *Logger) Errorf(format string, args ...any) { l.s.Errorf(format, args...) }

// Infow logs a message with structured fields.
func (l *Logger) Infow(msg string, kv ...any) { l.s.Infow(msg, kv...) }

// Errorw logs a message with structured fields.
func (l *Logger) Errorw(msg string, kv ...any) { l.s.Errorw(msg, kv...) }

// Sync flushes buffered entries.
func (l *Logger) Sync() { _ = l.s.Sync() }
