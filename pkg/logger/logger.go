// Package logger provides structured logging utilities.
package logger

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is a wrapper around zap.Logger.
type Logger struct {
	*zap.Logger
}

// New creates a JSON logger at the given level.
func New(level string) (*Logger, error) {
	config := zap.Config{
		Level:    zap.NewAtomicLevelAt(parseLevel(level)),
		Encoding: "json",
		EncoderConfig: zapcore.EncoderConfig{
			TimeKey:        "ts",
			LevelKey:       "level",
			NameKey:        "logger",
			CallerKey:      "caller",
			MessageKey:     "msg",
			StacktraceKey:  "stacktrace",
			LineEnding:     zapcore.DefaultLineEnding,
			EncodeLevel:    zapcore.LowercaseLevelEncoder,
			EncodeTime:     zapcore.ISO8601TimeEncoder,
			EncodeDuration: zapcore.SecondsDurationEncoder,
			EncodeCaller:   zapcore.ShortCallerEncoder,
		},
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}

	l, err := config.Build()
	if err != nil {
		return nil, err
	}
	return &Logger{Logger: l}, nil
}

// NewDevelopment creates a console logger for local runs.
func NewDevelopment() (*Logger, error) {
	config := zap.NewDevelopmentConfig()
	config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder

	l, err := config.Build()
	if err != nil {
		return nil, err
	}
	return &Logger{Logger: l}, nil
}

// NewForEnv picks the development logger when env is "development".
func NewForEnv(env, level string) (*Logger, error) {
	if env == "development" {
		return NewDevelopment()
	}
	return New(level)
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return &Logger{Logger: zap.NewNop()}
}

// With creates a child logger with additional fields.
func (l *Logger) With(fields ...zap.Field) *Logger {
	return &Logger{Logger: l.Logger.With(fields...)}
}

// WithContext creates a child logger carrying request identity.
// Empty values are left out.
func (l *Logger) WithContext(correlationID, storeID, userID string) *Logger {
	fields := make([]zap.Field, 0, 3)
	if correlationID != "" {
		fields = append(fields, zap.String("correlation_id", correlationID))
	}
	if storeID != "" {
		fields = append(fields, zap.String("store_id", storeID))
	}
	if userID != "" {
		fields = append(fields, zap.String("user_id", userID))
	}
	return l.With(fields...)
}

func parseLevel(level string) zapcore.Level {
	switch strings.ToLower(level) {
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

var global *Logger

func init() {
	var err error
	global, err = NewForEnv(os.Getenv("ENV"), os.Getenv("LOG_LEVEL"))
	if err != nil {
		global = Nop()
	}
}

// Global returns the process-wide logger.
func Global() *Logger {
	return global
}

// SetGlobal replaces the process-wide logger.
func SetGlobal(l *Logger) {
	global = l
}
