// Package logging contains the structured logger used across the lock-on core.
package logging

import (
	"os"
	"sync"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	globalMu     sync.RWMutex
	globalLogger = NewBlankLogger("global")
)

// ReplaceGlobal replaces the global loggers.
func ReplaceGlobal(logger Logger) {
	globalMu.Lock()
	globalLogger = logger
	globalMu.Unlock()
}

// Global returns the global logger. Until ReplaceGlobal is called it discards everything.
func Global() Logger {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalLogger
}

// NewLoggerConfig returns a new default logger config.
func NewLoggerConfig() zap.Config {
	// from https://github.com/uber-go/zap/blob/2314926ec34c23ee21f3dd4399438469668f8097/config.go#L135
	// but disable stacktraces, use same keys as prod, and color levels.
	return zap.Config{
		Level:    zap.NewAtomicLevelAt(zap.InfoLevel),
		Encoding: "console",
		EncoderConfig: zapcore.EncoderConfig{
			TimeKey:        "ts",
			LevelKey:       "level",
			NameKey:        "logger",
			CallerKey:      "caller",
			FunctionKey:    zapcore.OmitKey,
			MessageKey:     "msg",
			StacktraceKey:  "stacktrace",
			LineEnding:     zapcore.DefaultLineEnding,
			EncodeLevel:    zapcore.CapitalColorLevelEncoder,
			EncodeTime:     zapcore.ISO8601TimeEncoder,
			EncodeDuration: zapcore.StringDurationEncoder,
			EncodeCaller:   zapcore.ShortCallerEncoder,
		},
		DisableStacktrace: true,
		OutputPaths:       []string{"stdout"},
		ErrorOutputPaths:  []string{"stderr"},
	}
}

func stdoutCore(level zap.AtomicLevel) zapcore.Core {
	return zapcore.NewCore(
		zapcore.NewConsoleEncoder(NewLoggerConfig().EncoderConfig),
		zapcore.Lock(os.Stdout),
		level,
	)
}

// NewLogger returns a new logger that outputs Info+ logs to stdout.
func NewLogger(name string) Logger {
	level := zap.NewAtomicLevelAt(zap.InfoLevel)
	return newImpl(name, level, stdoutCore(level))
}

// NewDebugLogger returns a new logger that outputs Debug+ logs to stdout.
func NewDebugLogger(name string) Logger {
	level := zap.NewAtomicLevelAt(zap.DebugLevel)
	return newImpl(name, level, stdoutCore(level))
}

// NewBlankLogger returns a new logger without any outputs.
func NewBlankLogger(name string) Logger {
	return newImpl(name, zap.NewAtomicLevelAt(zap.DebugLevel), zapcore.NewNopCore())
}

// FileOptions configures the rotation of a file-backed logger.
type FileOptions struct {
	// MaxSizeMB is the size at which the current file is rotated.
	MaxSizeMB int
	// MaxBackups is the number of rotated files to keep.
	MaxBackups int
	Compress   bool
}

// NewFileLogger returns a logger that writes console output to stdout and JSON lines to a
// rotated file at path.
func NewFileLogger(name, path string, level Level, opts FileOptions) Logger {
	if opts.MaxSizeMB == 0 {
		opts.MaxSizeMB = 64
	}
	if opts.MaxBackups == 0 {
		opts.MaxBackups = 2
	}
	atomicLevel := zap.NewAtomicLevelAt(level.AsZap())
	fileEncoderCfg := NewLoggerConfig().EncoderConfig
	fileEncoderCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	fileCore := zapcore.NewCore(
		zapcore.NewJSONEncoder(fileEncoderCfg),
		zapcore.AddSync(&lumberjack.Logger{
			Filename:   path,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
			Compress:   opts.Compress,
		}),
		atomicLevel,
	)
	return newImpl(name, atomicLevel, zapcore.NewTee(stdoutCore(atomicLevel), fileCore))
}

// NewTestLogger returns a new logger that outputs Debug+ logs through the testing.TB.
func NewTestLogger(tb testing.TB) Logger {
	logger, _ := NewObservedTestLogger(tb)
	return logger
}

// NewObservedTestLogger is like NewTestLogger but also saves logs to an in memory observer.
func NewObservedTestLogger(tb testing.TB) (Logger, *observer.ObservedLogs) {
	level := zap.NewAtomicLevelAt(zap.DebugLevel)
	observerCore, observedLogs := observer.New(level)
	testCore := zaptest.NewLogger(tb, zaptest.Level(level)).Core()
	return newImpl("", level, zapcore.NewTee(testCore, observerCore)), observedLogs
}
