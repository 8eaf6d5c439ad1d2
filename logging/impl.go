package logging

import (
	"context"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger interface for logging to.
type Logger interface {
	Debug(args ...interface{})
	Debugf(template string, args ...interface{})
	Debugw(msg string, keysAndValues ...interface{})
	Info(args ...interface{})
	Infof(template string, args ...interface{})
	Infow(msg string, keysAndValues ...interface{})
	Warn(args ...interface{})
	Warnf(template string, args ...interface{})
	Warnw(msg string, keysAndValues ...interface{})
	Error(args ...interface{})
	Errorf(template string, args ...interface{})
	Errorw(msg string, keysAndValues ...interface{})

	// The C-prefixed variants attach fields carried by the context, such as the control cycle.
	CDebugf(ctx context.Context, template string, args ...interface{})
	CDebugw(ctx context.Context, msg string, keysAndValues ...interface{})
	CInfof(ctx context.Context, template string, args ...interface{})
	CWarnf(ctx context.Context, template string, args ...interface{})
	CWarnw(ctx context.Context, msg string, keysAndValues ...interface{})

	Sublogger(subname string) Logger
	SetLevel(level Level)
	GetLevel() Level
	AsZap() *zap.SugaredLogger
	Sync() error
}

type impl struct {
	*zap.SugaredLogger
	name  string
	level zap.AtomicLevel
}

func newImpl(name string, level zap.AtomicLevel, core zapcore.Core) *impl {
	l := zap.New(core, zap.AddCaller())
	if name != "" {
		l = l.Named(name)
	}
	return &impl{SugaredLogger: l.Sugar(), name: name, level: level}
}

func (imp *impl) Sublogger(subname string) Logger {
	name := subname
	if imp.name != "" {
		name = imp.name + "." + subname
	}
	return &impl{SugaredLogger: imp.SugaredLogger.Named(subname), name: name, level: imp.level}
}

func (imp *impl) SetLevel(level Level) {
	imp.level.SetLevel(level.AsZap())
}

func (imp *impl) GetLevel() Level {
	return levelFromZap(imp.level.Level())
}

func (imp *impl) AsZap() *zap.SugaredLogger {
	return imp.SugaredLogger
}

func (imp *impl) withContext(ctx context.Context) *zap.SugaredLogger {
	fields := fieldsFromContext(ctx)
	if len(fields) == 0 {
		return imp.SugaredLogger
	}
	return imp.SugaredLogger.With(fields...)
}

func (imp *impl) CDebugf(ctx context.Context, template string, args ...interface{}) {
	imp.withContext(ctx).Debugf(template, args...)
}

func (imp *impl) CDebugw(ctx context.Context, msg string, keysAndValues ...interface{}) {
	imp.withContext(ctx).Debugw(msg, keysAndValues...)
}

func (imp *impl) CInfof(ctx context.Context, template string, args ...interface{}) {
	imp.withContext(ctx).Infof(template, args...)
}

func (imp *impl) CWarnf(ctx context.Context, template string, args ...interface{}) {
	imp.withContext(ctx).Warnf(template, args...)
}

func (imp *impl) CWarnw(ctx context.Context, msg string, keysAndValues ...interface{}) {
	imp.withContext(ctx).Warnw(msg, keysAndValues...)
}
