package logging

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type impl struct {
	name      string
	level     AtomicLevel
	appenders []Appender
}

func newImpl(name string, level Level, appenders ...Appender) *impl {
	return &impl{name: name, level: NewAtomicLevelAt(level), appenders: appenders}
}

func (imp *impl) AddAppender(appender Appender) {
	imp.appenders = append(imp.appenders, appender)
}

func (imp *impl) SetLevel(level Level) {
	imp.level.Set(level)
}

func (imp *impl) GetLevel() Level {
	return imp.level.Get()
}

// Sublogger shares the parent's appenders; its level starts at the parent's and is then
// independent.
func (imp *impl) Sublogger(subname string) Logger {
	name := subname
	if imp.name != "" {
		name = imp.name + "." + subname
	}
	return newImpl(name, imp.level.Get(), imp.appenders...)
}

func (imp *impl) Sync() error {
	var errs error
	for _, appender := range imp.appenders {
		errs = multierr.Combine(errs, appender.Sync())
	}
	return errs
}

func (imp *impl) enabled(level Level) bool {
	return level >= imp.level.Get()
}

func (imp *impl) enabledCtx(ctx context.Context) bool {
	_, debug := DebugID(ctx)
	return debug || imp.enabled(DEBUG)
}

// emit must be called directly from the exported logging method so the caller lookup lands on
// user code.
func (imp *impl) emit(level Level, msg string, keysAndValues []interface{}) {
	entry := zapcore.Entry{
		Level:      level.AsZap(),
		Time:       time.Now().UTC(),
		LoggerName: imp.name,
		Message:    msg,
	}
	var ok bool
	entry.Caller.PC, entry.Caller.File, entry.Caller.Line, ok = runtime.Caller(2)
	if ok {
		entry.Caller.Defined = true
		if fn := runtime.FuncForPC(entry.Caller.PC); fn != nil {
			entry.Caller.Function = fn.Name()
		}
	}

	fields := zapFields(keysAndValues)
	for _, appender := range imp.appenders {
		if err := appender.Write(entry, fields); err != nil {
			fmt.Fprintln(os.Stderr, "log appender:", err)
		}
	}
}

// zapFields pairs keys with the values that follow them. A trailing key without a value is kept
// with an error in its place.
func zapFields(keysAndValues []interface{}) []zapcore.Field {
	if len(keysAndValues) == 0 {
		return nil
	}
	fields := make([]zapcore.Field, 0, (len(keysAndValues)+1)/2)
	for i := 0; i < len(keysAndValues); i += 2 {
		key := fmt.Sprint(keysAndValues[i])
		if i+1 == len(keysAndValues) {
			fields = append(fields, zap.Any(key, errors.New("unpaired log key")))
			break
		}
		fields = append(fields, zap.Any(key, keysAndValues[i+1]))
	}
	return fields
}

func (imp *impl) Debug(args ...interface{}) {
	if imp.enabled(DEBUG) {
		imp.emit(DEBUG, fmt.Sprint(args...), nil)
	}
}

func (imp *impl) Debugf(template string, args ...interface{}) {
	if imp.enabled(DEBUG) {
		imp.emit(DEBUG, fmt.Sprintf(template, args...), nil)
	}
}

func (imp *impl) Debugw(msg string, keysAndValues ...interface{}) {
	if imp.enabled(DEBUG) {
		imp.emit(DEBUG, msg, keysAndValues)
	}
}

func (imp *impl) CDebug(ctx context.Context, args ...interface{}) {
	if imp.enabledCtx(ctx) {
		imp.emit(DEBUG, fmt.Sprint(args...), nil)
	}
}

func (imp *impl) CDebugf(ctx context.Context, template string, args ...interface{}) {
	if imp.enabledCtx(ctx) {
		imp.emit(DEBUG, fmt.Sprintf(template, args...), nil)
	}
}

func (imp *impl) CDebugw(ctx context.Context, msg string, keysAndValues ...interface{}) {
	if imp.enabledCtx(ctx) {
		imp.emit(DEBUG, msg, keysAndValues)
	}
}

func (imp *impl) Info(args ...interface{}) {
	if imp.enabled(INFO) {
		imp.emit(INFO, fmt.Sprint(args...), nil)
	}
}

func (imp *impl) Infof(template string, args ...interface{}) {
	if imp.enabled(INFO) {
		imp.emit(INFO, fmt.Sprintf(template, args...), nil)
	}
}

func (imp *impl) Infow(msg string, keysAndValues ...interface{}) {
	if imp.enabled(INFO) {
		imp.emit(INFO, msg, keysAndValues)
	}
}

func (imp *impl) Warn(args ...interface{}) {
	if imp.enabled(WARN) {
		imp.emit(WARN, fmt.Sprint(args...), nil)
	}
}

func (imp *impl) Warnf(template string, args ...interface{}) {
	if imp.enabled(WARN) {
		imp.emit(WARN, fmt.Sprintf(template, args...), nil)
	}
}

func (imp *impl) Warnw(msg string, keysAndValues ...interface{}) {
	if imp.enabled(WARN) {
		imp.emit(WARN, msg, keysAndValues)
	}
}

func (imp *impl) Error(args ...interface{}) {
	if imp.enabled(ERROR) {
		imp.emit(ERROR, fmt.Sprint(args...), nil)
	}
}

func (imp *impl) Errorf(template string, args ...interface{}) {
	if imp.enabled(ERROR) {
		imp.emit(ERROR, fmt.Sprintf(template, args...), nil)
	}
}

func (imp *impl) Errorw(msg string, keysAndValues ...interface{}) {
	if imp.enabled(ERROR) {
		imp.emit(ERROR, msg, keysAndValues)
	}
}
