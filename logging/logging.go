// Package logging contains the structured, leveled logger used by the recorder, the simulated
// physics hosts and the simrecord binary. Entries are written to appenders in UTC.
package logging

import (
	"sync"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

var (
	globalMu     sync.RWMutex
	globalLogger Logger = NewDebugLogger("startup")
)

// ReplaceGlobal replaces the process-wide logger returned by Global.
func ReplaceGlobal(logger Logger) {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalLogger = logger
}

// Global returns the process-wide logger.
func Global() Logger {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalLogger
}

// NewLogger logs Info+ to stdout.
func NewLogger(name string) Logger {
	return newImpl(name, INFO, NewStdoutAppender())
}

// NewDebugLogger logs Debug+ to stdout.
func NewDebugLogger(name string) Logger {
	return newImpl(name, DEBUG, NewStdoutAppender())
}

// NewBlankLogger logs Debug+ to nowhere until an appender is added.
func NewBlankLogger(name string) Logger {
	return newImpl(name, DEBUG)
}

// NewTestLogger logs Debug+ through tb.Log.
func NewTestLogger(tb testing.TB) Logger {
	logger, _ := NewObservedTestLogger(tb)
	return logger
}

// NewObservedTestLogger is NewTestLogger that also keeps every entry for assertions.
func NewObservedTestLogger(tb testing.TB) (Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zap.LevelEnablerFunc(zapcore.DebugLevel.Enabled))
	return newImpl("", DEBUG, NewTestAppender(tb), core), logs
}
