package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// DefaultTimeFormatStr is the default time format string for log appenders.
const DefaultTimeFormatStr = "2006-01-02T15:04:05.000Z0700"

// Appender is an output for log entries. This is a subset of the `zapcore.Core` interface.
type Appender interface {
	// Write submits a structured log entry to the appender for logging.
	Write(zapcore.Entry, []zapcore.Field) error
	// Sync is for signaling that any buffered logs to `Write` should be flushed. E.g: at shutdown.
	Sync() error
}

// ConsoleAppender will create human readable lines from log events and write them to the desired
// output sink.
type ConsoleAppender struct {
	io.Writer
}

// NewStdoutAppender creates a new appender that outputs to stdout.
func NewStdoutAppender() ConsoleAppender {
	return ConsoleAppender{os.Stdout}
}

// NewWriterAppender creates a new appender that outputs to the input writer.
func NewWriterAppender(writer io.Writer) ConsoleAppender {
	return ConsoleAppender{writer}
}

// FileAppenderConfig configures a rotating log file.
type FileAppenderConfig struct {
	Path       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// NewFileAppender creates an appender that writes console formatted lines to a rotating file.
func NewFileAppender(cfg FileAppenderConfig) (ConsoleAppender, io.Closer) {
	maxSize := cfg.MaxSizeMB
	if maxSize <= 0 {
		maxSize = 100
	}
	rotator := &lumberjack.Logger{
		Filename:   cfg.Path,
		MaxSize:    maxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
	}
	return ConsoleAppender{rotator}, rotator
}

// Write outputs the log entry as one tab-separated line.
func (appender ConsoleAppender) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	line, encErr := formatLine(entry, fields)
	_, err := fmt.Fprintln(appender.Writer, line)
	if encErr != nil {
		return encErr
	}
	return err
}

// Sync is a no-op for stream appenders.
func (appender ConsoleAppender) Sync() error {
	return nil
}

// formatLine renders time, level, logger name, caller, message and the fields as JSON. When the
// fields cannot be encoded the line is returned without them alongside the error.
func formatLine(entry zapcore.Entry, fields []zapcore.Field) (string, error) {
	parts := []string{
		entry.Time.Format(DefaultTimeFormatStr),
		strings.ToUpper(entry.Level.String()),
		entry.LoggerName,
	}
	if entry.Caller.Defined {
		parts = append(parts, callerToString(&entry.Caller))
	}
	parts = append(parts, entry.Message)
	if len(fields) == 0 {
		return strings.Join(parts, "\t"), nil
	}

	// the JSON encoder keeps field order, an empty Entry leaves only the fields
	enc := zapcore.NewJSONEncoder(zapcore.EncoderConfig{SkipLineEnding: true})
	buf, err := enc.EncodeEntry(zapcore.Entry{}, fields)
	if err != nil {
		return strings.Join(parts, "\t"), err
	}
	defer buf.Free()
	return strings.Join(append(parts, buf.String()), "\t"), nil
}

// callerToString keeps the last directory and the file name: "logging/impl.go:36".
func callerToString(caller *zapcore.EntryCaller) string {
	file := caller.File
	if i := strings.LastIndexByte(file, '/'); i >= 0 {
		if j := strings.LastIndexByte(file[:i], '/'); j >= 0 {
			file = file[j+1:]
		}
	}
	return fmt.Sprintf("%s:%d", file, caller.Line)
}
