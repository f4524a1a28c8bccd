package logging

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.viam.com/test"
)

// assertLogMatches will fuzzy match log lines. Notably, this checks the time format, but ignores
// the exact time. And it expects a match on the filename, but the exact line number can be wrong.
func assertLogMatches(t *testing.T, actual *bytes.Buffer, expected string) {
	t.Helper()

	output, err := actual.ReadString('\n')
	test.That(t, err, test.ShouldBeNil)

	actualParts := strings.Split(strings.TrimSuffix(output, "\n"), "\t")
	expectedParts := strings.Split(expected, "\t")
	test.That(t, len(actualParts), test.ShouldEqual, len(expectedParts))
	// Use the length of the first string as a weak verification of checking that the result looks like a date.
	test.That(t, len(actualParts[0]), test.ShouldEqual, len(expectedParts[0]))
	test.That(t, actualParts[1], test.ShouldEqual, expectedParts[1])
	test.That(t, actualParts[2], test.ShouldEqual, expectedParts[2])

	actualFilename, _, found := strings.Cut(actualParts[3], ":")
	test.That(t, found, test.ShouldBeTrue)
	expectedFilename, _, _ := strings.Cut(expectedParts[3], ":")
	test.That(t, actualFilename, test.ShouldEqual, expectedFilename)

	test.That(t, actualParts[4:], test.ShouldResemble, expectedParts[4:])
}

func TestConsoleOutputFormat(t *testing.T) {
	notStdout := &bytes.Buffer{}
	logger := newImpl("impl", DEBUG, NewWriterAppender(notStdout))

	logger.Info("impl Info log")
	assertLogMatches(t, notStdout,
		`2023-10-30T09:12:09.459Z	INFO	impl	logging/impl_test.go:67	impl Info log`)

	logger.Debugf("impl logf %d", 5)
	assertLogMatches(t, notStdout,
		`2023-10-30T09:12:09.459Z	DEBUG	impl	logging/impl_test.go:67	impl logf 5`)

	logger.Warnw("impl logw", "joint", 3, "frame", uint64(7))
	assertLogMatches(t, notStdout,
		`2023-10-30T09:12:09.459Z	WARN	impl	logging/impl_test.go:67	impl logw	{"joint":3,"frame":7}`)

	logger.Errorw("unpaired", "key")
	assertLogMatches(t, notStdout,
		`2023-10-30T09:12:09.459Z	ERROR	impl	logging/impl_test.go:67	unpaired	{"key":"unpaired log key"}`)
}

func TestLevels(t *testing.T) {
	notStdout := &bytes.Buffer{}
	logger := newImpl("levels", WARN, NewWriterAppender(notStdout))

	logger.Debug("dropped")
	logger.Info("dropped")
	test.That(t, notStdout.Len(), test.ShouldEqual, 0)

	logger.Error("kept")
	test.That(t, notStdout.String(), test.ShouldContainSubstring, "kept")

	logger.SetLevel(DEBUG)
	test.That(t, logger.GetLevel(), test.ShouldEqual, DEBUG)

	lvl, err := LevelFromString("WARNING")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, lvl, test.ShouldEqual, WARN)

	_, err = LevelFromString("loud")
	test.That(t, err, test.ShouldNotBeNil)
}

func TestContextDebugMode(t *testing.T) {
	notStdout := &bytes.Buffer{}
	logger := newImpl("ctx", INFO, NewWriterAppender(notStdout))

	logger.CDebugf(context.Background(), "hidden %d", 1)
	test.That(t, notStdout.Len(), test.ShouldEqual, 0)
	_, ok := DebugID(context.Background())
	test.That(t, ok, test.ShouldBeFalse)

	ctx, id := EnableDebugMode(context.Background())
	got, ok := DebugID(ctx)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, got, test.ShouldEqual, id)
	test.That(t, len(id), test.ShouldEqual, 8)
	logger.CDebugw(ctx, "shown", "frame", 1)
	test.That(t, notStdout.String(), test.ShouldContainSubstring, "shown")

	logger.Debug("still hidden")
	test.That(t, notStdout.String(), test.ShouldNotContainSubstring, "still hidden")
}

func TestSublogger(t *testing.T) {
	logger, observed := NewObservedTestLogger(t)
	sub := logger.Sublogger("recorder").Sublogger("panda")
	sub.Infow("attached", "body", 1)

	entries := observed.All()
	test.That(t, len(entries), test.ShouldEqual, 1)
	test.That(t, entries[0].LoggerName, test.ShouldEqual, "recorder.panda")
	test.That(t, entries[0].ContextMap()["body"], test.ShouldEqual, int64(1))
}

func TestSubloggerLevelIndependent(t *testing.T) {
	notStdout := &bytes.Buffer{}
	parent := newImpl("parent", INFO, NewWriterAppender(notStdout))
	child := parent.Sublogger("child")
	test.That(t, child.GetLevel(), test.ShouldEqual, INFO)

	child.SetLevel(ERROR)
	parent.Info("from parent")
	child.Info("from child")
	test.That(t, notStdout.String(), test.ShouldContainSubstring, "from parent")
	test.That(t, notStdout.String(), test.ShouldNotContainSubstring, "from child")
}

func TestFileAppender(t *testing.T) {
	path := filepath.Join(t.TempDir(), "simrecord.log")
	appender, closer := NewFileAppender(FileAppenderConfig{Path: path})
	logger := NewBlankLogger("file")
	logger.AddAppender(appender)

	logger.Info("to disk")
	test.That(t, logger.Sync(), test.ShouldBeNil)
	test.That(t, closer.Close(), test.ShouldBeNil)

	//nolint:gosec
	contents, err := os.ReadFile(path)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, string(contents), test.ShouldContainSubstring, "to disk")
}
