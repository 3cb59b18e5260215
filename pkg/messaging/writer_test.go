package messaging

import (
	"bytes"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChuLiYu/async-queue/pkg/asyncq"
)

func testMessage(level Level, text string) Message {
	return Message{
		Source: "tester",
		Time:   time.Date(2025, 10, 31, 12, 30, 45, 0, time.UTC),
		Level:  level,
		Text:   text,
	}
}

func TestDefaultFormatter(t *testing.T) {
	out := DefaultFormatter(testMessage(LevelInfo, "hello"))
	assert.Equal(t, "tester      INFO    2025-10-31 12:30:45.000    hello\n", out)
}

// TestDefaultFormatterMultiline: the prefix repeats on every line of the
// body so each output line is self-describing.
func TestDefaultFormatterMultiline(t *testing.T) {
	out := DefaultFormatter(testMessage(LevelWarning, "one\ntwo"))
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 2)
	for _, line := range lines {
		assert.True(t, strings.HasPrefix(line, "tester"), "line %q misses the prefix", line)
		assert.Contains(t, line, "WARNING")
	}
	assert.Contains(t, lines[0], "one")
	assert.Contains(t, lines[1], "two")
}

func TestStreamWriterFiltersLevel(t *testing.T) {
	var buf bytes.Buffer
	w := NewStreamWriter(&buf, LevelWarning)

	status, err := w.Consume(testMessage(LevelInfo, "quiet"))
	require.NoError(t, err)
	assert.Equal(t, asyncq.Continue, status)
	assert.Zero(t, buf.Len())

	status, err = w.Consume(testMessage(LevelError, "loud"))
	require.NoError(t, err)
	assert.Equal(t, asyncq.Continue, status)
	assert.Contains(t, buf.String(), "loud")
}

func TestStreamWriterCustomFormatter(t *testing.T) {
	var buf bytes.Buffer
	w := NewStreamWriter(&buf, LevelVerbose)
	w.SetFormatter(func(m Message) string { return m.Text + "!\n" })

	_, err := w.Consume(testMessage(LevelInfo, "plain"))
	require.NoError(t, err)
	assert.Equal(t, "plain!\n", buf.String())
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestStreamWriterWriteFailure(t *testing.T) {
	w := NewStreamWriter(failingWriter{}, LevelVerbose)

	status, err := w.Consume(testMessage(LevelInfo, "x"))
	assert.Error(t, err)
	assert.Equal(t, asyncq.Abort, status)
}

func TestFileWriter(t *testing.T) {
	path := t.TempDir() + "/messages.log"
	fw := NewFileWriter(path, LevelVerbose)

	_, err := fw.Consume(testMessage(LevelInfo, "to disk"))
	require.NoError(t, err)
	require.NoError(t, fw.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "to disk")
}

func TestTeeWriter(t *testing.T) {
	var a, b bytes.Buffer
	tee := NewTeeWriter(
		NewStreamWriter(&a, LevelVerbose),
		NewStreamWriter(&b, LevelWarning),
	)

	status, err := tee.Consume(testMessage(LevelInfo, "fanout"))
	require.NoError(t, err)
	assert.Equal(t, asyncq.Continue, status)
	assert.Contains(t, a.String(), "fanout")
	assert.Zero(t, b.Len(), "second writer filters INFO")
}
