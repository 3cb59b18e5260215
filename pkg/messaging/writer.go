package messaging

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/ChuLiYu/async-queue/pkg/asyncq"
)

// Formatter renders one message to the text written out for it, including
// any trailing newline.
type Formatter func(Message) string

// timeLayout is the timestamp layout of the default format.
const timeLayout = "2006-01-02 15:04:05.000"

// DefaultFormatter renders "NAME  LEVEL  TIME  text" columns. A multi-line
// body is split and the prefix repeated on every line, so grepping for the
// source name finds every line it produced.
func DefaultFormatter(m Message) string {
	prefix := fmt.Sprintf("%-12s%-8s%s    ", m.Source, m.Level, m.Time.Format(timeLayout))
	var b strings.Builder
	for _, line := range strings.Split(m.Text, "\n") {
		b.WriteString(prefix)
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return b.String()
}

// StreamWriter formats messages and writes them to an io.Writer. It is an
// asyncq consumer, so it can sit directly behind a managed message queue,
// and its internal mutex keeps output whole when a writer is shared.
type StreamWriter struct {
	mu     sync.Mutex
	w      io.Writer
	format Formatter
	level  Level
}

// NewStreamWriter creates a writer with the default format that drops
// messages below level.
func NewStreamWriter(w io.Writer, level Level) *StreamWriter {
	return &StreamWriter{w: w, format: DefaultFormatter, level: level}
}

// SetFormatter replaces the message format. Call before the writer is
// attached to a queue.
func (sw *StreamWriter) SetFormatter(f Formatter) {
	sw.format = f
}

// Consume implements asyncq.Consumer.
func (sw *StreamWriter) Consume(m Message) (asyncq.TaskStatus, error) {
	if m.Level < sw.level {
		return asyncq.Continue, nil
	}
	sw.mu.Lock()
	defer sw.mu.Unlock()
	if _, err := io.WriteString(sw.w, sw.format(m)); err != nil {
		return asyncq.Abort, fmt.Errorf("write message: %w", err)
	}
	return asyncq.Continue, nil
}
