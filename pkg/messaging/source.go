package messaging

import (
	"fmt"
	"time"
)

// Source creates messages on behalf of a named component and forwards them
// to the manager's queue. Sources are cheap value handles; create one per
// component and copy freely. A source filters below its output level before
// anything touches the queue.
type Source struct {
	name    string
	manager *Manager
	level   Level
}

// Name returns the component name stamped on every message.
func (s Source) Name() string {
	return s.name
}

// OutputLevel returns the minimum severity this source lets through.
func (s Source) OutputLevel() Level {
	return s.level
}

// WithLevel returns a copy of the source with a different output level.
func (s Source) WithLevel(level Level) Source {
	s.level = level
	return s
}

// Send forwards one message at the given level. It reports false when the
// message was discarded because the manager has shut down; suppression by
// the output level still counts as delivered.
func (s Source) Send(level Level, text string) bool {
	if level < s.level {
		return true
	}
	return s.manager.send(Message{
		Source: s.name,
		Time:   time.Now(),
		Level:  level,
		Text:   text,
	})
}

// Verbosef sends a formatted VERBOSE message.
func (s Source) Verbosef(format string, args ...any) {
	s.Send(LevelVerbose, fmt.Sprintf(format, args...))
}

// Debugf sends a formatted DEBUG message.
func (s Source) Debugf(format string, args ...any) {
	s.Send(LevelDebug, fmt.Sprintf(format, args...))
}

// Infof sends a formatted INFO message.
func (s Source) Infof(format string, args ...any) {
	s.Send(LevelInfo, fmt.Sprintf(format, args...))
}

// Warningf sends a formatted WARNING message.
func (s Source) Warningf(format string, args ...any) {
	s.Send(LevelWarning, fmt.Sprintf(format, args...))
}

// Errorf sends a formatted ERROR message.
func (s Source) Errorf(format string, args ...any) {
	s.Send(LevelError, fmt.Sprintf(format, args...))
}
