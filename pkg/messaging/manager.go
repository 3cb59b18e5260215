// ============================================================================
// Messaging Manager - Job-Wide Message Routing
// ============================================================================
//
// Package: pkg/messaging
// File: manager.go
// Purpose: Own the message queue and writer thread for a whole job
//
// The manager runs on its own scope rather than sharing the workers' scope:
// messaging should outlive the scopes it reports on, so it can still say
// *why* one of them aborted. Closing the manager drains every message
// already sent.
//
// ============================================================================

package messaging

import (
	"os"
	"sync"

	"github.com/hashicorp/go-multierror"

	"github.com/ChuLiYu/async-queue/pkg/asyncq"
)

// Manager owns the managed queue feeding a writer and hands out sources.
type Manager struct {
	mu           sync.RWMutex
	queue        *asyncq.ManagedQueue[Message]
	writer       asyncq.Consumer[Message]
	defaultLevel Level
	closed       bool
}

// NewManager creates a manager writing to stderr with the default format.
// Sources created from it default to level.
func NewManager(level Level) *Manager {
	return NewManagerWithWriter(NewStreamWriter(os.Stderr, LevelVerbose), level)
}

// NewManagerWithWriter creates a manager feeding the given writer. The
// writer goroutine starts immediately.
func NewManagerWithWriter(writer asyncq.Consumer[Message], level Level) *Manager {
	return &Manager{
		queue:        asyncq.NewManagedQueue(writer),
		writer:       writer,
		defaultLevel: level,
	}
}

// DefaultOutputLevel returns the output level given to new sources.
func (m *Manager) DefaultOutputLevel() Level {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.defaultLevel
}

// SetDefaultOutputLevel changes the level for sources created afterwards.
func (m *Manager) SetDefaultOutputLevel(level Level) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaultLevel = level
}

// NewSource creates a source with the manager's default output level.
func (m *Manager) NewSource(name string) Source {
	return m.NewSourceWithLevel(name, m.DefaultOutputLevel())
}

// NewSourceWithLevel creates a source with an explicit output level.
func (m *Manager) NewSourceWithLevel(name string, level Level) Source {
	return Source{name: name, manager: m, level: level}
}

// send pushes one message onto the current queue. It reports false once the
// manager has shut down.
func (m *Manager) send(msg Message) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return false
	}
	return m.queue.Push(msg)
}

// SetWriter swaps the writer. The old writer's queue is drained and joined
// before the new one starts, so no message is lost or reordered across the
// swap; sources keep working throughout. Returns the old writer and any
// failure it carried.
func (m *Manager) SetWriter(writer asyncq.Consumer[Message]) (asyncq.Consumer[Message], error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	old := m.writer
	err := m.queue.Close()
	m.queue = asyncq.NewManagedQueue(writer)
	m.writer = writer
	return old, err
}

// Close drains and stops the writer goroutine, then closes the writer if it
// owns resources. Sends after Close report rejection.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true

	var errs *multierror.Error
	if err := m.queue.Close(); err != nil {
		errs = multierror.Append(errs, err)
	}
	if closer, ok := m.writer.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			errs = multierror.Append(errs, err)
		}
	}
	return errs.ErrorOrNil()
}
