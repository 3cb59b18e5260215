// ============================================================================
// ManagedQueue - Queue + Scope + Dedicated Consumer
// ============================================================================
//
// Package: pkg/asyncq
// File: managed.go
// Purpose: Bundle a queue, a stop scope and exactly one consumer so that
//          shutdown drains pending work exactly once
//
// Shutdown contract:
//   - Once the scope is stopped, Push rejects and has no side effect.
//   - Every element whose Push succeeded before the abort is delivered to
//     the consumer before Close returns, unless the consumer halted or
//     failed first; elements behind that point stay in the queue.
//   - The stop check and the append share the queue's critical section, and
//     the consumer's final empty check runs under the same mutex. For any
//     push P and abort A: if P takes the lock first the consumer observes
//     P's element before halting, otherwise P returns false.
//
// The consumer goroutine is spawned at construction and runs until the
// queue is stopped and drained, the consumer halts, or the consumer fails.
// A failure is captured in the consumer handle, aborts the scope, and is
// re-raised by Close.
//
// The consumer is a dedicated worker with its own loop, not a generic
// LoopTask: the loop runner's between-iteration stop check could observe
// the stop and exit while a backlog is still queued, which would strand
// every element pushed before the abort. Here the only exits are the
// atomic stopped-and-empty observation inside the wait and the consumer's
// own verdict, so the drain rule holds however the abort races producers.
//
// ============================================================================

package asyncq

import (
	"fmt"
	"runtime/debug"
	"sync"
	"time"
)

// ManagedQueue owns a queue, a scope and a single consumer. Producers share
// the handle; the consumer goroutine is internal.
type ManagedQueue[T any] struct {
	queue    *Queue[T]
	scope    *Scope
	consumer Consumer[T]
	handle   *Handle[TaskStatus]
	condRef  CondRef

	closeOnce sync.Once
	closeErr  error
}

// NewManagedQueue creates a managed queue on a fresh scope.
func NewManagedQueue[T any](consumer Consumer[T]) *ManagedQueue[T] {
	return NewManagedQueueWithScope(NewScope(), consumer)
}

// NewManagedQueueWithScope creates a managed queue on an adopted scope, so
// several queues and loops can share one stop signal. The consumer
// goroutine starts immediately.
func NewManagedQueueWithScope[T any](sc *Scope, consumer Consumer[T]) *ManagedQueue[T] {
	m := &ManagedQueue[T]{
		queue:    NewQueue[T](),
		scope:    sc,
		consumer: consumer,
	}
	// Registered for the lifetime of the consumer loop: Abort must wake a
	// consumer parked on the empty queue.
	m.condRef = sc.RegisterCond(m.queue.Cond())
	m.handle = spawn(m.runConsumer)
	return m
}

// runConsumer is the dedicated consumer worker: wait for an element or the
// stop signal, deliver one element, repeat. It returns Halt only after
// atomically observing stopped-and-empty under the queue mutex, or when
// the consumer ends the loop itself; a failure or panic aborts the scope
// and travels through the handle.
func (m *ManagedQueue[T]) runConsumer() (status TaskStatus, err error) {
	defer func() {
		if r := recover(); r != nil {
			status = Abort
			err = &PanicError{Value: r, Stack: debug.Stack()}
			m.scope.Abort()
		}
	}()
	q := m.queue
	for {
		q.mu.Lock()
		for q.EmptyLocked() && !m.scope.Stopped() {
			q.cond.Wait()
		}
		item, ok := q.TryExtractLocked()
		q.mu.Unlock()
		if !ok {
			// Stopped and fully drained.
			return Halt, nil
		}
		status, err = m.consumer.Consume(item)
		if err != nil {
			m.scope.Abort()
			return Abort, err
		}
		switch status {
		case Continue:
		case Halt:
			return Halt, nil
		case Abort:
			m.scope.Abort()
			return Abort, nil
		default:
			panic(fmt.Sprintf("asyncq: consumer returned invalid status %d", int(status)))
		}
	}
}

// Push appends value unless the scope has stopped, in which case it reports
// false and leaves the queue untouched.
func (m *ManagedQueue[T]) Push(value T) bool {
	q := m.queue
	q.mu.Lock()
	defer q.mu.Unlock()
	if m.scope.Stopped() {
		return false
	}
	q.PushLocked(value)
	return true
}

// TryExtract removes an element ahead of the consumer. Mostly useful in
// tests.
func (m *ManagedQueue[T]) TryExtract() (T, bool) {
	return m.queue.TryExtract()
}

// Len returns the number of queued elements.
func (m *ManagedQueue[T]) Len() int {
	return m.queue.Len()
}

// Empty reports whether the queue holds no elements.
func (m *ManagedQueue[T]) Empty() bool {
	return m.queue.Empty()
}

// Queue exposes the inner queue for composed critical sections.
func (m *ManagedQueue[T]) Queue() *Queue[T] {
	return m.queue
}

// Scope returns the stop scope shared by the queue and its loops.
func (m *ManagedQueue[T]) Scope() *Scope {
	return m.scope
}

// ConsumerHandle returns the handle of the internal consumer loop.
func (m *ManagedQueue[T]) ConsumerHandle() *Handle[TaskStatus] {
	return m.handle
}

// ProducerFunc is one iteration of a producer loop. It pushes through the
// managed queue it receives and should treat a false Push as the cue to
// return Halt.
type ProducerFunc[T any] func(q *ManagedQueue[T]) (TaskStatus, error)

// LoopProducer runs f repeatedly on the queue's scope, handing it this
// managed queue.
func (m *ManagedQueue[T]) LoopProducer(f ProducerFunc[T]) *Handle[TaskStatus] {
	return LoopTask(m.scope, func() (TaskStatus, error) { return f(m) })
}

// LoopProducerEvery is LoopProducer with a heartbeat between iterations.
func (m *ManagedQueue[T]) LoopProducerEvery(heartbeat time.Duration, f ProducerFunc[T]) *Handle[TaskStatus] {
	return LoopTaskEvery(m.scope, heartbeat, func() (TaskStatus, error) { return f(m) })
}

// Close aborts the scope, joins the consumer, and returns the consumer's
// failure, if any. Elements pushed before the abort have all been consumed
// when Close returns, unless the consumer halted or failed first, in which
// case the elements after that point remain queued. Close is idempotent;
// later calls return the same error.
func (m *ManagedQueue[T]) Close() error {
	m.closeOnce.Do(func() {
		m.scope.Abort()
		_, err := m.handle.Wait()
		m.condRef.Release()
		m.closeErr = err
	})
	return m.closeErr
}
