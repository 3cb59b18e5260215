package asyncq

// ============================================================================
// Scope Test File
// Purpose: Verify stop signal semantics, timeout races, CV registration
// ============================================================================

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// waitTimeout is the bound used to assert that a wake-up is prompt.
const waitTimeout = 2 * time.Second

// ============================================================================
// Basic State Machine Tests
// ============================================================================

func TestNewScope(t *testing.T) {
	sc := NewScope()
	assert.False(t, sc.Stopped())

	select {
	case <-sc.Done():
		t.Fatal("done channel closed on a running scope")
	default:
	}
}

func TestAbort(t *testing.T) {
	sc := NewScope()
	sc.Abort()
	assert.True(t, sc.Stopped())

	select {
	case <-sc.Done():
	default:
		t.Fatal("done channel still open after abort")
	}
}

// TestAbortIdempotent verifies calling Abort k times produces the same
// post-state without panicking on the second close.
func TestAbortIdempotent(t *testing.T) {
	sc := NewScope()
	for i := 0; i < 5; i++ {
		assert.NotPanics(t, sc.Abort)
	}
	assert.True(t, sc.Stopped())
}

// TestAbortConcurrent races many aborts; exactly one must perform the
// transition.
func TestAbortConcurrent(t *testing.T) {
	sc := NewScope()
	const n = 32

	var wg sync.WaitGroup
	wg.Add(n)
	transitions := make(chan bool, n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			transitions <- sc.tryAbort()
		}()
	}
	wg.Wait()
	close(transitions)

	winners := 0
	for won := range transitions {
		if won {
			winners++
		}
	}
	assert.Equal(t, 1, winners)
	assert.True(t, sc.Stopped())
}

func TestWaitAfterStop(t *testing.T) {
	sc := NewScope()
	sc.Abort()

	done := make(chan struct{})
	go func() {
		sc.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(waitTimeout):
		t.Fatal("Wait did not return on a stopped scope")
	}
}

func TestWaitWakesOnAbort(t *testing.T) {
	sc := NewScope()

	done := make(chan struct{})
	go func() {
		sc.Wait()
		close(done)
	}()

	sc.Abort()
	select {
	case <-done:
	case <-time.After(waitTimeout):
		t.Fatal("Wait did not wake on abort")
	}
}

// ============================================================================
// Timeout Tests
// ============================================================================

func TestSetTimeoutFires(t *testing.T) {
	sc := NewScope()
	h := sc.SetTimeout(10 * time.Millisecond)

	fired, err := h.Wait()
	require.NoError(t, err)
	assert.True(t, fired)
	assert.True(t, sc.Stopped())
}

// TestSetTimeoutLosesToAbort covers the race where an external abort beats
// the deadline: the handle must resolve to false.
func TestSetTimeoutLosesToAbort(t *testing.T) {
	sc := NewScope()
	h := sc.SetTimeout(5 * time.Second)

	time.Sleep(10 * time.Millisecond)
	sc.Abort()

	start := time.Now()
	fired, err := h.Wait()
	require.NoError(t, err)
	assert.False(t, fired)
	assert.Less(t, time.Since(start), waitTimeout, "timeout worker should resolve promptly after abort")
}

func TestSetTimeoutZeroDuration(t *testing.T) {
	sc := NewScope()
	h := sc.SetTimeout(0)

	fired, err := h.Wait()
	require.NoError(t, err)
	assert.True(t, fired)
	assert.True(t, sc.Stopped())
}

func TestSetTimeoutAfterAbort(t *testing.T) {
	sc := NewScope()
	sc.Abort()

	fired, err := sc.SetTimeout(0).Wait()
	require.NoError(t, err)
	assert.False(t, fired, "a timeout on a stopped scope never performs the abort")
}

func TestSetDeadline(t *testing.T) {
	sc := NewScope()
	h := sc.SetDeadline(time.Now().Add(10 * time.Millisecond))

	fired, err := h.Wait()
	require.NoError(t, err)
	assert.True(t, fired)
	assert.True(t, sc.Stopped())
}

// ============================================================================
// Condition Variable Registration Tests
// ============================================================================

// TestRegisteredCondWakesOnAbort parks a worker on its own signal and
// verifies an abort from another goroutine wakes it promptly.
func TestRegisteredCondWakesOnAbort(t *testing.T) {
	sc := NewScope()
	sig := NewSignal()
	ref := sc.RegisterCond(sig.Cond())
	defer ref.Release()

	woke := make(chan struct{})
	go func() {
		sig.Lock()
		for !sc.Stopped() {
			sig.WaitLocked()
		}
		sig.Unlock()
		close(woke)
	}()

	// Give the worker a moment to park before aborting.
	time.Sleep(10 * time.Millisecond)
	sc.Abort()

	select {
	case <-woke:
	case <-time.After(waitTimeout):
		t.Fatal("registered waiter was not woken by abort")
	}
}

func TestCondRefCounting(t *testing.T) {
	sc := NewScope()
	sig := NewSignal()

	ref1 := sc.RegisterCond(sig.Cond())
	ref2 := sc.RegisterCond(sig.Cond())
	assert.Equal(t, 2, sc.condRefCount(sig.Cond()))

	ref1.Release()
	assert.Equal(t, 1, sc.condRefCount(sig.Cond()))

	ref2.Release()
	assert.Equal(t, 0, sc.condRefCount(sig.Cond()))
}

func TestCondRefDoubleReleasePanics(t *testing.T) {
	sc := NewScope()
	sig := NewSignal()

	ref := sc.RegisterCond(sig.Cond())
	ref.Release()
	assert.Panics(t, func() { ref.Release() })
}

// TestRegisterAfterAbort verifies registration still succeeds on a stopped
// scope and that a waiter following the predicate discipline never blocks.
func TestRegisterAfterAbort(t *testing.T) {
	sc := NewScope()
	sc.Abort()

	sig := NewSignal()
	ref := sc.RegisterCond(sig.Cond())
	defer ref.Release()

	done := make(chan struct{})
	go func() {
		sig.Lock()
		for !sc.Stopped() {
			sig.WaitLocked()
		}
		sig.Unlock()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(waitTimeout):
		t.Fatal("waiter blocked on a scope that was already stopped")
	}
}
