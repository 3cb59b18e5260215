package asyncq

import "fmt"

// TaskStatus describes the return value of a looping task and drives the
// loop runner's control flow.
type TaskStatus int

const (
	// Continue means the task should run for another iteration.
	Continue TaskStatus = iota
	// Halt ends the loop for this task only; other tasks on the scope keep
	// running.
	Halt
	// Abort ends the loop and stops the whole scope.
	Abort
)

// String returns the status name for logs and test failures.
func (s TaskStatus) String() string {
	switch s {
	case Continue:
		return "CONTINUE"
	case Halt:
		return "HALT"
	case Abort:
		return "ABORT"
	default:
		return fmt.Sprintf("TaskStatus(%d)", int(s))
	}
}
