package asyncq

import "github.com/hashicorp/go-multierror"

// Consumer is the capability to process one queue element. A ManagedQueue
// serializes invocations, so implementations need not be thread-safe.
type Consumer[T any] interface {
	Consume(item T) (TaskStatus, error)
}

// ConsumerFunc adapts a plain function to the Consumer interface.
type ConsumerFunc[T any] func(T) (TaskStatus, error)

func (f ConsumerFunc[T]) Consume(item T) (TaskStatus, error) {
	return f(item)
}

// VoidConsumerFunc adapts a handler that does not participate in the status
// protocol: every element maps to Continue unless the handler fails.
type VoidConsumerFunc[T any] func(T) error

func (f VoidConsumerFunc[T]) Consume(item T) (TaskStatus, error) {
	if err := f(item); err != nil {
		return Abort, err
	}
	return Continue, nil
}

// TeeConsumer forwards each element to every child consumer. The element is
// delivered to all children even when an earlier one fails; failures are
// aggregated. An Abort from any child aborts the tee, but Halt only
// propagates when every child halted: behind a managed queue a tee-wide
// Halt ends the consumer loop while pushes keep succeeding, so one stalled
// child must not silently stop the drain for its siblings.
type TeeConsumer[T any] struct {
	children []Consumer[T]
}

// NewTeeConsumer creates a tee over the given children.
func NewTeeConsumer[T any](children ...Consumer[T]) *TeeConsumer[T] {
	return &TeeConsumer[T]{children: children}
}

// Add appends a child consumer. Not safe to call concurrently with Consume.
func (t *TeeConsumer[T]) Add(c Consumer[T]) {
	t.children = append(t.children, c)
}

func (t *TeeConsumer[T]) Consume(item T) (TaskStatus, error) {
	var errs *multierror.Error
	aborted := false
	halted := 0
	for _, c := range t.children {
		s, err := c.Consume(item)
		if err != nil {
			errs = multierror.Append(errs, err)
		}
		switch s {
		case Abort:
			aborted = true
		case Halt:
			halted++
		}
	}
	status := Continue
	if aborted {
		status = Abort
	} else if len(t.children) > 0 && halted == len(t.children) {
		status = Halt
	}
	return status, errs.ErrorOrNil()
}
