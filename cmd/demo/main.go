// Minimal walkthrough of the library without the CLI: one managed queue,
// two producers, asynchronous messaging, and a timed shutdown that drains
// everything it accepted.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/ChuLiYu/async-queue/pkg/asyncq"
	"github.com/ChuLiYu/async-queue/pkg/messaging"
)

func main() {
	mgr := messaging.NewManager(messaging.LevelInfo)
	src := mgr.NewSource("demo")

	var consumed int
	mq := asyncq.NewManagedQueue(asyncq.VoidConsumerFunc[string](func(s string) error {
		consumed++
		src.Infof("got %s", s)
		return nil
	}))

	for i := 0; i < 2; i++ {
		producer := i
		seq := 0
		mq.LoopProducerEvery(50*time.Millisecond, func(q *asyncq.ManagedQueue[string]) (asyncq.TaskStatus, error) {
			if !q.Push(fmt.Sprintf("producer-%d item-%d", producer, seq)) {
				return asyncq.Halt, nil
			}
			seq++
			return asyncq.Continue, nil
		})
	}

	// Stop the whole pipeline after one second; Close drains the backlog.
	mq.Scope().SetTimeout(time.Second)
	mq.Scope().Wait()
	if err := mq.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "consumer failed: %v\n", err)
		os.Exit(1)
	}

	src.Infof("done after %d items", consumed)
	if err := mgr.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "messaging failed: %v\n", err)
		os.Exit(1)
	}
}
