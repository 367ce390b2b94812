package pool

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// ErrStopped is returned by Enqueue once StopWait has
// been called.
var ErrStopped = errors.New("pool stopped")

// Task is one unit of work. It runs exactly once on some
// worker.
type Task func()

// Pool is a bounded set of workers consuming a shared
// FIFO queue. Claim order across workers is unspecified.
type Pool struct {
	mu      sync.Mutex
	cond    *sync.Cond
	queue   []Task
	stopped bool

	workers int
	wg      sync.WaitGroup
}

// New starts a pool with the given number of workers.
func New(workers int) (*Pool, error) {
	const errCtx = "creating pool"

	if workers < 1 {
		return nil, fmt.Errorf(
			"%s: invalid worker count %d", errCtx, workers,
		)
	}

	po := &Pool{workers: workers}
	po.cond = sync.NewCond(&po.mu)

	po.wg.Add(workers)

	for i := 0; i < workers; i++ {
		go po.work()
	}

	return po, nil
}

// Workers returns the number of worker goroutines.
func (po *Pool) Workers() int {
	return po.workers
}

// Enqueue hands t to the pool without blocking.
func (po *Pool) Enqueue(t Task) error {
	po.mu.Lock()
	defer po.mu.Unlock()

	if po.stopped {
		return ErrStopped
	}

	po.queue = append(po.queue, t)
	po.cond.Signal()

	return nil
}

// StopWait stops accepting tasks and blocks until the
// queue is drained and all workers have exited. It is
// safe to call more than once.
func (po *Pool) StopWait() {
	po.mu.Lock()
	po.stopped = true
	po.cond.Broadcast()
	po.mu.Unlock()

	po.wg.Wait()
}

func (po *Pool) work() {
	defer po.wg.Done()

	for {
		t, ok := po.next()
		if !ok {
			return
		}

		run(t)
	}
}

// next blocks until a task is available or the pool is
// stopped with an empty queue.
func (po *Pool) next() (Task, bool) {
	po.mu.Lock()
	defer po.mu.Unlock()

	for len(po.queue) == 0 && !po.stopped {
		po.cond.Wait()
	}

	if len(po.queue) == 0 {
		return nil, false
	}

	t := po.queue[0]
	po.queue[0] = nil
	po.queue = po.queue[1:]

	return t, true
}

// run executes t, confining a panic to the task.
func run(t Task) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("task panicked", "panic", r)
		}
	}()

	t()
}
