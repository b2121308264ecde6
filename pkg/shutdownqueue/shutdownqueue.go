// Package shutdownqueue provides a LIFO queue of cleanup tasks.
//
// A process-wide default queue is set up in init(). Register tasks anywhere
// via Add, and drain them explicitly at the end of main with:
//
//	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
//	defer cancel()
//	defer shutdownqueue.Shutdown(ctx) // or linter-friendly wrapper
//
// Components that own their own lifecycle (tests, embedded servers) can use
// a private queue from New instead of the default one.
//
// Tasks run once, in reverse order of registration. Panics are recovered.
// Shutdown is idempotent and returns an aggregated error via errors.Join.
package shutdownqueue

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Task is a shutdown function. It should honor ctx and return an error
// if it can't finish (or ctx is canceled).
type Task func(ctx context.Context) error

// Queue holds shutdown tasks until Shutdown drains them.
type Queue struct {
	mu     sync.Mutex
	tasks  []Task
	closed bool
}

var (
	q         *Queue
	onceSetup sync.Once
)

func init() {
	onceSetup.Do(func() {
		q = New()
	})
}

// New returns an empty queue.
func New() *Queue {
	return &Queue{tasks: make([]Task, 0, 8)}
}

// Add registers t on the default queue.
func Add(t Task) {
	q.Add(t)
}

// AddNamed registers t on the default queue; see Queue.AddNamed.
func AddNamed(name string, t Task) {
	q.AddNamed(name, t)
}

// Shutdown drains the default queue.
func Shutdown(ctx context.Context) error {
	return q.Shutdown(ctx)
}

// Add registers a task to be run on Shutdown, in LIFO order.
// Safe to call from any goroutine, including in init().
// If t is nil or shutdown has already started, Add does nothing.
func (sq *Queue) Add(t Task) {
	if t == nil {
		return
	}

	sq.mu.Lock()
	defer sq.mu.Unlock()

	if sq.closed {
		return
	}

	sq.tasks = append(sq.tasks, t)
}

// AddNamed is Add with the task's error prefixed by name, so a joined
// shutdown error says which component failed.
func (sq *Queue) AddNamed(name string, t Task) {
	if t == nil {
		return
	}

	sq.Add(func(ctx context.Context) error {
		err := t(ctx)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}

		return nil
	})
}

// Len reports how many tasks are waiting to run.
func (sq *Queue) Len() int {
	sq.mu.Lock()
	defer sq.mu.Unlock()

	return len(sq.tasks)
}

// Shutdown drains all registered tasks in LIFO order.
// It is safe to call multiple times; after the first complete (or partial) run,
// subsequent calls are no-ops.
//
// If ctx is canceled or times out mid-drain, Shutdown stops early and returns
// an error that includes both the context error and any task errors so far,
// joined with errors.Join.
func (sq *Queue) Shutdown(ctx context.Context) error {
	// Atomically take ownership of tasks and mark closed.
	sq.mu.Lock()

	if sq.closed && len(sq.tasks) == 0 {
		sq.mu.Unlock()

		return nil
	}

	sq.closed = true

	tasks := sq.tasks

	sq.tasks = nil

	sq.mu.Unlock()

	var errs []error

	for i := len(tasks) - 1; i >= 0; i-- {
		select {
		case <-ctx.Done():
			errs = append(errs, fmt.Errorf("shutdown canceled: %w", ctx.Err()))

			return errors.Join(errs...)
		default:
		}

		err := runTask(ctx, tasks[i])
		if err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func runTask(ctx context.Context, t Task) (err error) {
	defer func() {
		r := recover()
		if r != nil {
			err = fmt.Errorf("panic in shutdown task: %v", r)
		}
	}()

	return t(ctx)
}
