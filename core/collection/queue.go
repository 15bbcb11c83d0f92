package collection

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// TaskFunc is a unit of work run by a Queue.
type TaskFunc func(ctx context.Context) error

// Task is a queued operation. Its completion signal fires only after every
// task enqueued before it has settled.
type Task struct {
	seq  uint64
	ctx  context.Context
	fn   TaskFunc
	done chan struct{}
	err  error
}

// Done is closed once the task has settled.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Err returns the task's result. It is only meaningful after Done is closed.
func (t *Task) Err() error {
	return t.err
}

// Wait blocks until the task settles or ctx is done.
func (t *Task) Wait(ctx context.Context) error {
	select {
	case <-t.done:
		return t.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Queue runs tasks one at a time in submission order. A failed task does not
// cancel the ones after it. The worker goroutine only lives while tasks are pending.
type Queue struct {
	mu       sync.Mutex
	pending  []*Task
	running  bool
	idle     chan struct{}
	seq      uint64
	inflight *Task
	logger   *zap.Logger
}

// NewQueue creates an idle queue.
func NewQueue(logger *zap.Logger) *Queue {
	if logger == nil {
		logger = zap.NewNop()
	}
	idle := make(chan struct{})
	close(idle)
	return &Queue{idle: idle, logger: logger}
}

// Enqueue appends fn and returns its task handle.
func (q *Queue) Enqueue(ctx context.Context, fn TaskFunc) *Task {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.seq++
	t := &Task{seq: q.seq, ctx: ctx, fn: fn, done: make(chan struct{})}
	q.pending = append(q.pending, t)

	if !q.running {
		q.running = true
		q.idle = make(chan struct{})
		go q.drain()
	}
	return t
}

func (q *Queue) drain() {
	for {
		q.mu.Lock()
		if len(q.pending) == 0 {
			q.running = false
			q.inflight = nil
			close(q.idle)
			q.mu.Unlock()
			return
		}
		t := q.pending[0]
		q.pending[0] = nil
		q.pending = q.pending[1:]
		q.inflight = t
		q.mu.Unlock()

		t.err = q.execute(t)
		if t.err != nil {
			q.logger.Debug("Queued task failed", zap.Uint64("seq", t.seq), zap.Error(t.err))
		}
		close(t.done)
	}
}

func (q *Queue) execute(t *Task) (err error) {
	if err := t.ctx.Err(); err != nil {
		return err
	}
	defer func() {
		if r := recover(); r != nil {
			q.logger.Error("Queued task panicked", zap.Uint64("seq", t.seq), zap.Any("panic", r))
			err = fmt.Errorf("task %d panicked: %v", t.seq, r)
		}
	}()
	return t.fn(t.ctx)
}

// Idle returns a channel closed when no task is pending or running.
func (q *Queue) Idle() <-chan struct{} {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.idle
}

// Wait blocks until the queue drains or ctx is done.
func (q *Queue) Wait(ctx context.Context) error {
	select {
	case <-q.Idle():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Pending returns the number of tasks not yet settled, including the running one.
func (q *Queue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := len(q.pending)
	if q.inflight != nil {
		n++
	}
	return n
}
