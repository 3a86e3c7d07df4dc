package indicator

import (
	"log/slog"
	"sync"
)

// Dispatcher runs indicator and observer calls on behalf of a Counter.
//
// Dispatch is called while the Counter's lock is held, so calls arrive in the
// same order as the count updates that produced them. Implementations must
// preserve that order and must not call back into the Counter from Dispatch
// itself.
type Dispatcher interface {
	Dispatch(fn func())
}

// DispatcherFunc adapts an ordinary function to a Dispatcher.
type DispatcherFunc func(fn func())

// Dispatch calls f(fn).
func (f DispatcherFunc) Dispatch(fn func()) { f(fn) }

// Inline runs every call immediately on the calling goroutine.
var Inline Dispatcher = DispatcherFunc(func(fn func()) { fn() })

// QueueDispatcher delivers calls in FIFO order on a single dedicated goroutine.
// Enqueueing never blocks, so callbacks never run while a Counter's lock is held
// and may call back into the Counter.
type QueueDispatcher struct {
	logger *slog.Logger

	mu       sync.Mutex
	pending  []func()
	closed   bool
	finished bool

	wake chan struct{}
	done chan struct{}
}

// NewQueueDispatcher starts a QueueDispatcher. Call Close to stop it.
func NewQueueDispatcher(logger *slog.Logger) *QueueDispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	q := &QueueDispatcher{
		logger: logger,
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
	go q.loop()
	return q
}

// Dispatch queues fn for delivery. Calls dispatched while Close is draining
// are still queued behind the pending work; once the queue has drained, fn
// runs inline. Dispatch never waits for other callbacks.
func (q *QueueDispatcher) Dispatch(fn func()) {
	q.mu.Lock()
	if q.finished {
		q.mu.Unlock()
		q.run(fn)
		return
	}
	q.pending = append(q.pending, fn)
	if !q.closed {
		select {
		case q.wake <- struct{}{}:
		default:
		}
	}
	q.mu.Unlock()
}

// Close stops the delivery goroutine once everything queued, including calls
// dispatched during Close, has been delivered, and waits for it to exit.
// It is safe to call more than once.
func (q *QueueDispatcher) Close() {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.wake)
	}
	q.mu.Unlock()
	<-q.done
}

// Pending returns the number of calls waiting for delivery.
func (q *QueueDispatcher) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

func (q *QueueDispatcher) loop() {
	defer close(q.done)
	for range q.wake {
		q.drain()
	}
	q.drain()
}

// drain delivers queued calls until the queue is empty. Once the queue is
// found empty after Close, later dispatches run inline.
func (q *QueueDispatcher) drain() {
	for {
		q.mu.Lock()
		batch := q.pending
		q.pending = nil
		if len(batch) == 0 {
			if q.closed {
				q.finished = true
			}
			q.mu.Unlock()
			return
		}
		q.mu.Unlock()

		for _, fn := range batch {
			q.run(fn)
		}
	}
}

// run calls fn, recovering a panic so one faulty callback does not stop delivery.
func (q *QueueDispatcher) run(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			q.logger.Error("indicator callback panicked", "panic", r)
		}
	}()
	fn()
}
