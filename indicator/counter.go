package indicator

import (
	"log/slog"
	"sync"
)

// State is the externally observable state of a Counter.
type State int

const (
	// Idle means no activity is outstanding.
	Idle State = iota
	// Active means at least one activity is outstanding.
	Active
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Active:
		return "active"
	default:
		return "unknown"
	}
}

// Observer receives every change to a Counter, not just the crossings.
// Calls go through the counter's Dispatcher in the order the changes happened.
type Observer interface {
	// CountChanged reports the count after an increment or decrement.
	CountChanged(count int)
	// DecrementIgnored reports a decrement on an idle counter.
	DecrementIgnored()
}

// Counter counts outstanding network activity and tells its Indicator when
// the count crosses zero.
//
// THREAD SAFETY:
// All methods are safe for concurrent use. The crossing decision is made under
// the same lock as the count update, and indicator calls are handed to the
// Dispatcher before the lock is released, so deliveries follow the order of
// the updates that caused them.
type Counter struct {
	mu         sync.Mutex
	count      int
	indicator  Indicator
	dispatcher Dispatcher
	observer   Observer
	logger     *slog.Logger
}

// Option configures a Counter.
type Option func(*Counter)

// WithIndicator sets the indicator notified on zero crossings.
func WithIndicator(ind Indicator) Option {
	return func(c *Counter) {
		if ind != nil {
			c.indicator = ind
		}
	}
}

// WithDispatcher sets where indicator and observer calls run.
// Default is Inline, which calls them while the counter's lock is held.
func WithDispatcher(d Dispatcher) Option {
	return func(c *Counter) {
		if d != nil {
			c.dispatcher = d
		}
	}
}

// WithObserver registers an observer for every count change.
func WithObserver(o Observer) Option {
	return func(c *Counter) {
		c.observer = o
	}
}

// WithLogger sets the logger used for debug output on crossings.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Counter) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates an idle Counter.
func New(opts ...Option) *Counter {
	c := &Counter{
		indicator:  Nop,
		dispatcher: Inline,
		logger:     slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Increment records the start of one unit of activity.
// If the counter was idle, the indicator is shown.
func (c *Counter) Increment() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.count++
	n := c.count
	if n == 1 {
		c.logger.Debug("network activity started")
		c.dispatcher.Dispatch(func() { c.indicator.SetVisible(true) })
	}
	c.notifyCount(n)
}

// Decrement records the end of one unit of activity.
// If the count reaches zero, the indicator is hidden. Decrementing an idle
// counter does nothing.
func (c *Counter) Decrement() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.count == 0 {
		if o := c.observer; o != nil {
			c.dispatcher.Dispatch(o.DecrementIgnored)
		}
		return
	}

	c.count--
	n := c.count
	if n == 0 {
		c.logger.Debug("network activity stopped")
		c.dispatcher.Dispatch(func() { c.indicator.SetVisible(false) })
	}
	c.notifyCount(n)
}

// notifyCount must be called with c.mu held.
func (c *Counter) notifyCount(n int) {
	if o := c.observer; o != nil {
		c.dispatcher.Dispatch(func() { o.CountChanged(n) })
	}
}

// Count returns the number of outstanding activities.
func (c *Counter) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.count
}

// State returns Active when any activity is outstanding, otherwise Idle.
func (c *Counter) State() State {
	if c.Count() > 0 {
		return Active
	}
	return Idle
}

// Active reports whether any activity is outstanding.
func (c *Counter) Active() bool {
	return c.State() == Active
}
