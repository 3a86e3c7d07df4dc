package indicator

import (
	"sync"
	"sync/atomic"
)

var (
	defaultCounter atomic.Pointer[Counter]
	defaultOnce    sync.Once
)

// Default returns the process-wide counter. If SetDefault has not been called,
// the first call creates a counter with no indicator. Every later call returns
// the same counter.
func Default() *Counter {
	defaultOnce.Do(func() {
		defaultCounter.CompareAndSwap(nil, New())
	})
	return defaultCounter.Load()
}

// SetDefault makes c the process-wide counter returned by Default.
// It is meant to be called once by the composition root before any work
// starts; outstanding activity on a replaced counter is not carried over.
func SetDefault(c *Counter) {
	if c == nil {
		return
	}
	defaultCounter.Store(c)
}
