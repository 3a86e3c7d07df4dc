package indicator

import "sync"

// Claim is one outstanding unit of activity started with Counter.Begin.
// End releases it; only the first call has an effect.
type Claim struct {
	counter *Counter
	once    sync.Once
}

// Begin increments the counter and returns a claim whose End decrements it.
func (c *Counter) Begin() *Claim {
	c.Increment()
	return &Claim{counter: c}
}

// End releases the claim. It is safe to call more than once and from
// multiple goroutines.
func (cl *Claim) End() {
	if cl == nil {
		return
	}
	cl.once.Do(cl.counter.Decrement)
}

// Track wraps f between an increment and a decrement of c.
// The decrement happens even if f panics.
//
// Usage:
//
//	func (c *Client) Fetch(ctx context.Context) error {
//	    return indicator.Track(c.counter, func() error {
//	        return c.do(ctx)
//	    })
//	}
func Track(c *Counter, f func() error) error {
	claim := c.Begin()
	defer claim.End()
	return f()
}
