// Package indicator tracks in-flight network activity and drives a single
// "activity is occurring" signal for a host UI.
//
// The package implements a counting mechanism that behaves like a saturating
// semaphore. Every unit of network work increments the counter when it starts
// and decrements it when it finishes. The attached Indicator is told to show
// itself when the count leaves zero and to hide itself when the count returns
// to zero, and is never called for any other change.
//
// # Architecture
//
// The package follows the handler/writer pattern of the standard library's
// log/slog package:
//
//   - Counter: receives increments and decrements (analogous to slog.Logger)
//   - Indicator: receives visibility changes (analogous to slog.Handler)
//   - Dispatcher: decides where indicator calls run
//
// # Usage
//
// The composition root creates one Counter and hands it to every component
// that performs network work:
//
//	queue := indicator.NewQueueDispatcher(logger)
//	defer queue.Close()
//
//	counter := indicator.New(
//	    indicator.WithIndicator(indicator.NewLogIndicator(logger, widget)),
//	    indicator.WithDispatcher(queue),
//	)
//
//	counter.Increment()
//	// ... perform request
//	counter.Decrement()
//
// Callers that prefer a token over manual balancing use Begin:
//
//	claim := counter.Begin()
//	defer claim.End()
//
// or Track, which wraps a function:
//
//	return indicator.Track(counter, func() error {
//	    return fetch(ctx)
//	})
//
// # Unbalanced decrements
//
// Decrementing an idle counter is a no-op. The count never goes negative and
// the indicator is only hidden on the transition from exactly one to zero.
//
// # Default counter
//
// Hosts that prefer global lookup can use Default, which lazily creates a
// counter with no indicator, or install their own counter once at startup with
// SetDefault.
package indicator
