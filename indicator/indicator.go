package indicator

import (
	"log/slog"
	"sync"
	"time"
)

// Indicator is the UI element that shows network activity.
// SetVisible(true) is called when activity starts and SetVisible(false) when
// it stops. Calls strictly alternate, starting with true.
type Indicator interface {
	SetVisible(visible bool)
}

// IndicatorFunc adapts an ordinary function to an Indicator.
type IndicatorFunc func(visible bool)

// SetVisible calls f(visible).
func (f IndicatorFunc) SetVisible(visible bool) { f(visible) }

// Nop discards every visibility change.
var Nop Indicator = IndicatorFunc(func(bool) {})

// Fanout returns an Indicator that forwards each change to every non-nil
// indicator, in order.
func Fanout(indicators ...Indicator) Indicator {
	list := make([]Indicator, 0, len(indicators))
	for _, ind := range indicators {
		if ind != nil {
			list = append(list, ind)
		}
	}
	return IndicatorFunc(func(visible bool) {
		for _, ind := range list {
			ind.SetVisible(visible)
		}
	})
}

// LogIndicator logs visibility changes AND forwards them to the next indicator.
type LogIndicator struct {
	logger *slog.Logger
	next   Indicator
}

// NewLogIndicator creates a log indicator.
// The next parameter is optional - if nil, changes are only logged.
func NewLogIndicator(logger *slog.Logger, next Indicator) *LogIndicator {
	return &LogIndicator{
		logger: logger,
		next:   next,
	}
}

// SetVisible logs the change and forwards it.
func (l *LogIndicator) SetVisible(visible bool) {
	if visible {
		l.logger.Info("network activity started")
	} else {
		l.logger.Info("network activity stopped")
	}
	if l.next != nil {
		l.next.SetVisible(visible)
	}
}

// DefaultHistorySize is the number of transitions a Recorder keeps when no
// size is given.
const DefaultHistorySize = 100

// Transition is one visibility change seen by a Recorder.
type Transition struct {
	Visible bool      `json:"visible"`
	At      time.Time `json:"at"`
}

// Recorder stores the current visibility and the most recent transitions.
// The server uses it to report indicator state.
type Recorder struct {
	mu          sync.RWMutex
	visible     bool
	lastChange  time.Time
	history     []Transition
	historySize int
	now         func() time.Time
}

// NewRecorder creates a recorder keeping up to size transitions.
// A size <= 0 uses DefaultHistorySize.
func NewRecorder(size int) *Recorder {
	if size <= 0 {
		size = DefaultHistorySize
	}
	return &Recorder{
		historySize: size,
		now:         time.Now,
	}
}

// SetVisible records the change.
func (r *Recorder) SetVisible(visible bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	at := r.now()
	r.visible = visible
	r.lastChange = at
	r.history = append(r.history, Transition{Visible: visible, At: at})
	if over := len(r.history) - r.historySize; over > 0 {
		r.history = append(r.history[:0], r.history[over:]...)
	}
}

// Visible returns the most recently recorded visibility.
func (r *Recorder) Visible() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.visible
}

// LastChange returns when visibility last changed, or the zero time if it
// never has.
func (r *Recorder) LastChange() time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lastChange
}

// Transitions returns a copy of the recorded transitions, oldest first.
func (r *Recorder) Transitions() []Transition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	// Return a copy to avoid concurrent slice access
	out := make([]Transition, len(r.history))
	copy(out, r.history)
	return out
}
