// ABOUTME: Single-slot notification queue with auto-dismiss
// ABOUTME: A newer notification pre-empts the visible one and restarts the timer

package notify

import (
	"sync"
	"time"

	"github.com/2389/keepsake/internal/clock"
)

// DefaultDuration is how long a notification stays visible.
const DefaultDuration = 3 * time.Second

// Severity of a notification.
type Severity string

const (
	Success Severity = "success"
	Error   Severity = "error"
)

// Notification is a transient message shown to the operator.
type Notification struct {
	Seq       uint64
	Message   string
	Severity  Severity
	CreatedAt time.Time
}

// EventKind says what happened to the visible slot.
type EventKind int

const (
	Shown EventKind = iota
	Dismissed
)

// Event is delivered to subscribers whenever the visible slot changes.
type Event struct {
	Kind         EventKind
	Notification Notification
}

// Queue holds at most one visible notification.
type Queue struct {
	mu          sync.Mutex
	clock       clock.Clock
	duration    time.Duration
	current     *Notification
	timer       clock.Timer
	seq         uint64
	subscribers []func(Event)
}

// Option configures a Queue.
type Option func(*Queue)

// WithClock replaces the real clock.
func WithClock(c clock.Clock) Option {
	return func(q *Queue) { q.clock = c }
}

// WithDuration overrides DefaultDuration. Non-positive values are ignored.
func WithDuration(d time.Duration) Option {
	return func(q *Queue) {
		if d > 0 {
			q.duration = d
		}
	}
}

// New creates an empty queue.
func New(opts ...Option) *Queue {
	q := &Queue{clock: clock.Real(), duration: DefaultDuration}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Subscribe registers fn for every Shown and Dismissed event. Callbacks run
// outside the queue's lock, on the goroutine that caused the change.
func (q *Queue) Subscribe(fn func(Event)) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.subscribers = append(q.subscribers, fn)
}

// Show replaces the visible notification and starts its dismiss timer.
func (q *Queue) Show(message string, severity Severity) Notification {
	q.mu.Lock()
	if q.timer != nil {
		q.timer.Stop()
	}
	q.seq++
	n := Notification{
		Seq:       q.seq,
		Message:   message,
		Severity:  severity,
		CreatedAt: q.clock.Now(),
	}
	q.current = &n
	seq := n.Seq
	q.timer = q.clock.AfterFunc(q.duration, func() { q.expire(seq) })
	subs := q.subscribers
	q.mu.Unlock()

	notifyAll(subs, Event{Kind: Shown, Notification: n})
	return n
}

// Dismiss removes the visible notification early.
func (q *Queue) Dismiss() {
	q.mu.Lock()
	if q.current == nil {
		q.mu.Unlock()
		return
	}
	n := *q.current
	q.clearLocked()
	subs := q.subscribers
	q.mu.Unlock()

	notifyAll(subs, Event{Kind: Dismissed, Notification: n})
}

// Current returns the visible notification.
func (q *Queue) Current() (Notification, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.current == nil {
		return Notification{}, false
	}
	return *q.current, true
}

// expire runs from the dismiss timer. A timer belonging to a pre-empted
// notification finds a newer sequence number and does nothing.
func (q *Queue) expire(seq uint64) {
	q.mu.Lock()
	if q.current == nil || q.current.Seq != seq {
		q.mu.Unlock()
		return
	}
	n := *q.current
	q.clearLocked()
	subs := q.subscribers
	q.mu.Unlock()

	notifyAll(subs, Event{Kind: Dismissed, Notification: n})
}

// clearLocked must be called with mu held.
func (q *Queue) clearLocked() {
	if q.timer != nil {
		q.timer.Stop()
		q.timer = nil
	}
	q.current = nil
}

func notifyAll(subs []func(Event), ev Event) {
	for _, fn := range subs {
		fn(ev)
	}
}
