// ABOUTME: Tests for the notification queue
// ABOUTME: Drives the dismiss timer with a fake clock

package notify

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/keepsake/internal/clock"
)

func newTestQueue() (*Queue, *clock.FakeClock) {
	c := clock.Fake(time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC))
	return New(WithClock(c)), c
}

func TestQueue_ShowAndAutoDismiss(t *testing.T) {
	q, c := newTestQueue()

	q.Show("saved", Success)
	n, ok := q.Current()
	require.True(t, ok)
	assert.Equal(t, "saved", n.Message)
	assert.Equal(t, Success, n.Severity)
	assert.Equal(t, c.Now(), n.CreatedAt)

	c.Advance(DefaultDuration - time.Millisecond)
	_, ok = q.Current()
	assert.True(t, ok)

	c.Advance(time.Millisecond)
	_, ok = q.Current()
	assert.False(t, ok)
}

func TestQueue_PreemptionRestartsTimer(t *testing.T) {
	q, c := newTestQueue()

	q.Show("first", Success)
	c.Advance(2 * time.Second)
	q.Show("second", Error)

	// first's deadline passes; second must stay visible
	c.Advance(1500 * time.Millisecond)
	n, ok := q.Current()
	require.True(t, ok)
	assert.Equal(t, "second", n.Message)

	c.Advance(1500 * time.Millisecond)
	_, ok = q.Current()
	assert.False(t, ok)
}

func TestQueue_StaleExpiryIgnored(t *testing.T) {
	q, _ := newTestQueue()

	first := q.Show("first", Success)
	q.Show("second", Success)
	q.expire(first.Seq)

	n, ok := q.Current()
	require.True(t, ok)
	assert.Equal(t, "second", n.Message)
}

func TestQueue_DismissCancelsTimer(t *testing.T) {
	q, c := newTestQueue()
	var events []Event
	q.Subscribe(func(ev Event) { events = append(events, ev) })

	q.Show("hello", Error)
	q.Dismiss()
	assert.Equal(t, 0, c.Pending())

	_, ok := q.Current()
	assert.False(t, ok)

	require.Len(t, events, 2)
	assert.Equal(t, Shown, events[0].Kind)
	assert.Equal(t, Dismissed, events[1].Kind)
	assert.Equal(t, "hello", events[1].Notification.Message)

	q.Dismiss()
	assert.Len(t, events, 2)
}

func TestQueue_CustomDuration(t *testing.T) {
	c := clock.Fake(time.Unix(0, 0))
	q := New(WithClock(c), WithDuration(10*time.Second))

	q.Show("x", Success)
	c.Advance(DefaultDuration)
	_, ok := q.Current()
	assert.True(t, ok)

	c.Advance(7 * time.Second)
	_, ok = q.Current()
	assert.False(t, ok)
}
