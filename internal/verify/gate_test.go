// ABOUTME: Tests for the Verification Gate state machine
// ABOUTME: Uses a fake clock to exercise token ageing

package verify

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/keepsake/internal/clock"
)

func newTestGate() (*Gate, *clock.FakeClock) {
	c := clock.Fake(time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC))
	return NewGate(WithClock(c)), c
}

func TestGate_StartsAbsent(t *testing.T) {
	g, _ := newTestGate()

	assert.Equal(t, Absent, g.State())
	_, ok := g.CurrentToken()
	assert.False(t, ok)

	_, err := g.Consume()
	assert.ErrorIs(t, err, ErrVerificationRequired)
}

func TestGate_BeginThenSuccess(t *testing.T) {
	g, _ := newTestGate()

	g.Begin()
	assert.Equal(t, Pending, g.State())
	_, err := g.Consume()
	assert.ErrorIs(t, err, ErrVerificationRequired)

	g.OnSuccess("tok-1")
	assert.Equal(t, Valid, g.State())
	tok, ok := g.CurrentToken()
	require.True(t, ok)
	assert.Equal(t, "tok-1", tok)
}

func TestGate_ConsumeIsSingleUse(t *testing.T) {
	g, _ := newTestGate()
	g.OnSuccess("tok-1")

	tok, err := g.Consume()
	require.NoError(t, err)
	assert.Equal(t, "tok-1", tok)
	assert.Equal(t, Absent, g.State())

	_, err = g.Consume()
	assert.ErrorIs(t, err, ErrVerificationRequired)
}

func TestGate_TokenAgesOut(t *testing.T) {
	g, c := newTestGate()
	g.OnSuccess("tok-1")

	c.Advance(DefaultLifetime - time.Second)
	assert.Equal(t, Valid, g.State())

	c.Advance(time.Second)
	assert.Equal(t, Expired, g.State())
	_, ok := g.CurrentToken()
	assert.False(t, ok)

	_, err := g.Consume()
	assert.ErrorIs(t, err, ErrVerificationRequired)
	assert.Equal(t, Absent, g.State())
}

func TestGate_CustomLifetime(t *testing.T) {
	c := clock.Fake(time.Unix(0, 0))
	g := NewGate(WithClock(c), WithLifetime(10*time.Second))
	g.OnSuccess("tok")

	c.Advance(10 * time.Second)
	assert.Equal(t, Expired, g.State())
}

func TestGate_WidgetCallbacksClear(t *testing.T) {
	tests := []struct {
		name string
		fn   func(*Gate)
	}{
		{"expire", (*Gate).OnExpire},
		{"error", (*Gate).OnError},
		{"invalidate", (*Gate).Invalidate},
		{"empty success", func(g *Gate) { g.OnSuccess("") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, _ := newTestGate()
			g.OnSuccess("tok")
			tt.fn(g)
			assert.Equal(t, Absent, g.State())
			_, ok := g.CurrentToken()
			assert.False(t, ok)
		})
	}
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "absent", Absent.String())
	assert.Equal(t, "pending", Pending.String())
	assert.Equal(t, "valid", Valid.String())
	assert.Equal(t, "expired", Expired.String())
}
