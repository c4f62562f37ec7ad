// ABOUTME: Verification Gate tracking the one-time human-verification token
// ABOUTME: Tokens are single use and age out after the challenge provider's lifetime

package verify

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/2389/keepsake/internal/clock"
)

// DefaultLifetime is how long a Turnstile token stays redeemable.
const DefaultLifetime = 300 * time.Second

// ErrVerificationRequired is returned when a gated operation is attempted
// without a valid token.
var ErrVerificationRequired = errors.New("human verification required")

// State is the lifecycle state of the verification token.
type State int

const (
	Absent State = iota
	Pending
	Valid
	Expired
)

func (s State) String() string {
	switch s {
	case Absent:
		return "absent"
	case Pending:
		return "pending"
	case Valid:
		return "valid"
	case Expired:
		return "expired"
	default:
		return "unknown"
	}
}

// Gate holds at most one verification token. It subscribes to the challenge
// widget's success, expiry and error callbacks. Without a success callback
// the gate never yields a token, so gated operations stay blocked.
type Gate struct {
	mu       sync.Mutex
	clock    clock.Clock
	lifetime time.Duration
	state    State
	token    string
	issuedAt time.Time
	logger   *slog.Logger
}

// Option configures a Gate.
type Option func(*Gate)

// WithClock replaces the real clock.
func WithClock(c clock.Clock) Option {
	return func(g *Gate) { g.clock = c }
}

// WithLifetime overrides DefaultLifetime. Non-positive values are ignored.
func WithLifetime(d time.Duration) Option {
	return func(g *Gate) {
		if d > 0 {
			g.lifetime = d
		}
	}
}

// NewGate creates a gate in the Absent state.
func NewGate(opts ...Option) *Gate {
	g := &Gate{
		clock:    clock.Real(),
		lifetime: DefaultLifetime,
		logger:   slog.Default().With("component", "verify"),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Begin records that a challenge is being shown to the operator.
// Any previous token is discarded.
func (g *Gate) Begin() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.clearLocked()
	g.state = Pending
}

// OnSuccess stores a freshly issued token. An empty token is treated as a
// widget error.
func (g *Gate) OnSuccess(token string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if token == "" {
		g.logger.Warn("challenge succeeded without a token")
		g.clearLocked()
		return
	}
	g.token = token
	g.issuedAt = g.clock.Now()
	g.state = Valid
	g.logger.Debug("verification token issued")
}

// OnExpire handles the widget reporting that its token expired.
func (g *Gate) OnExpire() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.logger.Debug("verification token expired")
	g.clearLocked()
}

// OnError handles a widget failure.
func (g *Gate) OnError() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.logger.Warn("verification challenge failed")
	g.clearLocked()
}

// Invalidate discards the token, forcing a fresh challenge.
func (g *Gate) Invalidate() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.clearLocked()
}

// State reports the current state. A Valid token older than the lifetime
// reports Expired.
func (g *Gate) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.stateLocked()
}

// CurrentToken returns the token if it is Valid and unexpired.
func (g *Gate) CurrentToken() (string, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.stateLocked() != Valid {
		return "", false
	}
	return g.token, true
}

// Consume returns the Valid token and clears the gate in the same step.
// Each gated dispatch attempt consumes exactly one token whatever its outcome.
func (g *Gate) Consume() (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.stateLocked() != Valid {
		if g.state == Valid {
			// aged out; drop it so the state is Absent again
			g.clearLocked()
		}
		return "", ErrVerificationRequired
	}
	token := g.token
	g.clearLocked()
	return token, nil
}

// stateLocked must be called with mu held.
func (g *Gate) stateLocked() State {
	if g.state == Valid && g.clock.Now().Sub(g.issuedAt) >= g.lifetime {
		return Expired
	}
	return g.state
}

// clearLocked must be called with mu held.
func (g *Gate) clearLocked() {
	g.token = ""
	g.issuedAt = time.Time{}
	g.state = Absent
}
