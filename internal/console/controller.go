// ABOUTME: Console Controller composing gate, session, dispatcher, caches, locks and notifications
// ABOUTME: Drives the LoggedOut -> Authenticating -> LoggedIn(tab) state machine

package console

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/2389/keepsake/internal/cache"
	"github.com/2389/keepsake/internal/dispatch"
	"github.com/2389/keepsake/internal/i18n"
	"github.com/2389/keepsake/internal/notify"
	"github.com/2389/keepsake/internal/oplock"
	"github.com/2389/keepsake/internal/resource"
	"github.com/2389/keepsake/internal/session"
	"github.com/2389/keepsake/internal/verify"
)

var (
	// ErrInFlight means the same mutation is already running. It is not
	// surfaced to the operator.
	ErrInFlight = errors.New("operation already in flight")
	// ErrNotLoggedIn is returned by operations that need LoggedIn.
	ErrNotLoggedIn = errors.New("not logged in")
	// ErrLoginInProgress is returned by Login outside LoggedOut.
	ErrLoginInProgress = errors.New("login already in progress or completed")
	// ErrSessionEnded means a result arrived after logout and was discarded.
	ErrSessionEnded = errors.New("session ended before the result arrived")
	// ErrUnknownItem means the item is not in the local cache.
	ErrUnknownItem = errors.New("item not in cache")
	// ErrUnknownTab is returned for a tab that is not a collection.
	ErrUnknownTab = errors.New("unknown tab")
)

// State is the controller's top-level state.
type State int

const (
	LoggedOut State = iota
	Authenticating
	LoggedIn
)

func (s State) String() string {
	switch s {
	case LoggedOut:
		return "logged-out"
	case Authenticating:
		return "authenticating"
	case LoggedIn:
		return "logged-in"
	default:
		return "unknown"
	}
}

// DefaultAuthor is attached to memories created without an author.
const DefaultAuthor = "Admin"

// Controller owns all console state. Every method is safe for concurrent use.
type Controller struct {
	transport dispatch.Transport
	gate      *verify.Gate
	session   *session.Session
	locks     *oplock.Registry
	toasts    *notify.Queue
	tr        *i18n.Translator
	logger    *slog.Logger

	contacts    *cache.Collection[resource.ContactEntry]
	memories    *cache.Collection[resource.MemoryArticle]
	merchandise *cache.Collection[resource.MerchandiseItem]
	orders      *cache.Collection[resource.Order]

	mu                sync.Mutex
	state             State
	tab               resource.Kind
	epoch             uint64
	needsVerification bool
}

// New creates a controller in LoggedOut.
func New(transport dispatch.Transport, gate *verify.Gate, toasts *notify.Queue, tr *i18n.Translator) *Controller {
	return &Controller{
		transport:   transport,
		gate:        gate,
		session:     session.New(),
		locks:       oplock.New(),
		toasts:      toasts,
		tr:          tr,
		logger:      slog.Default().With("component", "console"),
		contacts:    cache.New[resource.ContactEntry](cache.OrderingFor(resource.KindContacts)),
		memories:    cache.New[resource.MemoryArticle](cache.OrderingFor(resource.KindMemories)),
		merchandise: cache.New[resource.MerchandiseItem](cache.OrderingFor(resource.KindMerchandise)),
		orders:      cache.New[resource.Order](cache.OrderingFor(resource.KindOrders)),
		tab:         resource.KindContacts,
	}
}

// Login authenticates with password. It requires a Valid verification token
// and consumes it whatever the outcome. On success all four collections are
// fetched before Login returns.
func (c *Controller) Login(ctx context.Context, password string) error {
	if strings.TrimSpace(password) == "" {
		return fmt.Errorf("%w: password", dispatch.ErrMissingField)
	}

	c.mu.Lock()
	if c.state != LoggedOut {
		c.mu.Unlock()
		return ErrLoginInProgress
	}
	token, err := c.gate.Consume()
	if err != nil {
		c.needsVerification = true
		c.mu.Unlock()
		return err
	}
	c.needsVerification = false
	c.state = Authenticating
	epoch := c.epoch
	c.mu.Unlock()

	c.logger.Info("login attempt")
	_, err = dispatch.Dispatch[dispatch.Ack](ctx, c.transport, dispatch.Login{}, dispatch.Credentials{
		Password: password,
		Token:    token,
	})

	c.mu.Lock()
	if c.epoch != epoch {
		c.mu.Unlock()
		c.logger.Debug("discarding login result after logout")
		return ErrSessionEnded
	}
	if err != nil {
		c.state = LoggedOut
		c.mu.Unlock()
		c.gate.Invalidate()

		reason := c.tr.T("toast.loginGeneric")
		if f, ok := dispatch.AsFailure(err); ok && f.Kind == dispatch.Rejected && f.Message != "" {
			reason = f.Message
		}
		c.logger.Warn("login failed", "error", err)
		c.toasts.Show(c.tr.Tf("toast.loginFailed", reason), notify.Error)
		return err
	}
	c.session.Establish(password)
	c.state = LoggedIn
	c.tab = resource.KindContacts
	c.mu.Unlock()

	c.logger.Info("login succeeded")
	c.toasts.Show(c.tr.T("toast.loginOK"), notify.Success)

	// fetch failures are reported through notifications and leave the
	// affected tab unpopulated
	_ = c.Refresh(ctx)
	return nil
}

// Logout discards the credential, every cached collection and any token.
// Results of requests still in flight are ignored when they arrive.
func (c *Controller) Logout() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.state = LoggedOut
	c.tab = resource.KindContacts
	c.epoch++
	c.needsVerification = false
	c.session.Destroy()
	c.gate.Invalidate()

	c.contacts.Reset()
	c.memories.Reset()
	c.merchandise.Reset()
	c.orders.Reset()
	c.logger.Info("logged out")
}

// State returns the current state and active tab.
func (c *Controller) State() (State, resource.Kind) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state, c.tab
}

// Tab returns the active tab.
func (c *Controller) Tab() resource.Kind {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tab
}

// NeedsVerification reports whether a gated operation was blocked for lack
// of a token and no fresh token has arrived since.
func (c *Controller) NeedsVerification() bool {
	c.mu.Lock()
	needs := c.needsVerification
	c.mu.Unlock()
	return needs && c.gate.State() != verify.Valid
}

// IsBusy reports whether key has a mutation in flight. Keys are create
// sentinels from oplock or values from ItemKey.
func (c *Controller) IsBusy(key string) bool {
	return c.locks.IsLocked(key)
}

// ItemKey is the lock key for one item. Identifiers are only unique within a
// collection, so the key is qualified by kind.
func ItemKey(kind resource.Kind, id string) string {
	return string(kind) + "/" + id
}

func (c *Controller) Contacts() []resource.ContactEntry       { return c.contacts.Snapshot() }
func (c *Controller) Memories() []resource.MemoryArticle      { return c.memories.Snapshot() }
func (c *Controller) Merchandise() []resource.MerchandiseItem { return c.merchandise.Snapshot() }
func (c *Controller) Orders() []resource.Order                { return c.orders.Snapshot() }

// Populated reports whether kind has been fetched this session.
func (c *Controller) Populated(kind resource.Kind) bool {
	switch kind {
	case resource.KindContacts:
		return c.contacts.Populated()
	case resource.KindMemories:
		return c.memories.Populated()
	case resource.KindMerchandise:
		return c.merchandise.Populated()
	case resource.KindOrders:
		return c.orders.Populated()
	}
	return false
}

// Gate exposes the verification gate so the front end can feed it widget
// callbacks.
func (c *Controller) Gate() *verify.Gate { return c.gate }

// Notifications exposes the notification queue.
func (c *Controller) Notifications() *notify.Queue { return c.toasts }

// Translator returns the controller's string table.
func (c *Controller) Translator() *i18n.Translator { return c.tr }

func (c *Controller) loggedIn() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state == LoggedIn
}
