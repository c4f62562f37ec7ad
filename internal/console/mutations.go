// ABOUTME: Operator mutations sharing one sequence across all collections
// ABOUTME: check -> lock -> verify -> dispatch -> reconcile and notify -> unlock

package console

import (
	"context"
	"errors"
	"fmt"

	"github.com/2389/keepsake/internal/dispatch"
	"github.com/2389/keepsake/internal/notify"
	"github.com/2389/keepsake/internal/oplock"
	"github.com/2389/keepsake/internal/resource"
	"github.com/2389/keepsake/internal/verify"
)

// mutation describes one gated change. reconcile runs only after the
// authority confirmed it.
type mutation[R any] struct {
	key       string
	cmd       dispatch.Command[R]
	reconcile func(R)
	success   func(R) string
	failKey   string
}

// run executes m with the uniform mutation sequence. Presence failures,
// lock contention and missing verification return before anything is sent
// and raise no notification.
func run[R any](ctx context.Context, c *Controller, m mutation[R]) (R, error) {
	var zero R

	if !c.loggedIn() {
		return zero, ErrNotLoggedIn
	}
	if err := m.cmd.Validate(); err != nil {
		return zero, fmt.Errorf("%s: %w", m.cmd.Action(), err)
	}
	if !c.locks.TryAcquire(m.key) {
		c.logger.Debug("dropping duplicate mutation", "action", m.cmd.Action(), "key", m.key)
		return zero, ErrInFlight
	}
	defer c.locks.Release(m.key)

	c.mu.Lock()
	token, err := c.gate.Consume()
	c.needsVerification = err != nil
	c.mu.Unlock()
	if err != nil {
		return zero, err
	}

	password, err := c.session.Credential()
	if err != nil {
		return zero, ErrNotLoggedIn
	}
	gen := c.session.Generation()

	result, err := dispatch.Dispatch(ctx, c.transport, m.cmd, dispatch.Credentials{Password: password, Token: token})

	c.mu.Lock()
	if !c.session.Current(gen) {
		c.mu.Unlock()
		c.logger.Debug("discarding result after logout", "action", m.cmd.Action())
		return zero, ErrSessionEnded
	}
	if err != nil {
		c.mu.Unlock()
		c.toasts.Show(c.tr.Tf(m.failKey, failureMessage(err)), notify.Error)
		return zero, err
	}
	m.reconcile(result)
	c.mu.Unlock()

	c.logger.Info("mutation confirmed", "action", m.cmd.Action(), "key", m.key)
	c.toasts.Show(m.success(result), notify.Success)
	return result, nil
}

func failureMessage(err error) string {
	if f, ok := dispatch.AsFailure(err); ok {
		return f.Message
	}
	return err.Error()
}

func (c *Controller) constant(key string) func(dispatch.Ack) string {
	return func(dispatch.Ack) string { return c.tr.T(key) }
}

// AddMemory publishes a memory article. The new article appears at the head
// of the memories collection with the authority's identifier.
func (c *Controller) AddMemory(ctx context.Context, draft dispatch.AddMemory) (resource.MemoryArticle, error) {
	if draft.Author == "" {
		draft.Author = DefaultAuthor
	}
	return run(ctx, c, mutation[resource.MemoryArticle]{
		key:       oplock.AddMemory,
		cmd:       draft,
		reconcile: func(m resource.MemoryArticle) { c.memories.Upsert(m) },
		success:   func(resource.MemoryArticle) string { return c.tr.T("toast.memoryOK") },
		failKey:   "toast.publishFailed",
	})
}

// AddContact adds a directory entry.
func (c *Controller) AddContact(ctx context.Context, draft dispatch.AddContact) (resource.ContactEntry, error) {
	return run(ctx, c, mutation[resource.ContactEntry]{
		key:       oplock.AddContact,
		cmd:       draft,
		reconcile: func(e resource.ContactEntry) { c.contacts.Upsert(e) },
		success:   func(resource.ContactEntry) string { return c.tr.T("toast.contactOK") },
		failKey:   "toast.publishFailed",
	})
}

// AddMerchandise lists a new souvenir.
func (c *Controller) AddMerchandise(ctx context.Context, draft dispatch.AddSouvenir) (resource.MerchandiseItem, error) {
	return run(ctx, c, mutation[resource.MerchandiseItem]{
		key:       oplock.AddSouvenir,
		cmd:       draft,
		reconcile: func(s resource.MerchandiseItem) { c.merchandise.Upsert(s) },
		success:   func(resource.MerchandiseItem) string { return c.tr.T("toast.souvenirOK") },
		failKey:   "toast.souvenirFailed",
	})
}

// DeleteContact removes a directory entry.
func (c *Controller) DeleteContact(ctx context.Context, id string) error {
	_, err := run(ctx, c, mutation[dispatch.Ack]{
		key:       ItemKey(resource.KindContacts, id),
		cmd:       dispatch.DeleteContact{ID: id},
		reconcile: func(dispatch.Ack) { c.contacts.Remove(id) },
		success:   c.constant("toast.deleteOK"),
		failKey:   "toast.deleteFailed",
	})
	return err
}

// DeleteMemory removes a memory article.
func (c *Controller) DeleteMemory(ctx context.Context, id string) error {
	_, err := run(ctx, c, mutation[dispatch.Ack]{
		key:       ItemKey(resource.KindMemories, id),
		cmd:       dispatch.DeleteMemory{ID: id},
		reconcile: func(dispatch.Ack) { c.memories.Remove(id) },
		success:   c.constant("toast.deleteOK"),
		failKey:   "toast.deleteFailed",
	})
	return err
}

// DeleteMerchandise removes a souvenir.
func (c *Controller) DeleteMerchandise(ctx context.Context, id string) error {
	_, err := run(ctx, c, mutation[dispatch.Ack]{
		key:       ItemKey(resource.KindMerchandise, id),
		cmd:       dispatch.DeleteSouvenir{ID: id},
		reconcile: func(dispatch.Ack) { c.merchandise.Remove(id) },
		success:   c.constant("toast.deleteOK"),
		failKey:   "toast.deleteFailed",
	})
	return err
}

// DeleteOrder removes an order.
func (c *Controller) DeleteOrder(ctx context.Context, id string) error {
	_, err := run(ctx, c, mutation[dispatch.Ack]{
		key:       ItemKey(resource.KindOrders, id),
		cmd:       dispatch.DeleteOrder{ID: id},
		reconcile: func(dispatch.Ack) { c.orders.Remove(id) },
		success:   c.constant("toast.deleteOK"),
		failKey:   "toast.deleteFailed",
	})
	return err
}

// ToggleStock flips the in-stock flag of a cached souvenir.
func (c *Controller) ToggleStock(ctx context.Context, id string) (resource.MerchandiseItem, error) {
	item, ok := c.merchandise.Get(id)
	if !ok {
		return resource.MerchandiseItem{}, fmt.Errorf("%w: merchandise %s", ErrUnknownItem, id)
	}
	return run(ctx, c, mutation[resource.MerchandiseItem]{
		key:       ItemKey(resource.KindMerchandise, id),
		cmd:       dispatch.UpdateStock{ID: id, InStock: !item.InStock},
		reconcile: func(s resource.MerchandiseItem) { c.merchandise.Upsert(s) },
		success: func(s resource.MerchandiseItem) string {
			if s.InStock {
				return c.tr.T("toast.markedIn")
			}
			return c.tr.T("toast.markedOut")
		},
		failKey: "toast.stockFailed",
	})
}

// UpdateOrderStatus moves an order to status through the same gated
// dispatch as every other mutation.
func (c *Controller) UpdateOrderStatus(ctx context.Context, id string, status resource.OrderStatus) (resource.Order, error) {
	return run(ctx, c, mutation[resource.Order]{
		key:       ItemKey(resource.KindOrders, id),
		cmd:       dispatch.UpdateOrderStatus{ID: id, Status: status},
		reconcile: func(o resource.Order) { c.orders.Upsert(o) },
		success:   func(resource.Order) string { return c.tr.T("toast.statusOK") },
		failKey:   "toast.statusFailed",
	})
}

// Silent reports whether err is one of the outcomes that deliberately raise
// no notification: lock contention, missing verification, a stale result or
// a local presence failure.
func Silent(err error) bool {
	return errors.Is(err, ErrInFlight) ||
		errors.Is(err, ErrSessionEnded) ||
		errors.Is(err, dispatch.ErrMissingField) ||
		errors.Is(err, verify.ErrVerificationRequired)
}
