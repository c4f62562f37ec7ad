// ABOUTME: Bulk reads that populate the console's collections
// ABOUTME: Collections load concurrently and fail independently

package console

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/2389/keepsake/internal/cache"
	"github.com/2389/keepsake/internal/dispatch"
	"github.com/2389/keepsake/internal/notify"
	"github.com/2389/keepsake/internal/resource"
)

// SelectTab switches the active tab. The tab's collection is fetched only if
// it has not been populated this session.
func (c *Controller) SelectTab(ctx context.Context, tab resource.Kind) error {
	if !tab.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownTab, tab)
	}

	c.mu.Lock()
	if c.state != LoggedIn {
		c.mu.Unlock()
		return ErrNotLoggedIn
	}
	c.tab = tab
	c.mu.Unlock()

	if c.Populated(tab) {
		return nil
	}
	return c.RefreshTab(ctx, tab)
}

// Refresh fetches all four collections concurrently. A collection that fails
// keeps its previous contents; one notification reports any failure.
func (c *Controller) Refresh(ctx context.Context) error {
	if !c.loggedIn() {
		return ErrNotLoggedIn
	}
	gen := c.session.Generation()

	errs := make([]error, len(resource.Kinds))
	var wg sync.WaitGroup
	for i, kind := range resource.Kinds {
		i, kind := i, kind
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = c.fetch(ctx, kind, gen)
		}()
	}
	wg.Wait()

	err := errors.Join(errs...)
	if err != nil && !errors.Is(err, ErrSessionEnded) {
		c.toasts.Show(c.tr.T("toast.loadFailed"), notify.Error)
	}
	return err
}

// RefreshTab fetches one collection.
func (c *Controller) RefreshTab(ctx context.Context, tab resource.Kind) error {
	if !tab.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownTab, tab)
	}
	if !c.loggedIn() {
		return ErrNotLoggedIn
	}

	err := c.fetch(ctx, tab, c.session.Generation())
	if err != nil && !errors.Is(err, ErrSessionEnded) {
		c.toasts.Show(c.tr.T("toast.loadFailed"), notify.Error)
	}
	return err
}

func (c *Controller) fetch(ctx context.Context, kind resource.Kind, gen uint64) error {
	switch kind {
	case resource.KindContacts:
		return fetchInto(ctx, c, kind, gen, c.contacts)
	case resource.KindMemories:
		return fetchInto(ctx, c, kind, gen, c.memories)
	case resource.KindMerchandise:
		return fetchInto(ctx, c, kind, gen, c.merchandise)
	case resource.KindOrders:
		return fetchInto(ctx, c, kind, gen, c.orders)
	}
	return fmt.Errorf("%w: %q", ErrUnknownTab, kind)
}

func fetchInto[T resource.Item](ctx context.Context, c *Controller, kind resource.Kind, gen uint64, coll *cache.Collection[T]) error {
	items, err := dispatch.Fetch[T](ctx, c.transport, kind)

	// held so a concurrent Logout cannot interleave with the replace
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.session.Current(gen) {
		return ErrSessionEnded
	}
	if err != nil {
		c.logger.Warn("collection fetch failed", "collection", kind, "error", err)
		return fmt.Errorf("fetching %s: %w", kind, err)
	}
	coll.ReplaceAll(items)
	c.logger.Debug("collection loaded", "collection", kind, "count", len(items))
	return nil
}
