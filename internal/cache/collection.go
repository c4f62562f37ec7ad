// ABOUTME: Authority-confirmed local mirror of one resource collection
// ABOUTME: Mutated only from confirmed dispatch results; newest-first or unordered

package cache

import (
	"slices"
	"sync"

	"github.com/2389/keepsake/internal/resource"
)

// Ordering is the insertion policy for newly created items.
type Ordering int

const (
	// Unordered appends new items; position carries no meaning.
	Unordered Ordering = iota
	// NewestFirst inserts new items at the head.
	NewestFirst
)

// OrderingFor returns the policy matching a collection kind.
func OrderingFor(kind resource.Kind) Ordering {
	if kind.NewestFirst() {
		return NewestFirst
	}
	return Unordered
}

// Collection is a sequence of items keyed by identifier. Identifiers are
// unique within a collection. It is safe for concurrent use.
type Collection[T resource.Item] struct {
	mu        sync.RWMutex
	ordering  Ordering
	items     []T
	populated bool
}

// New creates an empty, unpopulated collection.
func New[T resource.Item](ordering Ordering) *Collection[T] {
	return &Collection[T]{ordering: ordering}
}

// ReplaceAll installs the result of a bulk read, trusting the authority's
// order. Later duplicates of an identifier are dropped.
func (c *Collection[T]) ReplaceAll(items []T) {
	seen := make(map[string]struct{}, len(items))
	next := make([]T, 0, len(items))
	for _, it := range items {
		id := it.ItemID()
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		next = append(next, it)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = next
	c.populated = true
}

// Upsert applies a confirmed create or update. An identifier not yet present
// is a create and goes to the head (newest-first) or the tail (unordered).
// A present identifier is replaced in place.
func (c *Collection[T]) Upsert(item T) (created bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if i := c.indexLocked(item.ItemID()); i >= 0 {
		c.items[i] = item
		return false
	}
	if c.ordering == NewestFirst {
		c.items = slices.Insert(c.items, 0, item)
	} else {
		c.items = append(c.items, item)
	}
	return true
}

// Remove deletes the item with id. Removing an absent id is a no-op.
func (c *Collection[T]) Remove(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.indexLocked(id)
	if i < 0 {
		return false
	}
	c.items = slices.Delete(c.items, i, i+1)
	return true
}

// Get returns the item with id.
func (c *Collection[T]) Get(id string) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if i := c.indexLocked(id); i >= 0 {
		return c.items[i], true
	}
	var zero T
	return zero, false
}

// Snapshot returns a copy of the items in display order.
func (c *Collection[T]) Snapshot() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.items)
}

func (c *Collection[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Populated reports whether a bulk read has been installed since the last Reset.
func (c *Collection[T]) Populated() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.populated
}

// Reset empties the collection and marks it unpopulated.
func (c *Collection[T]) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = nil
	c.populated = false
}

// indexLocked must be called with mu held.
func (c *Collection[T]) indexLocked(id string) int {
	return slices.IndexFunc(c.items, func(it T) bool { return it.ItemID() == id })
}
