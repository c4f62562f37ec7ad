// ABOUTME: Storefront cart and verification-gated checkout
// ABOUTME: Lines keep insertion order; quantities never drop below one

package cart

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/2389/keepsake/internal/dispatch"
	"github.com/2389/keepsake/internal/oplock"
	"github.com/2389/keepsake/internal/resource"
	"github.com/2389/keepsake/internal/verify"
)

var (
	// ErrOutOfStock is returned when adding an item that is not in stock.
	ErrOutOfStock = errors.New("item is out of stock")
	// ErrEmpty is returned when checking out an empty cart.
	ErrEmpty = errors.New("cart is empty")
	// ErrCheckoutInFlight is returned while a checkout is already being submitted.
	ErrCheckoutInFlight = errors.New("checkout already in flight")
)

// AllCategories is the pseudo-category that matches every item.
const AllCategories = "All"

const checkoutKey = "submit-order"

// Line is one item in the cart.
type Line struct {
	Item     resource.MerchandiseItem
	Quantity int
}

// Subtotal is price times quantity.
func (l Line) Subtotal() float64 {
	return l.Item.Price * float64(l.Quantity)
}

// Cart is safe for concurrent use.
type Cart struct {
	mu     sync.Mutex
	lines  []Line
	locks  *oplock.Registry
	logger *slog.Logger
}

// New returns an empty cart.
func New() *Cart {
	return &Cart{
		locks:  oplock.New(),
		logger: slog.Default().With("component", "cart"),
	}
}

// Add puts one unit of item in the cart. An item already present gets its
// quantity increased.
func (c *Cart) Add(item resource.MerchandiseItem) error {
	if !item.InStock {
		return fmt.Errorf("%w: %s", ErrOutOfStock, item.Name)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if i := c.indexLocked(item.ItemID()); i >= 0 {
		c.lines[i].Quantity++
		return nil
	}
	c.lines = append(c.lines, Line{Item: item, Quantity: 1})
	return nil
}

// UpdateQuantity adds delta to a line's quantity. A change that would take
// the quantity below one is ignored. It reports whether the quantity changed.
func (c *Cart) UpdateQuantity(id string, delta int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.indexLocked(id)
	if i < 0 {
		return false
	}
	next := c.lines[i].Quantity + delta
	if next < 1 || delta == 0 {
		return false
	}
	c.lines[i].Quantity = next
	return true
}

// Remove drops a line.
func (c *Cart) Remove(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.indexLocked(id)
	if i < 0 {
		return false
	}
	c.lines = slices.Delete(c.lines, i, i+1)
	return true
}

// Lines returns a copy of the cart contents.
func (c *Cart) Lines() []Line {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.lines)
}

// Total is the sum of all subtotals.
func (c *Cart) Total() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	var total float64
	for _, l := range c.lines {
		total += l.Subtotal()
	}
	return total
}

// Count is the number of units in the cart.
func (c *Cart) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, l := range c.lines {
		n += l.Quantity
	}
	return n
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines = nil
}

// Checkout submits the cart as a pre-order. It consumes a verification token
// whatever the outcome. When the authority accepts the order the submitted
// units leave the cart; lines added while the order was in flight stay.
func (c *Cart) Checkout(ctx context.Context, t dispatch.Transport, gate *verify.Gate, name, contact string) (resource.Order, error) {
	lines := c.Lines()
	if len(lines) == 0 {
		return resource.Order{}, ErrEmpty
	}

	cmd := dispatch.SubmitOrder{
		Name:    strings.TrimSpace(name),
		Contact: strings.TrimSpace(contact),
		Items:   make([]resource.OrderLine, 0, len(lines)),
	}
	for _, l := range lines {
		cmd.Items = append(cmd.Items, resource.OrderLine{
			ID:       l.Item.ID,
			Name:     l.Item.Name,
			Price:    l.Item.Price,
			Quantity: l.Quantity,
		})
		cmd.TotalAmount += l.Subtotal()
	}
	if err := cmd.Validate(); err != nil {
		return resource.Order{}, err
	}

	if !c.locks.TryAcquire(checkoutKey) {
		return resource.Order{}, ErrCheckoutInFlight
	}
	defer c.locks.Release(checkoutKey)

	token, err := gate.Consume()
	if err != nil {
		return resource.Order{}, err
	}

	order, err := dispatch.Dispatch(ctx, t, dispatch.Command[resource.Order](cmd), dispatch.Credentials{Token: token})
	if err != nil {
		c.logger.Warn("checkout failed", "error", err)
		return resource.Order{}, err
	}

	c.settle(cmd.Items)
	c.logger.Info("order placed", "order", order.ID, "lines", len(cmd.Items), "total", cmd.TotalAmount)
	return order, nil
}

// settle takes ordered units out of the cart.
func (c *Cart) settle(ordered []resource.OrderLine) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, o := range ordered {
		i := c.indexLocked(string(o.ID))
		if i < 0 {
			continue
		}
		c.lines[i].Quantity -= o.Quantity
		if c.lines[i].Quantity < 1 {
			c.lines = slices.Delete(c.lines, i, i+1)
		}
	}
}

// indexLocked must be called with mu held.
func (c *Cart) indexLocked(id string) int {
	return slices.IndexFunc(c.lines, func(l Line) bool { return l.Item.ItemID() == id })
}

// Categories returns AllCategories followed by each item category in the
// order it first appears.
func Categories(items []resource.MerchandiseItem) []string {
	out := []string{AllCategories}
	seen := make(map[string]struct{})
	for _, it := range items {
		if _, ok := seen[it.Category]; ok {
			continue
		}
		seen[it.Category] = struct{}{}
		out = append(out, it.Category)
	}
	return out
}

// FilterByCategory returns the items in category, or all items for
// AllCategories.
func FilterByCategory(items []resource.MerchandiseItem, category string) []resource.MerchandiseItem {
	if category == AllCategories {
		return slices.Clone(items)
	}
	var out []resource.MerchandiseItem
	for _, it := range items {
		if it.Category == category {
			out = append(out, it)
		}
	}
	return out
}
