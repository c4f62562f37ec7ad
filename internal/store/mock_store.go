// ABOUTME: Mock Store implementation for testing
// ABOUTME: Allows authority handler tests to run without a database

package store

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/2389/keepsake/internal/resource"
)

// table keeps rows in insertion order.
type table[T resource.Item] struct {
	rows []T
}

func (t *table[T]) list(newestFirst bool, created func(T) time.Time) []T {
	out := slices.Clone(t.rows)
	if out == nil {
		out = []T{}
	}
	if newestFirst {
		slices.Reverse(out)
		slices.SortStableFunc(out, func(a, b T) int { return created(b).Compare(created(a)) })
	}
	return out
}

func (t *table[T]) index(id string) int {
	return slices.IndexFunc(t.rows, func(r T) bool { return r.ItemID() == id })
}

func (t *table[T]) remove(id string) error {
	i := t.index(id)
	if i < 0 {
		return ErrNotFound
	}
	t.rows = slices.Delete(t.rows, i, i+1)
	return nil
}

// MockStore is an in-memory Store implementation for testing.
type MockStore struct {
	mu        sync.RWMutex
	contacts  table[resource.ContactEntry]
	memories  table[resource.MemoryArticle]
	messages  table[resource.GuestbookMessage]
	souvenirs table[resource.MerchandiseItem]
	orders    table[resource.Order]
	settings  map[string]string

	// Err, when set, is returned by every call.
	Err error
}

// NewMockStore creates a new MockStore.
func NewMockStore() *MockStore {
	return &MockStore{settings: make(map[string]string)}
}

func (m *MockStore) ListContacts(ctx context.Context, newestFirst bool) ([]resource.ContactEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Err != nil {
		return nil, m.Err
	}
	return m.contacts.list(newestFirst, func(c resource.ContactEntry) time.Time { return c.CreatedAt }), nil
}

func (m *MockStore) CreateContact(ctx context.Context, c *resource.ContactEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	assignID(&c.ID)
	stamp(&c.CreatedAt)
	m.contacts.rows = append(m.contacts.rows, *c)
	return nil
}

func (m *MockStore) DeleteContact(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	return m.contacts.remove(id)
}

func (m *MockStore) ListMemories(ctx context.Context, newestFirst bool) ([]resource.MemoryArticle, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Err != nil {
		return nil, m.Err
	}
	return m.memories.list(newestFirst, func(a resource.MemoryArticle) time.Time { return a.CreatedAt }), nil
}

func (m *MockStore) CreateMemory(ctx context.Context, a *resource.MemoryArticle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	assignID(&a.ID)
	stamp(&a.CreatedAt)
	m.memories.rows = append(m.memories.rows, *a)
	return nil
}

func (m *MockStore) DeleteMemory(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	return m.memories.remove(id)
}

func (m *MockStore) ListMessages(ctx context.Context, newestFirst bool) ([]resource.GuestbookMessage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Err != nil {
		return nil, m.Err
	}
	return m.messages.list(newestFirst, func(g resource.GuestbookMessage) time.Time { return g.CreatedAt }), nil
}

func (m *MockStore) CreateMessage(ctx context.Context, g *resource.GuestbookMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	assignID(&g.ID)
	stamp(&g.CreatedAt)
	m.messages.rows = append(m.messages.rows, *g)
	return nil
}

func (m *MockStore) ListSouvenirs(ctx context.Context, newestFirst bool) ([]resource.MerchandiseItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Err != nil {
		return nil, m.Err
	}
	return m.souvenirs.list(newestFirst, func(s resource.MerchandiseItem) time.Time { return s.CreatedAt }), nil
}

func (m *MockStore) CreateSouvenir(ctx context.Context, s *resource.MerchandiseItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	assignID(&s.ID)
	stamp(&s.CreatedAt)
	m.souvenirs.rows = append(m.souvenirs.rows, *s)
	return nil
}

func (m *MockStore) SetSouvenirStock(ctx context.Context, id string, inStock bool) (resource.MerchandiseItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return resource.MerchandiseItem{}, m.Err
	}
	i := m.souvenirs.index(id)
	if i < 0 {
		return resource.MerchandiseItem{}, ErrNotFound
	}
	m.souvenirs.rows[i].InStock = inStock
	return m.souvenirs.rows[i], nil
}

func (m *MockStore) DeleteSouvenir(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	return m.souvenirs.remove(id)
}

func (m *MockStore) ListOrders(ctx context.Context, newestFirst bool) ([]resource.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Err != nil {
		return nil, m.Err
	}
	out := m.orders.list(newestFirst, func(o resource.Order) time.Time { return o.CreatedAt })
	for i := range out {
		out[i].Items = slices.Clone(out[i].Items)
	}
	return out, nil
}

func (m *MockStore) CreateOrder(ctx context.Context, o *resource.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	assignID(&o.ID)
	stamp(&o.CreatedAt)
	o.Status = o.EffectiveStatus()
	if o.Items == nil {
		o.Items = []resource.OrderLine{}
	}
	row := *o
	row.Items = slices.Clone(o.Items)
	m.orders.rows = append(m.orders.rows, row)
	return nil
}

func (m *MockStore) SetOrderStatus(ctx context.Context, id string, status resource.OrderStatus) (resource.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return resource.Order{}, m.Err
	}
	if !status.Valid() {
		return resource.Order{}, fmt.Errorf("invalid order status %q", status)
	}
	i := m.orders.index(id)
	if i < 0 {
		return resource.Order{}, ErrNotFound
	}
	m.orders.rows[i].Status = status
	return m.orders.rows[i], nil
}

func (m *MockStore) DeleteOrder(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	return m.orders.remove(id)
}

func (m *MockStore) GetSetting(ctx context.Context, name string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Err != nil {
		return "", m.Err
	}
	v, ok := m.settings[name]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (m *MockStore) SetSetting(ctx context.Context, name, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.settings[name] = value
	return nil
}

func (m *MockStore) Close() error {
	return nil
}

// Ensure MockStore implements Store.
var _ Store = (*MockStore)(nil)
