// ABOUTME: Store interface for keepsake-authority persistence
// ABOUTME: Contacts, memories, guestbook messages, souvenirs, orders and settings tables

package store

import (
	"context"
	"errors"

	"github.com/2389/keepsake/internal/resource"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// SettingAdminPassword holds the bcrypt hash of the operator password.
const SettingAdminPassword = "admin_password"

// Store defines the interface for the authority's tables. Create methods
// assign ID and CreatedAt when they are unset. Update and delete methods
// return ErrNotFound when no row matches.
type Store interface {
	// Contacts are listed in insertion order unless newestFirst is set.
	ListContacts(ctx context.Context, newestFirst bool) ([]resource.ContactEntry, error)
	CreateContact(ctx context.Context, c *resource.ContactEntry) error
	DeleteContact(ctx context.Context, id string) error

	ListMemories(ctx context.Context, newestFirst bool) ([]resource.MemoryArticle, error)
	CreateMemory(ctx context.Context, m *resource.MemoryArticle) error
	DeleteMemory(ctx context.Context, id string) error

	// Guestbook messages are append-only.
	ListMessages(ctx context.Context, newestFirst bool) ([]resource.GuestbookMessage, error)
	CreateMessage(ctx context.Context, g *resource.GuestbookMessage) error

	ListSouvenirs(ctx context.Context, newestFirst bool) ([]resource.MerchandiseItem, error)
	CreateSouvenir(ctx context.Context, s *resource.MerchandiseItem) error
	SetSouvenirStock(ctx context.Context, id string, inStock bool) (resource.MerchandiseItem, error)
	DeleteSouvenir(ctx context.Context, id string) error

	ListOrders(ctx context.Context, newestFirst bool) ([]resource.Order, error)
	CreateOrder(ctx context.Context, o *resource.Order) error
	SetOrderStatus(ctx context.Context, id string, status resource.OrderStatus) (resource.Order, error)
	DeleteOrder(ctx context.Context, id string) error

	// Settings are opaque key/value pairs. GetSetting returns ErrNotFound
	// for unknown names.
	GetSetting(ctx context.Context, name string) (string, error)
	SetSetting(ctx context.Context, name, value string) error

	// Close releases any resources held by the store
	Close() error
}
