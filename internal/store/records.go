// ABOUTME: SQLStore row operations for contacts, memories, messages, souvenirs, orders and settings
// ABOUTME: Creates assign uuid identifiers and timestamps; updates report ErrNotFound

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/2389/keepsake/internal/resource"
)

func assignID(id *resource.ID) {
	if *id == "" {
		*id = resource.ID(uuid.New().String())
	}
}

// ListContacts returns every contact.
func (s *SQLStore) ListContacts(ctx context.Context, newestFirst bool) ([]resource.ContactEntry, error) {
	query := `SELECT id, name, role, email, social, created_at FROM contacts` + orderClause(newestFirst)
	out, err := list(ctx, s, query, func(r rowScanner) (resource.ContactEntry, error) {
		var c resource.ContactEntry
		var created string
		if err := r.Scan(&c.ID, &c.Name, &c.Role, &c.Email, &c.Social, &created); err != nil {
			return c, err
		}
		c.CreatedAt, _ = parseTime(created)
		return c, nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing contacts: %w", err)
	}
	return out, nil
}

// CreateContact inserts a contact.
func (s *SQLStore) CreateContact(ctx context.Context, c *resource.ContactEntry) error {
	assignID(&c.ID)
	stamp(&c.CreatedAt)

	_, err := s.exec(ctx, `
		INSERT INTO contacts (id, name, role, email, social, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, string(c.ID), c.Name, c.Role, c.Email, c.Social, formatTime(c.CreatedAt))
	if err != nil {
		return fmt.Errorf("inserting contact: %w", err)
	}

	s.logger.Debug("created contact", "id", c.ID)
	return nil
}

// DeleteContact removes a contact by ID.
func (s *SQLStore) DeleteContact(ctx context.Context, id string) error {
	return s.deleteRow(ctx, "contacts", id)
}

// ListMemories returns every memory article.
func (s *SQLStore) ListMemories(ctx context.Context, newestFirst bool) ([]resource.MemoryArticle, error) {
	query := `SELECT id, title, content, author, created_at FROM memories` + orderClause(newestFirst)
	out, err := list(ctx, s, query, func(r rowScanner) (resource.MemoryArticle, error) {
		var m resource.MemoryArticle
		var created string
		if err := r.Scan(&m.ID, &m.Title, &m.Content, &m.Author, &created); err != nil {
			return m, err
		}
		m.CreatedAt, _ = parseTime(created)
		return m, nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing memories: %w", err)
	}
	return out, nil
}

// CreateMemory inserts a memory article.
func (s *SQLStore) CreateMemory(ctx context.Context, m *resource.MemoryArticle) error {
	assignID(&m.ID)
	stamp(&m.CreatedAt)

	_, err := s.exec(ctx, `
		INSERT INTO memories (id, title, content, author, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, string(m.ID), m.Title, m.Content, m.Author, formatTime(m.CreatedAt))
	if err != nil {
		return fmt.Errorf("inserting memory: %w", err)
	}

	s.logger.Debug("created memory", "id", m.ID)
	return nil
}

// DeleteMemory removes a memory by ID.
func (s *SQLStore) DeleteMemory(ctx context.Context, id string) error {
	return s.deleteRow(ctx, "memories", id)
}

// ListMessages returns every guestbook message.
func (s *SQLStore) ListMessages(ctx context.Context, newestFirst bool) ([]resource.GuestbookMessage, error) {
	query := `SELECT id, name, content, created_at FROM messages` + orderClause(newestFirst)
	out, err := list(ctx, s, query, func(r rowScanner) (resource.GuestbookMessage, error) {
		var g resource.GuestbookMessage
		var created string
		if err := r.Scan(&g.ID, &g.Name, &g.Content, &created); err != nil {
			return g, err
		}
		g.CreatedAt, _ = parseTime(created)
		return g, nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing messages: %w", err)
	}
	return out, nil
}

// CreateMessage inserts a guestbook message.
func (s *SQLStore) CreateMessage(ctx context.Context, g *resource.GuestbookMessage) error {
	assignID(&g.ID)
	stamp(&g.CreatedAt)

	_, err := s.exec(ctx, `
		INSERT INTO messages (id, name, content, created_at)
		VALUES (?, ?, ?, ?)
	`, string(g.ID), g.Name, g.Content, formatTime(g.CreatedAt))
	if err != nil {
		return fmt.Errorf("inserting message: %w", err)
	}

	s.logger.Debug("created message", "id", g.ID)
	return nil
}

const souvenirColumns = `id, name, category, price, description, image_url, in_stock, created_at`

func scanSouvenir(r rowScanner) (resource.MerchandiseItem, error) {
	var it resource.MerchandiseItem
	var created string
	if err := r.Scan(&it.ID, &it.Name, &it.Category, &it.Price, &it.Description, &it.ImageURL, &it.InStock, &created); err != nil {
		return it, err
	}
	it.CreatedAt, _ = parseTime(created)
	return it, nil
}

// ListSouvenirs returns every merchandise item.
func (s *SQLStore) ListSouvenirs(ctx context.Context, newestFirst bool) ([]resource.MerchandiseItem, error) {
	out, err := list(ctx, s, `SELECT `+souvenirColumns+` FROM souvenirs`+orderClause(newestFirst), scanSouvenir)
	if err != nil {
		return nil, fmt.Errorf("listing souvenirs: %w", err)
	}
	return out, nil
}

// CreateSouvenir inserts a merchandise item.
func (s *SQLStore) CreateSouvenir(ctx context.Context, it *resource.MerchandiseItem) error {
	assignID(&it.ID)
	stamp(&it.CreatedAt)

	_, err := s.exec(ctx, `
		INSERT INTO souvenirs (`+souvenirColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, string(it.ID), it.Name, it.Category, it.Price, it.Description, it.ImageURL, it.InStock, formatTime(it.CreatedAt))
	if err != nil {
		return fmt.Errorf("inserting souvenir: %w", err)
	}

	s.logger.Debug("created souvenir", "id", it.ID, "category", it.Category)
	return nil
}

// SetSouvenirStock updates the availability flag and returns the updated row.
func (s *SQLStore) SetSouvenirStock(ctx context.Context, id string, inStock bool) (resource.MerchandiseItem, error) {
	if err := s.execOne(ctx, `UPDATE souvenirs SET in_stock = ? WHERE id = ?`, inStock, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return resource.MerchandiseItem{}, ErrNotFound
		}
		return resource.MerchandiseItem{}, fmt.Errorf("updating souvenir stock: %w", err)
	}

	row := s.db.QueryRowContext(ctx, s.rebind(`SELECT `+souvenirColumns+` FROM souvenirs WHERE id = ?`), id)
	it, err := scanSouvenir(row)
	if errors.Is(err, sql.ErrNoRows) {
		return resource.MerchandiseItem{}, ErrNotFound
	}
	if err != nil {
		return resource.MerchandiseItem{}, fmt.Errorf("reading souvenir: %w", err)
	}
	return it, nil
}

// DeleteSouvenir removes a merchandise item by ID.
func (s *SQLStore) DeleteSouvenir(ctx context.Context, id string) error {
	return s.deleteRow(ctx, "souvenirs", id)
}

const orderColumns = `id, customer_name, customer_contact, items, total_amount, status, created_at`

func scanOrder(r rowScanner) (resource.Order, error) {
	var o resource.Order
	var items, created string
	if err := r.Scan(&o.ID, &o.CustomerName, &o.CustomerContact, &items, &o.TotalAmount, &o.Status, &created); err != nil {
		return o, err
	}
	if err := json.Unmarshal([]byte(items), &o.Items); err != nil {
		return o, fmt.Errorf("decoding items of order %s: %w", o.ID, err)
	}
	o.CreatedAt, _ = parseTime(created)
	return o, nil
}

// ListOrders returns every order.
func (s *SQLStore) ListOrders(ctx context.Context, newestFirst bool) ([]resource.Order, error) {
	out, err := list(ctx, s, `SELECT `+orderColumns+` FROM orders`+orderClause(newestFirst), scanOrder)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	return out, nil
}

// CreateOrder inserts an order. An unset status is stored as pending.
func (s *SQLStore) CreateOrder(ctx context.Context, o *resource.Order) error {
	assignID(&o.ID)
	stamp(&o.CreatedAt)
	o.Status = o.EffectiveStatus()
	if o.Items == nil {
		o.Items = []resource.OrderLine{}
	}

	items, err := json.Marshal(o.Items)
	if err != nil {
		return fmt.Errorf("encoding order items: %w", err)
	}

	_, err = s.exec(ctx, `
		INSERT INTO orders (`+orderColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, string(o.ID), o.CustomerName, o.CustomerContact, string(items), o.TotalAmount, string(o.Status), formatTime(o.CreatedAt))
	if err != nil {
		return fmt.Errorf("inserting order: %w", err)
	}

	s.logger.Debug("created order", "id", o.ID, "lines", len(o.Items))
	return nil
}

// SetOrderStatus updates an order's status and returns the updated row.
func (s *SQLStore) SetOrderStatus(ctx context.Context, id string, status resource.OrderStatus) (resource.Order, error) {
	if !status.Valid() {
		return resource.Order{}, fmt.Errorf("invalid order status %q", status)
	}
	if err := s.execOne(ctx, `UPDATE orders SET status = ? WHERE id = ?`, string(status), id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return resource.Order{}, ErrNotFound
		}
		return resource.Order{}, fmt.Errorf("updating order status: %w", err)
	}

	row := s.db.QueryRowContext(ctx, s.rebind(`SELECT `+orderColumns+` FROM orders WHERE id = ?`), id)
	o, err := scanOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return resource.Order{}, ErrNotFound
	}
	if err != nil {
		return resource.Order{}, fmt.Errorf("reading order: %w", err)
	}
	return o, nil
}

// DeleteOrder removes an order by ID.
func (s *SQLStore) DeleteOrder(ctx context.Context, id string) error {
	return s.deleteRow(ctx, "orders", id)
}

// deleteRow deletes by primary key. table is always one of the constant
// table names above, never caller input.
func (s *SQLStore) deleteRow(ctx context.Context, table, id string) error {
	err := s.execOne(ctx, `DELETE FROM `+table+` WHERE id = ?`, id)
	if errors.Is(err, ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("deleting from %s: %w", table, err)
	}
	s.logger.Debug("deleted row", "table", table, "id", id)
	return nil
}

// GetSetting returns the value stored under name.
func (s *SQLStore) GetSetting(ctx context.Context, name string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, s.rebind(`SELECT value FROM settings WHERE name = ?`), name).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("reading setting: %w", err)
	}
	return value, nil
}

// SetSetting creates or replaces a setting.
func (s *SQLStore) SetSetting(ctx context.Context, name, value string) error {
	_, err := s.exec(ctx, `
		INSERT INTO settings (name, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT (name) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, name, value, formatTime(time.Now()))
	if err != nil {
		return fmt.Errorf("writing setting: %w", err)
	}
	return nil
}
