// ABOUTME: Item variants and collection kinds for the keepsake console
// ABOUTME: Contacts, memories, merchandise and orders as returned by the remote authority

package resource

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// ID is an authority-assigned identifier. The authority may return either a
// JSON string (uuid) or a JSON number (serial key); both decode to the same
// decimal or textual form.
type ID string

// UnmarshalJSON accepts string and numeric identifiers.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("identifier must be a string or number: %w", err)
	}
	*id = ID(n.String())
	return nil
}

// Item is implemented by every resource variant.
type Item interface {
	ItemID() string
}

// ContactEntry is one entry of the class directory.
type ContactEntry struct {
	ID        ID        `json:"id"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	Email     string    `json:"email,omitempty"`
	Social    string    `json:"social,omitempty"`
	CreatedAt time.Time `json:"created_at,omitzero"`
}

func (c ContactEntry) ItemID() string { return string(c.ID) }

// MemoryArticle is a Markdown article in the memories collection.
type MemoryArticle struct {
	ID        ID        `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Author    string    `json:"author,omitempty"`
	CreatedAt time.Time `json:"created_at,omitzero"`
}

func (m MemoryArticle) ItemID() string { return string(m.ID) }

// GuestbookMessage is a note left by a visitor. Anyone who passes
// verification may sign; nobody edits.
type GuestbookMessage struct {
	ID        ID        `json:"id"`
	Name      string    `json:"name"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at,omitzero"`
}

func (g GuestbookMessage) ItemID() string { return string(g.ID) }

// MerchandiseItem is a souvenir offered in the storefront.
type MerchandiseItem struct {
	ID          ID        `json:"id"`
	Name        string    `json:"name"`
	Category    string    `json:"category"`
	Price       float64   `json:"price"`
	Description string    `json:"description"`
	ImageURL    string    `json:"image_url"`
	InStock     bool      `json:"in_stock"`
	CreatedAt   time.Time `json:"created_at,omitzero"`
}

func (s MerchandiseItem) ItemID() string { return string(s.ID) }

// OrderStatus is the fulfilment state of an order.
type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderCompleted OrderStatus = "completed"
	OrderCancelled OrderStatus = "cancelled"
)

// Valid reports whether s is one of the known statuses.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderCompleted, OrderCancelled:
		return true
	}
	return false
}

// OrderLine is one purchased item inside an order.
type OrderLine struct {
	ID       ID      `json:"id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
}

// Order is a storefront pre-order.
type Order struct {
	ID              ID          `json:"id"`
	CustomerName    string      `json:"customer_name"`
	CustomerContact string      `json:"customer_contact"`
	Items           []OrderLine `json:"items"`
	TotalAmount     float64     `json:"total_amount"`
	Status          OrderStatus `json:"status,omitempty"`
	CreatedAt       time.Time   `json:"created_at,omitzero"`
}

func (o Order) ItemID() string { return string(o.ID) }

// EffectiveStatus returns the order status, treating an unset status as pending.
func (o Order) EffectiveStatus() OrderStatus {
	if o.Status == "" {
		return OrderPending
	}
	return o.Status
}

// Kind names a collection held by the authority.
type Kind string

const (
	KindContacts    Kind = "contacts"
	KindMemories    Kind = "memories"
	KindMerchandise Kind = "merchandise"
	KindOrders      Kind = "orders"

	// KindMessages is the public guestbook. It is written by visitors and
	// is not one of the console's managed collections.
	KindMessages Kind = "messages"
)

// Kinds lists every collection in console tab order.
var Kinds = []Kind{KindContacts, KindMemories, KindMerchandise, KindOrders}

// Table returns the authority table backing the collection.
func (k Kind) Table() string {
	if k == KindMerchandise {
		return "souvenirs"
	}
	return string(k)
}

// NewestFirst reports whether the collection is ordered by created_at descending.
// Contacts have no inherent order.
func (k Kind) NewestFirst() bool {
	return k != KindContacts
}

// Valid reports whether k is one of the four managed collections.
func (k Kind) Valid() bool {
	switch k {
	case KindContacts, KindMemories, KindMerchandise, KindOrders:
		return true
	}
	return false
}

// ParseKind maps a collection or table name to its Kind.
func ParseKind(s string) (Kind, error) {
	if s == "souvenirs" {
		return KindMerchandise, nil
	}
	k := Kind(s)
	if !k.Valid() {
		return "", fmt.Errorf("unknown collection %q", s)
	}
	return k, nil
}
